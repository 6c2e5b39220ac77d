package models

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/starford/framelens/internal/apperr"
)

func TestNewDesignMetadata_Defaults(t *testing.T) {
	m := NewDesignMetadata()
	if m.Locale != "en" || m.AspectRatio != "1:1" || m.BackgroundColor != "transparent" {
		t.Errorf("defaults = %+v", m)
	}
	if m.Keywords == nil || m.Objects == nil {
		t.Error("arrays must be non-nil")
	}
	if err := m.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestDesignMetadata_MarshalNilArrays(t *testing.T) {
	data, err := json.Marshal(DesignMetadata{Locale: "en", AspectRatio: "1:1", BackgroundColor: "dark"})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"headline":null,"subheadline":null,"body_text":null,"call_to_action":null,"disclaimer":null,"keywords":[],"locale":"en","aspect_ratio":"1:1","background_color":"dark","objects":[]}`
	if string(data) != want {
		t.Errorf("json = %s", data)
	}
}

func TestDesignMetadata_RoundTrip(t *testing.T) {
	in := NewDesignMetadata()
	in.Headline = Text("Hello")
	in.CallToAction = Text("")
	in.Keywords = []string{"a", "b", "a"}
	in.Objects = []string{"logo"}
	in.Locale = "de"
	in.AspectRatio = "9:16"
	in.BackgroundColor = "rgb(1, 2, 3)"

	data, _ := json.Marshal(in)
	var out DesignMetadata
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip:\n in  %+v\n out %+v", in, out)
	}
}

func TestDesignMetadata_UnmarshalMissingKeys(t *testing.T) {
	var m DesignMetadata
	if err := json.Unmarshal([]byte(`{"headline":"x"}`), &m); err != nil {
		t.Fatal(err)
	}
	if m.Locale != DefaultLocale || m.Keywords == nil || m.Objects == nil {
		t.Errorf("defaults not applied: %+v", m)
	}
}

func TestDesignMetadata_Clone(t *testing.T) {
	a := NewDesignMetadata()
	a.Headline = Text("x")
	a.Keywords = []string{"k"}
	b := a.Clone()
	*b.Headline = "y"
	b.Keywords[0] = "changed"
	if *a.Headline != "x" || a.Keywords[0] != "k" {
		t.Error("clone shares memory with original")
	}
}

func TestDesignMetadata_SetField(t *testing.T) {
	m := NewDesignMetadata()

	if err := m.SetField(FieldHeadline, json.RawMessage(`"New"`)); err != nil || *m.Headline != "New" {
		t.Errorf("headline: %v", err)
	}
	if err := m.SetField(FieldHeadline, json.RawMessage(`null`)); err != nil || m.Headline != nil {
		t.Errorf("headline null: %v", err)
	}
	if err := m.SetField(FieldKeywords, json.RawMessage(`"a, b ,c"`)); err != nil || !reflect.DeepEqual(m.Keywords, []string{"a", "b", "c"}) {
		t.Errorf("keywords csv: %v %v", err, m.Keywords)
	}
	if err := m.SetField(FieldObjects, json.RawMessage(`["x","y"]`)); err != nil || !reflect.DeepEqual(m.Objects, []string{"x", "y"}) {
		t.Errorf("objects: %v %v", err, m.Objects)
	}
	if err := m.SetField(FieldAspectRatio, json.RawMessage(`"wide"`)); err == nil {
		t.Error("invalid aspect ratio should fail")
	}
	if err := m.SetField(FieldLocale, json.RawMessage(`""`)); err == nil {
		t.Error("empty locale should fail")
	}
	if err := m.SetField("colour", json.RawMessage(`"x"`)); !errors.Is(err, apperr.ErrUnknownField) {
		t.Errorf("unknown field err = %v", err)
	}
}

func TestDesignMetadata_Validate(t *testing.T) {
	m := NewDesignMetadata()
	m.AspectRatio = "0:5"
	if err := m.Validate(); err == nil {
		t.Error("0:5 should fail")
	}
}

func TestFills_JSON(t *testing.T) {
	var n Node
	body := `{"id":"1","type":"FRAME","width":10,"height":20,"fills":[{"type":"SOLID","color":{"r":1,"g":0,"b":0}}]}`
	if err := json.Unmarshal([]byte(body), &n); err != nil {
		t.Fatal(err)
	}
	if n.Fills == nil || n.Fills.Mixed || len(n.Fills.Paints) != 1 || !n.Fills.Paints[0].IsSolid() {
		t.Errorf("fills = %+v", n.Fills)
	}
	w, h, ok := n.Size()
	if !ok || w != 10 || h != 20 {
		t.Errorf("size = %v %v %v", w, h, ok)
	}

	mixed, _ := json.Marshal(Fills{Mixed: true})
	if string(mixed) != `"mixed"` {
		t.Errorf("mixed = %s", mixed)
	}
}
