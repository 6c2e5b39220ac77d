package canvas

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/framelens/internal/models"
)

const docJSON = `{
  "name": "Landing",
  "selection": [
    {"id": "1:2", "type": "FRAME", "width": 1080, "height": 1080,
     "children": [{"type": "TEXT", "characters": "Hello"}]}
  ]
}`

func TestDecodeAndSelection(t *testing.T) {
	doc, err := Decode(strings.NewReader(docJSON))
	if err != nil {
		t.Fatal(err)
	}
	s := NewSource()
	s.Set(doc)

	sel, err := s.Selection(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(sel) != 1 || sel[0].ID != "1:2" || !sel[0].IsAnalyzable() {
		t.Fatalf("selection = %+v", sel)
	}
	if sel[0].Children[0].ID == "" {
		t.Error("child without id should get one")
	}
}

func TestSelection_Empty(t *testing.T) {
	sel, err := NewSource().Selection(context.Background())
	if err != nil || len(sel) != 0 {
		t.Errorf("selection = %v, %v", sel, err)
	}
}

func TestAssignIDs_KeepsExisting(t *testing.T) {
	doc := &models.Document{Selection: []*models.Node{{ID: "keep"}, {}}}
	AssignIDs(doc)
	if doc.Selection[0].ID != "keep" {
		t.Errorf("id = %q", doc.Selection[0].ID)
	}
	if doc.Selection[1].ID == "" || doc.Selection[1].ID == doc.Selection[0].ID {
		t.Errorf("generated id = %q", doc.Selection[1].ID)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	s := NewSource()
	if err := s.LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file should fail")
	}
	bad := filepath.Join(t.TempDir(), "bad.json")
	_ = os.WriteFile(bad, []byte("{not json"), 0o644)
	if err := s.LoadFile(bad); err == nil {
		t.Error("bad json should fail")
	}
}
