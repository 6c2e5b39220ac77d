package extractor

import (
	"errors"
	"testing"

	"github.com/starford/framelens/internal/apperr"
	"github.com/starford/framelens/internal/models"
)

func text(s string) *models.Node {
	return &models.Node{Type: models.NodeText, Characters: s}
}

func frame(w, h float64, children ...*models.Node) *models.Node {
	return &models.Node{Type: models.NodeFrame, Width: &w, Height: &h, Children: children}
}

func deref(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func TestExtract_RanksByLength(t *testing.T) {
	md, err := New().Extract(frame(1920, 1080, text("a"), text("bb longer text"), text("mid")))
	if err != nil {
		t.Fatal(err)
	}
	if deref(md.Headline) != "bb longer text" {
		t.Errorf("headline = %q", deref(md.Headline))
	}
	if deref(md.BodyText) != "mid" {
		t.Errorf("body_text = %q", deref(md.BodyText))
	}
	if deref(md.CallToAction) != "a" {
		t.Errorf("call_to_action = %q", deref(md.CallToAction))
	}
	if md.AspectRatio != "16:9" {
		t.Errorf("aspect_ratio = %q", md.AspectRatio)
	}
}

func TestExtract_SingleText(t *testing.T) {
	md, err := New().Extract(frame(100, 100, text("only")))
	if err != nil {
		t.Fatal(err)
	}
	if deref(md.Headline) != "only" {
		t.Errorf("headline = %q", deref(md.Headline))
	}
	if md.BodyText != nil || md.CallToAction != nil {
		t.Errorf("body_text/call_to_action should be nil: %v %v", md.BodyText, md.CallToAction)
	}
}

func TestExtract_TiesKeepTraversalOrder(t *testing.T) {
	md, _ := New().Extract(frame(10, 10, text("aaa"), text("bbb"), text("ccc"), text("ddd")))
	if deref(md.Headline) != "aaa" || deref(md.BodyText) != "bbb" || deref(md.CallToAction) != "ccc" {
		t.Errorf("got %q %q %q", deref(md.Headline), deref(md.BodyText), deref(md.CallToAction))
	}
}

func TestExtract_LengthCountsRunes(t *testing.T) {
	// "éééé" is 4 runes but 8 bytes; "abcde" is 5 runes.
	md, _ := New().Extract(frame(10, 10, text("éééé"), text("abcde")))
	if deref(md.Headline) != "abcde" {
		t.Errorf("headline = %q", deref(md.Headline))
	}
}

func TestExtract_Defaults(t *testing.T) {
	md, err := New().Extract(&models.Node{Type: models.NodeGroup})
	if err != nil {
		t.Fatal(err)
	}
	if md.AspectRatio != models.DefaultAspectRatio || md.BackgroundColor != models.DefaultBackgroundColor || md.Locale != models.DefaultLocale {
		t.Errorf("defaults not applied: %+v", md)
	}
	if md.Keywords == nil || md.Objects == nil {
		t.Error("arrays must be non-nil")
	}
	if md.Headline != nil || md.Subheadline != nil || md.Disclaimer != nil {
		t.Error("text fields should be nil")
	}
}

func TestExtract_BackgroundColor(t *testing.T) {
	n := frame(10, 10)
	n.Fills = &models.Fills{Paints: []models.Paint{{Type: models.PaintSolid, Color: &models.RGB{R: 0, G: 0, B: 1}}}}
	md, _ := New().Extract(n)
	if md.BackgroundColor != "light blue" {
		t.Errorf("background_color = %q", md.BackgroundColor)
	}
}

func TestExtract_InvalidSizeKeepsDefaultRatio(t *testing.T) {
	md, _ := New().Extract(frame(0, 50))
	if md.AspectRatio != models.DefaultAspectRatio {
		t.Errorf("aspect_ratio = %q", md.AspectRatio)
	}
}

func TestExtract_NilNode(t *testing.T) {
	_, err := New().Extract(nil)
	if !errors.Is(err, apperr.ErrExtraction) {
		t.Errorf("err = %v, want ErrExtraction", err)
	}
}

type fixedLocale struct {
	code string
	ok   bool
	seen string
}

func (f *fixedLocale) Detect(text string) (string, bool) {
	f.seen = text
	return f.code, f.ok
}

func TestExtract_LocaleDetector(t *testing.T) {
	det := &fixedLocale{code: "de", ok: true}
	md, _ := New(WithLocaleDetector(det)).Extract(frame(10, 10, text("Hallo"), text("Welt")))
	if md.Locale != "de" {
		t.Errorf("locale = %q", md.Locale)
	}
	if det.seen != "Hallo\nWelt" {
		t.Errorf("detector saw %q", det.seen)
	}

	unsure := &fixedLocale{code: "xx", ok: false}
	md, _ = New(WithLocaleDetector(unsure)).Extract(frame(10, 10, text("?")))
	if md.Locale != models.DefaultLocale {
		t.Errorf("locale = %q, want default", md.Locale)
	}
}
