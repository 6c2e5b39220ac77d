package geometry

import (
	"encoding/json"
	"testing"

	"github.com/starford/framelens/internal/models"
)

func solid(r, g, b float64) models.Paint {
	return models.Paint{Type: models.PaintSolid, Color: &models.RGB{R: r, G: g, B: b}}
}

func TestReduceRatio(t *testing.T) {
	cases := map[[2]int]string{
		{16, 9}:      "16:9",
		{4, 4}:       "1:1",
		{1, 1}:       "1:1",
		{1920, 1080}: "16:9",
		{1080, 1350}: "4:5",
		{7, 3}:       "7:3",
	}
	for in, want := range cases {
		if got := ReduceRatio(in[0], in[1]); got != want {
			t.Errorf("ReduceRatio(%d, %d) = %q, want %q", in[0], in[1], got, want)
		}
	}
}

func TestReduceRatio_ZeroDoesNotPanic(t *testing.T) {
	if got := ReduceRatio(0, 0); got != "0:0" {
		t.Errorf("ReduceRatio(0, 0) = %q", got)
	}
}

func TestAspectRatio(t *testing.T) {
	got, ok := AspectRatio(1080.4, 1920)
	if !ok || got != "9:16" {
		t.Errorf("AspectRatio = %q, %v", got, ok)
	}
	if _, ok := AspectRatio(0.2, 100); ok {
		t.Error("sub-pixel width should be rejected")
	}
	if _, ok := AspectRatio(100, -5); ok {
		t.Error("negative height should be rejected")
	}
}

func TestClassifyFill_Transparent(t *testing.T) {
	if got := ClassifyFill(models.Fills{}); got != ColorTransparent {
		t.Errorf("empty = %q", got)
	}
	if got := ClassifyFill(models.Fills{Paints: []models.Paint{{Type: "IMAGE"}}}); got != ColorTransparent {
		t.Errorf("image only = %q", got)
	}
	if got := ClassifyFill(models.Fills{Mixed: true}); got != ColorTransparent {
		t.Errorf("mixed = %q", got)
	}
}

func TestClassifyFill_Named(t *testing.T) {
	cases := []struct {
		paint models.Paint
		want  string
	}{
		{solid(1, 1, 1), ColorLight},
		{solid(0, 0, 0), ColorDark},
		{solid(1, 0, 0), ColorLightRed},
		{solid(0.5, 0, 0), ColorRed},
		{solid(0, 1, 0), ColorLightGreen},
		{solid(0, 0.5, 0), ColorGreen},
		{solid(0, 0, 1), ColorLightBlue},
		{solid(0, 0, 0.5), ColorBlue},
		{solid(0.5, 0.5, 0), "rgb(128, 128, 0)"},
	}
	for _, c := range cases {
		got := ClassifyFill(models.Fills{Paints: []models.Paint{c.paint}})
		if got != c.want {
			t.Errorf("ClassifyFill(%+v) = %q, want %q", *c.paint.Color, got, c.want)
		}
	}
}

func TestClassifyFill_FirstSolidWins(t *testing.T) {
	fills := models.Fills{Paints: []models.Paint{
		{Type: "GRADIENT_LINEAR"},
		solid(0, 0, 0),
		solid(1, 1, 1),
	}}
	if got := ClassifyFill(fills); got != ColorDark {
		t.Errorf("got %q, want dark", got)
	}
}

func TestClassifyFill_RoundsToNearest(t *testing.T) {
	// 0.785 * 255 = 200.175 -> 200, not above the light threshold.
	got := ClassifyFill(models.Fills{Paints: []models.Paint{solid(0.785, 0.785, 0.785)}})
	if got != "rgb(200, 200, 200)" {
		t.Errorf("got %q", got)
	}
}

func TestClassifyFill_DecodedMixed(t *testing.T) {
	var n models.Node
	if err := json.Unmarshal([]byte(`{"type":"FRAME","fills":"mixed"}`), &n); err != nil {
		t.Fatal(err)
	}
	if n.Fills == nil || !n.Fills.Mixed {
		t.Fatalf("fills = %+v", n.Fills)
	}
	if got := ClassifyFill(*n.Fills); got != ColorTransparent {
		t.Errorf("got %q", got)
	}
}
