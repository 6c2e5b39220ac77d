package raster

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"math"
	"testing"

	"github.com/starford/framelens/internal/apperr"
	"github.com/starford/framelens/internal/models"
)

func size(v float64) *float64 { return &v }

func solidFill(r, g, b float64) *models.Fills {
	return &models.Fills{Paints: []models.Paint{{Type: models.PaintSolid, Color: &models.RGB{R: r, G: g, B: b}}}}
}

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

func TestRender_ScalesAndPaints(t *testing.T) {
	root := &models.Node{
		Type:   models.NodeFrame,
		Width:  size(20),
		Height: size(10),
		Fills:  solidFill(1, 0, 0),
		Children: []*models.Node{
			{Type: models.NodeRectangle, X: 10, Width: size(10), Height: size(10), Fills: solidFill(0, 0, 1)},
			{Type: models.NodeText, Characters: "Hi", Y: 0},
		},
	}

	data, err := NewPainter(2).Render(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	img := decode(t, data)
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Fatalf("bounds = %v, want 40x20", b)
	}

	r, _, bl, a := img.At(39, 19).RGBA()
	if bl>>8 != 255 || r != 0 || a>>8 != 255 {
		t.Errorf("right half should be blue, got r=%d b=%d a=%d", r>>8, bl>>8, a>>8)
	}
	r, _, bl, _ = img.At(1, 1).RGBA()
	if r>>8 != 255 || bl != 0 {
		t.Errorf("top left should be red, got r=%d b=%d", r>>8, bl>>8)
	}
}

func TestRender_DefaultScale(t *testing.T) {
	root := &models.Node{Type: models.NodeGroup, Width: size(3), Height: size(5)}
	data, err := NewPainter(0).Render(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if b := decode(t, data).Bounds(); b.Dx() != 6 || b.Dy() != 10 {
		t.Errorf("bounds = %v, want 6x10", b)
	}
}

func TestRender_Errors(t *testing.T) {
	p := NewPainter(2)

	if _, err := p.Render(context.Background(), &models.Node{Type: models.NodeFrame}); !errors.Is(err, apperr.ErrRasterization) {
		t.Errorf("no size: err = %v", err)
	}
	if _, err := p.Render(context.Background(), &models.Node{Type: models.NodeFrame, Width: size(0), Height: size(4)}); !errors.Is(err, apperr.ErrRasterization) {
		t.Errorf("zero size: err = %v", err)
	}

	for _, c := range []struct {
		name string
		p    *Painter
		w, h float64
	}{
		{"overflowing side", p, 2147483648, 2147483648},
		{"beyond side limit", p, maxSide + 1, 1},
		{"scaled budget", p, 8192, 8192},
		{"unscaled budget", NewPainter(0.1), 16384, 16384},
		{"infinite", p, math.Inf(1), 10},
		{"nan", p, math.NaN(), 10},
	} {
		node := &models.Node{Type: models.NodeFrame, Width: size(c.w), Height: size(c.h)}
		if _, err := c.p.Render(context.Background(), node); !errors.Is(err, apperr.ErrRasterization) {
			t.Errorf("%s: err = %v", c.name, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Render(ctx, &models.Node{Type: models.NodeFrame, Width: size(4), Height: size(4)})
	if !errors.Is(err, apperr.ErrRasterization) || !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: err = %v", err)
	}
}

func TestPaintColor_Hidden(t *testing.T) {
	hidden := false
	p := models.Paint{Type: models.PaintSolid, Color: &models.RGB{R: 1}, Visible: &hidden}
	if _, ok := paintColor(p); ok {
		t.Error("hidden paint should be skipped")
	}
	half := 0.5
	c, ok := paintColor(models.Paint{Type: models.PaintSolid, Color: &models.RGB{G: 1}, Opacity: &half})
	if !ok || c.A != 128 || c.G != 255 {
		t.Errorf("color = %+v", c)
	}
}
