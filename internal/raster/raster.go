// Package raster renders a node subtree to PNG bytes.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/starford/framelens/internal/apperr"
	"github.com/starford/framelens/internal/models"
)

// DefaultScale matches the host's 2x PNG export.
const DefaultScale = 2.0

// Size limits for both the unscaled canvas and the scaled output.
const (
	maxSide   = 1 << 16
	maxPixels = 64 << 20
)

// Rasterizer renders a node subtree to an encoded PNG.
type Rasterizer interface {
	Render(ctx context.Context, node *models.Node) ([]byte, error)
}

// Painter is a software Rasterizer. It paints solid fills as rectangles and
// text with a fixed bitmap face, which is enough for the vision model to
// see layout and copy. It does not attempt to reproduce the host renderer.
type Painter struct {
	scale float64
}

// NewPainter creates a Painter with the given scale factor.
// Non-positive scales fall back to DefaultScale.
func NewPainter(scale float64) *Painter {
	if scale <= 0 {
		scale = DefaultScale
	}
	return &Painter{scale: scale}
}

// Verify *Painter satisfies Rasterizer at compile time.
var _ Rasterizer = (*Painter)(nil)

type frame struct {
	node   *models.Node
	origin image.Point
}

// Render paints node and its descendants, scales the result, and encodes it
// as PNG. The root's own x/y are ignored; children are offset from their
// parent.
func (p *Painter) Render(ctx context.Context, node *models.Node) ([]byte, error) {
	w, h, ok := node.Size()
	if !ok {
		return nil, fmt.Errorf("raster: node has no size: %w", apperr.ErrRasterization)
	}
	if !(w <= maxSide && h <= maxSide) {
		return nil, fmt.Errorf("raster: size %vx%v exceeds %d per side: %w", w, h, maxSide, apperr.ErrRasterization)
	}
	iw, ih := int(math.Ceil(w)), int(math.Ceil(h))
	if iw < 1 || ih < 1 {
		return nil, fmt.Errorf("raster: invalid size %vx%v: %w", w, h, apperr.ErrRasterization)
	}
	fw, fh := float64(iw)*p.scale, float64(ih)*p.scale
	if float64(iw)*float64(ih) > maxPixels || fw*fh > maxPixels {
		return nil, fmt.Errorf("raster: size %dx%d at scale %v exceeds pixel budget: %w", iw, ih, p.scale, apperr.ErrRasterization)
	}
	sw, sh := int(math.Round(fw)), int(math.Round(fh))
	if sw < 1 || sh < 1 {
		return nil, fmt.Errorf("raster: scaled size %dx%d out of range: %w", sw, sh, apperr.ErrRasterization)
	}

	canvas := imaging.New(iw, ih, color.Transparent)

	stack := []frame{{node: node}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("raster: %w: %w", apperr.ErrRasterization, err)
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.node == nil {
			continue
		}

		paintNode(canvas, f.node, f.origin)

		for i := len(f.node.Children) - 1; i >= 0; i-- {
			child := f.node.Children[i]
			if child == nil {
				continue
			}
			stack = append(stack, frame{
				node:   child,
				origin: f.origin.Add(image.Pt(int(math.Round(child.X)), int(math.Round(child.Y)))),
			})
		}
	}

	var out image.Image = canvas
	if sw != iw || sh != ih {
		out = imaging.Resize(canvas, sw, sh, imaging.NearestNeighbor)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("raster: encode png: %w: %w", apperr.ErrRasterization, err)
	}
	return buf.Bytes(), nil
}

func paintNode(dst *image.NRGBA, n *models.Node, origin image.Point) {
	if n.IsText() {
		drawText(dst, n, origin)
		return
	}
	w, h, ok := n.Size()
	if !ok || n.Fills == nil {
		return
	}
	rect := image.Rect(origin.X, origin.Y, origin.X+int(math.Round(w)), origin.Y+int(math.Round(h)))
	for _, paint := range n.Fills.Paints {
		c, ok := paintColor(paint)
		if !ok {
			continue
		}
		xdraw.Draw(dst, rect, image.NewUniform(c), image.Point{}, xdraw.Over)
	}
}

func drawText(dst *image.NRGBA, n *models.Node, origin image.Point) {
	ink := color.Color(color.Black)
	if n.Fills != nil {
		for _, paint := range n.Fills.Paints {
			if c, ok := paintColor(paint); ok {
				ink = c
				break
			}
		}
	}

	face := basicfont.Face7x13
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(ink), Face: face}
	for i, line := range strings.Split(n.Characters, "\n") {
		d.Dot = fixed.P(origin.X, origin.Y+face.Ascent+i*face.Height)
		d.DrawString(line)
	}
}

func paintColor(p models.Paint) (color.NRGBA, bool) {
	if !p.IsSolid() || (p.Visible != nil && !*p.Visible) {
		return color.NRGBA{}, false
	}
	r, g, b := colorful.Color{R: p.Color.R, G: p.Color.G, B: p.Color.B}.Clamped().RGB255()
	alpha := 1.0
	if p.Opacity != nil {
		alpha = math.Max(0, math.Min(1, *p.Opacity))
	}
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(alpha * 255))}, true
}
