// Package geometry holds the pure layout helpers: aspect-ratio reduction and
// dominant-fill classification.
package geometry

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/starford/framelens/internal/models"
)

// Named background colors returned by ClassifyFill.
const (
	ColorTransparent = "transparent"
	ColorLight       = "light"
	ColorDark        = "dark"
	ColorRed         = "red"
	ColorLightRed    = "light red"
	ColorGreen       = "green"
	ColorLightGreen  = "light green"
	ColorBlue        = "blue"
	ColorLightBlue   = "light blue"
)

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// ReduceRatio formats width:height reduced to lowest terms.
// Inputs are expected to be positive; a zero gcd leaves them unreduced.
func ReduceRatio(width, height int) string {
	g := gcd(width, height)
	if g == 0 {
		return fmt.Sprintf("%d:%d", width, height)
	}
	return fmt.Sprintf("%d:%d", width/g, height/g)
}

// AspectRatio rounds host dimensions to whole pixels and reduces them.
// It reports false when either side rounds below one pixel.
func AspectRatio(width, height float64) (string, bool) {
	w := int(math.Round(width))
	h := int(math.Round(height))
	if w < 1 || h < 1 {
		return "", false
	}
	return ReduceRatio(w, h), true
}

// ClassifyFill names the first solid paint in fills. Later solids are
// ignored. Mixed, empty, or solid-free fills are transparent.
func ClassifyFill(fills models.Fills) string {
	if fills.Mixed {
		return ColorTransparent
	}
	for _, p := range fills.Paints {
		if p.IsSolid() {
			return classify(colorful.Color{R: p.Color.R, G: p.Color.G, B: p.Color.B})
		}
	}
	return ColorTransparent
}

func classify(c colorful.Color) string {
	r8, g8, b8 := c.Clamped().RGB255()
	r, g, b := int(r8), int(g8), int(b8)

	switch {
	case r > 200 && g > 200 && b > 200:
		return ColorLight
	case r < 50 && g < 50 && b < 50:
		return ColorDark
	case r > g && r > b:
		if r > 200 {
			return ColorLightRed
		}
		return ColorRed
	case g > r && g > b:
		if g > 200 {
			return ColorLightGreen
		}
		return ColorGreen
	case b > r && b > g:
		if b > 200 {
			return ColorLightBlue
		}
		return ColorBlue
	}
	return fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)
}
