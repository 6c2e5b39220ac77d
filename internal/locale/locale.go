// Package locale detects the language of design copy.
package locale

import (
	"fmt"
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Detector wraps a lingua language detector restricted to a fixed set of
// candidate languages.
type Detector struct {
	lingua lingua.LanguageDetector
}

// New builds a detector over the given ISO 639-1 codes. At least two
// languages are required. minDistance is lingua's minimum relative
// distance; 0 accepts any best guess.
func New(codes []string, minDistance float64) (*Detector, error) {
	langs, err := languages(codes)
	if err != nil {
		return nil, err
	}
	if len(langs) < 2 {
		return nil, fmt.Errorf("locale: need at least 2 languages, got %d", len(langs))
	}
	if minDistance < 0 || minDistance >= 1 {
		return nil, fmt.Errorf("locale: min distance %.2f out of range [0, 1)", minDistance)
	}

	d := lingua.NewLanguageDetectorBuilder().
		FromLanguages(langs...).
		WithMinimumRelativeDistance(minDistance).
		Build()
	return &Detector{lingua: d}, nil
}

// Detect returns the lower-case ISO 639-1 code of the most likely language.
func (d *Detector) Detect(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	lang, ok := d.lingua.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

func languages(codes []string) ([]lingua.Language, error) {
	out := make([]lingua.Language, 0, len(codes))
	seen := make(map[lingua.Language]struct{}, len(codes))
	for _, code := range codes {
		lang, ok := lookup(code)
		if !ok {
			return nil, fmt.Errorf("locale: unsupported language code %q", code)
		}
		if _, dup := seen[lang]; dup {
			continue
		}
		seen[lang] = struct{}{}
		out = append(out, lang)
	}
	return out, nil
}

func lookup(code string) (lingua.Language, bool) {
	code = strings.TrimSpace(code)
	for _, lang := range lingua.AllLanguages() {
		if strings.EqualFold(lang.IsoCode639_1().String(), code) {
			return lang, true
		}
	}
	return lingua.Unknown, false
}
