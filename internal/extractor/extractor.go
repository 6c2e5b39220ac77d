// Package extractor derives baseline design metadata from a node tree using
// local heuristics only.
package extractor

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/starford/framelens/internal/apperr"
	"github.com/starford/framelens/internal/geometry"
	"github.com/starford/framelens/internal/models"
	"github.com/starford/framelens/internal/walker"
)

// LocaleDetector guesses the language of a text block.
// It returns an ISO 639-1 code and false when it is not confident.
type LocaleDetector interface {
	Detect(text string) (string, bool)
}

// Extractor builds baseline records.
type Extractor struct {
	locale LocaleDetector
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLocaleDetector enables locale detection over the joined node text.
func WithLocaleDetector(d LocaleDetector) Option {
	return func(e *Extractor) {
		e.locale = d
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the baseline metadata for node.
//
// Texts are ranked by length (longest first, ties in traversal order) and
// the top three become headline, body_text and call_to_action. Any further
// texts are dropped.
func (e *Extractor) Extract(node *models.Node) (models.DesignMetadata, error) {
	if node == nil {
		return models.DesignMetadata{}, fmt.Errorf("extractor: nil node: %w", apperr.ErrExtraction)
	}

	md := models.NewDesignMetadata()

	if w, h, ok := node.Size(); ok {
		if ratio, valid := geometry.AspectRatio(w, h); valid {
			md.AspectRatio = ratio
		}
	}

	if node.Fills != nil {
		md.BackgroundColor = geometry.ClassifyFill(*node.Fills)
	}

	texts := walker.CollectTexts(node)
	ranked := make([]string, len(texts))
	copy(ranked, texts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return utf8.RuneCountInString(ranked[i]) > utf8.RuneCountInString(ranked[j])
	})

	if len(ranked) > 0 {
		md.Headline = models.Text(ranked[0])
	}
	if len(ranked) > 1 {
		md.BodyText = models.Text(ranked[1])
	}
	if len(ranked) > 2 {
		md.CallToAction = models.Text(ranked[2])
	}

	if e.locale != nil {
		if code, ok := e.locale.Detect(walker.JoinedText(node)); ok {
			md.Locale = code
		}
	}

	return md, nil
}
