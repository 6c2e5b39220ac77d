package enhance

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/spf13/cast"

	"github.com/starford/framelens/internal/apperr"
	"github.com/starford/framelens/internal/models"
)

var (
	fencedJSONRe = regexp.MustCompile("(?s)```json\\n(.*?)\\n```")
	firstBraceRe = regexp.MustCompile(`(?s)\{.*?\}`)
	residualRe   = regexp.MustCompile("^```json\\n|```$")
)

// extractJSON pulls the JSON payload out of generated text: a fenced json
// block first, then the first brace-delimited span (up to the first closing
// brace), else the text itself.
func extractJSON(content string) string {
	candidate := content
	if m := fencedJSONRe.FindStringSubmatch(content); m != nil {
		candidate = m[1]
	} else if m := firstBraceRe.FindString(content); m != "" {
		candidate = m
	}
	return residualRe.ReplaceAllString(candidate, "")
}

// parseReply decodes the generated text into a loose field map.
func parseReply(content string) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(extractJSON(content)), &fields); err != nil {
		return nil, fmt.Errorf("enhance: parse reply: %w: %w", apperr.ErrMalformedResponse, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("enhance: reply is not an object: %w", apperr.ErrMalformedResponse)
	}
	return fields, nil
}

// Merge overlays parsed fields on a copy of baseline. A parsed value wins
// only when it is truthy: a non-empty string or a non-empty array. Arrays
// replace the baseline wholesale. An aspect_ratio that is not "W:H" keeps
// the baseline.
func Merge(baseline models.DesignMetadata, parsed map[string]any) models.DesignMetadata {
	out := baseline.Clone()

	texts := map[string]**string{
		models.FieldHeadline:     &out.Headline,
		models.FieldSubheadline:  &out.Subheadline,
		models.FieldBodyText:     &out.BodyText,
		models.FieldCallToAction: &out.CallToAction,
		models.FieldDisclaimer:   &out.Disclaimer,
	}
	for name, dst := range texts {
		if s, ok := truthyString(parsed[name]); ok {
			*dst = models.Text(s)
		}
	}

	scalars := map[string]*string{
		models.FieldLocale:          &out.Locale,
		models.FieldBackgroundColor: &out.BackgroundColor,
	}
	for name, dst := range scalars {
		if s, ok := truthyString(parsed[name]); ok {
			*dst = s
		}
	}
	if s, ok := truthyString(parsed[models.FieldAspectRatio]); ok && models.IsAspectRatio(s) {
		out.AspectRatio = s
	}

	if list, ok := truthyList(parsed[models.FieldKeywords]); ok {
		out.Keywords = list
	}
	if list, ok := truthyList(parsed[models.FieldObjects]); ok {
		out.Objects = list
	}
	return out
}

func truthyString(v any) (string, bool) {
	switch t := v.(type) {
	case nil, bool, map[string]any, []any:
		return "", false
	case float64:
		if t == 0 {
			return "", false
		}
	}
	s, err := cast.ToStringE(v)
	if err != nil || s == "" {
		return "", false
	}
	return s, true
}

func truthyList(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := truthyString(item); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}
