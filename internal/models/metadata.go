// Package models defines the domain types for framelens.
package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/framelens/internal/apperr"
)

// Metadata field names as they appear on the wire.
const (
	FieldHeadline        = "headline"
	FieldSubheadline     = "subheadline"
	FieldBodyText        = "body_text"
	FieldCallToAction    = "call_to_action"
	FieldDisclaimer      = "disclaimer"
	FieldKeywords        = "keywords"
	FieldLocale          = "locale"
	FieldAspectRatio     = "aspect_ratio"
	FieldBackgroundColor = "background_color"
	FieldObjects         = "objects"
)

// Fields lists every DesignMetadata field in schema order.
var Fields = []string{
	FieldHeadline,
	FieldSubheadline,
	FieldBodyText,
	FieldCallToAction,
	FieldDisclaimer,
	FieldKeywords,
	FieldLocale,
	FieldAspectRatio,
	FieldBackgroundColor,
	FieldObjects,
}

// Defaults for the non-nullable scalar fields.
const (
	DefaultLocale          = "en"
	DefaultAspectRatio     = "1:1"
	DefaultBackgroundColor = "transparent"
)

var aspectRatioRe = regexp.MustCompile(`^[1-9][0-9]*:[1-9][0-9]*$`)

// DesignMetadata is the extracted (or enhanced) description of a design.
//
// Text fields are nil when absent; an empty string is a present value.
// Array fields are never nil once the record has passed through
// NewDesignMetadata, JSON decoding, or Clone.
type DesignMetadata struct {
	Headline        *string  `json:"headline"`
	Subheadline     *string  `json:"subheadline"`
	BodyText        *string  `json:"body_text"`
	CallToAction    *string  `json:"call_to_action"`
	Disclaimer      *string  `json:"disclaimer"`
	Keywords        []string `json:"keywords"`
	Locale          string   `json:"locale"`
	AspectRatio     string   `json:"aspect_ratio"`
	BackgroundColor string   `json:"background_color"`
	Objects         []string `json:"objects"`
}

// IsAspectRatio reports whether s has the "W:H" form with positive integer
// sides.
func IsAspectRatio(s string) bool {
	return aspectRatioRe.MatchString(s)
}

// NewDesignMetadata returns a record with every field at its default.
func NewDesignMetadata() DesignMetadata {
	return DesignMetadata{
		Keywords:        []string{},
		Locale:          DefaultLocale,
		AspectRatio:     DefaultAspectRatio,
		BackgroundColor: DefaultBackgroundColor,
		Objects:         []string{},
	}
}

// Text returns a pointer to s, for populating optional text fields.
func Text(s string) *string {
	return &s
}

// Clone returns a deep copy of m.
func (m DesignMetadata) Clone() DesignMetadata {
	out := m
	out.Headline = cloneText(m.Headline)
	out.Subheadline = cloneText(m.Subheadline)
	out.BodyText = cloneText(m.BodyText)
	out.CallToAction = cloneText(m.CallToAction)
	out.Disclaimer = cloneText(m.Disclaimer)
	out.Keywords = append([]string{}, m.Keywords...)
	out.Objects = append([]string{}, m.Objects...)
	return out
}

func cloneText(p *string) *string {
	if p == nil {
		return nil
	}
	return Text(*p)
}

// MarshalJSON never emits null for an array field.
func (m DesignMetadata) MarshalJSON() ([]byte, error) {
	type plain DesignMetadata
	out := plain(m)
	if out.Keywords == nil {
		out.Keywords = []string{}
	}
	if out.Objects == nil {
		out.Objects = []string{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes on top of the defaults, so missing keys keep
// their default values and null arrays become empty.
func (m *DesignMetadata) UnmarshalJSON(data []byte) error {
	type plain DesignMetadata
	out := plain(NewDesignMetadata())
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*m = DesignMetadata(out)
	m.normalize()
	return nil
}

func (m *DesignMetadata) normalize() {
	if m.Keywords == nil {
		m.Keywords = []string{}
	}
	if m.Objects == nil {
		m.Objects = []string{}
	}
	if m.Locale == "" {
		m.Locale = DefaultLocale
	}
	if m.AspectRatio == "" {
		m.AspectRatio = DefaultAspectRatio
	}
	if m.BackgroundColor == "" {
		m.BackgroundColor = DefaultBackgroundColor
	}
}

// Validate checks the structural invariants of the record.
func (m *DesignMetadata) Validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.Locale, validation.Required),
		validation.Field(&m.AspectRatio, validation.Required, validation.Match(aspectRatioRe)),
		validation.Field(&m.BackgroundColor, validation.Required),
	)
}

// SetField applies a single manual edit. Text fields take a string or
// null, array fields take an array of strings or a comma-separated string.
func (m *DesignMetadata) SetField(name string, raw json.RawMessage) error {
	switch name {
	case FieldHeadline:
		return decodeText(raw, &m.Headline)
	case FieldSubheadline:
		return decodeText(raw, &m.Subheadline)
	case FieldBodyText:
		return decodeText(raw, &m.BodyText)
	case FieldCallToAction:
		return decodeText(raw, &m.CallToAction)
	case FieldDisclaimer:
		return decodeText(raw, &m.Disclaimer)
	case FieldKeywords:
		return decodeList(raw, &m.Keywords)
	case FieldObjects:
		return decodeList(raw, &m.Objects)
	case FieldLocale:
		return decodeScalar(raw, &m.Locale)
	case FieldAspectRatio:
		if err := decodeScalar(raw, &m.AspectRatio); err != nil {
			return err
		}
		if !IsAspectRatio(m.AspectRatio) {
			return fmt.Errorf("models: aspect_ratio %q is not W:H", m.AspectRatio)
		}
		return nil
	case FieldBackgroundColor:
		return decodeScalar(raw, &m.BackgroundColor)
	default:
		return fmt.Errorf("models: %q: %w", name, apperr.ErrUnknownField)
	}
}

func decodeText(raw json.RawMessage, dst **string) error {
	var v *string
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("models: expected string or null: %w", err)
	}
	*dst = v
	return nil
}

func decodeScalar(raw json.RawMessage, dst *string) error {
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("models: expected string: %w", err)
	}
	if v == "" {
		return fmt.Errorf("models: value must not be empty")
	}
	*dst = v
	return nil
}

func decodeList(raw json.RawMessage, dst *[]string) error {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		if list == nil {
			list = []string{}
		}
		*dst = list
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("models: expected array of strings or comma-separated string: %w", err)
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	*dst = out
	return nil
}
