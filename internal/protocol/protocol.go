// Package protocol defines the messages exchanged between the session
// orchestrator and its host.
package protocol

import (
	"encoding/json"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/framelens/internal/models"
)

// Inbound request types.
const (
	RequestAnalyzeSelection = "analyze-selection"
	RequestSaveResults      = "save-results"
	RequestSaveAPIKey       = "save-api-key"
	RequestCancel           = "cancel"
	RequestEnhance          = "enhance"
	RequestUpdateField      = "update-field"
)

// Outbound event types.
const (
	EventAPIKeyLoaded      = "api-key-loaded"
	EventAPIKeySaved       = "api-key-saved"
	EventAPIKeyError       = "api-key-error"
	EventAPIKeyRequired    = "api-key-required"
	EventAnalysisStart     = "analysis-start"
	EventMetadataExtracted = "metadata-extracted"
	EventAnalysisError     = "analysis-error"
	EventAnalysisCancelled = "analysis-cancelled"
	EventEnhancementStart  = "enhancement-start"
	EventMetadataEnhanced  = "metadata-enhanced"
	EventEnhancementError  = "enhancement-error"
	EventMetadataUpdated   = "metadata-updated"
	EventResultsSaved      = "results-saved"
	EventSaveError         = "save-error"
)

// Request is a message from the host.
type Request struct {
	Type    string                 `json:"type"`
	Results *models.DesignMetadata `json:"results,omitempty"`
	APIKey  string                 `json:"apiKey,omitempty"`
	Field   string                 `json:"field,omitempty"`
	Value   json.RawMessage        `json:"value,omitempty"`
}

// Validate checks the payload required by each request type.
func (r *Request) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Type, validation.Required, validation.In(
			RequestAnalyzeSelection, RequestSaveResults, RequestSaveAPIKey,
			RequestCancel, RequestEnhance, RequestUpdateField,
		)),
		validation.Field(&r.Field, validation.When(r.Type == RequestUpdateField, validation.Required, validation.In(toAny(models.Fields)...))),
		validation.Field(&r.Value, validation.When(r.Type == RequestUpdateField, validation.Required)),
		validation.Field(&r.Results),
	)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// Event is a message to the host.
type Event struct {
	Type        string                 `json:"type"`
	APIKey      string                 `json:"apiKey,omitempty"`
	Metadata    *models.DesignMetadata `json:"metadata,omitempty"`
	Image       string                 `json:"image,omitempty"`
	Message     string                 `json:"message,omitempty"`
	SelectionID string                 `json:"selectionId,omitempty"`
}
