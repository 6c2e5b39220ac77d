package api

import (
	"context"
	"net/http"

	"github.com/starford/framelens/internal/models"
	"github.com/starford/framelens/internal/protocol"
	"github.com/starford/framelens/internal/session"
	"github.com/starford/framelens/internal/store"
)

// Session is the orchestrator surface used by the HTTP bridge.
type Session interface {
	Handle(ctx context.Context, req protocol.Request) error
	Snapshot() session.Snapshot
}

// DocumentSetter replaces the current canvas document.
type DocumentSetter interface {
	Set(doc *models.Document)
}

// ImageStore reads and removes rendered images.
type ImageStore interface {
	Read(path string) ([]byte, error)
	Delete(path string) error
}

// Deps are the collaborators of the HTTP bridge.
type Deps struct {
	Session   Session
	Documents DocumentSetter
	Analyses  store.Repository
	Images    ImageStore
	Events    http.Handler
}

// Analysis is a saved analysis in API responses (aliased from the store layer).
type Analysis = store.Analysis

// AnalysisListResponse wraps paginated analysis listings.
type AnalysisListResponse struct {
	Analyses []Analysis `json:"analyses" validate:"required"`
	Total    int        `json:"total" example:"42" validate:"required"`
}

// DocumentResponse is returned after the canvas document is replaced.
type DocumentResponse struct {
	Name      string `json:"name,omitempty" example:"Landing page"`
	Selection int    `json:"selection" example:"1" validate:"required"`
}

// AcceptedResponse is returned when a host message was handed to the session.
type AcceptedResponse struct {
	Status string `json:"status" example:"accepted" validate:"required"`
	Detail string `json:"detail,omitempty" example:"session: no selection"`
}
