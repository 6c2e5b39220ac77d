package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/framelens/internal/apperr"
	"github.com/starford/framelens/internal/canvas"
	"github.com/starford/framelens/internal/checksum"
	"github.com/starford/framelens/internal/protocol"
)

const maxBodySize = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	deps Deps
}

// NewHandler creates a new Handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// selectionID extracts the {id} URL parameter. Host ids contain colons, so
// encoded forms (1%3A2) are accepted too.
func selectionID(r *http.Request) string {
	raw := chi.URLParam(r, "id")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// PostMessage handles POST /api/messages.
//
//	@Summary		Send a host message to the session
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		protocol.Request	true	"Host message"
//	@Success		202		{object}	AcceptedResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/messages [post]
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var req protocol.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	err := h.deps.Session.Handle(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, AcceptedResponse{Status: "accepted"})
	case errors.Is(err, apperr.ErrUnknownRequest),
		errors.Is(err, apperr.ErrUnknownField),
		errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrInvalidState):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	default:
		// The failure was already reported to the host as an event.
		slog.Warn("message handling failed", slog.String("type", req.Type), slog.String("error", err.Error()))
		writeJSON(w, http.StatusAccepted, AcceptedResponse{Status: "accepted", Detail: err.Error()})
	}
}

// PutDocument handles PUT /api/document.
//
//	@Summary		Replace the canvas document and selection
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Success		200		{object}	DocumentResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/document [put]
func (h *Handler) PutDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	doc, err := canvas.Decode(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	h.deps.Documents.Set(doc)
	writeJSON(w, http.StatusOK, DocumentResponse{Name: doc.Name, Selection: len(doc.Selection)})
}

// GetSession handles GET /api/session.
//
//	@Summary		Current session state
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	session.Snapshot
//	@Security		BearerAuth
//	@Router			/session [get]
func (h *Handler) GetSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Session.Snapshot())
}

// ListAnalyses handles GET /api/analyses.
//
//	@Summary		List saved analyses, most recent first
//	@Tags			analyses
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	AnalysisListResponse
//	@Security		BearerAuth
//	@Router			/analyses [get]
func (h *Handler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.deps.Analyses.ListAnalyses(r.Context(), limit, offset)
	if err != nil {
		slog.Error("list analyses failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, AnalysisListResponse{Analyses: items, Total: total})
}

// GetAnalysis handles GET /api/analyses/{id}.
//
//	@Summary		Get a saved analysis
//	@Tags			analyses
//	@Produce		json
//	@Param			id				path		string	true	"Selection id"
//	@Param			If-None-Match	header		string	false	"Checksum from a previous ETag"
//	@Success		200				{object}	Analysis
//	@Success		304				"Not modified"
//	@Failure		404				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/analyses/{id} [get]
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := selectionID(r)
	a, err := h.deps.Analyses.GetAnalysis(r.Context(), id)
	if err != nil {
		h.storeError(w, "get analysis failed", id, err)
		return
	}

	w.Header().Set("ETag", checksum.ETag(a.Checksum))
	if checksum.Matches(r.Header.Get("If-None-Match"), a.Checksum) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// GetAnalysisImage handles GET /api/analyses/{id}/image.
//
//	@Summary		Rendered PNG of a saved analysis
//	@Tags			analyses
//	@Produce		png
//	@Param			id	path	string	true	"Selection id"
//	@Success		200	"PNG image"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/analyses/{id}/image [get]
func (h *Handler) GetAnalysisImage(w http.ResponseWriter, r *http.Request) {
	id := selectionID(r)
	a, err := h.deps.Analyses.GetAnalysis(r.Context(), id)
	if err != nil {
		h.storeError(w, "get analysis failed", id, err)
		return
	}
	if a.ImagePath == "" {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	data, err := h.deps.Images.Read(a.ImagePath)
	if err != nil {
		slog.Warn("read image failed", slog.String("selection_id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// DeleteAnalysis handles DELETE /api/analyses/{id}.
//
//	@Summary		Delete a saved analysis and its image
//	@Tags			analyses
//	@Param			id	path	string	true	"Selection id"
//	@Success		204	"Analysis deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/analyses/{id} [delete]
func (h *Handler) DeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	id := selectionID(r)
	a, err := h.deps.Analyses.GetAnalysis(r.Context(), id)
	if err != nil {
		h.storeError(w, "get analysis failed", id, err)
		return
	}
	if err := h.deps.Analyses.DeleteAnalysis(r.Context(), id); err != nil {
		h.storeError(w, "delete analysis failed", id, err)
		return
	}
	if a.ImagePath != "" {
		if err := h.deps.Images.Delete(a.ImagePath); err != nil {
			slog.Warn("delete image failed", slog.String("selection_id", id), slog.String("error", err.Error()))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) storeError(w http.ResponseWriter, msg, id string, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	slog.Error(msg, slog.String("selection_id", id), slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}
