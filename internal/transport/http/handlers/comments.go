package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	apierrors "github.com/talas-dev/talas/internal/errors"
	"github.com/talas-dev/talas/internal/models"
	"github.com/talas-dev/talas/internal/service"
	"github.com/talas-dev/talas/internal/transport/http/middleware"
)

// ListComments — GET /v1/projects/{id}/comments: плоский список, сначала новые.
func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	id, err := projectID(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	items, err := h.svc.ListComments(r.Context(), id)
	if err != nil {
		apierrors.WriteError(w, r, toStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, models.CommentsResponse{Comments: items})
}

// CreateComment — POST /v1/projects/{id}/comments.
func (h *Handlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	id, err := projectID(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in models.CreateCommentRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, statusErrorInvalidArgument("malformed body"))
		return
	}

	c, err := h.svc.CreateComment(r.Context(), service.CreateCommentInput{
		ProjectID: id,
		Author:    models.Author{ID: middleware.ViewerFrom(r.Context())},
		Request:   in,
	})
	if err != nil {
		apierrors.WriteError(w, r, toStatus(err))
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

// UpdateComment — PATCH /v1/comments/{id}.
func (h *Handlers) UpdateComment(w http.ResponseWriter, r *http.Request) {
	var in models.UpdateCommentRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, statusErrorInvalidArgument("malformed body"))
		return
	}

	c, err := h.svc.UpdateComment(r.Context(), middleware.ViewerFrom(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		apierrors.WriteError(w, r, toStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// DeleteComment — DELETE /v1/comments/{id}.
func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteComment(r.Context(), middleware.ViewerFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		apierrors.WriteError(w, r, toStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
