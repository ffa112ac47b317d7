package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	apierrors "github.com/talas-dev/talas/internal/errors"
	"github.com/talas-dev/talas/internal/models"
	"github.com/talas-dev/talas/internal/transport/http/middleware"
)

// ListProjects — GET /v1/projects?page_size&page_token.
func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	var p models.ListParams

	if v := r.URL.Query().Get("page_size"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			apierrors.WriteError(w, r, statusErrorInvalidArgument("page_size: min"))
			return
		}

		p.PageSize = int32(n)
	}

	p.PageToken = r.URL.Query().Get("page_token")

	page, err := h.svc.ListProjects(r.Context(), middleware.ViewerFrom(r.Context()), p)
	if err != nil {
		apierrors.WriteError(w, r, toStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// GetProject — GET /v1/projects/{id}.
func (h *Handlers) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := projectID(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	p, err := h.svc.ProjectByID(r.Context(), id, middleware.ViewerFrom(r.Context()))
	if err != nil {
		apierrors.WriteError(w, r, toStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// Like — POST /v1/projects/{id}/like.
func (h *Handlers) Like(w http.ResponseWriter, r *http.Request) { h.react(w, r, h.svc.Like) }

// Unlike — DELETE /v1/projects/{id}/like.
func (h *Handlers) Unlike(w http.ResponseWriter, r *http.Request) { h.react(w, r, h.svc.Unlike) }

// Bookmark — POST /v1/projects/{id}/bookmark.
func (h *Handlers) Bookmark(w http.ResponseWriter, r *http.Request) { h.react(w, r, h.svc.Bookmark) }

// Unbookmark — DELETE /v1/projects/{id}/bookmark.
func (h *Handlers) Unbookmark(w http.ResponseWriter, r *http.Request) {
	h.react(w, r, h.svc.Unbookmark)
}

func (h *Handlers) react(w http.ResponseWriter, r *http.Request, call func(ctx context.Context, projectID, userID uuid.UUID) error) {
	id, err := projectID(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := call(r.Context(), id, middleware.ViewerFrom(r.Context())); err != nil {
		apierrors.WriteError(w, r, toStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
