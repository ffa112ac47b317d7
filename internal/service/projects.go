package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/talas-dev/talas/internal/models"
	"github.com/talas-dev/talas/internal/pkg/log"
	"github.com/talas-dev/talas/internal/storage"
)

// ListProjects — страница ленты для зрителя (uuid.Nil — аноним).
// page_size приводится к [1, Limits.Max], 0 -> Limits.Default.
//
// Поведение/ошибки:
//   - ErrInvalidArgument — отрицательный page_size;
//   - ErrInvalidCursor — некорректный page_token;
//   - ErrInternal — иные ошибки стораджа.
func (s *Service) ListProjects(ctx context.Context, viewer uuid.UUID, p models.ListParams) (*models.ProjectPage, error) {
	const op = "service/projects/ListProjects"

	lg := log.From(ctx).With("op", op, "viewer", viewer.String())

	if p.PageSize < 0 {
		lg.Warn("invalid argument: negative page_size")
		return nil, fmt.Errorf("%s: %w", op, &ValidationError{Field: "page_size", Tag: "min"})
	}

	p.PageSize = s.pageSize(p.PageSize)

	page, err := s.projects.ListProjects(ctx, viewer, p)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidCursor):
			lg.Warn("invalid cursor")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCursor)
		default:
			lg.Error("storage error on ListProjects", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	return page, nil
}

// ProjectByID — карточка проекта с флагами зрителя.
func (s *Service) ProjectByID(ctx context.Context, id, viewer uuid.UUID) (*models.Project, error) {
	const op = "service/projects/ProjectByID"

	lg := log.From(ctx).With("op", op, "project_id", id.String())

	if id == uuid.Nil {
		lg.Warn("invalid argument: empty project id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	p, err := s.projects.ProjectByID(ctx, id, viewer)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("project not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error on ProjectByID", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	return p, nil
}

func (s *Service) pageSize(n int32) int32 {
	if n == 0 {
		n = s.limits.Default
	}

	if n > s.limits.Max {
		n = s.limits.Max
	}

	return n
}
