package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/talas-dev/talas/internal/models"
	"github.com/talas-dev/talas/internal/pkg/log"
	"github.com/talas-dev/talas/internal/storage"
)

// CreateCommentInput — создание корневого комментария или ответа.
type CreateCommentInput struct {
	ProjectID uuid.UUID
	Author    models.Author
	Request   models.CreateCommentRequest
}

// ListComments — все комментарии проекта плоским списком, сначала новые.
// Дерево строит клиент (internal/commenttree).
//
// Поведение/ошибки:
//   - ErrNotFound — проекта нет;
//   - ErrInternal — иные ошибки стораджа.
func (s *Service) ListComments(ctx context.Context, projectID uuid.UUID) ([]models.Comment, error) {
	const op = "service/comments/ListComments"

	lg := log.From(ctx).With("op", op, "project_id", projectID.String())

	if err := s.projectExists(ctx, op, projectID); err != nil {
		return nil, err
	}

	items, err := s.comments.ListByProject(ctx, projectID)
	if err != nil {
		lg.Error("storage error on ListByProject", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return items, nil
}

// CreateComment — бизнес-операция создания комментария.
//
// Валидация:
//   - Author.ID обязателен (uuid.Nil -> ErrUnauthenticated);
//   - Content нормализуется (TrimSpace), не пуст и не длиннее Limits.CommentMax рун;
//   - ParentID, если задан, — ObjectID в hex.
//
// Поведение/ошибки:
//   - ErrNotFound — проекта нет;
//   - ErrParentNotFound — родителя нет в этом проекте;
//   - ErrMaxDepthExceeded — ветка глубже Limits.MaxDepth;
//   - ErrInternal — прочие ошибки стораджа.
//
// Успешное создание увеличивает count_comments проекта.
func (s *Service) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	const op = "service/comments/CreateComment"

	lg := log.From(ctx).With(
		"op", op,
		"project_id", in.ProjectID.String(),
		"user_id", in.Author.ID.String(),
		"parent_id", in.Request.ParentID,
	)

	if in.Author.ID == uuid.Nil {
		lg.Warn("unauthenticated")
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	in.Request.ParentID = strings.TrimSpace(in.Request.ParentID)
	in.Request.Content = strings.TrimSpace(in.Request.Content)

	if err := s.validate.Struct(in.Request); err != nil {
		lg.Warn("invalid argument", "err", err)
		return nil, fmt.Errorf("%s: %w", op, validationErr(err, ""))
	}

	if err := s.checkContent(in.Request.Content); err != nil {
		lg.Warn("invalid argument", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.projectExists(ctx, op, in.ProjectID); err != nil {
		return nil, err
	}

	comm := models.Comment{
		ProjectID: in.ProjectID,
		ParentID:  in.Request.ParentID,
		Author:    in.Author,
		Content:   in.Request.Content,
	}

	result, err := s.comments.CreateComment(ctx, comm, s.limits.MaxDepth)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrParentNotFound):
			lg.Warn("parent not found")
			return nil, fmt.Errorf("%s: %w", op, ErrParentNotFound)
		case errors.Is(err, storage.ErrMaxDepthExceeded):
			lg.Warn("max depth exceeded")
			return nil, fmt.Errorf("%s: %w", op, ErrMaxDepthExceeded)
		default:
			lg.Error("storage error on CreateComment", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	// Счётчик вторичен: комментарий уже сохранён, клиент перечитает карточку.
	if err := s.projects.AdjustCommentCount(ctx, in.ProjectID, 1); err != nil {
		lg.Error("comment count not adjusted", "err", err, "comment_id", result.ID)
	}

	return result, nil
}

// UpdateComment меняет текст своего комментария.
//
// Поведение/ошибки:
//   - ErrUnauthenticated — аноним;
//   - ErrNotFound — комментария нет или он удалён;
//   - ErrForbidden — комментарий чужой;
//   - ErrInvalidArgument — пустой или слишком длинный текст.
func (s *Service) UpdateComment(ctx context.Context, userID uuid.UUID, id string, req models.UpdateCommentRequest) (*models.Comment, error) {
	const op = "service/comments/UpdateComment"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id, "user_id", userID.String())

	req.Content = strings.TrimSpace(req.Content)
	if err := s.validate.Struct(req); err != nil {
		lg.Warn("invalid argument", "err", err)
		return nil, fmt.Errorf("%s: %w", op, validationErr(err, ""))
	}

	if err := s.checkContent(req.Content); err != nil {
		lg.Warn("invalid argument", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.ownComment(ctx, op, userID, id); err != nil {
		return nil, err
	}

	result, err := s.comments.UpdateContent(ctx, id, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("comment not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error on UpdateContent", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	return result, nil
}

// DeleteComment — мягкое удаление своего комментария.
// Ответы остаются привязанными, дерево сохраняет форму.
// Повторное удаление — ErrNotFound.
func (s *Service) DeleteComment(ctx context.Context, userID uuid.UUID, id string) error {
	const op = "service/comments/DeleteComment"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id, "user_id", userID.String())

	if _, err := s.ownComment(ctx, op, userID, id); err != nil {
		return err
	}

	if err := s.comments.SoftDelete(ctx, id); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("comment not found")
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error on SoftDelete", "err", err)
			return fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	return nil
}

// ownComment загружает неудалённый комментарий и проверяет авторство.
func (s *Service) ownComment(ctx context.Context, op string, userID uuid.UUID, id string) (*models.Comment, error) {
	lg := log.From(ctx).With("op", op, "id", id)

	if userID == uuid.Nil {
		lg.Warn("unauthenticated")
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if id == "" {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	c, err := s.comments.CommentByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("comment not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error on CommentByID", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	if c.IsDeleted {
		lg.Warn("comment already deleted")
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if c.Author.ID != userID {
		lg.Warn("not the author", "author_id", c.Author.ID.String())
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	return c, nil
}

func (s *Service) projectExists(ctx context.Context, op string, id uuid.UUID) error {
	lg := log.From(ctx).With("op", op, "project_id", id.String())

	if id == uuid.Nil {
		lg.Warn("invalid argument: empty project id")
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if _, err := s.projects.ProjectByID(ctx, id, uuid.Nil); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("project not found")
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error on ProjectByID", "err", err)
			return fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	return nil
}

// checkContent применяет настраиваемый лимит длины поверх тега max в DTO.
func (s *Service) checkContent(content string) error {
	if s.limits.CommentMax <= 0 {
		return nil
	}

	if err := s.validate.Var(content, "max="+strconv.Itoa(s.limits.CommentMax)); err != nil {
		return validationErr(err, "content")
	}

	return nil
}
