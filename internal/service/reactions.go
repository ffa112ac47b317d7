package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/talas-dev/talas/internal/pkg/log"
	"github.com/talas-dev/talas/internal/storage"
)

// Like ставит лайк.
//
// Поведение/ошибки:
//   - ErrUnauthenticated — аноним;
//   - ErrConflict — лайк уже стоит;
//   - ErrNotFound — проекта нет;
//   - ErrInternal — иные ошибки стораджа.
func (s *Service) Like(ctx context.Context, projectID, userID uuid.UUID) error {
	return s.react(ctx, "service/reactions/Like", projectID, userID, s.reactions.AddLike)
}

// Unlike снимает лайк. ErrNotFound — лайка нет.
func (s *Service) Unlike(ctx context.Context, projectID, userID uuid.UUID) error {
	return s.react(ctx, "service/reactions/Unlike", projectID, userID, s.reactions.RemoveLike)
}

// Bookmark добавляет проект в закладки. ErrConflict — уже в закладках.
func (s *Service) Bookmark(ctx context.Context, projectID, userID uuid.UUID) error {
	return s.react(ctx, "service/reactions/Bookmark", projectID, userID, s.reactions.AddBookmark)
}

// Unbookmark убирает проект из закладок. ErrNotFound — закладки нет.
func (s *Service) Unbookmark(ctx context.Context, projectID, userID uuid.UUID) error {
	return s.react(ctx, "service/reactions/Unbookmark", projectID, userID, s.reactions.RemoveBookmark)
}

func (s *Service) react(
	ctx context.Context,
	op string,
	projectID, userID uuid.UUID,
	call func(ctx context.Context, projectID, userID uuid.UUID) error,
) error {
	lg := log.From(ctx).With("op", op, "project_id", projectID.String(), "user_id", userID.String())

	if userID == uuid.Nil {
		lg.Warn("unauthenticated")
		return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if projectID == uuid.Nil {
		lg.Warn("invalid argument: empty project id")
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if err := call(ctx, projectID, userID); err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			lg.Info("already in desired state")
			return fmt.Errorf("%s: %w", op, ErrConflict)
		case errors.Is(err, storage.ErrNotFound):
			lg.Info("not found")
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error", "err", err)
			return fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	return nil
}
