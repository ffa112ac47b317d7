package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/talas-dev/talas/internal/storage"
)

// AddLike ставит лайк и увеличивает count_likes в одной транзакции.
// Уникальный ключ (project_id, user_id) даёт ErrAlreadyExists на повтор,
// внешний ключ на projects — ErrNotFound для несуществующего проекта.
func (s *Storage) AddLike(ctx context.Context, projectID, userID uuid.UUID) error {
	const op = "storage/postgres/AddLike"

	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
		INSERT INTO project_likes (project_id, user_id) VALUES ($1, $2)
		`, projectID, userID); err != nil {
			return translate(op, err)
		}

		if _, err := tx.Exec(ctx, `
		UPDATE projects SET count_likes = count_likes + 1 WHERE id = $1
		`, projectID); err != nil {
			return fmt.Errorf("%s: count: %w", op, err)
		}

		return nil
	})
}

// RemoveLike снимает лайк и уменьшает count_likes в одной транзакции.
func (s *Storage) RemoveLike(ctx context.Context, projectID, userID uuid.UUID) error {
	const op = "storage/postgres/RemoveLike"

	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
		DELETE FROM project_likes WHERE project_id = $1 AND user_id = $2
		`, projectID, userID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		if _, err := tx.Exec(ctx, `
		UPDATE projects SET count_likes = GREATEST(count_likes - 1, 0) WHERE id = $1
		`, projectID); err != nil {
			return fmt.Errorf("%s: count: %w", op, err)
		}

		return nil
	})
}

// AddBookmark добавляет проект в закладки пользователя.
func (s *Storage) AddBookmark(ctx context.Context, projectID, userID uuid.UUID) error {
	const op = "storage/postgres/AddBookmark"

	if _, err := s.db.Exec(ctx, `
	INSERT INTO project_bookmarks (project_id, user_id) VALUES ($1, $2)
	`, projectID, userID); err != nil {
		return translate(op, err)
	}

	return nil
}

// RemoveBookmark убирает проект из закладок.
func (s *Storage) RemoveBookmark(ctx context.Context, projectID, userID uuid.UUID) error {
	const op = "storage/postgres/RemoveBookmark"

	tag, err := s.db.Exec(ctx, `
	DELETE FROM project_bookmarks WHERE project_id = $1 AND user_id = $2
	`, projectID, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
