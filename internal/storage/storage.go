package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/talas-dev/talas/internal/models"
)

var (
	// ErrNotFound — сущность или связь отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — конфликт уникальности (повторный лайк/закладка).
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidCursor — битый/чужой page_token.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrParentNotFound — указан parent_id, но родителя нет в этом проекте.
	ErrParentNotFound = errors.New("parent not found")
	// ErrMaxDepthExceeded — превышена максимально допустимая глубина ветки.
	ErrMaxDepthExceeded = errors.New("max depth exceeded")
)

// ProjectsStorage — чтение ленты и карточек проектов (PostgreSQL).
// viewer = uuid.Nil — анонимный зритель: is_liked/is_bookmarked всегда false.
type ProjectsStorage interface {
	// ListProjects возвращает страницу ленты, сначала новые (created_at DESC, id DESC).
	// При некорректном page_token — ErrInvalidCursor.
	ListProjects(ctx context.Context, viewer uuid.UUID, p models.ListParams) (*models.ProjectPage, error)

	// ProjectByID возвращает проект. Если записи нет — ErrNotFound.
	ProjectByID(ctx context.Context, id, viewer uuid.UUID) (*models.Project, error)

	// CreateProject сохраняет проект (ID и CreatedAt проставляются, если пусты).
	CreateProject(ctx context.Context, p models.Project) (*models.Project, error)

	// AdjustCommentCount меняет count_comments на delta. Если проекта нет — ErrNotFound.
	AdjustCommentCount(ctx context.Context, id uuid.UUID, delta int64) error
}

// ReactionsStorage — лайки и закладки. count_likes меняется в той же транзакции.
type ReactionsStorage interface {
	// AddLike: ErrNotFound, если проекта нет; ErrAlreadyExists, если лайк уже стоит.
	AddLike(ctx context.Context, projectID, userID uuid.UUID) error
	// RemoveLike: ErrNotFound, если лайка нет.
	RemoveLike(ctx context.Context, projectID, userID uuid.UUID) error
	// AddBookmark: ErrNotFound, если проекта нет; ErrAlreadyExists, если закладка уже есть.
	AddBookmark(ctx context.Context, projectID, userID uuid.UUID) error
	// RemoveBookmark: ErrNotFound, если закладки нет.
	RemoveBookmark(ctx context.Context, projectID, userID uuid.UUID) error
}

// CommentsStorage — комментарии (MongoDB).
type CommentsStorage interface {
	// CreateComment создаёт корневой комментарий или ответ.
	// Для ответа родитель должен существовать в том же проекте (иначе ErrParentNotFound),
	// а его Level+1 не должен превышать maxDepth (иначе ErrMaxDepthExceeded).
	// Вычисляемые поля: ID, Level, IsDeleted, CreatedAt, UpdatedAt.
	CreateComment(ctx context.Context, c models.Comment, maxDepth int32) (*models.Comment, error)

	// CommentByID возвращает комментарий. Если записи нет — ErrNotFound.
	CommentByID(ctx context.Context, id string) (*models.Comment, error)

	// UpdateContent меняет текст неудалённого комментария. Иначе — ErrNotFound.
	UpdateContent(ctx context.Context, id, content string) (*models.Comment, error)

	// SoftDelete очищает текст и ставит is_deleted=true.
	// Если записи нет или она уже удалена — ErrNotFound.
	SoftDelete(ctx context.Context, id string) error

	// ListByProject возвращает все комментарии проекта плоским списком, сначала новые.
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Comment, error)
}
