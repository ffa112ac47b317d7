package postgres

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/talas-dev/talas/internal/models"
	"github.com/talas-dev/talas/internal/storage"
)

// projectColumns — колонки SELECT в порядке scanProject.
// $1 во всех запросах чтения — id зрителя (uuid.Nil для анонима).
const projectColumns = `
p.id, p.title, p.description, p.owner_id, p.owner_name, p.owner_handle, p.owner_avatar,
p.count_likes, p.count_comments, p.created_at,
EXISTS (SELECT 1 FROM project_likes l WHERE l.project_id = p.id AND l.user_id = $1),
EXISTS (SELECT 1 FROM project_bookmarks b WHERE b.project_id = p.id AND b.user_id = $1)
`

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project

	if err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Owner.ID,
		&p.Owner.DisplayName,
		&p.Owner.Handle,
		&p.Owner.AvatarURL,
		&p.CountLikes,
		&p.CountComments,
		&p.CreatedAt,
		&p.IsLiked,
		&p.IsBookmarked,
	); err != nil {
		return nil, err
	}

	p.CreatedAt = p.CreatedAt.UTC()

	return &p, nil
}

// ListProjects возвращает страницу ленты с курсорной пагинацией.
// Сортировка фиксирована: created_at DESC, id DESC. page_token — base64url.
func (s *Storage) ListProjects(ctx context.Context, viewer uuid.UUID, p models.ListParams) (*models.ProjectPage, error) {
	const op = "storage/postgres/ListProjects"

	limit := p.PageSize
	if limit <= 0 {
		limit = 1
	}

	var (
		rows pgx.Rows
		err  error
	)

	if strings.TrimSpace(p.PageToken) == "" {
		rows, err = s.db.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects p
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2
		`, viewer, limit)
	} else {
		createdCur, idCur, decErr := decodePageToken(p.PageToken)
		if decErr != nil {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidCursor)
		}

		rows, err = s.db.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects p
		WHERE (p.created_at, p.id) < ($2, $3)
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $4
		`, viewer, createdCur, idCur, limit)
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	page := models.ProjectPage{Projects: make([]models.Project, 0, limit)}
	for rows.Next() {
		proj, scanErr := scanProject(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, scanErr)
		}

		page.Projects = append(page.Projects, *proj)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, rows.Err())
	}

	// Полная страница — возможно, есть следующая.
	if n := len(page.Projects); n > 0 && n == int(limit) {
		last := page.Projects[n-1]
		page.NextPageToken = encodePageToken(last.CreatedAt, last.ID)
	}

	return &page, nil
}

// ProjectByID возвращает проект с флагами зрителя.
func (s *Storage) ProjectByID(ctx context.Context, id, viewer uuid.UUID) (*models.Project, error) {
	const op = "storage/postgres/ProjectByID"

	row := s.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects p WHERE p.id = $2`, viewer, id)

	proj, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return proj, nil
}

// CreateProject сохраняет проект. Счётчики стартуют с нуля.
func (s *Storage) CreateProject(ctx context.Context, p models.Project) (*models.Project, error) {
	const op = "storage/postgres/CreateProject"

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	// TIMESTAMPTZ хранит микросекунды.
	p.CreatedAt = p.CreatedAt.UTC().Truncate(time.Microsecond)

	_, err := s.db.Exec(ctx, `
	INSERT INTO projects (id, title, description, owner_id, owner_name, owner_handle, owner_avatar, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.Title, p.Description, p.Owner.ID, p.Owner.DisplayName, p.Owner.Handle, p.Owner.AvatarURL, p.CreatedAt)
	if err != nil {
		return nil, translate(op, err)
	}

	p.CountLikes, p.CountComments = 0, 0
	p.IsLiked, p.IsBookmarked = false, false

	return &p, nil
}

// AdjustCommentCount сдвигает count_comments на delta (не ниже нуля).
func (s *Storage) AdjustCommentCount(ctx context.Context, id uuid.UUID, delta int64) error {
	const op = "storage/postgres/AdjustCommentCount"

	tag, err := s.db.Exec(ctx, `
	UPDATE projects SET count_comments = GREATEST(count_comments + $2, 0) WHERE id = $1
	`, id, delta)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// encodePageToken кодирует пару ключей страницы в непрозрачный токен для клиента.
func encodePageToken(createdAt time.Time, id uuid.UUID) string {
	raw := fmt.Sprintf("%d|%s", createdAt.UTC().UnixNano(), id.String())

	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodePageToken декодирует токен обратно в пару ключей.
func decodePageToken(token string) (time.Time, uuid.UUID, error) {
	res, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return time.Time{}, uuid.Nil, err
	}

	parts := strings.SplitN(string(res), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, uuid.Nil, fmt.Errorf("bad parts")
	}

	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, uuid.Nil, err
	}

	id, err := uuid.Parse(parts[1])
	if err != nil {
		return time.Time{}, uuid.Nil, err
	}

	return time.Unix(0, nanos).UTC(), id, nil
}
