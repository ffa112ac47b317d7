package optimistic

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/talas-dev/talas/internal/client/querycache"
	"github.com/talas-dev/talas/internal/client/rpc"
	"github.com/talas-dev/talas/internal/models"
	"github.com/talas-dev/talas/internal/pkg/log"
)

// Comments — мутации комментариев проекта.
type Comments struct {
	p   *Protocol
	now func() time.Time
}

// Comments возвращает мутатор комментариев.
func (p *Protocol) Comments() *Comments {
	return &Comments{p: p, now: time.Now}
}

// CreatePending сообщает, что по проекту идёт отправка комментария
// (кнопка отправки должна быть неактивна).
func (c *Comments) CreatePending(projectID uuid.UUID) bool {
	return c.p.Pending(FamilyCommentCreate, projectID.String())
}

// Create отправляет комментарий. Оптимистичной записи нет: список перезагружается
// после успеха. Пока отправка не завершилась, повторная по тому же проекту
// отклоняется с ErrMutationInFlight независимо от Options.Serialize.
func (c *Comments) Create(ctx context.Context, projectID uuid.UUID, in models.CreateCommentRequest) (*models.Comment, Report, error) {
	eid := projectID.String()

	release, ok := c.p.acquire(FamilyCommentCreate, eid, true)
	if !ok {
		r, err := c.p.reject(FamilyCommentCreate, eid, ErrMutationInFlight)
		return nil, r, err
	}
	defer release()

	key := CommentsKey(projectID)
	r := Report{Family: FamilyCommentCreate, Entity: eid}

	created, err := c.p.api.CreateComment(ctx, projectID, in)
	if err != nil {
		r.Class = rpc.ClassOf(err)
		r.Err = err
		r.Outcome = OutcomeFailed
		return nil, c.p.settle(ctx, r, noticeFor(FamilyCommentCreate, r.Class)), nil
	}

	// Новый комментарий меняет и список, и count_comments в карточке и ленте.
	for _, k := range append([]querycache.Key{key}, c.p.projectKeys(projectID)...) {
		if err := c.p.cache.Invalidate(ctx, k); err != nil {
			log.From(ctx).Warn("mutation_refetch_failed",
				slog.String("key", k.String()),
				slog.String("err", err.Error()),
			)
		}
	}

	r.Outcome = OutcomeApplied
	return created, c.p.settle(ctx, r, ""), nil
}

// Edit заменяет текст комментария оптимистично, с откатом при ошибке.
func (c *Comments) Edit(ctx context.Context, projectID uuid.UUID, commentID, content string) (Report, error) {
	return c.mutate(ctx, FamilyCommentEdit, projectID, commentID,
		func(cm *models.Comment) {
			cm.Content = content
			cm.UpdatedAt = c.now().UTC()
		},
		func(ctx context.Context) error {
			_, err := c.p.api.UpdateComment(ctx, commentID, models.UpdateCommentRequest{Content: content})
			return err
		},
	)
}

// Delete мягко удаляет комментарий оптимистично: текст очищается, ветка остаётся.
func (c *Comments) Delete(ctx context.Context, projectID uuid.UUID, commentID string) (Report, error) {
	return c.mutate(ctx, FamilyCommentDelete, projectID, commentID,
		func(cm *models.Comment) {
			cm.Content = ""
			cm.IsDeleted = true
			cm.UpdatedAt = c.now().UTC()
		},
		func(ctx context.Context) error {
			return c.p.api.DeleteComment(ctx, commentID)
		},
	)
}

func (c *Comments) mutate(
	ctx context.Context,
	f Family,
	projectID uuid.UUID,
	commentID string,
	apply func(*models.Comment),
	dispatch func(ctx context.Context) error,
) (Report, error) {
	p := c.p

	release, ok := p.acquire(f, commentID, false)
	if !ok {
		return p.reject(f, commentID, ErrMutationInFlight)
	}
	defer release()

	key := CommentsKey(projectID)

	list, _ := p.cache.Get(key)
	cm, found := findComment(asComments(list), commentID)
	if !found {
		return p.reject(f, commentID, ErrUnknownEntity)
	}
	if p.viewer == uuid.Nil || cm.Author.ID != p.viewer {
		return p.reject(f, commentID, ErrNotAuthor)
	}

	// snapshot
	snaps := p.snapshot([]querycache.Key{key})

	// apply
	for _, s := range snaps {
		p.cache.Write(s.Key, updateComment(commentID, apply))
	}

	// dispatch
	err := dispatch(ctx)

	r := Report{Family: f, Entity: commentID}

	if err == nil {
		p.invalidate(ctx, snaps)
		r.Outcome = OutcomeApplied
		return p.settle(ctx, r, ""), nil
	}

	r.Class = rpc.ClassOf(err)
	r.Err = err
	p.restore(snaps)
	r.Outcome = OutcomeRolledBack

	return p.settle(ctx, r, noticeFor(f, r.Class)), nil
}

func asComments(v any) []models.Comment {
	list, _ := v.([]models.Comment)
	return list
}
