package optimistic

import (
	"context"

	"github.com/google/uuid"
	"github.com/talas-dev/talas/internal/client/rpc"
	"github.com/talas-dev/talas/internal/models"
)

// toggle описывает флаг проекта, которым управляет переключатель.
type toggle struct {
	family Family
	get    func(models.Project) bool
	set    func(*models.Project, bool)
	// counted — флаг сопровождается счётчиком (лайки).
	counted bool
	add     func(ctx context.Context, id uuid.UUID) error
	remove  func(ctx context.Context, id uuid.UUID) error
}

// Likes — переключатель лайка проекта.
type Likes struct {
	p *Protocol
	t toggle
}

// Bookmarks — переключатель закладки проекта.
type Bookmarks struct {
	p *Protocol
	t toggle
}

// Likes возвращает переключатель лайков.
func (p *Protocol) Likes() *Likes {
	return &Likes{p: p, t: toggle{
		family:  FamilyLike,
		get:     func(pr models.Project) bool { return pr.IsLiked },
		set:     func(pr *models.Project, v bool) { pr.IsLiked = v },
		counted: true,
		add:     p.api.Like,
		remove:  p.api.Unlike,
	}}
}

// Bookmarks возвращает переключатель закладок.
func (p *Protocol) Bookmarks() *Bookmarks {
	return &Bookmarks{p: p, t: toggle{
		family: FamilyBookmark,
		get:    func(pr models.Project) bool { return pr.IsBookmarked },
		set:    func(pr *models.Project, v bool) { pr.IsBookmarked = v },
		add:    p.api.Bookmark,
		remove: p.api.Unbookmark,
	}}
}

// Toggle инвертирует лайк относительно того, что видит пользователь (кэш + override).
func (l *Likes) Toggle(ctx context.Context, id uuid.UUID) (Report, error) {
	return l.p.toggle(ctx, l.t, id, nil)
}

// Set приводит лайк к want.
func (l *Likes) Set(ctx context.Context, id uuid.UUID, want bool) (Report, error) {
	return l.p.toggle(ctx, l.t, id, &want)
}

// Toggle инвертирует закладку.
func (b *Bookmarks) Toggle(ctx context.Context, id uuid.UUID) (Report, error) {
	return b.p.toggle(ctx, b.t, id, nil)
}

// Set приводит закладку к want.
func (b *Bookmarks) Set(ctx context.Context, id uuid.UUID, want bool) (Report, error) {
	return b.p.toggle(ctx, b.t, id, &want)
}

func (p *Protocol) toggle(ctx context.Context, t toggle, id uuid.UUID, want *bool) (Report, error) {
	eid := id.String()

	release, ok := p.acquire(t.family, eid, false)
	if !ok {
		return p.reject(t.family, eid, ErrMutationInFlight)
	}
	defer release()

	cur, ok := p.cachedProject(id)
	if !ok {
		return p.reject(t.family, eid, ErrUnknownEntity)
	}

	current := t.get(cur)
	if ov := p.overrides.Get(t.family, eid); ov.Set {
		current = ov.Value
	}

	desired := !current
	if want != nil {
		desired = *want
	}

	// snapshot
	keys := p.projectKeys(id)
	snaps := p.snapshot(keys)
	prevOverride := p.overrides.Get(t.family, eid)

	// apply
	for _, s := range snaps {
		p.cache.Write(s.Key, updateProject(id, func(pr *models.Project) {
			if t.get(*pr) == desired {
				return
			}
			t.set(pr, desired)
			if t.counted {
				if desired {
					pr.CountLikes++
				} else if pr.CountLikes > 0 {
					pr.CountLikes--
				}
			}
		}))
	}
	p.overrides.set(t.family, eid, desired)

	// dispatch
	call := t.remove
	if desired {
		call = t.add
	}
	err := call(ctx, id)

	r := Report{Family: t.family, Entity: eid}

	if err == nil {
		if p.invalidate(ctx, snaps) {
			p.overrides.clear(t.family, eid)
		}
		r.Outcome = OutcomeApplied
		return p.settle(ctx, r, ""), nil
	}

	r.Class = rpc.ClassOf(err)
	r.Err = err

	switch {
	case desired && r.Class == rpc.ClassConflict, !desired && r.Class == rpc.ClassNotFound:
		// Сервер уже в целевом состоянии: флаг принудительно desired,
		// счётчик уточнит перезагрузка.
		for _, s := range snaps {
			p.cache.Write(s.Key, updateProject(id, func(pr *models.Project) { t.set(pr, desired) }))
		}
		p.overrides.set(t.family, eid, desired)
		if p.invalidate(ctx, snaps) {
			p.overrides.clear(t.family, eid)
		}
		r.Outcome = OutcomeReconciled
		return p.settle(ctx, r, ""), nil
	default:
		p.restore(snaps)
		p.overrides.restore(t.family, eid, prevOverride)
		r.Outcome = OutcomeRolledBack
		return p.settle(ctx, r, noticeFor(t.family, r.Class)), nil
	}
}
