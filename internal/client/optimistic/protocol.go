// Package optimistic — протокол оптимистичных мутаций клиента talas.
//
// Каждая мутация проходит три фазы, строго по порядку:
//
//  1. snapshot: отмена незавершённых загрузок затронутых запросов и снимок их данных;
//  2. apply: запись ожидаемого результата в кэш и в карту overrides;
//  3. reconcile: после ответа сервера либо инвалидация (успех), либо
//     классифицированный откат (ошибка).
//
// Ошибки сервера не возвращаются вызывающему как error: они превращаются в
// изменение состояния (откат или принудительная коррекция) и Notice.
// error возвращается только для отказов до отправки (ErrMutationInFlight,
// ErrUnknownEntity, ErrNotAuthor).
package optimistic

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/talas-dev/talas/internal/client/querycache"
	"github.com/talas-dev/talas/internal/client/rpc"
	"github.com/talas-dev/talas/internal/models"
	"github.com/talas-dev/talas/internal/pkg/log"
)

var (
	// ErrMutationInFlight — по этой сущности уже идёт мутация того же семейства.
	ErrMutationInFlight = errors.New("optimistic: mutation already in flight")
	// ErrUnknownEntity — сущности нет ни в одном закэшированном запросе.
	ErrUnknownEntity = errors.New("optimistic: entity is not cached")
	// ErrNotAuthor — правка или удаление чужого комментария отклонены до отправки.
	ErrNotAuthor = errors.New("optimistic: viewer is not the author")
)

// API — удалённые вызовы, которыми пользуется протокол. *rpc.Client его реализует.
type API interface {
	ListProjects(ctx context.Context, p models.ListParams) (*models.ProjectPage, error)
	Project(ctx context.Context, id uuid.UUID) (*models.Project, error)
	Like(ctx context.Context, id uuid.UUID) error
	Unlike(ctx context.Context, id uuid.UUID) error
	Bookmark(ctx context.Context, id uuid.UUID) error
	Unbookmark(ctx context.Context, id uuid.UUID) error
	Comments(ctx context.Context, projectID uuid.UUID) ([]models.Comment, error)
	CreateComment(ctx context.Context, projectID uuid.UUID, in models.CreateCommentRequest) (*models.Comment, error)
	UpdateComment(ctx context.Context, id string, in models.UpdateCommentRequest) (*models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

// Family — семейство мутаций.
type Family string

const (
	FamilyLike          Family = "like"
	FamilyBookmark      Family = "bookmark"
	FamilyCommentCreate Family = "comment_create"
	FamilyCommentEdit   Family = "comment_edit"
	FamilyCommentDelete Family = "comment_delete"
)

// Outcome — чем закончилась мутация.
type Outcome string

const (
	// OutcomeApplied — сервер подтвердил, кэш перезагружен.
	OutcomeApplied Outcome = "applied"
	// OutcomeReconciled — сервер ответил, что целевое состояние уже достигнуто;
	// кэш принудительно приведён к нему.
	OutcomeReconciled Outcome = "reconciled"
	// OutcomeRolledBack — ошибка, кэш и overrides возвращены к снимку.
	OutcomeRolledBack Outcome = "rolled_back"
	// OutcomeFailed — ошибка мутации без оптимистичной записи (создание комментария).
	OutcomeFailed Outcome = "failed"
	// OutcomeRejected — мутация не отправлялась.
	OutcomeRejected Outcome = "rejected"
)

// Report — итог одной мутации.
type Report struct {
	Family  Family
	Entity  string
	Outcome Outcome
	// Class и Err заполнены, если сервер вернул ошибку.
	Class rpc.Class
	Err   error
}

// Notice — пользовательское сообщение о неуспешной мутации.
type Notice struct {
	Family  Family
	Entity  string
	Class   rpc.Class
	Message string
}

// Notifier показывает Notice пользователю.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NotifierFunc — адаптер функции к Notifier.
type NotifierFunc func(ctx context.Context, n Notice)

func (f NotifierFunc) Notify(ctx context.Context, n Notice) { f(ctx, n) }

type logNotifier struct{ log *slog.Logger }

func (n logNotifier) Notify(_ context.Context, no Notice) {
	n.log.Warn("mutation_notice",
		slog.String("family", string(no.Family)),
		slog.String("entity", no.Entity),
		slog.String("class", no.Class.String()),
		slog.String("message", no.Message),
	)
}

// Options — параметры протокола.
type Options struct {
	// Serialize включает per-entity guard: повторный переключатель по той же сущности,
	// пока первый в полёте, отклоняется с ErrMutationInFlight.
	Serialize bool
	// Viewer — текущий пользователь; нужен для проверки авторства комментариев.
	Viewer   uuid.UUID
	Notifier Notifier
	Metrics  *Metrics
	Logger   *slog.Logger
}

// Protocol — общее состояние протокола: кэш, overrides, guard.
type Protocol struct {
	api       API
	cache     *querycache.Cache
	overrides *Overrides
	notifier  Notifier
	metrics   *Metrics
	log       *slog.Logger
	serialize bool
	viewer    uuid.UUID

	mu       sync.Mutex
	inflight map[entityKey]struct{}
}

type entityKey struct {
	family Family
	id     string
}

// New собирает протокол поверх API и кэша.
func New(api API, cache *querycache.Cache, opts Options) *Protocol {
	l := log.OrDefault(opts.Logger)

	n := opts.Notifier
	if n == nil {
		n = logNotifier{log: l}
	}

	return &Protocol{
		api:       api,
		cache:     cache,
		overrides: NewOverrides(),
		notifier:  n,
		metrics:   opts.Metrics,
		log:       l,
		serialize: opts.Serialize,
		viewer:    opts.Viewer,
		inflight:  make(map[entityKey]struct{}),
	}
}

// Cache возвращает кэш, с которым работает протокол.
func (p *Protocol) Cache() *querycache.Cache { return p.cache }

// Overrides возвращает карту клиентских overrides.
func (p *Protocol) Overrides() *Overrides { return p.overrides }

// Pending сообщает, что по сущности идёт мутация семейства f.
func (p *Protocol) Pending(f Family, id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.inflight[entityKey{f, id}]
	return ok
}

// acquire помечает сущность занятой. force — guard обязателен независимо от Serialize.
func (p *Protocol) acquire(f Family, id string, force bool) (release func(), ok bool) {
	k := entityKey{f, id}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, busy := p.inflight[k]; busy && (p.serialize || force) {
		return nil, false
	}
	p.inflight[k] = struct{}{}

	return func() {
		p.mu.Lock()
		delete(p.inflight, k)
		p.mu.Unlock()
	}, true
}

// snapshot отменяет незавершённые загрузки ключей и снимает их данные.
// Ключи без данных пропускаются.
func (p *Protocol) snapshot(keys []querycache.Key) []querycache.Snapshot {
	snaps := make([]querycache.Snapshot, 0, len(keys))
	for _, k := range keys {
		p.cache.CancelPending(k)
		if s := p.cache.Read(k); s.Has {
			snaps = append(snaps, s)
		}
	}

	return snaps
}

func (p *Protocol) restore(snaps []querycache.Snapshot) {
	for _, s := range snaps {
		p.cache.Restore(s)
	}
}

// invalidate перезагружает ключи снимка. Возвращает false, если хоть одна загрузка не удалась.
func (p *Protocol) invalidate(ctx context.Context, snaps []querycache.Snapshot) bool {
	ok := true
	for _, s := range snaps {
		if err := p.cache.Invalidate(ctx, s.Key); err != nil {
			ok = false
			log.From(ctx).Warn("mutation_refetch_failed",
				slog.String("key", s.Key.String()),
				slog.String("err", err.Error()),
			)
		}
	}

	return ok
}

// settle фиксирует итог: метрика, лог и, для ошибок, Notice.
func (p *Protocol) settle(ctx context.Context, r Report, notice string) Report {
	p.metrics.observe(r.Family, r.Outcome)

	lg := log.From(ctx).With(
		slog.String("family", string(r.Family)),
		slog.String("entity", r.Entity),
	)

	switch r.Outcome {
	case OutcomeApplied:
		lg.Debug("mutation_applied")
	case OutcomeReconciled:
		lg.Info("mutation_reconciled", slog.String("class", r.Class.String()))
	case OutcomeRolledBack, OutcomeFailed:
		lg.Warn("mutation_rolled_back",
			slog.String("class", r.Class.String()),
			slog.String("err", errString(r.Err)),
		)
	}

	if notice != "" {
		p.notifier.Notify(ctx, Notice{Family: r.Family, Entity: r.Entity, Class: r.Class, Message: notice})
	}

	return r
}

func (p *Protocol) reject(f Family, id string, err error) (Report, error) {
	p.metrics.observe(f, OutcomeRejected)
	return Report{Family: f, Entity: id, Outcome: OutcomeRejected, Err: err}, err
}

// noticeFor — текст сообщения по классу ошибки.
func noticeFor(f Family, c rpc.Class) string {
	switch c {
	case rpc.ClassNotFound:
		switch f {
		case FamilyCommentEdit, FamilyCommentDelete, FamilyCommentCreate:
			return "comment or project no longer exists"
		default:
			return "project no longer exists"
		}
	case rpc.ClassUnauthenticated:
		return "sign in to continue"
	case rpc.ClassForbidden:
		return "you can only change your own comments"
	case rpc.ClassInvalid:
		return "the server rejected the input"
	case rpc.ClassUnavailable:
		return "server is unreachable, try again later"
	default:
		return "something went wrong, try again later"
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
