// Package querycache — общий клиентский кэш результатов запросов с подписчиками.
//
// Кэш — явный сервисный объект, который передаётся потребителям (ленте, карточке
// проекта, протоколу оптимистичных мутаций), а не глобальное состояние.
//
// Данные в кэше неизменяемы с точки зрения читателей: изменения идут только через
// Write с функцией-апдейтером, которая возвращает НОВОЕ значение (copy-on-write).
// Благодаря этому Snapshot, снятый до записи, остаётся корректным для отката.
package querycache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/talas-dev/talas/internal/pkg/log"
)

// ErrSuperseded — результат загрузки отброшен: после её старта ключ был
// перезагружен, отменён (CancelPending) или переписан.
var ErrSuperseded = errors.New("querycache: fetch superseded")

// Key — ключ запроса: имя запроса и его аргумент.
type Key struct {
	Scope string
	ID    string
}

func (k Key) String() string {
	if k.ID == "" {
		return k.Scope
	}

	return k.Scope + ":" + k.ID
}

// Fetcher загружает данные для ключа.
type Fetcher func(ctx context.Context) (any, error)

// EventKind — тип изменения записи.
type EventKind int

const (
	EventFetched EventKind = iota
	EventWritten
	EventInvalidated
	EventRestored
)

func (k EventKind) String() string {
	switch k {
	case EventFetched:
		return "fetched"
	case EventWritten:
		return "written"
	case EventInvalidated:
		return "invalidated"
	case EventRestored:
		return "restored"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event — уведомление подписчика.
type Event struct {
	Key   Key
	Kind  EventKind
	Data  any
	Stale bool
}

// Snapshot — снимок записи кэша для отката.
type Snapshot struct {
	Key   Key
	Data  any
	Has   bool
	Stale bool
}

type entry struct {
	data      any
	has       bool
	stale     bool
	updatedAt time.Time

	gen     uint64
	cancel  context.CancelFunc
	fetcher Fetcher

	subs map[uint64]func(Event)
}

// Cache — потокобезопасный кэш. Нулевое значение непригодно, используйте New.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	nextSub uint64
	log     *slog.Logger
	now     func() time.Time
}

// New создаёт пустой кэш.
func New(l *slog.Logger) *Cache {
	return &Cache{
		entries: make(map[Key]*entry),
		log:     log.OrDefault(l),
		now:     time.Now,
	}
}

// entryLocked возвращает запись ключа, создавая её при отсутствии. Вызывать под c.mu.
func (c *Cache) entryLocked(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}

	return e
}

// Fetch загружает ключ через fetcher и запоминает fetcher для последующих Invalidate.
// Предыдущая незавершённая загрузка этого ключа отменяется.
// Если за время загрузки ключ был отменён или переписан — возвращается ErrSuperseded,
// а данные не сохраняются.
func (c *Cache) Fetch(ctx context.Context, key Key, fetcher Fetcher) (any, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.gen++
	gen := e.gen
	if e.cancel != nil {
		e.cancel()
	}
	fctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.fetcher = fetcher
	c.mu.Unlock()

	data, err := fetcher(fctx)

	c.mu.Lock()
	if e.gen != gen {
		c.mu.Unlock()
		cancel()
		c.log.Debug("querycache_fetch_superseded", slog.String("key", key.String()))
		return nil, ErrSuperseded
	}
	e.cancel = nil
	cancel()

	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	e.data = data
	e.has = true
	e.stale = false
	e.updatedAt = c.now()
	subs := e.subscribersLocked()
	c.mu.Unlock()

	notify(subs, Event{Key: key, Kind: EventFetched, Data: data})

	return data, nil
}

// Get возвращает данные ключа, если они есть.
func (c *Cache) Get(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.has {
		return nil, false
	}

	return e.data, true
}

// Set кладёт данные напрямую (например, результат, полученный мимо Fetch).
func (c *Cache) Set(key Key, data any) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.gen++
	e.data = data
	e.has = true
	e.stale = false
	e.updatedAt = c.now()
	subs := e.subscribersLocked()
	c.mu.Unlock()

	notify(subs, Event{Key: key, Kind: EventWritten, Data: data})
}

// CancelPending отменяет незавершённую загрузку ключа; её результат будет отброшен.
func (c *Cache) CancelPending(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return
	}

	e.gen++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

// Read снимает снимок записи.
func (c *Cache) Read(key Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{Key: key}
	if e, ok := c.entries[key]; ok {
		s.Data = e.data
		s.Has = e.has
		s.Stale = e.stale
	}

	return s
}

// Write применяет апдейтер к данным ключа. Апдейтер обязан вернуть новое значение,
// не изменяя переданное. Для ключа без данных ничего не делает и возвращает false.
// Незавершённая загрузка ключа после Write будет отброшена.
func (c *Cache) Write(key Key, update func(old any) any) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || !e.has {
		c.mu.Unlock()
		return false
	}

	e.data = update(e.data)
	e.gen++
	e.updatedAt = c.now()
	data := e.data
	stale := e.stale
	subs := e.subscribersLocked()
	c.mu.Unlock()

	notify(subs, Event{Key: key, Kind: EventWritten, Data: data, Stale: stale})

	return true
}

// Restore возвращает запись к снимку.
func (c *Cache) Restore(s Snapshot) {
	c.mu.Lock()
	e := c.entryLocked(s.Key)
	e.data = s.Data
	e.has = s.Has
	e.stale = s.Stale
	e.gen++
	e.updatedAt = c.now()
	subs := e.subscribersLocked()
	c.mu.Unlock()

	notify(subs, Event{Key: s.Key, Kind: EventRestored, Data: s.Data, Stale: s.Stale})
}

// Invalidate помечает ключ устаревшим и, если для него известен fetcher,
// перезагружает его синхронно в вызывающей горутине.
func (c *Cache) Invalidate(ctx context.Context, key Key) error {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return nil
	}

	e.stale = true
	fetcher := e.fetcher
	data := e.data
	subs := e.subscribersLocked()
	c.mu.Unlock()

	notify(subs, Event{Key: key, Kind: EventInvalidated, Data: data, Stale: true})

	if fetcher == nil {
		return nil
	}

	if _, err := c.Fetch(ctx, key, fetcher); err != nil {
		return fmt.Errorf("querycache: refetch %s: %w", key, err)
	}

	return nil
}

// IsStale сообщает, что ключ помечен устаревшим.
func (c *Cache) IsStale(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	return ok && e.stale
}

// Keys возвращает ключи с данными, для которых match вернул true, в стабильном порядке.
func (c *Cache) Keys(match func(Key) bool) []Key {
	c.mu.Lock()
	out := make([]Key, 0, len(c.entries))
	for k, e := range c.entries {
		if e.has && (match == nil || match(k)) {
			out = append(out, k)
		}
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })

	return out
}

// Subscribe подписывает fn на изменения ключа. Возвращает функцию отписки.
// fn вызывается вне блокировки кэша и может обращаться к нему.
func (c *Cache) Subscribe(key Key, fn func(Event)) func() {
	c.mu.Lock()
	e := c.entryLocked(key)
	if e.subs == nil {
		e.subs = make(map[uint64]func(Event))
	}
	c.nextSub++
	id := c.nextSub
	e.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(e.subs, id)
		c.mu.Unlock()
	}
}

func (e *entry) subscribersLocked() []func(Event) {
	if len(e.subs) == 0 {
		return nil
	}

	ids := make([]uint64, 0, len(e.subs))
	for id := range e.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		out = append(out, e.subs[id])
	}

	return out
}

func notify(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}

// GetAs — типизированная обёртка над Get.
func GetAs[T any](c *Cache, key Key) (T, bool) {
	var zero T

	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}

	t, ok := v.(T)
	if !ok {
		return zero, false
	}

	return t, true
}
