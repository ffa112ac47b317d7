package optimistic

import (
	"sync"

	"github.com/google/uuid"
	"github.com/talas-dev/talas/internal/models"
)

// Override — клиентское значение флага, перекрывающее закэшированное.
type Override struct {
	Value bool
	Set   bool
}

// Overrides — карта клиентских overrides: (семейство, id сущности) -> флаг.
// Нужна представлениям, которые держат производные копии сущности и не читают кэш.
type Overrides struct {
	mu sync.RWMutex
	m  map[entityKey]bool
}

func NewOverrides() *Overrides {
	return &Overrides{m: make(map[entityKey]bool)}
}

// Get возвращает override флага.
func (o *Overrides) Get(f Family, id string) Override {
	o.mu.RLock()
	defer o.mu.RUnlock()

	v, ok := o.m[entityKey{f, id}]
	return Override{Value: v, Set: ok}
}

func (o *Overrides) set(f Family, id string, v bool) {
	o.mu.Lock()
	o.m[entityKey{f, id}] = v
	o.mu.Unlock()
}

func (o *Overrides) clear(f Family, id string) {
	o.mu.Lock()
	delete(o.m, entityKey{f, id})
	o.mu.Unlock()
}

// restore возвращает override к прежнему состоянию (в том числе к отсутствию).
func (o *Overrides) restore(f Family, id string, prev Override) {
	if prev.Set {
		o.set(f, id, prev.Value)
		return
	}

	o.clear(f, id)
}

// Len — число активных overrides.
func (o *Overrides) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return len(o.m)
}

// Apply накладывает overrides на копию проекта.
func (o *Overrides) Apply(p models.Project) models.Project {
	id := p.ID.String()

	if ov := o.Get(FamilyLike, id); ov.Set {
		p.IsLiked = ov.Value
	}
	if ov := o.Get(FamilyBookmark, id); ov.Set {
		p.IsBookmarked = ov.Value
	}

	return p
}

// View — проект для отображения: из кэша (карточка или любая страница ленты)
// с наложенными overrides.
func (p *Protocol) View(id uuid.UUID) (models.Project, bool) {
	proj, ok := p.cachedProject(id)
	if !ok {
		return models.Project{}, false
	}

	return p.overrides.Apply(proj), true
}
