package optimistic

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/talas-dev/talas/internal/client/querycache"
	"github.com/talas-dev/talas/internal/client/rpc"
	"github.com/talas-dev/talas/internal/models"
)

// fakeAPI — сервер в памяти с той же классификацией ошибок, что у настоящего:
// повторный лайк/закладка -> CONFLICT, снятие отсутствующего -> NOT_FOUND.
type fakeAPI struct {
	mu       sync.Mutex
	projects map[uuid.UUID]models.Project
	comments map[uuid.UUID][]models.Comment
	calls    map[string]int

	// fail — ошибка, которую вернёт метод вместо обработки.
	fail map[string]error
	// during вызывается внутри мутирующего метода до ответа: в этот момент
	// клиент уже показывает оптимистичное состояние.
	during func(method string)
	// failFetch ломает загрузки (для проверки неуспешной инвалидации).
	failFetch bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		projects: make(map[uuid.UUID]models.Project),
		comments: make(map[uuid.UUID][]models.Comment),
		calls:    make(map[string]int),
		fail:     make(map[string]error),
	}
}

func (f *fakeAPI) enter(method string) error {
	f.mu.Lock()
	f.calls[method]++
	during := f.during
	err := f.fail[method]
	f.mu.Unlock()

	if during != nil {
		during(method)
	}

	return err
}

func (f *fakeAPI) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[method]
}

func (f *fakeAPI) fetchErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failFetch {
		return &rpc.Error{Class: rpc.ClassUnavailable, Method: "fetch"}
	}

	return nil
}

func (f *fakeAPI) ListProjects(_ context.Context, _ models.ListParams) (*models.ProjectPage, error) {
	if err := f.fetchErr(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	page := &models.ProjectPage{}
	for _, p := range f.projects {
		page.Projects = append(page.Projects, p)
	}

	return page, nil
}

func (f *fakeAPI) Project(_ context.Context, id uuid.UUID) (*models.Project, error) {
	if err := f.fetchErr(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.projects[id]
	if !ok {
		return nil, &rpc.Error{Class: rpc.ClassNotFound, Method: "projects.get"}
	}

	return &p, nil
}

func (f *fakeAPI) setFlag(method string, id uuid.UUID, want bool, get func(models.Project) bool, set func(*models.Project, bool), counted bool) error {
	if err := f.enter(method); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.projects[id]
	if !ok {
		return &rpc.Error{Class: rpc.ClassNotFound, Method: method}
	}

	if get(p) == want {
		if want {
			return &rpc.Error{Class: rpc.ClassConflict, Code: "already_exists", Method: method}
		}
		return &rpc.Error{Class: rpc.ClassNotFound, Code: "not_found", Method: method}
	}

	set(&p, want)
	if counted {
		if want {
			p.CountLikes++
		} else {
			p.CountLikes--
		}
	}
	f.projects[id] = p

	return nil
}

func likedOf(p models.Project) bool { return p.IsLiked }
func setLiked(p *models.Project, v bool) { p.IsLiked = v }
func bookmarkedOf(p models.Project) bool { return p.IsBookmarked }
func setBookmarked(p *models.Project, v bool) { p.IsBookmarked = v }

func (f *fakeAPI) Like(_ context.Context, id uuid.UUID) error {
	return f.setFlag("projects.like", id, true, likedOf, setLiked, true)
}

func (f *fakeAPI) Unlike(_ context.Context, id uuid.UUID) error {
	return f.setFlag("projects.unlike", id, false, likedOf, setLiked, true)
}

func (f *fakeAPI) Bookmark(_ context.Context, id uuid.UUID) error {
	return f.setFlag("projects.bookmark", id, true, bookmarkedOf, setBookmarked, false)
}

func (f *fakeAPI) Unbookmark(_ context.Context, id uuid.UUID) error {
	return f.setFlag("projects.unbookmark", id, false, bookmarkedOf, setBookmarked, false)
}

func (f *fakeAPI) Comments(_ context.Context, projectID uuid.UUID) ([]models.Comment, error) {
	if err := f.fetchErr(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]models.Comment, len(f.comments[projectID]))
	copy(out, f.comments[projectID])

	return out, nil
}

func (f *fakeAPI) CreateComment(_ context.Context, projectID uuid.UUID, in models.CreateCommentRequest) (*models.Comment, error) {
	if err := f.enter("comments.create"); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	c := models.Comment{ID: uuid.NewString(), ProjectID: projectID, ParentID: in.ParentID, Content: in.Content}
	f.comments[projectID] = append([]models.Comment{c}, f.comments[projectID]...)

	if p, ok := f.projects[projectID]; ok {
		p.CountComments++
		f.projects[projectID] = p
	}

	return &c, nil
}

func (f *fakeAPI) UpdateComment(_ context.Context, id string, in models.UpdateCommentRequest) (*models.Comment, error) {
	if err := f.enter("comments.update"); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for pid, list := range f.comments {
		for i := range list {
			if list[i].ID == id {
				list[i].Content = in.Content
				f.comments[pid] = list
				c := list[i]
				return &c, nil
			}
		}
	}

	return nil, &rpc.Error{Class: rpc.ClassNotFound, Method: "comments.update"}
}

func (f *fakeAPI) DeleteComment(_ context.Context, id string) error {
	if err := f.enter("comments.delete"); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for pid, list := range f.comments {
		for i := range list {
			if list[i].ID == id && !list[i].IsDeleted {
				list[i].Content = ""
				list[i].IsDeleted = true
				f.comments[pid] = list
				return nil
			}
		}
	}

	return &rpc.Error{Class: rpc.ClassNotFound, Method: "comments.delete"}
}

// harness — протокол поверх fakeAPI с записью уведомлений.
type harness struct {
	api     *fakeAPI
	proto   *Protocol
	reg     *prometheus.Registry
	mu      sync.Mutex
	notices []Notice
}

func newHarness(t *testing.T, serialize bool, viewer uuid.UUID) *harness {
	t.Helper()

	h := &harness{api: newFakeAPI(), reg: prometheus.NewRegistry()}
	l := slog.New(slog.NewTextHandler(io.Discard, nil))

	h.proto = New(h.api, querycache.New(l), Options{
		Serialize: serialize,
		Viewer:    viewer,
		Logger:    l,
		Metrics:   NewMetrics(h.reg),
		Notifier: NotifierFunc(func(_ context.Context, n Notice) {
			h.mu.Lock()
			h.notices = append(h.notices, n)
			h.mu.Unlock()
		}),
	})

	return h
}

func (h *harness) noticeCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.notices)
}
