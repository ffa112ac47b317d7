package optimistic

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/talas-dev/talas/internal/client/querycache"
	"github.com/talas-dev/talas/internal/models"
)

// Имена запросов кэша.
const (
	ScopeFeed     = "projects.list"
	ScopeProject  = "projects.get"
	ScopeComments = "comments.list"
)

// FeedKey — страница ленты. Данные: *models.ProjectPage.
func FeedKey(pageToken string) querycache.Key {
	return querycache.Key{Scope: ScopeFeed, ID: pageToken}
}

// ProjectKey — карточка проекта. Данные: *models.Project.
func ProjectKey(id uuid.UUID) querycache.Key {
	return querycache.Key{Scope: ScopeProject, ID: id.String()}
}

// CommentsKey — плоский список комментариев проекта. Данные: []models.Comment.
func CommentsKey(projectID uuid.UUID) querycache.Key {
	return querycache.Key{Scope: ScopeComments, ID: projectID.String()}
}

// LoadFeed загружает страницу ленты в кэш и регистрирует загрузчик для инвалидации.
func (p *Protocol) LoadFeed(ctx context.Context, params models.ListParams) (*models.ProjectPage, error) {
	v, err := p.cache.Fetch(ctx, FeedKey(params.PageToken), func(ctx context.Context) (any, error) {
		return p.api.ListProjects(ctx, params)
	})
	if err != nil {
		return nil, err
	}

	return asPage(v)
}

// LoadProject загружает карточку проекта в кэш.
func (p *Protocol) LoadProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	v, err := p.cache.Fetch(ctx, ProjectKey(id), func(ctx context.Context) (any, error) {
		return p.api.Project(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	proj, ok := v.(*models.Project)
	if !ok {
		return nil, fmt.Errorf("optimistic: unexpected %T under %s", v, ProjectKey(id))
	}

	return proj, nil
}

// LoadComments загружает плоский список комментариев проекта в кэш.
func (p *Protocol) LoadComments(ctx context.Context, projectID uuid.UUID) ([]models.Comment, error) {
	v, err := p.cache.Fetch(ctx, CommentsKey(projectID), func(ctx context.Context) (any, error) {
		return p.api.Comments(ctx, projectID)
	})
	if err != nil {
		return nil, err
	}

	list, ok := v.([]models.Comment)
	if !ok {
		return nil, fmt.Errorf("optimistic: unexpected %T under %s", v, CommentsKey(projectID))
	}

	return list, nil
}

func asPage(v any) (*models.ProjectPage, error) {
	page, ok := v.(*models.ProjectPage)
	if !ok {
		return nil, fmt.Errorf("optimistic: unexpected %T under %s", v, ScopeFeed)
	}

	return page, nil
}

// projectKeys — все запросы с данными, которые показывают проект id:
// его карточка и страницы ленты, где он есть.
func (p *Protocol) projectKeys(id uuid.UUID) []querycache.Key {
	keys := make([]querycache.Key, 0, 2)

	if _, ok := p.cache.Get(ProjectKey(id)); ok {
		keys = append(keys, ProjectKey(id))
	}

	for _, k := range p.cache.Keys(func(k querycache.Key) bool { return k.Scope == ScopeFeed }) {
		v, _ := p.cache.Get(k)
		if page, ok := v.(*models.ProjectPage); ok && page.IndexOf(id) >= 0 {
			keys = append(keys, k)
		}
	}

	return keys
}

// cachedProject — проект из карточки, а при её отсутствии из первой страницы ленты с ним.
func (p *Protocol) cachedProject(id uuid.UUID) (models.Project, bool) {
	if proj, ok := querycache.GetAs[*models.Project](p.cache, ProjectKey(id)); ok && proj != nil {
		return *proj, true
	}

	for _, k := range p.cache.Keys(func(k querycache.Key) bool { return k.Scope == ScopeFeed }) {
		page, ok := querycache.GetAs[*models.ProjectPage](p.cache, k)
		if !ok || page == nil {
			continue
		}
		if i := page.IndexOf(id); i >= 0 {
			return page.Projects[i], true
		}
	}

	return models.Project{}, false
}

// updateProject возвращает апдейтер кэша, который применяет fn к копии проекта id
// в карточке или странице ленты. Исходные данные не изменяются.
func updateProject(id uuid.UUID, fn func(*models.Project)) func(any) any {
	return func(old any) any {
		switch v := old.(type) {
		case *models.Project:
			if v == nil || v.ID != id {
				return old
			}
			next := *v
			fn(&next)
			return &next
		case *models.ProjectPage:
			if v == nil {
				return old
			}
			i := v.IndexOf(id)
			if i < 0 {
				return old
			}
			next := *v
			next.Projects = make([]models.Project, len(v.Projects))
			copy(next.Projects, v.Projects)
			fn(&next.Projects[i])
			return &next
		default:
			return old
		}
	}
}

// updateComment — апдейтер списка комментариев: fn применяется к копии комментария id.
func updateComment(id string, fn func(*models.Comment)) func(any) any {
	return func(old any) any {
		list, ok := old.([]models.Comment)
		if !ok {
			return old
		}

		for i := range list {
			if list[i].ID != id {
				continue
			}
			next := make([]models.Comment, len(list))
			copy(next, list)
			fn(&next[i])
			return next
		}

		return old
	}
}

func findComment(list []models.Comment, id string) (models.Comment, bool) {
	for _, c := range list {
		if c.ID == id {
			return c, true
		}
	}

	return models.Comment{}, false
}
