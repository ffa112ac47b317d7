package models

import (
	"time"

	"github.com/google/uuid"
)

// Project — карточка портфолио-проекта.
// IsLiked/IsBookmarked вычисляются для конкретного зрителя и для анонима всегда false.
type Project struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Owner         Author    `json:"owner"`
	CountLikes    int64     `json:"count_likes"`
	CountComments int64     `json:"count_comments"`
	IsLiked       bool      `json:"is_liked"`
	IsBookmarked  bool      `json:"is_bookmarked"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListParams — параметры постраничной выдачи.
type ListParams struct {
	PageSize  int32
	PageToken string
}

// ProjectPage — страница ленты проектов.
type ProjectPage struct {
	Projects      []Project `json:"projects"`
	NextPageToken string    `json:"next_page_token"`
}

// IndexOf возвращает позицию проекта в странице или -1.
func (p ProjectPage) IndexOf(id uuid.UUID) int {
	for i := range p.Projects {
		if p.Projects[i].ID == id {
			return i
		}
	}

	return -1
}
