// Package models содержит доменные сущности talas, общие для сервера и клиента.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Author — автор проекта или комментария в том виде, в котором он показывается в ленте.
type Author struct {
	ID          uuid.UUID `json:"id"           bson:"id"`
	DisplayName string    `json:"display_name" bson:"display_name"`
	Handle      string    `json:"handle"       bson:"handle"`
	AvatarURL   string    `json:"avatar_url"   bson:"avatar_url"`
}

// Comment — комментарий к проекту (MongoDB).
// Важно:
//   - ID — ObjectID MongoDB в hex. Наружу/вовнутрь ходит строкой;
//   - ParentID — идентификатор родителя, "" для корневого комментария;
//   - Level — глубина ветки (корень = 0), проверяется на запись по cfg.Limits.MaxDepth;
//   - IsDeleted — мягкое удаление: content очищается, дети остаются привязанными.
type Comment struct {
	ID        string    `json:"id"         bson:"-"`
	ProjectID uuid.UUID `json:"project_id" bson:"project_id"`
	ParentID  string    `json:"parent_id"  bson:"parent_id"`
	Author    Author    `json:"author"     bson:"author"`
	Content   string    `json:"content"    bson:"content"`
	Level     int32     `json:"level"      bson:"level"`
	IsDeleted bool      `json:"is_deleted" bson:"is_deleted"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// IsRoot сообщает, что комментарий верхнего уровня.
func (c Comment) IsRoot() bool { return c.ParentID == "" }

// CreateCommentRequest — тело POST /v1/projects/{id}/comments.
type CreateCommentRequest struct {
	ParentID string `json:"parent_id,omitempty" validate:"omitempty,hexadecimal,len=24"`
	Content  string `json:"content"             validate:"required,max=4000"`
}

// UpdateCommentRequest — тело PATCH /v1/comments/{id}.
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

// CommentsResponse — плоский список комментариев проекта (сначала новые).
type CommentsResponse struct {
	Comments []Comment `json:"comments"`
}
