// handlers — HTTP-обработчики talas API. Ошибки сервиса переводятся в gRPC-статусы,
// а те — в HTTP через internal/errors.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/talas-dev/talas/internal/models"
	"github.com/talas-dev/talas/internal/service"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Service — бизнес-операции, которые обслуживает HTTP-слой.
type Service interface {
	ListProjects(ctx context.Context, viewer uuid.UUID, p models.ListParams) (*models.ProjectPage, error)
	ProjectByID(ctx context.Context, id, viewer uuid.UUID) (*models.Project, error)

	Like(ctx context.Context, projectID, userID uuid.UUID) error
	Unlike(ctx context.Context, projectID, userID uuid.UUID) error
	Bookmark(ctx context.Context, projectID, userID uuid.UUID) error
	Unbookmark(ctx context.Context, projectID, userID uuid.UUID) error

	ListComments(ctx context.Context, projectID uuid.UUID) ([]models.Comment, error)
	CreateComment(ctx context.Context, in service.CreateCommentInput) (*models.Comment, error)
	UpdateComment(ctx context.Context, userID uuid.UUID, id string, req models.UpdateCommentRequest) (*models.Comment, error)
	DeleteComment(ctx context.Context, userID uuid.UUID, id string) error
}

// Handlers агрегирует зависимости обработчиков.
type Handlers struct {
	svc Service
}

func New(svc Service) *Handlers {
	return &Handlers{svc: svc}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// maxBody — верхняя граница тела запроса (комментарий до 4000 рун с запасом).
const maxBody = 64 << 10

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(w http.ResponseWriter, r *http.Request, value any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// statusErrorInvalidArgument — локальная ошибка парсинга -> InvalidArgument.
func statusErrorInvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}

// toStatus переводит ошибки сервиса в gRPC-статусы.
func toStatus(err error) error {
	var verr *service.ValidationError

	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Error())
	case errors.Is(err, service.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, "invalid argument")
	case errors.Is(err, service.ErrInvalidCursor):
		return status.Error(codes.InvalidArgument, "invalid page_token")
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, service.ErrParentNotFound):
		return status.Error(codes.NotFound, "parent comment not found")
	case errors.Is(err, service.ErrConflict):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, service.ErrMaxDepthExceeded):
		return status.Error(codes.FailedPrecondition, "max depth exceeded")
	case errors.Is(err, service.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "authentication required")
	case errors.Is(err, service.ErrForbidden):
		return status.Error(codes.PermissionDenied, "not the author")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// projectID — {id} из пути как UUID.
func projectID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, statusErrorInvalidArgument("id: uuid")
	}

	return id, nil
}
