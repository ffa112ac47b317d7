// service содержит бизнес-логику talas API: лента проектов, реакции и комментарии.
package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/talas-dev/talas/internal/config"
	"github.com/talas-dev/talas/internal/storage"
)

var (
	// ErrNotFound — сущность или связь отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCursor — битый/чужой page_token.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrConflict — целевое состояние уже достигнуто (повторный лайк/закладка).
	ErrConflict = errors.New("conflict")
	// ErrParentNotFound — родитель не найден в этом проекте.
	ErrParentNotFound = errors.New("parent not found")
	// ErrMaxDepthExceeded — превышена максимально допустимая глубина ветки.
	ErrMaxDepthExceeded = errors.New("max depth exceeded")
	// ErrInvalidArgument — неверные входные параметры.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnauthenticated — операция требует пользователя.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden — действие над чужим комментарием.
	ErrForbidden = errors.New("forbidden")
	// ErrInternal — внутренняя ошибка (сторадж/БД/контекст/и т.д.).
	ErrInternal = errors.New("internal")
)

// Service — бизнес-логика talas API.
type Service struct {
	projects  storage.ProjectsStorage
	reactions storage.ReactionsStorage
	comments  storage.CommentsStorage
	limits    config.LimitsConfig
	validate  *validator.Validate
}

// New создает новый экземпляр Service.
func New(
	projects storage.ProjectsStorage,
	reactions storage.ReactionsStorage,
	comments storage.CommentsStorage,
	limits config.LimitsConfig,
) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	// В ошибках — имена полей из JSON, как их видит клиент.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Service{
		projects:  projects,
		reactions: reactions,
		comments:  comments,
		limits:    limits,
		validate:  v,
	}
}

// ValidationError описывает первое невалидное поле запроса.
// Оборачивает ErrInvalidArgument, текст безопасно отдавать клиенту.
type ValidationError struct {
	Field string
	Tag   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Tag)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidArgument }

// validationErr сводит ошибки validator к ValidationError по первому полю.
func validationErr(err error, field string) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		name := field
		if name == "" {
			name = fe.Field()
		}

		return &ValidationError{Field: name, Tag: fe.Tag()}
	}

	return ErrInvalidArgument
}
