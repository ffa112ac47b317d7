package rpc

import (
	"errors"
	"fmt"
	"net/http"
)

// Class — машиночитаемая категория ошибки RPC. Набор закрыт: протокол
// оптимистичных мутаций ветвится только по нему.
type Class int

const (
	// ClassGeneric — всё, что не попало в остальные категории (включая 5xx).
	ClassGeneric Class = iota
	// ClassConflict — целевое состояние уже достигнуто (повторный лайк/закладка).
	ClassConflict
	// ClassNotFound — нет сущности или связи.
	ClassNotFound
	// ClassForbidden — действие над чужой сущностью.
	ClassForbidden
	// ClassUnauthenticated — нет или протух токен.
	ClassUnauthenticated
	// ClassInvalid — сервер отверг входные данные.
	ClassInvalid
	// ClassUnavailable — сеть, таймаут, перегрузка апстрима.
	ClassUnavailable
)

func (c Class) String() string {
	switch c {
	case ClassGeneric:
		return "GENERIC"
	case ClassConflict:
		return "CONFLICT"
	case ClassNotFound:
		return "NOT_FOUND"
	case ClassForbidden:
		return "FORBIDDEN"
	case ClassUnauthenticated:
		return "UNAUTHENTICATED"
	case ClassInvalid:
		return "INVALID"
	case ClassUnavailable:
		return "UNAVAILABLE"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// Error — классифицированная ошибка вызова.
type Error struct {
	Class     Class
	Status    int    // HTTP-статус; 0 если ответа не было
	Code      string // стабильный код сервера ("already_exists", "not_found", ...)
	Message   string
	RequestID string
	Method    string // имя RPC, например "projects.like"
	Err       error  // транспортная причина, если ответа не было
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rpc %s: %s: %v", e.Method, e.Class, e.Err)
	}

	return fmt.Sprintf("rpc %s: %s (%d %s): %s", e.Method, e.Class, e.Status, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// ClassOf возвращает категорию ошибки. Ошибки не из этого пакета — ClassGeneric.
func ClassOf(err error) Class {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr.Class
	}

	return ClassGeneric
}

// classify сводит ответ сервера к Class. Приоритет у стабильного кода из тела,
// HTTP-статус — запасной вариант для ответов без тела (прокси, балансировщик).
func classify(status int, code string) Class {
	switch code {
	case "already_exists", "aborted":
		return ClassConflict
	case "not_found":
		return ClassNotFound
	case "permission_denied":
		return ClassForbidden
	case "unauthenticated":
		return ClassUnauthenticated
	case "invalid_argument", "failed_precondition":
		return ClassInvalid
	case "unavailable", "deadline_exceeded", "resource_exhausted":
		return ClassUnavailable
	case "internal", "unimplemented", "canceled":
		return ClassGeneric
	}

	switch status {
	case http.StatusConflict:
		return ClassConflict
	case http.StatusNotFound:
		return ClassNotFound
	case http.StatusForbidden:
		return ClassForbidden
	case http.StatusUnauthorized:
		return ClassUnauthenticated
	case http.StatusBadRequest, http.StatusPreconditionFailed, http.StatusUnprocessableEntity:
		return ClassInvalid
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusBadGateway:
		return ClassUnavailable
	default:
		return ClassGeneric
	}
}
