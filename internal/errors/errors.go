// errors стандартизирует ответы об ошибках HTTP API talas.
// На вход принимает ошибку транспортного слоя (gRPC-статус),
// на выход даёт HTTP-статус, стабильный машиночитаемый код и безопасное сообщение.
//
// Клиент (internal/client/rpc) классифицирует ошибки в первую очередь по коду,
// поэтому коды из baseFromGRPC — часть контракта API.
package errors

import (
	"encoding/json"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Нестандартный код для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// APIError — единый формат ошибки.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку в HTTP-статус и тело ответа.
//
// Поведение:
//   - err == nil — программная ошибка вызова: 500/internal;
//   - err — не gRPC-статус: 500/internal без утечки деталей;
//   - InvalidArgument — сообщение статуса отдаётся как есть (описание невалидного поля);
//   - прочие коды — безопасное сообщение из таблицы.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return http.StatusInternalServerError, internal()
	}

	st, ok := status.FromError(err)
	if !ok {
		return http.StatusInternalServerError, internal()
	}

	httpStatus, code, msg := baseFromGRPC(st.Code())
	if st.Code() == codes.InvalidArgument && st.Message() != "" {
		msg = st.Message()
	}

	return httpStatus, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

func internal() ErrorResponse {
	return ErrorResponse{
		Error: APIError{
			Code:    "internal",
			Message: "internal error",
		},
	}
}

// WriteError пишет статус и тело ошибки, добавляя request_id из заголовка запроса.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// baseFromGRPC — базовый маппинг gRPC -> HTTP/код/сообщение:
//   - InvalidArgument (битые входные/курсор/UUID) -> 400
//   - NotFound (нет проекта/комментария/лайка) -> 404
//   - AlreadyExists (повторный лайк/закладка) -> 409
//   - FailedPrecondition (превышена глубина ветки) -> 412
//   - Unauthenticated -> 401
//   - PermissionDenied (чужой комментарий) -> 403
//   - ResourceExhausted (rate limit) -> 429
//   - Canceled -> 499, DeadlineExceeded -> 504, Unavailable -> 503
//   - прочее -> 500/internal
func baseFromGRPC(c codes.Code) (int, string, string) {
	switch c {
	case codes.InvalidArgument:
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case codes.NotFound:
		return http.StatusNotFound, "not_found", "not found"
	case codes.AlreadyExists:
		return http.StatusConflict, "already_exists", "already exists"
	case codes.FailedPrecondition:
		return http.StatusPreconditionFailed, "failed_precondition", "failed precondition"
	case codes.Unauthenticated:
		return http.StatusUnauthorized, "unauthenticated", "unauthenticated"
	case codes.PermissionDenied:
		return http.StatusForbidden, "permission_denied", "permission denied"
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests, "resource_exhausted", "resource exhausted"
	case codes.Aborted:
		return http.StatusConflict, "aborted", "aborted"
	case codes.Canceled:
		return StatusClientClosedRequest, "canceled", "canceled"
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	case codes.Unavailable:
		return http.StatusServiceUnavailable, "unavailable", "service unavailable"
	case codes.Unimplemented:
		return http.StatusNotImplemented, "unimplemented", "unimplemented"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
