package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/talas-dev/talas/internal/auth"
	apierrors "github.com/talas-dev/talas/internal/errors"
	logctx "github.com/talas-dev/talas/internal/pkg/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type viewerKey struct{}

// WithViewer кладёт id зрителя в контекст.
func WithViewer(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, viewerKey{}, id)
}

// ViewerFrom возвращает id зрителя или uuid.Nil для анонима.
func ViewerFrom(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(viewerKey{}).(uuid.UUID)
	return id
}

// AuthBearer проверяет Bearer-токен из Authorization и кладёт id пользователя в контекст.
//   - заголовка нет или схема не Bearer — анонимный зритель;
//   - токен не прошёл проверку — 401/unauthenticated, дальше запрос не идёт.
func AuthBearer(cfg auth.Config) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, prefix) {
				next.ServeHTTP(w, r)
				return
			}

			token := strings.TrimSpace(header[len(prefix):])
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			uid, err := auth.Verify(cfg, token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, auth.ErrTokenExpired) {
					msg = "token expired"
				}

				logctx.From(r.Context()).Warn("auth_rejected", slog.String("reason", msg))
				apierrors.WriteError(w, r, status.Error(codes.Unauthenticated, msg))
				return
			}

			ctx := WithViewer(r.Context(), uid)
			ctx = logctx.Into(ctx, logctx.From(ctx).With(slog.String("user_id", uid.String())))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireViewer пропускает только аутентифицированные запросы (операции записи).
func RequireViewer() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ViewerFrom(r.Context()) == uuid.Nil {
				apierrors.WriteError(w, r, status.Error(codes.Unauthenticated, "authentication required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
