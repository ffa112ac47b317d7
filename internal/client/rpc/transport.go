package rpc

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/talas-dev/talas/internal/pkg/log"
)

type ctxKey string

// CtxRequestID — ключ контекста с X-Request-Id для исходящих вызовов.
const CtxRequestID ctxKey = "request_id"

// WithRequestID кладёт request id в контекст исходящего вызова.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CtxRequestID, id)
}

// Middleware — обёртка над http.RoundTripper.
type Middleware func(http.RoundTripper) http.RoundTripper

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Chain применяет мидлвары к транспорту в порядке перечисления (первый — внешний).
func Chain(rt http.RoundTripper, mws ...Middleware) http.RoundTripper {
	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}

	return rt
}

// WithMetadata добавляет в исходящий запрос заголовки:
//   - X-Request-Id (из контекста, иначе новый UUID);
//   - Authorization: Bearer <token> (если token не пуст);
//   - User-Agent (если передан).
func WithMetadata(userAgent, token string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			r = r.Clone(r.Context())

			rid, _ := r.Context().Value(CtxRequestID).(string)
			if rid == "" {
				rid = uuid.NewString()
			}
			r.Header.Set("X-Request-Id", rid)

			if token != "" {
				r.Header.Set("Authorization", "Bearer "+token)
			}
			if userAgent != "" {
				r.Header.Set("User-Agent", userAgent)
			}

			return next.RoundTrip(r)
		})
	}
}

// WithTimeout навешивает дедлайн d на запрос, если его ещё нет.
// Контекст отменяется при закрытии тела ответа, а не при возврате RoundTrip,
// иначе тело нельзя было бы дочитать.
func WithTimeout(d time.Duration) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if d <= 0 {
			return next
		}

		return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if _, ok := r.Context().Deadline(); ok {
				return next.RoundTrip(r)
			}

			ctx, cancel := context.WithTimeout(r.Context(), d)
			resp, err := next.RoundTrip(r.WithContext(ctx))
			if err != nil {
				cancel()
				return nil, err
			}

			resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}

			return resp, nil
		})
	}
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()

	return err
}

// WithLogging пишет одну запись на вызов: msg="rpc", method, path, status, dur.
// Обогащённый логгер прокладывается в контекст запроса.
func WithLogging(base *slog.Logger) Middleware {
	base = log.OrDefault(base)

	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()

			l := base.With(
				slog.String("request_id", r.Header.Get("X-Request-Id")),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			r = r.WithContext(log.Into(r.Context(), l))

			resp, err := next.RoundTrip(r)
			if err != nil {
				l.Warn("rpc", slog.String("err", err.Error()), slog.Duration("dur", time.Since(start)))
				return nil, err
			}

			l.Debug("rpc", slog.Int("status", resp.StatusCode), slog.Duration("dur", time.Since(start)))

			return resp, nil
		})
	}
}
