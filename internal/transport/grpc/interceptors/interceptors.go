// interceptors — unary-интерсепторы служебного gRPC-сервера talas-api
// (health-пробы оркестратора).
package interceptors

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/talas-dev/talas/internal/pkg/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// healthPrefix — методы grpc.health.v1; пробы идут часто, поэтому пишутся на Debug.
const healthPrefix = "/grpc.health.v1.Health/"

// Recover переводит панику обработчика в codes.Internal и пишет стек в лог.
func Recover(base *slog.Logger) grpc.UnaryServerInterceptor {
	base = log.OrDefault(base)

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				base.Error("panic_recovered",
					slog.String("method", info.FullMethod),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)

				resp, err = nil, status.Error(codes.Internal, "internal server error")
			}
		}()

		return handler(ctx, req)
	}
}

// Logging кладёт в контекст логгер с request_id/method/peer и пишет одну
// строку "grpc" с кодом и длительностью на каждый вызов.
// request_id берётся из metadata x-request-id, иначе генерируется.
func Logging(base *slog.Logger) grpc.UnaryServerInterceptor {
	base = log.OrDefault(base)

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		rid := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get("x-request-id"); len(v) > 0 {
				rid = v[0]
			}
		}
		if rid == "" {
			rid = uuid.NewString()
		}

		peerAddr := "-"
		if p, ok := peer.FromContext(ctx); ok && p != nil && p.Addr != nil {
			peerAddr = p.Addr.String()
		}

		l := base.With(
			slog.String("request_id", rid),
			slog.String("method", info.FullMethod),
			slog.String("peer", peerAddr),
		)

		resp, err := handler(log.Into(ctx, l), req)

		level := slog.LevelInfo
		switch {
		case status.Code(err) == codes.Internal || status.Code(err) == codes.Unknown:
			level = slog.LevelError
		case strings.HasPrefix(info.FullMethod, healthPrefix):
			level = slog.LevelDebug
		}

		l.Log(ctx, level, "grpc",
			slog.String("code", status.Code(err).String()),
			slog.Duration("dur", time.Since(start)),
		)

		return resp, err
	}
}

// Timeout навешивает дедлайн d, если у входящего вызова его нет. d <= 0 — без изменений.
func Timeout(d time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if d <= 0 {
			return handler(ctx, req)
		}

		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}

		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		return handler(ctx, req)
	}
}
