package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	apierrors "github.com/talas-dev/talas/internal/errors"
	"golang.org/x/time/rate"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	limiterIdle = 3 * time.Minute
	sweepEvery  = time.Minute
	retryAfterS = 1
)

type visitor struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// limiters — token bucket на клиента; простаивающие ведра периодически удаляются.
type limiters struct {
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	visitors  map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

func newLimiters(rps float64, burst int) *limiters {
	return &limiters{
		rps:      rate.Limit(rps),
		burst:    burst,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

func (l *limiters) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > sweepEvery {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > limiterIdle {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	return v.lim.AllowN(now, 1)
}

// RateLimit ограничивает частоту запросов на клиента: аутентифицированного —
// по id пользователя, анонимного — по IP. rps<=0 делает мидлвар no-op.
// Должен стоять после AuthBearer.
func RateLimit(rps float64, burst int) Middleware {
	return func(next http.Handler) http.Handler {
		if rps <= 0 {
			return next
		}

		l := newLimiters(rps, burst)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(clientKey(r)) {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterS))
				apierrors.WriteError(w, r, status.Error(codes.ResourceExhausted, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if uid := ViewerFrom(r.Context()); uid != uuid.Nil {
		return "user:" + uid.String()
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	return "ip:" + host
}
