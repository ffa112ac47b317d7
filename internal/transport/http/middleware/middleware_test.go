package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/talas-dev/talas/internal/auth"
)

// capHandler — тестовый slog.Handler: копит attrs из With(...) и из последней записи.
type capHandler struct {
	base    []slog.Attr
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
	count   int
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	out := make(map[string]any, len(h.base)+8)
	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})
	h.count++
	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = out
	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) > 0 {
		h.base = append(h.base, attrs...)
	}
	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

func makeReq(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = (&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 12345}).String()
	return req
}

type errEnvelope struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) errEnvelope {
	t.Helper()
	var env errEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func testAuth() auth.Config {
	return auth.Config{Secret: "test-secret", Issuer: "talas", Audience: []string{"talas-api"}}
}

func TestChain_Order(t *testing.T) {
	order := []string{}
	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+"-begin")
				next.ServeHTTP(w, r)
				order = append(order, name+"-end")
			})
		}
	}
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	Chain(final, mk("m1"), mk("m2")).ServeHTTP(rr, makeReq("/chain"))

	require.Equal(t, []string{"m1-begin", "m2-begin", "handler", "m2-end", "m1-end"}, order)
	require.Equal(t, http.StatusTeapot, rr.Code)
}

func TestRequestID_GenerateAndPropagate(t *testing.T) {
	var seenID, seenCtxID string

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = r.Header.Get("X-Request-Id")
		seenCtxID = RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	Chain(h, RequestID()).ServeHTTP(rr, makeReq("/rid"))

	respID := rr.Header().Get("X-Request-Id")
	require.Len(t, respID, 32)
	require.Equal(t, respID, seenID)
	require.Equal(t, respID, seenCtxID)
}

func TestRequestID_UseExisting(t *testing.T) {
	const given = "abc123-existing-id"
	var seenCtxID string

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenCtxID = RequestIDFrom(r.Context())
	})

	rr := httptest.NewRecorder()
	req := makeReq("/rid2")
	req.Header.Set("X-Request-Id", given)
	Chain(h, RequestID()).ServeHTTP(rr, req)

	require.Equal(t, given, rr.Header().Get("X-Request-Id"))
	require.Equal(t, given, seenCtxID)
}

func TestAuthBearer_ValidToken(t *testing.T) {
	uid := uuid.New()
	tok, err := auth.Issue(testAuth(), uid, time.Now())
	require.NoError(t, err)

	var seen uuid.UUID
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ViewerFrom(r.Context())
	})

	rr := httptest.NewRecorder()
	req := makeReq("/auth")
	req.Header.Set("Authorization", "Bearer "+tok)
	Chain(h, AuthBearer(testAuth())).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, uid, seen)
}

func TestAuthBearer_AnonymousWhenAbsent(t *testing.T) {
	seen := uuid.New()
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ViewerFrom(r.Context())
	})
	chain := Chain(h, AuthBearer(testAuth()))

	for _, header := range []string{"", "Basic aaa", "Bearer "} {
		rr := httptest.NewRecorder()
		req := makeReq("/anon")
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		chain.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, header)
		require.Equal(t, uuid.Nil, seen, header)
	}
}

func TestAuthBearer_RejectsBadToken(t *testing.T) {
	expired, err := auth.Issue(testAuth(), uuid.New(), time.Now().Add(-time.Hour))
	require.NoError(t, err)

	called := false
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	chain := Chain(h, AuthBearer(testAuth()))

	cases := map[string]string{
		"garbage": "not-a-jwt",
		"expired": expired,
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := makeReq("/auth")
			req.Header.Set("Authorization", "Bearer "+tok)
			chain.ServeHTTP(rr, req)

			require.Equal(t, http.StatusUnauthorized, rr.Code)
			require.Equal(t, "unauthenticated", decodeEnvelope(t, rr).Error.Code)
		})
	}
	require.False(t, called)
}

func TestRequireViewer(t *testing.T) {
	chain := Chain(okHandler, RequireViewer())

	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, makeReq("/write"))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	req := makeReq("/write")
	chain.ServeHTTP(rr, req.WithContext(WithViewer(req.Context(), uuid.New())))
	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestRateLimit_PerClient(t *testing.T) {
	chain := Chain(okHandler, RateLimit(1, 2))

	send := func(remote string, viewer uuid.UUID) *httptest.ResponseRecorder {
		req := makeReq("/rl")
		req.RemoteAddr = remote
		if viewer != uuid.Nil {
			req = req.WithContext(WithViewer(req.Context(), viewer))
		}
		rr := httptest.NewRecorder()
		chain.ServeHTTP(rr, req)
		return rr
	}

	require.Equal(t, http.StatusNoContent, send("10.0.0.1:1", uuid.Nil).Code)
	require.Equal(t, http.StatusNoContent, send("10.0.0.1:2", uuid.Nil).Code)

	rr := send("10.0.0.1:3", uuid.Nil)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Equal(t, "1", rr.Header().Get("Retry-After"))
	require.Equal(t, "resource_exhausted", decodeEnvelope(t, rr).Error.Code)

	// Другой IP и пользователь за тем же IP считаются отдельно.
	require.Equal(t, http.StatusNoContent, send("10.0.0.2:1", uuid.Nil).Code)
	require.Equal(t, http.StatusNoContent, send("10.0.0.1:4", uuid.New()).Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	chain := Chain(okHandler, RateLimit(0, 0))
	for i := 0; i < 10; i++ {
		rr := httptest.NewRecorder()
		chain.ServeHTTP(rr, makeReq("/rl"))
		require.Equal(t, http.StatusNoContent, rr.Code)
	}
}

func TestLimiters_SweepIdle(t *testing.T) {
	now := time.Now()
	l := newLimiters(1, 1)
	l.now = func() time.Time { return now }

	require.True(t, l.allow("a"))
	require.Len(t, l.visitors, 1)

	now = now.Add(limiterIdle + sweepEvery + time.Second)
	require.True(t, l.allow("b"))
	require.Len(t, l.visitors, 1)
	require.Contains(t, l.visitors, "b")
}

func TestTimeout_SetsDeadline_WhenAbsent(t *testing.T) {
	var hasDeadline bool
	var left time.Duration

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dl, ok := r.Context().Deadline()
		hasDeadline = ok
		if ok {
			left = time.Until(dl)
		}
	})

	Chain(h, Timeout(50*time.Millisecond)).ServeHTTP(httptest.NewRecorder(), makeReq("/timeout"))

	require.True(t, hasDeadline)
	require.Greater(t, left, time.Duration(0))
}

func TestTimeout_DoesNotOverrideExistingDeadline(t *testing.T) {
	var childDL time.Time

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		childDL, _ = r.Context().Deadline()
	})

	parent, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	Chain(h, Timeout(time.Second)).ServeHTTP(httptest.NewRecorder(), makeReq("/timeout2").WithContext(parent))

	parentDL, _ := parent.Deadline()
	require.WithinDuration(t, parentDL, childDL, time.Millisecond)
}

func TestRecover_ConvertsPanicTo500(t *testing.T) {
	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	Chain(panicHandler, Recover()).ServeHTTP(rr, makeReq("/panic"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	require.Equal(t, "internal", decodeEnvelope(t, rr).Error.Code)
}

func TestLogging_WritesRecord_WithStatusDurBytesAndRequestID(t *testing.T) {
	h := &capHandler{}
	logger := slog.New(h)

	const rid = "rid-456"
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	})

	rr := httptest.NewRecorder()
	req := makeReq("/log")
	req.Header.Set("X-Request-Id", rid)
	Chain(final, RequestID(), Logging(logger)).ServeHTTP(rr, req)

	require.Equal(t, 1, h.count)
	require.Equal(t, "http", h.lastMsg)
	require.Equal(t, slog.LevelInfo, h.lastLvl)

	require.Equal(t, http.MethodGet, h.attrs["method"])
	require.Equal(t, "/log", h.attrs["path"])
	require.EqualValues(t, http.StatusOK, h.attrs["status"])
	require.EqualValues(t, 10, h.attrs["bytes"])
	require.Equal(t, rid, h.attrs["request_id"])
	require.Contains(t, h.attrs, "dur")
}

func TestLogging_ServerErrorLoggedAsError(t *testing.T) {
	h := &capHandler{}
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	Chain(final, Logging(slog.New(h))).ServeHTTP(httptest.NewRecorder(), makeReq("/fail"))

	require.Equal(t, slog.LevelError, h.lastLvl)
	require.EqualValues(t, http.StatusBadGateway, h.attrs["status"])
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/v1/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), makeReq("/v1/projects/"+id))
	}
	r.ServeHTTP(httptest.NewRecorder(), makeReq("/nope"))

	require.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/v1/projects/{id}", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "unmatched", "404")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.inflight))
}

func TestStatusWriter_CountsBytes_AndDefaultStatus200(t *testing.T) {
	sw := newStatusWriter(httptest.NewRecorder())

	_, _ = sw.Write([]byte("abcd"))

	require.Equal(t, http.StatusOK, sw.code())
	require.Equal(t, 4, sw.count)
}
