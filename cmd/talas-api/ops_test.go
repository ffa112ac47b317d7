package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func silent() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestOpsMux_Livez(t *testing.T) {
	var ready atomic.Bool
	mux := newOpsMux(silent(), &ready, time.Second, nil)

	rr := get(t, mux, "/livez")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestOpsMux_Healthz(t *testing.T) {
	var ready atomic.Bool
	pgUp := true

	mux := newOpsMux(silent(), &ready, time.Second, nil,
		healthCheck{name: "postgres", dep: pingFunc(func(context.Context) error {
			if pgUp {
				return nil
			}
			return errors.New("conn refused")
		})},
		healthCheck{name: "mongo", dep: pingFunc(func(context.Context) error { return nil })},
	)

	require.Equal(t, http.StatusServiceUnavailable, get(t, mux, "/healthz").Code)

	ready.Store(true)
	require.Equal(t, http.StatusOK, get(t, mux, "/healthz").Code)

	pgUp = false
	rr := get(t, mux, "/healthz")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Contains(t, rr.Body.String(), "postgres")
}

func TestOpsMux_Metrics(t *testing.T) {
	var ready atomic.Bool
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("m")) })

	mux := newOpsMux(silent(), &ready, time.Second, metrics)
	require.Equal(t, "m", get(t, mux, "/metrics").Body.String())

	require.Equal(t, http.StatusNotFound, get(t, newOpsMux(silent(), &ready, time.Second, nil), "/metrics").Code)
}
