package main

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// pinger — зависимость, доступность которой проверяет /healthz.
type pinger interface {
	Ping(ctx context.Context) error
}

type healthCheck struct {
	name string
	dep  pinger
}

// newOpsMux — служебный HTTP: /livez, /healthz, /metrics.
// /healthz отвечает 200 только после старта и пока все зависимости отвечают на Ping.
func newOpsMux(log *slog.Logger, ready *atomic.Bool, pingTimeout time.Duration, metrics http.Handler, checks ...healthCheck) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !ready.Load() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		for _, c := range checks {
			if err := c.dep.Ping(ctx); err != nil {
				log.Warn("healthz_dependency_down", slog.String("dep", c.name), slog.String("err", err.Error()))
				http.Error(w, c.name+": unavailable", http.StatusServiceUnavailable)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	return mux
}
