// http собирает HTTP API talas: chi-роутер, цепочку мидлваров и маршруты.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/talas-dev/talas/internal/auth"
	"github.com/talas-dev/talas/internal/transport/http/handlers"
	"github.com/talas-dev/talas/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
	Auth    auth.Config
	Metrics *middleware.HTTPMetrics // nil — без метрик
	RPS     float64                 // 0 — без ограничения частоты
	Burst   int
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc handlers.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),
		middleware.RequestID(),          // до логирования, чтобы id попал в логгер
		middleware.Logging(opts.Logger), // request-scoped логгер в контексте
		middleware.Metrics(opts.Metrics),
		middleware.AuthBearer(opts.Auth),
		middleware.RateLimit(opts.RPS, opts.Burst), // ключ — пользователь, поэтому после AuthBearer
		middleware.Timeout(opts.Timeout),
	)

	registerRoutes(root, handlers.New(svc))

	return root
}

// registerRoutes — единая точка регистрации всех эндпойнтов.
// Чтение доступно анониму, запись требует токена.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/projects", h.ListProjects)
		r.Get("/projects/{id}", h.GetProject)
		r.Get("/projects/{id}/comments", h.ListComments)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireViewer())

			r.Post("/projects/{id}/like", h.Like)
			r.Delete("/projects/{id}/like", h.Unlike)
			r.Post("/projects/{id}/bookmark", h.Bookmark)
			r.Delete("/projects/{id}/bookmark", h.Unbookmark)

			r.Post("/projects/{id}/comments", h.CreateComment)
			r.Patch("/comments/{id}", h.UpdateComment)
			r.Delete("/comments/{id}", h.DeleteComment)
		})
	})
}
