package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jaekwang-park/todolist/internal/http/handler"
	"github.com/jaekwang-park/todolist/internal/metrics"
	"github.com/jaekwang-park/todolist/internal/middleware"
	"github.com/jaekwang-park/todolist/internal/service"
)

// RouterDeps collects everything NewRouter wires together. When Missing is
// non-empty the services and Auth may be nil: every /api request is answered
// by the misconfiguration guard instead.
type RouterDeps struct {
	Logger            *slog.Logger
	CORSAllowedOrigin string
	// StaticDir, if set, is served at / for any path no other route claims.
	StaticDir string

	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer

	Missing        []string
	Auth           *middleware.Auth
	TodoService    *service.TodoService
	ProfileService *service.ProfileService
}

// NewRouter builds the full handler tree.
//
// Middleware order: RequestID -> Recovery -> Logging -> Metrics -> CORS.
func NewRouter(deps RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(middleware.CORS(deps.CORSAllowedOrigin))

	// Outside /api so load balancer probes keep working when misconfigured.
	r.Get("/health", handler.NewHealthHandler().ServeHTTP)
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	if len(deps.Missing) > 0 {
		guard := middleware.Misconfigured(deps.Missing)(nil)
		r.Handle("/api", guard)
		r.Handle("/api/*", guard)
	} else {
		todos := handler.NewTodoHandler(deps.TodoService)
		profiles := handler.NewProfileHandler(deps.ProfileService)

		r.Route("/api", func(r chi.Router) {
			// Called right after sign-up, before the caller holds a session.
			r.Post("/profile", profiles.Create)

			r.Group(func(r chi.Router) {
				r.Use(deps.Auth.Middleware)

				r.Route("/todos", func(r chi.Router) {
					r.Get("/", todos.List)
					r.Post("/", todos.Create)
					r.Delete("/", todos.DeleteCompleted)
					r.Patch("/{id}", todos.SetCompleted)
					r.Delete("/{id}", todos.Delete)
				})

				r.Get("/profile", profiles.Get)
				r.Patch("/profile", profiles.UpdateUsername)
				r.Patch("/profile/password", profiles.ChangePassword)
			})
		})
	}

	if deps.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(deps.StaticDir)))
	}

	return r
}
