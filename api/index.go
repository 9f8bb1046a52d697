// Package handler is the entry point for serverless hosting. The platform
// calls Handler per request; no socket is ever bound here.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/jaekwang-park/todolist/internal/bootstrap"
	"github.com/jaekwang-park/todolist/internal/config"
	"github.com/jaekwang-park/todolist/internal/middleware"
)

var (
	once    sync.Once
	app     http.Handler
	initErr error
)

func build() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.ParseLogLevel()}))
	slog.SetDefault(logger)

	if initErr = cfg.Validate(); initErr != nil {
		return
	}
	// The database pool lives for the life of the instance.
	app, _, initErr = bootstrap.Build(context.Background(), cfg, logger)
}

func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(build)
	if initErr != nil {
		slog.ErrorContext(r.Context(), "startup failed", "error", initErr)
		middleware.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}
	app.ServeHTTP(w, r)
}
