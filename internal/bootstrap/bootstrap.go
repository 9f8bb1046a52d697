// Package bootstrap assembles the API handler from configuration. Both the
// long-running server and the managed-hosting entry point use it.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	cognitopkg "github.com/jaekwang-park/todolist/internal/cognito"
	"github.com/jaekwang-park/todolist/internal/config"
	"github.com/jaekwang-park/todolist/internal/database"
	todohttp "github.com/jaekwang-park/todolist/internal/http"
	"github.com/jaekwang-park/todolist/internal/metrics"
	"github.com/jaekwang-park/todolist/internal/middleware"
	"github.com/jaekwang-park/todolist/internal/repository"
	"github.com/jaekwang-park/todolist/internal/service"
)

// Build returns the API handler and a cleanup func that releases what it
// opened. With identity credentials missing it opens nothing and every /api
// request is answered by the misconfiguration guard.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (http.Handler, func(), error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	deps := todohttp.RouterDeps{
		Logger:            logger,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		Metrics:           collector,
		Gatherer:          reg,
	}
	if cfg.ServeStatic() {
		deps.StaticDir = cfg.StaticDir
	}

	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		logger.Error("identity credentials missing, API disabled", "missing", missing)
		deps.Missing = missing
		return todohttp.NewRouter(deps), func() {}, nil
	}

	dsn := cfg.DB.DSN()
	if cfg.DB.Migrate {
		if err := database.RunMigrations(dsn); err != nil {
			return nil, nil, err
		}
		logger.Info("database migrations applied")
	}

	db, err := database.Open(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("database connected")

	identity, err := cognitopkg.NewAWSClient(ctx, cognitopkg.Options{
		Region:          cfg.Cognito.Region,
		UserPoolID:      cfg.Cognito.UserPoolID,
		ClientID:        cfg.Cognito.AppClientID,
		ClientSecret:    cfg.Cognito.AppClientSecret,
		Endpoint:        cfg.Cognito.Endpoint,
		AccessKeyID:     cfg.Cognito.AdminAccessKeyID,
		SecretAccessKey: cfg.Cognito.AdminSecretAccessKey,
	})
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Info("cognito client initialized", "region", cfg.Cognito.Region, "verify_mode", cfg.AuthVerifyMode)

	auth, err := middleware.NewAuth(middleware.AuthConfig{
		Verifier:  newVerifier(cfg, identity),
		OnFailure: collector.RecordAuthFailure,
		Logger:    logger,
	})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create auth middleware: %w", err)
	}

	deps.Auth = auth
	deps.TodoService = service.NewTodoService(repository.NewPostgresTodo(db))
	deps.ProfileService = service.NewProfileService(repository.NewPostgresProfile(db), identity)

	cleanup := func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}
	return todohttp.NewRouter(deps), cleanup, nil
}

func newVerifier(cfg config.Config, identity middleware.UserGetter) middleware.TokenVerifier {
	if cfg.AuthVerifyMode == config.VerifyJWKS {
		return &middleware.JWTVerifier{
			Keys:        middleware.NewJWKSClient(middleware.CognitoJWKSURL(cfg.Cognito.Region, cfg.Cognito.UserPoolID)),
			Issuer:      middleware.CognitoIssuer(cfg.Cognito.Region, cfg.Cognito.UserPoolID),
			AppClientID: cfg.Cognito.AppClientID,
		}
	}
	return middleware.RemoteVerifier{Users: identity}
}
