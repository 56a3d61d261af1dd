// Package app wires the configuration, storage, use cases and HTTP server together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	delivery "github.com/vadimbarashkov/qrlink/internal/adapter/delivery/http"
	"github.com/vadimbarashkov/qrlink/internal/adapter/repository/postgres"
	"github.com/vadimbarashkov/qrlink/internal/auth"
	"github.com/vadimbarashkov/qrlink/internal/config"
	"github.com/vadimbarashkov/qrlink/internal/ratelimit"
	"github.com/vadimbarashkov/qrlink/internal/usecase"
	"github.com/vadimbarashkov/qrlink/migrations"

	pgpkg "github.com/vadimbarashkov/qrlink/pkg/postgres"
)

const redisKeyPrefix = "qrlink:ratelimit:"

func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := newLogger(cfg)

	db, err := pgpkg.New(
		ctx,
		cfg.Postgres.DSN(),
		pgpkg.WithApplicationName("qrlink"),
		pgpkg.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		pgpkg.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		pgpkg.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		pgpkg.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}
	defer db.Close()

	if err := pgpkg.RunMigrations(migrations.FS, cfg.Postgres.DSN()); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	userRepo := postgres.NewUserRepository(db)
	apiKeyRepo := postgres.NewAPIKeyRepository(db)
	linkRepo := postgres.NewLinkRepository(db)
	qrCodeRepo := postgres.NewQRCodeRepository(db)
	abTestRepo := postgres.NewABTestRepository(db)
	teamRepo := postgres.NewTeamRepository(db)

	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	g, ctx := errgroup.WithContext(ctx)

	limiterOpts := ratelimit.Options{
		Limit:  cfg.RateLimit.Limit,
		Window: cfg.RateLimit.Window,
	}

	var limiter ratelimit.Limiter

	switch cfg.RateLimit.Backend {
	case config.RateLimitRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("%s: failed to connect to redis: %w", op, err)
		}

		limiter = ratelimit.NewRedisLimiter(client, redisKeyPrefix, limiterOpts)
	default:
		memory := ratelimit.NewMemoryLimiter(limiterOpts, logger.Logger)
		g.Go(func() error {
			return memory.Run(ctx, cfg.RateLimit.CleanupInterval)
		})

		limiter = memory
	}

	router := delivery.NewRouter(logger, delivery.Options{
		PublicBaseURL:   cfg.PublicBaseURL,
		ExpiredURL:      cfg.Pages.ExpiredURL,
		PasswordURL:     cfg.Pages.PasswordURL,
		UnlockCookieTTL: cfg.Unlock.CookieTTL,
		SecureCookies:   cfg.Env == config.EnvProd,
		BehindProxy:     cfg.HTTPServer.BehindProxy,
	}, delivery.UseCases{
		Redirect: usecase.NewRedirectUseCase(linkRepo, qrCodeRepo, abTestRepo, logger.Logger),
		Unlock:   usecase.NewUnlockUseCase(linkRepo, qrCodeRepo, limiter, hasher, cfg.PublicBaseURL),
		Auth:     usecase.NewAuthUseCase(userRepo, apiKeyRepo, linkRepo, qrCodeRepo, hasher, tokens, logger.Logger),
		APIKeys:  usecase.NewAPIKeyUseCase(apiKeyRepo),
		Links:    usecase.NewLinkUseCase(cfg.ShortCodeLength, linkRepo, hasher),
		QRCodes:  usecase.NewQRCodeUseCase(qrCodeRepo, abTestRepo, hasher),
		Teams:    usecase.NewTeamUseCase(teamRepo),
	})

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g.Go(func() error {
		logger.Info("starting server", slog.String("addr", server.Addr), slog.String("env", cfg.Env))

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down server")

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}

func newLogger(cfg *config.Config) *httplog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}

	return httplog.NewLogger("qrlink", httplog.Options{
		LogLevel:         level,
		JSON:             cfg.Env != config.EnvDev,
		Concise:          cfg.Env == config.EnvDev,
		RequestHeaders:   cfg.Env == config.EnvDev,
		MessageFieldName: "message",
		Tags: map[string]string{
			"env": cfg.Env,
		},
	})
}
