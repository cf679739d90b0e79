package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/romariotrain/shortfeed/internal/config"
	"github.com/romariotrain/shortfeed/internal/storage/objectstore"
	pg "github.com/romariotrain/shortfeed/internal/storage/postgres"
	"github.com/romariotrain/shortfeed/internal/video/httpapi"
	"github.com/romariotrain/shortfeed/internal/video/service"
)

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	db, err := pg.Connect(ctx, cfg.DatabaseURL, pg.DefaultPoolOptions())
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := pg.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info().Msg("schema migrated")
	}

	assets, err := objectstore.NewS3Storage(ctx, objectstore.Config{
		Bucket:        cfg.ObjectStore.Bucket,
		Region:        cfg.ObjectStore.Region,
		Endpoint:      cfg.ObjectStore.Endpoint,
		PublicBaseURL: cfg.ObjectStore.PublicBaseURL,
	})
	if err != nil {
		return fmt.Errorf("object storage: %w", err)
	}

	repo := pg.NewVideoRepo(db, pg.NewOutboxRepo(db))
	svc := service.New(repo, assets, log, service.WithMaxUploadBytes(cfg.MaxUploadBytes))
	router := httpapi.NewRouter(httpapi.New(svc, log), httpapi.RouterConfig{
		ModeratorToken: cfg.ModeratorToken,
		Limiter:        httpapi.NewClientRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, cfg.RateLimitBurst, 10*time.Minute),
		Logger:         log,
	})
	if cfg.ModeratorToken == "" {
		log.Warn().Msg("moderator token not set, queue and decision endpoints are disabled")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil

	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen and serve: %w", err)
	}
}
