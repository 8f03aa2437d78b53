//	@title			BucketBridge API
//	@version		1.0
//	@description	Minimal HTTP bridge to a private MinIO bucket.
//
//	@host		localhost:8080
//	@BasePath	/

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/bucketbridge/service/internal/config"
	"github.com/bucketbridge/service/internal/files"
	appmiddleware "github.com/bucketbridge/service/internal/middleware"
	"github.com/bucketbridge/service/internal/storage"

	_ "github.com/bucketbridge/service/docs/swagger"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api exited with error")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	store, err := storage.NewMinioStore(
		cfg.StorageEndpoint,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageBucket,
		cfg.StorageRegion,
		cfg.StorageUseSSL,
	)
	if err != nil {
		return fmt.Errorf("object storage init: %w", err)
	}

	// Refuse to accept traffic until the store answers.
	if err := waitForStore(context.Background(), store, cfg.HealthRetries, cfg.HealthBackoff); err != nil {
		return err
	}

	handler := files.NewHandler(store)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(appmiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	handler.Register(r)

	// Swagger UI — available at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-quit:
	}

	log.Info().Msg("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// waitForStore polls the store health check sequentially until it passes or
// the retry budget is exhausted.
func waitForStore(ctx context.Context, store storage.ObjectStore, attempts int, backoff time.Duration) error {
	for attempt := 1; attempt <= attempts; attempt++ {
		if store.Health(ctx) {
			return nil
		}
		log.Warn().
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("backoff", backoff).
			Msg("object store health check failed, retrying")
		if attempt < attempts {
			time.Sleep(backoff)
		}
	}
	return fmt.Errorf("object store unreachable after %d attempts", attempts)
}
