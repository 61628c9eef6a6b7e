package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	server "github.com/kev1903/skrobakios/internal"
	"github.com/kev1903/skrobakios/internal/config"
	"github.com/kev1903/skrobakios/internal/eventbus"
	"github.com/kev1903/skrobakios/internal/project"
	projectrepo "github.com/kev1903/skrobakios/internal/project/repositoryimpl"
	"github.com/kev1903/skrobakios/internal/schedule"
	"github.com/kev1903/skrobakios/internal/session"
	taskrepo "github.com/kev1903/skrobakios/internal/task/repositoryimpl"
	"github.com/kev1903/skrobakios/pkg/clog"
	"github.com/kev1903/skrobakios/pkg/storage"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.IsLocal() {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	// Setup storage
	var store storage.Storage
	switch env.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3Storage(context.Background(), env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
		if err != nil {
			slog.Error("failed to create S3 storage", "error", err)
			os.Exit(1)
		}
	default:
		store, err = storage.NewLocalStorage(env.StorageEnv.BaseDir)
		if err != nil {
			slog.Error("failed to create local storage", "error", err)
			os.Exit(1)
		}
	}

	bus := eventbus.New()

	// Setup repositories
	projectRepo := projectrepo.NewYAMLRepository(store)
	taskRepo := taskrepo.NewYAMLRepository(store)

	registry := session.NewRegistry(taskRepo, bus, session.Options{
		Schedule: schedule.Options{
			FallbackDays:  env.ScheduleEnv.TimelineFallbackDays,
			TimelineWidth: env.ScheduleEnv.TimelineWidth,
		},
		SaveConcurrency: env.ScheduleEnv.SaveConcurrency,
	})

	srv := server.NewServer(
		env,
		store,
		project.NewServer(projectRepo, taskRepo, registry, bus),
		session.NewServer(registry, projectRepo, bus),
	)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	// Let pending task writes reach the store before exiting.
	registry.Wait()
}
