// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avishkar-events/registration-engine/internal/blob"
	"github.com/avishkar-events/registration-engine/internal/config"
	"github.com/avishkar-events/registration-engine/internal/database"
	"github.com/avishkar-events/registration-engine/internal/handler"
	"github.com/avishkar-events/registration-engine/internal/metrics"
	"github.com/avishkar-events/registration-engine/internal/notify"
	"github.com/avishkar-events/registration-engine/internal/service"
	"github.com/avishkar-events/registration-engine/internal/store/postgres"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()
	logger.Info("connected to postgres")

	// ── Wire up layers ────────────────────────────────────────────────────
	eventStore := postgres.NewEventStore(pool)
	regStore := postgres.NewRegistrationStore(pool)
	noteStore := postgres.NewNotificationStore(pool)
	userStore := postgres.NewUserStore(pool)

	var blobs blob.Store
	if cfg.GitHub.Token != "" {
		blobs = blob.NewGitHub(cfg.GitHub)
	} else {
		logger.Warn("no github token configured, using in-memory blob store")
		blobs = blob.NewMemory()
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	fanout := notify.NewService(noteStore, userStore, &notify.LogPusher{Logger: logger}, logger, m)
	dispatcher := notify.NewDispatcher(fanout, cfg.Notifier.QueueSize, cfg.Notifier.Workers, logger)
	dispatcher.Start()

	svc := service.New(eventStore, regStore, noteStore, userStore, blobs, dispatcher, logger, m)
	h := handler.New(svc)

	// ── Build the router ──────────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORS)

	r.Get("/health", handler.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/", h.Routes())

	// ── Start server with graceful shutdown ───────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	// Drain pending fan-out jobs before exit.
	dispatcher.Stop()
	logger.Info("server stopped")
}
