package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nurture_backend/internal/email"
	"nurture_backend/internal/events"
	"nurture_backend/internal/leads/capture"
	"nurture_backend/internal/leads/engagement"
	"nurture_backend/internal/leads/nurture"
	"nurture_backend/internal/leads/repository"
	"nurture_backend/internal/leads/scoring"
	"nurture_backend/internal/notification"
	"nurture_backend/internal/scheduler"
	"nurture_backend/migrations"
	"nurture_backend/platform/config"
	"nurture_backend/platform/db"
	"nurture_backend/platform/logger"
	"nurture_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting nurture scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.DatabaseError("connect", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, cfg, migrations.FS, "."); err != nil {
		log.Error("failed to run migrations", "error", err)
		panic("failed to run migrations: " + err.Error())
	}

	eventBus := events.NewInMemoryBus(log)

	sender := email.NewSender(cfg)
	renderer := email.NewRenderer(cfg.GetDemoURL())

	bands, err := scoring.LoadBands(cfg.GetScoringConfigPath())
	if err != nil {
		log.Error("failed to load scoring bands", "error", err)
		panic("failed to load scoring bands: " + err.Error())
	}
	calc, err := scoring.NewCalculator(bands)
	if err != nil {
		log.Error("invalid scoring bands", "error", err)
		panic("invalid scoring bands: " + err.Error())
	}

	tracks, err := nurture.LoadTracks(cfg.GetTracksConfigPath())
	if err != nil {
		log.Error("failed to load track definitions", "error", err)
		panic("failed to load track definitions: " + err.Error())
	}

	repo := repository.New(pool)
	val := validator.New()

	engagementSvc := engagement.New(repo, calc, eventBus, log)
	captureSvc := capture.New(repo, calc, engagementSvc, eventBus, val, log)

	notificationModule := notification.NewModule(sender, renderer, cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	sched := nurture.NewScheduler(repo, sender, renderer, cfg, log)
	coordinator := nurture.NewCoordinator(sched, tracks, log)

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize queue client", "error", err)
		panic("failed to initialize queue client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	dispatcher := scheduler.NewRunDispatcher(cfg, client, log)
	go dispatcher.Run(ctx)

	if addr := cfg.GetMetricsAddr(); addr != "" {
		go serveMetrics(log, addr)
	}

	worker, err := scheduler.NewWorker(cfg, coordinator, engagementSvc, captureSvc, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func serveMetrics(log *logger.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info("metrics listener starting", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics listener stopped", "error", err)
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
