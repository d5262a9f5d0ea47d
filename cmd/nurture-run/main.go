// nurture-run performs a single nurture pass over all tracks and exits.
// Useful for manual catch-up runs and for environments without the queue.
// With -history it prints one subscriber's record and stage sends instead
// of running.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"nurture_backend/internal/email"
	"nurture_backend/internal/events"
	"nurture_backend/internal/leads/nurture"
	"nurture_backend/internal/leads/repository"
	"nurture_backend/internal/notification"
	"nurture_backend/migrations"
	"nurture_backend/platform/config"
	"nurture_backend/platform/db"
	"nurture_backend/platform/logger"

	"github.com/google/uuid"
)

func main() {
	historyID := flag.String("history", "", "print the subscriber's record and stage history, then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.DatabaseError("connect", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, cfg, migrations.FS, "."); err != nil {
		log.Error("failed to run migrations", "error", err)
		panic("failed to run migrations: " + err.Error())
	}

	repo := repository.New(pool)

	if *historyID != "" {
		printHistory(ctx, repo, *historyID)
		return
	}

	log.Info("starting manual nurture run")

	tracks, err := nurture.LoadTracks(cfg.GetTracksConfigPath())
	if err != nil {
		log.Error("failed to load track definitions", "error", err)
		panic("failed to load track definitions: " + err.Error())
	}

	eventBus := events.NewInMemoryBus(log)
	sender := email.NewSender(cfg)
	renderer := email.NewRenderer(cfg.GetDemoURL())

	notificationModule := notification.NewModule(sender, renderer, cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	sched := nurture.NewScheduler(repo, sender, renderer, cfg, log)
	coordinator := nurture.NewCoordinator(sched, tracks, log)

	report := coordinator.RunAll(ctx)

	for _, result := range report.Tracks {
		fmt.Printf("track %-12s advanced=%d errors=%d emails_sent_total=%d\n",
			result.Track, result.Advanced, len(result.Errors), result.EmailsSent)
		for _, msg := range result.Errors {
			fmt.Printf("  error: %s\n", msg)
		}
	}
	for track, reason := range report.TrackFailures {
		fmt.Printf("track %-12s FAILED: %s\n", track, reason)
	}

	if len(report.TrackFailures) > 0 {
		os.Exit(1)
	}
}

func printHistory(ctx context.Context, repo *repository.Repository, rawID string) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid subscriber id %q: %v\n", rawID, err)
		os.Exit(2)
	}

	sub, err := repo.GetByID(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load subscriber: %v\n", err)
		os.Exit(1)
	}

	lastStage := "none"
	if sub.LastStageSent != nil {
		lastStage = *sub.LastStageSent
	}
	fmt.Printf("subscriber %s  track=%s email=%s score=%d tier=%s last_stage=%s completed=%v\n",
		sub.ID, sub.Track, sub.Email, sub.Score, sub.Tier, lastStage, sub.SequenceCompleted)

	sends, err := repo.ListStageHistory(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load stage history: %v\n", err)
		os.Exit(1)
	}
	for _, send := range sends {
		fmt.Printf("  %s  %s\n", send.SentAt.Format("2006-01-02 15:04:05"), send.Stage)
	}
}
