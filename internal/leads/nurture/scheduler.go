package nurture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nurture_backend/internal/email"
	"nurture_backend/internal/leads/repository"
	"nurture_backend/platform/config"
	"nurture_backend/platform/logger"
	"nurture_backend/platform/metrics"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Repository defines the data access interface needed by the scheduler.
// This is a consumer-driven interface - only what nurture needs.
type Repository interface {
	ListDueForFirstStage(ctx context.Context, track string, cutoff time.Time, limit int) ([]repository.Subscriber, error)
	ListDueForStage(ctx context.Context, track, prevStage string, cutoff time.Time, limit int) ([]repository.Subscriber, error)
	AdvanceStage(ctx context.Context, params repository.AdvanceStageParams) (bool, error)
	GetTrackStats(ctx context.Context, track string) (repository.TrackStats, error)
}

// Renderer produces subject and body for a stage template.
type Renderer interface {
	RenderStage(templateID string, data email.StageData) (subject, html string, err error)
}

// TrackResult is the outcome of one scheduler pass over one track.
type TrackResult struct {
	Track      string
	Advanced   int
	Errors     []string
	EmailsSent int64 // lifetime stage-send count for the track (reporting approximation)
}

// Scheduler advances due records through their track's stage sequence.
//
// Dispatch and state update are two separate steps, so a crash between them
// can repeat one stage email on the next run. That at-least-once window is
// accepted; the idempotency tag on each dispatch lets a deduplicating
// provider close it.
type Scheduler struct {
	repo            Repository
	sender          email.Sender
	renderer        Renderer
	pageSize        int
	workers         int
	dispatchTimeout time.Duration
	limiter         *rate.Limiter
	log             *logger.Logger
	now             func() time.Time
}

// NewScheduler creates a scheduler with the configured page size, worker
// count, dispatch timeout, and dispatch rate limit.
func NewScheduler(repo Repository, sender email.Sender, renderer Renderer, cfg config.NurtureConfig, log *logger.Logger) *Scheduler {
	pageSize := cfg.GetNurturePageSize()
	if pageSize < 1 {
		pageSize = 200
	}
	workers := cfg.GetNurtureWorkerCount()
	if workers < 1 {
		workers = 1
	}
	dispatchTimeout := cfg.GetDispatchTimeout()
	if dispatchTimeout <= 0 {
		dispatchTimeout = 15 * time.Second
	}

	var limiter *rate.Limiter
	if rps := cfg.GetDispatchRatePerSecond(); rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	return &Scheduler{
		repo:            repo,
		sender:          sender,
		renderer:        renderer,
		pageSize:        pageSize,
		workers:         workers,
		dispatchTimeout: dispatchTimeout,
		limiter:         limiter,
		log:             log,
		now:             time.Now,
	}
}

// AdvanceDueStages runs one bounded pass over the track: for every stage, it
// selects records whose previous stage has dwelled long enough, dispatches
// the stage email, and advances the record's state. Per-record failures are
// collected in the result; the returned error is reserved for track-fatal
// conditions (the store is unreachable).
//
// Each invocation processes at most one page per stage. Callers re-invoke
// until the backlog is empty; the conditional state transition makes
// re-invocation safe at any time.
func (s *Scheduler) AdvanceDueStages(ctx context.Context, track Track) (TrackResult, error) {
	now := s.now()
	result := TrackResult{Track: track.Name, Errors: []string{}}
	var mu sync.Mutex

	for i, stage := range track.Stages {
		cutoff := now.Add(-stage.Delay)

		var due []repository.Subscriber
		var err error
		var fromStage *string
		if i == 0 {
			due, err = s.repo.ListDueForFirstStage(ctx, track.Name, cutoff, s.pageSize)
		} else {
			prev := track.Stages[i-1].Name
			fromStage = &prev
			due, err = s.repo.ListDueForStage(ctx, track.Name, prev, cutoff, s.pageSize)
		}
		if err != nil {
			return result, fmt.Errorf("list due records for stage %s: %w", stage.Name, err)
		}

		// Records are independent: process them with a bounded worker pool.
		// Workers never return an error because one record's failure must not
		// stop the others; outcomes land in the shared result under the mutex.
		var g errgroup.Group
		g.SetLimit(s.workers)
		for _, sub := range due {
			g.Go(func() error {
				s.processRecord(ctx, track, stage, fromStage, sub, &result, &mu)
				return nil
			})
		}
		_ = g.Wait()
	}

	return result, nil
}

func (s *Scheduler) processRecord(ctx context.Context, track Track, stage Stage, fromStage *string, sub repository.Subscriber, result *TrackResult, mu *sync.Mutex) {
	// A cancelled run leaves undispatched records in their pre-transition
	// state; the next run picks them up.
	if ctx.Err() != nil {
		return
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
	}

	subject, html, err := s.renderer.RenderStage(stage.Template, email.StageData{
		FirstName:        sub.FirstName,
		Company:          sub.Company,
		FacilitySize:     sub.FacilitySize,
		ProjectedSavings: sub.ProjectedSavings,
		Score:            sub.Score,
		Tier:             string(sub.Tier),
	})
	if err != nil {
		s.recordError(result, mu, track.Name, stage.Name, sub, fmt.Errorf("render: %w", err))
		return
	}

	tags := map[string]string{
		email.TagTrack:       track.Name,
		email.TagStage:       stage.Name,
		email.TagSubscriber:  sub.ID.String(),
		email.TagIdempotency: fmt.Sprintf("%s:%s:%s", track.Name, sub.ID, stage.Name),
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, s.dispatchTimeout)
	defer cancel()
	if err := s.sender.SendStageEmail(dispatchCtx, sub.Email, subject, html, tags); err != nil {
		s.recordError(result, mu, track.Name, stage.Name, sub, err)
		return
	}

	advanced, err := s.repo.AdvanceStage(ctx, repository.AdvanceStageParams{
		ID:        sub.ID,
		FromStage: fromStage,
		ToStage:   stage.Name,
		SentAt:    s.now(),
		Terminal:  stage.Terminal,
	})
	if err != nil {
		s.recordError(result, mu, track.Name, stage.Name, sub, fmt.Errorf("persist transition: %w", err))
		return
	}
	if !advanced {
		// Another run already advanced this record; the email went out twice
		// at worst, the state is already correct.
		if s.log != nil {
			s.log.Debug("stale stage transition skipped",
				"track", track.Name, "stage", stage.Name, "subscriber_id", sub.ID)
		}
		return
	}

	metrics.StageAdvancedTotal.WithLabelValues(track.Name, stage.Name).Inc()
	mu.Lock()
	result.Advanced++
	mu.Unlock()
}

func (s *Scheduler) recordError(result *TrackResult, mu *sync.Mutex, track, stage string, sub repository.Subscriber, err error) {
	metrics.DispatchErrorsTotal.WithLabelValues(track).Inc()
	if s.log != nil {
		s.log.DispatchError(track, stage, sub.ID.String(), err)
	}
	mu.Lock()
	result.Errors = append(result.Errors, fmt.Sprintf("subscriber %s (%s) stage %s: %v", sub.ID, sub.Email, stage, err))
	mu.Unlock()
}
