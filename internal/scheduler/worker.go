package scheduler

import (
	"context"
	"fmt"

	"nurture_backend/internal/leads/capture"
	"nurture_backend/internal/leads/domain"
	"nurture_backend/internal/leads/engagement"
	"nurture_backend/internal/leads/nurture"
	"nurture_backend/internal/leads/repository"
	"nurture_backend/platform/apperr"
	"nurture_backend/platform/config"
	"nurture_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// EngagementRecorder applies one engagement event to a subscriber.
type EngagementRecorder interface {
	RecordEvent(ctx context.Context, subscriberID uuid.UUID, eventType domain.EventType, eventID string) (engagement.RecordEventResult, error)
}

// LeadCapturer turns capture form submissions into subscriber records.
type LeadCapturer interface {
	CaptureCalculatorLead(ctx context.Context, req capture.CalculatorLeadRequest) (repository.Subscriber, bool, error)
	CaptureResourceDownload(ctx context.Context, req capture.ResourceDownloadRequest) (repository.Subscriber, bool, error)
	CaptureNewsletterSignup(ctx context.Context, req capture.NewsletterSignupRequest) (repository.Subscriber, bool, error)
}

type Worker struct {
	server      *asynq.Server
	mux         *asynq.ServeMux
	coordinator *nurture.Coordinator
	engagement  EngagementRecorder
	capture     LeadCapturer
	log         *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, coordinator *nurture.Coordinator, recorder EngagementRecorder, capturer LeadCapturer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:      server,
		mux:         mux,
		coordinator: coordinator,
		engagement:  recorder,
		capture:     capturer,
		log:         log,
	}

	mux.HandleFunc(TaskNurtureRun, w.handleNurtureRun)
	mux.HandleFunc(TaskEngagementEvent, w.handleEngagementEvent)
	mux.HandleFunc(TaskLeadCapture, w.handleLeadCapture)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleNurtureRun runs one full pass across all tracks. The run never
// returns an error: per-record and per-track failures are in the report, and
// re-running is always safe, so there is nothing for the queue to retry.
func (w *Worker) handleNurtureRun(ctx context.Context, task *asynq.Task) error {
	if w.coordinator == nil {
		return nil
	}

	payload, err := ParseNurtureRunPayload(task)
	if err != nil {
		return err
	}

	w.log.Info("nurture run starting", "triggered_by", payload.TriggeredBy)
	w.coordinator.RunAll(ctx)
	return nil
}

func (w *Worker) handleEngagementEvent(ctx context.Context, task *asynq.Task) error {
	if w.engagement == nil {
		return nil
	}

	payload, err := ParseEngagementEventPayload(task)
	if err != nil {
		return err
	}

	subscriberID, err := uuid.Parse(payload.SubscriberID)
	if err != nil {
		return fmt.Errorf("parse subscriber id: %v: %w", err, asynq.SkipRetry)
	}

	_, err = w.engagement.RecordEvent(ctx, subscriberID, domain.EventType(payload.EventType), payload.EventID)
	if err != nil {
		// Bad input never becomes valid on retry; only transient failures
		// (store unavailable) go back to the queue.
		switch apperr.GetKind(err) {
		case apperr.KindNotFound, apperr.KindValidation:
			w.log.Warn("engagement event dropped",
				"subscriber_id", payload.SubscriberID, "event_type", payload.EventType, "error", err)
			return nil
		}
		return err
	}
	return nil
}

func (w *Worker) handleLeadCapture(ctx context.Context, task *asynq.Task) error {
	if w.capture == nil {
		return nil
	}

	payload, err := ParseLeadCapturePayload(task)
	if err != nil {
		return err
	}

	switch payload.Source {
	case "calculator":
		_, _, err = w.capture.CaptureCalculatorLead(ctx, capture.CalculatorLeadRequest{
			Email:            payload.Email,
			FirstName:        payload.FirstName,
			Company:          payload.Company,
			FacilitySize:     payload.FacilitySize,
			ProjectedSavings: payload.ProjectedSavings,
		})
	case "resource":
		_, _, err = w.capture.CaptureResourceDownload(ctx, capture.ResourceDownloadRequest{
			Email:            payload.Email,
			FirstName:        payload.FirstName,
			Company:          payload.Company,
			FacilitySize:     payload.FacilitySize,
			ProjectedSavings: payload.ProjectedSavings,
		})
	case "newsletter":
		_, _, err = w.capture.CaptureNewsletterSignup(ctx, capture.NewsletterSignupRequest{
			Email:     payload.Email,
			FirstName: payload.FirstName,
		})
	default:
		w.log.Warn("lead capture dropped, unknown source", "source", payload.Source)
		return nil
	}

	if err != nil {
		if apperr.GetKind(err) == apperr.KindValidation {
			w.log.Warn("lead capture dropped", "source", payload.Source, "error", err)
			return nil
		}
		return err
	}
	return nil
}
