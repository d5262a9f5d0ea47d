// Package engagement records discrete engagement events against a lead and
// keeps the cached score in lockstep with the accumulator. This service is
// the only mutator of the engagement accumulator; every score recomputation
// is routed through it so the two can never drift apart.
package engagement

import (
	"context"
	"errors"
	"time"

	"nurture_backend/internal/events"
	"nurture_backend/internal/leads/domain"
	"nurture_backend/internal/leads/repository"
	"nurture_backend/internal/leads/scoring"
	"nurture_backend/platform/apperr"
	"nurture_backend/platform/logger"
	"nurture_backend/platform/metrics"

	"github.com/google/uuid"
)

// Repository defines the data access interface needed by the engagement
// service. This is a consumer-driven interface - only what engagement needs.
type Repository interface {
	RecordEngagement(ctx context.Context, params repository.RecordEngagementParams, rescore repository.RescoreFunc) (repository.RecordEngagementResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Subscriber, error)
}

// Service applies engagement events and re-scores leads.
type Service struct {
	repo Repository
	calc *scoring.Calculator
	bus  events.Bus
	log  *logger.Logger
	now  func() time.Time
}

// New creates a new engagement service.
func New(repo Repository, calc *scoring.Calculator, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		calc: calc,
		bus:  bus,
		log:  log,
		now:  time.Now,
	}
}

// RecordEventResult reports the post-event state of the lead.
type RecordEventResult struct {
	Duplicate   bool
	Accumulator int
	Score       int
	Tier        domain.Tier
}

// RecordEvent applies one engagement event to a subscriber.
//
// eventID is the dedup key: replaying an id that was already processed is a
// successful no-op. Callers without a provider event id (direct capture
// paths that deliver exactly once) pass "" and a fresh id is synthesized.
// Returns a NotFound error when the subscriber id does not exist; nothing is
// written in that case.
func (s *Service) RecordEvent(ctx context.Context, subscriberID uuid.UUID, eventType domain.EventType, eventID string) (RecordEventResult, error) {
	if !eventType.Valid() {
		return RecordEventResult{}, apperr.Validation("unknown engagement event type: " + string(eventType))
	}
	if eventID == "" {
		eventID = uuid.NewString()
	}

	res, err := s.repo.RecordEngagement(ctx, repository.RecordEngagementParams{
		SubscriberID: subscriberID,
		EventID:      eventID,
		EventType:    eventType,
		Points:       eventType.Points(),
		OccurredAt:   s.now(),
	}, func(facilitySize int, projectedSavings int64, accumulator int) (int, domain.Tier) {
		result := s.calc.Score(facilitySize, projectedSavings, accumulator)
		return result.Score, result.Tier
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return RecordEventResult{}, apperr.NotFound("subscriber not found")
		}
		return RecordEventResult{}, err
	}

	out := RecordEventResult{
		Duplicate:   res.Duplicate,
		Accumulator: res.Accumulator,
		Score:       res.Score,
		Tier:        res.Tier,
	}

	if res.Duplicate {
		return out, nil
	}

	metrics.EngagementEventsTotal.WithLabelValues(string(eventType)).Inc()
	if s.log != nil {
		s.log.EngagementEvent(subscriberID.String(), string(eventType), eventType.Points(), res.Accumulator, res.Score)
	}

	s.publishFollowUps(ctx, subscriberID, eventType, res)

	return out, nil
}

// publishFollowUps emits the domain events derived from a recorded event.
// Publishing is best-effort: a missing bus or a failed subscriber lookup only
// suppresses the events, never the recording itself.
func (s *Service) publishFollowUps(ctx context.Context, subscriberID uuid.UUID, eventType domain.EventType, res repository.RecordEngagementResult) {
	if s.bus == nil {
		return
	}

	s.bus.Publish(ctx, events.EngagementRecorded{
		BaseEvent:    events.NewBaseEvent(),
		SubscriberID: subscriberID,
		EventType:    eventType,
		Points:       eventType.Points(),
		Accumulator:  res.Accumulator,
		Score:        res.Score,
		Tier:         res.Tier,
	})

	becameHot := res.Tier == domain.TierHot && res.PreviousTier != domain.TierHot
	demoRequested := eventType == domain.EventDemoRequest
	if !becameHot && !demoRequested {
		return
	}

	sub, err := s.repo.GetByID(ctx, subscriberID)
	if err != nil {
		if s.log != nil {
			s.log.Warn("subscriber lookup for alert failed", "subscriber_id", subscriberID, "error", err)
		}
		return
	}

	if becameHot {
		s.bus.Publish(ctx, events.LeadBecameHot{
			BaseEvent:        events.NewBaseEvent(),
			SubscriberID:     sub.ID,
			Track:            sub.Track,
			Email:            sub.Email,
			Company:          sub.Company,
			Score:            res.Score,
			Tier:             res.Tier,
			ProjectedSavings: sub.ProjectedSavings,
		})
	}
	if demoRequested {
		s.bus.Publish(ctx, events.DemoRequested{
			BaseEvent:        events.NewBaseEvent(),
			SubscriberID:     sub.ID,
			Track:            sub.Track,
			Email:            sub.Email,
			Company:          sub.Company,
			Score:            res.Score,
			Tier:             res.Tier,
			ProjectedSavings: sub.ProjectedSavings,
		})
	}
}
