// Package capture creates subscriber records from the site's capture events:
// ROI calculator submissions, gated resource downloads, and newsletter
// signups. Each capture lands the lead on its track with an initial score
// computed before any engagement exists.
package capture

import (
	"context"
	"errors"

	"nurture_backend/internal/events"
	"nurture_backend/internal/leads/domain"
	"nurture_backend/internal/leads/engagement"
	"nurture_backend/internal/leads/repository"
	"nurture_backend/internal/leads/scoring"
	"nurture_backend/platform/apperr"
	"nurture_backend/platform/logger"
	"nurture_backend/platform/validator"

	"github.com/google/uuid"
)

// Repository defines the data access interface needed by the capture service.
type Repository interface {
	Create(ctx context.Context, params repository.CreateSubscriberParams) (repository.Subscriber, error)
	GetByTrackEmail(ctx context.Context, track, email string) (repository.Subscriber, error)
}

// EngagementRecorder records engagement events for capture paths that imply
// one (downloads, demo requests).
type EngagementRecorder interface {
	RecordEvent(ctx context.Context, subscriberID uuid.UUID, eventType domain.EventType, eventID string) (engagement.RecordEventResult, error)
}

// Service handles lead capture for all tracks.
type Service struct {
	repo       Repository
	calc       *scoring.Calculator
	engagement EngagementRecorder
	bus        events.Bus
	val        *validator.Validator
	log        *logger.Logger
}

// New creates a new capture service.
func New(repo Repository, calc *scoring.Calculator, engagement EngagementRecorder, bus events.Bus, val *validator.Validator, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		calc:       calc,
		engagement: engagement,
		bus:        bus,
		val:        val,
		log:        log,
	}
}

// CalculatorLeadRequest is a submitted ROI calculator result.
type CalculatorLeadRequest struct {
	Email            string `validate:"required,email"`
	FirstName        string `validate:"max=100"`
	Company          string `validate:"max=200"`
	FacilitySize     int    `validate:"min=0"`
	ProjectedSavings int64  `validate:"min=0"`
}

// ResourceDownloadRequest is a gated resource download form submission.
type ResourceDownloadRequest struct {
	Email            string `validate:"required,email"`
	FirstName        string `validate:"max=100"`
	Company          string `validate:"max=200"`
	FacilitySize     int    `validate:"min=0"`
	ProjectedSavings int64  `validate:"min=0"`
}

// NewsletterSignupRequest is a newsletter signup form submission.
type NewsletterSignupRequest struct {
	Email     string `validate:"required,email"`
	FirstName string `validate:"max=100"`
}

// CaptureCalculatorLead records a calculator submission on the calculator
// track. A repeat submission for the same email returns the existing record.
func (s *Service) CaptureCalculatorLead(ctx context.Context, req CalculatorLeadRequest) (repository.Subscriber, bool, error) {
	if err := s.val.Struct(req); err != nil {
		return repository.Subscriber{}, false, apperr.Wrap(apperr.KindValidation, "invalid calculator lead", err)
	}

	return s.createOrGet(ctx, repository.CreateSubscriberParams{
		Track:            domain.TrackCalculator,
		Email:            req.Email,
		FirstName:        req.FirstName,
		Company:          req.Company,
		FacilitySize:     req.FacilitySize,
		ProjectedSavings: req.ProjectedSavings,
	})
}

// CaptureResourceDownload records a gated download on the resource track and
// credits the download as an engagement event (new or existing record).
func (s *Service) CaptureResourceDownload(ctx context.Context, req ResourceDownloadRequest) (repository.Subscriber, bool, error) {
	if err := s.val.Struct(req); err != nil {
		return repository.Subscriber{}, false, apperr.Wrap(apperr.KindValidation, "invalid resource download", err)
	}

	sub, created, err := s.createOrGet(ctx, repository.CreateSubscriberParams{
		Track:            domain.TrackResource,
		Email:            req.Email,
		FirstName:        req.FirstName,
		Company:          req.Company,
		FacilitySize:     req.FacilitySize,
		ProjectedSavings: req.ProjectedSavings,
	})
	if err != nil {
		return repository.Subscriber{}, false, err
	}

	if s.engagement != nil {
		if _, err := s.engagement.RecordEvent(ctx, sub.ID, domain.EventResourceDownload, ""); err != nil && s.log != nil {
			s.log.Warn("download engagement not recorded", "subscriber_id", sub.ID, "error", err)
		}
	}

	return sub, created, nil
}

// CaptureNewsletterSignup records a signup on the newsletter track.
func (s *Service) CaptureNewsletterSignup(ctx context.Context, req NewsletterSignupRequest) (repository.Subscriber, bool, error) {
	if err := s.val.Struct(req); err != nil {
		return repository.Subscriber{}, false, apperr.Wrap(apperr.KindValidation, "invalid newsletter signup", err)
	}

	return s.createOrGet(ctx, repository.CreateSubscriberParams{
		Track:     domain.TrackNewsletter,
		Email:     req.Email,
		FirstName: req.FirstName,
	})
}

// RequestDemo credits a demo request against an existing subscriber.
func (s *Service) RequestDemo(ctx context.Context, subscriberID uuid.UUID) error {
	if s.engagement == nil {
		return apperr.Internal("engagement recorder not configured")
	}
	_, err := s.engagement.RecordEvent(ctx, subscriberID, domain.EventDemoRequest, "")
	return err
}

func (s *Service) createOrGet(ctx context.Context, params repository.CreateSubscriberParams) (repository.Subscriber, bool, error) {
	// Initial score before any engagement exists.
	result := s.calc.Score(params.FacilitySize, params.ProjectedSavings, 0)
	params.Score = result.Score
	params.Tier = result.Tier

	sub, err := s.repo.Create(ctx, params)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			existing, getErr := s.repo.GetByTrackEmail(ctx, params.Track, params.Email)
			if getErr != nil {
				return repository.Subscriber{}, false, getErr
			}
			return existing, false, nil
		}
		return repository.Subscriber{}, false, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadCaptured{
			BaseEvent:    events.NewBaseEvent(),
			SubscriberID: sub.ID,
			Track:        sub.Track,
			Email:        sub.Email,
			Score:        sub.Score,
			Tier:         sub.Tier,
		})
	}

	return sub, true, nil
}
