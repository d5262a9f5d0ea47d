package capture

import (
	"context"
	"testing"

	"nurture_backend/internal/leads/domain"
	"nurture_backend/internal/leads/engagement"
	"nurture_backend/internal/leads/repository"
	"nurture_backend/internal/leads/scoring"
	"nurture_backend/platform/apperr"
	"nurture_backend/platform/validator"

	"github.com/google/uuid"
)

type fakeRepo struct {
	subs map[string]repository.Subscriber // keyed by track + "/" + email
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{subs: make(map[string]repository.Subscriber)}
}

func (f *fakeRepo) Create(ctx context.Context, params repository.CreateSubscriberParams) (repository.Subscriber, error) {
	key := params.Track + "/" + params.Email
	if _, ok := f.subs[key]; ok {
		return repository.Subscriber{}, repository.ErrDuplicate
	}
	sub := repository.Subscriber{
		ID:               uuid.New(),
		Track:            params.Track,
		Email:            params.Email,
		FirstName:        params.FirstName,
		Company:          params.Company,
		FacilitySize:     params.FacilitySize,
		ProjectedSavings: params.ProjectedSavings,
		Score:            params.Score,
		Tier:             params.Tier,
	}
	f.subs[key] = sub
	return sub, nil
}

func (f *fakeRepo) GetByTrackEmail(ctx context.Context, track, email string) (repository.Subscriber, error) {
	sub, ok := f.subs[track+"/"+email]
	if !ok {
		return repository.Subscriber{}, repository.ErrNotFound
	}
	return sub, nil
}

type fakeEngagement struct {
	recorded []domain.EventType
}

func (f *fakeEngagement) RecordEvent(ctx context.Context, subscriberID uuid.UUID, eventType domain.EventType, eventID string) (engagement.RecordEventResult, error) {
	f.recorded = append(f.recorded, eventType)
	return engagement.RecordEventResult{}, nil
}

func newService(t *testing.T) (*Service, *fakeRepo, *fakeEngagement) {
	t.Helper()
	calc, err := scoring.NewCalculator(scoring.DefaultBands())
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}
	repo := newFakeRepo()
	eng := &fakeEngagement{}
	return New(repo, calc, eng, nil, validator.New(), nil), repo, eng
}

func TestCaptureCalculatorLeadSetsInitialScore(t *testing.T) {
	svc, _, _ := newService(t)

	sub, created, err := svc.CaptureCalculatorLead(context.Background(), CalculatorLeadRequest{
		Email:            "dana@acme.example",
		FirstName:        "Dana",
		FacilitySize:     50,
		ProjectedSavings: 200000,
	})
	if err != nil {
		t.Fatalf("CaptureCalculatorLead: %v", err)
	}
	if !created {
		t.Fatalf("expected a new record")
	}
	if sub.Track != domain.TrackCalculator {
		t.Fatalf("expected calculator track, got %s", sub.Track)
	}
	if sub.Score != 80 || sub.Tier != domain.TierHot {
		t.Fatalf("expected initial score 80/hot, got %d/%s", sub.Score, sub.Tier)
	}
}

func TestCaptureCalculatorLeadDuplicateReturnsExisting(t *testing.T) {
	svc, _, _ := newService(t)

	first, _, err := svc.CaptureCalculatorLead(context.Background(), CalculatorLeadRequest{
		Email:        "dana@acme.example",
		FacilitySize: 10,
	})
	if err != nil {
		t.Fatalf("first capture: %v", err)
	}

	second, created, err := svc.CaptureCalculatorLead(context.Background(), CalculatorLeadRequest{
		Email:        "dana@acme.example",
		FacilitySize: 99,
	})
	if err != nil {
		t.Fatalf("second capture: %v", err)
	}
	if created {
		t.Fatalf("repeat capture must not create a second record")
	}
	if second.ID != first.ID {
		t.Fatalf("expected the existing record back")
	}
}

func TestCaptureRejectsInvalidEmail(t *testing.T) {
	svc, _, _ := newService(t)

	_, _, err := svc.CaptureNewsletterSignup(context.Background(), NewsletterSignupRequest{Email: "not-an-email"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected Validation kind, got %v", err)
	}
}

func TestCaptureResourceDownloadRecordsEngagement(t *testing.T) {
	svc, _, eng := newService(t)

	_, _, err := svc.CaptureResourceDownload(context.Background(), ResourceDownloadRequest{
		Email: "dl@acme.example",
	})
	if err != nil {
		t.Fatalf("CaptureResourceDownload: %v", err)
	}
	if len(eng.recorded) != 1 || eng.recorded[0] != domain.EventResourceDownload {
		t.Fatalf("expected one resource_download engagement event, got %v", eng.recorded)
	}
}

func TestRequestDemoRecordsEngagement(t *testing.T) {
	svc, _, eng := newService(t)

	if err := svc.RequestDemo(context.Background(), uuid.New()); err != nil {
		t.Fatalf("RequestDemo: %v", err)
	}
	if len(eng.recorded) != 1 || eng.recorded[0] != domain.EventDemoRequest {
		t.Fatalf("expected one demo_request engagement event, got %v", eng.recorded)
	}
}
