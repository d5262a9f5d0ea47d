package scheduler

import (
	"context"
	"errors"
	"testing"

	"nurture_backend/internal/leads/capture"
	"nurture_backend/internal/leads/domain"
	"nurture_backend/internal/leads/engagement"
	"nurture_backend/internal/leads/repository"
	"nurture_backend/platform/apperr"
	"nurture_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRecorder struct {
	recorded []domain.EventType
	err      error
}

func (f *fakeRecorder) RecordEvent(ctx context.Context, subscriberID uuid.UUID, eventType domain.EventType, eventID string) (engagement.RecordEventResult, error) {
	if f.err != nil {
		return engagement.RecordEventResult{}, f.err
	}
	f.recorded = append(f.recorded, eventType)
	return engagement.RecordEventResult{}, nil
}

type fakeCapturer struct {
	calculator []capture.CalculatorLeadRequest
	newsletter []capture.NewsletterSignupRequest
	err        error
}

func (f *fakeCapturer) CaptureCalculatorLead(ctx context.Context, req capture.CalculatorLeadRequest) (repository.Subscriber, bool, error) {
	if f.err != nil {
		return repository.Subscriber{}, false, f.err
	}
	f.calculator = append(f.calculator, req)
	return repository.Subscriber{}, true, nil
}

func (f *fakeCapturer) CaptureResourceDownload(ctx context.Context, req capture.ResourceDownloadRequest) (repository.Subscriber, bool, error) {
	return repository.Subscriber{}, true, f.err
}

func (f *fakeCapturer) CaptureNewsletterSignup(ctx context.Context, req capture.NewsletterSignupRequest) (repository.Subscriber, bool, error) {
	if f.err != nil {
		return repository.Subscriber{}, false, f.err
	}
	f.newsletter = append(f.newsletter, req)
	return repository.Subscriber{}, true, nil
}

func newTestWorker(recorder EngagementRecorder, capturer LeadCapturer) *Worker {
	return &Worker{
		engagement: recorder,
		capture:    capturer,
		log:        logger.New("development"),
	}
}

func TestHandleEngagementEvent(t *testing.T) {
	recorder := &fakeRecorder{}
	w := newTestWorker(recorder, nil)

	task, err := NewEngagementEventTask(EngagementEventPayload{
		SubscriberID: uuid.NewString(),
		EventType:    "click",
		EventID:      uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("NewEngagementEventTask: %v", err)
	}
	if err := w.handleEngagementEvent(context.Background(), task); err != nil {
		t.Fatalf("handleEngagementEvent: %v", err)
	}
	if len(recorder.recorded) != 1 || recorder.recorded[0] != domain.EventClick {
		t.Fatalf("expected one recorded click, got %v", recorder.recorded)
	}
}

func TestHandleEngagementEventDropsBadInput(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{name: "unknown subscriber", err: apperr.NotFound("subscriber not found")},
		{name: "invalid event type", err: apperr.Validation("unknown engagement event type")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := newTestWorker(&fakeRecorder{err: tc.err}, nil)
			task, _ := NewEngagementEventTask(EngagementEventPayload{
				SubscriberID: uuid.NewString(),
				EventType:    "open",
			})
			// Bad input never succeeds on retry; the handler swallows it.
			if err := w.handleEngagementEvent(context.Background(), task); err != nil {
				t.Fatalf("expected drop without error, got %v", err)
			}
		})
	}
}

func TestHandleEngagementEventRetriesTransientFailure(t *testing.T) {
	storeDown := errors.New("pg: connection refused")
	w := newTestWorker(&fakeRecorder{err: storeDown}, nil)

	task, _ := NewEngagementEventTask(EngagementEventPayload{
		SubscriberID: uuid.NewString(),
		EventType:    "open",
	})
	if err := w.handleEngagementEvent(context.Background(), task); !errors.Is(err, storeDown) {
		t.Fatalf("transient failure must surface for retry, got %v", err)
	}
}

func TestHandleLeadCaptureRoutesBySource(t *testing.T) {
	capturer := &fakeCapturer{}
	w := newTestWorker(nil, capturer)

	task, err := NewLeadCaptureTask(LeadCapturePayload{
		Source:           "calculator",
		Email:            "dana@acme.example",
		FacilitySize:     50,
		ProjectedSavings: 200000,
	})
	if err != nil {
		t.Fatalf("NewLeadCaptureTask: %v", err)
	}
	if err := w.handleLeadCapture(context.Background(), task); err != nil {
		t.Fatalf("handleLeadCapture: %v", err)
	}
	if len(capturer.calculator) != 1 {
		t.Fatalf("expected calculator capture, got %+v", capturer)
	}
	if capturer.calculator[0].FacilitySize != 50 {
		t.Fatalf("payload fields must carry through, got %+v", capturer.calculator[0])
	}

	task, _ = NewLeadCaptureTask(LeadCapturePayload{Source: "newsletter", Email: "n@example.com"})
	if err := w.handleLeadCapture(context.Background(), task); err != nil {
		t.Fatalf("handleLeadCapture newsletter: %v", err)
	}
	if len(capturer.newsletter) != 1 {
		t.Fatalf("expected newsletter capture, got %+v", capturer)
	}

	// Unknown sources are dropped, not retried.
	task, _ = NewLeadCaptureTask(LeadCapturePayload{Source: "billboard", Email: "x@example.com"})
	if err := w.handleLeadCapture(context.Background(), task); err != nil {
		t.Fatalf("unknown source must be dropped without error, got %v", err)
	}
}

func TestHandleLeadCaptureDropsValidationFailure(t *testing.T) {
	capturer := &fakeCapturer{err: apperr.Validation("invalid calculator lead")}
	w := newTestWorker(nil, capturer)

	task, _ := NewLeadCaptureTask(LeadCapturePayload{Source: "calculator", Email: "not-an-email"})
	if err := w.handleLeadCapture(context.Background(), task); err != nil {
		t.Fatalf("validation failure must be dropped without error, got %v", err)
	}
}
