package engagement

import (
	"context"
	"sync"
	"testing"

	"nurture_backend/internal/events"
	"nurture_backend/internal/leads/domain"
	"nurture_backend/internal/leads/repository"
	"nurture_backend/internal/leads/scoring"
	"nurture_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeRepo struct {
	subs map[uuid.UUID]*repository.Subscriber
	seen map[string]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		subs: make(map[uuid.UUID]*repository.Subscriber),
		seen: make(map[string]bool),
	}
}

func (f *fakeRepo) add(sub repository.Subscriber) uuid.UUID {
	id := uuid.New()
	sub.ID = id
	f.subs[id] = &sub
	return id
}

func (f *fakeRepo) RecordEngagement(ctx context.Context, params repository.RecordEngagementParams, rescore repository.RescoreFunc) (repository.RecordEngagementResult, error) {
	sub, ok := f.subs[params.SubscriberID]
	if !ok {
		return repository.RecordEngagementResult{}, repository.ErrNotFound
	}

	if f.seen[params.EventID] {
		return repository.RecordEngagementResult{
			Duplicate:     true,
			Accumulator:   sub.Engagement,
			Score:         sub.Score,
			PreviousScore: sub.Score,
			Tier:          sub.Tier,
			PreviousTier:  sub.Tier,
		}, nil
	}
	f.seen[params.EventID] = true

	previousScore, previousTier := sub.Score, sub.Tier
	sub.Engagement += params.Points
	sub.Score, sub.Tier = rescore(sub.FacilitySize, sub.ProjectedSavings, sub.Engagement)

	return repository.RecordEngagementResult{
		Accumulator:   sub.Engagement,
		Score:         sub.Score,
		PreviousScore: previousScore,
		Tier:          sub.Tier,
		PreviousTier:  previousTier,
	}, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (repository.Subscriber, error) {
	sub, ok := f.subs[id]
	if !ok {
		return repository.Subscriber{}, repository.ErrNotFound
	}
	return *sub, nil
}

// recordingBus captures published events synchronously.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(ctx context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(eventName string, handler events.Handler) {}

func (b *recordingBus) named(name string) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.Event
	for _, e := range b.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

func newService(t *testing.T, repo Repository, bus events.Bus) *Service {
	t.Helper()
	calc, err := scoring.NewCalculator(scoring.DefaultBands())
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}
	return New(repo, calc, bus, nil)
}

func TestRecordEventAccumulates(t *testing.T) {
	repo := newFakeRepo()
	id := repo.add(repository.Subscriber{
		Track:            "calculator",
		Email:            "lead@example.com",
		FacilitySize:     15,
		ProjectedSavings: 40000,
		Tier:             domain.TierWarm,
	})
	svc := newService(t, repo, &recordingBus{})

	var last RecordEventResult
	for i := 0; i < 3; i++ {
		res, err := svc.RecordEvent(context.Background(), id, domain.EventClick, "")
		if err != nil {
			t.Fatalf("RecordEvent: %v", err)
		}
		last = res
	}

	if last.Accumulator != 30 {
		t.Fatalf("expected accumulator 30 after 3 clicks, got %d", last.Accumulator)
	}

	calc, _ := scoring.NewCalculator(scoring.DefaultBands())
	want := calc.Score(15, 40000, 30)
	if last.Score != want.Score || last.Tier != want.Tier {
		t.Fatalf("score/tier drifted from calculator: got %d/%s want %d/%s",
			last.Score, last.Tier, want.Score, want.Tier)
	}
}

func TestRecordEventNotFoundLeavesNoTrace(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(t, repo, &recordingBus{})

	_, err := svc.RecordEvent(context.Background(), uuid.New(), domain.EventOpen, "evt-1")
	if err == nil {
		t.Fatalf("expected error for unknown subscriber")
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound kind, got %v", err)
	}
	if len(repo.seen) != 0 {
		t.Fatalf("failed call must leave no trace, found %d event ids", len(repo.seen))
	}
}

func TestRecordEventDuplicateIsNoOp(t *testing.T) {
	repo := newFakeRepo()
	id := repo.add(repository.Subscriber{FacilitySize: 10, ProjectedSavings: 30000})
	svc := newService(t, repo, &recordingBus{})

	first, err := svc.RecordEvent(context.Background(), id, domain.EventResourceDownload, "msg-42")
	if err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	if first.Duplicate {
		t.Fatalf("first delivery must not be a duplicate")
	}

	second, err := svc.RecordEvent(context.Background(), id, domain.EventResourceDownload, "msg-42")
	if err != nil {
		t.Fatalf("RecordEvent replay: %v", err)
	}
	if !second.Duplicate {
		t.Fatalf("replayed event id must report duplicate")
	}
	if second.Accumulator != first.Accumulator {
		t.Fatalf("replay must not change the accumulator: %d vs %d", second.Accumulator, first.Accumulator)
	}
}

func TestRecordEventUnknownTypeRejected(t *testing.T) {
	repo := newFakeRepo()
	id := repo.add(repository.Subscriber{})
	svc := newService(t, repo, &recordingBus{})

	_, err := svc.RecordEvent(context.Background(), id, domain.EventType("unsubscribe"), "")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected Validation kind, got %v", err)
	}
}

func TestRecordEventPublishesHotAlert(t *testing.T) {
	repo := newFakeRepo()
	// 30 facility points + 29 savings points = 59 base; the second demo
	// request lifts the accumulator to 40 (16 engagement points) and crosses
	// the hot threshold, the third stays hot without a second alert.
	id := repo.add(repository.Subscriber{
		Track:            "calculator",
		Email:            "ops@bigbox.example",
		Company:          "BigBox",
		FacilitySize:     25,
		ProjectedSavings: 75000,
		Score:            59,
		Tier:             domain.TierWarm,
	})
	bus := &recordingBus{}
	svc := newService(t, repo, bus)
	for i := 0; i < 3; i++ {
		if _, err := svc.RecordEvent(context.Background(), id, domain.EventDemoRequest, ""); err != nil {
			t.Fatalf("RecordEvent: %v", err)
		}
	}

	hot := bus.named(events.LeadBecameHot{}.EventName())
	if len(hot) != 1 {
		t.Fatalf("expected exactly one hot-lead event, got %d", len(hot))
	}
	demos := bus.named(events.DemoRequested{}.EventName())
	if len(demos) != 3 {
		t.Fatalf("expected three demo-requested events, got %d", len(demos))
	}
	recorded := bus.named(events.EngagementRecorded{}.EventName())
	if len(recorded) != 3 {
		t.Fatalf("expected three engagement events, got %d", len(recorded))
	}
}
