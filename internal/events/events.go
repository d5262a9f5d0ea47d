// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"nurture_backend/internal/leads/domain"
	"nurture_backend/platform/events"
	"nurture_backend/platform/logger"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// LeadCaptured is published when a capture event creates a new subscriber.
type LeadCaptured struct {
	BaseEvent
	SubscriberID uuid.UUID   `json:"subscriberId"`
	Track        string      `json:"track"`
	Email        string      `json:"email"`
	Score        int         `json:"score"`
	Tier         domain.Tier `json:"tier"`
}

func (e LeadCaptured) EventName() string { return "leads.captured" }

// EngagementRecorded is published after an engagement event is applied.
type EngagementRecorded struct {
	BaseEvent
	SubscriberID uuid.UUID        `json:"subscriberId"`
	EventType    domain.EventType `json:"eventType"`
	Points       int              `json:"points"`
	Accumulator  int              `json:"accumulator"`
	Score        int              `json:"score"`
	Tier         domain.Tier      `json:"tier"`
}

func (e EngagementRecorded) EventName() string { return "leads.engagement.recorded" }

// LeadBecameHot is published when an engagement event moves a lead into the
// hot tier. The notification module alerts the sales team.
type LeadBecameHot struct {
	BaseEvent
	SubscriberID     uuid.UUID   `json:"subscriberId"`
	Track            string      `json:"track"`
	Email            string      `json:"email"`
	Company          string      `json:"company"`
	Score            int         `json:"score"`
	Tier             domain.Tier `json:"tier"`
	ProjectedSavings int64       `json:"projectedSavings"`
}

func (e LeadBecameHot) EventName() string { return "leads.became_hot" }

// DemoRequested is published when a demo-request engagement event is recorded,
// regardless of the lead's tier.
type DemoRequested struct {
	BaseEvent
	SubscriberID     uuid.UUID   `json:"subscriberId"`
	Track            string      `json:"track"`
	Email            string      `json:"email"`
	Company          string      `json:"company"`
	Score            int         `json:"score"`
	Tier             domain.Tier `json:"tier"`
	ProjectedSavings int64       `json:"projectedSavings"`
}

func (e DemoRequested) EventName() string { return "leads.demo_requested" }
