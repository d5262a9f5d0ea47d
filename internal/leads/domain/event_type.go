package domain

// EventType identifies a discrete engagement event against a lead.
type EventType string

const (
	EventOpen             EventType = "open"
	EventClick            EventType = "click"
	EventResourceDownload EventType = "resource_download"
	EventDemoRequest      EventType = "demo_request"
)

// EventPoints is the fixed point value each event type contributes to the
// engagement accumulator. New event types get an entry here.
var EventPoints = map[EventType]int{
	EventOpen:             5,
	EventClick:            10,
	EventResourceDownload: 15,
	EventDemoRequest:      20,
}

// Valid reports whether the event type is known.
func (t EventType) Valid() bool {
	_, ok := EventPoints[t]
	return ok
}

// Points returns the point value for the event type, or 0 when unknown.
func (t EventType) Points() int {
	return EventPoints[t]
}
