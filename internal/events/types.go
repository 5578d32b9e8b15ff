// internal/events/types.go
package events

import (
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Transaction events
	TransactionSubmitted EventType = "transaction.submitted"
	TransactionConfirmed EventType = "transaction.confirmed"
	TransactionFailed    EventType = "transaction.failed"

	// Derived-view events
	ViewRefreshed EventType = "view.refreshed"
	FloorUpdated  EventType = "floor.updated"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// NewBase stamps a BaseEvent for the given type.
func NewBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, EventTime: time.Now()}
}

// TransactionSubmittedEvent is emitted when a transaction enters the
// submit path, before confirmation.
type TransactionSubmittedEvent struct {
	BaseEvent
	Action string // "buy", "list", "delist", "mint", "swap", "wrap", "burn"
	TxHash string
	Sender string
	Token  string // token object address, empty for pool actions
}

// TransactionConfirmedEvent is emitted once a transaction reaches finality.
// The poller invalidates derived-view cache keys on this event.
type TransactionConfirmedEvent struct {
	BaseEvent
	Action string
	TxHash string
	Sender string
	Token  string
}

// TransactionFailedEvent is emitted when submission or confirmation fails.
type TransactionFailedEvent struct {
	BaseEvent
	Action string
	TxHash string
	Sender string
	Token  string
	Error  error
}

// ViewRefreshedEvent is emitted after the poller stores a fresh scan result.
type ViewRefreshedEvent struct {
	BaseEvent
	Key   string // cache key, e.g. "listings", "floor", "holdings:<addr>"
	Items int
}

// FloorUpdatedEvent is emitted when a scan observes a floor listing.
type FloorUpdatedEvent struct {
	BaseEvent
	TokenIndex uint64
	Token      string
	Seller     string
	Price      uint64
}
