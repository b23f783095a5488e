package events

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

const (
	EventSlotsLoaded     = "slots_loaded"
	EventBookingCreated  = "booking_created"
	EventBookingCanceled = "booking_canceled"
	EventActionFailed    = "action_failed"
	EventSessionStarted  = "session_started"
	EventSessionEnded    = "session_ended"
)

// SlotsPayload summarizes a refreshed slot table.
type SlotsPayload struct {
	Date   string `json:"date"`
	Booked int    `json:"booked"`
	Free   int    `json:"free"`
	Seq    uint64 `json:"seq"`
}

// BookingEventPayload describes a booking change made by the current user.
type BookingEventPayload struct {
	BookingID string `json:"booking_id,omitempty"`
	Date      string `json:"date,omitempty"`
	SlotTime  string `json:"slot_time,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	UserName  string `json:"user_name,omitempty"`
}

// FailurePayload is attached to EventActionFailed.
type FailurePayload struct {
	Action  string `json:"action"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// SessionPayload is attached to session start/end events.
type SessionPayload struct {
	UserID   string `json:"user_id,omitempty"`
	UserName string `json:"user_name,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	wildcard    []EventHandler
	mu          sync.RWMutex
	nextID      atomic.Int64
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler that receives every event.
func (b *EventBus) SubscribeAll(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wildcard = append(b.wildcard, handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.wildcard...)
	b.mu.RUnlock()

	if event.ID == 0 {
		event.ID = b.nextID.Add(1)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}

	b.Publish(&event)
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
