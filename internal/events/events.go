package events

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Event types published by the booking engine.
const (
	TypeReservationCreated       = "reservation.created"
	TypeReservationStatusChanged = "reservation.status_changed"
	TypeReservationDeleted       = "reservation.deleted"
	TypeReservationsCompleted    = "reservations.auto_completed"
)

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler reacts to an event.
type EventHandler func(event Event) error

// ErrorHandler receives handler failures. Failures never reach the publisher.
type ErrorHandler func(event Event, err error)

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	nextID      atomic.Int64
	onError     ErrorHandler
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// OnError sets the callback for handler failures.
func (b *EventBus) OnError(h ErrorHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = h
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish encodes payload as JSON and notifies subscribers of the event type.
func (b *EventBus) Publish(eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.report(Event{Type: eventType}, err)
		return
	}
	b.PublishEvent(Event{Type: eventType, Payload: data})
}

// PublishEvent notifies subscribers of an already encoded event.
func (b *EventBus) PublishEvent(event Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.ID == 0 {
		event.ID = b.nextID.Add(1)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := handler(event); err != nil {
			b.report(event, err)
		}
	}
}

func (b *EventBus) report(event Event, err error) {
	b.mu.RLock()
	h := b.onError
	b.mu.RUnlock()
	if h != nil {
		h(event, err)
	}
}

// StatusChanged is the payload of TypeReservationStatusChanged.
type StatusChanged struct {
	ReservationID string    `json:"reservation_id"`
	CourtID       string    `json:"court_id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	At            time.Time `json:"at"`
}

// Deleted is the payload of TypeReservationDeleted.
type Deleted struct {
	ReservationID string    `json:"reservation_id"`
	CourtID       string    `json:"court_id"`
	ActorID       string    `json:"actor_id"`
	At            time.Time `json:"at"`
}

// Completed is the payload of TypeReservationsCompleted.
type Completed struct {
	Count int64     `json:"count"`
	At    time.Time `json:"at"`
}
