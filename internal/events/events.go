// Package events provides in-process pub/sub for booking lifecycle events.
// Subscribers are the log notifier (the UI toast analog) and the metrics
// bridge; the scheduling facade publishes after each successful commit.
package events

import (
	"sync"
	"time"
)

// Event types published by the scheduling facade.
const (
	BookingCreated  = "booking.created"
	BookingMoved    = "booking.moved"
	BookingUpdated  = "booking.updated"
	BookingDeleted  = "booking.deleted"
	BookingRejected = "booking.rejected"
)

// Event is a lightweight domain event.
type Event struct {
	Type      string
	BookingID string
	Mechanic  string
	Date      string
	Reason    string // set for rejections
	CreatedAt time.Time
}

// Handler reacts to an event.
type Handler func(event Event)

// Bus provides in-process pub/sub.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for every booking event type.
func (b *Bus) SubscribeAll(handler Handler) {
	for _, t := range []string{BookingCreated, BookingMoved, BookingUpdated, BookingDeleted, BookingRejected} {
		b.Subscribe(t, handler)
	}
}

// Publish notifies subscribers of the event type.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		handler(event)
	}
}
