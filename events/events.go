package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	EventBookingCreated    = "booking_created"
	EventBookingConfirmed  = "booking_confirmed"
	EventBookingCancelled  = "booking_cancelled"
	EventBookingCompleted  = "booking_completed"
	EventBookingRated      = "booking_rated"
	EventFeedbackSubmitted = "tutor_feedback_submitted"
	EventDoubtSubmitted    = "doubt_submitted"
	EventDoubtAnswered     = "doubt_answered"
)

// BookingEventPayload is the booking snapshot sent to consumers.
type BookingEventPayload struct {
	BookingID  string `json:"booking_id"`
	StudentID  string `json:"student_id"`
	TutorID    string `json:"tutor_id"`
	Status     string `json:"status"`
	Resolution string `json:"resolution,omitempty"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Rating     *int   `json:"rating,omitempty"`
	ChangedBy  string `json:"changed_by,omitempty"`
}

type DoubtEventPayload struct {
	DoubtID   string `json:"doubt_id"`
	StudentID string `json:"student_id"`
	TutorID   string `json:"tutor_id"`
	Subject   string `json:"subject"`
	Urgency   string `json:"urgency"`
	Status    string `json:"status"`
}

// Event is a lightweight domain event. Key groups related events, e.g. all
// events of one booking.
type Event struct {
	Type      string
	Key       string
	Payload   []byte
	CreatedAt time.Time
}

type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub. A nil bus drops everything.
type EventBus struct {
	subscribers map[string][]EventHandler
	wildcard    []EventHandler
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

func NewEventBus(logger *zerolog.Logger) *EventBus {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &EventBus{subscribers: make(map[string][]EventHandler), logger: logger}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for every event type.
func (b *EventBus) SubscribeAll(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wildcard = append(b.wildcard, handler)
}

// Publish runs the subscribers synchronously. Handler errors are logged and
// never reach the publisher.
func (b *EventBus) Publish(event *Event) {
	if b == nil {
		return
	}

	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.wildcard...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		if err := handler(event); err != nil {
			b.logger.Warn().Err(err).Str("event", event.Type).Str("key", event.Key).Msg("event handler failed")
		}
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType, key string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Key: key, Payload: raw, CreatedAt: time.Now()})
	return nil
}
