package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/stayloop/stays-service/internal/models"
)

type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingCanceled  EventType = "booking.canceled"
)

// Header keys carried on every published message.
const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderSource        = "source"
	HeaderRetryCount    = "retry-count"
	HeaderOriginalTopic = "original-topic"
)

// BookingEvent is the payload for every booking lifecycle event. The key for
// partition routing is always the booking ID, so events for one booking stay
// ordered.
type BookingEvent struct {
	Type       EventType `json:"type"`
	BookingID  uuid.UUID `json:"booking_id"`
	PropertyID uuid.UUID `json:"property_id"`
	GuestID    uuid.UUID `json:"guest_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewBookingEvent(t EventType, b *models.Booking) BookingEvent {
	return BookingEvent{
		Type:       t,
		BookingID:  b.ID,
		PropertyID: b.PropertyID,
		GuestID:    b.GuestID,
		OccurredAt: time.Now().UTC(),
	}
}
