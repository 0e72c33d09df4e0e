package models

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatusType string

const (
	BookingStatusPending   BookingStatusType = "PENDING"
	BookingStatusConfirmed BookingStatusType = "CONFIRMED"
	BookingStatusCanceled  BookingStatusType = "CANCELED"
	BookingStatusCompleted BookingStatusType = "COMPLETED"
)

type Booking struct {
	Versioned

	ID         uuid.UUID `json:"id"`
	PropertyID uuid.UUID `json:"property_id"`
	GuestID    uuid.UUID `json:"guest_id"`

	// Date-only, half-open stay range [CheckIn, CheckOut). A checkout day
	// equal to the next stay's check-in day does not collide.
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`

	Status BookingStatusType `json:"status"`

	// Captured from the property's nightly price at creation and never
	// recomputed afterwards.
	LockedNightlyPrice float64 `json:"locked_nightly_price"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) GetID() string {
	return b.ID.String()
}

// Nights returns the stay length in whole nights.
func (b *Booking) Nights() int {
	return int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
}

// LockedTotal is the price owed for the whole stay at the locked rate.
func (b *Booking) LockedTotal() float64 {
	return b.LockedNightlyPrice * float64(b.Nights())
}

// IsActive reports whether the booking still blocks its date range.
func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// IsTerminal reports whether no further transitions are legal.
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingStatusCanceled || b.Status == BookingStatusCompleted
}

// CanTransitionTo encodes the lifecycle:
// PENDING -> CONFIRMED -> COMPLETED, with CANCELED reachable from
// PENDING and CONFIRMED. CANCELED and COMPLETED are terminal.
func (b *Booking) CanTransitionTo(next BookingStatusType) bool {
	switch b.Status {
	case BookingStatusPending:
		return next == BookingStatusConfirmed || next == BookingStatusCanceled
	case BookingStatusConfirmed:
		return next == BookingStatusCompleted || next == BookingStatusCanceled
	default:
		return false
	}
}

// Overlaps applies the half-open interval test: [a,b) and [c,d)
// intersect iff a < d && c < b.
func (b *Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckIn.Before(checkOut) && checkIn.Before(b.CheckOut)
}
