package utils

import (
	"errors"

	"github.com/stayloop/stays-service/internal/models"
)

/*
Sentinel errors for marketplace domain logic.
Controllers can do: if errors.Is(err, ErrXYZ) { ... }
*/
var (
	ErrInvalidDateRange      = errors.New("invalid_date_range")
	ErrCheckInPast           = errors.New("check_in_in_past")
	ErrDatesUnavailable      = errors.New("dates_unavailable")
	ErrOutsideAvailability   = errors.New("outside_availability_window")
	ErrOwnProperty           = errors.New("cannot_book_own_property")
	ErrInvalidTransition     = errors.New("invalid_transition")
	ErrNotBookingParty       = errors.New("not_booking_party")
	ErrNotPropertyHost       = errors.New("not_property_host")
	ErrReviewExists          = errors.New("review_exists")
	ErrSelfMessage           = errors.New("self_message")
	ErrEmailExists           = errors.New("email_exists")
	ErrInvalidCredentials    = errors.New("invalid_credentials")
	ErrBookingNotCancellable = errors.New("booking_not_cancellable")
	ErrActiveBookings        = errors.New("property_has_active_bookings")
	ErrNoRowsUpdated         = errors.New("no_rows_updated") // Can be used by repos

	// For concurrency conflicts
	ErrRowVersionConflict = errors.New("row_version_conflict")
)

/*
VersionConflictError is returned when there's a concurrency mismatch.
It includes the "latest" Booking so the controller can return it
to the client if desired.
*/
type VersionConflictError struct {
	Current *models.Booking
}

func (e *VersionConflictError) Error() string {
	return "row_version_conflict"
}

func NewVersionConflictError(current *models.Booking) error {
	return &VersionConflictError{Current: current}
}
