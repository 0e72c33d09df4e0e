package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stayloop/stays-service/internal/constants"
	"github.com/stayloop/stays-service/internal/events"
	"github.com/stayloop/stays-service/internal/models"
	"github.com/stayloop/stays-service/internal/repositories"
	"github.com/stayloop/stays-service/internal/utils"
)

// BookingService owns every booking status mutation. Controllers and cron
// jobs never touch the repository directly.
type BookingService struct {
	bookingRepo  repositories.BookingRepository
	propertyRepo repositories.PropertyRepository
	publisher    events.Publisher

	nowFn func() time.Time
}

func NewBookingService(
	bookingRepo repositories.BookingRepository,
	propertyRepo repositories.PropertyRepository,
	publisher events.Publisher,
) *BookingService {
	return &BookingService{
		bookingRepo:  bookingRepo,
		propertyRepo: propertyRepo,
		publisher:    publisher,
		nowFn:        time.Now,
	}
}

// Create books [checkIn, checkOut) at the property's current nightly price.
// The price is captured on the booking and never recomputed afterwards.
func (s *BookingService) Create(
	ctx context.Context,
	guestID uuid.UUID,
	propertyID uuid.UUID,
	checkIn, checkOut time.Time,
) (*models.Booking, error) {
	checkIn = dateOnly(checkIn)
	checkOut = dateOnly(checkOut)

	if !checkIn.Before(checkOut) {
		return nil, utils.ErrInvalidDateRange
	}
	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	if nights < constants.MinBookingNights || nights > constants.MaxBookingNights {
		return nil, utils.ErrInvalidDateRange
	}
	if checkIn.Before(dateOnly(s.nowFn())) {
		return nil, utils.ErrCheckInPast
	}

	prop, err := s.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, nil
	}
	if prop.HostID == guestID {
		return nil, utils.ErrOwnProperty
	}

	// The stay must fit inside the bookable window. AvailableTo is the last
	// bookable night, so checkout may land one day past it.
	lastNight := checkOut.AddDate(0, 0, -1)
	if checkIn.Before(dateOnly(prop.AvailableFrom)) || lastNight.After(dateOnly(prop.AvailableTo)) {
		return nil, utils.ErrOutsideAvailability
	}

	booking := &models.Booking{
		ID:                 uuid.New(),
		PropertyID:         propertyID,
		GuestID:            guestID,
		CheckIn:            checkIn,
		CheckOut:           checkOut,
		Status:             models.BookingStatusPending,
		LockedNightlyPrice: prop.NightlyPrice,
	}
	booking.SetRowVersion(1)

	if err := s.bookingRepo.CreateIfAvailable(ctx, booking); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventBookingCreated, booking)
	return booking, nil
}

// Confirm moves a PENDING booking to CONFIRMED. Host only.
func (s *BookingService) Confirm(
	ctx context.Context,
	hostID uuid.UUID,
	bookingID uuid.UUID,
) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, nil
	}

	prop, err := s.propertyRepo.GetByID(ctx, booking.PropertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil || prop.HostID != hostID {
		return nil, utils.ErrNotPropertyHost
	}

	if !booking.CanTransitionTo(models.BookingStatusConfirmed) {
		return nil, utils.ErrInvalidTransition
	}

	updated, err := s.bookingRepo.UpdateStatusToConfirmed(ctx, bookingID, booking.GetRowVersion())
	if err != nil {
		if errors.Is(err, utils.ErrRowVersionConflict) {
			return nil, utils.NewVersionConflictError(updated)
		}
		return nil, err
	}

	s.publish(ctx, events.EventBookingConfirmed, updated)
	return updated, nil
}

// Cancel is legal from PENDING or CONFIRMED, for the guest or the property's
// host. A canceled booking immediately frees its date range.
func (s *BookingService) Cancel(
	ctx context.Context,
	actorID uuid.UUID,
	bookingID uuid.UUID,
) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, nil
	}

	prop, err := s.propertyRepo.GetByID(ctx, booking.PropertyID)
	if err != nil {
		return nil, err
	}
	isGuest := booking.GuestID == actorID
	isHost := prop != nil && prop.HostID == actorID
	if !isGuest && !isHost {
		return nil, utils.ErrNotBookingParty
	}

	if !booking.CanTransitionTo(models.BookingStatusCanceled) {
		return nil, utils.ErrBookingNotCancellable
	}

	updated, err := s.bookingRepo.UpdateStatusToCanceled(ctx, bookingID, booking.GetRowVersion())
	if err != nil {
		if errors.Is(err, utils.ErrRowVersionConflict) {
			return nil, utils.NewVersionConflictError(updated)
		}
		return nil, err
	}

	s.publish(ctx, events.EventBookingCanceled, updated)
	return updated, nil
}

// Complete moves a CONFIRMED booking whose checkout date has passed to
// COMPLETED. Called by the completion sweep, never by a user. Completing an
// already COMPLETED booking is a no-op with no event.
func (s *BookingService) Complete(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, nil
	}

	if booking.Status == models.BookingStatusCompleted {
		return booking, nil
	}
	if !booking.CanTransitionTo(models.BookingStatusCompleted) {
		return nil, utils.ErrInvalidTransition
	}
	if booking.CheckOut.After(dateOnly(s.nowFn())) {
		return nil, utils.ErrInvalidTransition
	}

	updated, err := s.bookingRepo.UpdateStatusToCompleted(ctx, bookingID, booking.GetRowVersion())
	if err != nil {
		if errors.Is(err, utils.ErrRowVersionConflict) {
			return nil, utils.NewVersionConflictError(updated)
		}
		return nil, err
	}

	return updated, nil
}

// GetByID enforces that only the guest or the property's host can read a
// booking.
func (s *BookingService) GetByID(
	ctx context.Context,
	actorID uuid.UUID,
	bookingID uuid.UUID,
) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, nil
	}

	if booking.GuestID != actorID {
		prop, err := s.propertyRepo.GetByID(ctx, booking.PropertyID)
		if err != nil {
			return nil, err
		}
		if prop == nil || prop.HostID != actorID {
			return nil, utils.ErrNotBookingParty
		}
	}
	return booking, nil
}

func (s *BookingService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Booking, error) {
	return s.bookingRepo.ListForUser(ctx, userID)
}

func (s *BookingService) ListActiveByPropertyID(ctx context.Context, propertyID uuid.UUID) ([]*models.Booking, error) {
	return s.bookingRepo.ListActiveByPropertyID(ctx, propertyID)
}

// publish is fire-and-forget: a queue outage must never roll back a state
// transition that already committed.
func (s *BookingService) publish(ctx context.Context, t events.EventType, b *models.Booking) {
	if s.publisher == nil || b == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewBookingEvent(t, b)); err != nil {
		utils.Logger.WithError(err).Errorf("Failed to publish %s for booking %s", t, b.ID)
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
