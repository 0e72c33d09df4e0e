package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stayloop/stays-service/internal/models"
	"github.com/stayloop/stays-service/internal/repositories"
	"github.com/stayloop/stays-service/internal/utils"
)

// PaymentService records payments against bookings. There is no gateway
// integration; amounts always come from the booking's locked total.
type PaymentService struct {
	paymentRepo repositories.PaymentRepository
	bookingRepo repositories.BookingRepository

	nowFn func() time.Time
}

func NewPaymentService(
	paymentRepo repositories.PaymentRepository,
	bookingRepo repositories.BookingRepository,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		bookingRepo: bookingRepo,
		nowFn:       time.Now,
	}
}

// Record creates a COMPLETED payment for the booking's locked total. Guest
// only; the booking must be CONFIRMED or COMPLETED.
func (s *PaymentService) Record(
	ctx context.Context,
	guestID uuid.UUID,
	bookingID uuid.UUID,
	method models.PaymentMethodType,
) (*models.Payment, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, nil
	}
	if booking.GuestID != guestID {
		return nil, utils.ErrNotBookingParty
	}
	if booking.Status != models.BookingStatusConfirmed && booking.Status != models.BookingStatusCompleted {
		return nil, utils.ErrInvalidTransition
	}

	now := s.nowFn()
	payment := &models.Payment{
		ID:        uuid.New(),
		BookingID: bookingID,
		Amount:    booking.LockedTotal(),
		Method:    method,
		Status:    models.PaymentStatusCompleted,
		PaidAt:    &now,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *PaymentService) GetForBooking(
	ctx context.Context,
	actorID uuid.UUID,
	bookingID uuid.UUID,
) (*models.Payment, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, nil
	}
	if booking.GuestID != actorID {
		return nil, utils.ErrNotBookingParty
	}
	return s.paymentRepo.GetByBookingID(ctx, bookingID)
}
