package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stayloop/stays-service/internal/events"
	"github.com/stayloop/stays-service/internal/models"
	"github.com/stayloop/stays-service/internal/utils"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type bookingFixture struct {
	svc         *BookingService
	bookingRepo *fakeBookingRepo
	propRepo    *fakePropertyRepo
	publisher   *recordingPublisher

	now time.Time

	hostID   uuid.UUID
	guestID  uuid.UUID
	property *models.Property
}

// newBookingFixture pins "today" to 2026-03-01 (tests may move f.now) and
// seeds one property at 100.00/night, bookable for all of 2026.
func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	propRepo := newFakePropertyRepo()
	bookingRepo := newFakeBookingRepo(propRepo)
	publisher := &recordingPublisher{}

	f := &bookingFixture{now: day(2026, time.March, 1)}

	svc := NewBookingService(bookingRepo, propRepo, publisher)
	svc.nowFn = func() time.Time { return f.now }

	hostID := uuid.New()
	prop := &models.Property{
		ID:            uuid.New(),
		HostID:        hostID,
		Name:          "Harbor Loft",
		Location:      "Lisbon",
		NightlyPrice:  100.00,
		AvailableFrom: day(2026, time.January, 1),
		AvailableTo:   day(2026, time.December, 31),
		IsAvailable:   true,
		PropertyType:  models.PropertyTypeApartment,
		MaxGuests:     4,
	}
	prop.SetRowVersion(1)
	require.NoError(t, propRepo.Create(context.Background(), prop))

	f.svc = svc
	f.bookingRepo = bookingRepo
	f.propRepo = propRepo
	f.publisher = publisher
	f.hostID = hostID
	f.guestID = uuid.New()
	f.property = prop
	return f
}

func (f *bookingFixture) mustCreate(t *testing.T, checkIn, checkOut time.Time) *models.Booking {
	t.Helper()
	b, err := f.svc.Create(context.Background(), f.guestID, f.property.ID, checkIn, checkOut)
	require.NoError(t, err)
	require.NotNil(t, b)
	return b
}

func TestCreateBooking_LocksNightlyPrice(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b := f.mustCreate(t, day(2026, time.June, 10), day(2026, time.June, 14))

	require.Equal(t, models.BookingStatusPending, b.Status)
	require.Equal(t, 100.00, b.LockedNightlyPrice)
	require.Equal(t, 4, b.Nights())
	require.Equal(t, 400.00, b.LockedTotal())

	// A later price hike must not touch the existing booking.
	require.NoError(t, f.propRepo.UpdateWithRetry(ctx, f.property.ID, func(p *models.Property) error {
		p.NightlyPrice = 250.00
		return nil
	}))

	stored, err := f.bookingRepo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, 100.00, stored.LockedNightlyPrice)
	require.Equal(t, 400.00, stored.LockedTotal())
}

func TestCreateBooking_RejectsOverlap(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	f.mustCreate(t, day(2026, time.June, 10), day(2026, time.June, 14))

	cases := []struct {
		name              string
		checkIn, checkOut time.Time
	}{
		{"identical range", day(2026, time.June, 10), day(2026, time.June, 14)},
		{"straddles start", day(2026, time.June, 8), day(2026, time.June, 11)},
		{"straddles end", day(2026, time.June, 13), day(2026, time.June, 16)},
		{"contained", day(2026, time.June, 11), day(2026, time.June, 12)},
		{"contains", day(2026, time.June, 9), day(2026, time.June, 15)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, uuid.New(), f.property.ID, tc.checkIn, tc.checkOut)
			require.ErrorIs(t, err, utils.ErrDatesUnavailable)
		})
	}
}

func TestCreateBooking_AdjacentRangesDoNotCollide(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	f.mustCreate(t, day(2026, time.June, 10), day(2026, time.June, 14))

	// Checkout day == next check-in day is legal under half-open ranges.
	after, err := f.svc.Create(ctx, uuid.New(), f.property.ID,
		day(2026, time.June, 14), day(2026, time.June, 16))
	require.NoError(t, err)
	require.NotNil(t, after)

	before, err := f.svc.Create(ctx, uuid.New(), f.property.ID,
		day(2026, time.June, 8), day(2026, time.June, 10))
	require.NoError(t, err)
	require.NotNil(t, before)
}

func TestCreateBooking_Validation(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.guestID, f.property.ID,
		day(2026, time.June, 14), day(2026, time.June, 14))
	require.ErrorIs(t, err, utils.ErrInvalidDateRange)

	_, err = f.svc.Create(ctx, f.guestID, f.property.ID,
		day(2026, time.June, 14), day(2026, time.June, 10))
	require.ErrorIs(t, err, utils.ErrInvalidDateRange)

	// Today is pinned to 2026-03-01.
	_, err = f.svc.Create(ctx, f.guestID, f.property.ID,
		day(2026, time.February, 20), day(2026, time.February, 22))
	require.ErrorIs(t, err, utils.ErrCheckInPast)

	_, err = f.svc.Create(ctx, f.guestID, f.property.ID,
		day(2026, time.December, 30), day(2027, time.January, 2))
	require.ErrorIs(t, err, utils.ErrOutsideAvailability)

	// 91 nights is past the stay-length cap.
	_, err = f.svc.Create(ctx, f.guestID, f.property.ID,
		day(2026, time.April, 1), day(2026, time.July, 1))
	require.ErrorIs(t, err, utils.ErrInvalidDateRange)

	_, err = f.svc.Create(ctx, f.hostID, f.property.ID,
		day(2026, time.June, 10), day(2026, time.June, 12))
	require.ErrorIs(t, err, utils.ErrOwnProperty)

	missing, err := f.svc.Create(ctx, f.guestID, uuid.New(),
		day(2026, time.June, 10), day(2026, time.June, 12))
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestConfirmBooking(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b := f.mustCreate(t, day(2026, time.June, 10), day(2026, time.June, 14))

	_, err := f.svc.Confirm(ctx, uuid.New(), b.ID)
	require.ErrorIs(t, err, utils.ErrNotPropertyHost)

	confirmed, err := f.svc.Confirm(ctx, f.hostID, b.ID)
	require.NoError(t, err)
	require.Equal(t, models.BookingStatusConfirmed, confirmed.Status)
	require.Equal(t, b.GetRowVersion()+1, confirmed.GetRowVersion())

	// Confirming twice is an invalid transition, not an idempotent no-op.
	_, err = f.svc.Confirm(ctx, f.hostID, b.ID)
	require.ErrorIs(t, err, utils.ErrInvalidTransition)
}

func TestConfirmBooking_VersionConflictCarriesLatest(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b := f.mustCreate(t, day(2026, time.June, 10), day(2026, time.June, 14))

	// Another writer bumps the row between the service's read and update.
	f.bookingRepo.beforeUpdate = func() {
		f.bookingRepo.bookings[b.ID].RowVersion++
	}

	_, err := f.svc.Confirm(ctx, f.hostID, b.ID)

	var conflict *utils.VersionConflictError
	require.ErrorAs(t, err, &conflict)
	require.NotNil(t, conflict.Current)
	require.Equal(t, b.ID, conflict.Current.ID)
	require.Equal(t, b.GetRowVersion()+1, conflict.Current.GetRowVersion())
}

func TestCancelBooking_Legality(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	// PENDING: guest may cancel.
	b1 := f.mustCreate(t, day(2026, time.June, 1), day(2026, time.June, 3))
	canceled, err := f.svc.Cancel(ctx, f.guestID, b1.ID)
	require.NoError(t, err)
	require.Equal(t, models.BookingStatusCanceled, canceled.Status)

	// CONFIRMED: host may cancel.
	b2 := f.mustCreate(t, day(2026, time.June, 5), day(2026, time.June, 7))
	_, err = f.svc.Confirm(ctx, f.hostID, b2.ID)
	require.NoError(t, err)
	canceled, err = f.svc.Cancel(ctx, f.hostID, b2.ID)
	require.NoError(t, err)
	require.Equal(t, models.BookingStatusCanceled, canceled.Status)

	// CANCELED is terminal.
	_, err = f.svc.Cancel(ctx, f.guestID, b2.ID)
	require.ErrorIs(t, err, utils.ErrBookingNotCancellable)

	// A third party cannot cancel.
	b3 := f.mustCreate(t, day(2026, time.June, 9), day(2026, time.June, 11))
	_, err = f.svc.Cancel(ctx, uuid.New(), b3.ID)
	require.ErrorIs(t, err, utils.ErrNotBookingParty)

	// COMPLETED is terminal. Book in the past by winding the clock back.
	f.now = day(2026, time.January, 5)
	b4 := f.mustCreate(t, day(2026, time.January, 10), day(2026, time.January, 12))
	_, err = f.svc.Confirm(ctx, f.hostID, b4.ID)
	require.NoError(t, err)
	f.now = day(2026, time.March, 1)
	_, err = f.svc.Complete(ctx, b4.ID)
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, f.guestID, b4.ID)
	require.ErrorIs(t, err, utils.ErrBookingNotCancellable)
}

func TestCancelBooking_FreesDateRange(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b := f.mustCreate(t, day(2026, time.June, 10), day(2026, time.June, 14))

	otherGuest := uuid.New()
	_, err := f.svc.Create(ctx, otherGuest, f.property.ID,
		day(2026, time.June, 10), day(2026, time.June, 14))
	require.ErrorIs(t, err, utils.ErrDatesUnavailable)

	_, err = f.svc.Cancel(ctx, f.guestID, b.ID)
	require.NoError(t, err)

	rebooked, err := f.svc.Create(ctx, otherGuest, f.property.ID,
		day(2026, time.June, 10), day(2026, time.June, 14))
	require.NoError(t, err)
	require.NotNil(t, rebooked)
	require.Equal(t, models.BookingStatusPending, rebooked.Status)
}

func TestCompleteBooking(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	// Book and confirm in January, then advance past checkout.
	f.now = day(2026, time.January, 5)
	b := f.mustCreate(t, day(2026, time.January, 10), day(2026, time.January, 14))
	_, err := f.svc.Confirm(ctx, f.hostID, b.ID)
	require.NoError(t, err)
	pending := f.mustCreate(t, day(2026, time.January, 20), day(2026, time.January, 22))
	f.now = day(2026, time.March, 1)

	completed, err := f.svc.Complete(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, models.BookingStatusCompleted, completed.Status)

	// Idempotent: a second completion is a silent no-op.
	again, err := f.svc.Complete(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, models.BookingStatusCompleted, again.Status)
	require.Equal(t, completed.GetRowVersion(), again.GetRowVersion())

	// PENDING cannot complete.
	_, err = f.svc.Complete(ctx, pending.ID)
	require.ErrorIs(t, err, utils.ErrInvalidTransition)

	// CONFIRMED with a future checkout cannot complete yet.
	future := f.mustCreate(t, day(2026, time.June, 10), day(2026, time.June, 14))
	_, err = f.svc.Confirm(ctx, f.hostID, future.ID)
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, future.ID)
	require.ErrorIs(t, err, utils.ErrInvalidTransition)
}

func TestBookingEvents(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	f.now = day(2026, time.January, 5)
	b := f.mustCreate(t, day(2026, time.January, 10), day(2026, time.January, 14))
	_, err := f.svc.Confirm(ctx, f.hostID, b.ID)
	require.NoError(t, err)
	f.now = day(2026, time.March, 1)
	_, err = f.svc.Complete(ctx, b.ID)
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, b.ID) // no-op, no event
	require.NoError(t, err)

	b2 := f.mustCreate(t, day(2026, time.June, 1), day(2026, time.June, 3))
	_, err = f.svc.Cancel(ctx, f.guestID, b2.ID)
	require.NoError(t, err)

	got := f.publisher.published()
	require.Len(t, got, 4)

	require.Equal(t, events.EventBookingCreated, got[0].Type)
	require.Equal(t, b.ID, got[0].BookingID)
	require.Equal(t, f.property.ID, got[0].PropertyID)
	require.Equal(t, f.guestID, got[0].GuestID)
	require.False(t, got[0].OccurredAt.IsZero())

	require.Equal(t, events.EventBookingConfirmed, got[1].Type)
	require.Equal(t, events.EventBookingCreated, got[2].Type)
	require.Equal(t, b2.ID, got[2].BookingID)
	require.Equal(t, events.EventBookingCanceled, got[3].Type)
}

func TestPublishFailureDoesNotRollBack(t *testing.T) {
	f := newBookingFixture(t)
	f.publisher.failErr = errors.New("broker unreachable")
	ctx := context.Background()

	b := f.mustCreate(t, day(2026, time.June, 10), day(2026, time.June, 14))

	stored, err := f.bookingRepo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, models.BookingStatusPending, stored.Status)
}

func TestGetBooking_AccessControl(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b := f.mustCreate(t, day(2026, time.June, 10), day(2026, time.June, 14))

	got, err := f.svc.GetByID(ctx, f.guestID, b.ID)
	require.NoError(t, err)
	require.Equal(t, b.ID, got.ID)

	got, err = f.svc.GetByID(ctx, f.hostID, b.ID)
	require.NoError(t, err)
	require.Equal(t, b.ID, got.ID)

	_, err = f.svc.GetByID(ctx, uuid.New(), b.ID)
	require.ErrorIs(t, err, utils.ErrNotBookingParty)

	missing, err := f.svc.GetByID(ctx, f.guestID, uuid.New())
	require.NoError(t, err)
	require.Nil(t, missing)
}
