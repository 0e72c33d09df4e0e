package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stayloop/stays-service/internal/constants"
	"github.com/stayloop/stays-service/internal/models"
	"github.com/stayloop/stays-service/internal/repositories"
	"github.com/stayloop/stays-service/internal/utils"
)

// SchedulerService hosts the cron-driven maintenance jobs. Each Run* method
// is safe to invoke repeatedly; a failed item is logged and skipped so one
// bad row never stalls the sweep.
type SchedulerService struct {
	bookingService *BookingService
	bookingRepo    repositories.BookingRepository
	propertyRepo   repositories.PropertyRepository
	messageRepo    repositories.MessageRepository
	reminders      checkInReminderSender

	nowFn func() time.Time
}

// checkInReminderSender is satisfied by NotificationService.
type checkInReminderSender interface {
	SendCheckInReminder(ctx context.Context, booking *models.Booking) error
}

func NewSchedulerService(
	bookingService *BookingService,
	bookingRepo repositories.BookingRepository,
	propertyRepo repositories.PropertyRepository,
	messageRepo repositories.MessageRepository,
	reminders checkInReminderSender,
) *SchedulerService {
	return &SchedulerService{
		bookingService: bookingService,
		bookingRepo:    bookingRepo,
		propertyRepo:   propertyRepo,
		messageRepo:    messageRepo,
		reminders:      reminders,
		nowFn:          time.Now,
	}
}

// RunCompletionSweep completes every CONFIRMED booking whose checkout date
// has passed. Returns how many bookings were completed.
func (s *SchedulerService) RunCompletionSweep(ctx context.Context) (int, error) {
	today := dateOnly(s.nowFn())

	due, err := s.bookingRepo.ListConfirmedEndedBefore(ctx, today)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, b := range due {
		if _, err := s.bookingService.Complete(ctx, b.ID); err != nil {
			utils.Logger.WithError(err).Errorf("Completion sweep: booking %s", b.ID)
			continue
		}
		completed++
	}

	if completed > 0 {
		utils.Logger.Infof("Completion sweep: %d booking(s) completed", completed)
	}
	return completed, nil
}

// RunCheckInReminders emails the guest of every CONFIRMED booking whose
// check-in is tomorrow. Returns how many reminders were sent.
func (s *SchedulerService) RunCheckInReminders(ctx context.Context) (int, error) {
	tomorrow := dateOnly(s.nowFn()).AddDate(0, 0, 1)

	due, err := s.bookingRepo.ListConfirmedStartingOn(ctx, tomorrow)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, b := range due {
		if err := s.reminders.SendCheckInReminder(ctx, b); err != nil {
			utils.Logger.WithError(err).Errorf("Check-in reminder: booking %s", b.ID)
			continue
		}
		sent++
	}

	if sent > 0 {
		utils.Logger.Infof("Check-in reminders: %d sent for %s", sent, tomorrow.Format("2006-01-02"))
	}
	return sent, nil
}

// RunMessageCleanup purges messages past the retention window.
func (s *SchedulerService) RunMessageCleanup(ctx context.Context) (int64, error) {
	cutoff := s.nowFn().Add(-constants.MessageRetention)

	deleted, err := s.messageRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		utils.Logger.Infof("Message cleanup: %d message(s) older than %s deleted", deleted, cutoff.Format("2006-01-02"))
	}
	return deleted, nil
}

// RunAvailabilityRefresh recomputes the derived is_available flag: a
// property is available when today falls inside its bookable window and no
// active booking covers today.
func (s *SchedulerService) RunAvailabilityRefresh(ctx context.Context) error {
	today := dateOnly(s.nowFn())

	occupiedIDs, err := s.bookingRepo.ListPropertiesWithActiveStay(ctx, today)
	if err != nil {
		return err
	}
	occupied := make(map[uuid.UUID]bool, len(occupiedIDs))
	for _, id := range occupiedIDs {
		occupied[id] = true
	}

	props, err := s.propertyRepo.List(ctx, repositories.PropertyFilter{})
	if err != nil {
		return err
	}

	for _, p := range props {
		inWindow := !today.Before(dateOnly(p.AvailableFrom)) && !today.After(dateOnly(p.AvailableTo))
		want := inWindow && !occupied[p.ID]
		if want == p.IsAvailable {
			continue
		}
		if err := s.propertyRepo.SetAvailability(ctx, p.ID, want); err != nil {
			utils.Logger.WithError(err).Errorf("Availability refresh: property %s", p.ID)
		}
	}
	return nil
}
