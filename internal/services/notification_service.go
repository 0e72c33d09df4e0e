package services

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stayloop/stays-service/internal/config"
	"github.com/stayloop/stays-service/internal/events"
	"github.com/stayloop/stays-service/internal/models"
	"github.com/stayloop/stays-service/internal/repositories"
	"github.com/stayloop/stays-service/internal/utils"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// NotificationService consumes booking events and sends the matching emails
// and SMS. Delivery is at-least-once, and these side effects are safe to
// repeat: providers de-duplicate, and a repeated notification is harmless.
type NotificationService struct {
	cfg            *config.Config
	userRepo       repositories.UserRepository
	propertyRepo   repositories.PropertyRepository
	bookingRepo    repositories.BookingRepository
	sendgridClient *sendgrid.Client
	twilioClient   *twilio.RestClient
}

func NewNotificationService(
	cfg *config.Config,
	userRepo repositories.UserRepository,
	propertyRepo repositories.PropertyRepository,
	bookingRepo repositories.BookingRepository,
) *NotificationService {
	var twClient *twilio.RestClient
	if cfg.TwilioAccountSID != "" {
		twClient = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		})
	}
	return &NotificationService{
		cfg:            cfg,
		userRepo:       userRepo,
		propertyRepo:   propertyRepo,
		bookingRepo:    bookingRepo,
		sendgridClient: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		twilioClient:   twClient,
	}
}

// HandleEvent is the consumer handler for booking events.
func (s *NotificationService) HandleEvent(ctx context.Context, ev events.BookingEvent) error {
	booking, prop, guest, host, err := s.loadParties(ctx, ev)
	if err != nil {
		return fmt.Errorf("loading booking parties: %w: %v", events.ErrTransient, err)
	}
	if booking == nil || prop == nil || guest == nil || host == nil {
		// Referenced rows are gone; nothing useful can be retried.
		utils.Logger.Warnf("Skipping %s for booking %s: missing rows", ev.Type, ev.BookingID)
		return nil
	}

	switch ev.Type {
	case events.EventBookingCreated:
		return s.notifyBookingCreated(booking, prop, guest, host)
	case events.EventBookingConfirmed:
		return s.notifyBookingConfirmed(booking, prop, guest)
	case events.EventBookingCanceled:
		return s.notifyBookingCanceled(booking, prop, guest, host)
	default:
		utils.Logger.Warnf("Unknown event type %q for booking %s", ev.Type, ev.BookingID)
		return nil
	}
}

func (s *NotificationService) loadParties(
	ctx context.Context,
	ev events.BookingEvent,
) (*models.Booking, *models.Property, *models.User, *models.User, error) {
	booking, err := s.bookingRepo.GetByID(ctx, ev.BookingID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	prop, err := s.propertyRepo.GetByID(ctx, ev.PropertyID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	guest, err := s.userRepo.GetByID(ctx, ev.GuestID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	var host *models.User
	if prop != nil {
		host, err = s.userRepo.GetByID(ctx, prop.HostID)
		if err != nil {
			return nil, nil, nil, nil, err
		}
	}
	return booking, prop, guest, host, nil
}

func (s *NotificationService) notifyBookingCreated(
	booking *models.Booking,
	prop *models.Property,
	guest, host *models.User,
) error {
	subject, plain, html := bookingRequestEmail(booking, prop, guest)
	if err := s.sendEmail(host.Email, host.FullName(), subject, plain, html); err != nil {
		return err
	}

	if host.PhoneNumber != nil {
		body := fmt.Sprintf("New booking request for %s: %s to %s.",
			prop.Name,
			booking.CheckIn.Format("Jan 2"),
			booking.CheckOut.Format("Jan 2"),
		)
		if err := s.sendSMS(*host.PhoneNumber, body); err != nil {
			// SMS is best effort on top of the email.
			utils.Logger.WithError(err).Errorf("Failed to send booking request SMS to host %s", host.ID)
		}
	}
	return nil
}

func (s *NotificationService) notifyBookingConfirmed(
	booking *models.Booking,
	prop *models.Property,
	guest *models.User,
) error {
	subject, plain, html := bookingConfirmedEmail(booking, prop, guest)
	return s.sendEmail(guest.Email, guest.FullName(), subject, plain, html)
}

func (s *NotificationService) notifyBookingCanceled(
	booking *models.Booking,
	prop *models.Property,
	guest, host *models.User,
) error {
	subject, plain, html := bookingCanceledEmail(booking, prop)
	if err := s.sendEmail(guest.Email, guest.FullName(), subject, plain, html); err != nil {
		return err
	}
	return s.sendEmail(host.Email, host.FullName(), subject, plain, html)
}

// SendCheckInReminder emails the guest of a confirmed booking the day before
// check-in. Called by the daily reminder job.
func (s *NotificationService) SendCheckInReminder(ctx context.Context, booking *models.Booking) error {
	prop, err := s.propertyRepo.GetByID(ctx, booking.PropertyID)
	if err != nil {
		return err
	}
	guest, err := s.userRepo.GetByID(ctx, booking.GuestID)
	if err != nil {
		return err
	}
	if prop == nil || guest == nil {
		utils.Logger.Warnf("Skipping check-in reminder for booking %s: missing rows", booking.ID)
		return nil
	}

	subject, plain, html := checkInReminderEmail(booking, prop, guest)
	return s.sendEmail(guest.Email, guest.FullName(), subject, plain, html)
}

// NotifyNewMessage emails the recipient of a freshly sent message. Invoked
// best-effort after the message is stored; a delivery failure never fails
// the send.
func (s *NotificationService) NotifyNewMessage(ctx context.Context, msg *models.Message) error {
	sender, err := s.userRepo.GetByID(ctx, msg.SenderID)
	if err != nil {
		return err
	}
	recipient, err := s.userRepo.GetByID(ctx, msg.RecipientID)
	if err != nil {
		return err
	}
	if sender == nil || recipient == nil {
		utils.Logger.Warnf("Skipping message notification for message %s: missing rows", msg.ID)
		return nil
	}

	subject, plain, html := newMessageEmail(sender, recipient, msg.Body)
	return s.sendEmail(recipient.Email, recipient.FullName(), subject, plain, html)
}

func (s *NotificationService) sendEmail(toEmail, toName, subject, plain, html string) error {
	from := mail.NewEmail(s.cfg.AppName, s.cfg.SendgridFromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plain, html)

	if s.cfg.SendgridSandboxMode {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		message.MailSettings = ms
	}

	if _, err := s.sendgridClient.Send(message); err != nil {
		utils.Logger.WithError(err).Errorf("Failed to send email to %s via SendGrid", toEmail)
		return fmt.Errorf("%w: sendgrid: %v", events.ErrTransient, err)
	}
	return nil
}

func (s *NotificationService) sendSMS(toPhone, body string) error {
	if s.twilioClient == nil || s.cfg.TwilioFromPhone == "" {
		utils.Logger.Debug("Twilio not configured; skipping SMS")
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(toPhone)
	params.SetFrom(s.cfg.TwilioFromPhone)
	params.SetBody(body)

	if _, err := s.twilioClient.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio: %v", err)
	}
	return nil
}
