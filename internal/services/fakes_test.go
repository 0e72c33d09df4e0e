package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/stayloop/stays-service/internal/events"
	"github.com/stayloop/stays-service/internal/models"
	"github.com/stayloop/stays-service/internal/repositories"
	"github.com/stayloop/stays-service/internal/utils"
)

// In-memory repositories so lifecycle tests run without a database. They
// mirror the SQL repositories' contracts, including the conflict-and-latest
// behavior on stale row versions.

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*models.Booking
	props    *fakePropertyRepo

	// beforeUpdate simulates a concurrent writer between the service's read
	// and its status update.
	beforeUpdate func()
}

func newFakeBookingRepo(props *fakePropertyRepo) *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings: make(map[uuid.UUID]*models.Booking),
		props:    props,
	}
}

func copyBooking(b *models.Booking) *models.Booking {
	if b == nil {
		return nil
	}
	cp := *b
	return &cp
}

func (r *fakeBookingRepo) CreateIfAvailable(ctx context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.bookings {
		if existing.PropertyID != b.PropertyID || !existing.IsActive() {
			continue
		}
		if existing.Overlaps(b.CheckIn, b.CheckOut) {
			return utils.ErrDatesUnavailable
		}
	}

	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	r.bookings[b.ID] = copyBooking(b)
	return nil
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyBooking(r.bookings[id]), nil
}

func (r *fakeBookingRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Booking
	for _, b := range r.bookings {
		if b.GuestID == userID {
			out = append(out, copyBooking(b))
			continue
		}
		if r.props != nil {
			if p := r.props.get(b.PropertyID); p != nil && p.HostID == userID {
				out = append(out, copyBooking(b))
			}
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListActiveByPropertyID(ctx context.Context, propertyID uuid.UUID) ([]*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Booking
	for _, b := range r.bookings {
		if b.PropertyID == propertyID && b.IsActive() {
			out = append(out, copyBooking(b))
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) transition(
	id uuid.UUID,
	expectedVersion int64,
	legalFrom []models.BookingStatusType,
	to models.BookingStatusType,
) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.beforeUpdate != nil {
		hook := r.beforeUpdate
		r.beforeUpdate = nil
		r.mu.Unlock()
		hook()
		r.mu.Lock()
	}

	b := r.bookings[id]
	if b == nil {
		return nil, utils.ErrNoRowsUpdated
	}
	if b.RowVersion != expectedVersion {
		return copyBooking(b), utils.ErrRowVersionConflict
	}

	legal := false
	for _, from := range legalFrom {
		if b.Status == from {
			legal = true
		}
	}
	if !legal {
		return copyBooking(b), utils.ErrInvalidTransition
	}

	b.Status = to
	b.RowVersion++
	b.UpdatedAt = time.Now()
	return copyBooking(b), nil
}

func (r *fakeBookingRepo) UpdateStatusToConfirmed(ctx context.Context, id uuid.UUID, expectedVersion int64) (*models.Booking, error) {
	return r.transition(id, expectedVersion,
		[]models.BookingStatusType{models.BookingStatusPending}, models.BookingStatusConfirmed)
}

func (r *fakeBookingRepo) UpdateStatusToCanceled(ctx context.Context, id uuid.UUID, expectedVersion int64) (*models.Booking, error) {
	return r.transition(id, expectedVersion,
		[]models.BookingStatusType{models.BookingStatusPending, models.BookingStatusConfirmed},
		models.BookingStatusCanceled)
}

func (r *fakeBookingRepo) UpdateStatusToCompleted(ctx context.Context, id uuid.UUID, expectedVersion int64) (*models.Booking, error) {
	return r.transition(id, expectedVersion,
		[]models.BookingStatusType{models.BookingStatusConfirmed}, models.BookingStatusCompleted)
}

func (r *fakeBookingRepo) ListConfirmedEndedBefore(ctx context.Context, cutoff time.Time) ([]*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Booking
	for _, b := range r.bookings {
		if b.Status == models.BookingStatusConfirmed && !b.CheckOut.After(cutoff) {
			out = append(out, copyBooking(b))
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListConfirmedStartingOn(ctx context.Context, day time.Time) ([]*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Booking
	for _, b := range r.bookings {
		if b.Status == models.BookingStatusConfirmed && b.CheckIn.Equal(day) {
			out = append(out, copyBooking(b))
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListPropertiesWithActiveStay(ctx context.Context, day time.Time) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, b := range r.bookings {
		if !b.IsActive() || seen[b.PropertyID] {
			continue
		}
		if !day.Before(b.CheckIn) && day.Before(b.CheckOut) {
			seen[b.PropertyID] = true
			out = append(out, b.PropertyID)
		}
	}
	return out, nil
}

type fakePropertyRepo struct {
	mu    sync.Mutex
	props map[uuid.UUID]*models.Property
}

func newFakePropertyRepo() *fakePropertyRepo {
	return &fakePropertyRepo{props: make(map[uuid.UUID]*models.Property)}
}

func copyProperty(p *models.Property) *models.Property {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func (r *fakePropertyRepo) get(id uuid.UUID) *models.Property {
	return r.props[id]
}

func (r *fakePropertyRepo) Create(ctx context.Context, p *models.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.props[p.ID] = copyProperty(p)
	return nil
}

func (r *fakePropertyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyProperty(r.props[id]), nil
}

func (r *fakePropertyRepo) List(ctx context.Context, filter repositories.PropertyFilter) ([]*models.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Property
	for _, p := range r.props {
		if filter.HostID != uuid.Nil && p.HostID != filter.HostID {
			continue
		}
		if filter.MaxPrice > 0 && p.NightlyPrice > filter.MaxPrice {
			continue
		}
		if filter.MinGuests > 0 && p.MaxGuests < filter.MinGuests {
			continue
		}
		if filter.PropertyType != "" && p.PropertyType != filter.PropertyType {
			continue
		}
		out = append(out, copyProperty(p))
	}
	return out, nil
}

func (r *fakePropertyRepo) UpdateIfVersion(ctx context.Context, p *models.Property, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.props[p.ID]
	if stored == nil || stored.RowVersion != expectedVersion {
		return utils.ErrNoRowsUpdated
	}
	cp := copyProperty(p)
	cp.RowVersion = expectedVersion + 1
	cp.UpdatedAt = time.Now()
	r.props[p.ID] = cp
	return nil
}

func (r *fakePropertyRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Property) error) error {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return utils.ErrNoRowsUpdated
	}
	old := p.RowVersion
	if err := mutate(p); err != nil {
		return err
	}
	return r.UpdateIfVersion(ctx, p, old)
}

func (r *fakePropertyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.props, id)
	return nil
}

func (r *fakePropertyRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.props[id]; p != nil {
		p.IsAvailable = available
		p.RowVersion++
	}
	return nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages map[uuid.UUID]*models.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[uuid.UUID]*models.Message)}
}

func (r *fakeMessageRepo) Create(ctx context.Context, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.SentAt.IsZero() {
		m.SentAt = time.Now()
	}
	cp := *m
	r.messages[m.ID] = &cp
	return nil
}

func (r *fakeMessageRepo) ListBetween(ctx context.Context, a, b uuid.UUID) ([]*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Message
	for _, m := range r.messages {
		if (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) ListConversations(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error) {
	return nil, nil
}

func (r *fakeMessageRepo) MarkConversationRead(ctx context.Context, recipientID, senderID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.messages {
		if m.RecipientID == recipientID && m.SenderID == senderID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *fakeMessageRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, m := range r.messages {
		if m.SentAt.Before(cutoff) {
			delete(r.messages, id)
			n++
		}
	}
	return n, nil
}

type fakePropertyImageRepo struct {
	mu     sync.Mutex
	images map[uuid.UUID]*models.PropertyImage
}

func newFakePropertyImageRepo() *fakePropertyImageRepo {
	return &fakePropertyImageRepo{images: make(map[uuid.UUID]*models.PropertyImage)}
}

func (r *fakePropertyImageRepo) Create(ctx context.Context, img *models.PropertyImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now()
	}
	cp := *img
	r.images[img.ID] = &cp
	return nil
}

func (r *fakePropertyImageRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PropertyImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img := r.images[id]
	if img == nil {
		return nil, nil
	}
	cp := *img
	return &cp, nil
}

func (r *fakePropertyImageRepo) ListByPropertyID(ctx context.Context, propertyID uuid.UUID) ([]*models.PropertyImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PropertyImage
	for _, img := range r.images {
		if img.PropertyID == propertyID {
			cp := *img
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakePropertyImageRepo) ClearPrimary(ctx context.Context, propertyID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, img := range r.images {
		if img.PropertyID == propertyID {
			img.IsPrimary = false
		}
	}
	return nil
}

func (r *fakePropertyImageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.images[id] == nil {
		return pgx.ErrNoRows
	}
	delete(r.images, id)
	return nil
}

// fakeImageStore serves URLs derived from the public ID and records deletes.
type fakeImageStore struct {
	mu        sync.Mutex
	uploads   int
	deleted   []string
	uploadErr error
}

func (s *fakeImageStore) Upload(ctx context.Context, base64Image, publicID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.uploads++
	return "https://res.cloudinary.com/test/image/upload/v1/" + publicID + ".jpg", nil
}

func (s *fakeImageStore) Delete(ctx context.Context, imageURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, imageURL)
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[id]
	if u == nil {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// recordingReminderSender stands in for NotificationService in scheduler
// tests; failFor makes reminders for one booking fail.
type recordingReminderSender struct {
	mu      sync.Mutex
	sentFor []uuid.UUID
	failFor uuid.UUID
	failErr error
}

func (s *recordingReminderSender) SendCheckInReminder(ctx context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil && b.ID == s.failFor {
		return s.failErr
	}
	s.sentFor = append(s.sentFor, b.ID)
	return nil
}

// recordingMessageNotifier captures message notifications; failErr makes
// every notification fail.
type recordingMessageNotifier struct {
	mu       sync.Mutex
	notified []*models.Message
	failErr  error
}

func (n *recordingMessageNotifier) NotifyNewMessage(ctx context.Context, m *models.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failErr != nil {
		return n.failErr
	}
	cp := *m
	n.notified = append(n.notified, &cp)
	return nil
}

// recordingPublisher captures events; failErr makes every publish fail.
type recordingPublisher struct {
	mu      sync.Mutex
	events  []events.BookingEvent
	failErr error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev events.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failErr != nil {
		return p.failErr
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) published() []events.BookingEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.BookingEvent, len(p.events))
	copy(out, p.events)
	return out
}
