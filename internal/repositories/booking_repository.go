package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/stayloop/stays-service/internal/models"
	"github.com/stayloop/stays-service/internal/utils"
)

type BookingRepository interface {
	// CreateIfAvailable inserts the booking only if its half-open date range
	// does not intersect any PENDING/CONFIRMED booking on the same property.
	// The check and the insert share one transaction that locks the property
	// row, so two concurrent requests cannot both pass the overlap scan.
	CreateIfAvailable(ctx context.Context, b *models.Booking) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)

	// ListForUser returns bookings the user made plus bookings on the
	// user's own properties.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Booking, error)

	ListActiveByPropertyID(ctx context.Context, propertyID uuid.UUID) ([]*models.Booking, error)

	UpdateStatusToConfirmed(ctx context.Context, bookingID uuid.UUID, expectedVersion int64) (*models.Booking, error)
	UpdateStatusToCanceled(ctx context.Context, bookingID uuid.UUID, expectedVersion int64) (*models.Booking, error)
	UpdateStatusToCompleted(ctx context.Context, bookingID uuid.UUID, expectedVersion int64) (*models.Booking, error)

	// ListConfirmedEndedBefore powers the completion sweep.
	ListConfirmedEndedBefore(ctx context.Context, cutoff time.Time) ([]*models.Booking, error)

	// ListConfirmedStartingOn powers the check-in reminder job.
	ListConfirmedStartingOn(ctx context.Context, day time.Time) ([]*models.Booking, error)

	// ListPropertiesWithActiveStay returns property IDs with a
	// PENDING/CONFIRMED booking covering the given day.
	ListPropertiesWithActiveStay(ctx context.Context, day time.Time) ([]uuid.UUID, error)
}

type bookingRepo struct {
	db DB
}

func NewBookingRepository(db DB) BookingRepository {
	return &bookingRepo{db: db}
}

func baseSelectBooking() string {
	return `
        SELECT
            id, property_id, guest_id, check_in, check_out,
            status, locked_nightly_price,
            row_version, created_at, updated_at
        FROM bookings
    `
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID,
		&b.PropertyID,
		&b.GuestID,
		&b.CheckIn,
		&b.CheckOut,
		&b.Status,
		&b.LockedNightlyPrice,
		&b.RowVersion,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepo) CreateIfAvailable(ctx context.Context, b *models.Booking) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	// Serialise creates per property: the lock holds until commit, so the
	// overlap scan below cannot race a concurrent insert.
	var propertyID uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT id FROM properties WHERE id=$1 FOR UPDATE`, b.PropertyID,
	).Scan(&propertyID)
	if errors.Is(err, pgx.ErrNoRows) {
		err = pgx.ErrNoRows
		return err
	}
	if err != nil {
		return err
	}

	var overlapping int
	err = tx.QueryRow(ctx, `
        SELECT COUNT(*) FROM bookings
        WHERE property_id = $1
          AND status = ANY($2)
          AND check_in < $4
          AND check_out > $3
    `,
		b.PropertyID,
		[]string{string(models.BookingStatusPending), string(models.BookingStatusConfirmed)},
		b.CheckIn.Format("2006-01-02"),
		b.CheckOut.Format("2006-01-02"),
	).Scan(&overlapping)
	if err != nil {
		return err
	}
	if overlapping > 0 {
		err = utils.ErrDatesUnavailable
		return err
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO bookings (
            id, property_id, guest_id, check_in, check_out,
            status, locked_nightly_price,
            created_at, updated_at, row_version
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,NOW(),NOW(),1
        )
    `,
		b.ID,
		b.PropertyID,
		b.GuestID,
		b.CheckIn.Format("2006-01-02"),
		b.CheckOut.Format("2006-01-02"),
		b.Status,
		b.LockedNightlyPrice,
	)
	return err
}

func (r *bookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	row := r.db.QueryRow(ctx, baseSelectBooking()+" WHERE id=$1", id)
	return scanBooking(row)
}

func (r *bookingRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Booking, error) {
	q := `
        SELECT
            b.id, b.property_id, b.guest_id, b.check_in, b.check_out,
            b.status, b.locked_nightly_price,
            b.row_version, b.created_at, b.updated_at
        FROM bookings b
        JOIN properties p ON p.id = b.property_id
        WHERE b.guest_id = $1 OR p.host_id = $1
        ORDER BY b.created_at DESC
    `
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *bookingRepo) ListActiveByPropertyID(ctx context.Context, propertyID uuid.UUID) ([]*models.Booking, error) {
	q := baseSelectBooking() + `
        WHERE property_id = $1
          AND status = ANY($2)
        ORDER BY check_in
    `
	rows, err := r.db.Query(ctx, q,
		propertyID,
		[]string{string(models.BookingStatusPending), string(models.BookingStatusConfirmed)},
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *bookingRepo) UpdateStatusToConfirmed(
	ctx context.Context,
	bookingID uuid.UUID,
	expectedVersion int64,
) (*models.Booking, error) {
	return r.transitionAtomic(ctx, bookingID, expectedVersion,
		models.BookingStatusPending, models.BookingStatusConfirmed)
}

func (r *bookingRepo) UpdateStatusToCanceled(
	ctx context.Context,
	bookingID uuid.UUID,
	expectedVersion int64,
) (*models.Booking, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	row := tx.QueryRow(ctx, baseSelectBooking()+" WHERE id=$1 FOR UPDATE", bookingID)
	b, err := scanBooking(row)
	if err != nil {
		return nil, err
	}
	if b == nil {
		err = pgx.ErrNoRows
		return nil, err
	}
	if b.RowVersion != expectedVersion {
		return b, utils.ErrRowVersionConflict
	}
	// Cancellation is legal from either non-terminal state.
	if b.Status != models.BookingStatusPending && b.Status != models.BookingStatusConfirmed {
		err = fmt.Errorf("cannot cancel booking in status %s", b.Status)
		return b, err
	}

	_, err = tx.Exec(ctx, `
        UPDATE bookings
        SET status=$1, row_version=row_version+1, updated_at=NOW()
        WHERE id=$2
    `, models.BookingStatusCanceled, bookingID)
	if err != nil {
		return nil, err
	}
	newRow := tx.QueryRow(ctx, baseSelectBooking()+" WHERE id=$1", bookingID)
	return scanBooking(newRow)
}

func (r *bookingRepo) UpdateStatusToCompleted(
	ctx context.Context,
	bookingID uuid.UUID,
	expectedVersion int64,
) (*models.Booking, error) {
	return r.transitionAtomic(ctx, bookingID, expectedVersion,
		models.BookingStatusConfirmed, models.BookingStatusCompleted)
}

// transitionAtomic moves a booking from exactly one status to another inside
// a transaction, re-checking both the row version and the source status under
// the row lock.
func (r *bookingRepo) transitionAtomic(
	ctx context.Context,
	bookingID uuid.UUID,
	expectedVersion int64,
	from models.BookingStatusType,
	to models.BookingStatusType,
) (*models.Booking, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	row := tx.QueryRow(ctx, baseSelectBooking()+" WHERE id=$1 FOR UPDATE", bookingID)
	b, err := scanBooking(row)
	if err != nil {
		return nil, err
	}
	if b == nil {
		err = pgx.ErrNoRows
		return nil, err
	}
	if b.RowVersion != expectedVersion {
		return b, utils.ErrRowVersionConflict
	}
	if b.Status != from {
		err = fmt.Errorf("cannot move booking from %s to %s", b.Status, to)
		return b, err
	}

	_, err = tx.Exec(ctx, `
        UPDATE bookings
        SET status=$1, row_version=row_version+1, updated_at=NOW()
        WHERE id=$2
    `, to, bookingID)
	if err != nil {
		return nil, err
	}
	newRow := tx.QueryRow(ctx, baseSelectBooking()+" WHERE id=$1", bookingID)
	return scanBooking(newRow)
}

func (r *bookingRepo) ListConfirmedEndedBefore(ctx context.Context, cutoff time.Time) ([]*models.Booking, error) {
	q := baseSelectBooking() + `
        WHERE status = $1
          AND check_out <= $2
        ORDER BY check_out
    `
	rows, err := r.db.Query(ctx, q,
		models.BookingStatusConfirmed,
		cutoff.Format("2006-01-02"),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *bookingRepo) ListConfirmedStartingOn(ctx context.Context, day time.Time) ([]*models.Booking, error) {
	q := baseSelectBooking() + `
        WHERE status = $1
          AND check_in = $2
        ORDER BY created_at
    `
	rows, err := r.db.Query(ctx, q,
		models.BookingStatusConfirmed,
		day.Format("2006-01-02"),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *bookingRepo) ListPropertiesWithActiveStay(ctx context.Context, day time.Time) ([]uuid.UUID, error) {
	q := `
        SELECT DISTINCT property_id FROM bookings
        WHERE status = ANY($1)
          AND check_in <= $2
          AND check_out > $2
    `
	rows, err := r.db.Query(ctx, q,
		[]string{string(models.BookingStatusPending), string(models.BookingStatusConfirmed)},
		day.Format("2006-01-02"),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
