package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/stayloop/stays-service/internal/models"
)

// PaymentRepository persists payment records. Payments are immutable once
// written: they are recorded against a booking and never updated.
type PaymentRepository interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*models.Payment, error)
}

type paymentRepo struct {
	db DB
}

func NewPaymentRepository(db DB) PaymentRepository {
	return &paymentRepo{db: db}
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.ID,
		&p.BookingID,
		&p.Amount,
		&p.Method,
		&p.Status,
		&p.PaidAt,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) Create(ctx context.Context, p *models.Payment) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO payments (id, booking_id, amount, method, status, paid_at, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,NOW())
    `,
		p.ID,
		p.BookingID,
		p.Amount,
		p.Method,
		p.Status,
		p.PaidAt,
	)
	return err
}

func (r *paymentRepo) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*models.Payment, error) {
	row := r.db.QueryRow(ctx, `
        SELECT id, booking_id, amount, method, status, paid_at, created_at
        FROM payments
        WHERE booking_id=$1 ORDER BY created_at DESC LIMIT 1
    `, bookingID)
	return scanPayment(row)
}
