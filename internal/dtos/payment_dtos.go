package dtos

import (
	"time"

	"github.com/stayloop/stays-service/internal/models"
)

type PaymentCreateRequest struct {
	Method string `json:"method" validate:"required,oneof=CREDIT_CARD PAYPAL STRIPE"`
}

type Payment struct {
	ID        string                   `json:"id"`
	BookingID string                   `json:"booking_id"`
	Amount    float64                  `json:"amount"`
	Method    models.PaymentMethodType `json:"method"`
	Status    models.PaymentStatusType `json:"status"`
	PaidAt    *time.Time               `json:"paid_at,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
}

func NewPaymentFromModel(p *models.Payment) Payment {
	return Payment{
		ID:        p.ID.String(),
		BookingID: p.BookingID.String(),
		Amount:    p.Amount,
		Method:    p.Method,
		Status:    p.Status,
		PaidAt:    p.PaidAt,
		CreatedAt: p.CreatedAt,
	}
}
