package models

import (
	"time"

	"github.com/google/uuid"
)

type PaymentMethodType string

const (
	PaymentMethodCreditCard PaymentMethodType = "CREDIT_CARD"
	PaymentMethodPaypal     PaymentMethodType = "PAYPAL"
	PaymentMethodStripe     PaymentMethodType = "STRIPE"
)

type PaymentStatusType string

const (
	PaymentStatusPending   PaymentStatusType = "PENDING"
	PaymentStatusCompleted PaymentStatusType = "COMPLETED"
	PaymentStatusFailed    PaymentStatusType = "FAILED"
)

type Payment struct {
	ID        uuid.UUID         `json:"id"`
	BookingID uuid.UUID         `json:"booking_id"`
	Amount    float64           `json:"amount"`
	Method    PaymentMethodType `json:"method"`
	Status    PaymentStatusType `json:"status"`
	PaidAt    *time.Time        `json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
