package dtos

import (
	"time"

	"github.com/stayloop/stays-service/internal/models"
)

type BookingCreateRequest struct {
	PropertyID string `json:"property_id" validate:"required,uuid4"`
	CheckIn    string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut   string `json:"check_out" validate:"required,datetime=2006-01-02"`
}

type Booking struct {
	ID                 string                   `json:"id"`
	PropertyID         string                   `json:"property_id"`
	GuestID            string                   `json:"guest_id"`
	CheckIn            string                   `json:"check_in"`
	CheckOut           string                   `json:"check_out"`
	Status             models.BookingStatusType `json:"status"`
	LockedNightlyPrice float64                  `json:"locked_nightly_price"`
	Nights             int                      `json:"nights"`
	LockedTotal        float64                  `json:"locked_total"`
	RowVersion         int64                    `json:"row_version"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
}

func NewBookingFromModel(b *models.Booking) Booking {
	return Booking{
		ID:                 b.ID.String(),
		PropertyID:         b.PropertyID.String(),
		GuestID:            b.GuestID.String(),
		CheckIn:            b.CheckIn.Format("2006-01-02"),
		CheckOut:           b.CheckOut.Format("2006-01-02"),
		Status:             b.Status,
		LockedNightlyPrice: b.LockedNightlyPrice,
		Nights:             b.Nights(),
		LockedTotal:        b.LockedTotal(),
		RowVersion:         b.RowVersion,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}
