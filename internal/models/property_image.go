package models

import (
	"time"

	"github.com/google/uuid"
)

// PropertyImage is a photo attached to a listing. The binary lives in the
// image store; only the served URL is persisted.
type PropertyImage struct {
	ID         uuid.UUID `json:"id"`
	PropertyID uuid.UUID `json:"property_id"`
	URL        string    `json:"url"`
	Caption    string    `json:"caption"`
	IsPrimary  bool      `json:"is_primary"`
	CreatedAt  time.Time `json:"created_at"`
}

func (i *PropertyImage) GetID() string {
	return i.ID.String()
}
