package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is unique per (property, author); the repository enforces the
// constraint at insert time.
type Review struct {
	ID         uuid.UUID `json:"id"`
	PropertyID uuid.UUID `json:"property_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
