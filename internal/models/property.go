package models

import (
	"time"

	"github.com/google/uuid"
)

type PropertyType string

const (
	PropertyTypeApartment PropertyType = "APARTMENT"
	PropertyTypeHouse     PropertyType = "HOUSE"
	PropertyTypeRoom      PropertyType = "ROOM"
	PropertyTypeVilla     PropertyType = "VILLA"
	PropertyTypeCabin     PropertyType = "CABIN"
)

type Property struct {
	Versioned

	ID           uuid.UUID `json:"id"`
	HostID       uuid.UUID `json:"host_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
	NightlyPrice float64   `json:"nightly_price"`

	// Bookable window; date-only, inclusive on both ends.
	AvailableFrom time.Time `json:"available_from"`
	AvailableTo   time.Time `json:"available_to"`

	// Derived flag maintained by the availability refresh job:
	// false while an active booking covers today.
	IsAvailable bool `json:"is_available"`

	PropertyType PropertyType `json:"property_type"`
	MaxGuests    int          `json:"max_guests"`
	Bedrooms     int          `json:"bedrooms"`
	Bathrooms    int          `json:"bathrooms"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Property) GetID() string {
	return p.ID.String()
}
