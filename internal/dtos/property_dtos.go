package dtos

import (
	"time"

	"github.com/stayloop/stays-service/internal/models"
)

type PropertyCreateRequest struct {
	Name          string  `json:"name" validate:"required,max=200"`
	Description   string  `json:"description" validate:"required"`
	Location      string  `json:"location" validate:"required,max=200"`
	NightlyPrice  float64 `json:"nightly_price" validate:"required,gt=0"`
	AvailableFrom string  `json:"available_from" validate:"required,datetime=2006-01-02"`
	AvailableTo   string  `json:"available_to" validate:"required,datetime=2006-01-02"`
	PropertyType  string  `json:"property_type" validate:"required,oneof=APARTMENT HOUSE ROOM VILLA CABIN"`
	MaxGuests     int     `json:"max_guests" validate:"required,gte=1"`
	Bedrooms      int     `json:"bedrooms" validate:"gte=0"`
	Bathrooms     int     `json:"bathrooms" validate:"gte=0"`
}

// PropertyPatchRequest uses pointers so omitted fields stay untouched.
type PropertyPatchRequest struct {
	Name          *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Description   *string  `json:"description,omitempty"`
	Location      *string  `json:"location,omitempty" validate:"omitempty,max=200"`
	NightlyPrice  *float64 `json:"nightly_price,omitempty" validate:"omitempty,gt=0"`
	AvailableFrom *string  `json:"available_from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	AvailableTo   *string  `json:"available_to,omitempty" validate:"omitempty,datetime=2006-01-02"`
	MaxGuests     *int     `json:"max_guests,omitempty" validate:"omitempty,gte=1"`
	Bedrooms      *int     `json:"bedrooms,omitempty" validate:"omitempty,gte=0"`
	Bathrooms     *int     `json:"bathrooms,omitempty" validate:"omitempty,gte=0"`
}

type Property struct {
	ID            string              `json:"id"`
	HostID        string              `json:"host_id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Location      string              `json:"location"`
	NightlyPrice  float64             `json:"nightly_price"`
	AvailableFrom string              `json:"available_from"`
	AvailableTo   string              `json:"available_to"`
	IsAvailable   bool                `json:"is_available"`
	PropertyType  models.PropertyType `json:"property_type"`
	MaxGuests     int                 `json:"max_guests"`
	Bedrooms      int                 `json:"bedrooms"`
	Bathrooms     int                 `json:"bathrooms"`
	RowVersion    int64               `json:"row_version"`
	CreatedAt     time.Time           `json:"created_at"`
}

func NewPropertyFromModel(p *models.Property) Property {
	return Property{
		ID:            p.ID.String(),
		HostID:        p.HostID.String(),
		Name:          p.Name,
		Description:   p.Description,
		Location:      p.Location,
		NightlyPrice:  p.NightlyPrice,
		AvailableFrom: p.AvailableFrom.Format("2006-01-02"),
		AvailableTo:   p.AvailableTo.Format("2006-01-02"),
		IsAvailable:   p.IsAvailable,
		PropertyType:  p.PropertyType,
		MaxGuests:     p.MaxGuests,
		Bedrooms:      p.Bedrooms,
		Bathrooms:     p.Bathrooms,
		RowVersion:    p.RowVersion,
		CreatedAt:     p.CreatedAt,
	}
}

type PropertyImageUploadRequest struct {
	// Base64-encoded image, with or without a data: prefix.
	ImageData string `json:"image_data" validate:"required"`
	Caption   string `json:"caption" validate:"max=200"`
	IsPrimary bool   `json:"is_primary"`
}

type PropertyImage struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	URL        string    `json:"url"`
	Caption    string    `json:"caption"`
	IsPrimary  bool      `json:"is_primary"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewPropertyImageFromModel(img *models.PropertyImage) PropertyImage {
	return PropertyImage{
		ID:         img.ID.String(),
		PropertyID: img.PropertyID.String(),
		URL:        img.URL,
		Caption:    img.Caption,
		IsPrimary:  img.IsPrimary,
		CreatedAt:  img.CreatedAt,
	}
}
