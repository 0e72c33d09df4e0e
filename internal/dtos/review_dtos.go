package dtos

import (
	"time"

	"github.com/stayloop/stays-service/internal/models"
)

type ReviewCreateRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"required,max=2000"`
}

type Review struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	AuthorID   string    `json:"author_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewReviewFromModel(rv *models.Review) Review {
	return Review{
		ID:         rv.ID.String(),
		PropertyID: rv.PropertyID.String(),
		AuthorID:   rv.AuthorID.String(),
		Rating:     rv.Rating,
		Comment:    rv.Comment,
		CreatedAt:  rv.CreatedAt,
	}
}

type ReviewList struct {
	Reviews       []Review `json:"reviews"`
	AverageRating float64  `json:"average_rating"`
	Count         int      `json:"count"`
}
