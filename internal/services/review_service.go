package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stayloop/stays-service/internal/dtos"
	"github.com/stayloop/stays-service/internal/models"
	"github.com/stayloop/stays-service/internal/repositories"
)

type ReviewService struct {
	reviewRepo   repositories.ReviewRepository
	propertyRepo repositories.PropertyRepository
}

func NewReviewService(
	reviewRepo repositories.ReviewRepository,
	propertyRepo repositories.PropertyRepository,
) *ReviewService {
	return &ReviewService{
		reviewRepo:   reviewRepo,
		propertyRepo: propertyRepo,
	}
}

// Create adds one review per (property, author); a duplicate surfaces as
// ErrReviewExists from the repository.
func (s *ReviewService) Create(
	ctx context.Context,
	authorID uuid.UUID,
	propertyID uuid.UUID,
	req dtos.ReviewCreateRequest,
) (*models.Review, error) {
	prop, err := s.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, nil
	}

	review := &models.Review{
		ID:         uuid.New(),
		PropertyID: propertyID,
		AuthorID:   authorID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) ListByProperty(ctx context.Context, propertyID uuid.UUID) (*dtos.ReviewList, error) {
	reviews, err := s.reviewRepo.ListByPropertyID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	avg, count, err := s.reviewRepo.AverageRating(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	out := &dtos.ReviewList{
		Reviews:       make([]dtos.Review, 0, len(reviews)),
		AverageRating: avg,
		Count:         count,
	}
	for _, rv := range reviews {
		out.Reviews = append(out.Reviews, dtos.NewReviewFromModel(rv))
	}
	return out, nil
}
