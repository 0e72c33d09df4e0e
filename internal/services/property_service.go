package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/stayloop/stays-service/internal/dtos"
	"github.com/stayloop/stays-service/internal/models"
	"github.com/stayloop/stays-service/internal/repositories"
	"github.com/stayloop/stays-service/internal/storage"
	"github.com/stayloop/stays-service/internal/utils"
)

type PropertyService struct {
	propertyRepo repositories.PropertyRepository
	bookingRepo  repositories.BookingRepository
	imageRepo    repositories.PropertyImageRepository
	imageStore   storage.ImageStore
}

func NewPropertyService(
	propertyRepo repositories.PropertyRepository,
	bookingRepo repositories.BookingRepository,
	imageRepo repositories.PropertyImageRepository,
	imageStore storage.ImageStore,
) *PropertyService {
	return &PropertyService{
		propertyRepo: propertyRepo,
		bookingRepo:  bookingRepo,
		imageRepo:    imageRepo,
		imageStore:   imageStore,
	}
}

func (s *PropertyService) Create(
	ctx context.Context,
	hostID uuid.UUID,
	req dtos.PropertyCreateRequest,
) (*models.Property, error) {
	from, err := time.Parse("2006-01-02", req.AvailableFrom)
	if err != nil {
		return nil, utils.ErrInvalidDateRange
	}
	to, err := time.Parse("2006-01-02", req.AvailableTo)
	if err != nil {
		return nil, utils.ErrInvalidDateRange
	}
	if to.Before(from) {
		return nil, utils.ErrInvalidDateRange
	}

	prop := &models.Property{
		ID:            uuid.New(),
		HostID:        hostID,
		Name:          req.Name,
		Description:   req.Description,
		Location:      req.Location,
		NightlyPrice:  req.NightlyPrice,
		AvailableFrom: from,
		AvailableTo:   to,
		IsAvailable:   true,
		PropertyType:  models.PropertyType(req.PropertyType),
		MaxGuests:     req.MaxGuests,
		Bedrooms:      req.Bedrooms,
		Bathrooms:     req.Bathrooms,
	}
	prop.SetRowVersion(1)

	if err := s.propertyRepo.Create(ctx, prop); err != nil {
		return nil, err
	}
	return prop, nil
}

func (s *PropertyService) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	return s.propertyRepo.GetByID(ctx, id)
}

func (s *PropertyService) List(ctx context.Context, filter repositories.PropertyFilter) ([]*models.Property, error) {
	return s.propertyRepo.List(ctx, filter)
}

// Patch applies a partial update under the optimistic-locking retry loop.
// Price changes never touch existing bookings; their price is locked.
func (s *PropertyService) Patch(
	ctx context.Context,
	hostID uuid.UUID,
	propertyID uuid.UUID,
	req dtos.PropertyPatchRequest,
) (*models.Property, error) {
	prop, err := s.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, nil
	}
	if prop.HostID != hostID {
		return nil, utils.ErrNotPropertyHost
	}

	err = s.propertyRepo.UpdateWithRetry(ctx, propertyID, func(p *models.Property) error {
		if req.Name != nil {
			p.Name = *req.Name
		}
		if req.Description != nil {
			p.Description = *req.Description
		}
		if req.Location != nil {
			p.Location = *req.Location
		}
		if req.NightlyPrice != nil {
			p.NightlyPrice = *req.NightlyPrice
		}
		if req.AvailableFrom != nil {
			from, err := time.Parse("2006-01-02", *req.AvailableFrom)
			if err != nil {
				return utils.ErrInvalidDateRange
			}
			p.AvailableFrom = from
		}
		if req.AvailableTo != nil {
			to, err := time.Parse("2006-01-02", *req.AvailableTo)
			if err != nil {
				return utils.ErrInvalidDateRange
			}
			p.AvailableTo = to
		}
		if p.AvailableTo.Before(p.AvailableFrom) {
			return utils.ErrInvalidDateRange
		}
		if req.MaxGuests != nil {
			p.MaxGuests = *req.MaxGuests
		}
		if req.Bedrooms != nil {
			p.Bedrooms = *req.Bedrooms
		}
		if req.Bathrooms != nil {
			p.Bathrooms = *req.Bathrooms
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.propertyRepo.GetByID(ctx, propertyID)
}

// UploadImage pushes the image to the store and records its URL. Host-only,
// mirroring the other property write paths.
func (s *PropertyService) UploadImage(
	ctx context.Context,
	hostID uuid.UUID,
	propertyID uuid.UUID,
	req dtos.PropertyImageUploadRequest,
) (*models.PropertyImage, error) {
	prop, err := s.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, nil
	}
	if prop.HostID != hostID {
		return nil, utils.ErrNotPropertyHost
	}

	img := &models.PropertyImage{
		ID:         uuid.New(),
		PropertyID: propertyID,
		Caption:    req.Caption,
		IsPrimary:  req.IsPrimary,
	}

	url, err := s.imageStore.Upload(ctx, req.ImageData, img.ID.String())
	if err != nil {
		return nil, err
	}
	img.URL = url

	if req.IsPrimary {
		if err := s.imageRepo.ClearPrimary(ctx, propertyID); err != nil {
			return nil, err
		}
	}
	if err := s.imageRepo.Create(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *PropertyService) ListImages(ctx context.Context, propertyID uuid.UUID) ([]*models.PropertyImage, error) {
	prop, err := s.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, pgx.ErrNoRows
	}
	return s.imageRepo.ListByPropertyID(ctx, propertyID)
}

// DeleteImage removes the row first; the store delete is best effort, an
// orphaned binary beats a dangling URL.
func (s *PropertyService) DeleteImage(
	ctx context.Context,
	hostID uuid.UUID,
	propertyID uuid.UUID,
	imageID uuid.UUID,
) error {
	prop, err := s.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		return err
	}
	if prop == nil {
		return pgx.ErrNoRows
	}
	if prop.HostID != hostID {
		return utils.ErrNotPropertyHost
	}

	img, err := s.imageRepo.GetByID(ctx, imageID)
	if err != nil {
		return err
	}
	if img == nil || img.PropertyID != propertyID {
		return pgx.ErrNoRows
	}

	if err := s.imageRepo.Delete(ctx, imageID); err != nil {
		return err
	}
	if err := s.imageStore.Delete(ctx, img.URL); err != nil {
		utils.Logger.WithError(err).Errorf("Failed to delete stored image %s", img.ID)
	}
	return nil
}

// Delete refuses while active bookings exist on the property.
func (s *PropertyService) Delete(ctx context.Context, hostID uuid.UUID, propertyID uuid.UUID) error {
	prop, err := s.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		return err
	}
	if prop == nil {
		return pgx.ErrNoRows
	}
	if prop.HostID != hostID {
		return utils.ErrNotPropertyHost
	}

	active, err := s.bookingRepo.ListActiveByPropertyID(ctx, propertyID)
	if err != nil {
		return err
	}
	if len(active) > 0 {
		return utils.ErrActiveBookings
	}

	return s.propertyRepo.Delete(ctx, propertyID)
}
