package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/stayloop/stays-service/internal/dtos"
	"github.com/stayloop/stays-service/internal/models"
	"github.com/stayloop/stays-service/internal/utils"
	"github.com/stretchr/testify/require"
)

type propertyFixture struct {
	svc       *PropertyService
	imageRepo *fakePropertyImageRepo
	store     *fakeImageStore
	hostID    uuid.UUID
	property  *models.Property
}

func newPropertyFixture(t *testing.T) *propertyFixture {
	t.Helper()

	propRepo := newFakePropertyRepo()
	f := &propertyFixture{
		imageRepo: newFakePropertyImageRepo(),
		store:     &fakeImageStore{},
		hostID:    uuid.New(),
	}
	f.svc = NewPropertyService(propRepo, newFakeBookingRepo(propRepo), f.imageRepo, f.store)

	f.property = &models.Property{
		ID:            uuid.New(),
		HostID:        f.hostID,
		Name:          "Canal House",
		Location:      "Amsterdam",
		NightlyPrice:  140,
		AvailableFrom: day(2026, time.January, 1),
		AvailableTo:   day(2026, time.December, 31),
		IsAvailable:   true,
		PropertyType:  models.PropertyTypeHouse,
		MaxGuests:     4,
	}
	require.NoError(t, propRepo.Create(context.Background(), f.property))
	return f
}

func uploadReq(caption string, primary bool) dtos.PropertyImageUploadRequest {
	return dtos.PropertyImageUploadRequest{
		ImageData: "data:image/jpeg;base64,/9j/4AAQ",
		Caption:   caption,
		IsPrimary: primary,
	}
}

func TestUploadImage(t *testing.T) {
	f := newPropertyFixture(t)
	ctx := context.Background()

	img, err := f.svc.UploadImage(ctx, f.hostID, f.property.ID, uploadReq("front door", false))
	require.NoError(t, err)
	require.NotNil(t, img)
	require.Equal(t, f.property.ID, img.PropertyID)
	require.Contains(t, img.URL, img.ID.String())
	require.Equal(t, 1, f.store.uploads)

	stored, err := f.imageRepo.GetByID(ctx, img.ID)
	require.NoError(t, err)
	require.Equal(t, img.URL, stored.URL)
}

func TestUploadImage_HostOnly(t *testing.T) {
	f := newPropertyFixture(t)
	ctx := context.Background()

	_, err := f.svc.UploadImage(ctx, uuid.New(), f.property.ID, uploadReq("", false))
	require.ErrorIs(t, err, utils.ErrNotPropertyHost)
	require.Equal(t, 0, f.store.uploads)

	missing, err := f.svc.UploadImage(ctx, f.hostID, uuid.New(), uploadReq("", false))
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestUploadImage_StoreFailureLeavesNoRow(t *testing.T) {
	f := newPropertyFixture(t)
	ctx := context.Background()

	f.store.uploadErr = errors.New("cloudinary: HTTP 500")

	_, err := f.svc.UploadImage(ctx, f.hostID, f.property.ID, uploadReq("", false))
	require.Error(t, err)

	imgs, err := f.imageRepo.ListByPropertyID(ctx, f.property.ID)
	require.NoError(t, err)
	require.Empty(t, imgs)
}

func TestUploadImage_NewPrimaryReplacesOld(t *testing.T) {
	f := newPropertyFixture(t)
	ctx := context.Background()

	first, err := f.svc.UploadImage(ctx, f.hostID, f.property.ID, uploadReq("old cover", true))
	require.NoError(t, err)
	require.True(t, first.IsPrimary)

	second, err := f.svc.UploadImage(ctx, f.hostID, f.property.ID, uploadReq("new cover", true))
	require.NoError(t, err)
	require.True(t, second.IsPrimary)

	imgs, err := f.svc.ListImages(ctx, f.property.ID)
	require.NoError(t, err)
	require.Len(t, imgs, 2)
	for _, img := range imgs {
		require.Equal(t, img.ID == second.ID, img.IsPrimary)
	}
}

func TestDeleteImage(t *testing.T) {
	f := newPropertyFixture(t)
	ctx := context.Background()

	img, err := f.svc.UploadImage(ctx, f.hostID, f.property.ID, uploadReq("", false))
	require.NoError(t, err)

	require.ErrorIs(t,
		f.svc.DeleteImage(ctx, uuid.New(), f.property.ID, img.ID),
		utils.ErrNotPropertyHost)

	require.NoError(t, f.svc.DeleteImage(ctx, f.hostID, f.property.ID, img.ID))
	require.Equal(t, []string{img.URL}, f.store.deleted)

	gone, err := f.imageRepo.GetByID(ctx, img.ID)
	require.NoError(t, err)
	require.Nil(t, gone)

	require.ErrorIs(t,
		f.svc.DeleteImage(ctx, f.hostID, f.property.ID, img.ID),
		pgx.ErrNoRows)
}

func TestListImages_UnknownProperty(t *testing.T) {
	f := newPropertyFixture(t)

	_, err := f.svc.ListImages(context.Background(), uuid.New())
	require.ErrorIs(t, err, pgx.ErrNoRows)
}
