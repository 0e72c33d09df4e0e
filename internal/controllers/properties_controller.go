package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v4"
	"github.com/stayloop/stays-service/internal/constants"
	"github.com/stayloop/stays-service/internal/dtos"
	"github.com/stayloop/stays-service/internal/middleware"
	"github.com/stayloop/stays-service/internal/models"
	"github.com/stayloop/stays-service/internal/repositories"
	"github.com/stayloop/stays-service/internal/services"
	"github.com/stayloop/stays-service/internal/utils"
)

type PropertiesController struct {
	propertyService *services.PropertyService
	bookingService  *services.BookingService
}

func NewPropertiesController(
	ps *services.PropertyService,
	bs *services.BookingService,
) *PropertiesController {
	return &PropertiesController{propertyService: ps, bookingService: bs}
}

// ----------------------------------------------------------------
// POST /api/v1/properties
// ----------------------------------------------------------------
func (c *PropertiesController) CreateHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized,
			utils.ErrCodeUnauthorized, "No userID in context", nil)
		return
	}

	var req dtos.PropertyCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeValidation, err.Error(), nil, err)
		return
	}

	prop, err := c.propertyService.Create(ctx, userID, req)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidDateRange) {
			utils.RespondErrorWithCode(w, http.StatusBadRequest,
				utils.ErrInvalidDateRange.Error(), "Invalid availability window", nil, err)
			return
		}
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not create property", nil, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, dtos.NewPropertyFromModel(prop))
}

// ----------------------------------------------------------------
// GET /api/v1/properties
// ----------------------------------------------------------------
func (c *PropertiesController) ListHandler(w http.ResponseWriter, r *http.Request) {
	filter := repositories.PropertyFilter{
		Location: r.URL.Query().Get("location"),
	}
	if pt := r.URL.Query().Get("property_type"); pt != "" {
		filter.PropertyType = models.PropertyType(pt)
	}
	if mp := r.URL.Query().Get("max_price"); mp != "" {
		v, err := strconv.ParseFloat(mp, 64)
		if err != nil {
			utils.RespondErrorWithCode(w, http.StatusBadRequest,
				utils.ErrCodeInvalidPayload, "Invalid max_price", nil, err)
			return
		}
		filter.MaxPrice = v
	}
	if mg := r.URL.Query().Get("min_guests"); mg != "" {
		v, err := strconv.Atoi(mg)
		if err != nil {
			utils.RespondErrorWithCode(w, http.StatusBadRequest,
				utils.ErrCodeInvalidPayload, "Invalid min_guests", nil, err)
			return
		}
		filter.MinGuests = v
	}
	if h := r.URL.Query().Get("host_id"); h != "" {
		id, err := uuid.Parse(h)
		if err != nil {
			utils.RespondErrorWithCode(w, http.StatusBadRequest,
				utils.ErrCodeInvalidPayload, "Invalid host_id", nil, err)
			return
		}
		filter.HostID = id
	}

	props, err := c.propertyService.List(r.Context(), filter)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not list properties", nil, err)
		return
	}

	out := make([]dtos.Property, 0, len(props))
	for _, p := range props {
		out = append(out, dtos.NewPropertyFromModel(p))
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// ----------------------------------------------------------------
// GET /api/v1/properties/{id}
// ----------------------------------------------------------------
func (c *PropertiesController) GetHandler(w http.ResponseWriter, r *http.Request) {
	propertyID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, "Invalid property ID", nil, err)
		return
	}

	prop, err := c.propertyService.GetByID(r.Context(), propertyID)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not fetch property", nil, err)
		return
	}
	if prop == nil {
		utils.RespondErrorWithCode(w, http.StatusNotFound,
			utils.ErrCodeNotFound, "Property not found", nil)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.NewPropertyFromModel(prop))
}

// ----------------------------------------------------------------
// PUT /api/v1/properties/{id}
// ----------------------------------------------------------------
func (c *PropertiesController) PatchHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized,
			utils.ErrCodeUnauthorized, "No userID in context", nil)
		return
	}

	propertyID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, "Invalid property ID", nil, err)
		return
	}

	var req dtos.PropertyPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeValidation, err.Error(), nil, err)
		return
	}

	prop, err := c.propertyService.Patch(ctx, userID, propertyID, req)
	if err != nil {
		if errors.Is(err, utils.ErrNotPropertyHost) {
			utils.RespondErrorWithCode(w, http.StatusForbidden,
				utils.ErrCodeForbidden, "Only the host can update this property", nil, err)
			return
		}
		if errors.Is(err, utils.ErrInvalidDateRange) {
			utils.RespondErrorWithCode(w, http.StatusBadRequest,
				utils.ErrInvalidDateRange.Error(), "Invalid availability window", nil, err)
			return
		}
		if errors.Is(err, utils.ErrNoRowsUpdated) || errors.Is(err, utils.ErrRowVersionConflict) {
			utils.RespondErrorWithCode(w, http.StatusConflict,
				utils.ErrCodeRowVersionConflict, constants.ErrMsgNoRowsUpdated, nil, err)
			return
		}
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not update property", nil, err)
		return
	}
	if prop == nil {
		utils.RespondErrorWithCode(w, http.StatusNotFound,
			utils.ErrCodeNotFound, "Property not found", nil)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.NewPropertyFromModel(prop))
}

// ----------------------------------------------------------------
// DELETE /api/v1/properties/{id}
// ----------------------------------------------------------------
func (c *PropertiesController) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized,
			utils.ErrCodeUnauthorized, "No userID in context", nil)
		return
	}

	propertyID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, "Invalid property ID", nil, err)
		return
	}

	if err := c.propertyService.Delete(ctx, userID, propertyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.RespondErrorWithCode(w, http.StatusNotFound,
				utils.ErrCodeNotFound, "Property not found", nil, err)
			return
		}
		if errors.Is(err, utils.ErrNotPropertyHost) {
			utils.RespondErrorWithCode(w, http.StatusForbidden,
				utils.ErrCodeForbidden, "Only the host can delete this property", nil, err)
			return
		}
		if errors.Is(err, utils.ErrActiveBookings) {
			utils.RespondErrorWithCode(w, http.StatusConflict,
				utils.ErrActiveBookings.Error(),
				"Property still has active bookings", nil, err)
			return
		}
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not delete property", nil, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ----------------------------------------------------------------
// GET /api/v1/properties/{id}/bookings  (host only)
// ----------------------------------------------------------------
func (c *PropertiesController) ActiveBookingsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized,
			utils.ErrCodeUnauthorized, "No userID in context", nil)
		return
	}

	propertyID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, "Invalid property ID", nil, err)
		return
	}

	prop, err := c.propertyService.GetByID(ctx, propertyID)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not fetch property", nil, err)
		return
	}
	if prop == nil {
		utils.RespondErrorWithCode(w, http.StatusNotFound,
			utils.ErrCodeNotFound, "Property not found", nil)
		return
	}
	if prop.HostID != userID {
		utils.RespondErrorWithCode(w, http.StatusForbidden,
			utils.ErrCodeForbidden, "Only the host can list this property's bookings", nil)
		return
	}

	bookings, err := c.bookingService.ListActiveByPropertyID(ctx, propertyID)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not list bookings", nil, err)
		return
	}

	out := make([]dtos.Booking, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, dtos.NewBookingFromModel(b))
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// ----------------------------------------------------------------
// POST /api/v1/properties/{id}/images  (host only)
// ----------------------------------------------------------------
func (c *PropertiesController) UploadImageHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized,
			utils.ErrCodeUnauthorized, "No userID in context", nil)
		return
	}

	propertyID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, "Invalid property ID", nil, err)
		return
	}

	var req dtos.PropertyImageUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeValidation, err.Error(), nil, err)
		return
	}

	img, err := c.propertyService.UploadImage(ctx, userID, propertyID, req)
	if err != nil {
		if errors.Is(err, utils.ErrNotPropertyHost) {
			utils.RespondErrorWithCode(w, http.StatusForbidden,
				utils.ErrCodeForbidden, "Only the host can upload images", nil, err)
			return
		}
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not upload image", nil, err)
		return
	}
	if img == nil {
		utils.RespondErrorWithCode(w, http.StatusNotFound,
			utils.ErrCodeNotFound, "Property not found", nil)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, dtos.NewPropertyImageFromModel(img))
}

// ----------------------------------------------------------------
// GET /api/v1/properties/{id}/images
// ----------------------------------------------------------------
func (c *PropertiesController) ListImagesHandler(w http.ResponseWriter, r *http.Request) {
	propertyID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, "Invalid property ID", nil, err)
		return
	}

	imgs, err := c.propertyService.ListImages(r.Context(), propertyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.RespondErrorWithCode(w, http.StatusNotFound,
				utils.ErrCodeNotFound, "Property not found", nil, err)
			return
		}
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not list images", nil, err)
		return
	}

	out := make([]dtos.PropertyImage, 0, len(imgs))
	for _, img := range imgs {
		out = append(out, dtos.NewPropertyImageFromModel(img))
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// ----------------------------------------------------------------
// DELETE /api/v1/properties/{id}/images/{imageId}  (host only)
// ----------------------------------------------------------------
func (c *PropertiesController) DeleteImageHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized,
			utils.ErrCodeUnauthorized, "No userID in context", nil)
		return
	}

	vars := mux.Vars(r)
	propertyID, err := uuid.Parse(vars["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, "Invalid property ID", nil, err)
		return
	}
	imageID, err := uuid.Parse(vars["imageId"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, "Invalid image ID", nil, err)
		return
	}

	if err := c.propertyService.DeleteImage(ctx, userID, propertyID, imageID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.RespondErrorWithCode(w, http.StatusNotFound,
				utils.ErrCodeNotFound, "Image not found", nil, err)
			return
		}
		if errors.Is(err, utils.ErrNotPropertyHost) {
			utils.RespondErrorWithCode(w, http.StatusForbidden,
				utils.ErrCodeForbidden, "Only the host can delete images", nil, err)
			return
		}
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not delete image", nil, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
