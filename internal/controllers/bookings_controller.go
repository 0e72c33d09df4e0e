package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stayloop/stays-service/internal/constants"
	"github.com/stayloop/stays-service/internal/dtos"
	"github.com/stayloop/stays-service/internal/middleware"
	"github.com/stayloop/stays-service/internal/models"
	"github.com/stayloop/stays-service/internal/services"
	"github.com/stayloop/stays-service/internal/utils"
)

type BookingsController struct {
	bookingService *services.BookingService
}

func NewBookingsController(bs *services.BookingService) *BookingsController {
	return &BookingsController{bookingService: bs}
}

// ----------------------------------------------------------------
// POST /api/v1/bookings
// ----------------------------------------------------------------
func (c *BookingsController) CreateHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized,
			utils.ErrCodeUnauthorized, "No userID in context", nil)
		return
	}

	var req dtos.BookingCreateRequest
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

	propertyID, _ := uuid.Parse(req.PropertyID)
	checkIn, _ := time.Parse("2006-01-02", req.CheckIn)
	checkOut, _ := time.Parse("2006-01-02", req.CheckOut)

	booking, err := c.bookingService.Create(ctx, userID, propertyID, checkIn, checkOut)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidDateRange) ||
			errors.Is(err, utils.ErrCheckInPast) ||
			errors.Is(err, utils.ErrOutsideAvailability) ||
			errors.Is(err, utils.ErrOwnProperty) {
			utils.RespondErrorWithCode(w, http.StatusBadRequest,
				err.Error(), "Cannot create booking", nil, err)
			return
		}
		if errors.Is(err, utils.ErrDatesUnavailable) {
			utils.RespondErrorWithCode(w, http.StatusConflict,
				utils.ErrDatesUnavailable.Error(),
				"The requested dates are no longer available", nil, err)
			return
		}
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not create booking", nil, err)
		return
	}
	if booking == nil {
		utils.RespondErrorWithCode(w, http.StatusNotFound,
			utils.ErrCodeNotFound, "Property not found", nil)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, dtos.NewBookingFromModel(booking))
}

// ----------------------------------------------------------------
// GET /api/v1/bookings
// ----------------------------------------------------------------
func (c *BookingsController) ListHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized,
			utils.ErrCodeUnauthorized, "No userID in context", nil)
		return
	}

	bookings, err := c.bookingService.ListForUser(ctx, userID)
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
// GET /api/v1/bookings/{id}
// ----------------------------------------------------------------
func (c *BookingsController) GetHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized,
			utils.ErrCodeUnauthorized, "No userID in context", nil)
		return
	}

	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, "Invalid booking ID", nil, err)
		return
	}

	booking, err := c.bookingService.GetByID(ctx, userID, bookingID)
	if err != nil {
		if errors.Is(err, utils.ErrNotBookingParty) {
			utils.RespondErrorWithCode(w, http.StatusForbidden,
				utils.ErrCodeForbidden, "Not a party to this booking", nil, err)
			return
		}
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not fetch booking", nil, err)
		return
	}
	if booking == nil {
		utils.RespondErrorWithCode(w, http.StatusNotFound,
			utils.ErrCodeNotFound, "Booking not found", nil)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.NewBookingFromModel(booking))
}

// ----------------------------------------------------------------
// POST /api/v1/bookings/{id}/confirm
// ----------------------------------------------------------------
func (c *BookingsController) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	c.transitionHandler(w, r, c.bookingService.Confirm, "confirm")
}

// ----------------------------------------------------------------
// POST /api/v1/bookings/{id}/cancel
// ----------------------------------------------------------------
func (c *BookingsController) CancelHandler(w http.ResponseWriter, r *http.Request) {
	c.transitionHandler(w, r, c.bookingService.Cancel, "cancel")
}

func (c *BookingsController) transitionHandler(
	w http.ResponseWriter,
	r *http.Request,
	transition func(ctx context.Context, actorID, bookingID uuid.UUID) (*models.Booking, error),
	verb string,
) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized,
			utils.ErrCodeUnauthorized, "No userID in context", nil)
		return
	}

	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, "Invalid booking ID", nil, err)
		return
	}

	updated, err := transition(ctx, userID, bookingID)
	if err != nil {
		var conflict *utils.VersionConflictError
		if errors.As(err, &conflict) {
			var details any
			if conflict.Current != nil {
				latest := dtos.NewBookingFromModel(conflict.Current)
				details = latest
			}
			utils.RespondErrorWithCode(w, http.StatusConflict,
				utils.ErrCodeRowVersionConflict,
				constants.ErrMsgRowVersionConflictRefresh, details, err)
			return
		}
		if errors.Is(err, utils.ErrNotPropertyHost) || errors.Is(err, utils.ErrNotBookingParty) {
			utils.RespondErrorWithCode(w, http.StatusForbidden,
				utils.ErrCodeForbidden, "Not allowed to "+verb+" this booking", nil, err)
			return
		}
		if errors.Is(err, utils.ErrInvalidTransition) || errors.Is(err, utils.ErrBookingNotCancellable) {
			utils.RespondErrorWithCode(w, http.StatusBadRequest,
				err.Error(), "Cannot "+verb+" booking in its current status", nil, err)
			return
		}
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not "+verb+" booking", nil, err)
		return
	}
	if updated == nil {
		utils.RespondErrorWithCode(w, http.StatusNotFound,
			utils.ErrCodeNotFound, "Booking not found", nil)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.NewBookingFromModel(updated))
}
