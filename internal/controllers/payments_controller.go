package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stayloop/stays-service/internal/dtos"
	"github.com/stayloop/stays-service/internal/middleware"
	"github.com/stayloop/stays-service/internal/models"
	"github.com/stayloop/stays-service/internal/services"
	"github.com/stayloop/stays-service/internal/utils"
)

type PaymentsController struct {
	paymentService *services.PaymentService
}

func NewPaymentsController(ps *services.PaymentService) *PaymentsController {
	return &PaymentsController{paymentService: ps}
}

// ----------------------------------------------------------------
// POST /api/v1/bookings/{id}/payment
// ----------------------------------------------------------------
func (c *PaymentsController) RecordHandler(w http.ResponseWriter, r *http.Request) {
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

	var req dtos.PaymentCreateRequest
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

	payment, err := c.paymentService.Record(ctx, userID, bookingID, models.PaymentMethodType(req.Method))
	if err != nil {
		if errors.Is(err, utils.ErrNotBookingParty) {
			utils.RespondErrorWithCode(w, http.StatusForbidden,
				utils.ErrCodeForbidden, "Only the guest can pay for this booking", nil, err)
			return
		}
		if errors.Is(err, utils.ErrInvalidTransition) {
			utils.RespondErrorWithCode(w, http.StatusBadRequest,
				utils.ErrInvalidTransition.Error(),
				"Booking is not payable in its current status", nil, err)
			return
		}
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not record payment", nil, err)
		return
	}
	if payment == nil {
		utils.RespondErrorWithCode(w, http.StatusNotFound,
			utils.ErrCodeNotFound, "Booking not found", nil)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, dtos.NewPaymentFromModel(payment))
}

// ----------------------------------------------------------------
// GET /api/v1/bookings/{id}/payment
// ----------------------------------------------------------------
func (c *PaymentsController) GetHandler(w http.ResponseWriter, r *http.Request) {
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

	payment, err := c.paymentService.GetForBooking(ctx, userID, bookingID)
	if err != nil {
		if errors.Is(err, utils.ErrNotBookingParty) {
			utils.RespondErrorWithCode(w, http.StatusForbidden,
				utils.ErrCodeForbidden, "Not a party to this booking", nil, err)
			return
		}
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not fetch payment", nil, err)
		return
	}
	if payment == nil {
		utils.RespondErrorWithCode(w, http.StatusNotFound,
			utils.ErrCodeNotFound, "Payment not found", nil)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.NewPaymentFromModel(payment))
}
