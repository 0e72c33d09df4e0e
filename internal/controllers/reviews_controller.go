package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stayloop/stays-service/internal/dtos"
	"github.com/stayloop/stays-service/internal/middleware"
	"github.com/stayloop/stays-service/internal/services"
	"github.com/stayloop/stays-service/internal/utils"
)

type ReviewsController struct {
	reviewService *services.ReviewService
}

func NewReviewsController(rs *services.ReviewService) *ReviewsController {
	return &ReviewsController{reviewService: rs}
}

// ----------------------------------------------------------------
// POST /api/v1/properties/{id}/reviews
// ----------------------------------------------------------------
func (c *ReviewsController) CreateHandler(w http.ResponseWriter, r *http.Request) {
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

	var req dtos.ReviewCreateRequest
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

	review, err := c.reviewService.Create(ctx, userID, propertyID, req)
	if err != nil {
		if errors.Is(err, utils.ErrReviewExists) {
			utils.RespondErrorWithCode(w, http.StatusConflict,
				utils.ErrReviewExists.Error(),
				"You have already reviewed this property", nil, err)
			return
		}
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not create review", nil, err)
		return
	}
	if review == nil {
		utils.RespondErrorWithCode(w, http.StatusNotFound,
			utils.ErrCodeNotFound, "Property not found", nil)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, dtos.NewReviewFromModel(review))
}

// ----------------------------------------------------------------
// GET /api/v1/properties/{id}/reviews
// ----------------------------------------------------------------
func (c *ReviewsController) ListHandler(w http.ResponseWriter, r *http.Request) {
	propertyID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, "Invalid property ID", nil, err)
		return
	}

	list, err := c.reviewService.ListByProperty(r.Context(), propertyID)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not list reviews", nil, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, list)
}
