package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/stayloop/stays-service/internal/dtos"
	"github.com/stayloop/stays-service/internal/middleware"
	"github.com/stayloop/stays-service/internal/services"
	"github.com/stayloop/stays-service/internal/utils"
)

type UsersController struct {
	userService *services.UserService
}

func NewUsersController(us *services.UserService) *UsersController {
	return &UsersController{userService: us}
}

// ----------------------------------------------------------------
// POST /api/v1/users/register
// ----------------------------------------------------------------
func (c *UsersController) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.RegisterRequest
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

	user, err := c.userService.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, utils.ErrEmailExists) {
			utils.RespondErrorWithCode(w, http.StatusConflict,
				utils.ErrEmailExists.Error(), "An account with this email already exists", nil, err)
			return
		}
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not register user", nil, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, dtos.NewUserFromModel(user))
}

// ----------------------------------------------------------------
// POST /api/v1/users/login
// ----------------------------------------------------------------
func (c *UsersController) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.LoginRequest
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

	user, token, err := c.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidCredentials) {
			utils.RespondErrorWithCode(w, http.StatusUnauthorized,
				utils.ErrCodeInvalidCredentials, "Invalid email or password", nil)
			return
		}
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not log in", nil, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.LoginResponse{
		AccessToken: token,
		User:        dtos.NewUserFromModel(user),
	})
}

// ----------------------------------------------------------------
// GET /api/v1/users/me
// ----------------------------------------------------------------
func (c *UsersController) MeHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized,
			utils.ErrCodeUnauthorized, "No userID in context", nil)
		return
	}

	user, err := c.userService.GetByID(ctx, userID)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not fetch user", nil, err)
		return
	}
	if user == nil {
		utils.RespondErrorWithCode(w, http.StatusNotFound,
			utils.ErrCodeNotFound, "User not found", nil)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.NewUserFromModel(user))
}
