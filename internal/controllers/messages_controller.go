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

type MessagesController struct {
	messageService *services.MessageService
}

func NewMessagesController(ms *services.MessageService) *MessagesController {
	return &MessagesController{messageService: ms}
}

// ----------------------------------------------------------------
// POST /api/v1/messages
// ----------------------------------------------------------------
func (c *MessagesController) SendHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized,
			utils.ErrCodeUnauthorized, "No userID in context", nil)
		return
	}

	var req dtos.MessageSendRequest
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

	recipientID, _ := uuid.Parse(req.RecipientID)

	msg, err := c.messageService.Send(ctx, userID, recipientID, req.Body)
	if err != nil {
		if errors.Is(err, utils.ErrSelfMessage) {
			utils.RespondErrorWithCode(w, http.StatusBadRequest,
				utils.ErrSelfMessage.Error(), "Cannot message yourself", nil, err)
			return
		}
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not send message", nil, err)
		return
	}
	if msg == nil {
		utils.RespondErrorWithCode(w, http.StatusNotFound,
			utils.ErrCodeNotFound, "Recipient not found", nil)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, dtos.NewMessageFromModel(msg))
}

// ----------------------------------------------------------------
// GET /api/v1/messages/conversations
// ----------------------------------------------------------------
func (c *MessagesController) ConversationsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized,
			utils.ErrCodeUnauthorized, "No userID in context", nil)
		return
	}

	convs, err := c.messageService.ListConversations(ctx, userID)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not list conversations", nil, err)
		return
	}

	out := make([]dtos.Conversation, 0, len(convs))
	for _, cv := range convs {
		out = append(out, dtos.NewConversationFromModel(cv))
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// ----------------------------------------------------------------
// GET /api/v1/messages/{userId}
// ----------------------------------------------------------------
func (c *MessagesController) ConversationHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized,
			utils.ErrCodeUnauthorized, "No userID in context", nil)
		return
	}

	otherUserID, err := uuid.Parse(mux.Vars(r)["userId"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, "Invalid user ID", nil, err)
		return
	}

	msgs, err := c.messageService.Conversation(ctx, userID, otherUserID)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not fetch conversation", nil, err)
		return
	}

	out := make([]dtos.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, dtos.NewMessageFromModel(m))
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// ----------------------------------------------------------------
// POST /api/v1/messages/{userId}/read
// ----------------------------------------------------------------
func (c *MessagesController) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized,
			utils.ErrCodeUnauthorized, "No userID in context", nil)
		return
	}

	otherUserID, err := uuid.Parse(mux.Vars(r)["userId"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, "Invalid user ID", nil, err)
		return
	}

	n, err := c.messageService.MarkRead(ctx, userID, otherUserID)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Could not mark conversation read", nil, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]int64{"marked_read": n})
}
