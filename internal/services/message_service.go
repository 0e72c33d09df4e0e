package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stayloop/stays-service/internal/models"
	"github.com/stayloop/stays-service/internal/repositories"
	"github.com/stayloop/stays-service/internal/utils"
)

type MessageService struct {
	messageRepo repositories.MessageRepository
	userRepo    repositories.UserRepository
	notifier    messageNotifier
}

// messageNotifier is satisfied by NotificationService. A nil notifier
// disables the email hook.
type messageNotifier interface {
	NotifyNewMessage(ctx context.Context, msg *models.Message) error
}

func NewMessageService(
	messageRepo repositories.MessageRepository,
	userRepo repositories.UserRepository,
	notifier messageNotifier,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		notifier:    notifier,
	}
}

func (s *MessageService) Send(
	ctx context.Context,
	senderID uuid.UUID,
	recipientID uuid.UUID,
	body string,
) (*models.Message, error) {
	if senderID == recipientID {
		return nil, utils.ErrSelfMessage
	}

	recipient, err := s.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, nil
	}

	msg := &models.Message{
		ID:          uuid.New(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		// The message is stored; the email is best effort.
		if err := s.notifier.NotifyNewMessage(ctx, msg); err != nil {
			utils.Logger.WithError(err).Errorf("Failed to notify recipient %s of message %s", recipientID, msg.ID)
		}
	}
	return msg, nil
}

// Conversation returns the full thread with one counterparty and marks
// everything they sent as read.
func (s *MessageService) Conversation(
	ctx context.Context,
	userID uuid.UUID,
	otherUserID uuid.UUID,
) ([]*models.Message, error) {
	msgs, err := s.messageRepo.ListBetween(ctx, userID, otherUserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.messageRepo.MarkConversationRead(ctx, userID, otherUserID); err != nil {
		utils.Logger.WithError(err).Errorf("Failed to mark conversation %s/%s read", userID, otherUserID)
	}
	return msgs, nil
}

func (s *MessageService) ListConversations(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error) {
	return s.messageRepo.ListConversations(ctx, userID)
}

func (s *MessageService) MarkRead(ctx context.Context, userID uuid.UUID, otherUserID uuid.UUID) (int64, error) {
	return s.messageRepo.MarkConversationRead(ctx, userID, otherUserID)
}
