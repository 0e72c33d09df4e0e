package dtos

import (
	"time"

	"github.com/stayloop/stays-service/internal/models"
)

type MessageSendRequest struct {
	RecipientID string `json:"recipient_id" validate:"required,uuid4"`
	Body        string `json:"body" validate:"required,max=5000"`
}

type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Body        string    `json:"body"`
	IsRead      bool      `json:"is_read"`
	SentAt      time.Time `json:"sent_at"`
}

func NewMessageFromModel(m *models.Message) Message {
	return Message{
		ID:          m.ID.String(),
		SenderID:    m.SenderID.String(),
		RecipientID: m.RecipientID.String(),
		Body:        m.Body,
		IsRead:      m.IsRead,
		SentAt:      m.SentAt,
	}
}

type Conversation struct {
	OtherUserID string   `json:"other_user_id"`
	LastMessage *Message `json:"last_message,omitempty"`
	UnreadCount int      `json:"unread_count"`
}

func NewConversationFromModel(c *models.Conversation) Conversation {
	out := Conversation{
		OtherUserID: c.OtherUserID.String(),
		UnreadCount: c.UnreadCount,
	}
	if c.LastMessage != nil {
		m := NewMessageFromModel(c.LastMessage)
		out.LastMessage = &m
	}
	return out
}
