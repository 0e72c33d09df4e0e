package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/stayloop/stays-service/internal/models"
)

type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	ListBetween(ctx context.Context, userA, userB uuid.UUID) ([]*models.Message, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error)
	MarkConversationRead(ctx context.Context, recipientID, senderID uuid.UUID) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type messageRepo struct {
	db DB
}

func NewMessageRepository(db DB) MessageRepository {
	return &messageRepo{db: db}
}

func baseSelectMessage() string {
	return `
        SELECT id, sender_id, recipient_id, body, is_read, sent_at
        FROM messages
    `
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	err := row.Scan(
		&m.ID,
		&m.SenderID,
		&m.RecipientID,
		&m.Body,
		&m.IsRead,
		&m.SentAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *messageRepo) Create(ctx context.Context, m *models.Message) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO messages (id, sender_id, recipient_id, body, is_read, sent_at)
        VALUES ($1,$2,$3,$4,FALSE,NOW())
    `,
		m.ID,
		m.SenderID,
		m.RecipientID,
		m.Body,
	)
	return err
}

func (r *messageRepo) ListBetween(ctx context.Context, userA, userB uuid.UUID) ([]*models.Message, error) {
	q := baseSelectMessage() + `
        WHERE (sender_id=$1 AND recipient_id=$2)
           OR (sender_id=$2 AND recipient_id=$1)
        ORDER BY sent_at
    `
	rows, err := r.db.Query(ctx, q, userA, userB)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *messageRepo) ListConversations(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error) {
	// One row per counterparty: the latest message plus the unread count of
	// messages addressed to the caller.
	q := `
        SELECT DISTINCT ON (other_user_id)
            other_user_id, id, sender_id, recipient_id, body, is_read, sent_at,
            (
                SELECT COUNT(*) FROM messages u
                WHERE u.recipient_id = $1
                  AND u.sender_id = m.other_user_id
                  AND u.is_read = FALSE
            ) AS unread_count
        FROM (
            SELECT *,
                CASE WHEN sender_id = $1 THEN recipient_id ELSE sender_id END AS other_user_id
            FROM messages
            WHERE sender_id = $1 OR recipient_id = $1
        ) m
        ORDER BY other_user_id, sent_at DESC
    `
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Conversation
	for rows.Next() {
		var (
			c    models.Conversation
			last models.Message
		)
		err := rows.Scan(
			&c.OtherUserID,
			&last.ID,
			&last.SenderID,
			&last.RecipientID,
			&last.Body,
			&last.IsRead,
			&last.SentAt,
			&c.UnreadCount,
		)
		if err != nil {
			return nil, err
		}
		c.LastMessage = &last
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *messageRepo) MarkConversationRead(ctx context.Context, recipientID, senderID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE messages SET is_read=TRUE
        WHERE recipient_id=$1 AND sender_id=$2 AND is_read=FALSE
    `, recipientID, senderID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *messageRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM messages WHERE sent_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
