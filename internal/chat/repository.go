// AngelaMos | 2026
// repository.go

package chat

import (
	"context"
	"fmt"

	"github.com/bandmate/backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, m *Message) error
	ListConversation(ctx context.Context, userA, userB int64) ([]Message, error)
	MarkConversationRead(ctx context.Context, recipientID, senderID int64) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, m *Message) error {
	query := `
		INSERT INTO messages (sender_id, recipient_id, body, read)
		VALUES ($1, $2, $3, $4)
		RETURNING id, sent_at`

	err := r.db.GetContext(ctx, m, query,
		m.SenderID,
		m.RecipientID,
		m.Body,
		m.Read,
	)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}

	return nil
}

func (r *repository) ListConversation(
	ctx context.Context,
	userA, userB int64,
) ([]Message, error) {
	query := `
		SELECT id, sender_id, recipient_id, body, sent_at, read
		FROM messages
		WHERE (sender_id = $1 AND recipient_id = $2)
		   OR (sender_id = $2 AND recipient_id = $1)
		ORDER BY sent_at`

	var messages []Message
	if err := r.db.SelectContext(ctx, &messages, query, userA, userB); err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}

	return messages, nil
}

// MarkConversationRead flags every message from sender to recipient as read.
// Called when the recipient opens the conversation history.
func (r *repository) MarkConversationRead(
	ctx context.Context,
	recipientID, senderID int64,
) error {
	query := `
		UPDATE messages SET read = TRUE
		WHERE recipient_id = $1 AND sender_id = $2 AND read = FALSE`

	if _, err := r.db.ExecContext(ctx, query, recipientID, senderID); err != nil {
		return fmt.Errorf("mark conversation read: %w", err)
	}

	return nil
}
