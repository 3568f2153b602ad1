// AngelaMos | 2026
// repository.go

package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bandmate/backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id int64) (*Notification, error)
	ListForUser(ctx context.Context, userID int64) ([]Notification, error)
	MarkRead(ctx context.Context, id int64) error
	DeleteForUser(ctx context.Context, userID int64) error
}

type repository struct {
	db core.DBTX
}

// NewRepository accepts either the shared pool or an open transaction, so
// workflow code can persist notifications atomically with other writes.
func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications (user_id, message, priority, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, read, sent_at`

	err := r.db.GetContext(ctx, n, query,
		n.UserID,
		n.Message,
		n.Priority,
		n.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	id int64,
) (*Notification, error) {
	query := `
		SELECT id, user_id, message, priority, read, sent_at, expires_at
		FROM notifications
		WHERE id = $1`

	var n Notification
	err := r.db.GetContext(ctx, &n, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get notification: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}

	return &n, nil
}

func (r *repository) ListForUser(
	ctx context.Context,
	userID int64,
) ([]Notification, error) {
	query := `
		SELECT id, user_id, message, priority, read, sent_at, expires_at
		FROM notifications
		WHERE user_id = $1 AND expires_at > NOW()
		ORDER BY sent_at DESC`

	var notifications []Notification
	if err := r.db.SelectContext(ctx, &notifications, query, userID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	return notifications, nil
}

func (r *repository) MarkRead(ctx context.Context, id int64) error {
	query := `UPDATE notifications SET read = TRUE WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("mark notification read: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) DeleteForUser(ctx context.Context, userID int64) error {
	query := `DELETE FROM notifications WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete notifications for user: %w", err)
	}

	return nil
}
