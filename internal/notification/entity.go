// AngelaMos | 2026
// entity.go

package notification

import (
	"time"
)

const (
	PriorityHigh   = "high"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

type Notification struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Message   string    `db:"message"`
	Priority  string    `db:"priority"`
	Read      bool      `db:"read"`
	SentAt    time.Time `db:"sent_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

func (n *Notification) IsExpired() bool {
	return time.Now().After(n.ExpiresAt)
}
