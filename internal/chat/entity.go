// AngelaMos | 2026
// entity.go

package chat

import (
	"time"
)

type Message struct {
	ID          int64     `db:"id"`
	SenderID    int64     `db:"sender_id"`
	RecipientID int64     `db:"recipient_id"`
	Body        string    `db:"body"`
	SentAt      time.Time `db:"sent_at"`
	Read        bool      `db:"read"`
}

// Envelope is the wire shape pushed to live connections and returned by the
// history endpoint.
type Envelope struct {
	SenderUserID    int64     `json:"sender_user_id"`
	RecipientUserID int64     `json:"recipient_user_id"`
	Message         string    `json:"message"`
	DateSent        time.Time `json:"date_sent"`
	Read            bool      `json:"read"`
}

func (m *Message) Envelope() Envelope {
	return Envelope{
		SenderUserID:    m.SenderID,
		RecipientUserID: m.RecipientID,
		Message:         m.Body,
		DateSent:        m.SentAt,
		Read:            m.Read,
	}
}
