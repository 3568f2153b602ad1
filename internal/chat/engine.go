// AngelaMos | 2026
// engine.go

package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bandmate/backend/internal/notification"
)

// NameDirectory resolves a user's display name for the offline notice;
// user.Service implements it.
type NameDirectory interface {
	DisplayName(ctx context.Context, userID int64) (string, error)
}

// Notifier is the dispatcher interface the engine falls back to when the
// recipient has no live connections; notification.Service implements it.
type Notifier interface {
	Notify(
		ctx context.Context,
		recipientID int64,
		message string,
		expiresAt time.Time,
		priority string,
	) error
}

// Engine routes a message to its durable home and to any live connections.
// Persistence always happens first; pushes to connections are best-effort
// at-most-once on top of it.
type Engine struct {
	repo          Repository
	registry      *Registry
	notifier      Notifier
	names         NameDirectory
	offlineExpiry time.Duration
}

func NewEngine(
	repo Repository,
	registry *Registry,
	notifier Notifier,
	names NameDirectory,
	offlineExpiry time.Duration,
) *Engine {
	return &Engine{
		repo:          repo,
		registry:      registry,
		notifier:      notifier,
		names:         names,
		offlineExpiry: offlineExpiry,
	}
}

// Deliver persists the message and fans it out. The stored read flag is the
// recipient's online status at persistence time: a recipient with a live
// connection is assumed to see the push. The approximation is deliberate;
// the history endpoint reconciles the flag when the conversation is opened.
//
// origin is the connection the message arrived on; it is excluded from the
// sender echo. Pass nil when there is no originating connection.
func (e *Engine) Deliver(
	ctx context.Context,
	senderID, recipientID int64,
	body string,
	origin Conn,
) (*Message, error) {
	msg := &Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		Read:        e.registry.IsOnline(recipientID),
	}

	if err := e.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	env := msg.Envelope()

	delivered := e.fanOut(recipientID, nil, env)

	if delivered == 0 {
		if err := e.notifyOffline(ctx, senderID, recipientID); err != nil {
			return nil, err
		}
	}

	// Multi-device echo to the sender's other open connections.
	e.fanOut(senderID, origin, env)

	return msg, nil
}

// fanOut writes the envelope to every connection in the user's snapshot
// except skip, and returns the number of successful writes. Connections
// whose write fails are pruned after the loop so one broken device never
// starves the others.
func (e *Engine) fanOut(userID int64, skip Conn, env Envelope) int {
	conns := e.registry.ConnectionsFor(userID)

	var delivered int
	var broken []Conn
	for _, c := range conns {
		if c == skip {
			continue
		}
		if err := c.WriteJSON(env); err != nil {
			broken = append(broken, c)
			continue
		}
		delivered++
	}

	for _, c := range broken {
		e.registry.Deregister(userID, c)
		//nolint:errcheck // connection is already broken
		_ = c.Close()
		slog.Warn("pruned broken chat connection", "user_id", userID)
	}

	return delivered
}

func (e *Engine) notifyOffline(
	ctx context.Context,
	senderID, recipientID int64,
) error {
	name, err := e.names.DisplayName(ctx, senderID)
	if err != nil {
		return fmt.Errorf("resolve sender name: %w", err)
	}

	return e.notifier.Notify(
		ctx,
		recipientID,
		fmt.Sprintf("New message from %s", name),
		time.Now().Add(e.offlineExpiry),
		notification.PriorityNormal,
	)
}
