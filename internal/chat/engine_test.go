// AngelaMos | 2026
// engine_test.go

package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bandmate/backend/internal/notification"
)

type fakeRepo struct {
	created []*Message
	err     error
}

func (f *fakeRepo) Create(_ context.Context, m *Message) error {
	if f.err != nil {
		return f.err
	}
	m.ID = int64(len(f.created) + 1)
	m.SentAt = time.Now()
	f.created = append(f.created, m)
	return nil
}

func (f *fakeRepo) ListConversation(context.Context, int64, int64) ([]Message, error) {
	return nil, nil
}

func (f *fakeRepo) MarkConversationRead(context.Context, int64, int64) error {
	return nil
}

type fakeNotifier struct {
	calls []notifyCall
	err   error
}

type notifyCall struct {
	recipientID int64
	message     string
	expiresAt   time.Time
	priority    string
}

func (f *fakeNotifier) Notify(
	_ context.Context,
	recipientID int64,
	message string,
	expiresAt time.Time,
	priority string,
) error {
	f.calls = append(f.calls, notifyCall{recipientID, message, expiresAt, priority})
	return f.err
}

type fakeNames struct{ name string }

func (f fakeNames) DisplayName(context.Context, int64) (string, error) {
	return f.name, nil
}

type recordConn struct {
	envelopes []Envelope
	writeErr  error
	closed    bool
}

func (c *recordConn) WriteJSON(v any) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.envelopes = append(c.envelopes, v.(Envelope))
	return nil
}

func (c *recordConn) Close() error {
	c.closed = true
	return nil
}

func newTestEngine(repo Repository, notifier Notifier) (*Engine, *Registry) {
	registry := NewRegistry()
	engine := NewEngine(
		repo,
		registry,
		notifier,
		fakeNames{name: "Jimi Hendrix"},
		7*24*time.Hour,
	)
	return engine, registry
}

func TestDeliverOnlineRecipient(t *testing.T) {
	repo := &fakeRepo{}
	notifier := &fakeNotifier{}
	engine, registry := newTestEngine(repo, notifier)

	recipient := &recordConn{}
	registry.Register(2, recipient)

	msg, err := engine.Deliver(context.Background(), 1, 2, "soundcheck at 6", nil)
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	require.True(t, msg.Read, "online recipient stores the message as read")

	require.Len(t, recipient.envelopes, 1)
	env := recipient.envelopes[0]
	require.Equal(t, int64(1), env.SenderUserID)
	require.Equal(t, int64(2), env.RecipientUserID)
	require.Equal(t, "soundcheck at 6", env.Message)
	require.True(t, env.Read)

	require.Empty(t, notifier.calls, "no offline notice for a reachable recipient")
}

func TestDeliverOfflineRecipient(t *testing.T) {
	repo := &fakeRepo{}
	notifier := &fakeNotifier{}
	engine, _ := newTestEngine(repo, notifier)

	before := time.Now()
	msg, err := engine.Deliver(context.Background(), 1, 2, "rehearsal moved", nil)
	require.NoError(t, err)

	require.Len(t, repo.created, 1, "message persists regardless of reachability")
	require.False(t, msg.Read)

	require.Len(t, notifier.calls, 1)
	call := notifier.calls[0]
	require.Equal(t, int64(2), call.recipientID)
	require.Equal(t, "New message from Jimi Hendrix", call.message)
	require.Equal(t, notification.PriorityNormal, call.priority)
	require.WithinDuration(t,
		before.Add(7*24*time.Hour), call.expiresAt, 5*time.Second)
}

func TestDeliverPrunesBrokenConnections(t *testing.T) {
	repo := &fakeRepo{}
	notifier := &fakeNotifier{}
	engine, registry := newTestEngine(repo, notifier)

	healthy := &recordConn{}
	broken := &recordConn{writeErr: errors.New("write: broken pipe")}
	registry.Register(2, healthy)
	registry.Register(2, broken)

	_, err := engine.Deliver(context.Background(), 1, 2, "hello", nil)
	require.NoError(t, err)

	require.Len(t, healthy.envelopes, 1,
		"one broken device must not starve the others")
	require.True(t, broken.closed)
	require.Len(t, registry.ConnectionsFor(2), 1)

	require.Empty(t, notifier.calls,
		"a partially reachable recipient gets no offline notice")
}

func TestDeliverAllConnectionsBroken(t *testing.T) {
	repo := &fakeRepo{}
	notifier := &fakeNotifier{}
	engine, registry := newTestEngine(repo, notifier)

	broken := &recordConn{writeErr: errors.New("write: broken pipe")}
	registry.Register(2, broken)

	msg, err := engine.Deliver(context.Background(), 1, 2, "hello", nil)
	require.NoError(t, err)

	// The read flag reflects the registry at persistence time, before the
	// write failure is discovered.
	require.True(t, msg.Read)
	require.False(t, registry.IsOnline(2))
	require.Len(t, notifier.calls, 1,
		"zero successful pushes falls back to a notification")
}

func TestDeliverEchoesToSenderOtherDevices(t *testing.T) {
	repo := &fakeRepo{}
	notifier := &fakeNotifier{}
	engine, registry := newTestEngine(repo, notifier)

	origin := &recordConn{}
	laptop := &recordConn{}
	registry.Register(1, origin)
	registry.Register(1, laptop)

	recipient := &recordConn{}
	registry.Register(2, recipient)

	_, err := engine.Deliver(context.Background(), 1, 2, "hey", origin)
	require.NoError(t, err)

	require.Empty(t, origin.envelopes, "originating device is not echoed")
	require.Len(t, laptop.envelopes, 1)
	require.Len(t, recipient.envelopes, 1)
}

func TestDeliverPersistFailureSkipsFanOut(t *testing.T) {
	repo := &fakeRepo{err: errors.New("connection refused")}
	notifier := &fakeNotifier{}
	engine, registry := newTestEngine(repo, notifier)

	recipient := &recordConn{}
	registry.Register(2, recipient)

	_, err := engine.Deliver(context.Background(), 1, 2, "hello", nil)
	require.Error(t, err)

	require.Empty(t, recipient.envelopes)
	require.Empty(t, notifier.calls)
}
