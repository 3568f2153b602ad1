// AngelaMos | 2026
// service_test.go

package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bandmate/backend/internal/core"
)

type fakeRepo struct {
	created    []*Notification
	markedRead []int64
	byID       map[int64]*Notification
	createErr  error
}

func (f *fakeRepo) Create(_ context.Context, n *Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	n.ID = int64(len(f.created) + 1)
	n.SentAt = time.Now()
	f.created = append(f.created, n)
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id int64) (*Notification, error) {
	n, ok := f.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return n, nil
}

func (f *fakeRepo) ListForUser(context.Context, int64) ([]Notification, error) {
	return nil, nil
}

func (f *fakeRepo) MarkRead(_ context.Context, id int64) error {
	f.markedRead = append(f.markedRead, id)
	return nil
}

func (f *fakeRepo) DeleteForUser(context.Context, int64) error {
	return nil
}

type fakeRecipients struct {
	email string
	optIn bool
	err   error
}

func (f fakeRecipients) EmailPrefs(context.Context, int64) (string, bool, error) {
	return f.email, f.optIn, f.err
}

type fakeMembers struct {
	memberIDs []int64
	adminIDs  []int64
}

func (f fakeMembers) MemberIDs(context.Context, int64) ([]int64, error) {
	return f.memberIDs, nil
}

func (f fakeMembers) AdminIDs(context.Context, int64) ([]int64, error) {
	return f.adminIDs, nil
}

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, _, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

func TestNotifyPersistsAndEmails(t *testing.T) {
	repo := &fakeRepo{}
	sender := &fakeSender{}
	svc := NewService(repo,
		fakeRecipients{email: "nina@example.com", optIn: true},
		fakeMembers{}, sender)

	expiresAt := time.Now().Add(7 * 24 * time.Hour)
	err := svc.Notify(
		context.Background(), 2, "New message from Nina", expiresAt, PriorityNormal)
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	n := repo.created[0]
	require.Equal(t, int64(2), n.UserID)
	require.Equal(t, PriorityNormal, n.Priority)
	require.Equal(t, expiresAt, n.ExpiresAt)
	require.Equal(t, []string{"nina@example.com"}, sender.sent)
}

func TestNotifyEmailFailureIsSwallowed(t *testing.T) {
	repo := &fakeRepo{}
	sender := &fakeSender{err: errors.New("smtp: connection refused")}
	svc := NewService(repo,
		fakeRecipients{email: "nina@example.com", optIn: true},
		fakeMembers{}, sender)

	err := svc.Notify(context.Background(), 2, "hello",
		time.Now().Add(time.Hour), PriorityLow)
	require.NoError(t, err, "email is best-effort, never a notify failure")
	require.Len(t, repo.created, 1)
}

func TestNotifySkipsEmailForOptedOut(t *testing.T) {
	repo := &fakeRepo{}
	sender := &fakeSender{}
	svc := NewService(repo,
		fakeRecipients{email: "nina@example.com", optIn: false},
		fakeMembers{}, sender)

	err := svc.Notify(context.Background(), 2, "hello",
		time.Now().Add(time.Hour), PriorityLow)
	require.NoError(t, err)
	require.Empty(t, sender.sent)
}

func TestNotifyPersistFailurePropagates(t *testing.T) {
	repo := &fakeRepo{createErr: errors.New("connection refused")}
	sender := &fakeSender{}
	svc := NewService(repo,
		fakeRecipients{email: "nina@example.com", optIn: true},
		fakeMembers{}, sender)

	err := svc.Notify(context.Background(), 2, "hello",
		time.Now().Add(time.Hour), PriorityHigh)
	require.Error(t, err)
	require.Empty(t, sender.sent, "no email without a durable row")
}

func TestNotifyBandMembersFansOutOnce(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo,
		fakeRecipients{email: "x@example.com", optIn: false},
		fakeMembers{memberIDs: []int64{1, 2, 3}}, &fakeSender{})

	err := svc.NotifyBandMembers(context.Background(), 10, "rehearsal",
		time.Now().Add(time.Hour), PriorityNormal)
	require.NoError(t, err)

	require.Len(t, repo.created, 3)
	var ids []int64
	for _, n := range repo.created {
		ids = append(ids, n.UserID)
	}
	require.Equal(t, []int64{1, 2, 3}, ids)
}

func TestMarkReadIsRecipientOnly(t *testing.T) {
	repo := &fakeRepo{byID: map[int64]*Notification{
		42: {ID: 42, UserID: 7},
	}}
	svc := NewService(repo, fakeRecipients{}, fakeMembers{}, &fakeSender{})

	err := svc.MarkRead(context.Background(), 5, 42)
	require.ErrorIs(t, err, core.ErrForbidden)
	require.Empty(t, repo.markedRead)

	err = svc.MarkRead(context.Background(), 7, 42)
	require.NoError(t, err)
	require.Equal(t, []int64{42}, repo.markedRead)
}

func TestMarkReadMissingNotification(t *testing.T) {
	repo := &fakeRepo{byID: map[int64]*Notification{}}
	svc := NewService(repo, fakeRecipients{}, fakeMembers{}, &fakeSender{})

	err := svc.MarkRead(context.Background(), 5, 42)
	require.ErrorIs(t, err, core.ErrNotFound)
}
