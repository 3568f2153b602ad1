// AngelaMos | 2026
// service.go

package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bandmate/backend/internal/core"
	"github.com/bandmate/backend/internal/mail"
)

// RecipientDirectory resolves a user's contact address and email opt-in;
// user.Service implements it.
type RecipientDirectory interface {
	EmailPrefs(ctx context.Context, userID int64) (string, bool, error)
}

// MembershipSource resolves band membership for the batch helpers;
// band.Repository implements it. The set is resolved once at call time:
// membership changes during a batch are not observed.
type MembershipSource interface {
	MemberIDs(ctx context.Context, bandID int64) ([]int64, error)
	AdminIDs(ctx context.Context, bandID int64) ([]int64, error)
}

type Service struct {
	repo       Repository
	recipients RecipientDirectory
	members    MembershipSource
	mailer     mail.Sender
}

func NewService(
	repo Repository,
	recipients RecipientDirectory,
	members MembershipSource,
	mailer mail.Sender,
) *Service {
	return &Service{
		repo:       repo,
		recipients: recipients,
		members:    members,
		mailer:     mailer,
	}
}

// Notify persists a notification row and, when the recipient has opted in,
// sends an email. The email is an independent side effect: a send failure is
// logged and never rolls back or fails the notification.
func (s *Service) Notify(
	ctx context.Context,
	recipientID int64,
	message string,
	expiresAt time.Time,
	priority string,
) error {
	n := &Notification{
		UserID:    recipientID,
		Message:   message,
		Priority:  priority,
		ExpiresAt: expiresAt,
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	s.emailBestEffort(ctx, recipientID, message)

	return nil
}

// NotifyTx persists a notification through the caller's transaction. No
// email is attempted: transactional callers own the commit, and mail must
// never be tied to it.
func NotifyTx(
	ctx context.Context,
	tx core.DBTX,
	recipientID int64,
	message string,
	expiresAt time.Time,
	priority string,
) error {
	return NewRepository(tx).Create(ctx, &Notification{
		UserID:    recipientID,
		Message:   message,
		Priority:  priority,
		ExpiresAt: expiresAt,
	})
}

func (s *Service) NotifyBandMembers(
	ctx context.Context,
	bandID int64,
	message string,
	expiresAt time.Time,
	priority string,
) error {
	ids, err := s.members.MemberIDs(ctx, bandID)
	if err != nil {
		return fmt.Errorf("resolve band members: %w", err)
	}

	return s.notifyAll(ctx, ids, message, expiresAt, priority)
}

func (s *Service) NotifyBandAdmins(
	ctx context.Context,
	bandID int64,
	message string,
	expiresAt time.Time,
	priority string,
) error {
	ids, err := s.members.AdminIDs(ctx, bandID)
	if err != nil {
		return fmt.Errorf("resolve band admins: %w", err)
	}

	return s.notifyAll(ctx, ids, message, expiresAt, priority)
}

func (s *Service) notifyAll(
	ctx context.Context,
	recipientIDs []int64,
	message string,
	expiresAt time.Time,
	priority string,
) error {
	for _, id := range recipientIDs {
		if err := s.Notify(ctx, id, message, expiresAt, priority); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) emailBestEffort(
	ctx context.Context,
	recipientID int64,
	message string,
) {
	email, optIn, err := s.recipients.EmailPrefs(ctx, recipientID)
	if err != nil {
		slog.Warn("resolve notification recipient failed",
			"user_id", recipientID,
			"error", err,
		)
		return
	}

	if !optIn {
		return
	}

	if err := s.mailer.Send(ctx, email, "Bandmate notification", message); err != nil {
		slog.Warn("notification email failed",
			"user_id", recipientID,
			"error", err,
		)
	}
}

func (s *Service) ListForUser(
	ctx context.Context,
	userID int64,
) ([]Notification, error) {
	return s.repo.ListForUser(ctx, userID)
}

// MarkRead flips the read flag. Only the recipient may mutate their own
// notification.
func (s *Service) MarkRead(
	ctx context.Context,
	requesterID, notificationID int64,
) error {
	n, err := s.repo.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}

	if n.UserID != requesterID {
		return fmt.Errorf("mark notification read: %w", core.ErrForbidden)
	}

	if err := s.repo.MarkRead(ctx, notificationID); err != nil &&
		!errors.Is(err, core.ErrNotFound) {
		return err
	}

	return nil
}
