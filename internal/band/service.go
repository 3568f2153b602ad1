// AngelaMos | 2026
// service.go

package band

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bandmate/backend/internal/core"
	"github.com/bandmate/backend/internal/geo"
	"github.com/bandmate/backend/internal/notification"
)

var (
	ErrNotAMember    = errors.New("not a member of this band")
	ErrNotAnAdmin    = errors.New("not an admin of this band")
	ErrAlreadyMember = errors.New("already a member of this band")
	ErrInvalidInvite = errors.New("invite does not exist for this user")
)

const (
	inviteTTL        = 30 * 24 * time.Hour
	inviteNoticeTTL  = 30 * 24 * time.Hour
	disbandNoticeTTL = 30 * 24 * time.Hour
)

// UserDirectory resolves invitee contact details and display names;
// user.Service implements it.
type UserDirectory interface {
	DisplayName(ctx context.Context, userID int64) (string, error)
	EmailPrefs(ctx context.Context, userID int64) (string, bool, error)
}

// InviteMailer sends the invite email; mail.Mailer implements it.
type InviteMailer interface {
	SendInviteEmail(ctx context.Context, to, bandName, code string) error
}

type Service struct {
	db       *sqlx.DB
	repo     Repository
	geocoder geo.Resolver
	users    UserDirectory
	mailer   InviteMailer
}

func NewService(
	db *sqlx.DB,
	repo Repository,
	geocoder geo.Resolver,
	users UserDirectory,
	mailer InviteMailer,
) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		geocoder: geocoder,
		users:    users,
		mailer:   mailer,
	}
}

// CreateBand inserts the band and makes the creator its first admin member,
// atomically. Geocoding is best-effort: an unresolvable location leaves the
// coordinates null.
func (s *Service) CreateBand(
	ctx context.Context,
	creatorID int64,
	req CreateBandRequest,
) (*Band, error) {
	b := &Band{
		Name:     req.Name,
		Location: req.Location,
	}

	if req.Location != "" {
		coords, err := s.geocoder.Resolve(ctx, req.Location)
		if err != nil {
			slog.Warn("geocode band location failed",
				"location", req.Location,
				"error", err,
			)
		} else {
			b.Latitude = &coords.Latitude
			b.Longitude = &coords.Longitude
		}
	}

	err := core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		txRepo := NewRepository(tx)
		if err := txRepo.Create(ctx, b); err != nil {
			return err
		}
		return txRepo.AddMember(ctx, b.ID, creatorID, true)
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

func (s *Service) GetBand(ctx context.Context, bandID int64) (*Band, error) {
	return s.repo.GetByID(ctx, bandID)
}

func (s *Service) SearchBands(
	ctx context.Context,
	name, location, talent string,
) ([]Band, error) {
	return s.repo.Search(ctx, name, location, talent)
}

// SendInvite creates an invite code for the band. A nil inviteeID makes an
// open invite anyone can redeem; a bound invite additionally gets a
// best-effort email to the invitee.
func (s *Service) SendInvite(
	ctx context.Context,
	requesterID, bandID int64,
	inviteeID *int64,
) (*Invite, error) {
	if err := s.requireAdmin(ctx, bandID, requesterID); err != nil {
		return nil, err
	}

	b, err := s.repo.GetByID(ctx, bandID)
	if err != nil {
		return nil, err
	}

	if inviteeID != nil {
		member, err := s.repo.IsMember(ctx, bandID, *inviteeID)
		if err != nil {
			return nil, err
		}
		if member {
			return nil, ErrAlreadyMember
		}
	}

	code, err := core.GenerateInviteCode()
	if err != nil {
		return nil, fmt.Errorf("generate invite code: %w", err)
	}

	inv := &Invite{
		BandID:    bandID,
		UserID:    inviteeID,
		Code:      code,
		ExpiresAt: time.Now().Add(inviteTTL),
	}

	if err := s.repo.CreateInvite(ctx, inv); err != nil {
		return nil, err
	}

	if inviteeID != nil {
		s.inviteEmailBestEffort(ctx, *inviteeID, b.Name, code)
	}

	return inv, nil
}

func (s *Service) inviteEmailBestEffort(
	ctx context.Context,
	inviteeID int64,
	bandName, code string,
) {
	email, optIn, err := s.users.EmailPrefs(ctx, inviteeID)
	if err != nil {
		slog.Warn("resolve invitee failed", "user_id", inviteeID, "error", err)
		return
	}
	if !optIn {
		return
	}
	if err := s.mailer.SendInviteEmail(ctx, email, bandName, code); err != nil {
		slog.Warn("invite email failed", "user_id", inviteeID, "error", err)
	}
}

// AcceptInvite redeems an invite code for the caller. The membership insert,
// the notification to every band admin, and the invite deletion commit or
// roll back together.
func (s *Service) AcceptInvite(ctx context.Context, userID int64, code string) error {
	inv, b, err := s.resolveInvite(ctx, userID, code)
	if err != nil {
		return err
	}

	name, err := s.users.DisplayName(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve member name: %w", err)
	}

	message := fmt.Sprintf(
		"%s accepted the invitation to join %s", name, b.Name)

	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		txRepo := NewRepository(tx)

		if err := txRepo.AddMember(ctx, inv.BandID, userID, false); err != nil {
			if errors.Is(err, core.ErrDuplicateKey) {
				return ErrAlreadyMember
			}
			return err
		}

		if err := s.notifyAdminsTx(ctx, tx, txRepo, inv.BandID, message); err != nil {
			return err
		}

		return txRepo.DeleteInvite(ctx, inv.BandID, inv.Code)
	})
}

// DeclineInvite discards an invite and tells the band's admins. Notification
// and invite deletion are atomic.
func (s *Service) DeclineInvite(ctx context.Context, userID int64, code string) error {
	inv, b, err := s.resolveInvite(ctx, userID, code)
	if err != nil {
		return err
	}

	name, err := s.users.DisplayName(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve member name: %w", err)
	}

	message := fmt.Sprintf(
		"%s declined the invitation to join %s", name, b.Name)

	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		txRepo := NewRepository(tx)

		if err := s.notifyAdminsTx(ctx, tx, txRepo, inv.BandID, message); err != nil {
			return err
		}

		return txRepo.DeleteInvite(ctx, inv.BandID, inv.Code)
	})
}

// resolveInvite loads the invite the caller may act on: the code must exist,
// be open or bound to the caller, and not be expired.
func (s *Service) resolveInvite(
	ctx context.Context,
	userID int64,
	code string,
) (*Invite, *Band, error) {
	inv, err := s.repo.GetInviteByCode(ctx, code)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil, ErrInvalidInvite
		}
		return nil, nil, err
	}

	if !inv.Open() && !inv.BoundTo(userID) {
		return nil, nil, ErrInvalidInvite
	}

	if inv.IsExpired() {
		return nil, nil, fmt.Errorf("invite: %w", core.ErrExpired)
	}

	b, err := s.repo.GetByID(ctx, inv.BandID)
	if err != nil {
		return nil, nil, err
	}

	return inv, b, nil
}

func (s *Service) notifyAdminsTx(
	ctx context.Context,
	tx *sqlx.Tx,
	txRepo Repository,
	bandID int64,
	message string,
) error {
	adminIDs, err := txRepo.AdminIDs(ctx, bandID)
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(inviteNoticeTTL)
	for _, adminID := range adminIDs {
		err := notification.NotifyTx(ctx, tx, adminID, message,
			expiresAt, notification.PriorityNormal)
		if err != nil {
			return err
		}
	}

	return nil
}

// VerifyBandCode checks whether an invite code is redeemable against a
// specific band. requesterID 0 means anonymous. Expiry is checked before the
// binding: an expired invite reports expired even to the wrong user.
func (s *Service) VerifyBandCode(
	ctx context.Context,
	bandID int64,
	code string,
	requesterID int64,
) (*Invite, error) {
	inv, err := s.repo.GetInvite(ctx, bandID, code)
	if err != nil {
		return nil, err
	}

	if inv.IsExpired() {
		return nil, fmt.Errorf("invite: %w", core.ErrExpired)
	}

	if !inv.Open() && !inv.BoundTo(requesterID) {
		return nil, ErrInvalidInvite
	}

	return inv, nil
}

// RedeemForNewUser consumes an invite inside the caller's transaction,
// during registration. The code must be open or bound to the new user.
func RedeemForNewUser(
	ctx context.Context,
	tx core.DBTX,
	bandID int64,
	code string,
	userID int64,
) error {
	txRepo := NewRepository(tx)

	inv, err := txRepo.GetInvite(ctx, bandID, code)
	if err != nil {
		return err
	}

	if inv.IsExpired() {
		return fmt.Errorf("invite: %w", core.ErrExpired)
	}

	if !inv.Open() && !inv.BoundTo(userID) {
		return ErrInvalidInvite
	}

	if err := txRepo.AddMember(ctx, bandID, userID, false); err != nil {
		return err
	}

	return txRepo.DeleteInvite(ctx, bandID, inv.Code)
}

// DeleteBand disbands the band: every member gets a high-priority notice
// naming who disbanded it, then the membership rows, member ads, open
// invites, and the band itself are removed in one transaction. The
// membership read precedes the deletes so the notice list is complete.
func (s *Service) DeleteBand(ctx context.Context, requesterID, bandID int64) error {
	member, err := s.repo.IsMember(ctx, bandID, requesterID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotAMember
	}

	admin, err := s.repo.IsAdmin(ctx, bandID, requesterID)
	if err != nil {
		return err
	}
	if !admin {
		return ErrNotAnAdmin
	}

	b, err := s.repo.GetByID(ctx, bandID)
	if err != nil {
		return err
	}

	adminName, err := s.users.DisplayName(ctx, requesterID)
	if err != nil {
		return fmt.Errorf("resolve admin name: %w", err)
	}

	message := fmt.Sprintf("Band %s was disbanded by %s", b.Name, adminName)

	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		txRepo := NewRepository(tx)

		memberIDs, err := txRepo.MemberIDs(ctx, bandID)
		if err != nil {
			return err
		}

		expiresAt := time.Now().Add(disbandNoticeTTL)
		for _, memberID := range memberIDs {
			err := notification.NotifyTx(ctx, tx, memberID, message,
				expiresAt, notification.PriorityHigh)
			if err != nil {
				return err
			}
		}

		if err := txRepo.DeleteMembers(ctx, bandID); err != nil {
			return err
		}
		if err := txRepo.DeletePostingsForBand(ctx, bandID); err != nil {
			return err
		}
		if err := txRepo.DeleteInvitesForBand(ctx, bandID); err != nil {
			return err
		}

		return txRepo.Delete(ctx, bandID)
	})
}

// CreatePosting publishes a looking-for-member ad. Admin only.
func (s *Service) CreatePosting(
	ctx context.Context,
	requesterID, bandID int64,
	talent string,
) (*Posting, error) {
	if err := s.requireAdmin(ctx, bandID, requesterID); err != nil {
		return nil, err
	}

	p := &Posting{BandID: bandID, Talent: talent}
	if err := s.repo.CreatePosting(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) ListPostings(
	ctx context.Context,
	bandID int64,
) ([]Posting, error) {
	return s.repo.ListPostings(ctx, bandID)
}

func (s *Service) DeletePosting(
	ctx context.Context,
	requesterID, bandID, postingID int64,
) error {
	if err := s.requireAdmin(ctx, bandID, requesterID); err != nil {
		return err
	}

	return s.repo.DeletePosting(ctx, bandID, postingID)
}

func (s *Service) requireAdmin(
	ctx context.Context,
	bandID, userID int64,
) error {
	admin, err := s.repo.IsAdmin(ctx, bandID, userID)
	if err != nil {
		return err
	}
	if !admin {
		return ErrNotAnAdmin
	}
	return nil
}

// MemberIDs and AdminIDs let the notification batch helpers resolve band
// membership without importing this package's service machinery.
func (s *Service) MemberIDs(ctx context.Context, bandID int64) ([]int64, error) {
	return s.repo.MemberIDs(ctx, bandID)
}

func (s *Service) AdminIDs(ctx context.Context, bandID int64) ([]int64, error) {
	return s.repo.AdminIDs(ctx, bandID)
}
