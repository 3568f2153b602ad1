// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/bandmate/backend/internal/auth"
	"github.com/bandmate/backend/internal/band"
	"github.com/bandmate/backend/internal/core"
	"github.com/bandmate/backend/internal/geo"
	"github.com/bandmate/backend/internal/notification"
)

// VerificationMailer sends the account activation email; mail.Mailer
// implements it.
type VerificationMailer interface {
	SendVerificationEmail(ctx context.Context, to, code string) error
}

type Service struct {
	db       *sqlx.DB
	repo     Repository
	geocoder geo.Resolver
	mailer   VerificationMailer
}

func NewService(
	db *sqlx.DB,
	repo Repository,
	geocoder geo.Resolver,
	mailer VerificationMailer,
) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		geocoder: geocoder,
		mailer:   mailer,
	}
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	return toUserInfo(u), nil
}

// Create registers an account. The user row, the verification code, and the
// optional invite redemption commit together; the activation email goes out
// best-effort after the commit.
func (s *Service) Create(
	ctx context.Context,
	params auth.CreateUserParams,
) (*auth.UserInfo, error) {
	u := &User{
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Location:     params.Location,
	}

	s.geocodeBestEffort(ctx, u)

	code, err := core.GenerateCode(core.InviteCodeLength)
	if err != nil {
		return nil, fmt.Errorf("generate verification code: %w", err)
	}

	err = core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		txRepo := NewRepository(tx)

		if err := txRepo.Create(ctx, u); err != nil {
			return err
		}

		if err := txRepo.CreateVerification(ctx, u.ID, code); err != nil {
			return err
		}

		if params.InviteCode != "" && params.BandID > 0 {
			err := band.RedeemForNewUser(
				ctx, tx, params.BandID, params.InviteCode, u.ID)
			if err != nil {
				return inviteAppError(err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.mailer.SendVerificationEmail(ctx, u.Email, code); err != nil {
		slog.Warn("verification email failed", "user_id", u.ID, "error", err)
	}

	return toUserInfo(u), nil
}

// inviteAppError maps invite redemption failures to response-shaped errors
// so registration surfaces them instead of a generic 500.
func inviteAppError(err error) error {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return core.NotFoundError("invite")
	case errors.Is(err, core.ErrExpired):
		return core.ExpiredError("invite has expired")
	case errors.Is(err, band.ErrInvalidInvite):
		return core.ForbiddenError("invite does not exist for this user")
	default:
		return err
	}
}

func (s *Service) geocodeBestEffort(ctx context.Context, u *User) {
	if u.Location == "" {
		return
	}

	coords, err := s.geocoder.Resolve(ctx, u.Location)
	if err != nil {
		slog.Warn("geocode user location failed",
			"location", u.Location,
			"error", err,
		)
		return
	}

	u.Latitude = &coords.Latitude
	u.Longitude = &coords.Longitude
}

// EmailPrefs reports the user's address and whether they accept email.
func (s *Service) EmailPrefs(
	ctx context.Context,
	userID int64,
) (string, bool, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return "", false, err
	}

	return u.Email, u.NotifyEmail, nil
}

func (s *Service) DisplayName(
	ctx context.Context,
	userID int64,
) (string, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	return u.DisplayName(), nil
}

func (s *Service) GetProfile(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetByID(ctx, userID)
}

// UpdateProfile applies the non-nil fields. A location change re-geocodes.
func (s *Service) UpdateProfile(
	ctx context.Context,
	userID int64,
	req UpdateProfileRequest,
) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.NotifyEmail != nil {
		u.NotifyEmail = *req.NotifyEmail
	}
	if req.Location != nil && *req.Location != u.Location {
		u.Location = *req.Location
		u.Latitude = nil
		u.Longitude = nil
		s.geocodeBestEffort(ctx, u)
	}

	if err := s.repo.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// VerifyEmail consumes an activation code.
func (s *Service) VerifyEmail(ctx context.Context, code string) error {
	userID, err := s.repo.GetVerification(ctx, code)
	if err != nil {
		return err
	}

	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		txRepo := NewRepository(tx)

		if err := txRepo.MarkEmailVerified(ctx, userID); err != nil {
			return err
		}

		return txRepo.DeleteVerification(ctx, userID)
	})
}

// Delete removes the account and everything hanging off it in one
// transaction: pending invites bound to the user, their notifications,
// their band memberships, and their looking-for-band ads. Band admins are
// not notified of the departure.
func (s *Service) Delete(ctx context.Context, userID int64) error {
	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		bandRepo := band.NewRepository(tx)

		if err := bandRepo.DeleteInvitesForUser(ctx, userID); err != nil {
			return err
		}
		if err := bandRepo.DeleteMembershipsForUser(ctx, userID); err != nil {
			return err
		}
		if err := notification.NewRepository(tx).DeleteForUser(ctx, userID); err != nil {
			return err
		}

		txRepo := NewRepository(tx)
		if err := txRepo.DeletePostingsForUser(ctx, userID); err != nil {
			return err
		}

		return txRepo.Delete(ctx, userID)
	})
}

func (s *Service) SearchMusicians(
	ctx context.Context,
	name, location, talent string,
) ([]User, error) {
	return s.repo.Search(ctx, name, location, talent)
}

func (s *Service) CreatePosting(
	ctx context.Context,
	userID int64,
	talent string,
) (*Posting, error) {
	p := &Posting{UserID: userID, Talent: talent}
	if err := s.repo.CreatePosting(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) ListPostings(
	ctx context.Context,
	userID int64,
) ([]Posting, error) {
	return s.repo.ListPostings(ctx, userID)
}

func (s *Service) DeletePosting(
	ctx context.Context,
	userID, postingID int64,
) error {
	return s.repo.DeletePosting(ctx, userID, postingID)
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		EmailVerified: u.EmailVerified,
	}
}
