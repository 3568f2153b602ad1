// AngelaMos | 2026
// repository.go

package band

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bandmate/backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, b *Band) error
	GetByID(ctx context.Context, id int64) (*Band, error)
	Search(ctx context.Context, name, location, talent string) ([]Band, error)
	Delete(ctx context.Context, id int64) error

	AddMember(ctx context.Context, bandID, userID int64, admin bool) error
	IsMember(ctx context.Context, bandID, userID int64) (bool, error)
	IsAdmin(ctx context.Context, bandID, userID int64) (bool, error)
	MemberIDs(ctx context.Context, bandID int64) ([]int64, error)
	AdminIDs(ctx context.Context, bandID int64) ([]int64, error)
	DeleteMembers(ctx context.Context, bandID int64) error
	DeleteMembershipsForUser(ctx context.Context, userID int64) error

	CreateInvite(ctx context.Context, inv *Invite) error
	GetInvite(ctx context.Context, bandID int64, code string) (*Invite, error)
	GetInviteByCode(ctx context.Context, code string) (*Invite, error)
	DeleteInvite(ctx context.Context, bandID int64, code string) error
	DeleteInvitesForBand(ctx context.Context, bandID int64) error
	DeleteInvitesForUser(ctx context.Context, userID int64) error

	CreatePosting(ctx context.Context, p *Posting) error
	ListPostings(ctx context.Context, bandID int64) ([]Posting, error)
	DeletePosting(ctx context.Context, bandID, postingID int64) error
	DeletePostingsForBand(ctx context.Context, bandID int64) error
}

type repository struct {
	db core.DBTX
}

// NewRepository accepts either the shared pool or an open transaction, so
// the invite and disband workflows can run their writes atomically.
func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, b *Band) error {
	query := `
		INSERT INTO bands (name, location, latitude, longitude)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.GetContext(ctx, b, query,
		b.Name,
		b.Location,
		b.Latitude,
		b.Longitude,
	)
	if err != nil {
		return fmt.Errorf("create band: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Band, error) {
	query := `
		SELECT id, name, location, latitude, longitude, created_at
		FROM bands
		WHERE id = $1`

	var b Band
	err := r.db.GetContext(ctx, &b, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get band: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get band: %w", err)
	}

	return &b, nil
}

// Search filters by any combination of name, location, and sought talent.
// Empty parameters are skipped; talent joins the looking-for-member ads.
func (r *repository) Search(
	ctx context.Context,
	name, location, talent string,
) ([]Band, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT DISTINCT b.id, b.name, b.location, b.latitude, b.longitude,
		       b.created_at
		FROM bands b`)

	var args []any
	var where []string

	if talent != "" {
		sb.WriteString(` JOIN looking_for_member lfm ON lfm.band_id = b.id`)
		args = append(args, talent)
		where = append(where, fmt.Sprintf("lfm.talent ILIKE $%d", len(args)))
	}
	if name != "" {
		args = append(args, "%"+name+"%")
		where = append(where, fmt.Sprintf("b.name ILIKE $%d", len(args)))
	}
	if location != "" {
		args = append(args, "%"+location+"%")
		where = append(where, fmt.Sprintf("b.location ILIKE $%d", len(args)))
	}

	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY b.name")

	var bands []Band
	if err := r.db.SelectContext(ctx, &bands, sb.String(), args...); err != nil {
		return nil, fmt.Errorf("search bands: %w", err)
	}

	return bands, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM bands WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete band: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete band: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete band: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) AddMember(
	ctx context.Context,
	bandID, userID int64,
	admin bool,
) error {
	query := `
		INSERT INTO band_members (band_id, user_id, admin)
		VALUES ($1, $2, $3)`

	if _, err := r.db.ExecContext(ctx, query, bandID, userID, admin); err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("add band member: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("add band member: %w", err)
	}

	return nil
}

func (r *repository) IsMember(
	ctx context.Context,
	bandID, userID int64,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM band_members WHERE band_id = $1 AND user_id = $2
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, bandID, userID); err != nil {
		return false, fmt.Errorf("check band member: %w", err)
	}

	return exists, nil
}

func (r *repository) IsAdmin(
	ctx context.Context,
	bandID, userID int64,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM band_members
			WHERE band_id = $1 AND user_id = $2 AND admin
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, bandID, userID); err != nil {
		return false, fmt.Errorf("check band admin: %w", err)
	}

	return exists, nil
}

func (r *repository) MemberIDs(
	ctx context.Context,
	bandID int64,
) ([]int64, error) {
	query := `SELECT user_id FROM band_members WHERE band_id = $1`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, bandID); err != nil {
		return nil, fmt.Errorf("list band members: %w", err)
	}

	return ids, nil
}

func (r *repository) AdminIDs(
	ctx context.Context,
	bandID int64,
) ([]int64, error) {
	query := `SELECT user_id FROM band_members WHERE band_id = $1 AND admin`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, bandID); err != nil {
		return nil, fmt.Errorf("list band admins: %w", err)
	}

	return ids, nil
}

func (r *repository) DeleteMembers(ctx context.Context, bandID int64) error {
	query := `DELETE FROM band_members WHERE band_id = $1`

	if _, err := r.db.ExecContext(ctx, query, bandID); err != nil {
		return fmt.Errorf("delete band members: %w", err)
	}

	return nil
}

func (r *repository) DeleteMembershipsForUser(
	ctx context.Context,
	userID int64,
) error {
	query := `DELETE FROM band_members WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete memberships for user: %w", err)
	}

	return nil
}

func (r *repository) CreateInvite(ctx context.Context, inv *Invite) error {
	query := `
		INSERT INTO band_invites (band_id, user_id, code, expires_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query,
		inv.BandID,
		inv.UserID,
		inv.Code,
		inv.ExpiresAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create invite: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create invite: %w", err)
	}

	return nil
}

func (r *repository) GetInvite(
	ctx context.Context,
	bandID int64,
	code string,
) (*Invite, error) {
	query := `
		SELECT band_id, user_id, code, expires_at
		FROM band_invites
		WHERE band_id = $1 AND code = $2`

	var inv Invite
	err := r.db.GetContext(ctx, &inv, query, bandID, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get invite: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get invite: %w", err)
	}

	return &inv, nil
}

func (r *repository) GetInviteByCode(
	ctx context.Context,
	code string,
) (*Invite, error) {
	query := `
		SELECT band_id, user_id, code, expires_at
		FROM band_invites
		WHERE code = $1`

	var inv Invite
	err := r.db.GetContext(ctx, &inv, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get invite by code: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get invite by code: %w", err)
	}

	return &inv, nil
}

func (r *repository) DeleteInvite(
	ctx context.Context,
	bandID int64,
	code string,
) error {
	query := `DELETE FROM band_invites WHERE band_id = $1 AND code = $2`

	if _, err := r.db.ExecContext(ctx, query, bandID, code); err != nil {
		return fmt.Errorf("delete invite: %w", err)
	}

	return nil
}

func (r *repository) DeleteInvitesForBand(
	ctx context.Context,
	bandID int64,
) error {
	query := `DELETE FROM band_invites WHERE band_id = $1`

	if _, err := r.db.ExecContext(ctx, query, bandID); err != nil {
		return fmt.Errorf("delete invites for band: %w", err)
	}

	return nil
}

func (r *repository) DeleteInvitesForUser(
	ctx context.Context,
	userID int64,
) error {
	query := `DELETE FROM band_invites WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete invites for user: %w", err)
	}

	return nil
}

func (r *repository) CreatePosting(ctx context.Context, p *Posting) error {
	query := `
		INSERT INTO looking_for_member (band_id, talent)
		VALUES ($1, $2)
		RETURNING id`

	if err := r.db.GetContext(ctx, p, query, p.BandID, p.Talent); err != nil {
		return fmt.Errorf("create posting: %w", err)
	}

	return nil
}

func (r *repository) ListPostings(
	ctx context.Context,
	bandID int64,
) ([]Posting, error) {
	query := `
		SELECT id, band_id, talent
		FROM looking_for_member
		WHERE band_id = $1
		ORDER BY id`

	var postings []Posting
	if err := r.db.SelectContext(ctx, &postings, query, bandID); err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}

	return postings, nil
}

func (r *repository) DeletePosting(
	ctx context.Context,
	bandID, postingID int64,
) error {
	query := `DELETE FROM looking_for_member WHERE id = $1 AND band_id = $2`

	result, err := r.db.ExecContext(ctx, query, postingID, bandID)
	if err != nil {
		return fmt.Errorf("delete posting: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete posting: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete posting: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) DeletePostingsForBand(
	ctx context.Context,
	bandID int64,
) error {
	query := `DELETE FROM looking_for_member WHERE band_id = $1`

	if _, err := r.db.ExecContext(ctx, query, bandID); err != nil {
		return fmt.Errorf("delete postings for band: %w", err)
	}

	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
