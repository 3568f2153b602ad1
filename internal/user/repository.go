// AngelaMos | 2026
// repository.go

package user

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
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, name, location, talent string) ([]User, error)

	CreateVerification(ctx context.Context, userID int64, code string) error
	GetVerification(ctx context.Context, code string) (int64, error)
	DeleteVerification(ctx context.Context, userID int64) error
	MarkEmailVerified(ctx context.Context, userID int64) error

	CreatePosting(ctx context.Context, p *Posting) error
	ListPostings(ctx context.Context, userID int64) ([]Posting, error)
	DeletePosting(ctx context.Context, userID, postingID int64) error
	DeletePostingsForUser(ctx context.Context, userID int64) error
}

type repository struct {
	db core.DBTX
}

// NewRepository accepts either the shared pool or an open transaction, so
// registration and account deletion can run their writes atomically.
func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (
			first_name, last_name, email, password_hash,
			location, latitude, longitude
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, email_verified, notify_email, created_at`

	err := r.db.GetContext(ctx, u, query,
		u.FirstName,
		u.LastName,
		u.Email,
		u.PasswordHash,
		u.Location,
		u.Latitude,
		u.Longitude,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := `
		SELECT id, first_name, last_name, email, password_hash, location,
		       latitude, longitude, email_verified, notify_email, created_at
		FROM users
		WHERE id = $1`

	var u User
	err := r.db.GetContext(ctx, &u, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &u, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := `
		SELECT id, first_name, last_name, email, password_hash, location,
		       latitude, longitude, email_verified, notify_email, created_at
		FROM users
		WHERE email = $1`

	var u User
	err := r.db.GetContext(ctx, &u, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &u, nil
}

func (r *repository) UpdateProfile(ctx context.Context, u *User) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, location = $4,
		    latitude = $5, longitude = $6, notify_email = $7
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		u.ID,
		u.FirstName,
		u.LastName,
		u.Location,
		u.Latitude,
		u.Longitude,
		u.NotifyEmail,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update profile: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete user: %w", core.ErrNotFound)
	}

	return nil
}

// Search filters musicians by any combination of name, location, and
// offered talent. Empty parameters are skipped; talent joins the
// looking-for-band ads.
func (r *repository) Search(
	ctx context.Context,
	name, location, talent string,
) ([]User, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT DISTINCT u.id, u.first_name, u.last_name, u.email,
		       u.password_hash, u.location, u.latitude, u.longitude,
		       u.email_verified, u.notify_email, u.created_at
		FROM users u`)

	var args []any
	var where []string

	if talent != "" {
		sb.WriteString(` JOIN looking_for_band lfb ON lfb.user_id = u.id`)
		args = append(args, talent)
		where = append(where, fmt.Sprintf("lfb.talent ILIKE $%d", len(args)))
	}
	if name != "" {
		args = append(args, "%"+name+"%")
		where = append(where, fmt.Sprintf(
			"(u.first_name || ' ' || u.last_name) ILIKE $%d", len(args)))
	}
	if location != "" {
		args = append(args, "%"+location+"%")
		where = append(where, fmt.Sprintf("u.location ILIKE $%d", len(args)))
	}

	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY u.last_name, u.first_name")

	var users []User
	if err := r.db.SelectContext(ctx, &users, sb.String(), args...); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}

	return users, nil
}

func (r *repository) CreateVerification(
	ctx context.Context,
	userID int64,
	code string,
) error {
	query := `
		INSERT INTO email_verifications (user_id, code)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET code = EXCLUDED.code`

	if _, err := r.db.ExecContext(ctx, query, userID, code); err != nil {
		return fmt.Errorf("create verification: %w", err)
	}

	return nil
}

func (r *repository) GetVerification(
	ctx context.Context,
	code string,
) (int64, error) {
	query := `SELECT user_id FROM email_verifications WHERE code = $1`

	var userID int64
	err := r.db.GetContext(ctx, &userID, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("get verification: %w", core.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("get verification: %w", err)
	}

	return userID, nil
}

func (r *repository) DeleteVerification(
	ctx context.Context,
	userID int64,
) error {
	query := `DELETE FROM email_verifications WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete verification: %w", err)
	}

	return nil
}

func (r *repository) MarkEmailVerified(
	ctx context.Context,
	userID int64,
) error {
	query := `UPDATE users SET email_verified = TRUE WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("mark email verified: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) CreatePosting(ctx context.Context, p *Posting) error {
	query := `
		INSERT INTO looking_for_band (user_id, talent)
		VALUES ($1, $2)
		RETURNING id`

	if err := r.db.GetContext(ctx, p, query, p.UserID, p.Talent); err != nil {
		return fmt.Errorf("create posting: %w", err)
	}

	return nil
}

func (r *repository) ListPostings(
	ctx context.Context,
	userID int64,
) ([]Posting, error) {
	query := `
		SELECT id, user_id, talent
		FROM looking_for_band
		WHERE user_id = $1
		ORDER BY id`

	var postings []Posting
	if err := r.db.SelectContext(ctx, &postings, query, userID); err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}

	return postings, nil
}

func (r *repository) DeletePosting(
	ctx context.Context,
	userID, postingID int64,
) error {
	query := `DELETE FROM looking_for_band WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, postingID, userID)
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

func (r *repository) DeletePostingsForUser(
	ctx context.Context,
	userID int64,
) error {
	query := `DELETE FROM looking_for_band WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete postings for user: %w", err)
	}

	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
