// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/bandmate/backend/internal/auth"
	"github.com/bandmate/backend/internal/core"
	"github.com/bandmate/backend/internal/geo"
)

type fakeGeocoder struct {
	coords geo.Coordinates
	err    error
}

func (f fakeGeocoder) Resolve(context.Context, string) (geo.Coordinates, error) {
	return f.coords, f.err
}

type fakeVerificationMailer struct {
	sent []string
	err  error
}

func (f *fakeVerificationMailer) SendVerificationEmail(
	_ context.Context,
	to, _ string,
) error {
	f.sent = append(f.sent, to)
	return f.err
}

func newTestService(
	t *testing.T,
) (*Service, sqlmock.Sqlmock, *fakeVerificationMailer) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "sqlmock")
	mailer := &fakeVerificationMailer{}

	svc := NewService(
		db,
		NewRepository(db),
		fakeGeocoder{coords: geo.Coordinates{Latitude: 40.7, Longitude: -74.0}},
		mailer,
	)

	return svc, mock, mailer
}

func userInsertRows() *sqlmock.Rows {
	return sqlmock.NewRows(
		[]string{"id", "email_verified", "notify_email", "created_at"},
	).AddRow(int64(5), false, true, time.Now())
}

func TestCreateRegistersAndEmailsVerification(t *testing.T) {
	svc, mock, mailer := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnRows(userInsertRows())
	mock.ExpectExec(`INSERT INTO email_verifications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	info, err := svc.Create(context.Background(), auth.CreateUserParams{
		FirstName:    "Nina",
		LastName:     "Simone",
		Email:        "nina@example.com",
		PasswordHash: "hash",
		Location:     "New York",
	})
	require.NoError(t, err)
	require.Equal(t, int64(5), info.ID)
	require.Equal(t, []string{"nina@example.com"}, mailer.sent,
		"verification email goes out after the commit")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRedeemsOpenInviteAtomically(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnRows(userInsertRows())
	mock.ExpectExec(`INSERT INTO email_verifications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM band_invites WHERE band_id = \$1 AND code = \$2`).
		WithArgs(int64(10), "ABCD2345").
		WillReturnRows(sqlmock.NewRows(
			[]string{"band_id", "user_id", "code", "expires_at"},
		).AddRow(int64(10), nil, "ABCD2345", time.Now().Add(time.Hour)))
	mock.ExpectExec(`INSERT INTO band_members`).
		WithArgs(int64(10), int64(5), false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM band_invites`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := svc.Create(context.Background(), auth.CreateUserParams{
		FirstName:    "Nina",
		LastName:     "Simone",
		Email:        "nina@example.com",
		PasswordHash: "hash",
		InviteCode:   "ABCD2345",
		BandID:       10,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRollsBackWhenInviteMissing(t *testing.T) {
	svc, mock, mailer := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnRows(userInsertRows())
	mock.ExpectExec(`INSERT INTO email_verifications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM band_invites`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), auth.CreateUserParams{
		FirstName:    "Nina",
		LastName:     "Simone",
		Email:        "nina@example.com",
		PasswordHash: "hash",
		InviteCode:   "ABCD2345",
		BandID:       10,
	})
	require.Error(t, err)

	var appErr *core.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, 404, appErr.StatusCode)

	require.Empty(t, mailer.sent, "no email for a rolled-back registration")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCascadesInOneTransaction(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM band_invites WHERE user_id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM band_members WHERE user_id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM notifications WHERE user_id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM looking_for_band WHERE user_id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.Delete(context.Background(), 5)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRollsBackOnFailure(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM band_invites WHERE user_id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM band_members WHERE user_id = \$1`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := svc.Delete(context.Background(), 5)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyEmailConsumesCode(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery(`SELECT user_id FROM email_verifications WHERE code = \$1`).
		WithArgs("ABCD2345").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(5)))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET email_verified = TRUE`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM email_verifications WHERE user_id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.VerifyEmail(context.Background(), "ABCD2345")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyEmailUnknownCode(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery(`SELECT user_id FROM email_verifications WHERE code = \$1`).
		WillReturnError(sql.ErrNoRows)

	err := svc.VerifyEmail(context.Background(), "ZZZZZZZZ")
	require.ErrorIs(t, err, core.ErrNotFound)
}
