// AngelaMos | 2026
// service_test.go

package band

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/bandmate/backend/internal/core"
	"github.com/bandmate/backend/internal/geo"
)

type fakeDirectory struct {
	name  string
	email string
}

func (f fakeDirectory) DisplayName(context.Context, int64) (string, error) {
	return f.name, nil
}

func (f fakeDirectory) EmailPrefs(context.Context, int64) (string, bool, error) {
	return f.email, true, nil
}

type fakeGeocoder struct {
	coords geo.Coordinates
	err    error
}

func (f fakeGeocoder) Resolve(context.Context, string) (geo.Coordinates, error) {
	return f.coords, f.err
}

type fakeInviteMailer struct {
	sent []string
	err  error
}

func (f *fakeInviteMailer) SendInviteEmail(
	_ context.Context,
	to, _, _ string,
) error {
	f.sent = append(f.sent, to)
	return f.err
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *fakeInviteMailer) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "sqlmock")
	mailer := &fakeInviteMailer{}

	svc := NewService(
		db,
		NewRepository(db),
		fakeGeocoder{coords: geo.Coordinates{Latitude: 52.5, Longitude: 13.4}},
		fakeDirectory{name: "Nina Simone", email: "nina@example.com"},
		mailer,
	)

	return svc, mock, mailer
}

func inviteRows(userID *int64, expiresAt time.Time) *sqlmock.Rows {
	var uid any
	if userID != nil {
		uid = *userID
	}
	return sqlmock.NewRows(
		[]string{"band_id", "user_id", "code", "expires_at"},
	).AddRow(int64(10), uid, "ABCD2345", expiresAt)
}

func bandRows() *sqlmock.Rows {
	return sqlmock.NewRows(
		[]string{"id", "name", "location", "latitude", "longitude", "created_at"},
	).AddRow(int64(10), "The Quiet Loud", "Berlin", nil, nil, time.Now())
}

func TestAcceptInviteCommitsAllEffects(t *testing.T) {
	svc, mock, _ := newTestService(t)
	userID := int64(5)

	mock.ExpectQuery(`SELECT (.+) FROM band_invites WHERE code = \$1`).
		WithArgs("ABCD2345").
		WillReturnRows(inviteRows(&userID, time.Now().Add(time.Hour)))
	mock.ExpectQuery(`SELECT (.+) FROM bands`).
		WillReturnRows(bandRows())

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO band_members`).
		WithArgs(int64(10), userID, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT user_id FROM band_members WHERE band_id = \$1 AND admin`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(1)))
	mock.ExpectQuery(`INSERT INTO notifications`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "read", "sent_at"}).
			AddRow(int64(99), false, time.Now()))
	mock.ExpectExec(`DELETE FROM band_invites`).
		WithArgs(int64(10), "ABCD2345").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.AcceptInvite(context.Background(), userID, "ABCD2345")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptInviteRollsBackOnNotifyFailure(t *testing.T) {
	svc, mock, _ := newTestService(t)
	userID := int64(5)

	mock.ExpectQuery(`SELECT (.+) FROM band_invites WHERE code = \$1`).
		WithArgs("ABCD2345").
		WillReturnRows(inviteRows(&userID, time.Now().Add(time.Hour)))
	mock.ExpectQuery(`SELECT (.+) FROM bands`).
		WillReturnRows(bandRows())

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO band_members`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT user_id FROM band_members WHERE band_id = \$1 AND admin`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(1)))
	mock.ExpectQuery(`INSERT INTO notifications`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := svc.AcceptInvite(context.Background(), userID, "ABCD2345")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet(),
		"membership insert must not survive a failed notification")
}

func TestAcceptInviteRejectsForeignBinding(t *testing.T) {
	svc, mock, _ := newTestService(t)
	boundTo := int64(7)

	mock.ExpectQuery(`SELECT (.+) FROM band_invites WHERE code = \$1`).
		WithArgs("ABCD2345").
		WillReturnRows(inviteRows(&boundTo, time.Now().Add(time.Hour)))

	err := svc.AcceptInvite(context.Background(), 5, "ABCD2345")
	require.ErrorIs(t, err, ErrInvalidInvite)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeclineInviteDeletesWithoutMembership(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery(`SELECT (.+) FROM band_invites WHERE code = \$1`).
		WithArgs("ABCD2345").
		WillReturnRows(inviteRows(nil, time.Now().Add(time.Hour)))
	mock.ExpectQuery(`SELECT (.+) FROM bands`).
		WillReturnRows(bandRows())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id FROM band_members WHERE band_id = \$1 AND admin`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(1)))
	mock.ExpectQuery(`INSERT INTO notifications`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "read", "sent_at"}).
			AddRow(int64(99), false, time.Now()))
	mock.ExpectExec(`DELETE FROM band_invites`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.DeclineInvite(context.Background(), 5, "ABCD2345")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyBandCode(t *testing.T) {
	boundTo := int64(7)

	cases := []struct {
		name        string
		rows        func() *sqlmock.Rows
		queryErr    error
		requesterID int64
		wantErr     error
	}{
		{
			name:     "absent code",
			queryErr: errNoRows(),
			wantErr:  core.ErrNotFound,
		},
		{
			name: "expired reported before binding",
			rows: func() *sqlmock.Rows {
				return inviteRows(&boundTo, time.Now().Add(-time.Hour))
			},
			requesterID: 5,
			wantErr:     core.ErrExpired,
		},
		{
			name: "bound invite wrong requester",
			rows: func() *sqlmock.Rows {
				return inviteRows(&boundTo, time.Now().Add(time.Hour))
			},
			requesterID: 5,
			wantErr:     ErrInvalidInvite,
		},
		{
			name: "bound invite anonymous requester",
			rows: func() *sqlmock.Rows {
				return inviteRows(&boundTo, time.Now().Add(time.Hour))
			},
			requesterID: 0,
			wantErr:     ErrInvalidInvite,
		},
		{
			name: "bound invite owner",
			rows: func() *sqlmock.Rows {
				return inviteRows(&boundTo, time.Now().Add(time.Hour))
			},
			requesterID: 7,
		},
		{
			name: "open invite anonymous",
			rows: func() *sqlmock.Rows {
				return inviteRows(nil, time.Now().Add(time.Hour))
			},
			requesterID: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, mock, _ := newTestService(t)

			query := mock.ExpectQuery(
				`SELECT (.+) FROM band_invites WHERE band_id = \$1 AND code = \$2`).
				WithArgs(int64(10), "ABCD2345")
			if tc.queryErr != nil {
				query.WillReturnError(tc.queryErr)
			} else {
				query.WillReturnRows(tc.rows())
			}

			inv, err := svc.VerifyBandCode(
				context.Background(), 10, "ABCD2345", tc.requesterID)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "ABCD2345", inv.Code)
		})
	}
}

func TestDeleteBandNotifiesEveryMemberThenDeletes(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(10), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(10), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT (.+) FROM bands`).
		WillReturnRows(bandRows())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id FROM band_members WHERE band_id = \$1$`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).
			AddRow(int64(1)).AddRow(int64(2)))
	mock.ExpectQuery(`INSERT INTO notifications`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "read", "sent_at"}).
			AddRow(int64(98), false, time.Now()))
	mock.ExpectQuery(`INSERT INTO notifications`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "read", "sent_at"}).
			AddRow(int64(99), false, time.Now()))
	mock.ExpectExec(`DELETE FROM band_members WHERE band_id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM looking_for_member WHERE band_id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM band_invites WHERE band_id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM bands WHERE id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.DeleteBand(context.Background(), 1, 10)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteBandRequiresMembershipThenAdmin(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := svc.DeleteBand(context.Background(), 1, 10)
	require.ErrorIs(t, err, ErrNotAMember)

	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err = svc.DeleteBand(context.Background(), 1, 10)
	require.ErrorIs(t, err, ErrNotAnAdmin)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSendInviteRequiresAdmin(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := svc.SendInvite(context.Background(), 1, 10, nil)
	require.ErrorIs(t, err, ErrNotAnAdmin)
}

func TestSendInviteBoundEmailsInvitee(t *testing.T) {
	svc, mock, mailer := newTestService(t)
	invitee := int64(5)

	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT (.+) FROM bands`).
		WillReturnRows(bandRows())
	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO band_invites`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inv, err := svc.SendInvite(context.Background(), 1, 10, &invitee)
	require.NoError(t, err)
	require.Len(t, inv.Code, core.InviteCodeLength)
	require.Equal(t, []string{"nina@example.com"}, mailer.sent)
	require.NoError(t, mock.ExpectationsWereMet())
}

func errNoRows() error {
	return sql.ErrNoRows
}
