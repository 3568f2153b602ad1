// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID            int64     `db:"id"`
	FirstName     string    `db:"first_name"`
	LastName      string    `db:"last_name"`
	Email         string    `db:"email"`
	PasswordHash  string    `db:"password_hash"`
	Location      string    `db:"location"`
	Latitude      *float64  `db:"latitude"`
	Longitude     *float64  `db:"longitude"`
	EmailVerified bool      `db:"email_verified"`
	NotifyEmail   bool      `db:"notify_email"`
	CreatedAt     time.Time `db:"created_at"`
}

func (u *User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// Posting is a looking-for-band ad: a musician offering a talent.
type Posting struct {
	ID     int64  `db:"id"`
	UserID int64  `db:"user_id"`
	Talent string `db:"talent"`
}
