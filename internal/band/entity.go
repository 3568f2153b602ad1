// AngelaMos | 2026
// entity.go

package band

import (
	"time"
)

type Band struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Location  string    `db:"location"`
	Latitude  *float64  `db:"latitude"`
	Longitude *float64  `db:"longitude"`
	CreatedAt time.Time `db:"created_at"`
}

type Member struct {
	BandID int64 `db:"band_id"`
	UserID int64 `db:"user_id"`
	Admin  bool  `db:"admin"`
}

// Invite is a pending membership offer. UserID nil means an open invite:
// anyone holding the code may redeem it.
type Invite struct {
	BandID    int64     `db:"band_id"`
	UserID    *int64    `db:"user_id"`
	Code      string    `db:"code"`
	ExpiresAt time.Time `db:"expires_at"`
}

func (i *Invite) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// BoundTo reports whether the invite is restricted to a specific user.
func (i *Invite) BoundTo(userID int64) bool {
	return i.UserID != nil && *i.UserID == userID
}

func (i *Invite) Open() bool {
	return i.UserID == nil
}

// Posting is a looking-for-member ad: a band searching for a talent.
type Posting struct {
	ID     int64  `db:"id"`
	BandID int64  `db:"band_id"`
	Talent string `db:"talent"`
}
