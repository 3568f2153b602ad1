// AngelaMos | 2026
// dto.go

package band

import (
	"time"
)

type CreateBandRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=120"`
	Location string `json:"location" validate:"max=200"`
}

type BandResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

type SendInviteRequest struct {
	// UserID binds the invite to one user; omit it for an open invite.
	UserID *int64 `json:"user_id" validate:"omitempty,gt=0"`
}

type InviteResponse struct {
	BandID    int64     `json:"band_id"`
	UserID    *int64    `json:"user_id,omitempty"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type CreatePostingRequest struct {
	Talent string `json:"talent" validate:"required,min=1,max=120"`
}

type PostingResponse struct {
	ID     int64  `json:"id"`
	BandID int64  `json:"band_id"`
	Talent string `json:"talent"`
}

type SearchResponse struct {
	Bands []BandResponse `json:"bands"`
}

func toBandResponse(b *Band) BandResponse {
	return BandResponse{
		ID:        b.ID,
		Name:      b.Name,
		Location:  b.Location,
		CreatedAt: b.CreatedAt,
	}
}
