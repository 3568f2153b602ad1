// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type ProfileResponse struct {
	ID            int64     `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	Location      string    `json:"location"`
	EmailVerified bool      `json:"email_verified"`
	NotifyEmail   bool      `json:"notify_email"`
	CreatedAt     time.Time `json:"created_at"`
}

type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName    *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Location    *string `json:"location" validate:"omitempty,max=200"`
	NotifyEmail *bool   `json:"notify_email"`
}

type MusicianResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Location  string `json:"location"`
}

type SearchResponse struct {
	Musicians []MusicianResponse `json:"musicians"`
}

type CreatePostingRequest struct {
	Talent string `json:"talent" validate:"required,min=1,max=120"`
}

type PostingResponse struct {
	ID     int64  `json:"id"`
	Talent string `json:"talent"`
}

func toProfileResponse(u *User) ProfileResponse {
	return ProfileResponse{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		Location:      u.Location,
		EmailVerified: u.EmailVerified,
		NotifyEmail:   u.NotifyEmail,
		CreatedAt:     u.CreatedAt,
	}
}
