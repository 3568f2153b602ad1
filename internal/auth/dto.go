// AngelaMos | 2026
// dto.go

package auth

import (
	"time"
)

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type RegisterRequest struct {
	FirstName  string `json:"first_name"  validate:"required,min=1,max=100"`
	LastName   string `json:"last_name"   validate:"required,min=1,max=100"`
	Email      string `json:"email"       validate:"required,email,max=255"`
	Password   string `json:"password"    validate:"required,min=8,max=128"`
	Location   string `json:"location,omitempty"    validate:"omitempty,max=255"`
	InviteCode string `json:"invite_code,omitempty" validate:"omitempty,len=8"`
	BandID     int64  `json:"band_id,omitempty"     validate:"omitempty,gt=0"`
}

type UserResponse struct {
	ID            int64  `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type AuthResponse struct {
	User   UserResponse  `json:"user"`
	Tokens TokenResponse `json:"tokens"`
}
