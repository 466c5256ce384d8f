package models

import "time"

// SignupRequest holds the payload for registering a new account.
type SignupRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Password  string `json:"password" validate:"required,min=6"`
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token pair.
type LoginResponse struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresIn  int64     `json:"access_expires_in"`
	RefreshExpiresIn int64     `json:"refresh_expires_in"`
	IssuedAt         time.Time `json:"issued_at"`
}

// RefreshResponse returns the reissued access token. The refresh token is not
// rotated; the stored session remains the authoritative copy.
type RefreshResponse struct {
	AccessToken     string    `json:"access_token"`
	AccessExpiresIn int64     `json:"access_expires_in"`
	IssuedAt        time.Time `json:"issued_at"`
}

// Identity is the authenticated principal resolved from a bearer token and
// carried explicitly through the request chain.
type Identity struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// RoleUser is the default authenticated-role marker attached by the resolver.
const RoleUser = "USER"
