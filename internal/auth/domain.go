package auth

import (
	"context"
	"time"
)

// User represents an account as seen by the authenticator.
// BranchID is zero for super admins, who belong to no single branch.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         string
	BranchID     int64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repository provides the account lookups the authenticator needs.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

// TokenPair is the access/refresh credential pair minted at login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}
