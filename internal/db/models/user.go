// Package models contains the persisted entities of the feed sync service.
package models

import (
	"time"

	"github.com/google/uuid"
)

// SentinelNoRefreshToken is stored when the OAuth consent flow completed
// without granting a refresh token. A user carrying it cannot be refreshed
// and must re-authenticate.
const SentinelNoRefreshToken = "no_refresh_token_received"

// User represents an authenticated account whose subscriptions we sync.
type User struct {
	ID           uuid.UUID  `db:"id"`
	GoogleID     string     `db:"google_id"`
	Email        string     `db:"email"`
	AccessToken  string     `db:"access_token"`
	RefreshToken string     `db:"refresh_token"`
	TokenExpiry  *time.Time `db:"token_expiry"`
	LastSyncedAt *time.Time `db:"last_synced_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// NewUser creates a User for a first successful authentication.
func NewUser(googleID, email, accessToken, refreshToken string, expiry time.Time) *User {
	now := time.Now()
	u := &User{
		ID:           uuid.New(),
		GoogleID:     googleID,
		Email:        email,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if !expiry.IsZero() {
		u.TokenExpiry = &expiry
	}
	return u
}

// NeedsReauth reports whether the stored refresh token is unusable.
func (u *User) NeedsReauth() bool {
	return u.RefreshToken == "" || u.RefreshToken == SentinelNoRefreshToken
}
