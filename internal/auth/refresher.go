// Package auth keeps user OAuth credentials usable for API calls.
package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/vidfeed/feed-sync-go/internal/db/models"
	"github.com/vidfeed/feed-sync-go/pkg/logger"
)

// ErrNeedsReauth is returned when a user's credentials cannot be made valid
// without them going through the consent flow again.
var ErrNeedsReauth = errors.New("user must re-authenticate")

// expiryMargin is how long before the recorded expiry a token is already
// treated as stale.
const expiryMargin = 60 * time.Second

// TokenStore persists refreshed tokens and invalidates ones the provider
// has rejected.
type TokenStore interface {
	UpdateTokens(ctx context.Context, user *models.User, accessToken string, expiry time.Time) error
	ClearAccessToken(ctx context.Context, user *models.User) error
}

// Refresher exchanges refresh tokens for fresh access tokens and persists
// the result. Concurrent refreshes for the same user are collapsed into one
// provider call.
type Refresher struct {
	conf  *oauth2.Config
	store TokenStore
	group singleflight.Group
	now   func() time.Time
}

// Config carries the OAuth client settings for the refresher.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// NewRefresher creates a Refresher for the given OAuth client.
func NewRefresher(cfg Config, store TokenStore) *Refresher {
	return &Refresher{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL: cfg.TokenURL,
			},
		},
		store: store,
		now:   time.Now,
	}
}

// ValidAccessToken returns an access token usable for at least expiryMargin.
// The stored token is reused when still fresh; otherwise a refresh is
// performed and persisted. Any failure to produce a valid token maps to
// ErrNeedsReauth.
func (r *Refresher) ValidAccessToken(ctx context.Context, user *models.User) (string, error) {
	if r.tokenFresh(user) {
		return user.AccessToken, nil
	}
	return r.Refresh(ctx, user)
}

func (r *Refresher) tokenFresh(user *models.User) bool {
	if user.AccessToken == "" || user.TokenExpiry == nil {
		return false
	}
	return r.now().Add(expiryMargin).Before(*user.TokenExpiry)
}

// Refresh forces a token refresh regardless of the stored token's state.
// Duplicate concurrent calls for the same user share a single provider
// round trip.
func (r *Refresher) Refresh(ctx context.Context, user *models.User) (string, error) {
	if user.NeedsReauth() {
		logger.Log.Warn("user has no usable refresh token",
			zap.String("user_id", user.ID.String()))
		if user.AccessToken != "" {
			r.clearAccessState(ctx, user)
		}
		return "", ErrNeedsReauth
	}

	token, err, _ := r.group.Do(user.ID.String(), func() (interface{}, error) {
		return r.refreshOnce(ctx, user)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

func (r *Refresher) refreshOnce(ctx context.Context, user *models.User) (string, error) {
	src := r.conf.TokenSource(ctx, &oauth2.Token{
		RefreshToken: user.RefreshToken,
	})

	tok, err := src.Token()
	if err != nil {
		logger.Log.Warn("token refresh failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		r.clearAccessState(ctx, user)
		return "", ErrNeedsReauth
	}

	user.AccessToken = tok.AccessToken
	user.TokenExpiry = &tok.Expiry

	if err := r.store.UpdateTokens(ctx, user, tok.AccessToken, tok.Expiry); err != nil {
		// The token itself is good; losing the write only costs us a
		// refresh on the next run.
		logger.Log.Warn("failed to persist refreshed token",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
	}

	return tok.AccessToken, nil
}

// clearAccessState drops the stale access token in memory and in the
// store so nothing keeps serving a token the provider has rejected.
func (r *Refresher) clearAccessState(ctx context.Context, user *models.User) {
	user.AccessToken = ""
	user.TokenExpiry = nil

	if err := r.store.ClearAccessToken(ctx, user); err != nil {
		logger.Log.Warn("failed to clear stale access token",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
	}
}
