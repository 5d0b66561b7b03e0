package auth

import (
	"context"
	"time"

	"github.com/vidfeed/feed-sync-go/internal/db/models"
	"github.com/vidfeed/feed-sync-go/internal/db/repository"
)

// RepositoryStore adapts the user repository to the TokenStore interface.
type RepositoryStore struct {
	Users repository.UserRepository
}

func (s *RepositoryStore) UpdateTokens(ctx context.Context, user *models.User, accessToken string, expiry time.Time) error {
	return s.Users.UpdateTokens(ctx, user.ID, accessToken, expiry)
}

func (s *RepositoryStore) ClearAccessToken(ctx context.Context, user *models.User) error {
	return s.Users.ClearAccessToken(ctx, user.ID)
}
