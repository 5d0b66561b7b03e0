// Package repository provides data access for the feed sync service.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidfeed/feed-sync-go/internal/db"
	"github.com/vidfeed/feed-sync-go/internal/db/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	ListAll(ctx context.Context) ([]*models.User, error)
	UpdateTokens(ctx context.Context, id uuid.UUID, accessToken string, expiry time.Time) error
	ClearAccessToken(ctx context.Context, id uuid.UUID) error
	TouchLastSynced(ctx context.Context, id uuid.UUID, at time.Time) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

// Create inserts a new user, or refreshes the tokens of an existing one
// identified by google_id.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, google_id, email, access_token, refresh_token, token_expiry, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (google_id) DO UPDATE SET
			email = EXCLUDED.email,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expiry = EXCLUDED.token_expiry,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.GoogleID,
		user.Email,
		user.AccessToken,
		user.RefreshToken,
		user.TokenExpiry,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return db.WrapError(err, "create user")
	}

	return nil
}

// GetByID retrieves a user by their internal ID.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, google_id, email, access_token, refresh_token, token_expiry,
		       last_synced_at, created_at, updated_at
		FROM users
		WHERE id = $1`

	user := &models.User{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.GoogleID,
		&user.Email,
		&user.AccessToken,
		&user.RefreshToken,
		&user.TokenExpiry,
		&user.LastSyncedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, "get user by id")
	}

	return user, nil
}

// GetByGoogleID retrieves a user by their Google account ID.
func (r *userRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	query := `
		SELECT id, google_id, email, access_token, refresh_token, token_expiry,
		       last_synced_at, created_at, updated_at
		FROM users
		WHERE google_id = $1`

	user := &models.User{}
	err := r.pool.QueryRow(ctx, query, googleID).Scan(
		&user.ID,
		&user.GoogleID,
		&user.Email,
		&user.AccessToken,
		&user.RefreshToken,
		&user.TokenExpiry,
		&user.LastSyncedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, "get user by google id")
	}

	return user, nil
}

// ListAll returns every registered user, oldest first.
func (r *userRepository) ListAll(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT id, google_id, email, access_token, refresh_token, token_expiry,
		       last_synced_at, created_at, updated_at
		FROM users
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, db.WrapError(err, "list users")
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		err := rows.Scan(
			&user.ID,
			&user.GoogleID,
			&user.Email,
			&user.AccessToken,
			&user.RefreshToken,
			&user.TokenExpiry,
			&user.LastSyncedAt,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, db.WrapError(err, "scan user")
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate users")
	}

	return users, nil
}

// UpdateTokens persists a freshly issued access token and its expiry.
func (r *userRepository) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken string, expiry time.Time) error {
	query := `
		UPDATE users
		SET access_token = $2, token_expiry = $3, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, accessToken, expiry)
	if err != nil {
		return db.WrapError(err, "update user tokens")
	}
	if tag.RowsAffected() == 0 {
		return db.WrapError(db.ErrNotFound, "update user tokens")
	}

	return nil
}

// ClearAccessToken invalidates the stored access token so the next sync is
// forced through the refresh path.
func (r *userRepository) ClearAccessToken(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET access_token = '', token_expiry = NULL, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return db.WrapError(err, "clear access token")
	}
	if tag.RowsAffected() == 0 {
		return db.WrapError(db.ErrNotFound, "clear access token")
	}

	return nil
}

// TouchLastSynced records the completion time of a successful sync run.
func (r *userRepository) TouchLastSynced(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE users
		SET last_synced_at = $2, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return db.WrapError(err, "touch last synced")
	}
	if tag.RowsAffected() == 0 {
		return db.WrapError(db.ErrNotFound, "touch last synced")
	}

	return nil
}
