package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidfeed/feed-sync-go/internal/db"
	"github.com/vidfeed/feed-sync-go/internal/db/models"
)

// VideoRepository defines the interface for video data access.
type VideoRepository interface {
	// InsertIgnoreDuplicates writes the given videos, skipping any that
	// already exist for their user, and returns the IDs actually inserted.
	InsertIgnoreDuplicates(ctx context.Context, videos []*models.Video) ([]string, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Video, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID uuid.UUID, videoID string) error
}

type videoRepository struct {
	pool *pgxpool.Pool
}

// NewVideoRepository creates a new PostgreSQL-backed video repository.
func NewVideoRepository(pool *pgxpool.Pool) VideoRepository {
	return &videoRepository{pool: pool}
}

const insertVideoQuery = `
	INSERT INTO videos (user_id, video_id, channel_id, channel_name, title, thumbnail_url, published_at, duration, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (user_id, video_id) DO NOTHING`

// InsertIgnoreDuplicates batches all inserts into one round trip. Conflicting
// rows are left untouched; a zero RowsAffected tells us the video was already
// known.
func (r *videoRepository) InsertIgnoreDuplicates(ctx context.Context, videos []*models.Video) ([]string, error) {
	if len(videos) == 0 {
		return nil, nil
	}

	batch := &pgx.Batch{}
	for _, v := range videos {
		batch.Queue(insertVideoQuery,
			v.UserID,
			v.VideoID,
			v.ChannelID,
			v.ChannelName,
			v.Title,
			v.ThumbnailURL,
			v.PublishedAt,
			v.Duration,
			v.CreatedAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	var inserted []string
	for _, v := range videos {
		tag, err := results.Exec()
		if err != nil {
			return inserted, db.WrapError(err, "insert video")
		}
		if tag.RowsAffected() > 0 {
			inserted = append(inserted, v.VideoID)
		}
	}

	return inserted, nil
}

// ListByUser returns a page of the user's videos, newest first.
func (r *videoRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Video, error) {
	query := `
		SELECT user_id, video_id, channel_id, channel_name, title, thumbnail_url, published_at, duration, created_at
		FROM videos
		WHERE user_id = $1
		ORDER BY published_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, db.WrapError(err, "list videos")
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		v := &models.Video{}
		err := rows.Scan(
			&v.UserID,
			&v.VideoID,
			&v.ChannelID,
			&v.ChannelName,
			&v.Title,
			&v.ThumbnailURL,
			&v.PublishedAt,
			&v.Duration,
			&v.CreatedAt,
		)
		if err != nil {
			return nil, db.WrapError(err, "scan video")
		}
		videos = append(videos, v)
	}

	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate videos")
	}

	return videos, nil
}

// CountByUser returns the number of videos stored for a user.
func (r *videoRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM videos WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, db.WrapError(err, "count videos")
	}
	return count, nil
}

// Delete removes a single video for a user. A later sync may legitimately
// re-insert it.
func (r *videoRepository) Delete(ctx context.Context, userID uuid.UUID, videoID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE user_id = $1 AND video_id = $2`, userID, videoID)
	if err != nil {
		return db.WrapError(err, "delete video")
	}
	if tag.RowsAffected() == 0 {
		return db.WrapError(db.ErrNotFound, "delete video")
	}
	return nil
}
