package models

import (
	"time"

	"github.com/google/uuid"
)

// DurationUnknown marks a video whose runtime could not be resolved.
// Such videos are kept rather than silently dropped.
const DurationUnknown = "Unknown"

// Video represents a discovered upload, scoped to the user it was synced for.
// Rows are insert-only: the first write wins and conflicting re-discoveries
// are ignored.
type Video struct {
	UserID       uuid.UUID `db:"user_id"`
	VideoID      string    `db:"video_id"`
	ChannelID    string    `db:"channel_id"`
	ChannelName  string    `db:"channel_name"`
	Title        string    `db:"title"`
	ThumbnailURL string    `db:"thumbnail_url"`
	PublishedAt  time.Time `db:"published_at"`
	Duration     string    `db:"duration"`
	CreatedAt    time.Time `db:"created_at"`
}

// NewVideo creates a Video record ready for persistence.
func NewVideo(userID uuid.UUID, videoID, channelID, channelName, title, thumbnailURL string, publishedAt time.Time, duration string) *Video {
	if duration == "" {
		duration = DurationUnknown
	}
	return &Video{
		UserID:       userID,
		VideoID:      videoID,
		ChannelID:    channelID,
		ChannelName:  channelName,
		Title:        title,
		ThumbnailURL: thumbnailURL,
		PublishedAt:  publishedAt,
		Duration:     duration,
		CreatedAt:    time.Now(),
	}
}
