// Package sync orchestrates a full feed synchronization run: credential
// validation, channel enumeration, upload discovery, duration filtering and
// persistence.
package sync

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vidfeed/feed-sync-go/internal/db/models"
	"github.com/vidfeed/feed-sync-go/internal/provider"
)

// Status is the terminal state of a sync run.
type Status string

const (
	StatusSuccess       Status = "success"
	StatusNeedsReauth   Status = "needs_reauth"
	StatusQuotaExceeded Status = "quota_exceeded"
)

// Result summarizes one user's sync run.
type Result struct {
	RunID          uuid.UUID     `json:"run_id"`
	UserID         uuid.UUID     `json:"user_id"`
	Status         Status        `json:"status"`
	ChannelsSynced int           `json:"channels_synced"`
	VideosSynced   int           `json:"videos_synced"`
	Errors         []string      `json:"errors,omitempty"`
	QuotaUsed      int           `json:"quota_used"`
	Duration       time.Duration `json:"duration"`
}

// BatchResult summarizes a sync pass over all users.
type BatchResult struct {
	TotalUsers        int           `json:"total_users"`
	Successful        int           `json:"successful"`
	Failed            int           `json:"failed"`
	TotalVideosSynced int           `json:"total_videos_synced"`
	Errors            []string      `json:"errors,omitempty"`
	Duration          time.Duration `json:"duration"`
}

// CredentialSource produces a usable access token for a user.
type CredentialSource interface {
	ValidAccessToken(ctx context.Context, user *models.User) (string, error)
}

// ChannelLister enumerates a user's subscribed channels.
type ChannelLister interface {
	ListAllSubscriptions(ctx context.Context, accessToken string) ([]provider.Channel, error)
}

// Discoverer finds recent uploads across the given channels. Per-channel
// failures are reported as soft error strings; err is non-nil only for
// failures that end discovery early, with whatever was found so far still
// returned.
type Discoverer interface {
	Discover(ctx context.Context, accessToken string, channels []provider.Channel, since time.Time) ([]provider.Candidate, []string, error)
}

// DurationFetcher resolves runtimes in seconds for video IDs.
type DurationFetcher interface {
	FetchDurations(ctx context.Context, accessToken string, videoIDs []string) (map[string]int, []string, error)
}

// Searcher performs a per-channel recent-uploads search.
type Searcher interface {
	SearchRecentUploads(ctx context.Context, accessToken string, channel provider.Channel, since time.Time) ([]provider.Candidate, error)
}

// ChannelFetcher retrieves a channel's uploads from its public feed.
type ChannelFetcher interface {
	FetchChannelUploads(ctx context.Context, channel provider.Channel, since time.Time) ([]provider.Candidate, error)
}

// UserStore is the user persistence the orchestrator needs.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListAll(ctx context.Context) ([]*models.User, error)
	TouchLastSynced(ctx context.Context, id uuid.UUID, at time.Time) error
}

// VideoStore persists discovered videos.
type VideoStore interface {
	InsertIgnoreDuplicates(ctx context.Context, videos []*models.Video) ([]string, error)
}

// EventPublisher announces newly ingested videos.
type EventPublisher interface {
	PublishVideoIngested(ctx context.Context, video *models.Video) error
}
