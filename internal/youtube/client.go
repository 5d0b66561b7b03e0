// Package youtube wraps the Data API calls the sync pipeline depends on,
// charging every call against the quota ledger.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/vidfeed/feed-sync-go/internal/provider"
	"github.com/vidfeed/feed-sync-go/internal/quota"
	"github.com/vidfeed/feed-sync-go/pkg/logger"
)

const (
	subscriptionsPageSize = 50
	searchMaxResults      = 10
	videosBatchSize       = 50

	defaultPageDelay = 100 * time.Millisecond
)

// Client calls the YouTube Data API on behalf of a user. Every request is
// admitted through the quota ledger before it is sent.
type Client struct {
	ledger    quota.Ledger
	pageDelay time.Duration
	opts      []option.ClientOption
}

// Option customizes a Client.
type Option func(*Client)

// WithPageDelay overrides the pause between subscription pages.
func WithPageDelay(d time.Duration) Option {
	return func(c *Client) { c.pageDelay = d }
}

// WithClientOptions appends Google API client options, e.g. an endpoint
// override for tests.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(c *Client) { c.opts = append(c.opts, opts...) }
}

// NewClient creates a Client charging against the given ledger.
func NewClient(ledger quota.Ledger, opts ...Option) *Client {
	c := &Client{
		ledger:    ledger,
		pageDelay: defaultPageDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) service(ctx context.Context, accessToken string) (*yt.Service, error) {
	opts := append([]option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})),
	}, c.opts...)

	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return svc, nil
}

func wrapAPIError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &provider.Error{Op: op, StatusCode: apiErr.Code, Err: err}
	}
	return &provider.Error{Op: op, Err: err}
}

// ListAllSubscriptions enumerates every channel the user is subscribed to,
// one page of 50 at a time. Each page costs one quota unit; any page failure
// aborts the enumeration.
func (c *Client) ListAllSubscriptions(ctx context.Context, accessToken string) ([]provider.Channel, error) {
	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	var channels []provider.Channel
	pageToken := ""
	for {
		if err := c.ledger.Consume(quota.OpSubscriptions, 1); err != nil {
			return channels, err
		}

		call := svc.Subscriptions.List([]string{"snippet"}).
			Mine(true).
			MaxResults(subscriptionsPageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, wrapAPIError("list subscriptions", err)
		}

		for _, item := range resp.Items {
			if item.Snippet == nil || item.Snippet.ResourceId == nil {
				continue
			}
			channels = append(channels, provider.Channel{
				ID:   item.Snippet.ResourceId.ChannelId,
				Name: item.Snippet.Title,
			})
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}

		select {
		case <-ctx.Done():
			return channels, ctx.Err()
		case <-time.After(c.pageDelay):
		}
	}

	logger.Log.Debug("enumerated subscriptions", zap.Int("channels", len(channels)))
	return channels, nil
}

// SearchRecentUploads returns the channel's uploads published after since,
// newest first, capped at 10 results. Costs one quota unit.
func (c *Client) SearchRecentUploads(ctx context.Context, accessToken string, channel provider.Channel, since time.Time) ([]provider.Candidate, error) {
	if err := c.ledger.Consume(quota.OpSearch, 1); err != nil {
		return nil, err
	}

	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Search.List([]string{"snippet"}).
		ChannelId(channel.ID).
		Type("video").
		Order("date").
		PublishedAfter(since.UTC().Format(time.RFC3339)).
		MaxResults(searchMaxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapAPIError("search uploads", err)
	}

	var candidates []provider.Candidate
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		if err != nil {
			logger.Log.Debug("skipping result with unparseable publish time",
				zap.String("video_id", item.Id.VideoId))
			continue
		}
		candidates = append(candidates, provider.Candidate{
			VideoID:      item.Id.VideoId,
			ChannelID:    channel.ID,
			ChannelName:  channel.Name,
			Title:        item.Snippet.Title,
			ThumbnailURL: bestThumbnail(item.Snippet.Thumbnails),
			PublishedAt:  publishedAt,
		})
	}

	return candidates, nil
}

// FetchDurations resolves runtimes in seconds for the given video IDs in
// batches of up to 50, one quota unit per batch. Failed batches are reported
// as soft errors and their videos stay unresolved; only quota exhaustion
// stops the run, and it is returned alongside whatever was already resolved.
func (c *Client) FetchDurations(ctx context.Context, accessToken string, videoIDs []string) (map[string]int, []string, error) {
	durations := make(map[string]int, len(videoIDs))
	if len(videoIDs) == 0 {
		return durations, nil, nil
	}

	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return durations, nil, err
	}

	var softErrors []string
	for _, batch := range BatchIDs(videoIDs, videosBatchSize) {
		if err := c.ledger.Consume(quota.OpVideos, 1); err != nil {
			return durations, softErrors, err
		}

		resp, err := svc.Videos.List([]string{"contentDetails"}).
			Id(batch...).
			Context(ctx).
			Do()
		if err != nil {
			softErrors = append(softErrors,
				fmt.Sprintf("fetch durations for %d videos: %v", len(batch), err))
			continue
		}

		for _, item := range resp.Items {
			if item.ContentDetails == nil {
				continue
			}
			seconds, err := ParseDuration(item.ContentDetails.Duration)
			if err != nil {
				softErrors = append(softErrors,
					fmt.Sprintf("parse duration for %s: %v", item.Id, err))
				continue
			}
			durations[item.Id] = seconds
		}
	}

	return durations, softErrors, nil
}

// bestThumbnail picks the largest available thumbnail variant.
func bestThumbnail(t *yt.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, v := range []*yt.Thumbnail{t.Maxres, t.High, t.Medium, t.Default} {
		if v != nil && v.Url != "" {
			return v.Url
		}
	}
	return ""
}

// IsQuotaError reports whether err stems from quota exhaustion, either our
// own ledger or the provider's 403 quota responses.
func IsQuotaError(err error) bool {
	if errors.Is(err, quota.ErrQuotaExceeded) {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 403 {
		for _, e := range apiErr.Errors {
			if strings.Contains(e.Reason, "quota") {
				return true
			}
		}
	}
	return false
}
