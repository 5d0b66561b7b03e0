// Package feed discovers channel uploads through the public Atom feeds,
// costing no API quota.
package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vidfeed/feed-sync-go/internal/provider"
	"github.com/vidfeed/feed-sync-go/pkg/logger"
)

const defaultBaseURL = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"

// Feed is the Atom document served for a channel's uploads.
type Feed struct {
	XMLName xml.Name `xml:"http://www.w3.org/2005/Atom feed"`
	Title   string   `xml:"title"`
	Entries []Entry  `xml:"entry"`
}

// Entry is a single upload in the feed.
type Entry struct {
	VideoID   string     `xml:"http://www.youtube.com/xml/schemas/2015 videoId"`
	ChannelID string     `xml:"http://www.youtube.com/xml/schemas/2015 channelId"`
	Title     string     `xml:"title"`
	Published string     `xml:"published"`
	Author    Author     `xml:"author"`
	Media     MediaGroup `xml:"http://search.yahoo.com/mrss/ group"`
}

// Author carries the channel name as the feed reports it.
type Author struct {
	Name string `xml:"name"`
}

// MediaGroup holds the media-RSS extension elements.
type MediaGroup struct {
	Thumbnail MediaThumbnail `xml:"http://search.yahoo.com/mrss/ thumbnail"`
}

// MediaThumbnail is the feed's preview image.
type MediaThumbnail struct {
	URL string `xml:"url,attr"`
}

// Fetcher retrieves and parses channel upload feeds.
type Fetcher struct {
	client  *http.Client
	baseURL string
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithBaseURL overrides the feed URL template, which must contain one %s
// verb for the channel ID.
func WithBaseURL(tmpl string) Option {
	return func(f *Fetcher) { f.baseURL = tmpl }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// NewFetcher creates a feed Fetcher with a 15 second request timeout.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchChannelUploads returns the channel's uploads published after since.
// Entries that fail to parse are skipped individually; only transport and
// document-level failures are returned as errors.
func (f *Fetcher) FetchChannelUploads(ctx context.Context, channel provider.Channel, since time.Time) ([]provider.Candidate, error) {
	url := fmt.Sprintf(f.baseURL, channel.ID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &provider.Error{Op: "fetch feed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &provider.Error{
			Op:         "fetch feed",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status for channel %s", channel.ID),
		}
	}

	var doc Feed
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, &provider.Error{Op: "parse feed", Err: err}
	}

	var candidates []provider.Candidate
	for _, entry := range doc.Entries {
		if entry.VideoID == "" {
			continue
		}
		publishedAt, err := time.Parse(time.RFC3339, entry.Published)
		if err != nil {
			logger.Log.Debug("skipping feed entry with unparseable publish time",
				zap.String("video_id", entry.VideoID),
				zap.String("channel_id", channel.ID))
			continue
		}
		if !publishedAt.After(since) {
			continue
		}

		channelName := channel.Name
		if channelName == "" {
			channelName = entry.Author.Name
		}

		candidates = append(candidates, provider.Candidate{
			VideoID:      entry.VideoID,
			ChannelID:    channel.ID,
			ChannelName:  channelName,
			Title:        entry.Title,
			ThumbnailURL: entry.Media.Thumbnail.URL,
			PublishedAt:  publishedAt,
		})
	}

	return candidates, nil
}
