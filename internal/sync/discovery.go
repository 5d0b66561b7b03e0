package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vidfeed/feed-sync-go/internal/provider"
	"github.com/vidfeed/feed-sync-go/internal/quota"
	"github.com/vidfeed/feed-sync-go/pkg/logger"
)

const (
	feedBatchSize  = 10
	feedBatchDelay = 150 * time.Millisecond
)

// DelayAdvisor recommends a pacing pause between provider calls.
// Implemented by quota.Ledger.
type DelayAdvisor interface {
	RecommendedDelay() time.Duration
}

// SearchDiscovery finds uploads with per-channel API searches. One quota
// unit per channel; a channel failure is soft unless it is quota
// exhaustion, which stops the pass. Between channels the pass pauses for
// the advisor's recommended delay, which grows as the day's budget
// depletes.
type SearchDiscovery struct {
	searcher Searcher
	// pacer may be nil, disabling pacing.
	pacer DelayAdvisor
}

// NewSearchDiscovery creates a search-based Discoverer.
func NewSearchDiscovery(searcher Searcher, pacer DelayAdvisor) *SearchDiscovery {
	return &SearchDiscovery{searcher: searcher, pacer: pacer}
}

func (d *SearchDiscovery) Discover(ctx context.Context, accessToken string, channels []provider.Channel, since time.Time) ([]provider.Candidate, []string, error) {
	var candidates []provider.Candidate
	var softErrors []string

	for i, ch := range channels {
		if i > 0 && d.pacer != nil {
			select {
			case <-ctx.Done():
				return candidates, softErrors, ctx.Err()
			case <-time.After(d.pacer.RecommendedDelay()):
			}
		}

		found, err := d.searcher.SearchRecentUploads(ctx, accessToken, ch, since)
		if err != nil {
			if errors.Is(err, quota.ErrQuotaExceeded) {
				return candidates, softErrors, err
			}
			if ctx.Err() != nil {
				return candidates, softErrors, ctx.Err()
			}
			softErrors = append(softErrors,
				fmt.Sprintf("search channel %s: %v", ch.ID, err))
			continue
		}
		candidates = append(candidates, found...)
	}

	return candidates, softErrors, nil
}

// FeedDiscovery finds uploads by polling the channels' public Atom feeds in
// concurrent batches. Costs no quota; every per-channel failure is soft.
type FeedDiscovery struct {
	fetcher    ChannelFetcher
	batchSize  int
	batchDelay time.Duration
}

// NewFeedDiscovery creates a feed-based Discoverer. Non-positive batch
// settings fall back to the defaults of 10 channels per batch and 150ms
// between batches.
func NewFeedDiscovery(fetcher ChannelFetcher, batchSize int, batchDelay time.Duration) *FeedDiscovery {
	if batchSize <= 0 {
		batchSize = feedBatchSize
	}
	if batchDelay <= 0 {
		batchDelay = feedBatchDelay
	}
	return &FeedDiscovery{
		fetcher:    fetcher,
		batchSize:  batchSize,
		batchDelay: batchDelay,
	}
}

func (d *FeedDiscovery) Discover(ctx context.Context, _ string, channels []provider.Channel, since time.Time) ([]provider.Candidate, []string, error) {
	var (
		mu         sync.Mutex
		candidates []provider.Candidate
		softErrors []string
	)

	for start := 0; start < len(channels); start += d.batchSize {
		if ctx.Err() != nil {
			return candidates, softErrors, ctx.Err()
		}

		end := start + d.batchSize
		if end > len(channels) {
			end = len(channels)
		}
		batch := channels[start:end]

		var wg sync.WaitGroup
		for _, ch := range batch {
			wg.Add(1)
			go func(ch provider.Channel) {
				defer wg.Done()
				found, err := d.fetcher.FetchChannelUploads(ctx, ch, since)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					softErrors = append(softErrors,
						fmt.Sprintf("fetch feed %s: %v", ch.ID, err))
					return
				}
				candidates = append(candidates, found...)
			}(ch)
		}
		wg.Wait()

		if end < len(channels) {
			select {
			case <-ctx.Done():
				return candidates, softErrors, ctx.Err()
			case <-time.After(d.batchDelay):
			}
		}
	}

	logger.Log.Debug("feed discovery complete",
		zap.Int("channels", len(channels)),
		zap.Int("candidates", len(candidates)),
		zap.Int("soft_errors", len(softErrors)))

	return candidates, softErrors, nil
}
