package sync

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vidfeed/feed-sync-go/internal/db/models"
	"github.com/vidfeed/feed-sync-go/internal/provider"
	"github.com/vidfeed/feed-sync-go/internal/youtube"
	"github.com/vidfeed/feed-sync-go/pkg/logger"
)

// DefaultShortMax is the runtime at or below which an upload is treated as
// a short and dropped.
const DefaultShortMax = 150 * time.Second

// DurationFilter resolves candidate runtimes and drops short-form uploads.
// Candidates whose runtime cannot be resolved are kept with an Unknown
// duration rather than discarded.
type DurationFilter struct {
	fetcher  DurationFetcher
	shortMax time.Duration
}

// NewDurationFilter creates a filter dropping videos at or under shortMax.
// A non-positive shortMax falls back to DefaultShortMax.
func NewDurationFilter(fetcher DurationFetcher, shortMax time.Duration) *DurationFilter {
	if shortMax <= 0 {
		shortMax = DefaultShortMax
	}
	return &DurationFilter{fetcher: fetcher, shortMax: shortMax}
}

// Apply returns the candidates that survive the short-form filter, with
// their Duration fields populated. Resolution failures are soft errors; a
// quota error is returned after filtering whatever resolved before it.
func (f *DurationFilter) Apply(ctx context.Context, accessToken string, candidates []provider.Candidate) ([]provider.Candidate, []string, error) {
	if len(candidates) == 0 {
		return nil, nil, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.VideoID)
	}

	durations, softErrors, quotaErr := f.fetcher.FetchDurations(ctx, accessToken, ids)

	var kept []provider.Candidate
	dropped := 0
	for _, c := range candidates {
		seconds, ok := durations[c.VideoID]
		if !ok {
			c.Duration = models.DurationUnknown
			kept = append(kept, c)
			continue
		}
		if time.Duration(seconds)*time.Second <= f.shortMax {
			dropped++
			continue
		}
		c.Duration = youtube.FormatDuration(seconds)
		kept = append(kept, c)
	}

	logger.Log.Debug("duration filter applied",
		zap.Int("in", len(candidates)),
		zap.Int("kept", len(kept)),
		zap.Int("dropped_short", dropped))

	return kept, softErrors, quotaErr
}
