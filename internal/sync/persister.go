package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vidfeed/feed-sync-go/internal/db/models"
	"github.com/vidfeed/feed-sync-go/pkg/logger"
)

const persistBatchSize = 100

// Persister writes filtered videos in batches, ignoring rows the user
// already has. A failed batch is a soft error and does not stop the
// remaining batches.
type Persister struct {
	store     VideoStore
	batchSize int
}

// NewPersister creates a Persister. A non-positive batchSize falls back to
// the default of 100.
func NewPersister(store VideoStore, batchSize int) *Persister {
	if batchSize <= 0 {
		batchSize = persistBatchSize
	}
	return &Persister{store: store, batchSize: batchSize}
}

// Persist writes the given videos and returns the IDs of rows actually
// inserted, plus soft errors for batches that failed. An empty input is a
// no-op.
func (p *Persister) Persist(ctx context.Context, videos []*models.Video) ([]string, []string) {
	if len(videos) == 0 {
		return nil, nil
	}

	var inserted []string
	var softErrors []string

	for start := 0; start < len(videos); start += p.batchSize {
		end := start + p.batchSize
		if end > len(videos) {
			end = len(videos)
		}
		batch := videos[start:end]

		ids, err := p.store.InsertIgnoreDuplicates(ctx, batch)
		inserted = append(inserted, ids...)
		if err != nil {
			softErrors = append(softErrors,
				fmt.Sprintf("persist batch of %d videos: %v", len(batch), err))
		}
	}

	logger.Log.Debug("persisted videos",
		zap.Int("in", len(videos)),
		zap.Int("inserted", len(inserted)),
		zap.Int("failed_batches", len(softErrors)))

	return inserted, softErrors
}
