package quota

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vidfeed/feed-sync-go/internal/db/repository"
	"github.com/vidfeed/feed-sync-go/pkg/logger"
)

// storeTimeout bounds the write-through calls so ledger operations stay
// cheap for callers that hold no context.
const storeTimeout = 3 * time.Second

// StoreLedger layers durable per-day accounting on top of a MemoryLedger.
// Admission decisions come from the in-memory counters; every successful
// Consume is written through to the database so usage survives restarts.
type StoreLedger struct {
	*MemoryLedger
	repo repository.QuotaRepository
}

// NewStoreLedger creates a database-backed ledger, priming the in-memory
// counters from today's persisted row.
func NewStoreLedger(ctx context.Context, repo repository.QuotaRepository, limit int) (*StoreLedger, error) {
	mem := NewMemoryLedger(limit)

	usage, err := repo.GetUsage(ctx, mem.now(), mem.limit)
	if err != nil {
		return nil, err
	}
	mem.mu.Lock()
	mem.used = usage.QuotaUsed
	mem.mu.Unlock()

	return &StoreLedger{MemoryLedger: mem, repo: repo}, nil
}

// Consume records the operations in memory and writes the increment through
// to the daily row. A failed write does not undo the in-memory accounting;
// undercounting quota is worse than overcounting.
func (l *StoreLedger) Consume(kind OperationKind, count int) error {
	if err := l.MemoryLedger.Consume(kind, count); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := l.repo.Increment(ctx, l.now(), string(kind), kind.Cost()*count, l.limit); err != nil {
		logger.Log.Warn("failed to persist quota increment",
			zap.String("kind", string(kind)),
			zap.Int("count", count),
			zap.Error(err))
	}

	return nil
}
