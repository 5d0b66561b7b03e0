// Package quota tracks daily API quota consumption and advises the sync
// pipeline on pacing and batch sizing.
package quota

import (
	"errors"
	"sync"
	"time"
)

// OperationKind names a quota-costed API call family.
type OperationKind string

const (
	OpSubscriptions OperationKind = "subscriptions"
	OpSearch        OperationKind = "search"
	OpVideos        OperationKind = "videos"
)

// ErrQuotaExceeded is returned when an operation would push usage past the
// daily limit.
var ErrQuotaExceeded = errors.New("daily quota exceeded")

// DefaultDailyLimit matches the free-tier daily unit budget.
const DefaultDailyLimit = 10000

// recentOpsCap bounds the trailing operation log.
const recentOpsCap = 100

// Cost returns the unit cost of a single call of this kind.
func (k OperationKind) Cost() int {
	switch k {
	case OpSubscriptions, OpSearch, OpVideos:
		return 1
	default:
		return 1
	}
}

// batchCap returns the provider's maximum items per call of this kind.
func (k OperationKind) batchCap() int {
	switch k {
	case OpSearch:
		return 10
	default:
		return 50
	}
}

// Usage is a snapshot of the current day's consumption.
type Usage struct {
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// Operation is one entry of the trailing operation log.
type Operation struct {
	Kind OperationKind `json:"kind"`
	Cost int           `json:"cost"`
	At   time.Time     `json:"at"`
}

// Ledger admits, records and reports quota-costed operations.
type Ledger interface {
	// CanConsume reports whether count operations of the given kind fit in
	// the remaining budget.
	CanConsume(kind OperationKind, count int) bool
	// Consume records count operations of the given kind, or returns
	// ErrQuotaExceeded without recording anything.
	Consume(kind OperationKind, count int) error
	// CurrentUsage returns a snapshot of today's consumption.
	CurrentUsage() Usage
	// RecommendedDelay returns the pacing pause appropriate for the current
	// utilization level.
	RecommendedDelay() time.Duration
	// OptimalBatchSize returns how many of desired items to request per
	// call, bounded by the provider cap and the remaining budget.
	OptimalBatchSize(kind OperationKind, desired int) int
	// RecentOperations returns the trailing operation log, oldest first.
	RecentOperations() []Operation
}

// MemoryLedger is an in-process Ledger. Counters reset lazily at the next
// UTC midnight.
type MemoryLedger struct {
	mu      sync.Mutex
	limit   int
	used    int
	resetAt time.Time
	recent  []Operation
	now     func() time.Time
}

// NewMemoryLedger creates a ledger with the given daily limit. A limit of
// zero or less falls back to DefaultDailyLimit.
func NewMemoryLedger(limit int) *MemoryLedger {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	l := &MemoryLedger{
		limit: limit,
		now:   time.Now,
	}
	l.resetAt = nextMidnightUTC(l.now())
	return l
}

func nextMidnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

// rollover clears the counters once the reset boundary has passed.
// Callers must hold mu.
func (l *MemoryLedger) rollover() {
	now := l.now()
	if now.Before(l.resetAt) {
		return
	}
	l.used = 0
	l.recent = nil
	l.resetAt = nextMidnightUTC(now)
}

func (l *MemoryLedger) CanConsume(kind OperationKind, count int) bool {
	if count <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover()
	return l.used+kind.Cost()*count <= l.limit
}

func (l *MemoryLedger) Consume(kind OperationKind, count int) error {
	if count <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover()

	cost := kind.Cost() * count
	if l.used+cost > l.limit {
		return ErrQuotaExceeded
	}
	l.used += cost

	l.recent = append(l.recent, Operation{Kind: kind, Cost: cost, At: l.now()})
	if len(l.recent) > recentOpsCap {
		l.recent = l.recent[len(l.recent)-recentOpsCap:]
	}

	return nil
}

func (l *MemoryLedger) CurrentUsage() Usage {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover()

	remaining := l.limit - l.used
	if remaining < 0 {
		remaining = 0
	}
	return Usage{
		Used:      l.used,
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   l.resetAt,
	}
}

func (l *MemoryLedger) RecommendedDelay() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover()
	return delayFor(l.used, l.limit)
}

// delayFor maps utilization to a pacing pause. Thresholds step up as the
// budget depletes.
func delayFor(used, limit int) time.Duration {
	utilization := float64(used) / float64(limit)
	switch {
	case utilization < 0.6:
		return 100 * time.Millisecond
	case utilization < 0.8:
		return time.Second
	case utilization < 0.9:
		return 5 * time.Second
	default:
		return 30 * time.Second
	}
}

func (l *MemoryLedger) OptimalBatchSize(kind OperationKind, desired int) int {
	if desired <= 0 {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover()

	size := desired
	if max := kind.batchCap(); size > max {
		size = max
	}
	remaining := l.limit - l.used
	if remaining <= 0 {
		return 0
	}
	if affordable := remaining / kind.Cost(); size > affordable {
		size = affordable
	}
	return size
}

func (l *MemoryLedger) RecentOperations() []Operation {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover()

	out := make([]Operation, len(l.recent))
	copy(out, l.recent)
	return out
}
