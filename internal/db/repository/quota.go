package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidfeed/feed-sync-go/internal/db"
	"github.com/vidfeed/feed-sync-go/internal/db/models"
)

// QuotaRepository defines the interface for daily quota accounting rows.
type QuotaRepository interface {
	// GetUsage returns the row for the given UTC date, creating it with the
	// given limit if it does not exist yet.
	GetUsage(ctx context.Context, date time.Time, quotaLimit int) (*models.QuotaUsage, error)
	// Increment adds cost units to the given date's row under the named
	// call-kind column.
	Increment(ctx context.Context, date time.Time, kind string, cost int, quotaLimit int) error
}

type quotaRepository struct {
	pool *pgxpool.Pool
}

// NewQuotaRepository creates a new PostgreSQL-backed quota repository.
func NewQuotaRepository(pool *pgxpool.Pool) QuotaRepository {
	return &quotaRepository{pool: pool}
}

func (r *quotaRepository) GetUsage(ctx context.Context, date time.Time, quotaLimit int) (*models.QuotaUsage, error) {
	query := `
		INSERT INTO api_quota_usage (date, quota_used, quota_limit, operations_count, updated_at)
		VALUES ($1, 0, $2, 0, NOW())
		ON CONFLICT (date) DO UPDATE SET quota_limit = EXCLUDED.quota_limit
		RETURNING date, quota_used, quota_limit, operations_count,
		          subscriptions_calls, search_calls, videos_calls, other_calls, updated_at`

	usage := &models.QuotaUsage{}
	err := r.pool.QueryRow(ctx, query, date.UTC().Truncate(24*time.Hour), quotaLimit).Scan(
		&usage.Date,
		&usage.QuotaUsed,
		&usage.QuotaLimit,
		&usage.OperationsCount,
		&usage.SubscriptionsCalls,
		&usage.SearchCalls,
		&usage.VideosCalls,
		&usage.OtherCalls,
		&usage.UpdatedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, "get quota usage")
	}

	return usage, nil
}

// callColumn maps an operation kind to its counter column. The whitelist
// keeps the column name out of reach of query parameters.
func callColumn(kind string) string {
	switch kind {
	case "subscriptions":
		return "subscriptions_calls"
	case "search":
		return "search_calls"
	case "videos":
		return "videos_calls"
	default:
		return "other_calls"
	}
}

func (r *quotaRepository) Increment(ctx context.Context, date time.Time, kind string, cost int, quotaLimit int) error {
	column := callColumn(kind)
	query := fmt.Sprintf(`
		INSERT INTO api_quota_usage (date, quota_used, quota_limit, operations_count, %s, updated_at)
		VALUES ($1, $2, $3, 1, 1, NOW())
		ON CONFLICT (date) DO UPDATE SET
			quota_used = api_quota_usage.quota_used + EXCLUDED.quota_used,
			operations_count = api_quota_usage.operations_count + 1,
			%s = api_quota_usage.%s + 1,
			updated_at = NOW()`, column, column, column)

	_, err := r.pool.Exec(ctx, query, date.UTC().Truncate(24*time.Hour), cost, quotaLimit)
	if err != nil {
		return db.WrapError(err, "increment quota usage")
	}

	return nil
}
