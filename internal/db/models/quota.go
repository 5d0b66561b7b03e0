package models

import "time"

// QuotaUsage is the per-day row backing the store-backed quota ledger.
type QuotaUsage struct {
	Date               time.Time `db:"date"`
	QuotaUsed          int       `db:"quota_used"`
	QuotaLimit         int       `db:"quota_limit"`
	OperationsCount    int       `db:"operations_count"`
	SubscriptionsCalls int       `db:"subscriptions_calls"`
	SearchCalls        int       `db:"search_calls"`
	VideosCalls        int       `db:"videos_calls"`
	OtherCalls         int       `db:"other_calls"`
	UpdatedAt          time.Time `db:"updated_at"`
}

// Remaining returns the unconsumed portion of the daily budget.
func (q *QuotaUsage) Remaining() int {
	r := q.QuotaLimit - q.QuotaUsed
	if r < 0 {
		return 0
	}
	return r
}
