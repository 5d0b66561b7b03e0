package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidfeed/feed-sync-go/internal/auth"
	"github.com/vidfeed/feed-sync-go/internal/db/models"
	"github.com/vidfeed/feed-sync-go/internal/provider"
	"github.com/vidfeed/feed-sync-go/internal/quota"
	"github.com/vidfeed/feed-sync-go/internal/youtube"
	"github.com/vidfeed/feed-sync-go/pkg/logger"
)

// Strategy selects how uploads are discovered.
type Strategy string

const (
	// StrategySearch uses per-channel API searches.
	StrategySearch Strategy = "search"
	// StrategyFeed polls the public Atom feeds.
	StrategyFeed Strategy = "feed"
	// StrategyAuto uses search while the quota budget allows one search
	// per channel, falling back to feeds otherwise.
	StrategyAuto Strategy = "auto"
)

const defaultUserDelay = 2 * time.Second

// Orchestrator drives a sync run end to end for one user or all users.
type Orchestrator struct {
	users       UserStore
	credentials CredentialSource
	lister      ChannelLister
	search      Discoverer
	feed        Discoverer
	filter      *DurationFilter
	persister   *Persister
	publisher   EventPublisher
	ledger      quota.Ledger

	strategy  Strategy
	lookback  time.Duration
	userDelay time.Duration
	now       func() time.Time
}

// OrchestratorConfig wires an Orchestrator.
type OrchestratorConfig struct {
	Users       UserStore
	Credentials CredentialSource
	Lister      ChannelLister
	Search      Discoverer
	Feed        Discoverer
	Filter      *DurationFilter
	Persister   *Persister
	// Publisher may be nil when no message broker is configured.
	Publisher EventPublisher
	Ledger    quota.Ledger

	Strategy Strategy
	// Lookback bounds how far back discovery reaches.
	Lookback time.Duration
	// UserDelay is the pause between users in a full sync pass.
	UserDelay time.Duration
}

// NewOrchestrator creates an Orchestrator from the given dependencies.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	o := &Orchestrator{
		users:       cfg.Users,
		credentials: cfg.Credentials,
		lister:      cfg.Lister,
		search:      cfg.Search,
		feed:        cfg.Feed,
		filter:      cfg.Filter,
		persister:   cfg.Persister,
		publisher:   cfg.Publisher,
		ledger:      cfg.Ledger,
		strategy:    cfg.Strategy,
		lookback:    cfg.Lookback,
		userDelay:   cfg.UserDelay,
		now:         time.Now,
	}
	if o.strategy == "" {
		o.strategy = StrategyAuto
	}
	if o.lookback <= 0 {
		o.lookback = 24 * time.Hour
	}
	if o.userDelay <= 0 {
		o.userDelay = defaultUserDelay
	}
	return o
}

// RunSyncForUser synchronizes one user. Credential failures and quota
// exhaustion terminate the run with their dedicated statuses; other
// provider failures during channel enumeration are returned as errors.
func (o *Orchestrator) RunSyncForUser(ctx context.Context, userID uuid.UUID) (*Result, error) {
	started := o.now()
	result := &Result{
		RunID:  uuid.New(),
		UserID: userID,
	}
	usageBefore := o.ledger.CurrentUsage().Used

	finish := func(status Status) *Result {
		result.Status = status
		result.Duration = o.now().Sub(started)
		result.QuotaUsed = o.ledger.CurrentUsage().Used - usageBefore
		if result.QuotaUsed < 0 {
			result.QuotaUsed = 0
		}
		logger.Log.Info("sync run finished",
			zap.String("run_id", result.RunID.String()),
			zap.String("user_id", userID.String()),
			zap.String("status", string(status)),
			zap.Int("channels_synced", result.ChannelsSynced),
			zap.Int("videos_synced", result.VideosSynced),
			zap.Int("quota_used", result.QuotaUsed),
			zap.Duration("duration", result.Duration))
		return result
	}

	user, err := o.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}

	token, err := o.credentials.ValidAccessToken(ctx, user)
	if err != nil {
		if errors.Is(err, auth.ErrNeedsReauth) {
			result.Errors = append(result.Errors, err.Error())
			return finish(StatusNeedsReauth), nil
		}
		return nil, fmt.Errorf("obtain access token: %w", err)
	}

	channels, err := o.lister.ListAllSubscriptions(ctx, token)
	if err != nil {
		if youtube.IsQuotaError(err) {
			result.Errors = append(result.Errors, err.Error())
			return finish(StatusQuotaExceeded), nil
		}
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	if len(channels) == 0 {
		return finish(StatusSuccess), nil
	}

	since := o.now().Add(-o.lookback)
	discoverer := o.pick(channels)

	candidates, softErrors, discoverErr := discoverer.Discover(ctx, token, channels, since)
	result.Errors = append(result.Errors, softErrors...)

	kept, filterErrors, filterErr := o.filter.Apply(ctx, token, candidates)
	result.Errors = append(result.Errors, filterErrors...)

	videos := make([]*models.Video, 0, len(kept))
	channelSet := make(map[string]struct{})
	for _, c := range kept {
		videos = append(videos, models.NewVideo(
			user.ID, c.VideoID, c.ChannelID, c.ChannelName,
			c.Title, c.ThumbnailURL, c.PublishedAt, c.Duration,
		))
		channelSet[c.ChannelID] = struct{}{}
	}
	result.ChannelsSynced = len(channelSet)

	inserted, persistErrors := o.persister.Persist(ctx, videos)
	result.Errors = append(result.Errors, persistErrors...)
	result.VideosSynced = len(inserted)

	if err := o.users.TouchLastSynced(ctx, user.ID, o.now()); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("record last sync time: %v", err))
	}

	o.publishInserted(ctx, videos, inserted, result)

	// Quota running out mid-run still persists everything discovered
	// before the wall.
	if errors.Is(discoverErr, quota.ErrQuotaExceeded) || errors.Is(filterErr, quota.ErrQuotaExceeded) {
		result.Errors = append(result.Errors, quota.ErrQuotaExceeded.Error())
		return finish(StatusQuotaExceeded), nil
	}
	if discoverErr != nil {
		return nil, fmt.Errorf("discover uploads: %w", discoverErr)
	}
	// A duration-lookup outage only costs runtime metadata; the harvest is
	// already persisted, so record the failure and finish.
	if filterErr != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("resolve durations: %v", filterErr))
	}

	return finish(StatusSuccess), nil
}

// pick selects the discovery strategy for this run.
func (o *Orchestrator) pick(channels []provider.Channel) Discoverer {
	switch o.strategy {
	case StrategySearch:
		return o.search
	case StrategyFeed:
		return o.feed
	default:
		if o.ledger.CanConsume(quota.OpSearch, len(channels)) {
			return o.search
		}
		logger.Log.Info("quota budget too low for search, using feeds",
			zap.Int("channels", len(channels)))
		return o.feed
	}
}

func (o *Orchestrator) publishInserted(ctx context.Context, videos []*models.Video, inserted []string, result *Result) {
	if o.publisher == nil || len(inserted) == 0 {
		return
	}

	insertedSet := make(map[string]struct{}, len(inserted))
	for _, id := range inserted {
		insertedSet[id] = struct{}{}
	}

	for _, v := range videos {
		if _, ok := insertedSet[v.VideoID]; !ok {
			continue
		}
		if err := o.publisher.PublishVideoIngested(ctx, v); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("publish video %s: %v", v.VideoID, err))
		}
	}
}

// RunSyncForAllUsers synchronizes every registered user sequentially with a
// pause between users. Per-user failures are recorded and do not stop the
// pass.
func (o *Orchestrator) RunSyncForAllUsers(ctx context.Context) (*BatchResult, error) {
	started := o.now()

	users, err := o.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	batch := &BatchResult{TotalUsers: len(users)}
	for i, user := range users {
		if i > 0 {
			select {
			case <-ctx.Done():
				batch.Duration = o.now().Sub(started)
				return batch, ctx.Err()
			case <-time.After(o.userDelay):
			}
		}

		result, err := o.RunSyncForUser(ctx, user.ID)
		if err != nil {
			batch.Failed++
			batch.Errors = append(batch.Errors,
				fmt.Sprintf("user %s: %v", user.ID, err))
			continue
		}

		batch.TotalVideosSynced += result.VideosSynced
		if result.Status == StatusSuccess {
			batch.Successful++
		} else {
			batch.Failed++
			batch.Errors = append(batch.Errors,
				fmt.Sprintf("user %s: %s", user.ID, result.Status))
		}
	}

	batch.Duration = o.now().Sub(started)
	logger.Log.Info("full sync pass finished",
		zap.Int("total_users", batch.TotalUsers),
		zap.Int("successful", batch.Successful),
		zap.Int("failed", batch.Failed),
		zap.Int("total_videos_synced", batch.TotalVideosSynced),
		zap.Duration("duration", batch.Duration))

	return batch, nil
}
