// Package app wires the sync pipeline from configuration. All three
// binaries (API server, queue worker, interval syncer) share this setup.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/api/option"

	"github.com/vidfeed/feed-sync-go/internal/auth"
	"github.com/vidfeed/feed-sync-go/internal/config"
	"github.com/vidfeed/feed-sync-go/internal/db"
	"github.com/vidfeed/feed-sync-go/internal/db/repository"
	"github.com/vidfeed/feed-sync-go/internal/feed"
	"github.com/vidfeed/feed-sync-go/internal/publisher"
	"github.com/vidfeed/feed-sync-go/internal/quota"
	syncer "github.com/vidfeed/feed-sync-go/internal/sync"
	"github.com/vidfeed/feed-sync-go/internal/youtube"
)

// App bundles the shared runtime dependencies of the binaries.
type App struct {
	Pool         *pgxpool.Pool
	Ledger       quota.Ledger
	Orchestrator *syncer.Orchestrator
	// Publisher is nil when no RabbitMQ host is configured.
	Publisher *publisher.MessagePublisher

	Users  repository.UserRepository
	Videos repository.VideoRepository
}

// New builds the pipeline. The caller owns Close.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	pool, err := db.NewPool(ctx, &db.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxConnections),
		MinConns:        int32(cfg.Database.MinConnections),
		MaxConnLifetime: cfg.Database.MaxLifetime,
		MaxConnIdleTime: cfg.Database.MaxIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	users := repository.NewUserRepository(pool)
	videos := repository.NewVideoRepository(pool)

	ledger, err := buildLedger(ctx, cfg, pool)
	if err != nil {
		db.Close(pool)
		return nil, err
	}

	refresher := auth.NewRefresher(auth.Config{
		ClientID:     cfg.YouTube.ClientID,
		ClientSecret: cfg.YouTube.ClientSecret,
		TokenURL:     cfg.YouTube.TokenURL,
	}, &auth.RepositoryStore{Users: users})

	var ytOpts []youtube.Option
	ytOpts = append(ytOpts, youtube.WithPageDelay(cfg.Sync.PageDelay))
	if cfg.YouTube.APIEndpoint != "" {
		ytOpts = append(ytOpts, youtube.WithClientOptions(option.WithEndpoint(cfg.YouTube.APIEndpoint)))
	}
	ytClient := youtube.NewClient(ledger, ytOpts...)

	feedFetcher := feed.NewFetcher()

	var pub *publisher.MessagePublisher
	if cfg.RabbitMQ.Host != "" {
		pub, err = publisher.NewMessagePublisher(&cfg.RabbitMQ)
		if err != nil {
			db.Close(pool)
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
	}

	orchCfg := syncer.OrchestratorConfig{
		Users:       users,
		Credentials: refresher,
		Lister:      ytClient,
		Search:      syncer.NewSearchDiscovery(ytClient, ledger),
		Feed:        syncer.NewFeedDiscovery(feedFetcher, cfg.Sync.FeedBatchSize, cfg.Sync.FeedBatchDelay),
		Filter:      syncer.NewDurationFilter(ytClient, time.Duration(cfg.Sync.ShortMaxSeconds)*time.Second),
		Persister:   syncer.NewPersister(videos, cfg.Sync.PersistBatchSize),
		Ledger:      ledger,
		Strategy:    syncer.Strategy(cfg.Sync.Strategy),
		Lookback:    cfg.Sync.Lookback,
		UserDelay:   cfg.Sync.UserDelay,
	}
	if pub != nil {
		orchCfg.Publisher = pub
	}

	return &App{
		Pool:         pool,
		Ledger:       ledger,
		Orchestrator: syncer.NewOrchestrator(orchCfg),
		Publisher:    pub,
		Users:        users,
		Videos:       videos,
	}, nil
}

func buildLedger(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (quota.Ledger, error) {
	switch cfg.Quota.Backend {
	case "", "memory":
		return quota.NewMemoryLedger(cfg.Quota.DailyLimit), nil
	case "postgres":
		ledger, err := quota.NewStoreLedger(ctx, repository.NewQuotaRepository(pool), cfg.Quota.DailyLimit)
		if err != nil {
			return nil, fmt.Errorf("init quota ledger: %w", err)
		}
		return ledger, nil
	default:
		return nil, fmt.Errorf("unknown quota backend %q", cfg.Quota.Backend)
	}
}

// Close releases the app's connections.
func (a *App) Close() {
	if a.Publisher != nil {
		_ = a.Publisher.Close()
	}
	db.Close(a.Pool)
}
