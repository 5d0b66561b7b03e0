// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	YouTube  YouTubeConfig
	Quota    QuotaConfig
	Sync     SyncConfig
	Logging  LoggingConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	APIKeys         []string
}

// DatabaseConfig contains database connection configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DatabaseConfig struct {
	Host           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	Port           int
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

// RedisConfig contains the task queue broker address. An empty URL disables
// background job enqueueing; sync requests then run inline.
type RedisConfig struct {
	URL string
}

// RabbitMQConfig contains RabbitMQ connection and topology configuration.
// An empty host disables event publishing.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RabbitMQConfig struct {
	Host       string
	User       string
	Password   string
	Exchange   string
	Queue      string
	RoutingKey string
	Port       int
}

// YouTubeConfig contains OAuth client credentials and provider endpoints.
type YouTubeConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	// APIEndpoint overrides the Data API base URL; empty means the real API.
	APIEndpoint string
}

// QuotaConfig controls the daily API budget ledger.
type QuotaConfig struct {
	// Backend is "memory" for a process-local ledger or "postgres" for the
	// shared store-backed ledger.
	Backend    string
	DailyLimit int
}

// SyncConfig contains ingestion pipeline tuning.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type SyncConfig struct {
	// Strategy is "search", "feed", or "auto" (feed when the remaining quota
	// cannot cover one search call per subscribed channel).
	Strategy         string
	Lookback         time.Duration
	ShortMaxSeconds  int
	Interval         time.Duration
	UserDelay        time.Duration
	PageDelay        time.Duration
	FeedBatchSize    int
	FeedBatchDelay   time.Duration
	PersistBatchSize int
	RunTimeout       time.Duration
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)
	viper.SetDefault("server.apikeys", []string{})

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "vidfeed")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxconnections", 10)
	viper.SetDefault("database.minconnections", 2)
	viper.SetDefault("database.maxidletime", 10*time.Minute)
	viper.SetDefault("database.maxlifetime", 1*time.Hour)

	// Redis / task queue
	viper.SetDefault("redis.url", "")

	// RabbitMQ
	viper.SetDefault("rabbitmq.host", "")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.user", "guest")
	viper.SetDefault("rabbitmq.password", "guest")
	viper.SetDefault("rabbitmq.exchange", "vidfeed.events")
	viper.SetDefault("rabbitmq.queue", "vidfeed.videos.ingested")
	viper.SetDefault("rabbitmq.routingkey", "video.ingested")

	// YouTube / OAuth
	viper.SetDefault("youtube.clientid", "")
	viper.SetDefault("youtube.clientsecret", "")
	viper.SetDefault("youtube.tokenurl", "https://oauth2.googleapis.com/token")
	viper.SetDefault("youtube.apiendpoint", "")

	// Quota
	viper.SetDefault("quota.backend", "memory")
	viper.SetDefault("quota.dailylimit", 10000)

	// Sync
	viper.SetDefault("sync.strategy", "auto")
	viper.SetDefault("sync.lookback", 24*time.Hour)
	viper.SetDefault("sync.shortmaxseconds", 150)
	viper.SetDefault("sync.interval", 6*time.Hour)
	viper.SetDefault("sync.userdelay", 2*time.Second)
	viper.SetDefault("sync.pagedelay", 100*time.Millisecond)
	viper.SetDefault("sync.feedbatchsize", 10)
	viper.SetDefault("sync.feedbatchdelay", 150*time.Millisecond)
	viper.SetDefault("sync.persistbatchsize", 100)
	viper.SetDefault("sync.runtimeout", 10*time.Minute)
}
