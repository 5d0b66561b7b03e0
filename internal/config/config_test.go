package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		setup   func()
		cleanup func()
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "load with defaults (no config file)",
			setup: func() {
				viper.Reset()
			},
			cleanup: func() {},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != 8080 {
					t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
				}
				if cfg.Database.Host != "localhost" {
					t.Errorf("Database.Host = %s, want localhost", cfg.Database.Host)
				}
				if cfg.Database.Name != "vidfeed" {
					t.Errorf("Database.Name = %s, want vidfeed", cfg.Database.Name)
				}
				if cfg.Quota.DailyLimit != 10000 {
					t.Errorf("Quota.DailyLimit = %d, want 10000", cfg.Quota.DailyLimit)
				}
				if cfg.Quota.Backend != "memory" {
					t.Errorf("Quota.Backend = %s, want memory", cfg.Quota.Backend)
				}
				if cfg.Sync.Strategy != "auto" {
					t.Errorf("Sync.Strategy = %s, want auto", cfg.Sync.Strategy)
				}
				if cfg.Sync.Lookback != 24*time.Hour {
					t.Errorf("Sync.Lookback = %v, want 24h", cfg.Sync.Lookback)
				}
				if cfg.Sync.ShortMaxSeconds != 150 {
					t.Errorf("Sync.ShortMaxSeconds = %d, want 150", cfg.Sync.ShortMaxSeconds)
				}
				if cfg.Sync.UserDelay != 2*time.Second {
					t.Errorf("Sync.UserDelay = %v, want 2s", cfg.Sync.UserDelay)
				}
				if cfg.RabbitMQ.Exchange != "vidfeed.events" {
					t.Errorf("RabbitMQ.Exchange = %s, want vidfeed.events", cfg.RabbitMQ.Exchange)
				}
				if cfg.YouTube.TokenURL != "https://oauth2.googleapis.com/token" {
					t.Errorf("YouTube.TokenURL = %s", cfg.YouTube.TokenURL)
				}
			},
		},
		{
			name: "load with environment variables",
			setup: func() {
				viper.Reset()
				viper.SetEnvPrefix("APP")
				viper.AutomaticEnv()
				os.Setenv("APP_SERVER_PORT", "9090")
				os.Setenv("APP_DATABASE_HOST", "testdb")
				os.Setenv("APP_QUOTA_DAILYLIMIT", "500")
				os.Setenv("APP_SYNC_STRATEGY", "feed")
				// Manually bind env vars since AutomaticEnv doesn't work with nested keys
				viper.BindEnv("server.port", "APP_SERVER_PORT")
				viper.BindEnv("database.host", "APP_DATABASE_HOST")
				viper.BindEnv("quota.dailylimit", "APP_QUOTA_DAILYLIMIT")
				viper.BindEnv("sync.strategy", "APP_SYNC_STRATEGY")
			},
			cleanup: func() {
				os.Unsetenv("APP_SERVER_PORT")
				os.Unsetenv("APP_DATABASE_HOST")
				os.Unsetenv("APP_QUOTA_DAILYLIMIT")
				os.Unsetenv("APP_SYNC_STRATEGY")
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != 9090 {
					t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
				}
				if cfg.Database.Host != "testdb" {
					t.Errorf("Database.Host = %s, want testdb", cfg.Database.Host)
				}
				if cfg.Quota.DailyLimit != 500 {
					t.Errorf("Quota.DailyLimit = %d, want 500", cfg.Quota.DailyLimit)
				}
				if cfg.Sync.Strategy != "feed" {
					t.Errorf("Sync.Strategy = %s, want feed", cfg.Sync.Strategy)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.cleanup()

			cfg, err := Load()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}
