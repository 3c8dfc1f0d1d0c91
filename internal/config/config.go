package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	RiotAPIKey string `env:"RIOT_API_KEY"`
	DBPath     string `env:"DB_PATH"     envDefault:"tracker.db"`
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel   string `env:"LOG_LEVEL"   envDefault:"info"`

	// published quota per two-minute window and the share of it we use
	RateLimitQuota         int           `env:"RIOT_RATE_LIMIT_QUOTA"    envDefault:"100"`
	RateLimitHeadroom      float64       `env:"RIOT_RATE_LIMIT_HEADROOM" envDefault:"0.95"`
	MinRequestSpacing      time.Duration `env:"RIOT_MIN_SPACING"         envDefault:"1200ms"`
	PriorityRequestSpacing time.Duration `env:"RIOT_PRIORITY_SPACING"    envDefault:"900ms"`
	CacheTTL               time.Duration `env:"RIOT_CACHE_TTL"           envDefault:"300s"`
	MaxRetries             int           `env:"RIOT_MAX_RETRIES"         envDefault:"3"`

	TrackInterval     time.Duration `env:"TRACK_INTERVAL"     envDefault:"3m"`
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"60s"`
	SweepInterval     time.Duration `env:"SWEEP_INTERVAL"     envDefault:"10m"`
	SweepConcurrency  int           `env:"SWEEP_CONCURRENCY"  envDefault:"8"`
	SessionTimeout    time.Duration `env:"SESSION_TIMEOUT"    envDefault:"6h"`
	FinishWindow      time.Duration `env:"FINISH_WINDOW"      envDefault:"15m"`
	NewMatchWindow    time.Duration `env:"NEW_MATCH_WINDOW"   envDefault:"2h"`
	TrackedQueues     []int         `env:"TRACKED_QUEUES"     envDefault:"420,440,400,490" envSeparator:","`

	WebhookURL string `env:"NOTIFY_WEBHOOK_URL"`
}

func (c *Config) RateLimitBudget() int {
	budget := int(float64(c.RateLimitQuota) * c.RateLimitHeadroom)
	if budget < 1 {
		budget = 1
	}
	return budget
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Int("rate_limit_budget", cfg.RateLimitBudget()).
		Dur("cache_ttl", cfg.CacheTTL).
		Dur("track_interval", cfg.TrackInterval).
		Dur("reconcile_interval", cfg.ReconcileInterval).
		Dur("sweep_interval", cfg.SweepInterval).
		Ints("tracked_queues", cfg.TrackedQueues).
		Bool("webhook", cfg.WebhookURL != "").
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) validate() error {
	if c.RiotAPIKey == "" {
		return fmt.Errorf("RIOT_API_KEY is required")
	}
	if c.RateLimitQuota <= 0 {
		return fmt.Errorf("RIOT_RATE_LIMIT_QUOTA must be positive, got %d", c.RateLimitQuota)
	}
	if c.RateLimitHeadroom <= 0 || c.RateLimitHeadroom > 1 {
		return fmt.Errorf("RIOT_RATE_LIMIT_HEADROOM must be in (0, 1], got %v", c.RateLimitHeadroom)
	}
	if c.SweepConcurrency <= 0 {
		return fmt.Errorf("SWEEP_CONCURRENCY must be positive, got %d", c.SweepConcurrency)
	}
	return nil
}

var Module = fx.Provide(Load)
