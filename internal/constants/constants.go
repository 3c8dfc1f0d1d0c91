package constants

import "time"

const (
	RateLimitWindow        = 2 * time.Minute
	DefaultRateLimitQuota  = 100
	DefaultRateHeadroom    = 0.95
	MinRequestSpacing      = 1200 * time.Millisecond
	PriorityRequestSpacing = 900 * time.Millisecond
	GatewayCacheTTL        = 300 * time.Second
	GatewayMaxRetries      = 3
	GatewayBackoffBase     = 1 * time.Second
	GatewayBackoffMax      = 30 * time.Second
	DefaultRetryAfter      = 1 * time.Second
)

const (
	TrackInterval     = 3 * time.Minute
	ReconcileInterval = 60 * time.Second
	SweepInterval     = 10 * time.Minute
	SweepConcurrency  = 8
)

const (
	AnnounceDedupWindow = 5 * time.Minute
	FinishWindow        = 15 * time.Minute
	NewMatchWindow      = 2 * time.Hour
	SessionTimeout      = 6 * time.Hour
	RecentMatchCount    = 5
)

const (
	RemakeThreshold        = 300 * time.Second
	PenaltyHistorySize     = 3
	PenaltyStreakThreshold = 45.0
	PenaltySingleThreshold = 35.0
	PenaltyCooldown        = 14 * 24 * time.Hour
	MaxPenaltyLevel        = 3
)

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
	CycleTimeout       = 5 * time.Minute
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)
