package notify

import (
	"context"

	"league-tracker/internal/config"
	"league-tracker/internal/domain"
	"league-tracker/internal/metrics"
	"league-tracker/internal/vote"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// MatchResult is everything posted when a tracked game is finalized.
type MatchResult struct {
	Table      domain.PlacementTable
	Tracked    []domain.MatchStats
	Prediction *vote.Poll // nil when no poll was opened
}

type Notifier interface {
	// SessionOpened announces a new live game and returns the handle of the
	// posted message so later updates can edit it.
	SessionOpened(ctx context.Context, session *domain.LiveSession) (domain.NotificationHandle, error)
	SessionUpdated(ctx context.Context, session *domain.LiveSession, added []domain.SessionParticipant) (domain.NotificationHandle, error)
	MatchFinalized(ctx context.Context, result MatchResult) error
	PenaltyTriggered(ctx context.Context, decision domain.PenaltyDecision) error
}

func New(cfg *config.Config, logger zerolog.Logger, m metrics.TrackerMetrics) Notifier {
	if cfg.WebhookURL == "" {
		logger.Info().Msg("no webhook configured, notifications go to the log")
		return NewLogNotifier(logger)
	}
	return NewWebhook(cfg.WebhookURL, DefaultWebhookOptions(), logger, m)
}

var Module = fx.Provide(New)
