package service

import (
	"context"
	"fmt"
	"time"

	"league-tracker/internal/constants"
	"league-tracker/internal/domain"
	"league-tracker/internal/metrics"
	"league-tracker/internal/repository"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

const (
	ReasonStreak = "3 consecutive low scores"
	ReasonSingle = "single match score below 35"
)

var levelDurations = map[int]time.Duration{
	1: 2 * 24 * time.Hour,
	2: 4 * 24 * time.Hour,
	3: 7 * 24 * time.Hour,
}

type PenaltyEngine struct {
	stats     *repository.MatchStatsRepository
	penalties *repository.PenaltyRepository
	clock     clockwork.Clock
	logger    zerolog.Logger
	metrics   metrics.TrackerMetrics
}

func NewPenaltyEngine(stats *repository.MatchStatsRepository, penalties *repository.PenaltyRepository, clock clockwork.Clock, logger zerolog.Logger, m metrics.TrackerMetrics) *PenaltyEngine {
	return &PenaltyEngine{
		stats:     stats,
		penalties: penalties,
		clock:     clock,
		logger:    logger.With().Str("component", "penalty").Logger(),
		metrics:   m,
	}
}

// Evaluate checks the recent history of (puuid, champion) after matchID was
// stored. It returns nil when nothing triggers or when matchID was already
// evaluated.
func (e *PenaltyEngine) Evaluate(ctx context.Context, puuid, champion, matchID string) (*domain.PenaltyDecision, error) {
	done, err := e.penalties.EventExists(ctx, puuid, champion, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to check penalty events: %w", err)
	}
	if done {
		return nil, nil
	}

	recent, err := e.stats.RecentByChampion(ctx, puuid, champion, constants.PenaltyHistorySize)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent matches: %w", err)
	}
	scores := make([]float64, len(recent))
	for i, m := range recent {
		scores[i] = m.Score
	}

	reason := TriggerReason(scores)
	if reason == "" {
		return nil, nil
	}

	now := e.clock.Now()
	decision, err := e.penalties.Apply(ctx, puuid, champion, matchID, now, func(state domain.PenaltyState) domain.PenaltyDecision {
		level := NextLevel(state, now)
		duration := levelDurations[level]
		return domain.PenaltyDecision{
			Reason:    reason,
			Level:     level,
			Duration:  duration,
			ExpiresAt: now.Add(duration),
			Scores:    scores,
		}
	})
	if err != nil {
		return nil, err
	}
	if decision == nil {
		return nil, nil
	}

	e.metrics.PenaltyTriggered(decision.Level)
	e.logger.Info().
		Str("puuid", puuid).
		Str("champion", champion).
		Str("match_id", matchID).
		Str("reason", reason).
		Int("previous_level", decision.PreviousLevel).
		Int("level", decision.Level).
		Floats64("scores", scores).
		Msg("penalty triggered")
	return decision, nil
}

// TriggerReason takes non-remake scores, most recent first. A full streak
// of low scores takes precedence over the single match rule.
func TriggerReason(scores []float64) string {
	if len(scores) >= constants.PenaltyHistorySize {
		streak := true
		for _, s := range scores[:constants.PenaltyHistorySize] {
			if s >= constants.PenaltyStreakThreshold {
				streak = false
				break
			}
		}
		if streak {
			return ReasonStreak
		}
	}
	if len(scores) > 0 && scores[0] < constants.PenaltySingleThreshold {
		return ReasonSingle
	}
	return ""
}

// NextLevel advances 0→1→2→3 and wraps 3→1. A level that has not been
// triggered for the cooldown period counts as 0.
func NextLevel(state domain.PenaltyState, now time.Time) int {
	current := state.Level
	if current > 0 && now.Sub(state.LastTriggeredAt) >= constants.PenaltyCooldown {
		current = 0
	}
	if current >= constants.MaxPenaltyLevel {
		return 1
	}
	return current + 1
}
