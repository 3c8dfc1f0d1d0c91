package service

import (
	"context"
	"errors"

	"league-tracker/internal/api"
	"league-tracker/internal/config"
	"league-tracker/internal/constants"
	"league-tracker/internal/domain"
	"league-tracker/internal/metrics"
	"league-tracker/internal/repository"

	"github.com/elliotchance/pie/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Reconciler matches open sessions to finished matches.
type Reconciler struct {
	cfg       *config.Config
	riot      RiotClient
	sessions  *repository.SessionRepository
	votes     *VoteService
	processor *MatchProcessor
	clock     clockwork.Clock
	logger    zerolog.Logger
	metrics   metrics.TrackerMetrics
}

func NewReconciler(
	cfg *config.Config,
	riot RiotClient,
	sessions *repository.SessionRepository,
	votes *VoteService,
	processor *MatchProcessor,
	clock clockwork.Clock,
	logger zerolog.Logger,
	m metrics.TrackerMetrics,
) *Reconciler {
	return &Reconciler{
		cfg:       cfg,
		riot:      riot,
		sessions:  sessions,
		votes:     votes,
		processor: processor,
		clock:     clock,
		logger:    logger.With().Str("component", "reconciler").Logger(),
		metrics:   m,
	}
}

func (r *Reconciler) RunCycle(ctx context.Context) error {
	sessions, err := r.sessions.List(ctx)
	if err != nil {
		return err
	}

	now := r.clock.Now()
	for i := range sessions {
		session := &sessions[i]
		if err := ctx.Err(); err != nil {
			return err
		}

		if now.Sub(session.OpenedAt) >= r.cfg.SessionTimeout {
			r.logger.Warn().Int64("game_id", session.GameID).Time("opened_at", session.OpenedAt).Msg("evicting stale session")
			r.close(ctx, session.GameID, "evicted")
			continue
		}
		if err := r.reconcile(ctx, session); err != nil {
			r.logger.Error().Err(err).Int64("game_id", session.GameID).Msg("failed to reconcile session")
		}
	}
	return nil
}

func (r *Reconciler) reconcile(ctx context.Context, session *domain.LiveSession) error {
	if len(session.Participants) == 0 {
		return nil
	}

	match, err := r.findMatch(ctx, session)
	if err != nil || match == nil {
		return err
	}

	r.corroborate(session, match)

	if _, err := r.processor.Process(ctx, match); err != nil {
		if errors.Is(err, ErrExtraction) {
			r.logger.Error().Err(err).Int64("game_id", session.GameID).Msg("skipping malformed match")
			r.close(ctx, session.GameID, "malformed")
			return nil
		}
		return err
	}

	r.close(ctx, session.GameID, "closed")
	return nil
}

// findMatch returns the finished match of session, or nil while the game
// is still running.
func (r *Reconciler) findMatch(ctx context.Context, session *domain.LiveSession) (*api.MatchDTO, error) {
	first := session.Participants[0]
	ids, err := r.riot.MatchIDsByPUUID(ctx, session.Platform, first.PUUID, constants.RecentMatchCount)
	if err != nil {
		return nil, err
	}

	exact := api.MatchID(session.Platform, session.GameID)
	if pie.Contains(ids, exact) {
		return r.riot.Match(ctx, session.Platform, exact)
	}

	now := r.clock.Now()
	puuids := session.PUUIDs()
	for _, id := range ids {
		match, err := r.riot.Match(ctx, session.Platform, id)
		if err != nil {
			return nil, err
		}
		if match == nil {
			continue
		}

		// ids are most recent first, so older candidates cannot qualify either
		end := MatchEnd(match)
		if end.Before(session.GameStartTime) || now.Sub(end) > r.cfg.FinishWindow {
			return nil, nil
		}
		if !pie.All(puuids, func(p string) bool { return pie.Contains(match.Metadata.Participants, p) }) {
			continue
		}

		r.logger.Info().
			Int64("game_id", session.GameID).
			Str("match_id", id).
			Msg("matched session by recent finish")
		return match, nil
	}
	return nil, nil
}

// corroborate logs participants whose champion differs between the live
// game and the match.
func (r *Reconciler) corroborate(session *domain.LiveSession, match *api.MatchDTO) {
	champions := make(map[string]int, len(match.Info.Participants))
	for _, p := range match.Info.Participants {
		champions[p.PUUID] = p.ChampionID
	}
	for _, p := range session.Participants {
		if got, ok := champions[p.PUUID]; ok && got != p.ChampionID {
			r.logger.Warn().
				Int64("game_id", session.GameID).
				Str("match_id", match.Metadata.MatchID).
				Str("puuid", p.PUUID).
				Int("live_champion", p.ChampionID).
				Int("match_champion", got).
				Msg("champion mismatch between live game and match")
		}
	}
}

func (r *Reconciler) close(ctx context.Context, gameID int64, event string) {
	if _, err := r.votes.Close(ctx, gameID); err != nil {
		r.logger.Warn().Err(err).Int64("game_id", gameID).Msg("failed to close prediction poll")
	}
	if err := r.sessions.Close(ctx, gameID); err != nil {
		r.logger.Error().Err(err).Int64("game_id", gameID).Msg("failed to close session")
		return
	}
	r.metrics.SessionEvent(event)
}
