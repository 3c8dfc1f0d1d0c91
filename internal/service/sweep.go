package service

import (
	"context"
	"errors"

	"league-tracker/internal/config"
	"league-tracker/internal/constants"
	"league-tracker/internal/domain"
	"league-tracker/internal/repository"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// RosterSweep catches matches of tracked accounts that were never seen
// live.
type RosterSweep struct {
	cfg       *config.Config
	riot      RiotClient
	accounts  *repository.AccountRepository
	stats     *repository.MatchStatsRepository
	processor *MatchProcessor
	clock     clockwork.Clock
	logger    zerolog.Logger
}

func NewRosterSweep(
	cfg *config.Config,
	riot RiotClient,
	accounts *repository.AccountRepository,
	stats *repository.MatchStatsRepository,
	processor *MatchProcessor,
	clock clockwork.Clock,
	logger zerolog.Logger,
) *RosterSweep {
	return &RosterSweep{
		cfg:       cfg,
		riot:      riot,
		accounts:  accounts,
		stats:     stats,
		processor: processor,
		clock:     clock,
		logger:    logger.With().Str("component", "sweep").Logger(),
	}
}

func (s *RosterSweep) RunCycle(ctx context.Context) error {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.SweepConcurrency)
	for _, account := range accounts {
		g.Go(func() error {
			s.sweepAccount(gctx, account)
			return gctx.Err()
		})
	}
	return g.Wait()
}

func (s *RosterSweep) sweepAccount(ctx context.Context, account domain.TrackedAccount) {
	logger := s.logger.With().Str("puuid", account.PUUID).Logger()

	ids, err := s.riot.MatchIDsByPUUID(ctx, account.Platform, account.PUUID, constants.RecentMatchCount)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to list recent matches")
		return
	}

	for _, id := range ids {
		exists, err := s.stats.Exists(ctx, account.PUUID, id)
		if err != nil {
			logger.Error().Err(err).Str("match_id", id).Msg("failed to check stored stats")
			continue
		}
		if exists {
			continue
		}

		match, err := s.riot.Match(ctx, account.Platform, id)
		if err != nil {
			logger.Warn().Err(err).Str("match_id", id).Msg("failed to fetch match")
			continue
		}
		if match == nil {
			continue
		}
		if s.clock.Since(MatchEnd(match)) > s.cfg.NewMatchWindow || !queueTracked(s.cfg.TrackedQueues, match.Info.QueueID) {
			continue
		}

		if _, err := s.processor.Process(ctx, match); err != nil {
			if errors.Is(err, ErrExtraction) {
				logger.Error().Err(err).Str("match_id", id).Msg("skipping malformed match")
			} else {
				logger.Error().Err(err).Str("match_id", id).Msg("failed to process match")
			}
		}
	}
}
