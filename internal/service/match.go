package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"league-tracker/internal/api"
	"league-tracker/internal/domain"
	"league-tracker/internal/metrics"
	"league-tracker/internal/notify"
	"league-tracker/internal/repository"
	"league-tracker/internal/scoring"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// MatchProcessor turns a finished match into stored stats, penalty
// decisions and notifications. The reconciler and the roster sweep share it.
type MatchProcessor struct {
	accounts      *repository.AccountRepository
	stats         *repository.MatchStatsRepository
	notifications *repository.NotificationRepository
	penalties     *PenaltyEngine
	votes         *VoteService
	notifier      notify.Notifier
	clock         clockwork.Clock
	logger        zerolog.Logger
	metrics       metrics.TrackerMetrics

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewMatchProcessor(
	accounts *repository.AccountRepository,
	stats *repository.MatchStatsRepository,
	notifications *repository.NotificationRepository,
	penalties *PenaltyEngine,
	votes *VoteService,
	notifier notify.Notifier,
	clock clockwork.Clock,
	logger zerolog.Logger,
	m metrics.TrackerMetrics,
) *MatchProcessor {
	return &MatchProcessor{
		accounts:      accounts,
		stats:         stats,
		notifications: notifications,
		penalties:     penalties,
		votes:         votes,
		notifier:      notifier,
		clock:         clock,
		logger:        logger.With().Str("component", "match").Logger(),
		metrics:       m,
		inFlight:      make(map[string]bool),
	}
}

// Process scores match and handles every tracked participant in it. Running
// it twice for the same match stores nothing new and notifies nobody. A nil
// table with a nil error means another caller is processing the match.
func (p *MatchProcessor) Process(ctx context.Context, match *api.MatchDTO) (*domain.PlacementTable, error) {
	matchID := match.Metadata.MatchID
	if !p.acquire(matchID) {
		p.logger.Debug().Str("match_id", matchID).Msg("match already being processed")
		return nil, nil
	}
	defer p.release(matchID)

	raw, err := ExtractParticipants(match)
	if err != nil {
		p.metrics.MatchProcessed("malformed")
		return nil, err
	}
	results, err := scoring.ScoreMatch(raw)
	if err != nil {
		p.metrics.MatchProcessed("malformed")
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	accounts, err := p.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	tracked := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		tracked[a.PUUID] = true
	}

	remake := scoring.IsRemake(match.Info.GameDuration)
	table := buildTable(match, raw, results, tracked, remake)
	playedAt := MatchEnd(match).UTC()

	var trackedStats []domain.MatchStats
	for i, participant := range raw {
		if !tracked[participant.PUUID] {
			continue
		}
		stats := domain.MatchStats{
			PUUID:           participant.PUUID,
			MatchID:         matchID,
			Champion:        participant.Champion,
			ChampionID:      participant.ChampionID,
			Role:            participant.Role,
			Score:           results[i].Score,
			Placement:       results[i].Placement,
			Kills:           participant.Kills,
			Deaths:          participant.Deaths,
			Assists:         participant.Assists,
			Damage:          participant.Damage,
			Gold:            participant.Gold,
			Farm:            participant.Farm,
			Vision:          participant.Vision,
			Win:             participant.Win,
			Remake:          remake,
			DurationSeconds: match.Info.GameDuration,
			QueueID:         match.Info.QueueID,
			PlayedAt:        playedAt,
		}
		trackedStats = append(trackedStats, stats)

		inserted, err := p.stats.Insert(ctx, &stats)
		if err != nil {
			p.logger.Error().Err(err).Str("match_id", matchID).Str("puuid", participant.PUUID).Msg("failed to store match stats")
			continue
		}
		if !inserted || remake {
			continue
		}
		p.evaluatePenalty(ctx, stats)
	}

	if len(trackedStats) == 0 {
		p.metrics.MatchProcessed("untracked")
		return &table, nil
	}

	p.finalize(ctx, table, trackedStats, match.Info.GameID)
	p.metrics.MatchProcessed("processed")
	p.logger.Info().
		Str("match_id", matchID).
		Int("tracked", len(trackedStats)).
		Bool("remake", remake).
		Msg("match processed")
	return &table, nil
}

func (p *MatchProcessor) evaluatePenalty(ctx context.Context, stats domain.MatchStats) {
	decision, err := p.penalties.Evaluate(ctx, stats.PUUID, stats.Champion, stats.MatchID)
	if err != nil {
		p.logger.Error().Err(err).Str("match_id", stats.MatchID).Str("puuid", stats.PUUID).Msg("failed to evaluate penalty")
		return
	}
	if decision == nil {
		return
	}
	if err := p.notifier.PenaltyTriggered(ctx, *decision); err != nil {
		p.logger.Error().Err(err).Str("match_id", stats.MatchID).Str("puuid", stats.PUUID).Msg("failed to notify penalty")
	}
}

// finalize posts the result once for the participants not yet notified.
func (p *MatchProcessor) finalize(ctx context.Context, table domain.PlacementTable, stats []domain.MatchStats, gameID int64) {
	var pending []domain.MatchStats
	for _, s := range stats {
		sent, err := p.notifications.WasSent(ctx, s.PUUID, s.MatchID)
		if err != nil {
			p.logger.Error().Err(err).Str("match_id", s.MatchID).Str("puuid", s.PUUID).Msg("failed to read notification log")
			continue
		}
		if !sent {
			pending = append(pending, s)
		}
	}
	if len(pending) == 0 {
		return
	}

	result := notify.MatchResult{Table: table, Tracked: pending}
	if gameID != 0 {
		poll, err := p.votes.Close(ctx, gameID)
		if err != nil {
			p.logger.Warn().Err(err).Int64("game_id", gameID).Msg("failed to close prediction poll")
		}
		result.Prediction = poll
	}

	if err := p.notifier.MatchFinalized(ctx, result); err != nil {
		p.logger.Error().Err(err).Str("match_id", table.MatchID).Msg("failed to notify match result")
		return
	}

	now := p.clock.Now()
	for _, s := range pending {
		if err := p.notifications.MarkSent(ctx, s.PUUID, s.MatchID, now); err != nil {
			p.logger.Error().Err(err).Str("match_id", s.MatchID).Str("puuid", s.PUUID).Msg("failed to record notification")
		}
	}
}

func (p *MatchProcessor) acquire(matchID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight[matchID] {
		return false
	}
	p.inFlight[matchID] = true
	return true
}

func (p *MatchProcessor) release(matchID string) {
	p.mu.Lock()
	delete(p.inFlight, matchID)
	p.mu.Unlock()
}

func buildTable(match *api.MatchDTO, raw []domain.RawParticipant, results []scoring.Result, tracked map[string]bool, remake bool) domain.PlacementTable {
	rows := make([]domain.PlacementRow, len(raw))
	for i, participant := range raw {
		rows[i] = domain.PlacementRow{
			PUUID:     participant.PUUID,
			RiotID:    riotID(participant.GameName, participant.TagLine),
			Champion:  participant.Champion,
			Role:      participant.Role,
			TeamID:    participant.TeamID,
			Score:     results[i].Score,
			Placement: results[i].Placement,
			Tracked:   tracked[participant.PUUID],
		}
	}
	sort.Slice(rows, func(a, b int) bool {
		return rows[a].Placement < rows[b].Placement
	})

	return domain.PlacementTable{
		MatchID:         match.Metadata.MatchID,
		QueueID:         match.Info.QueueID,
		DurationSeconds: match.Info.GameDuration,
		Remake:          remake,
		Rows:            rows,
	}
}
