package service

import (
	"context"
	"errors"
	"time"

	"league-tracker/internal/api"
	"league-tracker/internal/config"
	"league-tracker/internal/constants"
	"league-tracker/internal/domain"
	"league-tracker/internal/metrics"
	"league-tracker/internal/notify"
	"league-tracker/internal/repository"

	"github.com/elliotchance/pie/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// LiveTracker discovers tracked accounts in live games and keeps one open
// session per game.
type LiveTracker struct {
	cfg           *config.Config
	riot          RiotClient
	accounts      *repository.AccountRepository
	sessions      *repository.SessionRepository
	notifications *repository.NotificationRepository
	votes         *VoteService
	notifier      notify.Notifier
	clock         clockwork.Clock
	logger        zerolog.Logger
	metrics       metrics.TrackerMetrics
}

type liveGame struct {
	game         *api.ActiveGameDTO
	platform     string
	participants []domain.SessionParticipant
}

func NewLiveTracker(
	cfg *config.Config,
	riot RiotClient,
	accounts *repository.AccountRepository,
	sessions *repository.SessionRepository,
	notifications *repository.NotificationRepository,
	votes *VoteService,
	notifier notify.Notifier,
	clock clockwork.Clock,
	logger zerolog.Logger,
	m metrics.TrackerMetrics,
) *LiveTracker {
	return &LiveTracker{
		cfg:           cfg,
		riot:          riot,
		accounts:      accounts,
		sessions:      sessions,
		notifications: notifications,
		votes:         votes,
		notifier:      notifier,
		clock:         clock,
		logger:        logger.With().Str("component", "tracker").Logger(),
		metrics:       m,
	}
}

func (t *LiveTracker) RunCycle(ctx context.Context) error {
	accounts, err := t.accounts.List(ctx)
	if err != nil {
		return err
	}
	byPUUID := make(map[string]domain.TrackedAccount, len(accounts))
	for _, a := range accounts {
		byPUUID[a.PUUID] = a
	}

	now := t.clock.Now()
	seen := make(map[string]bool)
	games := make(map[int64]*liveGame)

	for _, account := range accounts {
		if seen[account.PUUID] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		game, err := t.riot.ActiveGame(ctx, account.Platform, account.PUUID)
		if err != nil {
			t.logger.Warn().Err(err).Str("puuid", account.PUUID).Msg("failed to fetch active game")
			continue
		}
		if game == nil || !queueTracked(t.cfg.TrackedQueues, game.GameQueueConfigID) {
			continue
		}

		group, ok := games[game.GameID]
		if !ok {
			group = &liveGame{game: game, platform: account.Platform}
			games[game.GameID] = group
		}
		for _, p := range game.Participants {
			tracked, ok := byPUUID[p.PUUID]
			if !ok || seen[p.PUUID] {
				continue
			}
			seen[p.PUUID] = true
			group.participants = append(group.participants, domain.SessionParticipant{
				AccountID:  tracked.ID,
				PUUID:      p.PUUID,
				RiotID:     tracked.RiotID(),
				ChampionID: p.ChampionID,
				TeamID:     p.TeamID,
				JoinedAt:   now,
			})
		}
	}

	for _, id := range pie.Sort(pie.Keys(games)) {
		if err := t.handle(ctx, games[id], now); err != nil {
			t.logger.Error().Err(err).Int64("game_id", id).Msg("failed to track game")
		}
	}

	if _, err := t.notifications.PruneAnnouncements(ctx, now.Add(-constants.AnnounceDedupWindow)); err != nil {
		t.logger.Warn().Err(err).Msg("failed to prune announcement log")
	}

	t.logger.Debug().Int("accounts", len(accounts)).Int("games", len(games)).Msg("track cycle finished")
	return nil
}

func (t *LiveTracker) handle(ctx context.Context, g *liveGame, now time.Time) error {
	session, err := t.sessions.Get(ctx, g.game.GameID)
	if errors.Is(err, repository.ErrNotFound) {
		return t.open(ctx, g, now)
	}
	if err != nil {
		return err
	}

	added := session.Add(g.participants...)
	if session.Handle.IsZero() {
		announced, err := t.notifications.WasAnnounced(ctx, session.GameID, now.Add(-constants.AnnounceDedupWindow))
		if err != nil {
			return err
		}
		if !announced {
			t.announce(ctx, session, now)
			session.UpdatedAt = now
			_, err := t.save(ctx, session)
			return err
		}
	}
	if len(added) == 0 {
		return nil
	}

	handle, err := t.notifier.SessionUpdated(ctx, session, added)
	if err != nil {
		t.logger.Error().Err(err).Int64("game_id", session.GameID).Msg("failed to update session message")
	} else if !handle.IsZero() {
		session.Handle = handle
	}
	session.UpdatedAt = now
	saved, err := t.save(ctx, session)
	if err != nil || !saved {
		return err
	}

	t.metrics.SessionEvent("updated")
	t.logger.Info().
		Int64("game_id", session.GameID).
		Strs("added", pie.Map(added, func(p domain.SessionParticipant) string { return p.RiotID })).
		Msg("session updated")
	return nil
}

func (t *LiveTracker) open(ctx context.Context, g *liveGame, now time.Time) error {
	start := now
	if g.game.GameStartTime > 0 {
		start = time.UnixMilli(g.game.GameStartTime)
	}
	session := &domain.LiveSession{
		GameID:        g.game.GameID,
		Platform:      g.platform,
		QueueID:       g.game.GameQueueConfigID,
		GameStartTime: start,
		OpenedAt:      now,
		UpdatedAt:     now,
	}
	session.Add(g.participants...)

	announced, err := t.notifications.WasAnnounced(ctx, session.GameID, now.Add(-constants.AnnounceDedupWindow))
	if err != nil {
		return err
	}
	if announced {
		t.metrics.SessionEvent("restored")
		t.logger.Info().Int64("game_id", session.GameID).Msg("game announced recently, restoring session silently")
	} else {
		t.announce(ctx, session, now)
	}

	if err := t.sessions.Create(ctx, session); err != nil {
		return err
	}
	if err := t.votes.Open(ctx, session.GameID); err != nil {
		t.logger.Warn().Err(err).Int64("game_id", session.GameID).Msg("failed to open prediction poll")
	}
	return nil
}

// announce posts the opening message. On failure the handle stays empty and
// the next cycle tries again.
func (t *LiveTracker) announce(ctx context.Context, session *domain.LiveSession, now time.Time) {
	handle, err := t.notifier.SessionOpened(ctx, session)
	if err != nil {
		t.logger.Error().Err(err).Int64("game_id", session.GameID).Msg("failed to announce session")
		return
	}
	session.Handle = handle
	if err := t.notifications.MarkAnnounced(ctx, session.GameID, now); err != nil {
		t.logger.Warn().Err(err).Int64("game_id", session.GameID).Msg("failed to record announcement")
	}

	t.metrics.SessionEvent("opened")
	t.logger.Info().
		Int64("game_id", session.GameID).
		Strs("participants", pie.Map(session.Participants, func(p domain.SessionParticipant) string { return p.RiotID })).
		Msg("session opened")
}

// save writes an existing session. It reports false when the reconciler
// closed the session since it was loaded.
func (t *LiveTracker) save(ctx context.Context, session *domain.LiveSession) (bool, error) {
	err := t.sessions.Update(ctx, session)
	if errors.Is(err, repository.ErrNotFound) {
		t.logger.Debug().Int64("game_id", session.GameID).Msg("session closed before update, dropping")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
