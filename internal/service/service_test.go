package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"league-tracker/internal/api"
	"league-tracker/internal/config"
	"league-tracker/internal/database"
	"league-tracker/internal/db"
	"league-tracker/internal/domain"
	"league-tracker/internal/metrics"
	"league-tracker/internal/notify"
	"league-tracker/internal/repository"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)

type fakeRiot struct {
	mu       sync.Mutex
	accounts map[string]*api.AccountDTO
	active   map[string]*api.ActiveGameDTO
	matchIDs map[string][]string
	matches  map[string]*api.MatchDTO
	failFor  map[string]bool
	calls    map[string]int
}

func newFakeRiot() *fakeRiot {
	return &fakeRiot{
		accounts: make(map[string]*api.AccountDTO),
		active:   make(map[string]*api.ActiveGameDTO),
		matchIDs: make(map[string][]string),
		matches:  make(map[string]*api.MatchDTO),
		failFor:  make(map[string]bool),
		calls:    make(map[string]int),
	}
}

func (f *fakeRiot) AccountByRiotID(_ context.Context, _, gameName, tagLine string) (*api.AccountDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["account"]++
	return f.accounts[gameName+"#"+tagLine], nil
}

func (f *fakeRiot) MatchIDsByPUUID(_ context.Context, _, puuid string, _ int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["match_ids"]++
	return f.matchIDs[puuid], nil
}

func (f *fakeRiot) Match(_ context.Context, _, matchID string) (*api.MatchDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["match"]++
	return f.matches[matchID], nil
}

func (f *fakeRiot) ActiveGame(_ context.Context, _, puuid string) (*api.ActiveGameDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["active_game"]++
	if f.failFor[puuid] {
		return nil, &api.UpstreamError{Endpoint: "spectator", StatusCode: 503}
	}
	return f.active[puuid], nil
}

func (f *fakeRiot) setActive(game *api.ActiveGameDTO, puuids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range puuids {
		f.active[p] = game
	}
}

func (f *fakeRiot) addMatch(match *api.MatchDTO, puuids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matches[match.Metadata.MatchID] = match
	for _, p := range puuids {
		f.matchIDs[p] = append([]string{match.Metadata.MatchID}, f.matchIDs[p]...)
	}
}

func (f *fakeRiot) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

type updateCall struct {
	GameID int64
	Added  []string
}

type recordingNotifier struct {
	mu        sync.Mutex
	opened    []int64
	updated   []updateCall
	finalized []notify.MatchResult
	penalties []domain.PenaltyDecision
	failOpen  bool
}

func (n *recordingNotifier) SessionOpened(_ context.Context, session *domain.LiveSession) (domain.NotificationHandle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failOpen {
		return domain.NotificationHandle{}, errors.New("webhook unavailable")
	}
	n.opened = append(n.opened, session.GameID)
	return domain.NotificationHandle{ChannelID: "chan", MessageID: fmt.Sprintf("msg-%d", session.GameID)}, nil
}

func (n *recordingNotifier) SessionUpdated(_ context.Context, session *domain.LiveSession, added []domain.SessionParticipant) (domain.NotificationHandle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	call := updateCall{GameID: session.GameID}
	for _, p := range added {
		call.Added = append(call.Added, p.PUUID)
	}
	n.updated = append(n.updated, call)
	return session.Handle, nil
}

func (n *recordingNotifier) MatchFinalized(_ context.Context, result notify.MatchResult) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.finalized = append(n.finalized, result)
	return nil
}

func (n *recordingNotifier) PenaltyTriggered(_ context.Context, decision domain.PenaltyDecision) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.penalties = append(n.penalties, decision)
	return nil
}

func (n *recordingNotifier) setFailOpen(fail bool) {
	n.mu.Lock()
	n.failOpen = fail
	n.mu.Unlock()
}

type testEnv struct {
	cfg      *config.Config
	clock    *clockwork.FakeClock
	riot     *fakeRiot
	notifier *recordingNotifier

	accounts      *repository.AccountRepository
	stats         *repository.MatchStatsRepository
	sessions      *repository.SessionRepository
	notifications *repository.NotificationRepository
	penaltyRepo   *repository.PenaltyRepository
	voteRepo      *repository.VoteRepository

	penalties  *PenaltyEngine
	votes      *VoteService
	processor  *MatchProcessor
	tracker    *LiveTracker
	reconciler *Reconciler
	sweep      *RosterSweep
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	sqlDB, err := database.Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	queries := db.New(sqlDB)
	logger := zerolog.Nop()
	m := metrics.NewMetrics(prometheus.NewRegistry())

	e := &testEnv{
		cfg: &config.Config{
			TrackedQueues:    []int{420, 440},
			SessionTimeout:   6 * time.Hour,
			FinishWindow:     15 * time.Minute,
			NewMatchWindow:   2 * time.Hour,
			SweepConcurrency: 4,
		},
		clock:    clockwork.NewFakeClockAt(testStart),
		riot:     newFakeRiot(),
		notifier: &recordingNotifier{},

		accounts:      repository.NewAccountRepository(queries, logger),
		stats:         repository.NewMatchStatsRepository(queries, logger),
		sessions:      repository.NewSessionRepository(sqlDB, queries, logger),
		notifications: repository.NewNotificationRepository(queries, logger),
		penaltyRepo:   repository.NewPenaltyRepository(sqlDB, queries, logger),
		voteRepo:      repository.NewVoteRepository(sqlDB, queries, logger),
	}

	e.penalties = NewPenaltyEngine(e.stats, e.penaltyRepo, e.clock, logger, m)
	e.votes = NewVoteService(e.voteRepo, e.clock, logger)
	e.processor = NewMatchProcessor(e.accounts, e.stats, e.notifications, e.penalties, e.votes, e.notifier, e.clock, logger, m)
	e.tracker = NewLiveTracker(e.cfg, e.riot, e.accounts, e.sessions, e.notifications, e.votes, e.notifier, e.clock, logger, m)
	e.reconciler = NewReconciler(e.cfg, e.riot, e.sessions, e.votes, e.processor, e.clock, logger, m)
	e.sweep = NewRosterSweep(e.cfg, e.riot, e.accounts, e.stats, e.processor, e.clock, logger)
	return e
}

func (e *testEnv) track(t *testing.T, puuid string) domain.TrackedAccount {
	t.Helper()
	account := &domain.TrackedAccount{
		OwnerID:  "owner-" + puuid,
		Platform: "euw1",
		PUUID:    puuid,
		GameName: "name-" + puuid,
		TagLine:  "EUW",
	}
	inserted, err := e.accounts.Link(context.Background(), account)
	require.NoError(t, err)
	require.True(t, inserted)
	return *account
}

func (e *testEnv) storeScore(t *testing.T, puuid, champion, matchID string, score float64, playedAt time.Time, remake bool) {
	t.Helper()
	inserted, err := e.stats.Insert(context.Background(), &domain.MatchStats{
		PUUID:           puuid,
		MatchID:         matchID,
		Champion:        champion,
		Role:            domain.RoleMiddle,
		Score:           score,
		Placement:       5,
		Remake:          remake,
		DurationSeconds: 1800,
		QueueID:         420,
		PlayedAt:        playedAt,
	})
	require.NoError(t, err)
	require.True(t, inserted)
}

func activeGame(gameID int64, queue int, puuids ...string) *api.ActiveGameDTO {
	game := &api.ActiveGameDTO{
		GameID:            gameID,
		PlatformID:        "EUW1",
		GameQueueConfigID: queue,
		GameStartTime:     testStart.Add(-10 * time.Minute).UnixMilli(),
	}
	for i, p := range puuids {
		game.Participants = append(game.Participants, api.ActiveParticipantDTO{
			PUUID:      p,
			ChampionID: 100 + i,
			TeamID:     100,
		})
	}
	for i := len(puuids); i < 10; i++ {
		game.Participants = append(game.Participants, api.ActiveParticipantDTO{
			PUUID:      fmt.Sprintf("stranger-%d", i),
			ChampionID: 100 + i,
			TeamID:     200,
		})
	}
	return game
}

// finishedMatch builds a ten player match. The given puuids fill the first
// seats of team 100, which wins, and play champion "Champ<seat>".
func finishedMatch(gameID int64, end time.Time, durationSeconds int, puuids ...string) *api.MatchDTO {
	match := &api.MatchDTO{
		Metadata: api.MatchMetadata{MatchID: api.MatchID("euw1", gameID)},
		Info: api.MatchInfo{
			GameID:             gameID,
			PlatformID:         "EUW1",
			QueueID:            420,
			GameStartTimestamp: end.Add(-time.Duration(durationSeconds) * time.Second).UnixMilli(),
			GameEndTimestamp:   end.UnixMilli(),
			GameDuration:       durationSeconds,
		},
	}
	positions := []string{"TOP", "JUNGLE", "MIDDLE", "BOTTOM", "UTILITY"}
	for i := 0; i < 10; i++ {
		puuid := fmt.Sprintf("stranger-%d-%d", gameID, i)
		if i < len(puuids) {
			puuid = puuids[i]
		}
		team := 100
		if i >= 5 {
			team = 200
		}
		match.Metadata.Participants = append(match.Metadata.Participants, puuid)
		match.Info.Participants = append(match.Info.Participants, api.ParticipantDTO{
			PUUID:                       puuid,
			RiotIDGameName:              "player" + fmt.Sprint(i),
			RiotIDTagline:               "EUW",
			ChampionID:                  100 + i,
			ChampionName:                fmt.Sprintf("Champ%d", i),
			TeamID:                      team,
			TeamPosition:                positions[i%5],
			Kills:                       2 + i,
			Deaths:                      3 + i%4,
			Assists:                     4 + 2*i,
			TotalDamageDealtToChampions: 9000 + 1000*i,
			GoldEarned:                  8000 + 300*i,
			TotalMinionsKilled:          100 + 10*i,
			NeutralMinionsKilled:        i,
			VisionScore:                 10 + 3*i,
			Win:                         team == 100,
		})
	}
	return match
}
