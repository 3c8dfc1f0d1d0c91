package service

import (
	"context"
	"testing"
	"time"

	"league-tracker/internal/api"
	"league-tracker/internal/repository"
	"league-tracker/internal/vote"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSession(t *testing.T, e *testEnv, gameID int64, puuids ...string) {
	t.Helper()
	e.riot.setActive(activeGame(gameID, 420, puuids...), puuids...)
	require.NoError(t, e.tracker.RunCycle(context.Background()))
	e.riot.setActive(nil, puuids...)
}

func TestReconciler_FinalizesExactMatch(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.track(t, "puuid-a")
	e.track(t, "puuid-b")
	openSession(t, e, 10, "puuid-a", "puuid-b")

	_, err := e.votes.OnUserAction(ctx, 10, "vote:win", "user-1")
	require.NoError(t, err)

	// still in game
	require.NoError(t, e.reconciler.RunCycle(ctx))
	_, err = e.sessions.Get(ctx, 10)
	require.NoError(t, err)

	e.clock.Advance(20 * time.Minute)
	e.riot.addMatch(finishedMatch(10, e.clock.Now().Add(-time.Minute), 1800, "puuid-a", "puuid-b"), "puuid-a", "puuid-b")
	require.NoError(t, e.reconciler.RunCycle(ctx))

	_, err = e.sessions.Get(ctx, 10)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.Len(t, e.notifier.finalized, 1)
	result := e.notifier.finalized[0]
	assert.Equal(t, "EUW1_10", result.Table.MatchID)
	assert.Len(t, result.Tracked, 2)
	require.NotNil(t, result.Prediction)
	assert.Equal(t, vote.StateClosed, result.Prediction.State)
	assert.Equal(t, 1, vote.TallyOf(*result.Prediction).Win)

	for _, puuid := range []string{"puuid-a", "puuid-b"} {
		exists, err := e.stats.Exists(ctx, puuid, "EUW1_10")
		require.NoError(t, err)
		assert.True(t, exists)
	}

	// a second cycle has nothing left to do
	require.NoError(t, e.reconciler.RunCycle(ctx))
	assert.Len(t, e.notifier.finalized, 1)
}

func TestReconciler_FallsBackToRecentFinish(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.track(t, "puuid-a")
	openSession(t, e, 11, "puuid-a")

	e.clock.Advance(25 * time.Minute)
	e.riot.addMatch(finishedMatch(999, e.clock.Now().Add(-2*time.Minute), 1500, "puuid-a"), "puuid-a")
	require.NoError(t, e.reconciler.RunCycle(ctx))

	_, err := e.sessions.Get(ctx, 11)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	require.Len(t, e.notifier.finalized, 1)
	assert.Equal(t, "EUW1_999", e.notifier.finalized[0].Table.MatchID)
}

func TestReconciler_IgnoresMatchesBeforeGameStart(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.track(t, "puuid-a")
	openSession(t, e, 12, "puuid-a")

	e.riot.addMatch(finishedMatch(500, testStart.Add(-30*time.Minute), 1500, "puuid-a"), "puuid-a")
	require.NoError(t, e.reconciler.RunCycle(ctx))

	_, err := e.sessions.Get(ctx, 12)
	require.NoError(t, err)
	assert.Empty(t, e.notifier.finalized)
}

func TestReconciler_EvictsStaleSessions(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.track(t, "puuid-a")
	openSession(t, e, 13, "puuid-a")

	e.clock.Advance(6 * time.Hour)
	require.NoError(t, e.reconciler.RunCycle(ctx))

	_, err := e.sessions.Get(ctx, 13)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, e.notifier.finalized)
	assert.Zero(t, e.riot.callCount("match_ids"))

	poll, err := e.votes.Get(ctx, 13)
	require.NoError(t, err)
	assert.Equal(t, vote.StateClosed, poll.State)
}

func TestReconciler_MalformedMatchClosesSession(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.track(t, "puuid-a")
	openSession(t, e, 14, "puuid-a")

	match := finishedMatch(14, testStart.Add(20*time.Minute), 1800, "puuid-a")
	match.Info.Participants = match.Info.Participants[:9]
	e.riot.addMatch(match, "puuid-a")
	e.clock.Advance(25 * time.Minute)

	require.NoError(t, e.reconciler.RunCycle(ctx))

	_, err := e.sessions.Get(ctx, 14)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, e.notifier.finalized)

	exists, err := e.stats.Exists(ctx, "puuid-a", "EUW1_14")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReconciler_WaitsForMatchDetail(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.track(t, "puuid-a")
	openSession(t, e, 15, "puuid-a")

	// id listed before the detail is served
	e.riot.matchIDs["puuid-a"] = []string{api.MatchID("euw1", 15)}
	require.NoError(t, e.reconciler.RunCycle(ctx))

	_, err := e.sessions.Get(ctx, 15)
	require.NoError(t, err)
}
