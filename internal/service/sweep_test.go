package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRosterSweep_ProcessesUnseenMatches(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.track(t, "puuid-a")
	e.track(t, "puuid-b")

	e.riot.addMatch(finishedMatch(30, testStart.Add(-30*time.Minute), 1800, "puuid-a"), "puuid-a")
	e.riot.addMatch(finishedMatch(31, testStart.Add(-time.Hour), 1800, "puuid-b"), "puuid-b")

	require.NoError(t, e.sweep.RunCycle(ctx))

	for puuid, matchID := range map[string]string{"puuid-a": "EUW1_30", "puuid-b": "EUW1_31"} {
		exists, err := e.stats.Exists(ctx, puuid, matchID)
		require.NoError(t, err)
		assert.True(t, exists, puuid)
	}
	assert.Len(t, e.notifier.finalized, 2)

	// stored matches are not fetched again
	fetched := e.riot.callCount("match")
	require.NoError(t, e.sweep.RunCycle(ctx))
	assert.Equal(t, fetched, e.riot.callCount("match"))
	assert.Len(t, e.notifier.finalized, 2)
}

func TestRosterSweep_SkipsOldAndUntrackedQueues(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.track(t, "puuid-a")

	old := finishedMatch(32, testStart.Add(-3*time.Hour), 1800, "puuid-a")
	aram := finishedMatch(33, testStart.Add(-10*time.Minute), 1200, "puuid-a")
	aram.Info.QueueID = 450
	e.riot.addMatch(old, "puuid-a")
	e.riot.addMatch(aram, "puuid-a")

	require.NoError(t, e.sweep.RunCycle(ctx))

	recent, err := e.stats.Recent(ctx, "puuid-a", 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
	assert.Empty(t, e.notifier.finalized)
}

func TestRosterSweep_SharedMatchNotifiedOnce(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.track(t, "puuid-a")
	e.track(t, "puuid-b")
	e.riot.addMatch(finishedMatch(34, testStart.Add(-5*time.Minute), 1800, "puuid-a", "puuid-b"), "puuid-a", "puuid-b")

	require.NoError(t, e.sweep.RunCycle(ctx))
	require.NoError(t, e.sweep.RunCycle(ctx))

	notified := 0
	for _, result := range e.notifier.finalized {
		notified += len(result.Tracked)
	}
	assert.Equal(t, 2, notified)
}
