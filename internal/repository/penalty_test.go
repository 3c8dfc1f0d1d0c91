package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"league-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPenaltyRepository_ApplyOncePerMatch(t *testing.T) {
	sqlDB, queries := openTestDB(t)
	repo := NewPenaltyRepository(sqlDB, queries, zerolog.Nop())
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)

	state, err := repo.Get(ctx, "puuid-a", "Ahri")
	require.NoError(t, err)
	assert.Equal(t, 0, state.Level)

	decideLevel := func(level int) func(domain.PenaltyState) domain.PenaltyDecision {
		return func(domain.PenaltyState) domain.PenaltyDecision {
			return domain.PenaltyDecision{
				Reason:    "single match score below 35",
				Level:     level,
				Duration:  48 * time.Hour,
				ExpiresAt: now.Add(48 * time.Hour),
			}
		}
	}
	decision, err := repo.Apply(ctx, "puuid-a", "Ahri", "EUW1_9", now, decideLevel(1))
	require.NoError(t, err)
	require.NotNil(t, decision)
	assert.Equal(t, "EUW1_9", decision.MatchID)
	assert.Equal(t, 0, decision.PreviousLevel)

	decision, err = repo.Apply(ctx, "puuid-a", "Ahri", "EUW1_9", now.Add(time.Minute), decideLevel(2))
	require.NoError(t, err)
	assert.Nil(t, decision)

	state, err = repo.Get(ctx, "puuid-a", "Ahri")
	require.NoError(t, err)
	assert.Equal(t, 1, state.Level)
	assert.True(t, state.ExpiresAt.Equal(now.Add(48*time.Hour)))
	assert.True(t, state.LastTriggeredAt.Equal(now))

	exists, err := repo.EventExists(ctx, "puuid-a", "Ahri", "EUW1_9")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPenaltyRepository_ApplyDecidesFromCommittedState(t *testing.T) {
	sqlDB, queries := openTestDB(t)
	repo := NewPenaltyRepository(sqlDB, queries, zerolog.Nop())
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)

	escalate := func(state domain.PenaltyState) domain.PenaltyDecision {
		return domain.PenaltyDecision{
			Reason:    "single match score below 35",
			Level:     state.Level + 1,
			ExpiresAt: now.Add(48 * time.Hour),
		}
	}

	var wg sync.WaitGroup
	levels := make([]int, 2)
	errs := make([]error, 2)
	for i, matchID := range []string{"EUW1_1", "EUW1_2"} {
		wg.Add(1)
		go func(i int, matchID string) {
			defer wg.Done()
			decision, err := repo.Apply(ctx, "puuid-a", "Ahri", matchID, now, escalate)
			errs[i] = err
			if decision != nil {
				levels[i] = decision.Level
			}
		}(i, matchID)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.ElementsMatch(t, []int{1, 2}, levels)

	state, err := repo.Get(ctx, "puuid-a", "Ahri")
	require.NoError(t, err)
	assert.Equal(t, 2, state.Level)
}
