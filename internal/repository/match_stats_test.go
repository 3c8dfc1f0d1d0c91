package repository

import (
	"context"
	"testing"
	"time"

	"league-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statsFor(matchID, champion string, score float64, playedAt time.Time, remake bool) *domain.MatchStats {
	return &domain.MatchStats{
		PUUID:           "puuid-a",
		MatchID:         matchID,
		Champion:        champion,
		ChampionID:      103,
		Role:            domain.RoleMiddle,
		Score:           score,
		Placement:       4,
		DurationSeconds: 1800,
		QueueID:         420,
		Remake:          remake,
		PlayedAt:        playedAt,
	}
}

func TestMatchStatsRepository_InsertIsIdempotent(t *testing.T) {
	_, queries := openTestDB(t)
	repo := NewMatchStatsRepository(queries, zerolog.Nop())
	ctx := context.Background()
	now := time.Now()

	inserted, err := repo.Insert(ctx, statsFor("EUW1_1", "Ahri", 55, now, false))
	require.NoError(t, err)
	assert.True(t, inserted)

	changed := statsFor("EUW1_1", "Ahri", 12, now, false)
	inserted, err = repo.Insert(ctx, changed)
	require.NoError(t, err)
	assert.False(t, inserted)

	recent, err := repo.Recent(ctx, "puuid-a", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, 55.0, recent[0].Score)

	exists, err := repo.Exists(ctx, "puuid-a", "EUW1_1")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.Exists(ctx, "puuid-a", "EUW1_2")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMatchStatsRepository_RecentByChampionSkipsRemakes(t *testing.T) {
	_, queries := openTestDB(t)
	repo := NewMatchStatsRepository(queries, zerolog.Nop())
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	rows := []*domain.MatchStats{
		statsFor("EUW1_1", "Ahri", 10, base, false),
		statsFor("EUW1_2", "Ahri", 20, base.Add(time.Hour), false),
		statsFor("EUW1_3", "Ahri", 30, base.Add(2*time.Hour), true),
		statsFor("EUW1_4", "Zed", 40, base.Add(3*time.Hour), false),
		statsFor("EUW1_5", "Ahri", 50, base.Add(4*time.Hour), false),
		statsFor("EUW1_6", "Ahri", 60, base.Add(5*time.Hour), false),
	}
	for _, row := range rows {
		_, err := repo.Insert(ctx, row)
		require.NoError(t, err)
	}

	recent, err := repo.RecentByChampion(ctx, "puuid-a", "Ahri", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "EUW1_6", recent[0].MatchID)
	assert.Equal(t, "EUW1_5", recent[1].MatchID)
	assert.Equal(t, "EUW1_2", recent[2].MatchID)
	assert.True(t, recent[0].PlayedAt.Equal(base.Add(5*time.Hour)))
}
