package repository

import (
	"context"
	"testing"
	"time"

	"league-tracker/internal/vote"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteRepository_SaveLoad(t *testing.T) {
	sqlDB, queries := openTestDB(t)
	repo := NewVoteRepository(sqlDB, queries, zerolog.Nop())
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)

	_, err := repo.Load(ctx, 7001)
	assert.ErrorIs(t, err, ErrNotFound)

	poll := vote.New(7001, now)
	poll, err = vote.Apply(poll, vote.Action{Kind: vote.ActionVote, UserID: "alice", Option: vote.OptionWin})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, poll))

	poll, err = vote.Apply(poll, vote.Action{Kind: vote.ActionVote, UserID: "alice", Option: vote.OptionLoss})
	require.NoError(t, err)
	poll, err = vote.Apply(poll, vote.Action{Kind: vote.ActionVote, UserID: "bob", Option: vote.OptionWin})
	require.NoError(t, err)
	poll, err = vote.Apply(poll, vote.Action{Kind: vote.ActionClose, At: now.Add(30 * time.Minute)})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, poll))

	loaded, err := repo.Load(ctx, 7001)
	require.NoError(t, err)
	assert.Equal(t, vote.StateClosed, loaded.State)
	assert.Equal(t, vote.Tally{Win: 1, Loss: 1}, vote.TallyOf(loaded))
	assert.Equal(t, vote.OptionLoss, loaded.Votes["alice"])
	assert.True(t, loaded.ClosedAt.Equal(now.Add(30*time.Minute)))
}
