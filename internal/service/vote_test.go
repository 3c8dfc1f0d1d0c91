package service

import (
	"context"
	"testing"

	"league-tracker/internal/vote"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteService_Lifecycle(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	_, err := e.votes.OnUserAction(ctx, 40, "vote:win", "user-1")
	assert.ErrorIs(t, err, ErrNoPoll)

	require.NoError(t, e.votes.Open(ctx, 40))
	require.NoError(t, e.votes.Open(ctx, 40))

	_, err = e.votes.OnUserAction(ctx, 40, "vote:win", "user-1")
	require.NoError(t, err)
	_, err = e.votes.OnUserAction(ctx, 40, "vote:loss", "user-2")
	require.NoError(t, err)
	poll, err := e.votes.OnUserAction(ctx, 40, "vote:loss", "user-1")
	require.NoError(t, err)
	assert.Equal(t, vote.Tally{Win: 0, Loss: 2}, vote.TallyOf(poll))

	_, err = e.votes.OnUserAction(ctx, 40, "vote:maybe", "user-3")
	assert.ErrorIs(t, err, vote.ErrUnknownAction)

	closed, err := e.votes.Close(ctx, 40)
	require.NoError(t, err)
	require.NotNil(t, closed)
	assert.Equal(t, vote.StateClosed, closed.State)

	_, err = e.votes.OnUserAction(ctx, 40, "vote:win", "user-3")
	assert.ErrorIs(t, err, vote.ErrClosed)

	again, err := e.votes.Close(ctx, 40)
	require.NoError(t, err)
	assert.Equal(t, vote.TallyOf(*closed), vote.TallyOf(*again))
}

func TestVoteService_CloseWithoutPoll(t *testing.T) {
	e := newTestEnv(t)
	poll, err := e.votes.Close(context.Background(), 41)
	require.NoError(t, err)
	assert.Nil(t, poll)
}
