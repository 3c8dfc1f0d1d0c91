package service

import (
	"context"
	"testing"

	"league-tracker/internal/api"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountService_Link(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	accounts := NewAccountService(e.riot, e.accounts, zerolog.Nop())
	e.riot.accounts["Faker#KR1"] = &api.AccountDTO{PUUID: "puuid-faker", GameName: "Faker", TagLine: "KR1"}

	account, err := accounts.Link(ctx, "owner-1", "KR", "Faker", "KR1")
	require.NoError(t, err)
	assert.Equal(t, "puuid-faker", account.PUUID)
	assert.Equal(t, "kr", account.Platform)
	assert.NotEmpty(t, account.ID)

	_, err = accounts.Link(ctx, "owner-2", "kr", "Faker", "KR1")
	assert.ErrorIs(t, err, ErrAlreadyTracked)

	_, err = accounts.Link(ctx, "owner-1", "kr", "Nobody", "000")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = accounts.Link(ctx, "owner-1", "moon1", "Faker", "KR1")
	assert.Error(t, err)

	list, err := accounts.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, accounts.Unlink(ctx, "puuid-faker"))
	list, err = accounts.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
