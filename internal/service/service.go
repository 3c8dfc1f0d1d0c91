package service

import (
	"context"

	"league-tracker/internal/api"

	"github.com/elliotchance/pie/v2"
)

// RiotClient is the part of the gateway the services depend on.
type RiotClient interface {
	AccountByRiotID(ctx context.Context, platform, gameName, tagLine string) (*api.AccountDTO, error)
	MatchIDsByPUUID(ctx context.Context, platform, puuid string, count int) ([]string, error)
	Match(ctx context.Context, platform, matchID string) (*api.MatchDTO, error)
	ActiveGame(ctx context.Context, platform, puuid string) (*api.ActiveGameDTO, error)
}

func queueTracked(queues []int, queueID int) bool {
	return pie.Contains(queues, queueID)
}
