package repository

import (
	"context"
	"fmt"
	"time"

	"league-tracker/internal/db"
	"league-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type MatchStatsRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewMatchStatsRepository(queries *db.Queries, logger zerolog.Logger) *MatchStatsRepository {
	return &MatchStatsRepository{
		queries: queries,
		logger:  logger,
	}
}

// Insert stores stats for one (account, match) pair. Inserting a pair that
// already exists is a no-op and reports false.
func (r *MatchStatsRepository) Insert(ctx context.Context, stats *domain.MatchStats) (bool, error) {
	if stats.CreatedAt.IsZero() {
		stats.CreatedAt = time.Now()
	}

	affected, err := r.queries.InsertMatchStats(ctx, db.InsertMatchStatsParams{
		Puuid:           stats.PUUID,
		MatchID:         stats.MatchID,
		Champion:        stats.Champion,
		ChampionID:      int64(stats.ChampionID),
		Role:            string(stats.Role),
		Score:           stats.Score,
		Placement:       int64(stats.Placement),
		Kills:           int64(stats.Kills),
		Deaths:          int64(stats.Deaths),
		Assists:         int64(stats.Assists),
		Damage:          int64(stats.Damage),
		Gold:            int64(stats.Gold),
		Farm:            int64(stats.Farm),
		Vision:          int64(stats.Vision),
		Win:             stats.Win,
		Remake:          stats.Remake,
		DurationSeconds: int64(stats.DurationSeconds),
		QueueID:         int64(stats.QueueID),
		PlayedAt:        stats.PlayedAt.UTC(),
		CreatedAt:       stats.CreatedAt.UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to insert match stats %s/%s: %w", stats.PUUID, stats.MatchID, err)
	}

	r.logger.Debug().
		Str("puuid", stats.PUUID).
		Str("match_id", stats.MatchID).
		Bool("inserted", affected > 0).
		Msg("insert match stats")
	return affected > 0, nil
}

func (r *MatchStatsRepository) Exists(ctx context.Context, puuid, matchID string) (bool, error) {
	count, err := r.queries.CountMatchStats(ctx, puuid, matchID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RecentByChampion returns up to limit non-remake matches on champion, most
// recent first.
func (r *MatchStatsRepository) RecentByChampion(ctx context.Context, puuid, champion string, limit int) ([]domain.MatchStats, error) {
	rows, err := r.queries.RecentMatchStatsByChampion(ctx, db.RecentMatchStatsByChampionParams{
		Puuid:    puuid,
		Champion: champion,
		Limit:    int64(limit),
	})
	if err != nil {
		return nil, err
	}
	return statsFromRows(rows), nil
}

func (r *MatchStatsRepository) Recent(ctx context.Context, puuid string, limit int) ([]domain.MatchStats, error) {
	rows, err := r.queries.RecentMatchStats(ctx, puuid, int64(limit))
	if err != nil {
		return nil, err
	}
	return statsFromRows(rows), nil
}

func statsFromRows(rows []db.MatchStat) []domain.MatchStats {
	result := make([]domain.MatchStats, len(rows))
	for i, row := range rows {
		result[i] = domain.MatchStats{
			PUUID:           row.Puuid,
			MatchID:         row.MatchID,
			Champion:        row.Champion,
			ChampionID:      int(row.ChampionID),
			Role:            domain.Role(row.Role),
			Score:           row.Score,
			Placement:       int(row.Placement),
			Kills:           int(row.Kills),
			Deaths:          int(row.Deaths),
			Assists:         int(row.Assists),
			Damage:          int(row.Damage),
			Gold:            int(row.Gold),
			Farm:            int(row.Farm),
			Vision:          int(row.Vision),
			Win:             row.Win,
			Remake:          row.Remake,
			DurationSeconds: int(row.DurationSeconds),
			QueueID:         int(row.QueueID),
			PlayedAt:        row.PlayedAt,
			CreatedAt:       row.CreatedAt,
		}
	}
	return result
}
