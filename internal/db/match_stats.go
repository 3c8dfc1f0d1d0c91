package db

import (
	"context"
	"time"
)

const insertMatchStats = `
INSERT INTO match_stats (
    puuid, match_id, champion, champion_id, role, score, placement,
    kills, deaths, assists, damage, gold, farm, vision,
    win, remake, duration_seconds, queue_id, played_at, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(puuid, match_id) DO NOTHING
`

type InsertMatchStatsParams struct {
	Puuid           string
	MatchID         string
	Champion        string
	ChampionID      int64
	Role            string
	Score           float64
	Placement       int64
	Kills           int64
	Deaths          int64
	Assists         int64
	Damage          int64
	Gold            int64
	Farm            int64
	Vision          int64
	Win             bool
	Remake          bool
	DurationSeconds int64
	QueueID         int64
	PlayedAt        time.Time
	CreatedAt       time.Time
}

func (q *Queries) InsertMatchStats(ctx context.Context, arg InsertMatchStatsParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertMatchStats,
		arg.Puuid,
		arg.MatchID,
		arg.Champion,
		arg.ChampionID,
		arg.Role,
		arg.Score,
		arg.Placement,
		arg.Kills,
		arg.Deaths,
		arg.Assists,
		arg.Damage,
		arg.Gold,
		arg.Farm,
		arg.Vision,
		arg.Win,
		arg.Remake,
		arg.DurationSeconds,
		arg.QueueID,
		arg.PlayedAt,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countMatchStats = `
SELECT COUNT(*) FROM match_stats WHERE puuid = ? AND match_id = ?
`

func (q *Queries) CountMatchStats(ctx context.Context, puuid, matchID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countMatchStats, puuid, matchID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const recentMatchStatsByChampion = `
SELECT puuid, match_id, champion, champion_id, role, score, placement,
       kills, deaths, assists, damage, gold, farm, vision,
       win, remake, duration_seconds, queue_id, played_at, created_at
FROM match_stats
WHERE puuid = ? AND champion = ? AND remake = 0
ORDER BY played_at DESC, match_id DESC
LIMIT ?
`

type RecentMatchStatsByChampionParams struct {
	Puuid    string
	Champion string
	Limit    int64
}

func (q *Queries) RecentMatchStatsByChampion(ctx context.Context, arg RecentMatchStatsByChampionParams) ([]MatchStat, error) {
	return q.queryMatchStats(ctx, recentMatchStatsByChampion, arg.Puuid, arg.Champion, arg.Limit)
}

const recentMatchStats = `
SELECT puuid, match_id, champion, champion_id, role, score, placement,
       kills, deaths, assists, damage, gold, farm, vision,
       win, remake, duration_seconds, queue_id, played_at, created_at
FROM match_stats
WHERE puuid = ?
ORDER BY played_at DESC, match_id DESC
LIMIT ?
`

func (q *Queries) RecentMatchStats(ctx context.Context, puuid string, limit int64) ([]MatchStat, error) {
	return q.queryMatchStats(ctx, recentMatchStats, puuid, limit)
}

func (q *Queries) queryMatchStats(ctx context.Context, query string, args ...interface{}) ([]MatchStat, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MatchStat
	for rows.Next() {
		var i MatchStat
		if err := rows.Scan(
			&i.Puuid,
			&i.MatchID,
			&i.Champion,
			&i.ChampionID,
			&i.Role,
			&i.Score,
			&i.Placement,
			&i.Kills,
			&i.Deaths,
			&i.Assists,
			&i.Damage,
			&i.Gold,
			&i.Farm,
			&i.Vision,
			&i.Win,
			&i.Remake,
			&i.DurationSeconds,
			&i.QueueID,
			&i.PlayedAt,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
