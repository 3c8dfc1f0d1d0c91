package db

import (
	"context"
	"time"
)

const getPenaltyState = `
SELECT puuid, champion, level, last_triggered_at, expires_at, updated_at
FROM penalty_states
WHERE puuid = ? AND champion = ?
`

func (q *Queries) GetPenaltyState(ctx context.Context, puuid, champion string) (PenaltyState, error) {
	row := q.db.QueryRowContext(ctx, getPenaltyState, puuid, champion)
	var i PenaltyState
	err := row.Scan(
		&i.Puuid,
		&i.Champion,
		&i.Level,
		&i.LastTriggeredAt,
		&i.ExpiresAt,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertPenaltyState = `
INSERT INTO penalty_states (puuid, champion, level, last_triggered_at, expires_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(puuid, champion) DO UPDATE SET
    level = excluded.level,
    last_triggered_at = excluded.last_triggered_at,
    expires_at = excluded.expires_at,
    updated_at = excluded.updated_at
`

type UpsertPenaltyStateParams struct {
	Puuid           string
	Champion        string
	Level           int64
	LastTriggeredAt time.Time
	ExpiresAt       time.Time
	UpdatedAt       time.Time
}

func (q *Queries) UpsertPenaltyState(ctx context.Context, arg UpsertPenaltyStateParams) error {
	_, err := q.db.ExecContext(ctx, upsertPenaltyState,
		arg.Puuid,
		arg.Champion,
		arg.Level,
		arg.LastTriggeredAt,
		arg.ExpiresAt,
		arg.UpdatedAt,
	)
	return err
}

const insertPenaltyEvent = `
INSERT INTO penalty_events (id, puuid, champion, match_id, reason, previous_level, level, expires_at, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(puuid, champion, match_id) DO NOTHING
`

type InsertPenaltyEventParams struct {
	ID            string
	Puuid         string
	Champion      string
	MatchID       string
	Reason        string
	PreviousLevel int64
	Level         int64
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

func (q *Queries) InsertPenaltyEvent(ctx context.Context, arg InsertPenaltyEventParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertPenaltyEvent,
		arg.ID,
		arg.Puuid,
		arg.Champion,
		arg.MatchID,
		arg.Reason,
		arg.PreviousLevel,
		arg.Level,
		arg.ExpiresAt,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countPenaltyEvents = `
SELECT COUNT(*) FROM penalty_events WHERE puuid = ? AND champion = ? AND match_id = ?
`

func (q *Queries) CountPenaltyEvents(ctx context.Context, puuid, champion, matchID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countPenaltyEvents, puuid, champion, matchID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
