package db

import (
	"context"
	"time"
)

const upsertLiveSession = `
INSERT INTO live_sessions (game_id, platform, queue_id, game_start_time, channel_id, message_id, opened_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(game_id) DO UPDATE SET
    channel_id = excluded.channel_id,
    message_id = excluded.message_id,
    updated_at = excluded.updated_at
`

type UpsertLiveSessionParams struct {
	GameID        int64
	Platform      string
	QueueID       int64
	GameStartTime time.Time
	ChannelID     string
	MessageID     string
	OpenedAt      time.Time
	UpdatedAt     time.Time
}

func (q *Queries) UpsertLiveSession(ctx context.Context, arg UpsertLiveSessionParams) error {
	_, err := q.db.ExecContext(ctx, upsertLiveSession,
		arg.GameID,
		arg.Platform,
		arg.QueueID,
		arg.GameStartTime,
		arg.ChannelID,
		arg.MessageID,
		arg.OpenedAt,
		arg.UpdatedAt,
	)
	return err
}

// participants are insert-only so the set never shrinks while open
const insertLiveSessionParticipant = `
INSERT INTO live_session_participants (game_id, puuid, account_id, riot_id, champion_id, team_id, joined_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(game_id, puuid) DO NOTHING
`

type InsertLiveSessionParticipantParams struct {
	GameID     int64
	Puuid      string
	AccountID  string
	RiotID     string
	ChampionID int64
	TeamID     int64
	JoinedAt   time.Time
}

func (q *Queries) InsertLiveSessionParticipant(ctx context.Context, arg InsertLiveSessionParticipantParams) error {
	_, err := q.db.ExecContext(ctx, insertLiveSessionParticipant,
		arg.GameID,
		arg.Puuid,
		arg.AccountID,
		arg.RiotID,
		arg.ChampionID,
		arg.TeamID,
		arg.JoinedAt,
	)
	return err
}

const getLiveSession = `
SELECT game_id, platform, queue_id, game_start_time, channel_id, message_id, opened_at, updated_at
FROM live_sessions
WHERE game_id = ?
`

func (q *Queries) GetLiveSession(ctx context.Context, gameID int64) (LiveSession, error) {
	row := q.db.QueryRowContext(ctx, getLiveSession, gameID)
	var i LiveSession
	err := row.Scan(
		&i.GameID,
		&i.Platform,
		&i.QueueID,
		&i.GameStartTime,
		&i.ChannelID,
		&i.MessageID,
		&i.OpenedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listLiveSessions = `
SELECT game_id, platform, queue_id, game_start_time, channel_id, message_id, opened_at, updated_at
FROM live_sessions
ORDER BY opened_at, game_id
`

func (q *Queries) ListLiveSessions(ctx context.Context) ([]LiveSession, error) {
	rows, err := q.db.QueryContext(ctx, listLiveSessions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LiveSession
	for rows.Next() {
		var i LiveSession
		if err := rows.Scan(
			&i.GameID,
			&i.Platform,
			&i.QueueID,
			&i.GameStartTime,
			&i.ChannelID,
			&i.MessageID,
			&i.OpenedAt,
			&i.UpdatedAt,
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

const listLiveSessionParticipants = `
SELECT game_id, puuid, account_id, riot_id, champion_id, team_id, joined_at
FROM live_session_participants
WHERE game_id = ?
ORDER BY joined_at, puuid
`

func (q *Queries) ListLiveSessionParticipants(ctx context.Context, gameID int64) ([]LiveSessionParticipant, error) {
	rows, err := q.db.QueryContext(ctx, listLiveSessionParticipants, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LiveSessionParticipant
	for rows.Next() {
		var i LiveSessionParticipant
		if err := rows.Scan(
			&i.GameID,
			&i.Puuid,
			&i.AccountID,
			&i.RiotID,
			&i.ChampionID,
			&i.TeamID,
			&i.JoinedAt,
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

const deleteLiveSession = `
DELETE FROM live_sessions WHERE game_id = ?
`

func (q *Queries) DeleteLiveSession(ctx context.Context, gameID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteLiveSession, gameID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteLiveSessionParticipants = `
DELETE FROM live_session_participants WHERE game_id = ?
`

func (q *Queries) DeleteLiveSessionParticipants(ctx context.Context, gameID int64) error {
	_, err := q.db.ExecContext(ctx, deleteLiveSessionParticipants, gameID)
	return err
}
