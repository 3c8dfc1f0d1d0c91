package db

import (
	"context"
	"time"
)

const insertTrackedAccount = `
INSERT INTO tracked_accounts (id, owner_id, platform, puuid, game_name, tag_line, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(puuid) DO NOTHING
`

type InsertTrackedAccountParams struct {
	ID        string
	OwnerID   string
	Platform  string
	Puuid     string
	GameName  string
	TagLine   string
	CreatedAt time.Time
}

func (q *Queries) InsertTrackedAccount(ctx context.Context, arg InsertTrackedAccountParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertTrackedAccount,
		arg.ID,
		arg.OwnerID,
		arg.Platform,
		arg.Puuid,
		arg.GameName,
		arg.TagLine,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteTrackedAccount = `
DELETE FROM tracked_accounts WHERE puuid = ?
`

func (q *Queries) DeleteTrackedAccount(ctx context.Context, puuid string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTrackedAccount, puuid)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getTrackedAccountByPuuid = `
SELECT id, owner_id, platform, puuid, game_name, tag_line, created_at
FROM tracked_accounts
WHERE puuid = ?
`

func (q *Queries) GetTrackedAccountByPuuid(ctx context.Context, puuid string) (TrackedAccount, error) {
	row := q.db.QueryRowContext(ctx, getTrackedAccountByPuuid, puuid)
	var i TrackedAccount
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Platform,
		&i.Puuid,
		&i.GameName,
		&i.TagLine,
		&i.CreatedAt,
	)
	return i, err
}

const listTrackedAccounts = `
SELECT id, owner_id, platform, puuid, game_name, tag_line, created_at
FROM tracked_accounts
ORDER BY created_at, id
`

func (q *Queries) ListTrackedAccounts(ctx context.Context) ([]TrackedAccount, error) {
	rows, err := q.db.QueryContext(ctx, listTrackedAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TrackedAccount
	for rows.Next() {
		var i TrackedAccount
		if err := rows.Scan(
			&i.ID,
			&i.OwnerID,
			&i.Platform,
			&i.Puuid,
			&i.GameName,
			&i.TagLine,
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
