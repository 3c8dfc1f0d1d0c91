package db

import (
	"context"
	"time"
)

const insertNotificationSent = `
INSERT INTO notifications_sent (puuid, match_id, sent_at)
VALUES (?, ?, ?)
ON CONFLICT(puuid, match_id) DO NOTHING
`

func (q *Queries) InsertNotificationSent(ctx context.Context, puuid, matchID string, sentAt time.Time) error {
	_, err := q.db.ExecContext(ctx, insertNotificationSent, puuid, matchID, sentAt)
	return err
}

const countNotificationSent = `
SELECT COUNT(*) FROM notifications_sent WHERE puuid = ? AND match_id = ?
`

func (q *Queries) CountNotificationSent(ctx context.Context, puuid, matchID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countNotificationSent, puuid, matchID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const upsertAnnouncement = `
INSERT INTO announcements (game_id, announced_at)
VALUES (?, ?)
ON CONFLICT(game_id) DO UPDATE SET announced_at = excluded.announced_at
`

func (q *Queries) UpsertAnnouncement(ctx context.Context, gameID int64, announcedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, upsertAnnouncement, gameID, announcedAt)
	return err
}

const getAnnouncement = `
SELECT announced_at FROM announcements WHERE game_id = ?
`

func (q *Queries) GetAnnouncement(ctx context.Context, gameID int64) (time.Time, error) {
	row := q.db.QueryRowContext(ctx, getAnnouncement, gameID)
	var announcedAt time.Time
	err := row.Scan(&announcedAt)
	return announcedAt, err
}

const deleteAnnouncementsBefore = `
DELETE FROM announcements WHERE announced_at < ?
`

func (q *Queries) DeleteAnnouncementsBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAnnouncementsBefore, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
