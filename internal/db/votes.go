package db

import (
	"context"
	"database/sql"
	"time"
)

const getPredictionPoll = `
SELECT game_id, state, opened_at, closed_at
FROM prediction_polls
WHERE game_id = ?
`

func (q *Queries) GetPredictionPoll(ctx context.Context, gameID int64) (PredictionPoll, error) {
	row := q.db.QueryRowContext(ctx, getPredictionPoll, gameID)
	var i PredictionPoll
	err := row.Scan(
		&i.GameID,
		&i.State,
		&i.OpenedAt,
		&i.ClosedAt,
	)
	return i, err
}

const upsertPredictionPoll = `
INSERT INTO prediction_polls (game_id, state, opened_at, closed_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(game_id) DO UPDATE SET
    state = excluded.state,
    closed_at = excluded.closed_at
`

type UpsertPredictionPollParams struct {
	GameID   int64
	State    string
	OpenedAt time.Time
	ClosedAt sql.NullTime
}

func (q *Queries) UpsertPredictionPoll(ctx context.Context, arg UpsertPredictionPollParams) error {
	_, err := q.db.ExecContext(ctx, upsertPredictionPoll,
		arg.GameID,
		arg.State,
		arg.OpenedAt,
		arg.ClosedAt,
	)
	return err
}

const listPredictionVotes = `
SELECT id, game_id, user_id, option, voted_at
FROM prediction_votes
WHERE game_id = ?
ORDER BY voted_at, user_id
`

func (q *Queries) ListPredictionVotes(ctx context.Context, gameID int64) ([]PredictionVote, error) {
	rows, err := q.db.QueryContext(ctx, listPredictionVotes, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PredictionVote
	for rows.Next() {
		var i PredictionVote
		if err := rows.Scan(
			&i.ID,
			&i.GameID,
			&i.UserID,
			&i.Option,
			&i.VotedAt,
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

const upsertPredictionVote = `
INSERT INTO prediction_votes (id, game_id, user_id, option, voted_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(game_id, user_id) DO UPDATE SET
    option = excluded.option,
    voted_at = excluded.voted_at
`

type UpsertPredictionVoteParams struct {
	ID      string
	GameID  int64
	UserID  string
	Option  string
	VotedAt time.Time
}

func (q *Queries) UpsertPredictionVote(ctx context.Context, arg UpsertPredictionVoteParams) error {
	_, err := q.db.ExecContext(ctx, upsertPredictionVote,
		arg.ID,
		arg.GameID,
		arg.UserID,
		arg.Option,
		arg.VotedAt,
	)
	return err
}
