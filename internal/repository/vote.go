package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"league-tracker/internal/db"
	"league-tracker/internal/vote"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type VoteRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewVoteRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *VoteRepository {
	return &VoteRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *VoteRepository) Load(ctx context.Context, gameID int64) (vote.Poll, error) {
	row, err := r.queries.GetPredictionPoll(ctx, gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return vote.Poll{}, ErrNotFound
	}
	if err != nil {
		return vote.Poll{}, err
	}

	votes, err := r.queries.ListPredictionVotes(ctx, gameID)
	if err != nil {
		return vote.Poll{}, fmt.Errorf("failed to list votes of %d: %w", gameID, err)
	}

	poll := vote.Poll{
		GameID:   row.GameID,
		State:    vote.State(row.State),
		Votes:    make(map[string]vote.Option, len(votes)),
		OpenedAt: row.OpenedAt,
	}
	if row.ClosedAt.Valid {
		poll.ClosedAt = row.ClosedAt.Time
	}
	for _, v := range votes {
		poll.Votes[v.UserID] = vote.Option(v.Option)
	}
	return poll, nil
}

// Save writes the poll and every vote it holds.
func (r *VoteRepository) Save(ctx context.Context, poll vote.Poll) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	now := time.Now().UTC()

	closedAt := sql.NullTime{}
	if !poll.ClosedAt.IsZero() {
		closedAt = sql.NullTime{Time: poll.ClosedAt.UTC(), Valid: true}
	}
	err = qtx.UpsertPredictionPoll(ctx, db.UpsertPredictionPollParams{
		GameID:   poll.GameID,
		State:    string(poll.State),
		OpenedAt: poll.OpenedAt.UTC(),
		ClosedAt: closedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to save poll %d: %w", poll.GameID, err)
	}

	for userID, option := range poll.Votes {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate vote id: %w", err)
		}
		err = qtx.UpsertPredictionVote(ctx, db.UpsertPredictionVoteParams{
			ID:      id,
			GameID:  poll.GameID,
			UserID:  userID,
			Option:  string(option),
			VotedAt: now,
		})
		if err != nil {
			return fmt.Errorf("failed to save vote of %s: %w", userID, err)
		}
	}

	return tx.Commit()
}
