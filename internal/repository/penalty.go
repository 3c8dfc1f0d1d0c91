package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"league-tracker/internal/db"
	"league-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type PenaltyRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewPenaltyRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *PenaltyRepository {
	return &PenaltyRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

// Get returns the stored state, or a level 0 state when none exists.
func (r *PenaltyRepository) Get(ctx context.Context, puuid, champion string) (domain.PenaltyState, error) {
	return loadState(ctx, r.queries, puuid, champion)
}

func (r *PenaltyRepository) Set(ctx context.Context, state domain.PenaltyState) error {
	return r.queries.UpsertPenaltyState(ctx, upsertStateParams(state))
}

// Apply reads the current state of (puuid, champion), asks decide for the
// next decision and records the event and the new state, all in one
// transaction. It returns nil without touching the state when an event for
// the same (puuid, champion, match) already exists.
func (r *PenaltyRepository) Apply(ctx context.Context, puuid, champion, matchID string, now time.Time, decide func(domain.PenaltyState) domain.PenaltyDecision) (*domain.PenaltyDecision, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate penalty event id: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	state, err := loadState(ctx, qtx, puuid, champion)
	if err != nil {
		return nil, fmt.Errorf("failed to load penalty state: %w", err)
	}

	decision := decide(state)
	decision.PUUID = puuid
	decision.Champion = champion
	decision.MatchID = matchID
	decision.PreviousLevel = state.Level

	affected, err := qtx.InsertPenaltyEvent(ctx, db.InsertPenaltyEventParams{
		ID:            id,
		Puuid:         puuid,
		Champion:      champion,
		MatchID:       matchID,
		Reason:        decision.Reason,
		PreviousLevel: int64(decision.PreviousLevel),
		Level:         int64(decision.Level),
		ExpiresAt:     decision.ExpiresAt.UTC(),
		CreatedAt:     now.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record penalty event: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	err = qtx.UpsertPenaltyState(ctx, upsertStateParams(domain.PenaltyState{
		PUUID:           puuid,
		Champion:        champion,
		Level:           decision.Level,
		LastTriggeredAt: now,
		ExpiresAt:       decision.ExpiresAt,
		UpdatedAt:       now,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to write penalty state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &decision, nil
}

func (r *PenaltyRepository) EventExists(ctx context.Context, puuid, champion, matchID string) (bool, error) {
	count, err := r.queries.CountPenaltyEvents(ctx, puuid, champion, matchID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func loadState(ctx context.Context, q *db.Queries, puuid, champion string) (domain.PenaltyState, error) {
	row, err := q.GetPenaltyState(ctx, puuid, champion)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PenaltyState{PUUID: puuid, Champion: champion}, nil
	}
	if err != nil {
		return domain.PenaltyState{}, err
	}
	return domain.PenaltyState{
		PUUID:           row.Puuid,
		Champion:        row.Champion,
		Level:           int(row.Level),
		LastTriggeredAt: row.LastTriggeredAt,
		ExpiresAt:       row.ExpiresAt,
		UpdatedAt:       row.UpdatedAt,
	}, nil
}

func upsertStateParams(state domain.PenaltyState) db.UpsertPenaltyStateParams {
	return db.UpsertPenaltyStateParams{
		Puuid:           state.PUUID,
		Champion:        state.Champion,
		Level:           int64(state.Level),
		LastTriggeredAt: state.LastTriggeredAt.UTC(),
		ExpiresAt:       state.ExpiresAt.UTC(),
		UpdatedAt:       state.UpdatedAt.UTC(),
	}
}
