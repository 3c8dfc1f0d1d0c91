package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"league-tracker/internal/db"
	"league-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type SessionRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewSessionRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *SessionRepository {
	return &SessionRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *SessionRepository) Get(ctx context.Context, gameID int64) (*domain.LiveSession, error) {
	row, err := r.queries.GetLiveSession(ctx, gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.load(ctx, r.queries, row)
}

func (r *SessionRepository) List(ctx context.Context) ([]domain.LiveSession, error) {
	rows, err := r.queries.ListLiveSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list live sessions: %w", err)
	}

	sessions := make([]domain.LiveSession, 0, len(rows))
	for _, row := range rows {
		session, err := r.load(ctx, r.queries, row)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, nil
}

// Create writes a new session row and its participants.
func (r *SessionRepository) Create(ctx context.Context, session *domain.LiveSession) error {
	return r.write(ctx, session, false)
}

// Update writes the session row and any participants not yet stored.
// Stored participants are never removed here. It returns ErrNotFound when
// the session was closed in the meantime and writes nothing in that case.
func (r *SessionRepository) Update(ctx context.Context, session *domain.LiveSession) error {
	return r.write(ctx, session, true)
}

func (r *SessionRepository) write(ctx context.Context, session *domain.LiveSession, mustExist bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	if mustExist {
		_, err := qtx.GetLiveSession(ctx, session.GameID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load session %d: %w", session.GameID, err)
		}
	}

	err = qtx.UpsertLiveSession(ctx, db.UpsertLiveSessionParams{
		GameID:        session.GameID,
		Platform:      session.Platform,
		QueueID:       int64(session.QueueID),
		GameStartTime: session.GameStartTime.UTC(),
		ChannelID:     session.Handle.ChannelID,
		MessageID:     session.Handle.MessageID,
		OpenedAt:      session.OpenedAt.UTC(),
		UpdatedAt:     session.UpdatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert session %d: %w", session.GameID, err)
	}

	for _, p := range session.Participants {
		err := qtx.InsertLiveSessionParticipant(ctx, db.InsertLiveSessionParticipantParams{
			GameID:     session.GameID,
			Puuid:      p.PUUID,
			AccountID:  p.AccountID,
			RiotID:     p.RiotID,
			ChampionID: int64(p.ChampionID),
			TeamID:     int64(p.TeamID),
			JoinedAt:   p.JoinedAt.UTC(),
		})
		if err != nil {
			return fmt.Errorf("failed to insert participant %s: %w", p.PUUID, err)
		}
	}

	return tx.Commit()
}

// Close removes the session. Closing an unknown session is not an error.
func (r *SessionRepository) Close(ctx context.Context, gameID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	if err := qtx.DeleteLiveSessionParticipants(ctx, gameID); err != nil {
		return fmt.Errorf("failed to delete participants of %d: %w", gameID, err)
	}
	affected, err := qtx.DeleteLiveSession(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to delete session %d: %w", gameID, err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	r.logger.Debug().Int64("game_id", gameID).Bool("existed", affected > 0).Msg("session closed")
	return nil
}

func (r *SessionRepository) load(ctx context.Context, q *db.Queries, row db.LiveSession) (*domain.LiveSession, error) {
	participants, err := q.ListLiveSessionParticipants(ctx, row.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants of %d: %w", row.GameID, err)
	}

	session := &domain.LiveSession{
		GameID:        row.GameID,
		Platform:      row.Platform,
		QueueID:       int(row.QueueID),
		GameStartTime: row.GameStartTime,
		Handle: domain.NotificationHandle{
			ChannelID: row.ChannelID,
			MessageID: row.MessageID,
		},
		OpenedAt:  row.OpenedAt,
		UpdatedAt: row.UpdatedAt,
	}
	for _, p := range participants {
		session.Participants = append(session.Participants, domain.SessionParticipant{
			AccountID:  p.AccountID,
			PUUID:      p.Puuid,
			RiotID:     p.RiotID,
			ChampionID: int(p.ChampionID),
			TeamID:     int(p.TeamID),
			JoinedAt:   p.JoinedAt,
		})
	}
	return session, nil
}
