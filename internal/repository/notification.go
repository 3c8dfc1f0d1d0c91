package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"league-tracker/internal/db"

	"github.com/rs/zerolog"
)

// NotificationRepository keeps the logs that stop announcements and match
// results from being sent twice.
type NotificationRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewNotificationRepository(queries *db.Queries, logger zerolog.Logger) *NotificationRepository {
	return &NotificationRepository{
		queries: queries,
		logger:  logger,
	}
}

func (r *NotificationRepository) WasSent(ctx context.Context, puuid, matchID string) (bool, error) {
	count, err := r.queries.CountNotificationSent(ctx, puuid, matchID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *NotificationRepository) MarkSent(ctx context.Context, puuid, matchID string, at time.Time) error {
	return r.queries.InsertNotificationSent(ctx, puuid, matchID, at.UTC())
}

// WasAnnounced reports whether gameID was announced after since.
func (r *NotificationRepository) WasAnnounced(ctx context.Context, gameID int64, since time.Time) (bool, error) {
	announcedAt, err := r.queries.GetAnnouncement(ctx, gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return announcedAt.After(since), nil
}

func (r *NotificationRepository) MarkAnnounced(ctx context.Context, gameID int64, at time.Time) error {
	return r.queries.UpsertAnnouncement(ctx, gameID, at.UTC())
}

func (r *NotificationRepository) PruneAnnouncements(ctx context.Context, before time.Time) (int64, error) {
	pruned, err := r.queries.DeleteAnnouncementsBefore(ctx, before.UTC())
	if err != nil {
		return 0, err
	}
	if pruned > 0 {
		r.logger.Debug().Int64("pruned", pruned).Msg("pruned announcement log")
	}
	return pruned, nil
}
