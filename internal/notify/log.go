package notify

import (
	"context"
	"strconv"

	"league-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// LogNotifier writes every notification to the log. The handle it returns is
// derived from the game id so sessions still get a stable message id.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) SessionOpened(ctx context.Context, session *domain.LiveSession) (domain.NotificationHandle, error) {
	n.logger.Info().
		Int64("game_id", session.GameID).
		Strs("puuids", session.PUUIDs()).
		Str("message", FormatSession(session)).
		Msg("session opened")
	return logHandle(session), nil
}

func (n *LogNotifier) SessionUpdated(ctx context.Context, session *domain.LiveSession, added []domain.SessionParticipant) (domain.NotificationHandle, error) {
	n.logger.Info().
		Int64("game_id", session.GameID).
		Int("added", len(added)).
		Str("message", FormatSession(session)).
		Msg("session updated")
	return logHandle(session), nil
}

func (n *LogNotifier) MatchFinalized(ctx context.Context, result MatchResult) error {
	n.logger.Info().
		Str("match_id", result.Table.MatchID).
		Int("tracked", len(result.Tracked)).
		Str("message", FormatMatchResult(result)).
		Msg("match finalized")
	return nil
}

func (n *LogNotifier) PenaltyTriggered(ctx context.Context, decision domain.PenaltyDecision) error {
	n.logger.Warn().
		Str("puuid", decision.PUUID).
		Str("champion", decision.Champion).
		Int("level", decision.Level).
		Str("message", FormatPenalty(decision)).
		Msg("penalty triggered")
	return nil
}

func logHandle(session *domain.LiveSession) domain.NotificationHandle {
	return domain.NotificationHandle{ChannelID: "log", MessageID: strconv.FormatInt(session.GameID, 10)}
}
