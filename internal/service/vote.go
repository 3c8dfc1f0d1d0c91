package service

import (
	"context"
	"errors"
	"fmt"

	"league-tracker/internal/repository"
	"league-tracker/internal/vote"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

var ErrNoPoll = errors.New("no prediction poll for this game")

type VoteService struct {
	repo   *repository.VoteRepository
	clock  clockwork.Clock
	logger zerolog.Logger
}

func NewVoteService(repo *repository.VoteRepository, clock clockwork.Clock, logger zerolog.Logger) *VoteService {
	return &VoteService{
		repo:   repo,
		clock:  clock,
		logger: logger.With().Str("component", "vote").Logger(),
	}
}

// Open creates the poll for gameID unless one exists.
func (s *VoteService) Open(ctx context.Context, gameID int64) error {
	_, err := s.repo.Load(ctx, gameID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return s.repo.Save(ctx, vote.New(gameID, s.clock.Now()))
}

func (s *VoteService) OnUserAction(ctx context.Context, gameID int64, actionID, userID string) (vote.Poll, error) {
	poll, err := s.repo.Load(ctx, gameID)
	if errors.Is(err, repository.ErrNotFound) {
		return vote.Poll{}, ErrNoPoll
	}
	if err != nil {
		return vote.Poll{}, err
	}

	action, err := vote.ParseAction(actionID, userID, s.clock.Now())
	if err != nil {
		return poll, err
	}
	next, err := vote.Apply(poll, action)
	if err != nil {
		return poll, err
	}
	if err := s.repo.Save(ctx, next); err != nil {
		return poll, fmt.Errorf("failed to save poll %d: %w", gameID, err)
	}

	s.logger.Debug().
		Int64("game_id", gameID).
		Str("user_id", userID).
		Str("action", actionID).
		Msg("poll action applied")
	return next, nil
}

// Close closes the poll for gameID and returns its final state, or nil when
// the game never had one.
func (s *VoteService) Close(ctx context.Context, gameID int64) (*vote.Poll, error) {
	poll, err := s.repo.Load(ctx, gameID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if poll.State == vote.StateClosed {
		return &poll, nil
	}

	closed, err := vote.Apply(poll, vote.Action{Kind: vote.ActionClose, At: s.clock.Now()})
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, closed); err != nil {
		return nil, err
	}
	return &closed, nil
}

func (s *VoteService) Get(ctx context.Context, gameID int64) (vote.Poll, error) {
	poll, err := s.repo.Load(ctx, gameID)
	if errors.Is(err, repository.ErrNotFound) {
		return vote.Poll{}, ErrNoPoll
	}
	return poll, err
}
