package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"league-tracker/internal/api"
	"league-tracker/internal/domain"
	"league-tracker/internal/repository"

	"github.com/rs/zerolog"
)

var (
	ErrAccountNotFound = errors.New("riot account not found")
	ErrAlreadyTracked  = errors.New("account is already tracked")
)

type AccountService struct {
	riot   RiotClient
	repo   *repository.AccountRepository
	logger zerolog.Logger
}

func NewAccountService(riot RiotClient, repo *repository.AccountRepository, logger zerolog.Logger) *AccountService {
	return &AccountService{riot: riot, repo: repo, logger: logger}
}

// Link resolves gameName#tagLine and starts tracking it for ownerID. Unlike
// the background loops, every failure here is returned to the caller.
func (s *AccountService) Link(ctx context.Context, ownerID, platform, gameName, tagLine string) (*domain.TrackedAccount, error) {
	platform = strings.ToLower(platform)
	if _, err := api.Host(api.EndpointActiveGame, platform); err != nil {
		return nil, err
	}

	dto, err := s.riot.AccountByRiotID(ctx, platform, gameName, tagLine)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s#%s: %w", gameName, tagLine, err)
	}
	if dto == nil {
		return nil, ErrAccountNotFound
	}

	account := &domain.TrackedAccount{
		OwnerID:  ownerID,
		Platform: platform,
		PUUID:    dto.PUUID,
		GameName: dto.GameName,
		TagLine:  dto.TagLine,
	}
	inserted, err := s.repo.Link(ctx, account)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, ErrAlreadyTracked
	}

	s.logger.Info().
		Str("owner_id", ownerID).
		Str("puuid", account.PUUID).
		Str("riot_id", account.RiotID()).
		Msg("account linked")
	return account, nil
}

func (s *AccountService) Unlink(ctx context.Context, puuid string) error {
	return s.repo.Unlink(ctx, puuid)
}

func (s *AccountService) List(ctx context.Context) ([]domain.TrackedAccount, error) {
	return s.repo.List(ctx)
}
