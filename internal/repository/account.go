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

var ErrNotFound = errors.New("not found")

type AccountRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewAccountRepository(queries *db.Queries, logger zerolog.Logger) *AccountRepository {
	return &AccountRepository{
		queries: queries,
		logger:  logger,
	}
}

func (r *AccountRepository) List(ctx context.Context) ([]domain.TrackedAccount, error) {
	rows, err := r.queries.ListTrackedAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked accounts: %w", err)
	}

	accounts := make([]domain.TrackedAccount, len(rows))
	for i, row := range rows {
		accounts[i] = accountFromRow(row)
	}
	return accounts, nil
}

func (r *AccountRepository) Get(ctx context.Context, puuid string) (*domain.TrackedAccount, error) {
	row, err := r.queries.GetTrackedAccountByPuuid(ctx, puuid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	account := accountFromRow(row)
	return &account, nil
}

// Link stores the account unless its PUUID is already tracked. The returned
// bool reports whether a row was created.
func (r *AccountRepository) Link(ctx context.Context, account *domain.TrackedAccount) (bool, error) {
	if account.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return false, fmt.Errorf("failed to generate account id: %w", err)
		}
		account.ID = id
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}

	affected, err := r.queries.InsertTrackedAccount(ctx, db.InsertTrackedAccountParams{
		ID:        account.ID,
		OwnerID:   account.OwnerID,
		Platform:  account.Platform,
		Puuid:     account.PUUID,
		GameName:  account.GameName,
		TagLine:   account.TagLine,
		CreatedAt: account.CreatedAt.UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to link account %s: %w", account.RiotID(), err)
	}

	r.logger.Debug().
		Str("puuid", account.PUUID).
		Str("riot_id", account.RiotID()).
		Bool("inserted", affected > 0).
		Msg("link tracked account")
	return affected > 0, nil
}

func (r *AccountRepository) Unlink(ctx context.Context, puuid string) error {
	affected, err := r.queries.DeleteTrackedAccount(ctx, puuid)
	if err != nil {
		return fmt.Errorf("failed to unlink account: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func accountFromRow(row db.TrackedAccount) domain.TrackedAccount {
	return domain.TrackedAccount{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		Platform:  row.Platform,
		PUUID:     row.Puuid,
		GameName:  row.GameName,
		TagLine:   row.TagLine,
		CreatedAt: row.CreatedAt,
	}
}
