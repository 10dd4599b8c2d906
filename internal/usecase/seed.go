package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/ledgercore/internal/domain"
)

// SeedSystemAccounts provisions the well-known Genesis and Revenue accounts
// if they do not exist yet. It is idempotent and safe to run on every
// startup before serving traffic.
func SeedSystemAccounts(ctx context.Context, repo AccountRepository, system SystemAccounts, logger zerolog.Logger) error {
	seeds := []struct {
		id   string
		name string
		typ  domain.AccountType
	}{
		{system.GenesisAccountID, "Genesis", domain.AccountTypeEquity},
		{system.RevenueAccountID, "Company Revenue", domain.AccountTypeAsset},
	}

	for _, s := range seeds {
		if s.id == "" {
			return fmt.Errorf("%w: system account id is not configured", domain.ErrInvalidCommand)
		}

		_, err := repo.GetByID(ctx, s.id)
		if err == nil {
			continue
		}

		if !errors.Is(err, domain.ErrAccountNotFound) {
			return err
		}

		account, err := domain.NewAccount(s.id, s.name, s.typ, system.Currency)
		if err != nil {
			return err
		}

		if err := repo.Create(ctx, account); err != nil {
			return err
		}

		logger.Info().
			Str("account_id", s.id).
			Str("name", s.name).
			Str("type", string(s.typ)).
			Msg("initialized system account")
	}

	return nil
}
