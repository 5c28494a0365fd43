package internal

import (
	"context"
	"fmt"
	"os"

	"github.com/flexprice/invoicer/internal/config"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/oracle"
	"github.com/flexprice/invoicer/internal/repository"
	"github.com/flexprice/invoicer/internal/sentry"
	"github.com/flexprice/invoicer/internal/service"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/shopspring/decimal"
)

// SeedLedger mints STABLE_AMOUNT and VOLATILE_AMOUNT to ACCOUNT and approves
// the settlement spender for the same amounts, so the account can pay invoices
// right away. Amounts are human readable and scaled by each asset's decimals.
func SeedLedger() error {
	account := os.Getenv("ACCOUNT")
	if account == "" {
		return fmt.Errorf("ACCOUNT is required")
	}

	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	if cfg.Storage.Driver != types.StorageDriverPostgres {
		return fmt.Errorf("seeding requires storage.driver=postgres, got %s", cfg.Storage.Driver)
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return err
	}

	storage, err := repository.NewStorage(cfg, log)
	if err != nil {
		return err
	}
	defer storage.Close()

	feed, err := oracle.NewPriceFeed(cfg, log)
	if err != nil {
		return err
	}

	params := service.NewServiceParams(log, cfg, storage, feed, nil, sentry.NewSentryService(cfg, log))
	tokens := service.NewTokenService(params)

	amounts := map[string]string{
		cfg.Settlement.StableAsset.Symbol:   os.Getenv("STABLE_AMOUNT"),
		cfg.Settlement.VolatileAsset.Symbol: os.Getenv("VOLATILE_AMOUNT"),
	}

	ownerCtx := types.SetUserID(context.Background(), cfg.Settlement.Owner)
	holderCtx := types.SetUserID(context.Background(), account)

	for _, a := range tokens.Assets() {
		raw := amounts[a.Symbol]
		if raw == "" {
			continue
		}

		human, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("invalid amount %q for %s: %w", raw, a.Symbol, err)
		}
		amount := types.ToBaseUnits(human, a.Decimals)

		balance, err := tokens.Mint(ownerCtx, a.Symbol, account, amount)
		if err != nil {
			return err
		}
		if _, err := tokens.Approve(holderCtx, a.Symbol, cfg.Settlement.Spender, amount); err != nil {
			return err
		}

		log.Infow("seeded ledger",
			"asset", a.Symbol,
			"account", account,
			"minted", amount,
			"balance", balance.Amount,
			"spender", cfg.Settlement.Spender,
		)
	}
	return nil
}
