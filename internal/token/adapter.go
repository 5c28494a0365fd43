package token

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/flexprice/invoicer/internal/domain/asset"
	"github.com/flexprice/invoicer/internal/domain/ledger"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/postgres"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/shopspring/decimal"
)

// errPullRefused aborts the pull transaction when the holder cannot cover it
var errPullRefused = errors.New("pull refused")

// LedgerAdapter moves an asset between ledger accounts, spending allowances
// holders granted to the configured spender.
type LedgerAdapter struct {
	asset   types.Asset
	spender string
	ledger  ledger.Repository
	client  postgres.IClient
	logger  *logger.Logger
}

var _ asset.Adapter = (*LedgerAdapter)(nil)

func NewLedgerAdapter(
	a types.Asset,
	spender string,
	ledger ledger.Repository,
	client postgres.IClient,
	logger *logger.Logger,
) *LedgerAdapter {
	return &LedgerAdapter{
		asset:   a,
		spender: spender,
		ledger:  ledger,
		client:  client,
		logger:  logger,
	}
}

func (a *LedgerAdapter) Asset() types.Asset {
	return a.asset
}

// Spender is the principal holders must approve before a pull
func (a *LedgerAdapter) Spender() string {
	return a.spender
}

// Pull spends the allowance first so concurrent pulls by the same holder are
// serialized on it, then debits the holder. A refusal rolls both back.
func (a *LedgerAdapter) Pull(ctx context.Context, from, to string, amount decimal.Decimal) (bool, error) {
	if err := types.ValidateBaseUnits("amount", amount); err != nil {
		return false, err
	}
	if from == "" || to == "" {
		return false, ierr.NewError("transfer accounts are required").
			WithHint("Both the payer and the recipient must be known").
			Mark(ierr.ErrValidation)
	}

	err := a.client.WithTx(ctx, func(ctx context.Context) error {
		spent, err := a.ledger.SpendAllowance(ctx, a.asset.Symbol, from, a.spender, amount)
		if err != nil {
			return err
		}
		if !spent {
			a.logger.Debugw("pull rejected, allowance too low",
				"asset", a.asset.Symbol,
				"from", from,
				"amount", amount,
			)
			return errPullRefused
		}

		if err := a.ledger.AddBalance(ctx, a.asset.Symbol, from, amount.Neg()); err != nil {
			if ierr.IsInvalidOperation(err) {
				a.logger.Debugw("pull rejected, balance too low",
					"asset", a.asset.Symbol,
					"from", from,
					"amount", amount,
				)
				return errPullRefused
			}
			return err
		}
		return a.ledger.AddBalance(ctx, a.asset.Symbol, to, amount)
	})
	if errors.Is(err, errPullRefused) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	a.logger.Debugw("pulled funds",
		"asset", a.asset.Symbol,
		"from", from,
		"to", to,
		"amount", amount,
	)
	return true, nil
}
