package memory

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/flexprice/invoicer/internal/domain/ledger"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/shopspring/decimal"
)

var errAllowanceTooLow = errors.New("allowance too low")

type ledgerRepository struct {
	client     *Client
	balances   *Store[decimal.Decimal]
	allowances *Store[decimal.Decimal]
	log        *logger.Logger
}

// NewLedgerRepository creates a token ledger kept in process memory
func NewLedgerRepository(client *Client, log *logger.Logger) ledger.Repository {
	return &ledgerRepository{
		client:     client,
		balances:   NewStore[decimal.Decimal](),
		allowances: NewStore[decimal.Decimal](),
		log:        log,
	}
}

func balanceKey(asset, account string) string {
	return asset + "/" + account
}

func allowanceKey(asset, holder, spender string) string {
	return asset + "/" + holder + "/" + spender
}

func (r *ledgerRepository) GetBalance(ctx context.Context, asset, account string) (decimal.Decimal, error) {
	balance := view(ctx, r.client, func() decimal.Decimal {
		b, _ := r.balances.Get(balanceKey(asset, account))
		return b
	})
	return balance, nil
}

func (r *ledgerRepository) GetAllowance(ctx context.Context, asset, holder, spender string) (decimal.Decimal, error) {
	allowance := view(ctx, r.client, func() decimal.Decimal {
		a, _ := r.allowances.Get(allowanceKey(asset, holder, spender))
		return a
	})
	return allowance, nil
}

func (r *ledgerRepository) AddBalance(ctx context.Context, asset, account string, delta decimal.Decimal) error {
	r.log.Debugw("adjusting balance", "asset", asset, "account", account, "delta", delta)

	return mutate(ctx, r.client, r.balances, balanceKey(asset, account),
		func(cur decimal.Decimal, exists bool) (decimal.Decimal, bool, error) {
			next := cur.Add(delta)
			if next.IsNegative() {
				return cur, exists, ledger.NewInsufficientBalanceError(asset, account, cur, delta)
			}
			return next, true, nil
		})
}

func (r *ledgerRepository) SetAllowance(ctx context.Context, asset, holder, spender string, amount decimal.Decimal) error {
	r.log.Debugw("setting allowance", "asset", asset, "holder", holder, "spender", spender, "amount", amount)

	return mutate(ctx, r.client, r.allowances, allowanceKey(asset, holder, spender),
		func(_ decimal.Decimal, _ bool) (decimal.Decimal, bool, error) {
			return amount, true, nil
		})
}

func (r *ledgerRepository) SpendAllowance(ctx context.Context, asset, holder, spender string, amount decimal.Decimal) (bool, error) {
	r.log.Debugw("spending allowance", "asset", asset, "holder", holder, "spender", spender, "amount", amount)

	err := mutate(ctx, r.client, r.allowances, allowanceKey(asset, holder, spender),
		func(cur decimal.Decimal, exists bool) (decimal.Decimal, bool, error) {
			if cur.LessThan(amount) {
				return cur, exists, errAllowanceTooLow
			}
			return cur.Sub(amount), true, nil
		})
	if errors.Is(err, errAllowanceTooLow) {
		return false, nil
	}
	return err == nil, err
}
