package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository stores token balances and allowances. Reads of unknown accounts
// return zero. Mutations join the transaction carried by ctx, if any.
type Repository interface {
	GetBalance(ctx context.Context, asset, account string) (decimal.Decimal, error)
	GetAllowance(ctx context.Context, asset, holder, spender string) (decimal.Decimal, error)

	// AddBalance adds delta (which may be negative) to the account balance.
	// It fails instead of letting the balance go below zero.
	AddBalance(ctx context.Context, asset, account string, delta decimal.Decimal) error

	// SetAllowance overwrites the allowance holder granted to spender
	SetAllowance(ctx context.Context, asset, holder, spender string, amount decimal.Decimal) error

	// SpendAllowance decrements the allowance by amount in one conditional
	// step and reports false, leaving it untouched, when it does not cover
	// amount. Concurrent spends of the same allowance never overdraw it.
	SpendAllowance(ctx context.Context, asset, holder, spender string, amount decimal.Decimal) (bool, error)
}
