package asset

import (
	"context"

	"github.com/flexprice/invoicer/internal/types"
	"github.com/shopspring/decimal"
)

// Adapter moves one supported asset on behalf of payers.
type Adapter interface {
	// Asset describes the token this adapter moves
	Asset() types.Asset

	// Pull transfers amount base units from one account to another, spending an
	// allowance from previously granted to the adapter's spender. It returns
	// false when the transfer is rejected (insufficient balance or allowance);
	// an error means the transfer could not be attempted.
	Pull(ctx context.Context, from, to string, amount decimal.Decimal) (bool, error)
}
