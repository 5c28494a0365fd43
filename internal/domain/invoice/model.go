package invoice

import (
	"context"
	"time"

	"github.com/flexprice/invoicer/internal/types"
	"github.com/shopspring/decimal"
)

// Invoice is an outstanding amount owed to the owner, keyed by a caller supplied ID.
// Amount is in the stable asset's smallest unit and is strictly positive while
// the invoice exists.
type Invoice struct {
	ID        uint64          `db:"id" json:"id"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	CreatedBy string          `db:"created_by" json:"created_by"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// New builds an invoice stamped with the calling principal
func New(ctx context.Context, id uint64, amount decimal.Decimal) *Invoice {
	return &Invoice{
		ID:        id,
		Amount:    amount,
		CreatedBy: types.GetUserID(ctx),
		CreatedAt: time.Now().UTC(),
	}
}

func (i *Invoice) Validate() error {
	return types.ValidateBaseUnits("amount", i.Amount)
}

// IsOpen reports whether the invoice still has an outstanding amount
func (i *Invoice) IsOpen() bool {
	return i != nil && i.Amount.IsPositive()
}
