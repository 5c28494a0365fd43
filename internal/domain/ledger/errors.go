package ledger

import (
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/shopspring/decimal"
)

// NewInsufficientBalanceError reports a debit larger than the account balance
func NewInsufficientBalanceError(asset, account string, balance, delta decimal.Decimal) error {
	return ierr.NewError("insufficient balance").
		WithHintf("Insufficient %s balance", asset).
		WithReportableDetails(map[string]any{
			"asset":   asset,
			"account": account,
			"balance": balance.String(),
			"debit":   delta.Neg().String(),
		}).
		Mark(ierr.ErrInvalidOperation)
}
