package types

import (
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/shopspring/decimal"
)

// ConvertAmount converts an amount of the stable asset into the volatile asset.
//
// amount is in stable base units (10^stableDecimals per unit) and rate is the
// price of one volatile unit in stable units, scaled by 10^rateDecimals. The
// result is in volatile base units (10^volatileDecimals per unit):
//
//	amount * 10^volatileDecimals * 10^rateDecimals / (rate * 10^stableDecimals)
//
// All scaling happens before the single integer division and the quotient is
// rounded down, so the payer is never charged less than the invoice is worth
// by more than one base unit.
func ConvertAmount(amount, rate decimal.Decimal, rateDecimals, stableDecimals, volatileDecimals int32) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, ierr.NewError("rate must be positive").
			WithHint("Exchange rate must be greater than zero").
			WithReportableDetails(map[string]any{
				"rate": rate.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	if rateDecimals < 0 || stableDecimals < 0 || volatileDecimals < 0 {
		return decimal.Zero, ierr.NewError("decimals must be non negative").
			WithHint("Asset and oracle decimals must not be negative").
			WithReportableDetails(map[string]any{
				"rate_decimals":     rateDecimals,
				"stable_decimals":   stableDecimals,
				"volatile_decimals": volatileDecimals,
			}).
			Mark(ierr.ErrValidation)
	}
	if amount.IsNegative() {
		return decimal.Zero, ierr.NewError("amount must not be negative").
			WithHint("Amount must not be negative").
			Mark(ierr.ErrValidation)
	}

	numerator := amount.Shift(volatileDecimals + rateDecimals)
	denominator := rate.Shift(stableDecimals)

	quotient, _ := numerator.QuoRem(denominator, 0)
	return quotient, nil
}
