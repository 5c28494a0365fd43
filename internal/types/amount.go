package types

import (
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/shopspring/decimal"
)

// ValidateBaseUnits checks that v is a strictly positive integer amount
// expressed in an asset's smallest unit.
func ValidateBaseUnits(field string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return ierr.NewError(field + " must be positive").
			WithHintf("%s must be greater than zero", field).
			WithReportableDetails(map[string]any{
				field: v.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	if !v.IsInteger() {
		return ierr.NewError(field + " must be an integer").
			WithHintf("%s must be expressed in the asset's smallest unit", field).
			WithReportableDetails(map[string]any{
				field: v.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ToBaseUnits scales a human readable amount ("2.5") to an integer count of
// smallest units for an asset with the given decimals, rounding down.
func ToBaseUnits(v decimal.Decimal, decimals int32) decimal.Decimal {
	return v.Shift(decimals).Floor()
}

// FromBaseUnits is the inverse of ToBaseUnits
func FromBaseUnits(v decimal.Decimal, decimals int32) decimal.Decimal {
	return v.Shift(-decimals)
}
