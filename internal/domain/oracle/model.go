package oracle

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rate is the price of one volatile unit in stable units, as an integer
// scaled by 10^Decimals.
type Rate struct {
	Value     decimal.Decimal `json:"value"`
	Decimals  int32           `json:"decimals"`
	UpdatedAt time.Time       `json:"updated_at"`
	Source    string          `json:"source"`
}

// Price returns the human readable price
func (r *Rate) Price() decimal.Decimal {
	return r.Value.Shift(-r.Decimals)
}

// Age returns how long ago the rate was reported
func (r *Rate) Age(now time.Time) time.Duration {
	if r.UpdatedAt.IsZero() {
		return 0
	}
	return now.Sub(r.UpdatedAt)
}
