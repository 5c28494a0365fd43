package types

import (
	"strings"

	ierr "github.com/flexprice/invoicer/internal/errors"
)

// AssetKind distinguishes the settlement currency from the oracle priced asset
type AssetKind string

const (
	AssetKindStable   AssetKind = "stable"
	AssetKindVolatile AssetKind = "volatile"
)

func (k AssetKind) Validate() error {
	switch k {
	case AssetKindStable, AssetKindVolatile:
		return nil
	}
	return ierr.NewError("invalid asset kind").
		WithHintf("Asset kind must be one of %s or %s", AssetKindStable, AssetKindVolatile).
		Mark(ierr.ErrValidation)
}

// Asset describes a supported token. Amounts of an asset are always expressed
// as integers in its smallest unit, i.e. scaled by 10^Decimals.
type Asset struct {
	Symbol   string    `json:"symbol"`
	Kind     AssetKind `json:"kind"`
	Decimals int32     `json:"decimals"`
}

func (a Asset) Validate() error {
	if strings.TrimSpace(a.Symbol) == "" {
		return ierr.NewError("asset symbol is required").
			WithHint("Asset symbol is required").
			Mark(ierr.ErrValidation)
	}
	if a.Decimals < 0 || a.Decimals > 36 {
		return ierr.NewError("invalid asset decimals").
			WithHintf("Decimals for %s must be between 0 and 36", a.Symbol).
			WithReportableDetails(map[string]any{
				"symbol":   a.Symbol,
				"decimals": a.Decimals,
			}).
			Mark(ierr.ErrValidation)
	}
	return a.Kind.Validate()
}

// NormalizeSymbol upper-cases and trims a token symbol for lookups
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
