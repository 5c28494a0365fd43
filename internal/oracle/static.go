package oracle

import (
	"context"
	"time"

	domainOracle "github.com/flexprice/invoicer/internal/domain/oracle"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/shopspring/decimal"
)

const SourceStatic = "static"

// StaticFeed always reports the configured price, stamped with the current time
type StaticFeed struct {
	value    decimal.Decimal
	decimals int32
	now      func() time.Time
}

// NewStaticFeed parses a human readable price ("400") into a rate scaled by decimals
func NewStaticFeed(price string, decimals int32) (*StaticFeed, error) {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Invalid static oracle price %q", price).
			Mark(ierr.ErrValidation)
	}

	value := types.ToBaseUnits(p, decimals)
	if !value.IsPositive() {
		return nil, ierr.NewError("static oracle price must be positive").
			WithHintf("Static oracle price %q rounds to zero at %d decimals", price, decimals).
			Mark(ierr.ErrValidation)
	}

	return &StaticFeed{
		value:    value,
		decimals: decimals,
		now:      time.Now,
	}, nil
}

func (f *StaticFeed) CurrentRate(_ context.Context) (*domainOracle.Rate, error) {
	return &domainOracle.Rate{
		Value:     f.value,
		Decimals:  f.decimals,
		UpdatedAt: f.now().UTC(),
		Source:    SourceStatic,
	}, nil
}
