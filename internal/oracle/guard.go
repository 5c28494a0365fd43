package oracle

import (
	"context"
	"time"

	domainOracle "github.com/flexprice/invoicer/internal/domain/oracle"
	ierr "github.com/flexprice/invoicer/internal/errors"
)

// MaxClockSkew is how far in the future a rate timestamp may lie before the
// rate is rejected
const MaxClockSkew = 5 * time.Second

// StalenessGuard rejects rates a settlement must not be priced with: failed
// lookups, non positive or fractional values, timestamps beyond MaxClockSkew
// in the future and, when maxStaleness is set, rates older than maxStaleness.
// Every rejection is marked ErrOracleUnavailable.
type StalenessGuard struct {
	feed         domainOracle.PriceFeed
	maxStaleness time.Duration
	now          func() time.Time
}

func NewStalenessGuard(feed domainOracle.PriceFeed, maxStaleness time.Duration) *StalenessGuard {
	return &StalenessGuard{
		feed:         feed,
		maxStaleness: maxStaleness,
		now:          time.Now,
	}
}

func (g *StalenessGuard) CurrentRate(ctx context.Context) (*domainOracle.Rate, error) {
	rate, err := g.feed.CurrentRate(ctx)
	if err != nil {
		if ierr.IsOracleUnavailable(err) {
			return nil, err
		}
		return nil, ierr.WithError(err).
			WithHint("Exchange rate is currently unavailable").
			Mark(ierr.ErrOracleUnavailable)
	}

	if rate == nil || !rate.Value.IsPositive() || !rate.Value.IsInteger() || rate.Decimals < 0 {
		details := map[string]any{}
		if rate != nil {
			details["rate"] = rate.Value.String()
			details["decimals"] = rate.Decimals
		}
		return nil, ierr.NewError("oracle returned an unusable rate").
			WithHint("Exchange rate is currently unavailable").
			WithReportableDetails(details).
			Mark(ierr.ErrOracleUnavailable)
	}

	age := rate.Age(g.now())
	if age < -MaxClockSkew {
		return nil, ierr.NewError("oracle rate is from the future").
			WithHint("Exchange rate is currently unavailable").
			WithReportableDetails(map[string]any{
				"updated_at": rate.UpdatedAt,
				"skew":       (-age).String(),
			}).
			Mark(ierr.ErrOracleUnavailable)
	}

	if g.maxStaleness > 0 {
		if age > g.maxStaleness {
			return nil, ierr.NewError("oracle rate is stale").
				WithHint("Exchange rate is out of date, please retry later").
				WithReportableDetails(map[string]any{
					"updated_at":    rate.UpdatedAt,
					"age":           age.String(),
					"max_staleness": g.maxStaleness.String(),
				}).
				Mark(ierr.ErrOracleUnavailable)
		}
	}

	return rate, nil
}
