package oracle

import "context"

// PriceFeed reports the current exchange rate between the volatile asset and
// the unit of account. Implementations must not cache across calls.
type PriceFeed interface {
	CurrentRate(ctx context.Context) (*Rate, error)
}

// PriceFeedFunc adapts a function to the PriceFeed interface
type PriceFeedFunc func(ctx context.Context) (*Rate, error)

func (f PriceFeedFunc) CurrentRate(ctx context.Context) (*Rate, error) {
	return f(ctx)
}
