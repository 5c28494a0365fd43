package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/invoicer/internal/domain/asset"
	"github.com/flexprice/invoicer/internal/domain/oracle"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/shopspring/decimal"
)

// FixedPriceFeed reports a preset rate, or a preset error
type FixedPriceFeed struct {
	mu    sync.Mutex
	rate  oracle.Rate
	err   error
	calls int
}

var _ oracle.PriceFeed = (*FixedPriceFeed)(nil)

// NewFixedPriceFeed creates a feed reporting value (already scaled by decimals)
func NewFixedPriceFeed(value decimal.Decimal, decimals int32) *FixedPriceFeed {
	return &FixedPriceFeed{
		rate: oracle.Rate{
			Value:    value,
			Decimals: decimals,
			Source:   "fixture",
		},
	}
}

func (f *FixedPriceFeed) CurrentRate(_ context.Context) (*oracle.Rate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	rate := f.rate
	if rate.UpdatedAt.IsZero() {
		rate.UpdatedAt = time.Now().UTC()
	}
	return &rate, nil
}

// SetRate changes the reported rate
func (f *FixedPriceFeed) SetRate(value decimal.Decimal, decimals int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rate.Value = value
	f.rate.Decimals = decimals
	f.err = nil
}

// SetUpdatedAt pins the reported update time
func (f *FixedPriceFeed) SetUpdatedAt(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rate.UpdatedAt = t
}

// Fail makes every following call return err
func (f *FixedPriceFeed) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Calls returns how many times the feed was queried
func (f *FixedPriceFeed) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// PullCall records one Pull invocation
type PullCall struct {
	From   string
	To     string
	Amount decimal.Decimal
}

// ScriptedAdapter is an asset adapter returning a preset outcome
type ScriptedAdapter struct {
	mu    sync.Mutex
	asset types.Asset
	ok    bool
	err   error
	pulls []PullCall
}

var _ asset.Adapter = (*ScriptedAdapter)(nil)

func NewScriptedAdapter(a types.Asset, ok bool, err error) *ScriptedAdapter {
	return &ScriptedAdapter{asset: a, ok: ok, err: err}
}

func (a *ScriptedAdapter) Asset() types.Asset {
	return a.asset
}

func (a *ScriptedAdapter) Pull(_ context.Context, from, to string, amount decimal.Decimal) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pulls = append(a.pulls, PullCall{From: from, To: to, Amount: amount})
	return a.ok, a.err
}

// Pulls returns every recorded Pull invocation
func (a *ScriptedAdapter) Pulls() []PullCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]PullCall(nil), a.pulls...)
}
