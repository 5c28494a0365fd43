package oracle

import (
	"context"
	"net/http"
	"time"

	"github.com/flexprice/invoicer/internal/config"
	domainOracle "github.com/flexprice/invoicer/internal/domain/oracle"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/httpclient"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const SourceHTTP = "http"

// HTTPFeed reads the current price from a JSON endpoint. The price and the
// optional update time are extracted with gjson paths, so any feed that
// returns JSON can be plugged in through configuration.
type HTTPFeed struct {
	client        httpclient.Client
	url           string
	headers       map[string]string
	pricePath     string
	updatedAtPath string
	decimals      int32
}

func NewHTTPFeed(client httpclient.Client, cfg config.OracleConfig) *HTTPFeed {
	return &HTTPFeed{
		client:        client,
		url:           cfg.HTTP.URL,
		headers:       cfg.HTTP.Headers,
		pricePath:     cfg.HTTP.PricePath,
		updatedAtPath: cfg.HTTP.UpdatedAtPath,
		decimals:      cfg.Decimals,
	}
}

func (f *HTTPFeed) CurrentRate(ctx context.Context) (*domainOracle.Rate, error) {
	resp, err := f.client.Send(ctx, &httpclient.Request{
		Method:  http.MethodGet,
		URL:     f.url,
		Headers: f.headers,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Price feed is unreachable").
			Mark(ierr.ErrOracleUnavailable)
	}

	if !gjson.ValidBytes(resp.Body) {
		return nil, ierr.NewError("price feed returned invalid json").
			WithHint("Price feed returned an unreadable response").
			Mark(ierr.ErrOracleUnavailable)
	}

	price := gjson.GetBytes(resp.Body, f.pricePath)
	if !price.Exists() {
		return nil, ierr.NewError("price missing from feed response").
			WithHintf("Price feed response has no value at %q", f.pricePath).
			Mark(ierr.ErrOracleUnavailable)
	}

	// Raw keeps the exact digits of numeric values, String unquotes strings
	raw := price.Raw
	if price.Type == gjson.String {
		raw = price.String()
	}
	p, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Price feed returned a non numeric price %q", raw).
			Mark(ierr.ErrOracleUnavailable)
	}

	updatedAt := time.Now().UTC()
	if f.updatedAtPath != "" {
		ts := gjson.GetBytes(resp.Body, f.updatedAtPath)
		if !ts.Exists() {
			return nil, ierr.NewError("update time missing from feed response").
				WithHintf("Price feed response has no value at %q", f.updatedAtPath).
				Mark(ierr.ErrOracleUnavailable)
		}
		updatedAt, err = parseTimestamp(ts)
		if err != nil {
			return nil, err
		}
	}

	return &domainOracle.Rate{
		Value:     types.ToBaseUnits(p, f.decimals),
		Decimals:  f.decimals,
		UpdatedAt: updatedAt,
		Source:    SourceHTTP,
	}, nil
}

// parseTimestamp accepts unix seconds, unix milliseconds or RFC 3339 strings
func parseTimestamp(v gjson.Result) (time.Time, error) {
	if v.Type == gjson.Number {
		n := v.Int()
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}

	t, err := time.Parse(time.RFC3339, v.String())
	if err != nil {
		return time.Time{}, ierr.WithError(err).
			WithHintf("Price feed returned an unreadable update time %q", v.String()).
			Mark(ierr.ErrOracleUnavailable)
	}
	return t.UTC(), nil
}
