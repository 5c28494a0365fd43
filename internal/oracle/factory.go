package oracle

import (
	"github.com/flexprice/invoicer/internal/config"
	domainOracle "github.com/flexprice/invoicer/internal/domain/oracle"
	"github.com/flexprice/invoicer/internal/httpclient"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/types"
)

// NewPriceFeed builds the configured provider behind a StalenessGuard
func NewPriceFeed(cfg *config.Configuration, log *logger.Logger) (domainOracle.PriceFeed, error) {
	var feed domainOracle.PriceFeed

	switch cfg.Oracle.Provider {
	case types.OracleProviderHTTP:
		client := httpclient.NewDefaultClient(httpclient.ClientConfig{
			Timeout:           cfg.Oracle.HTTP.Timeout,
			RetryMax:          cfg.Oracle.HTTP.RetryMax,
			RequestsPerSecond: cfg.Oracle.HTTP.RequestsPerSecond,
		}, log)
		feed = NewHTTPFeed(client, cfg.Oracle)
	default:
		static, err := NewStaticFeed(cfg.Oracle.Static.Price, cfg.Oracle.Decimals)
		if err != nil {
			return nil, err
		}
		feed = static
	}

	log.Infow("price feed configured",
		"provider", cfg.Oracle.Provider,
		"decimals", cfg.Oracle.Decimals,
		"max_staleness", cfg.Oracle.MaxStaleness,
	)

	return NewStalenessGuard(feed, cfg.Oracle.MaxStaleness), nil
}
