package postgres

import (
	"context"

	"github.com/flexprice/invoicer/internal/logger"
	sentryService "github.com/flexprice/invoicer/internal/sentry"
)

// SentryClient wraps an IClient with Sentry transaction spans
type SentryClient struct {
	client IClient
	sentry *sentryService.Service
	logger *logger.Logger
}

// NewSentryClient creates a new Sentry-instrumented client
func NewSentryClient(client IClient, sentry *sentryService.Service, logger *logger.Logger) IClient {
	if !sentry.Enabled() {
		return client
	}
	return &SentryClient{
		client: client,
		sentry: sentry,
		logger: logger,
	}
}

// WithTx wraps the given function in a transaction with Sentry span tracking
func (c *SentryClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	span, spanCtx := c.sentry.StartDBSpan(ctx, "db.transaction", map[string]interface{}{
		"operation": "transaction",
	})
	if span != nil {
		defer span.Finish()
	}

	return c.client.WithTx(spanCtx, fn)
}
