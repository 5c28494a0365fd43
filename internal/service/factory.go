package service

import (
	"context"

	"github.com/flexprice/invoicer/internal/config"
	"github.com/flexprice/invoicer/internal/domain/asset"
	"github.com/flexprice/invoicer/internal/domain/invoice"
	"github.com/flexprice/invoicer/internal/domain/ledger"
	"github.com/flexprice/invoicer/internal/domain/oracle"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/postgres"
	"github.com/flexprice/invoicer/internal/publisher"
	"github.com/flexprice/invoicer/internal/repository"
	"github.com/flexprice/invoicer/internal/sentry"
	"github.com/flexprice/invoicer/internal/token"
)

// ServiceParams holds common dependencies for services. The adapters and the
// price feed are fixed at construction.
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Locker *InvoiceLocker

	// Repositories
	InvoiceRepo invoice.Repository
	LedgerRepo  ledger.Repository

	// Collaborators
	StableAdapter   asset.Adapter
	VolatileAdapter asset.Adapter
	PriceFeed       oracle.PriceFeed

	// Publishers
	EventPublisher publisher.EventPublisher

	Sentry *sentry.Service
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	storage *repository.Storage,
	priceFeed oracle.PriceFeed,
	eventPublisher publisher.EventPublisher,
	sentryService *sentry.Service,
) ServiceParams {
	db := postgres.NewSentryClient(storage.Client, sentryService, logger)
	spender := config.Settlement.Spender

	return ServiceParams{
		Logger:          logger,
		Config:          config,
		DB:              db,
		Locker:          NewInvoiceLocker(),
		InvoiceRepo:     storage.Invoices,
		LedgerRepo:      storage.Ledger,
		StableAdapter:   token.NewLedgerAdapter(config.Settlement.Stable(), spender, storage.Ledger, db, logger),
		VolatileAdapter: token.NewLedgerAdapter(config.Settlement.Volatile(), spender, storage.Ledger, db, logger),
		PriceFeed:       priceFeed,
		EventPublisher:  eventPublisher,
		Sentry:          sentryService,
	}
}

// publishEvent publishes after the fact; a failed publish never undoes the
// state change it describes.
func (p ServiceParams) publishEvent(ctx context.Context, eventName string, payload interface{}) {
	if p.EventPublisher == nil {
		return
	}
	if err := p.EventPublisher.Publish(ctx, eventName, payload); err != nil {
		p.Logger.Errorw("failed to publish event",
			"event_name", eventName,
			"error", err,
		)
	}
}
