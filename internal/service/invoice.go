package service

import (
	"context"

	"github.com/flexprice/invoicer/internal/domain/invoice"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/metrics"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/shopspring/decimal"
)

// InvoiceService is the invoice registry. Only the configured owner may
// create invoices; reads are open to everyone and never fail.
type InvoiceService interface {
	// Create stores an invoice, overwriting any open invoice with the same ID
	Create(ctx context.Context, id uint64, amount decimal.Decimal) (*invoice.Invoice, error)

	// Exists reports whether an open invoice is stored under id
	Exists(ctx context.Context, id uint64) bool

	// Get returns the open amount of the invoice, zero when there is none
	Get(ctx context.Context, id uint64) decimal.Decimal
}

type invoiceService struct {
	ServiceParams
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{
		ServiceParams: params,
	}
}

func (s *invoiceService) Create(ctx context.Context, id uint64, amount decimal.Decimal) (*invoice.Invoice, error) {
	caller := types.GetUserID(ctx)
	if caller != s.Config.Settlement.Owner {
		return nil, ierr.NewError("caller is not the owner").
			WithHint("Only the invoice owner can create invoices").
			WithReportableDetails(map[string]any{
				"caller": caller,
			}).
			Mark(ierr.ErrPermissionDenied)
	}

	inv := invoice.New(ctx, id, amount)
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	unlock := s.Locker.Lock(id)
	defer unlock()

	if err := s.InvoiceRepo.Put(ctx, inv); err != nil {
		return nil, err
	}

	s.Logger.Infow("invoice created",
		"invoice_id", inv.ID,
		"amount", inv.Amount,
		"created_by", inv.CreatedBy,
	)
	metrics.RecordInvoiceCreated()
	s.publishEvent(ctx, types.EventInvoiceCreated, inv)

	return inv, nil
}

func (s *invoiceService) Exists(ctx context.Context, id uint64) bool {
	inv := s.lookup(ctx, id)
	return inv.IsOpen()
}

func (s *invoiceService) Get(ctx context.Context, id uint64) decimal.Decimal {
	inv := s.lookup(ctx, id)
	if !inv.IsOpen() {
		return decimal.Zero
	}
	return inv.Amount
}

// lookup treats storage failures as absence so reads stay infallible
func (s *invoiceService) lookup(ctx context.Context, id uint64) *invoice.Invoice {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		if !ierr.IsNotFound(err) {
			s.Logger.Errorw("failed to read invoice", "invoice_id", id, "error", err)
			s.Sentry.CaptureException(err)
		}
		return nil
	}
	return inv
}
