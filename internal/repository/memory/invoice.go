package memory

import (
	"context"
	"strconv"

	"github.com/flexprice/invoicer/internal/domain/invoice"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/shopspring/decimal"
)

type invoiceRepository struct {
	client *Client
	store  *Store[invoice.Invoice]
	log    *logger.Logger
}

// NewInvoiceRepository creates an invoice repository kept in process memory
func NewInvoiceRepository(client *Client, log *logger.Logger) invoice.Repository {
	return &invoiceRepository{
		client: client,
		store:  NewStore[invoice.Invoice](),
		log:    log,
	}
}

func invoiceKey(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func (r *invoiceRepository) Put(ctx context.Context, inv *invoice.Invoice) error {
	r.log.Debugw("storing invoice", "invoice_id", inv.ID, "amount", inv.Amount)

	return mutate(ctx, r.client, r.store, invoiceKey(inv.ID),
		func(_ invoice.Invoice, _ bool) (invoice.Invoice, bool, error) {
			return *inv, true, nil
		})
}

func (r *invoiceRepository) Get(ctx context.Context, id uint64) (*invoice.Invoice, error) {
	inv := view(ctx, r.client, func() *invoice.Invoice {
		inv, ok := r.store.Get(invoiceKey(id))
		if !ok {
			return nil
		}
		return &inv
	})
	if inv == nil {
		return nil, invoice.NewNotFoundError(id)
	}
	return inv, nil
}

// GetForUpdate needs no extra locking: mutations are serialized by the client
func (r *invoiceRepository) GetForUpdate(ctx context.Context, id uint64) (*invoice.Invoice, error) {
	return r.Get(ctx, id)
}

func (r *invoiceRepository) Clear(ctx context.Context, id uint64, expected decimal.Decimal) error {
	r.log.Debugw("clearing invoice", "invoice_id", id, "expected_amount", expected)

	return mutate(ctx, r.client, r.store, invoiceKey(id),
		func(cur invoice.Invoice, exists bool) (invoice.Invoice, bool, error) {
			if !exists || !cur.Amount.Equal(expected) {
				return cur, exists, invoice.NewNotFoundError(id)
			}
			return invoice.Invoice{}, false, nil
		})
}
