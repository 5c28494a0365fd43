package invoice

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository defines the interface for invoice persistence operations
type Repository interface {
	// Put stores the invoice, replacing any existing entry with the same ID
	Put(ctx context.Context, invoice *Invoice) error

	// Get retrieves an invoice by ID, failing with a not found error when absent
	Get(ctx context.Context, id uint64) (*Invoice, error)

	// GetForUpdate is Get with a row lock held until the surrounding transaction ends
	GetForUpdate(ctx context.Context, id uint64) (*Invoice, error)

	// Clear removes the invoice only if its stored amount still equals expected,
	// failing with a not found error otherwise
	Clear(ctx context.Context, id uint64, expected decimal.Decimal) error
}
