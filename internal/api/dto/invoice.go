package dto

import (
	"strconv"
	"time"

	"github.com/flexprice/invoicer/internal/domain/invoice"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest registers an amount owed under a caller chosen ID
type CreateInvoiceRequest struct {
	ID     uint64          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
}

func (r *CreateInvoiceRequest) Validate() error {
	return types.ValidateBaseUnits("amount", r.Amount)
}

// InvoiceResponse is the registry view of an invoice. A cleared or never
// created invoice reads as amount 0 with exists false.
type InvoiceResponse struct {
	ID        uint64          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Exists    bool            `json:"exists"`
	CreatedBy string          `json:"created_by,omitempty"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
}

func NewInvoiceResponse(inv *invoice.Invoice) *InvoiceResponse {
	return &InvoiceResponse{
		ID:        inv.ID,
		Amount:    inv.Amount,
		Exists:    inv.IsOpen(),
		CreatedBy: inv.CreatedBy,
		CreatedAt: &inv.CreatedAt,
	}
}

// ExistsResponse answers whether an invoice is outstanding
type ExistsResponse struct {
	ID     uint64 `json:"id"`
	Exists bool   `json:"exists"`
}

// ParseInvoiceID parses the :id path segment
func ParseInvoiceID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Invoice ID must be an unsigned integer").
			WithReportableDetails(map[string]any{
				"id": raw,
			}).
			Mark(ierr.ErrValidation)
	}
	return id, nil
}
