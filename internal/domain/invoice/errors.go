package invoice

import (
	"fmt"

	ierr "github.com/flexprice/invoicer/internal/errors"
)

// NewNotFoundError is returned whenever an operation targets an absent invoice
func NewNotFoundError(id uint64) error {
	return ierr.NewError("invoice not found").
		WithHint(fmt.Sprintf("Invoice %d does not exist or has already been paid", id)).
		WithReportableDetails(map[string]any{
			"invoice_id": id,
		}).
		Mark(ierr.ErrNotFound)
}
