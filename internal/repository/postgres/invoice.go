package postgres

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/flexprice/invoicer/internal/domain/invoice"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/postgres"
	"github.com/shopspring/decimal"
)

type invoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{db: db, logger: logger}
}

// IDs are bound as text because database/sql rejects uint64 values above
// math.MaxInt64.
func idArg(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func (r *invoiceRepository) Put(ctx context.Context, inv *invoice.Invoice) error {
	query := `
	INSERT INTO invoices (id, amount, created_by, created_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE SET
		amount = EXCLUDED.amount,
		created_by = EXCLUDED.created_by,
		created_at = EXCLUDED.created_at
	`

	r.logger.Debugw("storing invoice", "invoice_id", inv.ID, "amount", inv.Amount)

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		idArg(inv.ID),
		inv.Amount,
		inv.CreatedBy,
		inv.CreatedAt,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to store invoice").
			WithReportableDetails(map[string]interface{}{
				"invoice_id": inv.ID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id uint64) (*invoice.Invoice, error) {
	return r.get(ctx, id, false)
}

func (r *invoiceRepository) GetForUpdate(ctx context.Context, id uint64) (*invoice.Invoice, error) {
	return r.get(ctx, id, true)
}

func (r *invoiceRepository) get(ctx context.Context, id uint64, forUpdate bool) (*invoice.Invoice, error) {
	query := `
	SELECT id, amount, created_by, created_at
	FROM invoices
	WHERE id = $1
	`
	if forUpdate {
		query += "FOR UPDATE"
	}

	var inv invoice.Invoice
	err := r.db.GetQuerier(ctx).GetContext(ctx, &inv, query, idArg(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invoice.NewNotFoundError(id)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get invoice").
			WithReportableDetails(map[string]interface{}{
				"invoice_id": id,
			}).
			Mark(ierr.ErrDatabase)
	}
	return &inv, nil
}

func (r *invoiceRepository) Clear(ctx context.Context, id uint64, expected decimal.Decimal) error {
	query := `DELETE FROM invoices WHERE id = $1 AND amount = $2`

	r.logger.Debugw("clearing invoice", "invoice_id", id, "expected_amount", expected)

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, idArg(id), expected)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to clear invoice").
			WithReportableDetails(map[string]interface{}{
				"invoice_id": id,
			}).
			Mark(ierr.ErrDatabase)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to clear invoice").
			Mark(ierr.ErrDatabase)
	}
	if rows == 0 {
		return invoice.NewNotFoundError(id)
	}
	return nil
}
