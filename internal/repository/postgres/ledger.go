package postgres

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/flexprice/invoicer/internal/domain/ledger"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/postgres"
	"github.com/shopspring/decimal"
)

type ledgerRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewLedgerRepository(db *postgres.DB, logger *logger.Logger) ledger.Repository {
	return &ledgerRepository{db: db, logger: logger}
}

func (r *ledgerRepository) GetBalance(ctx context.Context, asset, account string) (decimal.Decimal, error) {
	query := `SELECT amount FROM ledger_balances WHERE asset = $1 AND account = $2`

	var amount decimal.Decimal
	err := r.db.GetQuerier(ctx).GetContext(ctx, &amount, query, asset, account)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, ierr.WithError(err).
			WithHint("Failed to get balance").
			WithReportableDetails(map[string]interface{}{
				"asset":   asset,
				"account": account,
			}).
			Mark(ierr.ErrDatabase)
	}
	return amount, nil
}

func (r *ledgerRepository) GetAllowance(ctx context.Context, asset, holder, spender string) (decimal.Decimal, error) {
	query := `SELECT amount FROM ledger_allowances WHERE asset = $1 AND holder = $2 AND spender = $3`

	var amount decimal.Decimal
	err := r.db.GetQuerier(ctx).GetContext(ctx, &amount, query, asset, holder, spender)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, ierr.WithError(err).
			WithHint("Failed to get allowance").
			WithReportableDetails(map[string]interface{}{
				"asset":   asset,
				"holder":  holder,
				"spender": spender,
			}).
			Mark(ierr.ErrDatabase)
	}
	return amount, nil
}

func (r *ledgerRepository) AddBalance(ctx context.Context, asset, account string, delta decimal.Decimal) error {
	r.logger.Debugw("adjusting balance", "asset", asset, "account", account, "delta", delta)

	if !delta.IsNegative() {
		query := `
		INSERT INTO ledger_balances (asset, account, amount, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (asset, account) DO UPDATE SET
			amount = ledger_balances.amount + EXCLUDED.amount,
			updated_at = NOW()
		`
		if _, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, asset, account, delta); err != nil {
			return balanceError(err, asset, account)
		}
		return nil
	}

	// debits only apply when the row exists and stays non-negative
	query := `
	UPDATE ledger_balances
	SET amount = amount + $3, updated_at = NOW()
	WHERE asset = $1 AND account = $2 AND amount + $3 >= 0
	`
	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, asset, account, delta)
	if err != nil {
		return balanceError(err, asset, account)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return balanceError(err, asset, account)
	}
	if rows == 0 {
		balance, err := r.GetBalance(ctx, asset, account)
		if err != nil {
			return err
		}
		return ledger.NewInsufficientBalanceError(asset, account, balance, delta)
	}
	return nil
}

func (r *ledgerRepository) SetAllowance(ctx context.Context, asset, holder, spender string, amount decimal.Decimal) error {
	query := `
	INSERT INTO ledger_allowances (asset, holder, spender, amount, updated_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (asset, holder, spender) DO UPDATE SET
		amount = EXCLUDED.amount,
		updated_at = NOW()
	`

	r.logger.Debugw("setting allowance", "asset", asset, "holder", holder, "spender", spender, "amount", amount)

	if _, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, asset, holder, spender, amount); err != nil {
		return allowanceError(err, asset, holder, spender)
	}
	return nil
}

// SpendAllowance relies on the row lock the UPDATE takes: a concurrent spend
// waits for it and re-checks the condition against the committed amount.
func (r *ledgerRepository) SpendAllowance(ctx context.Context, asset, holder, spender string, amount decimal.Decimal) (bool, error) {
	query := `
	UPDATE ledger_allowances
	SET amount = amount - $4, updated_at = NOW()
	WHERE asset = $1 AND holder = $2 AND spender = $3 AND amount >= $4
	`

	r.logger.Debugw("spending allowance", "asset", asset, "holder", holder, "spender", spender, "amount", amount)

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, asset, holder, spender, amount)
	if err != nil {
		return false, allowanceError(err, asset, holder, spender)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, allowanceError(err, asset, holder, spender)
	}
	return rows > 0, nil
}

func allowanceError(err error, asset, holder, spender string) error {
	return ierr.WithError(err).
		WithHint("Failed to update allowance").
		WithReportableDetails(map[string]interface{}{
			"asset":   asset,
			"holder":  holder,
			"spender": spender,
		}).
		Mark(ierr.ErrDatabase)
}

func balanceError(err error, asset, account string) error {
	return ierr.WithError(err).
		WithHint("Failed to update balance").
		WithReportableDetails(map[string]interface{}{
			"asset":   asset,
			"account": account,
		}).
		Mark(ierr.ErrDatabase)
}
