package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cockroachdb/errors"
	"github.com/flexprice/invoicer/internal/domain/invoice"
	"github.com/flexprice/invoicer/internal/domain/ledger"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/postgres"
	"github.com/flexprice/invoicer/internal/token"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PostgresRepositorySuite struct {
	suite.Suite
	ctx      context.Context
	mock     sqlmock.Sqlmock
	db       *postgres.DB
	invoices invoice.Repository
	ledger   ledger.Repository
}

func TestPostgresRepository(t *testing.T) {
	suite.Run(t, new(PostgresRepositorySuite))
}

func (s *PostgresRepositorySuite) SetupTest() {
	sqlDB, mock, err := sqlmock.New()
	s.Require().NoError(err)

	log := logger.NewNopLogger()
	s.ctx = context.Background()
	s.mock = mock
	s.db = postgres.NewFromSqlx(sqlx.NewDb(sqlDB, "postgres"), log)
	s.invoices = NewInvoiceRepository(s.db, log)
	s.ledger = NewLedgerRepository(s.db, log)
}

func (s *PostgresRepositorySuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

func q(query string) string {
	return regexp.QuoteMeta(query)
}

func (s *PostgresRepositorySuite) TestPutUpserts() {
	inv := &invoice.Invoice{
		ID:        18446744073709551615,
		Amount:    decimal.NewFromInt(1000000000),
		CreatedBy: "merchant",
		CreatedAt: time.Now().UTC(),
	}

	s.mock.ExpectExec(`INSERT INTO invoices .* ON CONFLICT \(id\) DO UPDATE`).
		WithArgs("18446744073709551615", "1000000000", "merchant", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.Require().NoError(s.invoices.Put(s.ctx, inv))
}

func (s *PostgresRepositorySuite) TestPutDatabaseError() {
	s.mock.ExpectExec(`INSERT INTO invoices`).
		WillReturnError(errors.New("connection refused"))

	err := s.invoices.Put(s.ctx, &invoice.Invoice{ID: 1, Amount: decimal.NewFromInt(1)})
	s.True(ierr.IsDatabase(err))
}

func (s *PostgresRepositorySuite) TestGet() {
	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "amount", "created_by", "created_at"}).
		AddRow("7", "1000000000", "merchant", createdAt)

	s.mock.ExpectQuery(`SELECT id, amount, created_by, created_at\s+FROM invoices\s+WHERE id = \$1\s*$`).
		WithArgs("7").
		WillReturnRows(rows)

	inv, err := s.invoices.Get(s.ctx, 7)
	s.Require().NoError(err)
	s.Equal(uint64(7), inv.ID)
	s.True(inv.Amount.Equal(decimal.NewFromInt(1000000000)))
	s.Equal("merchant", inv.CreatedBy)
	s.Equal(createdAt, inv.CreatedAt)
}

func (s *PostgresRepositorySuite) TestGetMissing() {
	s.mock.ExpectQuery(`FROM invoices`).
		WithArgs("8").
		WillReturnError(sql.ErrNoRows)

	_, err := s.invoices.Get(s.ctx, 8)
	s.True(ierr.IsNotFound(err))
	s.False(ierr.IsDatabase(err))
}

func (s *PostgresRepositorySuite) TestGetForUpdateLocksRow() {
	rows := sqlmock.NewRows([]string{"id", "amount", "created_by", "created_at"}).
		AddRow("7", "1000", "merchant", time.Now())

	s.mock.ExpectQuery(`FROM invoices\s+WHERE id = \$1\s+FOR UPDATE`).
		WithArgs("7").
		WillReturnRows(rows)

	_, err := s.invoices.GetForUpdate(s.ctx, 7)
	s.Require().NoError(err)
}

func (s *PostgresRepositorySuite) TestClear() {
	s.mock.ExpectExec(q(`DELETE FROM invoices WHERE id = $1 AND amount = $2`)).
		WithArgs("7", "1000").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.Require().NoError(s.invoices.Clear(s.ctx, 7, decimal.NewFromInt(1000)))
}

func (s *PostgresRepositorySuite) TestClearWithoutMatchIsNotFound() {
	s.mock.ExpectExec(q(`DELETE FROM invoices WHERE id = $1 AND amount = $2`)).
		WithArgs("7", "1000").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.invoices.Clear(s.ctx, 7, decimal.NewFromInt(1000))
	s.True(ierr.IsNotFound(err))
}

func (s *PostgresRepositorySuite) TestGetBalance() {
	s.mock.ExpectQuery(q(`SELECT amount FROM ledger_balances WHERE asset = $1 AND account = $2`)).
		WithArgs("USDC", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"amount"}).AddRow("250"))

	balance, err := s.ledger.GetBalance(s.ctx, "USDC", "alice")
	s.Require().NoError(err)
	s.True(balance.Equal(decimal.NewFromInt(250)))
}

func (s *PostgresRepositorySuite) TestGetBalanceOfUnknownAccountIsZero() {
	s.mock.ExpectQuery(`FROM ledger_balances`).
		WithArgs("USDC", "nobody").
		WillReturnError(sql.ErrNoRows)

	balance, err := s.ledger.GetBalance(s.ctx, "USDC", "nobody")
	s.Require().NoError(err)
	s.True(balance.IsZero())
}

func (s *PostgresRepositorySuite) TestGetAllowance() {
	s.mock.ExpectQuery(q(`SELECT amount FROM ledger_allowances WHERE asset = $1 AND holder = $2 AND spender = $3`)).
		WithArgs("WETH", "alice", "invoicer").
		WillReturnRows(sqlmock.NewRows([]string{"amount"}).AddRow("5"))

	allowance, err := s.ledger.GetAllowance(s.ctx, "WETH", "alice", "invoicer")
	s.Require().NoError(err)
	s.True(allowance.Equal(decimal.NewFromInt(5)))
}

func (s *PostgresRepositorySuite) TestCreditUpserts() {
	s.mock.ExpectExec(`INSERT INTO ledger_balances .* ON CONFLICT \(asset, account\) DO UPDATE`).
		WithArgs("USDC", "merchant", "1000").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.Require().NoError(s.ledger.AddBalance(s.ctx, "USDC", "merchant", decimal.NewFromInt(1000)))
}

func (s *PostgresRepositorySuite) TestDebitIsConditional() {
	s.mock.ExpectExec(`UPDATE ledger_balances\s+SET amount = amount \+ \$3, updated_at = NOW\(\)\s+WHERE asset = \$1 AND account = \$2 AND amount \+ \$3 >= 0`).
		WithArgs("USDC", "alice", "-400").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.Require().NoError(s.ledger.AddBalance(s.ctx, "USDC", "alice", decimal.NewFromInt(-400)))
}

func (s *PostgresRepositorySuite) TestDebitBeyondBalanceFails() {
	s.mock.ExpectExec(`UPDATE ledger_balances`).
		WithArgs("USDC", "alice", "-400").
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery(`SELECT amount FROM ledger_balances`).
		WithArgs("USDC", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"amount"}).AddRow("100"))

	err := s.ledger.AddBalance(s.ctx, "USDC", "alice", decimal.NewFromInt(-400))
	s.True(ierr.IsInvalidOperation(err))
}

func (s *PostgresRepositorySuite) TestSetAllowanceUpserts() {
	s.mock.ExpectExec(`INSERT INTO ledger_allowances .* ON CONFLICT \(asset, holder, spender\) DO UPDATE`).
		WithArgs("USDC", "alice", "invoicer", "0").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.Require().NoError(s.ledger.SetAllowance(s.ctx, "USDC", "alice", "invoicer", decimal.Zero))
}

func (s *PostgresRepositorySuite) TestSpendAllowanceIsConditional() {
	spend := `UPDATE ledger_allowances\s+SET amount = amount - \$4, updated_at = NOW\(\)\s+WHERE asset = \$1 AND holder = \$2 AND spender = \$3 AND amount >= \$4`

	s.mock.ExpectExec(spend).
		WithArgs("WETH", "alice", "invoicer", "600").
		WillReturnResult(sqlmock.NewResult(0, 1))
	spent, err := s.ledger.SpendAllowance(s.ctx, "WETH", "alice", "invoicer", decimal.NewFromInt(600))
	s.Require().NoError(err)
	s.True(spent)

	// the second spend finds 400 left and matches no row
	s.mock.ExpectExec(spend).
		WithArgs("WETH", "alice", "invoicer", "600").
		WillReturnResult(sqlmock.NewResult(0, 0))
	spent, err = s.ledger.SpendAllowance(s.ctx, "WETH", "alice", "invoicer", decimal.NewFromInt(600))
	s.Require().NoError(err)
	s.False(spent)

	s.mock.ExpectExec(spend).
		WillReturnError(errors.New("connection reset"))
	_, err = s.ledger.SpendAllowance(s.ctx, "WETH", "alice", "invoicer", decimal.NewFromInt(1))
	s.True(ierr.IsDatabase(err))
}

func (s *PostgresRepositorySuite) newAdapter() *token.LedgerAdapter {
	return token.NewLedgerAdapter(
		types.Asset{Symbol: "WETH", Kind: types.AssetKindVolatile, Decimals: 18},
		"invoicer", s.ledger, s.db, logger.NewNopLogger(),
	)
}

func (s *PostgresRepositorySuite) TestPullSpendsAllowanceBeforeDebit() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE ledger_allowances .*AND amount >= \$4`).
		WithArgs("WETH", "alice", "invoicer", "600").
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(`UPDATE ledger_balances`).
		WithArgs("WETH", "alice", "-600").
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(`INSERT INTO ledger_balances`).
		WithArgs("WETH", "merchant", "600").
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	ok, err := s.newAdapter().Pull(s.ctx, "alice", "merchant", decimal.NewFromInt(600))
	s.Require().NoError(err)
	s.True(ok)
}

func (s *PostgresRepositorySuite) TestPullRefusedWhenAllowanceSpent() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE ledger_allowances .*AND amount >= \$4`).
		WithArgs("WETH", "alice", "invoicer", "600").
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectRollback()

	ok, err := s.newAdapter().Pull(s.ctx, "alice", "merchant", decimal.NewFromInt(600))
	s.Require().NoError(err)
	s.False(ok)
}

func (s *PostgresRepositorySuite) TestPullRefusedWhenBalanceShortRollsBackAllowance() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE ledger_allowances .*AND amount >= \$4`).
		WithArgs("WETH", "alice", "invoicer", "600").
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(`UPDATE ledger_balances`).
		WithArgs("WETH", "alice", "-600").
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery(`SELECT amount FROM ledger_balances`).
		WithArgs("WETH", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"amount"}).AddRow("100"))
	s.mock.ExpectRollback()

	ok, err := s.newAdapter().Pull(s.ctx, "alice", "merchant", decimal.NewFromInt(600))
	s.Require().NoError(err)
	s.False(ok)
}

func (s *PostgresRepositorySuite) TestSettlementCommitsInOneTransaction() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("7").
		WillReturnRows(sqlmock.NewRows([]string{"id", "amount", "created_by", "created_at"}).
			AddRow("7", "1000", "merchant", time.Now()))
	s.mock.ExpectExec(`UPDATE ledger_balances`).
		WithArgs("USDC", "payer", "-1000").
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(`INSERT INTO ledger_balances`).
		WithArgs("USDC", "merchant", "1000").
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(`DELETE FROM invoices`).
		WithArgs("7", "1000").
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	err := s.db.WithTx(s.ctx, func(ctx context.Context) error {
		inv, err := s.invoices.GetForUpdate(ctx, 7)
		if err != nil {
			return err
		}
		if err := s.ledger.AddBalance(ctx, "USDC", "payer", inv.Amount.Neg()); err != nil {
			return err
		}
		if err := s.ledger.AddBalance(ctx, "USDC", "merchant", inv.Amount); err != nil {
			return err
		}
		return s.invoices.Clear(ctx, inv.ID, inv.Amount)
	})
	s.Require().NoError(err)
}

func (s *PostgresRepositorySuite) TestFailedSettlementRollsBack() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`INSERT INTO ledger_balances`).
		WithArgs("USDC", "merchant", "1000").
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(`DELETE FROM invoices`).
		WithArgs("7", "1000").
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectRollback()

	err := s.db.WithTx(s.ctx, func(ctx context.Context) error {
		if err := s.ledger.AddBalance(ctx, "USDC", "merchant", decimal.NewFromInt(1000)); err != nil {
			return err
		}
		return s.invoices.Clear(ctx, 7, decimal.NewFromInt(1000))
	})
	s.True(ierr.IsNotFound(err))
}

func (s *PostgresRepositorySuite) TestNestedTransactionUsesSavepoint() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(q(`SAVEPOINT sp_1`)).WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectExec(`INSERT INTO ledger_allowances`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(q(`ROLLBACK TO SAVEPOINT sp_1`)).WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectCommit()

	err := s.db.WithTx(s.ctx, func(ctx context.Context) error {
		inner := s.db.WithTx(ctx, func(ctx context.Context) error {
			if err := s.ledger.SetAllowance(ctx, "USDC", "alice", "invoicer", decimal.NewFromInt(1)); err != nil {
				return err
			}
			return errors.New("inner failure")
		})
		s.Error(inner)
		return nil
	})
	s.Require().NoError(err)
}
