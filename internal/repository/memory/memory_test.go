package memory

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/flexprice/invoicer/internal/domain/invoice"
	"github.com/flexprice/invoicer/internal/domain/ledger"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type MemoryRepositorySuite struct {
	suite.Suite
	ctx      context.Context
	client   *Client
	invoices invoice.Repository
	ledger   ledger.Repository
}

func TestMemoryRepository(t *testing.T) {
	suite.Run(t, new(MemoryRepositorySuite))
}

func (s *MemoryRepositorySuite) SetupTest() {
	log := logger.NewNopLogger()
	s.ctx = context.Background()
	s.client = NewClient(log)
	s.invoices = NewInvoiceRepository(s.client, log)
	s.ledger = NewLedgerRepository(s.client, log)
}

func (s *MemoryRepositorySuite) put(id uint64, amount int64) {
	s.Require().NoError(s.invoices.Put(s.ctx, &invoice.Invoice{ID: id, Amount: decimal.NewFromInt(amount)}))
}

func (s *MemoryRepositorySuite) balance(asset, account string) decimal.Decimal {
	b, err := s.ledger.GetBalance(s.ctx, asset, account)
	s.Require().NoError(err)
	return b
}

func (s *MemoryRepositorySuite) TestInvoicePutGetClear() {
	_, err := s.invoices.Get(s.ctx, 1)
	s.True(ierr.IsNotFound(err))

	s.put(1, 1000)
	inv, err := s.invoices.Get(s.ctx, 1)
	s.Require().NoError(err)
	s.True(inv.Amount.Equal(decimal.NewFromInt(1000)))

	// overwrite
	s.put(1, 2000)
	inv, err = s.invoices.GetForUpdate(s.ctx, 1)
	s.Require().NoError(err)
	s.True(inv.Amount.Equal(decimal.NewFromInt(2000)))

	s.Require().NoError(s.invoices.Clear(s.ctx, 1, decimal.NewFromInt(2000)))
	_, err = s.invoices.Get(s.ctx, 1)
	s.True(ierr.IsNotFound(err))

	err = s.invoices.Clear(s.ctx, 1, decimal.NewFromInt(2000))
	s.True(ierr.IsNotFound(err))
}

func (s *MemoryRepositorySuite) TestClearRequiresMatchingAmount() {
	s.put(5, 1000)

	err := s.invoices.Clear(s.ctx, 5, decimal.NewFromInt(999))
	s.True(ierr.IsNotFound(err))

	inv, err := s.invoices.Get(s.ctx, 5)
	s.Require().NoError(err)
	s.True(inv.Amount.Equal(decimal.NewFromInt(1000)))
}

func (s *MemoryRepositorySuite) TestLedgerBalances() {
	s.True(s.balance("USDC", "alice").IsZero())

	s.Require().NoError(s.ledger.AddBalance(s.ctx, "USDC", "alice", decimal.NewFromInt(100)))
	s.Require().NoError(s.ledger.AddBalance(s.ctx, "USDC", "alice", decimal.NewFromInt(-40)))
	s.True(s.balance("USDC", "alice").Equal(decimal.NewFromInt(60)))

	err := s.ledger.AddBalance(s.ctx, "USDC", "alice", decimal.NewFromInt(-61))
	s.True(ierr.IsInvalidOperation(err))
	s.True(s.balance("USDC", "alice").Equal(decimal.NewFromInt(60)))

	// assets are tracked separately
	s.True(s.balance("WETH", "alice").IsZero())
}

func (s *MemoryRepositorySuite) TestAllowances() {
	s.Require().NoError(s.ledger.SetAllowance(s.ctx, "USDC", "alice", "engine", decimal.NewFromInt(50)))
	s.Require().NoError(s.ledger.SetAllowance(s.ctx, "USDC", "alice", "engine", decimal.NewFromInt(20)))

	a, err := s.ledger.GetAllowance(s.ctx, "USDC", "alice", "engine")
	s.Require().NoError(err)
	s.True(a.Equal(decimal.NewFromInt(20)))

	a, err = s.ledger.GetAllowance(s.ctx, "USDC", "engine", "alice")
	s.Require().NoError(err)
	s.True(a.IsZero())
}

func (s *MemoryRepositorySuite) TestSpendAllowance() {
	s.Require().NoError(s.ledger.SetAllowance(s.ctx, "WETH", "alice", "engine", decimal.NewFromInt(1000)))

	spent, err := s.ledger.SpendAllowance(s.ctx, "WETH", "alice", "engine", decimal.NewFromInt(600))
	s.Require().NoError(err)
	s.True(spent)

	spent, err = s.ledger.SpendAllowance(s.ctx, "WETH", "alice", "engine", decimal.NewFromInt(600))
	s.Require().NoError(err)
	s.False(spent)

	a, err := s.ledger.GetAllowance(s.ctx, "WETH", "alice", "engine")
	s.Require().NoError(err)
	s.True(a.Equal(decimal.NewFromInt(400)))

	spent, err = s.ledger.SpendAllowance(s.ctx, "WETH", "bob", "engine", decimal.NewFromInt(1))
	s.Require().NoError(err)
	s.False(spent)
}

func (s *MemoryRepositorySuite) TestReadsOutsideTxDoNotSeeUncommittedWrites() {
	s.put(1, 1000)

	started := make(chan struct{})
	type snapshot struct {
		balance decimal.Decimal
		exists  bool
	}
	seen := make(chan snapshot, 1)

	err := s.client.WithTx(s.ctx, func(ctx context.Context) error {
		s.Require().NoError(s.ledger.AddBalance(ctx, "USDC", "alice", decimal.NewFromInt(100)))
		s.Require().NoError(s.invoices.Clear(ctx, 1, decimal.NewFromInt(1000)))

		go func() {
			close(started)
			balance, _ := s.ledger.GetBalance(s.ctx, "USDC", "alice")
			_, err := s.invoices.Get(s.ctx, 1)
			seen <- snapshot{balance: balance, exists: err == nil}
		}()

		<-started
		time.Sleep(20 * time.Millisecond)
		return errors.New("abort")
	})
	s.Error(err)

	got := <-seen
	s.True(got.balance.IsZero())
	s.True(got.exists)
}

func (s *MemoryRepositorySuite) TestWithTxCommits() {
	s.put(1, 1000)

	err := s.client.WithTx(s.ctx, func(ctx context.Context) error {
		if err := s.ledger.AddBalance(ctx, "USDC", "alice", decimal.NewFromInt(1000)); err != nil {
			return err
		}
		return s.invoices.Clear(ctx, 1, decimal.NewFromInt(1000))
	})
	s.Require().NoError(err)

	s.True(s.balance("USDC", "alice").Equal(decimal.NewFromInt(1000)))
	_, err = s.invoices.Get(s.ctx, 1)
	s.True(ierr.IsNotFound(err))
}

func (s *MemoryRepositorySuite) TestWithTxRollsBack() {
	s.put(1, 1000)
	s.Require().NoError(s.ledger.AddBalance(s.ctx, "USDC", "payer", decimal.NewFromInt(1000)))

	boom := errors.New("boom")
	err := s.client.WithTx(s.ctx, func(ctx context.Context) error {
		s.Require().NoError(s.ledger.AddBalance(ctx, "USDC", "payer", decimal.NewFromInt(-1000)))
		s.Require().NoError(s.ledger.AddBalance(ctx, "USDC", "owner", decimal.NewFromInt(1000)))
		s.Require().NoError(s.invoices.Clear(ctx, 1, decimal.NewFromInt(1000)))
		s.Require().NoError(s.invoices.Put(ctx, &invoice.Invoice{ID: 2, Amount: decimal.NewFromInt(5)}))
		return boom
	})
	s.ErrorIs(err, boom)

	s.True(s.balance("USDC", "payer").Equal(decimal.NewFromInt(1000)))
	s.True(s.balance("USDC", "owner").IsZero())

	inv, err := s.invoices.Get(s.ctx, 1)
	s.Require().NoError(err)
	s.True(inv.Amount.Equal(decimal.NewFromInt(1000)))

	_, err = s.invoices.Get(s.ctx, 2)
	s.True(ierr.IsNotFound(err))
}

func (s *MemoryRepositorySuite) TestNestedWithTxBehavesLikeSavepoint() {
	err := s.client.WithTx(s.ctx, func(ctx context.Context) error {
		s.Require().NoError(s.ledger.AddBalance(ctx, "USDC", "alice", decimal.NewFromInt(10)))

		inner := s.client.WithTx(ctx, func(ctx context.Context) error {
			s.Require().NoError(s.ledger.AddBalance(ctx, "USDC", "alice", decimal.NewFromInt(5)))
			return errors.New("inner failure")
		})
		s.Error(inner)

		balance, err := s.ledger.GetBalance(ctx, "USDC", "alice")
		s.Require().NoError(err)
		s.True(balance.Equal(decimal.NewFromInt(10)))
		return nil
	})
	s.Require().NoError(err)
	s.True(s.balance("USDC", "alice").Equal(decimal.NewFromInt(10)))
}

func (s *MemoryRepositorySuite) TestWithTxRollsBackOnPanic() {
	s.Require().NoError(s.ledger.AddBalance(s.ctx, "USDC", "alice", decimal.NewFromInt(10)))

	s.Panics(func() {
		_ = s.client.WithTx(s.ctx, func(ctx context.Context) error {
			s.Require().NoError(s.ledger.AddBalance(ctx, "USDC", "alice", decimal.NewFromInt(-10)))
			panic("unexpected")
		})
	})

	s.True(s.balance("USDC", "alice").Equal(decimal.NewFromInt(10)))

	// the lock was released
	s.Require().NoError(s.client.WithTx(s.ctx, func(ctx context.Context) error { return nil }))
}

func (s *MemoryRepositorySuite) TestFailedMutationInsideTxIsNotJournaled() {
	err := s.client.WithTx(s.ctx, func(ctx context.Context) error {
		s.Require().NoError(s.ledger.AddBalance(ctx, "USDC", "alice", decimal.NewFromInt(10)))
		err := s.ledger.AddBalance(ctx, "USDC", "alice", decimal.NewFromInt(-11))
		s.True(ierr.IsInvalidOperation(err))
		return nil
	})
	s.Require().NoError(err)
	s.True(s.balance("USDC", "alice").Equal(decimal.NewFromInt(10)))
}

func TestStoreMutate(t *testing.T) {
	store := NewStore[int]()

	prev, existed, err := store.Mutate("a", func(cur int, exists bool) (int, bool, error) {
		return cur + 1, true, nil
	})
	if err != nil || existed || prev != 0 {
		t.Fatalf("unexpected first mutate result: prev=%d existed=%v err=%v", prev, existed, err)
	}

	store.restore("a", prev, existed)
	if _, ok := store.Get("a"); ok {
		t.Fatalf("restore should have removed the key")
	}

	store.Mutate("b", func(int, bool) (int, bool, error) { return 2, true, nil })
	store.Mutate("b", func(int, bool) (int, bool, error) { return 0, false, nil })
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d items", store.Len())
	}
}
