package testutil

import (
	"context"
	"time"

	"github.com/flexprice/invoicer/internal/config"
	"github.com/flexprice/invoicer/internal/domain/invoice"
	"github.com/flexprice/invoicer/internal/domain/ledger"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/repository/memory"
	"github.com/flexprice/invoicer/internal/token"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	InvoiceRepo invoice.Repository
	LedgerRepo  ledger.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    Stores
	publisher *InMemoryEventPublisher
	db        *memory.Client
	priceFeed *FixedPriceFeed
	logger    *logger.Logger
	config    *config.Configuration
	now       time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelInfo

	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext(s.config.Settlement.Owner)
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.publisher.Clear()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.db = memory.NewClient(s.logger)
	s.stores = Stores{
		InvoiceRepo: memory.NewInvoiceRepository(s.db, s.logger),
		LedgerRepo:  memory.NewLedgerRepository(s.db, s.logger),
	}
	s.publisher = NewInMemoryEventPublisher()
	// 400 stable units per volatile unit, 8 decimals
	s.priceFeed = NewFixedPriceFeed(decimal.NewFromInt(400).Shift(8), 8)
}

// GetContext returns a context acting as the owner
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetContextAs returns a context acting as caller
func (s *BaseServiceTestSuite) GetContextAs(caller string) context.Context {
	return types.SetUserID(s.ctx, caller)
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetPublisher returns the test event publisher
func (s *BaseServiceTestSuite) GetPublisher() *InMemoryEventPublisher {
	return s.publisher
}

// GetDB returns the in-memory transaction client shared by the stores
func (s *BaseServiceTestSuite) GetDB() *memory.Client {
	return s.db
}

// GetPriceFeed returns the fixture oracle
func (s *BaseServiceTestSuite) GetPriceFeed() *FixedPriceFeed {
	return s.priceFeed
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}

// GetUUID returns a new UUID string
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}

// StableAsset returns the configured stable asset
func (s *BaseServiceTestSuite) StableAsset() types.Asset {
	return s.config.Settlement.Stable()
}

// VolatileAsset returns the configured volatile asset
func (s *BaseServiceTestSuite) VolatileAsset() types.Asset {
	return s.config.Settlement.Volatile()
}

// NewLedgerAdapter returns an adapter moving a through the test stores
func (s *BaseServiceTestSuite) NewLedgerAdapter(a types.Asset) *token.LedgerAdapter {
	return token.NewLedgerAdapter(a, s.config.Settlement.Spender, s.stores.LedgerRepo, s.db, s.logger)
}

// Fund credits account with amount base units of a and lets the settlement
// spender pull all of it
func (s *BaseServiceTestSuite) Fund(a types.Asset, account string, amount decimal.Decimal) {
	ctx := context.Background()
	s.Require().NoError(s.stores.LedgerRepo.AddBalance(ctx, a.Symbol, account, amount))
	s.Require().NoError(s.stores.LedgerRepo.SetAllowance(ctx, a.Symbol, account, s.config.Settlement.Spender, amount))
}

// Balance returns the ledger balance of account
func (s *BaseServiceTestSuite) Balance(a types.Asset, account string) decimal.Decimal {
	balance, err := s.stores.LedgerRepo.GetBalance(context.Background(), a.Symbol, account)
	s.Require().NoError(err)
	return balance
}
