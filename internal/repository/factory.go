package repository

import (
	"github.com/flexprice/invoicer/internal/config"
	"github.com/flexprice/invoicer/internal/domain/invoice"
	"github.com/flexprice/invoicer/internal/domain/ledger"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/postgres"
	memoryRepo "github.com/flexprice/invoicer/internal/repository/memory"
	postgresRepo "github.com/flexprice/invoicer/internal/repository/postgres"
	"github.com/flexprice/invoicer/internal/types"
)

// Storage bundles the repositories together with the transaction client
// they share, so that a settlement and its ledger movements commit together.
type Storage struct {
	Client   postgres.IClient
	Invoices invoice.Repository
	Ledger   ledger.Repository
	db       *postgres.DB
}

// NewStorage builds the storage selected by storage.driver
func NewStorage(cfg *config.Configuration, logger *logger.Logger) (*Storage, error) {
	switch cfg.Storage.Driver {
	case types.StorageDriverPostgres:
		db, err := postgres.NewDB(cfg, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.AutoMigrate {
			if err := postgres.MigrateUp(db.DB.DB, logger); err != nil {
				db.Close()
				return nil, err
			}
		}
		return NewPostgresStorage(db, logger), nil
	default:
		return NewMemoryStorage(logger), nil
	}
}

func NewPostgresStorage(db *postgres.DB, logger *logger.Logger) *Storage {
	logger.Infow("using postgres storage")
	return &Storage{
		Client:   db,
		Invoices: postgresRepo.NewInvoiceRepository(db, logger),
		Ledger:   postgresRepo.NewLedgerRepository(db, logger),
		db:       db,
	}
}

func NewMemoryStorage(logger *logger.Logger) *Storage {
	logger.Infow("using in-memory storage")
	client := memoryRepo.NewClient(logger)
	return &Storage{
		Client:   client,
		Invoices: memoryRepo.NewInvoiceRepository(client, logger),
		Ledger:   memoryRepo.NewLedgerRepository(client, logger),
	}
}

// Ping reports whether the backing store is reachable
func (s *Storage) Ping() error {
	if s.db == nil {
		return nil
	}
	return s.db.Ping()
}

// Close releases the database connection, if any
func (s *Storage) Close() {
	if s.db != nil {
		s.db.Close()
	}
}
