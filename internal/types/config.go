package types

type RunMode string

const (
	// ModeLocal runs the API server with in-process dependencies
	ModeLocal RunMode = "local"
	// ModeAPI runs just the API server
	ModeAPI RunMode = "api"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// StorageDriver selects the backing store for invoices and ledger balances
type StorageDriver string

const (
	StorageDriverMemory   StorageDriver = "memory"
	StorageDriverPostgres StorageDriver = "postgres"
)

// OracleProvider selects the price feed implementation
type OracleProvider string

const (
	OracleProviderStatic OracleProvider = "static"
	OracleProviderHTTP   OracleProvider = "http"
)
