package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flexprice/invoicer/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Auth       AuthConfig
	Storage    StorageConfig    `validate:"required"`
	Postgres   PostgresConfig
	Settlement SettlementConfig `validate:"required"`
	Oracle     OracleConfig     `validate:"required"`
	Sentry     SentryConfig
	Events     EventsConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required"`
}

type ServerConfig struct {
	Address        string        `mapstructure:"address" validate:"required"`
	IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

type AuthConfig struct {
	// Secret signs and verifies HS256 bearer tokens
	Secret string `mapstructure:"secret"`
	// APIKeys maps the sha256 hex of an API key to the account it authenticates as
	APIKeys map[string]string `mapstructure:"api_keys"`
}

type StorageConfig struct {
	Driver types.StorageDriver `mapstructure:"driver" validate:"required,oneof=memory postgres"`
}

type PostgresConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   int    `mapstructure:"port"`
	User                   string `mapstructure:"user"`
	Password               string `mapstructure:"password"`
	DBName                 string `mapstructure:"dbname"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes"`
	AutoMigrate            bool   `mapstructure:"auto_migrate"`
}

// SettlementConfig wires the registry owner and the two supported assets
type SettlementConfig struct {
	// Owner is the only principal allowed to create invoices, and receives every payment
	Owner string `mapstructure:"owner" validate:"required"`
	// Spender is the principal payers approve so the engine can pull funds
	Spender       string      `mapstructure:"spender" validate:"required"`
	StableAsset   AssetConfig `mapstructure:"stable_asset" validate:"required"`
	VolatileAsset AssetConfig `mapstructure:"volatile_asset" validate:"required"`
}

type AssetConfig struct {
	Symbol   string `mapstructure:"symbol" validate:"required"`
	Decimals int32  `mapstructure:"decimals" validate:"gte=0,lte=36"`
}

type OracleConfig struct {
	Provider types.OracleProvider `mapstructure:"provider" validate:"required,oneof=static http"`
	// Decimals is the precision the oracle reports rates in
	Decimals int32 `mapstructure:"decimals" validate:"gte=0,lte=36"`
	// MaxStaleness rejects rates older than this; zero disables the check
	MaxStaleness time.Duration      `mapstructure:"max_staleness"`
	Static       StaticOracleConfig `mapstructure:"static"`
	HTTP         HTTPOracleConfig   `mapstructure:"http"`
}

type StaticOracleConfig struct {
	// Price of one volatile unit in stable units, human readable ("400")
	Price string `mapstructure:"price"`
}

type HTTPOracleConfig struct {
	URL               string            `mapstructure:"url"`
	Headers           map[string]string `mapstructure:"headers"`
	PricePath         string            `mapstructure:"price_path"`
	UpdatedAtPath     string            `mapstructure:"updated_at_path"`
	Timeout           time.Duration     `mapstructure:"timeout"`
	RetryMax          int               `mapstructure:"retry_max"`
	RequestsPerSecond float64           `mapstructure:"requests_per_second"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type EventsConfig struct {
	Topic string `mapstructure:"topic"`
}

func NewConfig() (*Configuration, error) {
	// .env is optional and only used for local development
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/invoicer")

	v.SetEnvPrefix("INVOICER")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	def := GetDefaultConfig()
	v.SetDefault("deployment.mode", def.Deployment.Mode)
	v.SetDefault("server.address", def.Server.Address)
	v.SetDefault("server.idempotency_ttl", def.Server.IdempotencyTTL)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("storage.driver", def.Storage.Driver)
	v.SetDefault("postgres.port", def.Postgres.Port)
	v.SetDefault("postgres.sslmode", def.Postgres.SSLMode)
	v.SetDefault("postgres.max_open_conns", def.Postgres.MaxOpenConns)
	v.SetDefault("postgres.max_idle_conns", def.Postgres.MaxIdleConns)
	v.SetDefault("postgres.conn_max_lifetime_minutes", def.Postgres.ConnMaxLifetimeMinutes)
	v.SetDefault("settlement.owner", def.Settlement.Owner)
	v.SetDefault("settlement.spender", def.Settlement.Spender)
	v.SetDefault("settlement.stable_asset.symbol", def.Settlement.StableAsset.Symbol)
	v.SetDefault("settlement.stable_asset.decimals", def.Settlement.StableAsset.Decimals)
	v.SetDefault("settlement.volatile_asset.symbol", def.Settlement.VolatileAsset.Symbol)
	v.SetDefault("settlement.volatile_asset.decimals", def.Settlement.VolatileAsset.Decimals)
	v.SetDefault("oracle.provider", def.Oracle.Provider)
	v.SetDefault("oracle.decimals", def.Oracle.Decimals)
	v.SetDefault("oracle.static.price", def.Oracle.Static.Price)
	v.SetDefault("oracle.http.timeout", def.Oracle.HTTP.Timeout)
	v.SetDefault("oracle.http.retry_max", def.Oracle.HTTP.RetryMax)
	v.SetDefault("oracle.http.price_path", def.Oracle.HTTP.PricePath)
	v.SetDefault("events.topic", def.Events.Topic)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if types.NormalizeSymbol(c.Settlement.StableAsset.Symbol) == types.NormalizeSymbol(c.Settlement.VolatileAsset.Symbol) {
		return fmt.Errorf("stable and volatile assets must use different symbols")
	}
	if c.Settlement.Owner == c.Settlement.Spender {
		return fmt.Errorf("settlement spender must differ from the owner")
	}
	if c.Storage.Driver == types.StorageDriverPostgres && c.Postgres.Host == "" {
		return fmt.Errorf("postgres.host is required when storage.driver is postgres")
	}
	if c.Oracle.Provider == types.OracleProviderHTTP && c.Oracle.HTTP.URL == "" {
		return fmt.Errorf("oracle.http.url is required when oracle.provider is http")
	}
	return nil
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or tests
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server: ServerConfig{
			Address:        ":8080",
			IdempotencyTTL: 24 * time.Hour,
		},
		Logging: LoggingConfig{Level: types.LogLevelDebug},
		Storage: StorageConfig{Driver: types.StorageDriverMemory},
		Postgres: PostgresConfig{
			Port:                   5432,
			SSLMode:                "disable",
			MaxOpenConns:           10,
			MaxIdleConns:           5,
			ConnMaxLifetimeMinutes: 30,
		},
		Settlement: SettlementConfig{
			Owner:   "merchant",
			Spender: "invoicer",
			StableAsset: AssetConfig{
				Symbol:   "USDC",
				Decimals: 6,
			},
			VolatileAsset: AssetConfig{
				Symbol:   "WETH",
				Decimals: 18,
			},
		},
		Oracle: OracleConfig{
			Provider: types.OracleProviderStatic,
			Decimals: 8,
			Static:   StaticOracleConfig{Price: "400"},
			HTTP: HTTPOracleConfig{
				Timeout:   5 * time.Second,
				RetryMax:  2,
				PricePath: "price",
			},
		},
		Events: EventsConfig{Topic: "invoicer.events"},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}

// Stable returns the configured settlement asset
func (c SettlementConfig) Stable() types.Asset {
	return types.Asset{
		Symbol:   types.NormalizeSymbol(c.StableAsset.Symbol),
		Kind:     types.AssetKindStable,
		Decimals: c.StableAsset.Decimals,
	}
}

// Volatile returns the configured oracle priced asset
func (c SettlementConfig) Volatile() types.Asset {
	return types.Asset{
		Symbol:   types.NormalizeSymbol(c.VolatileAsset.Symbol),
		Kind:     types.AssetKindVolatile,
		Decimals: c.VolatileAsset.Decimals,
	}
}
