// Package config loads service settings from defaults, an optional TOML file,
// a .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/chris/trade-sphere/pkg/models"
	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"

	// DefaultContractPrincipal is the custody vault when none is configured.
	DefaultContractPrincipal = "0x000000000000000000000000000000000000E5C0"
)

// Config is the complete service configuration.
type Config struct {
	HTTPPort          string   `toml:"http_port"`
	StorageBackend    string   `toml:"storage_backend"`
	LogLevel          string   `toml:"log_level"`
	AdminPrincipal    string   `toml:"admin_principal"`
	ArbiterPrincipal  string   `toml:"arbiter_principal"`
	ContractPrincipal string   `toml:"contract_principal"`
	DynamoDB          DynamoDB `toml:"dynamodb"`
	SQSQueueURL       string   `toml:"sqs_queue_url"`
}

// DynamoDB names the tables of the dynamodb backend.
type DynamoDB struct {
	TradesTable   string `toml:"trades_table"`
	TokensTable   string `toml:"tokens_table"`
	WalletsTable  string `toml:"wallets_table"`
	LedgerTable   string `toml:"ledger_table"`
	CountersTable string `toml:"counters_table"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		HTTPPort:          "8080",
		StorageBackend:    BackendMemory,
		LogLevel:          "info",
		ContractPrincipal: DefaultContractPrincipal,
	}
}

// Load builds the configuration. path may be empty, in which case no TOML file
// is read. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.HTTPPort, "HTTP_PORT")
	setStr(&cfg.StorageBackend, "STORAGE_BACKEND")
	setStr(&cfg.LogLevel, "LOG_LEVEL")
	setStr(&cfg.AdminPrincipal, "ADMIN_PRINCIPAL")
	setStr(&cfg.ArbiterPrincipal, "ARBITER_PRINCIPAL")
	setStr(&cfg.ContractPrincipal, "CONTRACT_PRINCIPAL")
	setStr(&cfg.SQSQueueURL, "SQS_QUEUE_URL")

	setStr(&cfg.DynamoDB.TradesTable, "DYNAMODB_TRADES_TABLE_NAME")
	setStr(&cfg.DynamoDB.TokensTable, "DYNAMODB_TOKENS_TABLE_NAME")
	setStr(&cfg.DynamoDB.WalletsTable, "DYNAMODB_WALLETS_TABLE_NAME")
	setStr(&cfg.DynamoDB.LedgerTable, "DYNAMODB_LEDGER_TABLE_NAME")
	setStr(&cfg.DynamoDB.CountersTable, "DYNAMODB_COUNTERS_TABLE_NAME")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks the configuration and normalises every principal in place.
func (c *Config) Validate() error {
	var errs []error

	for _, p := range []struct {
		name string
		dst  *string
	}{
		{"admin_principal", &c.AdminPrincipal},
		{"arbiter_principal", &c.ArbiterPrincipal},
		{"contract_principal", &c.ContractPrincipal},
	} {
		if *p.dst == "" {
			errs = append(errs, fmt.Errorf("%s is required", p.name))
			continue
		}
		normalized, err := models.NormalizePrincipal(*p.dst)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.name, err))
			continue
		}
		*p.dst = normalized
	}
	if c.ContractPrincipal != "" && (c.ContractPrincipal == c.AdminPrincipal || c.ContractPrincipal == c.ArbiterPrincipal) {
		errs = append(errs, errors.New("contract_principal must differ from the admin and arbiter"))
	}

	switch c.StorageBackend {
	case BackendMemory:
	case BackendDynamoDB:
		d := c.DynamoDB
		if d.TradesTable == "" || d.TokensTable == "" || d.WalletsTable == "" || d.LedgerTable == "" || d.CountersTable == "" {
			errs = append(errs, errors.New("one or more DynamoDB table names are not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage_backend %q", c.StorageBackend))
	}

	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(c.LogLevel)))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
