// Package config resolves the batch engine's runtime configuration with
// increasing precedence: built-in defaults, a ".env" file, the process
// environment, and finally command-line flags.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config holds everything cmd/batchengine needs to run one invocation.
type Config struct {
	RPCURL           string
	ContractAddress  string
	OrdersCSVPath    string
	UTXOSnapshotPath string
	BatchSize        int
	LogLevel         string
	LogJSON          bool
	LogFile          string
	MetricsAddr      string
}

// Default returns the built-in baseline configuration.
func Default() *Config {
	return &Config{
		RPCURL:           "http://127.0.0.1:8545",
		OrdersCSVPath:    "orders.csv",
		UTXOSnapshotPath: "utxos.json",
		BatchSize:        10,
		LogLevel:         "info",
	}
}

// RegisterFlags defines the flags Load reads from.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("rpc-url", "", "Ethereum-compatible JSON-RPC endpoint URL")
	flags.String("order-book", "", "OrderBook contract address")
	flags.String("orders", "", "path to the new-orders CSV file")
	flags.String("utxo-file", "", "path to the UTXO snapshot JSON file")
	flags.Int("batch-size", 0, "maximum number of new orders to ingest per batch")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.Bool("log-json", false, "emit logs as JSON")
	flags.String("log-file", "", "also write logs to this file")
	flags.String("metrics-addr", "", "address to serve Prometheus metrics on, e.g. :9090")
}

// Load resolves configuration with precedence: defaults -> .env file ->
// process environment -> command-line flags (highest).
func Load(flags *pflag.FlagSet) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	applyEnv(cfg)
	applyFlags(cfg, flags)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("RPC_URL"); v != "" {
		cfg.RPCURL = v
	}
	if v := os.Getenv("ORDER_BOOK_ADDRESS"); v != "" {
		cfg.ContractAddress = v
	}
	if v := os.Getenv("ORDERS"); v != "" {
		cfg.OrdersCSVPath = v
	}
	if v := os.Getenv("UTXO_FILE"); v != "" {
		cfg.UTXOSnapshotPath = v
	}
	if v := os.Getenv("BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BatchSize = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_JSON"); v != "" {
		cfg.LogJSON = v == "1" || v == "true"
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
}

func applyFlags(cfg *Config, flags *pflag.FlagSet) {
	if flags == nil {
		return
	}
	if flags.Changed("rpc-url") {
		cfg.RPCURL, _ = flags.GetString("rpc-url")
	}
	if flags.Changed("order-book") {
		cfg.ContractAddress, _ = flags.GetString("order-book")
	}
	if flags.Changed("orders") {
		cfg.OrdersCSVPath, _ = flags.GetString("orders")
	}
	if flags.Changed("utxo-file") {
		cfg.UTXOSnapshotPath, _ = flags.GetString("utxo-file")
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize, _ = flags.GetInt("batch-size")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-json") {
		cfg.LogJSON, _ = flags.GetBool("log-json")
	}
	if flags.Changed("log-file") {
		cfg.LogFile, _ = flags.GetString("log-file")
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}
}

// Validate checks that the resolved configuration is usable.
func Validate(cfg *Config) error {
	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required (set --rpc-url, RPC_URL, or a .env entry)")
	}
	if cfg.ContractAddress == "" {
		return fmt.Errorf("order book contract address is required (set --order-book, ORDER_BOOK_ADDRESS, or a .env entry)")
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", cfg.BatchSize)
	}
	return nil
}
