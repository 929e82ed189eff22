package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	QueryRPCURL    string
	FundingRPCURL  string
	WSURL          string
	Contract       string
	Operator       string
	OperatorKey    string
	MinBalance     string
	DripAmount     string
	GasPriceWei    string
	GasLimit       uint64
	RPCTimeout     time.Duration
	ReceiptTimeout time.Duration
	Workers        int
	QueueSize      int
	StatusFile     string
	AuditLog       string
	Blacklist      string
	PGDSN          string
	HTTPListen     string
	LogLevel       string
}

// Load merges .env, config file, environment variables, and flags into
// Config. A missing .env is fine; env vars may be set externally.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("DRIP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("gas-price", "2000000000000000")
	v.SetDefault("gas-limit", uint64(3000000))
	v.SetDefault("rpc-timeout", 30*time.Second)
	v.SetDefault("receipt-timeout", 2*time.Minute)
	v.SetDefault("workers", 4)
	v.SetDefault("queue-size", 64)
	v.SetDefault("status-file", "./data/status.json")
	v.SetDefault("audit-log", "./data/audit.log")
	v.SetDefault("blacklist", "./blacklist.json")
	v.SetDefault("http-listen", ":3000")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		QueryRPCURL:    v.GetString("query-rpc"),
		FundingRPCURL:  v.GetString("funding-rpc"),
		WSURL:          v.GetString("ws"),
		Contract:       v.GetString("contract"),
		Operator:       v.GetString("operator"),
		OperatorKey:    v.GetString("operator-key"),
		MinBalance:     v.GetString("min-balance"),
		DripAmount:     v.GetString("drip-amount"),
		GasPriceWei:    v.GetString("gas-price"),
		GasLimit:       v.GetUint64("gas-limit"),
		RPCTimeout:     v.GetDuration("rpc-timeout"),
		ReceiptTimeout: v.GetDuration("receipt-timeout"),
		Workers:        v.GetInt("workers"),
		QueueSize:      v.GetInt("queue-size"),
		StatusFile:     v.GetString("status-file"),
		AuditLog:       v.GetString("audit-log"),
		Blacklist:      v.GetString("blacklist"),
		PGDSN:          v.GetString("pg-dsn"),
		HTTPListen:     v.GetString("http-listen"),
		LogLevel:       v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks the values the core pipeline cannot run without.
func (c Config) Validate() error {
	if c.QueryRPCURL == "" {
		return fmt.Errorf("query rpc url is required")
	}
	if c.FundingRPCURL == "" {
		return fmt.Errorf("funding rpc url is required")
	}
	if c.WSURL == "" {
		return fmt.Errorf("websocket url is required")
	}
	if c.Contract == "" {
		return fmt.Errorf("bridge contract address is required")
	}
	if c.Operator == "" {
		return fmt.Errorf("operator address is required")
	}
	if c.OperatorKey == "" {
		return fmt.Errorf("operator private key is required")
	}
	if c.MinBalance == "" {
		return fmt.Errorf("min balance threshold is required")
	}
	if c.DripAmount == "" {
		return fmt.Errorf("drip amount is required")
	}
	return nil
}
