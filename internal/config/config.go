// Package config loads indexer configuration from a YAML file and
// environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all indexer settings. Every field can come from the config
// file or from an INDEXER_-prefixed environment variable.
type Config struct {
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"`

	ExplorerURL    string `mapstructure:"explorer_url"`
	ExplorerAPIKey string `mapstructure:"explorer_api_key"`

	PriceFeedURL    string `mapstructure:"price_feed_url"`
	PriceFeedWSURL  string `mapstructure:"price_feed_ws_url"`
	PriceFeedAPIKey string `mapstructure:"price_feed_api_key"`

	// FilterAddress is the bridge precompile whose token transfers are
	// ingested.
	FilterAddress string `mapstructure:"filter_address"`

	// BaseAsset is the symbol priced for non-stable, non-skipped tokens.
	BaseAsset string `mapstructure:"base_asset"`

	GenesisBlock int64 `mapstructure:"genesis_block"`
	ChunkSize    int   `mapstructure:"chunk_size"`

	RunInterval time.Duration `mapstructure:"run_interval"`

	MetricsAddr string `mapstructure:"metrics_addr"`
	HTTPAddr    string `mapstructure:"http_addr"`

	// StableSymbols and SkipSymbols override the ticker substring rules
	// for the USD shortcut and the no-series skip list.
	StableSymbols []string `mapstructure:"stable_symbols"`
	SkipSymbols   []string `mapstructure:"skip_symbols"`
}

// Defaults for the tracked bridge deployment.
const (
	DefaultFilterAddress = "0x0000000000000000000000000000000000000816"
	DefaultBaseAsset     = "ETH"
	DefaultGenesisBlock  = 4164120
	DefaultChunkSize     = 250
	DefaultRunInterval   = 15 * time.Minute
)

// Load reads configuration from the given file (optional) and the
// environment. Environment variables use the INDEXER_ prefix with
// underscores, e.g. INDEXER_POSTGRES_DSN.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Empty defaults register the keys so AutomaticEnv can fill them.
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("clickhouse_dsn", "")
	v.SetDefault("explorer_url", "")
	v.SetDefault("explorer_api_key", "")
	v.SetDefault("price_feed_url", "")
	v.SetDefault("price_feed_ws_url", "")
	v.SetDefault("price_feed_api_key", "")

	v.SetDefault("filter_address", DefaultFilterAddress)
	v.SetDefault("base_asset", DefaultBaseAsset)
	v.SetDefault("genesis_block", DefaultGenesisBlock)
	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("run_interval", DefaultRunInterval)
	v.SetDefault("metrics_addr", ":9090")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("stable_symbols", []string{"USDT", "USDC", "DAI"})
	v.SetDefault("skip_symbols", []string{"BTC"})

	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
