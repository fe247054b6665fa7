// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Chain     ChainConfig     `mapstructure:"chain"`
	Contracts ContractsConfig `mapstructure:"contracts"`
	Router    RouterConfig    `mapstructure:"router"`
	Oracle    OracleConfig    `mapstructure:"oracle"`
	Store     StoreConfig     `mapstructure:"store"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// ChainConfig holds RPC node configuration. An empty RPCURL runs everything
// against the in-process ledger.
type ChainConfig struct {
	RPCURL            string        `mapstructure:"rpc_url"`
	ChainID           uint64        `mapstructure:"chain_id"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	CallTimeout       time.Duration `mapstructure:"call_timeout"`
	// Clock selects the deadline clock: "system" or "block".
	Clock string `mapstructure:"clock"`
}

// ContractsConfig holds the protocol contract addresses.
type ContractsConfig struct {
	ConditionalTokens string `mapstructure:"conditional_tokens"`
	MarketFactory     string `mapstructure:"market_factory"`
	Router            string `mapstructure:"router"`
	Collateral        string `mapstructure:"collateral"`
	RealityETH        string `mapstructure:"reality_eth"`
	RealityProxy      string `mapstructure:"reality_proxy"`
	Arbitrator        string `mapstructure:"arbitrator"`
	SwaprQuoter       string `mapstructure:"swapr_quoter"`
	UniswapQuoter     string `mapstructure:"uniswap_quoter"`
}

// ConditionalTokensAddress returns the conditional tokens address.
func (c *ContractsConfig) ConditionalTokensAddress() common.Address {
	return common.HexToAddress(c.ConditionalTokens)
}

// MarketFactoryAddress returns the market factory address.
func (c *ContractsConfig) MarketFactoryAddress() common.Address {
	return common.HexToAddress(c.MarketFactory)
}

// RouterAddress returns the router address.
func (c *ContractsConfig) RouterAddress() common.Address {
	return common.HexToAddress(c.Router)
}

// CollateralAddress returns the default collateral token address.
func (c *ContractsConfig) CollateralAddress() common.Address {
	return common.HexToAddress(c.Collateral)
}

// RealityETHAddress returns the Reality.eth v3 address.
func (c *ContractsConfig) RealityETHAddress() common.Address {
	return common.HexToAddress(c.RealityETH)
}

// RealityProxyAddress returns the oracle address that reports payouts.
func (c *ContractsConfig) RealityProxyAddress() common.Address {
	return common.HexToAddress(c.RealityProxy)
}

// ArbitratorAddress returns the arbitrator address used in question ids.
func (c *ContractsConfig) ArbitratorAddress() common.Address {
	return common.HexToAddress(c.Arbitrator)
}

// RouterConfig holds quoting and routing settings.
type RouterConfig struct {
	MaxDepth        int           `mapstructure:"max_depth"`
	DefaultDeadline time.Duration `mapstructure:"default_deadline"`
	SlippageBps     int64         `mapstructure:"slippage_bps"`
	// Quoter selects the AMM collaborator: "simulated", "swapr" or "uniswap".
	Quoter     string  `mapstructure:"quoter"`
	FeeTiers   []int64 `mapstructure:"fee_tiers"`
	PoolFeeBps int64   `mapstructure:"pool_fee_bps"`
}

// OracleConfig holds answer source and caching settings.
type OracleConfig struct {
	// Source is "memory" or "reality".
	Source string `mapstructure:"source"`
	// Cache is "memory" or "redis".
	Cache     string        `mapstructure:"cache"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisDB   int           `mapstructure:"redis_db"`
	Timeout   uint32        `mapstructure:"timeout"`
	MinBond   string        `mapstructure:"min_bond"`
}

// StoreConfig holds the market repository settings.
type StoreConfig struct {
	// Driver is "memory" or "sqlite".
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ServiceName   string `mapstructure:"service_name"`
	TraceExporter string `mapstructure:"trace_exporter"`
	// MetricsExporter is "prometheus", "otlp" or "none".
	MetricsExporter string `mapstructure:"metrics_exporter"`
	OTLPEndpoint    string `mapstructure:"otlp_endpoint"`
	OTLPHeaders     string `mapstructure:"otlp_headers"`
	OTLPProtocol    string `mapstructure:"otlp_protocol"`
	PrometheusPort  int    `mapstructure:"prometheus_port"`
	HealthPort      int    `mapstructure:"health_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("CR")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "CR_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "CR_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "CR_LOG_LEVEL", "LOG_LEVEL")

	// Chain
	v.BindEnv("chain.rpc_url", "CR_RPC_URL", "RPC_URL")
	v.BindEnv("chain.chain_id", "CR_CHAIN_ID")
	v.BindEnv("chain.clock", "CR_CLOCK")

	// Contracts
	v.BindEnv("contracts.conditional_tokens", "CR_CONDITIONAL_TOKENS")
	v.BindEnv("contracts.market_factory", "CR_MARKET_FACTORY")
	v.BindEnv("contracts.router", "CR_ROUTER")
	v.BindEnv("contracts.collateral", "CR_COLLATERAL")
	v.BindEnv("contracts.reality_eth", "CR_REALITY_ETH")
	v.BindEnv("contracts.swapr_quoter", "CR_SWAPR_QUOTER")
	v.BindEnv("contracts.uniswap_quoter", "CR_UNISWAP_QUOTER")

	// Router
	v.BindEnv("router.quoter", "CR_QUOTER")
	v.BindEnv("router.max_depth", "CR_MAX_DEPTH")
	v.BindEnv("router.slippage_bps", "CR_SLIPPAGE_BPS")

	// Oracle
	v.BindEnv("oracle.source", "CR_ORACLE_SOURCE")
	v.BindEnv("oracle.cache", "CR_ORACLE_CACHE")
	v.BindEnv("oracle.redis_addr", "CR_REDIS_ADDR", "REDIS_ADDR")

	// Store
	v.BindEnv("store.driver", "CR_STORE_DRIVER")
	v.BindEnv("store.dsn", "CR_STORE_DSN")

	// Telemetry
	v.BindEnv("telemetry.enabled", "CR_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "CR_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.trace_exporter", "CR_TRACE_EXPORTER")
	v.BindEnv("telemetry.metrics_exporter", "CR_METRICS_EXPORTER")
	v.BindEnv("telemetry.otlp_endpoint", "CR_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "CR_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
	v.BindEnv("telemetry.otlp_protocol", "CR_OTEL_PROTOCOL", "OTEL_EXPORTER_OTLP_PROTOCOL")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "condrouter")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Gnosis Chain defaults
	v.SetDefault("chain.chain_id", 100)
	v.SetDefault("chain.requests_per_second", 10)
	v.SetDefault("chain.burst", 5)
	v.SetDefault("chain.call_timeout", "10s")
	v.SetDefault("chain.clock", "system")

	v.SetDefault("contracts.conditional_tokens", "0xCeAfDD6bc0bEF976fdCd1112955828E00543c0Ce")
	v.SetDefault("contracts.market_factory", "0x83183DA839Ce8228E31Ae41222EaD9EDBb5cDcf1")
	v.SetDefault("contracts.router", "0xeC9048b59b3467415b1a38F63416407eA0c70fB8")
	v.SetDefault("contracts.collateral", "0xaf204776c7245bF4147c2612BF6e5972Ee483701") // sDAI
	v.SetDefault("contracts.reality_eth", "0xE78996A233895bE74a66F451f1019cA9734205cc")
	v.SetDefault("contracts.reality_proxy", "0xc260ADfAC11f97c001dC143d2a4F45b98e0f2D6C")
	v.SetDefault("contracts.arbitrator", "0x29f39dE98D750eb77b5FAfb31B2837f079FcE222")
	v.SetDefault("contracts.swapr_quoter", "0xcBaD9FDf0D2814659Eb26f600EFDeAF005Eda0F7")
	v.SetDefault("contracts.uniswap_quoter", "0x61fFE014bA17989E743c5F6cB21bF9697530B21e")

	v.SetDefault("router.max_depth", 8)
	v.SetDefault("router.default_deadline", "5m")
	v.SetDefault("router.slippage_bps", 50)
	v.SetDefault("router.quoter", "simulated")
	v.SetDefault("router.fee_tiers", []int64{100, 500, 3000, 10000})
	v.SetDefault("router.pool_fee_bps", 30)

	v.SetDefault("oracle.source", "memory")
	v.SetDefault("oracle.cache", "memory")
	v.SetDefault("oracle.cache_ttl", "1h")
	v.SetDefault("oracle.redis_addr", "localhost:6379")
	v.SetDefault("oracle.timeout", 86400)
	v.SetDefault("oracle.min_bond", "0")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "file:condrouter.db?cache=shared")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "condrouter")
	v.SetDefault("telemetry.trace_exporter", "console")
	v.SetDefault("telemetry.metrics_exporter", "prometheus")
	v.SetDefault("telemetry.otlp_protocol", "grpc")
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.health_port", 8080)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	addrs := map[string]string{
		"contracts.conditional_tokens": c.Contracts.ConditionalTokens,
		"contracts.market_factory":     c.Contracts.MarketFactory,
		"contracts.router":             c.Contracts.Router,
		"contracts.collateral":         c.Contracts.Collateral,
		"contracts.reality_eth":        c.Contracts.RealityETH,
		"contracts.reality_proxy":      c.Contracts.RealityProxy,
		"contracts.arbitrator":         c.Contracts.Arbitrator,
	}
	for key, addr := range addrs {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid %s: %q", key, addr)
		}
	}

	if c.Router.MaxDepth <= 0 {
		return fmt.Errorf("router.max_depth must be positive")
	}
	if c.Router.SlippageBps < 0 || c.Router.SlippageBps >= 10_000 {
		return fmt.Errorf("router.slippage_bps must be in [0, 10000)")
	}

	switch c.Router.Quoter {
	case "simulated":
	case "swapr":
		if !common.IsHexAddress(c.Contracts.SwaprQuoter) {
			return fmt.Errorf("invalid contracts.swapr_quoter: %q", c.Contracts.SwaprQuoter)
		}
	case "uniswap":
		if !common.IsHexAddress(c.Contracts.UniswapQuoter) {
			return fmt.Errorf("invalid contracts.uniswap_quoter: %q", c.Contracts.UniswapQuoter)
		}
		if len(c.Router.FeeTiers) == 0 {
			return fmt.Errorf("router.fee_tiers cannot be empty")
		}
	default:
		return fmt.Errorf("unknown router.quoter %q", c.Router.Quoter)
	}

	switch c.Oracle.Source {
	case "memory", "reality":
	default:
		return fmt.Errorf("unknown oracle.source %q", c.Oracle.Source)
	}
	switch c.Oracle.Cache {
	case "memory":
	case "redis":
		if c.Oracle.RedisAddr == "" {
			return fmt.Errorf("oracle.redis_addr is required for the redis cache")
		}
	default:
		return fmt.Errorf("unknown oracle.cache %q", c.Oracle.Cache)
	}

	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for sqlite")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}

	switch c.Chain.Clock {
	case "system", "block":
	default:
		return fmt.Errorf("unknown chain.clock %q", c.Chain.Clock)
	}

	switch c.Telemetry.TraceExporter {
	case "console", "zipkin", "otlp", "none":
	default:
		return fmt.Errorf("unknown telemetry.trace_exporter %q", c.Telemetry.TraceExporter)
	}
	switch c.Telemetry.MetricsExporter {
	case "prometheus", "otlp", "none":
	default:
		return fmt.Errorf("unknown telemetry.metrics_exporter %q", c.Telemetry.MetricsExporter)
	}

	if c.NeedsRPC() && c.Chain.RPCURL == "" {
		return fmt.Errorf("chain.rpc_url is required for quoter %q, oracle %q, clock %q",
			c.Router.Quoter, c.Oracle.Source, c.Chain.Clock)
	}
	return nil
}

// NeedsRPC reports whether any configured adapter talks to a node.
func (c *Config) NeedsRPC() bool {
	return c.Router.Quoter != "simulated" || c.Oracle.Source == "reality" || c.Chain.Clock == "block"
}
