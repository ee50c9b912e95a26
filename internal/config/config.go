// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Venues    []VenueConfig   `mapstructure:"venues"`
	Fees      FeesConfig      `mapstructure:"fees"`
	Impact    ImpactConfig    `mapstructure:"impact"`
	Slippage  SlippageConfig  `mapstructure:"slippage"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Sanity    SanityConfig    `mapstructure:"sanity"`
	Cost      CostConfig      `mapstructure:"cost"`
	Demo      DemoConfig      `mapstructure:"demo"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EngineConfig holds evaluation engine settings.
type EngineConfig struct {
	QuoteTTL             time.Duration `mapstructure:"quote_ttl"`
	EstimatedExecutionMs float64       `mapstructure:"estimated_execution_ms"`
	SizingImpactPct      float64       `mapstructure:"sizing_impact_pct"`
}

// VenueConfig describes one trading venue.
type VenueConfig struct {
	ID                  string   `mapstructure:"id"`
	ProtocolVersion     string   `mapstructure:"protocol_version"`
	ImpactFactor        float64  `mapstructure:"impact_factor"`
	LiquidityMultiplier float64  `mapstructure:"liquidity_multiplier"`
	SlippageMultiplier  float64  `mapstructure:"slippage_multiplier"`
	Tiered              bool     `mapstructure:"tiered"`
	DefaultFeeRate      float64  `mapstructure:"default_fee_rate"`
	UnreliablePairs     []string `mapstructure:"unreliable_pairs"`
}

// FeesConfig holds fee catalog settings.
type FeesConfig struct {
	GlobalDefault float64 `mapstructure:"global_default"`
	DefaultTier   int     `mapstructure:"default_tier"`

	// PairOverrides maps "venue/version/PAIR-KEY" to a fee rate.
	PairOverrides map[string]float64 `mapstructure:"pair_overrides"`
}

// ImpactConfig holds price impact model settings.
type ImpactConfig struct {
	Dampening         float64  `mapstructure:"dampening"`
	FloorPct          float64  `mapstructure:"floor_pct"`
	BlueChipDiscount  float64  `mapstructure:"blue_chip_discount"`
	BlueChipSymbols   []string `mapstructure:"blue_chip_symbols"`
	BlueChipSizeBonus float64  `mapstructure:"blue_chip_size_bonus"`
	MaxAcceptablePct  float64  `mapstructure:"max_acceptable_pct"`
	WarningPct        float64  `mapstructure:"warning_pct"`
	CriticalPct       float64  `mapstructure:"critical_pct"`
	MinSizeUSD        float64  `mapstructure:"min_size_usd"`
	MaxSizeUSD        float64  `mapstructure:"max_size_usd"`

	// MaxSizeUSDExtended is the ceiling for deep-liquidity blue chips.
	MaxSizeUSDExtended float64 `mapstructure:"max_size_usd_extended"`

	// ClassLiquidityUSD overrides the assumed pool depth per asset
	// class ("stable", "major", "mid-tier", "other") when a venue
	// reports none.
	ClassLiquidityUSD map[string]float64 `mapstructure:"class_liquidity_usd"`
}

// SlippageConfig holds slippage tolerance estimator settings.
type SlippageConfig struct {
	BasePct          float64       `mapstructure:"base_pct"`
	VolatilityWeight float64       `mapstructure:"volatility_weight"`
	SizeWeight       float64       `mapstructure:"size_weight"`
	GasWeight        float64       `mapstructure:"gas_weight"`
	MaxPct           float64       `mapstructure:"max_pct"`
	StaleTTL         time.Duration `mapstructure:"stale_ttl"`
}

// RiskConfig holds the risk scorer cutoffs.
type RiskConfig struct {
	MaxSlippagePct  float64 `mapstructure:"max_slippage_pct"`
	SevereRatio     float64 `mapstructure:"severe_ratio"`
	MaxGasGwei      float64 `mapstructure:"max_gas_gwei"`
	MinLiquidityUSD float64 `mapstructure:"min_liquidity_usd"`
	MinConfidence   float64 `mapstructure:"min_confidence"`
	MaxExecutionMs  float64 `mapstructure:"max_execution_ms"`
	LowScore        float64 `mapstructure:"low_score"`
	ApproveScore    float64 `mapstructure:"approve_score"`
	MaxFactors      int     `mapstructure:"max_factors"`
}

// SanityConfig holds price sanity filter settings.
type SanityConfig struct {
	MaxDeviationPct  float64 `mapstructure:"max_deviation_pct"`
	UnreliableFactor float64 `mapstructure:"unreliable_factor"`
}

// CostConfig holds cost aggregation settings.
type CostConfig struct {
	LoanFeeRate        float64 `mapstructure:"loan_fee_rate"`
	DefaultSlippagePct float64 `mapstructure:"default_slippage_pct"`
	SingleHopGasUnits  int64   `mapstructure:"single_hop_gas_units"`
	FlashLoanGasUnits  int64   `mapstructure:"flash_loan_gas_units"`
	MinROIPct          float64 `mapstructure:"min_roi_pct"`
	SafetyBuffer       float64 `mapstructure:"safety_buffer"`
	OptimalMinUSD      float64 `mapstructure:"optimal_min_usd"`
	OptimalMaxUSD      float64 `mapstructure:"optimal_max_usd"`
}

// DemoConfig drives the synthetic evaluation loop.
type DemoConfig struct {
	Pairs             []string           `mapstructure:"pairs"`
	TradeSizes        []float64          `mapstructure:"trade_sizes"`
	TicksPerMinute    int                `mapstructure:"ticks_per_minute"`
	GasPriceGwei      float64            `mapstructure:"gas_price_gwei"`
	GasTokenPriceUSD  float64            `mapstructure:"gas_token_price_usd"`
	GasTokenPriceURL  string             `mapstructure:"gas_token_price_url"`
	BasePrices        map[string]float64 `mapstructure:"base_prices"`
	VenueBiasPct      map[string]float64 `mapstructure:"venue_bias_pct"`
	VenueLiquidityUSD map[string]float64 `mapstructure:"venue_liquidity_usd"`
	JitterPct         float64            `mapstructure:"jitter_pct"`
	TUIMode           bool               `mapstructure:"-"` // Set at runtime, not from config file
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
	HealthPort     int    `mapstructure:"health_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("ARB")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
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
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")

	// Engine
	v.BindEnv("engine.quote_ttl", "ARB_QUOTE_TTL")
	v.BindEnv("engine.sizing_impact_pct", "ARB_SIZING_IMPACT_PCT")

	// Risk
	v.BindEnv("risk.max_slippage_pct", "ARB_RISK_MAX_SLIPPAGE_PCT")
	v.BindEnv("risk.max_gas_gwei", "ARB_RISK_MAX_GAS_GWEI")
	v.BindEnv("risk.min_liquidity_usd", "ARB_RISK_MIN_LIQUIDITY_USD")
	v.BindEnv("risk.approve_score", "ARB_RISK_APPROVE_SCORE")

	// Cost
	v.BindEnv("cost.min_roi_pct", "ARB_MIN_ROI_PCT")
	v.BindEnv("cost.loan_fee_rate", "ARB_LOAN_FEE_RATE")

	// Demo
	v.BindEnv("demo.pairs", "ARB_PAIRS")
	v.BindEnv("demo.gas_price_gwei", "ARB_GAS_PRICE_GWEI")
	v.BindEnv("demo.gas_token_price_usd", "ARB_GAS_TOKEN_PRICE_USD")
	v.BindEnv("demo.gas_token_price_url", "ARB_GAS_TOKEN_PRICE_URL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "arbeval")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Engine defaults
	v.SetDefault("engine.quote_ttl", "30s")
	v.SetDefault("engine.estimated_execution_ms", 1500)
	v.SetDefault("engine.sizing_impact_pct", 2)

	// Venue defaults
	v.SetDefault("venues", []map[string]any{
		{"id": "uniswap_v3", "protocol_version": "v3", "impact_factor": 0.7, "tiered": true, "default_fee_rate": 0.003},
		{"id": "sushiswap", "protocol_version": "v2", "impact_factor": 1.0, "default_fee_rate": 0.003},
	})

	// Fee defaults
	v.SetDefault("fees.global_default", 0.003)
	v.SetDefault("fees.default_tier", 3000)

	// Impact defaults
	v.SetDefault("impact.dampening", 0.7)
	v.SetDefault("impact.floor_pct", 0.1)
	v.SetDefault("impact.blue_chip_discount", 0.2)
	v.SetDefault("impact.max_acceptable_pct", 5)
	v.SetDefault("impact.warning_pct", 3)
	v.SetDefault("impact.critical_pct", 8)
	v.SetDefault("impact.min_size_usd", 100)
	v.SetDefault("impact.max_size_usd", 5000)
	v.SetDefault("impact.max_size_usd_extended", 10_000)
	v.SetDefault("impact.class_liquidity_usd", map[string]float64{
		"stable":   5_000_000,
		"major":    2_000_000,
		"mid-tier": 500_000,
		"other":    100_000,
	})

	// Slippage defaults
	v.SetDefault("slippage.base_pct", 0.1)
	v.SetDefault("slippage.volatility_weight", 0.5)
	v.SetDefault("slippage.size_weight", 0.3)
	v.SetDefault("slippage.gas_weight", 0.2)
	v.SetDefault("slippage.max_pct", 3)
	v.SetDefault("slippage.stale_ttl", "5m")

	// Risk defaults
	v.SetDefault("risk.max_slippage_pct", 2)
	v.SetDefault("risk.severe_ratio", 1.5)
	v.SetDefault("risk.max_gas_gwei", 100)
	v.SetDefault("risk.min_liquidity_usd", 10000)
	v.SetDefault("risk.min_confidence", 0.6)
	v.SetDefault("risk.max_execution_ms", 3000)
	v.SetDefault("risk.low_score", 0.3)
	v.SetDefault("risk.approve_score", 0.6)
	v.SetDefault("risk.max_factors", 3)

	// Sanity defaults
	v.SetDefault("sanity.max_deviation_pct", 20)
	v.SetDefault("sanity.unreliable_factor", 0.5)

	// Cost defaults
	v.SetDefault("cost.loan_fee_rate", 0.0009)
	v.SetDefault("cost.default_slippage_pct", 0.5)
	v.SetDefault("cost.single_hop_gas_units", 150000)
	v.SetDefault("cost.flash_loan_gas_units", 350000)
	v.SetDefault("cost.min_roi_pct", 0.1)
	v.SetDefault("cost.safety_buffer", 1.2)
	v.SetDefault("cost.optimal_min_usd", 500)
	v.SetDefault("cost.optimal_max_usd", 10000)

	// Demo defaults
	v.SetDefault("demo.pairs", []string{"WETH-USDC"})
	v.SetDefault("demo.trade_sizes", []float64{1000, 5000, 10000})
	v.SetDefault("demo.ticks_per_minute", 30)
	v.SetDefault("demo.gas_price_gwei", 40)
	v.SetDefault("demo.gas_token_price_usd", 3400)
	v.SetDefault("demo.base_prices", map[string]float64{"WETH-USDC": 3400})
	v.SetDefault("demo.venue_bias_pct", map[string]float64{"sushiswap": 0.8})
	v.SetDefault("demo.venue_liquidity_usd", map[string]float64{
		"uniswap_v3": 25_000_000,
		"sushiswap":  4_000_000,
	})
	v.SetDefault("demo.jitter_pct", 0.2)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "arbeval")
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.health_port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Venues) == 0 {
		return fmt.Errorf("at least one venue is required")
	}
	seen := make(map[string]bool, len(c.Venues))
	for _, venue := range c.Venues {
		if venue.ID == "" {
			return fmt.Errorf("venue id cannot be empty")
		}
		if seen[venue.ID] {
			return fmt.Errorf("duplicate venue id: %s", venue.ID)
		}
		seen[venue.ID] = true
		if venue.ImpactFactor < 0 {
			return fmt.Errorf("venue %s: impact_factor cannot be negative", venue.ID)
		}
		if venue.DefaultFeeRate < 0 || venue.DefaultFeeRate > 1 {
			return fmt.Errorf("venue %s: default_fee_rate must be within [0, 1]", venue.ID)
		}
	}
	if c.Fees.GlobalDefault <= 0 || c.Fees.GlobalDefault > 1 {
		return fmt.Errorf("fees.global_default must be within (0, 1]")
	}
	if c.Risk.ApproveScore <= c.Risk.LowScore {
		return fmt.Errorf("risk.approve_score must exceed risk.low_score")
	}
	if len(c.Demo.Pairs) == 0 {
		return fmt.Errorf("demo.pairs cannot be empty")
	}
	return nil
}
