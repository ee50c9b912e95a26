package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.App.Name != "arbeval" {
		t.Errorf("App.Name = %q, want arbeval", cfg.App.Name)
	}
	if cfg.Engine.QuoteTTL != 30*time.Second {
		t.Errorf("Engine.QuoteTTL = %v, want 30s", cfg.Engine.QuoteTTL)
	}
	if len(cfg.Venues) != 2 {
		t.Fatalf("len(Venues) = %d, want 2 defaults", len(cfg.Venues))
	}
	if cfg.Venues[0].ID != "uniswap_v3" || cfg.Venues[0].ImpactFactor != 0.7 {
		t.Errorf("first default venue = %+v", cfg.Venues[0])
	}
	if cfg.Fees.GlobalDefault != 0.003 {
		t.Errorf("Fees.GlobalDefault = %v, want 0.003", cfg.Fees.GlobalDefault)
	}
	if cfg.Risk.ApproveScore != 0.6 || cfg.Risk.MaxFactors != 3 {
		t.Errorf("risk defaults = %+v", cfg.Risk)
	}
	if cfg.Cost.FlashLoanGasUnits != 350000 {
		t.Errorf("Cost.FlashLoanGasUnits = %d, want 350000", cfg.Cost.FlashLoanGasUnits)
	}
	if cfg.Slippage.StaleTTL != 5*time.Minute {
		t.Errorf("Slippage.StaleTTL = %v, want 5m", cfg.Slippage.StaleTTL)
	}
	if cfg.Impact.MaxSizeUSDExtended != 10_000 {
		t.Errorf("Impact.MaxSizeUSDExtended = %v, want 10000", cfg.Impact.MaxSizeUSDExtended)
	}
	if cfg.Impact.ClassLiquidityUSD["major"] != 2_000_000 {
		t.Errorf("Impact.ClassLiquidityUSD[major] = %v, want 2000000", cfg.Impact.ClassLiquidityUSD["major"])
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
app:
  name: custom
risk:
  max_gas_gwei: 250
impact:
  max_size_usd_extended: 25000
  class_liquidity_usd:
    major: 4000000
venues:
  - id: uniswap_v3
    protocol_version: v3
    impact_factor: 0.5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.App.Name != "custom" {
		t.Errorf("App.Name = %q, want custom", cfg.App.Name)
	}
	if cfg.Risk.MaxGasGwei != 250 {
		t.Errorf("Risk.MaxGasGwei = %v, want 250", cfg.Risk.MaxGasGwei)
	}
	if len(cfg.Venues) != 1 || cfg.Venues[0].ImpactFactor != 0.5 {
		t.Errorf("Venues = %+v", cfg.Venues)
	}
	if cfg.Impact.MaxSizeUSDExtended != 25_000 {
		t.Errorf("Impact.MaxSizeUSDExtended = %v, want 25000", cfg.Impact.MaxSizeUSDExtended)
	}
	if cfg.Impact.ClassLiquidityUSD["major"] != 4_000_000 {
		t.Errorf("Impact.ClassLiquidityUSD[major] = %v, want 4000000", cfg.Impact.ClassLiquidityUSD["major"])
	}
	// Unrelated sections keep their defaults.
	if cfg.Impact.Dampening != 0.7 {
		t.Errorf("Impact.Dampening = %v, want default 0.7", cfg.Impact.Dampening)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ARB_RISK_MAX_GAS_GWEI", "175")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Risk.MaxGasGwei != 175 {
		t.Errorf("Risk.MaxGasGwei = %v, want 175 from env", cfg.Risk.MaxGasGwei)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Venues: []VenueConfig{{ID: "uniswap_v3", DefaultFeeRate: 0.003}},
			Fees:   FeesConfig{GlobalDefault: 0.003},
			Risk:   RiskConfig{LowScore: 0.3, ApproveScore: 0.6},
			Demo:   DemoConfig{Pairs: []string{"WETH-USDC"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"no_venues", func(c *Config) { c.Venues = nil }, true},
		{"empty_venue_id", func(c *Config) { c.Venues[0].ID = "" }, true},
		{"duplicate_venue", func(c *Config) {
			c.Venues = append(c.Venues, VenueConfig{ID: "uniswap_v3"})
		}, true},
		{"fee_rate_above_one", func(c *Config) { c.Venues[0].DefaultFeeRate = 1.5 }, true},
		{"bad_global_default", func(c *Config) { c.Fees.GlobalDefault = 0 }, true},
		{"approve_below_low", func(c *Config) { c.Risk.ApproveScore = 0.2 }, true},
		{"no_demo_pairs", func(c *Config) { c.Demo.Pairs = nil }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
