package app

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/arbeval/business/costing/domain"
)

func TestCostAggregator_Compute(t *testing.T) {
	agg := NewCostAggregator(DefaultCostConfig())

	tests := []struct {
		name           string
		in             TradeCosts
		wantProfitable bool
		wantNet        string // decimal string, empty to skip
	}{
		{
			name: "profitable_spread_covers_costs",
			in: TradeCosts{
				NotionalUSD:      10_000,
				SpreadPct:        1.5,
				BuyFeeRate:       0.003,
				SellFeeRate:      0.003,
				BuySlippagePct:   0.2,
				SellSlippagePct:  0.2,
				GasPriceGwei:     50,
				GasTokenPriceUSD: 3000,
				Scenario:         domain.GasScenarioSingleHop,
			},
			// gross 150, fees 30+30, slippage 40, gas 150000*50e-9*3000=22.5
			// net = 150 - 122.5 = 27.5
			wantProfitable: true,
			wantNet:        "27.5",
		},
		{
			name: "thin_spread_eaten_by_fees",
			in: TradeCosts{
				NotionalUSD:      10_000,
				SpreadPct:        0.5,
				BuyFeeRate:       0.003,
				SellFeeRate:      0.003,
				BuySlippagePct:   0.2,
				SellSlippagePct:  0.2,
				GasPriceGwei:     50,
				GasTokenPriceUSD: 3000,
				Scenario:         domain.GasScenarioSingleHop,
			},
			// gross 50 < costs 122.5
			wantProfitable: false,
			wantNet:        "-72.5",
		},
		{
			name: "flash_loan_adds_premium_and_gas",
			in: TradeCosts{
				NotionalUSD:      10_000,
				SpreadPct:        1.5,
				BuyFeeRate:       0.003,
				SellFeeRate:      0.003,
				LoanAmountUSD:    10_000,
				BuySlippagePct:   0.2,
				SellSlippagePct:  0.2,
				GasPriceGwei:     50,
				GasTokenPriceUSD: 3000,
				Scenario:         domain.GasScenarioFlashLoan,
			},
			// loan fee 9, gas 350000*50e-9*3000=52.5
			// net = 150 - (60 + 9 + 52.5 + 40) = -11.5
			wantProfitable: false,
			wantNet:        "-11.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := agg.Compute(tt.in)

			if b.IsProfitable != tt.wantProfitable {
				t.Errorf("IsProfitable = %v, want %v (net=%s)", b.IsProfitable, tt.wantProfitable, b.NetProfitUSD)
			}
			if tt.wantNet != "" {
				want := decimal.RequireFromString(tt.wantNet)
				if !b.NetProfitUSD.Equal(want) {
					t.Errorf("NetProfitUSD = %s, want %s", b.NetProfitUSD, want)
				}
			}

			sum := b.BuyFeeUSD.Add(b.SellFeeUSD).Add(b.LoanFeeUSD).Add(b.GasCostUSD).Add(b.SlippageCostUSD)
			if !b.TotalCostUSD.Equal(sum) {
				t.Errorf("TotalCostUSD = %s, want sum of components %s", b.TotalCostUSD, sum)
			}
		})
	}
}

func TestCostAggregator_UnknownSlippageUsesDefault(t *testing.T) {
	agg := NewCostAggregator(DefaultCostConfig())

	b := agg.Compute(TradeCosts{
		NotionalUSD:      10_000,
		SpreadPct:        2,
		BuySlippagePct:   -1,
		SellSlippagePct:  -1,
		GasPriceGwei:     50,
		GasTokenPriceUSD: 3000,
		Scenario:         domain.GasScenarioSingleHop,
	})

	// default 0.5% per leg => 1% of 10_000 = 100
	want := decimal.NewFromInt(100)
	if !b.SlippageCostUSD.Equal(want) {
		t.Errorf("SlippageCostUSD = %s, want %s", b.SlippageCostUSD, want)
	}
	if len(b.Diagnostics) < 2 {
		t.Errorf("expected diagnostics for both unknown legs, got %v", b.Diagnostics)
	}
}

func TestCostAggregator_MissingGasPriceIsDiagnosed(t *testing.T) {
	agg := NewCostAggregator(DefaultCostConfig())

	b := agg.Compute(TradeCosts{
		NotionalUSD: 10_000,
		SpreadPct:   2,
		Scenario:    domain.GasScenarioSingleHop,
	})

	if !b.GasCostUSD.IsZero() {
		t.Errorf("GasCostUSD = %s, want zero without a token price", b.GasCostUSD)
	}
	if len(b.Diagnostics) == 0 {
		t.Error("expected a diagnostic about missing gas token price")
	}
}

func TestCostAggregator_MinROIRejectsMarginalTrades(t *testing.T) {
	cfg := DefaultCostConfig()
	cfg.MinROIPct = 1.0
	agg := NewCostAggregator(cfg)

	b := agg.Compute(TradeCosts{
		NotionalUSD:      10_000,
		SpreadPct:        1.5,
		BuyFeeRate:       0.003,
		SellFeeRate:      0.003,
		BuySlippagePct:   0.2,
		SellSlippagePct:  0.2,
		GasPriceGwei:     50,
		GasTokenPriceUSD: 3000,
		Scenario:         domain.GasScenarioSingleHop,
	})

	// net 27.5 on 10k = 0.275% ROI, below the 1% bar
	if b.IsProfitable {
		t.Errorf("trade with ROI %s%% should be rejected at MinROIPct=1", b.ROIPct)
	}
	if !b.NetProfitUSD.IsPositive() {
		t.Errorf("NetProfitUSD = %s, expected positive even when rejected", b.NetProfitUSD)
	}
}

func TestCostAggregator_GasCostUSD(t *testing.T) {
	agg := NewCostAggregator(DefaultCostConfig())

	tests := []struct {
		name     string
		scenario domain.GasScenario
		gwei     float64
		tokenUSD float64
		want     float64
	}{
		{"single_hop", domain.GasScenarioSingleHop, 50, 3000, 22.5},
		{"flash_loan", domain.GasScenarioFlashLoan, 50, 3000, 52.5},
		{"zero_gwei", domain.GasScenarioSingleHop, 0, 3000, 0},
		{"no_token_price", domain.GasScenarioSingleHop, 50, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := agg.GasCostUSD(tt.scenario, tt.gwei, tt.tokenUSD)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("GasCostUSD() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCostAggregator_MinimumProfitThreshold(t *testing.T) {
	agg := NewCostAggregator(DefaultCostConfig())

	got := agg.MinimumProfitThreshold(domain.GasScenarioSingleHop, 50, 3000)
	// 22.5 * 1.2
	if math.Abs(got-27) > 1e-9 {
		t.Errorf("MinimumProfitThreshold() = %v, want 27", got)
	}
}

func TestCostAggregator_OptimalTradeSize(t *testing.T) {
	agg := NewCostAggregator(DefaultCostConfig())

	t.Run("negative_margin_yields_zero", func(t *testing.T) {
		got := agg.OptimalTradeSize(0.3, 0.003, 0.003, 0.2, 0.2, false, 50, 3000)
		if got != 0 {
			t.Errorf("OptimalTradeSize() = %v, want 0 when costs exceed the spread", got)
		}
	})

	t.Run("break_even_scaled_and_clamped", func(t *testing.T) {
		// margin = 1.5% - 0.6% - 0.4% = 0.5% per dollar
		// gas 22.5 * 1.2 / 0.005 = 5400
		got := agg.OptimalTradeSize(1.5, 0.003, 0.003, 0.2, 0.2, false, 50, 3000)
		if math.Abs(got-5400) > 1e-6 {
			t.Errorf("OptimalTradeSize() = %v, want 5400", got)
		}
	})

	t.Run("floor_applied_for_cheap_gas", func(t *testing.T) {
		got := agg.OptimalTradeSize(2, 0.003, 0.003, 0.1, 0.1, false, 1, 3000)
		if got != 500 {
			t.Errorf("OptimalTradeSize() = %v, want floor 500", got)
		}
	})

	t.Run("ceiling_applied_for_thin_margin", func(t *testing.T) {
		got := agg.OptimalTradeSize(1.05, 0.003, 0.003, 0.2, 0.2, false, 300, 3000)
		if got != 10_000 {
			t.Errorf("OptimalTradeSize() = %v, want ceiling 10000", got)
		}
	})
}
