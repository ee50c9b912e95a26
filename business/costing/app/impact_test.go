package app

import (
	"math"
	"testing"

	pricingDomain "github.com/fd1az/arbeval/business/pricing/domain"
	"github.com/fd1az/arbeval/internal/asset"
)

func floatPtr(f float64) *float64 { return &f }

func TestImpactModel_Estimate(t *testing.T) {
	model := NewImpactModel(DefaultImpactConfig())
	pair := pricingDomain.NewPair(asset.WETH, asset.USDC)

	venue := pricingDomain.NewVenue("uniswap_v3", "v3")
	venue.ImpactFactor = 0.7

	tests := []struct {
		name         string
		notionalUSD  float64
		liquidityUSD *float64
		wantPct      float64
		wantTol      float64
		wantSeverity ImpactSeverity
		wantAccept   bool
	}{
		{
			// 100 * 0.7 * 0.7 * sqrt(2500/2_000_000) = 1.7324
			name:         "moderate_trade_deep_pool",
			notionalUSD:  2_500,
			liquidityUSD: floatPtr(2_000_000),
			wantPct:      1.7324,
			wantTol:      0.001,
			wantSeverity: ImpactOK,
			wantAccept:   true,
		},
		{
			// 100 * 0.7 * 0.7 * sqrt(50_000/100_000) = 34.648
			name:         "large_trade_shallow_pool_critical",
			notionalUSD:  50_000,
			liquidityUSD: floatPtr(100_000),
			wantPct:      34.648,
			wantTol:      0.01,
			wantSeverity: ImpactCritical,
			wantAccept:   false,
		},
		{
			name:         "tiny_trade_hits_floor",
			notionalUSD:  1,
			liquidityUSD: floatPtr(50_000_000),
			wantPct:      0.1,
			wantTol:      1e-9,
			wantSeverity: ImpactOK,
			wantAccept:   true,
		},
		{
			// warning band: pct in [3, 8)
			// 100 * 0.7 * 0.7 * sqrt(10_000/2_000_000) = 3.4648
			name:         "warning_band",
			notionalUSD:  10_000,
			liquidityUSD: floatPtr(2_000_000),
			wantPct:      3.4648,
			wantTol:      0.001,
			wantSeverity: ImpactWarning,
			wantAccept:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := model.Estimate(pair, tt.notionalUSD, venue, tt.liquidityUSD)

			if math.Abs(est.Pct-tt.wantPct) > tt.wantTol {
				t.Errorf("Estimate() Pct = %v, want %v ± %v", est.Pct, tt.wantPct, tt.wantTol)
			}
			if est.Severity != tt.wantSeverity {
				t.Errorf("Estimate() Severity = %v, want %v", est.Severity, tt.wantSeverity)
			}
			if est.Acceptable != tt.wantAccept {
				t.Errorf("Estimate() Acceptable = %v, want %v", est.Acceptable, tt.wantAccept)
			}
		})
	}
}

func TestImpactModel_Monotonicity(t *testing.T) {
	model := NewImpactModel(DefaultImpactConfig())
	pair := pricingDomain.NewPair(asset.WETH, asset.USDC)
	venue := pricingDomain.NewVenue("uniswap_v3", "v3")
	liquidity := floatPtr(1_000_000)

	prev := 0.0
	for _, notional := range []float64{1_000, 5_000, 20_000, 100_000, 500_000} {
		pct := model.Estimate(pair, notional, venue, liquidity).Pct
		if pct < prev {
			t.Errorf("impact decreased from %v to %v at notional %v", prev, pct, notional)
		}
		prev = pct
	}
}

func TestImpactModel_UnknownLiquidityFallsBackToClass(t *testing.T) {
	model := NewImpactModel(DefaultImpactConfig())
	venue := pricingDomain.NewVenue("sushiswap", "v2")

	est := model.Estimate(pricingDomain.NewPair(asset.WETH, asset.USDC), 5_000, venue, nil)

	if est.LiquidityUSD != 2_000_000 {
		t.Errorf("LiquidityUSD = %v, want major-class default 2000000", est.LiquidityUSD)
	}
	if len(est.Diagnostics) == 0 {
		t.Error("expected a diagnostic about assumed liquidity")
	}
}

func TestImpactModel_BlueChipDiscount(t *testing.T) {
	pair := pricingDomain.NewPair(asset.WETH, asset.USDC)
	venue := pricingDomain.NewVenue("uniswap_v3", "v3")
	liquidity := floatPtr(1_000_000)

	plain := NewImpactModel(DefaultImpactConfig())

	cfg := DefaultImpactConfig()
	cfg.BlueChipSymbols = map[string]bool{"WETH": true}
	discounted := NewImpactModel(cfg)

	p := plain.Estimate(pair, 10_000, venue, liquidity).Pct
	d := discounted.Estimate(pair, 10_000, venue, liquidity).Pct

	want := p * 0.8
	if math.Abs(d-want) > 1e-9 {
		t.Errorf("blue-chip impact = %v, want %v (20%% off %v)", d, want, p)
	}
}

func TestImpactModel_InvalidNotional(t *testing.T) {
	model := NewImpactModel(DefaultImpactConfig())
	pair := pricingDomain.NewPair(asset.WETH, asset.USDC)
	venue := pricingDomain.NewVenue("uniswap_v3", "v3")

	for _, notional := range []float64{-1, math.NaN(), math.Inf(1)} {
		est := model.Estimate(pair, notional, venue, floatPtr(1_000_000))
		if est.Severity != ImpactCritical {
			t.Errorf("Estimate(%v) Severity = %v, want critical", notional, est.Severity)
		}
		if est.Acceptable {
			t.Errorf("Estimate(%v) should not be acceptable", notional)
		}
	}
}

func TestImpactModel_OptimalTradeSize(t *testing.T) {
	model := NewImpactModel(DefaultImpactConfig())
	pair := pricingDomain.NewPair(asset.WETH, asset.USDC)
	venue := pricingDomain.NewVenue("uniswap_v3", "v3")
	liquidity := floatPtr(2_000_000)

	size := model.OptimalTradeSize(pair, venue, 2.0, liquidity)

	// The returned size should land inside the configured bounds and,
	// when not clamped, produce an impact at (or under) the target.
	min, max, _ := model.SizeBounds()
	if size < min || size > max {
		t.Fatalf("OptimalTradeSize() = %v, want within [%v, %v]", size, min, max)
	}
	if size != min && size != max {
		got := model.Estimate(pair, size, venue, liquidity).Pct
		if math.Abs(got-2.0) > 0.01 {
			t.Errorf("impact at optimal size = %v, want ≈2.0", got)
		}
	}
}

func TestImpactModel_OptimalTradeSize_Clamped(t *testing.T) {
	model := NewImpactModel(DefaultImpactConfig())
	pair := pricingDomain.NewPair(asset.WETH, asset.USDC)
	venue := pricingDomain.NewVenue("uniswap_v3", "v3")

	shallow := model.OptimalTradeSize(pair, venue, 0.5, floatPtr(1_000))
	if shallow != 100 {
		t.Errorf("shallow pool size = %v, want floor 100", shallow)
	}

	deep := model.OptimalTradeSize(pair, venue, 5, floatPtr(500_000_000))
	if deep != 5_000 {
		t.Errorf("deep pool size = %v, want ceiling 5000", deep)
	}
}

func BenchmarkImpactEstimate(b *testing.B) {
	model := NewImpactModel(DefaultImpactConfig())
	pair := pricingDomain.NewPair(asset.WETH, asset.USDC)
	venue := pricingDomain.NewVenue("uniswap_v3", "v3")
	liquidity := floatPtr(2_000_000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		model.Estimate(pair, 5_000, venue, liquidity)
	}
}
