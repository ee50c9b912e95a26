package domain

import (
	"math"
	"testing"
)

func TestCalculateSpread(t *testing.T) {
	tests := []struct {
		name         string
		buyPrice     float64
		sellPrice    float64
		wantPct      float64
		wantBPS      float64
		wantPositive bool
	}{
		{
			name:         "equal_prices_no_spread",
			buyPrice:     3400.00,
			sellPrice:    3400.00,
			wantPct:      0,
			wantBPS:      0,
			wantPositive: false,
		},
		{
			name:         "sell_higher_1pct",
			buyPrice:     3400.00,
			sellPrice:    3434.00,
			wantPct:      1,
			wantBPS:      100,
			wantPositive: true,
		},
		{
			name:         "sell_lower_1pct",
			buyPrice:     3400.00,
			sellPrice:    3366.00,
			wantPct:      -1,
			wantBPS:      -100,
			wantPositive: false,
		},
		{
			name:         "zero_buy_price_no_panic",
			buyPrice:     0,
			sellPrice:    3400.00,
			wantPct:      0,
			wantBPS:      0,
			wantPositive: false,
		},
		{
			name:         "zero_sell_price",
			buyPrice:     3400.00,
			sellPrice:    0,
			wantPct:      -100,
			wantBPS:      -10000,
			wantPositive: false,
		},
		{
			name:         "tiny_spread_1bps",
			buyPrice:     3400.00,
			sellPrice:    3400.34,
			wantPct:      0.01,
			wantBPS:      1,
			wantPositive: true,
		},
		{
			name:         "large_spread_10pct",
			buyPrice:     3000.00,
			sellPrice:    3300.00,
			wantPct:      10,
			wantBPS:      1000,
			wantPositive: true,
		},
		{
			name:         "small_numbers",
			buyPrice:     0.001,
			sellPrice:    0.00101,
			wantPct:      1,
			wantBPS:      100,
			wantPositive: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spread := CalculateSpread("uniswap_v3", "sushiswap", tt.buyPrice, tt.sellPrice)

			if spread.BuyVenue != "uniswap_v3" || spread.SellVenue != "sushiswap" {
				t.Errorf("venues = %q/%q, want uniswap_v3/sushiswap", spread.BuyVenue, spread.SellVenue)
			}
			if math.Abs(spread.Pct-tt.wantPct) > 1e-9 {
				t.Errorf("Pct = %v, want %v", spread.Pct, tt.wantPct)
			}
			if math.Abs(spread.BasisPoints-tt.wantBPS) > 1e-6 {
				t.Errorf("BasisPoints = %v, want %v", spread.BasisPoints, tt.wantBPS)
			}
			if got := spread.IsPositive(); got != tt.wantPositive {
				t.Errorf("IsPositive() = %v, want %v", got, tt.wantPositive)
			}
		})
	}
}

func TestCalculateSpread_Symmetry(t *testing.T) {
	// Swapping the legs flips the sign of the percentage relative to
	// the new buy price.
	s1 := CalculateSpread("a", "b", 3400, 3434)
	s2 := CalculateSpread("b", "a", 3434, 3400)

	if !s1.IsPositive() {
		t.Fatalf("forward spread should be positive, got Pct=%v", s1.Pct)
	}
	if s2.IsPositive() {
		t.Fatalf("reverse spread should not be positive, got Pct=%v", s2.Pct)
	}
}

func TestCalculateSpread_BasisPointsFormula(t *testing.T) {
	spread := CalculateSpread("a", "b", 2500, 2525)

	want := (2525.0 - 2500.0) / 2500.0 * 10000
	if math.Abs(spread.BasisPoints-want) > 1e-9 {
		t.Errorf("BasisPoints = %v, want %v", spread.BasisPoints, want)
	}
	if math.Abs(spread.BasisPoints-spread.Pct*100) > 1e-9 {
		t.Errorf("BasisPoints %v should equal Pct*100 (%v)", spread.BasisPoints, spread.Pct*100)
	}
}

func BenchmarkCalculateSpread(b *testing.B) {
	for i := 0; i < b.N; i++ {
		CalculateSpread("uniswap_v3", "sushiswap", 3456.789, 3460.123)
	}
}
