package app

import (
	"testing"

	pricingDomain "github.com/fd1az/arbeval/business/pricing/domain"
	"github.com/fd1az/arbeval/internal/asset"
)

func testPair(t testing.TB) pricingDomain.Pair {
	t.Helper()
	return pricingDomain.NewPair(asset.WETH, asset.USDC)
}

func testFeeConfig() FeeConfig {
	return FeeConfig{
		GlobalDefault: 0.003,
		DefaultTier:   3000,
		Venues: map[string]VenueFeeSchedule{
			"uniswap_v3": {
				Versions: map[string]VersionFees{
					"v3": {
						Default: 0.003,
						Overrides: map[string]float64{
							"WETH-USDC": 0.0005,
						},
					},
				},
				Tiers: map[string][]int{
					"WETH-USDC": {500, 3000},
				},
			},
			"sushiswap": {
				Versions: map[string]VersionFees{
					"v2": {Default: 0.0025},
				},
			},
		},
	}
}

func TestFeeCatalog_Fee(t *testing.T) {
	catalog := NewFeeCatalog(testFeeConfig())
	pair := testPair(t)

	tests := []struct {
		name     string
		venue    pricingDomain.Venue
		pair     pricingDomain.Pair
		wantRate float64
		wantDiag bool
	}{
		{
			name:     "pair_override_wins",
			venue:    pricingDomain.NewVenue("uniswap_v3", "v3"),
			pair:     pair,
			wantRate: 0.0005,
		},
		{
			name:     "override_matches_inverted_ordering",
			venue:    pricingDomain.NewVenue("uniswap_v3", "v3"),
			pair:     pair.Invert(),
			wantRate: 0.0005,
		},
		{
			name:     "venue_default_when_no_override",
			venue:    pricingDomain.NewVenue("sushiswap", "v2"),
			pair:     pair,
			wantRate: 0.0025,
		},
		{
			name:     "unknown_venue_falls_back_with_diagnostic",
			venue:    pricingDomain.NewVenue("curve", "v1"),
			pair:     pair,
			wantRate: 0.003,
			wantDiag: true,
		},
		{
			name:     "unknown_version_falls_back_with_diagnostic",
			venue:    pricingDomain.NewVenue("uniswap_v3", "v99"),
			pair:     pair,
			wantRate: 0.003,
			wantDiag: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, diag := catalog.Fee(tt.venue, tt.pair)
			if rate != tt.wantRate {
				t.Errorf("Fee() rate = %v, want %v", rate, tt.wantRate)
			}
			if (diag != "") != tt.wantDiag {
				t.Errorf("Fee() diag = %q, wantDiag %v", diag, tt.wantDiag)
			}
		})
	}
}

func TestFeeCatalog_RateBounds(t *testing.T) {
	cfg := testFeeConfig()
	cfg.Venues["uniswap_v3"].Versions["v3"].Overrides["WETH-USDC"] = 2.5 // misconfigured

	catalog := NewFeeCatalog(cfg)
	rate, _ := catalog.Fee(pricingDomain.NewVenue("uniswap_v3", "v3"), testPair(t))

	if rate < 0 || rate > 1 {
		t.Errorf("Fee() rate = %v, want within [0, 1]", rate)
	}
}

func TestFeeCatalog_FeeTier(t *testing.T) {
	catalog := NewFeeCatalog(testFeeConfig())
	pair := testPair(t)

	tests := []struct {
		name  string
		venue pricingDomain.Venue
		pair  pricingDomain.Pair
		want  int
	}{
		{"configured_tier", pricingDomain.NewVenue("uniswap_v3", "v3"), pair, 500},
		{"inverted_ordering", pricingDomain.NewVenue("uniswap_v3", "v3"), pair.Invert(), 500},
		{"no_tiers_default", pricingDomain.NewVenue("sushiswap", "v2"), pair, 3000},
		{"unknown_venue_default", pricingDomain.NewVenue("curve", "v1"), pair, 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := catalog.FeeTier(tt.venue, tt.pair); got != tt.want {
				t.Errorf("FeeTier() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewFeeCatalog_BadGlobalDefault(t *testing.T) {
	catalog := NewFeeCatalog(FeeConfig{GlobalDefault: -1})
	rate, _ := catalog.Fee(pricingDomain.NewVenue("nowhere", "v0"), testPair(t))

	if rate != 0.003 {
		t.Errorf("Fee() with bad global default = %v, want 0.003", rate)
	}
}
