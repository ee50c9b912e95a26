package app

import (
	"fmt"
	"math"

	pricingDomain "github.com/fd1az/arbeval/business/pricing/domain"
	"github.com/fd1az/arbeval/internal/asset"
)

// ImpactSeverity labels an impact estimate against the configured bands.
type ImpactSeverity string

const (
	ImpactOK       ImpactSeverity = "ok"
	ImpactWarning  ImpactSeverity = "warning"
	ImpactCritical ImpactSeverity = "critical"
)

// ImpactConfig holds the price impact model parameters.
type ImpactConfig struct {
	// Dampening is the k constant of the square-root impact curve.
	Dampening float64

	// FloorPct is the minimum impact ever reported, in percent.
	FloorPct float64

	// BlueChipDiscount reduces impact for designated blue-chip assets
	// (0.2 = 20% reduction).
	BlueChipDiscount float64

	// BlueChipSymbols designates the assets that get the discount and
	// the sizing bonus. Designation is configuration, not a property of
	// the asset itself.
	BlueChipSymbols map[string]bool

	// BlueChipSizeBonus scales OptimalTradeSize for blue chips.
	BlueChipSizeBonus float64

	// Acceptance bands, each independently configurable.
	MaxAcceptablePct float64
	WarningPct       float64
	CriticalPct      float64

	// ClassLiquidityUSD is the assumed liquidity per asset class when a
	// venue reports no depth.
	ClassLiquidityUSD map[asset.Class]float64

	// Sizing bounds for OptimalTradeSize. MaxSizeUSDExtended is the
	// alternate ceiling some callers use; both are configuration.
	MinSizeUSD         float64
	MaxSizeUSD         float64
	MaxSizeUSDExtended float64
}

// DefaultImpactConfig returns the documented defaults.
func DefaultImpactConfig() ImpactConfig {
	return ImpactConfig{
		Dampening:         0.7,
		FloorPct:          0.1,
		BlueChipDiscount:  0.2,
		BlueChipSizeBonus: 1.25,
		MaxAcceptablePct:  5,
		WarningPct:        3,
		CriticalPct:       8,
		ClassLiquidityUSD: map[asset.Class]float64{
			asset.ClassStable:  5_000_000,
			asset.ClassMajor:   2_000_000,
			asset.ClassMidTier: 500_000,
			asset.ClassOther:   100_000,
		},
		MinSizeUSD:         100,
		MaxSizeUSD:         5_000,
		MaxSizeUSDExtended: 10_000,
	}
}

// ImpactEstimate is the result of one impact estimation.
type ImpactEstimate struct {
	Pct          float64
	Acceptable   bool
	Severity     ImpactSeverity
	LiquidityUSD float64 // liquidity actually used, reported or estimated
	Diagnostics  []string
}

// ImpactModel estimates adverse price movement from trade size relative
// to available liquidity.
type ImpactModel struct {
	cfg ImpactConfig
}

// NewImpactModel creates an impact model.
func NewImpactModel(cfg ImpactConfig) *ImpactModel {
	d := DefaultImpactConfig()
	if cfg.Dampening <= 0 {
		cfg.Dampening = d.Dampening
	}
	if cfg.FloorPct <= 0 {
		cfg.FloorPct = d.FloorPct
	}
	if cfg.MaxAcceptablePct <= 0 {
		cfg.MaxAcceptablePct = d.MaxAcceptablePct
	}
	if cfg.WarningPct <= 0 {
		cfg.WarningPct = d.WarningPct
	}
	if cfg.CriticalPct <= 0 {
		cfg.CriticalPct = d.CriticalPct
	}
	if len(cfg.ClassLiquidityUSD) == 0 {
		cfg.ClassLiquidityUSD = d.ClassLiquidityUSD
	}
	if cfg.MinSizeUSD <= 0 {
		cfg.MinSizeUSD = d.MinSizeUSD
	}
	if cfg.MaxSizeUSD <= 0 {
		cfg.MaxSizeUSD = d.MaxSizeUSD
	}
	if cfg.MaxSizeUSDExtended <= 0 {
		cfg.MaxSizeUSDExtended = d.MaxSizeUSDExtended
	}
	if cfg.BlueChipSizeBonus <= 0 {
		cfg.BlueChipSizeBonus = d.BlueChipSizeBonus
	}
	return &ImpactModel{cfg: cfg}
}

// Estimate computes expected price impact for a trade of notionalUSD on
// venue. liquidityUSD is the venue-reported depth; nil falls back to the
// asset-class default scaled by the venue's liquidity multiplier.
func (m *ImpactModel) Estimate(pair pricingDomain.Pair, notionalUSD float64, venue pricingDomain.Venue, liquidityUSD *float64) ImpactEstimate {
	var est ImpactEstimate

	if notionalUSD < 0 || math.IsNaN(notionalUSD) || math.IsInf(notionalUSD, 0) {
		est.Pct = m.cfg.CriticalPct
		est.Severity = ImpactCritical
		est.Diagnostics = append(est.Diagnostics, fmt.Sprintf("invalid notional %v, reporting critical impact", notionalUSD))
		return est
	}

	liquidity := 0.0
	switch {
	case liquidityUSD != nil && *liquidityUSD > 0:
		liquidity = *liquidityUSD
	default:
		liquidity = m.classLiquidity(pair.Class()) * venueLiquidityMult(venue)
		est.Diagnostics = append(est.Diagnostics, fmt.Sprintf(
			"liquidity unknown for %s on %s, assuming $%.0f (%s class default)",
			pair, venue.ID, liquidity, pair.Class()))
	}
	est.LiquidityUSD = liquidity

	factor := venue.ImpactFactor
	if factor <= 0 {
		factor = 1.0
	}

	pct := 0.0
	if liquidity > 0 {
		pct = 100 * factor * m.cfg.Dampening * math.Sqrt(notionalUSD/liquidity)
	}
	if m.isBlueChip(pair) {
		pct *= 1 - m.cfg.BlueChipDiscount
	}
	if pct < m.cfg.FloorPct {
		pct = m.cfg.FloorPct
	}
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		pct = m.cfg.CriticalPct
		est.Diagnostics = append(est.Diagnostics, "impact computation clamped to critical band")
	}

	est.Pct = pct
	est.Acceptable = pct <= m.cfg.MaxAcceptablePct

	switch {
	case pct >= m.cfg.CriticalPct:
		est.Severity = ImpactCritical
	case pct >= m.cfg.WarningPct:
		est.Severity = ImpactWarning
	default:
		est.Severity = ImpactOK
	}

	return est
}

// OptimalTradeSize inverts the impact curve: the notional at which
// impact reaches maxImpactPct, with the blue-chip bonus applied, clamped
// to the configured size bounds.
func (m *ImpactModel) OptimalTradeSize(pair pricingDomain.Pair, venue pricingDomain.Venue, maxImpactPct float64, liquidityUSD *float64) float64 {
	if maxImpactPct <= 0 {
		maxImpactPct = m.cfg.MaxAcceptablePct
	}

	liquidity := 0.0
	if liquidityUSD != nil && *liquidityUSD > 0 {
		liquidity = *liquidityUSD
	} else {
		liquidity = m.classLiquidity(pair.Class()) * venueLiquidityMult(venue)
	}

	factor := venue.ImpactFactor
	if factor <= 0 {
		factor = 1.0
	}

	// impact = 100 * f * k * sqrt(n/L)  =>  n = L * (impact / (100*f*k))^2
	ratio := maxImpactPct / (100 * factor * m.cfg.Dampening)
	size := liquidity * ratio * ratio

	if m.isBlueChip(pair) {
		size *= m.cfg.BlueChipSizeBonus
	}

	return clampSize(size, m.cfg.MinSizeUSD, m.cfg.MaxSizeUSD)
}

// SizeBounds exposes the configured sizing bounds for downstream
// sizing callers.
func (m *ImpactModel) SizeBounds() (minUSD, maxUSD, extendedMaxUSD float64) {
	return m.cfg.MinSizeUSD, m.cfg.MaxSizeUSD, m.cfg.MaxSizeUSDExtended
}

// Config returns a copy of the model configuration.
func (m *ImpactModel) Config() ImpactConfig {
	return m.cfg
}

func (m *ImpactModel) classLiquidity(class asset.Class) float64 {
	if l, ok := m.cfg.ClassLiquidityUSD[class]; ok {
		return l
	}
	return m.cfg.ClassLiquidityUSD[asset.ClassOther]
}

func (m *ImpactModel) isBlueChip(pair pricingDomain.Pair) bool {
	if pair.Base == nil {
		return false
	}
	return m.cfg.BlueChipSymbols[pair.Base.Symbol()]
}

func venueLiquidityMult(v pricingDomain.Venue) float64 {
	if v.LiquidityMultiplier <= 0 {
		return 1.0
	}
	return v.LiquidityMultiplier
}

func clampSize(size, min, max float64) float64 {
	if size < min {
		return min
	}
	if size > max {
		return max
	}
	return size
}
