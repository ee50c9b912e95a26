// Package app contains application services for the pricing context.
package app

import (
	"fmt"
	"math"
	"sort"

	"github.com/fd1az/arbeval/business/pricing/domain"
	"github.com/fd1az/arbeval/internal/asset"
)

// PriceRange is an absolute sane range for a price, tiered by asset class.
type PriceRange struct {
	Min float64
	Max float64
}

// SanityConfig holds thresholds for cross-venue outlier rejection.
type SanityConfig struct {
	// MaxDeviationPct is the allowed deviation from the cross-venue
	// median, in percent. Per-class overrides win over this default.
	MaxDeviationPct float64

	// DeviationPctByClass overrides MaxDeviationPct for an asset class.
	DeviationPctByClass map[asset.Class]float64

	// UnreliableFactor scales the deviation band for venues flagged
	// unreliable for the pair. 0.5 halves the band.
	UnreliableFactor float64

	// Ranges are the absolute sane price ranges per asset class.
	Ranges map[asset.Class]PriceRange
}

// DefaultSanityConfig returns the documented defaults.
func DefaultSanityConfig() SanityConfig {
	return SanityConfig{
		MaxDeviationPct:  20,
		UnreliableFactor: 0.5,
		Ranges: map[asset.Class]PriceRange{
			asset.ClassStable: {Min: 0.001, Max: 1_000_000},
			asset.ClassMajor:  {Min: 0.01, Max: 10_000_000},
			asset.ClassOther:  {Min: 1e-9, Max: 1e9},
		},
	}
}

// Verdict is the per-venue outcome of sanity filtering.
type Verdict struct {
	Valid        bool
	Reason       string // human readable, set whenever invalid
	DeviationPct float64
}

// SanityFilter rejects cross-venue price outliers before any other
// component trusts a quote.
type SanityFilter struct {
	cfg    SanityConfig
	venues map[string]domain.Venue
}

// NewSanityFilter creates a filter over the given venue profiles.
// Venues not present in the map get a neutral profile.
func NewSanityFilter(cfg SanityConfig, venues map[string]domain.Venue) *SanityFilter {
	if venues == nil {
		venues = make(map[string]domain.Venue)
	}
	return &SanityFilter{cfg: cfg, venues: venues}
}

// Validate checks every venue's price for the pair. The reference for
// deviation is the median of all OTHER venues' prices, so a single bad
// venue cannot drag its own reference toward itself. With fewer than two
// venues only the absolute range check applies.
func (f *SanityFilter) Validate(pair domain.Pair, venuePrices map[string]float64) map[string]Verdict {
	out := make(map[string]Verdict, len(venuePrices))

	for venue, price := range venuePrices {
		out[venue] = f.validateOne(pair, venue, price, venuePrices)
	}

	return out
}

func (f *SanityFilter) validateOne(pair domain.Pair, venue string, price float64, all map[string]float64) Verdict {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return Verdict{Valid: false, Reason: fmt.Sprintf("price %v is not a positive finite number", price)}
	}

	if r, ok := f.rangeFor(pair.Class()); ok {
		if price < r.Min || price > r.Max {
			return Verdict{
				Valid: false,
				Reason: fmt.Sprintf("price %.8g outside sane range [%g, %g] for %s assets",
					price, r.Min, r.Max, pair.Class()),
			}
		}
	}

	others := make([]float64, 0, len(all)-1)
	for v, p := range all {
		if v == venue {
			continue
		}
		if p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0) {
			others = append(others, p)
		}
	}

	// Cross-venue comparison needs at least one other venue.
	if len(others) == 0 {
		return Verdict{Valid: true}
	}

	ref := median(others)
	if ref <= 0 {
		return Verdict{Valid: true}
	}

	deviationPct := math.Abs(price-ref) / ref * 100

	band := f.bandFor(pair.Class())
	if f.venues[venue].IsUnreliableFor(pair) {
		band *= f.cfg.UnreliableFactor
	}

	if deviationPct > band {
		return Verdict{
			Valid:        false,
			DeviationPct: deviationPct,
			Reason: fmt.Sprintf("price %.8g deviates %.2f%% from cross-venue median %.8g (allowed %.2f%%)",
				price, deviationPct, ref, band),
		}
	}

	return Verdict{Valid: true, DeviationPct: deviationPct}
}

func (f *SanityFilter) rangeFor(class asset.Class) (PriceRange, bool) {
	if r, ok := f.cfg.Ranges[class]; ok {
		return r, true
	}
	r, ok := f.cfg.Ranges[asset.ClassOther]
	return r, ok
}

func (f *SanityFilter) bandFor(class asset.Class) float64 {
	if b, ok := f.cfg.DeviationPctByClass[class]; ok {
		return b
	}
	if f.cfg.MaxDeviationPct > 0 {
		return f.cfg.MaxDeviationPct
	}
	return DefaultSanityConfig().MaxDeviationPct
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
