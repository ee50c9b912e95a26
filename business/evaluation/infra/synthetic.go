// Package infra contains infrastructure adapters for the evaluation
// context: quote sources, gas token pricing and reporters.
package infra

import (
	"context"
	"math/rand"
	"sync"
	"time"

	pricingDomain "github.com/fd1az/arbeval/business/pricing/domain"
)

// SyntheticConfig controls the synthetic quote generator.
type SyntheticConfig struct {
	// BasePrices maps pair key to its mid price.
	BasePrices map[string]float64

	// VenueBiasPct maps venue to a constant price bias in percent, so
	// spreads between venues persist across ticks.
	VenueBiasPct map[string]float64

	// JitterPct is the max random walk step per tick, in percent.
	JitterPct float64

	// LiquidityUSD maps venue to the depth it reports. Venues missing
	// here report no depth.
	LiquidityUSD map[string]float64

	// Seed makes runs reproducible; zero seeds from the clock.
	Seed int64
}

// SyntheticQuoteSource generates drifting quotes around configured base
// prices. It exists for demos and tests; it satisfies the same port as
// a real feed would.
type SyntheticQuoteSource struct {
	cfg SyntheticConfig

	mu     sync.Mutex
	rng    *rand.Rand
	prices map[string]float64 // pairKey|venue -> last price
}

// NewSyntheticQuoteSource creates a synthetic source.
func NewSyntheticQuoteSource(cfg SyntheticConfig) *SyntheticQuoteSource {
	if cfg.JitterPct <= 0 {
		cfg.JitterPct = 0.15
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SyntheticQuoteSource{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(seed)),
		prices: make(map[string]float64),
	}
}

// Quotes returns a fresh quote per requested venue. Pairs without a
// configured base price yield no quotes.
func (s *SyntheticQuoteSource) Quotes(_ context.Context, pair pricingDomain.Pair, venues []string) (map[string]pricingDomain.Quote, error) {
	base, ok := s.cfg.BasePrices[pair.Key()]
	if !ok {
		base, ok = s.cfg.BasePrices[pair.Invert().Key()]
		if !ok {
			return map[string]pricingDomain.Quote{}, nil
		}
		base = 1 / base
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]pricingDomain.Quote, len(venues))
	now := time.Now()
	for _, venue := range venues {
		key := pair.Key() + "|" + venue

		price, ok := s.prices[key]
		if !ok {
			price = base * (1 + s.cfg.VenueBiasPct[venue]/100)
		}

		step := (s.rng.Float64()*2 - 1) * s.cfg.JitterPct / 100
		price *= 1 + step
		s.prices[key] = price

		var liq *float64
		if l, ok := s.cfg.LiquidityUSD[venue]; ok {
			liq = &l
		}

		q := pricingDomain.NewQuote(venue, pair, price, liq)
		q.Timestamp = now
		out[venue] = q
	}
	return out, nil
}
