package app

import (
	"math"
	"sync"
	"time"

	pricingDomain "github.com/fd1az/arbeval/business/pricing/domain"
	"github.com/fd1az/arbeval/internal/asset"
)

// SlippageConfig holds the slippage tolerance model parameters.
type SlippageConfig struct {
	// BasePct is the starting tolerance before adjustments, in percent.
	BasePct float64

	// Component weights.
	VolatilityWeight float64
	SizeWeight       float64
	GasWeight        float64

	// MaxPct caps the final tolerance.
	MaxPct float64

	// AssetMultipliers scale tolerance per asset class of the pair.
	AssetMultipliers map[asset.Class]float64

	// StaleTTL is how long a volatility observation stays fully trusted
	// before it decays back toward the neutral estimate.
	StaleTTL time.Duration

	// EMA smoothing: new = Smoothing*current + (1-Smoothing)*signal.
	Smoothing float64
}

// DefaultSlippageConfig returns the documented defaults.
func DefaultSlippageConfig() SlippageConfig {
	return SlippageConfig{
		BasePct:          0.1,
		VolatilityWeight: 0.5,
		SizeWeight:       0.3,
		GasWeight:        0.2,
		MaxPct:           3,
		AssetMultipliers: map[asset.Class]float64{
			asset.ClassStable:  0.5,
			asset.ClassMajor:   1.0,
			asset.ClassMidTier: 1.5,
			asset.ClassOther:   2.0,
		},
		StaleTTL:  5 * time.Minute,
		Smoothing: 0.7,
	}
}

const neutralVolatility = 0.5

// volEntry tracks the volatility EMA for one pair. Each entry carries
// its own lock so hot pairs don't contend with each other.
type volEntry struct {
	mu        sync.Mutex
	ema       float64
	lastPrice float64
	updatedAt time.Time
}

// SlippageEstimator computes slippage tolerance from recent volatility,
// trade size and network congestion. Price observations feed the
// volatility EMA through Observe; Compute never mutates state, so
// repeated calls with the same inputs return the same tolerance.
type SlippageEstimator struct {
	cfg SlippageConfig
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]*volEntry
}

// NewSlippageEstimator creates a slippage estimator.
func NewSlippageEstimator(cfg SlippageConfig) *SlippageEstimator {
	d := DefaultSlippageConfig()
	if cfg.BasePct <= 0 {
		cfg.BasePct = d.BasePct
	}
	if cfg.VolatilityWeight <= 0 {
		cfg.VolatilityWeight = d.VolatilityWeight
	}
	if cfg.SizeWeight <= 0 {
		cfg.SizeWeight = d.SizeWeight
	}
	if cfg.GasWeight <= 0 {
		cfg.GasWeight = d.GasWeight
	}
	if cfg.MaxPct <= 0 {
		cfg.MaxPct = d.MaxPct
	}
	if len(cfg.AssetMultipliers) == 0 {
		cfg.AssetMultipliers = d.AssetMultipliers
	}
	if cfg.StaleTTL <= 0 {
		cfg.StaleTTL = d.StaleTTL
	}
	if cfg.Smoothing <= 0 || cfg.Smoothing >= 1 {
		cfg.Smoothing = d.Smoothing
	}
	return &SlippageEstimator{
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]*volEntry),
	}
}

// Observe feeds one price observation into the pair's volatility EMA.
// Call it on every quote ingested; it is the only write path.
func (s *SlippageEstimator) Observe(pair pricingDomain.Pair, price float64) {
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return
	}

	e := s.entry(pair.Key())

	e.mu.Lock()
	defer e.mu.Unlock()

	now := s.now()
	if e.lastPrice <= 0 {
		e.ema = neutralVolatility
		e.lastPrice = price
		e.updatedAt = now
		return
	}

	relChange := math.Abs(price-e.lastPrice) / e.lastPrice
	signal := math.Min(relChange*10, 1.0)
	// Blend against the decayed value so an observation after a long
	// gap does not resurrect the pre-gap signal.
	e.ema = s.cfg.Smoothing*s.decayed(e.ema, e.updatedAt) + (1-s.cfg.Smoothing)*signal
	e.lastPrice = price
	e.updatedAt = now
}

// Volatility returns the current volatility estimate for a pair in
// [0,1]. Observations past StaleTTL decay toward the neutral estimate;
// pairs never observed report neutral.
func (s *SlippageEstimator) Volatility(pair pricingDomain.Pair) float64 {
	s.mu.RLock()
	e, ok := s.entries[pair.Key()]
	s.mu.RUnlock()
	if !ok {
		return neutralVolatility
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return s.decayed(e.ema, e.updatedAt)
}

// Tolerance is one directional slippage tolerance estimate.
type Tolerance struct {
	Pct        float64
	Volatility float64
	Capped     bool
}

// Compute estimates slippage tolerance for both legs of a trade:
// notionalUSD swapped on buyVenue and again on sellVenue at the given
// gas price. Pure with respect to estimator state.
func (s *SlippageEstimator) Compute(pair pricingDomain.Pair, notionalUSD float64, buyVenue, sellVenue pricingDomain.Venue, gasPriceGwei float64) (buy, sell Tolerance) {
	vol := s.Volatility(pair)

	base := s.cfg.BasePct
	base += vol * s.cfg.VolatilityWeight
	base += math.Log10(1+math.Min(math.Max(notionalUSD, 0)/1000, 10)) * s.cfg.SizeWeight
	base += math.Log10(1+math.Min(math.Max(gasPriceGwei, 0)/100, 5)) * s.cfg.GasWeight
	base *= s.classMultiplier(pair.Class())

	buy = s.finalize(base*venueSlippageMult(buyVenue), vol)
	sell = s.finalize(base*venueSlippageMult(sellVenue), vol)
	return buy, sell
}

func (s *SlippageEstimator) finalize(pct, vol float64) Tolerance {
	t := Tolerance{Pct: pct, Volatility: vol}
	if math.IsNaN(t.Pct) || math.IsInf(t.Pct, 0) || t.Pct > s.cfg.MaxPct {
		t.Pct = s.cfg.MaxPct
		t.Capped = true
	}
	if t.Pct < 0 {
		t.Pct = 0
	}
	return t
}

func (s *SlippageEstimator) classMultiplier(class asset.Class) float64 {
	if m, ok := s.cfg.AssetMultipliers[class]; ok && m > 0 {
		return m
	}
	return 1.0
}

// decayed applies staleness decay: past the TTL the EMA halves toward
// neutral once per additional TTL elapsed.
func (s *SlippageEstimator) decayed(ema float64, updatedAt time.Time) float64 {
	age := s.now().Sub(updatedAt)
	if age <= s.cfg.StaleTTL {
		return ema
	}
	periods := float64(age-s.cfg.StaleTTL) / float64(s.cfg.StaleTTL)
	w := math.Pow(0.5, periods)
	return neutralVolatility + (ema-neutralVolatility)*w
}

func (s *SlippageEstimator) entry(key string) *volEntry {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[key]; ok {
		return e
	}
	e = &volEntry{ema: neutralVolatility}
	s.entries[key] = e
	return e
}

func venueSlippageMult(v pricingDomain.Venue) float64 {
	if v.SlippageMultiplier <= 0 {
		return 1.0
	}
	return v.SlippageMultiplier
}
