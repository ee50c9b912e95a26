package domain

import (
	"fmt"
	"math"
	"time"
)

// Quote is a single venue's price observation for a pair.
// LiquidityUSD is optional; nil means the venue did not report depth and
// downstream models fall back to asset-class defaults.
type Quote struct {
	Venue        string
	Pair         Pair
	Price        float64
	LiquidityUSD *float64
	Timestamp    time.Time
}

// NewQuote creates a quote observed now.
func NewQuote(venue string, pair Pair, price float64, liquidityUSD *float64) Quote {
	return Quote{
		Venue:        venue,
		Pair:         pair,
		Price:        price,
		LiquidityUSD: liquidityUSD,
		Timestamp:    time.Now(),
	}
}

// Validate rejects quotes that cannot be trusted at ingestion:
// non-finite or non-positive prices never reach the models.
func (q Quote) Validate() error {
	if q.Venue == "" {
		return fmt.Errorf("quote: empty venue")
	}
	if q.Pair.IsZero() {
		return fmt.Errorf("quote: missing pair")
	}
	if math.IsNaN(q.Price) || math.IsInf(q.Price, 0) {
		return fmt.Errorf("quote %s/%s: non-finite price", q.Venue, q.Pair)
	}
	if q.Price <= 0 {
		return fmt.Errorf("quote %s/%s: non-positive price %v", q.Venue, q.Pair, q.Price)
	}
	return nil
}

// Age returns how old the quote is relative to now.
func (q Quote) Age(now time.Time) time.Duration {
	return now.Sub(q.Timestamp)
}

// IsStale reports whether the quote is older than ttl.
func (q Quote) IsStale(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && q.Age(now) > ttl
}
