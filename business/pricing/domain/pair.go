// Package domain contains the core domain types for the pricing context.
package domain

import (
	"github.com/fd1az/arbeval/internal/asset"
)

// Pair represents a trading pair using typed assets.
// Quotes may arrive in either ordering, so lookups keyed by a pair must
// always be tried against both Key() and Invert().Key().
type Pair struct {
	Base  *asset.Asset // e.g., WETH
	Quote *asset.Asset // e.g., USDC
}

// NewPair creates a new trading pair.
func NewPair(base, quote *asset.Asset) Pair {
	if base == nil || quote == nil {
		panic("pricing: nil asset in pair")
	}
	return Pair{Base: base, Quote: quote}
}

// String returns the pair symbol (e.g., "WETH-USDC").
func (p Pair) String() string {
	return p.Base.Symbol() + "-" + p.Quote.Symbol()
}

// Key returns the canonical lookup key, identical to String().
func (p Pair) Key() string {
	return p.String()
}

// Invert returns the inverted pair (e.g., WETH-USDC -> USDC-WETH).
func (p Pair) Invert() Pair {
	return Pair{Base: p.Quote, Quote: p.Base}
}

// IsZero reports whether the pair is missing either leg.
func (p Pair) IsZero() bool {
	return p.Base == nil || p.Quote == nil
}

// Class returns the class of the base asset, which drives liquidity
// defaults and sane-range checks for the pair's prices.
func (p Pair) Class() asset.Class {
	if p.Base == nil {
		return asset.ClassOther
	}
	return p.Base.Class()
}
