package domain

// Venue describes a trading counterparty and the model parameters
// attached to it. The zero value is usable: every factor defaults to 1
// and lookups on unknown venues fall back to this neutral profile.
type Venue struct {
	ID              string
	ProtocolVersion string // e.g. "v2", "v3"; selects the fee schedule

	// ImpactFactor dampens or amplifies modeled price impact for this
	// venue (1.0 = neutral).
	ImpactFactor float64

	// LiquidityMultiplier scales asset-class default liquidity when the
	// venue reports no depth.
	LiquidityMultiplier float64

	// SlippageMultiplier scales the computed slippage tolerance for
	// trades executed on this venue.
	SlippageMultiplier float64

	// UnreliablePairs marks pairs (by Key, either ordering registered)
	// for which this venue's quotes get a halved deviation band.
	UnreliablePairs map[string]bool

	// Tiered is true for venues with per-pair fee tiers (e.g. Uniswap v3).
	Tiered bool
}

// NewVenue creates a Venue with neutral factors.
func NewVenue(id, protocolVersion string) Venue {
	return Venue{
		ID:                  id,
		ProtocolVersion:     protocolVersion,
		ImpactFactor:        1.0,
		LiquidityMultiplier: 1.0,
		SlippageMultiplier:  1.0,
		UnreliablePairs:     make(map[string]bool),
	}
}

// FlagUnreliable marks the venue as unreliable for a pair, in both
// orderings so later lookups match however the pair arrives.
func (v *Venue) FlagUnreliable(pair Pair) {
	if v.UnreliablePairs == nil {
		v.UnreliablePairs = make(map[string]bool)
	}
	v.UnreliablePairs[pair.Key()] = true
	v.UnreliablePairs[pair.Invert().Key()] = true
}

// IsUnreliableFor reports whether the venue is flagged for the pair.
func (v Venue) IsUnreliableFor(pair Pair) bool {
	if v.UnreliablePairs == nil {
		return false
	}
	return v.UnreliablePairs[pair.Key()] || v.UnreliablePairs[pair.Invert().Key()]
}
