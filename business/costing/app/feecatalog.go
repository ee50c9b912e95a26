// Package app contains the economic models of the costing context:
// fee resolution, price impact, slippage tolerance and cost aggregation.
package app

import (
	"fmt"

	pricingDomain "github.com/fd1az/arbeval/business/pricing/domain"
)

// VersionFees is the fee schedule of one protocol version of a venue.
type VersionFees struct {
	// Default is the venue/version default fee rate (e.g. 0.003).
	Default float64

	// Overrides maps a pair key ("WETH-USDC") to a pair-specific rate.
	// Lookups try both token orderings.
	Overrides map[string]float64
}

// VenueFeeSchedule holds all fee information configured for a venue.
type VenueFeeSchedule struct {
	// Versions maps protocol version ("v2", "v3") to its schedule.
	Versions map[string]VersionFees

	// Tiers maps a pair key to the fee tiers configured for tiered
	// venues, in hundredths of a bip (3000 = 0.30%).
	Tiers map[string][]int
}

// FeeConfig is the full fee catalog configuration.
type FeeConfig struct {
	// GlobalDefault is used when neither an override nor a venue
	// default is configured. 0.003 = 0.3%.
	GlobalDefault float64

	// DefaultTier is returned for tiered venues with no configured
	// tiers for the pair. 3000 = 30 bps.
	DefaultTier int

	Venues map[string]VenueFeeSchedule
}

// DefaultFeeConfig returns the documented defaults with no venues.
func DefaultFeeConfig() FeeConfig {
	return FeeConfig{
		GlobalDefault: 0.003,
		DefaultTier:   3000,
		Venues:        make(map[string]VenueFeeSchedule),
	}
}

// FeeCatalog resolves trading-fee rates for venue+pair combinations.
// It never fails: unknown venues and pairs resolve to defaults and the
// fallback is reported as a diagnostic string.
type FeeCatalog struct {
	cfg FeeConfig
}

// NewFeeCatalog creates a catalog over the given config.
func NewFeeCatalog(cfg FeeConfig) *FeeCatalog {
	if cfg.GlobalDefault <= 0 || cfg.GlobalDefault > 1 {
		cfg.GlobalDefault = DefaultFeeConfig().GlobalDefault
	}
	if cfg.DefaultTier <= 0 {
		cfg.DefaultTier = DefaultFeeConfig().DefaultTier
	}
	return &FeeCatalog{cfg: cfg}
}

// Fee returns the trading-fee rate for a venue+pair, always in [0, 1].
// Lookup order: pair override at venue+version granularity (both token
// orderings), then the venue/version default, then the global default.
// diag is non-empty whenever a fallback was taken.
func (c *FeeCatalog) Fee(venue pricingDomain.Venue, pair pricingDomain.Pair) (rate float64, diag string) {
	sched, ok := c.cfg.Venues[venue.ID]
	if !ok {
		return c.cfg.GlobalDefault, fmt.Sprintf("unknown venue %q, using global default fee", venue.ID)
	}

	vf, ok := sched.Versions[venue.ProtocolVersion]
	if !ok {
		return c.cfg.GlobalDefault, fmt.Sprintf("venue %q has no schedule for version %q, using global default fee",
			venue.ID, venue.ProtocolVersion)
	}

	if r, ok := lookupEitherOrdering(vf.Overrides, pair); ok {
		return clampRate(r), ""
	}

	if vf.Default > 0 {
		return clampRate(vf.Default), ""
	}

	return c.cfg.GlobalDefault, fmt.Sprintf("no fee configured for %s on %s/%s, using global default",
		pair, venue.ID, venue.ProtocolVersion)
}

// FeeTier returns the fee tier for a tiered venue: the first configured
// tier for the pair (either ordering) or the default tier.
func (c *FeeCatalog) FeeTier(venue pricingDomain.Venue, pair pricingDomain.Pair) int {
	sched, ok := c.cfg.Venues[venue.ID]
	if !ok {
		return c.cfg.DefaultTier
	}

	if tiers, ok := sched.Tiers[pair.Key()]; ok && len(tiers) > 0 {
		return tiers[0]
	}
	if tiers, ok := sched.Tiers[pair.Invert().Key()]; ok && len(tiers) > 0 {
		return tiers[0]
	}

	return c.cfg.DefaultTier
}

// Config returns a copy of the catalog configuration.
func (c *FeeCatalog) Config() FeeConfig {
	return c.cfg
}

func lookupEitherOrdering(m map[string]float64, pair pricingDomain.Pair) (float64, bool) {
	if m == nil {
		return 0, false
	}
	if r, ok := m[pair.Key()]; ok {
		return r, true
	}
	r, ok := m[pair.Invert().Key()]
	return r, ok
}

func clampRate(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
