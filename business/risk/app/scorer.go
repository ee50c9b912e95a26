// Package app implements composite risk scoring for trade candidates.
package app

import (
	"fmt"

	"github.com/fd1az/arbeval/business/risk/domain"
)

// Thresholds are the tunable cutoffs of the risk scorer. All of them
// can be replaced at runtime through the engine.
type Thresholds struct {
	// MaxSlippagePct triggers the slippage factor; SevereRatio times
	// the threshold upgrades it to the severe penalty.
	MaxSlippagePct float64
	SevereRatio    float64

	// MaxGasGwei triggers the network congestion factor.
	MaxGasGwei float64

	// MinLiquidityUSD triggers the thin liquidity factor.
	MinLiquidityUSD float64

	// MinConfidence triggers the low data confidence factor.
	MinConfidence float64

	// MaxExecutionMs triggers the slow execution factor.
	MaxExecutionMs float64

	// Bucketing cutoffs: score < LowScore is LOW, < ApproveScore is
	// MEDIUM, anything else HIGH.
	LowScore     float64
	ApproveScore float64

	// MaxFactors rejects a trade outright once this many factors fire,
	// regardless of score.
	MaxFactors int
}

// DefaultThresholds returns the documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxSlippagePct:  2,
		SevereRatio:     1.5,
		MaxGasGwei:      100,
		MinLiquidityUSD: 10_000,
		MinConfidence:   0.6,
		MaxExecutionMs:  3_000,
		LowScore:        0.3,
		ApproveScore:    0.6,
		MaxFactors:      3,
	}
}

// Normalize fills zero-valued fields with defaults so partial updates
// cannot accidentally disable a cutoff.
func (t Thresholds) Normalize() Thresholds {
	d := DefaultThresholds()
	if t.MaxSlippagePct <= 0 {
		t.MaxSlippagePct = d.MaxSlippagePct
	}
	if t.SevereRatio <= 1 {
		t.SevereRatio = d.SevereRatio
	}
	if t.MaxGasGwei <= 0 {
		t.MaxGasGwei = d.MaxGasGwei
	}
	if t.MinLiquidityUSD <= 0 {
		t.MinLiquidityUSD = d.MinLiquidityUSD
	}
	if t.MinConfidence <= 0 || t.MinConfidence > 1 {
		t.MinConfidence = d.MinConfidence
	}
	if t.MaxExecutionMs <= 0 {
		t.MaxExecutionMs = d.MaxExecutionMs
	}
	if t.LowScore <= 0 || t.LowScore >= 1 {
		t.LowScore = d.LowScore
	}
	if t.ApproveScore <= t.LowScore || t.ApproveScore > 1 {
		t.ApproveScore = d.ApproveScore
	}
	if t.MaxFactors <= 0 {
		t.MaxFactors = d.MaxFactors
	}
	return t
}

// Penalty weights per factor category.
const (
	penaltySlippage       = 0.2
	penaltySlippageSevere = 0.3
	penaltyGas            = 0.2
	penaltyLiquidity      = 0.25
	penaltyConfidence     = 0.15
	penaltyExecTime       = 0.1
)

// staleFloor is the minimum score whenever the quotes are stale; it
// lands the assessment in the HIGH bucket no matter what else fired.
const staleFloor = 0.6

// Inputs are the signals gathered for one trade candidate.
type Inputs struct {
	// WorstSlippagePct is the larger leg tolerance in percent.
	WorstSlippagePct float64

	GasPriceGwei float64

	// LiquidityUSD is the thinner of the two venues' depths.
	LiquidityUSD float64

	// EstimatedExecutionMs estimates end-to-end execution latency.
	EstimatedExecutionMs float64

	// Confidence is the quote confidence in [0, 1]. A nil value is
	// treated as zero confidence, not as a pass.
	Confidence *float64

	// ExternalScore is an optional score from an outside model in
	// [0, 1]; when present it is averaged with the internal score.
	ExternalScore *float64

	// Stale marks the quotes as past their freshness window.
	Stale bool
}

// Scorer turns gathered signals into a risk assessment. A scorer is
// immutable; swap the whole scorer to change thresholds.
type Scorer struct {
	th Thresholds
}

// NewScorer creates a scorer with normalized thresholds.
func NewScorer(th Thresholds) *Scorer {
	return &Scorer{th: th.Normalize()}
}

// Thresholds returns the scorer's effective thresholds.
func (s *Scorer) Thresholds() Thresholds {
	return s.th
}

// Score assesses one candidate. Factors accumulate additive penalties,
// the external score (if any) is averaged in, stale data floors the
// result at HIGH, and the final score is clamped to [0, 1].
func (s *Scorer) Score(in Inputs) domain.Assessment {
	var (
		score   float64
		factors []domain.Factor
	)

	if in.WorstSlippagePct > s.th.MaxSlippagePct {
		penalty := penaltySlippage
		detail := fmt.Sprintf("slippage %.2f%% above %.2f%% threshold", in.WorstSlippagePct, s.th.MaxSlippagePct)
		if in.WorstSlippagePct >= s.th.MaxSlippagePct*s.th.SevereRatio {
			penalty = penaltySlippageSevere
			detail = fmt.Sprintf("slippage %.2f%% is %.1fx the %.2f%% threshold",
				in.WorstSlippagePct, in.WorstSlippagePct/s.th.MaxSlippagePct, s.th.MaxSlippagePct)
		}
		score += penalty
		factors = append(factors, domain.Factor{Category: domain.FactorSlippage, Penalty: penalty, Detail: detail})
	}

	if in.GasPriceGwei > s.th.MaxGasGwei {
		score += penaltyGas
		factors = append(factors, domain.Factor{
			Category: domain.FactorGas,
			Penalty:  penaltyGas,
			Detail:   fmt.Sprintf("gas %.0f gwei above %.0f gwei threshold", in.GasPriceGwei, s.th.MaxGasGwei),
		})
	}

	if in.LiquidityUSD > 0 && in.LiquidityUSD < s.th.MinLiquidityUSD {
		score += penaltyLiquidity
		factors = append(factors, domain.Factor{
			Category: domain.FactorLiquidity,
			Penalty:  penaltyLiquidity,
			Detail:   fmt.Sprintf("liquidity $%.0f below $%.0f threshold", in.LiquidityUSD, s.th.MinLiquidityUSD),
		})
	}

	// An unreported confidence counts as zero: no signal is worse than
	// a low one.
	confidence := 0.0
	if in.Confidence != nil {
		confidence = *in.Confidence
	}
	if confidence < s.th.MinConfidence {
		detail := fmt.Sprintf("confidence %.2f below %.2f threshold", confidence, s.th.MinConfidence)
		if in.Confidence == nil {
			detail = "confidence unreported"
		}
		score += penaltyConfidence
		factors = append(factors, domain.Factor{
			Category: domain.FactorConfidence,
			Penalty:  penaltyConfidence,
			Detail:   detail,
		})
	}

	if in.EstimatedExecutionMs > s.th.MaxExecutionMs {
		score += penaltyExecTime
		factors = append(factors, domain.Factor{
			Category: domain.FactorExecTime,
			Penalty:  penaltyExecTime,
			Detail:   fmt.Sprintf("estimated execution %.0fms above %.0fms threshold", in.EstimatedExecutionMs, s.th.MaxExecutionMs),
		})
	}

	if in.ExternalScore != nil {
		ext := clamp01(*in.ExternalScore)
		score = (score + ext) / 2
	}

	if in.Stale {
		if score < staleFloor {
			score = staleFloor
		}
		factors = append(factors, domain.Factor{
			Category: domain.FactorStaleData,
			Detail:   "quote data past its freshness window",
		})
	}

	score = clamp01(score)

	a := domain.Assessment{
		Score:   score,
		Level:   domain.LevelFor(score, s.th.LowScore, s.th.ApproveScore),
		Factors: factors,
	}
	a.Approved = score < s.th.ApproveScore && len(factors) < s.th.MaxFactors && !in.Stale
	a.Recommendations = s.recommend(a)
	return a
}

var recommendations = map[domain.FactorCategory]string{
	domain.FactorSlippage:   "reduce trade size or wait for calmer markets",
	domain.FactorGas:        "wait for network congestion to ease",
	domain.FactorLiquidity:  "split the trade or route through a deeper venue",
	domain.FactorConfidence: "refresh quotes before committing",
	domain.FactorExecTime:   "prefer venues with faster settlement",
	domain.FactorStaleData:  "re-fetch quotes, data is stale",
}

func (s *Scorer) recommend(a domain.Assessment) []string {
	if len(a.Factors) == 0 {
		return []string{"safe to execute"}
	}
	out := make([]string, 0, len(a.Factors))
	for _, f := range a.Factors {
		if r, ok := recommendations[f.Category]; ok {
			out = append(out, r)
		}
	}
	return out
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
