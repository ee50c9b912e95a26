// Package domain holds the risk assessment types shared between the
// scorer and its consumers.
package domain

// Level buckets a composite risk score.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// FactorCategory identifies what a risk factor is about.
type FactorCategory string

const (
	FactorSlippage   FactorCategory = "slippage"
	FactorGas        FactorCategory = "gas"
	FactorLiquidity  FactorCategory = "liquidity"
	FactorConfidence FactorCategory = "confidence"
	FactorExecTime   FactorCategory = "execution_time"
	FactorStaleData  FactorCategory = "stale_data"
)

// Factor is one contributing risk signal with its score penalty.
type Factor struct {
	Category FactorCategory
	Penalty  float64
	Detail   string
}

// Assessment is the outcome of scoring one trade candidate.
type Assessment struct {
	// Score is the composite risk in [0, 1], higher is riskier.
	Score float64

	Level Level

	// Factors lists every signal that contributed a penalty.
	Factors []Factor

	// Approved reports whether the trade passed the risk gate.
	Approved bool

	// Recommendations carries one human-readable line per factor, or a
	// single all-clear line when nothing fired.
	Recommendations []string
}

// HasFactor reports whether a factor of the given category fired.
func (a Assessment) HasFactor(cat FactorCategory) bool {
	for _, f := range a.Factors {
		if f.Category == cat {
			return true
		}
	}
	return false
}

// LevelFor buckets a score into a level using the standard cutoffs.
func LevelFor(score, lowCutoff, mediumCutoff float64) Level {
	switch {
	case score < lowCutoff:
		return LevelLow
	case score < mediumCutoff:
		return LevelMedium
	default:
		return LevelHigh
	}
}
