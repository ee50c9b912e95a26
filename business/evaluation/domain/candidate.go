// Package domain holds the trade candidate and evaluation result types
// of the evaluation context.
package domain

import (
	"time"

	costingDomain "github.com/fd1az/arbeval/business/costing/domain"
	pricingDomain "github.com/fd1az/arbeval/business/pricing/domain"
	riskDomain "github.com/fd1az/arbeval/business/risk/domain"
	"github.com/fd1az/arbeval/internal/apperror"
)

// TradeCandidate is one proposed arbitrage trade to evaluate: buy on
// BuyVenue, sell on SellVenue, NotionalUSD at stake.
type TradeCandidate struct {
	Pair        pricingDomain.Pair
	NotionalUSD float64

	BuyVenue  string
	SellVenue string

	GasPriceGwei float64

	// LoanAmountUSD is the flash loan principal; zero means the trade
	// is funded from inventory.
	LoanAmountUSD float64

	// Confidence is the quote confidence in [0, 1]. Leaving it nil
	// scores as zero confidence.
	Confidence *float64

	// ExternalRiskScore is an optional score from an outside model.
	ExternalRiskScore *float64
}

// Validate checks the structural requirements of a candidate. These are
// the only conditions the engine treats as hard errors; everything else
// degrades into diagnostics on the evaluation.
func (c TradeCandidate) Validate() error {
	if c.Pair.IsZero() {
		return apperror.Required("pair")
	}
	if c.BuyVenue == "" {
		return apperror.Required("buy_venue")
	}
	if c.SellVenue == "" {
		return apperror.Required("sell_venue")
	}
	if c.NotionalUSD <= 0 {
		return apperror.Validation(apperror.CodeInvalidTradeSize, "notional must be positive")
	}
	return nil
}

// Scenario returns the gas scenario the candidate executes under.
func (c TradeCandidate) Scenario() costingDomain.GasScenario {
	if c.LoanAmountUSD > 0 {
		return costingDomain.GasScenarioFlashLoan
	}
	return costingDomain.GasScenarioSingleHop
}

// LegImpact is the estimated price impact of one leg of the trade.
type LegImpact struct {
	Venue string
	Pct   float64
}

// Evaluation is the full outcome of evaluating one candidate.
type Evaluation struct {
	Candidate TradeCandidate

	// PricesValid is false when a leg failed the sanity filter; the
	// evaluation is then rejected without a cost model run.
	PricesValid bool

	Stale bool

	Spread pricingDomain.Spread

	BuyImpact  LegImpact
	SellImpact LegImpact

	BuySlippagePct  float64
	SellSlippagePct float64

	Costs costingDomain.CostBreakdown

	Risk riskDomain.Assessment

	// RecommendedSizeUSD is the notional the models consider optimal
	// for this route, zero when no size clears the costs.
	RecommendedSizeUSD float64

	Approved bool

	Diagnostics []string

	EvaluatedAt time.Time
}

// WithDiagnostic returns a copy carrying an extra diagnostic line.
func (e Evaluation) WithDiagnostic(reason string) Evaluation {
	e.Diagnostics = append(e.Diagnostics, reason)
	return e
}
