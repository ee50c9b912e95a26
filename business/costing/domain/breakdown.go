// Package domain contains the core domain types for the costing context.
package domain

import (
	"github.com/shopspring/decimal"
)

// GasScenario selects the execution-gas estimate for a candidate.
type GasScenario string

const (
	// GasScenarioSingleHop is a plain two-leg swap.
	GasScenarioSingleHop GasScenario = "single_hop"

	// GasScenarioFlashLoan wraps the trade in a capital loan.
	GasScenarioFlashLoan GasScenario = "flash_loan"
)

// CostBreakdown is the full cost structure of a candidate trade.
// Invariant: TotalCostUSD equals the sum of the five cost components and
// ROIPct equals NetProfitUSD / notional * 100.
type CostBreakdown struct {
	BuyFeeUSD       decimal.Decimal
	SellFeeUSD      decimal.Decimal
	LoanFeeUSD      decimal.Decimal
	GasCostUSD      decimal.Decimal
	SlippageCostUSD decimal.Decimal
	TotalCostUSD    decimal.Decimal

	GrossProfitUSD decimal.Decimal
	NetProfitUSD   decimal.Decimal
	ROIPct         decimal.Decimal

	IsProfitable bool

	// Diagnostics carries reason strings for every fallback or clamp
	// applied while computing the breakdown.
	Diagnostics []string
}

// NewCostBreakdown assembles a breakdown from its components and derives
// the totals, enforcing the summation invariant in one place.
func NewCostBreakdown(notionalUSD, buyFee, sellFee, loanFee, gasCost, slippageCost, grossProfit decimal.Decimal) CostBreakdown {
	total := buyFee.Add(sellFee).Add(loanFee).Add(gasCost).Add(slippageCost)
	net := grossProfit.Sub(total)

	roi := decimal.Zero
	if notionalUSD.IsPositive() {
		roi = net.Div(notionalUSD).Mul(decimal.NewFromInt(100))
	}

	return CostBreakdown{
		BuyFeeUSD:       buyFee,
		SellFeeUSD:      sellFee,
		LoanFeeUSD:      loanFee,
		GasCostUSD:      gasCost,
		SlippageCostUSD: slippageCost,
		TotalCostUSD:    total,
		GrossProfitUSD:  grossProfit,
		NetProfitUSD:    net,
		ROIPct:          roi,
		IsProfitable:    net.IsPositive(),
	}
}

// WithDiagnostic returns a copy carrying an extra diagnostic reason.
func (b CostBreakdown) WithDiagnostic(reason string) CostBreakdown {
	b.Diagnostics = append(b.Diagnostics, reason)
	return b
}
