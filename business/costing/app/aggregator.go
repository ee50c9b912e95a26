package app

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/fd1az/arbeval/business/costing/domain"
)

// CostConfig holds the cost aggregation parameters.
type CostConfig struct {
	// LoanFeeRate is the flash loan fee as a fraction of loan amount.
	LoanFeeRate float64

	// DefaultSlippagePct is used when the caller supplies no tolerance.
	DefaultSlippagePct float64

	// Gas units per execution scenario.
	SingleHopGasUnits int64
	FlashLoanGasUnits int64

	// MinROIPct is the minimum ROI for a trade to count as worth doing.
	MinROIPct float64

	// SafetyBuffer scales the break-even profit threshold.
	SafetyBuffer float64

	// Bounds for OptimalTradeSize.
	OptimalMinUSD float64
	OptimalMaxUSD float64
}

// DefaultCostConfig returns the documented defaults.
func DefaultCostConfig() CostConfig {
	return CostConfig{
		LoanFeeRate:        0.0009,
		DefaultSlippagePct: 0.5,
		SingleHopGasUnits:  150_000,
		FlashLoanGasUnits:  350_000,
		MinROIPct:          0.1,
		SafetyBuffer:       1.2,
		OptimalMinUSD:      500,
		OptimalMaxUSD:      10_000,
	}
}

// TradeCosts are the raw inputs to one cost aggregation.
type TradeCosts struct {
	NotionalUSD float64
	SpreadPct   float64

	BuyFeeRate  float64
	SellFeeRate float64

	// LoanAmountUSD is the flash loan principal; zero means no loan.
	LoanAmountUSD float64

	// Slippage tolerances per leg, in percent. Negative means unknown
	// and falls back to the configured default.
	BuySlippagePct  float64
	SellSlippagePct float64

	GasPriceGwei     float64
	GasTokenPriceUSD float64
	Scenario         domain.GasScenario
}

// CostAggregator folds fees, gas, loan cost and slippage into a single
// profitability verdict. All money math happens in decimals; float
// inputs are converted once at the boundary.
type CostAggregator struct {
	cfg CostConfig
}

// NewCostAggregator creates a cost aggregator.
func NewCostAggregator(cfg CostConfig) *CostAggregator {
	d := DefaultCostConfig()
	if cfg.LoanFeeRate <= 0 {
		cfg.LoanFeeRate = d.LoanFeeRate
	}
	if cfg.DefaultSlippagePct <= 0 {
		cfg.DefaultSlippagePct = d.DefaultSlippagePct
	}
	if cfg.SingleHopGasUnits <= 0 {
		cfg.SingleHopGasUnits = d.SingleHopGasUnits
	}
	if cfg.FlashLoanGasUnits <= 0 {
		cfg.FlashLoanGasUnits = d.FlashLoanGasUnits
	}
	if cfg.MinROIPct <= 0 {
		cfg.MinROIPct = d.MinROIPct
	}
	if cfg.SafetyBuffer <= 0 {
		cfg.SafetyBuffer = d.SafetyBuffer
	}
	if cfg.OptimalMinUSD <= 0 {
		cfg.OptimalMinUSD = d.OptimalMinUSD
	}
	if cfg.OptimalMaxUSD <= 0 {
		cfg.OptimalMaxUSD = d.OptimalMaxUSD
	}
	return &CostAggregator{cfg: cfg}
}

// Compute aggregates all execution costs for one candidate trade.
func (a *CostAggregator) Compute(in TradeCosts) domain.CostBreakdown {
	var diags []string

	notional := decimalFrom(in.NotionalUSD)
	hundred := decimal.NewFromInt(100)

	buyFee := notional.Mul(decimalFrom(clampRate(in.BuyFeeRate)))
	sellFee := notional.Mul(decimalFrom(clampRate(in.SellFeeRate)))

	loanFee := decimal.Zero
	if in.LoanAmountUSD > 0 {
		loanFee = decimalFrom(in.LoanAmountUSD).Mul(decimalFrom(a.cfg.LoanFeeRate))
	}

	gasCost := decimalFrom(a.GasCostUSD(in.Scenario, in.GasPriceGwei, in.GasTokenPriceUSD))
	if in.GasTokenPriceUSD <= 0 {
		diags = append(diags, "gas token price unavailable, gas cost treated as zero")
	}

	buySlip := in.BuySlippagePct
	if buySlip < 0 {
		buySlip = a.cfg.DefaultSlippagePct
		diags = append(diags, fmt.Sprintf("buy slippage unknown, assuming %.2f%%", buySlip))
	}
	sellSlip := in.SellSlippagePct
	if sellSlip < 0 {
		sellSlip = a.cfg.DefaultSlippagePct
		diags = append(diags, fmt.Sprintf("sell slippage unknown, assuming %.2f%%", sellSlip))
	}
	slippageCost := notional.Mul(decimalFrom(buySlip + sellSlip)).Div(hundred)

	grossProfit := notional.Mul(decimalFrom(in.SpreadPct)).Div(hundred)

	b := domain.NewCostBreakdown(notional, buyFee, sellFee, loanFee, gasCost, slippageCost, grossProfit)
	for _, d := range diags {
		b = b.WithDiagnostic(d)
	}

	if b.IsProfitable && b.ROIPct.LessThan(decimalFrom(a.cfg.MinROIPct)) {
		b.IsProfitable = false
		b = b.WithDiagnostic(fmt.Sprintf("ROI %s%% below minimum %.2f%%", b.ROIPct.StringFixed(4), a.cfg.MinROIPct))
	}

	return b
}

// GasCostUSD prices the gas of one execution scenario:
// units * gwei * 1e-9 * token price. A missing token price yields zero.
func (a *CostAggregator) GasCostUSD(scenario domain.GasScenario, gasPriceGwei, gasTokenPriceUSD float64) float64 {
	if gasPriceGwei <= 0 || gasTokenPriceUSD <= 0 {
		return 0
	}
	units := a.cfg.SingleHopGasUnits
	if scenario == domain.GasScenarioFlashLoan {
		units = a.cfg.FlashLoanGasUnits
	}
	return float64(units) * gasPriceGwei * 1e-9 * gasTokenPriceUSD
}

// MinimumProfitThreshold is the gross profit a trade must clear before
// it is worth executing: gas cost scaled by the safety buffer.
func (a *CostAggregator) MinimumProfitThreshold(scenario domain.GasScenario, gasPriceGwei, gasTokenPriceUSD float64) float64 {
	return a.GasCostUSD(scenario, gasPriceGwei, gasTokenPriceUSD) * a.cfg.SafetyBuffer
}

// OptimalTradeSize finds the notional where per-unit margin covers the
// fixed gas cost with room to spare. Proportional costs (fees, loan
// fee, slippage) scale with size; gas does not, so the break-even size
// is gas divided by the per-dollar margin, scaled by the safety buffer
// and clamped to the configured bounds.
func (a *CostAggregator) OptimalTradeSize(spreadPct, buyFeeRate, sellFeeRate, buySlippagePct, sellSlippagePct float64, loan bool, gasPriceGwei, gasTokenPriceUSD float64) float64 {
	margin := spreadPct/100 - clampRate(buyFeeRate) - clampRate(sellFeeRate) - (buySlippagePct+sellSlippagePct)/100
	scenario := domain.GasScenarioSingleHop
	if loan {
		margin -= a.cfg.LoanFeeRate
		scenario = domain.GasScenarioFlashLoan
	}
	if margin <= 0 || math.IsNaN(margin) {
		return 0
	}

	gas := a.GasCostUSD(scenario, gasPriceGwei, gasTokenPriceUSD)
	size := gas * a.cfg.SafetyBuffer / margin
	return clampSize(size, a.cfg.OptimalMinUSD, a.cfg.OptimalMaxUSD)
}

// Config returns a copy of the aggregator configuration.
func (a *CostAggregator) Config() CostConfig {
	return a.cfg
}

func decimalFrom(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}
