package app

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	costingApp "github.com/fd1az/arbeval/business/costing/app"
	"github.com/fd1az/arbeval/business/evaluation/domain"
	pricingApp "github.com/fd1az/arbeval/business/pricing/app"
	pricingDomain "github.com/fd1az/arbeval/business/pricing/domain"
	riskApp "github.com/fd1az/arbeval/business/risk/app"
	"github.com/fd1az/arbeval/internal/apperror"
	"github.com/fd1az/arbeval/internal/logger"
)

const (
	tracerName = "arbeval.evaluation"
	meterName  = "arbeval.evaluation"
)

// EngineConfig holds the evaluation engine settings.
type EngineConfig struct {
	// QuoteTTL is the freshness window; older quotes still evaluate
	// but are flagged stale and cannot be approved.
	QuoteTTL time.Duration

	// EstimatedExecutionMs feeds the risk scorer's latency check.
	EstimatedExecutionMs float64

	// SizingImpactPct is the impact target used when recommending a
	// trade size.
	SizingImpactPct float64
}

// DefaultEngineConfig returns sensible defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		QuoteTTL:             30 * time.Second,
		EstimatedExecutionMs: 1_500,
		SizingImpactPct:      2,
	}
}

// engineMetrics holds OTEL metric instruments.
type engineMetrics struct {
	evaluations      metric.Int64Counter
	evalDuration     metric.Float64Histogram
	riskScore        metric.Float64Gauge
	thresholdUpdates metric.Int64Counter
}

// Engine evaluates trade candidates end to end: quote retrieval, price
// sanity, cost modeling and risk scoring. Evaluations are pure with
// respect to engine state, so the same candidate against the same
// quotes yields the same result.
type Engine struct {
	config EngineConfig
	logger logger.LoggerInterface

	quotes QuoteSource
	gas    GasTokenPriceSource

	venues map[string]pricingDomain.Venue

	sanity   *pricingApp.SanityFilter
	fees     *costingApp.FeeCatalog
	impact   *costingApp.ImpactModel
	slippage *costingApp.SlippageEstimator
	costs    *costingApp.CostAggregator

	scorerMu sync.RWMutex
	scorer   *riskApp.Scorer

	now func() time.Time

	tracer  trace.Tracer
	metrics *engineMetrics
}

// NewEngine wires an evaluation engine from its collaborators.
func NewEngine(
	cfg EngineConfig,
	log logger.LoggerInterface,
	quotes QuoteSource,
	gas GasTokenPriceSource,
	venues map[string]pricingDomain.Venue,
	sanity *pricingApp.SanityFilter,
	fees *costingApp.FeeCatalog,
	impact *costingApp.ImpactModel,
	slippage *costingApp.SlippageEstimator,
	costs *costingApp.CostAggregator,
	scorer *riskApp.Scorer,
) (*Engine, error) {
	if quotes == nil {
		return nil, apperror.Required("quote_source")
	}
	if cfg.QuoteTTL <= 0 {
		cfg.QuoteTTL = DefaultEngineConfig().QuoteTTL
	}
	if cfg.EstimatedExecutionMs <= 0 {
		cfg.EstimatedExecutionMs = DefaultEngineConfig().EstimatedExecutionMs
	}
	if cfg.SizingImpactPct <= 0 {
		cfg.SizingImpactPct = DefaultEngineConfig().SizingImpactPct
	}
	if scorer == nil {
		scorer = riskApp.NewScorer(riskApp.DefaultThresholds())
	}

	e := &Engine{
		config:   cfg,
		logger:   log,
		quotes:   quotes,
		gas:      gas,
		venues:   venues,
		sanity:   sanity,
		fees:     fees,
		impact:   impact,
		slippage: slippage,
		costs:    costs,
		scorer:   scorer,
		now:      time.Now,
		tracer:   otel.Tracer(tracerName),
	}

	if err := e.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return e, nil
}

// initMetrics initializes OTEL metric instruments.
func (e *Engine) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	e.metrics = &engineMetrics{}

	e.metrics.evaluations, err = meter.Int64Counter(
		"evaluations_total",
		metric.WithDescription("Total trade candidate evaluations"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		return err
	}

	e.metrics.evalDuration, err = meter.Float64Histogram(
		"evaluation_duration_seconds",
		metric.WithDescription("Evaluation latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	e.metrics.riskScore, err = meter.Float64Gauge(
		"evaluation_risk_score",
		metric.WithDescription("Risk score of the latest evaluation"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	e.metrics.thresholdUpdates, err = meter.Int64Counter(
		"risk_threshold_updates_total",
		metric.WithDescription("Runtime risk threshold replacements"),
		metric.WithUnit("{update}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// UpdateThresholds replaces the risk thresholds atomically and returns
// the applied set, with zero fields filled from defaults. In-flight
// evaluations finish under the scorer they started with.
func (e *Engine) UpdateThresholds(ctx context.Context, th riskApp.Thresholds) riskApp.Thresholds {
	scorer := riskApp.NewScorer(th)

	e.scorerMu.Lock()
	e.scorer = scorer
	e.scorerMu.Unlock()

	applied := scorer.Thresholds()
	e.metrics.thresholdUpdates.Add(ctx, 1)
	e.logger.Info(ctx, "risk thresholds updated",
		"max_slippage_pct", applied.MaxSlippagePct,
		"max_gas_gwei", applied.MaxGasGwei,
		"min_liquidity_usd", applied.MinLiquidityUSD,
	)
	return applied
}

// Thresholds returns the currently active risk thresholds.
func (e *Engine) Thresholds() riskApp.Thresholds {
	e.scorerMu.RLock()
	defer e.scorerMu.RUnlock()
	return e.scorer.Thresholds()
}

// ObserveQuote feeds a price observation into the volatility model.
// Call it from the quote ingestion path, never from evaluations.
func (e *Engine) ObserveQuote(pair pricingDomain.Pair, price float64) {
	e.slippage.Observe(pair, price)
}

// EvaluateOpportunity runs the full evaluation pipeline for one
// candidate. Structural problems (missing pair, venue, bad notional)
// return an error; every data-quality problem degrades into a rejected
// evaluation with diagnostics instead.
func (e *Engine) EvaluateOpportunity(ctx context.Context, c domain.TradeCandidate) (*domain.Evaluation, error) {
	ctx, span := e.tracer.Start(ctx, "evaluation.evaluate",
		trace.WithAttributes(
			attribute.String("pair", c.Pair.String()),
			attribute.Float64("notional_usd", c.NotionalUSD),
		),
	)
	defer span.End()

	start := e.now()

	if err := c.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	buyVenue, ok := e.venues[c.BuyVenue]
	if !ok {
		err := apperror.Validation(apperror.CodeUnknownVenue, "buy venue "+c.BuyVenue)
		span.RecordError(err)
		return nil, err
	}
	sellVenue, ok := e.venues[c.SellVenue]
	if !ok {
		err := apperror.Validation(apperror.CodeUnknownVenue, "sell venue "+c.SellVenue)
		span.RecordError(err)
		return nil, err
	}

	ev := &domain.Evaluation{
		Candidate:   c,
		EvaluatedAt: start,
	}

	quotes, err := e.quotes.Quotes(ctx, c.Pair, []string{c.BuyVenue, c.SellVenue})
	if err != nil {
		span.RecordError(err)
		return nil, apperror.Wrap(err, apperror.CodeQuoteUnavailable, c.Pair.String())
	}
	buyQuote, ok := quotes[c.BuyVenue]
	if !ok {
		return nil, apperror.Validation(apperror.CodeQuoteUnavailable, "no quote on "+c.BuyVenue)
	}
	sellQuote, ok := quotes[c.SellVenue]
	if !ok {
		return nil, apperror.Validation(apperror.CodeQuoteUnavailable, "no quote on "+c.SellVenue)
	}

	ev.PricesValid = true
	if e.sanity != nil {
		prices := map[string]float64{
			c.BuyVenue:  buyQuote.Price,
			c.SellVenue: sellQuote.Price,
		}
		for venue, verdict := range e.sanity.Validate(c.Pair, prices) {
			if !verdict.Valid {
				ev.PricesValid = false
				*ev = ev.WithDiagnostic(fmt.Sprintf("price on %s rejected: %s", venue, verdict.Reason))
			}
		}
	}
	if !ev.PricesValid {
		ev.Approved = false
		e.record(ctx, ev, start)
		return ev, nil
	}

	ev.Stale = buyQuote.IsStale(start, e.config.QuoteTTL) || sellQuote.IsStale(start, e.config.QuoteTTL)
	if ev.Stale {
		*ev = ev.WithDiagnostic("quotes older than freshness window")
	}

	ev.Spread = pricingDomain.CalculateSpread(c.BuyVenue, c.SellVenue, buyQuote.Price, sellQuote.Price)

	buyImpact := e.impact.Estimate(c.Pair, c.NotionalUSD, buyVenue, buyQuote.LiquidityUSD)
	sellImpact := e.impact.Estimate(c.Pair, c.NotionalUSD, sellVenue, sellQuote.LiquidityUSD)
	ev.BuyImpact = domain.LegImpact{Venue: c.BuyVenue, Pct: buyImpact.Pct}
	ev.SellImpact = domain.LegImpact{Venue: c.SellVenue, Pct: sellImpact.Pct}
	for _, d := range buyImpact.Diagnostics {
		*ev = ev.WithDiagnostic(d)
	}
	for _, d := range sellImpact.Diagnostics {
		*ev = ev.WithDiagnostic(d)
	}

	buySlip, sellSlip := e.slippage.Compute(c.Pair, c.NotionalUSD, buyVenue, sellVenue, c.GasPriceGwei)
	ev.BuySlippagePct = buySlip.Pct
	ev.SellSlippagePct = sellSlip.Pct

	buyFee, diag := e.fees.Fee(buyVenue, c.Pair)
	if diag != "" {
		*ev = ev.WithDiagnostic(diag)
	}
	sellFee, diag := e.fees.Fee(sellVenue, c.Pair)
	if diag != "" {
		*ev = ev.WithDiagnostic(diag)
	}

	tokenPrice := 0.0
	if e.gas != nil {
		tokenPrice, err = e.gas.TokenPriceUSD(ctx)
		if err != nil {
			tokenPrice = 0
			*ev = ev.WithDiagnostic("gas token price unavailable: " + err.Error())
			e.logger.Warn(ctx, "gas token price fetch failed", "error", err)
		}
	}

	ev.Costs = e.costs.Compute(costingApp.TradeCosts{
		NotionalUSD:      c.NotionalUSD,
		SpreadPct:        ev.Spread.Pct,
		BuyFeeRate:       buyFee,
		SellFeeRate:      sellFee,
		LoanAmountUSD:    c.LoanAmountUSD,
		BuySlippagePct:   buySlip.Pct,
		SellSlippagePct:  sellSlip.Pct,
		GasPriceGwei:     c.GasPriceGwei,
		GasTokenPriceUSD: tokenPrice,
		Scenario:         c.Scenario(),
	})

	e.scorerMu.RLock()
	scorer := e.scorer
	e.scorerMu.RUnlock()

	ev.Risk = scorer.Score(riskApp.Inputs{
		WorstSlippagePct:     math.Max(buySlip.Pct, sellSlip.Pct),
		GasPriceGwei:         c.GasPriceGwei,
		LiquidityUSD:         math.Min(buyImpact.LiquidityUSD, sellImpact.LiquidityUSD),
		EstimatedExecutionMs: e.config.EstimatedExecutionMs,
		Confidence:           c.Confidence,
		ExternalScore:        c.ExternalRiskScore,
		Stale:                ev.Stale,
	})

	ev.RecommendedSizeUSD = e.recommendSize(c, buyVenue, sellVenue, buyQuote, sellQuote, buyFee, sellFee, buySlip.Pct, sellSlip.Pct, tokenPrice)

	ev.Approved = ev.Risk.Approved && ev.Costs.IsProfitable && !ev.Stale

	e.record(ctx, ev, start)
	return ev, nil
}

// recommendSize is the smaller of the impact-bounded sizes per leg and
// the cost-model break-even size.
func (e *Engine) recommendSize(
	c domain.TradeCandidate,
	buyVenue, sellVenue pricingDomain.Venue,
	buyQuote, sellQuote pricingDomain.Quote,
	buyFee, sellFee, buySlipPct, sellSlipPct, tokenPrice float64,
) float64 {
	spread := pricingDomain.CalculateSpread(c.BuyVenue, c.SellVenue, buyQuote.Price, sellQuote.Price)

	economic := e.costs.OptimalTradeSize(
		spread.Pct, buyFee, sellFee, buySlipPct, sellSlipPct,
		c.LoanAmountUSD > 0, c.GasPriceGwei, tokenPrice,
	)
	if economic <= 0 {
		return 0
	}

	buyMax := e.impact.OptimalTradeSize(c.Pair, buyVenue, e.config.SizingImpactPct, buyQuote.LiquidityUSD)
	sellMax := e.impact.OptimalTradeSize(c.Pair, sellVenue, e.config.SizingImpactPct, sellQuote.LiquidityUSD)

	return math.Min(economic, math.Min(buyMax, sellMax))
}

func (e *Engine) record(ctx context.Context, ev *domain.Evaluation, start time.Time) {
	elapsed := e.now().Sub(start)

	attrs := metric.WithAttributes(
		attribute.Bool("approved", ev.Approved),
		attribute.String("pair", ev.Candidate.Pair.String()),
	)
	e.metrics.evaluations.Add(ctx, 1, attrs)
	e.metrics.evalDuration.Record(ctx, elapsed.Seconds())
	e.metrics.riskScore.Record(ctx, ev.Risk.Score)

	e.logger.Debug(ctx, "candidate evaluated",
		"pair", ev.Candidate.Pair.String(),
		"notional_usd", ev.Candidate.NotionalUSD,
		"spread_pct", ev.Spread.Pct,
		"net_profit_usd", ev.Costs.NetProfitUSD,
		"risk_score", ev.Risk.Score,
		"risk_level", ev.Risk.Level,
		"approved", ev.Approved,
		"elapsed", elapsed,
	)
}
