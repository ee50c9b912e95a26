package app

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	costingApp "github.com/fd1az/arbeval/business/costing/app"
	"github.com/fd1az/arbeval/business/evaluation/domain"
	pricingApp "github.com/fd1az/arbeval/business/pricing/app"
	pricingDomain "github.com/fd1az/arbeval/business/pricing/domain"
	riskApp "github.com/fd1az/arbeval/business/risk/app"
	riskDomain "github.com/fd1az/arbeval/business/risk/domain"
	"github.com/fd1az/arbeval/internal/apperror"
	"github.com/fd1az/arbeval/internal/asset"
	"github.com/fd1az/arbeval/internal/logger"
)

type fakeQuoteSource struct {
	quotes map[string]pricingDomain.Quote
	err    error
}

func (f *fakeQuoteSource) Quotes(_ context.Context, _ pricingDomain.Pair, venues []string) (map[string]pricingDomain.Quote, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]pricingDomain.Quote, len(venues))
	for _, v := range venues {
		if q, ok := f.quotes[v]; ok {
			out[v] = q
		}
	}
	return out, nil
}

type fakeGasSource struct {
	priceUSD float64
	err      error
}

func (f *fakeGasSource) TokenPriceUSD(context.Context) (float64, error) {
	return f.priceUSD, f.err
}

func liquidity(v float64) *float64 { return &v }

func freshQuote(venue string, pair pricingDomain.Pair, price float64, liq *float64) pricingDomain.Quote {
	q := pricingDomain.NewQuote(venue, pair, price, liq)
	q.Timestamp = time.Now()
	return q
}

func testVenues() map[string]pricingDomain.Venue {
	uni := pricingDomain.NewVenue("uniswap_v3", "v3")
	uni.ImpactFactor = 0.7
	sushi := pricingDomain.NewVenue("sushiswap", "v2")
	return map[string]pricingDomain.Venue{
		"uniswap_v3": uni,
		"sushiswap":  sushi,
	}
}

func newTestEngine(t *testing.T, quotes QuoteSource, gas GasTokenPriceSource) *Engine {
	t.Helper()

	venues := testVenues()
	log := logger.New(io.Discard, logger.LevelError, "test", nil)

	engine, err := NewEngine(
		DefaultEngineConfig(),
		log,
		quotes,
		gas,
		venues,
		pricingApp.NewSanityFilter(pricingApp.DefaultSanityConfig(), venues),
		costingApp.NewFeeCatalog(costingApp.DefaultFeeConfig()),
		costingApp.NewImpactModel(costingApp.DefaultImpactConfig()),
		costingApp.NewSlippageEstimator(costingApp.DefaultSlippageConfig()),
		costingApp.NewCostAggregator(costingApp.DefaultCostConfig()),
		riskApp.NewScorer(riskApp.DefaultThresholds()),
	)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine
}

func wideCandidate(pair pricingDomain.Pair) domain.TradeCandidate {
	conf := 0.9
	return domain.TradeCandidate{
		Pair:         pair,
		NotionalUSD:  10_000,
		BuyVenue:     "uniswap_v3",
		SellVenue:    "sushiswap",
		GasPriceGwei: 40,
		Confidence:   &conf,
	}
}

func TestEngine_EvaluateOpportunity_Approves(t *testing.T) {
	pair := pricingDomain.NewPair(asset.WETH, asset.USDC)
	source := &fakeQuoteSource{quotes: map[string]pricingDomain.Quote{
		"uniswap_v3": freshQuote("uniswap_v3", pair, 3400, liquidity(50_000_000)),
		"sushiswap":  freshQuote("sushiswap", pair, 3502, liquidity(50_000_000)), // 3% spread
	}}

	engine := newTestEngine(t, source, &fakeGasSource{priceUSD: 3400})

	c := wideCandidate(pair)
	c.NotionalUSD = 2_000 // keeps the size slippage component small

	ev, err := engine.EvaluateOpportunity(context.Background(), c)
	if err != nil {
		t.Fatalf("EvaluateOpportunity() error = %v", err)
	}

	if !ev.PricesValid {
		t.Fatalf("prices should be valid: %v", ev.Diagnostics)
	}
	if ev.Stale {
		t.Error("fresh quotes flagged stale")
	}
	if !ev.Costs.IsProfitable {
		t.Errorf("2%% spread should be profitable, net=%s diags=%v", ev.Costs.NetProfitUSD, ev.Costs.Diagnostics)
	}
	if ev.Risk.Level != riskDomain.LevelLow {
		t.Errorf("Risk.Level = %v, want LOW: %+v", ev.Risk.Level, ev.Risk.Factors)
	}
	if !ev.Approved {
		t.Errorf("evaluation should be approved: risk=%+v diags=%v", ev.Risk, ev.Diagnostics)
	}
	if ev.RecommendedSizeUSD <= 0 {
		t.Errorf("RecommendedSizeUSD = %v, want positive", ev.RecommendedSizeUSD)
	}
}

func TestEngine_EvaluateOpportunity_IsDeterministic(t *testing.T) {
	pair := pricingDomain.NewPair(asset.WETH, asset.USDC)
	source := &fakeQuoteSource{quotes: map[string]pricingDomain.Quote{
		"uniswap_v3": freshQuote("uniswap_v3", pair, 3400, liquidity(10_000_000)),
		"sushiswap":  freshQuote("sushiswap", pair, 3440, liquidity(10_000_000)),
	}}

	engine := newTestEngine(t, source, &fakeGasSource{priceUSD: 3400})
	c := wideCandidate(pair)

	first, err := engine.EvaluateOpportunity(context.Background(), c)
	if err != nil {
		t.Fatalf("EvaluateOpportunity() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		got, err := engine.EvaluateOpportunity(context.Background(), c)
		if err != nil {
			t.Fatalf("EvaluateOpportunity() call %d error = %v", i, err)
		}
		if got.Risk.Score != first.Risk.Score ||
			got.BuySlippagePct != first.BuySlippagePct ||
			!got.Costs.NetProfitUSD.Equal(first.Costs.NetProfitUSD) ||
			got.Approved != first.Approved {
			t.Fatalf("evaluation %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestEngine_EvaluateOpportunity_HardErrors(t *testing.T) {
	pair := pricingDomain.NewPair(asset.WETH, asset.USDC)
	source := &fakeQuoteSource{quotes: map[string]pricingDomain.Quote{
		"uniswap_v3": freshQuote("uniswap_v3", pair, 3400, nil),
		"sushiswap":  freshQuote("sushiswap", pair, 3440, nil),
	}}
	engine := newTestEngine(t, source, &fakeGasSource{priceUSD: 3400})

	tests := []struct {
		name     string
		mutate   func(*domain.TradeCandidate)
		wantCode apperror.Code
	}{
		{
			name:     "zero_pair",
			mutate:   func(c *domain.TradeCandidate) { c.Pair = pricingDomain.Pair{} },
			wantCode: apperror.CodeRequiredField,
		},
		{
			name:     "missing_buy_venue",
			mutate:   func(c *domain.TradeCandidate) { c.BuyVenue = "" },
			wantCode: apperror.CodeRequiredField,
		},
		{
			name:     "unknown_sell_venue",
			mutate:   func(c *domain.TradeCandidate) { c.SellVenue = "curve" },
			wantCode: apperror.CodeUnknownVenue,
		},
		{
			name:     "negative_notional",
			mutate:   func(c *domain.TradeCandidate) { c.NotionalUSD = -5 },
			wantCode: apperror.CodeInvalidTradeSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := wideCandidate(pair)
			tt.mutate(&c)

			_, err := engine.EvaluateOpportunity(context.Background(), c)
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := apperror.GetCode(err); got != tt.wantCode {
				t.Errorf("error code = %v, want %v", got, tt.wantCode)
			}
		})
	}
}

func TestEngine_EvaluateOpportunity_QuoteSourceFailure(t *testing.T) {
	pair := pricingDomain.NewPair(asset.WETH, asset.USDC)
	engine := newTestEngine(t, &fakeQuoteSource{err: errors.New("feed down")}, &fakeGasSource{priceUSD: 3400})

	_, err := engine.EvaluateOpportunity(context.Background(), wideCandidate(pair))
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := apperror.GetCode(err); got != apperror.CodeQuoteUnavailable {
		t.Errorf("error code = %v, want %v", got, apperror.CodeQuoteUnavailable)
	}
}

func TestEngine_EvaluateOpportunity_InsanePriceRejected(t *testing.T) {
	pair := pricingDomain.NewPair(asset.WETH, asset.USDC)
	source := &fakeQuoteSource{quotes: map[string]pricingDomain.Quote{
		"uniswap_v3": freshQuote("uniswap_v3", pair, 3400, liquidity(10_000_000)),
		"sushiswap":  freshQuote("sushiswap", pair, 0.000001, liquidity(10_000_000)), // out of range for a major
	}}

	engine := newTestEngine(t, source, &fakeGasSource{priceUSD: 3400})

	ev, err := engine.EvaluateOpportunity(context.Background(), wideCandidate(pair))
	if err != nil {
		t.Fatalf("data-quality problems must not be hard errors, got %v", err)
	}
	if ev.PricesValid {
		t.Error("absurd price should fail the sanity filter")
	}
	if ev.Approved {
		t.Error("rejected prices must not be approved")
	}
	if len(ev.Diagnostics) == 0 {
		t.Error("expected diagnostics naming the rejected venue")
	}
}

func TestEngine_EvaluateOpportunity_StaleQuotes(t *testing.T) {
	pair := pricingDomain.NewPair(asset.WETH, asset.USDC)

	old := pricingDomain.NewQuote("uniswap_v3", pair, 3400, liquidity(10_000_000))
	old.Timestamp = time.Now().Add(-5 * time.Minute)
	older := pricingDomain.NewQuote("sushiswap", pair, 3468, liquidity(10_000_000))
	older.Timestamp = time.Now().Add(-5 * time.Minute)

	source := &fakeQuoteSource{quotes: map[string]pricingDomain.Quote{
		"uniswap_v3": old,
		"sushiswap":  older,
	}}

	engine := newTestEngine(t, source, &fakeGasSource{priceUSD: 3400})

	ev, err := engine.EvaluateOpportunity(context.Background(), wideCandidate(pair))
	if err != nil {
		t.Fatalf("EvaluateOpportunity() error = %v", err)
	}

	if !ev.Stale {
		t.Fatal("5 minute old quotes should be stale")
	}
	if ev.Risk.Level != riskDomain.LevelHigh {
		t.Errorf("Risk.Level = %v, want HIGH for stale data", ev.Risk.Level)
	}
	if ev.Approved {
		t.Error("stale evaluation must not be approved")
	}
}

func TestEngine_EvaluateOpportunity_GasSourceFailureDegrades(t *testing.T) {
	pair := pricingDomain.NewPair(asset.WETH, asset.USDC)
	source := &fakeQuoteSource{quotes: map[string]pricingDomain.Quote{
		"uniswap_v3": freshQuote("uniswap_v3", pair, 3400, liquidity(10_000_000)),
		"sushiswap":  freshQuote("sushiswap", pair, 3468, liquidity(10_000_000)),
	}}

	engine := newTestEngine(t, source, &fakeGasSource{err: errors.New("rpc down")})

	ev, err := engine.EvaluateOpportunity(context.Background(), wideCandidate(pair))
	if err != nil {
		t.Fatalf("gas source failure must degrade, got error %v", err)
	}
	if !ev.Costs.GasCostUSD.IsZero() {
		t.Errorf("GasCostUSD = %s, want zero without a token price", ev.Costs.GasCostUSD)
	}
	if len(ev.Diagnostics) == 0 {
		t.Error("expected a diagnostic about the gas token price")
	}
}

func TestEngine_UpdateThresholds(t *testing.T) {
	pair := pricingDomain.NewPair(asset.WETH, asset.USDC)
	source := &fakeQuoteSource{quotes: map[string]pricingDomain.Quote{
		"uniswap_v3": freshQuote("uniswap_v3", pair, 3400, liquidity(50_000_000)),
		"sushiswap":  freshQuote("sushiswap", pair, 3468, liquidity(50_000_000)),
	}}
	engine := newTestEngine(t, source, &fakeGasSource{priceUSD: 3400})
	c := wideCandidate(pair)
	c.GasPriceGwei = 120 // above the default 100 gwei cutoff

	before, err := engine.EvaluateOpportunity(context.Background(), c)
	if err != nil {
		t.Fatalf("EvaluateOpportunity() error = %v", err)
	}
	if !before.Risk.HasFactor(riskDomain.FactorGas) {
		t.Fatal("gas factor should fire at 120 gwei under default thresholds")
	}

	applied := engine.UpdateThresholds(context.Background(), riskApp.Thresholds{MaxGasGwei: 200})
	if applied.MaxGasGwei != 200 {
		t.Errorf("applied.MaxGasGwei = %v, want 200", applied.MaxGasGwei)
	}

	after, err := engine.EvaluateOpportunity(context.Background(), c)
	if err != nil {
		t.Fatalf("EvaluateOpportunity() error = %v", err)
	}
	if after.Risk.HasFactor(riskDomain.FactorGas) {
		t.Error("gas factor should not fire after raising the cutoff")
	}
	if got := engine.Thresholds().MaxGasGwei; got != 200 {
		t.Errorf("Thresholds().MaxGasGwei = %v, want 200", got)
	}
	// Untouched fields keep their defaults after a partial update.
	if got := engine.Thresholds().MaxSlippagePct; got != 2 {
		t.Errorf("Thresholds().MaxSlippagePct = %v, want default 2", got)
	}
}

func TestEngine_ObserveQuoteRaisesSlippage(t *testing.T) {
	pair := pricingDomain.NewPair(asset.WETH, asset.USDC)
	source := &fakeQuoteSource{quotes: map[string]pricingDomain.Quote{
		"uniswap_v3": freshQuote("uniswap_v3", pair, 3400, liquidity(10_000_000)),
		"sushiswap":  freshQuote("sushiswap", pair, 3440, liquidity(10_000_000)),
	}}
	engine := newTestEngine(t, source, &fakeGasSource{priceUSD: 3400})
	c := wideCandidate(pair)

	calm, err := engine.EvaluateOpportunity(context.Background(), c)
	if err != nil {
		t.Fatalf("EvaluateOpportunity() error = %v", err)
	}

	// A violent price series drives the volatility estimate up.
	engine.ObserveQuote(pair, 3400)
	engine.ObserveQuote(pair, 4000)
	engine.ObserveQuote(pair, 3100)
	engine.ObserveQuote(pair, 3900)

	volatile, err := engine.EvaluateOpportunity(context.Background(), c)
	if err != nil {
		t.Fatalf("EvaluateOpportunity() error = %v", err)
	}

	if volatile.BuySlippagePct <= calm.BuySlippagePct {
		t.Errorf("slippage after volatility = %v, want above calm %v",
			volatile.BuySlippagePct, calm.BuySlippagePct)
	}
}
