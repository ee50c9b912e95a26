package app

import (
	"context"
	"fmt"

	"github.com/fd1az/arbeval/business/evaluation/domain"
	pricingDomain "github.com/fd1az/arbeval/business/pricing/domain"
	"github.com/fd1az/arbeval/internal/logger"
	"github.com/fd1az/arbeval/internal/ratelimit"
)

// RunnerConfig holds the continuous evaluation loop settings.
type RunnerConfig struct {
	Pairs          []pricingDomain.Pair
	TradeSizesUSD  []float64
	Venues         []string
	TicksPerMinute int
	GasPriceGwei   float64
}

// Runner drives the engine continuously: each tick it refreshes quotes
// for every configured pair, feeds them to the volatility model and
// evaluates a candidate per trade size across every venue route.
type Runner struct {
	engine   *Engine
	reporter Reporter
	config   RunnerConfig
	logger   logger.LoggerInterface
	limiter  *ratelimit.Limiter
}

// NewRunner creates a runner over an engine.
func NewRunner(engine *Engine, reporter Reporter, cfg RunnerConfig, log logger.LoggerInterface) *Runner {
	if cfg.TicksPerMinute <= 0 {
		cfg.TicksPerMinute = 30
	}
	return &Runner{
		engine:   engine,
		reporter: reporter,
		config:   cfg,
		logger:   log,
		limiter:  ratelimit.New(cfg.TicksPerMinute),
	}
}

// Start begins the evaluation loop.
func (r *Runner) Start(ctx context.Context) error {
	r.logger.Info(ctx, "starting evaluation loop",
		"pairs", len(r.config.Pairs),
		"venues", len(r.config.Venues),
		"ticks_per_minute", r.config.TicksPerMinute,
	)

	if err := r.reporter.Start(ctx); err != nil {
		return err
	}

	go r.run(ctx)
	return nil
}

func (r *Runner) run(ctx context.Context) {
	for {
		if err := r.limiter.Wait(ctx); err != nil {
			r.logger.Info(ctx, "evaluation loop stopping", "reason", ctx.Err())
			return
		}
		for _, pair := range r.config.Pairs {
			r.tick(ctx, pair)
		}
	}
}

// tick refreshes quotes for one pair and evaluates every venue route at
// every configured trade size.
func (r *Runner) tick(ctx context.Context, pair pricingDomain.Pair) {
	quotes, err := r.engine.quotes.Quotes(ctx, pair, r.config.Venues)
	if err != nil {
		r.logger.Warn(ctx, "quote refresh failed", "pair", pair.String(), "error", err)
		return
	}
	for _, q := range quotes {
		r.engine.ObserveQuote(pair, q.Price)
	}

	for _, buy := range r.config.Venues {
		for _, sell := range r.config.Venues {
			if buy == sell {
				continue
			}
			if _, ok := quotes[buy]; !ok {
				continue
			}
			if _, ok := quotes[sell]; !ok {
				continue
			}
			for _, size := range r.config.TradeSizesUSD {
				r.evaluate(ctx, domain.TradeCandidate{
					Pair:         pair,
					NotionalUSD:  size,
					BuyVenue:     buy,
					SellVenue:    sell,
					GasPriceGwei: r.config.GasPriceGwei,
				})
			}
		}
	}
}

func (r *Runner) evaluate(ctx context.Context, c domain.TradeCandidate) {
	ev, err := r.engine.EvaluateOpportunity(ctx, c)
	if err != nil {
		r.logger.Warn(ctx, "evaluation failed",
			"pair", c.Pair.String(),
			"route", fmt.Sprintf("%s->%s", c.BuyVenue, c.SellVenue),
			"error", err,
		)
		return
	}
	r.reporter.Report(ev)
}

// Stop gracefully shuts down the runner.
func (r *Runner) Stop() error {
	return r.reporter.Stop()
}
