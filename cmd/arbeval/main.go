// Package main is the entry point for the arbitrage evaluation engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	costingApp "github.com/fd1az/arbeval/business/costing/app"
	evaluationApp "github.com/fd1az/arbeval/business/evaluation/app"
	evaluationInfra "github.com/fd1az/arbeval/business/evaluation/infra"
	pricingApp "github.com/fd1az/arbeval/business/pricing/app"
	pricingDomain "github.com/fd1az/arbeval/business/pricing/domain"
	riskApp "github.com/fd1az/arbeval/business/risk/app"
	"github.com/fd1az/arbeval/internal/apm"
	"github.com/fd1az/arbeval/internal/asset"
	"github.com/fd1az/arbeval/internal/config"
	"github.com/fd1az/arbeval/internal/health"
	"github.com/fd1az/arbeval/internal/logger"
	"github.com/fd1az/arbeval/internal/metrics"
	"github.com/fd1az/arbeval/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Parse flags
	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	verbose := flag.Bool("verbose", false, "Print rejected evaluations in CLI mode")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("arbeval %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for debugging
	tuiMode := !*cliMode

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	// Run application
	if err := run(ctx, *configPath, tuiMode, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode, verbose bool) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Demo.TUIMode = tuiMode

	// Setup logger (suppress output in TUI mode)
	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	var log *logger.Logger
	if tuiMode {
		log = logger.New(io.Discard, logLevel, cfg.App.Name, nil)
	} else {
		log = logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
		log.Info(ctx, "starting arbitrage evaluation engine",
			"version", version,
			"environment", cfg.App.Environment,
		)
	}

	// Initialize observability if enabled
	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info(ctx, "tracing initialized", "provider", "zipkin", "endpoint", cfg.Telemetry.OTLPEndpoint)

		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	// Start health check server
	healthPort := cfg.Telemetry.HealthPort
	if healthPort == 0 {
		healthPort = 8081
	}
	healthServer := health.NewServer(healthPort, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", healthPort)
	}
	defer healthServer.Stop(ctx)

	// Build the engine and its collaborators
	venues := buildVenues(cfg)
	pairs, err := parsePairs(cfg.Demo.Pairs)
	if err != nil {
		return err
	}

	quoteSource := evaluationInfra.NewSyntheticQuoteSource(evaluationInfra.SyntheticConfig{
		BasePrices:   cfg.Demo.BasePrices,
		VenueBiasPct: cfg.Demo.VenueBiasPct,
		JitterPct:    cfg.Demo.JitterPct,
		LiquidityUSD: cfg.Demo.VenueLiquidityUSD,
	})

	fetch := evaluationInfra.PriceFetcher(func(context.Context) (float64, error) {
		return cfg.Demo.GasTokenPriceUSD, nil
	})
	if cfg.Demo.GasTokenPriceURL != "" {
		httpSource, err := evaluationInfra.NewHTTPGasTokenPriceSource(evaluationInfra.HTTPGasTokenPriceConfig{
			URL: cfg.Demo.GasTokenPriceURL,
		})
		if err != nil {
			return err
		}
		fetch = httpSource.TokenPriceUSD
	}
	gasSource := evaluationInfra.NewCachedGasTokenPriceSource(fetch, 30*time.Second, log)
	defer gasSource.Close()

	engine, err := evaluationApp.NewEngine(
		evaluationApp.EngineConfig{
			QuoteTTL:             cfg.Engine.QuoteTTL,
			EstimatedExecutionMs: cfg.Engine.EstimatedExecutionMs,
			SizingImpactPct:      cfg.Engine.SizingImpactPct,
		},
		log,
		quoteSource,
		gasSource,
		venues,
		pricingApp.NewSanityFilter(buildSanityConfig(cfg), venues),
		costingApp.NewFeeCatalog(buildFeeConfig(cfg)),
		costingApp.NewImpactModel(buildImpactConfig(cfg)),
		costingApp.NewSlippageEstimator(buildSlippageConfig(cfg)),
		costingApp.NewCostAggregator(buildCostConfig(cfg)),
		riskApp.NewScorer(buildThresholds(cfg)),
	)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}

	var reporter evaluationApp.Reporter
	if tuiMode {
		reporter = evaluationInfra.NewTUIReporter()
	} else {
		reporter = evaluationInfra.NewConsoleReporter(verbose)
	}

	runner := evaluationApp.NewRunner(engine, reporter, evaluationApp.RunnerConfig{
		Pairs:          pairs,
		TradeSizesUSD:  cfg.Demo.TradeSizes,
		Venues:         venueIDs(cfg),
		TicksPerMinute: cfg.Demo.TicksPerMinute,
		GasPriceGwei:   cfg.Demo.GasPriceGwei,
	}, log)

	if tuiMode {
		return runTUI(ctx, runner)
	}
	return runCLI(ctx, runner, log)
}

func runCLI(ctx context.Context, runner *evaluationApp.Runner, log *logger.Logger) error {
	log.Info(ctx, "beginning continuous evaluation")

	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start runner: %w", err)
	}

	<-ctx.Done()

	log.Info(ctx, "shutting down")
	return runner.Stop()
}

func runTUI(ctx context.Context, runner *evaluationApp.Runner) error {
	p := tea.NewProgram(ui.New(), tea.WithAltScreen())
	ui.Program = p

	errCh := make(chan error, 1)
	go func() {
		if err := runner.Start(ctx); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}
		<-ctx.Done()
		runner.Stop()
		errCh <- nil
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// buildVenues turns venue configuration into domain venues keyed by ID.
func buildVenues(cfg *config.Config) map[string]pricingDomain.Venue {
	registry := asset.DefaultRegistry()

	out := make(map[string]pricingDomain.Venue, len(cfg.Venues))
	for _, vc := range cfg.Venues {
		v := pricingDomain.NewVenue(vc.ID, vc.ProtocolVersion)
		if vc.ImpactFactor > 0 {
			v.ImpactFactor = vc.ImpactFactor
		}
		if vc.LiquidityMultiplier > 0 {
			v.LiquidityMultiplier = vc.LiquidityMultiplier
		}
		if vc.SlippageMultiplier > 0 {
			v.SlippageMultiplier = vc.SlippageMultiplier
		}
		v.Tiered = vc.Tiered
		for _, raw := range vc.UnreliablePairs {
			if pair, err := parsePair(registry, raw); err == nil {
				v.FlagUnreliable(pair)
			}
		}
		out[vc.ID] = v
	}
	return out
}

func venueIDs(cfg *config.Config) []string {
	ids := make([]string, 0, len(cfg.Venues))
	for _, vc := range cfg.Venues {
		ids = append(ids, vc.ID)
	}
	return ids
}

func parsePairs(raw []string) ([]pricingDomain.Pair, error) {
	registry := asset.DefaultRegistry()
	pairs := make([]pricingDomain.Pair, 0, len(raw))
	for _, r := range raw {
		pair, err := parsePair(registry, r)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

func parsePair(registry *asset.Registry, raw string) (pricingDomain.Pair, error) {
	parts := strings.SplitN(raw, "-", 2)
	if len(parts) != 2 {
		return pricingDomain.Pair{}, fmt.Errorf("invalid pair %q, want BASE-QUOTE", raw)
	}
	base, ok := registry.GetBySymbolAndChain(parts[0], asset.ChainIDEthereum)
	if !ok {
		return pricingDomain.Pair{}, fmt.Errorf("unknown asset %q in pair %q", parts[0], raw)
	}
	quote, ok := registry.GetBySymbolAndChain(parts[1], asset.ChainIDEthereum)
	if !ok {
		return pricingDomain.Pair{}, fmt.Errorf("unknown asset %q in pair %q", parts[1], raw)
	}
	return pricingDomain.NewPair(base, quote), nil
}

func buildFeeConfig(cfg *config.Config) costingApp.FeeConfig {
	fc := costingApp.FeeConfig{
		GlobalDefault: cfg.Fees.GlobalDefault,
		DefaultTier:   cfg.Fees.DefaultTier,
		Venues:        make(map[string]costingApp.VenueFeeSchedule, len(cfg.Venues)),
	}
	for _, vc := range cfg.Venues {
		fc.Venues[vc.ID] = costingApp.VenueFeeSchedule{
			Versions: map[string]costingApp.VersionFees{
				vc.ProtocolVersion: {Default: vc.DefaultFeeRate},
			},
		}
	}
	// Overrides use "venue/version/PAIR-KEY" keys.
	for key, rate := range cfg.Fees.PairOverrides {
		parts := strings.SplitN(key, "/", 3)
		if len(parts) != 3 {
			continue
		}
		sched, ok := fc.Venues[parts[0]]
		if !ok {
			continue
		}
		vf := sched.Versions[parts[1]]
		if vf.Overrides == nil {
			vf.Overrides = make(map[string]float64)
		}
		vf.Overrides[parts[2]] = rate
		sched.Versions[parts[1]] = vf
	}
	return fc
}

func buildImpactConfig(cfg *config.Config) costingApp.ImpactConfig {
	ic := costingApp.DefaultImpactConfig()
	ic.Dampening = cfg.Impact.Dampening
	ic.FloorPct = cfg.Impact.FloorPct
	ic.BlueChipDiscount = cfg.Impact.BlueChipDiscount
	ic.MaxAcceptablePct = cfg.Impact.MaxAcceptablePct
	ic.WarningPct = cfg.Impact.WarningPct
	ic.CriticalPct = cfg.Impact.CriticalPct
	ic.MinSizeUSD = cfg.Impact.MinSizeUSD
	ic.MaxSizeUSD = cfg.Impact.MaxSizeUSD
	if cfg.Impact.MaxSizeUSDExtended > 0 {
		ic.MaxSizeUSDExtended = cfg.Impact.MaxSizeUSDExtended
	}
	if len(cfg.Impact.ClassLiquidityUSD) > 0 {
		ic.ClassLiquidityUSD = make(map[asset.Class]float64, len(cfg.Impact.ClassLiquidityUSD))
		for class, liq := range cfg.Impact.ClassLiquidityUSD {
			ic.ClassLiquidityUSD[asset.Class(class)] = liq
		}
	}
	if cfg.Impact.BlueChipSizeBonus > 0 {
		ic.BlueChipSizeBonus = cfg.Impact.BlueChipSizeBonus
	}
	if len(cfg.Impact.BlueChipSymbols) > 0 {
		ic.BlueChipSymbols = make(map[string]bool, len(cfg.Impact.BlueChipSymbols))
		for _, s := range cfg.Impact.BlueChipSymbols {
			ic.BlueChipSymbols[s] = true
		}
	}
	return ic
}

func buildSlippageConfig(cfg *config.Config) costingApp.SlippageConfig {
	sc := costingApp.DefaultSlippageConfig()
	sc.BasePct = cfg.Slippage.BasePct
	sc.VolatilityWeight = cfg.Slippage.VolatilityWeight
	sc.SizeWeight = cfg.Slippage.SizeWeight
	sc.GasWeight = cfg.Slippage.GasWeight
	sc.MaxPct = cfg.Slippage.MaxPct
	sc.StaleTTL = cfg.Slippage.StaleTTL
	return sc
}

func buildCostConfig(cfg *config.Config) costingApp.CostConfig {
	return costingApp.CostConfig{
		LoanFeeRate:        cfg.Cost.LoanFeeRate,
		DefaultSlippagePct: cfg.Cost.DefaultSlippagePct,
		SingleHopGasUnits:  cfg.Cost.SingleHopGasUnits,
		FlashLoanGasUnits:  cfg.Cost.FlashLoanGasUnits,
		MinROIPct:          cfg.Cost.MinROIPct,
		SafetyBuffer:       cfg.Cost.SafetyBuffer,
		OptimalMinUSD:      cfg.Cost.OptimalMinUSD,
		OptimalMaxUSD:      cfg.Cost.OptimalMaxUSD,
	}
}

func buildSanityConfig(cfg *config.Config) pricingApp.SanityConfig {
	sc := pricingApp.DefaultSanityConfig()
	if cfg.Sanity.MaxDeviationPct > 0 {
		sc.MaxDeviationPct = cfg.Sanity.MaxDeviationPct
	}
	if cfg.Sanity.UnreliableFactor > 0 {
		sc.UnreliableFactor = cfg.Sanity.UnreliableFactor
	}
	return sc
}

func buildThresholds(cfg *config.Config) riskApp.Thresholds {
	return riskApp.Thresholds{
		MaxSlippagePct:  cfg.Risk.MaxSlippagePct,
		SevereRatio:     cfg.Risk.SevereRatio,
		MaxGasGwei:      cfg.Risk.MaxGasGwei,
		MinLiquidityUSD: cfg.Risk.MinLiquidityUSD,
		MinConfidence:   cfg.Risk.MinConfidence,
		MaxExecutionMs:  cfg.Risk.MaxExecutionMs,
		LowScore:        cfg.Risk.LowScore,
		ApproveScore:    cfg.Risk.ApproveScore,
		MaxFactors:      cfg.Risk.MaxFactors,
	}
}
