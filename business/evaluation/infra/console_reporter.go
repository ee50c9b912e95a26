package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fd1az/arbeval/business/evaluation/domain"
)

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	out io.Writer

	// Verbose prints rejected evaluations too.
	Verbose bool
}

// NewConsoleReporter creates a new ConsoleReporter writing to stdout.
func NewConsoleReporter(verbose bool) *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout, Verbose: verbose}
}

// Start initializes the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	fmt.Fprintln(r.out, "Arbitrage Evaluation Engine Started")
	fmt.Fprintln(r.out, "===================================")
	return nil
}

// Report outputs one evaluation to the console. Rejected evaluations
// are summarized on one line unless Verbose is set.
func (r *ConsoleReporter) Report(ev *domain.Evaluation) {
	if !ev.Approved && !r.Verbose {
		fmt.Fprintf(r.out, "[%s] %s %s->%s  REJECTED (%s, score %.2f)\n",
			ev.EvaluatedAt.Format("15:04:05"),
			ev.Candidate.Pair.String(),
			ev.Candidate.BuyVenue, ev.Candidate.SellVenue,
			ev.Risk.Level, ev.Risk.Score,
		)
		return
	}

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "================================================================================")
	if ev.Approved {
		fmt.Fprintln(r.out, "TRADE CANDIDATE APPROVED")
	} else {
		fmt.Fprintln(r.out, "TRADE CANDIDATE REJECTED")
	}
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintf(r.out, "Timestamp:      %s\n", ev.EvaluatedAt.Format(time.RFC3339))
	fmt.Fprintf(r.out, "Pair:           %s\n", ev.Candidate.Pair.String())
	fmt.Fprintf(r.out, "Route:          %s -> %s\n", ev.Candidate.BuyVenue, ev.Candidate.SellVenue)
	fmt.Fprintf(r.out, "Notional:       $%.2f\n", ev.Candidate.NotionalUSD)
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "PRICES")
	fmt.Fprintf(r.out, "  Buy:            $%.4f on %s\n", ev.Spread.BuyPrice, ev.Spread.BuyVenue)
	fmt.Fprintf(r.out, "  Sell:           $%.4f on %s\n", ev.Spread.SellPrice, ev.Spread.SellVenue)
	fmt.Fprintf(r.out, "  Spread:         %.2f bps\n", ev.Spread.BasisPoints)
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "COSTS")
	fmt.Fprintf(r.out, "  Fees:           $%s\n", ev.Costs.BuyFeeUSD.Add(ev.Costs.SellFeeUSD).StringFixed(2))
	fmt.Fprintf(r.out, "  Gas:            $%s\n", ev.Costs.GasCostUSD.StringFixed(2))
	fmt.Fprintf(r.out, "  Slippage:       $%s (%.2f%% / %.2f%%)\n",
		ev.Costs.SlippageCostUSD.StringFixed(2), ev.BuySlippagePct, ev.SellSlippagePct)
	if !ev.Costs.LoanFeeUSD.IsZero() {
		fmt.Fprintf(r.out, "  Loan Fee:       $%s\n", ev.Costs.LoanFeeUSD.StringFixed(2))
	}
	fmt.Fprintf(r.out, "  Total:          $%s\n", ev.Costs.TotalCostUSD.StringFixed(2))
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "PROFIT")
	fmt.Fprintf(r.out, "  Gross:          $%s\n", ev.Costs.GrossProfitUSD.StringFixed(2))
	fmt.Fprintf(r.out, "  Net:            $%s (%s%% ROI)\n",
		ev.Costs.NetProfitUSD.StringFixed(2), ev.Costs.ROIPct.StringFixed(3))
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "RISK")
	fmt.Fprintf(r.out, "  Score:          %.2f (%s)\n", ev.Risk.Score, ev.Risk.Level)
	for _, f := range ev.Risk.Factors {
		fmt.Fprintf(r.out, "  - %s\n", f.Detail)
	}
	for _, rec := range ev.Risk.Recommendations {
		fmt.Fprintf(r.out, "  > %s\n", rec)
	}
	if ev.RecommendedSizeUSD > 0 {
		fmt.Fprintf(r.out, "  Suggested Size: $%.2f\n", ev.RecommendedSizeUSD)
	}
	for _, d := range ev.Diagnostics {
		fmt.Fprintf(r.out, "  note: %s\n", d)
	}
	fmt.Fprintln(r.out, "================================================================================")
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Arbitrage Evaluation Engine Stopped")
	return nil
}
