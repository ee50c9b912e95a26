// Package app contains the evaluation engine and its port definitions.
package app

import (
	"context"

	"github.com/fd1az/arbeval/business/evaluation/domain"
	pricingDomain "github.com/fd1az/arbeval/business/pricing/domain"
)

// QuoteSource supplies venue quotes for a pair. Implementations decide
// where quotes come from; the engine only consumes them.
type QuoteSource interface {
	// Quotes returns the current quote per venue. A venue missing from
	// the result means no quote is available there.
	Quotes(ctx context.Context, pair pricingDomain.Pair, venues []string) (map[string]pricingDomain.Quote, error)
}

// GasTokenPriceSource supplies the USD price of the gas token used to
// convert gas costs into dollars.
type GasTokenPriceSource interface {
	TokenPriceUSD(ctx context.Context) (float64, error)
}

// Reporter receives finished evaluations for display or logging.
type Reporter interface {
	Start(ctx context.Context) error
	Report(ev *domain.Evaluation)
	Stop() error
}
