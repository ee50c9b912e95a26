package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/fd1az/arbeval/internal/apperror"
	"github.com/fd1az/arbeval/internal/httpclient"
)

// HTTPGasTokenPriceConfig configures the HTTP-backed price source.
type HTTPGasTokenPriceConfig struct {
	// URL returns a JSON body containing the token price.
	URL string

	// Timeout bounds each request.
	Timeout time.Duration
}

// priceResponse is the expected response shape:
// {"price_usd": 3400.12}
type priceResponse struct {
	PriceUSD float64 `json:"price_usd"`
}

// HTTPGasTokenPriceSource fetches the gas token price over HTTP. Wrap
// it in a CachedGasTokenPriceSource to add caching and a breaker.
type HTTPGasTokenPriceSource struct {
	cfg    HTTPGasTokenPriceConfig
	client httpclient.Client
}

// NewHTTPGasTokenPriceSource creates an HTTP price source.
func NewHTTPGasTokenPriceSource(cfg HTTPGasTokenPriceConfig) (*HTTPGasTokenPriceSource, error) {
	if cfg.URL == "" {
		return nil, apperror.Required("url")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("gas-token-price"),
		httpclient.WithRequestTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("build http client: %w", err)
	}

	return &HTTPGasTokenPriceSource{cfg: cfg, client: client}, nil
}

// TokenPriceUSD fetches the current price.
func (s *HTTPGasTokenPriceSource) TokenPriceUSD(ctx context.Context) (float64, error) {
	var result priceResponse

	resp, err := s.client.NewRequest().
		SetResult(&result).
		Get(ctx, s.cfg.URL)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.CodeGasPriceUnavailable, s.cfg.URL)
	}
	if resp.IsError() {
		return 0, apperror.Validation(apperror.CodeGasPriceUnavailable,
			fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, s.cfg.URL))
	}
	if result.PriceUSD <= 0 {
		return 0, apperror.Validation(apperror.CodeGasPriceUnavailable, "response carried no usable price")
	}
	return result.PriceUSD, nil
}
