package infra

import (
	"context"
	"time"

	"github.com/fd1az/arbeval/internal/apperror"
	"github.com/fd1az/arbeval/internal/cache"
	"github.com/fd1az/arbeval/internal/circuitbreaker"
	"github.com/fd1az/arbeval/internal/logger"
)

// StaticGasTokenPriceSource always reports the same token price. Handy
// for tests and offline evaluation.
type StaticGasTokenPriceSource struct {
	PriceUSD float64
}

// TokenPriceUSD returns the configured price.
func (s StaticGasTokenPriceSource) TokenPriceUSD(context.Context) (float64, error) {
	if s.PriceUSD <= 0 {
		return 0, apperror.Validation(apperror.CodeGasPriceUnavailable, "no static price configured")
	}
	return s.PriceUSD, nil
}

// PriceFetcher fetches the gas token price from an external source.
type PriceFetcher func(ctx context.Context) (float64, error)

// CachedGasTokenPriceSource wraps a fetcher with a TTL cache and a
// circuit breaker so a flapping source cannot stall evaluations.
type CachedGasTokenPriceSource struct {
	fetch  PriceFetcher
	ttl    time.Duration
	logger logger.LoggerInterface

	cache *cache.Cache[string, float64]
	cb    *circuitbreaker.CircuitBreaker[float64]
}

const gasPriceCacheKey = "gas_token_usd"

// NewCachedGasTokenPriceSource creates a cached source over fetch.
func NewCachedGasTokenPriceSource(fetch PriceFetcher, ttl time.Duration, log logger.LoggerInterface) *CachedGasTokenPriceSource {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedGasTokenPriceSource{
		fetch:  fetch,
		ttl:    ttl,
		logger: log,
		cache:  cache.New[string, float64](5 * time.Minute),
		cb:     circuitbreaker.New[float64](circuitbreaker.DefaultConfig("gas-token-price")),
	}
}

// TokenPriceUSD returns the cached price when fresh, otherwise fetches
// through the breaker. An open breaker surfaces as CodeCircuitOpen.
func (s *CachedGasTokenPriceSource) TokenPriceUSD(ctx context.Context) (float64, error) {
	if price, ok := s.cache.Get(ctx, gasPriceCacheKey); ok {
		return price, nil
	}

	if s.cb.IsOpen() {
		return 0, apperror.Validation(apperror.CodeCircuitOpen, "gas token price source")
	}

	price, err := s.cb.Execute(func() (float64, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		return 0, apperror.Wrap(err, apperror.CodeGasPriceUnavailable, "fetch gas token price")
	}
	if price <= 0 {
		return 0, apperror.Validation(apperror.CodeGasPriceUnavailable, "source returned a non-positive price")
	}

	s.cache.Set(ctx, gasPriceCacheKey, price, s.ttl)
	s.logger.Debug(ctx, "gas token price refreshed", "price_usd", price)
	return price, nil
}

// Close releases the cache resources.
func (s *CachedGasTokenPriceSource) Close() {
	s.cache.Close()
}
