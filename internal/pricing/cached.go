package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-sri/internal/contracts"
	"github.com/wonny/aegis-sri/pkg/logger"
	"github.com/wonny/aegis-sri/pkg/redis"
)

// Cache is the subset of redis.Cache the price cache needs
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CachedSource is a contracts.PriceSource that keeps last trade prices
// for ttl. Cache errors fall through to the wrapped source.
type CachedSource struct {
	source contracts.PriceSource
	cache  Cache
	ttl    time.Duration
	logger *logger.Logger
}

var _ contracts.PriceSource = (*CachedSource)(nil)

// NewCachedSource wraps source with cache
func NewCachedSource(source contracts.PriceSource, cache Cache, ttl time.Duration, log *logger.Logger) *CachedSource {
	return &CachedSource{
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: log,
	}
}

// Wrap returns source unchanged when ttl is zero, else a CachedSource
func Wrap(source contracts.PriceSource, cache Cache, ttl time.Duration, log *logger.Logger) contracts.PriceSource {
	if ttl <= 0 || cache == nil {
		return source
	}
	return NewCachedSource(source, cache, ttl, log)
}

// GetLastTradePrice implements contracts.PriceSource
func (s *CachedSource) GetLastTradePrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	key := redis.LastTradeKey(symbol)

	var cached decimal.Decimal
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.WithError(err).WithField("symbol", symbol).Warn("Price cache read failed")
	}
	if found && cached.IsPositive() {
		s.logger.WithField("symbol", symbol).Debug("Price cache hit")
		return cached, nil
	}

	price, err := s.source.GetLastTradePrice(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}

	if err := s.cache.Set(ctx, key, price, s.ttl); err != nil {
		s.logger.WithError(err).WithField("symbol", symbol).Warn("Price cache write failed")
	}

	return price, nil
}
