package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-sri/pkg/config"
	"github.com/wonny/aegis-sri/pkg/logger"
	"github.com/wonny/aegis-sri/pkg/redis"
)

type countingSource struct {
	price decimal.Decimal
	err   error
	calls int
}

func (s *countingSource) GetLastTradePrice(context.Context, string) (decimal.Decimal, error) {
	s.calls++
	return s.price, s.err
}

type memoryCache struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	if c.failGet {
		return false, errors.New("connection refused")
	}
	data, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = data
	c.ttls[key] = ttl
	return nil
}

func TestCachedSource_HitAfterMiss(t *testing.T) {
	src := &countingSource{price: decimal.RequireFromString("10.01")}
	cache := newMemoryCache()
	s := NewCachedSource(src, cache, 30*time.Second, logger.Nop())

	for i := 0; i < 3; i++ {
		price, err := s.GetLastTradePrice(context.Background(), "PHO")
		require.NoError(t, err)
		assert.True(t, price.Equal(decimal.RequireFromString("10.01")))
	}

	assert.Equal(t, 1, src.calls)
	assert.Equal(t, 30*time.Second, cache.ttls["price:last:PHO"])
}

func TestCachedSource_CacheErrorFallsThrough(t *testing.T) {
	src := &countingSource{price: decimal.RequireFromString("5")}
	cache := newMemoryCache()
	cache.failGet = true
	s := NewCachedSource(src, cache, time.Minute, logger.Nop())

	price, err := s.GetLastTradePrice(context.Background(), "ICLN")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("5")))
	assert.Equal(t, 1, src.calls)
}

func TestCachedSource_SourceErrorNotCached(t *testing.T) {
	src := &countingSource{err: errors.New("no trades")}
	cache := newMemoryCache()
	s := NewCachedSource(src, cache, time.Minute, logger.Nop())

	_, err := s.GetLastTradePrice(context.Background(), "XBI")
	assert.Error(t, err)
	assert.Empty(t, cache.data)
}

func TestWrap(t *testing.T) {
	src := &countingSource{price: decimal.NewFromInt(1)}

	assert.Same(t, src, Wrap(src, newMemoryCache(), 0, logger.Nop()))
	assert.IsType(t, &CachedSource{}, Wrap(src, newMemoryCache(), time.Second, logger.Nop()))
}

func TestCachedSource_DisabledRedis(t *testing.T) {
	client, err := redis.New(context.Background(), &config.Config{})
	require.NoError(t, err)

	src := &countingSource{price: decimal.NewFromInt(7)}
	s := NewCachedSource(src, redis.NewCache(client, "sri"), time.Minute, logger.Nop())

	for i := 0; i < 2; i++ {
		_, err := s.GetLastTradePrice(context.Background(), "SHE")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, src.calls, "disabled cache always misses")
}
