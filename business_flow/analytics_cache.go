package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/amirphl/listing-price-history/app/dto"
	"github.com/amirphl/listing-price-history/models"
	"github.com/amirphl/listing-price-history/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var analysisCacheRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "price_analysis_cache_requests_total",
		Help: "Price analysis cache lookups partitioned by result (hit, miss, error)",
	},
	[]string{"result"},
)

// CacheBackend is the key/value store behind AnalyticsCache
type CacheBackend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Incr atomically adds one to the integer stored at key, starting from zero
	Incr(ctx context.Context, key string) (int64, error)
}

// AnalyticsCache memoizes price analyses per (listing, type, granularity, lookback, period).
// Every key also carries the listing's generation; Invalidate bumps it so entries written
// before the bump, including ones stored by a read that raced the write, are never served.
// A nil backend or a failing one degrades to computing every time.
type AnalyticsCache struct {
	backend CacheBackend
	prefix  string
	ttl     time.Duration
}

func NewAnalyticsCache(backend CacheBackend, prefix string, ttl time.Duration) *AnalyticsCache {
	if ttl <= 0 {
		ttl = utils.AnalyticsCacheTTL
	}
	return &AnalyticsCache{
		backend: backend,
		prefix:  prefix,
		ttl:     ttl,
	}
}

// Key returns the cache key of one analysis
func (c *AnalyticsCache) Key(listingID uint, generation int64, transactionType models.TransactionType, granularity models.Granularity, lookback int, period string) string {
	return redisKey(c.keyPrefix(), fmt.Sprintf(utils.PriceAnalysisCacheKey, listingID, generation, transactionType, granularity, lookback, period))
}

func (c *AnalyticsCache) generationKey(listingID uint) string {
	return redisKey(c.keyPrefix(), fmt.Sprintf(utils.PriceAnalysisGenerationKey, listingID))
}

func (c *AnalyticsCache) keyPrefix() string {
	if c == nil {
		return ""
	}
	return c.prefix
}

// Generation reads the invalidation counter of a listing; a listing never invalidated is at zero
func (c *AnalyticsCache) Generation(ctx context.Context, listingID uint) (int64, error) {
	raw, found, err := c.backend.Get(ctx, c.generationKey(listingID))
	if err != nil || !found {
		return 0, err
	}
	gen, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price analysis generation %q: %w", raw, err)
	}
	return gen, nil
}

// GetOrCompute returns the cached analysis of the window ending in the period containing
// now, or stores the result of compute. Errors of compute are returned as is and nothing
// is cached.
func (c *AnalyticsCache) GetOrCompute(
	ctx context.Context,
	listingID uint,
	transactionType models.TransactionType,
	granularity models.Granularity,
	lookback int,
	now time.Time,
	compute func() (*dto.PriceAnalysis, error),
) (*dto.PriceAnalysis, error) {
	if c == nil || c.backend == nil {
		return compute()
	}

	gen, err := c.Generation(ctx, listingID)
	if err != nil {
		analysisCacheRequests.WithLabelValues("error").Inc()
		log.Warn().Err(err).Uint("listing_id", listingID).Msg("price analysis generation read failed, bypassing cache")
		return compute()
	}
	key := c.Key(listingID, gen, transactionType, granularity, lookback, periodKey(periodStart(now, granularity), granularity))

	raw, found, err := c.backend.Get(ctx, key)
	switch {
	case err != nil:
		analysisCacheRequests.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("key", key).Msg("price analysis cache read failed, recomputing")
	case found:
		var cached dto.PriceAnalysis
		if uerr := json.Unmarshal(raw, &cached); uerr == nil {
			analysisCacheRequests.WithLabelValues("hit").Inc()
			return &cached, nil
		}
		analysisCacheRequests.WithLabelValues("error").Inc()
		log.Warn().Str("key", key).Msg("discarding undecodable price analysis cache entry")
	default:
		analysisCacheRequests.WithLabelValues("miss").Inc()
	}

	analysis, err := compute()
	if err != nil {
		return nil, err
	}

	if bs, merr := json.Marshal(analysis); merr == nil {
		if serr := c.backend.Set(ctx, key, bs, c.ttl); serr != nil {
			log.Warn().Err(serr).Str("key", key).Msg("price analysis cache write failed")
		}
	}
	return analysis, nil
}

// Invalidate retires every cached analysis of a listing by bumping its generation.
// Retired entries are left to expire with their TTL.
func (c *AnalyticsCache) Invalidate(ctx context.Context, listingID uint) error {
	if c == nil || c.backend == nil {
		return nil
	}
	_, err := c.backend.Incr(ctx, c.generationKey(listingID))
	return err
}

func redisKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}

// RedisCacheBackend stores analyses in redis
type RedisCacheBackend struct {
	rc *redis.Client
}

func NewRedisCacheBackend(rc *redis.Client) *RedisCacheBackend {
	return &RedisCacheBackend{rc: rc}
}

func (b *RedisCacheBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	bs, err := b.rc.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return bs, true, nil
}

func (b *RedisCacheBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.rc.Set(ctx, key, value, ttl).Err()
}

func (b *RedisCacheBackend) Incr(ctx context.Context, key string) (int64, error) {
	return b.rc.Incr(ctx, key).Result()
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCacheBackend is a process-local backend used when redis is disabled and in tests
type MemoryCacheBackend struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCacheBackend() *MemoryCacheBackend {
	return &MemoryCacheBackend{
		entries: make(map[string]memoryEntry),
		now:     utils.UTCNow,
	}
}

func (b *MemoryCacheBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !b.now().Before(e.expiresAt) {
		delete(b.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (b *MemoryCacheBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = b.now().Add(ttl)
	}
	b.entries[key] = e
	return nil
}

func (b *MemoryCacheBackend) Incr(_ context.Context, key string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var n int64
	if e, ok := b.entries[key]; ok && (e.expiresAt.IsZero() || b.now().Before(e.expiresAt)) {
		v, err := strconv.ParseInt(string(e.value), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value at %s is not an integer: %w", key, err)
		}
		n = v
	}
	n++
	b.entries[key] = memoryEntry{value: []byte(strconv.FormatInt(n, 10))}
	return n, nil
}

// Len reports the number of stored entries, expired ones included
func (b *MemoryCacheBackend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
