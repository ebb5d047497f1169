package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/pricecast-go/internal/logging"
)

// ForecastCacheStats tracks cache performance metrics
type ForecastCacheStats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Sets          int64 `json:"sets"`
	Invalidations int64 `json:"invalidations"`
}

// ForecastKey identifies one cached forecast response.
type ForecastKey struct {
	Article  string
	Days     int
	Scenario string
	Model    string
}

func (k ForecastKey) String() string {
	return fmt.Sprintf("%s:%d:%s:%s", k.Article, k.Days, k.Scenario, k.Model)
}

// ForecastCache stores rendered forecast responses in Redis.
type ForecastCache struct {
	redis  *redis.Client
	ttl    time.Duration
	prefix string
	logger logrus.FieldLogger

	mu    sync.RWMutex
	stats ForecastCacheStats
}

// NewForecastCache creates a new Redis-based forecast cache
func NewForecastCache(redisClient *redis.Client, ttl time.Duration, logger logrus.FieldLogger) *ForecastCache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ForecastCache{
		redis:  redisClient,
		ttl:    ttl,
		prefix: "forecast:",
		logger: logger,
	}
}

func (c *ForecastCache) articlePrefix(article string) string {
	return c.prefix + article + ":"
}

// globEscaper quotes the SCAN MATCH metacharacters so an article is matched
// literally.
var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

func (c *ForecastCache) key(k ForecastKey) string {
	return c.prefix + k.String()
}

// Get decodes the cached value for k into dest and reports whether it was found.
// Redis errors count as misses.
func (c *ForecastCache) Get(ctx context.Context, k ForecastKey, dest any) bool {
	start := time.Now()
	hit := c.get(ctx, k, dest)
	logging.LogCacheOperation(c.logger, "get", c.key(k), hit, time.Since(start).Milliseconds())
	return hit
}

func (c *ForecastCache) get(ctx context.Context, k ForecastKey, dest any) bool {
	data, err := c.redis.Get(ctx, c.key(k)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("key", k.String()).Warn("Redis error reading forecast cache")
		}
		c.record(func(s *ForecastCacheStats) { s.Misses++ })
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.WithError(err).WithField("key", k.String()).Warn("Discarding undecodable forecast cache entry")
		c.record(func(s *ForecastCacheStats) { s.Misses++ })
		return false
	}

	c.record(func(s *ForecastCacheStats) { s.Hits++ })
	return true
}

// Set stores value under k for the configured TTL.
func (c *ForecastCache) Set(ctx context.Context, k ForecastKey, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error serializing forecast: %w", err)
	}
	if err := c.redis.Set(ctx, c.key(k), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("error caching forecast: %w", err)
	}
	c.record(func(s *ForecastCacheStats) { s.Sets++ })
	return nil
}

// InvalidateArticle removes every cached forecast of an article.
func (c *ForecastCache) InvalidateArticle(ctx context.Context, article string) (int, error) {
	keys, err := c.scan(ctx, globEscaper.Replace(c.articlePrefix(article))+"*")
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("error clearing forecast cache: %w", err)
	}
	c.record(func(s *ForecastCacheStats) { s.Invalidations += int64(len(keys)) })
	return len(keys), nil
}

// Clear removes every cached forecast.
func (c *ForecastCache) Clear(ctx context.Context) error {
	keys, err := c.scan(ctx, c.prefix+"*")
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("error clearing forecast cache: %w", err)
	}
	c.logger.WithField("entries", len(keys)).Info("Cleared forecast cache")
	return nil
}

// CachedArticles lists articles with at least one cached forecast.
func (c *ForecastCache) CachedArticles(ctx context.Context) ([]string, error) {
	keys, err := c.scan(ctx, c.prefix+"*")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	articles := make([]string, 0)
	for _, key := range keys {
		rest := strings.TrimPrefix(key, c.prefix)
		article, _, ok := strings.Cut(rest, ":")
		if !ok {
			continue
		}
		if _, dup := seen[article]; dup {
			continue
		}
		seen[article] = struct{}{}
		articles = append(articles, article)
	}
	return articles, nil
}

// Stats returns current cache statistics
func (c *ForecastCache) Stats() ForecastCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// HitRate returns hits as a percentage of lookups.
func (c *ForecastCache) HitRate() float64 {
	s := c.Stats()
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

func (c *ForecastCache) record(update func(s *ForecastCacheStats)) {
	c.mu.Lock()
	update(&c.stats)
	c.mu.Unlock()
}

func (c *ForecastCache) scan(ctx context.Context, pattern string) ([]string, error) {
	// Get all keys matching the pattern using SCAN for better performance
	var keys []string
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("error scanning cache keys: %w", err)
	}
	return keys, nil
}
