package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"webhook-analytics-service/internal/analytics/core/domain"
	"webhook-analytics-service/internal/analytics/core/usecase"
	"webhook-analytics-service/internal/platform/logger"
)

// RollupQuerier is implemented by usecase.QueryRollupUseCase.
type RollupQuerier interface {
	Execute(ctx context.Context, in usecase.QueryRollupInput) (*domain.RollupResult, error)
	ExecutePanel(ctx context.Context, panel string, in usecase.QueryRollupInput) (*domain.RollupResult, error)
}

// KV is the subset of the redis client the cache needs.
type KV interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
}

// CachedRollup is a read-through cache in front of the rollup engine.
// Entries expire after ttl; writes do not invalidate them, so dashboards
// may lag ingestion by at most ttl. Cache failures fall through to the
// engine.
type CachedRollup struct {
	inner RollupQuerier
	kv    KV
	ttl   time.Duration
	log   *logger.Logger
	now   func() time.Time
}

func NewCachedRollup(inner RollupQuerier, kv KV, ttl time.Duration, log *logger.Logger) *CachedRollup {
	return &CachedRollup{
		inner: inner,
		kv:    kv,
		ttl:   ttl,
		log:   log.With("component", "RollupCache"),
		now:   time.Now,
	}
}

func (c *CachedRollup) Execute(ctx context.Context, in usecase.QueryRollupInput) (*domain.RollupResult, error) {
	return c.cached(ctx, c.key("query", in), func() (*domain.RollupResult, error) {
		return c.inner.Execute(ctx, in)
	})
}

func (c *CachedRollup) ExecutePanel(ctx context.Context, panel string, in usecase.QueryRollupInput) (*domain.RollupResult, error) {
	return c.cached(ctx, c.key("panel:"+panel, in), func() (*domain.RollupResult, error) {
		return c.inner.ExecutePanel(ctx, panel, in)
	})
}

func (c *CachedRollup) cached(ctx context.Context, key string, load func() (*domain.RollupResult, error)) (*domain.RollupResult, error) {
	raw, err := c.kv.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var res domain.RollupResult
		if jerr := json.Unmarshal(raw, &res); jerr == nil {
			return &res, nil
		}
		c.log.Warn("discarding undecodable rollup cache entry", "key", key)
	case !errors.Is(err, goredis.Nil):
		c.log.Warn("rollup cache read failed", "key", key, "error", err)
	}

	res, err := load()
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return res, nil
	}
	if err := c.kv.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.Warn("rollup cache write failed", "key", key, "error", err)
	}
	return res, nil
}

// key identifies a query. Named periods resolve against the clock, so the
// current minute is part of their key.
func (c *CachedRollup) key(kind string, in usecase.QueryRollupInput) string {
	window := fmt.Sprintf("%d-%d", in.From, in.To)
	if in.Period != "" {
		window = fmt.Sprintf("%s@%d", in.Period, c.now().UTC().Truncate(time.Minute).Unix())
	}
	return fmt.Sprintf("rollup:%s:%s:%s:%s:%s:%s", kind, in.TenantID, in.Type, in.Granularity, in.GroupBy, window)
}
