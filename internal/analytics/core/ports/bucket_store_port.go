package ports

import (
	"context"
	"time"

	"webhook-analytics-service/internal/analytics/core/domain"
)

// BucketStore persists metric buckets.
type BucketStore interface {
	// UpsertBucket atomically creates the bucket for key if absent, adds
	// inc to its counters and recomputes its derived fields. Concurrent
	// calls for the same key must not lose increments.
	UpsertBucket(ctx context.Context, key domain.BucketKey, inc domain.Increment) (*domain.MetricBucket, error)
}

type BucketFilter struct {
	TenantID string
	Type     domain.MetricType
	Period   domain.Period
	From     time.Time // inclusive, compared against bucket_start
	To       time.Time // inclusive
}

type BucketReader interface {
	// FindBuckets returns matching buckets ordered by bucket_start.
	FindBuckets(ctx context.Context, f BucketFilter) ([]domain.MetricBucket, error)
}
