package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"webhook-analytics-service/internal/analytics/core/domain"
	"webhook-analytics-service/internal/analytics/core/ports"
)

var (
	_ ports.BucketStore  = (*Store)(nil)
	_ ports.BucketReader = (*Store)(nil)
)

// Store keeps buckets in process memory. Every upsert runs under one
// mutex, which gives the same per-key atomicity as the document store.
type Store struct {
	mu      sync.RWMutex
	buckets map[string]*domain.MetricBucket
	now     func() time.Time
}

func New() *Store {
	return &Store{
		buckets: make(map[string]*domain.MetricBucket),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func keyString(k domain.BucketKey) string {
	return fmt.Sprintf("%s|%s|%s|%d", k.TenantID, k.Type, k.Period, k.BucketStart.UTC().Unix())
}

func (s *Store) UpsertBucket(_ context.Context, key domain.BucketKey, inc domain.Increment) (*domain.MetricBucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	k := keyString(key)
	b, ok := s.buckets[k]
	if !ok {
		b = domain.NewMetricBucket(uuid.NewString(), key, now)
		s.buckets[k] = b
	}
	b.Apply(inc, now)

	return cloneBucket(b), nil
}

func (s *Store) FindBuckets(_ context.Context, f ports.BucketFilter) ([]domain.MetricBucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.MetricBucket, 0)
	for _, b := range s.buckets {
		if b.TenantID != f.TenantID || b.Type != f.Type || b.Period != f.Period {
			continue
		}
		if b.BucketStart.Before(f.From) || b.BucketStart.After(f.To) {
			continue
		}
		result = append(result, *cloneBucket(b))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].BucketStart.Before(result[j].BucketStart) })
	return result, nil
}

// Get returns a copy of the bucket stored under key.
func (s *Store) Get(key domain.BucketKey) (*domain.MetricBucket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.buckets[keyString(key)]
	if !ok {
		return nil, false
	}
	return cloneBucket(b), true
}

// Len returns the number of stored buckets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets)
}

func cloneBucket(b *domain.MetricBucket) *domain.MetricBucket {
	out := *b
	out.Platforms = append([]domain.PlatformMetrics{}, b.Platforms...)
	return &out
}
