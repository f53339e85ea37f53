package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"webhook-analytics-service/internal/analytics/core/domain"
	"webhook-analytics-service/internal/analytics/core/usecase"
)

type fakeBucketStore struct {
	UpsertFn func(ctx context.Context, key domain.BucketKey, inc domain.Increment) (*domain.MetricBucket, error)
	keys     []domain.BucketKey
	incs     []domain.Increment
}

func (f *fakeBucketStore) UpsertBucket(ctx context.Context, key domain.BucketKey, inc domain.Increment) (*domain.MetricBucket, error) {
	f.keys = append(f.keys, key)
	f.incs = append(f.incs, inc)
	if f.UpsertFn != nil {
		return f.UpsertFn(ctx, key, inc)
	}
	return &domain.MetricBucket{}, nil
}

type fakeTenants struct {
	ExistsFn func(ctx context.Context, id string) (bool, error)
}

func (f *fakeTenants) TenantExists(ctx context.Context, id string) (bool, error) {
	if f.ExistsFn != nil {
		return f.ExistsFn(ctx, id)
	}
	return true, nil
}

func facebookDelta() domain.MetricDelta {
	return domain.MetricDelta{
		TenantID:   "org_1",
		Platform:   "facebook",
		Type:       domain.TypeSocial,
		OccurredAt: time.Date(2025, 5, 15, 14, 30, 0, 0, time.UTC),
		ReceivedAt: time.Date(2025, 5, 15, 14, 31, 0, 0, time.UTC),
		Counters: map[domain.Counter]int64{
			domain.CounterLikes:    5,
			domain.CounterComments: 2,
		},
	}
}

// ------------------------------------------------------------
// SUCCESS
// ------------------------------------------------------------

func TestApplyDelta_DailyBucketByDefault(t *testing.T) {
	store := &fakeBucketStore{}
	uc := usecase.NewApplyDeltaUseCase(store, &fakeTenants{})

	if err := uc.ApplyDelta(context.Background(), facebookDelta()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.keys) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(store.keys))
	}
	key := store.keys[0]
	if key.Period != domain.PeriodDaily {
		t.Fatalf("expected daily period, got %s", key.Period)
	}
	want := time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)
	if !key.BucketStart.Equal(want) {
		t.Fatalf("expected bucket start %v, got %v", want, key.BucketStart)
	}
	if got := store.incs[0].Counters[domain.CounterTotalEngagement]; got != 7 {
		t.Fatalf("expected total_engagement +7, got %d", got)
	}
}

func TestApplyDelta_OneBucketPerPeriod(t *testing.T) {
	store := &fakeBucketStore{}
	uc := usecase.NewApplyDeltaUseCase(store, &fakeTenants{},
		domain.PeriodHourly, domain.PeriodDaily, domain.PeriodWeekly, domain.PeriodMonthly)

	if err := uc.ApplyDelta(context.Background(), facebookDelta()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wants := map[domain.Period]time.Time{
		domain.PeriodHourly:  time.Date(2025, 5, 15, 14, 0, 0, 0, time.UTC),
		domain.PeriodDaily:   time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC),
		domain.PeriodWeekly:  time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC),
		domain.PeriodMonthly: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	if len(store.keys) != len(wants) {
		t.Fatalf("expected %d upserts, got %d", len(wants), len(store.keys))
	}
	for _, k := range store.keys {
		if !k.BucketStart.Equal(wants[k.Period]) {
			t.Fatalf("%s: expected %v, got %v", k.Period, wants[k.Period], k.BucketStart)
		}
	}
}

func TestApplyDelta_MissingOccurredAtUsesReceivedAt(t *testing.T) {
	store := &fakeBucketStore{}
	uc := usecase.NewApplyDeltaUseCase(store, &fakeTenants{})

	d := facebookDelta()
	d.OccurredAt = time.Time{}
	d.ReceivedAt = time.Date(2025, 5, 16, 0, 5, 0, 0, time.UTC)

	if err := uc.ApplyDelta(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2025, 5, 16, 0, 0, 0, 0, time.UTC); !store.keys[0].BucketStart.Equal(want) {
		t.Fatalf("expected %v, got %v", want, store.keys[0].BucketStart)
	}
}

// ------------------------------------------------------------
// FAILURES
// ------------------------------------------------------------

func TestApplyDelta_UnknownTenantWritesNothing(t *testing.T) {
	store := &fakeBucketStore{}
	tenants := &fakeTenants{ExistsFn: func(ctx context.Context, id string) (bool, error) { return false, nil }}
	uc := usecase.NewApplyDeltaUseCase(store, tenants)

	err := uc.ApplyDelta(context.Background(), facebookDelta())

	if !errors.Is(err, domain.ErrUnknownTenant) {
		t.Fatalf("expected ErrUnknownTenant, got %v", err)
	}
	if len(store.keys) != 0 {
		t.Fatalf("expected no upserts, got %d", len(store.keys))
	}
}

func TestApplyDelta_TenantLookupErrorIsStorage(t *testing.T) {
	dbErr := errors.New("db down")
	tenants := &fakeTenants{ExistsFn: func(ctx context.Context, id string) (bool, error) { return false, dbErr }}
	uc := usecase.NewApplyDeltaUseCase(&fakeBucketStore{}, tenants)

	err := uc.ApplyDelta(context.Background(), facebookDelta())

	if !errors.Is(err, domain.ErrStorage) || !errors.Is(err, dbErr) {
		t.Fatalf("expected ErrStorage wrapping db error, got %v", err)
	}
}

func TestApplyDelta_UpsertErrorIsStorage(t *testing.T) {
	store := &fakeBucketStore{
		UpsertFn: func(ctx context.Context, key domain.BucketKey, inc domain.Increment) (*domain.MetricBucket, error) {
			return nil, errors.New("timeout")
		},
	}
	uc := usecase.NewApplyDeltaUseCase(store, &fakeTenants{})

	err := uc.ApplyDelta(context.Background(), facebookDelta())

	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestApplyDelta_InvalidDeltaSkipsLookup(t *testing.T) {
	looked := false
	tenants := &fakeTenants{ExistsFn: func(ctx context.Context, id string) (bool, error) {
		looked = true
		return true, nil
	}}
	uc := usecase.NewApplyDeltaUseCase(&fakeBucketStore{}, tenants)

	d := facebookDelta()
	d.Counters = map[domain.Counter]int64{domain.CounterLikes: -1}

	err := uc.ApplyDelta(context.Background(), d)

	if !errors.Is(err, domain.ErrInvalidDelta) {
		t.Fatalf("expected ErrInvalidDelta, got %v", err)
	}
	if looked {
		t.Fatalf("tenant lookup must not run for an invalid delta")
	}
}

func TestApplyDelta_PeriodsDefaultAndCopy(t *testing.T) {
	uc := usecase.NewApplyDeltaUseCase(&fakeBucketStore{}, &fakeTenants{})

	got := uc.Periods()
	if len(got) != 1 || got[0] != domain.PeriodDaily {
		t.Fatalf("expected [daily], got %v", got)
	}
	got[0] = domain.PeriodHourly
	if uc.Periods()[0] != domain.PeriodDaily {
		t.Fatalf("Periods must return a copy")
	}
}
