package usecase

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"webhook-analytics-service/internal/analytics/core/domain"
	"webhook-analytics-service/internal/analytics/core/ports"
)

var tracer = otel.Tracer("webhook-analytics-service/analytics")

type ApplyDeltaUseCase struct {
	store   ports.BucketStore
	tenants ports.TenantChecker
	periods []domain.Period
}

// NewApplyDeltaUseCase folds every delta into one bucket per period.
// With no periods given, deltas go to daily buckets.
func NewApplyDeltaUseCase(store ports.BucketStore, tenants ports.TenantChecker, periods ...domain.Period) *ApplyDeltaUseCase {
	if len(periods) == 0 {
		periods = []domain.Period{domain.PeriodDaily}
	}
	return &ApplyDeltaUseCase{store: store, tenants: tenants, periods: periods}
}

// ApplyDelta validates the delta, checks that its tenant exists and
// increments the matching buckets. An unknown tenant leaves every bucket
// untouched.
func (uc *ApplyDeltaUseCase) ApplyDelta(ctx context.Context, delta domain.MetricDelta) error {
	ctx, span := tracer.Start(ctx, "analytics.apply_delta", trace.WithAttributes(
		attribute.String("tenant.id", delta.TenantID),
		attribute.String("metric.type", string(delta.Type)),
		attribute.String("metric.platform", delta.Platform),
	))
	defer span.End()

	if err := delta.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	ok, err := uc.tenants.TenantExists(ctx, delta.TenantID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tenant lookup failed")
		return fmt.Errorf("%w: tenant lookup: %w", domain.ErrStorage, err)
	}
	if !ok {
		span.SetStatus(codes.Error, "unknown tenant")
		return fmt.Errorf("%w: %s", domain.ErrUnknownTenant, delta.TenantID)
	}

	inc := delta.Increment()
	at := delta.EventTime()
	for _, p := range uc.periods {
		key := domain.BucketKey{
			TenantID:    delta.TenantID,
			Type:        delta.Type,
			Period:      p,
			BucketStart: p.Align(at),
		}
		if _, err := uc.store.UpsertBucket(ctx, key, inc); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "bucket upsert failed")
			return fmt.Errorf("%w: upsert %s bucket: %w", domain.ErrStorage, p, err)
		}
	}
	return nil
}

// Periods returns the bucket widths every delta is folded into.
func (uc *ApplyDeltaUseCase) Periods() []domain.Period {
	return append([]domain.Period(nil), uc.periods...)
}
