package ports

import (
	"context"
	"errors"

	analytics "webhook-analytics-service/internal/analytics/core/domain"
	"webhook-analytics-service/internal/webhooks/core/domain"
)

// ErrTenantNotFound is returned by TenantDirectory lookups that match no
// tenant.
var ErrTenantNotFound = errors.New("tenant not found")

// TenantDirectory resolves platform accounts to tenants and applies
// direct tenant updates.
type TenantDirectory interface {
	FindTenantByExternalRef(ctx context.Context, ref domain.ExternalRef) (string, error)
	TenantExists(ctx context.Context, tenantID string) (bool, error)
	UpdateTenantSubscriptionState(ctx context.Context, tenantID string, state domain.SubscriptionState) error
}

// DeltaApplier folds a metric delta into the aggregation store.
type DeltaApplier interface {
	ApplyDelta(ctx context.Context, delta analytics.MetricDelta) error
}

// ReceiptRecorder keeps a record of payloads that were not aggregated.
type ReceiptRecorder interface {
	Record(ctx context.Context, r domain.Receipt) error
}
