package ports

import "context"

type TenantChecker interface {
	TenantExists(ctx context.Context, tenantID string) (bool, error)
}
