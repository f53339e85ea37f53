package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"

	analyticsports "webhook-analytics-service/internal/analytics/core/ports"
	"webhook-analytics-service/internal/webhooks/core/domain"
	"webhook-analytics-service/internal/webhooks/core/ports"
)

// pgCheckViolation is the SQLSTATE raised when subscription_state falls
// outside the tenants_subscription_state_check constraint.
const pgCheckViolation = "23514"

var ErrInvalidSubscriptionState = errors.New("invalid subscription state")

type TenantDirectory struct {
	db DB
}

func NewTenantDirectory(db DB) *TenantDirectory {
	return &TenantDirectory{db: db}
}

var (
	_ ports.TenantDirectory        = (*TenantDirectory)(nil)
	_ analyticsports.TenantChecker = (*TenantDirectory)(nil)
)

const createTenantTablesSQL = `
CREATE TABLE IF NOT EXISTS tenants (
    id                 TEXT PRIMARY KEY,
    subscription_state TEXT NOT NULL DEFAULT 'active'
        CONSTRAINT tenants_subscription_state_check CHECK (subscription_state IN
            ('active', 'trialing', 'past_due', 'unpaid', 'incomplete', 'cancelled')),
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tenant_external_refs (
    provider    TEXT NOT NULL,
    external_id TEXT NOT NULL,
    tenant_id   TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
    PRIMARY KEY (provider, external_id)
);
`

const findTenantByRefSQL = `
SELECT tenant_id
FROM tenant_external_refs
WHERE provider = $1 AND external_id = $2;
`

const tenantExistsSQL = `
SELECT EXISTS (SELECT 1 FROM tenants WHERE id = $1);
`

const updateSubscriptionStateSQL = `
UPDATE tenants
SET subscription_state = $2, updated_at = now()
WHERE id = $1;
`

// Migrate creates the tenant tables when they are missing.
func (r *TenantDirectory) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTenantTablesSQL); err != nil {
		return fmt.Errorf("create tenant tables: %w", err)
	}
	return nil
}

func (r *TenantDirectory) FindTenantByExternalRef(ctx context.Context, ref domain.ExternalRef) (string, error) {
	rows, err := r.db.QueryContext(ctx, findTenantByRefSQL, ref.Provider, ref.ID)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", err
		}
		return "", ports.ErrTenantNotFound
	}

	var tenantID string
	if err := rows.Scan(&tenantID); err != nil {
		return "", err
	}
	return tenantID, nil
}

func (r *TenantDirectory) TenantExists(ctx context.Context, tenantID string) (bool, error) {
	rows, err := r.db.QueryContext(ctx, tenantExistsSQL, tenantID)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	var exists bool
	if rows.Next() {
		if err := rows.Scan(&exists); err != nil {
			return false, err
		}
	}
	return exists, rows.Err()
}

func (r *TenantDirectory) UpdateTenantSubscriptionState(ctx context.Context, tenantID string, state domain.SubscriptionState) error {
	res, err := r.db.ExecContext(ctx, updateSubscriptionStateSQL, tenantID, string(state))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgCheckViolation {
			return fmt.Errorf("%w: %q", ErrInvalidSubscriptionState, state)
		}
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ports.ErrTenantNotFound
	}
	return nil
}
