package resolver

import (
	"context"

	"estatehub/internal/tenant/models"
	dErrors "estatehub/pkg/domain-errors"
)

type tenantKey struct{}

// WithTenant attaches a private copy of t to ctx.
func WithTenant(ctx context.Context, t *models.Tenant) context.Context {
	return context.WithValue(ctx, tenantKey{}, t.Clone())
}

// FromContext returns a copy of the resolved tenant. Mutating it never
// affects other readers of the same request.
func FromContext(ctx context.Context) (*models.Tenant, bool) {
	t, ok := ctx.Value(tenantKey{}).(*models.Tenant)
	if !ok || t == nil {
		return nil, false
	}
	return t.Clone(), true
}

// Require returns the resolved tenant or a tenant_required error.
func Require(ctx context.Context) (*models.Tenant, error) {
	t, ok := FromContext(ctx)
	if !ok {
		return nil, dErrors.New(dErrors.CodeTenantRequired, "tenant identification required")
	}
	return t, nil
}
