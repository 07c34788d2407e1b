package seeder

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	propertymodels "estatehub/internal/property/models"
	propertyservice "estatehub/internal/property/service"
	tenantmodels "estatehub/internal/tenant/models"
	tenantservice "estatehub/internal/tenant/service"
	dErrors "estatehub/pkg/domain-errors"
	"estatehub/pkg/testutil"
)

type fakeTenants struct {
	err  error
	cmds []*tenantservice.CreateTenantCommand
}

func (f *fakeTenants) CreateTenant(_ context.Context, cmd *tenantservice.CreateTenantCommand) (*tenantservice.CreatedTenant, error) {
	f.cmds = append(f.cmds, cmd)
	if f.err != nil {
		return nil, f.err
	}
	tenant := testutil.NewTenantBuilder().WithSlug(cmd.Slug).WithPlan(cmd.Plan).Build()
	return &tenantservice.CreatedTenant{Tenant: tenant, AdminUserID: testutil.TestIDs.UserID1}, nil
}

type fakeProperties struct {
	created []*propertyservice.CreatePropertyCommand
}

func (f *fakeProperties) Create(_ context.Context, tenant *tenantmodels.Tenant, cmd *propertyservice.CreatePropertyCommand) (*propertymodels.Property, error) {
	f.created = append(f.created, cmd)
	return testutil.NewPropertyBuilder(tenant.ID).Build(), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSeedAll(t *testing.T) {
	tenants := &fakeTenants{}
	properties := &fakeProperties{}

	err := New(tenants, properties, discardLogger()).SeedAll(context.Background(), "demo@estatehub.test", "demo-password")
	require.NoError(t, err)

	require.Len(t, tenants.cmds, 1)
	assert.Equal(t, DemoSlug, tenants.cmds[0].Slug)
	assert.Equal(t, tenantmodels.PlanProfessional, tenants.cmds[0].Plan)
	assert.Equal(t, "demo@estatehub.test", tenants.cmds[0].Admin.Email)
	assert.Len(t, properties.created, len(demoListings()))
}

func TestSeedAll_ExistingTenantIsNoop(t *testing.T) {
	tenants := &fakeTenants{err: dErrors.New(dErrors.CodeConflict, "tenant slug already in use")}
	properties := &fakeProperties{}

	err := New(tenants, properties, discardLogger()).SeedAll(context.Background(), "demo@estatehub.test", "demo-password")
	require.NoError(t, err)
	assert.Empty(t, properties.created)
}

func TestSeedAll_PropagatesErrors(t *testing.T) {
	tenants := &fakeTenants{err: dErrors.New(dErrors.CodeInternal, "db down")}

	err := New(tenants, &fakeProperties{}, discardLogger()).SeedAll(context.Background(), "demo@estatehub.test", "demo-password")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to seed tenant")
}

func TestDemoListingsAreValid(t *testing.T) {
	tenant := testutil.NewTenantBuilder().WithPlan(tenantmodels.PlanProfessional).Build()

	for _, cmd := range demoListings() {
		p := testutil.NewPropertyBuilder(tenant.ID).Build()
		p.Title = cmd.Title
		p.PropertyType = cmd.PropertyType
		p.Purpose = cmd.Purpose
		p.Featured = cmd.Featured
		p.Tags = cmd.Tags
		p.Pricing = cmd.Pricing
		p.Location = cmd.Location
		p.Features = cmd.Features

		assert.NoError(t, p.Validate(testutil.FixedNow), cmd.Title)
	}
}
