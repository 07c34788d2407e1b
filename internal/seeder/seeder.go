// Package seeder populates an empty deployment with a demo agency and listings.
package seeder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	propertymodels "estatehub/internal/property/models"
	propertyservice "estatehub/internal/property/service"
	tenantmodels "estatehub/internal/tenant/models"
	tenantservice "estatehub/internal/tenant/service"
	dErrors "estatehub/pkg/domain-errors"
)

// DemoSlug is the slug of the seeded tenant.
const DemoSlug = "demo"

// TenantCreator creates a tenant together with its first admin.
type TenantCreator interface {
	CreateTenant(ctx context.Context, cmd *tenantservice.CreateTenantCommand) (*tenantservice.CreatedTenant, error)
}

// PropertyCreator creates listings inside a tenant.
type PropertyCreator interface {
	Create(ctx context.Context, tenant *tenantmodels.Tenant, cmd *propertyservice.CreatePropertyCommand) (*propertymodels.Property, error)
}

// Seeder populates stores through the services so that plan limits, slugs
// and events behave as they do for real traffic.
type Seeder struct {
	tenants    TenantCreator
	properties PropertyCreator
	logger     *slog.Logger
}

func New(tenants TenantCreator, properties PropertyCreator, logger *slog.Logger) *Seeder {
	return &Seeder{
		tenants:    tenants,
		properties: properties,
		logger:     logger,
	}
}

// SeedAll creates the demo tenant, owned by adminEmail, and its listings.
// It is a no-op when the demo tenant already exists.
func (s *Seeder) SeedAll(ctx context.Context, adminEmail, adminPassword string) error {
	s.logger.Info("seeding demo data...")

	created, err := s.tenants.CreateTenant(ctx, &tenantservice.CreateTenantCommand{
		Slug: DemoSlug,
		Name: "Demo Realty",
		Plan: tenantmodels.PlanProfessional,
		Business: &tenantmodels.Business{
			DefaultCurrency:     "USD",
			SupportedCurrencies: []string{"USD", "EUR"},
		},
		Admin: tenantservice.InitialAdmin{
			Email:    adminEmail,
			Name:     "Demo Admin",
			Password: adminPassword,
		},
	})
	if dErrors.HasCode(err, dErrors.CodeConflict) {
		s.logger.Info("demo tenant already exists, skipping seed")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to seed tenant: %w", err)
	}

	count := 0
	for _, cmd := range demoListings() {
		if _, err := s.properties.Create(ctx, created.Tenant, cmd); err != nil {
			return fmt.Errorf("failed to seed property %q: %w", cmd.Title, err)
		}
		count++
	}

	s.logger.Info("demo data seeded successfully",
		"tenant", created.Tenant.Slug,
		"properties", count,
	)
	return nil
}

func demoListings() []*propertyservice.CreatePropertyCommand {
	listings := []struct {
		title    string
		kind     propertymodels.Type
		purpose  propertymodels.Purpose
		price    int64
		city     string
		bedrooms int
		featured bool
		tags     []string
	}{
		{"Ocean View House", propertymodels.TypeHouse, propertymodels.PurposeSale, 850000, "Miami", 4, true, []string{"pool", "ocean"}},
		{"Downtown Loft", propertymodels.TypeApartment, propertymodels.PurposeRent, 2400, "Austin", 1, false, []string{"downtown"}},
		{"Family Townhouse", propertymodels.TypeTownhouse, propertymodels.PurposeSale, 420000, "Austin", 3, false, []string{"garden"}},
		{"Hill Country Ranch", propertymodels.TypeRanch, propertymodels.PurposeSale, 1250000, "Fredericksburg", 5, true, []string{"horses"}},
		{"Riverside Warehouse", propertymodels.TypeWarehouse, propertymodels.PurposeLease, 9000, "Houston", 0, false, nil},
	}

	cmds := make([]*propertyservice.CreatePropertyCommand, 0, len(listings))
	for _, l := range listings {
		price := decimal.NewFromInt(l.price)
		pricing := propertymodels.Pricing{Currency: "USD"}
		if l.purpose == propertymodels.PurposeSale {
			pricing.SalePrice = &price
		} else {
			pricing.RentPrice = &price
			pricing.RentPeriod = propertymodels.RentMonthly
		}

		var features propertymodels.Features
		if l.bedrooms > 0 {
			bedrooms := l.bedrooms
			features.Bedrooms = &bedrooms
		}

		cmds = append(cmds, &propertyservice.CreatePropertyCommand{
			Title:        l.title,
			Description:  "Demo listing.",
			PropertyType: l.kind,
			Purpose:      l.purpose,
			Featured:     l.featured,
			Tags:         l.tags,
			Pricing:      pricing,
			Location:     propertymodels.Location{City: l.city, State: "TX", Country: "US"},
			Features:     features,
		})
	}
	return cmds
}
