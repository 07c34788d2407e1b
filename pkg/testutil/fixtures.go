package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	accessmodels "estatehub/internal/access/models"
	propertymodels "estatehub/internal/property/models"
	tenantmodels "estatehub/internal/tenant/models"
	id "estatehub/pkg/domain"
)

// TestIDs provides convenient pre-generated IDs for tests.
// Use these for deterministic test data.
var TestIDs = struct {
	UserID1     id.UserID
	UserID2     id.UserID
	TenantID1   id.TenantID
	TenantID2   id.TenantID
	PropertyID1 id.PropertyID
	PropertyID2 id.PropertyID
}{
	UserID1:     id.UserID(uuid.MustParse("11111111-1111-1111-1111-111111111111")),
	UserID2:     id.UserID(uuid.MustParse("22222222-2222-2222-2222-222222222222")),
	TenantID1:   id.TenantID(uuid.MustParse("aaaa0000-0000-0000-0000-000000000001")),
	TenantID2:   id.TenantID(uuid.MustParse("aaaa0000-0000-0000-0000-000000000002")),
	PropertyID1: id.PropertyID(uuid.MustParse("bbbb0000-0000-0000-0000-000000000001")),
	PropertyID2: id.PropertyID(uuid.MustParse("bbbb0000-0000-0000-0000-000000000002")),
}

// FixedNow is the reference instant used by fixtures.
var FixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// TenantBuilder provides a fluent interface for building test tenants.
type TenantBuilder struct {
	tenant *tenantmodels.Tenant
}

// NewTenantBuilder creates an active basic-plan tenant with plan defaults.
func NewTenantBuilder() *TenantBuilder {
	return &TenantBuilder{
		tenant: &tenantmodels.Tenant{
			ID:        id.NewTenantID(),
			Slug:      "test-tenant",
			Name:      "Test Tenant",
			Status:    tenantmodels.StatusActive,
			Plan:      tenantmodels.PlanBasic,
			Features:  tenantmodels.DefaultFeatures(tenantmodels.PlanBasic),
			Limits:    tenantmodels.DefaultLimits(tenantmodels.PlanBasic),
			Business:  tenantmodels.Business{DefaultCurrency: "USD", SupportedCurrencies: []string{"USD"}},
			CreatedAt: FixedNow,
			UpdatedAt: FixedNow,
		},
	}
}

func (b *TenantBuilder) WithID(tenantID id.TenantID) *TenantBuilder {
	b.tenant.ID = tenantID
	return b
}

func (b *TenantBuilder) WithSlug(slug string) *TenantBuilder {
	b.tenant.Slug = slug
	return b
}

func (b *TenantBuilder) WithName(name string) *TenantBuilder {
	b.tenant.Name = name
	return b
}

func (b *TenantBuilder) WithDomain(domain string) *TenantBuilder {
	b.tenant.Domain = &domain
	return b
}

func (b *TenantBuilder) WithStatus(status tenantmodels.Status) *TenantBuilder {
	b.tenant.Status = status
	return b
}

// WithPlan switches plan and resets features and limits to its defaults.
func (b *TenantBuilder) WithPlan(plan tenantmodels.Plan) *TenantBuilder {
	b.tenant.Plan = plan
	b.tenant.Features = tenantmodels.DefaultFeatures(plan)
	b.tenant.Limits = tenantmodels.DefaultLimits(plan)
	return b
}

func (b *TenantBuilder) WithLimit(key tenantmodels.LimitKey, max int) *TenantBuilder {
	b.tenant.Limits[key] = max
	return b
}

func (b *TenantBuilder) WithFeature(f tenantmodels.Feature, enabled bool) *TenantBuilder {
	b.tenant.Features[f] = enabled
	return b
}

func (b *TenantBuilder) WithCurrencies(currencies ...string) *TenantBuilder {
	b.tenant.Business.SupportedCurrencies = currencies
	if len(currencies) > 0 {
		b.tenant.Business.DefaultCurrency = currencies[0]
	}
	return b
}

func (b *TenantBuilder) LicenseExpiresAt(t time.Time) *TenantBuilder {
	b.tenant.LicenseExpiresAt = &t
	return b
}

func (b *TenantBuilder) Build() *tenantmodels.Tenant {
	return b.tenant
}

// PropertyBuilder provides a fluent interface for building test properties.
type PropertyBuilder struct {
	property *propertymodels.Property
}

// NewPropertyBuilder creates an active house for sale at 250000 USD.
func NewPropertyBuilder(tenantID id.TenantID) *PropertyBuilder {
	price := decimal.NewFromInt(250000)
	return &PropertyBuilder{
		property: &propertymodels.Property{
			ID:           id.NewPropertyID(),
			TenantID:     tenantID,
			Title:        "Test House",
			Slug:         "test-house",
			PropertyType: propertymodels.TypeHouse,
			Purpose:      propertymodels.PurposeSale,
			Status:       propertymodels.StatusActive,
			Tags:         []string{},
			Pricing:      propertymodels.Pricing{Currency: "USD", SalePrice: &price},
			Location:     propertymodels.Location{City: "Austin", Country: "US"},
			CreatedAt:    FixedNow,
			UpdatedAt:    FixedNow,
		},
	}
}

func (b *PropertyBuilder) WithID(propertyID id.PropertyID) *PropertyBuilder {
	b.property.ID = propertyID
	return b
}

func (b *PropertyBuilder) WithTitle(title, slug string) *PropertyBuilder {
	b.property.Title = title
	b.property.Slug = slug
	return b
}

func (b *PropertyBuilder) WithType(t propertymodels.Type) *PropertyBuilder {
	b.property.PropertyType = t
	return b
}

func (b *PropertyBuilder) ForRent(price int64, period propertymodels.RentPeriod) *PropertyBuilder {
	p := decimal.NewFromInt(price)
	b.property.Purpose = propertymodels.PurposeRent
	b.property.Pricing.SalePrice = nil
	b.property.Pricing.RentPrice = &p
	b.property.Pricing.RentPeriod = period
	return b
}

func (b *PropertyBuilder) WithSalePrice(price int64) *PropertyBuilder {
	p := decimal.NewFromInt(price)
	b.property.Pricing.SalePrice = &p
	return b
}

func (b *PropertyBuilder) WithCity(city string) *PropertyBuilder {
	b.property.Location.City = city
	return b
}

func (b *PropertyBuilder) WithBedrooms(n int) *PropertyBuilder {
	b.property.Features.Bedrooms = &n
	return b
}

func (b *PropertyBuilder) WithTags(tags ...string) *PropertyBuilder {
	b.property.Tags = tags
	return b
}

func (b *PropertyBuilder) WithStatus(status propertymodels.Status) *PropertyBuilder {
	b.property.Status = status
	return b
}

func (b *PropertyBuilder) Featured() *PropertyBuilder {
	b.property.Featured = true
	return b
}

func (b *PropertyBuilder) CreatedAt(t time.Time) *PropertyBuilder {
	b.property.CreatedAt = t
	b.property.UpdatedAt = t
	return b
}

func (b *PropertyBuilder) Build() *propertymodels.Property {
	return b.property
}

// UserBuilder provides a fluent interface for building test users.
type UserBuilder struct {
	user *accessmodels.User
}

// NewUserBuilder creates an active agent of tenantID with default permissions.
func NewUserBuilder(tenantID id.TenantID) *UserBuilder {
	tid := tenantID
	return &UserBuilder{
		user: &accessmodels.User{
			ID:           id.NewUserID(),
			TenantID:     &tid,
			Email:        "agent-" + uuid.NewString()[:8] + "@example.com",
			Name:         "Test Agent",
			PasswordHash: "x",
			Role:         accessmodels.RoleAgent,
			Permissions:  accessmodels.DefaultPermissions(accessmodels.RoleAgent),
			Active:       true,
			CreatedAt:    FixedNow,
			UpdatedAt:    FixedNow,
		},
	}
}

func (b *UserBuilder) WithID(userID id.UserID) *UserBuilder {
	b.user.ID = userID
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.user.Email = accessmodels.NormalizeEmail(email)
	return b
}

// WithRole sets role and its default permissions.
func (b *UserBuilder) WithRole(role accessmodels.Role) *UserBuilder {
	b.user.Role = role
	b.user.Permissions = accessmodels.DefaultPermissions(role)
	if role == accessmodels.RoleSuperAdmin {
		b.user.TenantID = nil
	}
	return b
}

func (b *UserBuilder) Inactive() *UserBuilder {
	b.user.Active = false
	return b
}

func (b *UserBuilder) CreatedAt(t time.Time) *UserBuilder {
	b.user.CreatedAt = t
	b.user.UpdatedAt = t
	return b
}

func (b *UserBuilder) Build() *accessmodels.User {
	return b.user
}
