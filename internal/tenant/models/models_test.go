package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "estatehub/pkg/domain"
	dErrors "estatehub/pkg/domain-errors"
)

// TenantModelSuite tests Tenant domain model behaviors.
type TenantModelSuite struct {
	suite.Suite
}

func TestTenantModelSuite(t *testing.T) {
	suite.Run(t, new(TenantModelSuite))
}

func (s *TenantModelSuite) newTenant(plan Plan) *Tenant {
	tenant, err := NewTenant(id.TenantID(uuid.New()), "acme", "Acme Realty", plan, time.Now())
	s.Require().NoError(err)
	return tenant
}

func (s *TenantModelSuite) TestNewTenant() {
	s.Run("applies plan defaults", func() {
		basic := s.newTenant(PlanBasic)
		s.Equal(StatusActive, basic.Status)
		s.Equal(map[LimitKey]int{LimitProperties: 25, LimitUsers: 2}, basic.Limits)
		s.Empty(basic.EnabledFeatures())

		pro := s.newTenant(PlanProfessional)
		s.True(pro.HasFeature(FeatureAnalytics))
		s.False(pro.HasFeature(FeatureAPIAccess))

		ent := s.newTenant(PlanEnterprise)
		_, limited := ent.Limit(LimitProperties)
		s.False(limited, "enterprise has no property limit")
		s.Len(ent.EnabledFeatures(), len(AllFeatures))
	})

	s.Run("rejects invalid input", func() {
		_, err := NewTenant(id.TenantID(uuid.New()), "acme", "  ", PlanBasic, time.Now())
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

		_, err = NewTenant(id.TenantID(uuid.New()), "Acme!", "Acme", PlanBasic, time.Now())
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

		_, err = NewTenant(id.TenantID(uuid.New()), "acme", "Acme", Plan("gold"), time.Now())
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *TenantModelSuite) TestLicenseExpired() {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	tenant := s.newTenant(PlanBasic)

	s.False(tenant.LicenseExpired(now), "no expiry never lapses")

	future := now.Add(time.Hour)
	tenant.LicenseExpiresAt = &future
	s.False(tenant.LicenseExpired(now))

	tenant.LicenseExpiresAt = &now
	s.True(tenant.LicenseExpired(now), "expiry instant counts as expired")
}

func (s *TenantModelSuite) TestChangeStatus() {
	now := time.Now()
	tenant := s.newTenant(PlanBasic)

	s.Require().NoError(tenant.ChangeStatus(StatusSuspended, now))
	s.Equal(StatusSuspended, tenant.Status)
	s.Equal(now, tenant.UpdatedAt)

	err := tenant.ChangeStatus(StatusSuspended, now)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	err = tenant.ChangeStatus(Status("deleted"), now)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *TenantModelSuite) TestChangePlanResetsDefaults() {
	tenant := s.newTenant(PlanBasic)

	s.Require().NoError(tenant.ChangePlan(PlanProfessional, time.Now()))

	s.Equal(PlanProfessional, tenant.Plan)
	s.Equal(250, tenant.Limits[LimitProperties])
	s.True(tenant.HasFeature(FeatureFeaturedListings))
}

func (s *TenantModelSuite) TestCloneIsDeep() {
	tenant := s.newTenant(PlanProfessional)
	domain := "acme.example.com"
	tenant.Domain = &domain

	clone := tenant.Clone()
	clone.Features[FeatureAnalytics] = false
	clone.Limits[LimitUsers] = 99
	*clone.Domain = "other.example.com"
	clone.Business.SupportedCurrencies[0] = "EUR"

	s.True(tenant.HasFeature(FeatureAnalytics))
	s.Equal(10, tenant.Limits[LimitUsers])
	s.Equal("acme.example.com", *tenant.Domain)
	s.Equal("USD", tenant.Business.SupportedCurrencies[0])
}

func (s *TenantModelSuite) TestValidSlug() {
	for _, ok := range []string{"acme", "acme-realty", "a1"} {
		s.True(ValidSlug(ok), ok)
	}
	for _, bad := range []string{"", "a", "-acme", "acme-", "Acme", "acme_realty", "acme.io"} {
		s.False(ValidSlug(bad), bad)
	}
}
