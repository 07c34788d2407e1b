package models

import "slices"

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
	StatusTrial     Status = "trial"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended, StatusTrial:
		return true
	}
	return false
}

type Plan string

const (
	PlanBasic        Plan = "basic"
	PlanProfessional Plan = "professional"
	PlanEnterprise   Plan = "enterprise"
)

func (p Plan) IsValid() bool {
	switch p {
	case PlanBasic, PlanProfessional, PlanEnterprise:
		return true
	}
	return false
}

type Feature string

const (
	FeatureAnalytics        Feature = "analytics"
	FeatureMultiCurrency    Feature = "multi_currency"
	FeatureFeaturedListings Feature = "featured_listings"
	FeatureCustomDomain     Feature = "custom_domain"
	FeatureAPIAccess        Feature = "api_access"
)

var AllFeatures = []Feature{
	FeatureAnalytics,
	FeatureMultiCurrency,
	FeatureFeaturedListings,
	FeatureCustomDomain,
	FeatureAPIAccess,
}

func (f Feature) IsValid() bool {
	return slices.Contains(AllFeatures, f)
}

// LimitKey names a countable resource capped by the plan.
type LimitKey string

const (
	LimitProperties LimitKey = "max_properties"
	LimitUsers      LimitKey = "max_users"
)

func (k LimitKey) IsValid() bool {
	return k == LimitProperties || k == LimitUsers
}

// DefaultFeatures returns a fresh feature map for plan.
func DefaultFeatures(plan Plan) map[Feature]bool {
	out := map[Feature]bool{}
	switch plan {
	case PlanProfessional:
		for _, f := range []Feature{FeatureAnalytics, FeatureMultiCurrency, FeatureFeaturedListings, FeatureCustomDomain} {
			out[f] = true
		}
	case PlanEnterprise:
		for _, f := range AllFeatures {
			out[f] = true
		}
	}
	return out
}

// DefaultLimits returns a fresh limit map for plan. Enterprise has no limits.
func DefaultLimits(plan Plan) map[LimitKey]int {
	switch plan {
	case PlanBasic:
		return map[LimitKey]int{LimitProperties: 25, LimitUsers: 2}
	case PlanProfessional:
		return map[LimitKey]int{LimitProperties: 250, LimitUsers: 10}
	default:
		return map[LimitKey]int{}
	}
}
