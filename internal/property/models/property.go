// Package models holds the catalog's property aggregate and its value objects.
package models

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	id "estatehub/pkg/domain"
	dErrors "estatehub/pkg/domain-errors"
	strutil "estatehub/pkg/platform/strings"
	"estatehub/pkg/validation"
)

// Property is a listing owned by exactly one tenant.
type Property struct {
	ID           id.PropertyID `json:"id"`
	TenantID     id.TenantID   `json:"tenant_id"`
	Title        string        `json:"title" validate:"notblank,max=200"`
	Description  string        `json:"description" validate:"max=10000"`
	Slug         string        `json:"slug"`
	PropertyType Type          `json:"property_type" validate:"required,oneof=house apartment duplex farm ranch land commercial warehouse townhouse"`
	Purpose      Purpose       `json:"purpose" validate:"required,oneof=sale rent lease"`
	Status       Status        `json:"status" validate:"required,oneof=active inactive sold rented reserved"`
	Featured     bool          `json:"featured"`
	Tags         []string      `json:"tags" validate:"max=30,dive,max=50"`
	Pricing      Pricing       `json:"pricing"`
	Location     Location      `json:"location"`
	Features     Features      `json:"features"`
	Analytics    Analytics     `json:"analytics"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Pricing holds the listing prices in the primary currency. Purpose sale
// requires SalePrice; rent and lease require RentPrice.
type Pricing struct {
	Currency   string                     `json:"currency" validate:"currency"`
	SalePrice  *decimal.Decimal           `json:"sale_price,omitempty"`
	RentPrice  *decimal.Decimal           `json:"rent_price,omitempty"`
	RentPeriod RentPeriod                 `json:"rent_period,omitempty" validate:"omitempty,oneof=monthly yearly"`
	Secondary  map[string]decimal.Decimal `json:"secondary,omitempty" validate:"max=10,dive,keys,currency,endkeys"`
}

type Location struct {
	Address      string       `json:"address" validate:"max=256"`
	Neighborhood string       `json:"neighborhood" validate:"max=128"`
	City         string       `json:"city" validate:"notblank,max=128"`
	State        string       `json:"state" validate:"max=128"`
	Country      string       `json:"country" validate:"notblank,max=64"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
}

type Coordinates struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// Features are the physical attributes of a property. Nil means "not declared".
type Features struct {
	Area          *float64 `json:"area,omitempty" validate:"omitempty,gte=0"`
	AreaUnit      AreaUnit `json:"area_unit,omitempty" validate:"omitempty,oneof=m2 ft2 ha acre"`
	Bedrooms      *int     `json:"bedrooms,omitempty" validate:"omitempty,gte=0,lte=1000"`
	Bathrooms     *int     `json:"bathrooms,omitempty" validate:"omitempty,gte=0,lte=1000"`
	ParkingSpaces *int     `json:"parking_spaces,omitempty" validate:"omitempty,gte=0,lte=10000"`
	YearBuilt     *int     `json:"year_built,omitempty"`
}

// Analytics counters only ever grow, and only through catalog interactions.
type Analytics struct {
	Views      int64      `json:"views"`
	Leads      int64      `json:"leads"`
	Favorites  int64      `json:"favorites"`
	LastViewAt *time.Time `json:"last_view_at,omitempty"`
}

// EffectivePrice is the price used by price filters and the price sort key:
// the sale price for sales, the rent price otherwise.
func (p *Property) EffectivePrice() *decimal.Decimal {
	return p.Pricing.EffectivePrice(p.Purpose)
}

func (pr Pricing) EffectivePrice(purpose Purpose) *decimal.Decimal {
	if purpose == PurposeSale {
		return pr.SalePrice
	}
	return pr.RentPrice
}

// UsesSecondaryCurrencies reports whether the listing carries secondary price equivalents.
func (p *Property) UsesSecondaryCurrencies() bool {
	return len(p.Pricing.Secondary) > 0
}

// Validate checks field constraints and the cross-field rules between
// purpose, pricing and property type. All violations are reported per field.
func (p *Property) Validate(now time.Time) error {
	fields := map[string]string{}
	if err := validation.Validate(p); err != nil {
		var de *dErrors.Error
		if errors.As(err, &de) && len(de.Fields) > 0 {
			maps.Copy(fields, de.Fields)
		} else {
			return err
		}
	}

	switch p.Purpose {
	case PurposeSale:
		if p.Pricing.SalePrice == nil {
			fields["pricing.sale_price"] = "sale_price is required for purpose sale"
		}
	case PurposeRent, PurposeLease:
		if p.Pricing.RentPrice == nil {
			fields["pricing.rent_price"] = fmt.Sprintf("rent_price is required for purpose %s", p.Purpose)
		}
	}
	if p.Pricing.SalePrice != nil {
		if msg := CheckPrice(*p.Pricing.SalePrice); msg != "" {
			fields["pricing.sale_price"] = "sale_price " + msg
		}
	}
	if p.Pricing.RentPrice != nil {
		if msg := CheckPrice(*p.Pricing.RentPrice); msg != "" {
			fields["pricing.rent_price"] = "rent_price " + msg
		}
	}
	for cur, v := range p.Pricing.Secondary {
		if msg := CheckPrice(v); msg != "" {
			fields["pricing.secondary."+cur] = "secondary price " + msg
		}
		if cur == p.Pricing.Currency {
			fields["pricing.secondary."+cur] = "secondary currency must differ from the primary currency"
		}
	}

	if p.PropertyType == TypeLand {
		if p.Features.Bedrooms != nil {
			fields["features.bedrooms"] = "land cannot declare bedrooms"
		}
		if p.Features.Bathrooms != nil {
			fields["features.bathrooms"] = "land cannot declare bathrooms"
		}
	}
	if y := p.Features.YearBuilt; y != nil && *y != 0 && (*y < 1800 || *y > now.Year()+5) {
		fields["features.year_built"] = fmt.Sprintf("year_built must be 0 or between 1800 and %d", now.Year()+5)
	}
	if p.Features.Area != nil && p.Features.AreaUnit == "" {
		fields["features.area_unit"] = "area_unit is required when area is set"
	}

	if len(fields) > 0 {
		return dErrors.Validation("invalid property", fields)
	}
	return nil
}

// NormalizeTags trims, lower-cases and de-duplicates tags, preserving order.
func NormalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return strutil.Lower(tags)
}

// Clone returns a deep copy.
func (p *Property) Clone() *Property {
	if p == nil {
		return nil
	}
	c := *p
	c.Tags = slices.Clone(p.Tags)
	c.Pricing.SalePrice = clonePtr(p.Pricing.SalePrice)
	c.Pricing.RentPrice = clonePtr(p.Pricing.RentPrice)
	c.Pricing.Secondary = maps.Clone(p.Pricing.Secondary)
	c.Location.Coordinates = clonePtr(p.Location.Coordinates)
	c.Features.Area = clonePtr(p.Features.Area)
	c.Features.Bedrooms = clonePtr(p.Features.Bedrooms)
	c.Features.Bathrooms = clonePtr(p.Features.Bathrooms)
	c.Features.ParkingSpaces = clonePtr(p.Features.ParkingSpaces)
	c.Features.YearBuilt = clonePtr(p.Features.YearBuilt)
	c.Analytics.LastViewAt = clonePtr(p.Analytics.LastViewAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
