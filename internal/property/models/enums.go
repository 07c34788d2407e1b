package models

import "slices"

type Type string

const (
	TypeHouse      Type = "house"
	TypeApartment  Type = "apartment"
	TypeDuplex     Type = "duplex"
	TypeFarm       Type = "farm"
	TypeRanch      Type = "ranch"
	TypeLand       Type = "land"
	TypeCommercial Type = "commercial"
	TypeWarehouse  Type = "warehouse"
	TypeTownhouse  Type = "townhouse"
)

var AllTypes = []Type{
	TypeHouse, TypeApartment, TypeDuplex, TypeFarm, TypeRanch,
	TypeLand, TypeCommercial, TypeWarehouse, TypeTownhouse,
}

func (t Type) IsValid() bool {
	return slices.Contains(AllTypes, t)
}

type Purpose string

const (
	PurposeSale  Purpose = "sale"
	PurposeRent  Purpose = "rent"
	PurposeLease Purpose = "lease"
)

func (p Purpose) IsValid() bool {
	switch p {
	case PurposeSale, PurposeRent, PurposeLease:
		return true
	}
	return false
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusSold     Status = "sold"
	StatusRented   Status = "rented"
	StatusReserved Status = "reserved"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSold, StatusRented, StatusReserved:
		return true
	}
	return false
}

type RentPeriod string

const (
	RentMonthly RentPeriod = "monthly"
	RentYearly  RentPeriod = "yearly"
)

type AreaUnit string

const (
	AreaM2   AreaUnit = "m2"
	AreaFt2  AreaUnit = "ft2"
	AreaHa   AreaUnit = "ha"
	AreaAcre AreaUnit = "acre"
)
