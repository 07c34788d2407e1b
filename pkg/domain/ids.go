// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"bytes"

	"github.com/google/uuid"

	dErrors "estatehub/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing PropertyID where TenantID is expected.
type (
	TenantID   uuid.UUID
	PropertyID uuid.UUID
	UserID     uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseTenantID(s string) (TenantID, error) {
	id, err := parseUUID(s, "tenant ID")
	return TenantID(id), err
}

func ParsePropertyID(s string) (PropertyID, error) {
	id, err := parseUUID(s, "property ID")
	return PropertyID(id), err
}

func ParseUserID(s string) (UserID, error) {
	id, err := parseUUID(s, "user ID")
	return UserID(id), err
}

// New functions generate random (v4) identifiers.

func NewTenantID() TenantID     { return TenantID(uuid.New()) }
func NewPropertyID() PropertyID { return PropertyID(uuid.New()) }
func NewUserID() UserID         { return UserID(uuid.New()) }

// String methods - for logging and debugging.

func (id TenantID) String() string   { return uuid.UUID(id).String() }
func (id PropertyID) String() string { return uuid.UUID(id).String() }
func (id UserID) String() string     { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (id TenantID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id PropertyID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

// Compare orders property IDs by their byte representation, matching
// PostgreSQL's ordering of the uuid type.
func (id PropertyID) Compare(other PropertyID) int {
	return bytes.Compare(id[:], other[:])
}

// MarshalText lets typed IDs serialize as canonical UUID strings in JSON.
func (id TenantID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id PropertyID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id UserID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }

func (id *TenantID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *PropertyID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *UserID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }

// parseUUID is the shared validation logic.
// Nil UUIDs are allowed here. Use IsNil() at the service layer for
// business validation, which allows store lookups to return proper
// "not found" errors for consistency.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	return id, nil
}
