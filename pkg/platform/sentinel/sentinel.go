// Package sentinel defines the errors stores return so services can map
// them to domain errors in one place.
package sentinel

import "errors"

var (
	// ErrNotFound means no row matched within the caller's tenant.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate means a unique key such as a slug or email is taken.
	ErrDuplicate = errors.New("duplicate")
	// ErrInvalidInput means the store rejected an argument before querying.
	ErrInvalidInput = errors.New("invalid input")
)
