// Package validation holds size limits enforced at the HTTP boundary before
// struct-tag validation runs.
package validation

import (
	"fmt"

	dErrors "estatehub/pkg/domain-errors"
)

const (
	MaxTitleLength  = 200
	MaxSearchLength = 200
	MaxTags         = 30
)

// Fields collects one message per offending field.
type Fields map[string]string

// MaxLength records field when value is longer than max bytes.
func (f Fields) MaxLength(field, value string, max int) {
	if len(value) > max {
		f[field] = fmt.Sprintf("%s exceeds max length of %d", field, max)
	}
}

// MaxCount records field when n exceeds max.
func (f Fields) MaxCount(field string, n, max int) {
	if n > max {
		f[field] = fmt.Sprintf("too many %s: max %d allowed", field, max)
	}
}

// Err returns a validation error carrying every recorded field, or nil.
func (f Fields) Err(msg string) error {
	if len(f) == 0 {
		return nil
	}
	return dErrors.Validation(msg, f)
}
