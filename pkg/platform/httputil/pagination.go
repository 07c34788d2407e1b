package httputil

import (
	"math"
	"net/http"
	"strconv"

	dErrors "estatehub/pkg/domain-errors"
)

const DefaultPageLimit = 20

// MaxOffset bounds the row offset of any page. Pages past it are empty.
const MaxOffset = math.MaxInt32

// Offset returns the row offset of a 1-indexed page, saturating at MaxOffset.
func Offset(page, limit int) int {
	if page < 1 || limit < 1 {
		return 0
	}
	if page-1 > MaxOffset/limit {
		return MaxOffset
	}
	return (page - 1) * limit
}

// PageParams reads ?page= and ?limit=. Page defaults to 1; limit defaults to
// DefaultPageLimit and is clamped to maxLimit.
func PageParams(r *http.Request, maxLimit int) (page, limit int, err error) {
	page, limit = 1, DefaultPageLimit
	q := r.URL.Query()
	fields := map[string]string{}

	if v := q.Get("page"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 1 {
			fields["page"] = "page must be a positive integer"
		} else {
			page = n
		}
	}
	if v := q.Get("limit"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 1 {
			fields["limit"] = "limit must be a positive integer"
		} else {
			limit = n
		}
	}
	if len(fields) > 0 {
		return 0, 0, dErrors.Validation("invalid pagination", fields)
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return page, limit, nil
}
