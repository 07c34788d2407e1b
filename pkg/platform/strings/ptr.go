package strings

import "strings"

// TrimSpacePtr returns a pointer to the trimmed value, or nil for nil.
func TrimSpacePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
