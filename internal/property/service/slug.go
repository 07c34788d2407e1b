package service

import (
	"context"
	"slices"
	"strconv"
	"strings"

	id "estatehub/pkg/domain"
	stringutil "estatehub/pkg/string"
)

const (
	fallbackSlug  = "property"
	maxSlugLength = 120
)

// slugFromTitle derives the base slug; an empty result falls back to "property".
func slugFromTitle(title string) string {
	s := stringutil.Slugify(title)
	if len(s) > maxSlugLength {
		s = s[:maxSlugLength]
		for len(s) > 0 && s[len(s)-1] == '-' {
			s = s[:len(s)-1]
		}
	}
	if s == "" {
		return fallbackSlug
	}
	return s
}

// ownsBase reports whether slug is base itself or base with a numeric suffix.
func ownsBase(slug, base string) bool {
	if slug == base {
		return true
	}
	suffix, ok := strings.CutPrefix(slug, base+"-")
	if !ok || suffix == "" {
		return false
	}
	_, err := strconv.Atoi(suffix)
	return err == nil
}

// uniqueSlug returns base, or base-2, base-3, ... whichever is first free within the tenant.
func (s *Service) uniqueSlug(ctx context.Context, tenantID id.TenantID, base string) (string, error) {
	taken, err := s.store.SlugsWithPrefix(ctx, tenantID, base)
	if err != nil {
		return "", err
	}
	if !slices.Contains(taken, base) {
		return base, nil
	}
	for n := 2; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if !slices.Contains(taken, candidate) {
			return candidate, nil
		}
	}
}
