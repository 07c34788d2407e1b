package models

import (
	"fmt"
	"strings"
)

// KeyPrefix represents the type of rate limit key.
type KeyPrefix string

const (
	KeyPrefixIP     KeyPrefix = "ip"
	KeyPrefixTenant KeyPrefix = "tenant"
)

// Key is a bucket identifier. Identifiers are escaped so caller-controlled
// values cannot address another bucket.
type Key struct {
	prefix     KeyPrefix
	identifier string
	class      EndpointClass
}

// NewKey creates a key for identifier within class.
func NewKey(prefix KeyPrefix, identifier string, class EndpointClass) Key {
	return Key{
		prefix:     prefix,
		identifier: sanitizeKeySegment(identifier),
		class:      class,
	}
}

// String returns the formatted key for storage lookup.
func (k Key) String() string {
	if k.class == "" {
		return fmt.Sprintf("%s:%s", k.prefix, k.identifier)
	}
	return fmt.Sprintf("%s:%s:%s", k.prefix, k.identifier, k.class)
}

// sanitizeKeySegment escapes '_' to '__' and then ':' to '_c', so that no two
// distinct inputs map to the same segment.
func sanitizeKeySegment(s string) string {
	s = strings.ReplaceAll(s, "_", "__")
	s = strings.ReplaceAll(s, ":", "_c")
	return s
}
