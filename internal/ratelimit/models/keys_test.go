package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// Identifiers containing the ':' delimiter must not be able to address
// another bucket.
type KeySuite struct {
	suite.Suite
}

func TestKeySuite(t *testing.T) {
	suite.Run(t, new(KeySuite))
}

func (s *KeySuite) TestKeyCollision() {
	s.Run("colon in identifier is escaped", func() {
		key := NewKey(KeyPrefixIP, "tenant:acme", ClassAuth)

		s.Equal("ip:tenant_cacme:auth", key.String())
	})

	s.Run("multiple colons are all escaped", func() {
		key := NewKey(KeyPrefixIP, "::1", ClassWrite)

		s.Equal("ip:_c_c1:write", key.String())
	})

	s.Run("underscore and colon inputs do not collide", func() {
		a := NewKey(KeyPrefixIP, "a_c", ClassAuth)
		b := NewKey(KeyPrefixIP, "a:", ClassAuth)

		s.NotEqual(a.String(), b.String())
	})

	s.Run("plain identifiers pass through", func() {
		key := NewKey(KeyPrefixTenant, "acme", ClassWrite)

		s.Equal("tenant:acme:write", key.String())
	})

	s.Run("empty class is omitted", func() {
		key := NewKey(KeyPrefixIP, "10.0.0.1", "")

		s.Equal("ip:10.0.0.1", key.String())
	})

	s.Run("prefix is not confused with identifier", func() {
		key := NewKey(KeyPrefixTenant, "ip", ClassAuth)

		s.Equal("tenant:ip:auth", key.String())
	})
}

func (s *KeySuite) TestRetryAfterSeconds() {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Equal(0, RetryAfterSeconds(true, now.Add(time.Minute), now))
	s.Equal(60, RetryAfterSeconds(false, now.Add(time.Minute), now))
	s.Equal(0, RetryAfterSeconds(false, now.Add(-time.Second), now))
}
