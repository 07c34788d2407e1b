package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"estatehub/internal/tenant/models"
	tenantstore "estatehub/internal/tenant/store/tenant"
	id "estatehub/pkg/domain"
	dErrors "estatehub/pkg/domain-errors"
	"estatehub/pkg/requestcontext"
)

type ResolverSuite struct {
	suite.Suite
	store    *tenantstore.InMemory
	resolver *Resolver
	now      time.Time
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.store = tenantstore.NewInMemory()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.resolver = New(s.store, Config{PlatformDomain: "estatehub.io"}, WithClock(func() time.Time { return s.now }))
}

func (s *ResolverSuite) seed(slug string, mutate func(*models.Tenant)) *models.Tenant {
	t, err := models.NewTenant(id.NewTenantID(), slug, slug+" realty", models.PlanBasic, s.now)
	s.Require().NoError(err)
	if mutate != nil {
		mutate(t)
	}
	s.Require().NoError(s.store.Create(context.Background(), t))
	return t
}

func (s *ResolverSuite) request(host, target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Host = host
	return req.WithContext(requestcontext.WithNow(req.Context(), s.now))
}

func (s *ResolverSuite) TestHeaderWins() {
	acme := s.seed("acme", nil)
	s.seed("other", nil)

	req := s.request("other.estatehub.io", "/properties?tenant=other")
	req.Header.Set(HeaderTenantSlug, "ACME")

	got, err := s.resolver.Resolve(req.Context(), req)
	s.Require().NoError(err)
	s.Equal(acme.ID, got.ID)
	s.resolver.Wait()
}

func (s *ResolverSuite) TestQueryBeforeSubdomain() {
	other := s.seed("other", nil)
	s.seed("acme", nil)

	req := s.request("acme.estatehub.io", "/properties?tenant=other")
	got, err := s.resolver.Resolve(req.Context(), req)
	s.Require().NoError(err)
	s.Equal(other.ID, got.ID)
	s.resolver.Wait()
}

func (s *ResolverSuite) TestSubdomain() {
	acme := s.seed("acme", nil)

	req := s.request("acme.estatehub.io:8080", "/properties")
	got, err := s.resolver.Resolve(req.Context(), req)
	s.Require().NoError(err)
	s.Equal(acme.ID, got.ID)
	s.resolver.Wait()
}

func (s *ResolverSuite) TestSubdomainMissFallsThroughToDomain() {
	domain := "shop.acme-homes.com"
	acme := s.seed("acme", func(t *models.Tenant) { t.Domain = &domain })
	r := New(s.store, Config{}, WithClock(func() time.Time { return s.now }))

	req := s.request("Shop.Acme-Homes.com", "/properties")
	got, err := r.Resolve(req.Context(), req)
	s.Require().NoError(err)
	s.Equal(acme.ID, got.ID)
	r.Wait()
}

func (s *ResolverSuite) TestCustomDomain() {
	domain := "acmehomes.com"
	acme := s.seed("acme", func(t *models.Tenant) { t.Domain = &domain })

	req := s.request("acmehomes.com", "/")
	got, err := s.resolver.Resolve(req.Context(), req)
	s.Require().NoError(err)
	s.Equal(acme.ID, got.ID)
	s.resolver.Wait()
}

func (s *ResolverSuite) TestNoSignal() {
	for _, host := range []string{"localhost:3000", "127.0.0.1", "app.localhost", "[::1]:8080", ""} {
		req := s.request(host, "/properties")
		_, err := s.resolver.Resolve(req.Context(), req)
		s.True(dErrors.HasCode(err, dErrors.CodeTenantRequired), "host %q", host)
	}
}

func (s *ResolverSuite) TestReservedSubdomainIsNotATenant() {
	s.seed("www", nil)

	req := s.request("www.estatehub.io", "/properties")
	_, err := s.resolver.Resolve(req.Context(), req)
	s.True(dErrors.HasCode(err, dErrors.CodeTenantRequired))
}

func (s *ResolverSuite) TestUnownedHostIsNoSignal() {
	s.seed("acme", nil)

	for _, host := range []string{"example.com", "estatehub.io", "unknown-shop.net:8443"} {
		req := s.request(host, "/properties")
		_, err := s.resolver.Resolve(req.Context(), req)
		s.True(dErrors.HasCode(err, dErrors.CodeTenantRequired), "host %q", host)
	}
}

func (s *ResolverSuite) TestSubdomainAndDomainMissIsNotFound() {
	req := s.request("nobody.estatehub.io", "/properties")
	_, err := s.resolver.Resolve(req.Context(), req)
	s.True(dErrors.HasCode(err, dErrors.CodeTenantNotFound))
}

func (s *ResolverSuite) TestInactiveCustomDomainIsNotFound() {
	domain := "sleepy-homes.com"
	s.seed("sleepy", func(t *models.Tenant) {
		t.Domain = &domain
		t.Status = models.StatusSuspended
	})

	req := s.request("sleepy-homes.com", "/")
	_, err := s.resolver.Resolve(req.Context(), req)
	s.True(dErrors.HasCode(err, dErrors.CodeTenantNotFound))
}

func (s *ResolverSuite) TestUnknownAndInactive() {
	s.seed("sleepy", func(t *models.Tenant) { t.Status = models.StatusSuspended })

	for _, slug := range []string{"missing", "sleepy"} {
		req := s.request("localhost", "/")
		req.Header.Set(HeaderTenantSlug, slug)
		_, err := s.resolver.Resolve(req.Context(), req)
		s.True(dErrors.HasCode(err, dErrors.CodeTenantNotFound), slug)
	}
}

func (s *ResolverSuite) TestUnknownHeaderDoesNotFallBack() {
	s.seed("acme", nil)

	req := s.request("acme.estatehub.io", "/")
	req.Header.Set(HeaderTenantSlug, "missing")
	_, err := s.resolver.Resolve(req.Context(), req)
	s.True(dErrors.HasCode(err, dErrors.CodeTenantNotFound))
}

func (s *ResolverSuite) TestExpiredLicense() {
	expired := s.now.Add(-time.Hour)
	s.seed("acme", func(t *models.Tenant) { t.LicenseExpiresAt = &expired })
	s.seed("other", nil)

	req := s.request("other.estatehub.io", "/?tenant=other")
	req.Header.Set(HeaderTenantSlug, "acme")
	_, err := s.resolver.Resolve(req.Context(), req)
	s.True(dErrors.HasCode(err, dErrors.CodeLicenseExpired))
}

func (s *ResolverSuite) TestLicenseBoundaryIsExpired() {
	exp := s.now
	s.seed("acme", func(t *models.Tenant) { t.LicenseExpiresAt = &exp })

	req := s.request("acme.estatehub.io", "/")
	_, err := s.resolver.Resolve(req.Context(), req)
	s.True(dErrors.HasCode(err, dErrors.CodeLicenseExpired))
}

func (s *ResolverSuite) TestLicenseUsesResolverClock() {
	exp := s.now.Add(time.Hour)
	s.seed("acme", func(t *models.Tenant) { t.LicenseExpiresAt = &exp })

	req := s.request("acme.estatehub.io", "/")
	req = req.WithContext(requestcontext.WithNow(req.Context(), s.now.Add(-24*time.Hour)))
	s.now = exp.Add(time.Minute)

	_, err := s.resolver.Resolve(req.Context(), req)
	s.True(dErrors.HasCode(err, dErrors.CodeLicenseExpired))
}

func (s *ResolverSuite) TestTouchesActivity() {
	acme := s.seed("acme", nil)

	req := s.request("acme.estatehub.io", "/")
	_, err := s.resolver.Resolve(req.Context(), req)
	s.Require().NoError(err)
	s.resolver.Wait()

	stored, err := s.store.FindByID(context.Background(), acme.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stored.LastActivityAt)
	s.True(stored.LastActivityAt.Equal(s.now))
}

type fakeThrottle struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (f *fakeThrottle) Allow(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (s *ResolverSuite) TestThrottledTouch() {
	acme := s.seed("acme", nil)
	throttle := &fakeThrottle{seen: map[string]bool{}}
	r := New(s.store, Config{PlatformDomain: "estatehub.io", TouchInterval: time.Minute},
		WithClock(func() time.Time { return s.now }), WithThrottler(throttle))

	first := s.now
	req := s.request("acme.estatehub.io", "/")
	_, err := r.Resolve(req.Context(), req)
	s.Require().NoError(err)
	r.Wait()

	s.now = s.now.Add(10 * time.Second)
	_, err = r.Resolve(req.Context(), req)
	s.Require().NoError(err)
	r.Wait()

	stored, err := s.store.FindByID(context.Background(), acme.ID)
	s.Require().NoError(err)
	s.True(stored.LastActivityAt.Equal(first), "second touch inside the interval is skipped")
}

func (s *ResolverSuite) TestLocalThrottleSkipsRepeatTouches() {
	acme := s.seed("acme", nil)
	clock := func() time.Time { return s.now }
	r := New(s.store, Config{PlatformDomain: "estatehub.io", TouchInterval: time.Minute},
		WithClock(clock), WithThrottler(NewLocalThrottle(clock)))

	first := s.now
	req := s.request("acme.estatehub.io", "/")
	_, err := r.Resolve(req.Context(), req)
	s.Require().NoError(err)
	r.Wait()

	s.now = s.now.Add(30 * time.Second)
	_, err = r.Resolve(req.Context(), req)
	s.Require().NoError(err)
	r.Wait()

	stored, err := s.store.FindByID(context.Background(), acme.ID)
	s.Require().NoError(err)
	s.True(stored.LastActivityAt.Equal(first))

	s.now = s.now.Add(time.Minute)
	_, err = r.Resolve(req.Context(), req)
	s.Require().NoError(err)
	r.Wait()

	stored, err = s.store.FindByID(context.Background(), acme.ID)
	s.Require().NoError(err)
	s.True(stored.LastActivityAt.Equal(s.now))
}

func (s *ResolverSuite) TestThrottleFailureStillTouches() {
	acme := s.seed("acme", nil)
	r := New(s.store, Config{PlatformDomain: "estatehub.io", TouchInterval: time.Minute},
		WithClock(func() time.Time { return s.now }), WithThrottler(&fakeThrottle{err: errors.New("redis down")}))

	req := s.request("acme.estatehub.io", "/")
	_, err := r.Resolve(req.Context(), req)
	s.Require().NoError(err)
	r.Wait()

	stored, err := s.store.FindByID(context.Background(), acme.ID)
	s.Require().NoError(err)
	s.NotNil(stored.LastActivityAt)
}

func (s *ResolverSuite) TestMiddleware() {
	acme := s.seed("acme", nil)

	var seen *models.Tenant
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := s.resolver.Middleware("/admin")(next)

	s.Run("attaches tenant", func() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, s.request("acme.estatehub.io", "/properties"))
		s.Equal(http.StatusNoContent, rec.Code)
		s.Require().NotNil(seen)
		s.Equal(acme.ID, seen.ID)
	})

	s.Run("admin bypass", func() {
		seen = nil
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, s.request("localhost", "/admin/tenants"))
		s.Equal(http.StatusNoContent, rec.Code)
		s.Nil(seen)
	})

	s.Run("prefix must match a path segment", func() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, s.request("localhost", "/administrators"))
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), `"tenant_required"`)
	})

	s.Run("unknown tenant", func() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, s.request("nobody.estatehub.io", "/properties"))
		s.Equal(http.StatusNotFound, rec.Code)
		s.Contains(rec.Body.String(), `"tenant_not_found"`)
	})
	s.resolver.Wait()
}

func TestTenantContextIsImmutable(t *testing.T) {
	tenant, err := models.NewTenant(id.NewTenantID(), "acme", "Acme", models.PlanProfessional, time.Now())
	require.NoError(t, err)
	ctx := WithTenant(context.Background(), tenant)

	tenant.Name = "changed after attach"
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "Acme", got.Name)

	got.Features[models.FeatureAnalytics] = false
	again, _ := FromContext(ctx)
	assert.True(t, again.Features[models.FeatureAnalytics])

	_, err = Require(context.Background())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTenantRequired))
}

func TestSubdomainOf(t *testing.T) {
	reserved := []string{"www", "api"}
	tests := []struct {
		host, platform, want string
	}{
		{"acme.estatehub.io", "estatehub.io", "acme"},
		{"a.b.estatehub.io", "estatehub.io", "a"},
		{"estatehub.io", "estatehub.io", ""},
		{"acme.other.com", "estatehub.io", ""},
		{"api.estatehub.io", "estatehub.io", ""},
		{"acme.example.com", "", "acme"},
		{"example.com", "", ""},
		{"www.example.com", "", ""},
		{"10.0.0.1", "", ""},
		{"acme.localhost", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, subdomainOf(tt.host, tt.platform, reserved), tt.host)
	}
}

func TestNormalizeHost(t *testing.T) {
	assert.Equal(t, "acme.estatehub.io", normalizeHost("ACME.estatehub.io:443"))
	assert.Equal(t, "::1", normalizeHost("[::1]:8080"))
	assert.Equal(t, "example.com", normalizeHost("example.com."))
	assert.Equal(t, "", normalizeHost("  "))
}
