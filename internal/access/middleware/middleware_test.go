package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/internal/access/models"
	"estatehub/internal/access/token"
	tenantmodels "estatehub/internal/tenant/models"
	"estatehub/internal/tenant/resolver"
	id "estatehub/pkg/domain"
	dErrors "estatehub/pkg/domain-errors"
)

type stubUsers map[id.UserID]*models.User

func (s stubUsers) Authenticate(_ context.Context, userID id.UserID) (*models.User, error) {
	u, ok := s[userID]
	if !ok || !u.Active {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user not found or inactive")
	}
	return u, nil
}

type fixture struct {
	tokens *token.Service
	users  stubUsers
	mw     *Middleware
	tenant *tenantmodels.Tenant
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens := token.NewService("test-signing-key", "estatehub", "estatehub-api", time.Hour)
	users := stubUsers{}
	tenant, err := tenantmodels.NewTenant(id.NewTenantID(), "acme", "Acme", tenantmodels.PlanBasic, time.Now())
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		tokens: tokens,
		users:  users,
		mw:     New(token.NewAdapter(tokens), users, logger),
		tenant: tenant,
	}
}

func (f *fixture) addUser(t *testing.T, tenantID *id.TenantID, role models.Role) (*models.User, string) {
	t.Helper()
	u, err := models.NewUser(id.NewUserID(), tenantID, id.NewUserID().String()+"@acme.test", "Test", role, "hash", time.Now())
	require.NoError(t, err)
	f.users[u.ID] = u
	bearer, err := f.tokens.Issue(context.Background(), u)
	require.NoError(t, err)
	return u, bearer
}

func (f *fixture) do(handler http.Handler, bearer string, tenant *tenantmodels.Tenant) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/properties", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if tenant != nil {
		req = req.WithContext(resolver.WithTenant(req.Context(), tenant))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	code, _ := body["error"].(string)
	return code
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if _, found := Principal(r.Context()); !found {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
})

func TestPermit(t *testing.T) {
	f := newFixture(t)
	handler := f.mw.Permit("properties", "create")(okHandler)

	t.Run("missing token", func(t *testing.T) {
		rec := f.do(handler, "", f.tenant)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("member with permission", func(t *testing.T) {
		_, bearer := f.addUser(t, &f.tenant.ID, models.RoleAgent)
		rec := f.do(handler, bearer, f.tenant)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("member without permission", func(t *testing.T) {
		_, bearer := f.addUser(t, &f.tenant.ID, models.RoleUser)
		rec := f.do(handler, bearer, f.tenant)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "permission_denied", errorCode(t, rec))
	})

	t.Run("member of another tenant", func(t *testing.T) {
		other := id.NewTenantID()
		_, bearer := f.addUser(t, &other, models.RoleTenantAdmin)
		rec := f.do(handler, bearer, f.tenant)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("inactive user", func(t *testing.T) {
		u, bearer := f.addUser(t, &f.tenant.ID, models.RoleTenantAdmin)
		f.users[u.ID].Active = false
		rec := f.do(handler, bearer, f.tenant)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("no tenant resolved", func(t *testing.T) {
		_, bearer := f.addUser(t, &f.tenant.ID, models.RoleTenantAdmin)
		rec := f.do(handler, bearer, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "tenant_required", errorCode(t, rec))
	})
}

func TestRequireAdmin(t *testing.T) {
	f := newFixture(t)
	handler := f.mw.RequireAdmin(okHandler)

	_, root := f.addUser(t, nil, models.RoleSuperAdmin)
	rec := f.do(handler, root, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, admin := f.addUser(t, &f.tenant.ID, models.RoleTenantAdmin)
	rec = f.do(handler, admin, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(handler, "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPrincipalIsCopied(t *testing.T) {
	tenantID := id.NewTenantID()
	u, err := models.NewUser(id.NewUserID(), &tenantID, "a@acme.test", "A", models.RoleAgent, "hash", time.Now())
	require.NoError(t, err)

	ctx := WithPrincipal(context.Background(), u)
	got, found := Principal(ctx)
	require.True(t, found)
	got.Permissions[models.ResourceUsers] = models.Actions{Create: true}

	again, _ := Principal(ctx)
	assert.False(t, again.Can(models.ResourceUsers, models.ActionCreate))
}
