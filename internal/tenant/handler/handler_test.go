package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"estatehub/internal/tenant/handler/mocks"
	"estatehub/internal/tenant/models"
	"estatehub/internal/tenant/readmodels"
	"estatehub/internal/tenant/resolver"
	"estatehub/internal/tenant/service"
	id "estatehub/pkg/domain"
	dErrors "estatehub/pkg/domain-errors"
)

type HandlerSuite struct {
	suite.Suite
	router      http.Handler
	ctrl        *gomock.Controller
	mockService *mocks.MockService
	tenant      *models.Tenant
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = mocks.NewMockService(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.mockService, logger, 100)

	var err error
	s.tenant, err = models.NewTenant(id.NewTenantID(), "acme", "Acme Realty", models.PlanProfessional, time.Now())
	s.Require().NoError(err)

	r := chi.NewRouter()
	h.Register(r)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(resolver.WithTenant(req.Context(), s.tenant)))
			})
		})
		h.RegisterPublic(r)
	})
	s.router = r
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, target string, body any) (*httptest.ResponseRecorder, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			s.Require().NoError(json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func (s *HandlerSuite) TestCreateTenant() {
	s.Run("maps request to command", func() {
		s.mockService.EXPECT().CreateTenant(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, cmd *service.CreateTenantCommand) (*service.CreatedTenant, error) {
				s.Equal("acme", cmd.Slug)
				s.Equal(models.PlanProfessional, cmd.Plan)
				s.Equal("owner@acme.test", cmd.Admin.Email)
				s.Require().NotNil(cmd.Domain)
				s.Equal("acme-homes.com", *cmd.Domain)
				s.Require().Contains(cmd.Limits, models.LimitProperties)
				s.Equal(2, *cmd.Limits[models.LimitProperties])
				return &service.CreatedTenant{Tenant: s.tenant, AdminUserID: id.NewUserID()}, nil
			})

		rec, body := s.do(http.MethodPost, "/admin/tenants", map[string]any{
			"slug":   " ACME ",
			"name":   "Acme Realty",
			"plan":   "professional",
			"domain": "Acme-Homes.com",
			"limits": map[string]any{"max_properties": 2},
			"admin":  map[string]any{"email": "Owner@Acme.test", "name": "Owner", "password": "s3cret-pass"},
		})
		s.Equal(http.StatusCreated, rec.Code)
		s.Equal(true, body["success"])
		data := body["data"].(map[string]any)
		s.Equal("acme", data["tenant"].(map[string]any)["slug"])
		s.NotEmpty(data["admin_user_id"])
	})

	s.Run("validation errors are per field", func() {
		rec, body := s.do(http.MethodPost, "/admin/tenants", map[string]any{
			"slug":  "acme",
			"name":  "Acme",
			"plan":  "gold",
			"admin": map[string]any{"email": "not-an-email", "name": "Owner", "password": "short"},
		})
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("validation_failed", body["error"])
		fields := body["fields"].(map[string]any)
		s.Contains(fields, "plan")
		s.Contains(fields, "admin.email")
		s.Contains(fields, "admin.password")
	})

	s.Run("invalid json", func() {
		rec, _ := s.do(http.MethodPost, "/admin/tenants", "{not json")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("conflict", func() {
		s.mockService.EXPECT().CreateTenant(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "tenant slug already in use"))
		rec, body := s.do(http.MethodPost, "/admin/tenants", map[string]any{
			"slug":  "acme",
			"name":  "Acme",
			"admin": map[string]any{"email": "owner@acme.test", "name": "Owner", "password": "s3cret-pass"},
		})
		s.Equal(http.StatusConflict, rec.Code)
		s.Equal("conflict", body["error"])
	})
}

func (s *HandlerSuite) TestListTenants() {
	s.mockService.EXPECT().ListTenants(gomock.Any(), 2, 1).Return([]*models.Tenant{s.tenant}, 3, nil)

	rec, body := s.do(http.MethodGet, "/admin/tenants?page=2&limit=1", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Len(body["data"], 1)
	p := body["pagination"].(map[string]any)
	s.Equal(float64(3), p["total"])
	s.Equal(float64(3), p["total_pages"])
	s.Equal(true, p["has_next"])
	s.Equal(true, p["has_prev"])
}

func (s *HandlerSuite) TestGetTenant() {
	s.Run("with counts", func() {
		s.mockService.EXPECT().GetTenant(gomock.Any(), s.tenant.ID).
			Return(&readmodels.TenantDetails{Tenant: s.tenant, PropertyCount: 4, UserCount: 2}, nil)

		rec, body := s.do(http.MethodGet, "/admin/tenants/"+s.tenant.ID.String(), nil)
		s.Equal(http.StatusOK, rec.Code)
		data := body["data"].(map[string]any)
		s.Equal(float64(4), data["property_count"])
		s.Equal("acme", data["slug"])
	})

	s.Run("bad id", func() {
		rec, _ := s.do(http.MethodGet, "/admin/tenants/not-a-uuid", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("internal errors hide detail", func() {
		s.mockService.EXPECT().GetTenant(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Wrap(io.ErrUnexpectedEOF, dErrors.CodeInternal, "pq: relation tenants does not exist"))
		rec, body := s.do(http.MethodGet, "/admin/tenants/"+id.NewTenantID().String(), nil)
		s.Equal(http.StatusInternalServerError, rec.Code)
		s.NotContains(rec.Body.String(), "relation")
		s.Equal("internal_error", body["error"])
	})
}

func (s *HandlerSuite) TestChangeStatus() {
	s.mockService.EXPECT().ChangeStatus(gomock.Any(), s.tenant.ID, models.StatusSuspended).Return(s.tenant, nil)

	rec, _ := s.do(http.MethodPatch, "/admin/tenants/"+s.tenant.ID.String()+"/status", map[string]any{"status": "Suspended"})
	s.Equal(http.StatusOK, rec.Code)

	rec, body := s.do(http.MethodPatch, "/admin/tenants/"+s.tenant.ID.String()+"/status", map[string]any{"status": "deleted"})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(body["fields"], "status")
}

func (s *HandlerSuite) TestUpdateTenant() {
	s.mockService.EXPECT().UpdateTenant(gomock.Any(), s.tenant.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ id.TenantID, cmd *service.UpdateTenantCommand) (*models.Tenant, error) {
			s.Require().NotNil(cmd.Plan)
			s.Equal(models.PlanEnterprise, *cmd.Plan)
			s.Require().Contains(cmd.Limits, models.LimitUsers)
			s.Nil(cmd.Limits[models.LimitUsers])
			return s.tenant, nil
		})

	rec, _ := s.do(http.MethodPut, "/admin/tenants/"+s.tenant.ID.String(), map[string]any{
		"plan":   "enterprise",
		"limits": map[string]any{"max_users": nil},
	})
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestDashboard() {
	s.mockService.EXPECT().Dashboard(gomock.Any()).Return(&readmodels.Dashboard{
		TenantsByStatus: map[models.Status]int{models.StatusActive: 3},
		TotalTenants:    3,
		TotalProperties: 10,
		TotalUsers:      4,
	}, nil)

	rec, body := s.do(http.MethodGet, "/admin/dashboard", nil)
	s.Equal(http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	s.Equal(float64(3), data["tenants_by_status"].(map[string]any)["active"])
	s.Equal(float64(10), data["total_properties"])
}

func (s *HandlerSuite) TestPublicConfig() {
	rec, body := s.do(http.MethodGet, "/tenants/config", nil)
	s.Equal(http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	s.Equal("acme", data["slug"])
	s.ElementsMatch([]any{"analytics", "custom_domain", "featured_listings", "multi_currency"}, data["features"])
	s.NotContains(data, "limits")
	s.NotContains(data, "status")
}
