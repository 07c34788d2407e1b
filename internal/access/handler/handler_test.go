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

	"estatehub/internal/access/handler/mocks"
	"estatehub/internal/access/models"
	"estatehub/internal/access/service"
	tenantmodels "estatehub/internal/tenant/models"
	"estatehub/internal/tenant/resolver"
	id "estatehub/pkg/domain"
	dErrors "estatehub/pkg/domain-errors"
)

type HandlerSuite struct {
	suite.Suite
	router      http.Handler
	ctrl        *gomock.Controller
	mockService *mocks.MockService
	tenant      *tenantmodels.Tenant
	permits     []string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = mocks.NewMockService(s.ctrl)
	s.permits = nil
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.mockService, logger, 50)

	var err error
	s.tenant, err = tenantmodels.NewTenant(id.NewTenantID(), "acme", "Acme Realty", tenantmodels.PlanBasic, time.Now())
	s.Require().NoError(err)

	permit := func(resource, action string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				s.permits = append(s.permits, resource+":"+action)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := chi.NewRouter()
	h.RegisterAuth(r)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(resolver.WithTenant(req.Context(), s.tenant)))
			})
		})
		h.Register(r, permit)
	})
	s.router = r
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) do(method, target string, body any) (*httptest.ResponseRecorder, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func (s *HandlerSuite) user(email string, role models.Role) *models.User {
	u, err := models.NewUser(id.NewUserID(), &s.tenant.ID, email, "Test User", role, "hash", time.Now())
	s.Require().NoError(err)
	return u
}

func (s *HandlerSuite) TestCreateUser() {
	s.Run("maps request to command", func() {
		created := s.user("agent@acme.test", models.RoleAgent)
		s.mockService.EXPECT().
			CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, tenant *tenantmodels.Tenant, cmd *service.CreateUserCommand) (*models.User, error) {
				s.Equal(s.tenant.ID, tenant.ID)
				s.Equal("agent@acme.test", cmd.Email)
				s.Equal("Agent Smith", cmd.Name)
				s.Equal(models.RoleAgent, cmd.Role)
				return created, nil
			})

		rec, body := s.do(http.MethodPost, "/users", map[string]any{
			"email": " Agent@Acme.test ", "name": " Agent Smith ", "password": "s3cret-pass", "role": "agent",
		})
		s.Equal(http.StatusCreated, rec.Code)
		data := body["data"].(map[string]any)
		s.Equal("agent@acme.test", data["email"])
		s.NotContains(data, "password_hash")
		s.Contains(s.permits, "users:create")
	})

	s.Run("rejects super admin role", func() {
		rec, body := s.do(http.MethodPost, "/users", map[string]any{
			"email": "root@acme.test", "name": "Root", "password": "s3cret-pass", "role": "super_admin",
		})
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(body["fields"], "role")
	})

	s.Run("plan limit", func() {
		s.mockService.EXPECT().CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.WithDetails(dErrors.CodePlanLimitReached, "plan limit reached", map[string]any{
				"resource": "users", "current": 2, "max": 2,
			}))

		rec, body := s.do(http.MethodPost, "/users", map[string]any{
			"email": "third@acme.test", "name": "Third", "password": "s3cret-pass", "role": "agent",
		})
		s.Equal(http.StatusForbidden, rec.Code)
		s.Equal("plan_limit_reached", body["error"])
		details := body["details"].(map[string]any)
		s.InDelta(2, details["current"], 0)
	})

	s.Run("duplicate email", func() {
		s.mockService.EXPECT().CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "email already registered"))

		rec, _ := s.do(http.MethodPost, "/users", map[string]any{
			"email": "dup@acme.test", "name": "Dup", "password": "s3cret-pass", "role": "user",
		})
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *HandlerSuite) TestListUsers() {
	users := []*models.User{s.user("a@acme.test", models.RoleAgent), s.user("b@acme.test", models.RoleManager)}
	s.mockService.EXPECT().ListUsers(gomock.Any(), gomock.Any(), 2, 2).Return(users, 5, nil)

	rec, body := s.do(http.MethodGet, "/users?page=2&limit=2", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Len(body["data"], 2)
	pagination := body["pagination"].(map[string]any)
	s.InDelta(5, pagination["total"], 0)
	s.Equal(true, pagination["has_next"])
	s.Contains(s.permits, "users:read")
}

func (s *HandlerSuite) TestLogin() {
	s.Run("issues token", func() {
		u := s.user("agent@acme.test", models.RoleAgent)
		s.mockService.EXPECT().Login(gomock.Any(), "agent@acme.test", "s3cret-pass").
			Return(&service.LoginResult{User: u, AccessToken: "signed.jwt.value"}, nil)

		rec, body := s.do(http.MethodPost, "/auth/login", map[string]any{"email": "Agent@acme.test", "password": "s3cret-pass"})
		s.Equal(http.StatusOK, rec.Code)
		data := body["data"].(map[string]any)
		s.Equal("signed.jwt.value", data["access_token"])
		s.Equal("Bearer", data["token_type"])
	})

	s.Run("bad credentials", func() {
		s.mockService.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials"))

		rec, body := s.do(http.MethodPost, "/auth/login", map[string]any{"email": "agent@acme.test", "password": "nope"})
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal("unauthorized", body["error"])
	})
}
