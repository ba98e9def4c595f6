package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/klarwerk/zielbord/internal/api/dto"
	"github.com/klarwerk/zielbord/internal/api/handlers"
	"github.com/klarwerk/zielbord/internal/api/middleware"
	"github.com/klarwerk/zielbord/internal/database/models"
	"github.com/klarwerk/zielbord/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupOrgTestRouter(t *testing.T) (*chi.Mux, *testutil.TestContext, string) {
	tc := testutil.NewTestContext(t)
	t.Cleanup(tc.Cleanup)

	admin := testutil.CreateTestUserWithRole(t, tc.DB, tc.Org, models.RoleAdmin)
	adminToken := testutil.GenerateTestToken(t, tc.JWTService, admin)

	r := chi.NewRouter()
	r.Use(middleware.Auth(tc.JWTService))

	handler := handlers.NewOrgHandler(tc.DB)
	r.Route("/api/v1/organization", func(r chi.Router) {
		r.Get("/", handler.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleHR, models.RoleAdmin, models.RoleSuperAdmin))
			r.Get("/members", handler.Members)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))
			r.Patch("/", handler.Update)
			r.Patch("/members/{id}/role", handler.UpdateMemberRole)
			r.Patch("/members/{id}/status", handler.UpdateMemberStatus)
		})
	})

	return r, tc, adminToken
}

func TestOrgHandler_Update(t *testing.T) {
	router, tc, adminToken := setupOrgTestRouter(t)

	body := map[string]interface{}{
		"name":     "Klarwerk GmbH",
		"logo_url": "https://cdn.example.com/logo.svg",
	}
	req := testutil.AuthenticatedRequest(t, "PATCH", "/api/v1/organization/", body, adminToken)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var org models.Organization
	testutil.ParseJSONResponse(t, rr, &org)
	assert.Equal(t, "Klarwerk GmbH", org.Name)
	assert.Equal(t, "https://cdn.example.com/logo.svg", org.LogoURL)
	// Slug never changes.
	assert.Equal(t, tc.Org.Slug, org.Slug)

	// Employees may read but not patch.
	req = testutil.AuthenticatedRequest(t, "PATCH", "/api/v1/organization/", body, tc.Token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestOrgHandler_UpdateMemberRole(t *testing.T) {
	router, tc, adminToken := setupOrgTestRouter(t)

	req := testutil.AuthenticatedRequest(t, "PATCH",
		"/api/v1/organization/members/"+tc.User.ID.String()+"/role",
		map[string]interface{}{"role": models.RoleManager}, adminToken)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp dto.SuccessResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.True(t, resp.Success)

	var stored models.User
	require.NoError(t, tc.DB.First(&stored, tc.User.ID).Error)
	assert.Equal(t, models.RoleManager, stored.Role)
}

func TestOrgHandler_RoleGuards(t *testing.T) {
	router, tc, _ := setupOrgTestRouter(t)

	admin := testutil.CreateTestUserWithRole(t, tc.DB, tc.Org, models.RoleAdmin)
	adminToken := testutil.GenerateTestToken(t, tc.JWTService, admin)

	t.Run("own role is locked", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "PATCH",
			"/api/v1/organization/members/"+admin.ID.String()+"/role",
			map[string]interface{}{"role": models.RoleEmployee}, adminToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		var resp dto.ErrorResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, dto.MsgOwnRoleChange, resp.Error)
	})

	t.Run("super_admin target is locked", func(t *testing.T) {
		super := testutil.CreateTestUserWithRole(t, tc.DB, tc.Org, models.RoleSuperAdmin)

		req := testutil.AuthenticatedRequest(t, "PATCH",
			"/api/v1/organization/members/"+super.ID.String()+"/role",
			map[string]interface{}{"role": models.RoleEmployee}, adminToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		var resp dto.ErrorResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, dto.MsgSuperAdminLocked, resp.Error)
	})

	t.Run("super_admin is not assignable", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "PATCH",
			"/api/v1/organization/members/"+tc.User.ID.String()+"/role",
			map[string]interface{}{"role": models.RoleSuperAdmin}, adminToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("status change shares the guards", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "PATCH",
			"/api/v1/organization/members/"+admin.ID.String()+"/status",
			map[string]interface{}{"status": models.UserStatusSuspended}, adminToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		req = testutil.AuthenticatedRequest(t, "PATCH",
			"/api/v1/organization/members/"+tc.User.ID.String()+"/status",
			map[string]interface{}{"status": models.UserStatusSuspended}, adminToken)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var stored models.User
		require.NoError(t, tc.DB.First(&stored, tc.User.ID).Error)
		assert.Equal(t, models.UserStatusSuspended, stored.Status)
	})
}

func TestOrgHandler_Members(t *testing.T) {
	router, tc, _ := setupOrgTestRouter(t)

	hr := testutil.CreateTestUserWithRole(t, tc.DB, tc.Org, models.RoleHR)
	hrToken := testutil.GenerateTestToken(t, tc.JWTService, hr)

	// HR can list members.
	req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/organization/members", nil, hrToken)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data    []dto.UserDTO `json:"data"`
		Total   int64         `json:"total"`
		Page    int           `json:"page"`
		PerPage int           `json:"per_page"`
	}
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.GreaterOrEqual(t, len(resp.Data), 3)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.PerPage)

	// Employees cannot.
	req = testutil.AuthenticatedRequest(t, "GET", "/api/v1/organization/members", nil, tc.Token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
