package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/klarwerk/zielbord/internal/api/dto"
	"github.com/klarwerk/zielbord/internal/api/handlers"
	"github.com/klarwerk/zielbord/internal/api/middleware"
	"github.com/klarwerk/zielbord/internal/auth"
	"github.com/klarwerk/zielbord/internal/database/models"
	"github.com/klarwerk/zielbord/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthTestRouter(t *testing.T) (*chi.Mux, *testutil.TestContext) {
	tc := testutil.NewTestContext(t)
	t.Cleanup(tc.Cleanup)

	authService := auth.NewService(tc.DB, tc.JWTService)
	handler := handlers.NewAuthHandler(authService, nil)

	r := chi.NewRouter()
	r.Post("/api/v1/auth/register", handler.Register)
	r.Post("/api/v1/auth/login", handler.Login)
	r.Post("/api/v1/auth/logout", handler.Logout)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tc.JWTService))
		r.Get("/api/v1/auth/me", handler.Me)
	})

	return r, tc
}

func TestAuthHandler_RegisterAndLogin(t *testing.T) {
	router, _ := setupAuthTestRouter(t)

	body := map[string]interface{}{
		"email":      "nina@klarwerk.example",
		"password":   "sicheres-passwort-1",
		"name":       "Nina",
		"department": "Engineering",
	}
	req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp dto.AuthResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "nina@klarwerk.example", resp.User.Email)
	assert.Equal(t, models.RoleEmployee, resp.User.Role)

	// Duplicate registration conflicts.
	req = testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Fresh login with the same credentials.
	req = testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", map[string]interface{}{
		"email":    "nina@klarwerk.example",
		"password": "sicheres-passwort-1",
	})
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	// Wrong password.
	req = testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", map[string]interface{}{
		"email":    "nina@klarwerk.example",
		"password": "falsch",
	})
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthHandler_SuspendedLogin(t *testing.T) {
	router, tc := setupAuthTestRouter(t)

	require.NoError(t, tc.DB.Model(tc.User).Update("status", models.UserStatusSuspended).Error)

	req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", map[string]interface{}{
		"email":    tc.User.Email,
		"password": "testpassword123",
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	var resp dto.ErrorResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Equal(t, dto.MsgAccountSuspended, resp.Error)
}

func TestAuthHandler_Me(t *testing.T) {
	router, tc := setupAuthTestRouter(t)

	req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/auth/me", nil, tc.Token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]dto.UserDTO
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Equal(t, tc.User.Email, resp["user"].Email)
	assert.Equal(t, tc.Org.Name, resp["user"].OrgName)
}

func TestAuthHandler_MeUnauthenticated(t *testing.T) {
	router, _ := setupAuthTestRouter(t)

	req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/auth/me", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	var resp dto.ErrorResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Equal(t, dto.MsgUnauthenticated, resp.Error)
}
