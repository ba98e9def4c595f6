package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/klarwerk/zielbord/internal/api/handlers"
	"github.com/klarwerk/zielbord/internal/api/middleware"
	"github.com/klarwerk/zielbord/internal/database/models"
	"github.com/klarwerk/zielbord/internal/okr"
	"github.com/klarwerk/zielbord/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTeamTestRouter(t *testing.T) (*chi.Mux, *testutil.TestContext, string) {
	tc := testutil.NewTestContext(t)
	t.Cleanup(tc.Cleanup)

	manager := testutil.CreateTestUserWithRole(t, tc.DB, tc.Org, models.RoleManager)
	managerToken := testutil.GenerateTestToken(t, tc.JWTService, manager)

	r := chi.NewRouter()
	r.Use(middleware.Auth(tc.JWTService))

	handler := handlers.NewTeamHandler(tc.DB)
	r.Route("/api/v1/team", func(r chi.Router) {
		r.Use(middleware.RequireRole(
			models.RoleManager, models.RoleHR, models.RoleAdmin, models.RoleSuperAdmin,
		))
		r.Get("/", handler.Overview)
		r.Get("/learnings", handler.Learnings)
	})

	return r, tc, managerToken
}

func TestTeamHandler_Overview(t *testing.T) {
	router, tc, managerToken := setupTeamTestRouter(t)

	quarter := okr.CurrentQuarter(time.Now())
	o := testutil.CreateTestOKR(t, tc.DB, tc.User, quarter)
	require.NoError(t, tc.DB.Model(o).Updates(map[string]interface{}{
		"progress": 80.0,
		"is_focus": true,
	}).Error)

	req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/team/", nil, managerToken)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Quarter string                     `json:"quarter"`
		Members []handlers.TeamMemberStats `json:"members"`
	}
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Equal(t, quarter, resp.Quarter)
	require.NotEmpty(t, resp.Members)

	var found bool
	for _, m := range resp.Members {
		if m.User.Email == tc.User.Email {
			found = true
			assert.Equal(t, 1, m.OKRCount)
			assert.Equal(t, 1, m.FocusCount)
			assert.Equal(t, 80.0, m.AvgProgress)
			assert.InDelta(t, 0.8, m.AvgScore, 1e-9)
		}
	}
	assert.True(t, found)
}

func TestTeamHandler_RoleGate(t *testing.T) {
	router, tc, _ := setupTeamTestRouter(t)

	// Plain employees are locked out of both team views.
	for _, path := range []string{"/api/v1/team/", "/api/v1/team/learnings"} {
		req := testutil.AuthenticatedRequest(t, "GET", path, nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code, path)
	}
}

func TestTeamHandler_Learnings(t *testing.T) {
	router, tc, managerToken := setupTeamTestRouter(t)

	course := testutil.CreateTestCourse(t, tc.DB, tc.Org.ID, 1)
	enrollment := testutil.CreateTestEnrollment(t, tc.DB, tc.User, course)
	require.NoError(t, tc.DB.Model(enrollment).
		Update("status", models.EnrollmentStatusCompleted).Error)

	req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/team/learnings", nil, managerToken)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Members []handlers.TeamLearningStats `json:"members"`
	}
	testutil.ParseJSONResponse(t, rr, &resp)

	var found bool
	for _, m := range resp.Members {
		if m.User.Email == tc.User.Email {
			found = true
			assert.Equal(t, 1, m.Enrollments)
			assert.Equal(t, 1, m.CompletedCourses)
			assert.Equal(t, 0, m.Certificates)
		}
	}
	assert.True(t, found)
}
