package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klarwerk/zielbord/internal/api/handlers"
	"github.com/klarwerk/zielbord/internal/testutil"
	"github.com/klarwerk/zielbord/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionHandler(t *testing.T) {
	handler := handlers.NewVersionHandler(config.BuildConfig{
		AppVersion: "1.4.2",
		BuildTime:  "2026-08-30T10:00:00Z",
		GitCommit:  "abc1234",
		Region:     "fra1",
	}, "production")

	req := httptest.NewRequest("GET", "/api/v1/version", nil)
	rr := httptest.NewRecorder()
	handler.Version(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Equal(t, "1.4.2", resp["version"])
	assert.Equal(t, "abc1234", resp["commit"])
	assert.Equal(t, "2026-08-30T10:00:00Z", resp["build_time"])
	assert.Equal(t, "fra1", resp["region"])
	assert.Equal(t, "production", resp["env"])
}

func TestVersionHandler_FallsBackToLinkerValues(t *testing.T) {
	handler := handlers.NewVersionHandler(config.BuildConfig{}, "development")

	req := httptest.NewRequest("GET", "/api/v1/version", nil)
	rr := httptest.NewRecorder()
	handler.Version(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	testutil.ParseJSONResponse(t, rr, &resp)
	// Unset build metadata falls through to the ldflags defaults.
	assert.Equal(t, "unknown", resp["commit"])
	assert.Equal(t, "development", resp["env"])
}
