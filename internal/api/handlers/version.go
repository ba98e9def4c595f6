package handlers

import (
	"net/http"

	"github.com/klarwerk/zielbord/internal/version"
	"github.com/klarwerk/zielbord/pkg/config"
)

type VersionHandler struct {
	build config.BuildConfig
	env   string
}

func NewVersionHandler(build config.BuildConfig, env string) *VersionHandler {
	return &VersionHandler{build: build, env: env}
}

// Version handles GET /api/v1/version. It answers 200 regardless of
// backend state so deploy tooling can always read what is running.
func (h *VersionHandler) Version(w http.ResponseWriter, r *http.Request) {
	appVersion := h.build.AppVersion
	if appVersion == "" || appVersion == "dev" {
		if version.Version != "dev" {
			appVersion = version.Version
		}
	}

	commit := h.build.GitCommit
	if commit == "" {
		commit = version.Commit
	}

	buildTime := h.build.BuildTime
	if buildTime == "" {
		buildTime = version.Date
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"version":    appVersion,
		"commit":     commit,
		"build_time": buildTime,
		"region":     h.build.Region,
		"env":        h.env,
	})
}
