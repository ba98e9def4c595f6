// Package version holds build-time variables injected via ldflags.
package version

// These vars are overwritten at link time:
//   -X github.com/klarwerk/zielbord/internal/version.Version=v1.2.3
//   -X github.com/klarwerk/zielbord/internal/version.Commit=abc1234
//   -X github.com/klarwerk/zielbord/internal/version.Date=2026-08-30T00:00:00Z
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
