// Package version exposes build-time version information.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// These variables are set at build time using -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// BuildInfo contains version and build information.
type BuildInfo struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"gitCommit"`
	BuildTime time.Time `json:"buildTime"`
	GoVersion string    `json:"goVersion"`
	Platform  string    `json:"platform"`
}

// Get returns the build information for the running binary.
func Get() BuildInfo {
	var buildTime time.Time
	if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
		buildTime = t
	}
	return BuildInfo{
		Version:   effectiveVersion(),
		GitCommit: GitCommit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// Short returns just the version string.
func Short() string {
	return effectiveVersion()
}

// IsRelease reports whether this binary carries a release version
// rather than a development build.
func IsRelease() bool {
	return Version != "" && Version != "dev"
}

func effectiveVersion() string {
	if IsRelease() {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return "dev"
}
