// Package version reports the build metadata of the running binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

const (
	Unknown = "unknown"
	// DevelopmentVersion is reported when AppVersion was not set at link time.
	DevelopmentVersion = "dev"
)

// Set at link time, e.g.
//
//	go build -ldflags="-X github.com/nimburion/bookshelf/pkg/version.AppVersion=v1.2.3"
var (
	AppVersion = DevelopmentVersion
	GitCommit  = Unknown
	// BuildTime should be RFC 3339.
	BuildTime = Unknown
)

// Info is served on the management /version endpoint and logged at startup.
type Info struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Current returns the build metadata for serviceName. When GitCommit and
// BuildTime were not injected, the VCS stamp recorded by the Go toolchain
// is used instead, if there is one.
func Current(serviceName string) Info {
	info := Info{
		Service:   orDefault(serviceName, Unknown),
		Version:   orDefault(AppVersion, DevelopmentVersion),
		Commit:    orDefault(GitCommit, Unknown),
		BuildTime: orDefault(BuildTime, Unknown),
		GoVersion: runtime.Version(),
	}

	if info.Commit != Unknown && info.BuildTime != Unknown {
		return info
	}
	build, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, setting := range build.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.Commit == Unknown {
				info.Commit = orDefault(setting.Value, Unknown)
			}
		case "vcs.time":
			if info.BuildTime == Unknown {
				info.BuildTime = orDefault(setting.Value, Unknown)
			}
		}
	}
	return info
}

func (i Info) String() string {
	return fmt.Sprintf("%s@%s (commit=%s, build_time=%s)", i.Service, i.Version, i.Commit, i.BuildTime)
}

func orDefault(v, fallback string) string {
	if trimmed := strings.TrimSpace(v); trimmed != "" {
		return trimmed
	}
	return fallback
}
