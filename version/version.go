// Package version exposes build version information for services that
// register themselves with the registry.
//
// Version and git metadata are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/sngor/regkit/version.Version=1.2.0"
//
// When ldflags are absent, git metadata is recovered from the embedded
// module build info where available.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

var (
	// These variables are set at build time using -ldflags.
	Version   = "dev"
	GitCommit = ""
	GoVersion = ""
)

// Info represents resolved build version information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	GoVersion string `json:"goVersion"`
	IsDirty   bool   `json:"isDirty"`
}

// Get returns the resolved version information, preferring ldflags values
// and falling back to the embedded build info.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		GoVersion: GoVersion,
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		if info.GoVersion == "" {
			info.GoVersion = buildInfo.GoVersion
		}
		for _, setting := range buildInfo.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = shortCommit(setting.Value)
				}
			case "vcs.modified":
				info.IsDirty = setting.Value == "true"
			}
		}
	}

	return info
}

// String renders the version with commit suffix when known, e.g.
// "1.2.0-4f2a91c" or "dev-4f2a91c-dirty".
func (i Info) String() string {
	parts := []string{i.Version}
	if i.GitCommit != "" {
		parts = append(parts, i.GitCommit)
	}
	if i.IsDirty {
		parts = append(parts, "dirty")
	}
	return strings.Join(parts, "-")
}

// Default returns the version string used when a service registers without
// an explicit version.
func Default() string {
	return Get().Version
}

func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// Banner renders a one-line startup banner.
func Banner(serviceName string) string {
	info := Get()
	return fmt.Sprintf("%s %s (go %s)", serviceName, info.String(), info.GoVersion)
}
