// Package version exposes the build version of the kit, embedded at
// build time or recovered from Go build info. The HTTP client sends it
// as the default User-Agent so backend logs can tell client versions
// apart.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time with -ldflags "-X github.com/kbukum/firekit/version.Version=v1.2.3".
var (
	Version   = "dev"
	GitCommit = ""
)

// Info holds resolved version information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
	Dirty     bool   `json:"dirty"`
}

// Get resolves version information from the ldflags variables, falling
// back to the binary's embedded VCS build info.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion

	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = setting.Value
				if len(info.GitCommit) > 7 {
					info.GitCommit = info.GitCommit[:7]
				}
			}
		case "vcs.modified":
			info.Dirty = setting.Value == "true"
		}
	}
	return info
}

// Short returns a compact version string such as "v1.2.3-8f0c1ab".
func Short() string {
	info := Get()
	s := info.Version
	if info.GitCommit != "" {
		s += "-" + info.GitCommit
	}
	if info.Dirty {
		s += "-dirty"
	}
	return s
}

// UserAgent returns the User-Agent value the HTTP client sends by
// default.
func UserAgent() string {
	return fmt.Sprintf("firekit/%s", Short())
}
