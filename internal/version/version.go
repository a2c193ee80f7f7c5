package version

import (
	"fmt"
	"strings"
)

// Build metadata, set via -ldflags "-X".
var (
	App       = "login"
	Version   string
	GitCommit string
	BuildTime string
	GoVersion string
	BuildOS   string
	BuildArch string
)

// PrintVersion prints the version information
func PrintVersion() {
	fmt.Print(Info())
}

// Info renders the multi-line build report printed by -version.
func Info() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s version %s\n", App, Short())
	if GitCommit != "" {
		fmt.Fprintf(&b, "Git commit: %s\n", shortCommit())
	}
	if BuildTime != "" {
		fmt.Fprintf(&b, "Build time: %s\n", BuildTime)
	}
	if GoVersion != "" {
		fmt.Fprintf(&b, "Go version: %s\n", GoVersion)
	}
	if BuildOS != "" && BuildArch != "" {
		fmt.Fprintf(&b, "Built for: %s/%s\n", BuildOS, BuildArch)
	}
	return b.String()
}

// Short returns the version, or "dev" for untagged builds
func Short() string {
	if Version != "" {
		return Version
	}
	return "dev"
}

func shortCommit() string {
	if len(GitCommit) > 7 {
		return GitCommit[:7]
	}
	return GitCommit
}
