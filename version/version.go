// Package version carries build information injected by the linker.
package version

import (
	"fmt"
	"runtime/debug"
)

// These variables are set via ldflags during build:
//
//	-X github.com/philipparndt/stlwebviewer/version.Version=v1.2.0
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// GetVersion returns the version string. Development builds installed with
// go install report the module version instead.
func GetVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// GetFullVersion returns the version with commit and build date when known
func GetFullVersion() string {
	v := GetVersion()
	if GitCommit == "unknown" {
		return v
	}
	if BuildDate == "unknown" {
		return fmt.Sprintf("%s (%s)", v, GitCommit)
	}
	return fmt.Sprintf("%s (%s, built %s)", v, GitCommit, BuildDate)
}
