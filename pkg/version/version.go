// Package version holds build identification for the foliage binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is the semantic version of foliage. Overridden with -ldflags at release.
var Version = "1.0.0"

// Commit is the Git hash the binary was built from.
var Commit = "<unknown>"

func init() {
	if Commit != "<unknown>" {
		return
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && setting.Value != "" {
			Commit = setting.Value
		}
	}
}

// String renders "version (commit)".
func String() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
