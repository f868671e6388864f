package build

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const (
	appMajor uint = 0
	appMinor uint = 1
	appPatch uint = 0
)

// Commit is the git commit the binary was built from. It is set at link
// time with -ldflags "-X github.com/roasbeef/propsum/internal/build.Commit=".
var Commit string

// Version returns the semantic version, suffixed with the commit when
// known.
func Version() string {
	version := fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)

	commit := Commit
	if commit == "" {
		commit = vcsRevision()
	}
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if commit != "" {
		version += "-" + commit
	}

	return version
}

// GoVersion returns the Go toolchain the binary was built with.
func GoVersion() string {
	return runtime.Version()
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}

	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			return setting.Value
		}
	}

	return ""
}
