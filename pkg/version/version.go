package version

import (
	_ "embed"
	"runtime/debug"
	"strings"
)

//go:embed version.txt
var versionFile string

// Version returns the current imagefetch version
func Version() string {
	return strings.TrimSpace(versionFile)
}

// BuildID is Version plus the short VCS revision when the binary carries one.
func BuildID() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Version()
	}
	var rev string
	dirty := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return Version()
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if dirty {
		rev += "-dirty"
	}
	return Version() + "+" + rev
}
