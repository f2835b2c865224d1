// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set with -ldflags -X. Release builds set all four; "go install"
// builds leave them empty and [Current] falls back to the VCS stamp
// the toolchain embeds.
var (
	GitCommit = ""
	GitDirty  = ""
	BuildTime = ""
	Version   = "0.1.0-dev"
)

// TokenFormat names the token encoding this build reads and writes.
const TokenFormat = "SD-CWT (COSE_Sign1, tag 18)"

// Build describes the running binary.
type Build struct {
	Version   string
	Commit    string
	Dirty     bool
	Time      string
	GoVersion string
	Platform  string
}

// Current returns the build description, preferring linker-injected
// values over the embedded VCS settings.
func Current() Build {
	build := Build{
		Version:   Version,
		Commit:    GitCommit,
		Dirty:     GitDirty == "true",
		Time:      BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		build.fillFromSettings(info.Settings)
	}
	if build.Commit == "" {
		build.Commit = "unknown"
	}
	if build.Time == "" {
		build.Time = "unknown"
	}
	return build
}

func (b *Build) fillFromSettings(settings []debug.BuildSetting) {
	if b.Commit != "" {
		return
	}
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			b.Commit = setting.Value
			if len(b.Commit) > 12 {
				b.Commit = b.Commit[:12]
			}
		case "vcs.modified":
			b.Dirty = setting.Value == "true"
		case "vcs.time":
			if b.Time == "" {
				b.Time = setting.Value
			}
		}
	}
}

// Info returns "version (commit[-dirty], time)".
func Info() string {
	return Current().String()
}

func (b Build) String() string {
	dirty := ""
	if b.Dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", b.Version, b.Commit, dirty, b.Time)
}

// Full adds the toolchain, platform, and token format to [Info].
func Full() string {
	build := Current()
	var out strings.Builder
	out.WriteString(build.String())
	fmt.Fprintf(&out, "\n  Go: %s\n  Platform: %s\n  Tokens: %s",
		build.GoVersion, build.Platform, TokenFormat)
	return out.String()
}

// Short returns just the version number.
func Short() string {
	return Version
}
