// Package version reports what build of termfolio is running.
package version

import (
	"runtime/debug"
	"strings"
	"time"
)

const defaultModule = "pkt.systems/termfolio"

// buildVersion is set via -ldflags "-X pkt.systems/termfolio/internal/version.buildVersion=...".
var buildVersion = ""

// Info describes the running build.
type Info struct {
	Module   string
	Version  string
	Revision string
	Time     time.Time
	Dirty    bool
}

// String renders the module and version on one line.
func (i Info) String() string {
	return i.Module + " " + i.Version
}

// Read collects build information. Version falls back to a pseudo version derived
// from VCS settings, then to v0.0.0-unknown.
func Read() Info {
	info, _ := debug.ReadBuildInfo()
	return fromBuildInfo(info, buildVersion)
}

// Current returns the best available version string.
func Current() string {
	return Read().Version
}

// Module returns the module path from build info when available.
func Module() string {
	return Read().Module
}

func fromBuildInfo(info *debug.BuildInfo, override string) Info {
	out := Info{Module: defaultModule, Version: "v0.0.0-unknown"}
	if info != nil {
		if path := strings.TrimSpace(info.Main.Path); path != "" {
			out.Module = path
		}
		vcs := readVCS(info)
		out.Revision, out.Time, out.Dirty = vcs.revision, vcs.time, vcs.modified
		switch v := strings.TrimSpace(info.Main.Version); {
		case v != "" && v != "(devel)":
			out.Version = strings.TrimSuffix(v, "+dirty")
		case vcs.pseudo() != "":
			out.Version = vcs.pseudo()
		}
	}
	if v := strings.TrimSpace(override); v != "" {
		out.Version = strings.TrimSuffix(v, "+dirty")
	}
	return out
}

type vcsSettings struct {
	revision string
	time     time.Time
	modified bool
}

func readVCS(info *debug.BuildInfo) vcsSettings {
	var out vcsSettings
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			out.revision = setting.Value
		case "vcs.time":
			if parsed, err := time.Parse(time.RFC3339, setting.Value); err == nil {
				out.time = parsed.UTC()
			}
		case "vcs.modified":
			out.modified = setting.Value == "true"
		}
	}
	return out
}

// pseudo formats a Go pseudo version from the revision and commit time.
func (v vcsSettings) pseudo() string {
	if v.revision == "" || v.time.IsZero() {
		return ""
	}
	rev := v.revision
	if len(rev) > 12 {
		rev = rev[:12]
	}
	return "v0.0.0-" + v.time.Format("20060102150405") + "-" + rev
}
