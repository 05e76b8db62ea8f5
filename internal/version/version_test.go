package version

import (
	"runtime/debug"
	"testing"
	"time"
)

func TestBuildVersionOverridesModuleVersion(t *testing.T) {
	info := &debug.BuildInfo{Main: debug.Module{Path: "example.com/folio", Version: "v0.9.0"}}
	got := fromBuildInfo(info, "v1.2.3+dirty")
	if got.Version != "v1.2.3" || got.Module != "example.com/folio" {
		t.Fatalf("unexpected info %+v", got)
	}
	if got.String() != "example.com/folio v1.2.3" {
		t.Fatalf("unexpected string %q", got.String())
	}
}

func TestPseudoVersionFromVCS(t *testing.T) {
	ts := time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC)
	info := &debug.BuildInfo{
		Main: debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "1234567890abcdef"},
			{Key: "vcs.time", Value: ts.Format(time.RFC3339)},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	got := fromBuildInfo(info, "")
	if got.Version != "v0.0.0-20250102030405-1234567890ab" {
		t.Fatalf("unexpected version %q", got.Version)
	}
	if !got.Dirty || got.Revision != "1234567890abcdef" || !got.Time.Equal(ts) {
		t.Fatalf("unexpected vcs fields %+v", got)
	}
	if got.Module != defaultModule {
		t.Fatalf("expected default module, got %q", got.Module)
	}
}

func TestUnknownWithoutBuildInfo(t *testing.T) {
	if got := fromBuildInfo(nil, ""); got.Version != "v0.0.0-unknown" {
		t.Fatalf("unexpected version %q", got.Version)
	}
}
