package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func restore(t *testing.T) {
	t.Helper()
	v, c, d := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = v, c, d })
}

func TestFillFromBuildInfo(t *testing.T) {
	restore(t)
	Version, Commit, Date = "dev", "none", "unknown"

	fillFromBuildInfo(&debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	}, true)

	if Version != "v0.3.0" || Commit != "0123456789abcdef" || Date != "2026-01-02T03:04:05Z" {
		t.Errorf("got %s %s %s", Version, Commit, Date)
	}
	if got := Short(); got != "v0.3.0 (0123456)" {
		t.Errorf("Short() = %q", got)
	}
}

func TestFillKeepsLdflags(t *testing.T) {
	restore(t)
	Version, Commit, Date = "v1.0.0", "cafe", "today"

	fillFromBuildInfo(&debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "beef"}},
	}, true)

	if Version != "v1.0.0" || Commit != "cafe" || Date != "today" {
		t.Errorf("ldflags values overwritten: %s %s %s", Version, Commit, Date)
	}
	fillFromBuildInfo(nil, false)
}

func TestTemplate(t *testing.T) {
	restore(t)
	Version, Commit = "v2", "none"

	if !strings.HasPrefix(Template(), "{{.Name}} version v2") {
		t.Errorf("Template() = %q", Template())
	}
	if Short() != "v2" {
		t.Errorf("Short() without commit = %q", Short())
	}
}
