package version

import (
	"runtime"
	"strings"
	"testing"
	"time"
)

func withBuildVars(t *testing.T, version, commit, buildTime string) {
	t.Helper()
	origVersion, origCommit, origBuildTime := Version, GitCommit, BuildTime
	Version, GitCommit, BuildTime = version, commit, buildTime
	t.Cleanup(func() {
		Version, GitCommit, BuildTime = origVersion, origCommit, origBuildTime
	})
}

func TestGet_LinkerValues(t *testing.T) {
	withBuildVars(t, "v1.2.3", "0123456789abcdef", "2026-01-02T03:04:05Z")

	info := Get()
	if info.Version != "v1.2.3" {
		t.Errorf("expected v1.2.3, got %q", info.Version)
	}
	if info.GitCommit != "0123456" {
		t.Errorf("expected shortened commit, got %q", info.GitCommit)
	}
	want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if !info.BuildDate.Equal(want) {
		t.Errorf("expected %v, got %v", want, info.BuildDate)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("unexpected go version %q", info.GoVersion)
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("unexpected platform %q", info.Platform)
	}
}

func TestInfo_Short(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"version only", Info{Version: "v1.0.0"}, "v1.0.0"},
		{"with commit", Info{Version: "v1.0.0", GitCommit: "abc1234"}, "v1.0.0-abc1234"},
		{"dirty", Info{Version: "v1.0.0", GitCommit: "abc1234", Dirty: true}, "v1.0.0-abc1234-dirty"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.info.Short(); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestInfo_IsRelease(t *testing.T) {
	tests := []struct {
		info Info
		want bool
	}{
		{Info{Version: "dev"}, false},
		{Info{Version: "v1.0.0"}, true},
		{Info{Version: "v1.0.0", Dirty: true}, false},
		{Info{Version: "v1.0.0-dirty"}, false},
	}
	for _, tc := range tests {
		if got := tc.info.IsRelease(); got != tc.want {
			t.Errorf("%+v: expected %v, got %v", tc.info, tc.want, got)
		}
	}
}

func TestInfo_String(t *testing.T) {
	info := Info{
		Version:   "v2.0.0",
		BuildDate: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		GoVersion: "go1.26.0",
		Platform:  "linux/amd64",
	}
	want := "v2.0.0 (built 2026-05-01T00:00:00Z) go1.26.0 linux/amd64"
	if got := info.String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestUserAgent(t *testing.T) {
	withBuildVars(t, "v1.2.3", "", "")

	ua := UserAgent()
	if !strings.HasPrefix(ua, "networkable/v1.2.3 (") {
		t.Errorf("unexpected user agent %q", ua)
	}
	if !strings.Contains(ua, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("expected platform in %q", ua)
	}
}
