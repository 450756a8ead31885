package version

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.NotEmpty(t, info.Version)
}

func TestWithBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	stamped := withBuildInfo(Info{Version: "dev", CommitHash: "dev", BuildTime: "unknown"}, bi)
	assert.Equal(t, "v0.3.1", stamped.Version)
	assert.Equal(t, "scholarfed v0.3.1 (commit 0123456+dirty, built 2026-10-01T12:00:00Z)", stamped.String())

	ldflags := withBuildInfo(Info{Version: "v1.0.0", CommitHash: "feedbee", BuildTime: "now"}, bi)
	assert.Equal(t, "v1.0.0", ldflags.Version)
	assert.Equal(t, "feedbee", ldflags.CommitHash)
	assert.Equal(t, "now", ldflags.BuildTime)
}

func TestWithBuildInfoIgnoresDevelModule(t *testing.T) {
	info := withBuildInfo(Info{Version: "dev", CommitHash: "dev"}, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	assert.Equal(t, "dev", info.Version)
	assert.Equal(t, "dev", info.Short())
}
