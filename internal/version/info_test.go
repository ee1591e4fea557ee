package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromBuildInfo(t *testing.T) {
	t.Run("vcs settings", func(t *testing.T) {
		info := fromBuildInfo(&debug.BuildInfo{
			GoVersion: "go1.25.6",
			Main:      debug.Module{Version: "v1.2.0"},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc123"},
				{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
				{Key: "vcs.modified", Value: "true"},
				{Key: "GOOS", Value: "linux"},
				{Key: "GOARCH", Value: "amd64"},
			},
		})

		assert.Equal(t, &Info{
			Version:      "v1.2.0",
			Revision:     "abc123+dirty",
			RevisionTime: "2026-01-02T03:04:05Z",
			GoVersion:    "go1.25.6",
			OS:           "linux",
			Arch:         "amd64",
		}, info)
		assert.Equal(t, "v1.2.0 (abc123+dirty)", info.String())
	})

	t.Run("no version", func(t *testing.T) {
		info := fromBuildInfo(&debug.BuildInfo{GoVersion: "go1.25.6"})
		assert.Equal(t, "(devel)", info.String())
	})
}
