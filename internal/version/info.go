package version

import (
	"errors"
	"fmt"
	"runtime/debug"
)

type Info struct {
	Version      string `json:"version"`
	Revision     string `json:"revision,omitempty"`
	RevisionTime string `json:"revision_time,omitempty"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os,omitempty"`
	Arch         string `json:"arch,omitempty"`
}

func (i *Info) String() string {
	if i.Revision == "" {
		return i.Version
	}
	return fmt.Sprintf("%s (%s)", i.Version, i.Revision)
}

func GetInfo() (*Info, error) {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, errors.New("could not read build info")
	}
	return fromBuildInfo(buildInfo), nil
}

func fromBuildInfo(buildInfo *debug.BuildInfo) *Info {
	info := &Info{
		Version:   buildInfo.Main.Version,
		GoVersion: buildInfo.GoVersion,
	}
	if info.Version == "" {
		info.Version = "(devel)"
	}
	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			info.Revision = setting.Value
		case "vcs.time":
			info.RevisionTime = setting.Value
		case "vcs.modified":
			if setting.Value == "true" {
				info.Revision += "+dirty"
			}
		case "GOOS":
			info.OS = setting.Value
		case "GOARCH":
			info.Arch = setting.Value
		}
	}
	return info
}
