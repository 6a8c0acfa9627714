// Package buildconfig exposes values stamped in at link time:
//
//	go build -ldflags "-X github.com/Harshitk-cp/searchmind/internal/buildconfig.version=v1.2.0 \
//	  -X github.com/Harshitk-cp/searchmind/internal/buildconfig.commit=$(git rev-parse --short HEAD)"
package buildconfig

import (
	"fmt"
	"runtime"
)

var (
	version = "dev"
	commit  = "unknown"
)

type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
}

func Version() string {
	return version
}

func Get() Info {
	return Info{Version: version, Commit: commit, GoVersion: runtime.Version()}
}

func (i Info) String() string {
	return fmt.Sprintf("searchmind %s (%s, %s)", i.Version, i.Commit, i.GoVersion)
}
