package version

import (
	"fmt"
	"runtime"
)

// FallbackVersion is reported by builds without version information.
const FallbackVersion = "v0.0.0-dev"

var (
	// Version and GitCommit are set at build time with -ldflags -X.
	Version   string
	GitCommit string
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	GoVersion string `json:"goVersion"`
}

func Get() Info {
	v := Version
	if v == "" {
		v = FallbackVersion
	}
	return Info{
		Version:   v,
		GitCommit: GitCommit,
		GoVersion: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a pretty string concatenation of the version info
func (i Info) String() string {
	return fmt.Sprintf("mtbundles %s (commit: %s, %s)", i.Version, i.GitCommit, i.GoVersion)
}
