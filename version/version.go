package version

import "fmt"

// these values are set during build via ldflags
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

var FullVersion = fmt.Sprintf("Version: %s BuildDate: %s GitCommit: %s",
	Version, BuildDate, GitCommit)
