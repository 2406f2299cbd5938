// Package version holds build metadata, set with -ldflags -X at release.
package version

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)
