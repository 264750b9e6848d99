// Package misc holds build time program identification. Values are overwritten
// by the linker during release builds.
package misc

var (
	appName = "docmd"
	version = "0.0.0-dev"
	gitHash = "unknown"
)

// GetAppName returns short program name used for file naming and logging.
func GetAppName() string {
	return appName
}

// GetVersion returns program version set at build time.
func GetVersion() string {
	return version
}

// GetGitHash returns git commit hash program was built from.
func GetGitHash() string {
	return gitHash
}
