package ordkv

import "fmt"

// Version constants
const (
	// Major is the major version number
	Major = 0

	// Minor is the minor version number
	Minor = 1

	// Patch is the patch version number
	Patch = 0
)

// VersionInfo contains version information.
type VersionInfo struct {
	Major    uint8
	Minor    uint8
	Release  uint8
	Describe string
}

// Version returns the version string of ordkv.
func Version() string {
	return fmt.Sprintf("ordkv %d.%d.%d (pure Go embedded key-value store)", Major, Minor, Patch)
}

// GetVersionInfo returns version information.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Major:    Major,
		Minor:    Minor,
		Release:  Patch,
		Describe: fmt.Sprintf("v%d.%d.%d", Major, Minor, Patch),
	}
}
