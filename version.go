// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package exodus

import "fmt"

// These variables are populated via the Go linker.
var (
	// Version is the release version of this build. It is used in the
	// provenance records appended on commit, so keep it set even for
	// development builds.
	Version = "v0.1337.0"

	// BuildTime is the time the binary was built.
	BuildTime string

	// Commit is the git commit the binary was built from.
	Commit string

	// GoVersion is the version of Go used to build the binary.
	GoVersion = "unknown"
)

func init() {
	if Version == "" {
		Version = "v0.0.0"
	}
	if BuildTime == "" {
		BuildTime = "not recorded"
	}
	if Commit == "" {
		Commit = "not recorded"
	}
}

// VersionInfo returns the version and build details as a single string.
func VersionInfo(verbose bool) string {
	if verbose {
		return fmt.Sprintf("version=%s, build-time=%s, commit=%s, go-version=%s", Version, BuildTime, Commit, GoVersion)
	}
	return Version
}
