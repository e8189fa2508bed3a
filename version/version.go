// Package version reports the version of the running hcredact binary.
package version

import (
	"fmt"
	"runtime/debug"
)

const slug = "hcredact v"

var (
	// version must be of the format <MAJOR>.<MINOR>.<PATCH>, as described in the semantic versioning specification.
	version = "0.1.0"

	// prerelease is a pre-release marker such as "dev", "beta" or "rc1". Empty for final releases.
	prerelease = "dev"

	// metadata is optional build information, as described by the semantic versioning specification.
	metadata string

	// gitCommit and buildDate are set by the build process with -ldflags. When gitCommit is empty, the VCS
	// revision recorded by the Go toolchain is used instead.
	gitCommit string
	buildDate string
)

// Version is a container for version information.
type Version struct {
	Version    string `json:"version,omitempty"`
	Prerelease string `json:"prerelease,omitempty"`
	Metadata   string `json:"build_metadata,omitempty"`
	Revision   string `json:"revision,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
}

// GetVersion produces a Version that includes fields set based on version package variables.
func GetVersion() Version {
	rev := gitCommit
	if rev == "" {
		rev = vcsRevision(debug.ReadBuildInfo)
	}
	return Version{
		Version:    version,
		Prerelease: prerelease,
		Metadata:   metadata,
		Revision:   rev,
		BuildDate:  buildDate,
	}
}

func vcsRevision(read func() (*debug.BuildInfo, bool)) string {
	info, ok := read()
	if !ok {
		return ""
	}
	var rev, modified string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			modified = s.Value
		}
	}
	if rev != "" && modified == "true" {
		rev += "-dirty"
	}
	return rev
}

// SemanticVersion produces a semantic version number from a Version object.
func (v Version) SemanticVersion() string {
	sv := v.Version
	if v.Prerelease != "" {
		sv = fmt.Sprintf("%s-%s", sv, v.Prerelease)
	}
	if v.Metadata != "" {
		sv = fmt.Sprintf("%s+%s", sv, v.Metadata)
	}
	return sv
}

// FullVersionNumber produces a human-readable string such as "hcredact v0.1.0-dev (abc123), built 2024-01-01".
// The revision is only included when rev is true.
func (v Version) FullVersionNumber(rev bool) string {
	versionString := slug + v.SemanticVersion()

	if rev && v.Revision != "" {
		versionString += fmt.Sprintf(" (%s)", v.Revision)
	}
	if v.BuildDate != "" {
		versionString += fmt.Sprintf(", built %s", v.BuildDate)
	}
	return versionString
}
