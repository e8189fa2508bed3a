package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersion(t *testing.T) {
	v := GetVersion()
	assert.Equal(t, version, v.Version)
	assert.Equal(t, prerelease, v.Prerelease)
}

func TestVersion_SemanticVersion(t *testing.T) {
	testCases := []struct {
		name   string
		v      Version
		expect string
	}{
		{name: "Test only Version", v: Version{Version: "0.0.0"}, expect: "0.0.0"},
		{name: "Test Prerelease", v: Version{Version: "0.0.0", Prerelease: "test"}, expect: "0.0.0-test"},
		{name: "Test Metadata", v: Version{Version: "0.0.0", Metadata: "buildinfo"}, expect: "0.0.0+buildinfo"},
		{name: "Test All", v: Version{Version: "0.0.0", Prerelease: "test", Metadata: "buildinfo"}, expect: "0.0.0-test+buildinfo"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, tc.v.SemanticVersion())
		})
	}
}

func TestVersion_FullVersionNumber(t *testing.T) {
	v := Version{Version: "1.2.3", Revision: "abc123", BuildDate: "2024-01-01"}
	assert.Equal(t, "hcredact v1.2.3 (abc123), built 2024-01-01", v.FullVersionNumber(true))
	assert.Equal(t, "hcredact v1.2.3, built 2024-01-01", v.FullVersionNumber(false))
	assert.Equal(t, "hcredact v1.2.3", Version{Version: "1.2.3"}.FullVersionNumber(true))
}

func Test_vcsRevision(t *testing.T) {
	testCases := []struct {
		name   string
		info   *debug.BuildInfo
		ok     bool
		expect string
	}{
		{name: "no build info", ok: false, expect: ""},
		{name: "no vcs settings", info: &debug.BuildInfo{}, ok: true, expect: ""},
		{
			name: "clean revision",
			info: &debug.BuildInfo{Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc123"},
				{Key: "vcs.modified", Value: "false"},
			}},
			ok:     true,
			expect: "abc123",
		},
		{
			name: "dirty revision",
			info: &debug.BuildInfo{Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc123"},
				{Key: "vcs.modified", Value: "true"},
			}},
			ok:     true,
			expect: "abc123-dirty",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rev := vcsRevision(func() (*debug.BuildInfo, bool) { return tc.info, tc.ok })
			assert.Equal(t, tc.expect, rev)
		})
	}
}
