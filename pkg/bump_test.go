package relver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBump(t *testing.T) {
	tests := []struct {
		version  string
		bump     BumpMode
		expected string
	}{
		{"1.2.3", BumpMajor, "2.0.0"},
		{"1.2.3", BumpMinor, "1.3.0"},
		{"1.2.3", BumpPatch, "1.2.4"},
		{"1.4.2", BumpMinor, "1.5.0"},
		{"0.0.0", BumpPatch, "0.0.1"},
		{"1.2.3-rc.1", BumpPatch, "1.2.4"},
		{"1.2.3-rc.1", BumpMajor, "2.0.0"},
	}
	for _, tc := range tests {
		cur, err := ParseVersion(tc.version, true)
		require.NoError(t, err)
		got, err := Bump(cur, tc.bump)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, got.String(), "Bump(%s, %s)", tc.version, tc.bump)
		assert.True(t, got.IsRelease())
	}

	_, err := Bump(Version{Major: 1}, BumpSet)
	assert.Error(t, err)
}

func TestParseBumpMode(t *testing.T) {
	for _, s := range []string{"major", "minor", "patch"} {
		m, err := ParseBumpMode(s)
		require.NoError(t, err)
		assert.Equal(t, BumpMode(s), m)
	}
	for _, s := range []string{"set", "premajor", "1.2.3", ""} {
		_, err := ParseBumpMode(s)
		assert.ErrorIs(t, err, ErrUsage, s)
	}
}

func TestSetVersion(t *testing.T) {
	v, err := SetVersion("2.0.0-rc.1", true)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0-rc.1", v.String())

	_, err = SetVersion("1.0.0-rc.1", false)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestTargetResolve(t *testing.T) {
	cur := Version{Major: 1, Minor: 4, Patch: 2}

	v, err := Target{Mode: BumpMinor}.Resolve(cur, true)
	require.NoError(t, err)
	assert.Equal(t, "1.5.0", v.String())

	_, err = Target{Mode: BumpMinor}.Resolve(Version{}, false)
	assert.Error(t, err)

	v, err = Target{Mode: BumpSet, Explicit: "3.0.0"}.Resolve(Version{}, false)
	require.NoError(t, err)
	assert.Equal(t, "3.0.0", v.String())
}
