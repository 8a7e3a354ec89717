package relver

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWriter(t *testing.T, manifest string) (*ArtifactWriter, *Session) {
	t.Helper()
	logger, _ := captureLogger()
	session := NewSession()
	t.Cleanup(func() { session.Release() })
	return NewArtifactWriter(t.TempDir(), "VERSION", manifest, session, logger), session
}

func TestWriteVersionRecord(t *testing.T) {
	w, session := newTestWriter(t, "")
	path := filepath.Join(w.Root, "VERSION")
	require.NoError(t, os.WriteFile(path, []byte("1.4.2\n"), 0640))

	require.NoError(t, w.WriteVersionRecord(Version{Major: 1, Minor: 5}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1.5.0\n", string(data))
	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), fi.Mode().Perm())
	assert.Zero(t, session.pending())

	entries, err := os.ReadDir(w.Root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestWriteVersionRecordCreatesFile(t *testing.T) {
	w, _ := newTestWriter(t, "")
	require.NoError(t, w.WriteVersionRecord(Version{Major: 0, Minor: 1}))

	v, ok, err := w.ReadVersionRecord()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "0.1.0", v.String())
}

func TestWriteVersionRecordInterruptedBeforeRename(t *testing.T) {
	w, session := newTestWriter(t, "")
	path := filepath.Join(w.Root, "VERSION")
	original := []byte("1.4.2\n")
	require.NoError(t, os.WriteFile(path, original, 0644))

	w.rename = func(string, string) error { return errors.New("interrupted") }
	err := w.WriteVersionRecord(Version{Major: 9})
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, data)

	assert.Equal(t, 1, session.pending())
	require.NoError(t, session.Release())
	entries, err := os.ReadDir(w.Root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file removed on release")
}

func TestWriteVersionRecordSkipsPrerelease(t *testing.T) {
	w, _ := newTestWriter(t, "")
	require.NoError(t, w.WriteVersionRecord(Version{Major: 2, Prerelease: "rc.1"}))
	_, err := os.Stat(filepath.Join(w.Root, "VERSION"))
	assert.True(t, os.IsNotExist(err))
}

func TestReadVersionRecordMalformed(t *testing.T) {
	w, _ := newTestWriter(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(w.Root, "VERSION"), []byte("1.2\n"), 0644))
	_, ok, err := w.ReadVersionRecord()
	assert.True(t, ok)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestManifestProjectVersion(t *testing.T) {
	w, _ := newTestWriter(t, "CMakeLists.txt")
	content := "cmake_minimum_required(VERSION 3.16)\nproject(demo\n  VERSION 1.4.2\n  LANGUAGES CXX)\n"
	require.NoError(t, os.WriteFile(filepath.Join(w.Root, "CMakeLists.txt"), []byte(content), 0644))

	change, err := w.PlanManifest(Version{Major: 1, Minor: 5})
	require.NoError(t, err)
	assert.True(t, change.Found)
	assert.True(t, change.Changed)
	assert.Equal(t, "1.4.2", change.Old)
	assert.Equal(t, "project() VERSION", change.Pattern)

	require.NoError(t, w.WriteManifest(change))
	data, err := os.ReadFile(filepath.Join(w.Root, "CMakeLists.txt"))
	require.NoError(t, err)
	assert.Equal(t, "cmake_minimum_required(VERSION 3.16)\nproject(demo\n  VERSION 1.5.0\n  LANGUAGES CXX)\n", string(data))
}

func TestManifestSetVariable(t *testing.T) {
	w, _ := newTestWriter(t, "CMakeLists.txt")
	content := "cmake_minimum_required(VERSION 3.10)\nproject(demo CXX)\nset(DEMO_VERSION \"1.4.2\")\n"
	require.NoError(t, os.WriteFile(filepath.Join(w.Root, "CMakeLists.txt"), []byte(content), 0644))

	change, err := w.PlanManifest(Version{Major: 2})
	require.NoError(t, err)
	assert.True(t, change.Changed)
	assert.Equal(t, "set() version variable", change.Pattern)
	require.NoError(t, w.WriteManifest(change))

	data, err := os.ReadFile(filepath.Join(w.Root, "CMakeLists.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `set(DEMO_VERSION "2.0.0")`)
	assert.Contains(t, string(data), "cmake_minimum_required(VERSION 3.10)")
}

func TestManifestSetVariableIgnoresOtherVersions(t *testing.T) {
	w, _ := newTestWriter(t, "CMakeLists.txt")
	content := "project(demo CXX)\nset(BOOST_MIN_VERSION 1.74.0)\nset(CMAKE_SYSTEM_VERSION 10.0.1)\nset(DEMO_VERSION \"1.4.2\")\n"
	require.NoError(t, os.WriteFile(filepath.Join(w.Root, "CMakeLists.txt"), []byte(content), 0644))

	change, err := w.PlanManifest(Version{Major: 1, Minor: 5})
	require.NoError(t, err)
	assert.Equal(t, "1.4.2", change.Old)
	require.NoError(t, w.WriteManifest(change))

	data, err := os.ReadFile(filepath.Join(w.Root, "CMakeLists.txt"))
	require.NoError(t, err)
	assert.Equal(t, "project(demo CXX)\nset(BOOST_MIN_VERSION 1.74.0)\nset(CMAKE_SYSTEM_VERSION 10.0.1)\nset(DEMO_VERSION \"1.5.0\")\n", string(data))
}

func TestManifestVersionVariables(t *testing.T) {
	tests := []struct {
		content string
		want    []string
	}{
		{"project(demo CXX)", []string{"PROJECT_VERSION", "demo_VERSION", "DEMO_VERSION"}},
		{"PROJECT(LIBFOO)", []string{"PROJECT_VERSION", "LIBFOO_VERSION"}},
		{"project(${NAME})", []string{"PROJECT_VERSION"}},
		{"set(FOO_VERSION 1.0.0)", []string{"PROJECT_VERSION"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, versionVariables([]byte(tt.content)), tt.content)
	}
}

func TestManifestOnlyUnrelatedVersionVariables(t *testing.T) {
	w, _ := newTestWriter(t, "CMakeLists.txt")
	content := "project(demo CXX)\nset(BOOST_MIN_VERSION 1.74.0)\n"
	require.NoError(t, os.WriteFile(filepath.Join(w.Root, "CMakeLists.txt"), []byte(content), 0644))

	change, err := w.PlanManifest(Version{Major: 1, Minor: 5})
	require.NoError(t, err)
	assert.False(t, change.Found)
	assert.False(t, change.Changed)
}

func TestManifestUnchangedAndMissingPattern(t *testing.T) {
	w, _ := newTestWriter(t, "CMakeLists.txt")
	path := filepath.Join(w.Root, "CMakeLists.txt")

	require.NoError(t, os.WriteFile(path, []byte("project(demo VERSION 1.5.0)\n"), 0644))
	change, err := w.PlanManifest(Version{Major: 1, Minor: 5})
	require.NoError(t, err)
	assert.True(t, change.Found)
	assert.False(t, change.Changed)

	require.NoError(t, os.WriteFile(path, []byte("project(demo CXX)\n"), 0644))
	change, err = w.PlanManifest(Version{Major: 1, Minor: 5})
	require.NoError(t, err)
	assert.False(t, change.Found)
	assert.False(t, change.Changed)
	require.NoError(t, w.WriteManifest(change))
}

func TestManifestSkippedForPrereleaseAndAbsence(t *testing.T) {
	w, _ := newTestWriter(t, "CMakeLists.txt")
	change, err := w.PlanManifest(Version{Major: 1})
	require.NoError(t, err)
	assert.Equal(t, ManifestChange{}, change)

	require.NoError(t, os.WriteFile(filepath.Join(w.Root, "CMakeLists.txt"), []byte("project(demo VERSION 1.0.0)\n"), 0644))
	change, err = w.PlanManifest(Version{Major: 2, Prerelease: "rc.1"})
	require.NoError(t, err)
	assert.False(t, change.Changed)
}
