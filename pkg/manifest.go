package relver

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ManifestPattern locates the embedded version field of a build manifest.
// Group 1 is the text preceding the version, group 2 the version itself.
type ManifestPattern struct {
	Pattern *regexp.Regexp
	Name    string
}

var (
	projectVersionPattern = ManifestPattern{
		Pattern: regexp.MustCompile(`(?is)(\bproject\s*\([^)]*?\bVERSION\s+"?)(\d+(?:\.\d+){0,3})`),
		Name:    "project() VERSION",
	}

	// projectNamePattern captures the literal first argument of project().
	projectNamePattern = regexp.MustCompile(`(?i)\bproject\s*\(\s*([A-Za-z0-9_.+-]+)`)
)

// versionVariables lists the variable names that hold the project's own
// version: PROJECT_VERSION, and <name>_VERSION for the name given to
// project() as written and upper-cased. Other *VERSION variables (toolchain,
// dependency minimums) are never candidates.
func versionVariables(data []byte) []string {
	names := []string{"PROJECT_VERSION"}
	if m := projectNamePattern.FindSubmatch(data); m != nil {
		name := string(m[1])
		for _, n := range []string{name + "_VERSION", strings.ToUpper(name) + "_VERSION"} {
			if !slices.Contains(names, n) {
				names = append(names, n)
			}
		}
	}
	return names
}

// manifestPatterns returns the patterns to try on data, in order; the first
// match wins.
func manifestPatterns(data []byte) []ManifestPattern {
	vars := versionVariables(data)
	quoted := make([]string, len(vars))
	for i, v := range vars {
		quoted[i] = regexp.QuoteMeta(v)
	}
	setPattern := ManifestPattern{
		Pattern: regexp.MustCompile(`(?m)(\b(?i:set)\s*\(\s*(?:` + strings.Join(quoted, "|") + `)\s+"?)(\d+\.\d+\.\d+)`),
		Name:    "set() version variable",
	}
	return []ManifestPattern{projectVersionPattern, setPattern}
}

// ManifestChange is the planned rewrite of the manifest.
type ManifestChange struct {
	Path    string
	Pattern string
	// Found is false when no supported pattern exists in the file.
	Found   bool
	Changed bool
	Old     string
	content []byte
}

// planManifest computes the manifest content for v without writing it.
func planManifest(path string, v Version) (ManifestChange, error) {
	change := ManifestChange{Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		return change, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	for _, mp := range manifestPatterns(data) {
		loc := mp.Pattern.FindSubmatchIndex(data)
		if loc == nil {
			continue
		}
		change.Found = true
		change.Pattern = mp.Name
		change.Old = string(data[loc[4]:loc[5]])

		updated := make([]byte, 0, len(data)+len(v.String()))
		updated = append(updated, data[:loc[4]]...)
		updated = append(updated, v.String()...)
		updated = append(updated, data[loc[5]:]...)

		change.Changed = xxhash.Sum64(data) != xxhash.Sum64(updated)
		change.content = updated
		return change, nil
	}
	return change, nil
}
