package relver

import (
	"path/filepath"
	"slices"
)

// TreeState is the working-tree status relative to HEAD.
// Paths are slash-separated and relative to the repository root.
type TreeState struct {
	Changed   []string
	Untracked []string
}

// CheckDirtyTree fails with a *DirtyTreeError when a tracked change falls
// outside exclude. Untracked files are returned as an advisory and never fail
// the check.
func CheckDirtyTree(state TreeState, exclude []string) ([]string, error) {
	allowed := make(map[string]struct{}, len(exclude))
	for _, f := range exclude {
		allowed[cleanRel(f)] = struct{}{}
	}

	var disallowed []string
	for _, f := range state.Changed {
		if _, ok := allowed[cleanRel(f)]; !ok {
			disallowed = append(disallowed, f)
		}
	}

	advisory := slices.Clone(state.Untracked)
	if len(disallowed) > 0 {
		slices.Sort(disallowed)
		return advisory, &DirtyTreeError{Files: disallowed}
	}
	return advisory, nil
}

// dirtyExclusions returns the files allowed to be modified before a release.
func dirtyExclusions(versionFile, manifest string, prerelease, manifestEnabled bool) []string {
	var ex []string
	if prerelease {
		ex = append(ex, versionFile)
	}
	if !manifestEnabled && manifest != "" {
		ex = append(ex, manifest)
	}
	return ex
}

func cleanRel(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}
