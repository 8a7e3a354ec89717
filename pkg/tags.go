package relver

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Tag is a release tag found in the repository.
type Tag struct {
	Name    string
	Suffix  string // Name with the prefix removed.
	Version Version
}

// TagLedger reads release tags for a prefix.
type TagLedger struct {
	git    *Git
	sorter TagSorter
}

// NewTagLedger returns a ledger using the given sort strategy.
func NewTagLedger(g *Git, sorter TagSorter) *TagLedger {
	return &TagLedger{git: g, sorter: sorter}
}

// TagName forms the tag for v.
func TagName(prefix string, v Version) string {
	return prefix + v.String()
}

// escapeGlob escapes fnmatch metacharacters so the prefix matches literally.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LastTag returns the tag with the greatest numeric version for prefix.
func (l *TagLedger) LastTag(ctx context.Context, prefix string) (Tag, bool, error) {
	pattern := escapeGlob(prefix) + "[0-9]*.[0-9]*.[0-9]*"
	names, err := l.git.ListTags(ctx, pattern, l.sorter.SortKey())
	if err != nil {
		return Tag{}, false, fmt.Errorf("listing tags: %w", err)
	}
	l.sorter.Sort(names, prefix)

	exact := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `\d+\.\d+\.\d+$`)
	var tags []Tag
	for _, name := range names {
		if !exact.MatchString(name) {
			continue
		}
		suffix := strings.TrimPrefix(name, prefix)
		// Suffixes such as 01.5.0 are not versions this tool could have made.
		v, err := ParseVersion(suffix, false)
		if err != nil {
			continue
		}
		tags = append(tags, Tag{Name: name, Suffix: suffix, Version: v})
	}
	if len(tags) == 0 {
		return Tag{}, false, nil
	}
	// Stable so that ties keep the strategy's order.
	sort.SliceStable(tags, func(i, j int) bool {
		return Compare(tags[i].Version, tags[j].Version) > 0
	})
	return tags[0], true, nil
}

// CheckMonotonic returns a *NonMonotonicError when candidate does not advance
// past the last release tag. Prerelease candidates are never tagged and pass.
func (l *TagLedger) CheckMonotonic(ctx context.Context, candidate Version, prefix string) error {
	if !candidate.IsRelease() {
		return nil
	}
	last, ok, err := l.LastTag(ctx, prefix)
	if err != nil || !ok {
		return err
	}
	if Compare(candidate, last.Version) <= 0 {
		return &NonMonotonicError{LastTag: last.Name, Candidate: candidate}
	}
	return nil
}
