package relver

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// TagSorter orders candidate tag names, newest first.
type TagSorter interface {
	// SortKey is passed to `git tag --sort`; empty means git's default order.
	SortKey() string
	// Sort reorders tags returned by git. prefix is stripped before comparing.
	Sort(tags []string, prefix string)
	Name() string
}

// nativeVersionSort relies on git's version-aware refname sort.
type nativeVersionSort struct{}

func (nativeVersionSort) SortKey() string       { return "-v:refname" }
func (nativeVersionSort) Sort([]string, string) {}
func (nativeVersionSort) Name() string          { return "git -v:refname" }

// semverSort sorts in process for git versions without --sort.
type semverSort struct{}

func (semverSort) SortKey() string { return "" }
func (semverSort) Name() string    { return "x/mod/semver" }

func (semverSort) Sort(tags []string, prefix string) {
	sort.SliceStable(tags, func(i, j int) bool {
		a := "v" + strings.TrimPrefix(tags[i], prefix)
		b := "v" + strings.TrimPrefix(tags[j], prefix)
		if c := semver.Compare(a, b); c != 0 {
			return c > 0
		}
		return tags[i] > tags[j]
	})
}

// ProbeTagSorter picks the tag ordering strategy once for the run.
// git gained `tag --sort` with version ordering in 2.0.
func ProbeTagSorter(ctx context.Context, g *Git, logger *slog.Logger) TagSorter {
	var s TagSorter = semverSort{}
	if major, _, err := g.Version(ctx); err == nil && major >= 2 {
		s = nativeVersionSort{}
	}
	logger.Debug("selected tag sort strategy", "strategy", s.Name())
	return s
}
