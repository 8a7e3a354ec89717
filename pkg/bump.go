package relver

import "fmt"

// BumpMode selects how the next version is computed.
type BumpMode string

const (
	BumpMajor BumpMode = "major"
	BumpMinor BumpMode = "minor"
	BumpPatch BumpMode = "patch"
	// BumpSet means the target is an explicit version.
	BumpSet BumpMode = "set"
)

// ParseBumpMode parses a positional bump argument.
func ParseBumpMode(s string) (BumpMode, error) {
	switch m := BumpMode(s); m {
	case BumpMajor, BumpMinor, BumpPatch:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown bump argument %q (want major, minor or patch)", ErrUsage, s)
}

// Bump returns the version following current under mode.
// The result never carries a prerelease.
func Bump(current Version, mode BumpMode) (Version, error) {
	base := current.release()
	switch mode {
	case BumpMajor:
		return fromSemver(ptr(base.IncMajor())), nil
	case BumpMinor:
		return fromSemver(ptr(base.IncMinor())), nil
	case BumpPatch:
		return fromSemver(ptr(base.IncPatch())), nil
	}
	return Version{}, fmt.Errorf("unknown bump argument: %s", mode)
}

// SetVersion validates an explicit target version. No arithmetic is applied.
func SetVersion(explicit string, allowPrerelease bool) (Version, error) {
	return ParseVersion(explicit, allowPrerelease)
}

func ptr[T any](v T) *T { return &v }
