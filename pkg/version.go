package relver

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// versionPattern is the accepted grammar: no "v" prefix, no leading zeros,
// no build metadata.
var versionPattern = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-([0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?$`)

// Version is a MAJOR.MINOR.PATCH[-PRERELEASE] version.
type Version struct {
	Major      uint64
	Minor      uint64
	Patch      uint64
	Prerelease string
}

// ParseVersion parses s. A prerelease suffix is rejected unless allowPrerelease is set.
func ParseVersion(s string, allowPrerelease bool) (Version, error) {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, fmt.Errorf("%w: %q is not MAJOR.MINOR.PATCH[-PRERELEASE]", ErrInvalidFormat, s)
	}
	sv, err := semver.StrictNewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q: %v", ErrInvalidFormat, s, err)
	}
	v := fromSemver(sv)
	if v.Prerelease != "" && !allowPrerelease {
		return Version{}, fmt.Errorf("%w: prerelease %q requires --allow-prerelease", ErrInvalidFormat, s)
	}
	return v, nil
}

func fromSemver(sv *semver.Version) Version {
	return Version{
		Major:      sv.Major(),
		Minor:      sv.Minor(),
		Patch:      sv.Patch(),
		Prerelease: sv.Prerelease(),
	}
}

// release returns the numeric triple as a Masterminds version with no prerelease.
func (v Version) release() *semver.Version {
	return semver.New(v.Major, v.Minor, v.Patch, "", "")
}

// String formats v in canonical form.
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	return s
}

// IsRelease reports whether v carries no prerelease suffix.
func (v Version) IsRelease() bool {
	return v.Prerelease == ""
}

// Compare orders a and b by their numeric triple. Prerelease suffixes do not
// participate, so Compare(1.0.0-rc.1, 1.0.0) == 0.
func Compare(a, b Version) int {
	return a.release().Compare(b.release())
}
