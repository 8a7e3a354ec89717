package relver

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidFormat is wrapped by every version parsing failure.
	ErrInvalidFormat = errors.New("invalid version format")

	// ErrNotARepository is returned when the repository root is not a git checkout.
	ErrNotARepository = errors.New("not a git repository")

	// ErrDetachedHead is returned when committing or tagging on a detached HEAD.
	ErrDetachedHead = errors.New("HEAD is detached; check out a branch before committing or tagging")

	// ErrMissingSigningKey is returned when signing is requested but no user.signingkey is configured.
	ErrMissingSigningKey = errors.New("signing requested but git user.signingkey is not configured")

	// ErrMissingIdentity is returned when git cannot determine a committer identity.
	ErrMissingIdentity = errors.New("git identity (user.name/user.email) is not configured")

	// ErrPrereleaseTag is returned when tagging is requested for a prerelease.
	ErrPrereleaseTag = errors.New("prerelease versions cannot be tagged")

	// ErrUsage marks invalid flag combinations.
	ErrUsage = errors.New("usage error")
)

// DirtyTreeError lists tracked files with changes outside the allowed set.
type DirtyTreeError struct {
	Files []string
}

func (e *DirtyTreeError) Error() string {
	return fmt.Sprintf("working tree is dirty; uncommitted changes outside the release: %s", strings.Join(e.Files, ", "))
}

// UntrackedVersionFileError is returned when the version record exists but git does not track it.
type UntrackedVersionFileError struct {
	Path string
}

func (e *UntrackedVersionFileError) Error() string {
	return fmt.Sprintf("version file %s exists but is not tracked by git", e.Path)
}

// TagExistsError is returned when the target tag already points at another commit.
type TagExistsError struct {
	Tag    string
	Commit string
}

func (e *TagExistsError) Error() string {
	return fmt.Sprintf("tag %s already exists at %s, not at the release commit", e.Tag, shortHash(e.Commit))
}

// NonMonotonicError reports a candidate that does not advance past the last tag.
type NonMonotonicError struct {
	LastTag   string
	Candidate Version
}

func (e *NonMonotonicError) Error() string {
	return fmt.Sprintf("version %s does not advance past last tag %s", e.Candidate, e.LastTag)
}

// MissingDependencyError is returned when a required external tool is absent.
type MissingDependencyError struct {
	Tool string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("%s is not available on the system", e.Tool)
}

// PushError reports the ref that failed to push.
type PushError struct {
	Remote string
	Ref    string
	Detail string
}

func (e *PushError) Error() string {
	return fmt.Sprintf("push of %s to %s failed: %s", e.Ref, e.Remote, e.Detail)
}

// PartialError wraps a failure that happened after some steps already mutated state.
// Completed lists those steps in order so the release can be finished by hand.
type PartialError struct {
	Completed []string
	Err       error
}

func (e *PartialError) Error() string {
	if len(e.Completed) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v (completed before failure: %s)", e.Err, strings.Join(e.Completed, "; "))
}

func (e *PartialError) Unwrap() error { return e.Err }

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
