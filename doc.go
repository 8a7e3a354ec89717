// Package main implements the relver CLI tool.
//
// relver keeps three release artifacts in step: a single-line version file
// (default "VERSION"), the version field of a build manifest (default
// "CMakeLists.txt") and a git tag (default prefix "v"). It computes the next
// version from a bump mode or an explicit value, refuses to run on a dirty
// working tree, checks that the version advances past the last release tag,
// writes the files atomically, and optionally commits, tags and pushes.
//
// Command Usage:
//
//	relver [flags] <major|minor|patch>
//	relver [flags] --set VERSION
//
// Modes:
//
//	--print:     Print the computed version only. No validation, no git, no writes.
//	--dry-run:   Run all validations and print the planned actions to stderr.
//	(default):   Perform the release.
//
// Stages (all off by default):
//
//	--commit:    Commit exactly the version file and the manifest (when it changed).
//	--tag:       Tag the release. Annotated by default; --signed-tag or --lightweight-tag.
//	--push:      Push the current branch, and the tag when tagging.
//	--push-tags: Push only the tag.
//
// Defaults can be placed in a .relver.yaml file at the repository root:
//
//	version_file: VERSION
//	manifest: CMakeLists.txt
//	tag_prefix: v
//	remote: origin
//
// or in the RELVER_VERSION_FILE, RELVER_TAG_PREFIX and RELVER_REMOTE environment
// variables. Flags take precedence over both.
//
// When running in CI (CI, GITHUB_ACTIONS, GITLAB_CI, BUILDKITE, JENKINS_URL or
// TF_BUILD set) or with --unattended, a version that does not advance past the
// last tag and a missing signing key are failures instead of warnings.
//
// Examples:
//
//	# Bump the minor version (e.g. 1.4.2 → 1.5.0) and only write the files
//	relver minor
//
//	# Full release from a pipeline
//	relver --commit --tag --push --note "$(semantic-diff --reason)" "$(semantic-diff --bump)"
//
//	# Compute a prerelease version for a build label
//	relver --print --set 2.0.0-rc.1 --allow-prerelease
//
// Standard output carries exactly one line on success: the resulting version.
//
// For the library API see the "pkg" package.
package main
