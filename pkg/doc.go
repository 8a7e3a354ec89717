// Package relver provides a library for computing, validating and committing
// semantic version transitions in a git repository.
//
// It provides functionalities for:
//   - Parsing, formatting and ordering MAJOR.MINOR.PATCH[-PRERELEASE] versions.
//   - Bumping versions (major, minor, patch) or validating an explicit version.
//   - Guarding against tracked working-tree changes outside the release.
//   - Finding the last release tag for a prefix and checking that a candidate advances past it.
//   - Atomically writing the version file and mirroring the version into a CMake manifest.
//   - Staging exactly the touched files, committing, tagging and pushing.
//
// Usage Example:
//
//	session := relver.NewSession()
//	defer session.Release()
//
//	cfg := relver.ReleaseConfig{
//	    RepoRoot:    ".",
//	    VersionFile: "VERSION",
//	    Manifest:    "CMakeLists.txt",
//	    Target:      relver.Target{Mode: relver.BumpMinor},
//	    Mode: relver.ExecuteMode{Options: relver.Options{
//	        Commit: true, Tag: true, TagPrefix: "v", Remote: "origin", UpdateManifest: true,
//	    }},
//	}
//	meta, err := relver.NewReleaser(logger, relver.Interactive, session).Run(ctx, cfg)
//	if err != nil {
//	    log.Fatalf("release failed: %v", err)
//	}
//	fmt.Println(meta.NewVersion)
package relver
