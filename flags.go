package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	relver "github.com/bcomnes/relver/pkg"
)

// cliOptions holds raw flag values before they are turned into a ReleaseConfig.
type cliOptions struct {
	set             string
	allowPrerelease bool
	print           bool
	dryRun          bool

	commit   bool
	tag      bool
	push     bool
	pushTags bool
	message  string
	note     string

	allowDirty        bool
	lightweightTag    bool
	signedTag         bool
	signCommit        bool
	noVerify          bool
	noCMake           bool
	tagPrefix         string
	allowNonMonotonic bool

	repoRoot    string
	remote      string
	versionFile string
	manifest    string
	unattended  bool
	verbose     bool
}

func bindFlags(fs *pflag.FlagSet, o *cliOptions) {
	fs.StringVar(&o.set, "set", "", "Explicit target version (mutually exclusive with a bump mode)")
	fs.BoolVar(&o.allowPrerelease, "allow-prerelease", false, "Permit a prerelease suffix with --set")
	fs.BoolVar(&o.print, "print", false, "Print the computed version and exit without validation or side effects")
	fs.BoolVar(&o.dryRun, "dry-run", false, "Validate and print the planned actions without modifying anything")

	fs.BoolVar(&o.commit, "commit", false, "Commit the version file and manifest")
	fs.BoolVar(&o.tag, "tag", false, "Tag the release")
	fs.BoolVar(&o.push, "push", false, "Push the current branch, and the tag when tagging")
	fs.BoolVar(&o.pushTags, "push-tags", false, "Push the release tag (requires --tag)")
	fs.StringVarP(&o.message, "message", "m", "", "Custom commit message, replacing the generated one")
	fs.StringVar(&o.note, "note", "", "Explanatory line appended to the generated commit message")

	fs.BoolVar(&o.allowDirty, "allow-dirty", false, "Proceed even if tracked files have uncommitted changes")
	fs.BoolVar(&o.lightweightTag, "lightweight-tag", false, "Create a lightweight tag instead of an annotated one")
	fs.BoolVar(&o.signedTag, "signed-tag", false, "Create a signed tag")
	fs.BoolVar(&o.signCommit, "sign-commit", false, "Sign the release commit")
	fs.BoolVar(&o.noVerify, "no-verify", false, "Bypass commit hooks")
	fs.BoolVar(&o.noCMake, "no-cmake", false, "Do not update the version field in the build manifest")
	fs.StringVar(&o.tagPrefix, "tag-prefix", "", `Tag prefix (default "v"; empty is allowed)`)
	fs.BoolVar(&o.allowNonMonotonic, "allow-nonmonotonic-tag", false, "Do not fail unattended runs when the version does not advance past the last tag")

	fs.StringVar(&o.repoRoot, "repo-root", ".", "Path inside the target repository")
	fs.StringVar(&o.remote, "remote", "", `Remote to push to (default "origin")`)
	fs.StringVar(&o.versionFile, "version-file", "", `Version file relative to the repository root (default "VERSION")`)
	fs.StringVar(&o.manifest, "manifest", "", `Build manifest relative to the repository root (default "CMakeLists.txt")`)
	fs.BoolVar(&o.unattended, "unattended", false, "Treat the run as unattended even outside CI")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "Enable debug logging")
}

// buildConfig validates flag combinations and assembles the immutable run configuration.
func buildConfig(ctx context.Context, fs *pflag.FlagSet, o *cliOptions, args []string, lookupEnv func(string) (string, bool)) (relver.ReleaseConfig, relver.ExecutionContext, error) {
	var cfg relver.ReleaseConfig
	usage := func(format string, a ...any) error {
		return fmt.Errorf("%w: %s", relver.ErrUsage, fmt.Sprintf(format, a...))
	}

	if o.print && o.dryRun {
		return cfg, 0, usage("--print and --dry-run are mutually exclusive")
	}
	if o.lightweightTag && o.signedTag {
		return cfg, 0, usage("--lightweight-tag and --signed-tag are mutually exclusive")
	}

	if fs.Changed("set") {
		if len(args) > 0 {
			return cfg, 0, usage("--set and a bump mode are mutually exclusive")
		}
		cfg.Target = relver.Target{Mode: relver.BumpSet, Explicit: o.set, AllowPrerelease: o.allowPrerelease}
	} else {
		if o.allowPrerelease {
			return cfg, 0, usage("--allow-prerelease requires --set")
		}
		if len(args) != 1 {
			return cfg, 0, usage("<version-bump> positional argument is required")
		}
		mode, err := relver.ParseBumpMode(args[0])
		if err != nil {
			return cfg, 0, err
		}
		cfg.Target = relver.Target{Mode: mode}
	}

	root, _, err := relver.FindRepoRoot(ctx, o.repoRoot)
	if err != nil {
		return cfg, 0, err
	}
	settings, err := relver.LoadSettings(root, lookupEnv)
	if err != nil {
		return cfg, 0, err
	}
	pick := func(name, flagValue, fallback string) string {
		if fs.Changed(name) {
			return flagValue
		}
		return fallback
	}
	cfg.RepoRoot = o.repoRoot
	cfg.VersionFile = pick("version-file", o.versionFile, settings.VersionFile)
	cfg.Manifest = pick("manifest", o.manifest, settings.Manifest)

	style := relver.TagAnnotated
	switch {
	case o.signedTag:
		style = relver.TagSigned
	case o.lightweightTag:
		style = relver.TagLightweight
	}
	opts := relver.Options{
		Commit:            o.commit,
		Tag:               o.tag,
		Push:              o.push,
		PushTags:          o.pushTags,
		Message:           o.message,
		Note:              o.note,
		AllowDirty:        o.allowDirty,
		AllowNonMonotonic: o.allowNonMonotonic,
		NoVerify:          o.noVerify,
		SignCommit:        o.signCommit,
		TagStyle:          style,
		UpdateManifest:    !o.noCMake,
		TagPrefix:         pick("tag-prefix", o.tagPrefix, settings.TagPrefix),
		Remote:            pick("remote", o.remote, settings.Remote),
	}

	switch {
	case o.print:
		cfg.Mode = relver.PrintMode{}
	case o.dryRun:
		cfg.Mode = relver.DryRunMode{Options: opts}
	default:
		cfg.Mode = relver.ExecuteMode{Options: opts}
	}

	ec := relver.DetectExecutionContext(func(k string) string {
		v, _ := lookupEnv(k)
		return v
	})
	if o.unattended {
		ec = relver.Unattended
	}
	return cfg, ec, nil
}
