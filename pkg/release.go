package relver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
)

// VersionMeta holds metadata about the release operation.
type VersionMeta struct {
	OldVersion   string   // The version in the record before the run; empty if there was none.
	NewVersion   string   // The computed version.
	BumpType     BumpMode // How the version was obtained.
	NoOp         bool     // The record already held NewVersion.
	UpdatedFiles []string // Files written (or that would be written in a dry run).
	Plan         []string // Human-readable actions, in order.
	Committed    bool
	Tag          string // Tag created or found at HEAD; empty when not tagging.
	Pushed       []string
}

// Releaser sequences validation, writes, and git operations for one run.
type Releaser struct {
	Logger  *slog.Logger
	Context ExecutionContext
	Session *Session
}

// NewReleaser returns a releaser. A nil logger discards output.
func NewReleaser(logger *slog.Logger, ec ExecutionContext, session *Session) *Releaser {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Releaser{Logger: logger, Context: ec, Session: session}
}

// Run dispatches on the configuration's mode.
func (r *Releaser) Run(ctx context.Context, cfg ReleaseConfig) (VersionMeta, error) {
	switch m := cfg.Mode.(type) {
	case PrintMode:
		v, err := PrintVersion(ctx, cfg)
		if err != nil {
			return VersionMeta{}, err
		}
		return VersionMeta{NewVersion: v.String(), BumpType: cfg.Target.Mode}, nil
	case DryRunMode:
		return r.release(ctx, cfg, m.Options, true)
	case ExecuteMode:
		return r.release(ctx, cfg, m.Options, false)
	}
	return VersionMeta{}, fmt.Errorf("%w: unknown mode %T", ErrUsage, cfg.Mode)
}

// PrintVersion computes the target version without validation or side
// effects. The version file is resolved against the repository top level,
// as in a real run; outside a repository RepoRoot is used instead.
func PrintVersion(ctx context.Context, cfg ReleaseConfig) (Version, error) {
	if cfg.Target.Mode == BumpSet {
		return SetVersion(cfg.Target.Explicit, cfg.Target.AllowPrerelease)
	}
	path := cfg.VersionFile
	if !filepath.IsAbs(path) {
		root, _, err := FindRepoRoot(ctx, cfg.RepoRoot)
		if err != nil {
			return Version{}, err
		}
		path = filepath.Join(root, path)
	}
	cur, ok, err := readVersionRecord(path)
	if err != nil {
		return Version{}, err
	}
	return cfg.Target.Resolve(cur, ok)
}

// CommitMessage builds the release commit message. custom, when set, replaces
// the generated message entirely.
func CommitMessage(old string, next Version, note, custom string) string {
	if custom != "" {
		return custom
	}
	msg := fmt.Sprintf("Set version %s", next)
	if old != "" {
		msg = fmt.Sprintf("Bump version %s -> %s", old, next)
	}
	if note != "" {
		msg += "\n\n" + note
	}
	return msg
}

// escalate turns a finding into a failure in unattended runs and a warning otherwise.
func (r *Releaser) escalate(err error, override bool) error {
	if r.Context == Unattended && !override {
		return err
	}
	r.Logger.Warn(err.Error(), "context", r.Context.String())
	return nil
}

// releasePlan is the validated state carried from Validating into Writing.
type releasePlan struct {
	git          *Git
	writer       *ArtifactWriter
	next         Version
	branch       string
	manifest     ManifestChange
	tagName      string
	tagSatisfied bool
	message      string
}

func (r *Releaser) release(ctx context.Context, cfg ReleaseConfig, opts Options, dry bool) (VersionMeta, error) {
	meta := VersionMeta{BumpType: cfg.Target.Mode}
	if err := opts.Validate(); err != nil {
		return meta, err
	}
	if err := CheckGit(ctx); err != nil {
		return meta, err
	}
	g, err := OpenGit(ctx, cfg.RepoRoot)
	if err != nil {
		return meta, err
	}

	manifest := cfg.Manifest
	if !opts.UpdateManifest {
		manifest = ""
	}
	w := NewArtifactWriter(g.Root, cfg.VersionFile, manifest, r.Session, r.Logger)

	cur, hasCur, err := w.ReadVersionRecord()
	if err != nil {
		return meta, err
	}
	if hasCur {
		meta.OldVersion = cur.String()
	}
	next, err := cfg.Target.Resolve(cur, hasCur)
	if err != nil {
		return meta, err
	}
	meta.NewVersion = next.String()

	if hasCur && next == cur {
		r.Logger.Info("version file already at target version, nothing to do", "version", meta.NewVersion)
		meta.NoOp = true
		return meta, nil
	}

	p, err := r.validate(ctx, g, w, cfg, opts, next, meta.OldVersion, dry)
	if err != nil {
		return meta, err
	}
	meta.Plan = describePlan(cfg, opts, p, meta.OldVersion)
	if next.IsRelease() {
		meta.UpdatedFiles = append(meta.UpdatedFiles, cfg.VersionFile)
	}
	if p.manifest.Changed {
		meta.UpdatedFiles = append(meta.UpdatedFiles, p.manifest.Path)
	}
	if dry {
		return meta, nil
	}
	return r.execute(ctx, cfg, opts, p, meta)
}

// validate runs every guard. Nothing is mutated here.
func (r *Releaser) validate(ctx context.Context, g *Git, w *ArtifactWriter, cfg ReleaseConfig, opts Options, next Version, old string, dry bool) (*releasePlan, error) {
	p := &releasePlan{git: g, writer: w, next: next}

	if opts.Tag && !next.IsRelease() {
		return nil, fmt.Errorf("%w: %s", ErrPrereleaseTag, next)
	}

	if !dry {
		state, err := g.Status(ctx)
		if err != nil {
			return nil, err
		}
		exclude := dirtyExclusions(cfg.VersionFile, cfg.Manifest, !next.IsRelease(), opts.UpdateManifest)
		advisory, err := CheckDirtyTree(state, exclude)
		if len(advisory) > 0 {
			r.Logger.Warn("untracked files are not part of the release", "files", advisory)
		}
		if err != nil {
			if !opts.AllowDirty {
				return nil, err
			}
			r.Logger.Warn("continuing with a dirty working tree", "files", err.(*DirtyTreeError).Files)
		}
	}

	if opts.Commit || opts.Tag || opts.Push {
		branch, detached, err := g.CurrentBranch(ctx)
		if err != nil {
			return nil, err
		}
		if detached {
			return nil, ErrDetachedHead
		}
		p.branch = branch
	}

	if (opts.Commit || (opts.Tag && opts.TagStyle != TagLightweight)) && !g.HasIdentity(ctx) {
		return nil, ErrMissingIdentity
	}

	if (opts.Commit && opts.SignCommit) || (opts.Tag && opts.TagStyle == TagSigned) {
		if _, ok, err := g.ConfigValue(ctx, "user.signingkey"); err != nil {
			return nil, err
		} else if !ok {
			if err := r.escalate(ErrMissingSigningKey, false); err != nil {
				return nil, err
			}
		}
	}

	if opts.Commit && next.IsRelease() {
		if _, exists, _ := w.ReadVersionRecord(); exists {
			tracked, err := g.IsTracked(ctx, cfg.VersionFile)
			if err != nil {
				return nil, err
			}
			if !tracked {
				return nil, &UntrackedVersionFileError{Path: cfg.VersionFile}
			}
		}
	}

	ledger := NewTagLedger(g, ProbeTagSorter(ctx, g, r.Logger))
	if err := ledger.CheckMonotonic(ctx, next, opts.TagPrefix); err != nil {
		var nm *NonMonotonicError
		if !errors.As(err, &nm) {
			return nil, err
		}
		if err := r.escalate(nm, opts.AllowNonMonotonic); err != nil {
			return nil, err
		}
	}

	if opts.Tag {
		p.tagName = TagName(opts.TagPrefix, next)
		at, err := g.TagCommit(ctx, p.tagName)
		if err != nil {
			return nil, err
		}
		if at != "" {
			head, err := g.Head(ctx)
			if err != nil {
				return nil, err
			}
			// A new commit will move HEAD away from any existing tag.
			if opts.Commit || at != head {
				return nil, &TagExistsError{Tag: p.tagName, Commit: at}
			}
			p.tagSatisfied = true
		}
	}

	change, err := w.PlanManifest(next)
	if err != nil {
		return nil, err
	}
	p.manifest = change
	p.message = CommitMessage(old, next, opts.Note, opts.Message)
	return p, nil
}

func describePlan(cfg ReleaseConfig, opts Options, p *releasePlan, old string) []string {
	var plan []string
	from := old
	if from == "" {
		from = "(none)"
	}
	if p.next.IsRelease() {
		plan = append(plan, fmt.Sprintf("write %s: %s -> %s", cfg.VersionFile, from, p.next))
	} else {
		plan = append(plan, fmt.Sprintf("skip %s: prerelease %s is not persisted", cfg.VersionFile, p.next))
	}
	switch {
	case p.manifest.Path == "":
	case !p.manifest.Found:
		plan = append(plan, fmt.Sprintf("skip %s: no recognizable version field", p.manifest.Path))
	case p.manifest.Changed:
		plan = append(plan, fmt.Sprintf("update %s (%s): %s -> %s", p.manifest.Path, p.manifest.Pattern, p.manifest.Old, p.next))
	default:
		plan = append(plan, fmt.Sprintf("leave %s unchanged: already at %s", p.manifest.Path, p.next))
	}
	if opts.Commit {
		if p.next.IsRelease() {
			plan = append(plan, fmt.Sprintf("commit %q", firstLine(p.message)))
		} else {
			plan = append(plan, "skip commit: nothing to stage")
		}
	}
	if opts.Tag {
		if p.tagSatisfied {
			plan = append(plan, fmt.Sprintf("tag %s already points at HEAD", p.tagName))
		} else {
			plan = append(plan, fmt.Sprintf("create %s tag %s", opts.TagStyle, p.tagName))
		}
	}
	if opts.Push {
		plan = append(plan, fmt.Sprintf("push branch %s to %s", p.branch, opts.Remote))
	}
	if (opts.Push || opts.PushTags) && opts.Tag {
		plan = append(plan, fmt.Sprintf("push tag %s to %s", p.tagName, opts.Remote))
	}
	return plan
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}

// execute performs the writes and git operations. Failures after the first
// mutation are reported as *PartialError.
func (r *Releaser) execute(ctx context.Context, cfg ReleaseConfig, opts Options, p *releasePlan, meta VersionMeta) (VersionMeta, error) {
	if err := ctx.Err(); err != nil {
		return meta, err
	}
	var done []string
	fail := func(err error) (VersionMeta, error) {
		if len(done) == 0 {
			return meta, err
		}
		return meta, &PartialError{Completed: slices.Clone(done), Err: err}
	}
	g := p.git

	var touched []string
	if p.next.IsRelease() {
		if err := p.writer.WriteVersionRecord(p.next); err != nil {
			return fail(err)
		}
		touched = append(touched, cfg.VersionFile)
		done = append(done, "wrote "+cfg.VersionFile)
	} else {
		r.Logger.Info("prerelease versions are not written to the version file", "version", p.next.String())
	}
	if p.manifest.Changed {
		if err := p.writer.WriteManifest(p.manifest); err != nil {
			return fail(err)
		}
		touched = append(touched, p.manifest.Path)
		done = append(done, "updated "+p.manifest.Path)
	}

	if opts.Commit {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		staged, err := r.stage(ctx, g, touched)
		if err != nil {
			return fail(err)
		}
		if len(staged) == 0 {
			r.Logger.Info("nothing staged, skipping commit")
		} else {
			if err := g.Commit(ctx, p.message, opts.SignCommit, opts.NoVerify, staged...); err != nil {
				return fail(err)
			}
			meta.Committed = true
			done = append(done, "committed "+firstLine(p.message))
		}
	}

	if opts.Tag {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		if err := r.tag(ctx, g, p, opts.TagStyle); err != nil {
			return fail(err)
		}
		meta.Tag = p.tagName
		if !p.tagSatisfied {
			done = append(done, "tagged "+p.tagName)
		}
	}

	var refs []string
	if opts.Push {
		refs = append(refs, "refs/heads/"+p.branch)
	}
	if (opts.Push || opts.PushTags) && meta.Tag != "" {
		refs = append(refs, "refs/tags/"+meta.Tag)
	}
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		if err := g.Push(ctx, opts.Remote, ref); err != nil {
			return fail(err)
		}
		meta.Pushed = append(meta.Pushed, ref)
		done = append(done, "pushed "+ref)
	}
	return meta, nil
}

// stage adds exactly the touched files and returns those with staged changes.
func (r *Releaser) stage(ctx context.Context, g *Git, touched []string) ([]string, error) {
	if len(touched) == 0 {
		return nil, nil
	}
	if err := g.Add(ctx, touched...); err != nil {
		return nil, err
	}
	return g.StagedAmong(ctx, touched...)
}

func (r *Releaser) tag(ctx context.Context, g *Git, p *releasePlan, style TagStyle) error {
	if p.tagSatisfied {
		r.Logger.Info("tag already points at HEAD", "tag", p.tagName)
		return nil
	}
	at, err := g.TagCommit(ctx, p.tagName)
	if err != nil {
		return err
	}
	if at != "" {
		head, err := g.Head(ctx)
		if err != nil {
			return err
		}
		if at != head {
			return &TagExistsError{Tag: p.tagName, Commit: at}
		}
		p.tagSatisfied = true
		r.Logger.Info("tag already points at HEAD", "tag", p.tagName)
		return nil
	}
	return g.Tag(ctx, p.tagName, "Release "+p.next.String(), style)
}
