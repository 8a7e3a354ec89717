package relver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/vcs"
)

// TagStyle selects how a release tag is created.
type TagStyle int

const (
	TagAnnotated TagStyle = iota
	TagSigned
	TagLightweight
)

func (s TagStyle) String() string {
	switch s {
	case TagSigned:
		return "signed"
	case TagLightweight:
		return "lightweight"
	}
	return "annotated"
}

// Git runs git commands inside a single working copy.
type Git struct {
	Root string
}

// CheckGit verifies that git is available on the system.
func CheckGit(ctx context.Context) error {
	if _, err := exec.LookPath("git"); err != nil {
		return &MissingDependencyError{Tool: "git"}
	}
	if err := exec.CommandContext(ctx, "git", "--version").Run(); err != nil {
		return &MissingDependencyError{Tool: "git"}
	}
	return nil
}

// OpenGit resolves the top level of the working copy containing dir.
func OpenGit(ctx context.Context, dir string) (*Git, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %q: %w", dir, err)
	}
	out, err := (&Git{Root: abs}).output(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotARepository, abs)
	}
	return &Git{Root: filepath.FromSlash(strings.TrimSpace(out))}, nil
}

// FindRepoRoot returns the top level of the git working copy containing dir,
// or dir itself with ok=false when there is none. It needs no git binary:
// without one it walks up from dir looking for a git checkout on disk.
func FindRepoRoot(ctx context.Context, dir string) (root string, ok bool, err error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve path %q: %w", dir, err)
	}
	if _, lookErr := exec.LookPath("git"); lookErr == nil {
		out, err := (&Git{Root: abs}).output(ctx, "rev-parse", "--show-toplevel")
		if err != nil {
			return abs, false, nil
		}
		return filepath.FromSlash(strings.TrimSpace(out)), true, nil
	}
	for d := abs; ; {
		if kind, err := vcs.DetectVcsFromFS(d); err == nil && kind == vcs.Git {
			return d, true, nil
		}
		parent := filepath.Dir(d)
		if parent == d {
			return abs, false, nil
		}
		d = parent
	}
}

func (g *Git) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Root
	return cmd
}

// run executes git and folds stderr into the returned error.
func (g *Git) run(ctx context.Context, args ...string) error {
	_, err := g.output(ctx, args...)
	return err
}

func (g *Git) output(ctx context.Context, args ...string) (string, error) {
	cmd := g.command(ctx, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s failed: %v, detail: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// exitCode reports the exit status of a finished git command, or -1.
func exitCode(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

// Status reads tracked changes and untracked files relative to HEAD.
func (g *Git) Status(ctx context.Context) (TreeState, error) {
	out, err := g.output(ctx, "status", "--porcelain=v1", "-z", "--untracked-files=all")
	if err != nil {
		return TreeState{}, fmt.Errorf("failed to check git status: %w", err)
	}
	return parsePorcelain(out), nil
}

func parsePorcelain(out string) TreeState {
	var st TreeState
	fields := strings.Split(out, "\x00")
	for i := 0; i < len(fields); i++ {
		entry := fields[i]
		if len(entry) < 4 {
			continue
		}
		code, path := entry[:2], entry[3:]
		switch {
		case code == "??":
			st.Untracked = append(st.Untracked, path)
		case code == "!!":
		default:
			st.Changed = append(st.Changed, path)
			// Renames and copies carry the source path in the next field.
			if code[0] == 'R' || code[0] == 'C' {
				i++
			}
		}
	}
	return st
}

// CurrentBranch returns the checked out branch, or detached=true.
func (g *Git) CurrentBranch(ctx context.Context) (branch string, detached bool, err error) {
	cmd := g.command(ctx, "symbolic-ref", "--quiet", "--short", "HEAD")
	out, err := cmd.Output()
	if err != nil {
		if exitCode(err) == 1 {
			return "", true, nil
		}
		return "", false, fmt.Errorf("git symbolic-ref failed: %v", err)
	}
	return strings.TrimSpace(string(out)), false, nil
}

// Head returns the commit HEAD points at, or "" in a repository without commits.
func (g *Git) Head(ctx context.Context) (string, error) {
	return g.resolve(ctx, "HEAD")
}

// TagCommit returns the commit a tag points at, or "" when the tag does not exist.
func (g *Git) TagCommit(ctx context.Context, tag string) (string, error) {
	return g.resolve(ctx, "refs/tags/"+tag+"^{commit}")
}

func (g *Git) resolve(ctx context.Context, rev string) (string, error) {
	cmd := g.command(ctx, "rev-parse", "--verify", "--quiet", rev)
	out, err := cmd.Output()
	if err != nil {
		if exitCode(err) == 1 {
			return "", nil
		}
		return "", fmt.Errorf("git rev-parse %s failed: %v", rev, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// IsTracked reports whether path is in the index.
func (g *Git) IsTracked(ctx context.Context, path string) (bool, error) {
	cmd := g.command(ctx, "ls-files", "--error-unmatch", "--", path)
	if err := cmd.Run(); err != nil {
		if exitCode(err) == 1 {
			return false, nil
		}
		return false, fmt.Errorf("git ls-files failed: %v", err)
	}
	return true, nil
}

// ConfigValue returns a git config value and whether it is set.
func (g *Git) ConfigValue(ctx context.Context, key string) (string, bool, error) {
	cmd := g.command(ctx, "config", "--get", key)
	out, err := cmd.Output()
	if err != nil {
		if exitCode(err) == 1 {
			return "", false, nil
		}
		return "", false, fmt.Errorf("git config --get %s failed: %v", key, err)
	}
	v := strings.TrimSpace(string(out))
	return v, v != "", nil
}

// HasIdentity reports whether git can build a committer identity from config or environment.
func (g *Git) HasIdentity(ctx context.Context) bool {
	return g.run(ctx, "var", "GIT_COMMITTER_IDENT") == nil
}

// ListTags lists tags matching a git glob, optionally passing a --sort key.
func (g *Git) ListTags(ctx context.Context, pattern, sortKey string) ([]string, error) {
	args := []string{"tag", "--list"}
	if sortKey != "" {
		args = append(args, "--sort="+sortKey)
	}
	args = append(args, pattern)
	out, err := g.output(ctx, args...)
	if err != nil {
		return nil, err
	}
	var tags []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			tags = append(tags, line)
		}
	}
	return tags, nil
}

// Add stages files.
func (g *Git) Add(ctx context.Context, files ...string) error {
	return g.run(ctx, append([]string{"add", "--"}, files...)...)
}

// StagedAmong returns the subset of files with staged changes.
func (g *Git) StagedAmong(ctx context.Context, files ...string) ([]string, error) {
	out, err := g.output(ctx, append([]string{"diff", "--cached", "--name-only", "--"}, files...)...)
	if err != nil {
		return nil, err
	}
	var staged []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			staged = append(staged, line)
		}
	}
	return staged, nil
}

// Commit records the staged changes restricted to files.
func (g *Git) Commit(ctx context.Context, message string, sign, noVerify bool, files ...string) error {
	args := []string{"commit", "-m", message}
	if sign {
		args = append(args, "-S")
	}
	if noVerify {
		args = append(args, "--no-verify")
	}
	args = append(args, "--")
	args = append(args, files...)
	return g.run(ctx, args...)
}

// Tag creates name at HEAD in the given style.
func (g *Git) Tag(ctx context.Context, name, message string, style TagStyle) error {
	switch style {
	case TagLightweight:
		return g.run(ctx, "tag", name)
	case TagSigned:
		return g.run(ctx, "tag", "-s", name, "-m", message)
	}
	return g.run(ctx, "tag", "-a", name, "-m", message)
}

// Push pushes a single ref to remote.
func (g *Git) Push(ctx context.Context, remote, ref string) error {
	cmd := g.command(ctx, "push", remote, ref)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return &PushError{Remote: remote, Ref: ref, Detail: detail}
	}
	return nil
}

var gitVersionPattern = regexp.MustCompile(`git version (\d+)\.(\d+)`)

// Version returns git's major and minor version.
func (g *Git) Version(ctx context.Context) (major, minor int, err error) {
	out, err := g.output(ctx, "--version")
	if err != nil {
		return 0, 0, err
	}
	m := gitVersionPattern.FindStringSubmatch(out)
	if m == nil {
		return 0, 0, fmt.Errorf("unrecognized git version output %q", strings.TrimSpace(out))
	}
	major, _ = strconv.Atoi(m[1])
	minor, _ = strconv.Atoi(m[2])
	return major, minor, nil
}
