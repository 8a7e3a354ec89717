package integration

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildCLI compiles the relver binary from the module root into a temp dir.
func buildCLI(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain is not available on system")
	}
	binPath := filepath.Join(t.TempDir(), "relver")
	// The main package lives two directories up from cmd/integration.
	buildCmd := exec.Command("go", "build", "-o", binPath, "../../")
	out, err := buildCmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI binary: %s", out)
	return binPath
}

func TestCLIBinaryReleaseAndPush(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not available on system")
	}
	binPath := buildCLI(t)
	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")

	remote := t.TempDir()
	repo := t.TempDir()
	runGit := func(dir string, args ...string) string {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
		return strings.TrimSpace(string(out))
	}
	runGit(remote, "init", "--bare")
	runGit(repo, "init")
	runGit(repo, "symbolic-ref", "HEAD", "refs/heads/main")
	runGit(repo, "config", "user.email", "test@example.com")
	runGit(repo, "config", "user.name", "Test User")
	runGit(repo, "remote", "add", "origin", remote)

	require.NoError(t, os.WriteFile(filepath.Join(repo, "VERSION"), []byte("0.9.1\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "CMakeLists.txt"),
		[]byte("cmake_minimum_required(VERSION 3.20)\nset(DEMO_VERSION \"0.9.1\")\nproject(demo)\n"), 0644))
	runGit(repo, "add", "-A")
	runGit(repo, "commit", "-m", "initial commit")
	runGit(repo, "tag", "v0.9.1")

	cliCmd := exec.Command(binPath, "--commit", "--tag", "--push", "--note", "First stable release.", "major")
	cliCmd.Dir = repo
	cliCmd.Env = append(os.Environ(), "CI=true")
	var stdout, stderr bytes.Buffer
	cliCmd.Stdout = &stdout
	cliCmd.Stderr = &stderr
	require.NoError(t, cliCmd.Run(), "stderr: %s", stderr.String())

	assert.Equal(t, "1.0.0\n", stdout.String())
	content, err := os.ReadFile(filepath.Join(repo, "CMakeLists.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(content), `set(DEMO_VERSION "1.0.0")`)
	assert.Equal(t, "Bump version 0.9.1 -> 1.0.0\n\nFirst stable release.", runGit(repo, "log", "-1", "--format=%B"))

	refs := runGit(remote, "for-each-ref", "--format=%(refname)")
	assert.Contains(t, refs, "refs/heads/main")
	assert.Contains(t, refs, "refs/tags/v1.0.0")
	assert.Equal(t, runGit(repo, "rev-parse", "HEAD"), runGit(remote, "rev-parse", "refs/tags/v1.0.0^{commit}"))
}

func TestCLIBinaryPrintNeedsNoRepository(t *testing.T) {
	binPath := buildCLI(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "VERSION"), []byte("3.1.4\n"), 0644))

	cliCmd := exec.Command(binPath, "--print", "patch")
	cliCmd.Dir = dir
	out, err := cliCmd.Output()
	require.NoError(t, err)
	assert.Equal(t, "3.1.5\n", string(out))
}
