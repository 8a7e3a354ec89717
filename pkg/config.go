package relver

import (
	"fmt"
	"strings"
)

// ExecutionContext decides whether escalatable findings are warnings or failures.
type ExecutionContext int

const (
	Interactive ExecutionContext = iota
	Unattended
)

func (c ExecutionContext) String() string {
	if c == Unattended {
		return "unattended"
	}
	return "interactive"
}

// ciVariables signal an automated pipeline when set to anything but "false" or "0".
var ciVariables = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "BUILDKITE", "JENKINS_URL", "TF_BUILD"}

// DetectExecutionContext inspects the environment through getenv.
func DetectExecutionContext(getenv func(string) string) ExecutionContext {
	for _, k := range ciVariables {
		switch v := strings.ToLower(strings.TrimSpace(getenv(k))); v {
		case "", "false", "0":
		default:
			return Unattended
		}
	}
	return Interactive
}

// Target describes how the candidate version is obtained.
type Target struct {
	Mode BumpMode
	// Explicit is used when Mode is BumpSet.
	Explicit        string
	AllowPrerelease bool
}

// Resolve computes the candidate from current. hasCurrent is false when no
// version record exists yet.
func (t Target) Resolve(current Version, hasCurrent bool) (Version, error) {
	if t.Mode == BumpSet {
		return SetVersion(t.Explicit, t.AllowPrerelease)
	}
	if !hasCurrent {
		return Version{}, fmt.Errorf("no version file to bump; use --set to create one")
	}
	return Bump(current, t.Mode)
}

// Options carries the orchestrator toggles shared by dry-run and execution.
type Options struct {
	Commit   bool
	Tag      bool
	Push     bool
	PushTags bool

	// Message replaces the generated commit message when non-empty.
	Message string
	// Note is appended to the generated commit message.
	Note string

	AllowDirty        bool
	AllowNonMonotonic bool
	NoVerify          bool
	SignCommit        bool
	TagStyle          TagStyle
	UpdateManifest    bool

	TagPrefix string
	Remote    string
}

// Mode is one of PrintMode, DryRunMode or ExecuteMode.
type Mode interface {
	isMode()
}

// PrintMode computes and prints the target version without side effects.
type PrintMode struct{}

// DryRunMode validates and reports the plan without mutating anything.
type DryRunMode struct {
	Options Options
}

// ExecuteMode performs the release.
type ExecuteMode struct {
	Options Options
}

func (PrintMode) isMode()   {}
func (DryRunMode) isMode()  {}
func (ExecuteMode) isMode() {}

// ReleaseConfig is assembled once per invocation and never mutated afterwards.
type ReleaseConfig struct {
	RepoRoot    string
	VersionFile string
	Manifest    string
	Target      Target
	Mode        Mode
}

// Validate rejects inconsistent option combinations.
func (o Options) Validate() error {
	if o.PushTags && !o.Tag {
		return fmt.Errorf("%w: --push-tags requires --tag", ErrUsage)
	}
	if (o.Push || o.PushTags) && o.Remote == "" {
		return fmt.Errorf("%w: pushing requires a remote", ErrUsage)
	}
	return nil
}
