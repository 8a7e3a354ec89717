package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	relver "github.com/bcomnes/relver/pkg"
)

const usageText = `Usage:
  relver [options] <major|minor|patch>
  relver [options] --set VERSION

Computes the next version, writes it to the version file (default: VERSION) and the
version field of the build manifest (default: CMakeLists.txt), and optionally commits,
tags ("v" prefix by default) and pushes the release. On success the resulting version
is the only line written to standard output.

Examples:
  relver minor
  relver --commit --tag --push patch
  relver --print --set 2.0.0-rc.1 --allow-prerelease
  relver --dry-run --commit --tag major

Options:
{{.LocalFlags.FlagUsages}}`

func newRootCommand(stdout, stderr io.Writer, session *relver.Session, lookupEnv func(string) (string, bool)) *cobra.Command {
	o := &cliOptions{}
	cmd := &cobra.Command{
		Use:     "relver [options] <major|minor|patch>",
		Short:   "Bump, record, commit and tag semantic versions",
		Version: Version,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("%w: expected at most one <version-bump> argument, got %d", relver.ErrUsage, len(args))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ec, err := buildConfig(cmd.Context(), cmd.Flags(), o, args, lookupEnv)
			if err != nil {
				return err
			}
			logger := newLogger(stderr, o.verbose)
			meta, err := relver.NewReleaser(logger, ec, session).Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			if _, ok := cfg.Mode.(relver.DryRunMode); ok {
				fmt.Fprintln(stderr, "Dry run: no files or refs were modified. Planned actions:")
				if meta.NoOp {
					fmt.Fprintln(stderr, "  none, version file already at", meta.NewVersion)
				}
				for _, step := range meta.Plan {
					fmt.Fprintln(stderr, "  "+step)
				}
			}
			fmt.Fprintln(stdout, meta.NewVersion)
			return nil
		},
	}
	cmd.SetOut(stderr)
	cmd.SetErr(stderr)
	cmd.SetUsageTemplate(usageText)
	cmd.SetVersionTemplate("relver CLI version {{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", relver.ErrUsage, err)
	})
	bindFlags(cmd.Flags(), o)
	return cmd
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer, lookupEnv func(string) (string, bool)) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	session := relver.NewSession()
	defer session.Release()

	cmd := newRootCommand(stdout, stderr, session, lookupEnv)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		if errors.Is(err, relver.ErrUsage) {
			cmd.Usage()
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, os.LookupEnv))
}
