// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/pyflat/pyflat/internal/flaterr"
	"github.com/pyflat/pyflat/internal/logging"
	"github.com/pyflat/pyflat/pkg/types"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every command.
type rootFlagValues struct {
	verbose       bool
	verboseSet    bool
	configPath    string
	logFormat     string
	logTimestamps bool
}

// logOptions is the logger configuration selected by the flags.
func (f *rootFlagValues) logOptions() logging.Options {
	return logging.Options{
		Level:      logging.LevelFor(f.verbose),
		Format:     logging.Format(f.logFormat),
		Timestamps: f.logTimestamps,
	}
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// NewRootCommand builds the pyflat command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootFlags := &rootFlagValues{}
	flags := &flattenFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "pyflat [flags] <input>",
		Short: "Flatten a Python package into a single module",
		Long: TitleStyle.Render("pyflat") + SubtitleStyle.Render(" - Flatten a Python package into a single module") + `

pyflat reads every module of a package, merges their imports into one
canonical block, drops relative imports and writes a single self-contained
source file. The package's __main__ module, when present, is appended last
and the output gets a shebang line.

The input is a package directory, a single source file, or a dotted package
name found on PYTHONPATH or in the current directory.

` + SubtitleStyle.Render("Examples:") + `
  pyflat src/mypkg                     Flatten to stdout
  pyflat mypkg -o dist/mypkg.py        Flatten to a file
  pyflat mypkg -M                      Library module, no entry point
  pyflat mypkg -m tools.cli            Use mypkg/tools/cli/__main__.py as entry
  pyflat mypkg -E tests -i tests.util  Skip tests except tests.util
  pyflat mypkg --watch -o out.py       Re-flatten on every save`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			rootFlags.verboseSet = cmd.Flags().Changed("verbose")
			if _, err := logging.ParseFormat(rootFlags.logFormat); err != nil {
				return flaterr.Wrap(flaterr.KindConfiguration, "--log-format", err, "invalid --log-format")
			}
			logging.Install(app.stderr, rootFlags.logOptions())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runRoot(cmd, app, rootFlags, flags, args[0])
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/pyflat/config.cue)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logFormat, "log-format", string(logging.FormatText), "log line format: text, json or logfmt")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.logTimestamps, "log-timestamps", false, "add the time to each log line")
	bindFlattenFlags(rootCmd, flags)

	rootCmd.AddCommand(newConfigCommand(app, rootFlags))
	rootCmd.AddCommand(newExplainCommand(app, rootFlags))
	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newCompletionCommand())

	return rootCmd
}

// Execute runs the CLI and exits with the status mapped from the failure.
// This is called by main.main().
func Execute() {
	os.Exit(Run())
}

// Run executes the command line in os.Args and returns the exit status.
func Run() int {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		return int(exitCodeFor(err))
	}

	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	); err != nil {
		return int(exitCodeFor(err))
	}
	return int(types.ExitSuccess)
}

// handleError prints errors fang receives from a command. Failures already
// reported on stderr arrive as an ExitError and are not printed again.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pyflat version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "pyflat %s\n", getVersionString())
			return err
		},
	}
}
