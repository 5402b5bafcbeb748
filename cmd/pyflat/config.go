// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pyflat/pyflat/internal/config"
)

// newConfigCommand creates the `pyflat config` command tree.
// Subcommands that read configuration use the App's ConfigProvider.
func newConfigCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pyflat configuration",
		Long: `Manage pyflat configuration.

Configuration is stored in:
  - Linux: ~/.config/pyflat/config.cue
  - macOS: ~/Library/Application Support/pyflat/config.cue
  - Windows: %APPDATA%\pyflat\config.cue

A config.cue in the current directory is used when the config directory has
none. Every key can also be set through the environment, e.g.
PYFLAT_LINE_WIDTH=100 or PYFLAT_GUARDS_ALL=true.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd.Context(), app, rootFlags)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return initConfig(app.stdout, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return showConfigPath(app.stdout, rootFlags)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context(), rootFlags)
			if err != nil {
				return app.reportFailure(err, rootFlags, nil)
			}

			_, err = fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return err
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App, rootFlags *rootFlagValues) error {
	cfg, err := app.loadConfig(ctx, rootFlags)
	if err != nil {
		return app.reportFailure(err, rootFlags, nil)
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	w := app.stdout

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	path, pathErr := config.ResolvePath(config.LoadOptions{ConfigFilePath: rootFlags.configPath})
	if pathErr != nil || path == "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), path)
	}
	fmt.Fprintln(w)

	value := func(v any) string { return valueStyle.Render(fmt.Sprint(v)) }
	list := func(items []string) string {
		if len(items) == 0 {
			return SubtitleStyle.Render("(none)")
		}
		return valueStyle.Render(strings.Join(items, ", "))
	}

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("line_width"), value(cfg.LineWidth))
	shebang := SubtitleStyle.Render("(disabled)")
	if cfg.Shebang != "" {
		shebang = value(cfg.Shebang)
	}
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("shebang"), shebang)
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("ignore_clashes"), value(cfg.IgnoreClashes))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("exclude"), list(cfg.Exclude))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("include"), list(cfg.Include))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("stdlib_extra"), list(cfg.StdlibExtra))
	output := SubtitleStyle.Render("(stdout)")
	if cfg.Output != "" {
		output = value(cfg.Output)
	}
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("output"), output)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("guards"))
	fmt.Fprintf(w, "  all: %s\n", value(cfg.Guards.All))
	fmt.Fprintf(w, "  from: %s\n", list(cfg.Guards.From))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  color_scheme: %s\n", value(cfg.UI.ColorScheme))
	fmt.Fprintf(w, "  verbose: %s\n", value(cfg.UI.Verbose))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("watch"))
	fmt.Fprintf(w, "  debounce: %s\n", value(cfg.Watch.Debounce))
	fmt.Fprintf(w, "  clear_screen: %s\n", value(cfg.Watch.ClearScreen))
	fmt.Fprintf(w, "  ignore: %s\n", list(cfg.Watch.Ignore))

	return nil
}

func initConfig(w io.Writer, force bool) error {
	if force {
		if err := config.Save(config.DefaultConfig()); err != nil {
			return fmt.Errorf("failed to create config: %w", err)
		}
		path, err := config.DefaultFilePath()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s Wrote default configuration to %s\n", SuccessStyle.Render("✓"), path)
		return nil
	}

	path, err := config.DefaultFilePath()
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		fmt.Fprintf(w, "%s Configuration already exists at %s (use --force to overwrite)\n", WarningStyle.Render("!"), path)
		return nil
	}

	if _, err := config.CreateDefaultConfig(); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	fmt.Fprintf(w, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath(w io.Writer, rootFlags *rootFlagValues) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	defaultPath, err := config.DefaultFilePath()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Config directory: %s\n", cfgDir)
	fmt.Fprintf(w, "Config file: %s\n", defaultPath)

	active, err := config.ResolvePath(config.LoadOptions{ConfigFilePath: rootFlags.configPath})
	if err != nil {
		return err
	}
	if active == "" {
		active = "(none, using defaults)"
	}
	fmt.Fprintf(w, "Active file: %s\n", active)
	return nil
}
