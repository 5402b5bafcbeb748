// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pyflat/pyflat/internal/config"
	"github.com/pyflat/pyflat/internal/flaterr"
	"github.com/pyflat/pyflat/internal/issue"
)

// explainTopic names one page of the issue catalog.
type explainTopic struct {
	name    string
	id      issue.Id
	summary string
}

var explainTopics = []explainTopic{
	{"path", issue.PathResolutionId, "the input could not be resolved"},
	{"options", issue.ConfigurationId, "conflicting or incomplete options"},
	{"ingestion", issue.IngestionId, "a module could not be read"},
	{"import-collision", issue.ImportCollisionId, "two imports bind the same name"},
	{"duplicate-name", issue.DuplicateNameId, "a top-level name is defined twice"},
	{"invalid-value", issue.InvalidConfigurationId, "an option value is out of range"},
	{"config", issue.ConfigLoadFailedId, "the config file could not be loaded"},
	{"output", issue.OutputWriteFailedId, "the output could not be written"},
}

func newExplainCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "explain [topic]",
		Short: "Explain a failure and how to fix it",
		Long: `Explain a failure and how to fix it.

Without a topic, lists the available topics. A topic is one of the names
listed, an error kind such as ImportCollisionError, or an exit code.`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			names := make([]string, len(explainTopics))
			for i, t := range explainTopics {
				names[i] = t.name + "\t" + t.summary
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return listTopics(app.stdout)
			}

			id, ok := lookupTopic(args[0])
			if !ok {
				return app.reportFailure(
					flaterr.New(flaterr.KindConfiguration, "unknown topic %q; run 'pyflat explain' to list topics", args[0]),
					rootFlags, nil)
			}

			// A broken config file must not hide the page explaining it.
			scheme := config.ColorSchemeAuto
			if cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: rootFlags.configPath}); err == nil {
				scheme = cfg.UI.ColorScheme
			}
			rendered, err := issue.Get(id).Render(glamourStyle(scheme, app.isTerminal(app.stdout)))
			if err != nil {
				return fmt.Errorf("render %s: %w", args[0], err)
			}
			_, err = fmt.Fprint(app.stdout, rendered)
			return err
		},
	}
}

func listTopics(w io.Writer) error {
	if _, err := fmt.Fprintln(w, TitleStyle.Render("Topics")); err != nil {
		return err
	}
	for _, t := range explainTopics {
		if _, err := fmt.Fprintf(w, "  %s %s\n", CmdStyle.Render(fmt.Sprintf("%-18s", t.name)), SubtitleStyle.Render(t.summary)); err != nil {
			return err
		}
	}
	return nil
}

// lookupTopic resolves a topic name, an error kind name or an exit code.
func lookupTopic(topic string) (issue.Id, bool) {
	topic = strings.TrimSpace(topic)
	for _, t := range explainTopics {
		if strings.EqualFold(t.name, topic) {
			return t.id, true
		}
	}
	for _, kind := range flaterr.Kinds() {
		if strings.EqualFold(kind.String(), topic) || exitCodeForKind(kind).String() == topic {
			if is := issue.ForKind(kind); is != nil {
				return is.Id(), true
			}
		}
	}
	return 0, false
}
