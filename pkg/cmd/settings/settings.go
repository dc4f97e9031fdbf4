package settings

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/metamatter/internal/config"
	"github.com/Paintersrp/metamatter/internal/state"
	"github.com/Paintersrp/metamatter/pkg/shared/prompt"
)

var errValueRequired = errors.New("a value is required when not running in a terminal")

func NewCmdSettings(s *state.State) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "settings",
		Aliases: []string{"s", "config"},
		Short:   "Show or change settings",
		Long: heredoc.Doc(`
			Show the settings of the active workspace, read one key or change one.

			Settings are stored in ~/.metamatter/cfg.yaml.
		`),
		Example: heredoc.Doc(`
			mm settings
			mm settings get template_folder
			mm settings set editor nvim
			mm settings set watch.ignore "archive/**,drafts/*.md"
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return list(cmd.OutOrStdout(), s.Config)
		},
	}

	cmd.AddCommand(newCmdGet(s), newCmdSet(s), newCmdAddWorkspace(s))

	return cmd
}

func newCmdGet(s *state.State) *cobra.Command {
	return &cobra.Command{
		Use:       "get <key>",
		Short:     "Print one setting",
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := s.Config.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newCmdSet(s *state.State) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> [value]",
		Short: "Change one setting",
		Long: heredoc.Doc(`
			Change one setting and save it. Without a value you are prompted for one.
		`),
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: config.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			current, err := s.Config.Get(key)
			if err != nil {
				return err
			}

			var value string
			if len(args) == 2 {
				value = args[1]
			} else if value, err = ask(key, current); err != nil {
				return err
			}

			if err := s.Config.Set(key, value); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s set to %q\n", key, value)
			return nil
		},
	}
}

func newCmdAddWorkspace(s *state.State) *cobra.Command {
	var current bool

	cmd := &cobra.Command{
		Use:     "add-workspace <name> <vaultdir>",
		Aliases: []string{"aw"},
		Short:   "Add a workspace for another vault",
		Example: "mm settings add-workspace work ~/notes/work --current",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := &config.Workspace{VaultDir: args[1]}
			if err := s.Config.AddWorkspace(args[0], ws, current); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added workspace %s (%s)\n", args[0], args[1])
			return nil
		},
	}

	cmd.Flags().BoolVar(&current, "current", false, "Make the new workspace the current one.")

	return cmd
}

func ask(key, current string) (string, error) {
	if !prompt.Interactive() {
		return "", errValueRequired
	}

	if choices := config.Choices(key); choices != nil {
		return prompt.Select(fmt.Sprintf("Select %s:", key), choices, current)
	}
	return prompt.Input(fmt.Sprintf("Enter %s:", key), current)
}

func list(w io.Writer, cfg *config.Config) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, key := range config.Keys() {
		value, err := cfg.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\n", key, value)
	}
	return tw.Flush()
}
