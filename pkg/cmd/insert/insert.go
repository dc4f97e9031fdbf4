package insert

import (
	"fmt"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/metamatter/internal/note"
	"github.com/Paintersrp/metamatter/internal/state"
	"github.com/Paintersrp/metamatter/pkg/shared/flags"
)

func NewCmdInsert(s *state.State) *cobra.Command {
	var line int

	cmd := &cobra.Command{
		Use:     "insert [note]",
		Aliases: []string{"insert-template"},
		Short:   "Insert a filled template into a note",
		Long: heredoc.Doc(`
			Fill a template and insert it into an existing note.

			The template's control keys (nameFormat, destFolder, addCreated) are
			removed and a created timestamp is added when addCreated is set. Without
			a note the result is printed, or copied with --clipboard.
		`),
		Example: heredoc.Doc(`
			mm insert Daily/240315.md --template Task --line 12
			mm insert --template Meeting --clipboard
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.RequireVault(); err != nil {
				return err
			}

			tmpl, err := flags.ResolveTemplate(cmd, s, "Select a template to insert.")
			if err != nil {
				return err
			}

			inserter := note.NewInserter(s.Handler, s.Templater)

			clip, err := flags.HandleClipboard(cmd)
			if err != nil {
				return err
			}
			if clip {
				if err := inserter.CopyToClipboard(tmpl); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Copied %s to the clipboard\n", tmpl.Name())
				return nil
			}

			if len(args) == 0 {
				filled, err := inserter.Render(tmpl)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), filled)
				return nil
			}

			rel, err := vaultRelative(s, args[0])
			if err != nil {
				return err
			}
			if err := inserter.InsertIntoNote(cmd.Context(), tmpl, rel, line); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Inserted %s into %s\n", tmpl.Name(), rel)
			return nil
		},
	}

	flags.AddTemplate(cmd, "Template to insert, by path, name or type.")
	flags.AddClipboard(cmd, "Copy the filled template to the clipboard instead.")
	cmd.Flags().IntVarP(&line, "line", "l", 0, "Insert before this 1-based line (default: end of note).")

	return cmd
}

func vaultRelative(s *state.State, target string) (string, error) {
	if filepath.IsAbs(target) {
		return s.Handler.Relative(target)
	}
	return filepath.ToSlash(target), nil
}
