package create

import (
	"fmt"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/araddon/dateparse"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/metamatter/internal/note"
	"github.com/Paintersrp/metamatter/internal/state"
	"github.com/Paintersrp/metamatter/internal/templater"
	"github.com/Paintersrp/metamatter/pkg/shared/flags"
)

func NewCmdCreate(s *state.State) *cobra.Command {
	var (
		noOpen bool
		at     string
	)

	cmd := &cobra.Command{
		Use:     "create",
		Aliases: []string{"create-from-template", "create-with-template", "c"},
		Short:   "Create a new note from a template",
		Long: heredoc.Doc(`
			Create a new note from a template and open it in the configured editor.

			The note is written to the template's destFolder (the vault root when
			unset) and named after the current time as YYMMDD@HHmm. An existing
			note is never overwritten.
		`),
		Example: heredoc.Doc(`
			mm create
			mm create --template Review --no-open
			mm create --template Meeting --at "2024-03-15 14:07"
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.RequireVault(); err != nil {
				return err
			}

			t := s.Templater
			if at != "" {
				when, err := dateparse.ParseLocal(at)
				if err != nil {
					return fmt.Errorf("invalid --at time %q: %w", at, err)
				}
				t = templater.NewTemplater(templater.WithClock(func() time.Time { return when }))
			}

			tmpl, err := flags.ResolveTemplate(cmd, s, "Select a template for the new note.")
			if err != nil {
				return err
			}

			path, err := note.NewCreator(s.Handler, t).CreateFromTemplate(cmd.Context(), tmpl)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)

			if noOpen {
				return nil
			}
			return note.OpenFromPath(cmd.Context(), path)
		},
	}

	flags.AddTemplate(cmd, "Template to use, by path, name or type.")
	cmd.Flags().BoolVar(&noOpen, "no-open", false, "Do not open the new note in the editor.")
	cmd.Flags().StringVar(&at, "at", "", "Timestamp the note with this time instead of now.")

	return cmd
}
