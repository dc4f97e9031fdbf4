package rename

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/metamatter/internal/logger"
	"github.com/Paintersrp/metamatter/internal/renamer"
	"github.com/Paintersrp/metamatter/internal/state"
)

func NewCmdRename(s *state.State) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "rename [note...]",
		Short: "Rename notes to match their template's name format",
		Long: heredoc.Doc(`
			Apply the name format of each note's type to its file name.

			Without arguments every note in the vault is checked. Notes inside the
			template folder, notes without a known type and notes whose target name
			is already taken are left alone.
		`),
		Example: heredoc.Doc(`
			mm rename --dry-run
			mm rename Reading/240315@1407.md
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.RequireVault(); err != nil {
				return err
			}

			if _, err := s.ReloadTemplates(cmd.Context()); err != nil {
				var merr *multierror.Error
				if !errors.As(err, &merr) {
					return err
				}
				logger.G(cmd.Context()).WithError(err).Warn("some templates were skipped")
			}

			var (
				decisions []renamer.Decision
				err       error
			)
			if len(args) == 0 {
				decisions, err = s.Renamer.RenameAll(cmd.Context(), dryRun)
			} else {
				decisions, err = renameNotes(cmd, s, args, dryRun)
			}

			report(cmd.OutOrStdout(), decisions, dryRun)
			return err
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print the planned renames without moving any file.")

	return cmd
}

func renameNotes(cmd *cobra.Command, s *state.State, args []string, dryRun bool) ([]renamer.Decision, error) {
	var (
		decisions []renamer.Decision
		result    *multierror.Error
	)
	for _, arg := range args {
		rel := filepath.ToSlash(arg)
		if filepath.IsAbs(arg) {
			var err error
			if rel, err = s.Handler.Relative(arg); err != nil {
				result = multierror.Append(result, err)
				continue
			}
		}

		var (
			d   renamer.Decision
			err error
		)
		if dryRun {
			d, err = s.Renamer.Plan(cmd.Context(), rel)
		} else {
			d, err = s.Renamer.HandleChanged(cmd.Context(), rel)
		}
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", rel, err))
			continue
		}
		decisions = append(decisions, d)
	}
	return decisions, result.ErrorOrNil()
}

func report(w io.Writer, decisions []renamer.Decision, dryRun bool) {
	moved := 0
	for _, d := range decisions {
		if !d.Renames() {
			continue
		}
		moved++
		fmt.Fprintf(w, "%s -> %s\n", d.From, d.To)
	}

	verb := "Renamed"
	if dryRun {
		verb = "Would rename"
	}
	fmt.Fprintf(w, "%s %d of %d notes\n", verb, moved, len(decisions))
}
