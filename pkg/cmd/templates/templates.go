package templates

import (
	"errors"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/metamatter/internal/catalog"
	"github.com/Paintersrp/metamatter/internal/logger"
	"github.com/Paintersrp/metamatter/internal/state"
)

func NewCmdTemplates(s *state.State) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"tmpl", "ls"},
		Short:   "List the templates in the catalog",
		Long: heredoc.Doc(`
			Reload the template folder and list each template with its type, name
			format and destination folder.
		`),
		Example: "mm templates",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := s.ReloadTemplates(cmd.Context()); err != nil {
				var merr *multierror.Error
				if !errors.As(err, &merr) {
					return err
				}
				for _, e := range merr.Errors {
					logger.G(cmd.Context()).WithError(e).Warn("skipped template")
				}
			}

			list := s.Catalog.Templates()
			if len(list) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No templates found in %s\n", s.Workspace.TemplateFolder)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), Render(list))
			return nil
		},
	}

	return cmd
}

// Render draws the templates as a table.
func Render(list []catalog.Template) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("Type", "Name Format", "Destination", "Path").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == 0 {
				return headerStyle
			}
			return cellStyle
		})

	for _, tmpl := range list {
		t.Row(orDash(tmpl.Type), orDash(tmpl.NameFormat), orDash(tmpl.DestFolder), tmpl.Path)
	}

	return t.Render()
}

func orDash(v string) string {
	if v == "" {
		return mutedStyle.Render("-")
	}
	return v
}
