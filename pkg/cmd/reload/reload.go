package reload

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/metamatter/internal/logger"
	"github.com/Paintersrp/metamatter/internal/state"
)

func NewCmdReload(s *state.State) *cobra.Command {
	return &cobra.Command{
		Use:     "reload",
		Aliases: []string{"reload-templates"},
		Short:   "Rebuild the template catalog",
		Long:    "Scan the template folder and rebuild the type to name format mapping.",
		Example: "mm reload",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := s.ReloadTemplates(cmd.Context())

			var merr *multierror.Error
			if errors.As(err, &merr) {
				for _, e := range merr.Errors {
					logger.G(cmd.Context()).WithError(e).Warn("skipped template")
				}
			} else if err != nil {
				return err
			}

			fmt.Fprintf(
				cmd.OutOrStdout(),
				"Loaded %d template types from %s\n",
				n,
				s.Workspace.TemplateFolder,
			)
			return nil
		},
	}
}
