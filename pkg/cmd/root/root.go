package root

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/metamatter/internal/constants"
	"github.com/Paintersrp/metamatter/internal/logger"
	"github.com/Paintersrp/metamatter/internal/state"
	"github.com/Paintersrp/metamatter/pkg/cmd/create"
	"github.com/Paintersrp/metamatter/pkg/cmd/insert"
	"github.com/Paintersrp/metamatter/pkg/cmd/reload"
	"github.com/Paintersrp/metamatter/pkg/cmd/rename"
	"github.com/Paintersrp/metamatter/pkg/cmd/settings"
	"github.com/Paintersrp/metamatter/pkg/cmd/templates"
	"github.com/Paintersrp/metamatter/pkg/cmd/watch"
)

// NewCmdRoot builds the command tree. s is populated from the settings file
// and the persistent flags before any subcommand runs.
func NewCmdRoot(s *state.State) (*cobra.Command, error) {
	var opts state.Options

	cmd := &cobra.Command{
		Use:   constants.AppName,
		Short: "Name and fill markdown notes from their frontmatter.",
		Long: heredoc.Doc(`
			Keep a vault of markdown notes named after their frontmatter.

			Template notes in the template folder declare a type and a nameFormat
			such as "<<title>> - <<author>>". Notes of that type are renamed to the
			resolved pattern whenever they change while "mm watch" runs, or on
			demand with "mm rename".
		`),
		Version:       constants.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.Init(opts); err != nil {
				return err
			}

			entry := logger.L.WithField("workspace", s.WorkspaceName)
			cmd.SetContext(logger.WithLogger(cmd.Context(), entry))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Workspace, "workspace", "w", "", "Workspace to use for this command.")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error).")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "Log format (text or json).")

	cmd.AddCommand(
		reload.NewCmdReload(s),
		insert.NewCmdInsert(s),
		create.NewCmdCreate(s),
		watch.NewCmdWatch(s),
		rename.NewCmdRename(s),
		templates.NewCmdTemplates(s),
		settings.NewCmdSettings(s),
	)

	return cmd, nil
}
