package watch

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/metamatter/internal/state"
)

func NewCmdWatch(s *state.State) *cobra.Command {
	var debounce int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rename notes as their frontmatter changes",
		Long: heredoc.Doc(`
			Watch the vault and rename notes whenever their frontmatter resolves to a
			new name. The template catalog is loaded at start and reloaded when a
			template changes (unless watch.auto_reload is false).

			Stop with Ctrl+C.
		`),
		Example: "mm watch --debounce 500",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("debounce") {
				if debounce <= 0 {
					return fmt.Errorf("--debounce must be positive, got %d", debounce)
				}
				s.Workspace.Watch.DebounceMillis = debounce
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return s.Watch(ctx)
		},
	}

	cmd.Flags().IntVarP(&debounce, "debounce", "d", 0, "Quiet period in milliseconds before a changed note is handled.")

	return cmd
}
