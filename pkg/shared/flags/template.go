package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/metamatter/internal/catalog"
	"github.com/Paintersrp/metamatter/internal/fzf"
	"github.com/Paintersrp/metamatter/internal/state"
	"github.com/Paintersrp/metamatter/pkg/shared/prompt"
)

func AddTemplate(cmd *cobra.Command, usage string) {
	cmd.Flags().StringP("template", "t", "", usage)
}

func HandleTemplate(cmd *cobra.Command) (string, error) {
	value, err := cmd.Flags().GetString("template")
	return strings.TrimSpace(value), err
}

// ResolveTemplate reloads the catalog and returns the template named by the
// --template flag, or asks the user to pick one when the flag is empty.
func ResolveTemplate(cmd *cobra.Command, s *state.State, header string) (catalog.Template, error) {
	if _, err := s.ReloadTemplates(cmd.Context()); err != nil && s.Catalog.LastReload().IsZero() {
		return catalog.Template{}, err
	}

	query, err := HandleTemplate(cmd)
	if err != nil {
		return catalog.Template{}, err
	}
	if query != "" {
		return s.Catalog.Find(query)
	}

	if !prompt.Interactive() {
		return catalog.Template{}, fmt.Errorf("--template is required when not running in a terminal")
	}

	return fzf.NewTemplatePicker(s.Handler, header).Pick(s.Catalog.Templates(), "")
}
