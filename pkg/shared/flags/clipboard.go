package flags

import (
	"github.com/spf13/cobra"
)

func AddClipboard(cmd *cobra.Command, usage string) {
	cmd.Flags().BoolP("clipboard", "c", false, usage)
}

func HandleClipboard(cmd *cobra.Command) (bool, error) {
	return cmd.Flags().GetBool("clipboard")
}
