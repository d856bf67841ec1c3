package cli

import (
	"fmt"

	"github.com/glorpus-work/wabbaget/pkg/hooks"
	"github.com/spf13/cobra"
)

// NewHooksCmd creates the hooks command.
func NewHooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Work with download hook scripts",
		Long: `Hook scripts are Tengo programs configured with hooks.pre_download and
hooks.post_download. They run before and after every archive.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "template TYPE",
		Short:     "Print a starter script for a hook type",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(hooks.PreDownload), string(hooks.PostDownload)},
		RunE: func(cmd *cobra.Command, args []string) error {
			hookType, err := hooks.ParseHookType(args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), hooks.Template(hookType))
			return nil
		},
	})

	return cmd
}
