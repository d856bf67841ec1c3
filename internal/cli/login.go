package cli

import (
	"fmt"
	"io"

	"github.com/glorpus-work/wabbaget/internal/logger"
	"github.com/glorpus-work/wabbaget/pkg/session"
	"github.com/spf13/cobra"
)

// NewLoginCmd creates the login command.
func NewLoginCmd() *cobra.Command {
	var forget bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save a Nexus Mods session",
		Long: `Save the Nexus Mods session cookie used to generate download links.

Log in to nexusmods.com in a browser, copy the value of the
nexusmods_session cookie and paste it when prompted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store := session.NewStore(newFS(), cfg.Settings.SessionDir)
			if forget {
				if err := store.Clear(); err != nil {
					return err
				}
				logger.Success("Session removed", logger.Fields{"path": store.Path()})
				return nil
			}
			return promptLogin(cmd.InOrStdin(), cmd.OutOrStdout(), store)
		},
	}

	cmd.Flags().BoolVar(&forget, "clear", false, "Remove the saved session instead")

	return cmd
}

func promptLogin(in io.Reader, out io.Writer, store *session.Store) error {
	sess, err := session.Prompt(in, out)
	if err != nil {
		return err
	}
	if err := store.Save(sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	_, _ = fmt.Fprintln(out, "Login state saved.")
	logger.Debug("Session saved", logger.Fields{"path": store.Path()})
	return nil
}
