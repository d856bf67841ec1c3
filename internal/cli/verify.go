package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/glorpus-work/wabbaget/pkg/config"
	"github.com/glorpus-work/wabbaget/pkg/digest"
	"github.com/glorpus-work/wabbaget/pkg/errors"
	"github.com/glorpus-work/wabbaget/pkg/orchestrator"
	"github.com/spf13/cobra"
)

// NewVerifyCmd creates the verify command.
func NewVerifyCmd() *cobra.Command {
	var downloadDir string

	cmd := &cobra.Command{
		Use:   "verify MANIFEST",
		Short: "Check downloaded archives against their digests",
		Long: `Hash every downloaded archive of a modlist and report whether it is
ok, missing, of the wrong size or mismatching its digest.
Nothing is downloaded or deleted. Exits non-zero if any archive is not ok.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("download-dir") {
				cfg.Settings.DownloadDir = downloadDir
			}
			return runVerify(cmd, cfg, args[0])
		},
	}

	cmd.Flags().StringVar(&downloadDir, "download-dir", config.DefaultDownloadDir, "Directory holding the downloaded archives")

	return cmd
}

func runVerify(cmd *cobra.Command, cfg *config.Config, manifestPath string) error {
	fs := newFS()

	m, err := readManifest(cmd.Context(), fs, cfg, manifestPath)
	if err != nil {
		return err
	}

	orch := &orchestrator.Orchestrator{FS: fs, Verifier: digest.NewEngine(fs)}
	checks, err := orch.Verify(cmd.Context(), m.Entries, cfg.Settings.DownloadDir)
	if err != nil {
		return err
	}

	failed := printChecks(cmd.OutOrStdout(), checks)
	if failed > 0 {
		return fmt.Errorf("%d of %d: %w", failed, len(checks), errors.ErrVerification)
	}
	return nil
}

func printChecks(w io.Writer, checks []orchestrator.Check) int {
	failed := 0
	tabWriter := tabwriter.NewWriter(w, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tabWriter, "FILE\tSTATUS\tSIZE")
	for _, c := range checks {
		status := string(c.Status)
		switch c.Status {
		case orchestrator.StatusOK:
			status = colorize(status, colorGreen)
		case orchestrator.StatusMissing, orchestrator.StatusWrongSize:
			failed++
			status = colorize(status, colorYellow)
		default:
			failed++
			status = colorize(status, colorRed)
		}
		size := "-"
		if c.Status != orchestrator.StatusMissing {
			size = fmt.Sprintf("%d/%d", c.Size, c.Entry.Size)
		}
		_, _ = fmt.Fprintf(tabWriter, "%s\t%s\t%s\n", truncate(c.Entry.FileName, MaxNameLength), status, size)
	}
	_ = tabWriter.Flush()

	_, _ = fmt.Fprintf(w, "\n%d ok, %d failed\n", len(checks)-failed, failed)
	return failed
}
