package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/glorpus-work/wabbaget/internal/logger"
	"github.com/glorpus-work/wabbaget/pkg/config"
	"github.com/glorpus-work/wabbaget/pkg/digest"
	"github.com/glorpus-work/wabbaget/pkg/orchestrator"
	"github.com/glorpus-work/wabbaget/pkg/resolver"
	"github.com/glorpus-work/wabbaget/pkg/session"
	"github.com/glorpus-work/wabbaget/pkg/transfer"
	"github.com/spf13/cobra"
)

type downloadOptions struct {
	downloadDir    string
	login          bool
	alwaysVerify   bool
	maxAttempts    int
	retryDelay     time.Duration
	bandwidthLimit int64
}

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	var opts downloadOptions

	cmd := &cobra.Command{
		Use:   "download MANIFEST",
		Short: "Download every Nexus Mods archive of a modlist",
		Long: `Download every Nexus Mods archive listed in a .wabbajack modlist.

Archives already present with the expected size are skipped. Partial files
are resumed. Every download is checked against its xxHash64 digest and
fetched again on mismatch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyDownloadFlags(cmd, cfg, opts)
			return runDownload(cmd, cfg, args[0], opts.login)
		},
	}

	cmd.Flags().StringVar(&opts.downloadDir, "download-dir", config.DefaultDownloadDir, "Directory to download archives to")
	cmd.Flags().BoolVar(&opts.login, "login", false, "Log in to Nexus Mods again, even if a saved session exists")
	cmd.Flags().BoolVar(&opts.alwaysVerify, "always-verify", false, "Hash existing files of the expected size instead of trusting them")
	cmd.Flags().IntVar(&opts.maxAttempts, "max-attempts", config.DefaultMaxAttempts, "Downloads tried per archive before giving up (<=0: unlimited)")
	cmd.Flags().DurationVar(&opts.retryDelay, "retry-delay", config.DefaultRetryDelay, "Pause after a digest mismatch")
	cmd.Flags().Int64Var(&opts.bandwidthLimit, "bandwidth-limit", 0, "Maximum download speed in bytes per second (0: unlimited)")

	return cmd
}

// applyDownloadFlags lets explicitly set flags override the configuration.
func applyDownloadFlags(cmd *cobra.Command, cfg *config.Config, opts downloadOptions) {
	flags := cmd.Flags()
	if flags.Changed("download-dir") {
		cfg.Settings.DownloadDir = opts.downloadDir
	}
	if flags.Changed("always-verify") && opts.alwaysVerify {
		cfg.Settings.ExistingPolicy = config.PolicyAlwaysVerify
	}
	if flags.Changed("max-attempts") {
		cfg.Settings.MaxAttempts = opts.maxAttempts
	}
	if flags.Changed("retry-delay") {
		cfg.Settings.RetryDelay = opts.retryDelay
	}
	if flags.Changed("bandwidth-limit") {
		cfg.Settings.BandwidthLimit = opts.bandwidthLimit
	}
}

func runDownload(cmd *cobra.Command, cfg *config.Config, manifestPath string, login bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	fs := newFS()

	m, err := readManifest(ctx, fs, cfg, manifestPath)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Found %d files to download (%s).\n", len(m.Entries), humanSize(m.TotalSize()))

	store := session.NewStore(fs, cfg.Settings.SessionDir)
	if login {
		if err := promptLogin(cmd.InOrStdin(), out, store); err != nil {
			return err
		}
	}
	sess, err := store.Load()
	if err != nil {
		return err
	}

	resolverOpts := []resolver.Option{resolver.WithRate(cfg.Settings.ResolverRate)}
	if cfg.Settings.ResolverEndpoint != "" {
		resolverOpts = append(resolverOpts, resolver.WithEndpoint(cfg.Settings.ResolverEndpoint))
	}
	res, err := resolver.NewNexusResolver(sess, cfg.Settings.HTTPTimeout, cfg.Settings.UserAgent, resolverOpts...)
	if err != nil {
		return err
	}

	client := transfer.NewClient(fs, cfg.Settings.HTTPTimeout, cfg.Settings.UserAgent,
		transfer.WithBandwidthLimit(int(cfg.Settings.BandwidthLimit)),
		transfer.WithProgress(),
	)

	orch := orchestrator.New(fs, res, client, digest.NewEngine(fs))
	orch.Retry = orchestrator.RetryPolicy{MaxAttempts: cfg.Settings.MaxAttempts, Delay: cfg.Settings.RetryDelay}
	orch.Existing = orchestrator.ExistingPolicy(cfg.Settings.ExistingPolicy)
	orch.Hooks = progressHooks(out)

	scripts, err := loadScripts(fs, cfg)
	if err != nil {
		return err
	}
	if scripts != nil {
		orch.Scripts = scripts
	}

	summary, err := orch.Run(ctx, m.Entries, cfg.Settings.DownloadDir)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "All files downloaded successfully (%d downloaded, %d skipped, %d retries).\n",
		summary.Downloaded, summary.Skipped, summary.Retries)
	logger.Success("Download finished", logger.Fields{
		"total":      summary.Total,
		"downloaded": summary.Downloaded,
		"skipped":    summary.Skipped,
		"retries":    summary.Retries,
	})
	return nil
}

func progressHooks(w io.Writer) orchestrator.Hooks {
	return orchestrator.Hooks{OnEvent: func(e orchestrator.Event) {
		switch e.Phase {
		case orchestrator.PhaseChecking:
			_, _ = fmt.Fprintf(w, "Processing file %d/%d: %s\n", e.Index, e.Total, e.FileName)
		case orchestrator.PhaseSkipped:
			_, _ = fmt.Fprintf(w, "  %s: %s\n", colorize("skipped", colorYellow), e.Msg)
		case orchestrator.PhaseDownloading:
			if e.Msg != "" {
				_, _ = fmt.Fprintf(w, "  downloading (%s)\n", e.Msg)
			} else {
				_, _ = fmt.Fprintln(w, "  downloading")
			}
		case orchestrator.PhaseMismatch:
			_, _ = fmt.Fprintf(w, "  %s (%s), re-downloading\n", colorize("hash mismatch", colorRed), e.Msg)
		case orchestrator.PhaseDone:
			_, _ = fmt.Fprintf(w, "  %s\n", colorize("done", colorGreen))
		}
	}}
}
