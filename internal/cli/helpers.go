package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/glorpus-work/wabbaget/internal/logger"
	"github.com/glorpus-work/wabbaget/pkg/config"
	"github.com/glorpus-work/wabbaget/pkg/hooks"
	"github.com/glorpus-work/wabbaget/pkg/manifest"
	"github.com/glorpus-work/wabbaget/pkg/orchestrator"
	"github.com/spf13/afero"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	Verbose    *bool
	NoColor    *bool
)

// newFS returns the filesystem every command works on.
var newFS = afero.NewOsFs

// loadConfig loads the configuration, applies global flags and initialises logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}

	format := logger.FormatText
	if cfg.Settings.OutputFormat == string(logger.FormatJSON) {
		format = logger.FormatJSON
	}
	logger.InitLogger(cfg.Settings.LogLevel, format)

	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		// An empty path makes LoadConfig fail with a descriptive error.
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

// readManifest loads the game table and parses the modlist at path.
func readManifest(ctx context.Context, fs afero.Fs, cfg *config.Config, path string) (*manifest.Manifest, error) {
	games, err := manifest.LoadGameTable(fs, cfg.Settings.GameIDsFile)
	if err != nil {
		return nil, err
	}

	m, err := manifest.NewReader(fs, games).Read(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := m.Info.CheckWabbajackVersion(cfg.Settings.MinWabbajackVersion); err != nil {
		return nil, err
	}

	logger.Debug("Manifest loaded", logger.Fields{
		"name":    m.Info.Name,
		"version": m.Info.Version,
		"entries": len(m.Entries),
	})
	return m, nil
}

// loadScripts registers the configured hook scripts. It returns nil when no
// script is configured.
func loadScripts(fs afero.Fs, cfg *config.Config) (orchestrator.ScriptRunner, error) {
	if cfg.Hooks.PreDownload == "" && cfg.Hooks.PostDownload == "" {
		return nil, nil
	}

	executor := hooks.NewTengoExecutor()
	if err := executor.LoadFile(fs, hooks.PreDownload, cfg.Hooks.PreDownload); err != nil {
		return nil, err
	}
	if err := executor.LoadFile(fs, hooks.PostDownload, cfg.Hooks.PostDownload); err != nil {
		return nil, err
	}
	return executor, nil
}

func colorize(s, code string) string {
	if (NoColor != nil && *NoColor) || os.Getenv("NO_COLOR") != "" {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	const ellipsis = "..."
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= len(ellipsis) {
		return string(runes[:max(n, 0)])
	}
	return string(runes[:n-len(ellipsis)]) + ellipsis
}

// humanSize renders a byte count with a binary unit.
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
