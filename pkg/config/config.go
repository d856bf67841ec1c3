// Package config provides configuration management for wabbaget.
// It loads, validates and saves the YAML settings file and supplies
// defaults for every value the file leaves out.
package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glorpus-work/wabbaget/pkg/errors"
	"github.com/glorpus-work/wabbaget/pkg/fsutil"
	"gopkg.in/yaml.v3"
)

// ExistingPolicy decides how an already present file of the expected size is treated.
type ExistingPolicy string

const (
	// PolicyTrustSize skips a present file whose size matches without hashing it.
	PolicyTrustSize ExistingPolicy = "trust-size"
	// PolicyAlwaysVerify hashes a present file of the expected size before skipping it.
	PolicyAlwaysVerify ExistingPolicy = "always-verify"
)

// Config represents the application configuration.
type Config struct {
	// General settings
	Settings Settings `yaml:"settings"`

	// Hook scripts
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig points at optional Tengo scripts run around each download.
type HooksConfig struct {
	PreDownload  string `yaml:"pre_download,omitempty"`
	PostDownload string `yaml:"post_download,omitempty"`
}

// Settings represents general application settings.
type Settings struct {
	// Storage settings
	DownloadDir string `yaml:"download_dir"`
	SessionDir  string `yaml:"session_dir,omitempty"`
	GameIDsFile string `yaml:"game_ids_file"`

	// Network settings
	HTTPTimeout    time.Duration `yaml:"http_timeout"`
	UserAgent      string        `yaml:"user_agent,omitempty"`
	BandwidthLimit int64         `yaml:"bandwidth_limit"` // bytes per second, 0 = unlimited
	ResolverRate   float64       `yaml:"resolver_rate"`   // resolver calls per second, 0 = unthrottled

	// ResolverEndpoint overrides the download link generator URL.
	ResolverEndpoint string `yaml:"resolver_endpoint,omitempty"`

	// Download behaviour
	MaxAttempts    int            `yaml:"max_attempts"` // 0 or negative = unbounded
	RetryDelay     time.Duration  `yaml:"retry_delay"`
	ExistingPolicy ExistingPolicy `yaml:"existing_policy"`

	// Manifest compatibility
	MinWabbajackVersion string `yaml:"min_wabbajack_version,omitempty"`

	// Output settings
	OutputFormat string `yaml:"output_format"` // text, json
	LogLevel     string `yaml:"log_level"`     // debug, info, warn, error
}

// Default configuration values.
const (
	// DefaultDownloadDir is where archives land unless configured otherwise.
	DefaultDownloadDir = "downloaded_mods"

	// DefaultGameIDsFile is the game id table looked up in the working directory.
	DefaultGameIDsFile = "game_ids.json"

	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultMaxAttempts is the default number of downloads tried per archive.
	DefaultMaxAttempts = 5

	// DefaultRetryDelay is the pause between a digest mismatch and the next attempt.
	DefaultRetryDelay = 2 * time.Second

	// DefaultResolverRate is the default resolver call budget per second.
	DefaultResolverRate = 1.0

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	sessionDir, err := fsutil.GetSessionDir()
	if err != nil {
		// Fallback to current directory if we can't determine the data dir
		sessionDir = filepath.Join(".", ".wabbaget", "session")
	}

	return &Config{
		Settings: Settings{
			DownloadDir:    DefaultDownloadDir,
			SessionDir:     sessionDir,
			GameIDsFile:    DefaultGameIDsFile,
			HTTPTimeout:    DefaultHTTPTimeout,
			ResolverRate:   DefaultResolverRate,
			MaxAttempts:    DefaultMaxAttempts,
			RetryDelay:     DefaultRetryDelay,
			ExistingPolicy: PolicyTrustSize,
			OutputFormat:   "text",
			LogLevel:       "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	// Decoding over the defaults keeps keys the file leaves out while an
	// explicit zero stays zero.
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
	}

	return config, nil
}

// SaveConfig saves configuration to a file.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}

	_ = encoder.Close()
	_ = file.Close()

	// Atomically replace the config file
	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	return validateSettings(c.Settings)
}

func validateSettings(s Settings) error {
	if s.DownloadDir == "" {
		return fmt.Errorf("%w: download_dir cannot be empty", errors.ErrConfigValidation)
	}
	if s.HTTPTimeout < 0 {
		return fmt.Errorf("%w: http_timeout cannot be negative", errors.ErrConfigValidation)
	}
	if s.RetryDelay < 0 {
		return fmt.Errorf("%w: retry_delay cannot be negative", errors.ErrConfigValidation)
	}
	if s.BandwidthLimit < 0 {
		return fmt.Errorf("%w: bandwidth_limit cannot be negative", errors.ErrConfigValidation)
	}
	if s.ResolverRate < 0 {
		return fmt.Errorf("%w: resolver_rate cannot be negative", errors.ErrConfigValidation)
	}
	if s.ResolverEndpoint != "" {
		if u, err := url.Parse(s.ResolverEndpoint); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: resolver_endpoint must be an absolute URL", errors.ErrConfigValidation)
		}
	}
	if _, err := ParseExistingPolicy(string(s.ExistingPolicy)); err != nil {
		return err
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[s.OutputFormat] {
		return errors.Wrapf(errors.ErrInvalidOutput, "%q, must be one of: text, json", s.OutputFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errors.Wrapf(errors.ErrInvalidLogLevel, "%q, must be one of: debug, info, warn, error", s.LogLevel)
	}
	return nil
}

// ParseExistingPolicy validates an existing_policy value.
func ParseExistingPolicy(value string) (ExistingPolicy, error) {
	switch ExistingPolicy(value) {
	case PolicyTrustSize, PolicyAlwaysVerify:
		return ExistingPolicy(value), nil
	default:
		return "", errors.Wrapf(errors.ErrInvalidPolicy, "%q, must be one of: %s, %s", value, PolicyTrustSize, PolicyAlwaysVerify)
	}
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// applyDefaults fills in blank strings. Numeric zeros are meaningful
// (no delay, no throttle, unbounded attempts, no timeout) and are kept.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Settings.DownloadDir == "" {
		c.Settings.DownloadDir = defaults.Settings.DownloadDir
	}
	if c.Settings.SessionDir == "" {
		c.Settings.SessionDir = defaults.Settings.SessionDir
	}
	if c.Settings.GameIDsFile == "" {
		c.Settings.GameIDsFile = defaults.Settings.GameIDsFile
	}
	if c.Settings.ExistingPolicy == "" {
		c.Settings.ExistingPolicy = defaults.Settings.ExistingPolicy
	}
	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = defaults.Settings.OutputFormat
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
}
