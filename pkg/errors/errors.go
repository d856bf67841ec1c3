// Package errors holds the sentinel errors and typed errors shared across wabbaget.
package errors

import "fmt"

// Common error types.
var (
	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileExists  = fmt.Errorf("configuration file already exists (use --force to overwrite)")
	ErrUnknownConfigKey  = fmt.Errorf("unknown configuration key")
	ErrInvalidLogLevel   = fmt.Errorf("invalid log level")
	ErrInvalidPolicy     = fmt.Errorf("invalid existing file policy")
	ErrInvalidOutput     = fmt.Errorf("invalid output format")

	// Game table errors.
	ErrGameTable = fmt.Errorf("failed to load game id table")

	// Manifest errors.
	ErrManifestFormat = fmt.Errorf("invalid manifest")
	ErrUnknownGame    = fmt.Errorf("unknown game")
	ErrIncompatible   = fmt.Errorf("manifest not supported by this version constraint")

	// Download errors.
	ErrResolve            = fmt.Errorf("failed to resolve download url")
	ErrSessionExpired     = fmt.Errorf("session missing or expired (run `wabbaget login`)")
	ErrTransfer           = fmt.Errorf("transfer failed")
	ErrIntegrityExhausted = fmt.Errorf("file did not match its digest after all attempts")
	ErrInvalidPath        = fmt.Errorf("invalid path")
	ErrVerification       = fmt.Errorf("archives failed verification")

	// Hook errors.
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")
	ErrHookLoad      = fmt.Errorf("failed to load hook")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
