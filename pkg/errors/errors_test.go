package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_NilStaysNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "reading manifest"))
	assert.NoError(t, Wrapf(nil, "hashing %s", "mod.7z"))
}

func TestWrap_KeepsSentinelThroughLayers(t *testing.T) {
	err := Wrapf(ErrSessionExpired, "resolving file %d", 42)
	err = Wrap(err, "processing mod.7z")

	assert.EqualError(t, err, "processing mod.7z: resolving file 42: "+ErrSessionExpired.Error())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.NotErrorIs(t, err, ErrTransfer)
}

func TestWrap_TypedErrorStillMatches(t *testing.T) {
	err := Wrap(NewResolveError("mod.7z", ErrSessionExpired), "download")

	assert.ErrorIs(t, err, ErrResolve)
	assert.ErrorIs(t, err, ErrSessionExpired)

	var re *ResolveError
	assert.True(t, errors.As(err, &re))
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrEmptyConfigPath, ErrInvalidConfigPath, ErrConfigParse, ErrConfigValidation,
		ErrConfigEncode, ErrConfigDirectory, ErrConfigFileCreate, ErrConfigFileExists,
		ErrUnknownConfigKey, ErrInvalidLogLevel, ErrInvalidPolicy, ErrInvalidOutput,
		ErrGameTable, ErrManifestFormat, ErrUnknownGame, ErrIncompatible,
		ErrResolve, ErrSessionExpired, ErrTransfer, ErrIntegrityExhausted,
		ErrInvalidPath, ErrVerification, ErrHookExecution, ErrHookScript, ErrHookLoad,
	}
	seen := make(map[string]bool, len(sentinels))
	for i, a := range sentinels {
		assert.NotEmpty(t, a.Error())
		assert.False(t, seen[a.Error()], "duplicate message %q", a.Error())
		seen[a.Error()] = true
		for j, b := range sentinels {
			if i != j {
				assert.False(t, errors.Is(a, b), fmt.Sprintf("%v matches %v", a, b))
			}
		}
	}
}
