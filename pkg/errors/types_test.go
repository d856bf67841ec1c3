package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrors_Is(t *testing.T) {
	cause := fmt.Errorf("connection reset")

	tests := []struct {
		name     string
		err      error
		sentinel error
		contains string
	}{
		{
			name:     "manifest format",
			err:      NewManifestFormatError("list.wabbajack", "missing modlist entry", nil),
			sentinel: ErrManifestFormat,
			contains: "missing modlist entry",
		},
		{
			name:     "unknown game",
			err:      NewUnknownGameError("Morrowind"),
			sentinel: ErrUnknownGame,
			contains: `"Morrowind"`,
		},
		{
			name:     "resolve",
			err:      NewResolveError("mod.7z", ErrSessionExpired),
			sentinel: ErrSessionExpired,
			contains: "mod.7z",
		},
		{
			name:     "transfer with cause",
			err:      NewTransferError("https://cdn.example/mod.7z", 512, 0, cause),
			sentinel: cause,
			contains: "resume at 512",
		},
		{
			name:     "transfer status",
			err:      NewTransferError("https://cdn.example/mod.7z", 0, 416, nil),
			sentinel: ErrTransfer,
			contains: "HTTP 416",
		},
		{
			name:     "integrity exhausted",
			err:      NewIntegrityExhaustedError("mod.7z", 5),
			sentinel: ErrIntegrityExhausted,
			contains: "5 attempts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.sentinel))
			assert.Contains(t, tt.err.Error(), tt.contains)
		})
	}
}

func TestTypedErrors_As(t *testing.T) {
	err := Wrap(NewUnknownGameError("Enderal"), "parsing manifest")

	var gameErr *UnknownGameError
	if assert.True(t, errors.As(err, &gameErr)) {
		assert.Equal(t, "Enderal", gameErr.GameName)
	}

	var transferErr *TransferError
	assert.False(t, errors.As(err, &transferErr))
	assert.True(t, errors.Is(NewResolveError("a", ErrSessionExpired), ErrResolve))
}
