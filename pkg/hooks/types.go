package hooks

import (
	"fmt"

	"github.com/glorpus-work/wabbaget/pkg/errors"
)

// HookType represents the type of hook.
type HookType string

// Supported hook types.
const (
	PreDownload  HookType = "pre-download"
	PostDownload HookType = "post-download"
)

// ParseHookType validates a hook type name.
func ParseHookType(name string) (HookType, error) {
	switch HookType(name) {
	case PreDownload, PostDownload:
		return HookType(name), nil
	default:
		return "", fmt.Errorf("%w: unsupported hook type %q", errors.ErrHookLoad, name)
	}
}

// Context contains information about the archive a hook runs for.
type Context struct {
	FileName  string
	SizeBytes int64
	Digest    string
	GameID    int64
	FileID    int64
	Path      string

	// Informational modlist fields, empty or zero when the modlist omits them.
	GameName string
	ModID    int64
	ModName  string
}

// Result carries the values a script hands back.
type Result struct {
	// Skip is set by a pre-download script to leave the archive alone.
	Skip bool
}
