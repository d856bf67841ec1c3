// Package hooks runs user supplied Tengo scripts around each download.
package hooks

import (
	"context"
	"fmt"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/glorpus-work/wabbaget/pkg/errors"
	"github.com/spf13/afero"
)

// TengoExecutor handles the execution of Tengo scripts.
type TengoExecutor struct {
	scripts map[HookType]string
	mutex   sync.RWMutex
}

// NewTengoExecutor creates a new Tengo script executor.
func NewTengoExecutor() *TengoExecutor {
	return &TengoExecutor{
		scripts: make(map[HookType]string),
	}
}

// Execute runs the script registered for hookType. Without a script it is a no-op.
func (e *TengoExecutor) Execute(ctx context.Context, hookType HookType, hctx Context) (Result, error) {
	e.mutex.RLock()
	script, exists := e.scripts[hookType]
	e.mutex.RUnlock()
	if !exists {
		return Result{}, nil
	}

	scriptInstance := tengo.NewScript([]byte(script))
	scriptInstance.SetImports(stdlib.GetModuleMap("fmt", "os", "text", "times"))

	vars := map[string]interface{}{
		"fileName":  hctx.FileName,
		"sizeBytes": hctx.SizeBytes,
		"digest":    hctx.Digest,
		"gameId":    hctx.GameID,
		"fileId":    hctx.FileID,
		"path":      hctx.Path,
		"gameName":  hctx.GameName,
		"modId":     hctx.ModID,
		"modName":   hctx.ModName,
		"skip":      false,
		"err":       "",
	}
	for k, v := range vars {
		if err := scriptInstance.Add(k, v); err != nil {
			return Result{}, fmt.Errorf("failed to add variable '%s' to script: %w", k, err)
		}
	}

	compiled, err := scriptInstance.RunContext(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w: %w", hookType, errors.ErrHookExecution, err)
	}

	switch v := compiled.Get("err").Object().(type) {
	case *tengo.Error:
		return Result{}, fmt.Errorf("%s: %w: %s", hookType, errors.ErrHookScript, v.Value.String())
	case *tengo.String:
		if v.Value != "" {
			return Result{}, fmt.Errorf("%s: %w: %s", hookType, errors.ErrHookScript, v.Value)
		}
	}

	return Result{Skip: hookType == PreDownload && compiled.Get("skip").Bool()}, nil
}

// AddScript adds or updates a script for the specified hook type.
func (e *TengoExecutor) AddScript(hookType HookType, script string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.scripts[hookType] = script
}

// RemoveScript removes the script for the specified hook type.
func (e *TengoExecutor) RemoveScript(hookType HookType) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	delete(e.scripts, hookType)
}

// HasScript checks if a script exists for the specified hook type.
func (e *TengoExecutor) HasScript(hookType HookType) bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	_, exists := e.scripts[hookType]
	return exists
}

// LoadFile reads a script from path and registers it for hookType.
// An empty path is ignored.
func (e *TengoExecutor) LoadFile(fs afero.Fs, hookType HookType, path string) error {
	if path == "" {
		return nil
	}
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("%w: %s script %s: %w", errors.ErrHookLoad, hookType, path, err)
	}
	e.AddScript(hookType, string(content))
	return nil
}
