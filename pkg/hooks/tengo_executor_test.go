package hooks_test

import (
	"context"
	"testing"
	"time"

	"github.com/glorpus-work/wabbaget/pkg/errors"
	"github.com/glorpus-work/wabbaget/pkg/hooks"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() hooks.Context {
	return hooks.Context{
		FileName:  "SkyUI_5_2_SE.7z",
		SizeBytes: 1024,
		Digest:    "menYUTfbRu8=",
		GameID:    1704,
		FileID:    1000172397,
		Path:      "/downloads/SkyUI_5_2_SE.7z",
		GameName:  "SkyrimSpecialEdition",
		ModID:     3863,
		ModName:   "SkyUI",
	}
}

func TestTengoExecutor(t *testing.T) {
	executor := hooks.NewTengoExecutor()
	ctx := context.Background()

	t.Run("Execute empty script", func(t *testing.T) {
		executor.AddScript(hooks.PreDownload, `// nothing to do`)

		res, err := executor.Execute(ctx, hooks.PreDownload, testContext())
		require.NoError(t, err)
		assert.False(t, res.Skip)
	})

	t.Run("Execute script with runtime error", func(t *testing.T) {
		executor.AddScript(hooks.PostDownload, `non_existent_function()`)

		_, err := executor.Execute(ctx, hooks.PostDownload, testContext())
		assert.ErrorIs(t, err, errors.ErrHookExecution)
	})

	t.Run("Execute non-existent script", func(t *testing.T) {
		executor.RemoveScript(hooks.PostDownload)

		res, err := executor.Execute(ctx, hooks.PostDownload, testContext())
		require.NoError(t, err)
		assert.False(t, res.Skip)
	})

	t.Run("HasScript check", func(t *testing.T) {
		hookType := hooks.HookType("test-hook")
		assert.False(t, executor.HasScript(hookType))

		executor.AddScript(hookType, "// test script")
		assert.True(t, executor.HasScript(hookType))

		executor.RemoveScript(hookType)
		assert.False(t, executor.HasScript(hookType))
	})

	t.Run("Context variables are accessible", func(t *testing.T) {
		executor.AddScript(hooks.PreDownload, `
			if fileName != "SkyUI_5_2_SE.7z" { err = "fileName" }
			if sizeBytes != 1024 { err = "sizeBytes" }
			if digest != "menYUTfbRu8=" { err = "digest" }
			if gameId != 1704 { err = "gameId" }
			if fileId != 1000172397 { err = "fileId" }
			if path != "/downloads/SkyUI_5_2_SE.7z" { err = "path" }
			if gameName != "SkyrimSpecialEdition" { err = "gameName" }
			if modId != 3863 { err = "modId" }
			if modName != "SkyUI" { err = "modName" }
		`)

		_, err := executor.Execute(ctx, hooks.PreDownload, testContext())
		assert.NoError(t, err)
	})

	t.Run("Pre-download script can skip", func(t *testing.T) {
		executor.AddScript(hooks.PreDownload, `
			text := import("text")
			if text.has_suffix(fileName, ".7z") { skip = true }
		`)

		res, err := executor.Execute(ctx, hooks.PreDownload, testContext())
		require.NoError(t, err)
		assert.True(t, res.Skip)
	})

	t.Run("Scripts can import bundled modules", func(t *testing.T) {
		for _, module := range []string{"fmt", "os", "text", "times"} {
			executor.AddScript(hooks.PostDownload, module+` := import("`+module+`")`)

			_, err := executor.Execute(ctx, hooks.PostDownload, testContext())
			assert.NoError(t, err, module)
		}
	})

	t.Run("Script uses times module", func(t *testing.T) {
		executor.AddScript(hooks.PreDownload, `
			times := import("times")
			if times.time_hour(times.now()) >= 0 && sizeBytes > 512 { skip = true }
		`)

		res, err := executor.Execute(ctx, hooks.PreDownload, testContext())
		require.NoError(t, err)
		assert.True(t, res.Skip)
	})

	t.Run("Unbundled modules are not importable", func(t *testing.T) {
		executor.AddScript(hooks.PostDownload, `strings := import("strings")`)

		_, err := executor.Execute(ctx, hooks.PostDownload, testContext())
		assert.ErrorIs(t, err, errors.ErrHookExecution)
	})

	t.Run("Post-download script cannot skip", func(t *testing.T) {
		executor.AddScript(hooks.PostDownload, `skip = true`)

		res, err := executor.Execute(ctx, hooks.PostDownload, testContext())
		require.NoError(t, err)
		assert.False(t, res.Skip)
	})

	t.Run("Script sets error string", func(t *testing.T) {
		executor.AddScript(hooks.PostDownload, `err = "disk quota reached"`)

		_, err := executor.Execute(ctx, hooks.PostDownload, testContext())
		assert.ErrorIs(t, err, errors.ErrHookScript)
		assert.Contains(t, err.Error(), "disk quota reached")
	})

	t.Run("Script sets error value", func(t *testing.T) {
		executor.AddScript(hooks.PostDownload, `err = error("refused")`)

		_, err := executor.Execute(ctx, hooks.PostDownload, testContext())
		assert.ErrorIs(t, err, errors.ErrHookScript)
		assert.Contains(t, err.Error(), "refused")
	})

	t.Run("Canceled context stops script", func(t *testing.T) {
		executor.AddScript(hooks.PostDownload, `for { }`)

		cctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		_, err := executor.Execute(cctx, hooks.PostDownload, testContext())
		assert.ErrorIs(t, err, errors.ErrHookExecution)
	})
}

func TestTengoExecutor_LoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/hooks/pre.tengo", []byte(`skip = true`), 0o644))

	executor := hooks.NewTengoExecutor()

	require.NoError(t, executor.LoadFile(fs, hooks.PreDownload, ""))
	assert.False(t, executor.HasScript(hooks.PreDownload))

	err := executor.LoadFile(fs, hooks.PostDownload, "/hooks/missing.tengo")
	assert.ErrorIs(t, err, errors.ErrHookLoad)

	require.NoError(t, executor.LoadFile(fs, hooks.PreDownload, "/hooks/pre.tengo"))
	res, err := executor.Execute(context.Background(), hooks.PreDownload, testContext())
	require.NoError(t, err)
	assert.True(t, res.Skip)
}

func TestParseHookType(t *testing.T) {
	ht, err := hooks.ParseHookType("pre-download")
	require.NoError(t, err)
	assert.Equal(t, hooks.PreDownload, ht)

	_, err = hooks.ParseHookType("pre-install")
	assert.ErrorIs(t, err, errors.ErrHookLoad)

	assert.Contains(t, hooks.Template(hooks.PreDownload), "skip = true")
	assert.Contains(t, hooks.Template(hooks.PostDownload), "Post-download")
}
