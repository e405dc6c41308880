package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decoport/internal/archive"
	"decoport/internal/config"
	"decoport/internal/dialect"
	"decoport/internal/rewrite"
)

func recoverAll(runDir string) ([]string, error) {
	result, err := archive.Recover(runDir, archive.CleanupNone)
	if err != nil {
		return nil, err
	}
	return result.Restored, nil
}

func testConfig() *config.Config {
	return &config.Config{
		DoArchive:     false,
		ArchivePath:   "archive",
		SourceVersion: dialect.DefaultSourceVersion,
		PEP8:          true,
		NamePrefix:    rewrite.DefaultNamePrefix,
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunConvertsInPlace(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "mod.py", "@(a if c else b)\ndef f(): pass\n")

	summary, err := Run(context.Background(), testConfig(), []string{dir}, nil)
	require.NoError(t, err)
	assert.True(t, summary.OK())
	assert.Equal(t, 1, summary.Converted)
	require.Len(t, summary.Jobs, 1)
	assert.Equal(t, StateDone, summary.Jobs[0].State)

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "_decorator_0 = (a if c else b)\n\n\n@_decorator_0\ndef f(): pass\n", string(out))
}

func TestRunLeavesConformingFilesUntouched(t *testing.T) {
	dir := t.TempDir()
	content := "@a.b(x)\ndef f(): pass\n"
	path := writeFile(t, dir, "mod.py", content)
	before, err := os.Stat(path)
	require.NoError(t, err)

	summary, err := Run(context.Background(), testConfig(), []string{dir}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Unchanged)
	require.Len(t, summary.Jobs, 1)
	assert.Equal(t, StateNoChange, summary.Jobs[0].State)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime(), "unchanged file is never rewritten")
}

func TestRunIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 9; i++ {
		writeFile(t, dir, fmt.Sprintf("ok_%d.py", i), "@x | y\ndef f():\n    pass\n")
	}
	bad := writeFile(t, dir, "broken.py", "def f(:\n")

	cfg := testConfig()
	cfg.Concurrency = 4
	summary, err := Run(context.Background(), cfg, []string{dir}, nil)
	require.NoError(t, err)

	assert.Equal(t, 9, summary.Converted)
	assert.Equal(t, 1, summary.Failed)
	assert.False(t, summary.OK())

	for _, job := range summary.Jobs {
		if job.Path == bad {
			assert.True(t, job.Failed())
			var perr *dialect.ParseError
			assert.ErrorAs(t, job.Err, &perr)
			continue
		}
		require.Equal(t, StateDone, job.State, "sibling jobs are unaffected by the failure")
		out, err := os.ReadFile(job.Path)
		require.NoError(t, err)
		assert.Contains(t, string(out), "_decorator_0 = x | y")
	}

	// the broken file keeps its original bytes
	out, err := os.ReadFile(bad)
	require.NoError(t, err)
	assert.Equal(t, "def f(:\n", string(out))
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	content := "@(a if c else b)\ndef f(): pass\n"
	path := writeFile(t, dir, "mod.py", content)

	cfg := testConfig()
	cfg.DryRun = true
	cfg.DoArchive = true
	cfg.ArchivePath = filepath.Join(dir, "archive")

	summary, err := Run(context.Background(), cfg, []string{dir}, nil)
	require.NoError(t, err)
	require.Len(t, summary.Jobs, 1)
	assert.Equal(t, StatePlanned, summary.Jobs[0].State)
	require.NotNil(t, summary.Jobs[0].Plan)
	assert.Equal(t, "_decorator_0", summary.Jobs[0].Plan.Bindings[0].Name)
	assert.Empty(t, summary.ArchiveDir, "dry run creates no archive")

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(out))
	_, err = os.Stat(cfg.ArchivePath)
	assert.True(t, os.IsNotExist(err))
}

func TestRunArchivesBeforeOverwrite(t *testing.T) {
	dir := t.TempDir()
	original := "@(a if c else b)\ndef f(): pass\n"
	path := writeFile(t, dir, "mod.py", original)

	cfg := testConfig()
	cfg.DoArchive = true
	cfg.ArchivePath = filepath.Join(dir, "archive")

	summary, err := Run(context.Background(), cfg, []string{path}, nil)
	require.NoError(t, err)
	require.True(t, summary.OK())
	require.NotEmpty(t, summary.ArchiveDir)

	converted, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, original, string(converted))

	// recovery restores the pre-conversion bytes
	result, err := recoverAll(summary.ArchiveDir)
	require.NoError(t, err)
	require.Len(t, result, 1)
	restored, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(restored))
}

func TestRunProgressCallback(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "x = 1\n")
	writeFile(t, dir, "b.py", "y = 2\n")

	var mu sync.Mutex
	var seen []string
	progress := func(path string) {
		mu.Lock()
		seen = append(seen, path)
		mu.Unlock()
	}

	_, err := Run(context.Background(), testConfig(), []string{dir}, progress)
	require.NoError(t, err)
	assert.Len(t, seen, 2)
}

func TestRunNoSourceFiles(t *testing.T) {
	_, err := Run(context.Background(), testConfig(), []string{t.TempDir()}, nil)
	require.ErrorIs(t, err, ErrNoSourceFiles)
}

func TestConvertBytes(t *testing.T) {
	cfg := testConfig()
	out, err := ConvertBytes(context.Background(), cfg, "<stdin>", []byte("@x[0]\ndef f(): pass\n"))
	require.NoError(t, err)
	assert.Equal(t, "_decorator_0 = x[0]\n\n\n@_decorator_0\ndef f(): pass\n", string(out))
}

func TestConvertBytesRoundTrip(t *testing.T) {
	cfg := testConfig()
	in := []byte("@a.b.c\ndef f(): pass\n")
	out, err := ConvertBytes(context.Background(), cfg, "<stdin>", in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestConvertBytesParseError(t *testing.T) {
	cfg := testConfig()
	_, err := ConvertBytes(context.Background(), cfg, "<stdin>", []byte("def f(:\n"))
	var perr *dialect.ParseError
	require.ErrorAs(t, err, &perr)
}
