package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decoport/internal/dialect"
)

// chdirEmpty moves the test into a directory with no decoport.toml in
// its parent chain is not guaranteed, so tests that care use their own
// temp tree.
func chdirEmpty(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirEmpty(t)
	cfg, err := Load(Overrides{})
	require.NoError(t, err)

	assert.False(t, cfg.Quiet)
	assert.Equal(t, 0, cfg.Concurrency)
	assert.True(t, cfg.DoArchive)
	assert.Equal(t, DefaultArchivePath, cfg.ArchivePath)
	assert.Equal(t, dialect.DefaultSourceVersion, cfg.SourceVersion)
	assert.Empty(t, cfg.Linesep)
	assert.Empty(t, cfg.Indentation)
	assert.True(t, cfg.PEP8)
	assert.Equal(t, "_decorator", cfg.NamePrefix)
}

func TestLoadEnvironmentLayer(t *testing.T) {
	chdirEmpty(t)
	t.Setenv(EnvQuiet, "yes")
	t.Setenv(EnvConcurrency, "8")
	t.Setenv(EnvDoArchive, "off")
	t.Setenv(EnvLinesep, "CRLF")
	t.Setenv(EnvIndentation, "2")
	t.Setenv(EnvPEP8, "0")
	t.Setenv(EnvSourceVersion, "3.10")

	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	assert.True(t, cfg.Quiet)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.False(t, cfg.DoArchive)
	assert.Equal(t, "\r\n", cfg.Linesep)
	assert.Equal(t, "  ", cfg.Indentation)
	assert.False(t, cfg.PEP8)
	assert.Equal(t, "3.10", cfg.SourceVersion)
}

func TestLoadExplicitBeatsEnvironment(t *testing.T) {
	chdirEmpty(t)
	t.Setenv(EnvQuiet, "yes")
	t.Setenv(EnvSourceVersion, "3.10")

	quiet := false
	version := "3.12"
	cfg, err := Load(Overrides{Quiet: &quiet, SourceVersion: &version})
	require.NoError(t, err)
	assert.False(t, cfg.Quiet)
	assert.Equal(t, "3.12", cfg.SourceVersion)
}

func TestLoadFileLayer(t *testing.T) {
	dir := chdirEmpty(t)
	toml := `
[run]
quiet = true
concurrency = 3

[archive]
enabled = false
path = "backups"

[convert]
source-version = "3.11"
indentation = "tab"
pep8 = false
name-prefix = "_hoisted"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(toml), 0o644))

	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	assert.True(t, cfg.Quiet)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.False(t, cfg.DoArchive)
	assert.Equal(t, "backups", cfg.ArchivePath)
	assert.Equal(t, "3.11", cfg.SourceVersion)
	assert.Equal(t, "\t", cfg.Indentation)
	assert.False(t, cfg.PEP8)
	assert.Equal(t, "_hoisted", cfg.NamePrefix)
}

func TestLoadEnvironmentBeatsFile(t *testing.T) {
	dir := chdirEmpty(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName),
		[]byte("[convert]\nsource-version = \"3.9\"\n"), 0o644))
	t.Setenv(EnvSourceVersion, "3.13")

	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "3.13", cfg.SourceVersion)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	chdirEmpty(t)
	tests := []struct {
		name string
		env  map[string]string
		ov   Overrides
	}{
		{"bad boolean", map[string]string{EnvQuiet: "maybe"}, Overrides{}},
		{"bad concurrency", map[string]string{EnvConcurrency: "-2"}, Overrides{}},
		{"bad source version", map[string]string{EnvSourceVersion: "2.7"}, Overrides{}},
		{"bad linesep", map[string]string{EnvLinesep: "NEL"}, Overrides{}},
		{"bad indentation", map[string]string{EnvIndentation: "minus"}, Overrides{}},
		{"bad name prefix", nil, Overrides{NamePrefix: strPtr("1bad")}},
		{"dunder name prefix", nil, Overrides{NamePrefix: strPtr("__private")}},
		{"empty archive path", nil, Overrides{ArchivePath: strPtr("")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.ov)
			var argErr *ArgumentError
			require.ErrorAs(t, err, &argErr)
		})
	}
}

func strPtr(s string) *string { return &s }

func TestParseBooleanState(t *testing.T) {
	for _, s := range []string{"1", "yes", "Y", "TRUE", "on"} {
		v, err := ParseBooleanState(s)
		require.NoError(t, err, s)
		require.NotNil(t, v)
		assert.True(t, *v, s)
	}
	for _, s := range []string{"0", "no", "n", "False", "OFF"} {
		v, err := ParseBooleanState(s)
		require.NoError(t, err, s)
		require.NotNil(t, v)
		assert.False(t, *v, s)
	}
	v, err := ParseBooleanState("")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = ParseBooleanState("definitely")
	assert.Error(t, err)
}

func TestParseIndentation(t *testing.T) {
	got, err := ParseIndentation("4")
	require.NoError(t, err)
	assert.Equal(t, "    ", got)

	got, err = ParseIndentation("tab")
	require.NoError(t, err)
	assert.Equal(t, "\t", got)

	got, err = ParseIndentation("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseIndentation("0")
	assert.Error(t, err)
}

func TestParseLinesep(t *testing.T) {
	for in, want := range map[string]string{
		"LF": "\n", "lf": "\n", "\n": "\n",
		"CRLF": "\r\n", "\r\n": "\r\n",
		"CR": "\r",
	} {
		got, err := ParseLinesep(in)
		require.NoError(t, err, "%q", in)
		assert.Equal(t, want, got, "%q", in)
	}
	_, err := ParseLinesep("LFCR")
	assert.Error(t, err)
}
