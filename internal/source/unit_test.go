package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitLineStart(t *testing.T) {
	unit := NewFromText("t.py", []byte("abc\ndef\n\nxyz"), Options{})

	tests := []struct {
		off  uint32
		want uint32
	}{
		{0, 0}, {2, 0}, {3, 0},
		{4, 4}, {6, 4},
		{8, 8},
		{9, 9}, {11, 9},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, unit.LineStart(tt.off), "offset %d", tt.off)
	}
}

func TestUnitLineCol(t *testing.T) {
	unit := NewFromText("t.py", []byte("ab\ncd\n"), Options{})

	line, col := unit.LineCol(0)
	assert.Equal(t, uint32(1), line)
	assert.Equal(t, uint32(1), col)

	line, col = unit.LineCol(4)
	assert.Equal(t, uint32(2), line)
	assert.Equal(t, uint32(2), col)
}

func TestUnitOptionsOverrideDetection(t *testing.T) {
	unit, err := New("t.py", []byte("a\r\nb\r\n"), Options{Linesep: LinesepLF, Indentation: "\t"})
	require.NoError(t, err)
	assert.Equal(t, LinesepLF, unit.Linesep)
	assert.Equal(t, "\t", unit.Indentation)

	detected, err := New("t.py", []byte("a\r\nb\r\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, LinesepCRLF, detected.Linesep)
}

func TestReadKeepsRawBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mod.py")
	content := []byte("import os\r\n\r\nx = 1\r\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	unit, err := Read(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, content, unit.Raw)
	assert.Equal(t, content, unit.Text, "utf-8 content is not normalized")
	assert.Equal(t, LinesepCRLF, unit.Linesep)
	assert.False(t, unit.Virtual)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	for _, name := range []string{"a.py", "b.pyw", "ignore.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(sub, name), []byte("x = 1\n"), 0o644))
	}
	loose := filepath.Join(dir, "script")
	require.NoError(t, os.WriteFile(loose, []byte("x = 1\n"), 0o644))

	files, err := Discover([]string{dir, loose, loose})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(sub, "a.py"),
		filepath.Join(sub, "b.pyw"),
		loose,
	}, files)
}

func TestDiscoverMissingPath(t *testing.T) {
	_, err := Discover([]string{filepath.Join(t.TempDir(), "nope.py")})
	require.Error(t, err)
}
