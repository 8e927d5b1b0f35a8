package export

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gameforge/internal/tree"
)

func sampleTree(t *testing.T) tree.FileTree {
	t.Helper()
	tr := tree.New()
	require.NoError(t, tr.AddString("pubspec.yaml", "name: x\n"))
	require.NoError(t, tr.AddString("lib/main.dart", "void main() {}\n"))
	require.NoError(t, tr.AddString("assets/imported/player.png", "\x89PNG"))
	return tr
}

func TestWriteEntriesSortedAndReadable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleTree(t)))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{
		"assets/imported/player.png",
		"lib/main.dart",
		"pubspec.yaml",
	}, names)

	rc, err := zr.Open("lib/main.dart")
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "void main() {}\n", string(content))
}

func TestWriteReproducible(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, Write(&a, sampleTree(t)))
	require.NoError(t, Write(&b, sampleTree(t)))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "game.zip")
	require.NoError(t, WriteFile(path, sampleTree(t)))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	// No stray temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	assert.Len(t, zr.File, 3)
}

func TestWriteEmptyTree(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tree.New()))
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Empty(t, zr.File)
}
