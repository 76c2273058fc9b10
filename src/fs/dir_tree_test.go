package fs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docedit/src/fs"
)

func TestDirTree(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "subdir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file1.txt"), []byte("content"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "subdir", "file2.xml"), []byte("content"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".file1.txt.log"), []byte("log"), 0o644))

	tree, err := fs.Tree(dir, fs.Options{})
	require.NoError(t, err)
	want := strings.Join([]string{
		filepath.Base(dir),
		"├── subdir",
		"│   └── file2.xml",
		"└── file1.txt",
	}, "\n")
	assert.Equal(t, want, tree)

	tree, err = fs.Tree(dir, fs.Options{ShowHidden: true})
	require.NoError(t, err)
	assert.Contains(t, tree, ".file1.txt.log")
}

func TestDirTreeMarksFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "open.txt")
	require.NoError(t, os.WriteFile(target, nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "closed.txt"), nil, 0o644))

	tree, err := fs.Tree(dir, fs.Options{Mark: func(p string) string {
		if p == target {
			return " *"
		}
		return ""
	}})
	require.NoError(t, err)
	assert.Contains(t, tree, "└── open.txt *")
	assert.Contains(t, tree, "├── closed.txt\n")
}

func TestDirTreeEmptyAndInvalid(t *testing.T) {
	dir := t.TempDir()
	tree, err := fs.Tree(dir, fs.Options{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), tree)

	file := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = fs.Tree(file, fs.Options{})
	require.Error(t, err)
	_, err = fs.Tree(filepath.Join(dir, "missing"), fs.Options{})
	require.Error(t, err)
}
