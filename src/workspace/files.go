package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore reads and writes document content. Read reports a missing file
// with an error matching fs.ErrNotExist.
type FileStore interface {
	Read(path string) ([]byte, error)
	Write(path string, data []byte) error
}

// OSFileStore is the FileStore backed by the local disk.
type OSFileStore struct{}

// Read returns the file content.
func (OSFileStore) Read(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("无法打开目录: %s", path)
	}
	return os.ReadFile(path)
}

// Write replaces the file content, creating parent directories.
func (OSFileStore) Write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
