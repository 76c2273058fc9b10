package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Options tunes Tree output.
type Options struct {
	// ShowHidden includes dot-files such as the .<name>.log command logs.
	ShowHidden bool
	// Mark returns a suffix for a file, e.g. to flag open documents.
	Mark func(absPath string) string
}

// Tree renders the directory rooted at path, directories first. The first
// line is the directory name.
func Tree(path string, opts Options) (string, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("路径不存在: %s", path)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s 不是目录", path)
	}
	lines := []string{filepath.Base(abs)}
	w := walker{opts: opts}
	lines = append(lines, w.branch(abs, "")...)
	return strings.Join(lines, "\n"), nil
}

type walker struct {
	opts Options
}

func (w walker) branch(dir, prefix string) []string {
	entries, err := w.readEntries(dir)
	if err != nil {
		return []string{fmt.Sprintf("%s[错误: %v]", prefix, err)}
	}
	var lines []string
	for i, entry := range entries {
		connector := "├── "
		nextPrefix := prefix + "│   "
		if i == len(entries)-1 {
			connector = "└── "
			nextPrefix = prefix + "    "
		}
		full := filepath.Join(dir, entry.Name())
		label := entry.Name()
		if entry.IsDir() {
			lines = append(lines, prefix+connector+label)
			lines = append(lines, w.branch(full, nextPrefix)...)
			continue
		}
		if w.opts.Mark != nil {
			label += w.opts.Mark(full)
		}
		lines = append(lines, prefix+connector+label)
	}
	return lines
}

func (w walker) readEntries(path string) ([]os.DirEntry, error) {
	all, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	entries := all[:0]
	for _, entry := range all {
		if !w.opts.ShowHidden && strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() == entries[j].IsDir() {
			return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
		}
		return entries[i].IsDir()
	})
	return entries, nil
}
