package workspace

import (
	"errors"
	"fmt"
)

// Workspace errors.
var (
	ErrNoSuchDocument   = errors.New("文件未打开")
	ErrNoActiveDocument = errors.New("没有活动文件")
	ErrDocumentExists   = errors.New("文件已存在")
	ErrUnknownVerb      = errors.New("未知命令")
	ErrUsage            = errors.New("参数错误")
	ErrNoSpellChecker   = errors.New("未配置拼写检查器")
)

// IOError wraps a failure of the file store.
type IOError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}

func usage(format string, args ...any) error {
	return fmt.Errorf("%w: 用法: %s", ErrUsage, fmt.Sprintf(format, args...))
}

func notOpen(path string) error {
	return fmt.Errorf("%w: %s", ErrNoSuchDocument, path)
}
