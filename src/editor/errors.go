package editor

import (
	"errors"
	"fmt"
)

// Position errors.
var (
	ErrLineOutOfRange    = errors.New("行号越界")
	ErrColumnOutOfRange  = errors.New("列号越界")
	ErrDeleteExceedsLine = errors.New("删除长度超出行尾")
	ErrInvalidLength     = errors.New("长度必须大于0")
)

// Identity errors.
var (
	ErrDuplicateID            = errors.New("元素 ID 已存在")
	ErrNoSuchElement          = errors.New("元素不存在")
	ErrNoSuchAttribute        = errors.New("属性不存在")
	ErrEmptyID                = errors.New("元素 ID 不能为空")
	ErrAttributeProtected     = errors.New("不能通过属性命令修改 id，请使用 edit-id")
	ErrRootProtected          = errors.New("根元素不支持该操作")
	ErrRootDeletionForbidden  = errors.New("不能删除根元素")
	ErrRootAlreadyEstablished = errors.New("XML 文档已有根元素，不能替换")
)

// History errors.
var (
	ErrNothingToUndo = errors.New("没有可撤销的操作")
	ErrNothingToRedo = errors.New("没有可重做的操作")
)

var (
	// ErrWrongDocumentKind is returned when a verb targets the other document kind.
	ErrWrongDocumentKind = errors.New("当前文件不支持该命令")
	// ErrInconsistentState means a command's recorded payload no longer matches the document.
	ErrInconsistentState = errors.New("文档状态与命令记录不一致")
)

// PositionError reports an invalid line/column address.
type PositionError struct {
	Kind error
	Line int
	Col  int
}

// Error implements the error interface.
func (e *PositionError) Error() string {
	if e.Col > 0 {
		return fmt.Sprintf("%v: %d:%d", e.Kind, e.Line, e.Col)
	}
	return fmt.Sprintf("%v: %d", e.Kind, e.Line)
}

// Unwrap returns the specific kind.
func (e *PositionError) Unwrap() error {
	return e.Kind
}

// IdentityError reports a violation of the element id rules.
type IdentityError struct {
	Kind error
	ID   string
}

// Error implements the error interface.
func (e *IdentityError) Error() string {
	if e.ID == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.ID)
}

// Unwrap returns the specific kind.
func (e *IdentityError) Unwrap() error {
	return e.Kind
}

// IsHistoryError reports whether err is an empty-stack condition.
func IsHistoryError(err error) bool {
	return errors.Is(err, ErrNothingToUndo) || errors.Is(err, ErrNothingToRedo)
}

func lineError(kind error, line int) error {
	return &PositionError{Kind: kind, Line: line}
}

func posError(kind error, p Position) error {
	return &PositionError{Kind: kind, Line: p.Line, Col: p.Col}
}

func idError(kind error, id string) error {
	return &IdentityError{Kind: kind, ID: id}
}

func inconsistent(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInconsistentState, fmt.Sprintf(format, args...))
}
