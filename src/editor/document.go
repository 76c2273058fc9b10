package editor

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Document is one open buffer: either a TextDocument or an XMLTree, plus its
// own undo/redo history and modified flag.
type Document struct {
	path     string
	kind     Kind
	text     *TextDocument
	tree     *XMLTree
	history  *History
	modified bool
	header   string
}

// NewText wraps lines as a text document.
func NewText(path string, lines []string, modified bool, historyLimit int) *Document {
	return &Document{
		path:     path,
		kind:     KindText,
		text:     NewTextDocument(lines),
		history:  NewHistory(historyLimit),
		modified: modified,
	}
}

// NewXML wraps tree as an XML document.
func NewXML(path string, tree *XMLTree, modified bool, historyLimit int) *Document {
	return &Document{
		path:     path,
		kind:     KindXML,
		tree:     tree,
		history:  NewHistory(historyLimit),
		modified: modified,
	}
}

// Empty creates an unsaved buffer. XML buffers start with the placeholder root.
func Empty(path string, kind Kind, historyLimit int) *Document {
	if kind == KindXML {
		return NewXML(path, NewXMLTree(), true, historyLimit)
	}
	return NewText(path, nil, true, historyLimit)
}

// Decode builds a clean document from file content.
func Decode(path string, kind Kind, data []byte, historyLimit int) (*Document, error) {
	if kind != KindXML {
		return NewText(path, SplitLines(string(data)), false, historyLimit), nil
	}
	header, root, err := ParseXML(data)
	if err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", filepath.Base(path), err)
	}
	tree, err := NewXMLTreeFrom(root)
	if err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", filepath.Base(path), err)
	}
	doc := NewXML(path, tree, false, historyLimit)
	doc.header = header
	return doc, nil
}

// Path returns the backing file path.
func (d *Document) Path() string {
	return d.path
}

// Name returns the file name for display.
func (d *Document) Name() string {
	return filepath.Base(d.path)
}

// Kind returns the document kind.
func (d *Document) Kind() Kind {
	return d.kind
}

// IsModified reports whether the document has unsaved changes.
func (d *Document) IsModified() bool {
	return d.modified
}

// SetModified overrides the modified flag; saving clears it.
func (d *Document) SetModified(value bool) {
	d.modified = value
}

// Content serializes the document for saving.
func (d *Document) Content() string {
	if d.kind == KindXML {
		return SerializeXML(d.header, d.tree)
	}
	return d.text.Content()
}

// Text returns the text variant or ErrWrongDocumentKind.
func (d *Document) Text() (*TextDocument, error) {
	if d.kind != KindText {
		return nil, ErrWrongDocumentKind
	}
	return d.text, nil
}

// Tree returns the XML variant or ErrWrongDocumentKind.
func (d *Document) Tree() (*XMLTree, error) {
	if d.kind != KindXML {
		return nil, ErrWrongDocumentKind
	}
	return d.tree, nil
}

// Execute applies cmd through the history and marks the document modified.
func (d *Document) Execute(cmd Command) (string, error) {
	if err := d.history.Execute(cmd); err != nil {
		return "", err
	}
	d.modified = true
	return cmd.Label(), nil
}

// Undo reverts the latest command and returns its label.
func (d *Document) Undo() (string, error) {
	cmd, err := d.history.Undo()
	if err != nil {
		return "", err
	}
	d.modified = true
	return cmd.Label(), nil
}

// Redo reapplies the latest undone command and returns its label.
func (d *Document) Redo() (string, error) {
	cmd, err := d.history.Redo()
	if err != nil {
		return "", err
	}
	d.modified = true
	return cmd.Label(), nil
}

// UndoCount returns the undo stack depth.
func (d *Document) UndoCount() int {
	return d.history.UndoCount()
}

// RedoCount returns the redo stack depth.
func (d *Document) RedoCount() int {
	return d.history.RedoCount()
}

// History exposes the labels of undoable commands, oldest first.
func (d *Document) History() []string {
	return d.history.Labels()
}

// Spans extracts checkable text.
func (d *Document) Spans() []Span {
	if d.kind == KindXML {
		return d.tree.Spans()
	}
	return d.text.Spans()
}

// LogHeader returns the "# log" directive line, if the document has one.
// Text documents carry it as their first line.
func (d *Document) LogHeader() string {
	if d.kind == KindXML {
		return d.header
	}
	if d.text.LineCount() == 0 {
		return ""
	}
	first := strings.TrimSpace(d.text.lines[0])
	if strings.HasPrefix(first, "# log") {
		return first
	}
	return ""
}

// SetHeader sets the directive line written above the XML declaration.
func (d *Document) SetHeader(header string) {
	d.header = header
}
