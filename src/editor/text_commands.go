package editor

import "strconv"

type appendCommand struct {
	doc   *TextDocument
	text  string
	start int
}

// NewAppendCommand appends text as new final line(s).
func NewAppendCommand(doc *TextDocument, text string) Command {
	return &appendCommand{doc: doc, text: text}
}

func (c *appendCommand) Apply() error {
	c.start = c.doc.appendLines(splitSegments(c.text))
	return nil
}

func (c *appendCommand) Revert() error {
	return c.doc.removeAppended(c.start, splitSegments(c.text))
}

func (c *appendCommand) Reapply() error { return c.Apply() }

func (c *appendCommand) Label() string { return labelOf("append", QuoteArg(c.text)) }

func (c *appendCommand) Verb() string { return "append" }

type insertCommand struct {
	doc     *TextDocument
	pos     Position
	text    string
	created bool
}

// NewInsertCommand inserts text, which may span several lines, at pos.
func NewInsertCommand(doc *TextDocument, pos Position, text string) Command {
	return &insertCommand{doc: doc, pos: pos, text: text}
}

func (c *insertCommand) Apply() error {
	if err := c.doc.checkInsert(c.pos); err != nil {
		return err
	}
	c.created = c.doc.insertText(c.pos, c.text)
	return nil
}

func (c *insertCommand) Revert() error {
	return c.doc.removeInserted(c.pos, c.text, c.created)
}

func (c *insertCommand) Reapply() error { return c.Apply() }

func (c *insertCommand) Label() string {
	return labelOf("insert", c.pos.String(), QuoteArg(c.text))
}

func (c *insertCommand) Verb() string { return "insert" }

type deleteCommand struct {
	doc     *TextDocument
	pos     Position
	length  int
	removed string
}

// NewDeleteCommand removes length characters at pos without crossing the line end.
func NewDeleteCommand(doc *TextDocument, pos Position, length int) Command {
	return &deleteCommand{doc: doc, pos: pos, length: length}
}

func (c *deleteCommand) Apply() error {
	if err := c.doc.checkDelete(c.pos, c.length); err != nil {
		return err
	}
	c.removed = c.doc.cut(c.pos, c.length)
	return nil
}

func (c *deleteCommand) Revert() error {
	return c.doc.uncut(c.pos, c.removed)
}

func (c *deleteCommand) Reapply() error { return c.Apply() }

func (c *deleteCommand) Label() string {
	return labelOf("delete", c.pos.String(), strconv.Itoa(c.length))
}

func (c *deleteCommand) Verb() string { return "delete" }

// replaceCommand is a delete followed by an insert at the same position,
// recorded as one history entry.
type replaceCommand struct {
	doc     *TextDocument
	pos     Position
	length  int
	text    string
	removed string
}

// NewReplaceCommand swaps length characters at pos for text.
func NewReplaceCommand(doc *TextDocument, pos Position, length int, text string) Command {
	return &replaceCommand{doc: doc, pos: pos, length: length, text: text}
}

func (c *replaceCommand) Apply() error {
	if err := c.doc.checkReplace(c.pos, c.length); err != nil {
		return err
	}
	c.removed = c.doc.cut(c.pos, c.length)
	c.doc.insertText(c.pos, c.text)
	return nil
}

func (c *replaceCommand) Revert() error {
	if err := c.doc.removeInserted(c.pos, c.text, false); err != nil {
		return err
	}
	return c.doc.uncut(c.pos, c.removed)
}

func (c *replaceCommand) Reapply() error { return c.Apply() }

func (c *replaceCommand) Label() string {
	return labelOf("replace", c.pos.String(), strconv.Itoa(c.length), QuoteArg(c.text))
}

func (c *replaceCommand) Verb() string { return "replace" }
