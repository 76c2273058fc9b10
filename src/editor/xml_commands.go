package editor

import (
	"slices"
	"strings"
)

func checkNewNode(t *XMLTree, n Node) error {
	if n.ID == "" {
		return idError(ErrEmptyID, "")
	}
	if t.Has(n.ID) {
		return idError(ErrDuplicateID, n.ID)
	}
	for _, attr := range n.Attrs {
		if attr.Name == "id" {
			return idError(ErrAttributeProtected, n.ID)
		}
	}
	return nil
}

// leaf strips children so creation commands always add a single element.
func leaf(n Node) Node {
	return Node{Tag: n.Tag, ID: n.ID, Attrs: slices.Clone(n.Attrs), Text: n.Text}
}

// AttrArg renders an attribute the way the command line accepts it.
func AttrArg(attr Attribute) string {
	return attr.Name + "=" + argValue(attr.Value)
}

func creationLabel(verb string, n Node, anchor ...string) string {
	parts := []string{verb, n.Tag, n.ID}
	parts = append(parts, anchor...)
	parts = append(parts, QuoteArg(n.Text))
	for _, attr := range n.Attrs {
		parts = append(parts, AttrArg(attr))
	}
	return labelOf(parts...)
}

// removeCreated detaches a freshly inserted leaf identified by id.
func removeCreated(t *XMLTree, id string) error {
	h, ok := t.index[id]
	if !ok {
		return inconsistent("插入的元素 %s 已不存在", id)
	}
	if len(t.slots[h].children) > 0 {
		return inconsistent("插入的元素 %s 已有子元素", id)
	}
	t.release(h)
	return nil
}

type insertBeforeCommand struct {
	tree     *XMLTree
	node     Node
	targetID string
}

// NewInsertBeforeCommand inserts node as the sibling immediately before targetID.
func NewInsertBeforeCommand(tree *XMLTree, node Node, targetID string) Command {
	return &insertBeforeCommand{tree: tree, node: leaf(node), targetID: targetID}
}

func (c *insertBeforeCommand) Apply() error {
	if err := checkNewNode(c.tree, c.node); err != nil {
		return err
	}
	target, el, err := c.tree.lookup(c.targetID)
	if err != nil {
		return err
	}
	if el.parent == noHandle {
		return idError(ErrRootProtected, c.targetID)
	}
	c.tree.attach(el.parent, c.tree.childPosition(target), c.node)
	return nil
}

func (c *insertBeforeCommand) Revert() error { return removeCreated(c.tree, c.node.ID) }

func (c *insertBeforeCommand) Reapply() error { return c.Apply() }

func (c *insertBeforeCommand) Label() string {
	return creationLabel("insert-before", c.node, c.targetID)
}

func (c *insertBeforeCommand) Verb() string { return "insert-before" }

type appendChildCommand struct {
	tree     *XMLTree
	node     Node
	parentID string
}

// NewAppendChildCommand appends node as the last child of parentID.
func NewAppendChildCommand(tree *XMLTree, node Node, parentID string) Command {
	return &appendChildCommand{tree: tree, node: leaf(node), parentID: parentID}
}

func (c *appendChildCommand) Apply() error {
	parent, el, err := c.tree.lookup(c.parentID)
	if err != nil {
		return err
	}
	if err := checkNewNode(c.tree, c.node); err != nil {
		return err
	}
	c.tree.attach(parent, len(el.children), c.node)
	return nil
}

func (c *appendChildCommand) Revert() error { return removeCreated(c.tree, c.node.ID) }

func (c *appendChildCommand) Reapply() error { return c.Apply() }

func (c *appendChildCommand) Label() string {
	return creationLabel("append-child", c.node, c.parentID)
}

func (c *appendChildCommand) Verb() string { return "append-child" }

type editIDCommand struct {
	tree  *XMLTree
	oldID string
	newID string
}

// NewEditIDCommand renames an element and rekeys the index.
func NewEditIDCommand(tree *XMLTree, oldID, newID string) Command {
	return &editIDCommand{tree: tree, oldID: oldID, newID: newID}
}

func (c *editIDCommand) Apply() error {
	h, el, err := c.tree.lookup(c.oldID)
	if err != nil {
		return err
	}
	if c.newID == "" {
		return idError(ErrEmptyID, "")
	}
	if c.tree.Has(c.newID) {
		return idError(ErrDuplicateID, c.newID)
	}
	if el.parent == noHandle {
		return idError(ErrRootProtected, c.oldID)
	}
	c.tree.rename(h, c.newID)
	return nil
}

func (c *editIDCommand) Revert() error {
	h, ok := c.tree.index[c.newID]
	if !ok || c.tree.Has(c.oldID) {
		return inconsistent("无法将 %s 恢复为 %s", c.newID, c.oldID)
	}
	c.tree.rename(h, c.oldID)
	return nil
}

func (c *editIDCommand) Reapply() error { return c.Apply() }

func (c *editIDCommand) Label() string { return labelOf("edit-id", c.oldID, c.newID) }

func (c *editIDCommand) Verb() string { return "edit-id" }

type editTextCommand struct {
	tree    *XMLTree
	id      string
	text    string
	oldText string
}

// NewEditTextCommand replaces an element's text. Empty text clears it.
func NewEditTextCommand(tree *XMLTree, id, text string) Command {
	return &editTextCommand{tree: tree, id: id, text: text}
}

func (c *editTextCommand) Apply() error {
	_, el, err := c.tree.lookup(c.id)
	if err != nil {
		return err
	}
	c.oldText = el.text
	el.text = c.text
	return nil
}

func (c *editTextCommand) Revert() error {
	_, el, err := c.tree.lookup(c.id)
	if err != nil || el.text != c.text {
		return inconsistent("元素 %s 的文本已被改动", c.id)
	}
	el.text = c.oldText
	return nil
}

func (c *editTextCommand) Reapply() error { return c.Apply() }

func (c *editTextCommand) Label() string {
	return labelOf("edit-text", c.id, QuoteArg(c.text))
}

func (c *editTextCommand) Verb() string { return "edit-text" }

type deleteElementCommand struct {
	tree     *XMLTree
	id       string
	parentID string
	pos      int
	removed  Node
}

// NewDeleteElementCommand removes an element together with its subtree.
func NewDeleteElementCommand(tree *XMLTree, id string) Command {
	return &deleteElementCommand{tree: tree, id: id}
}

func (c *deleteElementCommand) Apply() error {
	h, el, err := c.tree.lookup(c.id)
	if err != nil {
		return err
	}
	if el.parent == noHandle {
		return idError(ErrRootDeletionForbidden, c.id)
	}
	c.parentID = c.tree.slots[el.parent].id
	c.pos = c.tree.childPosition(h)
	c.removed = c.tree.release(h)
	return nil
}

func (c *deleteElementCommand) Revert() error {
	parent, el, err := c.tree.lookup(c.parentID)
	if err != nil || c.pos > len(el.children) || c.tree.conflicts(c.removed) {
		return inconsistent("无法将元素 %s 放回 %s", c.id, c.parentID)
	}
	c.tree.attach(parent, c.pos, c.removed)
	return nil
}

func (c *deleteElementCommand) Reapply() error { return c.Apply() }

func (c *deleteElementCommand) Label() string { return labelOf("delete", c.id) }

func (c *deleteElementCommand) Verb() string { return "delete" }

type setAttrCommand struct {
	tree     *XMLTree
	id       string
	attr     Attribute
	existed  bool
	oldValue string
	slot     int
}

// NewSetAttrCommand adds an attribute or overwrites its value in place.
func NewSetAttrCommand(tree *XMLTree, id, name, value string) Command {
	return &setAttrCommand{tree: tree, id: id, attr: Attribute{Name: name, Value: value}}
}

func (c *setAttrCommand) Apply() error {
	_, el, err := c.tree.lookup(c.id)
	if err != nil {
		return err
	}
	if c.attr.Name == "id" {
		return idError(ErrAttributeProtected, c.id)
	}
	c.slot = attrSlot(el.attrs, c.attr.Name)
	c.existed = c.slot >= 0
	if c.existed {
		c.oldValue = el.attrs[c.slot].Value
		el.attrs[c.slot].Value = c.attr.Value
		return nil
	}
	c.slot = len(el.attrs)
	el.attrs = append(el.attrs, c.attr)
	return nil
}

func (c *setAttrCommand) Revert() error {
	_, el, err := c.tree.lookup(c.id)
	if err != nil || c.slot >= len(el.attrs) || el.attrs[c.slot] != c.attr {
		return inconsistent("元素 %s 的属性 %s 已被改动", c.id, c.attr.Name)
	}
	if c.existed {
		el.attrs[c.slot].Value = c.oldValue
		return nil
	}
	el.attrs = slices.Delete(el.attrs, c.slot, c.slot+1)
	return nil
}

func (c *setAttrCommand) Reapply() error { return c.Apply() }

func (c *setAttrCommand) Label() string {
	return labelOf("set-attr", c.id, c.attr.Name, argValue(c.attr.Value))
}

func (c *setAttrCommand) Verb() string { return "set-attr" }

type removeAttrCommand struct {
	tree    *XMLTree
	id      string
	name    string
	removed Attribute
	slot    int
}

// NewRemoveAttrCommand drops a named attribute.
func NewRemoveAttrCommand(tree *XMLTree, id, name string) Command {
	return &removeAttrCommand{tree: tree, id: id, name: name}
}

func (c *removeAttrCommand) Apply() error {
	_, el, err := c.tree.lookup(c.id)
	if err != nil {
		return err
	}
	if c.name == "id" {
		return idError(ErrAttributeProtected, c.id)
	}
	slot := attrSlot(el.attrs, c.name)
	if slot < 0 {
		return idError(ErrNoSuchAttribute, c.id+"@"+c.name)
	}
	c.slot = slot
	c.removed = el.attrs[slot]
	el.attrs = slices.Delete(el.attrs, slot, slot+1)
	return nil
}

func (c *removeAttrCommand) Revert() error {
	_, el, err := c.tree.lookup(c.id)
	if err != nil || c.slot > len(el.attrs) || attrSlot(el.attrs, c.name) >= 0 {
		return inconsistent("无法恢复元素 %s 的属性 %s", c.id, c.name)
	}
	el.attrs = slices.Insert(el.attrs, c.slot, c.removed)
	return nil
}

func (c *removeAttrCommand) Reapply() error { return c.Apply() }

func (c *removeAttrCommand) Label() string { return labelOf("remove-attr", c.id, c.name) }

func (c *removeAttrCommand) Verb() string { return "remove-attr" }

// replaceRootCommand swaps the placeholder root of a fresh document for a
// real one. It is refused once the document has any content.
type replaceRootCommand struct {
	tree *XMLTree
	node Node
	old  Node
}

// NewReplaceRootCommand installs node as the root of a pristine tree.
func NewReplaceRootCommand(tree *XMLTree, node Node) Command {
	return &replaceRootCommand{tree: tree, node: leaf(node)}
}

func (c *replaceRootCommand) Apply() error {
	if !c.tree.isPristine() {
		return idError(ErrRootAlreadyEstablished, c.tree.RootID())
	}
	if c.node.ID == "" {
		return idError(ErrEmptyID, "")
	}
	for _, attr := range c.node.Attrs {
		if attr.Name == "id" {
			return idError(ErrAttributeProtected, c.node.ID)
		}
	}
	c.old = c.tree.release(c.tree.root)
	c.tree.root = c.tree.materialize(c.node, noHandle)
	return nil
}

func (c *replaceRootCommand) Revert() error {
	root := c.tree.slots[c.tree.root]
	if root.id != c.node.ID || len(root.children) > 0 {
		return inconsistent("根元素 %s 已被改动", c.node.ID)
	}
	c.tree.release(c.tree.root)
	c.tree.root = c.tree.materialize(c.old, noHandle)
	return nil
}

func (c *replaceRootCommand) Reapply() error { return c.Apply() }

func (c *replaceRootCommand) Label() string { return creationLabel("append-root", c.node) }

func (c *replaceRootCommand) Verb() string { return "append-root" }

func argValue(value string) string {
	if value == "" || strings.ContainsAny(value, " \t\n\"\\") {
		return QuoteArg(value)
	}
	return value
}
