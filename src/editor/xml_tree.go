package editor

import (
	"iter"
	"slices"
	"sort"
	"strings"
)

// Attribute is one name/value pair; order is preserved for display and save.
type Attribute struct {
	Name  string
	Value string
}

// Node is a detached copy of an element and its subtree.
// It is used to build trees, to capture deleted subtrees and for snapshots.
type Node struct {
	Tag      string
	ID       string
	Attrs    []Attribute
	Text     string
	Children []Node
}

// NodeView is one entry of a depth-first rendering of the tree.
type NodeView struct {
	Depth int
	Tag   string
	ID    string
	Attrs []Attribute
	Text  string
}

type handle int

const noHandle handle = -1

type element struct {
	id       string
	tag      string
	attrs    []Attribute
	text     string
	parent   handle
	children []handle
}

// XMLTree stores elements in an arena addressed by handles. Parent/child
// links own the elements; index is a lookup table from id to handle.
type XMLTree struct {
	slots []*element
	free  []handle
	index map[string]handle
	root  handle
}

// PlaceholderRoot is the root every new XML buffer starts with.
func PlaceholderRoot() Node {
	return Node{Tag: "root", ID: "root"}
}

// NewXMLTree creates a tree holding only the placeholder root.
func NewXMLTree() *XMLTree {
	t := &XMLTree{index: map[string]handle{}}
	t.root = t.materialize(PlaceholderRoot(), noHandle)
	return t
}

// NewXMLTreeFrom builds a tree from a node hierarchy, enforcing unique ids.
func NewXMLTreeFrom(root Node) (*XMLTree, error) {
	seen := map[string]struct{}{}
	if err := validateNode(root, seen); err != nil {
		return nil, err
	}
	t := &XMLTree{index: map[string]handle{}}
	t.root = t.materialize(root, noHandle)
	return t, nil
}

func validateNode(n Node, seen map[string]struct{}) error {
	if n.ID == "" {
		return idError(ErrEmptyID, n.Tag)
	}
	if _, exists := seen[n.ID]; exists {
		return idError(ErrDuplicateID, n.ID)
	}
	seen[n.ID] = struct{}{}
	for _, attr := range n.Attrs {
		if attr.Name == "id" {
			return idError(ErrAttributeProtected, n.ID)
		}
	}
	for _, child := range n.Children {
		if err := validateNode(child, seen); err != nil {
			return err
		}
	}
	return nil
}

// RootID returns the id of the root element.
func (t *XMLTree) RootID() string {
	return t.slots[t.root].id
}

// Len returns the number of indexed elements.
func (t *XMLTree) Len() int {
	return len(t.index)
}

// Has reports whether id is present in the index.
func (t *XMLTree) Has(id string) bool {
	_, ok := t.index[id]
	return ok
}

// IDs lists all indexed ids in sorted order.
func (t *XMLTree) IDs() []string {
	ids := make([]string, 0, len(t.index))
	for id := range t.index {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot copies the whole tree.
func (t *XMLTree) Snapshot() Node {
	return t.snapshot(t.root)
}

// Lookup copies the subtree rooted at id.
func (t *XMLTree) Lookup(id string) (Node, bool) {
	h, ok := t.index[id]
	if !ok {
		return Node{}, false
	}
	return t.snapshot(h), true
}

// Render walks the tree depth-first in pre-order.
func (t *XMLTree) Render() iter.Seq[NodeView] {
	return func(yield func(NodeView) bool) {
		t.walk(t.root, 0, yield)
	}
}

func (t *XMLTree) walk(h handle, depth int, yield func(NodeView) bool) bool {
	el := t.slots[h]
	view := NodeView{
		Depth: depth,
		Tag:   el.tag,
		ID:    el.id,
		Attrs: slices.Clone(el.attrs),
		Text:  el.text,
	}
	if !yield(view) {
		return false
	}
	for _, child := range el.children {
		if !t.walk(child, depth+1, yield) {
			return false
		}
	}
	return true
}

// Spans lists element texts for spell checking, tagged with the element id.
func (t *XMLTree) Spans() []Span {
	var spans []Span
	for view := range t.Render() {
		if strings.TrimSpace(view.Text) == "" {
			continue
		}
		spans = append(spans, Span{Source: SourceXML, ElementID: view.ID, Text: strings.TrimSpace(view.Text)})
	}
	return spans
}

// TreeString renders the tree with box-drawing connectors.
func (t *XMLTree) TreeString() string {
	lines := []string{formatNodeLabel(t.slots[t.root])}
	t.renderBranches(t.root, "", &lines)
	return strings.Join(lines, "\n")
}

func (t *XMLTree) renderBranches(h handle, prefix string, lines *[]string) {
	el := t.slots[h]
	textPresent := strings.TrimSpace(el.text) != ""
	for i, child := range el.children {
		connector := "├── "
		nextPrefix := prefix + "│   "
		if i == len(el.children)-1 && !textPresent {
			connector = "└── "
			nextPrefix = prefix + "    "
		}
		*lines = append(*lines, prefix+connector+formatNodeLabel(t.slots[child]))
		t.renderBranches(child, nextPrefix, lines)
	}
	if textPresent {
		*lines = append(*lines, prefix+"└── \""+el.text+"\"")
	}
}

func formatNodeLabel(el *element) string {
	parts := make([]string, 0, len(el.attrs)+1)
	parts = append(parts, "id=\""+el.id+"\"")
	for _, attr := range el.attrs {
		parts = append(parts, attr.Name+"=\""+attr.Value+"\"")
	}
	return el.tag + " [" + strings.Join(parts, ", ") + "]"
}

func (t *XMLTree) lookup(id string) (handle, *element, error) {
	h, ok := t.index[id]
	if !ok {
		return noHandle, nil, idError(ErrNoSuchElement, id)
	}
	return h, t.slots[h], nil
}

func (t *XMLTree) isPristine() bool {
	el := t.slots[t.root]
	return el.tag == "root" && el.id == "root" && len(el.children) == 0 &&
		len(el.attrs) == 0 && el.text == ""
}

func (t *XMLTree) alloc(el *element) handle {
	if n := len(t.free); n > 0 {
		h := t.free[n-1]
		t.free = t.free[:n-1]
		t.slots[h] = el
		return h
	}
	t.slots = append(t.slots, el)
	return handle(len(t.slots) - 1)
}

// materialize allocates n and its descendants and registers every id.
func (t *XMLTree) materialize(n Node, parent handle) handle {
	h := t.alloc(&element{
		id:     n.ID,
		tag:    n.Tag,
		attrs:  slices.Clone(n.Attrs),
		text:   n.Text,
		parent: parent,
	})
	t.index[n.ID] = h
	children := make([]handle, 0, len(n.Children))
	for _, child := range n.Children {
		children = append(children, t.materialize(child, h))
	}
	t.slots[h].children = children
	return h
}

func (t *XMLTree) snapshot(h handle) Node {
	el := t.slots[h]
	n := Node{Tag: el.tag, ID: el.id, Attrs: slices.Clone(el.attrs), Text: el.text}
	for _, child := range el.children {
		n.Children = append(n.Children, t.snapshot(child))
	}
	return n
}

// release detaches h from its parent, purges every id of the subtree from the
// index and only then frees the arena slots. It returns the removed subtree.
func (t *XMLTree) release(h handle) Node {
	removed := t.snapshot(h)
	if parent := t.slots[h].parent; parent != noHandle {
		p := t.slots[parent]
		p.children = slices.DeleteFunc(p.children, func(c handle) bool { return c == h })
	}
	var subtree []handle
	t.collect(h, &subtree)
	for _, sh := range subtree {
		delete(t.index, t.slots[sh].id)
	}
	for _, sh := range subtree {
		t.slots[sh] = nil
		t.free = append(t.free, sh)
	}
	return removed
}

func (t *XMLTree) collect(h handle, acc *[]handle) {
	*acc = append(*acc, h)
	for _, child := range t.slots[h].children {
		t.collect(child, acc)
	}
}

// attach inserts n under parent at position pos.
func (t *XMLTree) attach(parent handle, pos int, n Node) handle {
	h := t.materialize(n, parent)
	p := t.slots[parent]
	p.children = slices.Insert(p.children, pos, h)
	return h
}

func (t *XMLTree) childPosition(h handle) int {
	parent := t.slots[h].parent
	if parent == noHandle {
		return -1
	}
	return slices.Index(t.slots[parent].children, h)
}

func (t *XMLTree) conflicts(n Node) bool {
	if t.Has(n.ID) {
		return true
	}
	for _, child := range n.Children {
		if t.conflicts(child) {
			return true
		}
	}
	return false
}

func (t *XMLTree) rename(h handle, newID string) {
	el := t.slots[h]
	delete(t.index, el.id)
	el.id = newID
	t.index[newID] = h
}

func attrSlot(attrs []Attribute, name string) int {
	return slices.IndexFunc(attrs, func(a Attribute) bool { return a.Name == name })
}
