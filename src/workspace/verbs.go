package workspace

import (
	"fmt"
	"strconv"
	"strings"

	"docedit/src/editor"
)

// Result is the outcome of a dispatched document verb.
type Result struct {
	Verb  string
	Label string
	Path  string
	// Lines carries output of read-only verbs.
	Lines []string
}

type textVerb func(doc *editor.TextDocument, args []string) (editor.Command, []string, error)

type xmlVerb func(tree *editor.XMLTree, args []string) (editor.Command, []string, error)

var textVerbs = map[string]textVerb{
	"append":  parseAppend,
	"insert":  parseInsert,
	"delete":  parseDelete,
	"replace": parseReplace,
	"show":    runShow,
}

var xmlVerbs = map[string]xmlVerb{
	"insert-before":  parseInsertBefore,
	"append-child":   parseAppendChild,
	"append-root":    parseAppendRoot,
	"edit-id":        parseEditID,
	"edit-text":      parseEditText,
	"delete":         parseDeleteElement,
	"delete-element": parseDeleteElement,
	"set-attr":       parseSetAttr,
	"remove-attr":    parseRemoveAttr,
	"xml-tree":       runXMLTree,
}

// IsDocumentVerb reports whether verb targets document content.
func IsDocumentVerb(verb string) bool {
	_, text := textVerbs[verb]
	_, xml := xmlVerbs[verb]
	return text || xml
}

// Dispatch parses verb arguments and runs them against the active document.
// Mutating verbs go through the document history; read-only verbs fill
// Result.Lines. Both publish a command notification.
func (w *Workspace) Dispatch(verb string, args []string) (Result, error) {
	doc, err := w.Active()
	if err != nil {
		return Result{}, err
	}
	var (
		cmd   editor.Command
		lines []string
	)
	switch doc.Kind() {
	case editor.KindText:
		parse, ok := textVerbs[verb]
		if !ok {
			return Result{}, unsupported(verb)
		}
		text, err := doc.Text()
		if err != nil {
			return Result{}, err
		}
		cmd, lines, err = parse(text, args)
		if err != nil {
			return Result{}, err
		}
	case editor.KindXML:
		parse, ok := xmlVerbs[verb]
		if !ok {
			return Result{}, unsupported(verb)
		}
		tree, err := doc.Tree()
		if err != nil {
			return Result{}, err
		}
		cmd, lines, err = parse(tree, args)
		if err != nil {
			return Result{}, err
		}
	}
	result := Result{Verb: verb, Path: doc.Path(), Lines: lines, Label: verb}
	if cmd != nil {
		label, err := doc.Execute(cmd)
		if err != nil {
			return Result{}, err
		}
		result.Verb = cmd.Verb()
		result.Label = label
	}
	w.Record(result.Verb, result.Label, result.Path)
	return result, nil
}

func unsupported(verb string) error {
	if IsDocumentVerb(verb) {
		return fmt.Errorf("%w: %s", editor.ErrWrongDocumentKind, verb)
	}
	return fmt.Errorf("%w: %s", ErrUnknownVerb, verb)
}

func parseAppend(doc *editor.TextDocument, args []string) (editor.Command, []string, error) {
	if len(args) != 1 {
		return nil, nil, usage(`append "text"`)
	}
	return editor.NewAppendCommand(doc, args[0]), nil, nil
}

func parseInsert(doc *editor.TextDocument, args []string) (editor.Command, []string, error) {
	if len(args) != 2 {
		return nil, nil, usage(`insert <line:col> "text"`)
	}
	pos, err := editor.ParsePosition(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return editor.NewInsertCommand(doc, pos, args[1]), nil, nil
}

func parseDelete(doc *editor.TextDocument, args []string) (editor.Command, []string, error) {
	if len(args) != 2 {
		return nil, nil, usage("delete <line:col> <len>")
	}
	pos, err := editor.ParsePosition(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	length, err := parseLength(args[1])
	if err != nil {
		return nil, nil, err
	}
	return editor.NewDeleteCommand(doc, pos, length), nil, nil
}

func parseReplace(doc *editor.TextDocument, args []string) (editor.Command, []string, error) {
	if len(args) != 3 {
		return nil, nil, usage(`replace <line:col> <len> "text"`)
	}
	pos, err := editor.ParsePosition(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	length, err := parseLength(args[1])
	if err != nil {
		return nil, nil, err
	}
	return editor.NewReplaceCommand(doc, pos, length, args[2]), nil, nil
}

func runShow(doc *editor.TextDocument, args []string) (editor.Command, []string, error) {
	var start, end int
	switch len(args) {
	case 0:
	case 1:
		var err error
		start, end, err = editor.ParseRange(args[0])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
		}
	default:
		return nil, nil, usage("show [start:end]")
	}
	seq, err := doc.Show(start, end)
	if err != nil {
		return nil, nil, err
	}
	var lines []string
	for n, line := range seq {
		lines = append(lines, fmt.Sprintf("%d: %s", n, line))
	}
	return nil, lines, nil
}

func parseLength(token string) (int, error) {
	length, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("%w: 长度无效: %s", ErrUsage, token)
	}
	return length, nil
}

// parseNode reads "<tag> <id> [anchor] [text] [k=v ...]". The first
// optional argument is the text unless it looks like an attribute.
func parseNode(args []string, anchors int) (editor.Node, []string, error) {
	fixed := 2 + anchors
	if len(args) < fixed {
		return editor.Node{}, nil, ErrUsage
	}
	node := editor.Node{Tag: args[0], ID: args[1]}
	rest := args[fixed:]
	if len(rest) > 0 && !isAttrArg(rest[0]) {
		node.Text = rest[0]
		rest = rest[1:]
	}
	for _, arg := range rest {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return editor.Node{}, nil, fmt.Errorf("%w: 属性参数无效: %s", ErrUsage, arg)
		}
		node.Attrs = append(node.Attrs, editor.Attribute{Name: name, Value: value})
	}
	return node, args[2:fixed], nil
}

func isAttrArg(arg string) bool {
	name, _, ok := strings.Cut(arg, "=")
	return ok && name != "" && !strings.ContainsAny(name, " \t\n")
}

func parseInsertBefore(tree *editor.XMLTree, args []string) (editor.Command, []string, error) {
	node, anchors, err := parseNode(args, 1)
	if err != nil {
		return nil, nil, withUsage(err, `insert-before <tag> <newId> <targetId> ["text"] [k=v ...]`)
	}
	return editor.NewInsertBeforeCommand(tree, node, anchors[0]), nil, nil
}

func parseAppendChild(tree *editor.XMLTree, args []string) (editor.Command, []string, error) {
	node, anchors, err := parseNode(args, 1)
	if err != nil {
		return nil, nil, withUsage(err, `append-child <tag> <newId> <parentId> ["text"] [k=v ...]`)
	}
	return editor.NewAppendChildCommand(tree, node, anchors[0]), nil, nil
}

func parseAppendRoot(tree *editor.XMLTree, args []string) (editor.Command, []string, error) {
	node, _, err := parseNode(args, 0)
	if err != nil {
		return nil, nil, withUsage(err, `append-root <tag> <id> ["text"] [k=v ...]`)
	}
	return editor.NewReplaceRootCommand(tree, node), nil, nil
}

func parseEditID(tree *editor.XMLTree, args []string) (editor.Command, []string, error) {
	if len(args) != 2 {
		return nil, nil, usage("edit-id <oldId> <newId>")
	}
	return editor.NewEditIDCommand(tree, args[0], args[1]), nil, nil
}

func parseEditText(tree *editor.XMLTree, args []string) (editor.Command, []string, error) {
	switch len(args) {
	case 1:
		return editor.NewEditTextCommand(tree, args[0], ""), nil, nil
	case 2:
		return editor.NewEditTextCommand(tree, args[0], args[1]), nil, nil
	default:
		return nil, nil, usage(`edit-text <id> ["text"]`)
	}
}

func parseDeleteElement(tree *editor.XMLTree, args []string) (editor.Command, []string, error) {
	if len(args) != 1 {
		return nil, nil, usage("delete <id>")
	}
	return editor.NewDeleteElementCommand(tree, args[0]), nil, nil
}

func parseSetAttr(tree *editor.XMLTree, args []string) (editor.Command, []string, error) {
	if len(args) != 3 {
		return nil, nil, usage(`set-attr <id> <name> "value"`)
	}
	return editor.NewSetAttrCommand(tree, args[0], args[1], args[2]), nil, nil
}

func parseRemoveAttr(tree *editor.XMLTree, args []string) (editor.Command, []string, error) {
	if len(args) != 2 {
		return nil, nil, usage("remove-attr <id> <name>")
	}
	return editor.NewRemoveAttrCommand(tree, args[0], args[1]), nil, nil
}

func runXMLTree(tree *editor.XMLTree, args []string) (editor.Command, []string, error) {
	if len(args) != 0 {
		return nil, nil, usage("xml-tree")
	}
	return nil, strings.Split(tree.TreeString(), "\n"), nil
}

func withUsage(err error, syntax string) error {
	if err == ErrUsage {
		return usage("%s", syntax)
	}
	return err
}
