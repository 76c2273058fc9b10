package editor

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// XMLDeclaration is written as the first markup line of every saved tree.
const XMLDeclaration = `<?xml version="1.0" encoding="UTF-8"?>`

// ParseXML reads a saved tree. A leading "# log" directive line is returned
// separately as header; it is not part of the markup.
func ParseXML(data []byte) (string, Node, error) {
	header, body := splitHeader(string(data))
	root, err := parseXML(strings.NewReader(body))
	if err != nil {
		return "", Node{}, err
	}
	return header, root, nil
}

func splitHeader(content string) (string, string) {
	trimmed := strings.TrimLeft(content, "\r\n\t ")
	if !strings.HasPrefix(trimmed, "# log") {
		return "", content
	}
	line, rest, _ := strings.Cut(trimmed, "\n")
	return strings.TrimSpace(line), rest
}

func parseXML(reader io.Reader) (Node, error) {
	decoder := xml.NewDecoder(reader)
	var stack []*Node
	var root *Node
	ids := map[string]struct{}{}

	for {
		token, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Node{}, fmt.Errorf("XML 解析失败: %w", err)
		}
		switch tok := token.(type) {
		case xml.StartElement:
			node := &Node{Tag: tok.Name.Local}
			for _, attr := range tok.Attr {
				if attr.Name.Local == "id" {
					node.ID = attr.Value
					continue
				}
				node.Attrs = append(node.Attrs, Attribute{Name: attr.Name.Local, Value: attr.Value})
			}
			if node.ID == "" {
				return Node{}, idError(ErrEmptyID, node.Tag)
			}
			if _, exists := ids[node.ID]; exists {
				return Node{}, idError(ErrDuplicateID, node.ID)
			}
			ids[node.ID] = struct{}{}
			if len(stack) == 0 {
				if root != nil {
					return Node{}, errors.New("XML 只能有一个根元素")
				}
				root = node
			}
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) == 0 {
				return Node{}, errors.New("XML 结构不匹配")
			}
			done := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, *done)
			}
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			data := strings.TrimSpace(string(tok))
			if data == "" {
				continue
			}
			current := stack[len(stack)-1]
			if current.Text == "" {
				current.Text = data
			} else {
				current.Text += " " + data
			}
		}
	}

	if root == nil {
		return Node{}, errors.New("未找到根元素")
	}
	if len(stack) > 0 {
		return Node{}, errors.New("XML 结构不匹配")
	}
	return *root, nil
}

// SerializeXML writes the tree with four-space indentation. The id attribute
// always comes first.
func SerializeXML(header string, tree *XMLTree) string {
	var buf bytes.Buffer
	if header != "" {
		buf.WriteString(header)
		buf.WriteString("\n")
	}
	buf.WriteString(XMLDeclaration)
	buf.WriteString("\n")
	writeNode(&buf, tree.Snapshot(), 0)
	return buf.String()
}

func writeNode(buf *bytes.Buffer, node Node, depth int) {
	indent := strings.Repeat("    ", depth)
	attrText := formatAttributes(node)
	if len(node.Children) == 0 {
		fmt.Fprintf(buf, "%s<%s%s>%s</%s>\n", indent, node.Tag, attrText, escapeText(node.Text), node.Tag)
		return
	}
	fmt.Fprintf(buf, "%s<%s%s>\n", indent, node.Tag, attrText)
	if node.Text != "" {
		fmt.Fprintf(buf, "%s    %s\n", indent, escapeText(node.Text))
	}
	for _, child := range node.Children {
		writeNode(buf, child, depth+1)
	}
	fmt.Fprintf(buf, "%s</%s>\n", indent, node.Tag)
}

func formatAttributes(node Node) string {
	parts := make([]string, 0, len(node.Attrs)+1)
	parts = append(parts, fmt.Sprintf("id=\"%s\"", escapeText(node.ID)))
	for _, attr := range node.Attrs {
		parts = append(parts, fmt.Sprintf("%s=\"%s\"", attr.Name, escapeText(attr.Value)))
	}
	return " " + strings.Join(parts, " ")
}

func escapeText(text string) string {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(text)); err != nil {
		return text
	}
	return buf.String()
}
