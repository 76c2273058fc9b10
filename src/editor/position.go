package editor

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Position is a 1-based line:column address as typed by the user.
// Columns count runes, not bytes.
type Position struct {
	Line int
	Col  int
}

// At builds a Position.
func At(line, col int) Position {
	return Position{Line: line, Col: col}
}

// String renders the position in line:col form.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// index returns the 0-based line index and rune offset.
func (p Position) index() (int, int) {
	return p.Line - 1, p.Col - 1
}

// ParsePosition parses a "line:col" token.
func ParsePosition(token string) (Position, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return Position{}, fmt.Errorf("位置参数无效: %s", token)
	}
	line, err := strconv.Atoi(parts[0])
	if err != nil {
		return Position{}, fmt.Errorf("行号无效: %s", parts[0])
	}
	col, err := strconv.Atoi(parts[1])
	if err != nil {
		return Position{}, fmt.Errorf("列号无效: %s", parts[1])
	}
	return Position{Line: line, Col: col}, nil
}

// ParseRange parses "start:end", "start:", ":end" or a single line number.
// Zero means "open".
func ParseRange(token string) (int, int, error) {
	if !strings.Contains(token, ":") {
		start, err := strconv.Atoi(token)
		if err != nil {
			return 0, 0, fmt.Errorf("范围无效: %s", token)
		}
		return start, start, nil
	}
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("范围无效: %s", token)
	}
	var start, end int
	var err error
	if parts[0] != "" {
		start, err = strconv.Atoi(parts[0])
		if err != nil {
			return 0, 0, fmt.Errorf("起始行无效: %s", parts[0])
		}
	}
	if parts[1] != "" {
		end, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, fmt.Errorf("结束行无效: %s", parts[1])
		}
	}
	return start, end, nil
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// splitAt cuts s at a 0-based rune offset.
func splitAt(s string, offset int) (string, string) {
	runes := []rune(s)
	return string(runes[:offset]), string(runes[offset:])
}

// splitSegments breaks inserted text on newline separators.
func splitSegments(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}
