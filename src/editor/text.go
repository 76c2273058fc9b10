package editor

import (
	"iter"
	"slices"
	"strings"
)

// TextDocument holds plain text as an ordered list of lines.
type TextDocument struct {
	lines []string
}

// NewTextDocument copies lines into a new document.
func NewTextDocument(lines []string) *TextDocument {
	return &TextDocument{lines: cloneLines(lines)}
}

// Lines returns a copy of the document lines.
func (d *TextDocument) Lines() []string {
	return cloneLines(d.lines)
}

// LineCount returns the number of lines.
func (d *TextDocument) LineCount() int {
	return len(d.lines)
}

// Content joins the lines with single newlines.
func (d *TextDocument) Content() string {
	return strings.Join(d.lines, "\n")
}

// Show returns the lines in the inclusive 1-based range [start, end].
// Zero start means the first line, zero end means the last line.
// The range is validated immediately; lines are produced lazily.
func (d *TextDocument) Show(start, end int) (iter.Seq2[int, string], error) {
	if len(d.lines) == 0 {
		return func(func(int, string) bool) {}, nil
	}
	if start == 0 {
		start = 1
	}
	if end == 0 {
		end = len(d.lines)
	}
	if start < 1 || start > len(d.lines) {
		return nil, lineError(ErrLineOutOfRange, start)
	}
	if end < start || end > len(d.lines) {
		return nil, lineError(ErrLineOutOfRange, end)
	}
	return func(yield func(int, string) bool) {
		for i := start - 1; i < end && i < len(d.lines); i++ {
			if !yield(i+1, d.lines[i]) {
				return
			}
		}
	}, nil
}

// Spans lists every line for spell checking.
func (d *TextDocument) Spans() []Span {
	spans := make([]Span, 0, len(d.lines))
	for i, line := range d.lines {
		spans = append(spans, Span{Source: SourceText, Line: i + 1, Text: line})
	}
	return spans
}

func (d *TextDocument) checkLine(line int) error {
	if line < 1 || line > len(d.lines) {
		return lineError(ErrLineOutOfRange, line)
	}
	return nil
}

func (d *TextDocument) checkInsert(p Position) error {
	if len(d.lines) == 0 {
		if p.Line != 1 {
			return posError(ErrLineOutOfRange, p)
		}
		if p.Col != 1 {
			return posError(ErrColumnOutOfRange, p)
		}
		return nil
	}
	if err := d.checkLine(p.Line); err != nil {
		return err
	}
	if p.Col < 1 || p.Col > runeLen(d.lines[p.Line-1])+1 {
		return posError(ErrColumnOutOfRange, p)
	}
	return nil
}

func (d *TextDocument) checkDelete(p Position, length int) error {
	if err := d.checkLine(p.Line); err != nil {
		return err
	}
	lineLen := runeLen(d.lines[p.Line-1])
	if p.Col < 1 || p.Col > lineLen+1 {
		return posError(ErrColumnOutOfRange, p)
	}
	if length < 1 {
		return posError(ErrInvalidLength, p)
	}
	if p.Col-1+length > lineLen {
		return posError(ErrDeleteExceedsLine, p)
	}
	return nil
}

// checkReplace also accepts a zero length, which turns replace into an insertion.
func (d *TextDocument) checkReplace(p Position, length int) error {
	if length != 0 {
		return d.checkDelete(p, length)
	}
	if err := d.checkLine(p.Line); err != nil {
		return err
	}
	if p.Col < 1 || p.Col > runeLen(d.lines[p.Line-1])+1 {
		return posError(ErrColumnOutOfRange, p)
	}
	return nil
}

// appendLines adds segments at the end and returns the index of the first one.
func (d *TextDocument) appendLines(segments []string) int {
	start := len(d.lines)
	d.lines = append(d.lines, segments...)
	return start
}

func (d *TextDocument) removeAppended(start int, segments []string) error {
	end := start + len(segments)
	if start < 0 || end > len(d.lines) || !slices.Equal(d.lines[start:end], segments) {
		return inconsistent("追加的行已不在第 %d 行", start+1)
	}
	d.lines = slices.Delete(d.lines, start, end)
	return nil
}

// insertText splices text into a validated position. It reports whether the
// first line had to be created because the document was empty.
func (d *TextDocument) insertText(p Position, text string) bool {
	created := false
	if len(d.lines) == 0 {
		d.lines = []string{""}
		created = true
	}
	idx, col := p.index()
	prefix, suffix := splitAt(d.lines[idx], col)
	segments := splitSegments(text)
	if len(segments) == 1 {
		d.lines[idx] = prefix + segments[0] + suffix
		return created
	}
	replacement := make([]string, 0, len(segments))
	replacement = append(replacement, prefix+segments[0])
	replacement = append(replacement, segments[1:len(segments)-1]...)
	replacement = append(replacement, segments[len(segments)-1]+suffix)
	d.lines = slices.Replace(d.lines, idx, idx+1, replacement...)
	return created
}

// removeInserted is the exact inverse of insertText.
func (d *TextDocument) removeInserted(p Position, text string, created bool) error {
	segments := splitSegments(text)
	idx, col := p.index()
	last := idx + len(segments) - 1
	if idx < 0 || last >= len(d.lines) || col > runeLen(d.lines[idx]) {
		return inconsistent("插入位置 %s 已失效", p)
	}
	prefix, rest := splitAt(d.lines[idx], col)
	var restored string
	if len(segments) == 1 {
		if !strings.HasPrefix(rest, segments[0]) {
			return inconsistent("第 %d 行不包含插入的文本", p.Line)
		}
		restored = prefix + rest[len(segments[0]):]
	} else {
		if rest != segments[0] {
			return inconsistent("第 %d 行不包含插入的文本", p.Line)
		}
		for i := 1; i < len(segments)-1; i++ {
			if d.lines[idx+i] != segments[i] {
				return inconsistent("第 %d 行不包含插入的文本", p.Line+i)
			}
		}
		tail := d.lines[last]
		lastSegment := segments[len(segments)-1]
		if !strings.HasPrefix(tail, lastSegment) {
			return inconsistent("第 %d 行不包含插入的文本", last+1)
		}
		restored = prefix + tail[len(lastSegment):]
	}
	d.lines = slices.Replace(d.lines, idx, last+1, restored)
	if created && len(d.lines) == 1 && d.lines[0] == "" {
		d.lines = d.lines[:0]
	}
	return nil
}

// cut removes length runes at a validated position and returns them.
func (d *TextDocument) cut(p Position, length int) string {
	idx, col := p.index()
	runes := []rune(d.lines[idx])
	removed := string(runes[col : col+length])
	d.lines[idx] = string(runes[:col]) + string(runes[col+length:])
	return removed
}

// uncut puts back text taken by cut.
func (d *TextDocument) uncut(p Position, removed string) error {
	if len(d.lines) == 0 {
		return inconsistent("文档为空，无法恢复删除的文本")
	}
	if err := d.checkInsert(p); err != nil {
		return inconsistent("删除位置 %s 已失效", p)
	}
	idx, col := p.index()
	prefix, suffix := splitAt(d.lines[idx], col)
	d.lines[idx] = prefix + removed + suffix
	return nil
}

func cloneLines(src []string) []string {
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}

// SplitLines turns file content into lines, dropping one trailing newline.
func SplitLines(data string) []string {
	if data == "" {
		return []string{}
	}
	data = strings.ReplaceAll(data, "\r\n", "\n")
	lines := strings.Split(data, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
