package editor

import "strings"

// Command is an invertible unit of change bound to one document.
//
// Apply validates completely before mutating, so a failed Apply leaves the
// document untouched. Revert undoes exactly what the last Apply or Reapply did
// using the payload captured at that time.
type Command interface {
	Apply() error
	Revert() error
	Reapply() error
	// Label is the command line that reproduces the change.
	Label() string
	// Verb is the command-line verb this command implements.
	Verb() string
}

// QuoteArg renders a free-text argument the way the command line accepts it.
func QuoteArg(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 2)
	b.WriteByte('"')
	for _, r := range text {
		switch r {
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func labelOf(parts ...string) string {
	return strings.Join(parts, " ")
}
