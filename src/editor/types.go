package editor

// Kind enumerates supported document kinds.
type Kind string

const (
	// KindText represents a line-oriented plain text document.
	KindText Kind = "text"
	// KindXML represents an id-indexed XML tree.
	KindXML Kind = "xml"
)

// ParseKind maps a user-supplied type name to a Kind.
func ParseKind(name string) (Kind, bool) {
	switch Kind(name) {
	case KindText, KindXML:
		return Kind(name), true
	default:
		return "", false
	}
}

// Span sources.
const (
	SourceText = "text"
	SourceXML  = "xml"
)

// Span is a piece of checkable text together with where it lives.
// Text spans carry a line number, XML spans carry the owning element id.
type Span struct {
	Source    string
	Line      int
	ElementID string
	Text      string
}
