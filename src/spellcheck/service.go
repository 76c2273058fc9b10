package spellcheck

import (
	"fmt"
	"strings"
	"unicode"

	"docedit/src/editor"
)

// Checker validates words and returns suggestions for corrections.
type Checker interface {
	Check(word string) (bool, []string)
}

// Service runs a Checker over the text spans of a document.
type Service struct {
	checker Checker
}

// NewService constructs a spell check service.
func NewService(checker Checker) *Service {
	return &Service{checker: checker}
}

// Issue is one misspelled word. Text findings carry Line and Column,
// XML findings carry the owning ElementID.
type Issue struct {
	Source      string
	Line        int
	Column      int
	ElementID   string
	Word        string
	Suggestions []string
}

// Location describes where the issue was found.
func (i Issue) Location() string {
	if i.Source == editor.SourceXML {
		return "元素 " + i.ElementID
	}
	return fmt.Sprintf("第%d行，第%d列", i.Line, i.Column)
}

// Check evaluates every span.
func (s *Service) Check(spans []editor.Span) []Issue {
	if s == nil || s.checker == nil {
		return nil
	}
	var issues []Issue
	for _, span := range spans {
		for _, pos := range extractWordPositions(span.Text) {
			if len(pos.word) < 2 {
				continue
			}
			ok, suggestions := s.checker.Check(pos.word)
			if ok {
				continue
			}
			issue := Issue{
				Source:      span.Source,
				Word:        pos.word,
				Suggestions: suggestions,
			}
			if span.Source == editor.SourceXML {
				issue.ElementID = span.ElementID
			} else {
				issue.Line = span.Line
				issue.Column = pos.column
			}
			issues = append(issues, issue)
		}
	}
	return issues
}

type wordPosition struct {
	word   string
	column int
}

// extractWordPositions splits a line into letter runs with 1-based rune columns.
func extractWordPositions(line string) []wordPosition {
	var result []wordPosition
	var builder strings.Builder
	column := 1
	startColumn := 1
	for _, r := range line {
		if unicode.IsLetter(r) && r < unicode.MaxASCII {
			if builder.Len() == 0 {
				startColumn = column
			}
			builder.WriteRune(r)
		} else if builder.Len() > 0 {
			result = append(result, wordPosition{word: builder.String(), column: startColumn})
			builder.Reset()
		}
		column++
	}
	if builder.Len() > 0 {
		result = append(result, wordPosition{word: builder.String(), column: startColumn})
	}
	return result
}
