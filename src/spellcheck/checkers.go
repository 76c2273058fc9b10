package spellcheck

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/sajari/fuzzy"
)

// DefaultMaxSuggestions caps the suggestions returned per word.
const DefaultMaxSuggestions = 3

const maxDistance = 2

var defaultDictionary = []string{
	"a", "an", "and", "api", "append", "author", "book", "bookstore", "child", "command",
	"config", "content", "cooking", "data", "delete", "definitely", "editor", "element",
	"english", "everyday", "file", "giada", "harry", "hello", "in", "is", "italian", "it",
	"language", "laurentiis", "list", "load", "log", "minute", "minutes", "node", "of",
	"occurred", "on", "parent", "please", "potter", "price", "receive", "redo", "root",
	"rowling", "save", "separate", "spell", "text", "the", "this", "title", "to", "tree",
	"undo", "updates", "with", "world", "xml", "year",
}

func dictionary(extra []string) map[string]struct{} {
	words := make(map[string]struct{}, len(defaultDictionary)+len(extra))
	for _, w := range defaultDictionary {
		words[w] = struct{}{}
	}
	for _, w := range extra {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			words[w] = struct{}{}
		}
	}
	return words
}

// SimpleChecker scans a small dictionary by edit distance.
type SimpleChecker struct {
	words map[string]struct{}
	limit int
}

// NewSimpleChecker builds a checker over the built-in dictionary plus extra words.
func NewSimpleChecker(extra ...string) *SimpleChecker {
	return &SimpleChecker{words: dictionary(extra), limit: DefaultMaxSuggestions}
}

// Check validates a word against the dictionary, returning candidate suggestions.
func (c *SimpleChecker) Check(word string) (bool, []string) {
	if c == nil {
		return true, nil
	}
	w := strings.ToLower(word)
	if _, ok := c.words[w]; ok {
		return true, nil
	}
	candidates := make([]string, 0, len(c.words))
	for dictWord := range c.words {
		candidates = append(candidates, dictWord)
	}
	return false, rank(w, candidates, c.limit)
}

// FuzzyChecker uses a trained fuzzy model to propose corrections.
type FuzzyChecker struct {
	words map[string]struct{}
	model *fuzzy.Model
	limit int
}

// NewFuzzyChecker trains a model on the built-in dictionary plus extra words.
func NewFuzzyChecker(extra []string, maxSuggestions int) *FuzzyChecker {
	if maxSuggestions <= 0 {
		maxSuggestions = DefaultMaxSuggestions
	}
	words := dictionary(extra)
	terms := make([]string, 0, len(words))
	for w := range words {
		terms = append(terms, w)
	}
	sort.Strings(terms)

	model := fuzzy.NewModel()
	model.SetThreshold(1)
	model.SetDepth(maxDistance)
	model.Train(terms)
	return &FuzzyChecker{words: words, model: model, limit: maxSuggestions}
}

// Check validates a word and asks the model for corrections. When the model
// has nothing to offer the dictionary is scanned directly.
func (c *FuzzyChecker) Check(word string) (bool, []string) {
	if c == nil {
		return true, nil
	}
	w := strings.ToLower(word)
	if _, ok := c.words[w]; ok {
		return true, nil
	}
	candidates := c.model.Suggestions(w, false)
	if len(candidates) == 0 {
		candidates = make([]string, 0, len(c.words))
		for dictWord := range c.words {
			candidates = append(candidates, dictWord)
		}
	}
	return false, rank(w, candidates, c.limit)
}

// rank keeps candidates within the edit distance bound, closest first.
func rank(word string, candidates []string, limit int) []string {
	type candidate struct {
		word string
		dist int
	}
	seen := map[string]struct{}{}
	var kept []candidate
	for _, cand := range candidates {
		if _, dup := seen[cand]; dup || cand == word {
			continue
		}
		seen[cand] = struct{}{}
		if dist := levenshtein.ComputeDistance(word, cand); dist <= maxDistance {
			kept = append(kept, candidate{word: cand, dist: dist})
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].dist == kept[j].dist {
			return kept[i].word < kept[j].word
		}
		return kept[i].dist < kept[j].dist
	})
	if len(kept) > limit {
		kept = kept[:limit]
	}
	result := make([]string, 0, len(kept))
	for _, c := range kept {
		result = append(result, c.word)
	}
	return result
}
