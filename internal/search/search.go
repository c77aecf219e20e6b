// Package search does a fresh, case-insensitive substring scan over every
// section's canonical file.
package search

import (
	"context"
	"strings"
	"unicode"

	"github.com/starford/onebridge/internal/models"
)

const (
	// MaxResults caps the returned results; no relevance ranking is applied.
	MaxResults = 30
	// SnippetRadius is the number of characters kept on each side of a match.
	SnippetRadius = 80

	ellipsis = "..."
)

// Result is one matching text fragment.
type Result struct {
	Notebook string `json:"notebook"`
	Section  string `json:"section"`
	Snippet  string `json:"snippet"`
}

// TextSource yields the text fragments of a section file.
type TextSource interface {
	ExtractText(ctx context.Context, path string) []string
}

// Search scans notebooks and sections in sorted order and returns at most
// MaxResults results in generation order, plus the total number of matching
// fragments. Each fragment contributes one result anchored at its first match.
func Search(ctx context.Context, cat *models.Catalog, src TextSource, query string) ([]Result, int) {
	q := []rune(strings.ToLower(query))
	if len(q) == 0 {
		return nil, 0
	}

	var results []Result
	total := 0
	for _, nbName := range cat.NotebookNames() {
		nb, _ := cat.Notebook(nbName)
		for _, key := range nb.SectionNames() {
			s, _ := nb.Section(key)
			for _, text := range src.ExtractText(ctx, s.Canonical.Path) {
				snippet, ok := snippetRunes([]rune(text), q)
				if !ok {
					continue
				}
				total++
				if len(results) < MaxResults {
					results = append(results, Result{Notebook: nbName, Section: key, Snippet: snippet})
				}
			}
		}
	}
	return results, total
}

// Snippet returns the window around the first case-insensitive occurrence of
// query in text, and whether there was one.
func Snippet(text, query string) (string, bool) {
	return snippetRunes([]rune(text), []rune(strings.ToLower(query)))
}

func snippetRunes(text, lowerQuery []rune) (string, bool) {
	if len(lowerQuery) == 0 {
		return "", false
	}
	idx := indexFold(text, lowerQuery)
	if idx < 0 {
		return "", false
	}
	start := max(0, idx-SnippetRadius)
	end := min(len(text), idx+len(lowerQuery)+SnippetRadius)

	snippet := strings.TrimSpace(string(text[start:end]))
	if start > 0 {
		snippet = ellipsis + snippet
	}
	if end < len(text) {
		snippet += ellipsis
	}
	return snippet, true
}

// indexFold returns the rune offset of the first occurrence of lowerQuery in
// text, comparing text lowercased rune by rune.
func indexFold(text, lowerQuery []rune) int {
	n := len(lowerQuery)
outer:
	for i := 0; i+n <= len(text); i++ {
		for j := 0; j < n; j++ {
			if unicode.ToLower(text[i+j]) != lowerQuery[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}
