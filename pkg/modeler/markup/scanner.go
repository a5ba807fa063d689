// Package markup scans wiki markup page bodies and extracts paragraph text,
// category labels and anchor targets. All functions are pure and safe to call
// from multiple goroutines.
package markup

import (
	"strings"
	"unicode"
)

// paragraphBoundary is the number of top-level '=' characters that close a
// paragraph. A level two heading ("== Title ==") contributes exactly four.
const paragraphBoundary = 4

// ExtractParagraphs splits a page body into cleaned paragraphs.
//
// Template content ({{...}}, nested included) is dropped. Every fourth
// top-level '=' flushes the buffer as one paragraph, so the letters of a
// heading title end up as the trailing words of the paragraph before it.
// Text after the last flush is not returned.
func ExtractParagraphs(text string) []string {
	var paragraphs []string
	var current strings.Builder
	braceDepth := 0
	equalsCount := 0

	for _, r := range text {
		switch r {
		case '{':
			braceDepth++
		case '}':
			braceDepth--
		}
		if braceDepth > 0 {
			continue
		}

		if r == '=' {
			equalsCount++
		}
		if equalsCount == paragraphBoundary {
			paragraphs = append(paragraphs, current.String())
			current.Reset()
			equalsCount = 0
		}

		appendFiltered(&current, r)
	}

	return paragraphs
}

// Normalize returns the text of a page body up to its first heading, cleaned
// the same way as ExtractParagraphs. Scanning stops at the first pair of
// consecutive top-level '=' characters.
func Normalize(text string) string {
	runes := []rune(text)
	var sb strings.Builder
	braceDepth := 0

	for i, r := range runes {
		switch r {
		case '{':
			braceDepth++
		case '}':
			braceDepth--
		}
		if braceDepth > 0 {
			continue
		}
		if r == '=' && i+1 < len(runes) && runes[i+1] == '=' {
			break
		}

		appendFiltered(&sb, r)
	}

	return sb.String()
}

// appendFiltered keeps letters and digits, turns each whitespace rune into a
// single space and drops everything else.
func appendFiltered(sb *strings.Builder, r rune) {
	switch {
	case unicode.IsLetter(r) || unicode.IsDigit(r):
		sb.WriteRune(r)
	case unicode.IsSpace(r):
		sb.WriteByte(' ')
	}
}
