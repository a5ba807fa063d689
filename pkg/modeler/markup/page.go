package markup

import "strings"

// PageExtraction holds everything pulled out of one page body. Slice order
// follows document order.
type PageExtraction struct {
	Title      string
	Categories []string
	Anchors    []string
	Paragraphs []string
}

// Extract runs the link and paragraph scans over a single page body.
func Extract(title, body string) PageExtraction {
	return PageExtraction{
		Title:      strings.TrimSpace(title),
		Categories: ExtractLinks(body, Category),
		Anchors:    ExtractLinks(body, Anchor),
		Paragraphs: ExtractParagraphs(body),
	}
}
