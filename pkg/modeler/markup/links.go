package markup

import "strings"

// LinkKind selects which wiki links ExtractLinks returns.
type LinkKind int

const (
	// Category links look like [[Category:Name]].
	Category LinkKind = iota
	// Anchor links are every other [[target|label]] link.
	Anchor
)

// CategoryPrefix marks a wiki link as a category tag.
const CategoryPrefix = "Category:"

func (k LinkKind) String() string {
	switch k {
	case Category:
		return "category"
	case Anchor:
		return "anchor"
	default:
		return "unknown"
	}
}

// ExtractLinks returns the classified content of every [[...]] link in text,
// in document order. Links inside templates are ignored, and links that
// classify to an empty string are skipped.
func ExtractLinks(text string, kind LinkKind) []string {
	runes := []rune(text)
	var links []string
	var raw strings.Builder
	reading := false
	braceDepth := 0

	for i := 0; i < len(runes); i++ {
		current := runes[i]
		var next rune
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		// Braces inside a link are captured verbatim.
		if !reading {
			switch current {
			case '{':
				braceDepth++
			case '}':
				braceDepth--
			}
		}
		if braceDepth > 0 {
			continue
		}

		switch {
		case current == '[' && next == '[':
			raw.Reset()
			reading = true
			i++
		case current == ']' && next == ']' && reading:
			if link := ClassifyLink(raw.String(), kind); link != "" {
				links = append(links, link)
			}
			reading = false
			i++
		case reading:
			raw.WriteRune(current)
		}
	}

	return links
}

// ClassifyLink maps the raw content of one wiki link to its category name or
// anchor target. An empty result means the link does not belong to kind.
func ClassifyLink(raw string, kind LinkKind) string {
	switch kind {
	case Category:
		if strings.HasPrefix(raw, CategoryPrefix) {
			return raw[len(CategoryPrefix):]
		}
	case Anchor:
		if strings.HasPrefix(raw, CategoryPrefix) {
			return ""
		}
		target, _, _ := strings.Cut(raw, "|")
		return target
	}
	return ""
}
