// Package langdetect gates paragraphs by language before they reach the
// tagger, which only understands one language.
package langdetect

import (
	"fmt"
	"strings"

	"github.com/pemistahl/lingua-go"

	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/internalerr"
)

// Filter keeps text detected as one language out of a candidate set.
type Filter struct {
	detector lingua.LanguageDetector
	keep     lingua.Language
}

// New builds a filter that keeps text in the language named keep. Detection
// chooses among candidates, which must name at least two languages and
// include keep. Names are matched case-insensitively ("english", "French").
func New(keep string, candidates []string) (*Filter, error) {
	keepLang, ok := lookup(keep)
	if !ok {
		return nil, fmt.Errorf("%w: unknown language %q", internalerr.ErrInvalidConfig, keep)
	}

	langs := make([]lingua.Language, 0, len(candidates)+1)
	seen := make(map[lingua.Language]struct{})
	for _, name := range append([]string{keep}, candidates...) {
		lang, ok := lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown language %q", internalerr.ErrInvalidConfig, name)
		}
		if _, dup := seen[lang]; dup {
			continue
		}
		seen[lang] = struct{}{}
		langs = append(langs, lang)
	}
	if len(langs) < 2 {
		return nil, fmt.Errorf("%w: language detection needs at least two languages", internalerr.ErrInvalidConfig)
	}

	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(langs...).
		Build()

	return &Filter{detector: detector, keep: keepLang}, nil
}

// Keep reports whether text should be passed on. Text whose language cannot
// be determined reliably is kept.
func (f *Filter) Keep(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	lang, ok := f.detector.DetectLanguageOf(text)
	if !ok {
		return true
	}
	return lang == f.keep
}

// Language returns the name of the kept language.
func (f *Filter) Language() string {
	return f.keep.String()
}

func lookup(name string) (lingua.Language, bool) {
	name = strings.TrimSpace(name)
	for _, lang := range lingua.AllLanguages() {
		if strings.EqualFold(lang.String(), name) {
			return lang, true
		}
	}
	return lingua.Unknown, false
}
