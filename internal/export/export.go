// Package export converts Wikipedia Special:Export dumps into the refined
// page documents the tagging stage reads.
package export

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/internalerr"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/markup"
)

// RootElement names the root of a refined document.
const RootElement = "ProcessedSpecialExportData"

// Options controls how page bodies are read.
type Options struct {
	// StripHTML removes HTML tags and decodes entities in page bodies
	// before extraction.
	StripHTML bool
}

type exportPage struct {
	Title     string `xml:"title"`
	Revisions []struct {
		Text *string `xml:"text"`
	} `xml:"revision"`
}

func (p exportPage) body() string {
	for _, rev := range p.Revisions {
		if rev.Text != nil {
			return *rev.Text
		}
	}
	return ""
}

// ReadSpecialExport decodes a Special:Export document and extracts every
// page in document order. Elements are matched by local name, so any export
// schema version is accepted.
func ReadSpecialExport(r io.Reader, opts Options) ([]markup.PageExtraction, error) {
	dec := xml.NewDecoder(r)
	var pages []markup.PageExtraction
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: special export: %v", internalerr.ErrInvalidInput, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "page" {
			continue
		}

		var p exportPage
		if err := dec.DecodeElement(&p, &start); err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", internalerr.ErrInvalidInput, len(pages)+1, err)
		}
		body := p.body()
		if opts.StripHTML {
			body = markup.StripHTML(body)
		}
		pages = append(pages, markup.Extract(p.Title, body))
	}
	return pages, nil
}

// RefinedPage is one page of a refined document. Categories and Anchors hold
// each item prefixed by a single space.
type RefinedPage struct {
	Title      string   `xml:"title"`
	Texts      []string `xml:"text"`
	Categories string   `xml:"categories"`
	Anchors    string   `xml:"anchors"`
}

type refinedDoc struct {
	XMLName xml.Name      `xml:"ProcessedSpecialExportData"`
	Pages   []RefinedPage `xml:"page"`
}

// Refine converts an extraction into its refined form.
func Refine(p markup.PageExtraction) RefinedPage {
	return RefinedPage{
		Title:      p.Title,
		Texts:      p.Paragraphs,
		Categories: joinList(p.Categories),
		Anchors:    joinList(p.Anchors),
	}
}

func joinList(items []string) string {
	var sb strings.Builder
	for _, s := range items {
		sb.WriteByte(' ')
		sb.WriteString(s)
	}
	return sb.String()
}

// WriteRefined writes pages as a refined document.
func WriteRefined(w io.Writer, pages []markup.PageExtraction) error {
	doc := refinedDoc{Pages: make([]RefinedPage, 0, len(pages))}
	for _, p := range pages {
		doc.Pages = append(doc.Pages, Refine(p))
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode refined document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ReadRefined decodes a refined document.
func ReadRefined(r io.Reader) ([]RefinedPage, error) {
	var doc refinedDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: refined document: %v", internalerr.ErrInvalidInput, err)
	}
	return doc.Pages, nil
}

// ReadRefinedTexts returns up to depth texts of every page, flattened in
// document order.
func ReadRefinedTexts(r io.Reader, depth int) ([]string, error) {
	pages, err := ReadRefined(r)
	if err != nil {
		return nil, err
	}
	var texts []string
	for _, p := range pages {
		for i, t := range p.Texts {
			if i >= depth {
				break
			}
			texts = append(texts, t)
		}
	}
	return texts, nil
}

// ConvertFile reads the export at exportPath and writes the refined document
// to refinedPath, creating its directory. It returns the number of pages.
func ConvertFile(exportPath, refinedPath string, opts Options) (int, error) {
	in, err := os.Open(exportPath)
	if err != nil {
		return 0, fmt.Errorf("open export %s: %w", exportPath, err)
	}
	defer in.Close()

	pages, err := ReadSpecialExport(in, opts)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", exportPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(refinedPath), 0o755); err != nil {
		return 0, fmt.Errorf("create refined dir: %w", err)
	}
	out, err := os.Create(refinedPath)
	if err != nil {
		return 0, fmt.Errorf("create refined file %s: %w", refinedPath, err)
	}
	if err := WriteRefined(out, pages); err != nil {
		out.Close()
		return 0, err
	}
	if err := out.Close(); err != nil {
		return 0, err
	}
	return len(pages), nil
}

// ReadRefinedFile is ReadRefinedTexts for a file path.
func ReadRefinedFile(path string, depth int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open refined %s: %w", path, err)
	}
	defer f.Close()
	return ReadRefinedTexts(f, depth)
}
