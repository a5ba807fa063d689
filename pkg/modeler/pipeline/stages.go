package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/whatfield-ii/WikipediaSpecialExportModeler/internal/export"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/config"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/store"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/tagger"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/termmodel"
)

// Run executes the convert, tag and train stages in order and stops at the
// first failing stage.
func (p *Pipeline) Run(ctx context.Context) ([]store.Revision, error) {
	if err := p.Convert(ctx); err != nil {
		return nil, err
	}
	if err := p.Tag(ctx); err != nil {
		return nil, err
	}
	return p.Train(ctx)
}

// Convert turns every export whose file name names a category into
// <refined_xml>/<category>.xml. Exports that name no category, or that fail
// to parse, are logged and skipped.
func (p *Pipeline) Convert(ctx context.Context) error {
	dir := p.cfg.Dirs.SpecialExports
	names, err := listFiles(StageConvert, dir)
	if err != nil {
		return err
	}

	log := p.log.WithFields(map[string]any{"stage": StageConvert.String()})
	opts := export.Options{StripHTML: p.cfg.Preprocess.StripHTML}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		category, ok := config.ClassifyFileName(name, p.cfg.Categories)
		if !ok {
			log.Warn("export file not processed", "file", filepath.Join(dir, name))
			continue
		}

		in := filepath.Join(dir, name)
		out := p.cfg.RefinedPath(category)
		n, err := export.ConvertFile(in, out, opts)
		if err != nil {
			log.Error("export conversion failed", "file", in, "error", err)
			continue
		}
		log.Info("export converted", "file", in, "output", out, "pages", n)
	}
	return nil
}

// Tag reads up to paragraphs_per_page texts per page from every refined file,
// tags them and writes one file per text to <tagged_text>/<category>/NNNNNNN.
// A category's directory is emptied the first time the run writes to it and
// numbering continues across all refined files of that category.
func (p *Pipeline) Tag(ctx context.Context) error {
	dir := p.cfg.Dirs.RefinedXML
	names, err := listFiles(StageTag, dir)
	if err != nil {
		return err
	}

	log := p.log.WithFields(map[string]any{"stage": StageTag.String()})
	next := make(map[string]int)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		category, ok := config.ClassifyFileName(name, p.cfg.Categories)
		if !ok {
			log.Warn("refined file not parsed", "file", filepath.Join(dir, name))
			continue
		}

		path := filepath.Join(dir, name)
		texts, err := export.ReadRefinedFile(path, p.cfg.ParagraphsPerPage)
		if err != nil {
			log.Error("refined file not readable", "file", path, "error", err)
			continue
		}

		outDir := p.cfg.TaggedDir(category)
		start, seen := next[category]
		if !seen {
			if err := os.RemoveAll(outDir); err != nil {
				return fmt.Errorf("clear tagged dir: %w", err)
			}
		}
		written, err := p.tagTexts(ctx, texts, outDir, start)
		next[category] = start + written
		if err != nil {
			return err
		}
		log.Info("texts tagged", "file", path, "category", category, "texts", len(texts), "written", written)
	}

	if report := p.cfg.Dirs.TagReport; report != "" {
		if err := p.writeTagReport(report); err != nil {
			log.Error("tag report not written", "path", report, "error", err)
		}
	}
	return nil
}

// tagTexts writes the tagged texts to outDir numbered from start and returns
// how many were written.
func (p *Pipeline) tagTexts(ctx context.Context, texts []string, outDir string, start int) (int, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, fmt.Errorf("create tagged dir: %w", err)
	}

	written := 0
	for _, text := range texts {
		if p.lang != nil && !p.lang.Keep(text) {
			p.log.Debug("text dropped by language gate", "language", p.lang.Language())
			continue
		}
		tagged, err := p.tagger.Tag(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return written, ctx.Err()
			}
			p.log.Error("tagging failed", "error", err)
			continue
		}
		p.counter.Add(tagged)

		out := filepath.Join(outDir, fmt.Sprintf("%07d", start+written))
		if err := os.WriteFile(out, []byte(tagged), 0o644); err != nil {
			return written, fmt.Errorf("write tagged text: %w", err)
		}
		written++
	}
	return written, nil
}

func (p *Pipeline) writeTagReport(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := p.counter.WriteReport(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Train builds one model per category from its tagged texts and saves it
// under the category name.
func (p *Pipeline) Train(ctx context.Context) ([]store.Revision, error) {
	revs := make([]store.Revision, 0, len(p.cfg.Categories))
	for _, category := range p.cfg.Categories {
		rev, err := p.TrainCategory(ctx, category)
		if err != nil {
			return revs, err
		}
		revs = append(revs, rev)
	}
	return revs, nil
}

// TrainCategory trains and saves the model of a single category.
func (p *Pipeline) TrainCategory(ctx context.Context, category string) (store.Revision, error) {
	dir := p.cfg.TaggedDir(category)
	names, err := listFiles(StageTrain, dir)
	if err != nil {
		return store.Revision{}, err
	}

	log := p.log.WithFields(map[string]any{"stage": StageTrain.String(), "category": category})
	m := termmodel.New()
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return store.Revision{}, err
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			log.Error("tagged text not readable", "file", path, "error", err)
			continue
		}
		for _, unit := range tagger.KeepSuffixes(string(data), p.cfg.KeepSuffixes) {
			m.PushTerm(unit)
		}
	}
	m.ComputeProbabilities()
	log.Debug("model trained", "dump", strings.TrimSpace(m.String()))

	rev, err := p.store.SaveModel(ctx, category, m)
	if err != nil {
		return store.Revision{}, fmt.Errorf("save model %s: %w", category, err)
	}
	log.Info("model saved", "revision", rev.ID, "terms", rev.Vocabulary, "total", rev.TotalTermCount)
	return rev, nil
}
