package pipeline

import (
	"context"
	"fmt"

	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/markup"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/report"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/store"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/tagger"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/termmodel"
)

// Model normalizes and tags text and returns a computed model of its kept
// units.
func (p *Pipeline) Model(ctx context.Context, text string) (*termmodel.Model, error) {
	normalized := markup.Normalize(text)
	tagged, err := p.tagger.Tag(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("tag input: %w", err)
	}

	m := termmodel.New()
	for _, unit := range tagger.KeepSuffixes(tagged, p.cfg.KeepSuffixes) {
		m.PushTerm(unit)
	}
	m.ComputeProbabilities()
	return m, nil
}

// Classify scores text against the stored model of every category. Models
// that are missing or unreadable score as empty models and are reported as
// untrained.
func (p *Pipeline) Classify(ctx context.Context, text string) (report.Report, error) {
	input, err := p.Model(ctx, text)
	if err != nil {
		return report.Report{}, err
	}

	models := make(map[string]*termmodel.Model, len(p.cfg.Categories))
	for _, category := range p.cfg.Categories {
		models[category] = store.LoadOrEmpty(ctx, p.store, category, p.log)
	}

	r := p.reports.Build(input, models)
	if untrained := r.Untrained(); len(untrained) > 0 {
		p.log.Warn("untrained models excluded from best", "report", r.ID, "models", untrained)
	}
	p.log.Info("text classified", "report", r.ID, "best", r.Best, "input_terms", r.InputTerms)
	return r, nil
}
