// Package report ranks category models against an input model.
package report

import (
	"crypto/rand"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/termmodel"
)

// Builder constructs classification reports
type Builder struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// New creates a new report builder
func New() *Builder {
	return &Builder{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Score is the similarity of the input to one category model. Untrained
// marks a model with no terms: a missing model, one that failed to load, or
// one trained on nothing. Its score is kept as computed but it never ranks
// above a trained model and is never Best.
type Score struct {
	Label     string  `json:"label" yaml:"label"`
	Score     float64 `json:"score" yaml:"score"`
	Untrained bool    `json:"untrained,omitempty" yaml:"untrained,omitempty"`
}

// Report is the outcome of classifying one input
type Report struct {
	ID         string    `json:"id" yaml:"id"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	InputTerms int64     `json:"input_terms" yaml:"input_terms"`
	Scores     []Score   `json:"scores" yaml:"scores"`
	Best       string    `json:"best" yaml:"best"`
}

// Build scores input against every model. Each score is
// models[label].Classify(input); trained models come first, then scores are
// sorted highest first with ties broken by label. Best is empty when no
// model is trained.
func (b *Builder) Build(input *termmodel.Model, models map[string]*termmodel.Model) Report {
	b.mu.Lock()
	id := ulid.MustNew(ulid.Now(), b.entropy)
	b.mu.Unlock()

	r := Report{
		ID:         id.String(),
		CreatedAt:  ulid.Time(id.Time()).UTC(),
		InputTerms: input.TotalTermCount(),
		Scores:     make([]Score, 0, len(models)),
	}
	for label, m := range models {
		r.Scores = append(r.Scores, Score{
			Label:     label,
			Score:     m.Classify(input),
			Untrained: m.ModelSize() == 0,
		})
	}
	sort.Slice(r.Scores, func(i, j int) bool {
		if r.Scores[i].Untrained != r.Scores[j].Untrained {
			return !r.Scores[i].Untrained
		}
		if r.Scores[i].Score != r.Scores[j].Score {
			return r.Scores[i].Score > r.Scores[j].Score
		}
		return r.Scores[i].Label < r.Scores[j].Label
	})
	if len(r.Scores) > 0 && !r.Scores[0].Untrained {
		r.Best = r.Scores[0].Label
	}
	return r
}

// Untrained returns the labels of the untrained models in the report.
func (r Report) Untrained() []string {
	var labels []string
	for _, s := range r.Scores {
		if s.Untrained {
			labels = append(labels, s.Label)
		}
	}
	return labels
}

// WriteText prints the report as "label: score" lines, best first.
func (r Report) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "report %s (%d input terms)\n", r.ID, r.InputTerms); err != nil {
		return err
	}
	for _, s := range r.Scores {
		format := "%s: %g\n"
		if s.Untrained {
			format = "%s: %g (untrained)\n"
		}
		if _, err := fmt.Fprintf(w, format, s.Label, s.Score); err != nil {
			return err
		}
	}
	if r.Best != "" {
		if _, err := fmt.Fprintf(w, "best: %s\n", r.Best); err != nil {
			return err
		}
	}
	return nil
}
