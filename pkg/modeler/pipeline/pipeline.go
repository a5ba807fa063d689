// Package pipeline drives the convert, tag and train stages that turn
// Special:Export dumps into persisted category models, and classifies new
// text against those models.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/config"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/internalerr"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/langdetect"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/logging"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/report"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/store"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/tagger"
)

// Stage identifies one step of the pipeline. Its value is the process exit
// status used when the stage cannot start.
type Stage int

const (
	StageConvert Stage = 1
	StageTag     Stage = 2
	StageTrain   Stage = 3
)

func (s Stage) String() string {
	switch s {
	case StageConvert:
		return "convert"
	case StageTag:
		return "tag"
	case StageTrain:
		return "train"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// StageError reports a stage that could not run because its input
// directory was empty or missing.
type StageError struct {
	Stage Stage
	Dir   string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %s: %v", e.Stage, e.Dir, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ExitCode is the process status for this failure.
func (e *StageError) ExitCode() int { return int(e.Stage) }

// Options configures a Pipeline. Store and Config are required.
type Options struct {
	Config   config.Config
	Store    store.ModelStore
	Tagger   tagger.Tagger
	Language *langdetect.Filter
	Counter  *tagger.Counter
	Logger   logging.Logger
}

// Pipeline runs the modeler stages for one configuration.
//
// A Pipeline is not safe for concurrent use: stages share the tag counter.
type Pipeline struct {
	cfg     config.Config
	store   store.ModelStore
	tagger  tagger.Tagger
	lang    *langdetect.Filter
	counter *tagger.Counter
	reports *report.Builder
	log     logging.Logger
}

// New validates opts and builds a pipeline. A nil Tagger selects the
// built-in rules tagger; a nil Counter gets a fresh one.
func New(opts Options) (*Pipeline, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: pipeline needs a model store", internalerr.ErrInvalidConfig)
	}

	p := &Pipeline{
		cfg:     opts.Config,
		store:   opts.Store,
		tagger:  opts.Tagger,
		lang:    opts.Language,
		counter: opts.Counter,
		reports: report.New(),
		log:     opts.Logger,
	}
	if p.tagger == nil {
		p.tagger = tagger.NewRules()
	}
	if p.counter == nil {
		p.counter = tagger.NewCounter()
	}
	if p.log == nil {
		p.log = logging.NoOp()
	}
	return p, nil
}

// Counter returns the tag counter the tag stage accumulates into.
func (p *Pipeline) Counter() *tagger.Counter { return p.counter }

// Config returns the pipeline configuration.
func (p *Pipeline) Config() config.Config { return p.cfg }

// listFiles returns the regular files in dir sorted by name. A missing or
// empty directory is a StageError for stage.
func listFiles(stage Stage, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, &StageError{Stage: stage, Dir: dir, Err: err}
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, &StageError{Stage: stage, Dir: dir, Err: internalerr.ErrEmptyDirectory}
	}
	sort.Strings(names)
	return names, nil
}
