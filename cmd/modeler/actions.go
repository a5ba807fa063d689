package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/config"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/internalerr"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/langdetect"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/logging"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/pipeline"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/store"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/store/filestore"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/store/sqlite"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/tagger"
)

// loadConfig reads --config, or the defaults, and applies logging flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Logging.Format = c.String("log-format")
	}
	if c.IsSet("log-source") {
		cfg.Logging.AddSource = c.Bool("log-source")
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (logging.Logger, error) {
	provider, err := logging.NewProvider(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	return provider.GetLogger("modeler"), nil
}

func openStore(ctx context.Context, cfg config.Config) (store.ModelStore, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		return sqlite.OpenSQLite(ctx, cfg.Store.Path)
	case config.DriverFile:
		return filestore.Open(cfg.ModelDir())
	}
	return nil, fmt.Errorf("%w: unknown store driver %q", internalerr.ErrInvalidConfig, cfg.Store.Driver)
}

func newTagger(cfg config.Config) (tagger.Tagger, error) {
	if cfg.Tagger.Kind == config.TaggerExec {
		return tagger.NewExec(cfg.Tagger.Command)
	}
	return tagger.NewRules(), nil
}

// buildPipeline wires everything a command needs. The returned cleanup
// closes the model store.
func buildPipeline(c *cli.Context) (*pipeline.Pipeline, func(), error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	tg, err := newTagger(cfg)
	if err != nil {
		return nil, nil, err
	}

	var lang *langdetect.Filter
	if cfg.Language.Keep != "" {
		lang, err = langdetect.New(cfg.Language.Keep, cfg.Language.Candidates)
		if err != nil {
			return nil, nil, err
		}
	}

	st, err := openStore(c.Context, cfg)
	if err != nil {
		return nil, nil, err
	}

	p, err := pipeline.New(pipeline.Options{
		Config:   cfg,
		Store:    st,
		Tagger:   tg,
		Language: lang,
		Logger:   log,
	})
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := st.Close(); err != nil {
			log.Warn("closing model store", "error", err)
		}
	}
	return p, cleanup, nil
}

func runAction(c *cli.Context) error {
	p, cleanup, err := buildPipeline(c)
	if err != nil {
		return err
	}
	defer cleanup()

	revs, err := p.Run(c.Context)
	if err != nil {
		return err
	}
	printRevisions(c, revs)
	return nil
}

func convertAction(c *cli.Context) error {
	p, cleanup, err := buildPipeline(c)
	if err != nil {
		return err
	}
	defer cleanup()
	return p.Convert(c.Context)
}

func tagAction(c *cli.Context) error {
	p, cleanup, err := buildPipeline(c)
	if err != nil {
		return err
	}
	defer cleanup()
	return p.Tag(c.Context)
}

func trainAction(c *cli.Context) error {
	p, cleanup, err := buildPipeline(c)
	if err != nil {
		return err
	}
	defer cleanup()

	revs, err := p.Train(c.Context)
	printRevisions(c, revs)
	return err
}

func printRevisions(c *cli.Context, revs []store.Revision) {
	for _, rev := range revs {
		fmt.Fprintf(c.App.Writer, "%s\t%s\tterms=%d\ttotal=%d\n", rev.Name, rev.ID, rev.Vocabulary, rev.TotalTermCount)
	}
}

func classifyAction(c *cli.Context) error {
	text := c.String("text")
	if path := c.String("file"); path != "" {
		if text != "" {
			return fmt.Errorf("%w: use either --text or --file", internalerr.ErrInvalidInput)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: nothing to classify, pass --text or --file", internalerr.ErrInvalidInput)
	}

	p, cleanup, err := buildPipeline(c)
	if err != nil {
		return err
	}
	defer cleanup()

	r, err := p.Classify(c.Context, text)
	if err != nil {
		return err
	}

	switch c.String("format") {
	case "yaml":
		enc := yaml.NewEncoder(c.App.Writer)
		defer enc.Close()
		return enc.Encode(r)
	case "text", "":
		return r.WriteText(c.App.Writer)
	}
	return fmt.Errorf("%w: unknown format %q", internalerr.ErrInvalidInput, c.String("format"))
}

type revisionLister interface {
	Revisions(ctx context.Context, name string) ([]store.Revision, error)
}

func inspectAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	st, err := openStore(c.Context, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	name := c.String("model")
	if name == "" {
		names, err := st.ListModels(c.Context)
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(c.App.Writer, n)
		}
		return nil
	}

	m, err := st.LoadModel(c.Context, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "# %s: %d terms, %d total\n", name, m.ModelSize(), m.TotalTermCount())
	fmt.Fprint(c.App.Writer, m.String())

	if rl, ok := st.(revisionLister); ok {
		revs, err := rl.Revisions(c.Context, name)
		if err != nil {
			return err
		}
		for _, rev := range revs {
			fmt.Fprintf(c.App.Writer, "# revision %s %s total=%d\n", rev.ID, rev.CreatedAt.Format("2006-01-02T15:04:05Z"), rev.TotalTermCount)
		}
	}
	return nil
}

func watchAction(c *cli.Context) error {
	p, cleanup, err := buildPipeline(c)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = p.Watch(ctx, c.Duration("debounce"), func(ctx context.Context) error {
		_, err := p.Run(ctx)
		return err
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
