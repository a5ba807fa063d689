package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/internalerr"
)

// Config is the full pipeline configuration
type Config struct {
	Dirs              Dirs             `yaml:"dirs" toml:"dirs"`
	Categories        []string         `yaml:"categories" toml:"categories"`
	ParagraphsPerPage int              `yaml:"paragraphs_per_page" toml:"paragraphs_per_page"`
	KeepSuffixes      []string         `yaml:"keep_suffixes" toml:"keep_suffixes"`
	Tagger            TaggerConfig     `yaml:"tagger" toml:"tagger"`
	Store             StoreConfig      `yaml:"store" toml:"store"`
	Preprocess        PreprocessConfig `yaml:"preprocess" toml:"preprocess"`
	Language          LanguageConfig   `yaml:"language" toml:"language"`
	Logging           LoggingConfig    `yaml:"logging" toml:"logging"`
}

// Dirs lists the working directories of the three pipeline stages
type Dirs struct {
	SpecialExports string `yaml:"special_exports" toml:"special_exports"`
	RefinedXML     string `yaml:"refined_xml" toml:"refined_xml"`
	TaggedText     string `yaml:"tagged_text" toml:"tagged_text"`
	ModelFiles     string `yaml:"model_files" toml:"model_files"`
	// TagReport, when set, receives the "unit -> count" report of every
	// tagged unit seen during the tag stage.
	TagReport string `yaml:"tag_report" toml:"tag_report"`
}

// TaggerConfig selects the part-of-speech tagger
type TaggerConfig struct {
	Kind    string   `yaml:"kind" toml:"kind"` // rules | exec
	Command []string `yaml:"command" toml:"command"`
}

// StoreConfig selects where trained models are persisted
type StoreConfig struct {
	Driver string `yaml:"driver" toml:"driver"` // file | sqlite
	Path   string `yaml:"path" toml:"path"`
}

// PreprocessConfig controls cleanup applied to page bodies before scanning
type PreprocessConfig struct {
	StripHTML bool `yaml:"strip_html" toml:"strip_html"`
}

// LanguageConfig enables the language gate in front of the tagger
type LanguageConfig struct {
	Keep       string   `yaml:"keep" toml:"keep"`
	Candidates []string `yaml:"candidates" toml:"candidates"`
}

// LoggingConfig feeds the logging provider
type LoggingConfig struct {
	Level     string `yaml:"level" toml:"level"`
	Format    string `yaml:"format" toml:"format"`
	AddSource bool   `yaml:"add_source" toml:"add_source"`
}

// Store drivers
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Tagger kinds
const (
	TaggerRules = "rules"
	TaggerExec  = "exec"
)

// Default returns the configuration the modeler runs with when no file is
// given.
func Default() Config {
	return Config{
		Dirs: Dirs{
			SpecialExports: "files/special_exports",
			RefinedXML:     "files/refined_xml",
			TaggedText:     "files/tagged_text",
			ModelFiles:     "files/model_files",
		},
		Categories:        []string{"objects", "women", "men"},
		ParagraphsPerPage: 1,
		KeepSuffixes:      []string{"_PRP", "_PRP$"},
		Tagger:            TaggerConfig{Kind: TaggerRules},
		Store:             StoreConfig{Driver: DriverFile},
		Language: LanguageConfig{
			Candidates: []string{"english", "french", "german", "spanish"},
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load reads a YAML or TOML file (chosen by extension) on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("%w: unsupported config extension %q", internalerr.ErrInvalidConfig, filepath.Ext(path))
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: parse %s: %v", internalerr.ErrInvalidConfig, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Dirs),
		validation.Field(&c.Categories, validation.Required, validation.Each(validation.By(categoryName))),
		validation.Field(&c.ParagraphsPerPage, validation.Required, validation.Min(1)),
		validation.Field(&c.KeepSuffixes, validation.Required),
		validation.Field(&c.Tagger),
		validation.Field(&c.Store, validation.By(func(any) error {
			if c.Store.Driver == DriverFile && c.ModelDir() == "" {
				return validation.NewError("store_location", "file store needs dirs.model_files or store.path")
			}
			return nil
		})),
		validation.Field(&c.Language),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	return nil
}

func categoryName(value any) error {
	name, _ := value.(string)
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, `/\`) {
		return validation.NewError("category_name", fmt.Sprintf("bad category name %q", name))
	}
	return nil
}

// Validate requires the three stage directories.
func (d Dirs) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.SpecialExports, validation.Required),
		validation.Field(&d.RefinedXML, validation.Required),
		validation.Field(&d.TaggedText, validation.Required),
	)
}

func (t TaggerConfig) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Kind, validation.Required, validation.In(TaggerRules, TaggerExec)),
		validation.Field(&t.Command, validation.When(t.Kind == TaggerExec, validation.Required)),
	)
}

func (s StoreConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Driver, validation.Required, validation.In(DriverFile, DriverSQLite)),
		validation.Field(&s.Path, validation.When(s.Driver == DriverSQLite, validation.Required)),
	)
}

// Validate needs two candidates or more once a language is kept.
func (l LanguageConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Candidates, validation.When(l.Keep != "", validation.Required, validation.Length(2, 0))),
	)
}

// TaggedDir returns the directory holding tagged text for a category.
func (c Config) TaggedDir(category string) string {
	return filepath.Join(c.Dirs.TaggedText, category)
}

// RefinedPath returns the refined XML file for a category.
func (c Config) RefinedPath(category string) string {
	return filepath.Join(c.Dirs.RefinedXML, category+".xml")
}

// ModelDir returns the directory used by the file store.
func (c Config) ModelDir() string {
	if c.Store.Driver == DriverFile && c.Store.Path != "" {
		return c.Store.Path
	}
	return c.Dirs.ModelFiles
}

// ClassifyFileName returns the first category whose name appears in the file
// name, ignoring case. Order matters: with the default categories "women" is
// tried before "men".
func ClassifyFileName(name string, categories []string) (string, bool) {
	lower := strings.ToLower(name)
	for _, cat := range categories {
		if strings.Contains(lower, strings.ToLower(cat)) {
			return cat, true
		}
	}
	return "", false
}
