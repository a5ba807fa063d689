package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/config"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/internalerr"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/store/memstore"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/termmodel"
)

const (
	womenBody   = "She wrote her notes and she said her work was hers. == Life =="
	menBody     = "He built his engine and he sold it. == Life =="
	objectsBody = "It is a machine and its gears turn while it runs and it stops because its parts wear. == Design =="
)

func exportDoc(title, body string) string {
	return fmt.Sprintf(`<mediawiki><page><title>%s</title><revision><text>%s</text></revision></page></mediawiki>`, title, body)
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Dirs.SpecialExports = filepath.Join(root, "special_exports")
	cfg.Dirs.RefinedXML = filepath.Join(root, "refined_xml")
	cfg.Dirs.TaggedText = filepath.Join(root, "tagged_text")
	cfg.Dirs.ModelFiles = filepath.Join(root, "model_files")
	return cfg
}

func writeExports(t *testing.T, cfg config.Config) {
	t.Helper()
	require.NoError(t, os.MkdirAll(cfg.Dirs.SpecialExports, 0o755))
	files := map[string]string{
		"Wikipedia-Women.xml":   exportDoc("Ada", womenBody),
		"Wikipedia-Men.xml":     exportDoc("Charles", menBody),
		"Wikipedia-Objects.xml": exportDoc("Engine", objectsBody),
		"Wikipedia-Places.xml":  exportDoc("London", "A city. == History =="),
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.Dirs.SpecialExports, name), []byte(content), 0o644))
	}
}

func newPipeline(t *testing.T, cfg config.Config) (*Pipeline, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	p, err := New(Options{Config: cfg, Store: st})
	require.NoError(t, err)
	return p, st
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Options{Config: config.Default()})
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))

	cfg := config.Default()
	cfg.Categories = nil
	_, err = New(Options{Config: cfg, Store: memstore.New()})
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))
}

func TestStageErrors(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	p, _ := newPipeline(t, cfg)

	var stageErr *StageError

	err := p.Convert(ctx)
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageConvert, stageErr.Stage)
	assert.Equal(t, 1, stageErr.ExitCode())
	assert.True(t, errors.Is(err, internalerr.ErrEmptyDirectory))

	err = p.Tag(ctx)
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, 2, stageErr.ExitCode())

	_, err = p.Train(ctx)
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, 3, stageErr.ExitCode())
	assert.Equal(t, cfg.TaggedDir("objects"), stageErr.Dir)

	// a directory holding only subdirectories is empty
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Dirs.SpecialExports, "nested"), 0o755))
	err = p.Convert(ctx)
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageConvert, stageErr.Stage)
}

func TestRunStopsAtFirstStage(t *testing.T) {
	cfg := testConfig(t)
	p, st := newPipeline(t, cfg)

	_, err := p.Run(context.Background())
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageConvert, stageErr.Stage)

	names, _ := st.ListModels(context.Background())
	assert.Empty(t, names)
}

func TestRunBuildsModels(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Dirs.TagReport = filepath.Join(cfg.Dirs.TaggedText, "report.txt")
	writeExports(t, cfg)
	p, st := newPipeline(t, cfg)

	revs, err := p.Run(ctx)
	require.NoError(t, err)
	require.Len(t, revs, 3)

	for _, category := range cfg.Categories {
		assert.FileExists(t, cfg.RefinedPath(category))
		assert.FileExists(t, filepath.Join(cfg.TaggedDir(category), "0000000"))
	}
	assert.NoFileExists(t, filepath.Join(cfg.Dirs.RefinedXML, "places.xml"))

	tagged, err := os.ReadFile(filepath.Join(cfg.TaggedDir("women"), "0000000"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(tagged), "She_PRP wrote_"), "got %q", tagged)

	women, err := st.LoadModel(ctx, "women")
	require.NoError(t, err)
	assert.Equal(t, int64(5), women.TotalTermCount())
	assert.Equal(t, int64(2), women.TermCount("her_PRP$"))
	assert.InDelta(t, 0.4, women.TermProbability("her_PRP$"), 1e-12)
	assert.False(t, women.Contains("wrote_VBD"))

	objects, err := st.LoadModel(ctx, "objects")
	require.NoError(t, err)
	assert.Equal(t, 3, objects.ModelSize())

	assert.Equal(t, int64(2), p.Counter().Count("her_PRP$"))
	report, err := os.ReadFile(cfg.Dirs.TagReport)
	require.NoError(t, err)
	assert.Contains(t, string(report), "her_PRP$ -> 2\n")
}

func TestTagRespectsParagraphDepth(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.Dirs.SpecialExports, 0o755))
	body := "She ran. == A == He ran. == B == It ran. == C =="
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dirs.SpecialExports, "women.xml"), []byte(exportDoc("W", body)), 0o644))

	cfg.ParagraphsPerPage = 2
	p, _ := newPipeline(t, cfg)
	require.NoError(t, p.Convert(ctx))
	require.NoError(t, p.Tag(ctx))

	entries, err := os.ReadDir(cfg.TaggedDir("women"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestTagNumbersAcrossFilesAndClearsStaleOutput(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.Dirs.SpecialExports, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dirs.SpecialExports, "women.xml"), []byte(exportDoc("W", womenBody)), 0o644))

	p, _ := newPipeline(t, cfg)
	require.NoError(t, p.Convert(ctx))

	refined, err := os.ReadFile(filepath.Join(cfg.Dirs.RefinedXML, "women.xml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dirs.RefinedXML, "women-extra.xml"), refined, 0o644))

	taggedDir := cfg.TaggedDir("women")
	require.NoError(t, os.MkdirAll(taggedDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(taggedDir, "0000099"), []byte("stale_PRP"), 0o644))

	require.NoError(t, p.Tag(ctx))

	entries, err := os.ReadDir(taggedDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"0000000", "0000001"}, names)
}

type failingTagger struct{}

func (failingTagger) Tag(context.Context, string) (string, error) {
	return "", errors.New("tagger unavailable")
}

func TestTagSkipsFailedTexts(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	writeExports(t, cfg)

	p, err := New(Options{Config: cfg, Store: memstore.New(), Tagger: failingTagger{}})
	require.NoError(t, err)
	require.NoError(t, p.Convert(ctx))
	require.NoError(t, p.Tag(ctx))

	entries, _ := os.ReadDir(cfg.TaggedDir("women"))
	assert.Empty(t, entries)
	assert.Equal(t, 0, p.Counter().Len())
}

func TestClassify(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	writeExports(t, cfg)
	p, _ := newPipeline(t, cfg)
	_, err := p.Run(ctx)
	require.NoError(t, err)

	r, err := p.Classify(ctx, "she said her work")
	require.NoError(t, err)
	require.Len(t, r.Scores, 3)
	assert.Equal(t, "women", r.Best)
	assert.InDelta(t, 0.02, r.Scores[0].Score, 1e-12)
	assert.Equal(t, "men", r.Scores[1].Label)
	assert.Equal(t, "objects", r.Scores[2].Label)
	assert.InDelta(t, 1.0/64, r.Scores[1].Score, 1e-12)
	assert.Equal(t, int64(2), r.InputTerms)
}

func TestClassifyWithoutModels(t *testing.T) {
	p, _ := newPipeline(t, testConfig(t))
	r, err := p.Classify(context.Background(), "he said")
	require.NoError(t, err)
	// empty models smooth by 1/0
	assert.Len(t, r.Scores, 3)
	assert.Empty(t, r.Best)
	assert.Equal(t, []string{"men", "objects", "women"}, r.Untrained())
}

func TestClassifyIgnoresMissingModelForBest(t *testing.T) {
	ctx := context.Background()
	p, st := newPipeline(t, testConfig(t))
	men := termmodel.New()
	men.PushTerm("he_PRP")
	men.ComputeProbabilities()
	_, err := st.SaveModel(ctx, "men", men)
	require.NoError(t, err)

	r, err := p.Classify(ctx, "he said")
	require.NoError(t, err)
	assert.Equal(t, "men", r.Best)
	assert.Equal(t, "men", r.Scores[0].Label)
	assert.False(t, r.Scores[0].Untrained)
	assert.Equal(t, []string{"objects", "women"}, r.Untrained())
}

func TestModelNormalizesMarkup(t *testing.T) {
	p, _ := newPipeline(t, testConfig(t))
	m, err := p.Model(context.Background(), "{{Infobox|she}} [[He]] met her. == Later == they")
	require.NoError(t, err)
	assert.True(t, m.Contains("He_PRP"))
	assert.True(t, m.Contains("her_PRP$"))
	assert.False(t, m.Contains("she_PRP"))
	assert.False(t, m.Contains("they_PRP"))
}

func TestIsExportChange(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "women.xml")
	hidden := filepath.Join(dir, ".women.xml.swp")
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(hidden, []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(sub, 0o755))

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"create file", fsnotify.Event{Name: file, Op: fsnotify.Create}, true},
		{"write file", fsnotify.Event{Name: file, Op: fsnotify.Write}, true},
		{"chmod file", fsnotify.Event{Name: file, Op: fsnotify.Chmod}, false},
		{"remove file", fsnotify.Event{Name: filepath.Join(dir, "gone.xml"), Op: fsnotify.Remove}, false},
		{"hidden file", fsnotify.Event{Name: hidden, Op: fsnotify.Create}, false},
		{"directory", fsnotify.Event{Name: sub, Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isExportChange(tt.ev))
		})
	}
}

func TestWatchDebouncesExportChanges(t *testing.T) {
	cfg := testConfig(t)
	p, _ := newPipeline(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- p.Watch(ctx, 100*time.Millisecond, func(context.Context) error {
			calls <- struct{}{}
			return nil
		})
	}()

	// give the watcher time to register the directory
	require.Eventually(t, func() bool {
		_, err := os.Stat(cfg.Dirs.SpecialExports)
		return err == nil
	}, time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)

	for i := 0; i < 3; i++ {
		name := filepath.Join(cfg.Dirs.SpecialExports, fmt.Sprintf("women-%d.xml", i))
		require.NoError(t, os.WriteFile(name, []byte("x"), 0o644))
	}

	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("watch callback not called")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.LessOrEqual(t, len(calls), 1)
}
