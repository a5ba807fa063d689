package termmodel

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/internalerr"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/logging"
)

// snapshot is the persisted form of a model. Terms are stored as records
// sorted by term rather than as mapping keys, so that terms such as "<<" or
// "null" come back as plain strings. Probabilities are written with the
// shortest representation that parses back to the same float64.
type snapshot struct {
	TotalTermCount int64       `yaml:"total_term_count"`
	Terms          []termEntry `yaml:"terms"`
}

type termEntry struct {
	Term        string  `yaml:"term"`
	Count       int64   `yaml:"count"`
	Probability float64 `yaml:"probability"`
}

// Encode writes a snapshot of the model to w.
func (m *Model) Encode(w io.Writer) error {
	terms := m.Terms()
	snap := snapshot{
		TotalTermCount: m.total,
		Terms:          make([]termEntry, 0, len(terms)),
	}
	for _, t := range terms {
		snap.Terms = append(snap.Terms, termEntry{Term: t.Term, Count: t.Count, Probability: t.Probability})
	}

	enc := yaml.NewEncoder(w)
	if err := enc.Encode(&snap); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	return enc.Close()
}

// Decode reads a snapshot written by Encode.
func Decode(r io.Reader) (*Model, error) {
	var snap snapshot
	if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}

	entries := make(map[string]Entry, len(snap.Terms))
	for _, t := range snap.Terms {
		if _, dup := entries[t.Term]; dup {
			return nil, fmt.Errorf("%w: term %q listed twice", internalerr.ErrInvalidInput, t.Term)
		}
		entries[t.Term] = Entry{Count: t.Count, Probability: t.Probability}
	}
	m, err := Restore(snap.TotalTermCount, entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidInput, err)
	}
	return m, nil
}

// DecodeOrEmpty is the fail-soft variant of Decode: any failure is logged
// and an empty model is returned. Callers that need to tell a failed load
// from an empty one check ModelSize() == 0.
func DecodeOrEmpty(r io.Reader, log logging.Logger) *Model {
	m, err := Decode(r)
	if err != nil {
		if log != nil {
			log.Warn("model decode failed, using empty model", "error", err)
		}
		return New()
	}
	return m
}

// SaveFile writes the model to path. The snapshot is written to a temporary
// file in the same directory first and renamed into place.
func (m *Model) SaveFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".model-*")
	if err != nil {
		return fmt.Errorf("create temp model file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := m.Encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp model file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename model file: %w", err)
	}
	return nil
}
