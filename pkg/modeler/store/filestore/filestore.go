// Package filestore keeps one model file per name in a directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/internalerr"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/store"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/termmodel"
)

// Ext is the file extension of stored models.
const Ext = ".mdl"

// Store writes models as <dir>/<name>.mdl.
type Store struct {
	dir string
}

// Open returns a store rooted at dir, creating it if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the file a model named name is stored in.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+Ext)
}

func (s *Store) Close() error { return nil }

func (s *Store) SaveModel(ctx context.Context, name string, m *termmodel.Model) (store.Revision, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return store.Revision{}, fmt.Errorf("%w: model name %q", internalerr.ErrInvalidInput, name)
	}
	if err := ctx.Err(); err != nil {
		return store.Revision{}, err
	}
	if err := m.SaveFile(s.Path(name)); err != nil {
		return store.Revision{}, err
	}
	id := ulid.Make()
	return store.NewRevision(id.String(), name, m, ulid.Time(id.Time())), nil
}

func (s *Store) LoadModel(ctx context.Context, name string) (*termmodel.Model, error) {
	f, err := os.Open(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("model %q: %w", name, internalerr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return termmodel.Decode(f)
}

func (s *Store) ListModels(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), Ext))
	}
	sort.Strings(names)
	return names, nil
}
