// Package store persists trained term models by name.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/internalerr"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/logging"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/termmodel"
)

// ModelStore is the persistence interface for trained models
type ModelStore interface {
	Close() error

	// SaveModel stores a snapshot of m under name, replacing any previous one.
	SaveModel(ctx context.Context, name string, m *termmodel.Model) (Revision, error)
	// LoadModel returns the stored model or an error wrapping
	// internalerr.ErrNotFound.
	LoadModel(ctx context.Context, name string) (*termmodel.Model, error)
	// ListModels returns stored model names in ascending order.
	ListModels(ctx context.Context) ([]string, error)
}

// Revision describes one saved snapshot
type Revision struct {
	ID             string
	Name           string
	TotalTermCount int64
	Vocabulary     int
	CreatedAt      time.Time
}

// NewRevision describes a snapshot of m saved under name.
func NewRevision(id, name string, m *termmodel.Model, at time.Time) Revision {
	return Revision{
		ID:             id,
		Name:           name,
		TotalTermCount: m.TotalTermCount(),
		Vocabulary:     m.ModelSize(),
		CreatedAt:      at.UTC(),
	}
}

// LoadOrEmpty loads a model and falls back to an empty one on any failure.
// Missing models are logged at debug level, other failures as warnings.
func LoadOrEmpty(ctx context.Context, s ModelStore, name string, log logging.Logger) *termmodel.Model {
	m, err := s.LoadModel(ctx, name)
	if err == nil {
		return m
	}
	if log != nil {
		if errors.Is(err, internalerr.ErrNotFound) {
			log.Debug("model not stored, using empty model", "model", name)
		} else {
			log.Warn("model load failed, using empty model", "model", name, "error", err)
		}
	}
	return termmodel.New()
}
