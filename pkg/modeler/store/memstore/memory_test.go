package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/internalerr"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/store"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/termmodel"
)

var _ store.ModelStore = (*Store)(nil)

func TestSaveStoresCopy(t *testing.T) {
	ctx := context.Background()
	s := New()

	m := termmodel.New()
	m.PushTerm("he_PRP")
	if _, err := s.SaveModel(ctx, "men", m); err != nil {
		t.Fatalf("SaveModel: %v", err)
	}
	m.PushTerm("his_PRP$")

	got, err := s.LoadModel(ctx, "men")
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if got.ModelSize() != 1 {
		t.Errorf("stored model changed with the original: size %d", got.ModelSize())
	}

	got.PushTerm("him_PRP")
	again, _ := s.LoadModel(ctx, "men")
	if again.ModelSize() != 1 {
		t.Error("loaded model should be independent of the stored one")
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := New().LoadModel(context.Background(), "women"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListAndRevisions(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.SaveModel(ctx, "women", termmodel.New())
	s.SaveModel(ctx, "men", termmodel.New())
	s.SaveModel(ctx, "women", termmodel.New())

	names, _ := s.ListModels(ctx)
	if len(names) != 2 || names[0] != "men" || names[1] != "women" {
		t.Errorf("ListModels = %v", names)
	}

	revs := s.Revisions("women")
	if len(revs) != 2 {
		t.Fatalf("expected 2 revisions, got %d", len(revs))
	}
	if revs[0].ID >= revs[1].ID {
		t.Errorf("revision ids not increasing: %s, %s", revs[0].ID, revs[1].ID)
	}
}

func TestSaveRejectsEmptyName(t *testing.T) {
	if _, err := New().SaveModel(context.Background(), "", termmodel.New()); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
