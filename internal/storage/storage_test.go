package storage_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"gotest.tools/v3/assert"

	"github.com/nikbrunner/linkshelf/internal/model"
	"github.com/nikbrunner/linkshelf/internal/storage"
)

func TestJSONStorage_SaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "link-collection-store.json")

	snap := model.Snapshot{
		Collections: []model.Collection{
			model.RecentCollection(),
			{ID: "c1", Name: "Reading"},
		},
		Links: []model.Link{
			{ID: "l1", Title: "Test", URL: "https://example.com", Image: "i.png", CollectionID: "c1"},
		},
	}

	s := storage.NewJSONStorage(path)
	assert.NilError(t, s.Save(snap))

	loaded, err := s.Load()
	assert.NilError(t, err)
	assert.DeepEqual(t, loaded, snap)
}

func TestJSONStorage_EnvelopeFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s := storage.NewJSONStorage(path)
	assert.NilError(t, s.Save(model.NewStore().Snapshot()))

	data, err := os.ReadFile(path)
	assert.NilError(t, err)

	var raw struct {
		State struct {
			Collections []map[string]any `json:"collections"`
			Links       []map[string]any `json:"links"`
		} `json:"state"`
		Version *int `json:"version"`
	}
	assert.NilError(t, json.Unmarshal(data, &raw))
	assert.Assert(t, raw.Version != nil)
	assert.Equal(t, *raw.Version, 0)
	assert.Equal(t, len(raw.State.Collections), 1)
	assert.Equal(t, raw.State.Collections[0]["id"], "recent")
	assert.Equal(t, len(raw.State.Links), 0)
}

func TestJSONStorage_LoadNonexistent(t *testing.T) {
	s := storage.NewJSONStorage(filepath.Join(t.TempDir(), "nonexistent.json"))

	snap, err := s.Load()
	assert.NilError(t, err)
	assert.Equal(t, len(snap.Collections), 0)
	assert.Equal(t, len(snap.Links), 0)
}

func TestJSONStorage_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	assert.NilError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := storage.NewJSONStorage(path).Load()
	assert.Assert(t, err != nil)
}

func TestJSONStorage_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "store.json")

	s := storage.NewJSONStorage(path)
	assert.NilError(t, s.Save(model.NewStore().Snapshot()))

	_, err := os.Stat(path)
	assert.NilError(t, err)
}

func TestJSONStorage_PreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	snap := model.Snapshot{
		Collections: []model.Collection{
			model.RecentCollection(),
			{ID: "c1", Name: "First"},
			{ID: "c2", Name: "Second"},
			{ID: "c3", Name: "Third"},
		},
		Links: []model.Link{},
	}

	s := storage.NewJSONStorage(path)
	assert.NilError(t, s.Save(snap))

	loaded, err := s.Load()
	assert.NilError(t, err)

	expectedNames := []string{"Recent", "First", "Second", "Third"}
	for i, name := range expectedNames {
		assert.Equal(t, loaded.Collections[i].Name, name)
	}
}

func TestAutosave_ReloadReproducesState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s := storage.NewJSONStorage(path)

	store := model.NewStore()
	saver := storage.Autosave(store, s, zerolog.Nop())
	defer saver.Stop()

	reading, err := store.CreateCollection("Reading")
	assert.NilError(t, err)
	_, err = store.AddLink("T", "example.com", "img.png", reading.ID)
	assert.NilError(t, err)

	assert.NilError(t, saver.Err())
	assert.Equal(t, saver.Saves(), 2)

	reloaded, err := storage.LoadStore(s)
	assert.NilError(t, err)

	want := store.Snapshot()
	got := reloaded.Snapshot()
	assert.Equal(t, len(got.Collections), 2)
	assert.Equal(t, got.Collections[1].Name, "Reading")
	assert.Equal(t, len(got.Links), 1)
	assert.Equal(t, got.Links[0].CollectionID, reading.ID)

	for i := range want.Links {
		assert.Assert(t, got.Links[i].CreatedAt.Equal(want.Links[i].CreatedAt))
		got.Links[i].CreatedAt = want.Links[i].CreatedAt
	}
	assert.DeepEqual(t, got, want)
}

// failingStorage always fails to save.
type failingStorage struct{ err error }

func (f failingStorage) Load() (model.Snapshot, error) { return model.Snapshot{}, nil }
func (f failingStorage) Save(model.Snapshot) error     { return f.err }

func TestAutosave_ErrorsDoNotFailMutation(t *testing.T) {
	boom := errors.New("disk full")
	store := model.NewStore()
	saver := storage.Autosave(store, failingStorage{err: boom}, zerolog.Nop())

	_, err := store.CreateCollection("Reading")
	assert.NilError(t, err)
	assert.Equal(t, len(store.Collections()), 2)
	assert.ErrorIs(t, saver.Err(), boom)
	assert.Equal(t, saver.Saves(), 0)
}

func TestAutosave_Stop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	store := model.NewStore()
	saver := storage.Autosave(store, storage.NewJSONStorage(path), zerolog.Nop())
	saver.Stop()

	_, err := store.CreateCollection("Reading")
	assert.NilError(t, err)

	_, err = os.Stat(path)
	assert.Assert(t, os.IsNotExist(err))
}
