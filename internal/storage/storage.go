package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/nikbrunner/linkshelf/internal/model"
)

const (
	// StoreKey names the persisted state blob.
	StoreKey = "link-collection-store"

	stateVersion = 0
)

// Storage defines the interface for persisting the link store.
type Storage interface {
	Load() (model.Snapshot, error)
	Save(snap model.Snapshot) error
}

// persisted is the on-disk envelope around a snapshot.
type persisted struct {
	State   model.Snapshot `json:"state"`
	Version int            `json:"version"`
}

// JSONStorage implements Storage using a JSON file.
type JSONStorage struct {
	path string
}

// NewJSONStorage creates a new JSONStorage with the given file path.
func NewJSONStorage(path string) *JSONStorage {
	return &JSONStorage{path: path}
}

// Path returns the storage file path.
func (s *JSONStorage) Path() string {
	return s.path
}

// Load reads the snapshot from the JSON file.
// Returns an empty snapshot if the file doesn't exist.
func (s *JSONStorage) Load() (model.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return emptySnapshot(), nil
		}
		return model.Snapshot{}, err
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return model.Snapshot{}, err
	}

	snap := p.State
	if snap.Collections == nil {
		snap.Collections = []model.Collection{}
	}
	if snap.Links == nil {
		snap.Links = []model.Link{}
	}
	return snap, nil
}

// Save writes the snapshot to the JSON file.
// The file is replaced atomically; the directory is created if missing.
func (s *JSONStorage) Save(snap model.Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(persisted{State: snap, Version: stateVersion}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func emptySnapshot() model.Snapshot {
	return model.Snapshot{
		Collections: []model.Collection{},
		Links:       []model.Link{},
	}
}

// DefaultDataDir returns the default data directory: ~/.config/linkshelf
func DefaultDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "linkshelf"), nil
}

// OpenStorage opens the storage backend named by cfg.
// With backend "auto", SQLite is preferred if the database file exists,
// otherwise JSON is used.
func OpenStorage(cfg *Config) (Storage, error) {
	switch cfg.Backend {
	case BackendJSON:
		return NewJSONStorage(cfg.JSONPath), nil
	case BackendSQLite:
		return NewSQLiteStorage(cfg.SQLitePath)
	}

	if _, err := os.Stat(cfg.SQLitePath); err == nil {
		return NewSQLiteStorage(cfg.SQLitePath)
	}
	return NewJSONStorage(cfg.JSONPath), nil
}

// LoadStore loads a snapshot and rebuilds the store from it.
func LoadStore(s Storage) (*model.Store, error) {
	snap, err := s.Load()
	if err != nil {
		return nil, err
	}
	return model.NewStoreFromSnapshot(snap), nil
}
