package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nikbrunner/linkshelf/internal/model"
)

const currentSchemaVersion = 1

// SQLiteStorage implements Storage using a SQLite database.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage creates a new SQLiteStorage with the given database path.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	// Connection-scoped pragmas go in the DSN so every pooled connection
	// gets them.
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	s := &SQLiteStorage{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// migrate runs database migrations.
func (s *SQLiteStorage) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		// Table doesn't exist or is empty, start fresh
		version = 0
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	return nil
}

// migrateV1 creates the initial schema.
func (s *SQLiteStorage) migrateV1() error {
	schema := `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS collections (
			id TEXT PRIMARY KEY NOT NULL,
			name TEXT NOT NULL,
			position INTEGER NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_collections_name ON collections(name COLLATE NOCASE);

		CREATE TABLE IF NOT EXISTS links (
			id TEXT PRIMARY KEY NOT NULL,
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			image TEXT NOT NULL DEFAULT '',
			collection_id TEXT NOT NULL,
			created_at TEXT NOT NULL,
			position INTEGER NOT NULL,
			FOREIGN KEY (collection_id) REFERENCES collections(id)
		);

		CREATE INDEX IF NOT EXISTS idx_links_collection_id ON links(collection_id);
		CREATE INDEX IF NOT EXISTS idx_links_url ON links(url);

		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SchemaVersion returns the migrated schema version.
func (s *SQLiteStorage) SchemaVersion() (int, error) {
	var version int
	err := s.db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version)
	return version, err
}

// Load reads the snapshot from the SQLite database.
func (s *SQLiteStorage) Load() (model.Snapshot, error) {
	snap := emptySnapshot()

	rows, err := s.db.Query(`
		SELECT id, name
		FROM collections
		ORDER BY position
	`)
	if err != nil {
		return model.Snapshot{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Collection
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return model.Snapshot{}, err
		}
		snap.Collections = append(snap.Collections, c)
	}
	if err := rows.Err(); err != nil {
		return model.Snapshot{}, err
	}

	rows, err = s.db.Query(`
		SELECT id, title, url, image, collection_id, created_at
		FROM links
		ORDER BY position
	`)
	if err != nil {
		return model.Snapshot{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var l model.Link
		var createdAtStr string

		if err := rows.Scan(&l.ID, &l.Title, &l.URL, &l.Image, &l.CollectionID, &createdAtStr); err != nil {
			return model.Snapshot{}, err
		}
		l.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAtStr)

		snap.Links = append(snap.Links, l)
	}
	if err := rows.Err(); err != nil {
		return model.Snapshot{}, err
	}

	return snap, nil
}

// Save writes the snapshot to the SQLite database.
// Uses a transaction for atomicity - all or nothing.
func (s *SQLiteStorage) Save(snap model.Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Links first: they reference collections
	if _, err := tx.Exec("DELETE FROM links"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM collections"); err != nil {
		return err
	}

	collectionStmt, err := tx.Prepare(`
		INSERT INTO collections (id, name, position)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer collectionStmt.Close()

	for i, c := range snap.Collections {
		if _, err := collectionStmt.Exec(c.ID, c.Name, i); err != nil {
			return err
		}
	}

	linkStmt, err := tx.Prepare(`
		INSERT INTO links (id, title, url, image, collection_id, created_at, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer linkStmt.Close()

	for i, l := range snap.Links {
		if _, err := linkStmt.Exec(
			l.ID, l.Title, l.URL, l.Image, l.CollectionID,
			l.CreatedAt.Format(time.RFC3339Nano), i,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}
