package model

import "strings"

const (
	// RecentCollectionID is the default bucket. It always exists, comes
	// first, and cannot be renamed or deleted.
	RecentCollectionID = "recent"

	// RecentCollectionName is the display name of the recent collection.
	RecentCollectionName = "Recent"
)

// Collection is a named grouping of links.
type Collection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewCollection creates a Collection with generated UUID.
func NewCollection(name string) Collection {
	return Collection{
		ID:   GenerateUUID(),
		Name: strings.TrimSpace(name),
	}
}

// RecentCollection returns the distinguished default collection.
func RecentCollection() Collection {
	return Collection{ID: RecentCollectionID, Name: RecentCollectionName}
}

// IsRecent reports whether c is the protected default collection.
func (c Collection) IsRecent() bool {
	return c.ID == RecentCollectionID
}

// normalizeName folds a collection name for uniqueness comparisons.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
