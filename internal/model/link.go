package model

import "time"

// Link represents a saved URL with its cached preview metadata.
type Link struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	Image        string    `json:"image"`
	CollectionID string    `json:"collectionId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewLinkParams holds parameters for creating a new Link.
type NewLinkParams struct {
	Title        string
	URL          string
	Image        string
	CollectionID string // empty = RecentCollectionID
}

// NewLink creates a Link with generated UUID and timestamp.
func NewLink(params NewLinkParams) Link {
	collectionID := params.CollectionID
	if collectionID == "" {
		collectionID = RecentCollectionID
	}

	return Link{
		ID:           GenerateUUID(),
		Title:        params.Title,
		URL:          params.URL,
		Image:        params.Image,
		CollectionID: collectionID,
		CreatedAt:    time.Now(),
	}
}
