package search

import (
	"github.com/nikbrunner/linkshelf/internal/model"
	"github.com/sahilm/fuzzy"
)

// UnknownCollection labels results whose collection cannot be resolved.
const UnknownCollection = "Unknown"

// SearchResult represents a fuzzy search match.
type SearchResult struct {
	Link           model.Link
	CollectionName string
	MatchedIndexes []int
	Score          int
}

// linkTitles implements fuzzy.Source for a link slice.
type linkTitles []model.Link

func (lt linkTitles) String(i int) string {
	return lt[i].Title
}

func (lt linkTitles) Len() int {
	return len(lt)
}

// FuzzySearchLinks searches all links by title using fuzzy matching.
// Returns results sorted by match score (best first).
func FuzzySearchLinks(store *model.Store, query string) []SearchResult {
	if query == "" {
		return nil
	}

	links := linkTitles(store.Links())
	matches := fuzzy.FindFrom(query, links)

	names := collectionNames(store)
	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		link := links[m.Index]
		results[i] = SearchResult{
			Link:           link,
			CollectionName: nameOr(names, link.CollectionID),
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}

	return results
}

// CollectionName resolves a collection ID to its display name.
func CollectionName(store *model.Store, id string) string {
	c, ok := store.Collection(id)
	if !ok {
		return UnknownCollection
	}
	return c.Name
}

func collectionNames(store *model.Store) map[string]string {
	names := make(map[string]string)
	for _, c := range store.Collections() {
		names[c.ID] = c.Name
	}
	return names
}

func nameOr(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return UnknownCollection
}
