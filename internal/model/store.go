package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/nikbrunner/linkshelf/internal/linkurl"
)

var (
	ErrCollectionNotFound  = errors.New("collection not found")
	ErrCollectionExists    = errors.New("a collection with this name already exists")
	ErrProtectedCollection = errors.New("the recent collection cannot be changed")
	ErrEmptyName           = errors.New("collection name is empty")
)

// Snapshot is a point-in-time copy of the store contents.
// It is the unit of persistence.
type Snapshot struct {
	Collections []Collection `json:"collections"`
	Links       []Link       `json:"links"`
}

// Store holds all collections and links.
// It is safe for concurrent use. Subscribers are notified after every
// mutation that changed state and must not mutate the store themselves.
type Store struct {
	mu          sync.RWMutex
	collections []Collection
	links       []Link

	// publishMu serializes mutation + notification so subscribers observe
	// snapshots in mutation order.
	publishMu sync.Mutex

	// subMu guards the subscriber list only, so a subscriber may
	// unsubscribe while being notified.
	subMu       sync.Mutex
	subscribers []subscriber
	nextSubID   int
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// NewStore creates a store holding only the recent collection.
func NewStore() *Store {
	return &Store{
		collections: []Collection{RecentCollection()},
		links:       []Link{},
	}
}

// NewStoreFromSnapshot rebuilds a store from persisted state, repairing
// references that would break the collection invariants.
func NewStoreFromSnapshot(snap Snapshot) *Store {
	s := &Store{}
	s.collections, s.links = repair(snap)
	return s
}

// repair puts recent first exactly once, renames collections whose names
// collide ignoring case, gives repeated link IDs fresh ones and moves links
// with dangling collection references into recent.
func repair(snap Snapshot) ([]Collection, []Link) {
	collections := []Collection{RecentCollection()}
	known := map[string]bool{RecentCollectionID: true}
	names := map[string]bool{normalizeName(RecentCollectionName): true}
	for _, c := range snap.Collections {
		if known[c.ID] || c.ID == "" {
			continue
		}
		known[c.ID] = true
		c.Name = uniqueName(c.Name, names)
		names[normalizeName(c.Name)] = true
		collections = append(collections, c)
	}

	links := make([]Link, 0, len(snap.Links))
	ids := make(map[string]bool, len(snap.Links))
	for _, l := range snap.Links {
		if l.ID == "" || ids[l.ID] {
			l.ID = GenerateUUID()
		}
		ids[l.ID] = true
		if !known[l.CollectionID] {
			l.CollectionID = RecentCollectionID
		}
		links = append(links, l)
	}
	return collections, links
}

// uniqueName returns name, or "name (2)", "name (3)", ... when taken
// already holds it. Empty names become "Untitled".
func uniqueName(name string, taken map[string]bool) string {
	base := strings.TrimSpace(name)
	if base == "" {
		base = "Untitled"
	}
	candidate := base
	for n := 2; taken[normalizeName(candidate)]; n++ {
		candidate = fmt.Sprintf("%s (%d)", base, n)
	}
	return candidate
}

// Subscribe registers fn to receive a snapshot after every mutation.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		s.subscribers = slices.DeleteFunc(s.subscribers, func(sub subscriber) bool {
			return sub.id == id
		})
	}
}

// update applies fn under the write lock and publishes the resulting
// snapshot when fn reports a change.
func (s *Store) update(fn func() (bool, error)) error {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	changed, err := fn()
	var snap Snapshot
	if changed && err == nil {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if err != nil || !changed {
		return err
	}
	s.subMu.Lock()
	subs := slices.Clone(s.subscribers)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(snap)
	}
	return nil
}

// AddLink appends a new link. An empty collectionID files it under recent.
func (s *Store) AddLink(title, url, image, collectionID string) (Link, error) {
	link := NewLink(NewLinkParams{
		Title:        title,
		URL:          url,
		Image:        image,
		CollectionID: collectionID,
	})

	err := s.update(func() (bool, error) {
		if s.collectionIndex(link.CollectionID) < 0 {
			return false, ErrCollectionNotFound
		}
		s.links = append(s.links, link)
		return true, nil
	})
	if err != nil {
		return Link{}, err
	}
	return link, nil
}

// DeleteLink removes the link with the given ID. Missing IDs are ignored.
func (s *Store) DeleteLink(linkID string) {
	_ = s.update(func() (bool, error) {
		i := s.linkIndex(linkID)
		if i < 0 {
			return false, nil
		}
		s.links = slices.Delete(s.links, i, i+1)
		return true, nil
	})
}

// MoveLinkToCollection files a link under another collection.
// Only the link's collection changes. Missing link IDs are ignored.
func (s *Store) MoveLinkToCollection(linkID, collectionID string) error {
	return s.update(func() (bool, error) {
		i := s.linkIndex(linkID)
		if i < 0 {
			return false, nil
		}
		if s.collectionIndex(collectionID) < 0 {
			return false, ErrCollectionNotFound
		}
		if s.links[i].CollectionID == collectionID {
			return false, nil
		}
		s.links[i].CollectionID = collectionID
		return true, nil
	})
}

// CreateCollection appends a new collection. Names are trimmed and must be
// unique ignoring case.
func (s *Store) CreateCollection(name string) (Collection, error) {
	c := NewCollection(name)
	if c.Name == "" {
		return Collection{}, ErrEmptyName
	}

	err := s.update(func() (bool, error) {
		if s.nameTakenLocked(c.Name, "") {
			return false, ErrCollectionExists
		}
		s.collections = append(s.collections, c)
		return true, nil
	})
	if err != nil {
		return Collection{}, err
	}
	return c, nil
}

// DeleteCollection removes a collection and moves its links to recent.
// Deleting recent or an unknown collection does nothing.
func (s *Store) DeleteCollection(collectionID string) {
	if collectionID == RecentCollectionID {
		return
	}

	_ = s.update(func() (bool, error) {
		i := s.collectionIndex(collectionID)
		if i < 0 {
			return false, nil
		}
		s.collections = slices.Delete(s.collections, i, i+1)
		for j := range s.links {
			if s.links[j].CollectionID == collectionID {
				s.links[j].CollectionID = RecentCollectionID
			}
		}
		return true, nil
	})
}

// RenameCollection changes a collection's name.
// Unknown IDs are ignored.
func (s *Store) RenameCollection(collectionID, newName string) error {
	if collectionID == RecentCollectionID {
		return ErrProtectedCollection
	}
	c := NewCollection(newName)
	if c.Name == "" {
		return ErrEmptyName
	}

	return s.update(func() (bool, error) {
		i := s.collectionIndex(collectionID)
		if i < 0 {
			return false, nil
		}
		if s.nameTakenLocked(c.Name, collectionID) {
			return false, ErrCollectionExists
		}
		if s.collections[i].Name == c.Name {
			return false, nil
		}
		s.collections[i].Name = c.Name
		return true, nil
	})
}

// ImportMerge adds imported collections and links.
// Collections are matched to existing ones by name; links whose URL is
// already stored (same host and path) are skipped.
// Returns the number of links added and skipped.
func (s *Store) ImportMerge(collections []Collection, links []Link) (added, skipped int) {
	_ = s.update(func() (bool, error) {
		created := false
		idMap := map[string]string{RecentCollectionID: RecentCollectionID}
		for _, c := range collections {
			name := normalizeName(c.Name)
			if name == "" {
				continue
			}
			if existing := s.collectionByNameLocked(name); existing != nil {
				idMap[c.ID] = existing.ID
				continue
			}
			importedID := c.ID
			if c.ID == "" || s.collectionIndex(c.ID) >= 0 {
				c.ID = GenerateUUID()
			}
			c.Name = strings.TrimSpace(c.Name)
			s.collections = append(s.collections, c)
			if importedID != "" {
				idMap[importedID] = c.ID
			}
			created = true
		}

		seen := make(map[string]bool, len(s.links)+len(links))
		for _, l := range s.links {
			if key, ok := linkurl.Key(l.URL); ok {
				seen[key] = true
			}
		}

		for _, l := range links {
			key, ok := linkurl.Key(l.URL)
			if ok && seen[key] {
				skipped++
				continue
			}
			if ok {
				seen[key] = true
			}
			target, found := idMap[l.CollectionID]
			if !found {
				target = RecentCollectionID
			}
			l.CollectionID = target
			if l.ID == "" {
				l.ID = GenerateUUID()
			}
			s.links = append(s.links, l)
			added++
		}

		return added > 0 || created, nil
	})
	return added, skipped
}

// Snapshot returns a copy of the current store contents.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Collections: slices.Clone(s.collections),
		Links:       slices.Clone(s.links),
	}
}

// Collections returns all collections, recent first.
func (s *Store) Collections() []Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.collections)
}

// Links returns all links in insertion order.
func (s *Store) Links() []Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.links)
}

// Collection finds a collection by ID.
func (s *Store) Collection(id string) (Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.collectionIndex(id)
	if i < 0 {
		return Collection{}, false
	}
	return s.collections[i], true
}

// CollectionByName finds a collection by name, ignoring case.
func (s *Store) CollectionByName(name string) (Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.collectionByNameLocked(normalizeName(name))
	if c == nil {
		return Collection{}, false
	}
	return *c, true
}

// Link finds a link by ID.
func (s *Store) Link(id string) (Link, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.linkIndex(id)
	if i < 0 {
		return Link{}, false
	}
	return s.links[i], true
}

// LinksInCollection returns the links filed under exactly this collection.
func (s *Store) LinksInCollection(collectionID string) []Link {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Link
	for _, l := range s.links {
		if l.CollectionID == collectionID {
			result = append(result, l)
		}
	}
	return result
}

// LinksInView returns the links shown for a collection. The recent
// collection shows every link.
func (s *Store) LinksInView(collectionID string) []Link {
	if collectionID == RecentCollectionID {
		return s.Links()
	}
	return s.LinksInCollection(collectionID)
}

func (s *Store) collectionIndex(id string) int {
	return slices.IndexFunc(s.collections, func(c Collection) bool { return c.ID == id })
}

func (s *Store) linkIndex(id string) int {
	return slices.IndexFunc(s.links, func(l Link) bool { return l.ID == id })
}

func (s *Store) collectionByNameLocked(normalized string) *Collection {
	for i := range s.collections {
		if normalizeName(s.collections[i].Name) == normalized {
			return &s.collections[i]
		}
	}
	return nil
}

// nameTakenLocked reports whether another collection than exceptID
// already uses name.
func (s *Store) nameTakenLocked(name, exceptID string) bool {
	c := s.collectionByNameLocked(normalizeName(name))
	return c != nil && c.ID != exceptID
}
