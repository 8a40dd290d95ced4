package storage

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/nikbrunner/linkshelf/internal/model"
)

// Autosaver persists every store mutation to a Storage.
type Autosaver struct {
	storage     Storage
	log         zerolog.Logger
	unsubscribe func()

	mu    sync.Mutex
	err   error
	saves int
}

// Autosave subscribes to store and saves each published snapshot.
// Save errors are logged and kept for Err; they never fail the mutation.
func Autosave(store *model.Store, s Storage, logger zerolog.Logger) *Autosaver {
	a := &Autosaver{
		storage: s,
		log:     logger.With().Str("component", "autosave").Logger(),
	}
	a.unsubscribe = store.Subscribe(a.save)
	return a
}

func (a *Autosaver) save(snap model.Snapshot) {
	err := a.storage.Save(snap)

	a.mu.Lock()
	defer a.mu.Unlock()

	if err != nil {
		a.err = err
		a.log.Error().Err(err).Msg("failed to persist store")
		return
	}
	a.saves++
	a.log.Debug().
		Int("collections", len(snap.Collections)).
		Int("links", len(snap.Links)).
		Msg("store persisted")
}

// Err returns the most recent save error, if any.
func (a *Autosaver) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Saves returns the number of successful saves.
func (a *Autosaver) Saves() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saves
}

// Stop ends the subscription.
func (a *Autosaver) Stop() {
	a.unsubscribe()
}
