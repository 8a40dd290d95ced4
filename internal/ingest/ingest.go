// Package ingest turns user-entered URLs into stored links with preview
// metadata.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nikbrunner/linkshelf/internal/linkurl"
	"github.com/nikbrunner/linkshelf/internal/model"
	"github.com/nikbrunner/linkshelf/internal/preview"
)

var (
	ErrEmptyURL      = errors.New("please enter a link")
	ErrInvalidURL    = errors.New("please enter a valid website URL")
	ErrDuplicateLink = errors.New("this link has already been added")
	ErrPreviewFailed = errors.New("could not fetch link preview")
)

// Previewer fetches metadata for a URL and builds a fallback image.
type Previewer interface {
	Fetch(ctx context.Context, url string) (*preview.Result, error)
	ScreenshotURL(url string) string
}

// Request describes a link to add.
type Request struct {
	Input         string // raw user input
	CollectionID  string // empty = recent
	FallbackTitle string // used when the preview has no title
}

// Ingestor adds links to a store.
type Ingestor struct {
	store   *model.Store
	preview Previewer
	log     zerolog.Logger
}

// New creates an Ingestor writing into store.
func New(store *model.Store, previewer Previewer, logger zerolog.Logger) *Ingestor {
	return &Ingestor{
		store:   store,
		preview: previewer,
		log:     logger.With().Str("component", "ingest").Logger(),
	}
}

// Add normalizes the input, rejects duplicates, fetches the preview and
// stores the link. On any error the store is left unchanged.
func (i *Ingestor) Add(ctx context.Context, req Request) (model.Link, error) {
	target := linkurl.Normalize(req.Input)
	if target == "" {
		return model.Link{}, ErrEmptyURL
	}
	if _, ok := linkurl.Parse(target); !ok {
		return model.Link{}, fmt.Errorf("%w: %q", ErrInvalidURL, req.Input)
	}

	if req.CollectionID != "" {
		if _, ok := i.store.Collection(req.CollectionID); !ok {
			return model.Link{}, model.ErrCollectionNotFound
		}
	}

	if dup, ok := i.findDuplicate(target); ok {
		i.log.Info().Str("url", target).Str("existing", dup.ID).Msg("link already added")
		return model.Link{}, ErrDuplicateLink
	}

	result, err := i.preview.Fetch(ctx, target)
	if err != nil {
		i.log.Error().Err(err).Str("url", target).Msg("error fetching link preview")
		return model.Link{}, fmt.Errorf("%w: %w", ErrPreviewFailed, err)
	}

	image := result.Image
	if image == "" {
		image = i.preview.ScreenshotURL(target)
	}

	title := result.Title
	if title == "" {
		title = req.FallbackTitle
	}
	if title == "" {
		title = target
	}

	link, err := i.store.AddLink(title, target, image, req.CollectionID)
	if err != nil {
		return model.Link{}, err
	}

	i.log.Info().
		Str("id", link.ID).
		Str("url", link.URL).
		Str("collection", link.CollectionID).
		Msg("link added")
	return link, nil
}

// findDuplicate returns the stored link with the same host and path.
func (i *Ingestor) findDuplicate(target string) (model.Link, bool) {
	key, ok := linkurl.Key(target)
	if !ok {
		return model.Link{}, false
	}
	for _, l := range i.store.Links() {
		if k, ok := linkurl.Key(l.URL); ok && k == key {
			return l, true
		}
	}
	return model.Link{}, false
}
