package m3u8

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// PlaylistFetcher fetches a single playlist document
type PlaylistFetcher interface {
	FetchPlaylist(ctx context.Context, rawURL string) (Document, error)
}

// Resolver follows master playlists until it reaches a media playlist and
// returns that playlist's segments as absolute URLs.
type Resolver struct {
	fetcher  PlaylistFetcher
	selector Selector
	maxDepth int
	logger   zerolog.Logger
}

// NewResolver creates a resolver. Selector, MaxDepth and Logger are taken from opts.
func NewResolver(fetcher PlaylistFetcher, opts Options) *Resolver {
	opts = normalizeOptions(opts)
	return &Resolver{
		fetcher:  fetcher,
		selector: opts.Selector,
		maxDepth: opts.MaxDepth,
		logger:   withComponent(opts.Logger, "resolver"),
	}
}

// Resolve returns the ordered, non-empty list of segment URLs reachable from
// rawURL. At most maxDepth master playlists are followed.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) ([]string, error) {
	current := rawURL
	for hops := 0; ; hops++ {
		doc, err := r.fetcher.FetchPlaylist(ctx, current)
		if err != nil {
			return nil, err
		}

		if Classify(doc) == KindMedia {
			r.logger.Info().Str("url", sanitizeURL(doc.URL)).Msg("Media playlist detected. Parsing segments...")
			describe(r.logger, doc)
			return resolveSegments(doc)
		}

		if hops >= r.maxDepth {
			return nil, fmt.Errorf("%w: %d master playlists followed from %s", ErrRecursionLimit, hops, sanitizeURL(rawURL))
		}

		r.logger.Info().Str("url", sanitizeURL(doc.URL)).Msg("Master playlist detected. Selecting the first variant playlist...")
		describe(r.logger, doc)

		next, err := r.selector.Select(ExtractRenditions(doc), doc.URL)
		if err != nil {
			return nil, fmt.Errorf("select variant of %s: %w", sanitizeURL(doc.URL), err)
		}
		r.logger.Info().Str("variant", sanitizeURL(next)).Int("depth", hops+1).Msg("Selected variant playlist")
		current = next
	}
}

func resolveSegments(doc Document) ([]string, error) {
	refs := ExtractSegmentReferences(doc)
	if len(refs) == 0 {
		return nil, fmt.Errorf("%s: %w", sanitizeURL(doc.URL), ErrNoSegments)
	}

	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		abs, err := ResolveURI(doc.URL, ref)
		if err != nil {
			return nil, err
		}
		urls = append(urls, abs)
	}
	return urls, nil
}
