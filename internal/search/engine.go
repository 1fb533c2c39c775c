// Package search provides the query layer over a document index.
//
// The engine adds a result cache for the long-lived use of the library:
// restore or build an index once, then answer many queries against it.
// The index itself stays a pure value; caching lives entirely here.
package search

import (
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/odespesse/cli-bloom/internal/index"
)

// DefaultCacheSize is used when the caller passes a non-positive size.
const DefaultCacheSize = 128

// result is a cached query outcome, including the no-match case.
type result struct {
	hits  []string
	found bool
}

// Engine answers keyword queries against an index, caching results by the
// raw query string. Like the index it wraps, an Engine is single-owner and
// does no internal locking.
type Engine struct {
	idx   *index.Index
	cache *lru.Cache[string, result]

	// gen mirrors the index generation observed when the cache was last
	// valid. Any insert bumps the index generation and empties the cache.
	gen uint64
}

// New creates an Engine over idx with the given cache size.
func New(idx *index.Index, cacheSize int) (*Engine, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, result](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Engine{
		idx:   idx,
		cache: cache,
		gen:   idx.Generation(),
	}, nil
}

// Search returns the matching document keys in index order and whether
// anything matched, exactly as index.Search does.
func (e *Engine) Search(query string) ([]string, bool) {
	if gen := e.idx.Generation(); gen != e.gen {
		e.cache.Purge()
		e.gen = gen
	}

	if cached, ok := e.cache.Get(query); ok {
		slog.Debug("search_cache_hit", slog.String("query", query))
		return copyHits(cached.hits), cached.found
	}

	hits, found := e.idx.Search(query)
	e.cache.Add(query, result{hits: hits, found: found})
	return copyHits(hits), found
}

// Index returns the underlying index.
func (e *Engine) Index() *index.Index {
	return e.idx
}

// copyHits shields the cached slice from caller mutation.
func copyHits(hits []string) []string {
	if hits == nil {
		return nil
	}
	out := make([]string, len(hits))
	copy(out, hits)
	return out
}
