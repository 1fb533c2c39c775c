// Package index implements the Bloom-filter document index: an ordered map
// from document key to per-document filter, plus its snapshot codec and
// file persistence.
package index

import (
	"log/slog"
	"strconv"

	"github.com/odespesse/cli-bloom/internal/bloom"
	"github.com/odespesse/cli-bloom/internal/errors"
	"github.com/odespesse/cli-bloom/internal/tokenizer"
)

// Index maps document keys to Bloom filters in insertion order.
//
// Every filter is sized with the index's error rate and that document's own
// distinct token count at insertion time. The configured rate is therefore a
// per-document target, not an aggregate guarantee across the corpus.
//
// An Index is owned by a single caller; it does no internal locking.
type Index struct {
	errorRate float64
	keys      []string
	filters   map[string]*bloom.Filter
	gen       uint64
}

// New creates an empty Index with the given target false-positive rate.
// The rate must be strictly between 0 and 1.
func New(errorRate float64) (*Index, error) {
	if errorRate <= 0 || errorRate >= 1 {
		return nil, errors.New(errors.ErrCodeInvalidErrorRate,
			"error rate must be strictly between 0 and 1", nil).
			WithDetail("error_rate", strconv.FormatFloat(errorRate, 'g', -1, 64))
	}
	return &Index{
		errorRate: errorRate,
		filters:   make(map[string]*bloom.Filter),
	}, nil
}

// ErrorRate returns the configured target false-positive rate.
func (x *Index) ErrorRate() float64 {
	return x.errorRate
}

// Insert tokenizes content, builds a filter sized to the index's error rate,
// and stores it under key. Re-inserting an existing key replaces its filter
// but keeps its original position in iteration order.
func (x *Index) Insert(key, content string) {
	tokens := tokenizer.Tokenize(content)

	if _, exists := x.filters[key]; !exists {
		x.keys = append(x.keys, key)
	}
	x.filters[key] = bloom.New(tokens, x.errorRate)
	x.gen++

	slog.Debug("filter_built",
		slog.String("key", key),
		slog.Int("distinct_tokens", tokenizer.Distinct(tokens)))
}

// Search tokenizes the query and returns the keys of all documents whose
// filter contains every query token, in insertion order.
//
// The boolean is the no-match signal: it is false when the query normalizes
// to zero tokens or when no document matches, so callers can tell "no hits"
// apart from a populated result. Search never mutates the index.
func (x *Index) Search(query string) ([]string, bool) {
	tokens := tokenizer.Tokenize(query)
	if len(tokens) == 0 {
		return nil, false
	}

	var hits []string
	for _, key := range x.keys {
		if x.filters[key].ContainsAll(tokens) {
			hits = append(hits, key)
		}
	}
	if len(hits) == 0 {
		return nil, false
	}
	return hits, true
}

// Len returns the number of indexed documents.
func (x *Index) Len() int {
	return len(x.keys)
}

// Keys returns the document keys in insertion order.
func (x *Index) Keys() []string {
	out := make([]string, len(x.keys))
	copy(out, x.keys)
	return out
}

// Generation increments on every Insert. The search engine uses it to
// invalidate cached query results.
func (x *Index) Generation() uint64 {
	return x.gen
}

// filter returns the stored filter for key, or nil. Codec internal.
func (x *Index) filter(key string) *bloom.Filter {
	return x.filters[key]
}

// restoreFilter appends a key with a prebuilt filter, preserving call order.
// Codec internal; assumes the key is not already present.
func (x *Index) restoreFilter(key string, f *bloom.Filter) {
	x.keys = append(x.keys, key)
	x.filters[key] = f
	x.gen++
}
