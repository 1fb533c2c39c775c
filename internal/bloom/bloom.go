// Package bloom implements the per-document Bloom filter used by the index.
//
// A filter is a fixed-size bit array plus a hash fan-out k. Bits are only
// ever set, never cleared, so a token that was inserted always tests
// positive (no false negatives). Tokens that were never inserted test
// positive with a probability bounded by the error rate the filter was
// sized for.
package bloom

import (
	"fmt"
	"hash/fnv"
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash/v2"
)

// ln2Squared is (ln 2)^2, the denominator of the optimal sizing relation.
var ln2Squared = math.Ln2 * math.Ln2

// Filter is a probabilistic set over token strings.
// Size and fan-out are fixed at construction; re-indexing a document means
// discarding its filter and building a new one.
type Filter struct {
	bits *bitset.BitSet
	m    uint64 // bit count
	k    uint64 // hash probes per element
}

// New builds a filter sized for the given document tokens and target
// false-positive rate, then inserts every token.
//
// Sizing uses the standard optimal relations over the number of distinct
// tokens n: m = ceil(-(n*ln p)/(ln 2)^2) and k = round((m/n)*ln 2), with
// floors of m >= 1 and k >= 1 so zero-token documents still get a valid,
// empty filter.
func New(tokens []string, errorRate float64) *Filter {
	distinct := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		distinct[t] = struct{}{}
	}
	n := len(distinct)

	m, k := size(n, errorRate)
	f := &Filter{
		bits: bitset.New(uint(m)),
		m:    m,
		k:    k,
	}
	for t := range distinct {
		f.Insert(t)
	}
	return f
}

// size computes (m, k) for n distinct elements at the target rate.
func size(n int, errorRate float64) (m, k uint64) {
	if n == 0 {
		return 1, 1
	}

	mf := math.Ceil(-(float64(n) * math.Log(errorRate)) / ln2Squared)
	if mf < 1 {
		mf = 1
	}
	m = uint64(mf)

	kf := math.Round(mf / float64(n) * math.Ln2)
	if kf < 1 {
		kf = 1
	}
	k = uint64(kf)
	return m, k
}

// Insert sets the k bit positions derived from the token. Idempotent.
func (f *Filter) Insert(token string) {
	h1, h2 := baseHashes(token)
	for i := uint64(0); i < f.k; i++ {
		f.bits.Set(uint((h1 + i*h2) % f.m))
	}
}

// Contains reports whether all k bit positions for the token are set.
// It returns false as soon as one required bit is unset.
func (f *Filter) Contains(token string) bool {
	h1, h2 := baseHashes(token)
	for i := uint64(0); i < f.k; i++ {
		if !f.bits.Test(uint((h1 + i*h2) % f.m)) {
			return false
		}
	}
	return true
}

// ContainsAll reports whether every token tests positive. Returns true for
// an empty token slice.
func (f *Filter) ContainsAll(tokens []string) bool {
	for _, t := range tokens {
		if !f.Contains(t) {
			return false
		}
	}
	return true
}

// baseHashes derives the two independent hashes combined by double hashing:
// position_i = (h1 + i*h2) mod m.
func baseHashes(token string) (h1, h2 uint64) {
	h1 = xxhash.Sum64String(token)

	fh := fnv.New64a()
	_, _ = fh.Write([]byte(token))
	h2 = fh.Sum64()
	return h1, h2
}

// BitCount returns m, the length of the bit array.
func (f *Filter) BitCount() uint64 {
	return f.m
}

// KeyCount returns k, the hash fan-out.
func (f *Filter) KeyCount() uint64 {
	return f.k
}

// PackedBytes encodes the bit array as ceil(m/8) bytes, most significant
// bit first within each byte. This is the canonical snapshot encoding.
func (f *Filter) PackedBytes() []byte {
	packed := make([]byte, (f.m+7)/8)
	for i := uint64(0); i < f.m; i++ {
		if f.bits.Test(uint(i)) {
			packed[i/8] |= 0x80 >> (i % 8)
		}
	}
	return packed
}

// FromPacked reconstructs a filter from its snapshot form. The byte slice
// must be exactly ceil(m/8) long; bits beyond m within the last byte must
// be zero.
func FromPacked(k uint64, packed []byte, m uint64) (*Filter, error) {
	if m < 1 || k < 1 {
		return nil, fmt.Errorf("filter sizes must be positive: m=%d k=%d", m, k)
	}
	if want := (m + 7) / 8; uint64(len(packed)) != want {
		return nil, fmt.Errorf("bitfield length %d does not match bitfield_size %d (want %d bytes)",
			len(packed), m, want)
	}

	f := &Filter{
		bits: bitset.New(uint(m)),
		m:    m,
		k:    k,
	}
	for i := uint64(0); i < uint64(len(packed))*8; i++ {
		if packed[i/8]&(0x80>>(i%8)) == 0 {
			continue
		}
		if i >= m {
			return nil, fmt.Errorf("bit %d set beyond bitfield_size %d", i, m)
		}
		f.bits.Set(uint(i))
	}
	return f, nil
}

// Equal reports whether two filters have identical size, fan-out, and bits.
// Used by round-trip tests.
func (f *Filter) Equal(other *Filter) bool {
	return f.m == other.m && f.k == other.k && f.bits.Equal(other.bits)
}
