package index

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odespesse/cli-bloom/internal/errors"
)

func TestMarshal_Shape(t *testing.T) {
	x := mustNew(t, 0.1)
	x.Insert("doc.txt", "word1 word2 word3 word4")

	data, err := Marshal(x)
	require.NoError(t, err)

	// The output is regular JSON with the canonical field names.
	var decoded struct {
		ErrorRate float64 `json:"error_rate"`
		Filters   map[string]struct {
			KeySize      int   `json:"key_size"`
			Bitfield     []int `json:"bitfield"`
			BitfieldSize int   `json:"bitfield_size"`
		} `json:"bloom_filters"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, 0.1, decoded.ErrorRate)
	require.Contains(t, decoded.Filters, "doc.txt")

	entry := decoded.Filters["doc.txt"]
	assert.GreaterOrEqual(t, entry.KeySize, 1)
	assert.GreaterOrEqual(t, entry.BitfieldSize, 1)
	assert.Len(t, entry.Bitfield, (entry.BitfieldSize+7)/8)
}

func TestMarshal_PreservesInsertionOrder(t *testing.T) {
	x := mustNew(t, 0.01)
	// Deliberately not alphabetical: a map-based marshal would reorder.
	x.Insert("zebra.txt", "one")
	x.Insert("apple.txt", "two")
	x.Insert("mango.txt", "three")

	data, err := Marshal(x)
	require.NoError(t, err)

	text := string(data)
	zebra := strings.Index(text, `"zebra.txt"`)
	apple := strings.Index(text, `"apple.txt"`)
	mango := strings.Index(text, `"mango.txt"`)
	require.NotEqual(t, -1, zebra)
	require.NotEqual(t, -1, apple)
	require.NotEqual(t, -1, mango)
	assert.Less(t, zebra, apple)
	assert.Less(t, apple, mango)
}

func TestRoundTrip_Exact(t *testing.T) {
	x := mustNew(t, 0.01)
	x.Insert("b.txt", "word1 word2 word3")
	x.Insert("a.txt", "word4 word5")
	x.Insert("c.txt", "word1 word6")

	data, err := Marshal(x)
	require.NoError(t, err)

	restored, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, x.ErrorRate(), restored.ErrorRate())
	assert.Equal(t, x.Keys(), restored.Keys())

	// Identical bits mean identical answers for every query.
	for _, key := range x.Keys() {
		assert.True(t, x.filter(key).Equal(restored.filter(key)),
			"filter for %s must round-trip bit-for-bit", key)
	}

	for _, query := range []string{"word1", "word2", "word4", "word6", "missing", "word1 word6"} {
		wantHits, wantFound := x.Search(query)
		gotHits, gotFound := restored.Search(query)
		assert.Equal(t, wantFound, gotFound, "query %q", query)
		assert.Equal(t, wantHits, gotHits, "query %q", query)
	}
}

func TestRoundTrip_SurvivesSecondGeneration(t *testing.T) {
	x := mustNew(t, 0.01)
	x.Insert("a.txt", "alpha")

	data, err := Marshal(x)
	require.NoError(t, err)
	restored, err := Unmarshal(data)
	require.NoError(t, err)

	// A restored index keeps accepting insertions with the restored rate.
	restored.Insert("b.txt", "beta")
	hits, found := restored.Search("beta")
	require.True(t, found)
	assert.Equal(t, []string{"b.txt"}, hits)

	again, err := Marshal(restored)
	require.NoError(t, err)
	twice, err := Unmarshal(again)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, twice.Keys())
}

func TestUnmarshal_FieldOrderInsensitive(t *testing.T) {
	x := mustNew(t, 0.01)
	x.Insert("zebra.txt", "word1 word2")
	x.Insert("apple.txt", "word3")

	data, err := Marshal(x)
	require.NoError(t, err)

	// Rebuild the snapshot with bloom_filters before error_rate. The writer
	// always emits error_rate first, but a reader must accept either order.
	text := string(data)
	require.True(t, strings.HasPrefix(text, `{"error_rate":0.01,"bloom_filters":`))
	filters := strings.TrimSuffix(strings.TrimPrefix(text, `{"error_rate":0.01,`), "}")
	reversed := "{" + filters + `,"error_rate":0.01}`

	restored, err := Unmarshal([]byte(reversed))
	require.NoError(t, err)
	assert.Equal(t, x.Keys(), restored.Keys())
	assert.Equal(t, 0.01, restored.ErrorRate())

	hits, found := restored.Search("word1")
	require.True(t, found)
	assert.Equal(t, []string{"zebra.txt"}, hits)
}

func TestUnmarshal_EmptyIndex(t *testing.T) {
	data := []byte(`{"error_rate":0.01,"bloom_filters":{}}`)
	x, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, 0, x.Len())
	assert.Equal(t, 0.01, x.ErrorRate())
}

func TestUnmarshal_KnownSnapshot(t *testing.T) {
	// A snapshot is self-contained: restoring it answers queries without
	// access to the original content.
	x := mustNew(t, 0.1)
	x.Insert("./test/data/simple_content.txt", "word1 word2 word3 word4")
	data, err := Marshal(x)
	require.NoError(t, err)

	restored, err := Unmarshal(data)
	require.NoError(t, err)

	for _, w := range []string{"word1", "word2", "word3", "word4"} {
		hits, found := restored.Search(w)
		require.True(t, found, "token %s", w)
		assert.Equal(t, []string{"./test/data/simple_content.txt"}, hits)
	}
}

func TestUnmarshal_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not json", input: `word salad`},
		{name: "not an object", input: `[1,2,3]`},
		{name: "missing error_rate", input: `{"bloom_filters":{}}`},
		{name: "missing bloom_filters", input: `{"error_rate":0.01}`},
		{name: "error_rate wrong type", input: `{"error_rate":"0.01","bloom_filters":{}}`},
		{name: "error_rate zero", input: `{"error_rate":0,"bloom_filters":{}}`},
		{name: "error_rate negative", input: `{"error_rate":-0.5,"bloom_filters":{}}`},
		{name: "error_rate above one", input: `{"error_rate":2,"bloom_filters":{}}`},
		{name: "bloom_filters wrong type", input: `{"error_rate":0.01,"bloom_filters":[]}`},
		{name: "unknown top-level field", input: `{"error_rate":0.01,"bloom_filters":{},"capacity":3}`},
		{name: "duplicate error_rate", input: `{"error_rate":0.01,"error_rate":0.02,"bloom_filters":{}}`},
		{
			name:  "duplicate document key",
			input: `{"error_rate":0.01,"bloom_filters":{"a":{"key_size":1,"bitfield":[0],"bitfield_size":8},"a":{"key_size":1,"bitfield":[0],"bitfield_size":8}}}`,
		},
		{name: "trailing data", input: `{"error_rate":0.01,"bloom_filters":{}}{}`},
		{
			name:  "entry missing key_size",
			input: `{"error_rate":0.01,"bloom_filters":{"a":{"bitfield":[0],"bitfield_size":8}}}`,
		},
		{
			name:  "entry missing bitfield",
			input: `{"error_rate":0.01,"bloom_filters":{"a":{"key_size":1,"bitfield_size":8}}}`,
		},
		{
			name:  "entry missing bitfield_size",
			input: `{"error_rate":0.01,"bloom_filters":{"a":{"key_size":1,"bitfield":[0]}}}`,
		},
		{
			name:  "negative key_size",
			input: `{"error_rate":0.01,"bloom_filters":{"a":{"key_size":-1,"bitfield":[0],"bitfield_size":8}}}`,
		},
		{
			name:  "negative bitfield_size",
			input: `{"error_rate":0.01,"bloom_filters":{"a":{"key_size":1,"bitfield":[0],"bitfield_size":-8}}}`,
		},
		{
			name:  "bitfield value out of byte range",
			input: `{"error_rate":0.01,"bloom_filters":{"a":{"key_size":1,"bitfield":[256],"bitfield_size":8}}}`,
		},
		{
			name:  "bitfield length mismatch",
			input: `{"error_rate":0.01,"bloom_filters":{"a":{"key_size":1,"bitfield":[0,0,0],"bitfield_size":8}}}`,
		},
		{
			name:  "entry with unknown field",
			input: `{"error_rate":0.01,"bloom_filters":{"a":{"key_size":1,"bitfield":[0],"bitfield_size":8,"capacity":8}}}`,
		},
		{
			name:  "bitfield wrong type",
			input: `{"error_rate":0.01,"bloom_filters":{"a":{"key_size":1,"bitfield":"AAA=","bitfield_size":8}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, errors.IsMalformedSnapshot(err),
				"expected MalformedSnapshot, got %v", err)
		})
	}
}

func TestMarshal_EscapesDocumentKeys(t *testing.T) {
	x := mustNew(t, 0.01)
	key := `dir with "quotes"/file.txt`
	x.Insert(key, "token")

	data, err := Marshal(x)
	require.NoError(t, err)

	restored, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, restored.Keys())
}

func BenchmarkMarshal(b *testing.B) {
	x, _ := New(0.01)
	for i := 0; i < 100; i++ {
		x.Insert(fmt.Sprintf("doc%03d.txt", i),
			fmt.Sprintf("alpha beta gamma delta%d epsilon%d", i, i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Marshal(x)
	}
}
