package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odespesse/cli-bloom/internal/errors"
)

func TestNew_ValidatesErrorRate(t *testing.T) {
	tests := []struct {
		name    string
		rate    float64
		wantErr bool
	}{
		{name: "typical rate", rate: 0.01, wantErr: false},
		{name: "small rate", rate: 0.00001, wantErr: false},
		{name: "zero", rate: 0, wantErr: true},
		{name: "one", rate: 1, wantErr: true},
		{name: "negative", rate: -0.5, wantErr: true},
		{name: "above one", rate: 1.5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, err := New(tt.rate)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeInvalidErrorRate, errors.GetCode(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.rate, x.ErrorRate())
			}
		})
	}
}

func TestSearch_SingleKeyword(t *testing.T) {
	x := mustNew(t, 0.01)
	x.Insert("file1.txt", "word1 word2 word3")
	x.Insert("file2.txt", "word4 word5")

	hits, found := x.Search("word1")
	require.True(t, found)
	assert.Equal(t, []string{"file1.txt"}, hits)

	hits, found = x.Search("word4")
	require.True(t, found)
	assert.Equal(t, []string{"file2.txt"}, hits)
}

func TestSearch_NoMatchSignal(t *testing.T) {
	x := mustNew(t, 0.01)
	x.Insert("file1.txt", "word1 word2 word3")

	hits, found := x.Search("word6")
	assert.False(t, found)
	assert.Nil(t, hits)
}

func TestSearch_EmptyQueryIsNoMatch(t *testing.T) {
	x := mustNew(t, 0.01)
	x.Insert("file1.txt", "word1 word2")

	for _, query := range []string{"", "   ", "(),.?!"} {
		_, found := x.Search(query)
		assert.False(t, found, "query %q must report no match", query)
	}
}

func TestSearch_AndSemantics(t *testing.T) {
	x := mustNew(t, 0.01)
	x.Insert("both.txt", "alpha beta gamma")
	x.Insert("one.txt", "alpha delta")

	hits, found := x.Search("alpha beta")
	require.True(t, found)
	assert.Equal(t, []string{"both.txt"}, hits)

	// OR would have returned both documents for this query.
	hits, found = x.Search("alpha")
	require.True(t, found)
	assert.Equal(t, []string{"both.txt", "one.txt"}, hits)
}

func TestSearch_PreservesInsertionOrder(t *testing.T) {
	x := mustNew(t, 0.01)
	x.Insert("c.txt", "shared token")
	x.Insert("a.txt", "shared token")
	x.Insert("b.txt", "shared token")

	hits, found := x.Search("shared")
	require.True(t, found)
	assert.Equal(t, []string{"c.txt", "a.txt", "b.txt"}, hits)
}

func TestInsert_OverwriteKeepsPosition(t *testing.T) {
	x := mustNew(t, 0.01)
	x.Insert("first.txt", "stale")
	x.Insert("second.txt", "keep")
	x.Insert("first.txt", "fresh keep")

	assert.Equal(t, []string{"first.txt", "second.txt"}, x.Keys())
	assert.Equal(t, 2, x.Len())

	// Old content is gone, new content is searchable.
	_, found := x.Search("stale")
	assert.False(t, found)

	hits, found := x.Search("keep")
	require.True(t, found)
	assert.Equal(t, []string{"first.txt", "second.txt"}, hits)
}

func TestSearch_QueryNormalizationMatchesContent(t *testing.T) {
	x := mustNew(t, 0.01)
	x.Insert("file1.txt", "word1 word2 word3")

	hits, found := x.Search("(word1) Word2, word3?")
	require.True(t, found)
	assert.Equal(t, []string{"file1.txt"}, hits)
}

func TestSearch_NeverMutates(t *testing.T) {
	x := mustNew(t, 0.01)
	x.Insert("file1.txt", "word1")
	gen := x.Generation()

	x.Search("word1")
	x.Search("missing")

	assert.Equal(t, gen, x.Generation())
	assert.Equal(t, []string{"file1.txt"}, x.Keys())
}

func TestGeneration_BumpsOnInsert(t *testing.T) {
	x := mustNew(t, 0.01)
	gen := x.Generation()

	x.Insert("a.txt", "one")
	assert.Greater(t, x.Generation(), gen)
}

func mustNew(t *testing.T, rate float64) *Index {
	t.Helper()
	x, err := New(rate)
	require.NoError(t, err)
	return x
}
