package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedrelay/internal/domain"
)

func resolveBatch(articles []domain.Article) {
	r := NewResolver()
	for _, a := range articles {
		r.Record(a)
	}
	r.Resolve(articles)
}

func TestResolver_PrefersMergedType(t *testing.T) {
	articles := []domain.Article{
		{"guid": "a", "pubdate": "2024-01-01", "title": "one"},
		{"guid": "b", "pubdate": "2024-01-02", "title": "two"},
	}

	r := NewResolver()
	for _, a := range articles {
		r.Record(a)
	}

	// All candidates valid; the first merged type wins over any base type.
	assert.Equal(t, "guid,pubdate", r.IDType())

	r.Resolve(articles)
	assert.Equal(t, "a2024-01-01", articles[0].ID())
	assert.Equal(t, "b2024-01-02", articles[1].ID())
}

func TestResolver_FallsBackToBaseType(t *testing.T) {
	// Duplicate pubdate kills every candidate containing pubdate, and
	// duplicate titles kill title-based ones; only guid survives.
	articles := []domain.Article{
		{"guid": "a", "pubdate": "2024-01-01", "title": "same"},
		{"guid": "b", "pubdate": "2024-01-01", "title": "same"},
	}

	r := NewResolver()
	for _, a := range articles {
		r.Record(a)
	}

	assert.Equal(t, "guid", r.IDType())
}

func TestResolver_DegenerateBatchStillResolves(t *testing.T) {
	// Every field identical across the batch: every candidate fails,
	// the last failure is used best-effort.
	articles := []domain.Article{
		{"guid": "x", "pubdate": "p", "title": "t"},
		{"guid": "x", "pubdate": "p", "title": "t"},
		{"guid": "x", "pubdate": "p", "title": "t"},
	}

	resolveBatch(articles)

	for _, a := range articles {
		require.NotEmpty(t, a.ID())
		require.NotEmpty(t, a.IDHash())
	}
}

func TestResolver_EmptyFieldInvalidatesType(t *testing.T) {
	articles := []domain.Article{
		{"guid": "", "pubdate": "2024-01-01", "title": "one"},
		{"guid": "b", "pubdate": "2024-01-02", "title": "two"},
	}

	r := NewResolver()
	for _, a := range articles {
		r.Record(a)
	}

	// The base guid type failed on the empty value, but the merged
	// type still yields a non-empty unique value for both articles.
	assert.True(t, r.invalid["guid"])
	assert.Equal(t, "guid,pubdate", r.IDType())
}

func TestResolver_Deterministic(t *testing.T) {
	build := func() []domain.Article {
		return []domain.Article{
			{"guid": "g1", "title": "Hello", "pubdate": "2024-01-01"},
			{"guid": "g2", "title": "World", "pubdate": "2024-01-02"},
			{"guid": "g3", "title": "Again", "pubdate": "2024-01-03"},
		}
	}

	first := build()
	second := build()
	resolveBatch(first)
	resolveBatch(second)

	for i := range first {
		assert.Equal(t, first[i].ID(), second[i].ID())
		assert.Equal(t, first[i].IDHash(), second[i].IDHash())
	}
}

func TestHashValue_Stable(t *testing.T) {
	assert.Equal(t, HashValue("abc"), HashValue("abc"))
	assert.NotEqual(t, HashValue("abc"), HashValue("abd"))
	// sha1 hex digest length
	assert.Len(t, HashValue("abc"), 40)
}
