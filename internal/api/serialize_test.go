package api

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/store"
)

func TestSerializeDocPromotesID(t *testing.T) {
	out := serializeDoc(store.Document{"_id": "abc-123", "title": "Portrait"})

	assert.Equal(t, "abc-123", out["id"])
	assert.Equal(t, "Portrait", out["title"])
	_, ok := out["_id"]
	assert.False(t, ok)
}

func TestSerializeDocFormatsTimes(t *testing.T) {
	due := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	out := serializeDoc(store.Document{"_id": "x", "due_date": due})

	s, ok := out["due_date"].(string)
	require.True(t, ok)
	assert.Equal(t, "2026-03-01T12:30:00Z", s)

	// T separator, ISO-8601 shape.
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`), s)
}

func TestSerializeDocPreservesOffset(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	due := time.Date(2026, 3, 1, 12, 30, 0, 0, loc)
	out := serializeDoc(store.Document{"due_date": due})

	assert.Equal(t, "2026-03-01T12:30:00+01:00", out["due_date"])
}

func TestSerializeDocIdempotent(t *testing.T) {
	doc := store.Document{
		"_id":      "abc",
		"title":    "Portrait",
		"price":    150.0,
		"tags":     []any{"digital"},
		"due_date": time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
	}

	once := serializeDoc(doc)
	twice := serializeDoc(store.Document(once))

	assert.Equal(t, once, twice)
}

func TestSerializeDocDoesNotMutateInput(t *testing.T) {
	doc := store.Document{"_id": "abc", "title": "Portrait"}
	_ = serializeDoc(doc)

	assert.Equal(t, "abc", doc["_id"])
}
