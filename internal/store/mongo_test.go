package store

import (
	"context"
	"os"
	"testing"
	"time"
)

// Runs against a live deployment only, e.g.
// MONGO_TEST_URL=mongodb://localhost:27017/atelier_test go test ./internal/store
func TestMongoRoundTrip(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URL")
	if uri == "" {
		t.Skip("MONGO_TEST_URL not set")
	}

	s, err := OpenMongo(uri)
	if err != nil {
		t.Fatalf("open mongo: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	collection := "commission_mongo_test"
	defer s.db.Collection(collection).Drop(ctx)

	due := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	id, err := s.Insert(ctx, collection, Document{
		"title":    "Album cover",
		"status":   "New",
		"due_date": due,
		"tags":     []string{"digital"},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated id")
	}

	docs, err := s.Find(ctx, collection, map[string]any{"status": "New"}, 10)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0]["_id"] != id {
		t.Fatalf("expected _id %q, got %v", id, docs[0]["_id"])
	}
	if _, ok := docs[0]["due_date"].(time.Time); !ok {
		t.Fatalf("expected due_date as time.Time, got %T", docs[0]["due_date"])
	}

	counts, err := s.CountByField(ctx, collection, "status")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts["New"] != 1 {
		t.Fatalf("expected 1 New, got %d", counts["New"])
	}
}
