package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Document is one stored record keyed by field name. The store-assigned
// identifier lives under "_id"; the API layer renames it before it leaves
// the process.
type Document map[string]any

// ErrUnavailable is returned by operations that need a store connection when
// none exists.
var ErrUnavailable = errors.New("store not available")

// Status describes the connection for health reporting.
type Status struct {
	Connected bool
	Name      string
}

// Store is the persistence contract shared by all backends. Inserts are
// single-document and atomic; Find filters are exact-match only.
type Store interface {
	// Insert adds one document to the named collection and returns the
	// store-generated identifier.
	Insert(ctx context.Context, collection string, doc Document) (string, error)

	// Find returns documents matching every filter entry, up to limit.
	// An empty filter matches everything. A miss is an empty slice, not an
	// error. Ordering is the store's natural scan order.
	Find(ctx context.Context, collection string, filter map[string]any, limit int) ([]Document, error)

	// CountByField groups the collection by a field and counts each group.
	// Documents where the field is missing or empty count under "".
	CountByField(ctx context.Context, collection, field string) (map[string]int, error)

	// CollectionNames lists collections for diagnostics. Callers treat a
	// failure as a caveat, not a fatal condition.
	CollectionNames(ctx context.Context) ([]string, error)

	Status() Status
	Close() error
}

// Open picks a backend from the connection string: mongodb URLs get the
// MongoDB backend, websocket URLs get SurrealDB, anything else is treated as
// a SQLite file path.
func Open(url string) (Store, error) {
	switch {
	case url == "":
		return nil, fmt.Errorf("empty connection string: %w", ErrUnavailable)
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		s, err := OpenMongo(url)
		if err != nil {
			return nil, err
		}
		return s, nil
	case strings.HasPrefix(url, "ws://"), strings.HasPrefix(url, "wss://"):
		s, err := OpenSurreal(url)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := OpenSQLite(url)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
