package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// knownCollections whitelists table names so collection strings can be
// spliced into SQL safely.
var knownCollections = map[string]bool{
	"client":     true,
	"commission": true,
	"note":       true,
}

// SQLite stores each record as a JSON document in a per-collection table.
// This is the default backend.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (and if needed initializes) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	if err := checkCollection(collection); err != nil {
		return "", err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (id, doc) VALUES (?, ?)", collection),
		id, string(raw),
	)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}

	return id, nil
}

func (s *SQLite) Find(ctx context.Context, collection string, filter map[string]any, limit int) ([]Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT id, doc FROM %s", collection)
	var args []any

	// Filter fields are produced by the API layer, not request input, so
	// they are safe to splice into the json_extract path.
	fields := make([]string, 0, len(filter))
	for f := range filter {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var conds []string
	for _, f := range fields {
		conds = append(conds, fmt.Sprintf("json_extract(doc, '$.%s') = ?", f))
		args = append(args, filter[f])
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}

		doc := Document{}
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", collection, id, err)
		}
		doc["_id"] = id
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

func (s *SQLite) CountByField(ctx context.Context, collection, field string) (map[string]int, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT COALESCE(json_extract(doc, '$.%s'), ''), COUNT(*) FROM %s GROUP BY 1",
		field, collection,
	))
	if err != nil {
		return nil, fmt.Errorf("count %s by %s: %w", collection, field, err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var value string
		var n int
		if err := rows.Scan(&value, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[value] = n
	}

	return counts, rows.Err()
}

func (s *SQLite) CollectionNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

func (s *SQLite) Status() Status {
	return Status{Connected: true, Name: filepath.Base(s.path)}
}

func checkCollection(collection string) error {
	if !knownCollections[collection] {
		return fmt.Errorf("unknown collection %q", collection)
	}
	return nil
}
