package store

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// Surreal talks to a SurrealDB instance over its websocket RPC endpoint.
// Selected when the connection string is a ws:// or wss:// URL, e.g.
// ws://localhost:8000/rpc. Credentials and namespace come from SURREAL_USER,
// SURREAL_PASS, SURREAL_NS and SURREAL_DB.
type Surreal struct {
	db   *surrealdb.DB
	name string
}

func OpenSurreal(url string) (*Surreal, error) {
	db, err := surrealdb.New(url)
	if err != nil {
		return nil, fmt.Errorf("connect surrealdb: %w", err)
	}

	if user := os.Getenv("SURREAL_USER"); user != "" {
		if _, err := db.Signin(map[string]any{
			"user": user,
			"pass": os.Getenv("SURREAL_PASS"),
		}); err != nil {
			db.Close()
			return nil, fmt.Errorf("signin surrealdb: %w", err)
		}
	}

	ns := envOr("SURREAL_NS", "atelier")
	name := envOr("SURREAL_DB", "atelier")
	if _, err := db.Use(ns, name); err != nil {
		db.Close()
		return nil, fmt.Errorf("use %s/%s: %w", ns, name, err)
	}

	return &Surreal{db: db, name: name}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *Surreal) Close() error {
	s.db.Close()
	return nil
}

func (s *Surreal) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	res, err := s.db.Create(collection, map[string]any(doc))
	if err != nil {
		return "", fmt.Errorf("create %s: %w", collection, err)
	}

	id, ok := createdID(res)
	if !ok {
		return "", fmt.Errorf("create %s: no id in response", collection)
	}
	return id, nil
}

func (s *Surreal) Find(ctx context.Context, collection string, filter map[string]any, limit int) ([]Document, error) {
	sql := "SELECT * FROM type::table($tb)"
	vars := map[string]any{"tb": collection}

	// Deterministic clause order; filter fields come from the API layer.
	fields := make([]string, 0, len(filter))
	for f := range filter {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var conds []string
	for i, f := range fields {
		param := fmt.Sprintf("v%d", i)
		conds = append(conds, fmt.Sprintf("%s = $%s", f, param))
		vars[param] = filter[f]
	}
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	if limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", limit)
	}

	res, err := s.db.Query(sql, vars)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}

	rows, err := queryRows(res)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		doc := Document{}
		for k, v := range row {
			doc[k] = v
		}
		if id, ok := doc["id"]; ok {
			delete(doc, "id")
			doc["_id"] = fmt.Sprint(id)
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func (s *Surreal) CountByField(ctx context.Context, collection, field string) (map[string]int, error) {
	sql := fmt.Sprintf("SELECT %s, count() AS count FROM type::table($tb) GROUP BY %s", field, field)

	res, err := s.db.Query(sql, map[string]any{"tb": collection})
	if err != nil {
		return nil, fmt.Errorf("count %s by %s: %w", collection, field, err)
	}

	rows, err := queryRows(res)
	if err != nil {
		return nil, fmt.Errorf("count %s by %s: %w", collection, field, err)
	}

	counts := map[string]int{}
	for _, row := range rows {
		key, _ := row[field].(string)
		n, ok := row["count"].(float64)
		if !ok {
			continue
		}
		counts[key] += int(n)
	}

	return counts, nil
}

func (s *Surreal) CollectionNames(ctx context.Context) ([]string, error) {
	res, err := s.db.Query("INFO FOR DB", nil)
	if err != nil {
		return nil, fmt.Errorf("info for db: %w", err)
	}

	rows, err := queryRows(res)
	if err != nil {
		return nil, fmt.Errorf("info for db: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// 1.x reports tables under "tables", older builds under "tb".
	tables, ok := rows[0]["tables"].(map[string]any)
	if !ok {
		tables, ok = rows[0]["tb"].(map[string]any)
	}
	if !ok {
		return nil, fmt.Errorf("info for db: unexpected response shape")
	}

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Surreal) Status() Status {
	return Status{Connected: true, Name: s.name}
}

// queryRows unpacks the first statement result of a raw query response.
func queryRows(res any) ([]map[string]any, error) {
	arr, ok := res.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected response type %T", res)
	}
	if len(arr) == 0 {
		return nil, nil
	}

	first, ok := arr[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T", arr[0])
	}
	if status, _ := first["status"].(string); status != "" && status != "OK" {
		return nil, fmt.Errorf("statement failed: %v", first["result"])
	}

	items, _ := first["result"].([]any)
	rows := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if row, ok := item.(map[string]any); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// createdID digs the record id out of a create response, which is either the
// created record or a single-element array of it.
func createdID(res any) (string, bool) {
	switch t := res.(type) {
	case map[string]any:
		if id, ok := t["id"].(string); ok {
			return id, true
		}
	case []any:
		if len(t) > 0 {
			return createdID(t[0])
		}
	}
	return "", false
}
