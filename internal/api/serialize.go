package api

import (
	"fmt"
	"time"

	"atelier/internal/store"
)

// serializeDoc shapes a stored record for transport: the internal "_id"
// moves to the public key "id" as a string, and date-time values become
// ISO-8601 strings with whatever offset the stored value carries. Applying
// it to an already-serialized record changes nothing.
func serializeDoc(doc store.Document) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}

	if id, ok := out["_id"]; ok {
		delete(out, "_id")
		out["id"] = fmt.Sprint(id)
	}

	for k, v := range out {
		if t, ok := v.(time.Time); ok {
			out[k] = t.Format(time.RFC3339Nano)
		}
	}

	return out
}
