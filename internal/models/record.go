package models

import (
	"strconv"
	"time"
)

// Record is one fetched document from the upstream API. The payload is kept
// opaque so upstream schema drift never requires a local migration; typed
// reads go through the Payload accessors.
type Record struct {
	ID        string
	Payload   Payload
	UpdatedAt *time.Time
}

// RecordFromDoc builds a Record from a raw fetched document. Returns false
// when the document has no usable id; such records are skipped by the writer.
func RecordFromDoc(doc map[string]any) (Record, bool) {
	p := Payload(doc)

	id, ok := extractID(doc["id"])
	if !ok {
		return Record{}, false
	}

	rec := Record{ID: id, Payload: p}
	if t, ok := p.GetTime("updated_at"); ok {
		rec.UpdatedAt = &t
	}
	return rec, true
}

// NumericID parses the record id as an integer. IDs that are not numeric
// (some reference resources use opaque string ids) report false and are
// excluded from the last-id cursor.
func (r Record) NumericID() (int64, bool) {
	n, err := strconv.ParseInt(r.ID, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func extractID(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		if id == "" {
			return "", false
		}
		return id, true
	case float64:
		// JSON numbers decode as float64
		return strconv.FormatInt(int64(id), 10), true
	case int:
		return strconv.Itoa(id), true
	case int64:
		return strconv.FormatInt(id, 10), true
	default:
		return "", false
	}
}
