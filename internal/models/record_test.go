package models

import (
	"testing"
	"time"
)

func TestRecordFromDoc(t *testing.T) {
	doc := map[string]any{
		"id":         float64(42),
		"updated_at": "2025-03-01T10:30:00Z",
		"status":     "open",
	}

	rec, ok := RecordFromDoc(doc)
	if !ok {
		t.Fatal("expected a usable record")
	}
	if rec.ID != "42" {
		t.Errorf("ID = %q, want \"42\"", rec.ID)
	}
	want := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	if rec.UpdatedAt == nil || !rec.UpdatedAt.Equal(want) {
		t.Errorf("UpdatedAt = %v, want %v", rec.UpdatedAt, want)
	}
	if status, _ := rec.Payload.GetString("status"); status != "open" {
		t.Errorf("payload status = %q, want open", status)
	}
}

func TestRecordFromDocIDTypes(t *testing.T) {
	cases := []struct {
		name string
		id   any
		want string
		ok   bool
	}{
		{"string", "rec-9", "rec-9", true},
		{"float64", float64(7), "7", true},
		{"int", 12, "12", true},
		{"int64", int64(99), "99", true},
		{"empty string", "", "", false},
		{"missing", nil, "", false},
		{"bool", true, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := map[string]any{}
			if tc.id != nil {
				doc["id"] = tc.id
			}
			rec, ok := RecordFromDoc(doc)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && rec.ID != tc.want {
				t.Errorf("ID = %q, want %q", rec.ID, tc.want)
			}
		})
	}
}

func TestRecordFromDocWithoutUpdatedAt(t *testing.T) {
	rec, ok := RecordFromDoc(map[string]any{"id": "5"})
	if !ok {
		t.Fatal("a record without updated_at is still usable")
	}
	if rec.UpdatedAt != nil {
		t.Errorf("UpdatedAt = %v, want nil", rec.UpdatedAt)
	}
}

func TestNumericID(t *testing.T) {
	if n, ok := (Record{ID: "123"}).NumericID(); !ok || n != 123 {
		t.Errorf("NumericID(123) = %d, %v", n, ok)
	}
	if _, ok := (Record{ID: "rec-abc"}).NumericID(); ok {
		t.Error("opaque ids must not parse as numeric")
	}
}
