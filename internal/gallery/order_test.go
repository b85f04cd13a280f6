package gallery

import (
	"testing"
	"time"
)

func TestDedupeByCanonicalKey(t *testing.T) {
	records := []ImageRecord{
		{RecordPath: "images/a", CanonicalKey: "uploads/a.jpg"},
		{RecordPath: "imageGroups/g/images/a", CanonicalKey: "uploads/a.jpg"},
		{RecordPath: "images/b", CanonicalKey: "uploads/b.jpg"},
	}
	got := DedupeAndOrder(records)
	if len(got) != 2 {
		t.Fatalf("dedupe: want 2 records, got=%d", len(got))
	}
}

func TestDedupeFallsBackToRecordPath(t *testing.T) {
	records := []ImageRecord{
		{RecordPath: "images/a"},
		{RecordPath: "images/a"},
		{RecordPath: "images/b"},
	}
	if got := DedupeAndOrder(records); len(got) != 2 {
		t.Fatalf("dedupe by path: want 2 records, got=%d", len(got))
	}
}

func TestOrderIsDeterministic(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	records := []ImageRecord{
		{RecordPath: "images/c", CanonicalKey: "uploads/c.jpg", Timestamp: t2},
		{RecordPath: "images/b", CanonicalKey: "uploads/b.jpg", Timestamp: t1},
		{RecordPath: "images/a", CanonicalKey: "uploads/a.jpg", Timestamp: t1},
		{RecordPath: "images/legacy", CanonicalKey: "uploads/legacy.jpg"},
	}
	wantOrder := []string{"uploads/legacy.jpg", "uploads/a.jpg", "uploads/b.jpg", "uploads/c.jpg"}

	for i := 0; i < 3; i++ {
		// Rotate input order; output order must not care.
		rotated := append(records[i:len(records):len(records)], records[:i]...)
		got := DedupeAndOrder(rotated)
		if len(got) != len(wantOrder) {
			t.Fatalf("want %d records, got=%d", len(wantOrder), len(got))
		}
		for j, rec := range got {
			if rec.CanonicalKey != wantOrder[j] {
				t.Fatalf("rotation %d position %d: want=%q got=%q", i, j, wantOrder[j], rec.CanonicalKey)
			}
		}
	}
}
