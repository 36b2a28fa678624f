package container

import (
	"slices"
	"testing"
)

func newPairs(j Journal) *OneToOne[string, int, person] {
	return NewOneToOne[string, int, person]("pairs", j, Unordered[string, int]())
}

func TestOneToOneEvictsRowAndCol(t *testing.T) {
	r := &recorder{}
	m := newPairs(r)

	m.Add(person{Row: "A", Col: 1})
	m.Add(person{Row: "B", Col: 2})
	n := len(r.entries)

	// conflicts with A (row) and with B (col)
	m.Add(person{Row: "A", Col: 2, Payload: "new"})

	logged := r.since(n)
	if len(logged) != 3 {
		t.Fatalf("Expected 2 deletes and 1 update, got %d events", len(logged))
	}
	first, ok1 := logged[0].Event.(Delete[string, int, person])
	second, ok2 := logged[1].Event.(Delete[string, int, person])
	if !ok1 || !ok2 || first.Key.Row != "A" || second.Key.Row != "B" {
		t.Fatalf("Expected deletes of the row owner then the col owner, got %v, %v", logged[0].Event, logged[1].Event)
	}
	if _, ok := logged[2].Event.(Update[string, int, person]); !ok {
		t.Fatalf("Expected update last, got %T", logged[2].Event)
	}

	if m.Size() != 1 {
		t.Fatalf("Expected a single entry, got %d", m.Size())
	}
	if e, ok := m.GetEntryFromRow("A"); !ok || e.Payload != "new" {
		t.Fatalf("Expected row A to own the new entry, got %v", e)
	}
	if e, ok := m.GetEntryFromCol(2); !ok || e.Payload != "new" {
		t.Fatalf("Expected col 2 to be owned by the new entry, got %v", e)
	}
	if m.Cols().Has(1) || m.Rows().Has("B") {
		t.Fatal("Expected evicted keys to be gone from the indices")
	}
}

func TestOneToOneDoesNotConflict(t *testing.T) {
	m := newPairs(&recorder{})
	m.Add(person{Row: "A", Col: 1})

	tests := []struct {
		row  string
		col  int
		want bool
	}{
		{"A", 1, false},
		{"A", 2, false},
		{"B", 1, false},
		{"B", 2, true},
	}
	for _, tc := range tests {
		if got := m.DoesNotConflictRowCol(tc.row, tc.col); got != tc.want {
			t.Errorf("DoesNotConflict(%s, %d) = %v, want %v", tc.row, tc.col, got, tc.want)
		}
	}
}

func TestOneToOneEraseRow(t *testing.T) {
	m := newPairs(&recorder{})
	m.Add(person{Row: "A", Col: 1})
	m.Add(person{Row: "B", Col: 2})

	m.EraseRow("A")
	m.EraseRow("missing")

	if m.Size() != 1 || m.Cols().Has(1) {
		t.Fatalf("Expected only (B, 2) to remain, got %v", slices.Collect(m.Rows().Keys()))
	}
}

func TestOneToOneRollbackOfDoubleEviction(t *testing.T) {
	r := &recorder{}
	m := newPairs(r)
	m.Add(person{Row: "A", Col: 1, Payload: "a"})
	m.Add(person{Row: "B", Col: 2, Payload: "b"})
	n := len(r.entries)

	m.Add(person{Row: "A", Col: 2})

	logged := r.since(n)
	for i := len(logged) - 1; i >= 0; i-- {
		logged[i].Undo.Apply()
	}

	if a, ok := m.GetRowCol("A", 1); !ok || a.Payload != "a" {
		t.Fatal("Expected (A, 1) to be restored")
	}
	if b, ok := m.GetEntryFromCol(2); !ok || b.Payload != "b" {
		t.Fatal("Expected col 2 to be owned by B again")
	}
	if m.Size() != 2 {
		t.Fatalf("Expected 2 entries, got %d", m.Size())
	}
}
