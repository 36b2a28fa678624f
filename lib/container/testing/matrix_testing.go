package testing

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/ValentinKolb/dRel/lib/container"
	"github.com/ValentinKolb/dRel/lib/journal"
)

// Cell is the entry type used by the suite.
type Cell struct {
	Row   string
	Col   string
	Value int
}

func (c Cell) RowKey() string { return c.Row }
func (c Cell) ColKey() string { return c.Col }

// MatrixFactory creates a new, empty container logging to j.
type MatrixFactory func(name string, j container.Journal) container.Matrix[string, string, Cell]

// RunMatrixTests runs the conformance suite for a container implementation.
func RunMatrixTests(t *testing.T, name string, factory MatrixFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Add&Get", func(t *testing.T) {
			testAddGet(t, factory)
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, factory)
		})

		t.Run("EraseMissing", func(t *testing.T) {
			testEraseMissing(t, factory)
		})

		t.Run("EraseCol", func(t *testing.T) {
			testEraseCol(t, factory)
		})

		t.Run("IndexConsistency", func(t *testing.T) {
			testIndexConsistency(t, factory)
		})

		t.Run("DoesNotConflict", func(t *testing.T) {
			testDoesNotConflict(t, factory)
		})

		t.Run("Rollback", func(t *testing.T) {
			testRollback(t, factory)
		})

		t.Run("ReplayDeterminism", func(t *testing.T) {
			testReplayDeterminism(t, factory)
		})

		t.Run("ReplayForeignEvent", func(t *testing.T) {
			testReplayForeignEvent(t, factory)
		})

		t.Run("EventSource", func(t *testing.T) {
			testEventSource(t, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

type snapshot map[container.Key[string, string]]Cell

func takeSnapshot(m container.Matrix[string, string, Cell]) snapshot {
	s := make(snapshot, m.Size())
	for key, entry := range m.All() {
		s[key] = entry
	}
	return s
}

func compareSnapshots(t *testing.T, want, got snapshot) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("Expected %d entries, got %d", len(want), len(got))
	}
	for key, entry := range want {
		other, ok := got[key]
		if !ok {
			t.Fatalf("Expected entry at %v to exist", key)
		}
		if other != entry {
			t.Fatalf("Expected entry %v at %v, got %v", entry, key, other)
		}
	}
}

// randomOps applies n random mutations drawn from a small key space, so that
// overwrites, evictions and erases all happen frequently.
func randomOps(m container.Matrix[string, string, Cell], rng *rand.Rand, n int) {
	for i := 0; i < n; i++ {
		row := fmt.Sprintf("r%d", rng.Intn(5))
		col := fmt.Sprintf("c%d", rng.Intn(5))
		switch p := rng.Intn(10); {
		case p < 6:
			m.Add(Cell{Row: row, Col: col, Value: rng.Intn(1000)})
		case p < 8:
			m.Erase(container.Key[string, string]{Row: row, Col: col})
		default:
			m.EraseCol(col)
		}
	}
}

// checkIndices verifies that every entry is reachable from all indices and nothing else is.
func checkIndices(t *testing.T, m container.Matrix[string, string, Cell]) {
	t.Helper()

	for key, entry := range m.All() {
		if key.Row != entry.Row || key.Col != entry.Col {
			t.Fatalf("Entry %v stored at wrong key %v", entry, key)
		}
		found := false
		for col, other := range m.RowEntries(key.Row) {
			if col == key.Col {
				found = other == entry
			}
		}
		if !found {
			t.Fatalf("Entry %v not reachable from its row", entry)
		}
		found = false
		for row, other := range m.ColEntries(key.Col) {
			if row == key.Row {
				found = other == entry
			}
		}
		if !found {
			t.Fatalf("Entry %v not reachable from its col", entry)
		}
	}

	byRow := 0
	for row := range m.RowKeys() {
		n := 0
		for range m.RowEntries(row) {
			n++
		}
		if n == 0 {
			t.Fatalf("Row %q is listed but has no entries", row)
		}
		byRow += n
	}
	byCol := 0
	for col := range m.ColKeys() {
		n := 0
		for range m.ColEntries(col) {
			n++
		}
		if n == 0 {
			t.Fatalf("Col %q is listed but has no entries", col)
		}
		byCol += n
	}
	if byRow != m.Size() || byCol != m.Size() {
		t.Fatalf("Expected %d entries in every index, got %d (rows) and %d (cols)", m.Size(), byRow, byCol)
	}
	if m.Empty() != (m.Size() == 0) {
		t.Fatalf("Empty() = %v for size %d", m.Empty(), m.Size())
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testAddGet(t *testing.T, factory MatrixFactory) {
	j := journal.NewMutationJournal()
	m := factory("field", j)

	if !m.Empty() {
		t.Fatal("Expected new container to be empty")
	}

	m.Add(Cell{Row: "r1", Col: "c1", Value: 1})

	got, ok := m.Get(container.Key[string, string]{Row: "r1", Col: "c1"})
	if !ok || got.Value != 1 {
		t.Fatalf("Expected value 1, got %v (found=%v)", got, ok)
	}
	if _, ok := m.Get(container.Key[string, string]{Row: "r1", Col: "c2"}); ok {
		t.Fatal("Expected missing key to be absent")
	}
	if m.Size() != 1 || j.Len() != 1 {
		t.Fatalf("Expected size 1 and 1 event, got %d and %d", m.Size(), j.Len())
	}
	if e := j.Pending()[0].Event; e.EventType() != journal.EventTUpdate {
		t.Fatalf("Expected update event, got %s", e.EventType())
	}
}

func testOverwrite(t *testing.T, factory MatrixFactory) {
	j := journal.NewMutationJournal()
	m := factory("field", j)

	m.Add(Cell{Row: "r1", Col: "c1", Value: 1})
	m.Add(Cell{Row: "r1", Col: "c1", Value: 2})

	got, _ := m.Get(container.Key[string, string]{Row: "r1", Col: "c1"})
	if got.Value != 2 || m.Size() != 1 {
		t.Fatalf("Expected a single entry with value 2, got %v (size %d)", got, m.Size())
	}

	pending := j.Pending()
	if len(pending) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(pending))
	}
	if pending[1].Event.EventType() != journal.EventTUpdate || pending[1].Undo.Kind() != journal.UndoTReinsert {
		t.Fatalf("Expected overwrite to log update with reinsert undo, got %s/%s",
			pending[1].Event.EventType(), pending[1].Undo.Kind())
	}
}

func testEraseMissing(t *testing.T, factory MatrixFactory) {
	j := journal.NewMutationJournal()
	m := factory("field", j)

	m.Erase(container.Key[string, string]{Row: "r1", Col: "c1"})
	m.EraseCol("c1")

	if j.Len() != 0 {
		t.Fatalf("Expected no events for missing keys, got %d", j.Len())
	}
}

func testEraseCol(t *testing.T, factory MatrixFactory) {
	j := journal.NewMutationJournal()
	m := factory("field", j)

	m.Add(Cell{Row: "r1", Col: "c1", Value: 1})
	m.Add(Cell{Row: "r2", Col: "c2", Value: 2})
	m.EraseCol("c1")

	if m.Size() != 1 {
		t.Fatalf("Expected size 1, got %d", m.Size())
	}
	for range m.ColEntries("c1") {
		t.Fatal("Expected col c1 to be empty")
	}
	for row := range m.RowKeys() {
		if row == "r1" {
			t.Fatal("Expected row r1 to be removed with its last entry")
		}
	}
	checkIndices(t, m)
}

func testIndexConsistency(t *testing.T, factory MatrixFactory) {
	rng := rand.New(rand.NewSource(1))
	m := factory("field", journal.NewMutationJournal())

	for i := 0; i < 50; i++ {
		randomOps(m, rng, 20)
		checkIndices(t, m)
	}
}

func testDoesNotConflict(t *testing.T, factory MatrixFactory) {
	rng := rand.New(rand.NewSource(2))
	j := journal.NewMutationJournal()
	m := factory("field", j)

	for i := 0; i < 500; i++ {
		cell := Cell{
			Row:   fmt.Sprintf("r%d", rng.Intn(4)),
			Col:   fmt.Sprintf("c%d", rng.Intn(4)),
			Value: i,
		}
		free := m.DoesNotConflict(container.Key[string, string]{Row: cell.Row, Col: cell.Col})
		size, events := m.Size(), j.Len()

		m.Add(cell)

		if free && (m.Size() != size+1 || j.Len() != events+1) {
			t.Fatalf("Add of non conflicting %v changed size %d -> %d with %d events",
				cell, size, m.Size(), j.Len()-events)
		}
		if !free && m.Size() > size {
			t.Fatalf("Add of conflicting %v grew the container", cell)
		}
		if rng.Intn(3) == 0 {
			m.EraseCol(cell.Col)
		}
	}
}

func testRollback(t *testing.T, factory MatrixFactory) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(3))
	j := journal.NewMutationJournal()
	m := factory("field", j)

	for i := 0; i < 20; i++ {
		randomOps(m, rng, 10)
		if _, err := j.Commit(ctx); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
		before := takeSnapshot(m)

		randomOps(m, rng, 25)
		j.Rollback()

		compareSnapshots(t, before, takeSnapshot(m))
		checkIndices(t, m)
	}
}

func testReplayDeterminism(t *testing.T, factory MatrixFactory) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(4))
	j := journal.NewMutationJournal()
	m := factory("field", j)

	var events []journal.Event
	for i := 0; i < 20; i++ {
		randomOps(m, rng, 15)
		tx, err := j.Commit(ctx)
		if err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
		events = append(events, tx.Events...)
	}

	replica := factory("field", journal.NewMutationJournal())
	for _, event := range events {
		if !replica.Replay(event) {
			t.Fatalf("Replay rejected event %T", event)
		}
	}

	compareSnapshots(t, takeSnapshot(m), takeSnapshot(replica))
	checkIndices(t, replica)
}

type foreignEvent struct{}

func (foreignEvent) EventType() journal.EventType { return journal.EventTUpdate }
func (foreignEvent) Field() string                { return "field" }

func testReplayForeignEvent(t *testing.T, factory MatrixFactory) {
	m := factory("field", journal.NewMutationJournal())
	if m.Replay(foreignEvent{}) {
		t.Fatal("Expected foreign event to be rejected")
	}
	if !m.Empty() {
		t.Fatal("Expected foreign event to leave the container untouched")
	}
}

func testEventSource(t *testing.T, factory MatrixFactory) {
	rng := rand.New(rand.NewSource(5))
	j := journal.NewMutationJournal()
	m := factory("friends", j)

	randomOps(m, rng, 50)

	for _, e := range j.Pending() {
		if e.Event.Field() != "friends" {
			t.Fatalf("Expected event of field friends, got %q", e.Event.Field())
		}
		if e.Undo == nil {
			t.Fatal("Expected every event to carry an undo command")
		}
	}
}
