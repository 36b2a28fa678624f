package container

import (
	"context"
	"slices"
	"testing"

	"github.com/ValentinKolb/dRel/lib/container/maps"
	"github.com/ValentinKolb/dRel/lib/journal"
)

type person struct {
	Row     string
	Col     int
	Payload string
}

func (p person) RowKey() string { return p.Row }
func (p person) ColKey() int    { return p.Col }

// recorder is a journal that keeps every logged pair.
type recorder struct {
	entries []journal.Entry
}

func (r *recorder) LogMutation(event journal.Event, undo journal.Undo) {
	r.entries = append(r.entries, journal.Entry{Event: event, Undo: undo})
}

// since returns the entries logged after the first n.
func (r *recorder) since(n int) []journal.Entry {
	return r.entries[n:]
}

func newPeople(j Journal) *OneToMany[string, int, person] {
	return NewOneToMany[string, int, person]("people", j, Ordered[string, int]())
}

func rowCols(t *testing.T, m *OneToMany[string, int, person], row string) []int {
	t.Helper()
	inner, ok := m.Rows().Get(row)
	if !ok {
		return nil
	}
	return slices.Collect(inner.Keys())
}

type state struct {
	entries map[Key[string, int]]person
	rows    map[string][]int
	cols    map[int]string
}

func capture(m *OneToMany[string, int, person]) state {
	s := state{
		entries: map[Key[string, int]]person{},
		rows:    map[string][]int{},
		cols:    map[int]string{},
	}
	for key, e := range m.All() {
		s.entries[key] = e
	}
	for row, inner := range m.Rows().All() {
		s.rows[row] = slices.Collect(inner.Keys())
	}
	for col, e := range m.Cols().All() {
		s.cols[col] = e.Row
	}
	return s
}

func equalState(a, b state) bool {
	if len(a.entries) != len(b.entries) || len(a.rows) != len(b.rows) || len(a.cols) != len(b.cols) {
		return false
	}
	for k, v := range a.entries {
		if b.entries[k] != v {
			return false
		}
	}
	for k, v := range a.rows {
		if !slices.Equal(v, b.rows[k]) {
			return false
		}
	}
	for k, v := range a.cols {
		if b.cols[k] != v {
			return false
		}
	}
	return true
}

// --------------------------------------------------------------------------
// Scenarios
// --------------------------------------------------------------------------

func TestOneToManyScenarios(t *testing.T) {
	m := newPeople(&recorder{})

	// 1
	m.Add(person{Row: "A", Col: 1, Payload: "x"})
	if e, ok := m.GetRowCol("A", 1); !ok || e.Payload != "x" {
		t.Fatalf("Expected x at (A, 1), got %v", e)
	}
	if e, ok := m.GetEntryFromCol(1); !ok || e.Payload != "x" {
		t.Fatalf("Expected x owning col 1, got %v", e)
	}
	if got := rowCols(t, m, "A"); !slices.Equal(got, []int{1}) {
		t.Fatalf("Expected row A = [1], got %v", got)
	}

	// 2
	m.Add(person{Row: "A", Col: 2, Payload: "y"})
	if got := rowCols(t, m, "A"); !slices.Equal(got, []int{1, 2}) {
		t.Fatalf("Expected row A = [1 2], got %v", got)
	}
	if got := slices.Collect(m.Cols().Keys()); !slices.Equal(got, []int{1, 2}) {
		t.Fatalf("Expected cols [1 2], got %v", got)
	}

	// 3
	m.Add(person{Row: "B", Col: 1, Payload: "z"})
	if _, ok := m.GetRowCol("A", 1); ok {
		t.Fatal("Expected (A, 1) to be evicted")
	}
	if e, ok := m.GetEntryFromCol(1); !ok || e.Payload != "z" {
		t.Fatalf("Expected z owning col 1, got %v", e)
	}
	if got := rowCols(t, m, "A"); !slices.Equal(got, []int{2}) {
		t.Fatalf("Expected row A = [2], got %v", got)
	}

	// 6
	if m.DoesNotConflictRowCol("D", 1) {
		t.Fatal("Expected (D, 1) to conflict with B")
	}
	if !m.DoesNotConflictRowCol("D", 9) {
		t.Fatal("Expected (D, 9) to be free")
	}

	// 5
	m.EraseRowCol("B", 1)
	if _, ok := m.GetRowCol("B", 1); ok {
		t.Fatal("Expected (B, 1) to be erased")
	}
	if _, ok := m.GetEntryFromCol(1); ok {
		t.Fatal("Expected col 1 to be free")
	}
	if m.Rows().Has("B") {
		t.Fatal("Expected row B to be removed")
	}
}

func TestOneToManyEraseColRemovesBucket(t *testing.T) {
	m := newPeople(&recorder{})

	m.Add(person{Row: "C", Col: 3, Payload: "w"})
	m.EraseCol(3)

	if m.Rows().Has("C") {
		t.Fatal("Expected row C to be removed")
	}
	if !m.Cols().Empty() || !m.Empty() {
		t.Fatal("Expected container to be empty")
	}
}

func TestOneToManyEraseColAnyOwner(t *testing.T) {
	m := newPeople(&recorder{})

	m.Add(person{Row: "A", Col: 1})
	m.Add(person{Row: "B", Col: 1})
	m.EraseCol(1)

	if _, ok := m.GetRowCol("B", 1); ok {
		t.Fatal("Expected (B, 1) to be erased")
	}
	if _, ok := m.GetEntryFromCol(1); ok {
		t.Fatal("Expected col 1 to be free")
	}
}

// --------------------------------------------------------------------------
// Events
// --------------------------------------------------------------------------

func TestOneToManyEvictionEvents(t *testing.T) {
	r := &recorder{}
	m := newPeople(r)

	m.Add(person{Row: "A", Col: 1, Payload: "x"})
	m.Add(person{Row: "B", Col: 1, Payload: "z"})

	logged := r.since(1)
	if len(logged) != 2 {
		t.Fatalf("Expected 2 events for an evicting add, got %d", len(logged))
	}

	del, ok := logged[0].Event.(Delete[string, int, person])
	if !ok {
		t.Fatalf("Expected delete event first, got %T", logged[0].Event)
	}
	if del.Key != (Key[string, int]{Row: "A", Col: 1}) || del.Data.Payload != "x" || del.Source != "people" {
		t.Fatalf("Unexpected delete event %+v", del)
	}
	if logged[0].Undo.Kind() != journal.UndoTReinsert {
		t.Fatalf("Expected reinsert undo for the eviction, got %s", logged[0].Undo.Kind())
	}

	upd, ok := logged[1].Event.(Update[string, int, person])
	if !ok || upd.Data.Payload != "z" {
		t.Fatalf("Expected update of z second, got %v", logged[1].Event)
	}
	if logged[1].Undo.Kind() != journal.UndoTRemove {
		t.Fatalf("Expected remove undo for a new key, got %s", logged[1].Undo.Kind())
	}
}

func TestOneToManyEraseMissingLogsNothing(t *testing.T) {
	r := &recorder{}
	m := newPeople(r)

	m.EraseRowCol("A", 1)
	m.EraseCol(1)

	if len(r.entries) != 0 {
		t.Fatalf("Expected no events, got %d", len(r.entries))
	}
}

func TestUndoActionString(t *testing.T) {
	r := &recorder{}
	m := newPeople(r)

	m.Add(person{Row: "A", Col: 1})

	if got := r.entries[0].Undo.String(); got != "people: Remove key=(A, 1)" {
		t.Fatalf("Unexpected undo description %q", got)
	}
	undo := r.entries[0].Undo.(*UndoAction[string, int, person])
	if _, ok := undo.Entry(); ok {
		t.Fatal("Expected remove command to carry no entry")
	}
}

// --------------------------------------------------------------------------
// Undo
// --------------------------------------------------------------------------

func TestOneToManySingleCallUndo(t *testing.T) {
	calls := []struct {
		name string
		call func(m *OneToMany[string, int, person])
	}{
		{"AddNew", func(m *OneToMany[string, int, person]) { m.Add(person{Row: "D", Col: 9}) }},
		{"AddOverwrite", func(m *OneToMany[string, int, person]) { m.Add(person{Row: "A", Col: 2, Payload: "new"}) }},
		{"AddEvicting", func(m *OneToMany[string, int, person]) { m.Add(person{Row: "C", Col: 1}) }},
		{"AddEvictingLast", func(m *OneToMany[string, int, person]) { m.Add(person{Row: "C", Col: 3}) }},
		{"Erase", func(m *OneToMany[string, int, person]) { m.EraseRowCol("A", 2) }},
		{"EraseCol", func(m *OneToMany[string, int, person]) { m.EraseCol(3) }},
		{"EraseMissing", func(m *OneToMany[string, int, person]) { m.EraseRowCol("X", 7) }},
	}

	for _, tc := range calls {
		t.Run(tc.name, func(t *testing.T) {
			r := &recorder{}
			m := newPeople(r)
			m.Add(person{Row: "A", Col: 1, Payload: "x"})
			m.Add(person{Row: "A", Col: 2, Payload: "y"})
			m.Add(person{Row: "B", Col: 3, Payload: "z"})

			before := capture(m)
			n := len(r.entries)

			tc.call(m)

			logged := r.since(n)
			for i := len(logged) - 1; i >= 0; i-- {
				logged[i].Undo.Apply()
			}

			if !equalState(before, capture(m)) {
				t.Fatalf("Expected undo to restore %+v, got %+v", before, capture(m))
			}
		})
	}
}

func TestOneToManyRollbackThroughJournal(t *testing.T) {
	j := journal.NewMutationJournal()
	m := newPeople(j)

	m.Add(person{Row: "A", Col: 1, Payload: "x"})
	if _, err := j.Commit(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := capture(m)

	m.Add(person{Row: "B", Col: 1, Payload: "z"})
	m.Add(person{Row: "B", Col: 2, Payload: "q"})
	m.EraseCol(2)

	if n := j.Rollback(); n != 4 {
		t.Fatalf("Expected 4 reverted mutations, got %d", n)
	}
	if !equalState(before, capture(m)) {
		t.Fatalf("Expected rollback to restore %+v, got %+v", before, capture(m))
	}
}

// --------------------------------------------------------------------------
// Replay
// --------------------------------------------------------------------------

func TestOneToManyApplyEvents(t *testing.T) {
	r := &recorder{}
	m := newPeople(r)

	m.Add(person{Row: "A", Col: 1, Payload: "x"})
	m.Add(person{Row: "A", Col: 2, Payload: "y"})
	m.Add(person{Row: "B", Col: 1, Payload: "z"})
	m.EraseRowCol("A", 2)
	m.Add(person{Row: "A", Col: 2, Payload: "y2"})

	replica := newPeople(&recorder{})
	for _, e := range r.entries {
		switch ev := e.Event.(type) {
		case Update[string, int, person]:
			replica.ApplyUpdate(ev)
		case Delete[string, int, person]:
			replica.ApplyDelete(ev)
		default:
			t.Fatalf("Unexpected event %T", ev)
		}
	}

	if !equalState(capture(m), capture(replica)) {
		t.Fatalf("Expected replica %+v to equal %+v", capture(replica), capture(m))
	}
}

func TestReplayAcceptsPointers(t *testing.T) {
	m := newPeople(&recorder{})

	if !m.Replay(&Update[string, int, person]{Source: "people", Data: person{Row: "A", Col: 1}}) {
		t.Fatal("Expected pointer update to be accepted")
	}
	if !m.Replay(&Delete[string, int, person]{Source: "people", Key: Key[string, int]{Row: "A", Col: 1}}) {
		t.Fatal("Expected pointer delete to be accepted")
	}
	if !m.Empty() {
		t.Fatal("Expected container to be empty after replay")
	}
	if m.Replay(Update[string, string, person2]{}) {
		t.Fatal("Expected event of another instantiation to be rejected")
	}
}

type person2 struct{ R, C string }

func (p person2) RowKey() string { return p.R }
func (p person2) ColKey() string { return p.C }

func TestReplayDoesNotLog(t *testing.T) {
	r := &recorder{}
	m := newPeople(r)

	m.ApplyUpdate(Update[string, int, person]{Data: person{Row: "A", Col: 1}})
	m.ApplyDelete(Delete[string, int, person]{Key: Key[string, int]{Row: "A", Col: 1}})

	if len(r.entries) != 0 {
		t.Fatalf("Expected replay to log nothing, got %d events", len(r.entries))
	}
}

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

func TestOrderedIterationOrder(t *testing.T) {
	m := newPeople(&recorder{})
	for _, row := range []string{"d", "b", "a", "c"} {
		for _, col := range []int{40, 10, 30} {
			m.Add(person{Row: row, Col: col + int(row[0])})
		}
	}

	rows := slices.Collect(m.Rows().Keys())
	if !slices.IsSorted(rows) || len(rows) != 4 {
		t.Fatalf("Expected sorted rows, got %v", rows)
	}
	for _, inner := range m.Rows().All() {
		if cols := slices.Collect(inner.Keys()); !slices.IsSorted(cols) {
			t.Fatalf("Expected sorted cols, got %v", cols)
		}
	}
	if cols := slices.Collect(m.Cols().Keys()); !slices.IsSorted(cols) || len(cols) != 12 {
		t.Fatalf("Expected 12 sorted cols, got %v", cols)
	}
}

func TestOrderedWithoutLessPanics(t *testing.T) {
	ordered := Ordered[string, int]()

	tests := []struct {
		name  string
		level func(cfg *Config[string, int])
		build func(cfg Config[string, int], j Journal)
	}{
		{"OneToMany/Transposed", func(cfg *Config[string, int]) { cfg.Transposed = ordered.Transposed },
			func(cfg Config[string, int], j Journal) { NewOneToMany[string, int, person]("people", j, cfg) }},
		{"OneToMany/Cols", func(cfg *Config[string, int]) { cfg.Cols = ordered.Cols },
			func(cfg Config[string, int], j Journal) { NewOneToMany[string, int, person]("people", j, cfg) }},
		{"OneToMany/Rows", func(cfg *Config[string, int]) { cfg.Rows = ordered.Rows },
			func(cfg Config[string, int], j Journal) { NewOneToMany[string, int, person]("people", j, cfg) }},
		{"ManyToMany/Cols", func(cfg *Config[string, int]) { cfg.Cols = ordered.Cols },
			func(cfg Config[string, int], j Journal) { NewManyToMany[string, int, person]("people", j, cfg) }},
		{"ManyToMany/Rows", func(cfg *Config[string, int]) { cfg.Rows = ordered.Rows },
			func(cfg Config[string, int], j Journal) { NewManyToMany[string, int, person]("people", j, cfg) }},
		{"OneToOne/Rows", func(cfg *Config[string, int]) { cfg.Rows = ordered.Rows },
			func(cfg Config[string, int], j Journal) { NewOneToOne[string, int, person]("people", j, cfg) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Unordered[string, int]()
			tt.level(&cfg)
			j := &recorder{}

			defer func() {
				if recover() == nil {
					t.Fatal("Expected panic at construction for ordered level without less function")
				}
				if len(j.entries) != 0 {
					t.Fatalf("Expected nothing logged, got %d entries", len(j.entries))
				}
			}()
			tt.build(cfg, j)
		})
	}
}

// An ordered inner level must be usable as soon as the less functions are set.
func TestMixedOrderedColsAdd(t *testing.T) {
	cfg := Unordered[string, int]()
	cfg.Cols = maps.Ordered
	cfg.ColLess = Ordered[string, int]().ColLess

	j := &recorder{}
	m := NewOneToMany[string, int, person]("people", j, cfg)
	m.Add(person{Row: "A", Col: 2})
	m.Add(person{Row: "A", Col: 1})

	if _, ok := m.GetEntryFromCol(1); !ok {
		t.Fatal("Expected col 1 to be owned")
	}
	inner, ok := m.Rows().Get("A")
	if !ok {
		t.Fatal("Expected row A")
	}
	if cols := slices.Collect(inner.Keys()); !slices.Equal(cols, []int{1, 2}) {
		t.Fatalf("Expected sorted cols [1 2], got %v", cols)
	}
	if len(j.entries) != 2 {
		t.Fatalf("Expected 2 logged entries, got %d", len(j.entries))
	}
}

func TestNilJournalPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Expected panic for missing journal")
		}
	}()
	NewOneToMany[string, int, person]("people", nil, Unordered[string, int]())
}

func TestTypeNames(t *testing.T) {
	mixed := Ordered[string, int]()
	mixed.Cols = Unordered[string, int]().Cols

	tests := []struct {
		got, want string
	}{
		{NewOneToMany[string, int, person]("f", &recorder{}, Unordered[string, int]()).TypeName(), "UnorderedOneToMany"},
		{NewOneToMany[string, int, person]("f", &recorder{}, Ordered[string, int]()).TypeName(), "OrderedOneToMany"},
		{NewOneToMany[string, int, person]("f", &recorder{}, mixed).TypeName(), "GenericOneToMany"},
		{NewOneToOne[string, int, person]("f", &recorder{}, Unordered[string, int]()).TypeName(), "UnorderedOneToOne"},
		{NewManyToMany[string, int, person]("f", &recorder{}, Ordered[string, int]()).TypeName(), "OrderedManyToMany"},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("Expected type name %q, got %q", tc.want, tc.got)
		}
	}

	if b := newPeople(&recorder{}).RESTBehavior(); b != BehaviorMatrix {
		t.Errorf("Expected matrix behavior, got %q", b)
	}
}

// --------------------------------------------------------------------------
// Cloning
// --------------------------------------------------------------------------

type blob struct {
	Row, Col string
	Data     []byte
}

func (b blob) RowKey() string { return b.Row }
func (b blob) ColKey() string { return b.Col }
func (b blob) Clone() blob {
	b.Data = slices.Clone(b.Data)
	return b
}

func TestAddClonesEntries(t *testing.T) {
	m := NewOneToMany[string, string, blob]("blobs", &recorder{}, Unordered[string, string]())

	data := []byte("hello")
	m.Add(blob{Row: "a", Col: "b", Data: data})
	data[0] = 'j'

	got, _ := m.GetRowCol("a", "b")
	if string(got.Data) != "hello" {
		t.Fatalf("Expected stored entry to be independent of the caller, got %q", got.Data)
	}
}
