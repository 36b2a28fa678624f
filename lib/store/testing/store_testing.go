package testing

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/ValentinKolb/dRel/lib/container/maps"
	"github.com/ValentinKolb/dRel/lib/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreFactory creates a new, empty store for the matrix described by f.
// Implementations register their cleanup with t.
type StoreFactory func(t *testing.T, f store.MatrixFactory) store.IStore

// Matrix returns a matrix description for the suite.
func Matrix(topology store.Topology) store.MatrixFactory {
	return store.MatrixFactory{Name: "test", Topology: topology, Strategy: maps.Ordered}
}

// RunStoreTests runs the conformance suite for a store implementation.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Add&Get", func(t *testing.T) {
			testAddGet(t, factory(t, Matrix(store.TopologyOneToMany)))
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, factory(t, Matrix(store.TopologyOneToMany)))
		})

		t.Run("Eviction", func(t *testing.T) {
			testEviction(t, factory(t, Matrix(store.TopologyOneToMany)))
		})

		t.Run("EraseCol", func(t *testing.T) {
			testEraseCol(t, factory(t, Matrix(store.TopologyOneToMany)))
		})

		t.Run("BatchCommit", func(t *testing.T) {
			testBatchCommit(t, factory(t, Matrix(store.TopologyOneToMany)))
		})

		t.Run("BatchConflict", func(t *testing.T) {
			testBatchConflict(t, factory(t, Matrix(store.TopologyOneToMany)))
		})

		t.Run("InvalidOperation", func(t *testing.T) {
			testInvalidOperation(t, factory(t, Matrix(store.TopologyOneToMany)))
		})

		t.Run("RowsAndCols", func(t *testing.T) {
			testRowsAndCols(t, factory(t, Matrix(store.TopologyOneToMany)))
		})

		t.Run("OneToOne", func(t *testing.T) {
			testOneToOne(t, factory(t, Matrix(store.TopologyOneToOne)))
		})

		t.Run("ManyToMany", func(t *testing.T) {
			testManyToMany(t, factory(t, Matrix(store.TopologyManyToMany)))
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory(t, Matrix(store.TopologyOneToMany)))
		})

		t.Run("ValueIsolation", func(t *testing.T) {
			testValueIsolation(t, factory(t, Matrix(store.TopologyOneToMany)))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// RequireCode fails the test unless err is a *store.Error with the given code.
func RequireCode(t testing.TB, err error, code store.RetCode) {
	t.Helper()
	var storeErr *store.Error
	require.True(t, errors.As(err, &storeErr), "expected *store.Error, got %T (%v)", err, err)
	require.Equal(t, code, storeErr.Code, storeErr.Msg)
}

func requireValue(t testing.TB, s store.IStore, row, col, want string) {
	t.Helper()
	val, ok, err := s.Get(row, col)
	require.NoError(t, err)
	require.True(t, ok, "expected (%s, %s) to exist", row, col)
	require.Equal(t, want, string(val))
}

func requireMissing(t testing.TB, s store.IStore, row, col string) {
	t.Helper()
	_, ok, err := s.Get(row, col)
	require.NoError(t, err)
	require.False(t, ok, "expected (%s, %s) to be absent", row, col)
}

func rowsOf(cells []store.Cell) []string {
	rows := make([]string, len(cells))
	for i, c := range cells {
		rows[i] = c.Row
	}
	slices.Sort(rows)
	return rows
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testAddGet(t *testing.T, s store.IStore) {
	require.NoError(t, s.Add("alice", "book-1", []byte("lent")))

	requireValue(t, s, "alice", "book-1", "lent")
	requireMissing(t, s, "alice", "book-2")
	requireMissing(t, s, "bob", "book-1")
}

func testOverwrite(t *testing.T, s store.IStore) {
	require.NoError(t, s.Add("alice", "book-1", []byte("v1")))
	require.NoError(t, s.Add("alice", "book-1", []byte("v2")))

	requireValue(t, s, "alice", "book-1", "v2")
	cells, err := s.Row("alice")
	require.NoError(t, err)
	assert.Len(t, cells, 1)
}

func testEviction(t *testing.T, s store.IStore) {
	require.NoError(t, s.Add("alice", "book-1", []byte("a")))
	require.NoError(t, s.Add("alice", "book-2", []byte("b")))

	ok, err := s.DoesNotConflict("bob", "book-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Add("bob", "book-1", []byte("c")))

	requireMissing(t, s, "alice", "book-1")
	requireValue(t, s, "alice", "book-2", "b")

	owner, found, err := s.GetByCol("book-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "bob", owner.Row)
	assert.Equal(t, "c", string(owner.Value))

	_, found, err = s.GetByCol("book-9")
	require.NoError(t, err)
	assert.False(t, found)
}

func testEraseCol(t *testing.T, s store.IStore) {
	require.NoError(t, s.Add("carol", "book-3", []byte("w")))
	require.NoError(t, s.EraseCol("book-3"))
	require.NoError(t, s.EraseCol("book-3"))
	require.NoError(t, s.Erase("carol", "book-3"))

	rows, err := s.Rows()
	require.NoError(t, err)
	assert.Empty(t, rows)
	cols, err := s.Cols()
	require.NoError(t, err)
	assert.Empty(t, cols)
}

func testBatchCommit(t *testing.T, s store.IStore) {
	require.NoError(t, s.Batch([]store.Op{
		{Type: store.OpTAdd, Row: "alice", Col: "book-1", Value: []byte("x")},
		{Type: store.OpTAddIfNoConflict, Row: "alice", Col: "book-2", Value: []byte("y")},
		{Type: store.OpTAdd, Row: "bob", Col: "book-3", Value: []byte("z")},
		{Type: store.OpTErase, Row: "bob", Col: "book-3"},
	}))

	requireValue(t, s, "alice", "book-1", "x")
	requireValue(t, s, "alice", "book-2", "y")
	requireMissing(t, s, "bob", "book-3")
}

func testBatchConflict(t *testing.T, s store.IStore) {
	require.NoError(t, s.Add("alice", "book-1", []byte("x")))

	err := s.Batch([]store.Op{
		{Type: store.OpTEraseCol, Col: "book-1"},
		{Type: store.OpTAdd, Row: "bob", Col: "book-5", Value: []byte("y")},
		{Type: store.OpTAdd, Row: "bob", Col: "book-6", Value: []byte("y")},
		{Type: store.OpTAddIfNoConflict, Row: "bob", Col: "book-6", Value: []byte("z")},
	})
	RequireCode(t, err, store.RetCConflict)

	// nothing of the aborted batch is visible
	requireValue(t, s, "alice", "book-1", "x")
	requireMissing(t, s, "bob", "book-5")
	requireMissing(t, s, "bob", "book-6")

	// the store keeps working after a rollback
	require.NoError(t, s.Add("bob", "book-5", []byte("y")))
	requireValue(t, s, "bob", "book-5", "y")
}

func testInvalidOperation(t *testing.T, s store.IStore) {
	RequireCode(t, s.Add("alice", "", []byte("x")), store.RetCInvalidOperation)
	RequireCode(t, s.Add("", "book-1", []byte("x")), store.RetCInvalidOperation)
	RequireCode(t, s.Batch([]store.Op{{Type: store.OpType(42), Row: "a", Col: "b"}}), store.RetCInvalidOperation)
}

func testRowsAndCols(t *testing.T, s store.IStore) {
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Add("alice", fmt.Sprintf("book-%d", i), nil))
	}
	require.NoError(t, s.Add("bob", "book-9", []byte("b")))

	rows, err := s.Rows()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, rows)

	cols, err := s.Cols()
	require.NoError(t, err)
	assert.Equal(t, []string{"book-0", "book-1", "book-2", "book-9"}, cols)

	cells, err := s.Row("alice")
	require.NoError(t, err)
	assert.Len(t, cells, 3)

	cells, err = s.Col("book-9")
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, "bob", cells[0].Row)

	cells, err = s.Row("nobody")
	require.NoError(t, err)
	assert.Empty(t, cells)
}

func testOneToOne(t *testing.T, s store.IStore) {
	require.NoError(t, s.Add("alice", "desk-1", []byte("a")))
	require.NoError(t, s.Add("bob", "desk-2", []byte("b")))

	// alice moves to desk-2: her old desk and bob are evicted
	require.NoError(t, s.Add("alice", "desk-2", []byte("c")))

	requireMissing(t, s, "alice", "desk-1")
	requireMissing(t, s, "bob", "desk-2")
	requireValue(t, s, "alice", "desk-2", "c")

	rows, err := s.Rows()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, rows)
}

func testManyToMany(t *testing.T, s store.IStore) {
	require.NoError(t, s.Add("alice", "go", nil))
	require.NoError(t, s.Add("bob", "go", nil))
	require.NoError(t, s.Add("bob", "rust", nil))

	cells, err := s.Col("go")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, rowsOf(cells))

	_, _, err = s.GetByCol("go")
	RequireCode(t, err, store.RetCUnsupportedOperation)

	require.NoError(t, s.EraseCol("go"))
	rows, err := s.Rows()
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, rows)
}

func testInfo(t *testing.T, s store.IStore) {
	require.NoError(t, s.Add("alice", "book-1", []byte("12345")))
	require.NoError(t, s.Add("alice", "book-2", []byte("12345")))
	require.NoError(t, s.Add("bob", "book-3", []byte("12345")))
	RequireCode(t, s.Batch([]store.Op{{Type: store.OpTAddIfNoConflict, Row: "x", Col: "book-1"}}), store.RetCConflict)
	RequireCode(t, s.Batch([]store.Op{
		{Type: store.OpTAdd, Row: "carol", Col: "book-4", Value: make([]byte, 1000)},
		{Type: store.OpTAddIfNoConflict, Row: "carol", Col: "book-1"},
	}), store.RetCConflict)

	info, err := s.GetInfo()
	require.NoError(t, err)

	assert.Equal(t, "test", info.Name)
	assert.Equal(t, "OrderedOneToMany", info.TypeName)
	assert.Equal(t, store.TopologyOneToMany, info.Topology)
	assert.Equal(t, 3, info.Entries)
	assert.Equal(t, 2, info.Rows)
	assert.Equal(t, 3, info.Cols)
	assert.GreaterOrEqual(t, info.Transactions, uint64(3))
	assert.GreaterOrEqual(t, info.Rollbacks, uint64(1))
	assert.Equal(t, 1.5, info.RowFanout.Mean)
	assert.Equal(t, int64(3), info.ValueSizes.Count, "rolled back writes must not be sampled")
	assert.Equal(t, 5, info.ValueSizes.Average)
}

func testValueIsolation(t *testing.T, s store.IStore) {
	value := []byte("original")
	require.NoError(t, s.Add("alice", "book-1", value))
	value[0] = 'X'

	got, _, err := s.Get("alice", "book-1")
	require.NoError(t, err)
	got[0] = 'Y'

	requireValue(t, s, "alice", "book-1", "original")
}
