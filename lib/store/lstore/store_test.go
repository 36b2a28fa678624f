package lstore

import (
	"context"
	"sync"
	"testing"

	"github.com/ValentinKolb/dRel/lib/journal"
	"github.com/ValentinKolb/dRel/lib/journal/wal"
	"github.com/ValentinKolb/dRel/lib/store"
	storetesting "github.com/ValentinKolb/dRel/lib/store/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	storetesting.RunStoreTests(t, "LocalStore", func(t *testing.T, f store.MatrixFactory) store.IStore {
		return NewLocalStore(f)
	})
}

func TestRecoverFromWAL(t *testing.T) {
	ctx := context.Background()
	w, err := wal.Open(wal.Config{InMemory: true})
	require.NoError(t, err)
	defer w.Close()

	f := storetesting.Matrix(store.TopologyOneToMany)

	s := NewLocalStore(f, w)
	require.NoError(t, s.Add("alice", "book-1", []byte("a")))
	require.NoError(t, s.Add("bob", "book-1", []byte("b")))
	require.NoError(t, s.Add("bob", "book-2", []byte("c")))
	require.NoError(t, s.Erase("bob", "book-2"))
	storetesting.RequireCode(t, s.Batch([]store.Op{
		{Type: store.OpTAdd, Row: "carol", Col: "book-3"},
		{Type: store.OpTAddIfNoConflict, Row: "carol", Col: "book-1"},
	}), store.RetCConflict)

	assert.Equal(t, uint64(4), w.Seq(), "aborted transactions must not be persisted")

	replay := func(fn func(uint64, journal.Transaction) error) error {
		return w.Replay(ctx, fn)
	}
	recovered, err := Recover(f, replay)
	require.NoError(t, err)

	cells, err := recovered.Rows()
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, cells)

	owner, ok, err := recovered.GetByCol("book-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, store.Cell{Row: "bob", Col: "book-1", Value: []byte("b")}, owner)
}

func TestRecoverRejectsForeignEvents(t *testing.T) {
	replay := func(fn func(uint64, journal.Transaction) error) error {
		return fn(1, journal.Transaction{Events: []journal.Event{foreign{}}})
	}
	_, err := Recover(storetesting.Matrix(store.TopologyOneToOne), replay)
	storetesting.RequireCode(t, err, store.RetCInternalError)
}

type foreign struct{}

func (foreign) EventType() journal.EventType { return journal.EventTUpdate }
func (foreign) Field() string                { return "test" }

func TestConcurrentWriters(t *testing.T) {
	s := NewLocalStore(storetesting.Matrix(store.TopologyManyToMany))

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				row := string(rune('a' + w))
				col := string(rune('A' + i%26))
				assert.NoError(t, s.Add(row, col, nil))
				_, _, err := s.Get(row, col)
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	info, err := s.GetInfo()
	require.NoError(t, err)
	assert.Equal(t, 8*26, info.Entries)
	assert.Equal(t, uint64(800), info.Transactions)
}
