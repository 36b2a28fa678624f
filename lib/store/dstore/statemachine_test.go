package dstore

import (
	"bytes"
	"testing"

	"github.com/ValentinKolb/dRel/lib/store"
	"github.com/ValentinKolb/dRel/lib/store/dstore/internal"
	storetesting "github.com/ValentinKolb/dRel/lib/store/testing"
	sm "github.com/lni/dragonboat/v4/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMachine(t *testing.T) *MatrixStateMachine {
	t.Helper()
	fsm := CreateStateMachineFactory(storetesting.Matrix(store.TopologyOneToMany))(1, 1).(*MatrixStateMachine)
	t.Cleanup(func() { _ = fsm.Close() })
	return fsm
}

func entry(index uint64, ops ...store.Op) sm.Entry {
	cmd := internal.Command{Ops: ops}
	return sm.Entry{Index: index, Cmd: cmd.Serialize()}
}

func TestUpdateResults(t *testing.T) {
	fsm := newMachine(t)

	entries, err := fsm.Update([]sm.Entry{
		entry(1, store.Op{Type: store.OpTAdd, Row: "alice", Col: "book-1", Value: []byte("x")}),
		entry(2, store.Op{Type: store.OpTAddIfNoConflict, Row: "bob", Col: "book-1"}),
		{Index: 3},
		{Index: 4, Cmd: []byte{0, 0, 0, 9}},
		entry(5, store.Op{Type: store.OpTAdd, Row: "", Col: "book-2"}),
	})
	require.NoError(t, err)

	codes := make([]store.RetCode, len(entries))
	for i, e := range entries {
		codes[i] = store.RetCode(e.Result.Value)
	}
	assert.Equal(t, []store.RetCode{
		store.RetCSuccess,
		store.RetCConflict,
		store.RetCInvalidOperation,
		store.RetCInternalError,
		store.RetCInvalidOperation,
	}, codes)

	res, err := fsm.Lookup(internal.Query{Type: internal.QueryTGet, Row: "alice", Col: "book-1"})
	require.NoError(t, err)
	assert.Equal(t, internal.QueryResult{Ok: true, Value: []byte("x")}, res)
}

func TestLookupQueries(t *testing.T) {
	fsm := newMachine(t)
	_, err := fsm.Update([]sm.Entry{entry(1,
		store.Op{Type: store.OpTAdd, Row: "alice", Col: "book-1", Value: []byte("a")},
		store.Op{Type: store.OpTAdd, Row: "alice", Col: "book-2", Value: []byte("b")},
		store.Op{Type: store.OpTAdd, Row: "bob", Col: "book-3", Value: []byte("c")},
	)})
	require.NoError(t, err)

	res, err := fsm.Lookup(internal.Query{Type: internal.QueryTGetByCol, Col: "book-3"})
	require.NoError(t, err)
	assert.Equal(t, internal.CellResult{Ok: true, Cell: store.Cell{Row: "bob", Col: "book-3", Value: []byte("c")}}, res)

	res, err = fsm.Lookup(internal.Query{Type: internal.QueryTDoesNotConflict, Row: "carol", Col: "book-3"})
	require.NoError(t, err)
	assert.Equal(t, false, res)

	res, err = fsm.Lookup(internal.Query{Type: internal.QueryTRows})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, res)

	res, err = fsm.Lookup(internal.Query{Type: internal.QueryTRow, Row: "alice"})
	require.NoError(t, err)
	assert.Len(t, res, 2)

	res, err = fsm.Lookup(internal.Query{Type: internal.QueryTGetInfo})
	require.NoError(t, err)
	info := res.(store.Info)
	assert.Equal(t, 3, info.Entries)
	assert.Equal(t, uint64(1), info.Metadata["shard_id"])

	_, err = fsm.Lookup("not a query")
	storetesting.RequireCode(t, err, store.RetCInternalError)

	_, err = fsm.Lookup(internal.Query{Type: internal.QueryType(99)})
	storetesting.RequireCode(t, err, store.RetCInvalidOperation)
}

func TestSnapshotRoundTrip(t *testing.T) {
	fsm := newMachine(t)
	_, err := fsm.Update([]sm.Entry{
		entry(1, store.Op{Type: store.OpTAdd, Row: "alice", Col: "book-1", Value: []byte("a")}),
		entry(2, store.Op{Type: store.OpTAdd, Row: "bob", Col: "book-1", Value: []byte("b")}),
		entry(3, store.Op{Type: store.OpTAdd, Row: "bob", Col: "book-2", Value: []byte("c")}),
	})
	require.NoError(t, err)

	ctx, err := fsm.PrepareSnapshot()
	require.NoError(t, err)

	// updates after PrepareSnapshot are not part of the snapshot
	_, err = fsm.Update([]sm.Entry{entry(4, store.Op{Type: store.OpTEraseCol, Col: "book-2"})})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, fsm.SaveSnapshot(ctx, &buf, nil, nil))

	restored := newMachine(t)
	require.NoError(t, restored.RecoverFromSnapshot(&buf, nil, nil))

	res, err := restored.Lookup(internal.Query{Type: internal.QueryTRow, Row: "bob"})
	require.NoError(t, err)
	assert.Len(t, res, 2)

	res, err = restored.Lookup(internal.Query{Type: internal.QueryTGet, Row: "alice", Col: "book-1"})
	require.NoError(t, err)
	assert.False(t, res.(internal.QueryResult).Ok)

	// the restored replica keeps enforcing the topology
	_, err = restored.Update([]sm.Entry{entry(5, store.Op{Type: store.OpTAdd, Row: "carol", Col: "book-2"})})
	require.NoError(t, err)
	res, err = restored.Lookup(internal.Query{Type: internal.QueryTRow, Row: "bob"})
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestSaveSnapshotRejectsForeignContext(t *testing.T) {
	fsm := newMachine(t)
	assert.Error(t, fsm.SaveSnapshot("nope", &bytes.Buffer{}, nil, nil))
}
