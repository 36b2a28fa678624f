package journal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	typ   EventType
	field string
}

func (e testEvent) EventType() EventType { return e.typ }
func (e testEvent) Field() string        { return e.field }

// testUndo appends its id to a shared log when applied.
type testUndo struct {
	id      int
	applied *[]int
}

func (u testUndo) Kind() UndoKind { return UndoTRemove }
func (u testUndo) Apply()         { *u.applied = append(*u.applied, u.id) }
func (u testUndo) String() string { return "test" }

type memorySink struct {
	txs []Transaction
	err error
}

func (s *memorySink) Persist(_ context.Context, tx Transaction) error {
	if s.err != nil {
		return s.err
	}
	s.txs = append(s.txs, tx)
	return nil
}

func TestCommitPassesEventsToSinks(t *testing.T) {
	first, second := &memorySink{}, &memorySink{}
	j := NewMutationJournal(first)
	j.AddSink(second)

	var applied []int
	id := j.TxID()
	j.LogMutation(testEvent{EventTDelete, "a"}, testUndo{1, &applied})
	j.LogMutation(testEvent{EventTUpdate, "a"}, testUndo{2, &applied})

	tx, err := j.Commit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, id, tx.ID)
	require.Len(t, tx.Events, 2)
	assert.Equal(t, EventTDelete, tx.Events[0].EventType())
	assert.Equal(t, EventTUpdate, tx.Events[1].EventType())
	assert.Equal(t, []Transaction{tx}, first.txs)
	assert.Equal(t, []Transaction{tx}, second.txs)

	assert.Zero(t, j.Len())
	assert.NotEqual(t, id, j.TxID(), "commit must open a new transaction")
	assert.Empty(t, applied, "commit must not apply undo commands")
}

func TestCommitSkipsEmptyTransactions(t *testing.T) {
	sink := &memorySink{}
	j := NewMutationJournal(sink)

	_, err := j.Commit(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sink.txs)
}

func TestCommitSinkFailureKeepsTransactionOpen(t *testing.T) {
	boom := errors.New("disk full")
	j := NewMutationJournal(&memorySink{err: boom})

	var applied []int
	id := j.TxID()
	j.LogMutation(testEvent{EventTUpdate, "a"}, testUndo{1, &applied})

	_, err := j.Commit(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, j.Len())
	assert.Equal(t, id, j.TxID())

	assert.Equal(t, 1, j.Rollback())
	assert.Equal(t, []int{1}, applied)
}

func TestCommitFirstSinkFailureSkipsObservers(t *testing.T) {
	boom := errors.New("disk full")
	observer := &memorySink{}
	j := NewMutationJournal(&memorySink{err: boom}, observer)

	var applied []int
	j.LogMutation(testEvent{EventTUpdate, "a"}, testUndo{1, &applied})

	_, err := j.Commit(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Empty(t, observer.txs, "observers must not see uncommitted transactions")
	assert.Equal(t, 1, j.Len())
}

func TestCommitObserverFailureKeepsCommit(t *testing.T) {
	primary := &memorySink{}
	j := NewMutationJournal(primary, &memorySink{err: errors.New("unreachable")})

	var applied []int
	j.LogMutation(testEvent{EventTUpdate, "a"}, testUndo{1, &applied})

	tx, err := j.Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Transaction{tx}, primary.txs)
	assert.Zero(t, j.Len())

	// the commit is final, nothing is left to roll back
	assert.Zero(t, j.Rollback())
	assert.Empty(t, applied)
}

func TestRollbackAppliesUndosInReverse(t *testing.T) {
	sink := &memorySink{}
	j := NewMutationJournal(sink)

	var applied []int
	for i := 1; i <= 4; i++ {
		j.LogMutation(testEvent{EventTUpdate, "a"}, testUndo{i, &applied})
	}

	assert.Equal(t, 4, j.Rollback())
	assert.Equal(t, []int{4, 3, 2, 1}, applied)
	assert.Zero(t, j.Len())

	// rolled back events are never committed
	_, err := j.Commit(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sink.txs)
}

func TestPendingReturnsCopy(t *testing.T) {
	j := NewMutationJournal()
	var applied []int
	j.LogMutation(testEvent{EventTUpdate, "a"}, testUndo{1, &applied})

	pending := j.Pending()
	pending[0] = Entry{}

	require.NotNil(t, j.Pending()[0].Event)
}

func TestKindStrings(t *testing.T) {
	assert.Equal(t, "Update", EventTUpdate.String())
	assert.Equal(t, "Delete", EventTDelete.String())
	assert.Equal(t, "Reinsert", UndoTReinsert.String())
	assert.Equal(t, "Remove", UndoTRemove.String())
	assert.Equal(t, "Unknown(9)", EventType(9).String())
}
