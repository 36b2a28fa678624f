package journal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("journal")

// --------------------------------------------------------------------------
// Events
// --------------------------------------------------------------------------

// EventType distinguishes the two kinds of mutation events.
type EventType uint8

const (
	EventTUpdate EventType = iota // An entry was inserted or overwritten.
	EventTDelete                  // An entry was removed.
)

func (t EventType) String() string {
	switch t {
	case EventTUpdate:
		return "Update"
	case EventTDelete:
		return "Delete"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// Event describes a single mutation of a container.
// Events are the wire contract for persistence and replication: replaying them in
// the order they were logged reconstructs the container state.
type Event interface {
	// EventType returns whether this is an update or a delete.
	EventType() EventType
	// Field returns the name of the container that emitted the event.
	Field() string
}

// --------------------------------------------------------------------------
// Undo Commands
// --------------------------------------------------------------------------

// UndoKind tags an undo command.
type UndoKind uint8

const (
	UndoTReinsert UndoKind = iota // Re-insert a captured entry at its key.
	UndoTRemove                   // Remove a key that did not exist before.
)

func (k UndoKind) String() string {
	switch k {
	case UndoTReinsert:
		return "Reinsert"
	case UndoTRemove:
		return "Remove"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Undo is a deferred, argumentless command reversing the physical effect of one event.
type Undo interface {
	// Kind returns the tag of the command.
	Kind() UndoKind
	// Apply performs the reversal. It must not log to any journal.
	Apply()
	// String returns a human-readable description of the command.
	String() string
}

// --------------------------------------------------------------------------
// Journal
// --------------------------------------------------------------------------

// Entry is one logged (event, undo) pair.
type Entry struct {
	Event Event
	Undo  Undo
}

// Transaction is the committed result of a journal: the events in the order they were logged.
type Transaction struct {
	ID     uuid.UUID
	Events []Event
}

// Sink receives committed transactions (e.g. a write-ahead log).
type Sink interface {
	Persist(ctx context.Context, tx Transaction) error
}

// MutationJournal is the append log the containers report their mutations to.
type MutationJournal struct {
	txID    uuid.UUID
	pending []Entry
	sinks   []Sink
}

// NewMutationJournal creates an empty journal with an open transaction.
// Committed transactions are passed to the given sinks in the given order; the first
// sink is the durable log that decides whether a commit succeeds.
func NewMutationJournal(sinks ...Sink) *MutationJournal {
	return &MutationJournal{
		txID:  uuid.New(),
		sinks: sinks,
	}
}

// AddSink registers an additional sink for committed transactions.
// A sink added to a journal that already has one only observes commits.
func (j *MutationJournal) AddSink(sink Sink) {
	j.sinks = append(j.sinks, sink)
}

// LogMutation records that event is about to take effect.
// The undo command is kept until the transaction is committed or rolled back.
func (j *MutationJournal) LogMutation(event Event, undo Undo) {
	j.pending = append(j.pending, Entry{Event: event, Undo: undo})
}

// TxID returns the id of the currently open transaction.
func (j *MutationJournal) TxID() uuid.UUID {
	return j.txID
}

// Len returns the number of pending (uncommitted) entries.
func (j *MutationJournal) Len() int {
	return len(j.pending)
}

// Pending returns a copy of the pending entries in log order.
func (j *MutationJournal) Pending() []Entry {
	entries := make([]Entry, len(j.pending))
	copy(entries, j.pending)
	return entries
}

// Commit closes the open transaction: the pending events are passed to the sinks and
// the undo commands are dropped. A new transaction is opened afterward.
//
// The first sink decides the outcome. If it fails, nothing has been persisted, the
// transaction stays open and the error is returned, so the caller can still roll back.
// The remaining sinks are notified once the transaction is committed. Their failures
// are logged and do not undo the commit.
func (j *MutationJournal) Commit(ctx context.Context) (Transaction, error) {
	tx := Transaction{
		ID:     j.txID,
		Events: make([]Event, len(j.pending)),
	}
	for i, e := range j.pending {
		tx.Events[i] = e.Event
	}

	// empty transactions are not persisted
	if len(tx.Events) > 0 && len(j.sinks) > 0 {
		if err := j.sinks[0].Persist(ctx, tx); err != nil {
			return Transaction{}, fmt.Errorf("persist transaction %s: %w", tx.ID, err)
		}
		for i, sink := range j.sinks[1:] {
			if err := sink.Persist(ctx, tx); err != nil {
				log.Warningf("sink %d failed to receive committed transaction %s: %v", i+1, tx.ID, err)
			}
		}
	}

	log.Debugf("committed transaction %s with %d events", tx.ID, len(tx.Events))
	j.reset()
	return tx, nil
}

// Rollback applies the undo commands of all pending entries in reverse chronological
// order and discards them. It returns the number of reverted mutations.
// A new transaction is opened afterward.
func (j *MutationJournal) Rollback() int {
	n := len(j.pending)
	for i := n - 1; i >= 0; i-- {
		undo := j.pending[i].Undo
		log.Debugf("rollback %s: %s", j.txID, undo)
		undo.Apply()
	}

	if n > 0 {
		log.Infof("rolled back transaction %s (%d mutations)", j.txID, n)
	}
	j.reset()
	return n
}

func (j *MutationJournal) reset() {
	j.pending = nil
	j.txID = uuid.New()
}
