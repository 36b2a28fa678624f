package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/ValentinKolb/dRel/lib/container"
	"github.com/ValentinKolb/dRel/lib/journal"
	"github.com/ValentinKolb/dRel/lib/journal/wal"
	"github.com/ValentinKolb/dRel/lib/util"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/rcrowley/go-metrics"
)

var log = logger.GetLogger("store")

func init() {
	wal.Register(
		container.Update[string, string, Cell]{},
		container.Delete[string, string, Cell]{},
	)
}

// Engine is the transactional core shared by all store implementations:
// a matrix, the journal it reports to and the transaction bookkeeping.
//
// Thread-safety: none. The store implementations serialize access (a mutex in lstore,
// the raft log in dstore).
type Engine struct {
	factory MatrixFactory
	matrix  Matrix
	journal *journal.MutationJournal
	sinks   []journal.Sink

	registry  metrics.Registry
	commits   metrics.Meter
	rollbacks metrics.Meter
	txTimer   metrics.Timer
	sizes     *util.SizeHistogram
}

// NewEngine creates an engine with an empty matrix.
// Committed transactions are passed to the given sinks. The first sink decides whether a commit succeeds.
func NewEngine(factory MatrixFactory, sinks ...journal.Sink) *Engine {
	registry := metrics.NewRegistry()
	j := journal.NewMutationJournal(sinks...)
	return &Engine{
		factory:   factory,
		matrix:    factory.New(j),
		journal:   j,
		sinks:     sinks,
		registry:  registry,
		commits:   metrics.GetOrRegisterMeter("tx.commits", registry),
		rollbacks: metrics.GetOrRegisterMeter("tx.rollbacks", registry),
		txTimer:   metrics.GetOrRegisterTimer("tx.duration", registry),
		sizes:     util.NewSizeHistogram(),
	}
}

// Matrix returns the matrix of the engine. It must not be mutated directly.
func (e *Engine) Matrix() Matrix {
	return e.matrix
}

// --------------------------------------------------------------------------
// Transactions
// --------------------------------------------------------------------------

// Apply runs ops in order as a single transaction.
// If an op fails, all mutations of the transaction are rolled back and the error is returned.
// Otherwise the transaction is committed (see journal.MutationJournal.Commit).
func (e *Engine) Apply(ctx context.Context, ops []Op) (journal.Transaction, error) {
	start := time.Now()
	defer e.txTimer.UpdateSince(start)

	for i, op := range ops {
		if err := e.apply(op); err != nil {
			n := e.journal.Rollback()
			e.rollbacks.Mark(1)
			log.Debugf("transaction aborted at op %d (%s), %d mutations rolled back: %v", i, op.Type, n, err)
			return journal.Transaction{}, err
		}
	}

	tx, err := e.journal.Commit(ctx)
	if err != nil {
		e.journal.Rollback()
		e.rollbacks.Mark(1)
		log.Warningf("commit failed, transaction rolled back: %v", err)
		return journal.Transaction{}, NewError(RetCInternalError, err.Error())
	}
	e.commits.Mark(1)

	// only committed values count toward the size distribution
	for _, op := range ops {
		if op.Type == OpTAdd || op.Type == OpTAddIfNoConflict {
			e.sizes.AddSample(len(op.Value))
		}
	}
	return tx, nil
}

func (e *Engine) apply(op Op) error {
	if op.Col == "" {
		return NewError(RetCInvalidOperation, fmt.Sprintf("%s: col must not be empty", op.Type))
	}
	if op.Row == "" && op.Type != OpTEraseCol {
		return NewError(RetCInvalidOperation, fmt.Sprintf("%s: row must not be empty", op.Type))
	}

	key := container.Key[string, string]{Row: op.Row, Col: op.Col}
	switch op.Type {
	case OpTAddIfNoConflict:
		if !e.matrix.DoesNotConflict(key) {
			return NewError(RetCConflict, fmt.Sprintf("cell (%s, %s) conflicts with an existing cell", op.Row, op.Col))
		}
		fallthrough
	case OpTAdd:
		e.matrix.Add(Cell{Row: op.Row, Col: op.Col, Value: op.Value})
	case OpTErase:
		e.matrix.Erase(key)
	case OpTEraseCol:
		e.matrix.EraseCol(op.Col)
	default:
		return NewError(RetCInvalidOperation, fmt.Sprintf("unknown operation: %s", op.Type))
	}
	return nil
}

// --------------------------------------------------------------------------
// Replay and snapshots
// --------------------------------------------------------------------------

// Replay applies the events of a committed transaction without logging them.
func (e *Engine) Replay(tx journal.Transaction) error {
	for i, event := range tx.Events {
		if !e.matrix.Replay(event) {
			return fmt.Errorf("transaction %s: event %d (%T) does not belong to %s", tx.ID, i, event, e.matrix.TypeName())
		}
	}
	return nil
}

// Cells returns a copy of all cells in store order.
func (e *Engine) Cells() []Cell {
	cells := make([]Cell, 0, e.matrix.Size())
	for _, cell := range e.matrix.All() {
		cells = append(cells, cell.Clone())
	}
	return cells
}

// Restore replaces the matrix with one holding exactly cells.
// The cells are applied through the replay entry points, nothing is logged.
func (e *Engine) Restore(cells []Cell) error {
	j := journal.NewMutationJournal(e.sinks...)
	m := e.factory.New(j)
	for _, cell := range cells {
		if !m.Replay(container.Update[string, string, Cell]{Source: e.factory.Name, Data: cell}) {
			return fmt.Errorf("restore: %s rejected cell %s", m.TypeName(), cell)
		}
	}
	e.journal, e.matrix = j, m
	return nil
}

// --------------------------------------------------------------------------
// Reads
// --------------------------------------------------------------------------

func (e *Engine) Get(row, col string) ([]byte, bool) {
	cell, ok := e.matrix.Get(container.Key[string, string]{Row: row, Col: col})
	if !ok {
		return nil, false
	}
	return slices.Clone(cell.Value), true
}

func (e *Engine) GetByCol(col string) (Cell, bool, error) {
	if e.factory.Topology == TopologyManyToMany {
		return Cell{}, false, NewError(RetCUnsupportedOperation, "GetByCol is not supported by many-to-many stores")
	}
	for _, cell := range e.matrix.ColEntries(col) {
		return cell.Clone(), true, nil
	}
	return Cell{}, false, nil
}

func (e *Engine) DoesNotConflict(row, col string) bool {
	return e.matrix.DoesNotConflict(container.Key[string, string]{Row: row, Col: col})
}

func (e *Engine) Row(row string) []Cell {
	var cells []Cell
	for _, cell := range e.matrix.RowEntries(row) {
		cells = append(cells, cell.Clone())
	}
	return cells
}

func (e *Engine) Col(col string) []Cell {
	var cells []Cell
	for _, cell := range e.matrix.ColEntries(col) {
		cells = append(cells, cell.Clone())
	}
	return cells
}

func (e *Engine) Rows() []string {
	return slices.Collect(e.matrix.RowKeys())
}

func (e *Engine) Cols() []string {
	return slices.Collect(e.matrix.ColKeys())
}

// Info collects the current metadata of the engine.
// Computing the row fan-out iterates over all rows.
func (e *Engine) Info() Info {
	var fanout []float64
	for row := range e.matrix.RowKeys() {
		n := 0
		for range e.matrix.RowEntries(row) {
			n++
		}
		fanout = append(fanout, float64(n))
	}

	cols := 0
	for range e.matrix.ColKeys() {
		cols++
	}

	return Info{
		Name:         e.matrix.Name(),
		TypeName:     e.matrix.TypeName(),
		Topology:     e.factory.Topology,
		Entries:      e.matrix.Size(),
		Rows:         len(fanout),
		Cols:         cols,
		Transactions: uint64(e.commits.Count()),
		Rollbacks:    uint64(e.rollbacks.Count()),
		RowFanout:    util.NewDistributionStats(fanout),
		ValueSizes:   e.sizes.Summary(),
		Metadata: map[string]any{
			"strategy":      e.factory.Strategy.String(),
			"tx_rate_1m":    e.commits.Rate1(),
			"tx_mean_ms":    e.txTimer.Mean() / float64(time.Millisecond),
			"tx_p99_ms":     e.txTimer.Percentile(0.99) / float64(time.Millisecond),
			"rest_behavior": string(e.matrix.RESTBehavior()),
		},
	}
}

// Close stops the metrics of the engine.
func (e *Engine) Close() {
	e.commits.Stop()
	e.rollbacks.Stop()
	e.registry.UnregisterAll()
}
