package dstore

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ValentinKolb/dRel/lib/store"
	"github.com/ValentinKolb/dRel/lib/store/dstore/internal"
	sm "github.com/lni/dragonboat/v4/statemachine"
)

// --------------------------------------------------------------------------
// State Machine Implementation
// --------------------------------------------------------------------------

// MatrixStateMachine is a state machine implementation for Dragonboat RAFT.
// Every replica holds its own engine and applies the same transactions in log order.
type MatrixStateMachine struct {
	replicaID uint64
	shardID   uint64
	mu        sync.RWMutex // the engine is single writer, lookups run concurrently to updates
	engine    *store.Engine
}

// CreateStateMachineFactory returns a function that can be used by dragonboat to create a new state machine for a node host.
// The factory pattern is used to enable the caller to pass an interchangeable matrix description.
func CreateStateMachineFactory(factory store.MatrixFactory) func(shardID uint64, replicaID uint64) sm.IConcurrentStateMachine {
	return func(shardID uint64, replicaID uint64) sm.IConcurrentStateMachine {
		return &MatrixStateMachine{
			replicaID: replicaID,
			shardID:   shardID,
			engine:    store.NewEngine(factory),
		}
	}
}

// Lookup handles read-only queries by mapping each Query operation to the corresponding engine method.
func (fsm *MatrixStateMachine) Lookup(itf interface{}) (interface{}, error) {

	// try to parse Query into Query struct
	q, ok := itf.(internal.Query)
	if !ok {
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("invalid Query type: %T", itf))
	}

	fsm.mu.RLock()
	defer fsm.mu.RUnlock()

	switch q.Type {
	case internal.QueryTGet:
		val, ok := fsm.engine.Get(q.Row, q.Col)
		return internal.QueryResult{Value: val, Ok: ok}, nil
	case internal.QueryTGetByCol:
		cell, ok, err := fsm.engine.GetByCol(q.Col)
		if err != nil {
			return nil, err
		}
		return internal.CellResult{Cell: cell, Ok: ok}, nil
	case internal.QueryTDoesNotConflict:
		return fsm.engine.DoesNotConflict(q.Row, q.Col), nil
	case internal.QueryTRow:
		return fsm.engine.Row(q.Row), nil
	case internal.QueryTCol:
		return fsm.engine.Col(q.Col), nil
	case internal.QueryTRows:
		return fsm.engine.Rows(), nil
	case internal.QueryTCols:
		return fsm.engine.Cols(), nil
	case internal.QueryTGetInfo:
		info := fsm.engine.Info()
		info.Metadata["shard_id"] = fsm.shardID
		info.Metadata["replica_id"] = fsm.replicaID
		return info, nil
	default:
		return nil, store.NewError(store.RetCInvalidOperation, fmt.Sprintf("unknown Query operation: %d", q.Type))
	}
}

// Update handles write commands on the engine.
// Every entry is one serialized transaction, entries are applied in log order.
func (fsm *MatrixStateMachine) Update(entries []sm.Entry) ([]sm.Entry, error) {

	// Nothing to do
	if len(entries) == 0 {
		return entries, nil
	}

	// Stats
	start := time.Now()

	fsm.mu.Lock()
	defer fsm.mu.Unlock()

	for idx, e := range entries {
		if len(e.Cmd) == 0 {
			entries[idx].Result = sm.Result{Value: uint64(store.RetCInvalidOperation), Data: []byte("empty command ignored")}
			continue
		}

		cmd := internal.Command{}
		if err := cmd.Deserialize(e.Cmd); err != nil {
			entries[idx].Result = sm.Result{Value: uint64(store.RetCInternalError), Data: []byte(fmt.Sprintf("failed to deserialize command: %v", err))}
			continue
		}

		tx, err := fsm.engine.Apply(context.Background(), cmd.Ops)
		if err != nil {
			code := store.RetCInternalError
			if storeErr, ok := err.(*store.Error); ok {
				code = storeErr.Code
			}
			entries[idx].Result = sm.Result{Value: uint64(code), Data: []byte(err.Error())}
			continue
		}

		entries[idx].Result = sm.Result{
			Value: uint64(store.RetCSuccess),
			Data:  []byte(fmt.Sprintf("tx %s: %d ops, %d events", tx.ID, len(cmd.Ops), len(tx.Events))),
		}
	}

	// Log if the update took long
	if elapsed := time.Since(start); elapsed > time.Millisecond {
		log.Infof("State machine took long to update. Batch updated %d entries, took %.2fms:", len(entries), float64(elapsed)/float64(time.Millisecond))
	}
	return entries, nil
}

// PrepareSnapshot captures a copy of all cells. Updates may continue while the copy is written.
func (fsm *MatrixStateMachine) PrepareSnapshot() (interface{}, error) {
	fsm.mu.RLock()
	defer fsm.mu.RUnlock()
	return fsm.engine.Cells(), nil
}

// SaveSnapshot writes the cells captured by PrepareSnapshot to the writer
func (fsm *MatrixStateMachine) SaveSnapshot(ctx interface{}, writer io.Writer, _ sm.ISnapshotFileCollection, _ <-chan struct{}) error {
	cells, ok := ctx.([]store.Cell)
	if !ok {
		return fmt.Errorf("invalid snapshot context: %T", ctx)
	}
	return store.WriteSnapshot(writer, cells)
}

// RecoverFromSnapshot rebuilds the matrix from a snapshot through the replay entry points.
func (fsm *MatrixStateMachine) RecoverFromSnapshot(r io.Reader, _ []sm.SnapshotFile, _ <-chan struct{}) error {
	cells, err := store.ReadSnapshot(r)
	if err != nil {
		return err
	}

	fsm.mu.Lock()
	defer fsm.mu.Unlock()
	return fsm.engine.Restore(cells)
}

// Close performs any necessary cleanup.
func (fsm *MatrixStateMachine) Close() error {
	fsm.engine.Close()
	return nil
}
