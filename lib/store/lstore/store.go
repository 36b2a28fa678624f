package lstore

import (
	"context"
	"sync"

	"github.com/ValentinKolb/dRel/lib/journal"
	"github.com/ValentinKolb/dRel/lib/store"
)

type storeImpl struct {
	mu     sync.RWMutex
	engine *store.Engine
}

// NewLocalStore creates a new local store instance.
// This store implementation is not distributed and only works on a single node.
// Committed transactions are passed to the given sinks (e.g. a wal.WAL).
func NewLocalStore(factory store.MatrixFactory, sinks ...journal.Sink) store.IStore {
	return &storeImpl{
		engine: store.NewEngine(factory, sinks...),
	}
}

// Recover creates a local store and replays the transactions produced by replay into it
// before new transactions are accepted. Replayed transactions are not passed to the sinks again.
func Recover(factory store.MatrixFactory, replay func(fn func(seq uint64, tx journal.Transaction) error) error, sinks ...journal.Sink) (store.IStore, error) {
	s := &storeImpl{engine: store.NewEngine(factory, sinks...)}

	n := 0
	err := replay(func(_ uint64, tx journal.Transaction) error {
		n++
		return s.engine.Replay(tx)
	})
	if err != nil {
		return nil, store.NewError(store.RetCInternalError, err.Error())
	}

	log.Infof("recovered %s from %d transactions (%d cells)", factory.Name, n, s.engine.Matrix().Size())
	return s, nil
}

// write runs ops as one transaction.
//
// Thread-safety: writers are serialized by the store mutex.
func (s *storeImpl) write(ops ...store.Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.engine.Apply(context.Background(), ops)
	return err
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Add(row, col string, value []byte) error {
	return s.write(store.Op{Type: store.OpTAdd, Row: row, Col: col, Value: value})
}

func (s *storeImpl) Erase(row, col string) error {
	return s.write(store.Op{Type: store.OpTErase, Row: row, Col: col})
}

func (s *storeImpl) EraseCol(col string) error {
	return s.write(store.Op{Type: store.OpTEraseCol, Col: col})
}

func (s *storeImpl) Batch(ops []store.Op) error {
	return s.write(ops...)
}

func (s *storeImpl) Get(row, col string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.engine.Get(row, col)
	return val, ok, nil
}

func (s *storeImpl) GetByCol(col string) (store.Cell, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.GetByCol(col)
}

func (s *storeImpl) DoesNotConflict(row, col string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.DoesNotConflict(row, col), nil
}

func (s *storeImpl) Row(row string) ([]store.Cell, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Row(row), nil
}

func (s *storeImpl) Col(col string) ([]store.Cell, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Col(col), nil
}

func (s *storeImpl) Rows() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Rows(), nil
}

func (s *storeImpl) Cols() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Cols(), nil
}

func (s *storeImpl) GetInfo() (store.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Info(), nil
}
