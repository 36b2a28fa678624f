package dstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ValentinKolb/dRel/lib/store"
	"github.com/ValentinKolb/dRel/lib/store/dstore/internal"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/client"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	retries = 5
	log     = logger.GetLogger("store")
)

// storeImpl is the concrete implementation of the distributed store.
// It encapsulates a Dragonboat NodeHost which is used to communicate with the state machine.
type storeImpl struct {
	nh      *dragonboat.NodeHost
	shardID uint64
	cs      *client.Session
	timeout time.Duration
}

// NewDistributedStore creates a new distributed store instance which uses raft consensus to ensure strict linearizability
// across multiple nodes.
func NewDistributedStore(nh *dragonboat.NodeHost, shardID uint64, timeout time.Duration) store.IStore {
	cs := nh.GetNoOPSession(shardID)
	return &storeImpl{
		nh:      nh,
		shardID: shardID,
		cs:      cs,
		timeout: timeout,
	}
}

// --------------------------------------------------------------------------
// Internal write and read operations (used by interface methods)
// --------------------------------------------------------------------------

// write serializes a Command and sends it via SyncPropose.
// It returns a *store.Error if an error occurs, or nil on success.
func (s *storeImpl) write(ops ...store.Op) error {
	cmd := internal.Command{Ops: ops}
	for i := 0; i < retries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)

		res, err := s.nh.SyncPropose(ctx, s.cs, cmd.Serialize())
		cancel()

		// Check for system busy errors
		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("SyncPropose: System busy, retrying (%d/%d)...", i+1, retries)
			time.Sleep(s.timeout / 10)
			continue
		}

		if err != nil {
			return store.NewError(store.RetCInternalError, err.Error())
		}
		if res.Value != uint64(store.RetCSuccess) {
			return store.NewError(store.RetCode(res.Value), string(res.Data))
		}
		return nil
	}
	return store.NewError(store.RetCInternalError, "timeout")
}

// read is a generic helper function that queries the state machine
// and attempts to convert the response into the expected type R.
//
// This function uses the SyncRead function (dragonboat) by default to Query the state machine.
// If linearizability is not required, the stale parameter can be set to true to use the faster StaleRead function.
//
// If the read operation fails due to a system busy error, the function retries up to 5 times.
func read[R any](r *storeImpl, q internal.Query, stale bool) (R, error) {
	var zero R
	for i := 0; i < retries; i++ {

		var res interface{}
		var err error

		if stale {
			res, err = r.nh.StaleRead(r.shardID, q)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
			res, err = r.nh.SyncRead(ctx, r.shardID, q)
			cancel()
		}

		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("SyncRead: System busy, retrying (%d/%d)...", i+1, retries)
			time.Sleep(r.timeout / 10)
			continue
		}

		if err != nil {
			var storeErr *store.Error
			if errors.As(err, &storeErr) {
				return zero, storeErr
			}
			return zero, store.NewError(store.RetCInternalError, err.Error())
		}

		// The state machine is expected to return the response in the expected type R.
		casted, ok := res.(R)
		if !ok {
			return zero, store.NewError(store.RetCInternalError,
				fmt.Sprintf("unexpected type: received %T, expected %T", res, zero))
		}
		return casted, nil
	}
	return zero, store.NewError(store.RetCInternalError, "timeout")
}

// --------------------------------------------------------------------------
// Interface Methods (docs see store/interface.go)
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
	res, err := read[internal.QueryResult](s, internal.Query{Type: internal.QueryTGet, Row: row, Col: col}, false)
	if err != nil {
		return nil, false, err
	}
	return res.Value, res.Ok, nil
}

func (s *storeImpl) GetByCol(col string) (store.Cell, bool, error) {
	res, err := read[internal.CellResult](s, internal.Query{Type: internal.QueryTGetByCol, Col: col}, false)
	if err != nil {
		return store.Cell{}, false, err
	}
	return res.Cell, res.Ok, nil
}

func (s *storeImpl) DoesNotConflict(row, col string) (bool, error) {
	return read[bool](s, internal.Query{Type: internal.QueryTDoesNotConflict, Row: row, Col: col}, false)
}

func (s *storeImpl) Row(row string) ([]store.Cell, error) {
	return read[[]store.Cell](s, internal.Query{Type: internal.QueryTRow, Row: row}, false)
}

func (s *storeImpl) Col(col string) ([]store.Cell, error) {
	return read[[]store.Cell](s, internal.Query{Type: internal.QueryTCol, Col: col}, false)
}

func (s *storeImpl) Rows() ([]string, error) {
	return read[[]string](s, internal.Query{Type: internal.QueryTRows}, false)
}

func (s *storeImpl) Cols() ([]string, error) {
	return read[[]string](s, internal.Query{Type: internal.QueryTCols}, false)
}

func (s *storeImpl) GetInfo() (store.Info, error) {
	return read[store.Info](
		s,
		internal.Query{Type: internal.QueryTGetInfo},
		true, // Note: allow for stale reads
	)
}
