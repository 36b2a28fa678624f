package server

import (
	"fmt"

	"github.com/ValentinKolb/dRel/lib/store"
	"github.com/ValentinKolb/dRel/rpc/common"
)

func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

// iStoreServerAdapterImpl maps every message type to the IStore method of the same name.
type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(req *common.Message, s store.IStore) *common.Message {
	if s == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	switch req.MsgType {
	// writes
	case common.MsgTAdd:
		return common.NewWriteResponse(req.MsgType, s.Add(req.Row, req.Col, req.Value))
	case common.MsgTErase:
		return common.NewWriteResponse(req.MsgType, s.Erase(req.Row, req.Col))
	case common.MsgTEraseCol:
		return common.NewWriteResponse(req.MsgType, s.EraseCol(req.Col))
	case common.MsgTBatch:
		return common.NewWriteResponse(req.MsgType, s.Batch(req.Ops))

	// reads
	case common.MsgTGet:
		val, ok, err := s.Get(req.Row, req.Col)
		return common.NewGetResponse(val, ok, err)
	case common.MsgTGetByCol:
		cell, ok, err := s.GetByCol(req.Col)
		return common.NewGetByColResponse(cell, ok, err)
	case common.MsgTDoesNotConflict:
		ok, err := s.DoesNotConflict(req.Row, req.Col)
		return common.NewDoesNotConflictResponse(ok, err)
	case common.MsgTRow:
		cells, err := s.Row(req.Row)
		return common.NewCellsResponse(req.MsgType, cells, err)
	case common.MsgTCol:
		cells, err := s.Col(req.Col)
		return common.NewCellsResponse(req.MsgType, cells, err)
	case common.MsgTRows:
		rows, err := s.Rows()
		return common.NewKeysResponse(req.MsgType, rows, err)
	case common.MsgTCols:
		cols, err := s.Cols()
		return common.NewKeysResponse(req.MsgType, cols, err)
	case common.MsgTGetInfo:
		info, err := s.GetInfo()
		return common.NewGetInfoResponse(info, err)

	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC IStoreAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}
