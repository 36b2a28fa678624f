package client

import (
	"github.com/ValentinKolb/dRel/lib/store"
	"github.com/ValentinKolb/dRel/rpc/common"
	"github.com/ValentinKolb/dRel/rpc/serializer"
	"github.com/ValentinKolb/dRel/rpc/transport"
)

// NewRPCStore creates a new RPC store
// The function takes a shard ID, a config, a transport and a serializer as parameters
// It returns a store.IStore and an error
func NewRPCStore(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (store.IStore, error) {

	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return &rpcStore{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}, nil
}

type rpcStore struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcStore) Add(row, col string, value []byte) error {
	_, err := i.invoke(common.NewAddRequest(row, col, value))
	return err
}

func (i *rpcStore) Erase(row, col string) error {
	_, err := i.invoke(common.NewEraseRequest(row, col))
	return err
}

func (i *rpcStore) EraseCol(col string) error {
	_, err := i.invoke(common.NewEraseColRequest(col))
	return err
}

func (i *rpcStore) Batch(ops []store.Op) error {
	_, err := i.invoke(common.NewBatchRequest(ops))
	return err
}

func (i *rpcStore) Get(row, col string) ([]byte, bool, error) {
	resp, err := i.invoke(common.NewGetRequest(row, col))
	if err != nil {
		return nil, false, err
	}
	return resp.Value, resp.Ok, nil
}

func (i *rpcStore) GetByCol(col string) (store.Cell, bool, error) {
	resp, err := i.invoke(common.NewGetByColRequest(col))
	if err != nil {
		return store.Cell{}, false, err
	}
	if !resp.Ok || len(resp.Cells) == 0 {
		return store.Cell{}, false, nil
	}
	return resp.Cells[0], true, nil
}

func (i *rpcStore) DoesNotConflict(row, col string) (bool, error) {
	resp, err := i.invoke(common.NewDoesNotConflictRequest(row, col))
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (i *rpcStore) Row(row string) ([]store.Cell, error) {
	resp, err := i.invoke(common.NewRowRequest(row))
	if err != nil {
		return nil, err
	}
	return resp.Cells, nil
}

func (i *rpcStore) Col(col string) ([]store.Cell, error) {
	resp, err := i.invoke(common.NewColRequest(col))
	if err != nil {
		return nil, err
	}
	return resp.Cells, nil
}

func (i *rpcStore) Rows() ([]string, error) {
	resp, err := i.invoke(common.NewKeysRequest(common.MsgTRows))
	if err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

func (i *rpcStore) Cols() ([]string, error) {
	resp, err := i.invoke(common.NewKeysRequest(common.MsgTCols))
	if err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

func (i *rpcStore) GetInfo() (store.Info, error) {
	resp, err := i.invoke(common.NewGetInfoRequest())
	if err != nil {
		return store.Info{}, err
	}
	info, err := resp.Info()
	if err != nil {
		return store.Info{}, store.NewError(store.RetCInternalError, err.Error())
	}
	return info, nil
}
