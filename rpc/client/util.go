package client

import (
	"fmt"

	"github.com/ValentinKolb/dRel/lib/store"
	"github.com/ValentinKolb/dRel/rpc/common"
	"github.com/ValentinKolb/dRel/rpc/serializer"
	"github.com/ValentinKolb/dRel/rpc/transport"
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
type rpcClientAdapter struct {
	shardId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invoke sends a request to the shard of the client and returns the response.
// Transport failures are reported as RetCInternalError, errors of the remote store keep their code.
func (c *rpcClientAdapter) invoke(req *common.Message) (*common.Message, error) {
	reqBytes, err := c.serializer.Serialize(*req)
	if err != nil {
		return nil, store.NewError(store.RetCInternalError, err.Error())
	}

	respBytes, err := c.transport.Send(c.shardId, reqBytes)
	if err != nil {
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("RPC: %s", err))
	}

	resp := &common.Message{}
	if err := c.serializer.Deserialize(respBytes, resp); err != nil {
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("RPC: %s", err))
	}

	// Check if the response is an error response
	if err := resp.AsError(); err != nil {
		return nil, err
	}

	// Check if the type of the response is the expected type
	if resp.MsgType != req.MsgType {
		return nil, store.NewError(store.RetCInternalError,
			fmt.Sprintf("RPC: unexpected message type %s, expected %s", resp.MsgType, req.MsgType))
	}

	return resp, nil
}
