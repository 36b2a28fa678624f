package server

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ValentinKolb/dRel/lib/journal"
	"github.com/ValentinKolb/dRel/lib/journal/wal"
	"github.com/ValentinKolb/dRel/lib/store"
	"github.com/ValentinKolb/dRel/lib/store/dstore"
	"github.com/ValentinKolb/dRel/lib/store/lstore"
	"github.com/ValentinKolb/dRel/rpc/common"
	"github.com/ValentinKolb/dRel/rpc/serializer"
	"github.com/ValentinKolb/dRel/rpc/transport"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc")

// serverShard is a struct that represents a shard in the RPC server
// It contains the store it encapsulates and the adapter
// that handles requests for the store
type serverShard struct {
	Store   store.IStore
	Adapter IRPCServerAdapter
}

// RPCServer routes serialized messages to the stores of its shards.
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]
	metrics    *serverMetrics

	nodeHost *dragonboat.NodeHost
	wals     []*wal.WAL
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		http.NewHttpServerTransport(),
//		serializer.NewJSONSerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	s := &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     xsync.NewMapOf[uint64, serverShard](),
		metrics:    newServerMetrics(),
	}

	transport.RegisterHandler(s.Handle)
	transport.RegisterMetrics(s.metrics.write)
	return s
}

// AddShard serves st under shardId, replacing any store registered before.
func (s *RPCServer) AddShard(shardId uint64, st store.IStore) {
	s.shards.Store(shardId, serverShard{
		Store:   st,
		Adapter: NewIStoreServerAdapter(),
	})
}

// Handle decodes a request, lets the adapter of the shard handle it and encodes the response.
// Errors are always reported as a response message.
func (s *RPCServer) Handle(shardId uint64, req []byte) []byte {
	start := time.Now()
	var respMsg *common.Message

	var msg common.Message
	if shard, ok := s.shards.Load(shardId); !ok {
		s.metrics.rejected("unknown_shard")
		respMsg = common.NewErrorResponse(fmt.Sprintf("shard %d not found", shardId))
	} else if err := s.serializer.Deserialize(req, &msg); err != nil {
		s.metrics.rejected("bad_request")
		respMsg = common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
	} else {
		respMsg = shard.Adapter.Handle(&msg, shard.Store)
		s.metrics.observe(shardId, msg.MsgType, start, respMsg.Err != "")
	}

	val, err := s.serializer.Serialize(*respMsg)
	if err != nil {
		Logger.Errorf("failed to serialize response: %v", err)
		val, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
	}
	return val
}

// init creates the stores of all configured shards.
func (s *RPCServer) init() error {

	// Create the Dragonboat NodeHost, only needed for remote shards
	if s.config.HasRemoteShard() {
		nodeHost, err := dragonboat.NewNodeHost(s.config.ToNodeHostConfig())
		if err != nil {
			return fmt.Errorf("failed to create node host: %w", err)
		}
		s.nodeHost = nodeHost
	}

	timeout := time.Duration(s.config.TimeoutSecond) * time.Second

	/*
		Note: A single RPC Server can have any number of remote and or local shards.
		Each shard is a matrix of its own topology. The following loop creates all
		the shards and stores them for the RPC server.
	*/

	for _, shardConfig := range s.config.Shards {
		factory := shardConfig.Factory()

		switch shardConfig.Type {
		case common.ShardTypeLocalIStore:
			st, err := s.openLocalStore(shardConfig.ShardID, factory)
			if err != nil {
				return fmt.Errorf("failed to create local store for shard %d: %w", shardConfig.ShardID, err)
			}
			s.AddShard(shardConfig.ShardID, st)
			Logger.Infof("created local store for shard %d: %s", shardConfig.ShardID, shardConfig)

		case common.ShardTypeRemoteIStore:
			if s.nodeHost == nil {
				return fmt.Errorf("node host is nil, cannot create remote store")
			}

			// Start Raft for the shard
			if err := s.nodeHost.StartConcurrentReplica(s.config.ClusterMembers, false, dstore.CreateStateMachineFactory(factory), s.config.ToDragonboatConfig(shardConfig.ShardID)); err != nil {
				return fmt.Errorf("failed to start shard %d: %w", shardConfig.ShardID, err)
			}
			s.AddShard(shardConfig.ShardID, dstore.NewDistributedStore(s.nodeHost, shardConfig.ShardID, timeout))
			Logger.Infof("created distributed store for shard %d: %s", shardConfig.ShardID, shardConfig)

		default:
			return fmt.Errorf("invalid shard type: %s", shardConfig.Type)
		}
	}

	Logger.Infof("dRel setup completed successfully")
	return nil
}

// openLocalStore creates a local store, recovered from and persisted to its WAL if one is configured.
func (s *RPCServer) openLocalStore(shardId uint64, factory store.MatrixFactory) (store.IStore, error) {
	dir := s.config.ShardWALDir(shardId)
	if dir == "" {
		return lstore.NewLocalStore(factory), nil
	}

	w, err := wal.Open(wal.Config{Path: dir, SyncWrites: true})
	if err != nil {
		return nil, err
	}
	s.wals = append(s.wals, w)

	return lstore.Recover(factory, func(fn func(seq uint64, tx journal.Transaction) error) error {
		return w.Replay(context.Background(), fn)
	}, w)
}

// Serve starts the RPC server
// This function will also initialize the shards and start the transport layer.
// It blocks until the transport stops.
func (s *RPCServer) Serve() error {
	Logger.Infof("Starting RPC Server")
	Logger.Infof(s.config.String())

	if err := s.init(); err != nil {
		return errors.Join(err, s.Close())
	}
	return s.transport.Listen(s.config)
}

// Shutdown stops the transport and releases all shards.
func (s *RPCServer) Shutdown(ctx context.Context) error {
	return errors.Join(s.transport.Shutdown(ctx), s.Close())
}

// Close closes the WALs of the local shards and stops the node host.
func (s *RPCServer) Close() error {
	var errs []error
	for _, w := range s.wals {
		errs = append(errs, w.Close())
	}
	s.wals = nil

	if s.nodeHost != nil {
		s.nodeHost.Close()
		s.nodeHost = nil
	}
	return errors.Join(errs...)
}
