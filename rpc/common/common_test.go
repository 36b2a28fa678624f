package common

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/dRel/lib/container/maps"
	"github.com/ValentinKolb/dRel/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServerShard(t *testing.T) {
	tests := []struct {
		def  string
		want ServerShard
		err  bool
	}{
		{def: "1=lstore", want: ServerShard{ShardID: 1, Type: ShardTypeLocalIStore, Topology: store.TopologyOneToMany, Strategy: maps.Unordered}},
		{def: " 2=dstore:one-to-one ", want: ServerShard{ShardID: 2, Type: ShardTypeRemoteIStore, Topology: store.TopologyOneToOne, Strategy: maps.Unordered}},
		{def: "3=lstore:many-to-many:ordered", want: ServerShard{ShardID: 3, Type: ShardTypeLocalIStore, Topology: store.TopologyManyToMany, Strategy: maps.Ordered}},
		{def: "lstore", err: true},
		{def: "x=lstore", err: true},
		{def: "4=lockmgr", err: true},
		{def: "5=lstore:star", err: true},
		{def: "6=lstore:one-to-one:sorted", err: true},
		{def: "7=lstore:one-to-one:ordered:extra", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			got, err := ParseServerShard(tt.def)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShardFactory(t *testing.T) {
	f := ServerShard{ShardID: 42, Type: ShardTypeLocalIStore, Topology: store.TopologyOneToOne, Strategy: maps.Ordered}.Factory()
	assert.Equal(t, store.MatrixFactory{Name: "shard-42", Topology: store.TopologyOneToOne, Strategy: maps.Ordered}, f)
}

func TestServerConfig(t *testing.T) {
	c := ServerConfig{
		Shards:         []ServerShard{{ShardID: 1, Type: ShardTypeRemoteIStore, Topology: store.TopologyOneToMany}},
		ReplicaID:      ReplicaIDFromName("node-1"),
		ClusterMembers: map[uint64]string{ReplicaIDFromName("node-1"): "localhost:63001"},
		DataDir:        "data",
		WALDir:         "wal",
	}

	assert.True(t, c.HasRemoteShard())
	assert.Equal(t, "localhost:63001", c.ToNodeHostConfig().RaftAddress)
	assert.Equal(t, uint64(1), c.ToDragonboatConfig(1).ShardID)
	assert.Contains(t, c.String(), "localhost:63001")
	assert.Equal(t, "wal/shard-3", filepath.ToSlash(c.ShardWALDir(3)))

	c.WALDir = ""
	assert.Empty(t, c.ShardWALDir(3))

	assert.Equal(t, ReplicaIDFromName("node-1"), ReplicaIDFromName("node-1"))
	assert.NotEqual(t, ReplicaIDFromName("node-1"), ReplicaIDFromName("node-2"))
}

func TestMessageErrors(t *testing.T) {
	msg := NewWriteResponse(MsgTBatch, store.NewError(store.RetCConflict, "col taken"))
	assert.Equal(t, "col taken", msg.Err)

	var storeErr *store.Error
	require.True(t, errors.As(msg.AsError(), &storeErr))
	assert.Equal(t, store.RetCConflict, storeErr.Code)

	// errors without a code become internal errors
	msg = NewWriteResponse(MsgTAdd, errors.New("disk full"))
	require.True(t, errors.As(msg.AsError(), &storeErr))
	assert.Equal(t, store.RetCInternalError, storeErr.Code)

	assert.NoError(t, NewWriteResponse(MsgTAdd, nil).AsError())
	assert.Error(t, NewErrorResponse("boom").AsError())
}

func TestInfoResponse(t *testing.T) {
	info := store.Info{Name: "loans", TypeName: "OrderedOneToMany", Entries: 3, Metadata: map[string]any{"strategy": "Ordered"}}
	msg := NewGetInfoResponse(info, nil)

	got, err := msg.Info()
	require.NoError(t, err)
	assert.Equal(t, info, got)
}

func TestMessageTypeJSON(t *testing.T) {
	for msgType := MsgTSuccess; msgType <= MsgTGetInfo; msgType++ {
		b, err := json.Marshal(msgType)
		require.NoError(t, err)

		var got MessageType
		require.NoError(t, json.Unmarshal(b, &got))
		assert.Equal(t, msgType, got)
	}
	assert.Equal(t, "unknown", MessageType(200).String())
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, logger.WARNING, lvl)

	_, err = ParseLogLevel("verbose")
	assert.Error(t, err)
}
