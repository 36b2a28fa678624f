package common

import (
	"fmt"
	"hash/fnv"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ValentinKolb/dRel/lib/container/maps"
	"github.com/ValentinKolb/dRel/lib/store"
	"github.com/lni/dragonboat/v4/config"
)

// --------------------------------------------------------------------------
// helper functions for to interface with Dragonboat (for the server util)
// --------------------------------------------------------------------------

// Dragonboat uses RTT (Round Trip Time) to determine the timing of elections and heartbeats.
// These default values are selected according to the RAFT Paper
const (
	electionRTTFactor  = 10
	heartbeatRTTFactor = 1
)

// ToDragonboatConfig converts the ServerConfig to Dragonboat Config
func (c *ServerConfig) ToDragonboatConfig(shardId uint64) config.Config {
	return config.Config{
		ReplicaID:          c.ReplicaID,
		ShardID:            shardId,
		ElectionRTT:        electionRTTFactor,  // = c.RTTMillisecond * 10
		HeartbeatRTT:       heartbeatRTTFactor, // = c.RTTMillisecond * 1
		CheckQuorum:        true,
		SnapshotEntries:    c.SnapshotEntries,
		CompactionOverhead: c.CompactionOverhead,
		MaxInMemLogSize:    0,
	}
}

// ToNodeHostConfig creates a NodeHostConfig for Dragonboat
func (c *ServerConfig) ToNodeHostConfig() config.NodeHostConfig {
	return config.NodeHostConfig{
		WALDir:         filepath.Join(c.DataDir, "raft"),
		NodeHostDir:    filepath.Join(c.DataDir, "raft"),
		RTTMillisecond: c.RTTMillisecond,
		RaftAddress:    c.ClusterMembers[c.ReplicaID],
	}
}

// ReplicaIDFromName derives the numeric replica id dragonboat needs from a human readable node name.
func ReplicaIDFromName(name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	id := h.Sum64()
	if id == 0 { // 0 is not a valid replica id
		id = 1
	}
	return id
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

type ServerShardType string

const (
	ShardTypeLocalIStore  ServerShardType = "lstore"
	ShardTypeRemoteIStore ServerShardType = "dstore"
)

// ServerShard describes a single matrix served by the server.
type ServerShard struct {
	// ShardID is the ID of the shard
	ShardID uint64
	// Type selects the store implementation of the shard
	Type ServerShardType
	// Topology and Strategy describe the matrix of the shard
	Topology store.Topology
	Strategy maps.Strategy
}

// Factory returns the description of the matrix backing the shard.
func (s ServerShard) Factory() store.MatrixFactory {
	return store.MatrixFactory{
		Name:     fmt.Sprintf("shard-%d", s.ShardID),
		Topology: s.Topology,
		Strategy: s.Strategy,
	}
}

func (s ServerShard) String() string {
	return fmt.Sprintf("%s (%s, %s)", s.Type, s.Topology, s.Strategy)
}

// ParseServerShard parses a shard definition of the form ID=TYPE[:TOPOLOGY[:STRATEGY]],
// e.g. "100=lstore:one-to-many:ordered". Topology defaults to one-to-many, strategy to unordered.
func ParseServerShard(def string) (ServerShard, error) {
	id, spec, ok := strings.Cut(strings.TrimSpace(def), "=")
	if !ok {
		return ServerShard{}, fmt.Errorf("invalid shard format: %s (expected ID=TYPE[:TOPOLOGY[:STRATEGY]])", def)
	}

	shardID, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return ServerShard{}, fmt.Errorf("invalid shard ID %s: %v", id, err)
	}

	shard := ServerShard{ShardID: shardID, Topology: store.TopologyOneToMany, Strategy: maps.Unordered}

	parts := strings.Split(strings.TrimSpace(spec), ":")
	if len(parts) > 3 {
		return ServerShard{}, fmt.Errorf("invalid shard format: %s (too many parts)", def)
	}

	switch t := ServerShardType(parts[0]); t {
	case ShardTypeLocalIStore, ShardTypeRemoteIStore:
		shard.Type = t
	default:
		return ServerShard{}, fmt.Errorf("invalid shard type: %s (expected one of: lstore, dstore)", parts[0])
	}

	if len(parts) > 1 {
		if shard.Topology, err = store.ParseTopology(parts[1]); err != nil {
			return ServerShard{}, err
		}
	}
	if len(parts) > 2 {
		if shard.Strategy, err = store.ParseStrategy(parts[2]); err != nil {
			return ServerShard{}, err
		}
	}
	return shard, nil
}

// ServerConfig holds all configuration parameters for the server and the RAFT cluster.
type ServerConfig struct {
	Shards []ServerShard

	// Dragonboat parameters
	RTTMillisecond     uint64
	SnapshotEntries    uint64
	CompactionOverhead uint64
	DataDir            string
	ReplicaID          uint64
	ClusterMembers     map[uint64]string

	// local store parameters, an empty WALDir disables the write-ahead log
	WALDir string

	// remote store parameters
	TimeoutSecond int64

	// HTTP api settings
	Endpoint string

	// Logging configuration
	LogLevel string
}

// HasRemoteShard checks if the configuration contains any remote shards
func (c *ServerConfig) HasRemoteShard() bool {
	for _, shard := range c.Shards {
		if shard.Type == ShardTypeRemoteIStore {
			return true
		}
	}
	return false
}

// ShardWALDir returns the WAL directory of a local shard, or "" if the WAL is disabled.
func (c *ServerConfig) ShardWALDir(shardID uint64) string {
	if c.WALDir == "" {
		return ""
	}
	return filepath.Join(c.WALDir, fmt.Sprintf("shard-%d", shardID))
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Shards
	addSection("Shards")
	for _, shard := range c.Shards {
		addField(strconv.FormatUint(shard.ShardID, 10), shard.String())
	}
	if c.WALDir != "" {
		addField("WAL Directory", c.WALDir)
	}

	if c.HasRemoteShard() {
		// Node Identity
		addSection("Node Identity")
		addField("RAFT Address", c.ClusterMembers[c.ReplicaID])
		addField("Node ID", strconv.FormatUint(c.ReplicaID, 10))

		// RAFT parameters
		addSection("RAFT Parameters")
		addField("Round Trip Time (ms)", fmt.Sprintf("%d ms", c.RTTMillisecond))
		addField("Election RTT (ms)", fmt.Sprintf("%d", c.RTTMillisecond*electionRTTFactor))
		addField("Heartbeat RTT (ms)", fmt.Sprintf("%d", c.RTTMillisecond*heartbeatRTTFactor))
		addField("Check Quorum", fmt.Sprintf("%t", true))
		addField("Snapshot Entries", fmt.Sprintf("%d", c.SnapshotEntries))
		addField("Compaction Overhead", fmt.Sprintf("%d", c.CompactionOverhead))

		// Storage
		addSection("Storage")
		addField("Data Directory", c.DataDir)

		// Cluster configuration
		addSection("Cluster")
		sb.WriteString("  Initial Members:\n")

		// Sort keys for consistent output
		var keys []uint64
		for k := range c.ClusterMembers {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("    Node %d: %s\n", k, c.ClusterMembers[k]))
		}
	}
	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

type ClientConfig struct {
	Endpoints     []string
	TimeoutSecond int
	RetryCount    int
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
