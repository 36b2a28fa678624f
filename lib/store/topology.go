package store

import (
	"fmt"

	"github.com/ValentinKolb/dRel/lib/container"
	"github.com/ValentinKolb/dRel/lib/container/maps"
)

// Topology selects the cardinality rules of a store.
type Topology string

const (
	TopologyOneToOne   Topology = "one-to-one"
	TopologyOneToMany  Topology = "one-to-many"
	TopologyManyToMany Topology = "many-to-many"
)

// ParseTopology parses the name of a topology.
func ParseTopology(s string) (Topology, error) {
	switch t := Topology(s); t {
	case TopologyOneToOne, TopologyOneToMany, TopologyManyToMany:
		return t, nil
	default:
		return "", fmt.Errorf("unknown topology %q (expected %s, %s or %s)", s,
			TopologyOneToOne, TopologyOneToMany, TopologyManyToMany)
	}
}

// ParseStrategy parses the name of a map strategy ("unordered" or "ordered").
func ParseStrategy(s string) (maps.Strategy, error) {
	switch s {
	case "unordered":
		return maps.Unordered, nil
	case "ordered":
		return maps.Ordered, nil
	default:
		return 0, fmt.Errorf("unknown map strategy %q (expected unordered or ordered)", s)
	}
}

// MatrixFactory describes the matrix a store is built on.
// It abstracts the creation of the matrix from the store implementation, so the
// state machines of all replicas create identical matrices.
type MatrixFactory struct {
	Name     string
	Topology Topology
	Strategy maps.Strategy
}

// New creates the matrix described by the factory.
func (f MatrixFactory) New(j container.Journal) Matrix {
	cfg := container.Unordered[string, string]()
	if f.Strategy == maps.Ordered {
		cfg = container.Ordered[string, string]()
	}

	switch f.Topology {
	case TopologyOneToOne:
		return container.NewOneToOne[string, string, Cell](f.Name, j, cfg)
	case TopologyManyToMany:
		return container.NewManyToMany[string, string, Cell](f.Name, j, cfg)
	default:
		return container.NewOneToMany[string, string, Cell](f.Name, j, cfg)
	}
}
