package container_test

import (
	"fmt"
	"testing"

	"github.com/ValentinKolb/dRel/lib/container"
	ctesting "github.com/ValentinKolb/dRel/lib/container/testing"
	"github.com/ValentinKolb/dRel/lib/journal"
)

var (
	_ container.Matrix[string, string, ctesting.Cell] = (*container.OneToOne[string, string, ctesting.Cell])(nil)
	_ container.Matrix[string, string, ctesting.Cell] = (*container.OneToMany[string, string, ctesting.Cell])(nil)
	_ container.Matrix[string, string, ctesting.Cell] = (*container.ManyToMany[string, string, ctesting.Cell])(nil)
)

type constructor func(name string, j container.Journal, cfg container.Config[string, string]) container.Matrix[string, string, ctesting.Cell]

var topologies = map[string]constructor{
	"OneToOne": func(name string, j container.Journal, cfg container.Config[string, string]) container.Matrix[string, string, ctesting.Cell] {
		return container.NewOneToOne[string, string, ctesting.Cell](name, j, cfg)
	},
	"OneToMany": func(name string, j container.Journal, cfg container.Config[string, string]) container.Matrix[string, string, ctesting.Cell] {
		return container.NewOneToMany[string, string, ctesting.Cell](name, j, cfg)
	},
	"ManyToMany": func(name string, j container.Journal, cfg container.Config[string, string]) container.Matrix[string, string, ctesting.Cell] {
		return container.NewManyToMany[string, string, ctesting.Cell](name, j, cfg)
	},
}

var presets = map[string]container.Config[string, string]{
	"Unordered": container.Unordered[string, string](),
	"Ordered":   container.Ordered[string, string](),
}

func TestMatrixConformance(t *testing.T) {
	for topology, newMatrix := range topologies {
		for preset, cfg := range presets {
			factory := func(name string, j container.Journal) container.Matrix[string, string, ctesting.Cell] {
				return newMatrix(name, j, cfg)
			}
			ctesting.RunMatrixTests(t, preset+topology, factory)
		}
	}
}

// --------------------------------------------------------------------------
// Benchmarks
// --------------------------------------------------------------------------

// discard drops every logged mutation.
type discard struct{}

func (discard) LogMutation(journal.Event, journal.Undo) {}

func BenchmarkMatrix(b *testing.B) {
	for topology, newMatrix := range topologies {
		for preset, cfg := range presets {
			b.Run(preset+topology, func(b *testing.B) {
				benchmarkMatrix(b, func() container.Matrix[string, string, ctesting.Cell] {
					return newMatrix("bench", discard{}, cfg)
				})
			})
		}
	}
}

func benchmarkMatrix(b *testing.B, factory func() container.Matrix[string, string, ctesting.Cell]) {
	keys := make([]ctesting.Cell, 1024)
	for i := range keys {
		keys[i] = ctesting.Cell{Row: fmt.Sprintf("r%d", i%64), Col: fmt.Sprintf("c%d", i), Value: i}
	}

	b.Run("Add", func(b *testing.B) {
		m := factory()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			m.Add(keys[i%len(keys)])
		}
	})

	b.Run("Get", func(b *testing.B) {
		m := factory()
		for _, k := range keys {
			m.Add(k)
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			k := keys[i%len(keys)]
			m.Get(container.Key[string, string]{Row: k.Row, Col: k.Col})
		}
	})

	b.Run("AddErase", func(b *testing.B) {
		m := factory()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			k := keys[i%len(keys)]
			m.Add(k)
			m.EraseCol(k.Col)
		}
	})

	b.Run("IterateRows", func(b *testing.B) {
		m := factory()
		for _, k := range keys {
			m.Add(k)
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			for row := range m.RowKeys() {
				for range m.RowEntries(row) {
				}
			}
		}
	})
}
