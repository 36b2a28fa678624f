package maps

import (
	"cmp"
	"slices"
	"testing"
)

func TestMapStrategies(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
	}{
		{name: "Unordered", strategy: Unordered},
		{name: "Ordered", strategy: Ordered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New[int, string](tt.strategy, cmp.Less[int])

			if m.Len() != 0 {
				t.Fatalf("expected empty map, got len %d", m.Len())
			}

			m.Store(3, "c")
			m.Store(1, "a")
			m.Store(2, "b")
			m.Store(2, "B") // overwrite

			if m.Len() != 3 {
				t.Errorf("Len() = %d, want 3", m.Len())
			}
			if v, ok := m.Load(2); !ok || v != "B" {
				t.Errorf("Load(2) = %q, %v, want B, true", v, ok)
			}
			if _, ok := m.Load(42); ok {
				t.Errorf("Load(42) should not find a value")
			}

			m.Delete(1)
			m.Delete(42) // no-op
			if m.Len() != 2 {
				t.Errorf("Len() after delete = %d, want 2", m.Len())
			}

			var keys []int
			m.Range(func(k int, _ string) bool {
				keys = append(keys, k)
				return true
			})
			slices.Sort(keys)
			if !slices.Equal(keys, []int{2, 3}) {
				t.Errorf("Range keys = %v, want [2 3]", keys)
			}
		})
	}
}

func TestOrderedIteration(t *testing.T) {
	m := NewOrdered[string, int](cmp.Less[string])
	for i, k := range []string{"delta", "alpha", "charlie", "bravo"} {
		m.Store(k, i)
	}

	var keys []string
	m.Range(func(k string, _ int) bool {
		keys = append(keys, k)
		return true
	})

	want := []string{"alpha", "bravo", "charlie", "delta"}
	if !slices.Equal(keys, want) {
		t.Errorf("Range order = %v, want %v", keys, want)
	}
}

func TestRangeStopsEarly(t *testing.T) {
	for _, s := range []Strategy{Unordered, Ordered} {
		m := New[int, int](s, cmp.Less[int])
		for i := 0; i < 10; i++ {
			m.Store(i, i)
		}
		count := 0
		m.Range(func(_, _ int) bool {
			count++
			return count < 3
		})
		if count != 3 {
			t.Errorf("%s: Range visited %d entries, want 3", s, count)
		}
	}
}

func TestOrderedWithoutLessPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic for ordered map without less function")
		}
	}()
	New[int, int](Ordered, nil)
}
