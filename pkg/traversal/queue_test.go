package traversal

import (
	"errors"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func drain[T any](t *testing.T, q Queue[T]) []T {
	t.Helper()
	var out []T
	for !q.Empty() {
		item, err := q.Get()
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		out = append(out, item)
	}
	return out
}

func TestQueues_EmptyErrors(t *testing.T) {
	queues := map[string]Queue[int]{
		"fifo":     NewFIFOQueue[int](),
		"lifo":     NewLIFOQueue[int](),
		"priority": NewPriorityQueue(func(a, b int) bool { return a < b }),
	}

	for name, q := range queues {
		t.Run(name, func(t *testing.T) {
			if _, err := q.Get(); !errors.Is(err, ErrEmptyQueue) {
				t.Errorf("Get on empty = %v, want ErrEmptyQueue", err)
			}
			if _, err := q.Peek(); !errors.Is(err, ErrEmptyQueue) {
				t.Errorf("Peek on empty = %v, want ErrEmptyQueue", err)
			}
			q.Put(1)
			q.Clear()
			if !q.Empty() || q.Len() != 0 {
				t.Error("queue should be empty after Clear")
			}
		})
	}
}

func TestQueues_CopyIsIndependent(t *testing.T) {
	factories := map[string]QueueFactory[int]{
		"fifo":     BreadthFirst[int](),
		"lifo":     DepthFirst[int](),
		"weighted": WeightedPriority(func(i int) int { return i }),
	}

	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			q := factory()
			q.Put(1)
			q.Put(2)
			cp := q.Copy()
			if _, err := q.Get(); err != nil {
				t.Fatal(err)
			}
			q.Put(3)
			if cp.Len() != 2 {
				t.Errorf("copy Len = %d, want 2", cp.Len())
			}
		})
	}
}

func TestFIFOQueue_Compacts(t *testing.T) {
	q := NewFIFOQueue[int]()
	for i := 0; i < 100; i++ {
		q.Put(i)
	}
	for i := 0; i < 70; i++ {
		if got, _ := q.Get(); got != i {
			t.Fatalf("Get = %d, want %d", got, i)
		}
	}
	q.Put(100)
	if head, _ := q.Peek(); head != 70 {
		t.Errorf("Peek = %d, want 70", head)
	}
	if q.Len() != 31 {
		t.Errorf("Len = %d, want 31", q.Len())
	}
}

func TestWeightedPriority_HeaviestFirstStable(t *testing.T) {
	type item struct {
		name   string
		weight int
	}
	q := WeightedPriority(func(i item) int { return i.weight })()
	q.Put(item{"a", 1})
	q.Put(item{"b", 3})
	q.Put(item{"c", 1})
	q.Put(item{"d", 3})

	var names []string
	for _, it := range drain(t, q) {
		names = append(names, it.name)
	}
	if want := []string{"b", "d", "a", "c"}; !slices.Equal(names, want) {
		t.Errorf("order = %v, want %v", names, want)
	}
}

func TestQueues_OrderProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("fifo returns put order", prop.ForAll(
		func(items []int) bool {
			q := NewFIFOQueue[int]()
			for _, i := range items {
				q.Put(i)
			}
			return slices.Equal(drain[int](t, q), items)
		},
		gen.SliceOf(gen.Int()),
	))

	properties.Property("lifo returns reverse put order", prop.ForAll(
		func(items []int) bool {
			q := NewLIFOQueue[int]()
			for _, i := range items {
				q.Put(i)
			}
			want := slices.Clone(items)
			slices.Reverse(want)
			return slices.Equal(drain[int](t, q), want)
		},
		gen.SliceOf(gen.Int()),
	))

	properties.Property("priority queue returns a sorted permutation", prop.ForAll(
		func(items []int) bool {
			q := NewPriorityQueue(func(a, b int) bool { return a < b })
			for _, i := range items {
				q.Put(i)
			}
			want := slices.Clone(items)
			slices.Sort(want)
			return slices.Equal(drain[int](t, q), want)
		},
		gen.SliceOf(gen.IntRange(-50, 50)),
	))

	properties.TestingRun(t)
}
