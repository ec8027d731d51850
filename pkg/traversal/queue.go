package traversal

import (
	"container/heap"
	"errors"
)

// ErrEmptyQueue is returned by Get and Peek when nothing is queued.
var ErrEmptyQueue = errors.New("queue is empty")

// Queue orders the items waiting to be processed by a traversal.
type Queue[T any] interface {
	// Put adds an item. It reports whether the item was accepted.
	Put(item T) bool
	// Get removes and returns the next item.
	Get() (T, error)
	// Peek returns the next item without removing it.
	Peek() (T, error)
	Empty() bool
	Len() int
	Clear()
	// Copy returns an independent queue holding the same items.
	Copy() Queue[T]
}

// QueueFactory creates a fresh queue. Branching traversals need one per branch.
type QueueFactory[T any] func() Queue[T]

// FIFOQueue returns items in the order they were put, giving breadth-first
// traversals.
type FIFOQueue[T any] struct {
	items []T
	head  int
}

func NewFIFOQueue[T any]() *FIFOQueue[T] {
	return &FIFOQueue[T]{}
}

func (q *FIFOQueue[T]) Put(item T) bool {
	q.items = append(q.items, item)
	return true
}

func (q *FIFOQueue[T]) Get() (T, error) {
	var zero T
	if q.Empty() {
		return zero, ErrEmptyQueue
	}
	item := q.items[q.head]
	q.items[q.head] = zero
	q.head++
	// Reclaim the consumed prefix once it dominates the backing array.
	if q.head > 32 && q.head*2 >= len(q.items) {
		q.items = append(q.items[:0:0], q.items[q.head:]...)
		q.head = 0
	}
	return item, nil
}

func (q *FIFOQueue[T]) Peek() (T, error) {
	if q.Empty() {
		var zero T
		return zero, ErrEmptyQueue
	}
	return q.items[q.head], nil
}

func (q *FIFOQueue[T]) Empty() bool { return q.Len() == 0 }
func (q *FIFOQueue[T]) Len() int    { return len(q.items) - q.head }

func (q *FIFOQueue[T]) Clear() {
	q.items = nil
	q.head = 0
}

func (q *FIFOQueue[T]) Copy() Queue[T] {
	items := make([]T, q.Len())
	copy(items, q.items[q.head:])
	return &FIFOQueue[T]{items: items}
}

// LIFOQueue returns the most recently put item first, giving depth-first
// traversals.
type LIFOQueue[T any] struct {
	items []T
}

func NewLIFOQueue[T any]() *LIFOQueue[T] {
	return &LIFOQueue[T]{}
}

func (q *LIFOQueue[T]) Put(item T) bool {
	q.items = append(q.items, item)
	return true
}

func (q *LIFOQueue[T]) Get() (T, error) {
	var zero T
	if q.Empty() {
		return zero, ErrEmptyQueue
	}
	last := len(q.items) - 1
	item := q.items[last]
	q.items[last] = zero
	q.items = q.items[:last]
	return item, nil
}

func (q *LIFOQueue[T]) Peek() (T, error) {
	if q.Empty() {
		var zero T
		return zero, ErrEmptyQueue
	}
	return q.items[len(q.items)-1], nil
}

func (q *LIFOQueue[T]) Empty() bool { return len(q.items) == 0 }
func (q *LIFOQueue[T]) Len() int    { return len(q.items) }
func (q *LIFOQueue[T]) Clear()      { q.items = nil }

func (q *LIFOQueue[T]) Copy() Queue[T] {
	items := make([]T, len(q.items))
	copy(items, q.items)
	return &LIFOQueue[T]{items: items}
}

// PriorityQueue is a binary heap returning the smallest item according to
// less. Items that compare equal come out in the order they were put.
type PriorityQueue[T any] struct {
	h *priorityHeap[T]
}

type prioritised[T any] struct {
	item T
	seq  uint64
}

type priorityHeap[T any] struct {
	items []prioritised[T]
	less  func(a, b T) bool
	seq   uint64
}

func (h *priorityHeap[T]) Len() int { return len(h.items) }
func (h *priorityHeap[T]) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if h.less(a.item, b.item) {
		return true
	}
	if h.less(b.item, a.item) {
		return false
	}
	return a.seq < b.seq
}
func (h *priorityHeap[T]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *priorityHeap[T]) Push(x any)    { h.items = append(h.items, x.(prioritised[T])) }
func (h *priorityHeap[T]) Pop() any {
	last := len(h.items) - 1
	item := h.items[last]
	h.items[last] = prioritised[T]{}
	h.items = h.items[:last]
	return item
}

// NewPriorityQueue creates a queue ordered by less.
func NewPriorityQueue[T any](less func(a, b T) bool) *PriorityQueue[T] {
	return &PriorityQueue[T]{h: &priorityHeap[T]{less: less}}
}

func (q *PriorityQueue[T]) Put(item T) bool {
	q.h.seq++
	heap.Push(q.h, prioritised[T]{item: item, seq: q.h.seq})
	return true
}

func (q *PriorityQueue[T]) Get() (T, error) {
	if q.Empty() {
		var zero T
		return zero, ErrEmptyQueue
	}
	return heap.Pop(q.h).(prioritised[T]).item, nil
}

func (q *PriorityQueue[T]) Peek() (T, error) {
	if q.Empty() {
		var zero T
		return zero, ErrEmptyQueue
	}
	return q.h.items[0].item, nil
}

func (q *PriorityQueue[T]) Empty() bool { return q.h.Len() == 0 }
func (q *PriorityQueue[T]) Len() int    { return q.h.Len() }
func (q *PriorityQueue[T]) Clear()      { q.h.items = nil }

func (q *PriorityQueue[T]) Copy() Queue[T] {
	items := make([]prioritised[T], len(q.h.items))
	copy(items, q.h.items)
	return &PriorityQueue[T]{h: &priorityHeap[T]{items: items, less: q.h.less, seq: q.h.seq}}
}

// BreadthFirst returns a factory of FIFO queues.
func BreadthFirst[T any]() QueueFactory[T] {
	return func() Queue[T] { return NewFIFOQueue[T]() }
}

// DepthFirst returns a factory of LIFO queues.
func DepthFirst[T any]() QueueFactory[T] {
	return func() Queue[T] { return NewLIFOQueue[T]() }
}

// WeightedPriority returns a factory of priority queues that hand out the
// heaviest item first.
func WeightedPriority[T any](weight func(T) int) QueueFactory[T] {
	return func() Queue[T] {
		return NewPriorityQueue(func(a, b T) bool { return weight(a) > weight(b) })
	}
}
