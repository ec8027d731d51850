package traversal

// Tracker records which items a traversal has visited.
type Tracker[T any] interface {
	HasVisited(item T) bool
	// Visit marks the item as visited, reporting whether it was new.
	Visit(item T) bool
	Clear()
	Copy() Tracker[T]
}

// SetTracker tracks visited keys.
type SetTracker[T any, K comparable] struct {
	keyOf   func(T) K
	visited map[K]struct{}
}

func NewSetTracker[T any, K comparable](keyOf func(T) K) *SetTracker[T, K] {
	return &SetTracker[T, K]{keyOf: keyOf, visited: make(map[K]struct{})}
}

func (t *SetTracker[T, K]) HasVisited(item T) bool {
	_, ok := t.visited[t.keyOf(item)]
	return ok
}

func (t *SetTracker[T, K]) Visit(item T) bool {
	key := t.keyOf(item)
	if _, ok := t.visited[key]; ok {
		return false
	}
	t.visited[key] = struct{}{}
	return true
}

func (t *SetTracker[T, K]) Clear() { clear(t.visited) }

func (t *SetTracker[T, K]) Copy() Tracker[T] {
	visited := make(map[K]struct{}, len(t.visited))
	for k := range t.visited {
		visited[k] = struct{}{}
	}
	return &SetTracker[T, K]{keyOf: t.keyOf, visited: visited}
}

// MinStepTracker keeps the smallest step count each key was visited at. A
// visit is only new when it reaches the key in fewer steps.
type MinStepTracker[T any, K comparable] struct {
	keyOf   func(T) K
	stepOf  func(T) int
	visited map[K]int
}

func NewMinStepTracker[T any, K comparable](keyOf func(T) K, stepOf func(T) int) *MinStepTracker[T, K] {
	return &MinStepTracker[T, K]{keyOf: keyOf, stepOf: stepOf, visited: make(map[K]int)}
}

// HasVisited reports whether the key was visited in the same number of
// steps or fewer.
func (t *MinStepTracker[T, K]) HasVisited(item T) bool {
	best, ok := t.visited[t.keyOf(item)]
	return ok && best <= t.stepOf(item)
}

func (t *MinStepTracker[T, K]) Visit(item T) bool {
	key, step := t.keyOf(item), t.stepOf(item)
	if best, ok := t.visited[key]; ok && best <= step {
		return false
	}
	t.visited[key] = step
	return true
}

// StepFor returns the smallest step count recorded for key.
func (t *MinStepTracker[T, K]) StepFor(key K) (int, bool) {
	step, ok := t.visited[key]
	return step, ok
}

func (t *MinStepTracker[T, K]) Clear() { clear(t.visited) }

func (t *MinStepTracker[T, K]) Copy() Tracker[T] {
	visited := make(map[K]int, len(t.visited))
	for k, v := range t.visited {
		visited[k] = v
	}
	return &MinStepTracker[T, K]{keyOf: t.keyOf, stepOf: t.stepOf, visited: visited}
}

// PhaseSetTracker accumulates the phases each key has been visited on. A
// visit is new when it brings at least one phase that has not been seen.
type PhaseSetTracker[T any, K comparable, P comparable] struct {
	keyOf    func(T) K
	phasesOf func(T) []P
	visited  map[K]map[P]struct{}
}

func NewPhaseSetTracker[T any, K comparable, P comparable](keyOf func(T) K, phasesOf func(T) []P) *PhaseSetTracker[T, K, P] {
	return &PhaseSetTracker[T, K, P]{keyOf: keyOf, phasesOf: phasesOf, visited: make(map[K]map[P]struct{})}
}

// HasVisited reports whether every phase of the item has been visited. An
// item without phases has been visited once its key has.
func (t *PhaseSetTracker[T, K, P]) HasVisited(item T) bool {
	seen, ok := t.visited[t.keyOf(item)]
	if !ok {
		return false
	}
	for _, p := range t.phasesOf(item) {
		if _, ok := seen[p]; !ok {
			return false
		}
	}
	return true
}

func (t *PhaseSetTracker[T, K, P]) Visit(item T) bool {
	key := t.keyOf(item)
	phases := t.phasesOf(item)
	seen, ok := t.visited[key]
	if !ok {
		seen = make(map[P]struct{}, len(phases))
		t.visited[key] = seen
	}

	added := !ok
	for _, p := range phases {
		if _, dup := seen[p]; !dup {
			seen[p] = struct{}{}
			added = true
		}
	}
	return added
}

func (t *PhaseSetTracker[T, K, P]) Clear() { clear(t.visited) }

func (t *PhaseSetTracker[T, K, P]) Copy() Tracker[T] {
	visited := make(map[K]map[P]struct{}, len(t.visited))
	for k, phases := range t.visited {
		cp := make(map[P]struct{}, len(phases))
		for p := range phases {
			cp[p] = struct{}{}
		}
		visited[k] = cp
	}
	return &PhaseSetTracker[T, K, P]{keyOf: t.keyOf, phasesOf: t.phasesOf, visited: visited}
}

// noTracker accepts every visit.
type noTracker[T any] struct{}

func (noTracker[T]) HasVisited(T) bool  { return false }
func (noTracker[T]) Visit(T) bool       { return true }
func (noTracker[T]) Clear()             {}
func (n noTracker[T]) Copy() Tracker[T] { return n }
