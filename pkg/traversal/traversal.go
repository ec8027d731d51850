// Package traversal provides a configurable graph traversal engine.
//
// A Traversal pops items from a queue, applies step actions to them and asks
// a queue-next function for the items to visit next. Stop conditions prevent
// expansion past an item and queue conditions gate which items are queued.
// Branching traversals fork a child traversal, with its own copy of the
// tracker, whenever an item has more than one way forward.
//
// A Traversal is not safe for concurrent use.
package traversal

import (
	"context"
	"time"

	"github.com/dd0wney/cluso-gridtrace/pkg/logging"
	"github.com/dd0wney/cluso-gridtrace/pkg/metrics"
)

// State is the lifecycle state of a traversal.
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NOT_STARTED"
	case StateRunning:
		return "RUNNING"
	case StateComplete:
		return "COMPLETE"
	default:
		return "UNKNOWN"
	}
}

// QueueNext expands an item, calling queueItem for each candidate next item.
type QueueNext[T any] func(item T, ctx *StepContext, queueItem func(T) bool) error

// BranchingQueueNext expands an item, choosing per candidate between
// continuing the current branch (queueItem) and starting a new one
// (queueBranch).
type BranchingQueueNext[T any] func(item T, ctx *StepContext, queueItem, queueBranch func(T) bool) error

// QueueType selects between a single-frontier and a branching traversal.
type QueueType[T comparable] struct {
	queueNext          QueueNext[T]
	branchingQueueNext BranchingQueueNext[T]
	queueFactory       QueueFactory[T]
	branchQueueFactory QueueFactory[*Traversal[T]]
}

// Basic creates a non-branching queue type using the given queue.
func Basic[T comparable](queueNext QueueNext[T], queue Queue[T]) QueueType[T] {
	return QueueType[T]{
		queueNext:    queueNext,
		queueFactory: func() Queue[T] { return queue },
	}
}

// Branching creates a branching queue type. Each branch gets a fresh queue
// from queueFactory; pending branches are ordered by a queue from
// branchQueueFactory.
func Branching[T comparable](queueNext BranchingQueueNext[T], queueFactory QueueFactory[T], branchQueueFactory QueueFactory[*Traversal[T]]) QueueType[T] {
	return QueueType[T]{
		branchingQueueNext: queueNext,
		queueFactory:       queueFactory,
		branchQueueFactory: branchQueueFactory,
	}
}

// IsBranching reports whether the queue type forks branches.
func (qt QueueType[T]) IsBranching() bool {
	return qt.branchingQueueNext != nil
}

// ItemHook lets a wrapper take part in deciding whether an item is visited
// or actioned.
type ItemHook[T comparable] func(t *Traversal[T], item T, ctx *StepContext) bool

// Option configures a Traversal.
type Option[T comparable] func(*Traversal[T])

// WithTracker sets the tracker deciding whether items are new.
func WithTracker[T comparable](tracker Tracker[T]) Option[T] {
	return func(t *Traversal[T]) { t.tracker = tracker }
}

// WithCanVisitItem adds a check run after the tracker accepts an item.
func WithCanVisitItem[T comparable](hook ItemHook[T]) Option[T] {
	return func(t *Traversal[T]) { t.canVisit = hook }
}

// WithCanActionItem decides whether stop conditions and step actions apply
// to a visited item.
func WithCanActionItem[T comparable](hook ItemHook[T]) Option[T] {
	return func(t *Traversal[T]) { t.canAction = hook }
}

// WithName names the traversal in logs, errors and metrics.
func WithName[T comparable](name string) Option[T] {
	return func(t *Traversal[T]) { t.name = name }
}

func WithLogger[T comparable](logger logging.Logger) Option[T] {
	return func(t *Traversal[T]) { t.logger = logger }
}

func WithMetrics[T comparable](registry *metrics.Registry) Option[T] {
	return func(t *Traversal[T]) { t.metrics = registry }
}

// WithOnReset registers a function called whenever the traversal is reset.
func WithOnReset[T comparable](fn func()) Option[T] {
	return func(t *Traversal[T]) { t.onReset = append(t.onReset, fn) }
}

type contextEntry struct {
	ctx  *StepContext
	refs int
}

// Traversal walks items of type T. Items are used as map keys to hold their
// step context while queued, so pointer items are the usual choice.
type Traversal[T comparable] struct {
	queueType   QueueType[T]
	parent      *Traversal[T]
	queue       Queue[T]
	branchQueue Queue[*Traversal[T]]
	startItems  []T
	state       State

	stopConditions  []StopCondition[T]
	queueConditions []QueueCondition[T]
	stepActions     []StepAction[T]
	computers       []ContextValueComputer[T]
	contexts        map[T]*contextEntry

	tracker   Tracker[T]
	canVisit  ItemHook[T]
	canAction ItemHook[T]
	onReset   []func()

	name    string
	logger  logging.Logger
	metrics *metrics.Registry
	steps   int
}

// New creates a traversal of the given queue type.
func New[T comparable](queueType QueueType[T], opts ...Option[T]) *Traversal[T] {
	t := &Traversal[T]{
		queueType: queueType,
		queue:     queueType.queueFactory(),
		contexts:  make(map[T]*contextEntry),
		tracker:   noTracker[T]{},
		logger:    logging.NewNopLogger(),
		name:      "traversal",
	}
	if queueType.IsBranching() {
		t.branchQueue = queueType.branchQueueFactory()
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Traversal[T]) State() State           { return t.state }
func (t *Traversal[T]) Name() string           { return t.name }
func (t *Traversal[T]) Parent() *Traversal[T]  { return t.parent }
func (t *Traversal[T]) Tracker() Tracker[T]    { return t.tracker }
func (t *Traversal[T]) Logger() logging.Logger { return t.logger }
func (t *Traversal[T]) StepsProcessed() int    { return t.steps }
func (t *Traversal[T]) IsBranching() bool      { return t.queueType.IsBranching() }
func (t *Traversal[T]) StartItems() []T        { return t.startItems }

// StopConditions returns the registered stop conditions.
func (t *Traversal[T]) StopConditions() []StopCondition[T] {
	return t.stopConditions
}

// HasVisited asks the tracker whether the item was already visited.
func (t *Traversal[T]) HasVisited(item T) bool {
	return t.tracker.HasVisited(item)
}

// AddCondition registers a stop or queue condition, or both when the value
// implements both interfaces.
func (t *Traversal[T]) AddCondition(condition any) *Traversal[T] {
	if qc, ok := condition.(QueueCondition[T]); ok {
		t.AddQueueCondition(qc)
	}
	if sc, ok := condition.(StopCondition[T]); ok {
		t.AddStopCondition(sc)
	}
	return t
}

// AddStopCondition registers a stop condition. Items matching any stop
// condition are not expanded.
func (t *Traversal[T]) AddStopCondition(condition StopCondition[T]) *Traversal[T] {
	t.stopConditions = append(t.stopConditions, condition)
	t.registerComputer(condition)
	return t
}

// AddQueueCondition registers a queue condition. Every queue condition must
// accept an item for it to be queued.
func (t *Traversal[T]) AddQueueCondition(condition QueueCondition[T]) *Traversal[T] {
	t.queueConditions = append(t.queueConditions, condition)
	t.registerComputer(condition)
	return t
}

// AddStepAction registers an action applied to each actionable item,
// including start items.
func (t *Traversal[T]) AddStepAction(action StepAction[T]) *Traversal[T] {
	t.stepActions = append(t.stepActions, action)
	t.registerComputer(action)
	return t
}

// IfStopping registers an action applied only to items matching a stop
// condition.
func (t *Traversal[T]) IfStopping(action StepAction[T]) *Traversal[T] {
	t.registerComputer(action)
	t.stepActions = append(t.stepActions, IfStopping(action))
	return t
}

// IfNotStopping registers an action applied only to items that do not match
// a stop condition.
func (t *Traversal[T]) IfNotStopping(action StepAction[T]) *Traversal[T] {
	t.registerComputer(action)
	t.stepActions = append(t.stepActions, IfNotStopping(action))
	return t
}

// AddContextValueComputer registers a standalone context value computer.
func (t *Traversal[T]) AddContextValueComputer(computer ContextValueComputer[T]) *Traversal[T] {
	t.putComputer(computer)
	return t
}

func (t *Traversal[T]) CopyStopConditions(other *Traversal[T]) *Traversal[T] {
	for _, c := range other.stopConditions {
		t.AddStopCondition(c)
	}
	return t
}

func (t *Traversal[T]) CopyQueueConditions(other *Traversal[T]) *Traversal[T] {
	for _, c := range other.queueConditions {
		t.AddQueueCondition(c)
	}
	return t
}

func (t *Traversal[T]) CopyStepActions(other *Traversal[T]) *Traversal[T] {
	t.stepActions = append(t.stepActions, other.stepActions...)
	for _, c := range other.computers {
		t.putComputer(c)
	}
	return t
}

func (t *Traversal[T]) CopyContextValueComputers(other *Traversal[T]) *Traversal[T] {
	for _, c := range other.computers {
		t.putComputer(c)
	}
	return t
}

func (t *Traversal[T]) registerComputer(v any) {
	if c, ok := v.(ContextValueComputer[T]); ok {
		t.putComputer(c)
	}
}

func (t *Traversal[T]) putComputer(c ContextValueComputer[T]) {
	for i, existing := range t.computers {
		if existing.Key() == c.Key() {
			t.computers[i] = c
			return
		}
	}
	t.computers = append(t.computers, c)
}

// AddStartItem adds an item to seed the next run with.
func (t *Traversal[T]) AddStartItem(item T) *Traversal[T] {
	t.startItems = append(t.startItems, item)
	return t
}

// Run runs the traversal from the given items plus any added start items.
// When canStopOnStartItem is false, start items are never checked against
// stop conditions. Running a completed traversal resets it first.
func (t *Traversal[T]) Run(canStopOnStartItem bool, startItems ...T) error {
	return t.RunContext(context.Background(), canStopOnStartItem, startItems...)
}

// RunContext is Run with a context checked between items.
func (t *Traversal[T]) RunContext(ctx context.Context, canStopOnStartItem bool, startItems ...T) error {
	if t.state == StateRunning {
		return ErrAlreadyRunning
	}
	if t.state == StateComplete {
		pending := t.startItems
		if err := t.Reset(); err != nil {
			return err
		}
		t.startItems = pending
	}
	if t.queueType.queueNext == nil && t.queueType.branchingQueueNext == nil {
		return ErrNoQueueNext
	}
	t.startItems = append(t.startItems, startItems...)
	t.state = StateRunning
	defer func() { t.state = StateComplete }()

	var timer *logging.TimedOperation
	start := time.Now()
	if t.parent == nil {
		timer = logging.StartTimer(t.logger, "traversal complete", logging.Trace(t.name))
	}

	var err error
	if t.parent == nil && t.IsBranching() && len(t.startItems) > 1 {
		t.branchStartItems()
	} else {
		err = t.traverse(ctx, canStopOnStartItem)
	}
	if err == nil {
		err = t.traverseBranches(ctx, canStopOnStartItem)
	}

	if t.parent == nil {
		if err != nil {
			timer.EndError(err)
		} else {
			timer.EndWithLevel(logging.DebugLevel, "traversal complete")
		}
		if t.metrics != nil {
			status := "success"
			if err != nil {
				status = "error"
			}
			t.metrics.RecordTrace(t.name, status, time.Since(start), t.steps)
		}
	}
	return err
}

// Reset clears queues, contexts, start items and the tracker so the
// traversal can run again. Start items added after a run completes are kept
// when the next Run resets implicitly.
func (t *Traversal[T]) Reset() error {
	if t.state == StateRunning {
		return ErrAlreadyRunning
	}
	t.state = StateNotStarted
	t.startItems = nil
	t.queue.Clear()
	if t.branchQueue != nil {
		t.branchQueue.Clear()
	}
	clear(t.contexts)
	t.tracker.Clear()
	t.steps = 0
	for _, fn := range t.onReset {
		fn()
	}
	return nil
}

func (t *Traversal[T]) branchStartItems() {
	items := t.startItems
	t.startItems = nil
	for _, item := range items {
		if t.canQueueStartItem(item) {
			t.branchQueue.Put(t.createNewBranch(item, t.computeInitialContext(item)))
		}
	}
}

func (t *Traversal[T]) traverse(ctx context.Context, canStopOnStartItem bool) error {
	for len(t.startItems) > 0 {
		start := t.startItems[0]
		t.startItems = t.startItems[1:]

		if t.parent == nil {
			if !t.canQueueStartItem(start) {
				continue
			}
			t.storeContext(start, t.computeInitialContext(start))
		}
		t.queue.Put(start)

		for !t.queue.Empty() {
			if err := ctx.Err(); err != nil {
				return err
			}
			current, err := t.queue.Get()
			if err != nil {
				return err
			}
			stepCtx := t.takeContext(current)

			if !t.canVisitItem(current, stepCtx) {
				continue
			}
			t.steps++

			stepCtx.IsActionableItem = t.canActionItem(current, stepCtx)
			if stepCtx.IsActionableItem {
				canStop := canStopOnStartItem || !stepCtx.IsStartItem
				stepCtx.IsStopping = canStop && t.matchesAnyStopCondition(current, stepCtx)
				if err := t.applyStepActions(current, stepCtx); err != nil {
					return wrapError("step_action", t.name, stepCtx, err)
				}
			}
			if !stepCtx.IsStopping {
				if err := t.queueNext(current, stepCtx); err != nil {
					return wrapError("queue_next", t.name, stepCtx, err)
				}
			}
		}
	}
	return nil
}

func (t *Traversal[T]) traverseBranches(ctx context.Context, canStopOnStartItem bool) error {
	if t.branchQueue == nil {
		return nil
	}
	for !t.branchQueue.Empty() {
		branch, err := t.branchQueue.Get()
		if err != nil {
			return err
		}
		err = branch.RunContext(ctx, canStopOnStartItem)
		t.steps += branch.steps
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *Traversal[T]) queueNext(current T, ctx *StepContext) error {
	if t.queueType.IsBranching() {
		return t.queueType.branchingQueueNext(current, ctx, t.itemQueuer(current, ctx), t.branchQueuer(current, ctx))
	}
	return t.queueType.queueNext(current, ctx, t.itemQueuer(current, ctx))
}

func (t *Traversal[T]) itemQueuer(current T, currentCtx *StepContext) func(T) bool {
	return func(next T) bool {
		nextCtx := t.computeNextContext(current, currentCtx, next, false)
		if !t.canQueueItem(next, nextCtx, current, currentCtx) || !t.queue.Put(next) {
			return false
		}
		t.storeContext(next, nextCtx)
		return true
	}
}

func (t *Traversal[T]) branchQueuer(current T, currentCtx *StepContext) func(T) bool {
	return func(next T) bool {
		nextCtx := t.computeNextContext(current, currentCtx, next, true)
		if !t.canQueueItem(next, nextCtx, current, currentCtx) {
			return false
		}
		return t.branchQueue.Put(t.createNewBranch(next, nextCtx))
	}
}

func (t *Traversal[T]) createNewBranch(start T, ctx *StepContext) *Traversal[T] {
	child := &Traversal[T]{
		queueType:       t.queueType,
		parent:          t,
		queue:           t.queueType.queueFactory(),
		branchQueue:     t.queueType.branchQueueFactory(),
		stopConditions:  append([]StopCondition[T](nil), t.stopConditions...),
		queueConditions: append([]QueueCondition[T](nil), t.queueConditions...),
		stepActions:     append([]StepAction[T](nil), t.stepActions...),
		computers:       append([]ContextValueComputer[T](nil), t.computers...),
		contexts:        make(map[T]*contextEntry),
		tracker:         t.tracker.Copy(),
		canVisit:        t.canVisit,
		canAction:       t.canAction,
		name:            t.name,
		logger:          t.logger,
	}
	child.storeContext(start, ctx)
	child.startItems = []T{start}
	return child
}

// storeContext remembers the context of a queued item. An item queued more
// than once keeps the most recent context until every copy is dequeued.
func (t *Traversal[T]) storeContext(item T, ctx *StepContext) {
	if entry, ok := t.contexts[item]; ok {
		entry.ctx = ctx
		entry.refs++
		return
	}
	t.contexts[item] = &contextEntry{ctx: ctx, refs: 1}
}

func (t *Traversal[T]) takeContext(item T) *StepContext {
	entry, ok := t.contexts[item]
	if !ok {
		// Items put straight onto the queue by a wrapper have no context.
		return newStepContext(false, false, 0, 0, nil)
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(t.contexts, item)
	}
	return entry.ctx
}

func (t *Traversal[T]) computeInitialContext(item T) *StepContext {
	values := make(map[string]any, len(t.computers))
	for _, c := range t.computers {
		values[c.Key()] = c.ComputeInitialValue(item)
	}
	return newStepContext(true, false, 0, 0, values)
}

func (t *Traversal[T]) computeNextContext(current T, ctx *StepContext, next T, isBranchStart bool) *StepContext {
	values := make(map[string]any, len(t.computers))
	for _, c := range t.computers {
		values[c.Key()] = c.ComputeNextValue(next, current, ctx.Value(c.Key()))
	}
	depth := ctx.BranchDepth
	if isBranchStart {
		depth++
	}
	return newStepContext(false, isBranchStart, ctx.StepNumber+1, depth, values)
}

func (t *Traversal[T]) canVisitItem(item T, ctx *StepContext) bool {
	if !t.tracker.Visit(item) {
		return false
	}
	return t.canVisit == nil || t.canVisit(t, item, ctx)
}

func (t *Traversal[T]) canActionItem(item T, ctx *StepContext) bool {
	return t.canAction == nil || t.canAction(t, item, ctx)
}

func (t *Traversal[T]) matchesAnyStopCondition(item T, ctx *StepContext) bool {
	// Every condition is evaluated so context-aware conditions see each item.
	stop := false
	for _, c := range t.stopConditions {
		if c.ShouldStop(item, ctx) {
			stop = true
		}
	}
	return stop
}

func (t *Traversal[T]) applyStepActions(item T, ctx *StepContext) error {
	for _, a := range t.stepActions {
		if err := a.Apply(item, ctx); err != nil {
			return err
		}
	}
	return nil
}

func (t *Traversal[T]) canQueueItem(next T, nextCtx *StepContext, current T, currentCtx *StepContext) bool {
	for _, c := range t.queueConditions {
		if !c.ShouldQueue(next, nextCtx, current, currentCtx) {
			return false
		}
	}
	return true
}

func (t *Traversal[T]) canQueueStartItem(item T) bool {
	for _, c := range t.queueConditions {
		if !c.ShouldQueueStartItem(item) {
			return false
		}
	}
	return true
}
