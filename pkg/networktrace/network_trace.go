package networktrace

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/logging"
	"github.com/dd0wney/cluso-gridtrace/pkg/metrics"
	"github.com/dd0wney/cluso-gridtrace/pkg/traversal"
)

// ActionType decides which steps a trace actions.
type ActionType int

const (
	// AllSteps actions every step.
	AllSteps ActionType = iota
	// FirstStepOnEquipment actions only the first step onto each piece of
	// equipment, however many of its terminals are reached.
	FirstStepOnEquipment
)

func (a ActionType) String() string {
	if a == FirstStepOnEquipment {
		return "FIRST_STEP_ON_EQUIPMENT"
	}
	return "ALL_STEPS"
}

// defaultStepType is the step type conditions without their own are checked
// on.
func (a ActionType) defaultStepType() StepType {
	if a == FirstStepOnEquipment {
		return StepExternal
	}
	return StepAll
}

// ComputeData computes the data carried by the step taking nextPath.
type ComputeData[T any] func(current *Step[T], ctx *traversal.StepContext, nextPath Path) T

// ComputeDataWithPaths is ComputeData that also sees every path leaving the
// current step.
type ComputeDataWithPaths[T any] func(current *Step[T], ctx *traversal.StepContext, nextPath Path, nextPaths []Path) T

// Option configures a NetworkTrace.
type Option func(*options)

type options struct {
	name    string
	logger  logging.Logger
	metrics *metrics.Registry
}

// WithName names the trace in logs and metrics.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

func WithLogger(logger logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithMetrics(registry *metrics.Registry) Option {
	return func(o *options) { o.metrics = registry }
}

// NetworkTrace traces terminals of a network. Each step moves from one
// terminal to another, either across a connectivity node (external) or
// through a piece of equipment (internal), following the paths given by the
// state operators.
//
// Terminals are tracked per phase: reaching a terminal again is only a new
// visit when it arrives on phases not seen there before.
type NetworkTrace[T any] struct {
	ops        NetworkStateOperators
	actionType ActionType
	compute    ComputeDataWithPaths[T]
	inner      *traversal.Traversal[*Step[T]]
	logger     logging.Logger
}

// NewNetworkTrace creates a non-branching trace. A nil compute gives every
// step the zero value of T.
func NewNetworkTrace[T any](ops NetworkStateOperators, actionType ActionType, queue traversal.Queue[*Step[T]], compute ComputeData[T], opts ...Option) *NetworkTrace[T] {
	return NewNetworkTraceWithPaths(ops, actionType, queue, withoutPaths(compute), opts...)
}

func NewNetworkTraceWithPaths[T any](ops NetworkStateOperators, actionType ActionType, queue traversal.Queue[*Step[T]], compute ComputeDataWithPaths[T], opts ...Option) *NetworkTrace[T] {
	nt := newNetworkTrace(ops, actionType, compute)
	nt.inner = traversal.New[*Step[T]](traversal.Basic[*Step[T]](nt.queueNext, queue), nt.traversalOptions(opts)...)
	return nt
}

// NewBranchingNetworkTrace creates a trace that starts a new branch whenever
// a step has more than one way forward, so loops are traced both ways round.
// Each branch works from a copy of the tracker taken when it forks.
func NewBranchingNetworkTrace[T any](
	ops NetworkStateOperators,
	actionType ActionType,
	queueFactory traversal.QueueFactory[*Step[T]],
	branchQueueFactory traversal.QueueFactory[*traversal.Traversal[*Step[T]]],
	compute ComputeData[T],
	opts ...Option,
) *NetworkTrace[T] {
	return NewBranchingNetworkTraceWithPaths(ops, actionType, queueFactory, branchQueueFactory, withoutPaths(compute), opts...)
}

func NewBranchingNetworkTraceWithPaths[T any](
	ops NetworkStateOperators,
	actionType ActionType,
	queueFactory traversal.QueueFactory[*Step[T]],
	branchQueueFactory traversal.QueueFactory[*traversal.Traversal[*Step[T]]],
	compute ComputeDataWithPaths[T],
	opts ...Option,
) *NetworkTrace[T] {
	nt := newNetworkTrace(ops, actionType, compute)
	queueType := traversal.Branching[*Step[T]](nt.branchingQueueNext, queueFactory, branchQueueFactory)
	nt.inner = traversal.New[*Step[T]](queueType, nt.traversalOptions(opts)...)
	return nt
}

func withoutPaths[T any](compute ComputeData[T]) ComputeDataWithPaths[T] {
	if compute == nil {
		return nil
	}
	return func(current *Step[T], ctx *traversal.StepContext, nextPath Path, _ []Path) T {
		return compute(current, ctx, nextPath)
	}
}

func newNetworkTrace[T any](ops NetworkStateOperators, actionType ActionType, compute ComputeDataWithPaths[T]) *NetworkTrace[T] {
	return &NetworkTrace[T]{ops: ops, actionType: actionType, compute: compute}
}

func (nt *NetworkTrace[T]) traversalOptions(opts []Option) []traversal.Option[*Step[T]] {
	o := options{name: "network-trace", logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	nt.logger = o.logger.With(logging.Trace(o.name), logging.String("state", nt.ops.Description()))

	tracker := traversal.NewPhaseSetTracker[*Step[T], *cim.Terminal, cim.SinglePhaseKind](
		func(s *Step[T]) *cim.Terminal { return s.Path.ToTerminal },
		func(s *Step[T]) []cim.SinglePhaseKind { return s.Path.ToPhases() },
	)
	traversalOpts := []traversal.Option[*Step[T]]{
		traversal.WithTracker[*Step[T]](tracker),
		traversal.WithName[*Step[T]](o.name),
		traversal.WithLogger[*Step[T]](nt.logger),
	}
	if o.metrics != nil {
		traversalOpts = append(traversalOpts, traversal.WithMetrics[*Step[T]](o.metrics))
	}
	if nt.actionType == FirstStepOnEquipment {
		traversalOpts = append(traversalOpts, traversal.WithCanActionItem[*Step[T]](firstStepOnEquipment[T]))
	}
	return traversalOpts
}

// firstStepOnEquipment actions a step unless another terminal of the same
// equipment was already visited on the same phases.
func firstStepOnEquipment[T any](t *traversal.Traversal[*Step[T]], item *Step[T], _ *traversal.StepContext) bool {
	for _, other := range item.Path.ToTerminal.OtherTerminals() {
		candidate := &Step[T]{StepInfo: StepInfo{Path: Path{ToTerminal: other, NominalPhasePaths: item.Path.NominalPhasePaths}}}
		if t.Tracker().HasVisited(candidate) {
			return false
		}
	}
	return true
}

func (nt *NetworkTrace[T]) Operators() NetworkStateOperators { return nt.ops }
func (nt *NetworkTrace[T]) ActionType() ActionType           { return nt.actionType }

// Traversal exposes the underlying traversal for configuration that works on
// the full step, data included.
func (nt *NetworkTrace[T]) Traversal() *traversal.Traversal[*Step[T]] { return nt.inner }

func (nt *NetworkTrace[T]) nextSteps(current *Step[T], ctx *traversal.StepContext) ([]*Step[T], error) {
	paths, err := nt.ops.NextPaths(current.Path)
	if err != nil {
		return nil, err
	}

	steps := make([]*Step[T], 0, len(paths))
	numTerminalSteps := current.NextNumTerminalSteps()
	for _, p := range paths {
		steps = append(steps, NewStep(p, numTerminalSteps, p.NextNumEquipmentSteps(current.NumEquipmentSteps), nt.computeData(current, ctx, p, paths)))
	}
	return steps, nil
}

func (nt *NetworkTrace[T]) computeData(current *Step[T], ctx *traversal.StepContext, next Path, nextPaths []Path) T {
	if nt.actionType == FirstStepOnEquipment && next.TracedInternally() {
		return current.Data
	}
	if nt.compute == nil {
		var zero T
		return zero
	}
	return nt.compute(current, ctx, next, nextPaths)
}

func (nt *NetworkTrace[T]) queueNext(current *Step[T], ctx *traversal.StepContext, queueItem func(*Step[T]) bool) error {
	steps, err := nt.nextSteps(current, ctx)
	if err != nil {
		return err
	}
	for _, s := range steps {
		queueItem(s)
	}
	return nil
}

func (nt *NetworkTrace[T]) branchingQueueNext(current *Step[T], ctx *traversal.StepContext, queueItem, queueBranch func(*Step[T]) bool) error {
	steps, err := nt.nextSteps(current, ctx)
	if err != nil {
		return err
	}
	if len(steps) == 1 {
		queueItem(steps[0])
		return nil
	}
	for _, s := range steps {
		queueBranch(s)
	}
	return nil
}

// AddStartTerminal starts the trace from t. Only the given phases are traced;
// PhaseCodeNone traces without phases. A clamp terminal starts as if it had
// been reached along its segment.
func (nt *NetworkTrace[T]) AddStartTerminal(t *cim.Terminal, data T, phases cim.PhaseCode) *NetworkTrace[T] {
	var traversed *cim.AcLineSegment
	if clamp, ok := t.Equipment().(*cim.Clamp); ok {
		traversed = clamp.AcLineSegment()
	}
	return nt.addStart(t, data, phases, traversed)
}

// AddStartEquipment starts the trace from every terminal of eq. An
// AcLineSegment also starts from its clamps and both sides of its cuts.
func (nt *NetworkTrace[T]) AddStartEquipment(eq cim.ConductingEquipment, data T, phases cim.PhaseCode) *NetworkTrace[T] {
	segment, ok := eq.(*cim.AcLineSegment)
	if !ok {
		for _, t := range eq.Terminals() {
			nt.addStart(t, data, phases, nil)
		}
		return nt
	}

	for _, t := range segment.Terminals() {
		nt.addStart(t, data, phases, segment)
	}
	for _, clamp := range segment.Clamps() {
		nt.addStart(clamp.Terminal(1), data, phases, segment)
	}
	for _, cut := range segment.Cuts() {
		for _, t := range cut.Terminals() {
			nt.addStart(t, data, phases, segment)
		}
	}
	return nt
}

func (nt *NetworkTrace[T]) addStart(t *cim.Terminal, data T, phases cim.PhaseCode, traversed *cim.AcLineSegment) *NetworkTrace[T] {
	if t == nil {
		return nt
	}
	var phasePaths []cim.NominalPhasePath
	for _, p := range phases.SinglePhases() {
		phasePaths = append(phasePaths, cim.NominalPhasePath{From: p, To: p})
	}
	nt.inner.AddStartItem(NewStep(NewPath(t, t, traversed, phasePaths), 0, 0, data))
	return nt
}

// Run runs the trace from the start items added since the last run. Start
// items that do not belong to equipment fail the run with ErrInvalidState.
func (nt *NetworkTrace[T]) Run(ctx context.Context, canStopOnStartItem bool) error {
	for _, s := range nt.inner.StartItems() {
		if err := s.Path.Validate(); err != nil {
			return fmt.Errorf("start item: %w", err)
		}
	}
	return nt.inner.RunContext(ctx, canStopOnStartItem)
}

// Reset clears the tracker, queues and start items so the trace can be run
// again.
func (nt *NetworkTrace[T]) Reset() error { return nt.inner.Reset() }

// HasVisited reports whether t has been visited on every one of phases.
func (nt *NetworkTrace[T]) HasVisited(t *cim.Terminal, phases ...cim.SinglePhaseKind) bool {
	paths := make([]cim.NominalPhasePath, len(phases))
	for i, p := range phases {
		paths[i] = cim.NominalPhasePath{From: p, To: p}
	}
	return nt.inner.HasVisited(&Step[T]{StepInfo: StepInfo{Path: Path{ToTerminal: t, NominalPhasePaths: paths}}})
}

// AddCondition registers a condition, dispatching on what it implements. It
// accepts the StepInfo conditions of this package as well as traversal
// conditions over the full step. Conditions that are not already tied to a
// step type are checked on the default step type of the action type.
func (nt *NetworkTrace[T]) AddCondition(condition any) *NetworkTrace[T] {
	matched := false
	if qc, ok := condition.(QueueCondition); ok {
		nt.AddQueueCondition(qc)
		matched = true
	}
	if sc, ok := condition.(StopCondition); ok {
		nt.AddStopCondition(sc)
		matched = true
	}
	if matched {
		return nt
	}
	if qc, ok := condition.(traversal.QueueCondition[*Step[T]]); ok {
		nt.inner.AddQueueCondition(stepTypedQueue[T]{stepType: nt.actionType.defaultStepType(), condition: qc})
	}
	if sc, ok := condition.(traversal.StopCondition[*Step[T]]); ok {
		nt.inner.AddStopCondition(stepTypedStop[T]{stepType: nt.actionType.defaultStepType(), condition: sc})
	}
	return nt
}

// AddQueueCondition registers a queue condition. Conditions that are not a
// NetworkTraceQueueCondition are checked on the default step type.
func (nt *NetworkTrace[T]) AddQueueCondition(condition QueueCondition) *NetworkTrace[T] {
	if _, typed := condition.(NetworkTraceQueueCondition); !typed {
		condition = NetworkTraceQueueCondition{StepType: nt.actionType.defaultStepType(), Condition: condition}
	}
	nt.inner.AddQueueCondition(queueAdapter[T]{condition})
	nt.registerComputer(condition)
	return nt
}

// AddStopCondition registers a stop condition. Conditions that are not a
// NetworkTraceStopCondition are checked on the default step type.
func (nt *NetworkTrace[T]) AddStopCondition(condition StopCondition) *NetworkTrace[T] {
	if _, typed := condition.(NetworkTraceStopCondition); !typed {
		condition = NetworkTraceStopCondition{StepType: nt.actionType.defaultStepType(), Condition: condition}
	}
	nt.inner.AddStopCondition(stopAdapter[T]{condition})
	nt.registerComputer(condition)
	return nt
}

func (nt *NetworkTrace[T]) AddStepAction(action StepAction) *NetworkTrace[T] {
	nt.inner.AddStepAction(actionAdapter[T]{action})
	nt.registerComputer(action)
	return nt
}

// AddStepActionFunc registers an action that sees the step data.
func (nt *NetworkTrace[T]) AddStepActionFunc(fn func(item *Step[T], ctx *traversal.StepContext) error) *NetworkTrace[T] {
	nt.inner.AddStepAction(traversal.StepActionFunc[*Step[T]](fn))
	return nt
}

func (nt *NetworkTrace[T]) IfStopping(action StepAction) *NetworkTrace[T] {
	nt.inner.IfStopping(actionAdapter[T]{action})
	nt.registerComputer(action)
	return nt
}

func (nt *NetworkTrace[T]) IfNotStopping(action StepAction) *NetworkTrace[T] {
	nt.inner.IfNotStopping(actionAdapter[T]{action})
	nt.registerComputer(action)
	return nt
}

func (nt *NetworkTrace[T]) AddContextValueComputer(computer ContextValueComputer) *NetworkTrace[T] {
	nt.inner.AddContextValueComputer(computerAdapter[T]{computer})
	return nt
}

func (nt *NetworkTrace[T]) registerComputer(v any) {
	if c, ok := computerOf(v); ok {
		nt.AddContextValueComputer(c)
	}
}

type queueAdapter[T any] struct{ condition QueueCondition }

func (a queueAdapter[T]) ShouldQueue(next *Step[T], nextCtx *traversal.StepContext, current *Step[T], currentCtx *traversal.StepContext) bool {
	return a.condition.ShouldQueue(&next.StepInfo, nextCtx, &current.StepInfo, currentCtx)
}

func (a queueAdapter[T]) ShouldQueueStartItem(item *Step[T]) bool {
	return a.condition.ShouldQueueStartItem(&item.StepInfo)
}

type stopAdapter[T any] struct{ condition StopCondition }

func (a stopAdapter[T]) ShouldStop(item *Step[T], ctx *traversal.StepContext) bool {
	return a.condition.ShouldStop(&item.StepInfo, ctx)
}

type actionAdapter[T any] struct{ action StepAction }

func (a actionAdapter[T]) Apply(item *Step[T], ctx *traversal.StepContext) error {
	return a.action.Apply(&item.StepInfo, ctx)
}

type computerAdapter[T any] struct{ computer ContextValueComputer }

func (a computerAdapter[T]) Key() string { return a.computer.Key() }

func (a computerAdapter[T]) ComputeInitialValue(item *Step[T]) any {
	return a.computer.ComputeInitialValue(&item.StepInfo)
}

func (a computerAdapter[T]) ComputeNextValue(next, current *Step[T], currentValue any) any {
	return a.computer.ComputeNextValue(&next.StepInfo, &current.StepInfo, currentValue)
}

type stepTypedQueue[T any] struct {
	stepType  StepType
	condition traversal.QueueCondition[*Step[T]]
}

func (c stepTypedQueue[T]) ShouldQueue(next *Step[T], nextCtx *traversal.StepContext, current *Step[T], currentCtx *traversal.StepContext) bool {
	if !c.stepType.Matches(next.Type()) {
		return true
	}
	return c.condition.ShouldQueue(next, nextCtx, current, currentCtx)
}

func (c stepTypedQueue[T]) ShouldQueueStartItem(item *Step[T]) bool {
	return c.condition.ShouldQueueStartItem(item)
}

type stepTypedStop[T any] struct {
	stepType  StepType
	condition traversal.StopCondition[*Step[T]]
}

func (c stepTypedStop[T]) ShouldStop(item *Step[T], ctx *traversal.StepContext) bool {
	if !c.stepType.Matches(item.Type()) {
		return false
	}
	return c.condition.ShouldStop(item, ctx)
}
