package networktrace

import (
	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/connectivity"
	"github.com/dd0wney/cluso-gridtrace/pkg/traversal"
)

// Conditions, actions and computers over the data independent part of a
// step. A NetworkTrace adapts them to its own step type.
type (
	QueueCondition       = traversal.QueueCondition[*StepInfo]
	StopCondition        = traversal.StopCondition[*StepInfo]
	StepAction           = traversal.StepAction[*StepInfo]
	ContextValueComputer = traversal.ContextValueComputer[*StepInfo]
)

// NetworkTraceQueueCondition only checks steps of StepType. Other steps are
// always queued.
type NetworkTraceQueueCondition struct {
	StepType  StepType
	Condition QueueCondition
}

func (c NetworkTraceQueueCondition) ShouldQueue(next *StepInfo, nextCtx *traversal.StepContext, current *StepInfo, currentCtx *traversal.StepContext) bool {
	if !c.StepType.Matches(next.Type()) {
		return true
	}
	return c.Condition.ShouldQueue(next, nextCtx, current, currentCtx)
}

func (c NetworkTraceQueueCondition) ShouldQueueStartItem(item *StepInfo) bool {
	return c.Condition.ShouldQueueStartItem(item)
}

// NetworkTraceStopCondition only checks steps of StepType. Other steps never
// stop.
type NetworkTraceStopCondition struct {
	StepType  StepType
	Condition StopCondition
}

func (c NetworkTraceStopCondition) ShouldStop(item *StepInfo, ctx *traversal.StepContext) bool {
	if !c.StepType.Matches(item.Type()) {
		return false
	}
	return c.Condition.ShouldStop(item, ctx)
}

// computerOf finds a context value computer behind a condition, looking
// through the step type wrappers.
func computerOf(v any) (ContextValueComputer, bool) {
	switch c := v.(type) {
	case NetworkTraceQueueCondition:
		v = c.Condition
	case NetworkTraceStopCondition:
		v = c.Condition
	}
	computer, ok := v.(ContextValueComputer)
	return computer, ok
}

// StopAtOpen stops internal steps through equipment that is open on any of
// the traced phases. Traces without phases stop at equipment open on any
// phase.
func StopAtOpen(state connectivity.State) NetworkTraceQueueCondition {
	return NetworkTraceQueueCondition{
		StepType: StepInternal,
		Condition: traversal.QueueConditionFunc[*StepInfo](func(next *StepInfo, _ *traversal.StepContext, _ *StepInfo, _ *traversal.StepContext) bool {
			eq := next.Path.ToTerminal.Equipment()
			if len(next.Path.NominalPhasePaths) == 0 {
				return !state.IsOpen(eq, cim.PhaseNone)
			}
			for _, phase := range next.Path.ToPhases() {
				if state.IsOpen(eq, phase) {
					return false
				}
			}
			return true
		}),
	}
}

// WithDirection only queues terminals whose direction matches d. Internal
// steps and start items need d on the to terminal; external steps arrive
// from the other side of the connection and need its complement.
func WithDirection(state NetworkStateOperators, d cim.FeederDirection) NetworkTraceQueueCondition {
	return NetworkTraceQueueCondition{
		StepType:  StepAll,
		Condition: directionCondition{state: state, direction: d},
	}
}

type directionCondition struct {
	state     NetworkStateOperators
	direction cim.FeederDirection
}

func (c directionCondition) ShouldQueue(next *StepInfo, _ *traversal.StepContext, _ *StepInfo, _ *traversal.StepContext) bool {
	return c.shouldQueuePath(next.Path)
}

func (c directionCondition) ShouldQueueStartItem(item *StepInfo) bool {
	return c.state.Direction(item.Path.ToTerminal).Contains(c.direction)
}

func (c directionCondition) shouldQueuePath(p Path) bool {
	want := c.direction
	if p.TracedExternally() {
		want = want.Complementary()
	}
	if c.state.Direction(p.ToTerminal).Contains(want) {
		return true
	}

	// A cut reached along its segment is queued when the trace can carry on
	// past it.
	if _, cut := p.ToTerminal.Equipment().(*cim.Cut); !cut || !p.DidTraverseAcLineSegment() {
		return false
	}
	next, err := c.state.NextPaths(p)
	if err != nil {
		return false
	}
	for _, np := range next {
		if c.shouldQueuePath(np) {
			return true
		}
	}
	return false
}

// Upstream traces towards the feeder head.
func Upstream(state NetworkStateOperators) NetworkTraceQueueCondition {
	return WithDirection(state, cim.DirectionUpstream)
}

// Downstream traces away from the feeder head.
func Downstream(state NetworkStateOperators) NetworkTraceQueueCondition {
	return WithDirection(state, cim.DirectionDownstream)
}

// LimitEquipmentSteps stops a path once it has stepped onto limit pieces of
// equipment.
func LimitEquipmentSteps(limit int) NetworkTraceStopCondition {
	return NetworkTraceStopCondition{
		StepType: StepAll,
		Condition: traversal.StopConditionFunc[*StepInfo](func(item *StepInfo, _ *traversal.StepContext) bool {
			return item.NumEquipmentSteps >= limit
		}),
	}
}

// LimitEquipmentTypeSteps stops a path once it has stepped onto limit pieces
// of equipment of the given kind.
func LimitEquipmentTypeSteps(limit int, kind cim.EquipmentKind) NetworkTraceStopCondition {
	return NetworkTraceStopCondition{
		StepType:  StepAll,
		Condition: &equipmentTypeStepLimit{limit: limit, kind: kind},
	}
}

type equipmentTypeStepLimit struct {
	limit int
	kind  cim.EquipmentKind
}

func (c *equipmentTypeStepLimit) Key() string { return "equipment-type-steps:" + string(c.kind) }

func (c *equipmentTypeStepLimit) ComputeInitialValue(*StepInfo) any { return 0 }

func (c *equipmentTypeStepLimit) ComputeNextValue(next, _ *StepInfo, currentValue any) any {
	count, _ := currentValue.(int)
	if next.Path.TracedInternally() {
		return count
	}
	if eq := next.Path.ToTerminal.Equipment(); eq != nil && eq.Kind() == c.kind {
		return count + 1
	}
	return count
}

func (c *equipmentTypeStepLimit) ShouldStop(_ *StepInfo, ctx *traversal.StepContext) bool {
	count, _ := traversal.ContextValue[int](ctx, c.Key())
	return count >= c.limit
}
