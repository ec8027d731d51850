package connectivity

import (
	"context"
	"math"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/logging"
	"github.com/dd0wney/cluso-gridtrace/pkg/metrics"
	"github.com/dd0wney/cluso-gridtrace/pkg/traversal"
)

const (
	MinLimitedSteps = 1
	MaxLimitedSteps = 100
)

// EquipmentStep is a piece of equipment reached after Step hops.
type EquipmentStep struct {
	Equipment cim.ConductingEquipment
	Step      int
}

// EquipmentSteps maps equipment mRIDs to the fewest hops they were reached in.
type EquipmentSteps map[string]int

func (s EquipmentSteps) record(eq cim.ConductingEquipment, step int) {
	if best, ok := s[eq.MRID()]; !ok || step < best {
		s[eq.MRID()] = step
	}
}

// LimitedConnectedEquipmentTrace finds the equipment within a number of hops
// of some starting equipment, ignoring phases. Open switches are not passed
// through, although a starting switch is always expanded.
type LimitedConnectedEquipmentTrace struct {
	state   State
	logger  logging.Logger
	metrics *metrics.Registry
}

// LimitedOption configures a LimitedConnectedEquipmentTrace.
type LimitedOption func(*LimitedConnectedEquipmentTrace)

func WithLogger(logger logging.Logger) LimitedOption {
	return func(l *LimitedConnectedEquipmentTrace) { l.logger = logger }
}

func WithMetrics(registry *metrics.Registry) LimitedOption {
	return func(l *LimitedConnectedEquipmentTrace) { l.metrics = registry }
}

func NewLimitedConnectedEquipmentTrace(state State, opts ...LimitedOption) *LimitedConnectedEquipmentTrace {
	l := &LimitedConnectedEquipmentTrace{state: state, logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run traces out from start. maxSteps is clamped to [1, 100]. When direction
// is not nil, the trace only leaves the starting equipment through terminals
// with exactly that direction and only passes through equipment that has
// such a terminal; for NONE and BOTH the result is further limited to
// equipment holding a terminal with that direction. Starting equipment is
// always reported at step 0.
func (l *LimitedConnectedEquipmentTrace) Run(ctx context.Context, start []cim.ConductingEquipment, maxSteps int, direction *cim.FeederDirection) (EquipmentSteps, error) {
	maxSteps = min(max(maxSteps, MinLimitedSteps), MaxLimitedSteps)
	l.logger.Debug("limited connected equipment trace",
		logging.Count(len(start)),
		logging.Int("max_steps", maxSteps),
	)

	var (
		result EquipmentSteps
		err    error
	)
	if direction == nil {
		result, err = l.runWithoutDirection(ctx, start, maxSteps)
	} else {
		result, err = l.runWithDirection(ctx, start, maxSteps, *direction)
	}
	if err != nil {
		return nil, err
	}

	l.logger.Info("connected equipment found", logging.Count(len(result)))
	return result, nil
}

// RunAll traces out from start with no step limit and reports every
// reachable piece of equipment at the fewest hops it was reached in. Open
// switches are passed through only when they start the trace.
func (l *LimitedConnectedEquipmentTrace) RunAll(ctx context.Context, start []cim.ConductingEquipment) (EquipmentSteps, error) {
	result, err := l.runWithoutDirection(ctx, start, math.MaxInt)
	if err != nil {
		return nil, err
	}
	l.logger.Info("connected equipment found", logging.Count(len(result)), logging.Bool("unlimited", true))
	return result, nil
}

func (l *LimitedConnectedEquipmentTrace) runWithoutDirection(ctx context.Context, start []cim.ConductingEquipment, maxSteps int) (EquipmentSteps, error) {
	result := make(EquipmentSteps)
	for _, eq := range start {
		trace := l.newTraversal()
		trace.AddStopCondition(traversal.StopConditionFunc[*EquipmentStep](func(item *EquipmentStep, _ *traversal.StepContext) bool {
			return item.Step >= maxSteps
		}))
		trace.AddStepAction(traversal.StepActionFunc[*EquipmentStep](func(item *EquipmentStep, _ *traversal.StepContext) error {
			result.record(item.Equipment, item.Step)
			return nil
		}))
		if err := trace.RunContext(ctx, false, &EquipmentStep{Equipment: eq}); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (l *LimitedConnectedEquipmentTrace) runWithDirection(ctx context.Context, start []cim.ConductingEquipment, maxSteps int, direction cim.FeederDirection) (EquipmentSteps, error) {
	result := make(EquipmentSteps)
	reached := make(map[string]cim.ConductingEquipment)
	isStart := make(map[cim.ConductingEquipment]bool, len(start))
	for _, eq := range start {
		result.record(eq, 0)
		reached[eq.MRID()] = eq
		isStart[eq] = true
	}

	hasValidTerminal := func(eq cim.ConductingEquipment) bool {
		for _, t := range eq.Terminals() {
			if l.state.Direction(t) == direction {
				return true
			}
		}
		return false
	}

	var next []cim.ConductingEquipment
	for _, eq := range start {
		for _, t := range eq.Terminals() {
			if l.state.Direction(t) != direction {
				continue
			}
			for _, connected := range t.ConnectedTerminals() {
				if connected.Equipment() != nil {
					next = append(next, connected.Equipment())
				}
			}
		}
	}

	for _, eq := range next {
		trace := l.newTraversal()
		trace.AddStopCondition(traversal.StopConditionFunc[*EquipmentStep](func(item *EquipmentStep, _ *traversal.StepContext) bool {
			return item.Step >= maxSteps-1 || isStart[item.Equipment] || !hasValidTerminal(item.Equipment)
		}))
		trace.AddStepAction(traversal.StepActionFunc[*EquipmentStep](func(item *EquipmentStep, _ *traversal.StepContext) error {
			result.record(item.Equipment, item.Step+1)
			reached[item.Equipment.MRID()] = item.Equipment
			return nil
		}))
		if err := trace.RunContext(ctx, true, &EquipmentStep{Equipment: eq}); err != nil {
			return nil, err
		}
	}

	if direction == cim.DirectionBoth || direction == cim.DirectionNone {
		for mRID, eq := range reached {
			if !hasValidTerminal(eq) {
				delete(result, mRID)
			}
		}
	}
	return result, nil
}

func (l *LimitedConnectedEquipmentTrace) newTraversal() *traversal.Traversal[*EquipmentStep] {
	queueNext := func(item *EquipmentStep, _ *traversal.StepContext, queueItem func(*EquipmentStep) bool) error {
		if item.Step != 0 && l.state.IsOpen(item.Equipment, cim.PhaseNone) {
			return nil
		}
		for _, eq := range connectedEquipment(item.Equipment) {
			queueItem(&EquipmentStep{Equipment: eq, Step: item.Step + 1})
		}
		return nil
	}

	tracker := traversal.NewMinStepTracker(
		func(s *EquipmentStep) cim.ConductingEquipment { return s.Equipment },
		func(s *EquipmentStep) int { return s.Step },
	)
	return traversal.New(
		traversal.Basic[*EquipmentStep](queueNext, traversal.NewFIFOQueue[*EquipmentStep]()),
		traversal.WithTracker[*EquipmentStep](tracker),
		traversal.WithName[*EquipmentStep]("limited-connected-equipment"),
		traversal.WithLogger[*EquipmentStep](l.logger),
		traversal.WithMetrics[*EquipmentStep](l.metrics),
	)
}

// connectedEquipment returns the equipment sharing a connectivity node with
// any terminal of eq.
func connectedEquipment(eq cim.ConductingEquipment) []cim.ConductingEquipment {
	var result []cim.ConductingEquipment
	for _, t := range eq.Terminals() {
		for _, connected := range t.ConnectedTerminals() {
			if other := connected.Equipment(); other != nil {
				result = append(result, other)
			}
		}
	}
	return result
}
