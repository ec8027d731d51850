package feeder

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/logging"
	"github.com/dd0wney/cluso-gridtrace/pkg/networktrace"
	"github.com/dd0wney/cluso-gridtrace/pkg/traversal"
)

type directionStep = networktrace.Step[cim.FeederDirection]

// SetDirection assigns feeder directions in one state of the network.
//
// The trace carries the direction to add to each terminal it reaches. The
// start terminal gets DOWNSTREAM, every terminal reached across a
// connectivity node gets UPSTREAM and every terminal reached through
// equipment gets DOWNSTREAM. It branches wherever there is more than one way
// forward so both sides of a loop are traced, which leaves the loop BOTH.
//
// A path ends at open equipment, at feeder heads other than the one it
// started from, and where adding the direction changes nothing.
type SetDirection struct {
	ops  networktrace.NetworkStateOperators
	opts options
}

func NewSetDirection(ops networktrace.NetworkStateOperators, opts ...Option) *SetDirection {
	return &SetDirection{ops: ops, opts: newOptions(opts)}
}

// Run assigns directions from every start terminal of the network.
func (s *SetDirection) Run(ctx context.Context, network *cim.Network) error {
	for _, t := range StartTerminals(network) {
		if err := s.RunTerminal(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// RunTerminal assigns directions flowing away from t.
func (s *SetDirection) RunTerminal(ctx context.Context, t *cim.Terminal) error {
	changed := 0
	trace := s.newTrace(&changed)
	trace.AddStartTerminal(t, cim.DirectionDownstream, cim.PhaseCodeNone)
	if err := trace.Run(ctx, false); err != nil {
		return fmt.Errorf("set direction from %s: %w", t.MRID(), err)
	}

	s.opts.logger.Info("feeder directions applied",
		logging.TerminalID(t.MRID()),
		logging.String("state", s.ops.Description()),
		logging.Count(changed),
	)
	return nil
}

func (s *SetDirection) newTrace(changed *int) *networktrace.NetworkTrace[cim.FeederDirection] {
	trace := networktrace.NewBranchingNetworkTrace[cim.FeederDirection](
		s.ops,
		networktrace.AllSteps,
		traversal.DepthFirst[*directionStep](),
		traversal.BreadthFirst[*traversal.Traversal[*directionStep]](),
		directionToAdd,
		networktrace.WithName("set-direction"),
		networktrace.WithLogger(s.opts.logger),
		networktrace.WithMetrics(s.opts.metrics),
	)

	trace.AddCondition(s.ops.StopAtOpen())
	trace.AddStopCondition(traversal.StopConditionFunc[*networktrace.StepInfo](
		func(item *networktrace.StepInfo, _ *traversal.StepContext) bool {
			return item.Path.ToTerminal.IsFeederHeadTerminal()
		},
	))
	trace.AddCondition(traversal.StopConditionFunc[*directionStep](
		func(item *directionStep, _ *traversal.StepContext) bool {
			current := s.ops.Direction(item.Path.ToTerminal)
			return current.Plus(item.Data) == current
		},
	))
	trace.AddStepActionFunc(func(item *directionStep, _ *traversal.StepContext) error {
		if s.ops.AddDirection(item.Path.ToTerminal, item.Data) {
			*changed++
			s.opts.recordChange(s.ops.Description(), "set")
		}
		return nil
	})
	return trace
}

func directionToAdd(_ *directionStep, _ *traversal.StepContext, next networktrace.Path) cim.FeederDirection {
	if next.TracedInternally() {
		return cim.DirectionDownstream
	}
	return cim.DirectionUpstream
}
