package feeder

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/logging"
	"github.com/dd0wney/cluso-gridtrace/pkg/networktrace"
	"github.com/dd0wney/cluso-gridtrace/pkg/traversal"
)

type clearStep = networktrace.Step[struct{}]

// ClearDirection removes feeder directions from a terminal and everything
// connected to it that has a direction, including equipment fed from more
// than one feeder. Directions can be put back by running SetDirection from
// the start terminals it returns.
type ClearDirection struct {
	ops  networktrace.NetworkStateOperators
	opts options
}

func NewClearDirection(ops networktrace.NetworkStateOperators, opts ...Option) *ClearDirection {
	return &ClearDirection{ops: ops, opts: newOptions(opts)}
}

// Run clears directions starting at t and returns the start terminals it
// reached: feeder heads and terminals of energy sources outside any feeder.
// The start terminal itself is included when it is one of those.
func (c *ClearDirection) Run(ctx context.Context, t *cim.Terminal) ([]*cim.Terminal, error) {
	var heads []*cim.Terminal
	cleared := 0

	trace := networktrace.NewNetworkTrace[struct{}](
		c.ops,
		networktrace.AllSteps,
		traversal.WeightedPriority(func(s *clearStep) int { return s.Path.ToTerminal.Phases().NumPhases() })(),
		nil,
		networktrace.WithName("clear-direction"),
		networktrace.WithLogger(c.opts.logger),
		networktrace.WithMetrics(c.opts.metrics),
	)
	trace.AddCondition(c.ops.StopAtOpen())
	trace.AddQueueCondition(traversal.QueueConditionFunc[*networktrace.StepInfo](
		func(next *networktrace.StepInfo, _ *traversal.StepContext, _ *networktrace.StepInfo, _ *traversal.StepContext) bool {
			return c.ops.Direction(next.Path.ToTerminal) != cim.DirectionNone
		},
	))
	trace.AddStepActionFunc(func(item *clearStep, _ *traversal.StepContext) error {
		to := item.Path.ToTerminal
		if c.ops.SetDirection(to, cim.DirectionNone) {
			cleared++
			c.opts.recordChange(c.ops.Description(), "clear")
		}
		if isStartTerminal(to) {
			heads = append(heads, to)
		}
		return nil
	})

	trace.AddStartTerminal(t, struct{}{}, cim.PhaseCodeNone)
	if err := trace.Run(ctx, false); err != nil {
		return nil, fmt.Errorf("clear direction from %s: %w", t.MRID(), err)
	}

	if c.opts.metrics != nil {
		c.opts.metrics.RecordFeederHeads(c.ops.Description(), len(heads))
	}
	c.opts.logger.Info("feeder directions cleared",
		logging.TerminalID(t.MRID()),
		logging.String("state", c.ops.Description()),
		logging.Count(cleared),
		logging.Int("start_terminals", len(heads)),
	)
	return heads, nil
}
