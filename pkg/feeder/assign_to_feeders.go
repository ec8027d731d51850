package feeder

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/logging"
	"github.com/dd0wney/cluso-gridtrace/pkg/networktrace"
	"github.com/dd0wney/cluso-gridtrace/pkg/traversal"
)

type assignStep = networktrace.Step[struct{}]

// AssignToFeeders records which feeder energises each piece of equipment in
// one state of the network.
//
// Each feeder is traced from its head terminal away from the head
// equipment. A trace ends at open equipment, at the head equipment of
// another feeder and at transformers inside a substation. Equipment a trace
// stops on is still assigned unless it is a transformer.
type AssignToFeeders struct {
	ops  networktrace.NetworkStateOperators
	opts options
}

func NewAssignToFeeders(ops networktrace.NetworkStateOperators, opts ...Option) *AssignToFeeders {
	return &AssignToFeeders{ops: ops, opts: newOptions(opts)}
}

// Run assigns equipment to every feeder of the network that has a head.
func (a *AssignToFeeders) Run(ctx context.Context, network *cim.Network) error {
	heads := make(map[cim.ConductingEquipment]bool)
	for _, f := range network.Feeders() {
		if head := f.NormalHeadTerminal(); head != nil && head.Equipment() != nil {
			heads[head.Equipment()] = true
		}
	}
	for _, f := range network.Feeders() {
		if err := a.RunFeeder(ctx, f, heads); err != nil {
			return err
		}
	}
	return nil
}

// RunFeeder assigns the equipment reached from the head of f. Traces stop at
// the equipment in heads other than the head of f.
func (a *AssignToFeeders) RunFeeder(ctx context.Context, f *cim.Feeder, heads map[cim.ConductingEquipment]bool) error {
	head := f.NormalHeadTerminal()
	if head == nil {
		return nil
	}

	assigned := 0
	trace := networktrace.NewNetworkTrace[struct{}](
		a.ops,
		networktrace.AllSteps,
		traversal.DepthFirst[*assignStep]()(),
		nil,
		networktrace.WithName("assign-to-feeders"),
		networktrace.WithLogger(a.opts.logger),
		networktrace.WithMetrics(a.opts.metrics),
	)
	trace.AddCondition(a.ops.StopAtOpen())
	trace.AddStopCondition(traversal.StopConditionFunc[*networktrace.StepInfo](
		func(item *networktrace.StepInfo, _ *traversal.StepContext) bool {
			return heads[item.Path.ToTerminal.Equipment()]
		},
	))
	trace.AddQueueCondition(traversal.QueueConditionFunc[*networktrace.StepInfo](
		func(next *networktrace.StepInfo, _ *traversal.StepContext, _ *networktrace.StepInfo, _ *traversal.StepContext) bool {
			return !inSubstation(next.Path.ToTerminal.Equipment())
		},
	))
	trace.AddStepActionFunc(func(item *assignStep, stepCtx *traversal.StepContext) error {
		eq := item.Path.ToTerminal.Equipment()
		if eq == nil {
			return nil
		}
		if _, ok := eq.(*cim.PowerTransformer); ok && stepCtx.IsStopping {
			return nil
		}
		before := len(a.ops.Feeders(eq))
		a.ops.AssignToFeeder(eq, f)
		if len(a.ops.Feeders(eq)) > before {
			assigned++
		}
		return nil
	})

	trace.AddStartTerminal(head, struct{}{}, cim.PhaseCodeNone)
	if err := trace.Run(ctx, false); err != nil {
		return fmt.Errorf("assign feeder %s: %w", f.MRID(), err)
	}

	if a.opts.metrics != nil {
		a.opts.metrics.RecordFeederAssignments(a.ops.Description(), assigned)
	}
	a.opts.logger.Info("feeder equipment assigned",
		logging.MRID(f.MRID()),
		logging.TerminalID(head.MRID()),
		logging.String("state", a.ops.Description()),
		logging.Count(assigned),
	)
	return nil
}

func inSubstation(eq cim.ConductingEquipment) bool {
	tx, ok := eq.(*cim.PowerTransformer)
	return ok && tx.InSubstation()
}
