package phases

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/connectivity"
	"github.com/dd0wney/cluso-gridtrace/pkg/logging"
	"github.com/dd0wney/cluso-gridtrace/pkg/networktrace"
	"github.com/dd0wney/cluso-gridtrace/pkg/traversal"
)

// SetPhases flows traced phases out from the terminals they are applied to.
//
// Phases are copied along each step as it is queued, following the nominal
// phase paths of the step. A step is only queued when it changed the phases
// of its to terminal. Phases that are open on a piece of equipment do not
// flow through it. Unlettered X and Y source phases are not traced; they are
// left NONE for the PhaseInferrer.
type SetPhases struct {
	ops  networktrace.NetworkStateOperators
	opts options
}

func NewSetPhases(ops networktrace.NetworkStateOperators, opts ...Option) *SetPhases {
	return &SetPhases{ops: ops, opts: newOptions(opts)}
}

// Run applies the nominal phases of every energy source terminal and flows
// them through the network.
func (s *SetPhases) Run(ctx context.Context, network *cim.Network) error {
	var terminals []*cim.Terminal
	for _, source := range network.EnergySources() {
		for _, t := range source.Terminals() {
			if err := s.apply(t, t.Phases().SinglePhases()); err != nil {
				return err
			}
			terminals = append(terminals, t)
		}
	}
	return s.flowFrom(ctx, terminals)
}

// RunTerminal flows the phases already traced on t.
func (s *SetPhases) RunTerminal(ctx context.Context, t *cim.Terminal) error {
	return s.flowFrom(ctx, []*cim.Terminal{t})
}

// RunWithPhases traces phases onto the nominal phases of t, in nominal
// order, and flows them. There must be one phase per nominal phase.
func (s *SetPhases) RunWithPhases(ctx context.Context, t *cim.Terminal, phases []cim.SinglePhaseKind) error {
	if n := t.Phases().NumPhases(); len(phases) != n {
		return fmt.Errorf("apply %v to %s with nominal phases %s: %w (found %d, expected %d)",
			phases, t.MRID(), t.Phases(), ErrPhaseCount, len(phases), n)
	}
	if err := s.apply(t, phases); err != nil {
		return err
	}
	return s.flowFrom(ctx, []*cim.Terminal{t})
}

// SpreadPhases copies the phases traced on from onto to, which must be
// another terminal of the same equipment or a terminal on the same
// connectivity node. It reports whether any phase of to changed. Nothing
// flows beyond to.
func (s *SetPhases) SpreadPhases(from, to *cim.Terminal) (bool, error) {
	var r *connectivity.Result
	switch {
	case from.Equipment() != nil && from.Equipment() == to.Equipment():
		r = connectivity.InternalConnectivity(s.ops, from, to, nil)
	case from.ConnectivityNode() != nil && from.ConnectivityNode() == to.ConnectivityNode():
		r = connectivity.TerminalConnectivity(from, to, nil)
	default:
		return false, fmt.Errorf("spread phases from %s to %s: %w", from.MRID(), to.MRID(), ErrNotConnected)
	}
	changed, err := s.flow(from, to, r.NominalPhasePaths())
	return len(changed) > 0, err
}

func (s *SetPhases) apply(t *cim.Terminal, phases []cim.SinglePhaseKind) error {
	status := s.ops.PhaseStatus(t)
	for i, nominal := range t.Phases().SinglePhases() {
		traced := phases[i]
		if traced.IsUnknown() {
			traced = cim.PhaseNone
		}
		changed, err := status.Set(nominal, traced)
		if err != nil {
			s.recordConflict()
			return fmt.Errorf("apply phases to %s: %w", t.MRID(), err)
		}
		if changed {
			s.opts.recordChange(s.ops.Description(), "apply")
		}
	}
	return nil
}

// flow copies the phases of from onto to along paths and returns the paths
// that changed to. A path from NONE energises its to phase as itself once
// from carries any phase; unlettered created phases are left for the
// PhaseInferrer.
func (s *SetPhases) flow(from, to *cim.Terminal, paths []cim.NominalPhasePath) ([]cim.NominalPhasePath, error) {
	fromStatus, toStatus := s.ops.PhaseStatus(from), s.ops.PhaseStatus(to)
	live := energised(fromStatus, from)
	var changed []cim.NominalPhasePath
	for _, p := range paths {
		phase := fromStatus.Get(p.From)
		if p.From == cim.PhaseNone && live && !p.To.IsUnknown() {
			phase = p.To
		}
		if phase == cim.PhaseNone {
			continue
		}
		ok, err := toStatus.Set(p.To, phase)
		if err != nil {
			s.recordConflict()
			return changed, newPhaseError(s.ops.Description(), from, to, paths, fromStatus, toStatus, err)
		}
		if ok {
			changed = append(changed, p)
			s.opts.recordChange(s.ops.Description(), "set")
		}
	}
	return changed, nil
}

func (s *SetPhases) recordConflict() {
	if s.opts.metrics != nil {
		s.opts.metrics.RecordPhaseConflict(s.ops.Description())
	}
}

func (s *SetPhases) flowFrom(ctx context.Context, starts []*cim.Terminal) error {
	var conflict error
	changed := 0

	trace := networktrace.NewNetworkTrace[tracePhases](
		s.ops,
		networktrace.AllSteps,
		traversal.WeightedPriority(pathWeight)(),
		func(_ *phaseStep, _ *traversal.StepContext, next networktrace.Path) tracePhases {
			if conflict != nil {
				return nil
			}
			paths, err := s.flow(next.FromTerminal, next.ToTerminal, closedPaths(s.ops, next))
			if err != nil {
				conflict = err
			}
			changed += len(paths)
			return paths
		},
		networktrace.WithName("set-phases"),
		networktrace.WithLogger(s.opts.logger),
		networktrace.WithMetrics(s.opts.metrics),
	)
	trace.AddCondition(traversal.QueueConditionFunc[*phaseStep](
		func(next *phaseStep, _ *traversal.StepContext, _ *phaseStep, _ *traversal.StepContext) bool {
			return len(next.Data) > 0
		},
	))
	// Ends the run at the first dequeue after a conflict.
	trace.AddStepActionFunc(func(_ *phaseStep, _ *traversal.StepContext) error {
		return conflict
	})

	for _, t := range starts {
		trace.AddStartTerminal(t, nil, t.Phases())
	}
	err := trace.Run(ctx, false)
	if conflict != nil {
		s.opts.logger.Warn("phase conflict", logging.String("state", s.ops.Description()), logging.Error(conflict))
		return conflict
	}
	if err != nil {
		return fmt.Errorf("set phases: %w", err)
	}

	s.opts.logger.Info("phases applied",
		logging.String("state", s.ops.Description()),
		logging.Int("start_terminals", len(starts)),
		logging.Count(changed),
	)
	return nil
}
