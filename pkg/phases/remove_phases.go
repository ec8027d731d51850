package phases

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/logging"
	"github.com/dd0wney/cluso-gridtrace/pkg/networktrace"
	"github.com/dd0wney/cluso-gridtrace/pkg/traversal"
)

// RemovePhases clears traced phases.
type RemovePhases struct {
	ops  networktrace.NetworkStateOperators
	opts options
}

func NewRemovePhases(ops networktrace.NetworkStateOperators, opts ...Option) *RemovePhases {
	return &RemovePhases{ops: ops, opts: newOptions(opts)}
}

// Run clears the traced phases of every terminal in the network and returns
// how many terminals changed.
func (r *RemovePhases) Run(ctx context.Context, network *cim.Network) (int, error) {
	removed := 0
	for _, t := range network.AllTerminals() {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		changed, err := r.clear(t, t.Phases().SinglePhases())
		if err != nil {
			return removed, err
		}
		if changed {
			removed++
		}
	}
	r.opts.logger.Info("phases removed",
		logging.String("state", r.ops.Description()),
		logging.Count(removed),
	)
	return removed, nil
}

// RunTerminal clears phases from t and follows them out through the network
// for as long as each step still clears something. Only the given nominal
// phases of t are cleared; PhaseCodeNone clears all of them. It returns how
// many terminals changed.
func (r *RemovePhases) RunTerminal(ctx context.Context, t *cim.Terminal, phases cim.PhaseCode) (int, error) {
	if phases == cim.PhaseCodeNone {
		phases = t.Phases()
	}

	removed := 0
	changed, err := r.clear(t, phases.SinglePhases())
	if err != nil {
		return 0, err
	}
	if changed {
		removed++
	}

	trace := networktrace.NewNetworkTrace[tracePhases](
		r.ops,
		networktrace.AllSteps,
		traversal.WeightedPriority(pathWeight)(),
		func(current *phaseStep, _ *traversal.StepContext, next networktrace.Path) tracePhases {
			paths := r.ebb(next, closedPaths(r.ops, next), current)
			if len(paths) > 0 {
				removed++
			}
			return paths
		},
		networktrace.WithName("remove-phases"),
		networktrace.WithLogger(r.opts.logger),
		networktrace.WithMetrics(r.opts.metrics),
	)
	trace.AddCondition(traversal.QueueConditionFunc[*phaseStep](
		func(next *phaseStep, _ *traversal.StepContext, _ *phaseStep, _ *traversal.StepContext) bool {
			return len(next.Data) > 0
		},
	))
	trace.AddStartTerminal(t, nil, phases)
	if err := trace.Run(ctx, false); err != nil {
		return removed, fmt.Errorf("remove phases from %s: %w", t.MRID(), err)
	}

	r.opts.logger.Info("phases removed",
		logging.TerminalID(t.MRID()),
		logging.String("state", r.ops.Description()),
		logging.Phases(phases),
		logging.Count(removed),
	)
	return removed, nil
}

// ebb clears the to terminal of next on the paths leaving phases that were
// cleared by current, returning the paths that cleared something.
func (r *RemovePhases) ebb(next networktrace.Path, paths []cim.NominalPhasePath, current *phaseStep) []cim.NominalPhasePath {
	var cleared map[cim.SinglePhaseKind]bool
	if current.NumTerminalSteps > 0 {
		cleared = make(map[cim.SinglePhaseKind]bool, len(current.Data))
		for _, p := range current.Data {
			cleared[p.To] = true
		}
	}

	status := r.ops.PhaseStatus(next.ToTerminal)
	dead := !energised(r.ops.PhaseStatus(next.FromTerminal), next.FromTerminal)
	var ebbed []cim.NominalPhasePath
	for _, p := range paths {
		if p.From == cim.PhaseNone {
			// A created phase goes once nothing feeds the winding.
			if !dead {
				continue
			}
		} else if cleared != nil && !cleared[p.From] {
			continue
		}
		if status.Get(p.To) == cim.PhaseNone {
			continue
		}
		// Clearing a nominal phase never fails.
		if ok, _ := status.Set(p.To, cim.PhaseNone); ok {
			ebbed = append(ebbed, p)
			r.opts.recordChange(r.ops.Description(), "remove")
		}
	}
	return ebbed
}

func (r *RemovePhases) clear(t *cim.Terminal, nominal []cim.SinglePhaseKind) (bool, error) {
	status := r.ops.PhaseStatus(t)
	changed := false
	for _, p := range nominal {
		ok, err := status.Set(p, cim.PhaseNone)
		if err != nil {
			return changed, fmt.Errorf("remove phases from %s: %w", t.MRID(), err)
		}
		if ok {
			changed = true
			r.opts.recordChange(r.ops.Description(), "remove")
		}
	}
	return changed, nil
}
