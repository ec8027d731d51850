package phases

import (
	"context"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/connectivity"
	"github.com/dd0wney/cluso-gridtrace/pkg/logging"
	"github.com/dd0wney/cluso-gridtrace/pkg/networktrace"
)

// InferredPhase records equipment that had phases filled in by the
// PhaseInferrer. Suspect is set when unlettered phases had to be guessed;
// filling in a missing lettered phase with itself is not suspect.
type InferredPhase struct {
	Equipment cim.ConductingEquipment
	State     string
	Suspect   bool
}

// PhaseInferrer fills in phases left unset after SetPhases, typically
// because an upstream terminal is missing a nominal phase in the source
// data. The results are a best guess and every inference is logged at WARN
// so the source data can be fixed.
//
// Terminals missing phases are worked on starting where the gap begins: a
// terminal fed from a fully phased terminal across a connectivity node.
// Feeder directions, when set, are used to prefer terminals fed from
// downstream terminals. Each pass tries, in order, to fill missing lettered
// phases with themselves, to infer a single missing X or Y phase, then to
// infer any number of missing X and Y phases. Passes repeat until nothing
// changes. Every change is spread through the equipment and on through the
// network.
type PhaseInferrer struct {
	ops  networktrace.NetworkStateOperators
	opts options
	set  *SetPhases

	tracking map[cim.ConductingEquipment]bool
	order    []cim.ConductingEquipment
}

func NewPhaseInferrer(ops networktrace.NetworkStateOperators, opts ...Option) *PhaseInferrer {
	o := newOptions(opts)
	return &PhaseInferrer{
		ops:  ops,
		opts: o,
		set:  &SetPhases{ops: ops, opts: o},
	}
}

type terminalProcessor func(ctx context.Context, t *cim.Terminal) (bool, error)

// Run infers missing phases on the network and returns the equipment that
// was changed, in the order it was first changed.
func (p *PhaseInferrer) Run(ctx context.Context, network *cim.Network) ([]InferredPhase, error) {
	p.tracking = make(map[cim.ConductingEquipment]bool)
	p.order = nil

	for {
		missing := p.terminalsMissingPhases(network)
		var missingXY []*cim.Terminal
		for _, t := range missing {
			if hasXYPhases(t) {
				missingXY = append(missingXY, t)
			}
		}

		didNominal, err := p.process(ctx, missing, p.setMissingToNominal)
		if err != nil {
			return nil, err
		}
		didXY1, err := p.process(ctx, missingXY, func(ctx context.Context, t *cim.Terminal) (bool, error) {
			return p.inferXYPhases(ctx, t, 1)
		})
		if err != nil {
			return nil, err
		}
		didXY4, err := p.process(ctx, missingXY, func(ctx context.Context, t *cim.Terminal) (bool, error) {
			return p.inferXYPhases(ctx, t, 4)
		})
		if err != nil {
			return nil, err
		}
		if !didNominal && !didXY1 && !didXY4 {
			break
		}
	}

	inferred := make([]InferredPhase, 0, len(p.order))
	for _, eq := range p.order {
		suspect := p.tracking[eq]
		inferred = append(inferred, InferredPhase{Equipment: eq, State: p.ops.Description(), Suspect: suspect})
		if p.opts.metrics != nil {
			p.opts.metrics.RecordPhaseInference(p.ops.Description(), suspect)
		}
		fields := []logging.Field{
			logging.MRID(eq.MRID()),
			logging.String("name", eq.Name()),
			logging.String("state", p.ops.Description()),
		}
		if suspect {
			p.opts.logger.Warn("inferred missing phases which may not be correct; fix the upstream phasing in the source data", fields...)
		} else {
			p.opts.logger.Warn("inferred missing phase which should be correct; fix the upstream phasing in the source data", fields...)
		}
	}
	return inferred, nil
}

func (p *PhaseInferrer) track(eq cim.ConductingEquipment, suspect bool) {
	if _, ok := p.tracking[eq]; !ok {
		p.order = append(p.order, eq)
	}
	p.tracking[eq] = suspect
}

func (p *PhaseInferrer) terminalsMissingPhases(network *cim.Network) []*cim.Terminal {
	var missing []*cim.Terminal
	for _, t := range network.AllTerminals() {
		if isConnectedToOthers(t) && p.hasNonePhase(t) {
			missing = append(missing, t)
		}
	}
	return missing
}

// process runs processor over the terminals at the start of the missing
// phases until a round changes nothing.
func (p *PhaseInferrer) process(ctx context.Context, terminals []*cim.Terminal, processor terminalProcessor) (bool, error) {
	processed := false
	toProcess := p.startOfMissingPhases(terminals)
	for {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		changed := false
		for _, t := range toProcess {
			ok, err := processor(ctx, t)
			if err != nil {
				return processed, err
			}
			changed = ok || changed
		}
		processed = processed || changed
		if !changed {
			return processed, nil
		}
		toProcess = p.startOfMissingPhases(terminals)
	}
}

func (p *PhaseInferrer) startOfMissingPhases(terminals []*cim.Terminal) []*cim.Terminal {
	upstreamFedFromDownstream := func(t, other *cim.Terminal) bool {
		return p.ops.Direction(t).Contains(cim.DirectionUpstream) && p.ops.Direction(other).Contains(cim.DirectionDownstream)
	}
	fedFromDownstream := func(_, other *cim.Terminal) bool {
		return p.ops.Direction(other).Contains(cim.DirectionDownstream)
	}
	fedFromAny := func(_, _ *cim.Terminal) bool { return true }

	for _, fed := range []func(t, other *cim.Terminal) bool{upstreamFedFromDownstream, fedFromDownstream, fedFromAny} {
		if candidates := p.missingFedBy(terminals, fed); len(candidates) > 0 {
			return candidates
		}
	}
	return nil
}

// missingFedBy returns the terminals still missing phases that share a node
// with a fully phased terminal accepted by fed.
func (p *PhaseInferrer) missingFedBy(terminals []*cim.Terminal, fed func(t, other *cim.Terminal) bool) []*cim.Terminal {
	var candidates []*cim.Terminal
	for _, t := range terminals {
		if !p.hasNonePhase(t) || t.ConnectivityNode() == nil {
			continue
		}
		for _, other := range t.ConnectivityNode().Terminals() {
			if other != t && fed(t, other) && !p.hasNonePhase(other) {
				candidates = append(candidates, t)
				break
			}
		}
	}
	return candidates
}

func (p *PhaseInferrer) setMissingToNominal(ctx context.Context, t *cim.Terminal) (bool, error) {
	status := p.ops.PhaseStatus(t)
	var toFill []cim.SinglePhaseKind
	for _, nominal := range t.Phases().SinglePhases() {
		if !nominal.IsUnknown() && status.Get(nominal) == cim.PhaseNone {
			toFill = append(toFill, nominal)
		}
	}
	if len(toFill) == 0 {
		return false, nil
	}

	for _, nominal := range toFill {
		if _, err := status.Set(nominal, nominal); err != nil {
			return false, err
		}
		p.opts.recordChange(p.ops.Description(), "infer")
	}
	if err := p.continuePhases(ctx, t); err != nil {
		return true, err
	}
	if eq := t.Equipment(); eq != nil {
		p.track(eq, false)
	}
	return true, nil
}

// inferXYPhases guesses the missing phases of an unlettered terminal when no
// more than maxMissing are missing. X takes the first unused phase of
// connectivity.XPriority that sits before Y; Y takes the first unused phase
// of connectivity.YPriority that sits after X. A missing neutral is filled
// with N.
func (p *PhaseInferrer) inferXYPhases(ctx context.Context, t *cim.Terminal, maxMissing int) (bool, error) {
	eq := t.Equipment()
	if eq == nil {
		return false, nil
	}

	status := p.ops.PhaseStatus(t)
	var missing []cim.SinglePhaseKind
	used := make(map[cim.SinglePhaseKind]bool, 4)
	for _, nominal := range t.Phases().SinglePhases() {
		if phase := status.Get(nominal); phase == cim.PhaseNone {
			missing = append(missing, nominal)
		} else {
			used[phase] = true
		}
	}
	if len(missing) == 0 || len(missing) > maxMissing {
		return false, nil
	}

	changed := false
	for _, nominal := range missing {
		var phase cim.SinglePhaseKind
		switch nominal {
		case cim.PhaseX:
			phase = firstUnused(connectivity.XPriority, used, func(it cim.SinglePhaseKind) bool {
				return connectivity.IsBefore(it, status.Get(cim.PhaseY))
			})
		case cim.PhaseY:
			phase = firstUnused(connectivity.YPriority, used, func(it cim.SinglePhaseKind) bool {
				return connectivity.IsAfter(it, status.Get(cim.PhaseX))
			})
		case cim.PhaseN:
			phase = cim.PhaseN
		}
		if phase == cim.PhaseNone {
			continue
		}
		if _, err := status.Set(nominal, phase); err != nil {
			return changed, err
		}
		used[phase] = true
		changed = true
		p.opts.recordChange(p.ops.Description(), "infer")
	}
	if !changed {
		return false, nil
	}

	p.track(eq, true)
	return true, p.continuePhases(ctx, t)
}

// continuePhases spreads the phases of t to the other terminals of its
// equipment and flows them on from there.
func (p *PhaseInferrer) continuePhases(ctx context.Context, t *cim.Terminal) error {
	for _, other := range t.OtherTerminals() {
		if _, err := p.set.SpreadPhases(t, other); err != nil {
			return err
		}
		if err := p.set.RunTerminal(ctx, other); err != nil {
			return err
		}
	}
	return nil
}

func (p *PhaseInferrer) hasNonePhase(t *cim.Terminal) bool {
	status := p.ops.PhaseStatus(t)
	for _, nominal := range t.Phases().SinglePhases() {
		if status.Get(nominal) == cim.PhaseNone {
			return true
		}
	}
	return false
}

func isConnectedToOthers(t *cim.Terminal) bool {
	return t.ConnectivityNode() != nil && len(t.ConnectivityNode().Terminals()) > 1
}

func hasXYPhases(t *cim.Terminal) bool {
	return t.Phases().Contains(cim.PhaseX) || t.Phases().Contains(cim.PhaseY)
}

func firstUnused(priority []cim.SinglePhaseKind, used map[cim.SinglePhaseKind]bool, valid func(cim.SinglePhaseKind) bool) cim.SinglePhaseKind {
	for _, phase := range priority {
		if !used[phase] && valid(phase) {
			return phase
		}
	}
	return cim.PhaseNone
}
