package connectivity

import "github.com/dd0wney/cluso-gridtrace/pkg/cim"

// State is the view of the network state needed to decide what is connected.
// It is satisfied by the normal and current state operators of the network
// trace.
type State interface {
	IsOpen(eq cim.ConductingEquipment, phase cim.SinglePhaseKind) bool
	IsInService(eq cim.ConductingEquipment) bool
	Direction(t *cim.Terminal) cim.FeederDirection
}

// InternalConnectivity returns the phase paths through the equipment from
// one of its terminals to another. Transformers follow their winding
// arrangement, which can create phases on the to side; those paths start at
// NONE and are kept while any other phase passes. Otherwise phases run
// straight through when both terminals carry the same letter, and an
// unlettered terminal facing a lettered one is joined by position with N
// joined to N. When state is not nil, phases open in that state are left
// out.
func InternalConnectivity(state State, from, to *cim.Terminal, include []cim.SinglePhaseKind) *Result {
	includeSet := includedPhases(from, include)

	eq := from.Equipment()
	paths, ok := internalPaths(eq, from.Phases(), to.Phases())
	if !ok {
		paths = positionalPaths(from.Phases(), to.Phases())
	}

	kept := paths[:0:0]
	var created []cim.NominalPhasePath
	for _, p := range paths {
		if p.From == cim.PhaseNone {
			created = append(created, p)
			continue
		}
		if !includeSet[p.From] || !to.Phases().Contains(p.To) {
			continue
		}
		if state != nil && eq != nil && state.IsOpen(eq, p.From) {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) > 0 {
		kept = append(kept, created...)
	}
	return NewResult(from, to, kept)
}

func internalPaths(eq cim.ConductingEquipment, from, to cim.PhaseCode) ([]cim.NominalPhasePath, bool) {
	if _, ok := eq.(*cim.PowerTransformer); ok {
		if paths, ok := TransformerPhasePaths(from, to); ok {
			return paths, true
		}
	}
	return straightPaths(from, to)
}

// InternalTerminals returns the connectivity from t to each other terminal of
// its equipment.
func InternalTerminals(state State, t *cim.Terminal, include []cim.SinglePhaseKind) []*Result {
	var results []*Result
	for _, other := range t.OtherTerminals() {
		if r := InternalConnectivity(state, t, other, include); r.HasPaths() {
			results = append(results, r)
		}
	}
	return results
}

func positionalPaths(from, to cim.PhaseCode) []cim.NominalPhasePath {
	var paths []cim.NominalPhasePath
	if from.Contains(cim.PhaseN) && to.Contains(cim.PhaseN) {
		paths = append(paths, cim.NominalPhasePath{From: cim.PhaseN, To: cim.PhaseN})
	}
	fromPhases := from.WithoutNeutral().SinglePhases()
	toPhases := to.WithoutNeutral().SinglePhases()
	for i := 0; i < len(fromPhases) && i < len(toPhases); i++ {
		paths = append(paths, cim.NominalPhasePath{From: fromPhases[i], To: toPhases[i]})
	}
	return paths
}
