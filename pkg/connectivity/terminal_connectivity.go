package connectivity

import (
	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/traversal"
)

// ConnectedTerminals returns the connectivity from t to every other terminal
// on its connectivity node, skipping terminals that share no phases. Only
// the phases of t in include are considered; an empty include means all of
// them.
func ConnectedTerminals(t *cim.Terminal, include []cim.SinglePhaseKind) []*Result {
	node := t.ConnectivityNode()
	if node == nil {
		return nil
	}
	includeSet := includedPhases(t, include)

	var results []*Result
	for _, other := range node.Terminals() {
		if other == t {
			continue
		}
		if r := terminalConnectivity(t, other, includeSet); r.HasPaths() {
			results = append(results, r)
		}
	}
	return results
}

// TerminalConnectivity returns the connectivity between two terminals on the
// same connectivity node.
func TerminalConnectivity(from, to *cim.Terminal, include []cim.SinglePhaseKind) *Result {
	return terminalConnectivity(from, to, includedPhases(from, include))
}

func includedPhases(t *cim.Terminal, include []cim.SinglePhaseKind) map[cim.SinglePhaseKind]bool {
	set := make(map[cim.SinglePhaseKind]bool, 4)
	if len(include) == 0 {
		for _, p := range t.Phases().SinglePhases() {
			set[p] = true
		}
		return set
	}
	for _, p := range include {
		if t.Phases().Contains(p) {
			set[p] = true
		}
	}
	return set
}

func terminalConnectivity(from, to *cim.Terminal, include map[cim.SinglePhaseKind]bool) *Result {
	paths, ok := straightPaths(from.Phases(), to.Phases())
	if !ok || len(paths) == 0 {
		paths = xyPhasePaths(from, to)
	}

	kept := paths[:0:0]
	for _, p := range paths {
		if include[p.From] && to.Phases().Contains(p.To) {
			kept = append(kept, p)
		}
	}
	return NewResult(from, to, kept)
}

// xyPhasePaths connects an unlettered terminal to a lettered one, using the
// phases traced or implied on the surrounding network.
func xyPhasePaths(from, to *cim.Terminal) []cim.NominalPhasePath {
	fromXY, toXY := xyPhases(from.Phases()), xyPhases(to.Phases())
	if (fromXY == cim.PhaseCodeNone) == (toXY == cim.PhaseCodeNone) {
		return nil
	}

	var paths []cim.NominalPhasePath
	if from.Phases().Contains(cim.PhaseN) && to.Phases().Contains(cim.PhaseN) {
		paths = append(paths, cim.NominalPhasePath{From: cim.PhaseN, To: cim.PhaseN})
	}

	// The resolved map runs unlettered to lettered, so flip it when the
	// lettered side is the from side.
	xyTerminal := from
	if fromXY == cim.PhaseCodeNone {
		xyTerminal = to
	}
	resolved := findXYCandidatePhases(from.ConnectivityNode()).CalculatePaths()
	for _, xy := range []cim.SinglePhaseKind{cim.PhaseX, cim.PhaseY} {
		lettered, ok := resolved[xy]
		if !ok || lettered == cim.PhaseNone {
			continue
		}
		if !xyTerminal.Phases().Contains(xy) {
			continue
		}
		if xyTerminal == from {
			paths = append(paths, cim.NominalPhasePath{From: xy, To: lettered})
		} else {
			paths = append(paths, cim.NominalPhasePath{From: lettered, To: xy})
		}
	}
	return paths
}

type xyPhaseStep struct {
	terminal *cim.Terminal
	code     cim.PhaseCode
}

// findXYCandidatePhases gathers evidence for the X and Y phases on a node.
// Lettered terminals on the node give candidates directly. Each unlettered
// terminal is then followed through its equipment until a traced X or Y
// phase or a lettered terminal is found, stopping at normally open switches.
func findXYCandidatePhases(node *cim.ConnectivityNode) *XYCandidatePhasePaths {
	candidates := NewXYCandidatePhasePaths()
	if node == nil {
		return candidates
	}

	var primaries []cim.PhaseCode
	for _, t := range node.Terminals() {
		if code := primaryPhases(t.Phases()); code != cim.PhaseCodeNone {
			primaries = append(primaries, code)
		}
	}

	queue := traversal.NewLIFOQueue[xyPhaseStep]()
	visited := make(map[xyPhaseStep]bool)
	for _, t := range node.Terminals() {
		code := xyPhases(t.Phases())
		if code == cim.PhaseCodeNone {
			continue
		}
		for _, primary := range primaries {
			addViableCandidates(candidates, code, primary)
		}
		findMoreXYCandidatePhases(xyPhaseStep{terminal: t, code: code}, visited, queue, candidates)
	}
	for !queue.Empty() {
		step, err := queue.Get()
		if err != nil {
			break
		}
		findMoreXYCandidatePhases(step, visited, queue, candidates)
	}
	return candidates
}

func findMoreXYCandidatePhases(step xyPhaseStep, visited map[xyPhaseStep]bool, queue traversal.Queue[xyPhaseStep], candidates *XYCandidatePhasePaths) {
	if visited[step] {
		return
	}
	visited[step] = true

	withoutNeutral := step.terminal.Phases().WithoutNeutral()
	if withoutNeutral.Contains(cim.PhaseX) || withoutNeutral.Contains(cim.PhaseY) {
		if !addTracedPhases(step.terminal, candidates) {
			queueXYNext(step.terminal, withoutNeutral, queue)
		}
		return
	}
	addViableCandidates(candidates, step.code, withoutNeutral)
}

func addViableCandidates(candidates *XYCandidatePhasePaths, xy, primary cim.PhaseCode) {
	for _, phase := range []cim.SinglePhaseKind{cim.PhaseX, cim.PhaseY} {
		if viable, ok := viableCandidates(xy, primary)[phase]; ok {
			// The table only holds valid candidates.
			_ = candidates.AddCandidates(phase, viable...)
		}
	}
}

// addTracedPhases records the normally traced X and Y phases of t, reporting
// whether either was energised.
func addTracedPhases(t *cim.Terminal, candidates *XYCandidatePhasePaths) bool {
	found := false
	status := t.NormalPhases()
	for _, xy := range []cim.SinglePhaseKind{cim.PhaseX, cim.PhaseY} {
		if traced := status.Get(xy); traced != cim.PhaseNone {
			_ = candidates.AddKnown(xy, traced)
			found = true
		}
	}
	return found
}

func queueXYNext(t *cim.Terminal, code cim.PhaseCode, queue traversal.Queue[xyPhaseStep]) {
	eq := t.Equipment()
	if eq == nil {
		return
	}
	if sw, ok := eq.(cim.Switchable); ok && sw.IsNormallyOpen(cim.PhaseNone) {
		return
	}
	for _, other := range t.OtherTerminals() {
		for _, connected := range other.ConnectedTerminals() {
			if connected.Equipment() != eq {
				queue.Put(xyPhaseStep{terminal: connected, code: code})
			}
		}
	}
}
