package connectivity

import "github.com/dd0wney/cluso-gridtrace/pkg/cim"

type phaseCandidates map[cim.SinglePhaseKind][]cim.SinglePhaseKind

// viableInferredPhaseConnectivity lists, for an unlettered code meeting a
// primary code, the lettered phases each of X and Y could be.
var viableInferredPhaseConnectivity = map[cim.PhaseCode]map[cim.PhaseCode]phaseCandidates{
	cim.PhaseCodeXY: {
		cim.PhaseCodeABC: {cim.PhaseX: {cim.PhaseA, cim.PhaseB, cim.PhaseC}, cim.PhaseY: {cim.PhaseB, cim.PhaseC}},
		cim.PhaseCodeAB:  {cim.PhaseX: {cim.PhaseA, cim.PhaseB}, cim.PhaseY: {cim.PhaseB}},
		cim.PhaseCodeAC:  {cim.PhaseX: {cim.PhaseA, cim.PhaseC}, cim.PhaseY: {cim.PhaseC}},
		cim.PhaseCodeBC:  {cim.PhaseX: {cim.PhaseB, cim.PhaseC}, cim.PhaseY: {cim.PhaseB, cim.PhaseC}},
		cim.PhaseCodeA:   {cim.PhaseX: {cim.PhaseA}},
		cim.PhaseCodeB:   {cim.PhaseX: {cim.PhaseB}, cim.PhaseY: {cim.PhaseB}},
		cim.PhaseCodeC:   {cim.PhaseX: {cim.PhaseC}, cim.PhaseY: {cim.PhaseC}},
	},
	cim.PhaseCodeX: {
		cim.PhaseCodeABC: {cim.PhaseX: {cim.PhaseA, cim.PhaseB, cim.PhaseC}},
		cim.PhaseCodeAB:  {cim.PhaseX: {cim.PhaseA, cim.PhaseB}},
		cim.PhaseCodeAC:  {cim.PhaseX: {cim.PhaseA, cim.PhaseC}},
		cim.PhaseCodeBC:  {cim.PhaseX: {cim.PhaseB, cim.PhaseC}},
		cim.PhaseCodeA:   {cim.PhaseX: {cim.PhaseA}},
		cim.PhaseCodeB:   {cim.PhaseX: {cim.PhaseB}},
		cim.PhaseCodeC:   {cim.PhaseX: {cim.PhaseC}},
	},
	cim.PhaseCodeY: {
		cim.PhaseCodeABC: {cim.PhaseY: {cim.PhaseB, cim.PhaseC}},
		cim.PhaseCodeAB:  {cim.PhaseY: {cim.PhaseB}},
		cim.PhaseCodeAC:  {cim.PhaseY: {cim.PhaseC}},
		cim.PhaseCodeBC:  {cim.PhaseY: {cim.PhaseB, cim.PhaseC}},
		cim.PhaseCodeB:   {cim.PhaseY: {cim.PhaseB}},
		cim.PhaseCodeC:   {cim.PhaseY: {cim.PhaseC}},
	},
}

func viableCandidates(xy, primary cim.PhaseCode) phaseCandidates {
	return viableInferredPhaseConnectivity[xy][primary]
}

// isLettered reports codes made of A, B, C and N only. NONE is neither
// lettered nor unlettered.
func isLettered(code cim.PhaseCode) bool {
	phases := code.SinglePhases()
	return len(phases) > 0 && !phases[0].IsUnknown()
}

func isUnlettered(code cim.PhaseCode) bool {
	phases := code.SinglePhases()
	return len(phases) > 0 && phases[0].IsUnknown()
}

// straightPaths joins same letter phases. It only applies between two
// lettered codes or two unlettered codes; ok is false otherwise.
func straightPaths(from, to cim.PhaseCode) (paths []cim.NominalPhasePath, ok bool) {
	if !(isLettered(from) && isLettered(to)) && !(isUnlettered(from) && isUnlettered(to)) {
		return nil, false
	}
	for _, p := range from.SinglePhases() {
		if to.Contains(p) {
			paths = append(paths, cim.NominalPhasePath{From: p, To: p})
		}
	}
	return paths, true
}

// xyPhases reduces a code holding X or Y to XY, X or Y.
func xyPhases(code cim.PhaseCode) cim.PhaseCode {
	switch code {
	case cim.PhaseCodeXY, cim.PhaseCodeXYN:
		return cim.PhaseCodeXY
	case cim.PhaseCodeX, cim.PhaseCodeXN:
		return cim.PhaseCodeX
	case cim.PhaseCodeY, cim.PhaseCodeYN:
		return cim.PhaseCodeY
	default:
		return cim.PhaseCodeNone
	}
}

// primaryPhases reduces a lettered code to its A, B and C phases.
func primaryPhases(code cim.PhaseCode) cim.PhaseCode {
	if !isLettered(code) {
		return cim.PhaseCodeNone
	}
	return code.WithoutNeutral()
}
