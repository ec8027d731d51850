package connectivity

import "github.com/dd0wney/cluso-gridtrace/pkg/cim"

func winding(from, to cim.SinglePhaseKind) cim.NominalPhasePath {
	return cim.NominalPhasePath{From: from, To: to}
}

// addNeutral marks a neutral created by the transformer winding. It is
// energised whenever the transformer is.
var addNeutral = winding(cim.PhaseNone, cim.PhaseN)

// transformerPhasePaths maps the phases of one transformer terminal onto
// another, keyed by the from then the to terminal phase codes. A path from
// NONE is a phase the winding creates rather than passes through.
var transformerPhasePaths = map[cim.PhaseCode]map[cim.PhaseCode][]cim.NominalPhasePath{
	cim.PhaseCodeABCN: {
		cim.PhaseCodeABCN: {winding(cim.PhaseA, cim.PhaseA), winding(cim.PhaseB, cim.PhaseB), winding(cim.PhaseC, cim.PhaseC), winding(cim.PhaseN, cim.PhaseN)},
		cim.PhaseCodeABC:  {winding(cim.PhaseA, cim.PhaseA), winding(cim.PhaseB, cim.PhaseB), winding(cim.PhaseC, cim.PhaseC)},
	},
	cim.PhaseCodeAN: {
		cim.PhaseCodeAN: {winding(cim.PhaseA, cim.PhaseA), winding(cim.PhaseN, cim.PhaseN)},
		cim.PhaseCodeXN: {winding(cim.PhaseA, cim.PhaseX), winding(cim.PhaseN, cim.PhaseN)},
		cim.PhaseCodeAB: {winding(cim.PhaseA, cim.PhaseA), winding(cim.PhaseNone, cim.PhaseB)},
		cim.PhaseCodeXY: {winding(cim.PhaseA, cim.PhaseX), winding(cim.PhaseNone, cim.PhaseY)},
		cim.PhaseCodeX:  {winding(cim.PhaseA, cim.PhaseX)},
		cim.PhaseCodeA:  {winding(cim.PhaseA, cim.PhaseA)},
	},
	cim.PhaseCodeBN: {
		cim.PhaseCodeBN: {winding(cim.PhaseB, cim.PhaseB), winding(cim.PhaseN, cim.PhaseN)},
		cim.PhaseCodeXN: {winding(cim.PhaseB, cim.PhaseX), winding(cim.PhaseN, cim.PhaseN)},
		cim.PhaseCodeBC: {winding(cim.PhaseB, cim.PhaseB), winding(cim.PhaseNone, cim.PhaseC)},
		cim.PhaseCodeXY: {winding(cim.PhaseB, cim.PhaseX), winding(cim.PhaseNone, cim.PhaseY)},
		cim.PhaseCodeB:  {winding(cim.PhaseB, cim.PhaseB)},
		cim.PhaseCodeX:  {winding(cim.PhaseB, cim.PhaseX)},
	},
	cim.PhaseCodeCN: {
		cim.PhaseCodeCN: {winding(cim.PhaseC, cim.PhaseC), winding(cim.PhaseN, cim.PhaseN)},
		cim.PhaseCodeXN: {winding(cim.PhaseC, cim.PhaseX), winding(cim.PhaseN, cim.PhaseN)},
		cim.PhaseCodeAC: {winding(cim.PhaseC, cim.PhaseC), winding(cim.PhaseNone, cim.PhaseA)},
		cim.PhaseCodeXY: {winding(cim.PhaseC, cim.PhaseX), winding(cim.PhaseNone, cim.PhaseY)},
		cim.PhaseCodeC:  {winding(cim.PhaseC, cim.PhaseC)},
		cim.PhaseCodeX:  {winding(cim.PhaseC, cim.PhaseX)},
	},
	cim.PhaseCodeXN: {
		cim.PhaseCodeAN: {winding(cim.PhaseX, cim.PhaseA), winding(cim.PhaseN, cim.PhaseN)},
		cim.PhaseCodeBN: {winding(cim.PhaseX, cim.PhaseB), winding(cim.PhaseN, cim.PhaseN)},
		cim.PhaseCodeCN: {winding(cim.PhaseX, cim.PhaseC), winding(cim.PhaseN, cim.PhaseN)},
		cim.PhaseCodeXN: {winding(cim.PhaseX, cim.PhaseX), winding(cim.PhaseN, cim.PhaseN)},
		cim.PhaseCodeAB: {winding(cim.PhaseX, cim.PhaseA), winding(cim.PhaseNone, cim.PhaseB)},
		cim.PhaseCodeBC: {winding(cim.PhaseX, cim.PhaseB), winding(cim.PhaseNone, cim.PhaseC)},
		cim.PhaseCodeAC: {winding(cim.PhaseX, cim.PhaseC), winding(cim.PhaseNone, cim.PhaseA)},
		cim.PhaseCodeXY: {winding(cim.PhaseX, cim.PhaseX), winding(cim.PhaseNone, cim.PhaseY)},
		cim.PhaseCodeA:  {winding(cim.PhaseX, cim.PhaseA)},
		cim.PhaseCodeB:  {winding(cim.PhaseX, cim.PhaseB)},
		cim.PhaseCodeC:  {winding(cim.PhaseX, cim.PhaseC)},
		cim.PhaseCodeX:  {winding(cim.PhaseX, cim.PhaseX)},
	},
	cim.PhaseCodeABC: {
		cim.PhaseCodeABCN: {winding(cim.PhaseA, cim.PhaseA), winding(cim.PhaseB, cim.PhaseB), winding(cim.PhaseC, cim.PhaseC), addNeutral},
		cim.PhaseCodeABC:  {winding(cim.PhaseA, cim.PhaseA), winding(cim.PhaseB, cim.PhaseB), winding(cim.PhaseC, cim.PhaseC)},
	},
	cim.PhaseCodeAB: {
		cim.PhaseCodeAN: {winding(cim.PhaseA, cim.PhaseA), addNeutral},
		cim.PhaseCodeXN: {winding(cim.PhaseA, cim.PhaseX), addNeutral},
		cim.PhaseCodeAB: {winding(cim.PhaseA, cim.PhaseA), winding(cim.PhaseB, cim.PhaseB)},
		cim.PhaseCodeXY: {winding(cim.PhaseA, cim.PhaseX), winding(cim.PhaseB, cim.PhaseY)},
		cim.PhaseCodeA:  {winding(cim.PhaseA, cim.PhaseA)},
		cim.PhaseCodeX:  {winding(cim.PhaseA, cim.PhaseX)},
	},
	cim.PhaseCodeBC: {
		cim.PhaseCodeBN: {winding(cim.PhaseB, cim.PhaseB), addNeutral},
		cim.PhaseCodeXN: {winding(cim.PhaseB, cim.PhaseX), addNeutral},
		cim.PhaseCodeBC: {winding(cim.PhaseB, cim.PhaseB), winding(cim.PhaseC, cim.PhaseC)},
		cim.PhaseCodeXY: {winding(cim.PhaseB, cim.PhaseX), winding(cim.PhaseC, cim.PhaseY)},
		cim.PhaseCodeB:  {winding(cim.PhaseB, cim.PhaseB)},
		cim.PhaseCodeX:  {winding(cim.PhaseB, cim.PhaseX)},
	},
	cim.PhaseCodeAC: {
		cim.PhaseCodeCN: {winding(cim.PhaseC, cim.PhaseC), addNeutral},
		cim.PhaseCodeXN: {winding(cim.PhaseC, cim.PhaseX), addNeutral},
		cim.PhaseCodeAC: {winding(cim.PhaseA, cim.PhaseA), winding(cim.PhaseC, cim.PhaseC)},
		cim.PhaseCodeXY: {winding(cim.PhaseA, cim.PhaseX), winding(cim.PhaseC, cim.PhaseY)},
		cim.PhaseCodeC:  {winding(cim.PhaseC, cim.PhaseC)},
		cim.PhaseCodeX:  {winding(cim.PhaseC, cim.PhaseX)},
	},
	cim.PhaseCodeXY: {
		cim.PhaseCodeAN: {winding(cim.PhaseX, cim.PhaseA), addNeutral},
		cim.PhaseCodeBN: {winding(cim.PhaseX, cim.PhaseB), addNeutral},
		cim.PhaseCodeCN: {winding(cim.PhaseX, cim.PhaseC), addNeutral},
		cim.PhaseCodeXN: {winding(cim.PhaseX, cim.PhaseX), addNeutral},
		cim.PhaseCodeAB: {winding(cim.PhaseX, cim.PhaseA), winding(cim.PhaseY, cim.PhaseB)},
		cim.PhaseCodeBC: {winding(cim.PhaseX, cim.PhaseB), winding(cim.PhaseY, cim.PhaseC)},
		cim.PhaseCodeAC: {winding(cim.PhaseX, cim.PhaseA), winding(cim.PhaseY, cim.PhaseC)},
		cim.PhaseCodeXY: {winding(cim.PhaseX, cim.PhaseX), winding(cim.PhaseY, cim.PhaseY)},
		cim.PhaseCodeA:  {winding(cim.PhaseX, cim.PhaseA)},
		cim.PhaseCodeB:  {winding(cim.PhaseX, cim.PhaseB)},
		cim.PhaseCodeC:  {winding(cim.PhaseX, cim.PhaseC)},
		cim.PhaseCodeX:  {winding(cim.PhaseX, cim.PhaseX)},
	},
	cim.PhaseCodeA: {
		cim.PhaseCodeAN: {winding(cim.PhaseA, cim.PhaseA), addNeutral},
		cim.PhaseCodeXN: {winding(cim.PhaseA, cim.PhaseX), addNeutral},
		cim.PhaseCodeAB: {winding(cim.PhaseA, cim.PhaseA), winding(cim.PhaseNone, cim.PhaseB)},
		cim.PhaseCodeXY: {winding(cim.PhaseA, cim.PhaseX), winding(cim.PhaseNone, cim.PhaseY)},
		cim.PhaseCodeA:  {winding(cim.PhaseA, cim.PhaseA)},
		cim.PhaseCodeX:  {winding(cim.PhaseA, cim.PhaseX)},
	},
	cim.PhaseCodeB: {
		cim.PhaseCodeBN: {winding(cim.PhaseB, cim.PhaseB), addNeutral},
		cim.PhaseCodeXN: {winding(cim.PhaseB, cim.PhaseX), addNeutral},
		cim.PhaseCodeBC: {winding(cim.PhaseB, cim.PhaseB), winding(cim.PhaseNone, cim.PhaseC)},
		cim.PhaseCodeXY: {winding(cim.PhaseB, cim.PhaseX), winding(cim.PhaseNone, cim.PhaseY)},
		cim.PhaseCodeB:  {winding(cim.PhaseB, cim.PhaseB)},
		cim.PhaseCodeX:  {winding(cim.PhaseB, cim.PhaseX)},
	},
	cim.PhaseCodeC: {
		cim.PhaseCodeCN: {winding(cim.PhaseC, cim.PhaseC), addNeutral},
		cim.PhaseCodeXN: {winding(cim.PhaseC, cim.PhaseX), addNeutral},
		cim.PhaseCodeAC: {winding(cim.PhaseC, cim.PhaseC), winding(cim.PhaseNone, cim.PhaseA)},
		cim.PhaseCodeXY: {winding(cim.PhaseC, cim.PhaseX), winding(cim.PhaseNone, cim.PhaseY)},
		cim.PhaseCodeC:  {winding(cim.PhaseC, cim.PhaseC)},
		cim.PhaseCodeX:  {winding(cim.PhaseC, cim.PhaseX)},
	},
	cim.PhaseCodeX: {
		cim.PhaseCodeAN: {winding(cim.PhaseX, cim.PhaseA), addNeutral},
		cim.PhaseCodeBN: {winding(cim.PhaseX, cim.PhaseB), addNeutral},
		cim.PhaseCodeCN: {winding(cim.PhaseX, cim.PhaseC), addNeutral},
		cim.PhaseCodeXN: {winding(cim.PhaseX, cim.PhaseX), addNeutral},
		cim.PhaseCodeAB: {winding(cim.PhaseX, cim.PhaseA), winding(cim.PhaseNone, cim.PhaseB)},
		cim.PhaseCodeBC: {winding(cim.PhaseX, cim.PhaseB), winding(cim.PhaseNone, cim.PhaseC)},
		cim.PhaseCodeAC: {winding(cim.PhaseX, cim.PhaseC), winding(cim.PhaseNone, cim.PhaseA)},
		cim.PhaseCodeXY: {winding(cim.PhaseX, cim.PhaseX), winding(cim.PhaseNone, cim.PhaseY)},
		cim.PhaseCodeA:  {winding(cim.PhaseX, cim.PhaseA)},
		cim.PhaseCodeB:  {winding(cim.PhaseX, cim.PhaseB)},
		cim.PhaseCodeC:  {winding(cim.PhaseX, cim.PhaseC)},
		cim.PhaseCodeX:  {winding(cim.PhaseX, cim.PhaseX)},
	},
}

// TransformerPhasePaths returns the paths through a transformer winding from
// a terminal with the from phases to one with the to phases. The second
// value is false when the pair is not a known winding arrangement.
func TransformerPhasePaths(from, to cim.PhaseCode) ([]cim.NominalPhasePath, bool) {
	paths, ok := transformerPhasePaths[from][to]
	return paths, ok
}
