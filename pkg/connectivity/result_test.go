package connectivity

import (
	"slices"
	"testing"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
)

// normalState reads the normal state of the network.
type normalState struct{}

func (normalState) IsOpen(eq cim.ConductingEquipment, phase cim.SinglePhaseKind) bool {
	sw, ok := eq.(cim.Switchable)
	return ok && sw.IsNormallyOpen(phase)
}

func (normalState) IsInService(eq cim.ConductingEquipment) bool   { return eq.NormallyInService() }
func (normalState) Direction(t *cim.Terminal) cim.FeederDirection { return t.NormalFeederDirection() }

func path(from, to cim.SinglePhaseKind) cim.NominalPhasePath {
	return cim.NominalPhasePath{From: from, To: to}
}

func TestResult_EqualityIgnoresInputOrder(t *testing.T) {
	from := cim.NewTerminal("from", cim.PhaseCodeABC)
	to := cim.NewTerminal("to", cim.PhaseCodeABC)

	r1 := NewResult(from, to, []cim.NominalPhasePath{path(cim.PhaseC, cim.PhaseC), path(cim.PhaseA, cim.PhaseA), path(cim.PhaseB, cim.PhaseB)})
	r2 := NewResult(from, to, []cim.NominalPhasePath{path(cim.PhaseB, cim.PhaseB), path(cim.PhaseA, cim.PhaseA), path(cim.PhaseC, cim.PhaseC)})

	if !r1.Equal(r2) {
		t.Errorf("expected %v to equal %v", r1, r2)
	}
	if r1.Key() != r2.Key() {
		t.Errorf("keys differ: %q vs %q", r1.Key(), r2.Key())
	}

	set := map[string]*Result{r1.Key(): r1}
	if _, ok := set[r2.Key()]; !ok {
		t.Error("equal results should find each other by key")
	}
}

func TestResult_DifferentTerminalsAreNotEqual(t *testing.T) {
	a := cim.NewTerminal("a", cim.PhaseCodeA)
	b := cim.NewTerminal("b", cim.PhaseCodeA)
	paths := []cim.NominalPhasePath{path(cim.PhaseA, cim.PhaseA)}

	if NewResult(a, b, paths).Equal(NewResult(b, a, paths)) {
		t.Error("results over swapped terminals should differ")
	}
	if NewResult(a, b, paths).Equal(NewResult(a, b, nil)) {
		t.Error("results with different paths should differ")
	}
}

func TestResult_SortsAndDeduplicates(t *testing.T) {
	from := cim.NewTerminal("from", cim.PhaseCodeXYN)
	to := cim.NewTerminal("to", cim.PhaseCodeABCN)

	r := NewResult(from, to, []cim.NominalPhasePath{
		path(cim.PhaseY, cim.PhaseC),
		path(cim.PhaseN, cim.PhaseN),
		path(cim.PhaseX, cim.PhaseA),
		path(cim.PhaseN, cim.PhaseN),
	})

	wantFrom := []cim.SinglePhaseKind{cim.PhaseN, cim.PhaseX, cim.PhaseY}
	wantTo := []cim.SinglePhaseKind{cim.PhaseN, cim.PhaseA, cim.PhaseC}
	if got := r.FromNominalPhases(); !slices.Equal(got, wantFrom) {
		t.Errorf("FromNominalPhases() = %v, want %v", got, wantFrom)
	}
	if got := r.ToNominalPhases(); !slices.Equal(got, wantTo) {
		t.Errorf("ToNominalPhases() = %v, want %v", got, wantTo)
	}
}

func TestResult_InputSliceIsCopied(t *testing.T) {
	from := cim.NewTerminal("from", cim.PhaseCodeAB)
	to := cim.NewTerminal("to", cim.PhaseCodeAB)
	paths := []cim.NominalPhasePath{path(cim.PhaseA, cim.PhaseA), path(cim.PhaseB, cim.PhaseB)}

	r := NewResult(from, to, paths)
	paths[0] = path(cim.PhaseC, cim.PhaseC)

	if r.NominalPhasePaths()[0] != path(cim.PhaseA, cim.PhaseA) {
		t.Error("result should not share the caller's slice")
	}
}
