package networktrace

import (
	"errors"
	"slices"
	"testing"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
)

func phasePath(from, to cim.SinglePhaseKind) cim.NominalPhasePath {
	return cim.NominalPhasePath{From: from, To: to}
}

func TestNewPath_SortsPhasePaths(t *testing.T) {
	j := cim.NewJunction("j")
	t1 := j.AddTerminal(cim.NewTerminal("t1", cim.PhaseCodeABC))
	t2 := j.AddTerminal(cim.NewTerminal("t2", cim.PhaseCodeABC))

	p := NewPath(t1, t2, nil, []cim.NominalPhasePath{
		phasePath(cim.PhaseC, cim.PhaseC),
		phasePath(cim.PhaseA, cim.PhaseA),
		phasePath(cim.PhaseC, cim.PhaseC),
	})

	want := []cim.NominalPhasePath{phasePath(cim.PhaseA, cim.PhaseA), phasePath(cim.PhaseC, cim.PhaseC)}
	if !slices.Equal(p.NominalPhasePaths, want) {
		t.Errorf("NominalPhasePaths = %v, want %v", p.NominalPhasePaths, want)
	}
	if got := p.ToPhases(); !slices.Equal(got, []cim.SinglePhaseKind{cim.PhaseA, cim.PhaseC}) {
		t.Errorf("ToPhases() = %v", got)
	}
}

func TestPath_InternalAndExternal(t *testing.T) {
	j := cim.NewJunction("j")
	jt1 := j.AddTerminal(cim.NewTerminal("j1", cim.PhaseCodeA))
	jt2 := j.AddTerminal(cim.NewTerminal("j2", cim.PhaseCodeA))
	c := cim.NewEnergyConsumer("c")
	ct := c.AddTerminal(cim.NewTerminal("c1", cim.PhaseCodeA))

	internal := NewPath(jt1, jt2, nil, nil)
	if !internal.TracedInternally() || internal.TracedExternally() {
		t.Error("path within a junction should be internal")
	}
	if got := internal.NextNumEquipmentSteps(3); got != 3 {
		t.Errorf("internal NextNumEquipmentSteps(3) = %d, want 3", got)
	}
	if got := (&StepInfo{Path: internal}).Type(); got != StepInternal {
		t.Errorf("Type() = %v, want INTERNAL", got)
	}

	external := NewPath(jt2, ct, nil, nil)
	if !external.TracedExternally() {
		t.Error("path between equipment should be external")
	}
	if got := external.NextNumEquipmentSteps(3); got != 4 {
		t.Errorf("external NextNumEquipmentSteps(3) = %d, want 4", got)
	}
	if got := (&StepInfo{Path: external}).Type(); got != StepExternal {
		t.Errorf("Type() = %v, want EXTERNAL", got)
	}
	if external.DidTraverseAcLineSegment() {
		t.Error("no segment was traversed")
	}
}

func TestPath_ValidateRequiresEquipment(t *testing.T) {
	loose := cim.NewTerminal("loose", cim.PhaseCodeA)
	j := cim.NewJunction("j")
	jt := j.AddTerminal(cim.NewTerminal("j1", cim.PhaseCodeA))

	if err := NewPath(jt, jt, nil, nil).Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if err := NewPath(jt, loose, nil, nil).Validate(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Validate() = %v, want ErrInvalidState", err)
	}
	if _, err := NewPath(loose, jt, nil, nil).FromEquipment(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("FromEquipment() = %v, want ErrInvalidState", err)
	}
}

func TestStepType_Matches(t *testing.T) {
	tests := []struct {
		stepType StepType
		other    StepType
		want     bool
	}{
		{StepAll, StepInternal, true},
		{StepAll, StepExternal, true},
		{StepInternal, StepInternal, true},
		{StepInternal, StepExternal, false},
		{StepExternal, StepInternal, false},
		{StepExternal, StepExternal, true},
	}
	for _, tt := range tests {
		if got := tt.stepType.Matches(tt.other); got != tt.want {
			t.Errorf("%v.Matches(%v) = %v, want %v", tt.stepType, tt.other, got, tt.want)
		}
	}
}
