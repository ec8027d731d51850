// Package networktrace traces the terminals of a network model. It sits on
// top of the generic traversal engine and adds the network specifics: which
// terminal can be stepped to next, phase-aware paths, in-service filtering
// and the conditions used to shape a trace over either the normal or the
// current state of the network.
package networktrace

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/connectivity"
)

// ErrInvalidState is returned when a path refers to a terminal that does not
// belong to any equipment.
var ErrInvalidState = errors.New("invalid network state")

// Path is a single step between two terminals. A path between terminals of
// the same equipment is internal, anything else is external.
type Path struct {
	FromTerminal *cim.Terminal
	ToTerminal   *cim.Terminal
	// NominalPhasePaths is empty for traces that ignore phases.
	NominalPhasePaths []cim.NominalPhasePath
	// TraversedAcLineSegment is set when the path was found by walking along
	// the segment from a cut or clamp.
	TraversedAcLineSegment *cim.AcLineSegment
}

// NewPath builds a path. Phase paths are sorted and deduplicated.
func NewPath(from, to *cim.Terminal, traversed *cim.AcLineSegment, phasePaths []cim.NominalPhasePath) Path {
	var sorted []cim.NominalPhasePath
	if len(phasePaths) > 0 {
		sorted = connectivity.SortPaths(phasePaths)
	}
	return Path{
		FromTerminal:           from,
		ToTerminal:             to,
		NominalPhasePaths:      sorted,
		TraversedAcLineSegment: traversed,
	}
}

// FromEquipment returns the equipment owning the from terminal.
func (p Path) FromEquipment() (cim.ConductingEquipment, error) {
	return equipmentOf(p.FromTerminal)
}

// ToEquipment returns the equipment owning the to terminal.
func (p Path) ToEquipment() (cim.ConductingEquipment, error) {
	return equipmentOf(p.ToTerminal)
}

func equipmentOf(t *cim.Terminal) (cim.ConductingEquipment, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: path has a missing terminal", ErrInvalidState)
	}
	if t.Equipment() == nil {
		return nil, fmt.Errorf("%w: terminal %s has no equipment", ErrInvalidState, t.MRID())
	}
	return t.Equipment(), nil
}

// Validate checks both terminals belong to equipment.
func (p Path) Validate() error {
	if _, err := p.FromEquipment(); err != nil {
		return err
	}
	_, err := p.ToEquipment()
	return err
}

func (p Path) TracedInternally() bool {
	return p.FromTerminal.Equipment() == p.ToTerminal.Equipment()
}

func (p Path) TracedExternally() bool { return !p.TracedInternally() }

func (p Path) DidTraverseAcLineSegment() bool { return p.TraversedAcLineSegment != nil }

// ToPhases returns the phases the path arrives on at the to terminal.
func (p Path) ToPhases() []cim.SinglePhaseKind {
	phases := make([]cim.SinglePhaseKind, len(p.NominalPhasePaths))
	for i, pp := range p.NominalPhasePaths {
		phases[i] = pp.To
	}
	return phases
}

// NextNumEquipmentSteps returns the equipment step count after taking this
// path from a step that had taken n.
func (p Path) NextNumEquipmentSteps(n int) int {
	if p.TracedExternally() {
		return n + 1
	}
	return n
}

func (p Path) String() string {
	return fmt.Sprintf("%s -> %s %v", p.FromTerminal, p.ToTerminal, p.NominalPhasePaths)
}
