package networktrace

import (
	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/connectivity"
)

// NetworkStateOperators reads and writes one state of the network, normal or
// current. Traces and conditions are written against this interface so the
// same trace definition works for either state.
type NetworkStateOperators interface {
	connectivity.State

	// Description names the state, "normal" or "current".
	Description() string

	// SetDirection replaces the direction of t, reporting whether it changed.
	SetDirection(t *cim.Terminal, d cim.FeederDirection) bool
	// AddDirection adds d to the direction of t, reporting whether it changed.
	AddDirection(t *cim.Terminal, d cim.FeederDirection) bool
	// RemoveDirection removes d from the direction of t, reporting whether it
	// changed.
	RemoveDirection(t *cim.Terminal, d cim.FeederDirection) bool

	SetOpen(sw cim.Switchable, open bool, phase cim.SinglePhaseKind)
	SetInService(eq cim.ConductingEquipment, inService bool)

	PhaseStatus(t *cim.Terminal) cim.PhaseStatus

	// Feeders returns the feeders energising eq in this state.
	Feeders(eq cim.ConductingEquipment) []*cim.Feeder
	// AssignToFeeder records eq as energised by f in this state.
	AssignToFeeder(eq cim.ConductingEquipment, f *cim.Feeder)

	// NextPaths returns the in-service paths leaving the to terminal of path.
	NextPaths(path Path) ([]Path, error)

	StopAtOpen() NetworkTraceQueueCondition
	Upstream() NetworkTraceQueueCondition
	Downstream() NetworkTraceQueueCondition
	WithDirection(d cim.FeederDirection) NetworkTraceQueueCondition
}

// StateOperators is the standard NetworkStateOperators, bound to either the
// normal or the current state.
type StateOperators struct {
	current  bool
	provider pathProvider
}

var _ NetworkStateOperators = (*StateOperators)(nil)

func NewNormalStateOperators() *StateOperators {
	ops := &StateOperators{}
	ops.provider = pathProvider{state: ops}
	return ops
}

func NewCurrentStateOperators() *StateOperators {
	ops := &StateOperators{current: true}
	ops.provider = pathProvider{state: ops}
	return ops
}

func (o *StateOperators) Description() string {
	if o.current {
		return "current"
	}
	return "normal"
}

// IsCurrent reports whether the operators work on the current state.
func (o *StateOperators) IsCurrent() bool { return o.current }

// IsOpen reports whether phase of eq is open. PhaseNone asks about any phase.
// Equipment that cannot be switched is never open.
func (o *StateOperators) IsOpen(eq cim.ConductingEquipment, phase cim.SinglePhaseKind) bool {
	sw, ok := eq.(cim.Switchable)
	if !ok {
		return false
	}
	if o.current {
		return sw.IsOpen(phase)
	}
	return sw.IsNormallyOpen(phase)
}

func (o *StateOperators) SetOpen(sw cim.Switchable, open bool, phase cim.SinglePhaseKind) {
	if o.current {
		sw.SetOpen(open, phase)
	} else {
		sw.SetNormallyOpen(open, phase)
	}
}

func (o *StateOperators) IsInService(eq cim.ConductingEquipment) bool {
	if o.current {
		return eq.InService()
	}
	return eq.NormallyInService()
}

func (o *StateOperators) SetInService(eq cim.ConductingEquipment, inService bool) {
	if o.current {
		eq.SetInService(inService)
	} else {
		eq.SetNormallyInService(inService)
	}
}

func (o *StateOperators) Direction(t *cim.Terminal) cim.FeederDirection {
	if o.current {
		return t.CurrentFeederDirection()
	}
	return t.NormalFeederDirection()
}

func (o *StateOperators) SetDirection(t *cim.Terminal, d cim.FeederDirection) bool {
	if o.Direction(t) == d {
		return false
	}
	if o.current {
		t.SetCurrentFeederDirection(d)
	} else {
		t.SetNormalFeederDirection(d)
	}
	return true
}

func (o *StateOperators) AddDirection(t *cim.Terminal, d cim.FeederDirection) bool {
	return o.SetDirection(t, o.Direction(t).Plus(d))
}

func (o *StateOperators) RemoveDirection(t *cim.Terminal, d cim.FeederDirection) bool {
	return o.SetDirection(t, o.Direction(t).Minus(d))
}

func (o *StateOperators) PhaseStatus(t *cim.Terminal) cim.PhaseStatus {
	if o.current {
		return t.CurrentPhases()
	}
	return t.NormalPhases()
}

func (o *StateOperators) Feeders(eq cim.ConductingEquipment) []*cim.Feeder {
	if o.current {
		return eq.CurrentFeeders()
	}
	return eq.NormalFeeders()
}

func (o *StateOperators) AssignToFeeder(eq cim.ConductingEquipment, f *cim.Feeder) {
	if o.current {
		f.AddCurrentEquipment(eq)
	} else {
		f.AddEquipment(eq)
	}
}

func (o *StateOperators) NextPaths(path Path) ([]Path, error) {
	return o.provider.nextPaths(path)
}

func (o *StateOperators) StopAtOpen() NetworkTraceQueueCondition {
	return StopAtOpen(o)
}

func (o *StateOperators) Upstream() NetworkTraceQueueCondition {
	return WithDirection(o, cim.DirectionUpstream)
}

func (o *StateOperators) Downstream() NetworkTraceQueueCondition {
	return WithDirection(o, cim.DirectionDownstream)
}

func (o *StateOperators) WithDirection(d cim.FeederDirection) NetworkTraceQueueCondition {
	return WithDirection(o, d)
}
