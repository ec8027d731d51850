package cim

// Switchable is implemented by equipment that can be opened. Open state is
// tracked per phase for both the normal and the current network state.
type Switchable interface {
	ConductingEquipment
	// IsNormallyOpen reports whether the phase is open in the normal state.
	// PhaseNone asks whether any phase is open.
	IsNormallyOpen(phase SinglePhaseKind) bool
	IsOpen(phase SinglePhaseKind) bool
	// SetNormallyOpen opens or closes the phase. PhaseNone applies to all phases.
	SetNormallyOpen(open bool, phase SinglePhaseKind)
	SetOpen(open bool, phase SinglePhaseKind)
}

const allPhaseBits uint8 = 0b1111

// Switch is the shared implementation of Switchable.
type Switch struct {
	Equipment
	normallyOpen uint8
	open         uint8
}

func (s *Switch) IsNormallyOpen(phase SinglePhaseKind) bool {
	return checkOpen(s.normallyOpen, phase)
}

func (s *Switch) IsOpen(phase SinglePhaseKind) bool {
	return checkOpen(s.open, phase)
}

func (s *Switch) SetNormallyOpen(open bool, phase SinglePhaseKind) {
	s.normallyOpen = applyOpen(s.normallyOpen, open, phase)
}

func (s *Switch) SetOpen(open bool, phase SinglePhaseKind) {
	s.open = applyOpen(s.open, open, phase)
}

func checkOpen(status uint8, phase SinglePhaseKind) bool {
	if phase == PhaseNone {
		return status != 0
	}
	idx := phase.MaskIndex()
	if idx < 0 {
		return false
	}
	return status&(1<<idx) != 0
}

func applyOpen(status uint8, open bool, phase SinglePhaseKind) uint8 {
	bits := allPhaseBits
	if phase != PhaseNone {
		idx := phase.MaskIndex()
		if idx < 0 {
			return status
		}
		bits = 1 << idx
	}
	if open {
		return status | bits
	}
	return status &^ bits
}

type Breaker struct{ Switch }
type Disconnector struct{ Switch }
type Fuse struct{ Switch }
type Jumper struct{ Switch }

func NewBreaker(mRID string) *Breaker {
	b := &Breaker{}
	b.init(mRID, KindBreaker, b)
	return b
}

func NewDisconnector(mRID string) *Disconnector {
	d := &Disconnector{}
	d.init(mRID, KindDisconnector, d)
	return d
}

func NewFuse(mRID string) *Fuse {
	f := &Fuse{}
	f.init(mRID, KindFuse, f)
	return f
}

func NewJumper(mRID string) *Jumper {
	j := &Jumper{}
	j.init(mRID, KindJumper, j)
	return j
}
