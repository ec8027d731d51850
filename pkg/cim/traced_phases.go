package cim

import "fmt"

var nominalPhaseMasks = [4]uint16{0x000f, 0x00f0, 0x0f00, 0xf000}

// StatusWord packs the traced phase of up to four nominal phases into 16 bits,
// 4 bits per nominal phase.
type StatusWord uint16

// Get returns the phase traced on the nominal phase.
func (w StatusWord) Get(nominal SinglePhaseKind) SinglePhaseKind {
	idx := nominal.MaskIndex()
	if idx < 0 {
		return PhaseNone
	}
	return phaseFromBits((uint16(w) >> (idx * 4)) & 0x0f)
}

// With returns a copy of the word with the nominal phase set to traced.
// Setting NONE clears the nibble.
func (w StatusWord) With(nominal SinglePhaseKind, traced SinglePhaseKind) StatusWord {
	idx := nominal.MaskIndex()
	if idx < 0 {
		return w
	}
	cleared := uint16(w) &^ nominalPhaseMasks[idx]
	return StatusWord(cleared | traced.BitMask()<<(idx*4))
}

const (
	normalMask   uint32 = 0x0000ffff
	currentShift        = 16
)

// TracedPhases holds the traced phase status words for the normal and the
// current state of the network. The normal word sits in the low 16 bits.
type TracedPhases struct {
	status uint32
}

// Raw returns the packed status for serialisation.
func (tp *TracedPhases) Raw() uint32 {
	return tp.status
}

// SetRaw replaces the packed status.
func (tp *TracedPhases) SetRaw(status uint32) {
	tp.status = status
}

func (tp *TracedPhases) word(current bool) StatusWord {
	if current {
		return StatusWord(tp.status >> currentShift)
	}
	return StatusWord(tp.status & normalMask)
}

func (tp *TracedPhases) setWord(current bool, w StatusWord) {
	if current {
		tp.status = (tp.status & normalMask) | uint32(w)<<currentShift
	} else {
		tp.status = (tp.status &^ normalMask) | uint32(w)
	}
}

func (tp *TracedPhases) String() string {
	format := func(w StatusWord) string {
		return fmt.Sprintf("%s, %s, %s, %s", w.Get(PhaseA), w.Get(PhaseB), w.Get(PhaseC), w.Get(PhaseN))
	}
	return fmt.Sprintf("TracedPhases(normal={%s}, current={%s})", format(tp.word(false)), format(tp.word(true)))
}

// PhaseStatus is a view over either the normal or the current traced phases
// of a single terminal.
type PhaseStatus struct {
	terminal *Terminal
	current  bool
}

// NormalPhases returns the normal phase status of the terminal.
func NormalPhases(t *Terminal) PhaseStatus {
	return PhaseStatus{terminal: t}
}

// CurrentPhases returns the current phase status of the terminal.
func CurrentPhases(t *Terminal) PhaseStatus {
	return PhaseStatus{terminal: t, current: true}
}

// Terminal returns the terminal the status belongs to.
func (s PhaseStatus) Terminal() *Terminal {
	return s.terminal
}

// Get returns the phase traced on the nominal phase, or NONE when the nominal
// phase is de-energised.
func (s PhaseStatus) Get(nominal SinglePhaseKind) SinglePhaseKind {
	return s.terminal.tracedPhases.word(s.current).Get(nominal)
}

// Set traces the phase onto the nominal phase. It reports whether anything
// changed. Only A, B, C, N and NONE can be traced. Replacing one energised
// phase with another fails with ErrUnsupportedOperation.
func (s PhaseStatus) Set(nominal, traced SinglePhaseKind) (bool, error) {
	if nominal.MaskIndex() < 0 {
		return false, NewError("set_phase").
			Object("terminal", s.terminal.MRID()).
			Cause(fmt.Errorf("%w: %s", ErrInvalidNominalPhase, nominal)).
			Err()
	}
	if traced != PhaseNone && !traced.IsKnown() {
		return false, NewError("set_phase").
			Object("terminal", s.terminal.MRID()).
			Cause(fmt.Errorf("%w: %s", ErrInvalidTracedPhase, traced)).
			Err()
	}

	tp := &s.terminal.tracedPhases
	w := tp.word(s.current)
	existing := w.Get(nominal)
	switch {
	case existing == traced:
		return false, nil
	case existing == PhaseNone || traced == PhaseNone:
		tp.setWord(s.current, w.With(nominal, traced))
		return true, nil
	default:
		return false, CrossingPhasesError(s.terminal.MRID(), nominal, existing, traced)
	}
}

// AsPhaseCode returns the traced phases as a PhaseCode. The second value is
// false when the traced phases are partial or do not form a code.
func (s PhaseStatus) AsPhaseCode() (PhaseCode, bool) {
	nominal := s.terminal.Phases().SinglePhases()
	traced := make([]SinglePhaseKind, 0, len(nominal))
	unique := make(map[SinglePhaseKind]struct{}, len(nominal))
	for _, p := range nominal {
		phase := s.Get(p)
		traced = append(traced, phase)
		unique[phase] = struct{}{}
	}

	if _, hasNone := unique[PhaseNone]; hasNone {
		if len(unique) == 1 {
			return PhaseCodeNone, true
		}
		return PhaseCodeNone, false
	}
	if len(unique) != len(traced) {
		return PhaseCodeNone, false
	}
	return PhaseCodeFromSinglePhases(traced)
}
