package cim

// SinglePhaseKind identifies a single conductor phase.
type SinglePhaseKind uint8

const (
	PhaseNone SinglePhaseKind = iota
	PhaseA
	PhaseB
	PhaseC
	PhaseN
	PhaseX
	PhaseY
	PhaseInvalid
)

var phaseKindNames = [...]string{"NONE", "A", "B", "C", "N", "X", "Y", "INVALID"}

// String returns the short name of the phase
func (p SinglePhaseKind) String() string {
	if int(p) < len(phaseKindNames) {
		return phaseKindNames[p]
	}
	return "INVALID"
}

// BitMask returns the bits used to record the phase in a PhaseStatus.
// Only A, B, C and N can be traced; everything else is 0.
func (p SinglePhaseKind) BitMask() uint16 {
	switch p {
	case PhaseA:
		return 0b0001
	case PhaseB:
		return 0b0010
	case PhaseC:
		return 0b0100
	case PhaseN:
		return 0b1000
	default:
		return 0
	}
}

// MaskIndex returns the nibble used for the phase when it is a nominal phase,
// or -1 if it can't be used as a nominal phase.
func (p SinglePhaseKind) MaskIndex() int {
	switch p {
	case PhaseA, PhaseX:
		return 0
	case PhaseB, PhaseY:
		return 1
	case PhaseC:
		return 2
	case PhaseN:
		return 3
	default:
		return -1
	}
}

// IsKnown reports whether the phase is one of A, B, C or N.
func (p SinglePhaseKind) IsKnown() bool {
	return p.BitMask() != 0
}

// IsUnknown reports whether the phase is one of the unlettered X or Y phases.
func (p SinglePhaseKind) IsUnknown() bool {
	return p == PhaseX || p == PhaseY
}

func phaseFromBits(bits uint16) SinglePhaseKind {
	switch bits {
	case 0b0001:
		return PhaseA
	case 0b0010:
		return PhaseB
	case 0b0100:
		return PhaseC
	case 0b1000:
		return PhaseN
	default:
		return PhaseNone
	}
}

// ParseSinglePhaseKind converts a short name back into a SinglePhaseKind.
func ParseSinglePhaseKind(s string) (SinglePhaseKind, bool) {
	for i, name := range phaseKindNames {
		if name == s {
			return SinglePhaseKind(i), true
		}
	}
	return PhaseInvalid, false
}

// NominalPhasePath defines how a nominal phase is wired between two terminals.
type NominalPhasePath struct {
	From SinglePhaseKind
	To   SinglePhaseKind
}

// Less orders paths by from phase, then to phase.
func (p NominalPhasePath) Less(other NominalPhasePath) bool {
	if p.From != other.From {
		return p.From < other.From
	}
	return p.To < other.To
}

func (p NominalPhasePath) String() string {
	return p.From.String() + "->" + p.To.String()
}
