package networktrace

// StepType classifies a step by whether it stays on one piece of equipment.
type StepType int

const (
	StepAll StepType = iota
	StepInternal
	StepExternal
)

func (s StepType) String() string {
	switch s {
	case StepAll:
		return "ALL"
	case StepInternal:
		return "INTERNAL"
	case StepExternal:
		return "EXTERNAL"
	default:
		return "UNKNOWN"
	}
}

// Matches reports whether a step of type other is covered by s.
func (s StepType) Matches(other StepType) bool {
	return s == StepAll || s == other
}

// StepInfo is the part of a step that does not depend on the data carried
// by the trace. Conditions work on it so one condition serves every trace.
type StepInfo struct {
	Path              Path
	NumTerminalSteps  int
	NumEquipmentSteps int
}

// Type returns StepInternal or StepExternal, never StepAll.
func (s *StepInfo) Type() StepType {
	if s.Path.TracedInternally() {
		return StepInternal
	}
	return StepExternal
}

func (s *StepInfo) NextNumTerminalSteps() int { return s.NumTerminalSteps + 1 }

// Step is an item of a network trace.
type Step[T any] struct {
	StepInfo
	Data T
}

// NewStep builds a step.
func NewStep[T any](path Path, numTerminalSteps, numEquipmentSteps int, data T) *Step[T] {
	return &Step[T]{
		StepInfo: StepInfo{
			Path:              path,
			NumTerminalSteps:  numTerminalSteps,
			NumEquipmentSteps: numEquipmentSteps,
		},
		Data: data,
	}
}
