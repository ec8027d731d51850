package phases

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
)

var (
	// ErrPhaseCount is returned when the phases applied to a terminal do not
	// match its nominal phases one for one.
	ErrPhaseCount = errors.New("phase count does not match nominal phases")
	// ErrNotConnected is returned when spreading phases between terminals
	// that share neither equipment nor a connectivity node.
	ErrNotConnected = errors.New("terminals are not connected")
)

// PhaseError reports phases that could not flow between two terminals
// because the to terminal already carries a different phase.
type PhaseError struct {
	State string
	From  *cim.Terminal
	To    *cim.Terminal
	Paths []cim.NominalPhasePath
	// FromPhases and ToPhases hold the phases traced on each terminal for
	// the nominal phases of Paths, in path order.
	FromPhases []cim.SinglePhaseKind
	ToPhases   []cim.SinglePhaseKind
	Err        error
}

func newPhaseError(state string, from, to *cim.Terminal, paths []cim.NominalPhasePath, fromStatus, toStatus cim.PhaseStatus, err error) *PhaseError {
	pe := &PhaseError{
		State:      state,
		From:       from,
		To:         to,
		Paths:      paths,
		FromPhases: make([]cim.SinglePhaseKind, len(paths)),
		ToPhases:   make([]cim.SinglePhaseKind, len(paths)),
		Err:        err,
	}
	for i, p := range paths {
		pe.FromPhases[i] = fromStatus.Get(p.From)
		pe.ToPhases[i] = toStatus.Get(p.To)
	}
	return pe
}

func (e *PhaseError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s phases crossing from %s to %s:", e.State, e.From.MRID(), e.To.MRID())
	for i, p := range e.Paths {
		fmt.Fprintf(&sb, " %s[%s->%s]", p, e.FromPhases[i], e.ToPhases[i])
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}
