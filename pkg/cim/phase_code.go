package cim

import "strings"

// PhaseCode lists the phases present on a terminal.
type PhaseCode uint8

const (
	PhaseCodeNone PhaseCode = iota
	PhaseCodeA
	PhaseCodeB
	PhaseCodeC
	PhaseCodeN
	PhaseCodeAB
	PhaseCodeAC
	PhaseCodeAN
	PhaseCodeBC
	PhaseCodeBN
	PhaseCodeCN
	PhaseCodeABC
	PhaseCodeABN
	PhaseCodeACN
	PhaseCodeBCN
	PhaseCodeABCN
	PhaseCodeX
	PhaseCodeXN
	PhaseCodeXY
	PhaseCodeXYN
	PhaseCodeY
	PhaseCodeYN
)

var phaseCodePhases = [...][]SinglePhaseKind{
	PhaseCodeNone: nil,
	PhaseCodeA:    {PhaseA},
	PhaseCodeB:    {PhaseB},
	PhaseCodeC:    {PhaseC},
	PhaseCodeN:    {PhaseN},
	PhaseCodeAB:   {PhaseA, PhaseB},
	PhaseCodeAC:   {PhaseA, PhaseC},
	PhaseCodeAN:   {PhaseA, PhaseN},
	PhaseCodeBC:   {PhaseB, PhaseC},
	PhaseCodeBN:   {PhaseB, PhaseN},
	PhaseCodeCN:   {PhaseC, PhaseN},
	PhaseCodeABC:  {PhaseA, PhaseB, PhaseC},
	PhaseCodeABN:  {PhaseA, PhaseB, PhaseN},
	PhaseCodeACN:  {PhaseA, PhaseC, PhaseN},
	PhaseCodeBCN:  {PhaseB, PhaseC, PhaseN},
	PhaseCodeABCN: {PhaseA, PhaseB, PhaseC, PhaseN},
	PhaseCodeX:    {PhaseX},
	PhaseCodeXN:   {PhaseX, PhaseN},
	PhaseCodeXY:   {PhaseX, PhaseY},
	PhaseCodeXYN:  {PhaseX, PhaseY, PhaseN},
	PhaseCodeY:    {PhaseY},
	PhaseCodeYN:   {PhaseY, PhaseN},
}

// SinglePhases returns the phases of the code in nominal order.
// The returned slice must not be modified.
func (c PhaseCode) SinglePhases() []SinglePhaseKind {
	if int(c) < len(phaseCodePhases) {
		return phaseCodePhases[c]
	}
	return nil
}

// NumPhases returns the number of phases in the code.
func (c PhaseCode) NumPhases() int {
	return len(c.SinglePhases())
}

// Contains reports whether the phase is part of the code.
func (c PhaseCode) Contains(phase SinglePhaseKind) bool {
	for _, p := range c.SinglePhases() {
		if p == phase {
			return true
		}
	}
	return false
}

// WithoutNeutral returns the code with any N phase removed.
func (c PhaseCode) WithoutNeutral() PhaseCode {
	if !c.Contains(PhaseN) {
		return c
	}
	phases := make([]SinglePhaseKind, 0, c.NumPhases())
	for _, p := range c.SinglePhases() {
		if p != PhaseN {
			phases = append(phases, p)
		}
	}
	code, _ := PhaseCodeFromSinglePhases(phases)
	return code
}

// String returns the concatenated phase letters, or NONE.
func (c PhaseCode) String() string {
	phases := c.SinglePhases()
	if len(phases) == 0 {
		return "NONE"
	}
	var sb strings.Builder
	for _, p := range phases {
		sb.WriteString(p.String())
	}
	return sb.String()
}

// PhaseCodeFromSinglePhases finds the code holding exactly the given phases,
// in any order. Duplicates are ignored.
func PhaseCodeFromSinglePhases(phases []SinglePhaseKind) (PhaseCode, bool) {
	var wanted [PhaseInvalid + 1]bool
	count := 0
	for _, p := range phases {
		if p > PhaseInvalid {
			return PhaseCodeNone, false
		}
		if !wanted[p] {
			wanted[p] = true
			count++
		}
	}
	if count == 0 {
		return PhaseCodeNone, true
	}

	for code := PhaseCodeA; int(code) < len(phaseCodePhases); code++ {
		candidate := phaseCodePhases[code]
		if len(candidate) != count {
			continue
		}
		match := true
		for _, p := range candidate {
			if !wanted[p] {
				match = false
				break
			}
		}
		if match {
			return code, true
		}
	}
	return PhaseCodeNone, false
}

// ParsePhaseCode converts a phase code name such as "ABCN" into a PhaseCode.
func ParsePhaseCode(s string) (PhaseCode, bool) {
	for code := PhaseCodeNone; int(code) < len(phaseCodePhases); code++ {
		if code.String() == s {
			return code, true
		}
	}
	return PhaseCodeNone, false
}

// PhaseCodeNames returns the names of every phase code.
func PhaseCodeNames() []string {
	names := make([]string, 0, len(phaseCodePhases))
	for code := PhaseCodeNone; int(code) < len(phaseCodePhases); code++ {
		names = append(names, code.String())
	}
	return names
}
