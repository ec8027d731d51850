package connectivity

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
)

var (
	ErrNotXYPhase       = errors.New("phase is not X or Y")
	ErrInvalidCandidate = errors.New("phase is not a valid candidate")
)

// XPriority and YPriority break ties between equally common candidates.
var (
	XPriority = []cim.SinglePhaseKind{cim.PhaseA, cim.PhaseB, cim.PhaseC}
	YPriority = []cim.SinglePhaseKind{cim.PhaseC, cim.PhaseB}
)

// IsBefore reports whether phase can sit on X when before sits on Y. NONE
// places no restriction.
func IsBefore(phase, before cim.SinglePhaseKind) bool {
	switch before {
	case cim.PhaseNone:
		return true
	case cim.PhaseB:
		return phase == cim.PhaseA
	case cim.PhaseC:
		return phase == cim.PhaseA || phase == cim.PhaseB
	default:
		return false
	}
}

// IsAfter reports whether phase can sit on Y when after sits on X.
func IsAfter(phase, after cim.SinglePhaseKind) bool {
	switch after {
	case cim.PhaseNone:
		return true
	case cim.PhaseA:
		return phase == cim.PhaseB || phase == cim.PhaseC
	case cim.PhaseB:
		return phase == cim.PhaseC
	default:
		return false
	}
}

// candidateCounts tallies candidates, remembering the order they were first
// seen so results do not depend on map iteration.
type candidateCounts struct {
	order  []cim.SinglePhaseKind
	counts map[cim.SinglePhaseKind]int
}

func (c *candidateCounts) add(phase cim.SinglePhaseKind) {
	if c.counts == nil {
		c.counts = make(map[cim.SinglePhaseKind]int)
	}
	if _, ok := c.counts[phase]; !ok {
		c.order = append(c.order, phase)
	}
	c.counts[phase]++
}

func (c *candidateCounts) len() int { return len(c.order) }

// XYCandidatePhasePaths collects evidence for which lettered phases sit on
// the X and Y phases of a terminal.
type XYCandidatePhasePaths struct {
	known      map[cim.SinglePhaseKind]cim.SinglePhaseKind
	candidates map[cim.SinglePhaseKind]*candidateCounts
}

func NewXYCandidatePhasePaths() *XYCandidatePhasePaths {
	return &XYCandidatePhasePaths{
		known: make(map[cim.SinglePhaseKind]cim.SinglePhaseKind),
		candidates: map[cim.SinglePhaseKind]*candidateCounts{
			cim.PhaseX: {},
			cim.PhaseY: {},
		},
	}
}

// AddKnown records a traced phase for X or Y. The first known phase wins.
func (c *XYCandidatePhasePaths) AddKnown(xy, known cim.SinglePhaseKind) error {
	if err := validateXY(xy); err != nil {
		return err
	}
	if _, ok := c.known[xy]; !ok {
		c.known[xy] = known
	}
	return nil
}

// AddCandidates records phases that could sit on X or Y. A candidate found
// along several paths should be added once per path. X accepts A, B or C and
// Y accepts B or C; nothing is recorded if any candidate is invalid.
func (c *XYCandidatePhasePaths) AddCandidates(xy cim.SinglePhaseKind, candidates ...cim.SinglePhaseKind) error {
	if err := validateXY(xy); err != nil {
		return err
	}
	for _, p := range candidates {
		valid := p == cim.PhaseB || p == cim.PhaseC || (xy == cim.PhaseX && p == cim.PhaseA)
		if !valid {
			return fmt.Errorf("%w: %s for %s", ErrInvalidCandidate, p, xy)
		}
	}
	for _, p := range candidates {
		c.candidates[xy].add(p)
	}
	return nil
}

func validateXY(phase cim.SinglePhaseKind) error {
	if phase != cim.PhaseX && phase != cim.PhaseY {
		return fmt.Errorf("%w: %s", ErrNotXYPhase, phase)
	}
	return nil
}

// CalculatePaths resolves X and Y. Known phases take preference, X always
// sits on a lower phase than Y, the most common candidate wins, and ties
// fall back to XPriority and YPriority. Unresolved phases map to NONE.
func (c *XYCandidatePhasePaths) CalculatePaths() map[cim.SinglePhaseKind]cim.SinglePhaseKind {
	paths := make(map[cim.SinglePhaseKind]cim.SinglePhaseKind, 2)

	knownX, hasX := c.known[cim.PhaseX]
	if hasX {
		paths[cim.PhaseX] = knownX
	}
	knownY, hasY := c.known[cim.PhaseY]
	if hasY && (!hasX || knownX != knownY) {
		paths[cim.PhaseY] = knownY
	} else {
		hasY = false
	}

	xCounts, yCounts := c.candidates[cim.PhaseX], c.candidates[cim.PhaseY]
	switch {
	case hasX && hasY:
	case hasX:
		paths[cim.PhaseY] = findCandidate(yCounts, YPriority, cim.PhaseNone, knownX)
	case hasY:
		paths[cim.PhaseX] = findCandidate(xCounts, XPriority, knownY, cim.PhaseNone)
	default:
		paths[cim.PhaseX], paths[cim.PhaseY] = processCandidates(xCounts, yCounts)
	}
	return paths
}

func processCandidates(xCounts, yCounts *candidateCounts) (x, y cim.SinglePhaseKind) {
	switch {
	case xCounts.len() == 0:
		return cim.PhaseNone, findCandidate(yCounts, YPriority, cim.PhaseNone, cim.PhaseNone)
	case xCounts.len() == 1:
		x = xCounts.order[0]
		return x, findCandidate(yCounts, YPriority, cim.PhaseNone, x)
	case yCounts.len() == 0:
		return findCandidate(xCounts, XPriority, cim.PhaseNone, cim.PhaseNone), cim.PhaseNone
	case yCounts.len() == 1:
		y = yCounts.order[0]
		return findCandidate(xCounts, XPriority, y, cim.PhaseNone), y
	}

	x = findCandidate(xCounts, XPriority, cim.PhaseNone, cim.PhaseNone)
	y = findCandidate(yCounts, YPriority, cim.PhaseNone, cim.PhaseNone)
	if IsBefore(x, y) {
		return x, y
	}

	xCount, yCount := xCounts.counts[x], yCounts.counts[y]
	switch {
	case xCount > yCount:
		return x, findCandidate(yCounts, YPriority, cim.PhaseNone, x)
	case yCount > xCount:
		return findCandidate(xCounts, XPriority, y, cim.PhaseNone), y
	}

	// Equally strong: keep whichever side loses less by moving the other.
	x2 := findCandidate(xCounts, XPriority, y, cim.PhaseNone)
	y2 := findCandidate(yCounts, YPriority, cim.PhaseNone, x)
	switch {
	case x2 == cim.PhaseNone:
		return x, y2
	case y2 == cim.PhaseNone:
		return x2, y
	case xCounts.counts[x2] > yCounts.counts[y2]:
		return x2, y
	default:
		return x, y2
	}
}

// findCandidate returns the most common candidate that sits before and
// after the given phases, breaking ties by priority.
func findCandidate(counts *candidateCounts, priority []cim.SinglePhaseKind, before, after cim.SinglePhaseKind) cim.SinglePhaseKind {
	best := 0
	var top []cim.SinglePhaseKind
	for _, phase := range counts.order {
		if !IsBefore(phase, before) || !IsAfter(phase, after) {
			continue
		}
		switch n := counts.counts[phase]; {
		case n > best:
			best = n
			top = append(top[:0], phase)
		case n == best:
			top = append(top, phase)
		}
	}

	switch len(top) {
	case 0:
		return cim.PhaseNone
	case 1:
		return top[0]
	}
	for _, phase := range priority {
		for _, candidate := range top {
			if candidate == phase {
				return candidate
			}
		}
	}
	return cim.PhaseNone
}
