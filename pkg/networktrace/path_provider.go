package networktrace

import (
	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/connectivity"
)

// pathProvider works out the paths leaving the to terminal of a path.
//
// Equipment with special connectivity is handled separately:
//   - Busbars join everything on their node, so other terminals on the node
//     step onto the busbar and only the busbar steps onto the rest.
//   - An AcLineSegment with cuts or clamps is walked along its length. From
//     any terminal on the segment the walk stops at the next cut and picks up
//     the clamps passed on the way.
//   - A cut is stepped through like a switch and also walked along the
//     segment it sits on.
//   - A clamp is walked along its segment in both directions.
//
// Paths onto equipment that is out of service in the operators' state are
// dropped.
type pathProvider struct {
	state connectivity.State
}

// pathFactory builds a path from the current to terminal to next. It returns
// false when no phase connects them.
type pathFactory func(next *cim.Terminal, traversed *cim.AcLineSegment) (Path, bool)

type pathCollector struct {
	factory pathFactory
	paths   []Path
}

func (c *pathCollector) add(terminals []*cim.Terminal, traversed *cim.AcLineSegment) {
	for _, t := range terminals {
		if t == nil {
			continue
		}
		if p, ok := c.factory(t, traversed); ok {
			c.paths = append(c.paths, p)
		}
	}
}

func (pp pathProvider) nextPaths(path Path) ([]Path, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}

	c := &pathCollector{factory: plainFactory(path)}
	if len(path.NominalPhasePaths) > 0 {
		c.factory = phaseFactory(path)
	}

	switch eq := path.ToTerminal.Equipment().(type) {
	case *cim.AcLineSegment:
		pp.fromAcLineSegment(eq, path, c)
	case *cim.BusbarSection:
		fromBusbar(path, c)
	case *cim.Clamp:
		pp.fromClamp(eq, path, c)
	case *cim.Cut:
		pp.fromCut(eq, path, c)
	default:
		if path.TracedInternally() {
			externalPaths(path, c)
		} else {
			c.add(path.ToTerminal.OtherTerminals(), nil)
		}
	}

	result := make([]Path, 0, len(c.paths))
	for _, p := range c.paths {
		eq, err := p.ToEquipment()
		if err != nil {
			return nil, err
		}
		if pp.state.IsInService(eq) {
			result = append(result, p)
		}
	}
	return result, nil
}

func plainFactory(path Path) pathFactory {
	return func(next *cim.Terminal, traversed *cim.AcLineSegment) (Path, bool) {
		return NewPath(path.ToTerminal, next, traversed, nil), true
	}
}

// phaseFactory only follows the phases the path arrived on.
func phaseFactory(path Path) pathFactory {
	from := path.ToTerminal
	include := path.ToPhases()
	return func(next *cim.Terminal, traversed *cim.AcLineSegment) (Path, bool) {
		var r *connectivity.Result
		if from.Equipment() != nil && from.Equipment() == next.Equipment() {
			r = connectivity.InternalConnectivity(nil, from, next, include)
		} else {
			r = connectivity.TerminalConnectivity(from, next, include)
		}
		if !r.HasPaths() {
			return Path{}, false
		}
		return NewPath(from, next, traversed, r.NominalPhasePaths()), true
	}
}

func (pp pathProvider) fromAcLineSegment(segment *cim.AcLineSegment, path Path, c *pathCollector) {
	if path.TracedInternally() || path.DidTraverseAcLineSegment() {
		externalPaths(path, c)
		return
	}
	if path.ToTerminal.SequenceNumber() == 1 {
		c.add(pp.alongSegment(segment, path.ToTerminal, 0, true, true, 1), segment)
	} else {
		c.add(pp.alongSegment(segment, path.ToTerminal, segment.LengthOrMax(), false, true, 2), segment)
	}
}

func fromBusbar(path Path, c *pathCollector) {
	var terminals []*cim.Terminal
	for _, t := range path.ToTerminal.ConnectedTerminals() {
		if t == path.FromTerminal {
			continue
		}
		if _, busbar := t.Equipment().(*cim.BusbarSection); busbar {
			continue
		}
		terminals = append(terminals, t)
	}
	c.add(terminals, nil)
}

func (pp pathProvider) fromClamp(clamp *cim.Clamp, path Path, c *pathCollector) {
	if path.DidTraverseAcLineSegment() {
		externalPaths(path, c)
		return
	}
	if path.TracedInternally() {
		externalPaths(path, c)
	}

	segment := clamp.AcLineSegment()
	if segment == nil {
		return
	}
	length := clamp.LengthFromT1OrZero()
	towardsT1 := pp.alongSegment(segment, path.ToTerminal, length, false, false, 1)
	towardsT2 := pp.alongSegment(segment, path.ToTerminal, length, true, true, 1)

	seen := make(map[*cim.Terminal]bool, len(towardsT1))
	for _, t := range towardsT1 {
		seen[t] = true
	}
	c.add(towardsT1, segment)
	for _, t := range towardsT2 {
		if !seen[t] {
			c.add([]*cim.Terminal{t}, segment)
		}
	}
}

func (pp pathProvider) fromCut(cut *cim.Cut, path Path, c *pathCollector) {
	seq := path.ToTerminal.SequenceNumber()
	if path.DidTraverseAcLineSegment() {
		externalPaths(path, c)
	} else if segment := cut.AcLineSegment(); segment != nil {
		c.add(pp.alongSegment(segment, path.ToTerminal, cut.LengthFromT1OrZero(), seq != 1, false, seq), segment)
	}

	if path.TracedInternally() {
		externalPaths(path, c)
		return
	}
	other := 1
	if seq == 1 {
		other = 2
	}
	c.add([]*cim.Terminal{cut.Terminal(other)}, nil)
}

// externalPaths steps off the equipment onto the node. When a busbar is on
// the node only the busbar is stepped to.
func externalPaths(path Path, c *pathCollector) {
	to := path.ToTerminal
	if _, busbar := to.Equipment().(*cim.BusbarSection); busbar {
		fromBusbar(path, c)
		return
	}
	connected := to.ConnectedTerminals()
	if !to.HasConnectedBusbars() {
		c.add(connected, nil)
		return
	}
	var busbars []*cim.Terminal
	for _, t := range connected {
		if _, ok := t.Equipment().(*cim.BusbarSection); ok {
			busbars = append(busbars, t)
		}
	}
	c.add(busbars, nil)
}

// alongSegment returns the terminals reached walking along segment from a
// terminal on it, lengthFromT1 from terminal 1. Cuts and clamps without a
// position sit at the start of the segment. A clamp at the same position as
// a cut is treated as being on the terminal 1 side of the cut.
//
// The walk returns, in order: the cuts at the starting position (entered on
// sameSideTerminal), the clamps passed, then either the next cuts or the far
// end of the segment. When canStopAtSamePosition is set and a cut shares the
// starting position, the walk stops at that cut.
func (pp pathProvider) alongSegment(
	segment *cim.AcLineSegment,
	from *cim.Terminal,
	lengthFromT1 float64,
	towardsT2 bool,
	canStopAtSamePosition bool,
	sameSideTerminal int,
) []*cim.Terminal {
	if len(segment.Cuts()) == 0 && len(segment.Clamps()) == 0 {
		return from.OtherTerminals()
	}

	fromEq := from.Equipment()
	onSegment := func(eq cim.ConductingEquipment) bool {
		return eq != fromEq && pp.state.IsInService(eq)
	}
	var cuts []*cim.Cut
	for _, cut := range segment.Cuts() {
		if onSegment(cut) {
			cuts = append(cuts, cut)
		}
	}
	var clamps []*cim.Clamp
	for _, clamp := range segment.Clamps() {
		if onSegment(clamp) {
			clamps = append(clamps, clamp)
		}
	}

	var atSamePosition []*cim.Cut
	for _, cut := range cuts {
		if cut.LengthFromT1OrZero() == lengthFromT1 {
			atSamePosition = append(atSamePosition, cut)
		}
	}
	stopAtSamePosition := canStopAtSamePosition && len(atSamePosition) > 0

	nextCutLength, hasNextCut := lengthFromT1, stopAtSamePosition
	if !stopAtSamePosition {
		for _, cut := range cuts {
			l := cut.LengthFromT1OrZero()
			if towardsT2 && l > lengthFromT1 && (!hasNextCut || l < nextCutLength) {
				nextCutLength, hasNextCut = l, true
			}
			if !towardsT2 && l < lengthFromT1 && (!hasNextCut || l > nextCutLength) {
				nextCutLength, hasNextCut = l, true
			}
		}
	}

	var nextCuts []*cim.Cut
	if hasNextCut {
		for _, cut := range cuts {
			if cut.LengthFromT1OrZero() == nextCutLength {
				nextCuts = append(nextCuts, cut)
			}
		}
	}

	nextLength := 0.0
	switch {
	case hasNextCut:
		nextLength = nextCutLength
	case towardsT2:
		nextLength = segment.LengthOrMax()
	}

	_, fromSegment := fromEq.(*cim.AcLineSegment)
	passed := func(l float64) bool {
		switch {
		case fromSegment && towardsT2:
			return lengthFromT1 <= l && l <= nextLength
		case towardsT2:
			return lengthFromT1 < l && l <= nextLength
		case nextLength == 0 && len(nextCuts) == 0:
			return nextLength <= l && l <= lengthFromT1
		default:
			return lengthFromT1 >= l && l > nextLength
		}
	}

	var terminals []*cim.Terminal
	for _, cut := range atSamePosition {
		terminals = append(terminals, cut.Terminal(sameSideTerminal))
	}
	for _, clamp := range clamps {
		if passed(clamp.LengthFromT1OrZero()) {
			terminals = append(terminals, clamp.Terminal(1))
		}
	}
	if stopAtSamePosition {
		return terminals
	}

	nearSide, farEnd := 2, 1
	if towardsT2 {
		nearSide, farEnd = 1, 2
	}
	if len(nextCuts) == 0 {
		return append(terminals, segment.Terminal(farEnd))
	}
	for _, cut := range nextCuts {
		terminals = append(terminals, cut.Terminal(nearSide))
	}
	return terminals
}
