package cim

// FeederDirection classifies a terminal relative to the head of its feeder.
type FeederDirection uint8

const (
	DirectionNone       FeederDirection = 0
	DirectionUpstream   FeederDirection = 1
	DirectionDownstream FeederDirection = 2
	DirectionBoth       FeederDirection = 3
	DirectionConnector  FeederDirection = 4
)

var directionNames = [...]string{"NONE", "UPSTREAM", "DOWNSTREAM", "BOTH", "CONNECTOR"}

func (d FeederDirection) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "UNKNOWN"
}

// ParseFeederDirection converts a direction name back into a FeederDirection.
func ParseFeederDirection(s string) (FeederDirection, bool) {
	for i, name := range directionNames {
		if name == s {
			return FeederDirection(i), true
		}
	}
	return DirectionNone, false
}

// Contains reports whether other is covered by d. BOTH and CONNECTOR cover
// every direction other than NONE; everything else only covers itself.
func (d FeederDirection) Contains(other FeederDirection) bool {
	if d == DirectionBoth || d == DirectionConnector {
		return other != DirectionNone
	}
	return d == other
}

// Plus combines two directions. CONNECTOR absorbs everything.
func (d FeederDirection) Plus(other FeederDirection) FeederDirection {
	if d == DirectionConnector || other == DirectionConnector {
		return DirectionConnector
	}
	return d | other
}

// Minus removes other from d. Removing CONNECTOR leaves nothing, and removing
// anything but NONE or CONNECTOR from CONNECTOR leaves it unchanged.
func (d FeederDirection) Minus(other FeederDirection) FeederDirection {
	if other == DirectionConnector {
		return DirectionNone
	}
	if d == DirectionConnector {
		return DirectionConnector
	}
	return d &^ other
}

// Complementary returns the direction seen from the other side of a
// connection.
func (d FeederDirection) Complementary() FeederDirection {
	switch d {
	case DirectionUpstream:
		return DirectionDownstream
	case DirectionDownstream:
		return DirectionUpstream
	default:
		return d
	}
}
