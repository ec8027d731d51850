package cim

import (
	"github.com/google/uuid"
)

// Terminal is a connection point on a piece of conducting equipment. It
// carries the traced phases and feeder directions for both network states.
type Terminal struct {
	mRID             string
	equipment        ConductingEquipment
	sequenceNumber   int
	phases           PhaseCode
	node             *ConnectivityNode
	tracedPhases     TracedPhases
	normalDirection  FeederDirection
	currentDirection FeederDirection
}

// NewTerminal creates an unattached terminal. An empty mRID is replaced by a
// generated one.
func NewTerminal(mRID string, phases PhaseCode) *Terminal {
	if mRID == "" {
		mRID = uuid.NewString()
	}
	return &Terminal{mRID: mRID, phases: phases}
}

func (t *Terminal) MRID() string { return t.mRID }
func (t *Terminal) Name() string { return t.mRID }

// Equipment returns the owning equipment, or nil for a detached terminal.
func (t *Terminal) Equipment() ConductingEquipment { return t.equipment }

func (t *Terminal) SequenceNumber() int            { return t.sequenceNumber }
func (t *Terminal) SetSequenceNumber(sequence int) { t.sequenceNumber = sequence }
func (t *Terminal) Phases() PhaseCode              { return t.phases }
func (t *Terminal) SetPhases(phases PhaseCode)     { t.phases = phases }

func (t *Terminal) ConnectivityNode() *ConnectivityNode { return t.node }
func (t *Terminal) Connected() bool                     { return t.node != nil }

// TracedPhases exposes the packed phase status of the terminal.
func (t *Terminal) TracedPhases() *TracedPhases { return &t.tracedPhases }

func (t *Terminal) NormalPhases() PhaseStatus  { return NormalPhases(t) }
func (t *Terminal) CurrentPhases() PhaseStatus { return CurrentPhases(t) }

func (t *Terminal) NormalFeederDirection() FeederDirection      { return t.normalDirection }
func (t *Terminal) SetNormalFeederDirection(d FeederDirection)  { t.normalDirection = d }
func (t *Terminal) CurrentFeederDirection() FeederDirection     { return t.currentDirection }
func (t *Terminal) SetCurrentFeederDirection(d FeederDirection) { t.currentDirection = d }

// ConnectedTerminals returns the other terminals on the same connectivity node.
func (t *Terminal) ConnectedTerminals() []*Terminal {
	if t.node == nil {
		return nil
	}
	result := make([]*Terminal, 0, len(t.node.terminals)-1)
	for _, other := range t.node.terminals {
		if other != t {
			result = append(result, other)
		}
	}
	return result
}

// OtherTerminals returns the other terminals of the owning equipment.
func (t *Terminal) OtherTerminals() []*Terminal {
	if t.equipment == nil {
		return nil
	}
	terminals := t.equipment.Terminals()
	result := make([]*Terminal, 0, len(terminals))
	for _, other := range terminals {
		if other != t {
			result = append(result, other)
		}
	}
	return result
}

// IsFeederHeadTerminal reports whether the terminal is the head terminal of a
// feeder containing its equipment.
func (t *Terminal) IsFeederHeadTerminal() bool {
	if t.equipment == nil {
		return false
	}
	for _, c := range t.equipment.Containers() {
		if f, ok := c.(*Feeder); ok && f.NormalHeadTerminal() == t {
			return true
		}
	}
	return false
}

// HasConnectedBusbars reports whether a busbar sits on the same node.
func (t *Terminal) HasConnectedBusbars() bool {
	for _, other := range t.ConnectedTerminals() {
		if _, ok := other.equipment.(*BusbarSection); ok {
			return true
		}
	}
	return false
}

func (t *Terminal) String() string {
	if t.equipment == nil {
		return "Terminal{" + t.mRID + "}"
	}
	return "Terminal{" + t.mRID + " of " + t.equipment.MRID() + "}"
}

// ConnectivityNode is a zero impedance junction between terminals.
type ConnectivityNode struct {
	mRID      string
	terminals []*Terminal
}

func NewConnectivityNode(mRID string) *ConnectivityNode {
	if mRID == "" {
		mRID = uuid.NewString()
	}
	return &ConnectivityNode{mRID: mRID}
}

func (cn *ConnectivityNode) MRID() string           { return cn.mRID }
func (cn *ConnectivityNode) Name() string           { return cn.mRID }
func (cn *ConnectivityNode) Terminals() []*Terminal { return cn.terminals }

func (cn *ConnectivityNode) attach(t *Terminal) {
	for _, existing := range cn.terminals {
		if existing == t {
			return
		}
	}
	cn.terminals = append(cn.terminals, t)
	t.node = cn
}

func (cn *ConnectivityNode) detach(t *Terminal) {
	for i, existing := range cn.terminals {
		if existing == t {
			cn.terminals = append(cn.terminals[:i], cn.terminals[i+1:]...)
			break
		}
	}
	if t.node == cn {
		t.node = nil
	}
}
