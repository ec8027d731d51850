package cim

import (
	"errors"
	"fmt"
)

// ErrAlreadyConnected is returned when two terminals already sit on different
// connectivity nodes.
var ErrAlreadyConnected = errors.New("terminals are connected to different nodes")

// Network is the registry of every object in a network model. It is not safe
// for concurrent mutation.
type Network struct {
	objects     map[string]IdentifiedObject
	equipment   []ConductingEquipment
	terminals   []*Terminal
	nodes       map[string]*ConnectivityNode
	nodeOrder   []*ConnectivityNode
	feeders     []*Feeder
	substations []*Substation
}

// NewNetwork creates an empty network.
func NewNetwork() *Network {
	return &Network{
		objects: make(map[string]IdentifiedObject),
		nodes:   make(map[string]*ConnectivityNode),
	}
}

func (n *Network) register(obj IdentifiedObject, kind string) error {
	if existing, ok := n.objects[obj.MRID()]; ok {
		if existing == obj {
			return nil
		}
		return NewError("add").Object(kind, obj.MRID()).Cause(ErrDuplicateMRID).Err()
	}
	n.objects[obj.MRID()] = obj
	return nil
}

// AddEquipment registers the equipment and all of its terminals.
func (n *Network) AddEquipment(eq ConductingEquipment) error {
	if existing, ok := n.objects[eq.MRID()]; ok && existing == IdentifiedObject(eq) {
		return nil
	}
	if err := n.register(eq, string(eq.Kind())); err != nil {
		return err
	}
	n.equipment = append(n.equipment, eq)
	for _, t := range eq.Terminals() {
		if err := n.AddTerminal(t); err != nil {
			return err
		}
	}
	return nil
}

// AddTerminal registers a terminal. Terminals added through AddEquipment are
// registered automatically.
func (n *Network) AddTerminal(t *Terminal) error {
	if existing, ok := n.objects[t.MRID()]; ok && existing == IdentifiedObject(t) {
		return nil
	}
	if err := n.register(t, "terminal"); err != nil {
		return err
	}
	n.terminals = append(n.terminals, t)
	return nil
}

// AddSubstation registers a substation.
func (n *Network) AddSubstation(s *Substation) error {
	if err := n.register(s, "substation"); err != nil {
		return err
	}
	n.substations = append(n.substations, s)
	return nil
}

func (n *Network) Substations() []*Substation { return n.substations }

// AddFeeder registers a feeder.
func (n *Network) AddFeeder(f *Feeder) error {
	if err := n.register(f, "feeder"); err != nil {
		return err
	}
	n.feeders = append(n.feeders, f)
	return nil
}

// Get returns the object with the given mRID.
func (n *Network) Get(mRID string) (IdentifiedObject, bool) {
	obj, ok := n.objects[mRID]
	return obj, ok
}

// Equipment returns the conducting equipment with the given mRID.
func (n *Network) Equipment(mRID string) (ConductingEquipment, error) {
	obj, ok := n.objects[mRID]
	if !ok {
		return nil, NotFoundError("equipment", mRID)
	}
	eq, ok := obj.(ConductingEquipment)
	if !ok {
		return nil, NewError("get").Object("equipment", mRID).Cause(ErrWrongType).Err()
	}
	return eq, nil
}

// Terminal returns the terminal with the given mRID.
func (n *Network) Terminal(mRID string) (*Terminal, error) {
	obj, ok := n.objects[mRID]
	if !ok {
		return nil, NotFoundError("terminal", mRID)
	}
	t, ok := obj.(*Terminal)
	if !ok {
		return nil, NewError("get").Object("terminal", mRID).Cause(ErrWrongType).Err()
	}
	return t, nil
}

// AllEquipment returns equipment in the order it was added.
func (n *Network) AllEquipment() []ConductingEquipment { return n.equipment }

// AllTerminals returns terminals in the order they were added.
func (n *Network) AllTerminals() []*Terminal { return n.terminals }

func (n *Network) Feeders() []*Feeder { return n.feeders }

func (n *Network) ConnectivityNodes() []*ConnectivityNode { return n.nodeOrder }

// EnergySources returns every energy source in the network.
func (n *Network) EnergySources() []*EnergySource {
	var sources []*EnergySource
	for _, eq := range n.equipment {
		if es, ok := eq.(*EnergySource); ok {
			sources = append(sources, es)
		}
	}
	return sources
}

// ConnectivityNode returns the node with the given mRID, creating it when
// needed.
func (n *Network) ConnectivityNode(mRID string) *ConnectivityNode {
	if cn, ok := n.nodes[mRID]; ok {
		return cn
	}
	cn := NewConnectivityNode(mRID)
	n.nodes[cn.MRID()] = cn
	n.nodeOrder = append(n.nodeOrder, cn)
	return cn
}

// Connect attaches the terminal to the named connectivity node, moving it off
// any node it was on.
func (n *Network) Connect(t *Terminal, nodeMRID string) *ConnectivityNode {
	cn := n.ConnectivityNode(nodeMRID)
	if t.node != nil && t.node != cn {
		t.node.detach(t)
	}
	cn.attach(t)
	return cn
}

// ConnectTerminals puts both terminals on the same connectivity node.
func (n *Network) ConnectTerminals(t1, t2 *Terminal) error {
	switch {
	case t1.node == nil && t2.node == nil:
		cn := n.ConnectivityNode("")
		cn.attach(t1)
		cn.attach(t2)
	case t1.node == nil:
		t2.node.attach(t1)
	case t2.node == nil:
		t1.node.attach(t2)
	case t1.node != t2.node:
		return NewError("connect").
			Object("terminal", t1.MRID()).
			Context(fmt.Sprintf("with %s", t2.MRID())).
			Cause(ErrAlreadyConnected).
			Err()
	}
	return nil
}

// Disconnect removes the terminal from its connectivity node.
func (n *Network) Disconnect(t *Terminal) {
	if t.node != nil {
		t.node.detach(t)
	}
}
