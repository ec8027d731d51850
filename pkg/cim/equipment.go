package cim

import (
	"github.com/google/uuid"
)

// IdentifiedObject is anything with a stable mRID.
type IdentifiedObject interface {
	MRID() string
	Name() string
}

// EquipmentKind names the concrete type of a piece of conducting equipment.
type EquipmentKind string

const (
	KindAcLineSegment    EquipmentKind = "AcLineSegment"
	KindBreaker          EquipmentKind = "Breaker"
	KindBusbarSection    EquipmentKind = "BusbarSection"
	KindClamp            EquipmentKind = "Clamp"
	KindCut              EquipmentKind = "Cut"
	KindDisconnector     EquipmentKind = "Disconnector"
	KindEnergyConsumer   EquipmentKind = "EnergyConsumer"
	KindEnergySource     EquipmentKind = "EnergySource"
	KindFuse             EquipmentKind = "Fuse"
	KindJumper           EquipmentKind = "Jumper"
	KindJunction         EquipmentKind = "Junction"
	KindPowerTransformer EquipmentKind = "PowerTransformer"
)

// EquipmentKinds lists every kind that can be constructed with NewEquipment.
var EquipmentKinds = []EquipmentKind{
	KindAcLineSegment, KindBreaker, KindBusbarSection, KindClamp, KindCut, KindDisconnector,
	KindEnergyConsumer, KindEnergySource, KindFuse, KindJumper, KindJunction, KindPowerTransformer,
}

// ConductingEquipment is a vertex of the network graph. It owns an ordered
// set of terminals.
type ConductingEquipment interface {
	IdentifiedObject
	Kind() EquipmentKind
	Terminals() []*Terminal
	// Terminal returns the terminal with the given sequence number, or nil.
	Terminal(sequenceNumber int) *Terminal
	NumTerminals() int
	AddTerminal(t *Terminal) *Terminal
	Containers() []EquipmentContainer
	AddContainer(c EquipmentContainer)
	NormalFeeders() []*Feeder
	CurrentFeeders() []*Feeder
	AddCurrentFeeder(f *Feeder)
	InService() bool
	SetInService(inService bool)
	NormallyInService() bool
	SetNormallyInService(inService bool)
}

// Equipment holds the state shared by every piece of conducting equipment.
// It is embedded by the concrete equipment types.
type Equipment struct {
	mRID              string
	name              string
	kind              EquipmentKind
	self              ConductingEquipment
	terminals         []*Terminal
	containers        []EquipmentContainer
	currentFeeders    []*Feeder
	inService         bool
	normallyInService bool
}

func (e *Equipment) init(mRID string, kind EquipmentKind, self ConductingEquipment) {
	if mRID == "" {
		mRID = uuid.NewString()
	}
	e.mRID = mRID
	e.kind = kind
	e.self = self
	e.inService = true
	e.normallyInService = true
}

func (e *Equipment) MRID() string        { return e.mRID }
func (e *Equipment) Name() string        { return e.name }
func (e *Equipment) SetName(name string) { e.name = name }
func (e *Equipment) Kind() EquipmentKind { return e.kind }

func (e *Equipment) Terminals() []*Terminal { return e.terminals }
func (e *Equipment) NumTerminals() int      { return len(e.terminals) }

func (e *Equipment) Terminal(sequenceNumber int) *Terminal {
	for _, t := range e.terminals {
		if t.sequenceNumber == sequenceNumber {
			return t
		}
	}
	return nil
}

// AddTerminal attaches the terminal to the equipment. Terminals without a
// sequence number are numbered in the order they are added.
func (e *Equipment) AddTerminal(t *Terminal) *Terminal {
	t.equipment = e.self
	if t.sequenceNumber == 0 {
		t.sequenceNumber = len(e.terminals) + 1
	}
	e.terminals = append(e.terminals, t)
	return t
}

func (e *Equipment) Containers() []EquipmentContainer { return e.containers }

func (e *Equipment) AddContainer(c EquipmentContainer) {
	for _, existing := range e.containers {
		if existing == c {
			return
		}
	}
	e.containers = append(e.containers, c)
}

// NormalFeeders returns the feeders containing the equipment.
func (e *Equipment) NormalFeeders() []*Feeder {
	var feeders []*Feeder
	for _, c := range e.containers {
		if f, ok := c.(*Feeder); ok {
			feeders = append(feeders, f)
		}
	}
	return feeders
}

func (e *Equipment) CurrentFeeders() []*Feeder { return e.currentFeeders }

func (e *Equipment) AddCurrentFeeder(f *Feeder) {
	for _, existing := range e.currentFeeders {
		if existing == f {
			return
		}
	}
	e.currentFeeders = append(e.currentFeeders, f)
}

func (e *Equipment) InService() bool                     { return e.inService }
func (e *Equipment) SetInService(inService bool)         { e.inService = inService }
func (e *Equipment) NormallyInService() bool             { return e.normallyInService }
func (e *Equipment) SetNormallyInService(inService bool) { e.normallyInService = inService }

// Junction is a point where conductors meet.
type Junction struct{ Equipment }

// BusbarSection is a single terminal conductor joining everything on its node.
type BusbarSection struct{ Equipment }

// EnergySource is a point where energy enters the network.
type EnergySource struct{ Equipment }

// EnergyConsumer is a load.
type EnergyConsumer struct{ Equipment }

// PowerTransformer steps voltage between its windings. Phases follow the
// winding connections between its terminal phase codes.
type PowerTransformer struct{ Equipment }

// InSubstation reports whether the transformer belongs to a substation.
func (t *PowerTransformer) InSubstation() bool {
	for _, c := range t.containers {
		if _, ok := c.(*Substation); ok {
			return true
		}
	}
	return false
}

func NewJunction(mRID string) *Junction {
	j := &Junction{}
	j.init(mRID, KindJunction, j)
	return j
}

func NewBusbarSection(mRID string) *BusbarSection {
	b := &BusbarSection{}
	b.init(mRID, KindBusbarSection, b)
	return b
}

func NewEnergySource(mRID string) *EnergySource {
	s := &EnergySource{}
	s.init(mRID, KindEnergySource, s)
	return s
}

func NewEnergyConsumer(mRID string) *EnergyConsumer {
	c := &EnergyConsumer{}
	c.init(mRID, KindEnergyConsumer, c)
	return c
}

func NewPowerTransformer(mRID string) *PowerTransformer {
	t := &PowerTransformer{}
	t.init(mRID, KindPowerTransformer, t)
	return t
}

// NewEquipment constructs equipment of the given kind. The second value is
// false for unknown kinds.
func NewEquipment(kind EquipmentKind, mRID string) (ConductingEquipment, bool) {
	switch kind {
	case KindAcLineSegment:
		return NewAcLineSegment(mRID), true
	case KindBreaker:
		return NewBreaker(mRID), true
	case KindBusbarSection:
		return NewBusbarSection(mRID), true
	case KindClamp:
		return NewClamp(mRID), true
	case KindCut:
		return NewCut(mRID), true
	case KindDisconnector:
		return NewDisconnector(mRID), true
	case KindEnergyConsumer:
		return NewEnergyConsumer(mRID), true
	case KindEnergySource:
		return NewEnergySource(mRID), true
	case KindFuse:
		return NewFuse(mRID), true
	case KindJumper:
		return NewJumper(mRID), true
	case KindJunction:
		return NewJunction(mRID), true
	case KindPowerTransformer:
		return NewPowerTransformer(mRID), true
	default:
		return nil, false
	}
}
