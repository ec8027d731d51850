package cim

import "github.com/google/uuid"

// EquipmentContainer groups equipment.
type EquipmentContainer interface {
	IdentifiedObject
	Equipment() []ConductingEquipment
	AddEquipment(eq ConductingEquipment)
}

// Feeder is the set of equipment energised from a single head terminal.
// Normal membership is the container relationship; current membership is
// tracked separately because switching can move equipment between feeders.
type Feeder struct {
	mRID             string
	name             string
	head             *Terminal
	equipment        []ConductingEquipment
	currentEquipment []ConductingEquipment
}

func NewFeeder(mRID string) *Feeder {
	if mRID == "" {
		mRID = uuid.NewString()
	}
	return &Feeder{mRID: mRID}
}

func (f *Feeder) MRID() string        { return f.mRID }
func (f *Feeder) Name() string        { return f.name }
func (f *Feeder) SetName(name string) { f.name = name }

func (f *Feeder) NormalHeadTerminal() *Terminal { return f.head }

// SetNormalHeadTerminal sets the head and adds its equipment to the feeder.
func (f *Feeder) SetNormalHeadTerminal(t *Terminal) {
	f.head = t
	if t != nil && t.Equipment() != nil {
		f.AddEquipment(t.Equipment())
	}
}

func (f *Feeder) Equipment() []ConductingEquipment { return f.equipment }

// AddEquipment puts the equipment in the feeder, linking both ways.
func (f *Feeder) AddEquipment(eq ConductingEquipment) {
	for _, existing := range f.equipment {
		if existing == eq {
			return
		}
	}
	f.equipment = append(f.equipment, eq)
	eq.AddContainer(f)
}

// CurrentEquipment returns the equipment energised by the feeder in the
// current state.
func (f *Feeder) CurrentEquipment() []ConductingEquipment { return f.currentEquipment }

// AddCurrentEquipment records the equipment as currently fed by the feeder,
// linking both ways.
func (f *Feeder) AddCurrentEquipment(eq ConductingEquipment) {
	for _, existing := range f.currentEquipment {
		if existing == eq {
			return
		}
	}
	f.currentEquipment = append(f.currentEquipment, eq)
	eq.AddCurrentFeeder(f)
}

// Substation groups the equipment of one substation. Feeder assignment does
// not pass through transformers inside a substation.
type Substation struct {
	mRID      string
	name      string
	equipment []ConductingEquipment
}

func NewSubstation(mRID string) *Substation {
	if mRID == "" {
		mRID = uuid.NewString()
	}
	return &Substation{mRID: mRID}
}

func (s *Substation) MRID() string        { return s.mRID }
func (s *Substation) Name() string        { return s.name }
func (s *Substation) SetName(name string) { s.name = name }

func (s *Substation) Equipment() []ConductingEquipment { return s.equipment }

func (s *Substation) AddEquipment(eq ConductingEquipment) {
	for _, existing := range s.equipment {
		if existing == eq {
			return
		}
	}
	s.equipment = append(s.equipment, eq)
	eq.AddContainer(s)
}
