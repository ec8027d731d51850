package cim

import (
	"errors"
	"fmt"
)

// Builder assembles small networks. Errors are collected and reported by
// Build.
type Builder struct {
	network *Network
	errs    []error
}

func NewBuilder() *Builder {
	return &Builder{network: NewNetwork()}
}

// Add creates equipment of the given kind with numTerminals terminals, each
// carrying phases. Terminal mRIDs are "<mRID>-t<n>".
func (b *Builder) Add(kind EquipmentKind, mRID string, phases PhaseCode, numTerminals int) ConductingEquipment {
	eq, ok := NewEquipment(kind, mRID)
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("unknown equipment kind %q", kind))
		return nil
	}
	for i := 1; i <= numTerminals; i++ {
		eq.AddTerminal(NewTerminal(fmt.Sprintf("%s-t%d", eq.MRID(), i), phases))
	}
	if err := b.network.AddEquipment(eq); err != nil {
		b.errs = append(b.errs, err)
	}
	return eq
}

func (b *Builder) Source(mRID string, phases PhaseCode) *EnergySource {
	return b.Add(KindEnergySource, mRID, phases, 1).(*EnergySource)
}

func (b *Builder) Consumer(mRID string, phases PhaseCode) *EnergyConsumer {
	return b.Add(KindEnergyConsumer, mRID, phases, 1).(*EnergyConsumer)
}

func (b *Builder) Line(mRID string, phases PhaseCode) *AcLineSegment {
	return b.Add(KindAcLineSegment, mRID, phases, 2).(*AcLineSegment)
}

func (b *Builder) Breaker(mRID string, phases PhaseCode) *Breaker {
	return b.Add(KindBreaker, mRID, phases, 2).(*Breaker)
}

func (b *Builder) Junction(mRID string, phases PhaseCode, numTerminals int) *Junction {
	return b.Add(KindJunction, mRID, phases, numTerminals).(*Junction)
}

// Transformer creates a two winding transformer with the given phases on
// each side.
func (b *Builder) Transformer(mRID string, primary, secondary PhaseCode) *PowerTransformer {
	tx := b.Add(KindPowerTransformer, mRID, primary, 2).(*PowerTransformer)
	tx.Terminal(2).SetPhases(secondary)
	return tx
}

// Connect joins terminal fromSeq of from to terminal toSeq of to.
func (b *Builder) Connect(from ConductingEquipment, fromSeq int, to ConductingEquipment, toSeq int) *Builder {
	if from == nil || to == nil {
		b.errs = append(b.errs, errors.New("connect: missing equipment"))
		return b
	}
	t1, t2 := from.Terminal(fromSeq), to.Terminal(toSeq)
	if t1 == nil || t2 == nil {
		b.errs = append(b.errs, fmt.Errorf("connect: %s/%d to %s/%d: no such terminal", from.MRID(), fromSeq, to.MRID(), toSeq))
		return b
	}
	if err := b.network.ConnectTerminals(t1, t2); err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Feeder creates a feeder headed at the given terminal.
func (b *Builder) Feeder(mRID string, head *Terminal) *Feeder {
	f := NewFeeder(mRID)
	f.SetNormalHeadTerminal(head)
	if err := b.network.AddFeeder(f); err != nil {
		b.errs = append(b.errs, err)
	}
	return f
}

// Substation creates a substation holding the given equipment.
func (b *Builder) Substation(mRID string, equipment ...ConductingEquipment) *Substation {
	s := NewSubstation(mRID)
	for _, eq := range equipment {
		s.AddEquipment(eq)
	}
	if err := b.network.AddSubstation(s); err != nil {
		b.errs = append(b.errs, err)
	}
	return s
}

// Network returns the network built so far, without checking errors.
func (b *Builder) Network() *Network {
	return b.network
}

// Build returns the network, or every error recorded while building it.
func (b *Builder) Build() (*Network, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	return b.network, nil
}
