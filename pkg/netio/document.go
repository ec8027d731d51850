// Package netio reads and writes networks and their traced state.
//
// Networks are described by YAML documents. Traced phases and feeder
// directions are saved separately as snapshots so a traced network can be
// restored without tracing it again.
package netio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/validation"
)

// Document is the YAML form of a network.
type Document struct {
	Equipment   []EquipmentDoc  `yaml:"equipment" validate:"dive"`
	Substations []SubstationDoc `yaml:"substations,omitempty" validate:"dive"`
	Feeders     []FeederDoc     `yaml:"feeders,omitempty" validate:"dive"`
}

type EquipmentDoc struct {
	MRID              string   `yaml:"mrid" validate:"required,mrid"`
	Name              string   `yaml:"name,omitempty"`
	Kind              string   `yaml:"kind" validate:"required,equipmentkind"`
	InService         *bool    `yaml:"in_service,omitempty"`
	NormallyInService *bool    `yaml:"normally_in_service,omitempty"`
	NormallyOpen      string   `yaml:"normally_open,omitempty" validate:"omitempty,phasecode"`
	Open              string   `yaml:"open,omitempty" validate:"omitempty,phasecode"`
	Length            *float64 `yaml:"length,omitempty" validate:"omitempty,gte=0"`
	// Segment places a cut or clamp on the named AcLineSegment.
	Segment      string        `yaml:"segment,omitempty" validate:"omitempty,mrid"`
	LengthFromT1 *float64      `yaml:"length_from_t1,omitempty" validate:"omitempty,gte=0"`
	Terminals    []TerminalDoc `yaml:"terminals" validate:"dive"`
}

// TerminalDoc describes one terminal. Terminals sharing a node are connected.
type TerminalDoc struct {
	MRID     string `yaml:"mrid,omitempty" validate:"omitempty,mrid"`
	Sequence int    `yaml:"sequence,omitempty" validate:"gte=0"`
	Phases   string `yaml:"phases" validate:"required,phasecode"`
	Node     string `yaml:"node,omitempty" validate:"omitempty,mrid"`
}

type FeederDoc struct {
	MRID      string   `yaml:"mrid" validate:"required,mrid"`
	Name      string   `yaml:"name,omitempty"`
	Head      string   `yaml:"head" validate:"required,mrid"`
	Equipment []string `yaml:"equipment,omitempty" validate:"dive,mrid"`
}

type SubstationDoc struct {
	MRID      string   `yaml:"mrid" validate:"required,mrid"`
	Name      string   `yaml:"name,omitempty"`
	Equipment []string `yaml:"equipment,omitempty" validate:"dive,mrid"`
}

// LoadNetwork reads the network document at path.
func LoadNetwork(path string) (*cim.Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open network: %w", err)
	}
	defer f.Close()

	network, err := Decode(f)
	var de *DecodeError
	if errors.As(err, &de) {
		de.Source = path
	}
	return network, err
}

// Decode reads a network document. Unknown fields are rejected.
func Decode(r io.Reader) (*cim.Network, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, documentError("", errors.New("empty document"))
		}
		return nil, documentError("", err)
	}
	return doc.Network()
}

// Network validates the document and builds the network it describes.
func (d *Document) Network() (*cim.Network, error) {
	if err := validation.Struct(d); err != nil {
		return nil, documentError("", err)
	}

	network := cim.NewNetwork()
	segments := make(map[string]*cim.AcLineSegment)
	var onSegment []int

	for i := range d.Equipment {
		ed := &d.Equipment[i]
		eq, err := ed.build()
		if err != nil {
			return nil, documentError(ed.MRID, err)
		}
		if err := network.AddEquipment(eq); err != nil {
			return nil, documentError(ed.MRID, err)
		}
		for j, td := range ed.Terminals {
			if td.Node != "" {
				network.Connect(eq.Terminals()[j], td.Node)
			}
		}
		if seg, ok := eq.(*cim.AcLineSegment); ok {
			segments[ed.MRID] = seg
		}
		if ed.Segment != "" {
			onSegment = append(onSegment, i)
		}
	}

	for _, i := range onSegment {
		ed := &d.Equipment[i]
		seg, ok := segments[ed.Segment]
		if !ok {
			return nil, documentError(ed.MRID, fmt.Errorf("%w: segment %s", ErrUnknownReference, ed.Segment))
		}
		eq, _ := network.Equipment(ed.MRID)
		switch eq := eq.(type) {
		case *cim.Cut:
			seg.AddCut(eq)
			if ed.LengthFromT1 != nil {
				eq.SetLengthFromTerminal1(*ed.LengthFromT1)
			}
		case *cim.Clamp:
			seg.AddClamp(eq)
			if ed.LengthFromT1 != nil {
				eq.SetLengthFromTerminal1(*ed.LengthFromT1)
			}
		default:
			return nil, documentError(ed.MRID, errors.New("only cuts and clamps can be placed on a segment"))
		}
	}

	for _, sd := range d.Substations {
		sub := cim.NewSubstation(sd.MRID)
		sub.SetName(sd.Name)
		for _, mRID := range sd.Equipment {
			eq, err := network.Equipment(mRID)
			if err != nil {
				return nil, documentError(sd.MRID, fmt.Errorf("%w: equipment %s", ErrUnknownReference, mRID))
			}
			sub.AddEquipment(eq)
		}
		if err := network.AddSubstation(sub); err != nil {
			return nil, documentError(sd.MRID, err)
		}
	}

	for _, fd := range d.Feeders {
		head, err := network.Terminal(fd.Head)
		if err != nil {
			return nil, documentError(fd.MRID, fmt.Errorf("%w: head %s", ErrUnknownReference, fd.Head))
		}
		f := cim.NewFeeder(fd.MRID)
		f.SetName(fd.Name)
		f.SetNormalHeadTerminal(head)
		for _, mRID := range fd.Equipment {
			eq, err := network.Equipment(mRID)
			if err != nil {
				return nil, documentError(fd.MRID, fmt.Errorf("%w: equipment %s", ErrUnknownReference, mRID))
			}
			f.AddEquipment(eq)
		}
		if err := network.AddFeeder(f); err != nil {
			return nil, documentError(fd.MRID, err)
		}
	}
	return network, nil
}

func (ed *EquipmentDoc) build() (cim.ConductingEquipment, error) {
	eq, ok := cim.NewEquipment(cim.EquipmentKind(ed.Kind), ed.MRID)
	if !ok {
		return nil, fmt.Errorf("unknown equipment kind %q", ed.Kind)
	}
	if named, ok := eq.(interface{ SetName(string) }); ok {
		named.SetName(ed.Name)
	}
	if ed.InService != nil {
		eq.SetInService(*ed.InService)
	}
	if ed.NormallyInService != nil {
		eq.SetNormallyInService(*ed.NormallyInService)
	}

	if ed.NormallyOpen != "" || ed.Open != "" {
		sw, ok := eq.(cim.Switchable)
		if !ok {
			return nil, fmt.Errorf("%s cannot be opened", ed.Kind)
		}
		normallyOpen, _ := cim.ParsePhaseCode(ed.NormallyOpen)
		for _, p := range normallyOpen.SinglePhases() {
			sw.SetNormallyOpen(true, p)
		}
		open, _ := cim.ParsePhaseCode(ed.Open)
		for _, p := range open.SinglePhases() {
			sw.SetOpen(true, p)
		}
	}

	if ed.Length != nil {
		seg, ok := eq.(*cim.AcLineSegment)
		if !ok {
			return nil, fmt.Errorf("%s has no length", ed.Kind)
		}
		seg.SetLength(*ed.Length)
	}

	for i, td := range ed.Terminals {
		mRID := td.MRID
		if mRID == "" {
			mRID = fmt.Sprintf("%s-t%d", ed.MRID, i+1)
		}
		phases, _ := cim.ParsePhaseCode(td.Phases)
		t := cim.NewTerminal(mRID, phases)
		if td.Sequence > 0 {
			t.SetSequenceNumber(td.Sequence)
		}
		eq.AddTerminal(t)
	}
	return eq, nil
}

// Encode writes the network as a YAML document.
func Encode(w io.Writer, network *cim.Network) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(DocumentFrom(network)); err != nil {
		return fmt.Errorf("encode network: %w", err)
	}
	return enc.Close()
}

// DocumentFrom describes an existing network.
func DocumentFrom(network *cim.Network) *Document {
	doc := &Document{}
	for _, eq := range network.AllEquipment() {
		ed := EquipmentDoc{
			MRID: eq.MRID(),
			Name: eq.Name(),
			Kind: string(eq.Kind()),
		}
		if !eq.InService() {
			ed.InService = ptr(false)
		}
		if !eq.NormallyInService() {
			ed.NormallyInService = ptr(false)
		}
		if sw, ok := eq.(cim.Switchable); ok {
			ed.NormallyOpen = openPhases(sw.IsNormallyOpen)
			ed.Open = openPhases(sw.IsOpen)
		}
		switch eq := eq.(type) {
		case *cim.AcLineSegment:
			if length, ok := eq.Length(); ok {
				ed.Length = ptr(length)
			}
		case *cim.Cut:
			if eq.AcLineSegment() != nil {
				ed.Segment = eq.AcLineSegment().MRID()
				ed.LengthFromT1 = ptr(eq.LengthFromT1OrZero())
			}
		case *cim.Clamp:
			if eq.AcLineSegment() != nil {
				ed.Segment = eq.AcLineSegment().MRID()
				ed.LengthFromT1 = ptr(eq.LengthFromT1OrZero())
			}
		}
		for _, t := range eq.Terminals() {
			td := TerminalDoc{MRID: t.MRID(), Sequence: t.SequenceNumber(), Phases: t.Phases().String()}
			if cn := t.ConnectivityNode(); cn != nil {
				td.Node = cn.MRID()
			}
			ed.Terminals = append(ed.Terminals, td)
		}
		doc.Equipment = append(doc.Equipment, ed)
	}

	for _, sub := range network.Substations() {
		sd := SubstationDoc{MRID: sub.MRID(), Name: sub.Name()}
		for _, eq := range sub.Equipment() {
			sd.Equipment = append(sd.Equipment, eq.MRID())
		}
		doc.Substations = append(doc.Substations, sd)
	}

	for _, f := range network.Feeders() {
		fd := FeederDoc{MRID: f.MRID(), Name: f.Name()}
		if head := f.NormalHeadTerminal(); head != nil {
			fd.Head = head.MRID()
		}
		for _, eq := range f.Equipment() {
			fd.Equipment = append(fd.Equipment, eq.MRID())
		}
		doc.Feeders = append(doc.Feeders, fd)
	}
	return doc
}

func openPhases(isOpen func(cim.SinglePhaseKind) bool) string {
	var open []cim.SinglePhaseKind
	for _, p := range []cim.SinglePhaseKind{cim.PhaseA, cim.PhaseB, cim.PhaseC, cim.PhaseN} {
		if isOpen(p) {
			open = append(open, p)
		}
	}
	if len(open) == 0 {
		return ""
	}
	code, _ := cim.PhaseCodeFromSinglePhases(open)
	return code.String()
}

func ptr[T any](v T) *T { return &v }
