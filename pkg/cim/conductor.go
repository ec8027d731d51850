package cim

import "math"

// AcLineSegment is a conductor. Cuts and clamps can be placed along it,
// positioned by their length from terminal 1.
type AcLineSegment struct {
	Equipment
	length *float64
	cuts   []*Cut
	clamps []*Clamp
}

func NewAcLineSegment(mRID string) *AcLineSegment {
	s := &AcLineSegment{}
	s.init(mRID, KindAcLineSegment, s)
	return s
}

// Length returns the segment length, if known.
func (s *AcLineSegment) Length() (float64, bool) {
	if s.length == nil {
		return 0, false
	}
	return *s.length, true
}

func (s *AcLineSegment) SetLength(length float64) {
	s.length = &length
}

// LengthOrMax returns the length, or the largest float when it is unknown.
func (s *AcLineSegment) LengthOrMax() float64 {
	if s.length == nil || *s.length == 0 {
		return math.MaxFloat64
	}
	return *s.length
}

func (s *AcLineSegment) Cuts() []*Cut     { return s.cuts }
func (s *AcLineSegment) Clamps() []*Clamp { return s.clamps }

// AddCut places the cut on the segment.
func (s *AcLineSegment) AddCut(c *Cut) {
	c.segment = s
	s.cuts = append(s.cuts, c)
}

// AddClamp places the clamp on the segment.
func (s *AcLineSegment) AddClamp(c *Clamp) {
	c.segment = s
	s.clamps = append(s.clamps, c)
}

// Cut is a switchable break in an AcLineSegment.
type Cut struct {
	Switch
	segment             *AcLineSegment
	lengthFromTerminal1 *float64
}

func NewCut(mRID string) *Cut {
	c := &Cut{}
	c.init(mRID, KindCut, c)
	return c
}

func (c *Cut) AcLineSegment() *AcLineSegment { return c.segment }

func (c *Cut) SetLengthFromTerminal1(length float64) { c.lengthFromTerminal1 = &length }

// LengthFromT1OrZero returns the position along the segment, defaulting to
// the start of the segment.
func (c *Cut) LengthFromT1OrZero() float64 {
	if c.lengthFromTerminal1 == nil {
		return 0
	}
	return *c.lengthFromTerminal1
}

// Clamp is a single terminal connection onto an AcLineSegment.
type Clamp struct {
	Equipment
	segment             *AcLineSegment
	lengthFromTerminal1 *float64
}

func NewClamp(mRID string) *Clamp {
	c := &Clamp{}
	c.init(mRID, KindClamp, c)
	return c
}

func (c *Clamp) AcLineSegment() *AcLineSegment { return c.segment }

func (c *Clamp) SetLengthFromTerminal1(length float64) { c.lengthFromTerminal1 = &length }

func (c *Clamp) LengthFromT1OrZero() float64 {
	if c.lengthFromTerminal1 == nil {
		return 0
	}
	return *c.lengthFromTerminal1
}
