package connectivity

import (
	"errors"
	"testing"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
)

func TestIsBeforeIsAfter(t *testing.T) {
	tests := []struct {
		phase, other cim.SinglePhaseKind
		before       bool
		after        bool
	}{
		{cim.PhaseA, cim.PhaseNone, true, true},
		{cim.PhaseA, cim.PhaseA, false, false},
		{cim.PhaseA, cim.PhaseB, true, false},
		{cim.PhaseA, cim.PhaseC, true, false},
		{cim.PhaseB, cim.PhaseA, false, true},
		{cim.PhaseB, cim.PhaseC, true, false},
		{cim.PhaseC, cim.PhaseA, false, true},
		{cim.PhaseC, cim.PhaseB, false, true},
		{cim.PhaseC, cim.PhaseC, false, false},
	}

	for _, tt := range tests {
		if got := IsBefore(tt.phase, tt.other); got != tt.before {
			t.Errorf("IsBefore(%v, %v) = %v, want %v", tt.phase, tt.other, got, tt.before)
		}
		if got := IsAfter(tt.phase, tt.other); got != tt.after {
			t.Errorf("IsAfter(%v, %v) = %v, want %v", tt.phase, tt.other, got, tt.after)
		}
	}
}

func TestXYCandidatePhasePaths_Validation(t *testing.T) {
	c := NewXYCandidatePhasePaths()

	if err := c.AddKnown(cim.PhaseA, cim.PhaseB); !errors.Is(err, ErrNotXYPhase) {
		t.Errorf("AddKnown(A) error = %v, want ErrNotXYPhase", err)
	}
	if err := c.AddCandidates(cim.PhaseN, cim.PhaseA); !errors.Is(err, ErrNotXYPhase) {
		t.Errorf("AddCandidates(N) error = %v, want ErrNotXYPhase", err)
	}
	if err := c.AddCandidates(cim.PhaseY, cim.PhaseB, cim.PhaseA); !errors.Is(err, ErrInvalidCandidate) {
		t.Errorf("AddCandidates(Y, A) error = %v, want ErrInvalidCandidate", err)
	}
	if err := c.AddCandidates(cim.PhaseX, cim.PhaseN); !errors.Is(err, ErrInvalidCandidate) {
		t.Errorf("AddCandidates(X, N) error = %v, want ErrInvalidCandidate", err)
	}

	// A rejected batch records nothing.
	paths := c.CalculatePaths()
	if paths[cim.PhaseX] != cim.PhaseNone || paths[cim.PhaseY] != cim.PhaseNone {
		t.Errorf("expected nothing resolved, got %v", paths)
	}
}

func TestXYCandidatePhasePaths_CalculatePaths(t *testing.T) {
	type candidates struct {
		xy     cim.SinglePhaseKind
		phases []cim.SinglePhaseKind
	}
	abc := []cim.SinglePhaseKind{cim.PhaseA, cim.PhaseB, cim.PhaseC}
	bc := []cim.SinglePhaseKind{cim.PhaseB, cim.PhaseC}

	tests := []struct {
		name       string
		known      [][2]cim.SinglePhaseKind
		candidates []candidates
		wantX      cim.SinglePhaseKind
		wantY      cim.SinglePhaseKind
	}{
		{
			name:  "known phases win",
			known: [][2]cim.SinglePhaseKind{{cim.PhaseX, cim.PhaseB}, {cim.PhaseY, cim.PhaseC}},
			candidates: []candidates{
				{cim.PhaseX, abc}, {cim.PhaseY, bc},
			},
			wantX: cim.PhaseB,
			wantY: cim.PhaseC,
		},
		{
			name:  "first known value is kept",
			known: [][2]cim.SinglePhaseKind{{cim.PhaseX, cim.PhaseA}, {cim.PhaseX, cim.PhaseC}, {cim.PhaseY, cim.PhaseB}},
			wantX: cim.PhaseA,
			wantY: cim.PhaseB,
		},
		{
			name:       "known Y equal to known X is ignored",
			known:      [][2]cim.SinglePhaseKind{{cim.PhaseX, cim.PhaseB}, {cim.PhaseY, cim.PhaseB}},
			candidates: []candidates{{cim.PhaseY, bc}},
			wantX:      cim.PhaseB,
			wantY:      cim.PhaseC,
		},
		{
			name:       "known Y limits X",
			known:      [][2]cim.SinglePhaseKind{{cim.PhaseY, cim.PhaseB}},
			candidates: []candidates{{cim.PhaseX, abc}},
			wantX:      cim.PhaseA,
			wantY:      cim.PhaseB,
		},
		{
			name:       "known X without Y candidates",
			known:      [][2]cim.SinglePhaseKind{{cim.PhaseX, cim.PhaseC}},
			candidates: []candidates{{cim.PhaseX, abc}},
			wantX:      cim.PhaseC,
			wantY:      cim.PhaseNone,
		},
		{
			name:       "priority breaks ties",
			candidates: []candidates{{cim.PhaseX, abc}, {cim.PhaseY, bc}},
			wantX:      cim.PhaseA,
			wantY:      cim.PhaseC,
		},
		{
			name:       "single X candidate limits Y",
			candidates: []candidates{{cim.PhaseX, []cim.SinglePhaseKind{cim.PhaseB}}, {cim.PhaseY, bc}},
			wantX:      cim.PhaseB,
			wantY:      cim.PhaseC,
		},
		{
			name:       "only Y candidates",
			candidates: []candidates{{cim.PhaseY, bc}, {cim.PhaseY, []cim.SinglePhaseKind{cim.PhaseB}}},
			wantX:      cim.PhaseNone,
			wantY:      cim.PhaseB,
		},
		{
			name: "stronger X keeps its phase",
			candidates: []candidates{
				{cim.PhaseX, []cim.SinglePhaseKind{cim.PhaseC, cim.PhaseC, cim.PhaseC, cim.PhaseA}},
				{cim.PhaseY, bc},
			},
			wantX: cim.PhaseC,
			wantY: cim.PhaseNone,
		},
		{
			name: "equal strength moves the side with an alternative",
			candidates: []candidates{
				{cim.PhaseX, []cim.SinglePhaseKind{cim.PhaseA, cim.PhaseC, cim.PhaseC}},
				{cim.PhaseY, []cim.SinglePhaseKind{cim.PhaseB, cim.PhaseB, cim.PhaseC}},
			},
			wantX: cim.PhaseA,
			wantY: cim.PhaseB,
		},
		{
			name:  "nothing known",
			wantX: cim.PhaseNone,
			wantY: cim.PhaseNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewXYCandidatePhasePaths()
			for _, k := range tt.known {
				if err := c.AddKnown(k[0], k[1]); err != nil {
					t.Fatalf("AddKnown: %v", err)
				}
			}
			for _, cand := range tt.candidates {
				if err := c.AddCandidates(cand.xy, cand.phases...); err != nil {
					t.Fatalf("AddCandidates: %v", err)
				}
			}

			paths := c.CalculatePaths()
			if paths[cim.PhaseX] != tt.wantX || paths[cim.PhaseY] != tt.wantY {
				t.Errorf("CalculatePaths() = X:%v Y:%v, want X:%v Y:%v",
					paths[cim.PhaseX], paths[cim.PhaseY], tt.wantX, tt.wantY)
			}
		})
	}
}
