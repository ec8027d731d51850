package networktrace

import (
	"testing"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
)

func TestStateOperators_KeepStatesApart(t *testing.T) {
	normal, current := NewNormalStateOperators(), NewCurrentStateOperators()
	breaker := cim.NewBreaker("b")
	term := breaker.AddTerminal(cim.NewTerminal("b1", cim.PhaseCodeABC))

	normal.SetOpen(breaker, true, cim.PhaseB)
	if !normal.IsOpen(breaker, cim.PhaseB) || !normal.IsOpen(breaker, cim.PhaseNone) {
		t.Error("normal state should see phase B open")
	}
	if normal.IsOpen(breaker, cim.PhaseA) {
		t.Error("phase A should still be closed")
	}
	if current.IsOpen(breaker, cim.PhaseNone) {
		t.Error("current state should be unaffected")
	}

	current.SetInService(breaker, false)
	if current.IsInService(breaker) || !normal.IsInService(breaker) {
		t.Error("in service flags should be independent")
	}

	normal.SetDirection(term, cim.DirectionUpstream)
	if got := current.Direction(term); got != cim.DirectionNone {
		t.Errorf("current direction = %v, want NONE", got)
	}

	if normal.Description() != "normal" || current.Description() != "current" {
		t.Errorf("descriptions = %q, %q", normal.Description(), current.Description())
	}
}

func TestStateOperators_NonSwitchesAreNeverOpen(t *testing.T) {
	ops := NewNormalStateOperators()
	if ops.IsOpen(cim.NewJunction("j"), cim.PhaseNone) {
		t.Error("a junction cannot be open")
	}
}

func TestStateOperators_DirectionUpdatesReportChanges(t *testing.T) {
	ops := NewNormalStateOperators()
	term := cim.NewTerminal("t", cim.PhaseCodeA)

	steps := []struct {
		name    string
		apply   func() bool
		changed bool
		want    cim.FeederDirection
	}{
		{"add upstream", func() bool { return ops.AddDirection(term, cim.DirectionUpstream) }, true, cim.DirectionUpstream},
		{"add upstream again", func() bool { return ops.AddDirection(term, cim.DirectionUpstream) }, false, cim.DirectionUpstream},
		{"add downstream", func() bool { return ops.AddDirection(term, cim.DirectionDownstream) }, true, cim.DirectionBoth},
		{"remove upstream", func() bool { return ops.RemoveDirection(term, cim.DirectionUpstream) }, true, cim.DirectionDownstream},
		{"remove upstream again", func() bool { return ops.RemoveDirection(term, cim.DirectionUpstream) }, false, cim.DirectionDownstream},
		{"set none", func() bool { return ops.SetDirection(term, cim.DirectionNone) }, true, cim.DirectionNone},
		{"set none again", func() bool { return ops.SetDirection(term, cim.DirectionNone) }, false, cim.DirectionNone},
	}
	for _, s := range steps {
		if got := s.apply(); got != s.changed {
			t.Errorf("%s: changed = %v, want %v", s.name, got, s.changed)
		}
		if got := ops.Direction(term); got != s.want {
			t.Errorf("%s: direction = %v, want %v", s.name, got, s.want)
		}
	}
}

func TestStateOperators_PhaseStatus(t *testing.T) {
	normal, current := NewNormalStateOperators(), NewCurrentStateOperators()
	term := cim.NewTerminal("t", cim.PhaseCodeAB)

	if _, err := normal.PhaseStatus(term).Set(cim.PhaseA, cim.PhaseA); err != nil {
		t.Fatal(err)
	}
	if got := normal.PhaseStatus(term).Get(cim.PhaseA); got != cim.PhaseA {
		t.Errorf("normal A = %v, want A", got)
	}
	if got := current.PhaseStatus(term).Get(cim.PhaseA); got != cim.PhaseNone {
		t.Errorf("current A = %v, want NONE", got)
	}
}

func TestStateOperators_FeederMembership(t *testing.T) {
	normal, current := NewNormalStateOperators(), NewCurrentStateOperators()
	j := cim.NewJunction("j")
	f1, f2 := cim.NewFeeder("f1"), cim.NewFeeder("f2")

	normal.AssignToFeeder(j, f1)
	current.AssignToFeeder(j, f2)
	current.AssignToFeeder(j, f2)

	if got := normal.Feeders(j); len(got) != 1 || got[0] != f1 {
		t.Errorf("normal feeders = %v, want [f1]", got)
	}
	if got := current.Feeders(j); len(got) != 1 || got[0] != f2 {
		t.Errorf("current feeders = %v, want [f2]", got)
	}
	if len(f1.CurrentEquipment()) != 0 || len(f2.Equipment()) != 0 {
		t.Error("normal and current membership should stay apart")
	}
}
