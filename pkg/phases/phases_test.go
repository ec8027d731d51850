package phases

import (
	"context"
	"errors"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/metrics"
	"github.com/dd0wney/cluso-gridtrace/pkg/networktrace"
)

const (
	none = cim.PhaseNone
	a    = cim.PhaseA
	b    = cim.PhaseB
	c    = cim.PhaseC
)

// traced returns the phases traced on each nominal phase of t.
func traced(ops networktrace.NetworkStateOperators, t *cim.Terminal) []cim.SinglePhaseKind {
	status := ops.PhaseStatus(t)
	var out []cim.SinglePhaseKind
	for _, nominal := range t.Phases().SinglePhases() {
		out = append(out, status.Get(nominal))
	}
	return out
}

func tracedAll(ops networktrace.NetworkStateOperators, network *cim.Network) map[string][]cim.SinglePhaseKind {
	out := make(map[string][]cim.SinglePhaseKind, len(network.AllTerminals()))
	for _, t := range network.AllTerminals() {
		out[t.MRID()] = traced(ops, t)
	}
	return out
}

// newChain builds source -- breaker -- line -- consumer with the source on
// the given phases and everything else ABC.
func newChain(t *testing.T, sourcePhases cim.PhaseCode) (*cim.Network, *cim.Breaker) {
	t.Helper()
	bld := cim.NewBuilder()
	source := bld.Source("s", sourcePhases)
	breaker := bld.Breaker("b", cim.PhaseCodeABC)
	line := bld.Line("l", cim.PhaseCodeABC)
	consumer := bld.Consumer("c", cim.PhaseCodeABC)
	bld.Connect(source, 1, breaker, 1).
		Connect(breaker, 2, line, 1).
		Connect(line, 2, consumer, 1)
	network, err := bld.Build()
	require.NoError(t, err)
	return network, breaker
}

func TestSetPhases_SourceThroughLine(t *testing.T) {
	network, _ := newChain(t, cim.PhaseCodeABC)
	ops := networktrace.NewNormalStateOperators()

	require.NoError(t, NewSetPhases(ops).Run(context.Background(), network))
	abc := []cim.SinglePhaseKind{a, b, c}
	for mRID, phases := range tracedAll(ops, network) {
		assert.Equal(t, abc, phases, mRID)
	}

	current := networktrace.NewCurrentStateOperators()
	for mRID, phases := range tracedAll(current, network) {
		assert.Equal(t, []cim.SinglePhaseKind{none, none, none}, phases, "%s current is untouched", mRID)
	}
}

func TestSetPhases_StopsAtOpenPhases(t *testing.T) {
	tests := []struct {
		name  string
		phase cim.SinglePhaseKind
		want  []cim.SinglePhaseKind
	}{
		{"all phases open", cim.PhaseNone, []cim.SinglePhaseKind{none, none, none}},
		{"B open", cim.PhaseB, []cim.SinglePhaseKind{a, none, c}},
		{"C open", cim.PhaseC, []cim.SinglePhaseKind{a, b, none}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			network, breaker := newChain(t, cim.PhaseCodeABC)
			breaker.SetNormallyOpen(true, tt.phase)
			normal, current := networktrace.NewNormalStateOperators(), networktrace.NewCurrentStateOperators()

			require.NoError(t, NewSetPhases(normal).Run(context.Background(), network))
			require.NoError(t, NewSetPhases(current).Run(context.Background(), network))

			assert.Equal(t, []cim.SinglePhaseKind{a, b, c}, traced(normal, breaker.Terminal(1)))
			assert.Equal(t, tt.want, traced(normal, breaker.Terminal(2)))
			consumer := network.AllTerminals()[len(network.AllTerminals())-1]
			assert.Equal(t, tt.want, traced(normal, consumer))
			assert.Equal(t, []cim.SinglePhaseKind{a, b, c}, traced(current, consumer), "the breaker is closed in the current state")
		})
	}
}

func TestSetPhases_FollowsSinglePhaseSources(t *testing.T) {
	network, _ := newChain(t, cim.PhaseCodeB)
	ops := networktrace.NewNormalStateOperators()

	require.NoError(t, NewSetPhases(ops).Run(context.Background(), network))
	assert.Equal(t, map[string][]cim.SinglePhaseKind{
		"s-t1": {b},
		"b-t1": {none, b, none},
		"b-t2": {none, b, none},
		"l-t1": {none, b, none},
		"l-t2": {none, b, none},
		"c-t1": {none, b, none},
	}, tracedAll(ops, network))
}

func TestSetPhases_UnletteredSourcesAreNotTraced(t *testing.T) {
	bld := cim.NewBuilder()
	source := bld.Source("s", cim.PhaseCodeXY)
	consumer := bld.Consumer("c", cim.PhaseCodeXY)
	bld.Connect(source, 1, consumer, 1)
	network, err := bld.Build()
	require.NoError(t, err)
	ops := networktrace.NewNormalStateOperators()

	require.NoError(t, NewSetPhases(ops).Run(context.Background(), network))
	assert.Equal(t, []cim.SinglePhaseKind{none, none}, traced(ops, source.Terminal(1)))
	assert.Equal(t, []cim.SinglePhaseKind{none, none}, traced(ops, consumer.Terminal(1)))
}

func TestSetPhases_RunWithPhases(t *testing.T) {
	network, breaker := newChain(t, cim.PhaseCodeABC)
	ops := networktrace.NewNormalStateOperators()
	start := network.AllTerminals()[0]

	err := NewSetPhases(ops).RunWithPhases(context.Background(), start, []cim.SinglePhaseKind{a, b})
	require.ErrorIs(t, err, ErrPhaseCount)
	assert.Equal(t, []cim.SinglePhaseKind{none, none, none}, traced(ops, start))

	require.NoError(t, NewSetPhases(ops).RunWithPhases(context.Background(), start, []cim.SinglePhaseKind{b, c, a}))
	assert.Equal(t, []cim.SinglePhaseKind{b, c, a}, traced(ops, breaker.Terminal(2)))
}

func TestSetPhases_RunTerminalSpreadsExistingPhases(t *testing.T) {
	network, breaker := newChain(t, cim.PhaseCodeABC)
	ops := networktrace.NewNormalStateOperators()
	status := ops.PhaseStatus(breaker.Terminal(2))
	for _, p := range []cim.SinglePhaseKind{a, b, c} {
		_, err := status.Set(p, p)
		require.NoError(t, err)
	}

	require.NoError(t, NewSetPhases(ops).RunTerminal(context.Background(), breaker.Terminal(2)))
	consumer := network.AllTerminals()[len(network.AllTerminals())-1]
	assert.Equal(t, []cim.SinglePhaseKind{a, b, c}, traced(ops, consumer))
	assert.Equal(t, []cim.SinglePhaseKind{none, none, none}, traced(ops, breaker.Terminal(1)), "start terminals only step off their equipment")
}

func TestSetPhases_SpreadPhases(t *testing.T) {
	network, breaker := newChain(t, cim.PhaseCodeABC)
	ops := networktrace.NewNormalStateOperators()
	set := NewSetPhases(ops)
	start := network.AllTerminals()[0]
	_, err := ops.PhaseStatus(start).Set(a, a)
	require.NoError(t, err)

	changed, err := set.SpreadPhases(start, breaker.Terminal(1))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []cim.SinglePhaseKind{a, none, none}, traced(ops, breaker.Terminal(1)))
	assert.Equal(t, []cim.SinglePhaseKind{none, none, none}, traced(ops, breaker.Terminal(2)), "nothing flows beyond the to terminal")

	changed, err = set.SpreadPhases(start, breaker.Terminal(1))
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = set.SpreadPhases(start, breaker.Terminal(2))
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSetPhases_CrossingPhases(t *testing.T) {
	bld := cim.NewBuilder()
	s1 := bld.Source("s1", cim.PhaseCodeA)
	line := bld.Line("l", cim.PhaseCodeA)
	s2 := bld.Source("s2", cim.PhaseCodeA)
	bld.Connect(s1, 1, line, 1).Connect(line, 2, s2, 1)
	_, err := bld.Build()
	require.NoError(t, err)

	ops := networktrace.NewNormalStateOperators()
	_, err = ops.PhaseStatus(line.Terminal(2)).Set(a, b)
	require.NoError(t, err)
	registry := metrics.NewRegistry()

	err = NewSetPhases(ops, WithMetrics(registry)).RunWithPhases(context.Background(), s1.Terminal(1), []cim.SinglePhaseKind{a})
	require.Error(t, err)

	var pe *PhaseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "normal", pe.State)
	assert.Same(t, line.Terminal(1), pe.From)
	assert.Same(t, line.Terminal(2), pe.To)
	assert.Equal(t, []cim.NominalPhasePath{{From: a, To: a}}, pe.Paths)
	assert.Equal(t, []cim.SinglePhaseKind{a}, pe.FromPhases)
	assert.Equal(t, []cim.SinglePhaseKind{b}, pe.ToPhases)
	assert.True(t, cim.IsCrossingPhases(err))
	assert.Contains(t, err.Error(), "l-t1")

	counter, err := registry.PhaseConflictsTotal.GetMetricWithLabelValues("normal")
	require.NoError(t, err)
	var m dto.Metric
	require.NoError(t, counter.Write(&m))
	assert.Equal(t, 1.0, m.GetCounter().GetValue())
	assert.Equal(t, []cim.SinglePhaseKind{none}, traced(ops, s2.Terminal(1)))
}

func TestSetPhases_CancelledContext(t *testing.T) {
	network, _ := newChain(t, cim.PhaseCodeABC)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewSetPhases(networktrace.NewNormalStateOperators()).Run(ctx, network)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRemovePhases_Run(t *testing.T) {
	network, _ := newChain(t, cim.PhaseCodeABC)
	normal, current := networktrace.NewNormalStateOperators(), networktrace.NewCurrentStateOperators()
	require.NoError(t, NewSetPhases(normal).Run(context.Background(), network))
	require.NoError(t, NewSetPhases(current).Run(context.Background(), network))

	removed, err := NewRemovePhases(normal).Run(context.Background(), network)
	require.NoError(t, err)
	assert.Equal(t, 6, removed)
	for mRID, phases := range tracedAll(normal, network) {
		assert.Equal(t, []cim.SinglePhaseKind{none, none, none}, phases, mRID)
	}
	assert.Equal(t, []cim.SinglePhaseKind{a, b, c}, traced(current, network.AllTerminals()[0]), "current state is untouched")

	removed, err = NewRemovePhases(normal).Run(context.Background(), network)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRemovePhases_RunTerminal(t *testing.T) {
	network, _ := newChain(t, cim.PhaseCodeABC)
	ops := networktrace.NewNormalStateOperators()
	require.NoError(t, NewSetPhases(ops).Run(context.Background(), network))

	start, err := network.Terminal("l-t1")
	require.NoError(t, err)
	removed, err := NewRemovePhases(ops).RunTerminal(context.Background(), start, cim.PhaseCodeB)
	require.NoError(t, err)
	assert.Equal(t, 4, removed)

	assert.Equal(t, map[string][]cim.SinglePhaseKind{
		"s-t1": {a, none, c},
		"b-t1": {a, none, c},
		"b-t2": {a, none, c},
		"l-t1": {a, none, c},
		"l-t2": {a, b, c},
		"c-t1": {a, b, c},
	}, tracedAll(ops, network))
}

// newTransformerChain builds an ABC source feeding a transformer that adds a
// neutral for an ABCN consumer.
func newTransformerChain(t *testing.T) *cim.Network {
	t.Helper()
	bld := cim.NewBuilder()
	source := bld.Source("s", cim.PhaseCodeABC)
	tx := bld.Transformer("tx", cim.PhaseCodeABC, cim.PhaseCodeABCN)
	consumer := bld.Consumer("c", cim.PhaseCodeABCN)
	bld.Connect(source, 1, tx, 1).Connect(tx, 2, consumer, 1)
	network, err := bld.Build()
	require.NoError(t, err)
	return network
}

func TestSetPhases_TransformerEnergisesAddedNeutral(t *testing.T) {
	network := newTransformerChain(t)
	ops := networktrace.NewNormalStateOperators()

	require.NoError(t, NewSetPhases(ops).Run(context.Background(), network))
	n := cim.PhaseN
	assert.Equal(t, map[string][]cim.SinglePhaseKind{
		"s-t1":  {a, b, c},
		"tx-t1": {a, b, c},
		"tx-t2": {a, b, c, n},
		"c-t1":  {a, b, c, n},
	}, tracedAll(ops, network))
}

func TestRemovePhases_TransformerAddedNeutral(t *testing.T) {
	n := cim.PhaseN
	tests := []struct {
		name    string
		phases  cim.PhaseCode
		removed int
		want    map[string][]cim.SinglePhaseKind
	}{
		{
			name:    "neutral stays while a winding is live",
			phases:  cim.PhaseCodeB,
			removed: 4,
			want: map[string][]cim.SinglePhaseKind{
				"s-t1":  {a, none, c},
				"tx-t1": {a, none, c},
				"tx-t2": {a, none, c, n},
				"c-t1":  {a, none, c, n},
			},
		},
		{
			name:    "neutral goes with the last winding",
			phases:  cim.PhaseCodeNone,
			removed: 4,
			want: map[string][]cim.SinglePhaseKind{
				"s-t1":  {none, none, none},
				"tx-t1": {none, none, none},
				"tx-t2": {none, none, none, none},
				"c-t1":  {none, none, none, none},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			network := newTransformerChain(t)
			ops := networktrace.NewNormalStateOperators()
			require.NoError(t, NewSetPhases(ops).Run(context.Background(), network))

			start, err := network.Terminal("s-t1")
			require.NoError(t, err)
			removed, err := NewRemovePhases(ops).RunTerminal(context.Background(), start, tt.phases)
			require.NoError(t, err)
			assert.Equal(t, tt.removed, removed)
			assert.Equal(t, tt.want, tracedAll(ops, network))
		})
	}
}

func TestPhaseInferrer_FillsMissingNominalPhases(t *testing.T) {
	bld := cim.NewBuilder()
	source := bld.Source("s", cim.PhaseCodeA)
	line := bld.Line("l", cim.PhaseCodeABC)
	consumer := bld.Consumer("c", cim.PhaseCodeABC)
	bld.Connect(source, 1, line, 1).Connect(line, 2, consumer, 1)
	network, err := bld.Build()
	require.NoError(t, err)
	ops := networktrace.NewNormalStateOperators()
	require.NoError(t, NewSetPhases(ops).Run(context.Background(), network))
	require.Equal(t, []cim.SinglePhaseKind{a, none, none}, traced(ops, consumer.Terminal(1)))

	registry := metrics.NewRegistry()
	inferred, err := NewPhaseInferrer(ops, WithMetrics(registry)).Run(context.Background(), network)
	require.NoError(t, err)

	require.Len(t, inferred, 1)
	assert.Same(t, line, inferred[0].Equipment)
	assert.Equal(t, "normal", inferred[0].State)
	assert.False(t, inferred[0].Suspect)
	for _, term := range []*cim.Terminal{line.Terminal(1), line.Terminal(2), consumer.Terminal(1)} {
		assert.Equal(t, []cim.SinglePhaseKind{a, b, c}, traced(ops, term), term.MRID())
	}

	counter, err := registry.PhasesInferredTotal.GetMetricWithLabelValues("normal", "false")
	require.NoError(t, err)
	var m dto.Metric
	require.NoError(t, counter.Write(&m))
	assert.Equal(t, 1.0, m.GetCounter().GetValue())
}

func TestPhaseInferrer_InfersUnletteredPhases(t *testing.T) {
	bld := cim.NewBuilder()
	source := bld.Source("s", cim.PhaseCodeA)
	consumer := bld.Consumer("c", cim.PhaseCodeXY)
	bld.Connect(source, 1, consumer, 1)
	network, err := bld.Build()
	require.NoError(t, err)
	ops := networktrace.NewNormalStateOperators()
	require.NoError(t, NewSetPhases(ops).Run(context.Background(), network))
	require.Equal(t, []cim.SinglePhaseKind{a, none}, traced(ops, consumer.Terminal(1)))

	inferred, err := NewPhaseInferrer(ops).Run(context.Background(), network)
	require.NoError(t, err)
	require.Len(t, inferred, 1)
	assert.Same(t, consumer, inferred[0].Equipment)
	assert.True(t, inferred[0].Suspect)
	assert.Equal(t, []cim.SinglePhaseKind{a, c}, traced(ops, consumer.Terminal(1)))
}

func TestPhaseInferrer_NothingMissing(t *testing.T) {
	network, _ := newChain(t, cim.PhaseCodeABC)
	ops := networktrace.NewNormalStateOperators()
	require.NoError(t, NewSetPhases(ops).Run(context.Background(), network))

	inferred, err := NewPhaseInferrer(ops).Run(context.Background(), network)
	require.NoError(t, err)
	assert.Empty(t, inferred)
}

func TestFirstUnused(t *testing.T) {
	always := func(cim.SinglePhaseKind) bool { return true }
	tests := []struct {
		name     string
		priority []cim.SinglePhaseKind
		used     map[cim.SinglePhaseKind]bool
		valid    func(cim.SinglePhaseKind) bool
		want     cim.SinglePhaseKind
	}{
		{"first free", []cim.SinglePhaseKind{a, b, c}, nil, always, a},
		{"skips used", []cim.SinglePhaseKind{a, b, c}, map[cim.SinglePhaseKind]bool{a: true}, always, b},
		{"skips invalid", []cim.SinglePhaseKind{c, b}, nil, func(p cim.SinglePhaseKind) bool { return p != c }, b},
		{"none left", []cim.SinglePhaseKind{c, b}, map[cim.SinglePhaseKind]bool{b: true, c: true}, always, none},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, firstUnused(tt.priority, tt.used, tt.valid))
		})
	}
}
