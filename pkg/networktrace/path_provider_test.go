package networktrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
)

// segmentNetwork is a 100m segment with a clamp at 20m and a cut at 40m.
// The source feeds terminal 1, one consumer hangs off terminal 2 and another
// off the clamp.
type segmentNetwork struct {
	source    *cim.EnergySource
	segment   *cim.AcLineSegment
	cut       *cim.Cut
	clamp     *cim.Clamp
	consumer  *cim.EnergyConsumer
	clampLoad *cim.EnergyConsumer
}

func newSegmentNetwork(t *testing.T) *segmentNetwork {
	t.Helper()
	b := cim.NewBuilder()
	s := &segmentNetwork{
		source:    b.Source("src", cim.PhaseCodeABC),
		segment:   b.Line("seg", cim.PhaseCodeABC),
		cut:       b.Add(cim.KindCut, "cut", cim.PhaseCodeABC, 2).(*cim.Cut),
		clamp:     b.Add(cim.KindClamp, "clamp", cim.PhaseCodeABC, 1).(*cim.Clamp),
		consumer:  b.Consumer("cons", cim.PhaseCodeABC),
		clampLoad: b.Consumer("cons2", cim.PhaseCodeABC),
	}
	s.segment.SetLength(100)
	s.cut.SetLengthFromTerminal1(40)
	s.clamp.SetLengthFromTerminal1(20)
	s.segment.AddCut(s.cut)
	s.segment.AddClamp(s.clamp)

	b.Connect(s.source, 1, s.segment, 1).
		Connect(s.segment, 2, s.consumer, 1).
		Connect(s.clamp, 1, s.clampLoad, 1)
	_, err := b.Build()
	require.NoError(t, err)
	return s
}

func toTerminals(paths []Path) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = p.ToTerminal.MRID()
	}
	return names
}

func TestNextPaths_SimpleChain(t *testing.T) {
	b := cim.NewBuilder()
	source := b.Source("s", cim.PhaseCodeABC)
	junction := b.Junction("j", cim.PhaseCodeABC, 3)
	b.Connect(source, 1, junction, 1)
	_, err := b.Build()
	require.NoError(t, err)
	ops := NewNormalStateOperators()

	start := NewPath(source.Terminal(1), source.Terminal(1), nil, nil)
	paths, err := ops.NextPaths(start)
	require.NoError(t, err)
	assert.Equal(t, []string{"j-t1"}, toTerminals(paths))

	paths, err = ops.NextPaths(paths[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"j-t2", "j-t3"}, toTerminals(paths))
	for _, p := range paths {
		assert.True(t, p.TracedInternally())
	}
}

func TestNextPaths_Busbar(t *testing.T) {
	b := cim.NewBuilder()
	busbar := b.Add(cim.KindBusbarSection, "bb", cim.PhaseCodeABC, 1)
	b1 := b.Breaker("b1", cim.PhaseCodeABC)
	b2 := b.Breaker("b2", cim.PhaseCodeABC)
	b.Connect(busbar, 1, b1, 1).Connect(busbar, 1, b2, 1)
	_, err := b.Build()
	require.NoError(t, err)
	ops := NewNormalStateOperators()

	paths, err := ops.NextPaths(NewPath(b1.Terminal(2), b1.Terminal(1), nil, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"bb-t1"}, toTerminals(paths), "only the busbar is stepped onto")

	paths, err = ops.NextPaths(NewPath(b1.Terminal(1), busbar.Terminal(1), nil, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"b2-t1"}, toTerminals(paths), "the busbar steps onto everything else")
}

func TestNextPaths_AlongSegment(t *testing.T) {
	s := newSegmentNetwork(t)
	ops := NewNormalStateOperators()

	tests := []struct {
		name      string
		path      Path
		want      []string
		traversed bool
	}{
		{
			name:      "into terminal 1",
			path:      NewPath(s.source.Terminal(1), s.segment.Terminal(1), nil, nil),
			want:      []string{"clamp-t1", "cut-t1"},
			traversed: true,
		},
		{
			name: "cut reached along the segment",
			path: NewPath(s.segment.Terminal(1), s.cut.Terminal(1), s.segment, nil),
			want: []string{"cut-t2"},
		},
		{
			name:      "through the cut",
			path:      NewPath(s.cut.Terminal(1), s.cut.Terminal(2), nil, nil),
			want:      []string{"seg-t2"},
			traversed: true,
		},
		{
			name:      "into terminal 2",
			path:      NewPath(s.consumer.Terminal(1), s.segment.Terminal(2), nil, nil),
			want:      []string{"cut-t2"},
			traversed: true,
		},
		{
			name:      "into the clamp",
			path:      NewPath(s.clampLoad.Terminal(1), s.clamp.Terminal(1), nil, nil),
			want:      []string{"seg-t1", "cut-t1"},
			traversed: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths, err := ops.NextPaths(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, toTerminals(paths))
			if tt.traversed {
				for _, p := range paths {
					assert.Same(t, s.segment, p.TraversedAcLineSegment)
				}
			}
		})
	}
}

func TestNextPaths_OutOfServiceEquipmentIsSkipped(t *testing.T) {
	s := newSegmentNetwork(t)
	normal, current := NewNormalStateOperators(), NewCurrentStateOperators()
	current.SetInService(s.cut, false)
	into := NewPath(s.source.Terminal(1), s.segment.Terminal(1), nil, nil)

	paths, err := normal.NextPaths(into)
	require.NoError(t, err)
	assert.Equal(t, []string{"clamp-t1", "cut-t1"}, toTerminals(paths))

	paths, err = current.NextPaths(into)
	require.NoError(t, err)
	assert.Equal(t, []string{"clamp-t1", "seg-t2"}, toTerminals(paths))
}

func TestNextPaths_FollowsTracedPhases(t *testing.T) {
	b := cim.NewBuilder()
	source := b.Source("s", cim.PhaseCodeABC)
	load := b.Consumer("a", cim.PhaseCodeA)
	other := b.Consumer("c", cim.PhaseCodeC)
	b.Connect(source, 1, load, 1).Connect(source, 1, other, 1)
	_, err := b.Build()
	require.NoError(t, err)
	ops := NewNormalStateOperators()

	start := NewPath(source.Terminal(1), source.Terminal(1), nil, []cim.NominalPhasePath{
		phasePath(cim.PhaseA, cim.PhaseA),
		phasePath(cim.PhaseB, cim.PhaseB),
	})
	paths, err := ops.NextPaths(start)
	require.NoError(t, err)
	require.Equal(t, []string{"a-t1"}, toTerminals(paths))
	assert.Equal(t, []cim.SinglePhaseKind{cim.PhaseA}, paths[0].ToPhases())
}

func TestNextPaths_InvalidPath(t *testing.T) {
	ops := NewNormalStateOperators()
	loose := cim.NewTerminal("loose", cim.PhaseCodeA)

	_, err := ops.NextPaths(NewPath(loose, loose, nil, nil))
	assert.ErrorIs(t, err, ErrInvalidState)
}
