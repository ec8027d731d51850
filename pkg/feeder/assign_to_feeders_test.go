package feeder

import (
	"context"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/metrics"
	"github.com/dd0wney/cluso-gridtrace/pkg/networktrace"
)

func mRIDs(equipment []cim.ConductingEquipment) []string {
	out := make([]string, 0, len(equipment))
	for _, eq := range equipment {
		out = append(out, eq.MRID())
	}
	return out
}

type feederNetwork struct {
	network *cim.Network
	f1      *cim.Feeder
	sw      *cim.Breaker
	tx      *cim.PowerTransformer
}

// newFeederNetwork builds source s behind breaker b1, which heads f1. From
// b1 a line reaches junction j, which feeds consumer c1 through breaker sw
// and line l2, and consumer c2 through substation transformer tx.
func newFeederNetwork(t *testing.T) feederNetwork {
	t.Helper()
	b := cim.NewBuilder()
	source := b.Source("s", cim.PhaseCodeABC)
	b1 := b.Breaker("b1", cim.PhaseCodeABC)
	l1 := b.Line("l1", cim.PhaseCodeABC)
	j := b.Junction("j", cim.PhaseCodeABC, 3)
	sw := b.Breaker("sw", cim.PhaseCodeABC)
	l2 := b.Line("l2", cim.PhaseCodeABC)
	c1 := b.Consumer("c1", cim.PhaseCodeABC)
	tx := b.Transformer("tx", cim.PhaseCodeABC, cim.PhaseCodeABCN)
	c2 := b.Consumer("c2", cim.PhaseCodeABCN)
	b.Connect(source, 1, b1, 1).
		Connect(b1, 2, l1, 1).
		Connect(l1, 2, j, 1).
		Connect(j, 2, sw, 1).
		Connect(sw, 2, l2, 1).
		Connect(l2, 2, c1, 1).
		Connect(j, 3, tx, 1).
		Connect(tx, 2, c2, 1)
	f1 := b.Feeder("f1", b1.Terminal(2))
	b.Substation("zone", tx)
	network, err := b.Build()
	require.NoError(t, err)
	return feederNetwork{network: network, f1: f1, sw: sw, tx: tx}
}

func TestAssignToFeeders_Normal(t *testing.T) {
	n := newFeederNetwork(t)
	registry := metrics.NewRegistry()
	normal := networktrace.NewNormalStateOperators()

	require.NoError(t, NewAssignToFeeders(normal, WithMetrics(registry)).Run(context.Background(), n.network))

	assert.ElementsMatch(t, []string{"b1", "l1", "j", "sw", "l2", "c1"}, mRIDs(n.f1.Equipment()))
	assert.Empty(t, n.f1.CurrentEquipment(), "current membership is untouched")
	assert.Empty(t, n.tx.NormalFeeders(), "substation transformers are not assigned")
	source, err := n.network.Equipment("s")
	require.NoError(t, err)
	assert.Empty(t, source.NormalFeeders(), "nothing behind the head is assigned")

	counter, err := registry.FeederAssignmentsTotal.GetMetricWithLabelValues("normal")
	require.NoError(t, err)
	var m dto.Metric
	require.NoError(t, counter.Write(&m))
	assert.Equal(t, 5.0, m.GetCounter().GetValue(), "the head was already in the feeder")
}

func TestAssignToFeeders_CurrentStopsAtOpenSwitches(t *testing.T) {
	n := newFeederNetwork(t)
	n.sw.SetOpen(true, cim.PhaseNone)
	current := networktrace.NewCurrentStateOperators()

	require.NoError(t, NewAssignToFeeders(current).Run(context.Background(), n.network))

	assert.ElementsMatch(t, []string{"b1", "l1", "j", "sw"}, mRIDs(n.f1.CurrentEquipment()))
	assert.Equal(t, []*cim.Feeder{n.f1}, n.sw.CurrentFeeders(), "the open switch itself is fed")
	assert.ElementsMatch(t, []string{"b1"}, mRIDs(n.f1.Equipment()), "normal membership is untouched")
}

func TestAssignToFeeders_StopsAtOtherFeederHeads(t *testing.T) {
	n := newFeederNetwork(t)
	f2 := cim.NewFeeder("f2")
	f2.SetNormalHeadTerminal(n.sw.Terminal(2))
	require.NoError(t, n.network.AddFeeder(f2))
	normal := networktrace.NewNormalStateOperators()

	require.NoError(t, NewAssignToFeeders(normal).Run(context.Background(), n.network))

	assert.ElementsMatch(t, []string{"b1", "l1", "j", "sw"}, mRIDs(n.f1.Equipment()))
	assert.ElementsMatch(t, []string{"sw", "l2", "c1"}, mRIDs(f2.Equipment()))
	assert.ElementsMatch(t, []*cim.Feeder{n.f1, f2}, n.sw.NormalFeeders())
}

func TestAssignToFeeders_TransformerOutsideSubstation(t *testing.T) {
	b := cim.NewBuilder()
	breaker := b.Breaker("b", cim.PhaseCodeABC)
	tx := b.Transformer("tx", cim.PhaseCodeABC, cim.PhaseCodeABCN)
	consumer := b.Consumer("c", cim.PhaseCodeABCN)
	b.Connect(breaker, 2, tx, 1).Connect(tx, 2, consumer, 1)
	f := b.Feeder("f", breaker.Terminal(2))
	network, err := b.Build()
	require.NoError(t, err)

	require.NoError(t, NewAssignToFeeders(networktrace.NewNormalStateOperators()).Run(context.Background(), network))
	assert.ElementsMatch(t, []string{"b", "tx", "c"}, mRIDs(f.Equipment()))
}

func TestAssignToFeeders_CancelledContext(t *testing.T) {
	n := newFeederNetwork(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewAssignToFeeders(networktrace.NewNormalStateOperators()).Run(ctx, n.network)
	assert.ErrorIs(t, err, context.Canceled)
}
