package netio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
)

const sampleDocument = `
equipment:
  - mrid: src
    kind: EnergySource
    terminals:
      - phases: ABCN
        node: n1
  - mrid: brk
    kind: Breaker
    normally_open: B
    terminals:
      - phases: ABCN
        node: n1
      - phases: ABCN
        node: n2
  - mrid: line
    kind: AcLineSegment
    length: 120.5
    terminals:
      - phases: ABCN
        node: n2
      - phases: ABCN
        node: n3
  - mrid: cut
    kind: Cut
    segment: line
    length_from_t1: 40
    terminals:
      - phases: ABCN
      - phases: ABCN
  - mrid: load
    kind: EnergyConsumer
    in_service: false
    terminals:
      - mrid: load-supply
        phases: AN
        node: n3
substations:
  - mrid: zone
    name: Zone 1
    equipment: [src, brk]
feeders:
  - mrid: f1
    name: North
    head: brk-t1
    equipment: [line, load]
`

func TestDecode(t *testing.T) {
	network, err := Decode(strings.NewReader(sampleDocument))
	require.NoError(t, err)

	assert.Len(t, network.AllEquipment(), 5)
	assert.Len(t, network.AllTerminals(), 8)

	brk, err := network.Equipment("brk")
	require.NoError(t, err)
	sw := brk.(cim.Switchable)
	assert.True(t, sw.IsNormallyOpen(cim.PhaseB))
	assert.False(t, sw.IsNormallyOpen(cim.PhaseA))
	assert.False(t, sw.IsOpen(cim.PhaseB))

	src, err := network.Terminal("src-t1")
	require.NoError(t, err)
	brk1, err := network.Terminal("brk-t1")
	require.NoError(t, err)
	assert.Same(t, src.ConnectivityNode(), brk1.ConnectivityNode())
	assert.Equal(t, "n1", src.ConnectivityNode().MRID())

	lineEq, err := network.Equipment("line")
	require.NoError(t, err)
	line := lineEq.(*cim.AcLineSegment)
	length, ok := line.Length()
	assert.True(t, ok)
	assert.InDelta(t, 120.5, length, 1e-9)
	require.Len(t, line.Cuts(), 1)
	assert.Equal(t, "cut", line.Cuts()[0].MRID())
	assert.InDelta(t, 40, line.Cuts()[0].LengthFromT1OrZero(), 1e-9)

	load, err := network.Equipment("load")
	require.NoError(t, err)
	assert.False(t, load.InService())
	assert.True(t, load.NormallyInService())
	assert.Equal(t, cim.PhaseCodeAN, load.Terminal(1).Phases())
	assert.Equal(t, "load-supply", load.Terminal(1).MRID())

	require.Len(t, network.Feeders(), 1)
	feeder := network.Feeders()[0]
	assert.Equal(t, "North", feeder.Name())
	assert.Same(t, brk1, feeder.NormalHeadTerminal())
	assert.Len(t, feeder.Equipment(), 3)
	assert.True(t, brk1.IsFeederHeadTerminal())

	require.Len(t, network.Substations(), 1)
	zone := network.Substations()[0]
	assert.Equal(t, "Zone 1", zone.Name())
	assert.Len(t, zone.Equipment(), 2)
	assert.Contains(t, brk.Containers(), cim.EquipmentContainer(zone))
}

func TestEncode_RoundTrip(t *testing.T) {
	network, err := Decode(strings.NewReader(sampleDocument))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, network))

	reloaded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, DocumentFrom(network), DocumentFrom(reloaded))
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
		is      error
	}{
		{
			name:    "empty",
			doc:     "",
			wantErr: "empty document",
		},
		{
			name:    "unknown field",
			doc:     "equipment:\n  - mrid: a\n    kind: Junction\n    colour: red\n",
			wantErr: "colour",
		},
		{
			name:    "unknown kind",
			doc:     "equipment:\n  - mrid: a\n    kind: Transformer\n",
			wantErr: "unknown equipment kind",
		},
		{
			name:    "unknown phases",
			doc:     "equipment:\n  - mrid: a\n    kind: Junction\n    terminals:\n      - phases: ABD\n",
			wantErr: "unknown phase code",
		},
		{
			name:    "invalid mrid",
			doc:     "equipment:\n  - mrid: a b\n    kind: Junction\n",
			wantErr: "invalid characters",
		},
		{
			name:    "open line",
			doc:     "equipment:\n  - mrid: a\n    kind: AcLineSegment\n    open: A\n",
			wantErr: "cannot be opened",
		},
		{
			name:    "breaker length",
			doc:     "equipment:\n  - mrid: a\n    kind: Breaker\n    length: 3\n",
			wantErr: "has no length",
		},
		{
			name:    "unknown segment",
			doc:     "equipment:\n  - mrid: c\n    kind: Cut\n    segment: nowhere\n",
			wantErr: "segment nowhere",
			is:      ErrUnknownReference,
		},
		{
			name:    "breaker on segment",
			doc:     "equipment:\n  - mrid: l\n    kind: AcLineSegment\n  - mrid: b\n    kind: Breaker\n    segment: l\n",
			wantErr: "only cuts and clamps",
		},
		{
			name:    "unknown feeder head",
			doc:     "equipment:\n  - mrid: a\n    kind: Junction\nfeeders:\n  - mrid: f\n    head: a-t9\n",
			wantErr: "head a-t9",
			is:      ErrUnknownReference,
		},
		{
			name:    "unknown substation equipment",
			doc:     "equipment:\n  - mrid: a\n    kind: Junction\nsubstations:\n  - mrid: s\n    equipment: [b]\n",
			wantErr: "equipment b",
			is:      ErrUnknownReference,
		},
		{
			name:    "duplicate mrid",
			doc:     "equipment:\n  - mrid: a\n    kind: Junction\n  - mrid: a\n    kind: Breaker\n",
			wantErr: "duplicate mRID",
			is:      cim.ErrDuplicateMRID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, IsDecodeError(err))
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is), "error %v should wrap %v", err, tt.is)
			}
		})
	}
}

func TestLoadNetwork(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "network.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0o600))

	network, err := LoadNetwork(path)
	require.NoError(t, err)
	assert.Len(t, network.EnergySources(), 1)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("equipment:\n  - kind: Junction\n"), 0o600))
	_, err = LoadNetwork(bad)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, bad, de.Source)

	_, err = LoadNetwork(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)
	assert.False(t, IsDecodeError(err))
}
