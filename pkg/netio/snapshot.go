package netio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"golang.org/x/exp/mmap"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/logging"
	"github.com/dd0wney/cluso-gridtrace/pkg/metrics"
)

const (
	snapshotMagic   = "GRIDSNAP"
	snapshotVersion = 1
	headerSize      = len(snapshotMagic) + 2

	flagCompressed byte = 1 << 0

	// BatchSize is the number of terminals written per frame.
	BatchSize = 256
)

// TerminalState is the traced state of one terminal.
type TerminalState struct {
	MRID    string
	Phases  uint32 // packed normal and current traced phases
	Normal  cim.FeederDirection
	Current cim.FeederDirection
}

// Snapshot holds the traced phases and feeder directions of every terminal
// in a network.
type Snapshot struct {
	ID        uuid.UUID
	Created   time.Time
	Terminals []TerminalState
}

// Capture records the traced state of the network.
func Capture(network *cim.Network) *Snapshot {
	snap := &Snapshot{
		ID:        uuid.New(),
		Created:   time.Now().UTC(),
		Terminals: make([]TerminalState, 0, len(network.AllTerminals())),
	}
	for _, t := range network.AllTerminals() {
		snap.Terminals = append(snap.Terminals, TerminalState{
			MRID:    t.MRID(),
			Phases:  t.TracedPhases().Raw(),
			Normal:  t.NormalFeederDirection(),
			Current: t.CurrentFeederDirection(),
		})
	}
	return snap
}

// Restore writes the snapshot back onto the network. Terminals missing from
// the network are returned rather than treated as an error.
func (s *Snapshot) Restore(network *cim.Network) (restored int, missing []string) {
	for _, ts := range s.Terminals {
		t, err := network.Terminal(ts.MRID)
		if err != nil {
			missing = append(missing, ts.MRID)
			continue
		}
		t.TracedPhases().SetRaw(ts.Phases)
		t.SetNormalFeederDirection(ts.Normal)
		t.SetCurrentFeederDirection(ts.Current)
		restored++
	}
	return restored, missing
}

// Store writes and reads snapshot files.
type Store struct {
	compress bool
	logger   logging.Logger
	metrics  *metrics.Registry
}

type StoreOption func(*Store)

// WithCompression snappy-compresses frame payloads. It is on by default.
func WithCompression(compress bool) StoreOption {
	return func(s *Store) { s.compress = compress }
}

func WithLogger(logger logging.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

func WithMetrics(registry *metrics.Registry) StoreOption {
	return func(s *Store) { s.metrics = registry }
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{compress: true, logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) record(operation string, err error, size int64, records int) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.RecordSnapshot(operation, status, size, records)
}

// Save writes the snapshot to path, replacing any existing file only once
// the new one is complete.
func (s *Store) Save(path string, snap *Snapshot) (size int64, err error) {
	defer func() { s.record("write", err, size, len(snap.Terminals)) }()

	tmp := path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to create snapshot: %w", err)
	}

	size, err = s.write(file, snap)
	if err == nil {
		err = file.Sync()
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("failed to rename snapshot: %w", err)
	}

	s.logger.Info("snapshot written",
		logging.Path(path),
		logging.Count(len(snap.Terminals)),
		logging.Int64("bytes", size),
		logging.Bool("compressed", s.compress),
	)
	return size, nil
}

// Write writes the snapshot to w and returns the number of bytes written.
func (s *Store) Write(w io.Writer, snap *Snapshot) (size int64, err error) {
	defer func() { s.record("write", err, size, len(snap.Terminals)) }()
	return s.write(w, snap)
}

func (s *Store) write(w io.Writer, snap *Snapshot) (int64, error) {
	bw := bufio.NewWriter(w)

	var flags byte
	if s.compress {
		flags |= flagCompressed
	}
	if _, err := bw.WriteString(snapshotMagic); err != nil {
		return 0, err
	}
	if _, err := bw.Write([]byte{snapshotVersion, flags}); err != nil {
		return 0, err
	}
	size := int64(headerSize)

	ts := snap.Created.UnixNano()
	seq := uint64(0)
	emit := func(kind frameKind, payload []byte) error {
		if s.compress {
			payload = snappy.Encode(nil, payload)
		}
		seq++
		f := newFrame(seq, kind, payload, ts)
		if err := writeFrame(bw, f); err != nil {
			return fmt.Errorf("failed to write frame %d: %w", seq, err)
		}
		size += f.size()
		return nil
	}

	if err := emit(frameHeader, encodeHeader(snap)); err != nil {
		return 0, err
	}
	for start := 0; start < len(snap.Terminals); start += BatchSize {
		end := min(start+BatchSize, len(snap.Terminals))
		if err := emit(frameTerminals, encodeTerminals(snap.Terminals[start:end])); err != nil {
			return 0, err
		}
	}

	if err := bw.Flush(); err != nil {
		return 0, err
	}
	return size, nil
}

// Load reads the snapshot at path through a memory map.
func (s *Store) Load(path string) (snap *Snapshot, err error) {
	var size int64
	defer func() {
		records := 0
		if snap != nil {
			records = len(snap.Terminals)
		}
		s.record("read", err, size, records)
	}()

	reader, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer reader.Close()

	size = int64(reader.Len())
	snap, err = s.read(reader, size, path)
	if err != nil {
		return nil, err
	}

	s.logger.Info("snapshot loaded",
		logging.Path(path),
		logging.Count(len(snap.Terminals)),
		logging.String("id", snap.ID.String()),
	)
	return snap, nil
}

// Read reads a snapshot of size bytes from r.
func (s *Store) Read(r io.ReaderAt, size int64) (snap *Snapshot, err error) {
	defer func() {
		records := 0
		if snap != nil {
			records = len(snap.Terminals)
		}
		s.record("read", err, size, records)
	}()
	return s.read(r, size, "snapshot")
}

func (s *Store) read(r io.ReaderAt, size int64, source string) (*Snapshot, error) {
	fail := func(offset int64, err error) error {
		return &DecodeError{Source: source, Offset: offset, Err: err}
	}

	header := make([]byte, headerSize)
	if _, err := r.ReadAt(header, 0); err != nil {
		return nil, fail(0, ErrBadMagic)
	}
	if string(header[:len(snapshotMagic)]) != snapshotMagic {
		return nil, fail(0, ErrBadMagic)
	}
	if v := header[len(snapshotMagic)]; v != snapshotVersion {
		return nil, fail(int64(len(snapshotMagic)), fmt.Errorf("unsupported snapshot version %d", v))
	}
	compressed := header[len(snapshotMagic)+1]&flagCompressed != 0

	br := bufio.NewReader(io.NewSectionReader(r, int64(headerSize), size-int64(headerSize)))
	offset := int64(headerSize)

	var snap *Snapshot
	expected := 0
	for seq := uint64(1); ; seq++ {
		f, err := readFrame(br, size)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fail(offset, err)
		}
		if f.Seq != seq {
			return nil, fail(offset, fmt.Errorf("frame %d out of order, expected %d", f.Seq, seq))
		}

		payload := f.Data
		if compressed {
			if payload, err = snappy.Decode(nil, f.Data); err != nil {
				return nil, fail(offset, fmt.Errorf("decompress frame %d: %w", f.Seq, err))
			}
		}

		switch {
		case f.Kind == frameHeader && snap == nil:
			if snap, expected, err = decodeHeader(payload); err != nil {
				return nil, fail(offset, err)
			}
			snap.Terminals = make([]TerminalState, 0, expected)
		case f.Kind == frameTerminals && snap != nil:
			states, err := decodeTerminals(payload)
			if err != nil {
				return nil, fail(offset, err)
			}
			snap.Terminals = append(snap.Terminals, states...)
		default:
			return nil, fail(offset, fmt.Errorf("unexpected frame kind %d", f.Kind))
		}
		offset += f.size()
	}

	if snap == nil {
		return nil, fail(offset, fmt.Errorf("%w: missing header frame", ErrTruncated))
	}
	if len(snap.Terminals) != expected {
		return nil, fail(offset, fmt.Errorf("%w: %d of %d terminals", ErrTruncated, len(snap.Terminals), expected))
	}
	return snap, nil
}

// Header payload: [ID:16][Created:8][TerminalCount:4]
func encodeHeader(snap *Snapshot) []byte {
	buf := make([]byte, 0, 28)
	buf = append(buf, snap.ID[:]...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(snap.Created.UnixNano()))
	return binary.BigEndian.AppendUint32(buf, uint32(len(snap.Terminals)))
}

func decodeHeader(data []byte) (*Snapshot, int, error) {
	if len(data) != 28 {
		return nil, 0, fmt.Errorf("%w: header of %d bytes", ErrTruncated, len(data))
	}
	id, err := uuid.FromBytes(data[:16])
	if err != nil {
		return nil, 0, err
	}
	snap := &Snapshot{
		ID:      id,
		Created: time.Unix(0, int64(binary.BigEndian.Uint64(data[16:24]))).UTC(),
	}
	return snap, int(binary.BigEndian.Uint32(data[24:28])), nil
}

// Terminal payload: [Count:2] then per terminal
// [MRIDLen:2][MRID:N][Phases:4][Normal:1][Current:1]
func encodeTerminals(states []TerminalState) []byte {
	buf := binary.BigEndian.AppendUint16(nil, uint16(len(states)))
	for _, ts := range states {
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(ts.MRID)))
		buf = append(buf, ts.MRID...)
		buf = binary.BigEndian.AppendUint32(buf, ts.Phases)
		buf = append(buf, byte(ts.Normal), byte(ts.Current))
	}
	return buf
}

func decodeTerminals(data []byte) ([]TerminalState, error) {
	if len(data) < 2 {
		return nil, ErrTruncated
	}
	count := int(binary.BigEndian.Uint16(data))
	data = data[2:]

	states := make([]TerminalState, 0, count)
	for i := 0; i < count; i++ {
		if len(data) < 2 {
			return nil, ErrTruncated
		}
		n := int(binary.BigEndian.Uint16(data))
		if len(data) < 2+n+6 {
			return nil, ErrTruncated
		}
		ts := TerminalState{
			MRID:    string(data[2 : 2+n]),
			Phases:  binary.BigEndian.Uint32(data[2+n:]),
			Normal:  cim.FeederDirection(data[6+n]),
			Current: cim.FeederDirection(data[7+n]),
		}
		if _, ok := cim.ParseFeederDirection(ts.Normal.String()); !ok {
			return nil, fmt.Errorf("terminal %s: invalid normal direction %d", ts.MRID, data[6+n])
		}
		if _, ok := cim.ParseFeederDirection(ts.Current.String()); !ok {
			return nil, fmt.Errorf("terminal %s: invalid current direction %d", ts.MRID, data[7+n])
		}
		states = append(states, ts)
		data = data[8+n:]
	}
	if len(data) != 0 {
		return nil, fmt.Errorf("%d trailing bytes in terminal frame", len(data))
	}
	return states, nil
}
