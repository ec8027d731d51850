package netio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

type frameKind uint8

const (
	frameHeader frameKind = iota + 1
	frameTerminals
)

// frameOverhead is every frame byte except the payload.
const frameOverhead = 8 + 1 + 4 + 4 + 8

// frame is one record of a snapshot file.
type frame struct {
	Seq       uint64
	Kind      frameKind
	Data      []byte
	Checksum  uint32
	Timestamp int64
}

func newFrame(seq uint64, kind frameKind, data []byte, timestamp int64) *frame {
	return &frame{
		Seq:       seq,
		Kind:      kind,
		Data:      data,
		Checksum:  crc32.ChecksumIEEE(data),
		Timestamp: timestamp,
	}
}

func (f *frame) size() int64 {
	return int64(frameOverhead + len(f.Data))
}

// writeFrame writes a single frame.
// Format: [Seq:8][Kind:1][DataLen:4][Data:N][Checksum:4][Timestamp:8]
func writeFrame(w *bufio.Writer, f *frame) error {
	if err := binary.Write(w, binary.BigEndian, f.Seq); err != nil {
		return err
	}
	if err := w.WriteByte(byte(f.Kind)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(f.Data))); err != nil {
		return err
	}
	if _, err := w.Write(f.Data); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, f.Checksum); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, f.Timestamp)
}

// readFrame reads the next frame. It returns io.EOF only at a frame
// boundary.
func readFrame(r *bufio.Reader, maxLen int64) (*frame, error) {
	f := &frame{}
	if err := binary.Read(r, binary.BigEndian, &f.Seq); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, ErrTruncated
	}

	kind, err := r.ReadByte()
	if err != nil {
		return nil, ErrTruncated
	}
	f.Kind = frameKind(kind)

	var dataLen uint32
	if err := binary.Read(r, binary.BigEndian, &dataLen); err != nil {
		return nil, ErrTruncated
	}
	if int64(dataLen) > maxLen {
		return nil, fmt.Errorf("%w: frame of %d bytes", ErrTruncated, dataLen)
	}

	f.Data = make([]byte, dataLen)
	if _, err := io.ReadFull(r, f.Data); err != nil {
		return nil, ErrTruncated
	}
	if err := binary.Read(r, binary.BigEndian, &f.Checksum); err != nil {
		return nil, ErrTruncated
	}
	if err := binary.Read(r, binary.BigEndian, &f.Timestamp); err != nil {
		return nil, ErrTruncated
	}

	if crc32.ChecksumIEEE(f.Data) != f.Checksum {
		return nil, ErrChecksumMismatch
	}
	return f, nil
}
