package netio

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrBadMagic         = errors.New("not a gridtrace snapshot")
	ErrUnknownReference = errors.New("unknown reference")
	ErrTruncated        = errors.New("truncated record")
)

// DecodeError reports where a network document or snapshot could not be
// read.
type DecodeError struct {
	Source string // file name or "document"
	Object string // offending object, if known
	Offset int64  // byte offset in a snapshot, or -1
	Err    error
}

func (e *DecodeError) Error() string {
	where := e.Source
	if e.Offset >= 0 {
		where = fmt.Sprintf("%s@%d", where, e.Offset)
	}
	if e.Object != "" {
		return fmt.Sprintf("decode %s: %s: %v", where, e.Object, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", where, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func documentError(object string, err error) error {
	return &DecodeError{Source: "document", Object: object, Offset: -1, Err: err}
}

// IsDecodeError reports whether err came from decoding input.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
