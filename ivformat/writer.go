// Package ivformat implements a conforming writer for the binary record
// format of spec.md §6: sequences of id-headed, little-endian interval
// records, consumed by isetmap.Open and ilistmap.Open. It exists to produce
// fixture files for this module's own tests; the spec explicitly places a
// production writer out of scope (spec.md §1).
package ivformat

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/grailbio/ivmap"
)

// SetWriter appends ISetMap records to a file (spec.md §6's
// `id:u32le n:u32le (a:u32le b:u32le)×n` layout).
type SetWriter struct {
	w io.WriteCloser
}

// NewSetWriter opens path for writing. When append is true and the file
// already exists, new records are concatenated onto it, as §6 permits.
func NewSetWriter(path string, append bool) (*SetWriter, error) {
	f, err := openForWrite(path, append)
	if err != nil {
		return nil, err
	}
	return &SetWriter{w: f}, nil
}

// Write appends one record. intervals need not be pre-sorted by the caller
// of this package's own tests, but the format requires b > a per interval;
// a violation fails with InvalidArgument, matching §7's writer contract.
func (w *SetWriter) Write(id uint32, intervals []ivmap.Interval) error {
	for _, iv := range intervals {
		if iv.B <= iv.A {
			return errors.Wrapf(ivmap.ErrInvalidArgument, "ivformat: invalid interval [%d,%d)", iv.A, iv.B)
		}
	}
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:], id)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(intervals)))
	if _, err := w.w.Write(hdr[:]); err != nil {
		return errors.Wrap(err, "ivformat: write header")
	}
	buf := make([]byte, 8*len(intervals))
	for k, iv := range intervals {
		binary.LittleEndian.PutUint32(buf[8*k:], iv.A)
		binary.LittleEndian.PutUint32(buf[8*k+4:], iv.B)
	}
	if _, err := w.w.Write(buf); err != nil {
		return errors.Wrap(err, "ivformat: write intervals")
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *SetWriter) Close() error {
	return w.w.Close()
}

// ListEntry is one (a, b, payload) tuple written by a ListWriter.
type ListEntry struct {
	A, B    uint32
	Payload uint64
}

// ListWriter appends IListMap records to a file (spec.md §6's
// `id:u32le n:u32le (a:u32le b:u32le payload:u{8P}le)×n` layout).
type ListWriter struct {
	w          io.WriteCloser
	payloadLen int
}

// NewListWriter opens path for writing entries carrying a payloadLen-byte
// (0-8) payload.
func NewListWriter(path string, payloadLen int, append bool) (*ListWriter, error) {
	if payloadLen < 0 || payloadLen > 8 {
		return nil, errors.Wrapf(ivmap.ErrInvalidArgument, "ivformat: payload length %d outside [0,8]", payloadLen)
	}
	f, err := openForWrite(path, append)
	if err != nil {
		return nil, err
	}
	return &ListWriter{w: f, payloadLen: payloadLen}, nil
}

// Write appends one record.
func (w *ListWriter) Write(id uint32, entries []ListEntry) error {
	maxPayload := uint64(1)<<(8*uint(w.payloadLen)) - 1
	if w.payloadLen == 8 {
		maxPayload = ^uint64(0)
	}
	for _, e := range entries {
		if e.B <= e.A {
			return errors.Wrapf(ivmap.ErrInvalidArgument, "ivformat: invalid interval [%d,%d)", e.A, e.B)
		}
		if e.Payload > maxPayload {
			return errors.Wrapf(ivmap.ErrInvalidArgument, "ivformat: payload %d exceeds %d-byte width", e.Payload, w.payloadLen)
		}
	}
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:], id)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(entries)))
	if _, err := w.w.Write(hdr[:]); err != nil {
		return errors.Wrap(err, "ivformat: write header")
	}
	stride := 8 + w.payloadLen
	buf := make([]byte, stride*len(entries))
	for k, e := range entries {
		base := stride * k
		binary.LittleEndian.PutUint32(buf[base:], e.A)
		binary.LittleEndian.PutUint32(buf[base+4:], e.B)
		for i := 0; i < w.payloadLen; i++ {
			buf[base+8+i] = byte(e.Payload >> (8 * uint(i)))
		}
	}
	if _, err := w.w.Write(buf); err != nil {
		return errors.Wrap(err, "ivformat: write entries")
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *ListWriter) Close() error {
	return w.w.Close()
}

func openForWrite(path string, append bool) (*os.File, error) {
	flags := os.O_WRONLY | os.O_CREATE
	if append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "ivformat: open %s", path)
	}
	return f, nil
}
