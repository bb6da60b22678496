package ccache

import (
	"encoding/binary"
	"errors"
	"time"
)

// fileVersion is the only ccache version this package reads or writes: byte
// 0 is the constant format identifier (5), byte 1 is the version number
// (4), together the big-endian uint16 0x0504 (spec §8 scenario F).
const fileVersion uint16 = 0x0504

var errTruncated = errors.New("ccache: truncated input")

// reader is a cursor over ccache bytes; every field in the format is
// length-prefixed or fixed-width big-endian, so a single cursor type
// covers both the header and every credential entry.
type reader struct {
	b []byte
	p int
}

func newReader(b []byte) *reader { return &reader{b: b} }

func (r *reader) remaining() int { return len(r.b) - r.p }

func (r *reader) uint8() (uint8, error) {
	if r.remaining() < 1 {
		return 0, errTruncated
	}
	v := r.b[r.p]
	r.p++
	return v, nil
}

func (r *reader) uint16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, errTruncated
	}
	v := binary.BigEndian.Uint16(r.b[r.p:])
	r.p += 2
	return v, nil
}

func (r *reader) uint32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, errTruncated
	}
	v := binary.BigEndian.Uint32(r.b[r.p:])
	r.p += 4
	return v, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, errTruncated
	}
	v := append([]byte(nil), r.b[r.p:r.p+n]...)
	r.p += n
	return v, nil
}

// counted reads a uint32 length prefix followed by that many bytes, the
// shape every string/key/ticket field in the format uses.
func (r *reader) counted() ([]byte, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	return r.bytes(int(n))
}

// timestamp reads a 4-byte big-endian Unix second count. A value of 0 means
// "absent" for optional time fields (spec §4.5 reconciliation).
func (r *reader) timestamp() (time.Time, error) {
	secs, err := r.uint32()
	if err != nil {
		return time.Time{}, err
	}
	if secs == 0 {
		return time.Time{}, nil
	}
	return time.Unix(int64(secs), 0).UTC(), nil
}

// writer accumulates ccache bytes; every write mirrors one reader method.
type writer struct {
	buf []byte
}

func (w *writer) uint8(v uint8)   { w.buf = append(w.buf, v) }
func (w *writer) uint16(v uint16) { w.buf = binary.BigEndian.AppendUint16(w.buf, v) }
func (w *writer) uint32(v uint32) { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }
func (w *writer) bytes(b []byte)  { w.buf = append(w.buf, b...) }

func (w *writer) counted(b []byte) {
	w.uint32(uint32(len(b)))
	w.bytes(b)
}

func (w *writer) timestamp(t time.Time) {
	if t.IsZero() {
		w.uint32(0)
		return
	}
	w.uint32(uint32(t.Unix()))
}

func (w *writer) bytesValue() []byte { return w.buf }
