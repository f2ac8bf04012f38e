package a2s

import (
	"bytes"
	"encoding/binary"
	"math"
)

// reader is a forward-only cursor over a response payload. Every read
// checks the remaining length first and fails with ErrShortResponse
// (or ErrNoTerminator for strings) instead of running past the end.
type reader struct {
	buf []byte
	off int
}

func newReader(buf []byte) *reader {
	return &reader{buf: buf}
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) readByte() (byte, error) {
	if r.remaining() < 1 {
		return 0, ErrShortResponse
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

func (r *reader) readUint16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, ErrShortResponse
	}
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

func (r *reader) readInt16() (int16, error) {
	v, err := r.readUint16()
	return int16(v), err
}

func (r *reader) readUint32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, ErrShortResponse
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) readInt32() (int32, error) {
	v, err := r.readUint32()
	return int32(v), err
}

func (r *reader) readUint64() (uint64, error) {
	if r.remaining() < 8 {
		return 0, ErrShortResponse
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v, nil
}

func (r *reader) readFloat32() (float32, error) {
	v, err := r.readUint32()
	return math.Float32frombits(v), err
}

// readString consumes bytes up to and excluding a single zero byte and
// advances past the terminator.
func (r *reader) readString() (string, error) {
	i := bytes.IndexByte(r.buf[r.off:], 0)
	if i < 0 {
		return "", ErrNoTerminator
	}
	s := string(r.buf[r.off : r.off+i])
	r.off += i + 1
	return s, nil
}
