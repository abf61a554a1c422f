package protocol

import (
	"encoding/binary"
	"math"
)

// LengthKind tags what a length slot on the wire actually holds.
type LengthKind uint8

const (
	LengthCount LengthKind = iota
	LengthStartOfList
	LengthEndOfList
)

func (k LengthKind) String() string {
	switch k {
	case LengthStartOfList:
		return "start_of_list"
	case LengthEndOfList:
		return "end_of_list"
	default:
		return "count"
	}
}

// Length is a decoded length-or-marker field.
type Length struct {
	Kind LengthKind
	N    int
}

// ParseLength interprets a raw length slot. It reports false for negative
// values that are not one of the list markers.
func ParseLength(raw int32) (Length, bool) {
	switch {
	case raw >= 0:
		return Length{Kind: LengthCount, N: int(raw)}, true
	case raw == StartOfList:
		return Length{Kind: LengthStartOfList}, true
	case raw == EndOfList:
		return Length{Kind: LengthEndOfList}, true
	default:
		return Length{}, false
	}
}

// Reader is a bounds-checked cursor over one buffered frame.
// It never reads outside buf; a short read fails with KindTruncatedFrame.
type Reader struct {
	buf []byte
	off int
}

// NewReader starts a cursor at the first byte of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset is the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.off
}

// Len is the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.buf) - r.off
}

func (r *Reader) take(field string, n int) ([]byte, error) {
	if n < 0 || n > r.Len() {
		return nil, &DecodeError{Kind: KindTruncatedFrame, Field: field, Offset: r.off, Need: n}
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// ReadInt32 reads a big-endian signed 32-bit integer.
func (r *Reader) ReadInt32(field string) (int32, error) {
	b, err := r.take(field, int32Size)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

// ReadFloat64 reads a big-endian IEEE-754 double.
func (r *Reader) ReadFloat64(field string) (float64, error) {
	b, err := r.take(field, 8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// ReadBytes returns a copy of the next n bytes.
func (r *Reader) ReadBytes(field string, n int) ([]byte, error) {
	b, err := r.take(field, n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadString returns the next n bytes as a string. The bytes are not UTF-8 validated.
func (r *Reader) ReadString(field string, n int) (string, error) {
	b, err := r.take(field, n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadLength reads a length slot and decodes it into its tagged form.
func (r *Reader) ReadLength(field string) (Length, error) {
	at := r.off
	raw, err := r.ReadInt32(field)
	if err != nil {
		return Length{}, err
	}
	l, ok := ParseLength(raw)
	if !ok {
		return Length{}, &DecodeError{Kind: KindMalformedLength, Field: field, Offset: at, Length: raw}
	}
	return l, nil
}

// readCount reads a length slot that must hold a byte count.
func (r *Reader) readCount(field string) (int, error) {
	at := r.off
	l, err := r.ReadLength(field)
	if err != nil {
		return 0, err
	}
	if l.Kind != LengthCount {
		return 0, &DecodeError{Kind: KindMalformedLength, Field: field, Offset: at, Length: l.raw()}
	}
	return l.N, nil
}

// readField reads a count-prefixed string field. A zero count yields "".
func (r *Reader) readField(field string) (string, error) {
	n, err := r.readCount(field)
	if err != nil {
		return "", err
	}
	return r.ReadString(field, n)
}

func (l Length) raw() int32 {
	switch l.Kind {
	case LengthStartOfList:
		return StartOfList
	case LengthEndOfList:
		return EndOfList
	default:
		return int32(l.N)
	}
}
