package protocol

import (
	"encoding/binary"
	"math"
)

// frameBuilder assembles raw frames field by field so tests can write
// layouts the encoder would never produce.
type frameBuilder struct {
	buf []byte
}

func newFrame(cmd Command) *frameBuilder {
	return (&frameBuilder{}).f64(PreambleVersion).i32(int32(cmd))
}

func (b *frameBuilder) f64(v float64) *frameBuilder {
	b.buf = binary.BigEndian.AppendUint64(b.buf, math.Float64bits(v))
	return b
}

func (b *frameBuilder) i32(v int32) *frameBuilder {
	b.buf = binary.BigEndian.AppendUint32(b.buf, uint32(v))
	return b
}

func (b *frameBuilder) str(s string) *frameBuilder {
	return b.field([]byte(s))
}

func (b *frameBuilder) field(p []byte) *frameBuilder {
	b.i32(int32(len(p)))
	b.buf = append(b.buf, p...)
	return b
}

func (b *frameBuilder) raw(p []byte) *frameBuilder {
	b.buf = append(b.buf, p...)
	return b
}

func (b *frameBuilder) bytes() []byte {
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	return out
}

func loadFrame(name, path string, batch int32, handler string, gpu int32) []byte {
	return newFrame(CommandLoad).
		str(name).
		str(path).
		i32(batch).
		str(handler).
		i32(gpu).
		bytes()
}

// predictFrame builds a one item, one input predict frame.
func predictFrame(itemType, inputType string, value []byte) []byte {
	return newFrame(CommandPredict).
		str("resnet").
		i32(StartOfList).
		str("req1").
		str(itemType).
		i32(StartOfList).
		str("data0").
		str(inputType).
		field(value).
		i32(EndOfList).
		i32(EndOfList).
		bytes()
}
