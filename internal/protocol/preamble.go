package protocol

import (
	"encoding/binary"
	"math"
)

// Validate reports whether frame opens with the supported version marker.
// It must pass before any other field of the frame is trusted.
func Validate(frame []byte) bool {
	if len(frame) < PreambleSize {
		return false
	}
	return math.Float64frombits(binary.BigEndian.Uint64(frame[:PreambleSize])) == PreambleVersion
}
