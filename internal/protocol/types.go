package protocol

import (
	"encoding/json"
	"fmt"
)

const (
	// PreambleSize is the length of the version marker that opens a frame.
	PreambleSize = 8
	// PreambleVersion is the only protocol version this decoder speaks.
	PreambleVersion float64 = 1.0

	int32Size   = 4
	payloadBase = PreambleSize + int32Size

	StartOfList int32 = -1
	EndOfList   int32 = -2
)

// EndOfMessage is the trailer the frontend appends after every frame.
var EndOfMessage = []byte("\r\n")

// Command is the code that follows the preamble.
type Command int32

const (
	CommandLoad    Command = 0x01
	CommandPredict Command = 0x02
)

func (c Command) String() string {
	switch c {
	case CommandLoad:
		return "load"
	case CommandPredict:
		return "predict"
	default:
		return fmt.Sprintf("unknown(0x%02x)", int32(c))
	}
}

// Message is one decoded frame. Exactly one of Load or Predict is set.
type Message struct {
	Command Command
	Load    *LoadRequest
	Predict *InferenceRequest
	// Consumed is the number of frame bytes the decoder used.
	Consumed int
}

// LoadRequest asks the worker to load a model.
type LoadRequest struct {
	ModelName string `json:"modelName"`
	ModelPath string `json:"modelPath"`
	BatchSize int32  `json:"batchSize"`
	Handler   string `json:"handler"`
	// GPU is set only when the frame carries a positive gpu id.
	GPU *int32 `json:"gpu,omitempty"`
}

// InferenceRequest asks the worker to run a batch through a loaded model.
type InferenceRequest struct {
	ModelName string `json:"modelName,omitempty"`
	// RequestBatch is nil when the frame carried no batch at all.
	RequestBatch []RequestItem `json:"requestBatch,omitempty"`
}

type RequestItem struct {
	RequestID   string       `json:"requestId,omitempty"`
	ContentType string       `json:"contentType,omitempty"`
	ModelInputs []ModelInput `json:"modelInputs,omitempty"`
}

type ModelInput struct {
	Name        string `json:"name,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Value       Value  `json:"value,omitzero"`
}

// ValueKind says how a model input value was decoded.
type ValueKind uint8

const (
	ValueNone ValueKind = iota
	ValueText
	ValueBinary
)

func (k ValueKind) String() string {
	switch k {
	case ValueText:
		return "text"
	case ValueBinary:
		return "binary"
	default:
		return "none"
	}
}

// Value is a decoded model input payload.
type Value struct {
	Kind   ValueKind
	Text   string
	Binary []byte
}

func TextValue(s string) Value {
	return Value{Kind: ValueText, Text: s}
}

func BinaryValue(b []byte) Value {
	buf := make([]byte, len(b))
	copy(buf, b)
	return Value{Kind: ValueBinary, Binary: buf}
}

func (v Value) IsZero() bool {
	return v.Kind == ValueNone
}

// Bytes returns the wire form of the value.
func (v Value) Bytes() []byte {
	switch v.Kind {
	case ValueText:
		return []byte(v.Text)
	case ValueBinary:
		return v.Binary
	default:
		return nil
	}
}

// MarshalJSON renders text as a string and binary as base64.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueText:
		return json.Marshal(v.Text)
	case ValueBinary:
		return json.Marshal(v.Binary)
	default:
		return []byte("null"), nil
	}
}
