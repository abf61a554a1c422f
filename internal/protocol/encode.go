package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// EncodeOptions tunes the request encoder.
type EncodeOptions struct {
	// EndOfMessage appends the frontend's "\r\n" trailer.
	EndOfMessage bool
}

// Encode writes msg to w in the frontend's request wire format.
func Encode(w io.Writer, msg *Message) error {
	return EncodeWithOptions(w, msg, EncodeOptions{})
}

// EncodeWithOptions is Encode with the trailer controlled by opts.
func EncodeWithOptions(w io.Writer, msg *Message, opts EncodeOptions) error {
	buf, err := MarshalWithOptions(msg, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// Marshal returns the frame bytes for msg.
func Marshal(msg *Message) ([]byte, error) {
	return MarshalWithOptions(msg, EncodeOptions{})
}

// MarshalWithOptions is Marshal with the trailer controlled by opts.
func MarshalWithOptions(msg *Message, opts EncodeOptions) ([]byte, error) {
	if msg == nil {
		return nil, ErrNilMessage
	}
	buf := make([]byte, 0, 64)
	buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(PreambleVersion))
	buf = appendInt32(buf, int32(msg.Command))

	var err error
	switch msg.Command {
	case CommandLoad:
		if msg.Load == nil {
			return nil, fmt.Errorf("%w: load request missing", ErrNilMessage)
		}
		buf, err = appendLoad(buf, msg.Load)
	case CommandPredict:
		if msg.Predict == nil {
			return nil, fmt.Errorf("%w: predict request missing", ErrNilMessage)
		}
		buf, err = appendPredict(buf, msg.Predict)
	default:
		return nil, fmt.Errorf("%w: code=0x%02x", ErrUnknownCommand, int32(msg.Command))
	}
	if err != nil {
		return nil, err
	}
	if opts.EndOfMessage {
		buf = append(buf, EndOfMessage...)
	}
	return buf, nil
}

func appendLoad(buf []byte, req *LoadRequest) ([]byte, error) {
	var err error
	if buf, err = appendField(buf, "model_name", []byte(req.ModelName)); err != nil {
		return nil, err
	}
	if buf, err = appendField(buf, "model_path", []byte(req.ModelPath)); err != nil {
		return nil, err
	}
	batchSize := req.BatchSize
	if batchSize < 0 {
		batchSize = 1
	}
	buf = appendInt32(buf, batchSize)
	if buf, err = appendField(buf, "handler", []byte(req.Handler)); err != nil {
		return nil, err
	}
	gpu := int32(-1)
	if req.GPU != nil {
		gpu = *req.GPU
	}
	return appendInt32(buf, gpu), nil
}

// appendPredict leaves the batch marker out for a nil batch so that the
// frame decodes back to a request without one.
func appendPredict(buf []byte, req *InferenceRequest) ([]byte, error) {
	buf, err := appendField(buf, "model_name", []byte(req.ModelName))
	if err != nil {
		return nil, err
	}
	if req.RequestBatch == nil {
		return buf, nil
	}
	buf = appendInt32(buf, StartOfList)
	for _, item := range req.RequestBatch {
		if buf, err = appendRequestItem(buf, item); err != nil {
			return nil, err
		}
	}
	return appendInt32(buf, EndOfList), nil
}

func appendRequestItem(buf []byte, item RequestItem) ([]byte, error) {
	var err error
	if buf, err = appendField(buf, "request_id", []byte(item.RequestID)); err != nil {
		return nil, err
	}
	if buf, err = appendField(buf, "content_type", []byte(item.ContentType)); err != nil {
		return nil, err
	}
	buf = appendInt32(buf, StartOfList)
	for _, input := range item.ModelInputs {
		if buf, err = appendField(buf, "input_name", []byte(input.Name)); err != nil {
			return nil, err
		}
		if buf, err = appendField(buf, "input_content_type", []byte(input.ContentType)); err != nil {
			return nil, err
		}
		if buf, err = appendField(buf, "input_value", input.Value.Bytes()); err != nil {
			return nil, err
		}
	}
	return appendInt32(buf, EndOfList), nil
}

func appendField(buf []byte, field string, value []byte) ([]byte, error) {
	if len(value) > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrFieldTooLarge, field, len(value))
	}
	buf = appendInt32(buf, int32(len(value)))
	return append(buf, value...), nil
}

func appendInt32(buf []byte, v int32) []byte {
	return binary.BigEndian.AppendUint32(buf, uint32(v))
}
