package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/modelwire/internal/testutil/testlog"
)

func TestMarshalDecodeRoundTrip(t *testing.T) {
	testlog.Start(t)
	gpu := int32(2)
	msgs := []*Message{
		{
			Command: CommandLoad,
			Load: &LoadRequest{
				ModelName: "squeezenet",
				ModelPath: "/models/squeezenet",
				BatchSize: 8,
				Handler:   "predict",
				GPU:       &gpu,
			},
		},
		{
			Command: CommandLoad,
			Load:    &LoadRequest{ModelName: "noop", ModelPath: "/models/noop", BatchSize: 1, Handler: "h"},
		},
		{
			Command: CommandPredict,
			Predict: &InferenceRequest{
				ModelName: "resnet",
				RequestBatch: []RequestItem{
					{
						RequestID:   "req1",
						ContentType: "application/json",
						ModelInputs: []ModelInput{
							{Name: "data0", Value: TextValue(`{"a":1}`)},
							{Name: "img", ContentType: "image/jpeg", Value: BinaryValue([]byte{0xFF, 0xD8, 0x00})},
							{Name: "empty", ContentType: "text/plain"},
						},
					},
					{RequestID: "req2", ModelInputs: []ModelInput{}},
				},
			},
		},
		{Command: CommandPredict, Predict: &InferenceRequest{ModelName: "lstm", RequestBatch: []RequestItem{}}},
		{Command: CommandPredict, Predict: &InferenceRequest{ModelName: "lstm"}},
	}

	for i, in := range msgs {
		frame, err := Marshal(in)
		if err != nil {
			t.Fatalf("msg %d: marshal: %v", i, err)
		}
		out, err := Decode(frame)
		if err != nil {
			t.Fatalf("msg %d: decode: %v", i, err)
		}
		if out.Consumed != len(frame) {
			t.Fatalf("msg %d: consumed %d of %d", i, out.Consumed, len(frame))
		}
		out.Consumed = 0
		if !reflect.DeepEqual(in, out) {
			t.Fatalf("msg %d: round-trip mismatch\n got=%+v\nwant=%+v", i, out, in)
		}
	}
}

func TestMarshalMatchesHandBuiltFrame(t *testing.T) {
	testlog.Start(t)
	want := predictFrame("application/json", "", []byte(`{"a":1}`))
	got, err := Marshal(&Message{
		Command: CommandPredict,
		Predict: &InferenceRequest{
			ModelName: "resnet",
			RequestBatch: []RequestItem{{
				RequestID:   "req1",
				ContentType: "application/json",
				ModelInputs: []ModelInput{{Name: "data0", Value: TextValue(`{"a":1}`)}},
			}},
		},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("frame mismatch\n got=%x\nwant=%x", got, want)
	}
}

func TestMarshalLoadNormalisesFields(t *testing.T) {
	testlog.Start(t)
	frame, err := Marshal(&Message{
		Command: CommandLoad,
		Load:    &LoadRequest{ModelName: "m", ModelPath: "p", BatchSize: -4, Handler: "h"},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	gpu := int32(binary.BigEndian.Uint32(frame[len(frame)-4:]))
	if gpu != -1 {
		t.Fatalf("absent gpu should encode as -1, got %d", gpu)
	}
	msg, err := Decode(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Load.BatchSize != 1 || msg.Load.GPU != nil {
		t.Fatalf("unexpected load: %+v", msg.Load)
	}
}

func TestEncodeWithEndOfMessage(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	msg := &Message{Command: CommandPredict, Predict: &InferenceRequest{ModelName: "m"}}
	if err := EncodeWithOptions(&buf, msg, EncodeOptions{EndOfMessage: true}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.HasSuffix(buf.Bytes(), EndOfMessage) {
		t.Fatalf("missing trailer: %x", buf.Bytes())
	}
	out, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Consumed != buf.Len()-len(EndOfMessage) {
		t.Fatalf("consumed %d of %d", out.Consumed, buf.Len())
	}
}

func TestMarshalRejectsBadMessages(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name string
		msg  *Message
		want error
	}{
		{"nil", nil, ErrNilMessage},
		{"load without body", &Message{Command: CommandLoad}, ErrNilMessage},
		{"predict without body", &Message{Command: CommandPredict}, ErrNilMessage},
		{"unknown command", &Message{Command: Command(9)}, ErrUnknownCommand},
	}
	for _, tc := range cases {
		if _, err := Marshal(tc.msg); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}
