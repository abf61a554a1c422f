package main

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/modelwire/internal/observability"
	"github.com/danmuck/modelwire/internal/protocol"
)

// inputSpec is one model input in an -inputs file. Value is text unless
// Encoding is "base64".
type inputSpec struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Value       string `json:"value"`
	Encoding    string `json:"encoding"`
}

type itemSpec struct {
	RequestID   string      `json:"requestId"`
	ContentType string      `json:"contentType"`
	ModelInputs []inputSpec `json:"modelInputs"`
}

func main() {
	observability.InitToolLogger("otfgen", os.Stderr)

	kind := flag.String("kind", "load", "frame kind: load|predict")
	modelName := flag.String("model-name", "", "model name")
	modelPath := flag.String("model-path", "", "model path (load)")
	batchSize := flag.Int("batch-size", 1, "batch size (load)")
	handler := flag.String("handler", "", "handler entry point (load)")
	gpu := flag.Int("gpu", -1, "gpu id, negative for none (load)")
	inputs := flag.String("inputs", "", "json file with request items (predict)")
	out := flag.String("out", "-", "output path (- for stdout)")
	eom := flag.Bool("eom", false, "append the end-of-message trailer")
	hexOut := flag.Bool("hex", false, "write hex text instead of raw bytes")
	flag.Parse()

	var (
		msg *protocol.Message
		err error
	)
	switch *kind {
	case "load":
		msg = buildLoad(*modelName, *modelPath, int32(*batchSize), *handler, *gpu)
	case "predict":
		if *inputs == "" {
			log.Fatal().Msg("predict needs -inputs")
		}
		msg, err = buildPredictFile(*modelName, *inputs)
	default:
		log.Fatal().Str("kind", *kind).Msg("unknown kind")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build frame")
	}

	frame, err := protocol.MarshalWithOptions(msg, protocol.EncodeOptions{EndOfMessage: *eom})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to encode frame")
	}
	if *hexOut {
		frame = []byte(hex.EncodeToString(frame) + "\n")
	}
	if err := writeOut(*out, frame); err != nil {
		log.Fatal().Err(err).Str("out", *out).Msg("failed to write frame")
	}
	log.Info().Str("kind", *kind).Int("frame_bytes", len(frame)).Str("out", *out).Msg("frame written")
}

func buildLoad(name, path string, batchSize int32, handler string, gpu int) *protocol.Message {
	req := &protocol.LoadRequest{
		ModelName: name,
		ModelPath: path,
		BatchSize: batchSize,
		Handler:   handler,
	}
	if gpu >= 0 {
		id := int32(gpu)
		req.GPU = &id
	}
	return &protocol.Message{Command: protocol.CommandLoad, Load: req}
}

func buildPredictFile(modelName, path string) (*protocol.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return buildPredict(modelName, f)
}

func buildPredict(modelName string, r io.Reader) (*protocol.Message, error) {
	var items []itemSpec
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("inputs: %w", err)
	}

	batch := make([]protocol.RequestItem, 0, len(items))
	for i, item := range items {
		modelInputs := make([]protocol.ModelInput, 0, len(item.ModelInputs))
		for j, in := range item.ModelInputs {
			value, err := in.value()
			if err != nil {
				return nil, fmt.Errorf("inputs: item %d input %d: %w", i, j, err)
			}
			modelInputs = append(modelInputs, protocol.ModelInput{
				Name:        in.Name,
				ContentType: in.ContentType,
				Value:       value,
			})
		}
		batch = append(batch, protocol.RequestItem{
			RequestID:   item.RequestID,
			ContentType: item.ContentType,
			ModelInputs: modelInputs,
		})
	}
	return &protocol.Message{
		Command: protocol.CommandPredict,
		Predict: &protocol.InferenceRequest{ModelName: modelName, RequestBatch: batch},
	}, nil
}

func (in inputSpec) value() (protocol.Value, error) {
	switch in.Encoding {
	case "", "text":
		if in.Value == "" {
			return protocol.Value{}, nil
		}
		return protocol.TextValue(in.Value), nil
	case "base64":
		raw, err := base64.StdEncoding.DecodeString(in.Value)
		if err != nil {
			return protocol.Value{}, err
		}
		if len(raw) == 0 {
			return protocol.Value{}, nil
		}
		return protocol.BinaryValue(raw), nil
	default:
		return protocol.Value{}, fmt.Errorf("unknown encoding %q", in.Encoding)
	}
}

func writeOut(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
