package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/danmuck/modelwire/internal/config"
	"github.com/danmuck/modelwire/internal/observability"
	"github.com/danmuck/modelwire/internal/protocol"
	"github.com/danmuck/modelwire/internal/worker"
)

const (
	exitOK        = 0
	exitUsage     = 1
	exitClient    = 2
	exitTransport = 3
)

type report struct {
	Command  string                     `json:"command"`
	Consumed int                        `json:"consumed"`
	Trailing int                        `json:"trailing,omitempty"`
	Load     *protocol.LoadRequest      `json:"load,omitempty"`
	Predict  *protocol.InferenceRequest `json:"predict,omitempty"`
}

func main() {
	logger := observability.InitToolLogger("otfdump", os.Stderr)
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, logger))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, logger zerolog.Logger) int {
	fs := flag.NewFlagSet("otfdump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "-", "frame file to decode (- for stdin)")
	configPath := fs.String("config", "", "worker config for frame limits")
	hexInput := fs.Bool("hex", false, "input is hex text instead of raw bytes")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg := config.DefaultWorkerConfig()
	if *configPath != "" {
		loaded, err := config.LoadWorkerConfig(*configPath)
		if err != nil {
			logger.Error().Err(err).Msg("failed to load worker config")
			return exitUsage
		}
		cfg = loaded
	}
	cfg.MetricsEnabled = false

	frame, err := readFrame(*in, stdin, *hexInput)
	if err != nil {
		logger.Error().Err(err).Str("in", *in).Msg("failed to read frame")
		return exitUsage
	}

	w := worker.New(cfg, nil, logger)
	msg, err := w.HandleFrame(context.Background(), frame)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitCode(err)
	}

	out := report{
		Command:  msg.Command.String(),
		Consumed: msg.Consumed,
		Trailing: len(frame) - msg.Consumed,
		Load:     msg.Load,
		Predict:  msg.Predict,
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error().Err(err).Msg("failed to write report")
		return exitUsage
	}
	return exitOK
}

func readFrame(path string, stdin io.Reader, hexInput bool) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	if path == "" || path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if !hexInput {
		return raw, nil
	}
	text := strings.Join(strings.Fields(string(raw)), "")
	frame, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("hex input: %w", err)
	}
	return frame, nil
}

func exitCode(err error) int {
	switch protocol.ClassOf(err) {
	case protocol.ClassClient:
		return exitClient
	case protocol.ClassTransport:
		return exitTransport
	}
	if errors.Is(err, worker.ErrFrameTooLarge) || errors.Is(err, worker.ErrTrailingBytes) {
		return exitClient
	}
	return exitUsage
}
