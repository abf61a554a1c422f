package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/modelwire/internal/config"
	"github.com/danmuck/modelwire/internal/logging"
	"github.com/danmuck/modelwire/internal/observability"
	"github.com/danmuck/modelwire/internal/protocol"
)

var (
	ErrFrameTooLarge = errors.New("worker: frame too large")
	ErrTrailingBytes = errors.New("worker: trailing bytes after payload")
	ErrHandlerFailed = errors.New("worker: handler failed")
)

// Handler executes decoded requests. It is the model-execution side of the worker.
type Handler interface {
	Load(ctx context.Context, req protocol.LoadRequest) error
	Predict(ctx context.Context, req protocol.InferenceRequest) error
}

// HandlerFuncs adapts plain functions to Handler. A nil func accepts the request.
type HandlerFuncs struct {
	LoadFunc    func(ctx context.Context, req protocol.LoadRequest) error
	PredictFunc func(ctx context.Context, req protocol.InferenceRequest) error
}

func (h HandlerFuncs) Load(ctx context.Context, req protocol.LoadRequest) error {
	if h.LoadFunc == nil {
		return nil
	}
	return h.LoadFunc(ctx, req)
}

func (h HandlerFuncs) Predict(ctx context.Context, req protocol.InferenceRequest) error {
	if h.PredictFunc == nil {
		return nil
	}
	return h.PredictFunc(ctx, req)
}

// Stats is a point-in-time copy of the worker counters.
type Stats struct {
	Frames          uint64
	Loads           uint64
	Predicts        uint64
	ClientErrors    uint64
	TransportErrors uint64
	Rejected        uint64
	HandlerErrors   uint64
}

// Worker decodes frames and hands the requests to a Handler. HandleFrame may
// be called from several goroutines; the Handler must allow that too.
type Worker struct {
	cfg     config.WorkerConfig
	handler Handler
	logger  zerolog.Logger

	frames          atomic.Uint64
	loads           atomic.Uint64
	predicts        atomic.Uint64
	clientErrors    atomic.Uint64
	transportErrors atomic.Uint64
	rejected        atomic.Uint64
	handlerErrors   atomic.Uint64
}

// New builds a worker. cfg.LogLevel, when set, caps the level of logger.
func New(cfg config.WorkerConfig, handler Handler, logger zerolog.Logger) *Worker {
	if cfg.MaxFrameBytes <= 0 {
		cfg.MaxFrameBytes = config.DefaultMaxFrameBytes
	}
	if handler == nil {
		handler = HandlerFuncs{}
	}
	if lvl, ok := logging.ParseLevel(cfg.LogLevel); ok {
		logger = logger.Level(lvl)
	}
	return &Worker{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With().Str("worker", cfg.Name).Logger(),
	}
}

func (w *Worker) Stats() Stats {
	return Stats{
		Frames:          w.frames.Load(),
		Loads:           w.loads.Load(),
		Predicts:        w.predicts.Load(),
		ClientErrors:    w.clientErrors.Load(),
		TransportErrors: w.transportErrors.Load(),
		Rejected:        w.rejected.Load(),
		HandlerErrors:   w.handlerErrors.Load(),
	}
}

// HandleFrame decodes one frame and routes it. Decode failures come back as
// *protocol.DecodeError; the returned message is non-nil whenever decoding
// succeeded, even if the handler then failed.
func (w *Worker) HandleFrame(ctx context.Context, frame []byte) (*protocol.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.frames.Add(1)

	if len(frame) > w.cfg.MaxFrameBytes {
		w.rejected.Add(1)
		w.recordDecode("unknown", observability.OutcomeRejected, len(frame), 0)
		w.logger.Warn().
			Int("frame_bytes", len(frame)).
			Int("max_frame_bytes", w.cfg.MaxFrameBytes).
			Msg("frame rejected")
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(frame), w.cfg.MaxFrameBytes)
	}

	start := time.Now()
	msg, err := protocol.Decode(frame)
	elapsed := time.Since(start)
	if err != nil {
		w.decodeFailed(frame, err, elapsed)
		return nil, err
	}

	if trailing := frame[msg.Consumed:]; len(trailing) > 0 && !bytes.Equal(trailing, protocol.EndOfMessage) {
		if !w.cfg.AllowTrailingBytes {
			w.rejected.Add(1)
			w.recordDecode(msg.Command.String(), observability.OutcomeRejected, len(frame), elapsed)
			w.logger.Warn().
				Str("command", msg.Command.String()).
				Int("trailing_bytes", len(trailing)).
				Msg("frame rejected")
			return nil, fmt.Errorf("%w: %d bytes", ErrTrailingBytes, len(trailing))
		}
		w.logger.Warn().
			Str("command", msg.Command.String()).
			Int("trailing_bytes", len(trailing)).
			Msg("ignoring trailing bytes")
	}

	w.recordDecode(msg.Command.String(), observability.OutcomeOK, len(frame), elapsed)
	if err := w.dispatch(ctx, msg); err != nil {
		return msg, err
	}
	return msg, nil
}

func (w *Worker) decodeFailed(frame []byte, err error, elapsed time.Duration) {
	kind, _ := protocol.KindOf(err)
	class := protocol.ClassOf(err)

	outcome := observability.OutcomeTransport
	event := w.logger.Error()
	if class == protocol.ClassClient {
		outcome = observability.OutcomeClient
		event = w.logger.Warn()
		w.clientErrors.Add(1)
	} else {
		w.transportErrors.Add(1)
	}

	command := "unknown"
	if len(frame) >= protocol.PreambleSize+4 && protocol.Validate(frame) {
		var de *protocol.DecodeError
		if !errors.As(err, &de) || de.Kind != protocol.KindUnknownCommand {
			command = commandOf(frame).String()
		}
	}
	w.recordDecode(command, outcome, len(frame), elapsed)

	event.
		Str("command", command).
		Str("kind", kind.String()).
		Str("class", class.String()).
		Int("frame_bytes", len(frame)).
		Err(err).
		Msg("frame decode failed")
}

func (w *Worker) dispatch(ctx context.Context, msg *protocol.Message) error {
	start := time.Now()
	var err error
	switch msg.Command {
	case protocol.CommandLoad:
		w.loads.Add(1)
		err = w.handler.Load(ctx, *msg.Load)
	case protocol.CommandPredict:
		w.predicts.Add(1)
		err = w.handler.Predict(ctx, *msg.Predict)
	}
	elapsed := time.Since(start)
	if w.cfg.MetricsEnabled {
		observability.RecordHandler(msg.Command.String(), err == nil, elapsed)
	}
	if err != nil {
		w.handlerErrors.Add(1)
		w.logger.Error().
			Str("command", msg.Command.String()).
			Dur("duration", elapsed).
			Err(err).
			Msg("handler failed")
		return fmt.Errorf("%w: %s: %w", ErrHandlerFailed, msg.Command, err)
	}

	event := w.logger.Info().Str("command", msg.Command.String()).Dur("duration", elapsed)
	switch msg.Command {
	case protocol.CommandLoad:
		event = event.Str("model", msg.Load.ModelName).Int32("batch_size", msg.Load.BatchSize)
	case protocol.CommandPredict:
		event = event.Str("model", msg.Predict.ModelName).Int("batch", len(msg.Predict.RequestBatch))
	}
	event.Msg("frame handled")
	return nil
}

// Run handles frames in arrival order until the channel closes or ctx is
// done. A bad frame is counted and skipped; a handler failure stops the loop.
func (w *Worker) Run(ctx context.Context, frames <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			if _, err := w.HandleFrame(ctx, frame); err != nil {
				if IsFrameError(err) {
					continue
				}
				return err
			}
		}
	}
}

// IsFrameError reports whether err only condemns the frame it came from.
func IsFrameError(err error) bool {
	if _, ok := protocol.KindOf(err); ok {
		return true
	}
	return errors.Is(err, ErrFrameTooLarge) || errors.Is(err, ErrTrailingBytes)
}

func (w *Worker) recordDecode(command, outcome string, size int, elapsed time.Duration) {
	if !w.cfg.MetricsEnabled {
		return
	}
	observability.RecordDecode(command, outcome, size, elapsed)
}

func commandOf(frame []byte) protocol.Command {
	r := protocol.NewReader(frame[protocol.PreambleSize:])
	code, err := r.ReadInt32("command")
	if err != nil {
		return 0
	}
	return protocol.Command(code)
}
