package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for decoded frames.
const (
	OutcomeOK        = "ok"
	OutcomeClient    = "client_error"
	OutcomeTransport = "transport_error"
	OutcomeRejected  = "rejected"
)

var (
	registerOnce sync.Once

	decodeFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelwire",
			Subsystem: "decode",
			Name:      "frames_total",
			Help:      "Frames handed to the decoder.",
		},
		[]string{"command", "outcome"},
	)
	decodeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "modelwire",
			Subsystem: "decode",
			Name:      "duration_seconds",
			Help:      "Frame decode duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
		[]string{"command"},
	)
	decodeFrameBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "modelwire",
			Subsystem: "decode",
			Name:      "frame_bytes",
			Help:      "Size of decoded frames in bytes.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 10),
		},
		[]string{"command"},
	)
	handlerCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelwire",
			Subsystem: "handler",
			Name:      "calls_total",
			Help:      "Decoded requests routed to the model handler.",
		},
		[]string{"command", "success"},
	)
	handlerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "modelwire",
			Subsystem: "handler",
			Name:      "duration_seconds",
			Help:      "Model handler duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"command", "success"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(decodeFrames, decodeDuration, decodeFrameBytes, handlerCalls, handlerDuration)
	})
}

// RecordDecode counts one frame. command is "unknown" when the frame never
// got as far as a valid command code.
func RecordDecode(command, outcome string, size int, duration time.Duration) {
	RegisterMetrics()
	decodeFrames.WithLabelValues(command, outcome).Inc()
	decodeDuration.WithLabelValues(command).Observe(duration.Seconds())
	decodeFrameBytes.WithLabelValues(command).Observe(float64(size))
}

func RecordHandler(command string, success bool, duration time.Duration) {
	RegisterMetrics()
	successLabel := strconv.FormatBool(success)
	handlerCalls.WithLabelValues(command, successLabel).Inc()
	handlerDuration.WithLabelValues(command, successLabel).Observe(duration.Seconds())
}
