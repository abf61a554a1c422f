package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/modelwire/internal/logging"
)

// DefaultMaxFrameBytes caps a single buffered frame.
const DefaultMaxFrameBytes = 8 * 1024 * 1024

// WorkerConfig is the runtime setup of the frame worker.
type WorkerConfig struct {
	Name               string
	MaxFrameBytes      int
	AllowTrailingBytes bool
	LogLevel           string
	MetricsEnabled     bool
}

// worker.toml key mapping to WorkerConfig.
type fileConfig struct {
	Name               string `toml:"name"`
	MaxFrameBytes      int    `toml:"max_frame_bytes"`
	AllowTrailingBytes bool   `toml:"allow_trailing_bytes"`
	LogLevel           string `toml:"log_level"`
	MetricsEnabled     bool   `toml:"metrics_enabled"`
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Name:               "modelwire",
		MaxFrameBytes:      DefaultMaxFrameBytes,
		AllowTrailingBytes: true,
		LogLevel:           "info",
		MetricsEnabled:     true,
	}
}

// LoadWorkerConfig reads path and overlays the keys it defines onto the defaults.
func LoadWorkerConfig(path string) (WorkerConfig, error) {
	cfg := DefaultWorkerConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return WorkerConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return WorkerConfig{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("name") {
		cfg.Name = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("max_frame_bytes") {
		cfg.MaxFrameBytes = raw.MaxFrameBytes
	}
	if meta.IsDefined("allow_trailing_bytes") {
		cfg.AllowTrailingBytes = raw.AllowTrailingBytes
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("metrics_enabled") {
		cfg.MetricsEnabled = raw.MetricsEnabled
	}

	if err := ValidateWorkerConfig(cfg); err != nil {
		return WorkerConfig{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func ValidateWorkerConfig(cfg WorkerConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("worker config missing name")
	}
	if cfg.MaxFrameBytes <= 0 {
		return fmt.Errorf("max_frame_bytes must be positive, got %d", cfg.MaxFrameBytes)
	}
	if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("unknown log_level %q", cfg.LogLevel)
	}
	return nil
}
