package observability

import (
	"io"

	"github.com/danmuck/modelwire/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the runtime logger and tags it with app.
func InitLogger(app string) zerolog.Logger {
	logging.ConfigureRuntime()
	logger := log.Logger.With().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

// InitToolLogger is InitLogger for tools whose stdout carries data: events go
// to out without timestamps.
func InitToolLogger(app string, out io.Writer) zerolog.Logger {
	cfg := logging.DefaultConfig(logging.ProfileRuntime)
	cfg.Timestamp = false
	logging.ApplyEnvOverrides(&cfg)
	cfg.Out = out
	logger := logging.Apply(cfg).With().Str("app", app).Logger()
	log.Logger = logger
	return logger
}
