package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LoggingConfig selects the level, encoding and destination of service logs.
// Format is json, console (no colour) or pretty (coloured console); Output is
// stdout or stderr.
type LoggingConfig struct {
	Level      string
	Format     string
	Output     string
	AddSource  bool
	TimeFormat string
}

// DefaultLoggingConfig is the JSON-to-stdout setup used by the API server.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:      "info",
		Format:     "json",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}
}

// NewLogger builds the root logger. It also sets the zerolog global level,
// so loggers derived elsewhere honour the configured level.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	out := io.Writer(os.Stdout)
	if strings.EqualFold(cfg.Output, "stderr") {
		out = os.Stderr
	}
	return newLogger(cfg, out)
}

func newLogger(cfg LoggingConfig, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = cfg.TimeFormat
	if zerolog.TimeFieldFormat == "" {
		zerolog.TimeFieldFormat = time.RFC3339
	}

	switch format := strings.ToLower(cfg.Format); format {
	case "console", "pretty":
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: zerolog.TimeFieldFormat,
			NoColor:    format == "console",
		}
	}

	ctx := zerolog.New(out).With().Timestamp()
	if cfg.AddSource {
		ctx = ctx.Caller()
	}

	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)
	return ctx.Logger().Level(level)
}

// parseLevel accepts zerolog level names plus "warning". Anything it cannot
// read falls back to info.
func parseLevel(name string) zerolog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		return zerolog.WarnLevel
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// WithComponent tags every entry of the returned logger with the emitting component.
func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// WithRequestContext adds HTTP request fields to a logger.
func WithRequestContext(logger zerolog.Logger, requestID, method, path string) zerolog.Logger {
	return logger.With().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Logger()
}

// WithEntityContext adds the kind and id of the catalog entity being handled.
func WithEntityContext(logger zerolog.Logger, entity string, id int64) zerolog.Logger {
	return logger.With().
		Str("entity", entity).
		Int64("entity_id", id).
		Logger()
}
