// Package obs holds the observability plumbing shared across the service:
// the zerolog root logger and the Prometheus metric set.
package obs

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	loggerOnce sync.Once
	logger     zerolog.Logger
)

// LogOptions controls logger initialisation.
type LogOptions struct {
	// Level is the minimum level: trace, debug, info, warn, error.
	// Unrecognised or empty values mean info.
	Level string
	// Pretty switches to human-readable console output for local runs.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
}

// InitLogger builds the shared logger once; later calls are no-ops.
func InitLogger(opts LogOptions) zerolog.Logger {
	loggerOnce.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		out := opts.Output
		if out == nil {
			out = os.Stdout
		}
		if opts.Pretty {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		}
		logger = zerolog.New(out).Level(parseLevel(opts.Level)).With().Timestamp().Logger()
	})
	return logger
}

// Logger returns the shared logger, initialising it with defaults if needed.
// A pointer so call sites can chain zerolog's event methods directly.
func Logger() *zerolog.Logger {
	InitLogger(LogOptions{})
	return &logger
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
