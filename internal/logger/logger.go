package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/indigo-web/simplehttp/config"
	"github.com/rs/zerolog"
)

const timeFormat = "2006-01-02 15:04:05"

// New builds a logger writing to the configured output. The returned closer
// must be called on exit; it's a no-op for stdout and stderr.
func New(cfg config.Logging) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	out, closer, err := openOutput(cfg.Output)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	return newLogger(out, cfg.Format, level), closer, nil
}

func newLogger(out io.Writer, format string, level zerolog.Level) zerolog.Logger {
	if format == "text" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    true,
			TimeFormat: timeFormat,
			FormatLevel: func(i any) string {
				return "[" + strings.ToUpper(fmt.Sprint(i)) + "]"
			},
		}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// ParseLevel accepts DEBUG, INFO, WARN and ERROR in any case.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zerolog.DebugLevel, nil
	case "INFO":
		return zerolog.InfoLevel, nil
	case "WARN":
		return zerolog.WarnLevel, nil
	case "ERROR":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level: %q", level)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openOutput(output string) (io.Writer, io.Closer, error) {
	switch output {
	case "stdout":
		return os.Stdout, nopCloser{}, nil
	case "stderr":
		return os.Stderr, nopCloser{}, nil
	}

	file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return file, file, nil
}
