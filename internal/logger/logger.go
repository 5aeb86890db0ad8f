// Package logger builds zerolog loggers from file-based configuration.
// It supports console, text and JSON formats plus rotated file output.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arkid15r/utiso-dorkbot/internal/common"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Format identifies a log output format.
type Format string

const (
	FormatConsole Format = "console"
	FormatText    Format = "text"
	FormatJSON    Format = "json"
)

// Config defines logging configuration.
type Config struct {
	LogFile       string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	LogFormat     string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,logformat"`
	LogLevel      string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,loglevel"`
	MaxLogBackups int    `json:"max_log_backups,omitempty" yaml:"max_log_backups,omitempty"`
	MaxLogSizeMB  int    `json:"max_log_size_mb,omitempty" yaml:"max_log_size_mb,omitempty"`
}

// NewDefaultConfig creates default logging configuration.
func NewDefaultConfig() Config {
	return Config{
		LogFormat:     string(FormatConsole),
		LogLevel:      "info",
		MaxLogBackups: 3,
		MaxLogSizeMB:  10,
	}
}

// New creates a zerolog logger from the given configuration. When LogFile
// is set, output goes to a size-rotated file; otherwise it goes to stderr.
func New(cfg Config) (zerolog.Logger, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Logger{}, err
	}

	var output io.Writer
	if cfg.LogFile != "" {
		if dir := filepath.Dir(cfg.LogFile); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return zerolog.Logger{}, common.WrapErrorf(err, "failed to create log directory '%s'", dir)
			}
		}
		output = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxLogSizeMB,
			MaxBackups: cfg.MaxLogBackups,
		}
	} else {
		output = os.Stderr
	}

	output = wrapWriter(output, parseFormat(cfg.LogFormat))

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	return logger, nil
}

func parseLevel(level string) (zerolog.Level, error) {
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.NoLevel, common.WrapErrorf(err, "invalid log level '%s'", level)
	}
	return parsed, nil
}

func parseFormat(format string) Format {
	switch strings.ToLower(format) {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return FormatConsole
	}
}

func wrapWriter(output io.Writer, format Format) io.Writer {
	switch format {
	case FormatJSON:
		return output
	case FormatText:
		return zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		}
	default:
		return zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}
}
