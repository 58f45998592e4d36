// Package logging provides structured logging for hpackstat.
// It wraps the standard library slog package with hpackstat-specific
// defaults and convenience functions.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Level represents log levels
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Logger is the hpackstat structured logger
type Logger struct {
	*slog.Logger
	level  *slog.LevelVar
	output io.Writer
}

// Config holds logger configuration
type Config struct {
	// Level is the minimum log level
	Level Level

	// Output is the log output destination
	Output io.Writer

	// Format is the log format ("json" or "text")
	Format string

	// AddSource adds source file and line to log entries
	AddSource bool

	// TimeFormat is the time format for text output
	TimeFormat string
}

// DefaultConfig returns default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:      LevelInfo,
		Output:     os.Stderr,
		Format:     "text",
		AddSource:  false,
		TimeFormat: time.RFC3339,
	}
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init initializes the default logger
func Init(cfg *Config) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(cfg.Level)

	opts := &slog.HandlerOptions{
		Level:     levelVar,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}

	defaultLogger = &Logger{
		Logger: slog.New(handler),
		level:  levelVar,
		output: cfg.Output,
	}

	// Set as default slog logger
	slog.SetDefault(defaultLogger.Logger)
}

// Default returns the default logger, initializing if necessary
func Default() *Logger {
	once.Do(func() {
		if defaultLogger == nil {
			Init(nil)
		}
	})
	return defaultLogger
}

// SetLevel changes the log level at runtime
func (l *Logger) SetLevel(level Level) {
	l.level.Set(level)
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() Level {
	return l.level.Level()
}

// WithComponent returns a logger with a component field
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("component", name),
		level:  l.level,
		output: l.output,
	}
}

// =============================================================================
// Convenience Functions (use default logger)
// =============================================================================

// Debug logs at debug level
func Debug(msg string, args ...any) {
	Default().Debug(msg, args...)
}

// Info logs at info level
func Info(msg string, args ...any) {
	Default().Info(msg, args...)
}

// Warn logs at warn level
func Warn(msg string, args ...any) {
	Default().Warn(msg, args...)
}

// Error logs at error level
func Error(msg string, args ...any) {
	Default().Error(msg, args...)
}

// =============================================================================
// Specialized Loggers for hpackstat Components
// =============================================================================

// TraceLogger returns a logger for the trace event source
func TraceLogger() *Logger {
	return Default().WithComponent("trace")
}

// ClassifierLogger returns a logger for header classification
func ClassifierLogger() *Logger {
	return Default().WithComponent("classifier")
}

// AnalysisLogger returns a logger for the analysis engine
func AnalysisLogger() *Logger {
	return Default().WithComponent("analysis")
}

// SimulateLogger returns a logger for the synthetic trace generator
func SimulateLogger() *Logger {
	return Default().WithComponent("simulate")
}

// ReportLogger returns a logger for report rendering
func ReportLogger() *Logger {
	return Default().WithComponent("report")
}

// =============================================================================
// Structured Field Helpers
// =============================================================================

// Event returns log attributes for a header-frame event
func Event(frame uint64, name string, repr string) slog.Attr {
	return slog.Group("event",
		slog.Uint64("frame", frame),
		slog.String("name", name),
		slog.String("repr", repr),
	)
}

// CategoryAttr returns log attributes for a category's running counts
func CategoryAttr(category string, occurrences, unique int) slog.Attr {
	return slog.Group("category",
		slog.String("name", category),
		slog.Int("occurrences", occurrences),
		slog.Int("unique_values", unique),
	)
}

// Err returns a log attribute for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}
