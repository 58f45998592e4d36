// Package config provides centralized configuration for hpackstat.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Default analysis constants. The table budgets match the protocol
// default (4 KiB) and the enlarged table used by the instrumented
// deployment (512 KiB); both are overridable.
const (
	DefaultSignatureLengthThreshold = 100
	DefaultSmallTableBudget         = 4096
	DefaultLargeTableBudget         = 512 * 1024
	DefaultSessionMarker            = `"session_id"`
)

// Options holds configurable analysis parameters.
// All options can be overridden via environment variables.
type Options struct {
	// SignatureLengthThreshold is the minimum value length for the
	// signature-shaped fallback classification rule.
	SignatureLengthThreshold int

	// TableBudgets are the dynamic-table size budgets (bytes) for
	// which the report projects entry capacity. At least two are
	// reported to show sensitivity.
	TableBudgets []int

	// SessionMarker is the substring that identifies a JSON payload
	// carrying a session identifier.
	SessionMarker string

	// LogLevel is the minimum log level ("debug", "info", "warn",
	// "error").
	LogLevel string

	// LogFormat is the log output format ("text" or "json").
	LogFormat string
}

// DefaultOptions returns the default analysis options.
// Values are determined by:
// 1. Environment variables (highest priority)
// 2. Built-in defaults
func DefaultOptions() *Options {
	return &Options{
		SignatureLengthThreshold: getEnvInt("HPACKSTAT_SIG_THRESHOLD", DefaultSignatureLengthThreshold),
		TableBudgets:             getEnvInts("HPACKSTAT_TABLE_BUDGETS", []int{DefaultSmallTableBudget, DefaultLargeTableBudget}),
		SessionMarker:            getEnvOrDefault("HPACKSTAT_SESSION_MARKER", DefaultSessionMarker),
		LogLevel:                 getEnvOrDefault("HPACKSTAT_LOG_LEVEL", "info"),
		LogFormat:                getEnvOrDefault("HPACKSTAT_LOG_FORMAT", "text"),
	}
}

// getEnvOrDefault returns the environment variable value or the default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable parsed as an int, or the
// default when unset or unparseable.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

// getEnvInts returns the environment variable parsed as a
// comma-separated list of positive ints, or the default when unset or
// unparseable.
func getEnvInts(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n <= 0 {
			return defaultValue
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
