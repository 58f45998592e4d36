package config

import (
	"reflect"
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.SignatureLengthThreshold != DefaultSignatureLengthThreshold {
		t.Errorf("threshold = %d", opts.SignatureLengthThreshold)
	}
	if !reflect.DeepEqual(opts.TableBudgets, []int{DefaultSmallTableBudget, DefaultLargeTableBudget}) {
		t.Errorf("budgets = %v", opts.TableBudgets)
	}
	if opts.SessionMarker != DefaultSessionMarker {
		t.Errorf("marker = %q", opts.SessionMarker)
	}
	if opts.LogLevel != "info" || opts.LogFormat != "text" {
		t.Errorf("logging defaults = %q/%q", opts.LogLevel, opts.LogFormat)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HPACKSTAT_SIG_THRESHOLD", "64")
	t.Setenv("HPACKSTAT_TABLE_BUDGETS", "1024, 8192,65536")
	t.Setenv("HPACKSTAT_SESSION_MARKER", `"sid"`)
	t.Setenv("HPACKSTAT_LOG_LEVEL", "debug")

	opts := DefaultOptions()

	if opts.SignatureLengthThreshold != 64 {
		t.Errorf("threshold = %d, want 64", opts.SignatureLengthThreshold)
	}
	if !reflect.DeepEqual(opts.TableBudgets, []int{1024, 8192, 65536}) {
		t.Errorf("budgets = %v", opts.TableBudgets)
	}
	if opts.SessionMarker != `"sid"` {
		t.Errorf("marker = %q", opts.SessionMarker)
	}
	if opts.LogLevel != "debug" {
		t.Errorf("level = %q", opts.LogLevel)
	}
}

func TestEnvOverridesRejectGarbage(t *testing.T) {
	t.Setenv("HPACKSTAT_SIG_THRESHOLD", "-5")
	t.Setenv("HPACKSTAT_TABLE_BUDGETS", "4096,banana")

	opts := DefaultOptions()

	if opts.SignatureLengthThreshold != DefaultSignatureLengthThreshold {
		t.Errorf("negative threshold accepted: %d", opts.SignatureLengthThreshold)
	}
	if !reflect.DeepEqual(opts.TableBudgets, []int{DefaultSmallTableBudget, DefaultLargeTableBudget}) {
		t.Errorf("unparseable budgets accepted: %v", opts.TableBudgets)
	}
}
