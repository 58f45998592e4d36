// Package analysis implements the HPACK indexing and byte-savings
// analysis engine: a single-pass, strictly sequential replay of
// decoded header-frame events that reconstructs what HPACK did versus
// what an uncompressed baseline would have cost.
//
// The engine has exactly two states. While accumulating, Process
// mutates per-category counters; Finalize transitions to the read-only
// state once and produces the report. Occurrence ordinals and eviction
// inference depend on events arriving in wire transmission order;
// reordered input silently skews cache-hit and eviction figures.
package analysis

import (
	"errors"
	"fmt"

	"github.com/cvalentine99/hpackstat/internal/classifier"
	"github.com/cvalentine99/hpackstat/internal/config"
	"github.com/cvalentine99/hpackstat/internal/logging"
	"github.com/cvalentine99/hpackstat/internal/models"
)

// ErrFinalized is returned by Process after the engine has been
// finalized.
var ErrFinalized = errors.New("analysis: engine already finalized")

// Engine replays a trace and accumulates per-category statistics.
// One engine instance serves exactly one trace replay; construct a new
// engine for each trace.
type Engine struct {
	opts *config.Options
	cls  *classifier.Classifier

	tracker *Tracker
	acct    *Accountant

	sessions         map[string]struct{}
	framesSeen       map[uint64]struct{}
	framesOfInterest map[uint64]struct{}
	eventsSeen       int

	warnings []models.Warning

	finalized bool
	report    *models.Report

	log *logging.Logger
}

// NewEngine creates an engine with the deployment's default classifier
// rules. opts may be nil for defaults.
func NewEngine(opts *config.Options) *Engine {
	if opts == nil {
		opts = config.DefaultOptions()
	}
	return NewEngineWithClassifier(opts, classifier.Default(opts.SignatureLengthThreshold, opts.SessionMarker))
}

// NewEngineWithClassifier creates an engine with an explicit
// classifier.
func NewEngineWithClassifier(opts *config.Options, cls *classifier.Classifier) *Engine {
	if opts == nil {
		opts = config.DefaultOptions()
	}
	return &Engine{
		opts:             opts,
		cls:              cls,
		tracker:          NewTracker(),
		acct:             NewAccountant(),
		sessions:         make(map[string]struct{}),
		framesSeen:       make(map[uint64]struct{}),
		framesOfInterest: make(map[uint64]struct{}),
		log:              logging.AnalysisLogger(),
	}
}

// Process consumes one header-frame event. It never fails on event
// content: events that are not of interest are ignored, degenerate
// events are tracked with a warning. The only error is processing
// after Finalize.
func (e *Engine) Process(ev models.HeaderFrameEvent) error {
	if e.finalized {
		return ErrFinalized
	}

	e.eventsSeen++
	e.framesSeen[ev.Frame] = struct{}{}

	cat, ok := e.cls.Classify(ev.Name, ev.Value)
	if !ok {
		return nil
	}

	if sid, found := e.cls.SessionID(ev.Value); found {
		e.sessions[sid] = struct{}{}
	}

	id := IdentityOf(ev.Value)
	ordinal := e.tracker.Observe(cat, id)

	if ev.Repr == models.RepresentationIndexed && ordinal == 1 {
		// The wire claims a table hit for a value never inserted.
		// Trust the wire: the event is still accounted as indexed.
		e.warn(models.Warning{
			Kind:     models.WarningConsistencyAnomaly,
			Frame:    ev.Frame,
			Category: cat,
			Detail:   "indexed representation on first occurrence of value",
		})
	}

	e.acct.Account(cat, &ev, ordinal)
	e.framesOfInterest[ev.Frame] = struct{}{}

	return nil
}

// ProcessAll replays an ordered event sequence.
func (e *Engine) ProcessAll(events []models.HeaderFrameEvent) error {
	for i := range events {
		if err := e.Process(events[i]); err != nil {
			return err
		}
	}
	return nil
}

// Finalized reports whether the engine has produced its report.
func (e *Engine) Finalized() bool {
	return e.finalized
}

// Finalize transitions the engine to its read-only state and returns
// the report. Subsequent calls return the same report; no further
// mutation is permitted.
func (e *Engine) Finalize() *models.Report {
	if e.finalized {
		return e.report
	}
	e.finalized = true

	if e.eventsSeen == 0 {
		e.warn(models.Warning{
			Kind:   models.WarningEmptyInput,
			Detail: "empty input: no events replayed",
		})
	}

	e.report = e.aggregate()

	e.log.Info("replay finalized",
		"frames", e.report.TotalFrames,
		"frames_of_interest", e.report.FramesOfInterest,
		"categories", len(e.report.Categories),
		"warnings", len(e.report.Warnings),
	)

	return e.report
}

// warn records a non-fatal condition; it never aborts the replay.
func (e *Engine) warn(w models.Warning) {
	e.warnings = append(e.warnings, w)
	e.log.Warn(w.Detail,
		"kind", string(w.Kind),
		"frame", w.Frame,
		"category", string(w.Category),
	)
}

// Warnings returns the warnings recorded so far.
func (e *Engine) Warnings() []models.Warning {
	return e.warnings
}

// RecordSkip records a skippable event error from the trace source so
// it surfaces alongside the statistics. Ignored after Finalize.
func (e *Engine) RecordSkip(frame uint64, detail string) {
	if e.finalized {
		return
	}
	e.warn(models.Warning{
		Kind:   models.WarningSkippedEvent,
		Frame:  frame,
		Detail: detail,
	})
}

// dataQualityWarning flags a category whose unique set contains the
// identity of the empty value.
func dataQualityWarning(cat models.Category, n int) models.Warning {
	return models.Warning{
		Kind:     models.WarningDataQuality,
		Category: cat,
		Detail:   fmt.Sprintf("category tracked %d empty-value occurrence(s)", n),
	}
}
