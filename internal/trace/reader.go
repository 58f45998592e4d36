// Package trace provides the header-frame event source for offline
// analysis. It parses tshark's field export into ordered
// HeaderFrameEvents; one export line carries one frame's headers as
// pipe-separated, comma-joined parallel lists:
//
//	frame.number|http2.streamid|http2.header.name|http2.header.value|http2.header.repr
//
// The reader consumes already-decoded text. It never touches raw HPACK
// bytes or capture files.
package trace

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cvalentine99/hpackstat/internal/logging"
	"github.com/cvalentine99/hpackstat/internal/models"
)

// MaxLineBytes bounds a single export line. Decoded JWT payloads run
// to hundreds of kilobytes; frames beyond this are skipped, not fatal.
const MaxLineBytes = 4 * 1024 * 1024

// ErrMalformedLine is returned by ParseLine for lines that cannot
// yield events.
var ErrMalformedLine = errors.New("trace: malformed export line")

// Stats holds reader progress counters.
type Stats struct {
	LinesRead     uint64
	EventsEmitted uint64
	SkippedLines  uint64
}

// Reader reads header-frame events from a tshark field export.
type Reader struct {
	scanner *bufio.Scanner
	stats   Stats
	log     *logging.Logger

	// OnSkip, when set, is invoked for every skipped line with its
	// 1-based line number and the reason. Skips never abort reading.
	OnSkip func(line int, reason string)
}

// NewReader creates a reader over a field-export stream.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	return &Reader{
		scanner: s,
		log:     logging.TraceLogger(),
	}
}

// ForEach streams events to fn in wire order. Malformed lines are
// counted and skipped. Reading stops when fn returns an error, the
// context is canceled, or input is exhausted.
func (r *Reader) ForEach(ctx context.Context, fn func(models.HeaderFrameEvent) error) error {
	lineNo := 0
	for r.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNo++
		r.stats.LinesRead++

		line := r.scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		events, err := ParseLine(line)
		if err != nil {
			r.skip(lineNo, err.Error())
			continue
		}

		for i := range events {
			r.stats.EventsEmitted++
			if err := fn(events[i]); err != nil {
				return err
			}
		}
	}
	if err := r.scanner.Err(); err != nil {
		return fmt.Errorf("trace: read input: %w", err)
	}
	return nil
}

// ReadAll collects every event in the stream.
func (r *Reader) ReadAll(ctx context.Context) ([]models.HeaderFrameEvent, error) {
	var events []models.HeaderFrameEvent
	err := r.ForEach(ctx, func(ev models.HeaderFrameEvent) error {
		events = append(events, ev)
		return nil
	})
	return events, err
}

// Stats returns the reader's progress counters.
func (r *Reader) Stats() Stats {
	return r.stats
}

func (r *Reader) skip(lineNo int, reason string) {
	r.stats.SkippedLines++
	r.log.Warn("skipping line", "line", lineNo, "reason", reason)
	if r.OnSkip != nil {
		r.OnSkip(lineNo, reason)
	}
}

// ParseLine parses one export line into its header events. A frame
// exporting N headers yields N events sharing the frame number.
//
// Values are comma-joined by the exporter, so a value embedding commas
// (a JSON payload) only survives intact when it is the frame's sole
// header of that field; multi-header frames with comma-bearing values
// are a known limitation of the export format, not of this reader.
func ParseLine(line string) ([]models.HeaderFrameEvent, error) {
	parts := strings.SplitN(line, "|", 5)
	if len(parts) < 4 {
		return nil, fmt.Errorf("%w: %d fields, need at least 4", ErrMalformedLine, len(parts))
	}

	frame, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad frame number %q", ErrMalformedLine, parts[0])
	}

	streamID := strings.TrimSpace(parts[1])
	names := splitField(parts[2])

	values := splitField(parts[3])
	if len(names) == 1 && len(values) != 1 {
		// Sole header: the commas belong to the value itself.
		values = []string{parts[3]}
	}

	var reprs []string
	if len(parts) > 4 {
		reprs = splitField(parts[4])
	}

	events := make([]models.HeaderFrameEvent, 0, len(names))
	for i, name := range names {
		value := ""
		if i < len(values) {
			value = values[i]
		}
		raw := ""
		if i < len(reprs) {
			raw = reprs[i]
		}

		events = append(events, models.HeaderFrameEvent{
			Frame:    frame,
			StreamID: streamID,
			Name:     name,
			Value:    value,
			Repr:     models.ParseRepresentation(raw),
			RawRepr:  raw,
		})
	}

	return events, nil
}

// splitField splits a comma-joined export field into trimmed entries.
// An empty field yields a single empty entry so parallel lists stay
// aligned.
func splitField(field string) []string {
	parts := strings.Split(field, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
