// Package models defines the core data structures for hpackstat:
// decoded header-frame trace events on the input side and the
// render-agnostic analysis report on the output side.
package models

import "strings"

// Representation describes how HPACK encoded a single header occurrence
// on the wire (RFC 7541 section 6).
type Representation int

const (
	// RepresentationUnknown covers representation strings the trace
	// vocabulary does not recognize. Accounting treats it like
	// RepresentationLiteralNoIndex, the conservative case.
	RepresentationUnknown Representation = iota

	// RepresentationIndexed means both name and value were served from
	// the static or dynamic table; zero name/value bytes retransmitted.
	RepresentationIndexed

	// RepresentationLiteralIncremental means the value was sent
	// literally and the pair was inserted into the dynamic table.
	RepresentationLiteralIncremental

	// RepresentationLiteralNoIndex means the value was sent literally
	// without touching the dynamic table.
	RepresentationLiteralNoIndex

	// RepresentationLiteralNeverIndexed is the intermediary-protected
	// variant of RepresentationLiteralNoIndex.
	RepresentationLiteralNeverIndexed
)

// String returns the canonical name of the representation.
func (r Representation) String() string {
	switch r {
	case RepresentationIndexed:
		return "Indexed Header Field"
	case RepresentationLiteralIncremental:
		return "Literal Header Field with Incremental Indexing"
	case RepresentationLiteralNoIndex:
		return "Literal Header Field without Indexing"
	case RepresentationLiteralNeverIndexed:
		return "Literal Header Field never Indexed"
	}
	return "Unknown"
}

// Literal reports whether the representation transmitted the value
// bytes on the wire.
func (r Representation) Literal() bool {
	return r != RepresentationIndexed
}

// ParseRepresentation maps the trace vocabulary (tshark's
// http2.header.repr strings) to a Representation. Unrecognized strings
// map to RepresentationUnknown, which downstream accounting treats as a
// plain literal.
func ParseRepresentation(s string) Representation {
	switch {
	case s == "Indexed Header Field":
		return RepresentationIndexed
	case strings.Contains(s, "Incremental Indexing"):
		return RepresentationLiteralIncremental
	case strings.Contains(s, "never Indexed"), strings.Contains(s, "Never Indexed"):
		return RepresentationLiteralNeverIndexed
	case strings.Contains(s, "Literal"):
		return RepresentationLiteralNoIndex
	}
	return RepresentationUnknown
}

// HeaderFrameEvent is one observed wire occurrence of a header,
// immutable once produced by the trace source. Name is empty when
// HPACK referenced the name from a table without retransmitting it.
type HeaderFrameEvent struct {
	Frame    uint64         `json:"frame"`
	StreamID string         `json:"stream_id,omitempty"`
	Name     string         `json:"name,omitempty"`
	Value    string         `json:"value"`
	Repr     Representation `json:"repr"`
	RawRepr  string         `json:"raw_repr,omitempty"`
}

// NameElided reports whether the header name was absent from the wire
// occurrence (served from a table reference).
func (e *HeaderFrameEvent) NameElided() bool {
	return e.Name == "" || e.Name == "unknown"
}

// Category is a logical header category the analysis tracks, e.g.
// "authorization" or "x-jwt-payload". The category string doubles as
// the canonical header name for byte accounting.
type Category string

// WarningKind classifies non-fatal conditions surfaced alongside the
// report.
type WarningKind string

const (
	// WarningSkippedEvent marks a malformed or incomplete event that
	// was excluded from statistics.
	WarningSkippedEvent WarningKind = "skipped_event"

	// WarningConsistencyAnomaly marks an Indexed representation on a
	// value's first-ever occurrence: the wire claims a table hit for a
	// value that was never inserted. The event is still counted as
	// indexed; the wire is trusted over the inferred model.
	WarningConsistencyAnomaly WarningKind = "consistency_anomaly"

	// WarningDataQuality marks degenerate but stable input, such as a
	// category tracking the identity of the empty value.
	WarningDataQuality WarningKind = "data_quality"

	// WarningEmptyInput marks a replay that saw no events at all.
	WarningEmptyInput WarningKind = "empty_input"
)

// Warning records a single non-fatal condition observed during replay.
type Warning struct {
	Kind     WarningKind `json:"kind"`
	Frame    uint64      `json:"frame,omitempty"`
	Category Category    `json:"category,omitempty"`
	Detail   string      `json:"detail"`
}

// ByteAccounting holds the stored byte counters for one category.
// Derived figures (indexed bytes, actual bytes, savings) are always
// recomputed from these, never stored.
type ByteAccounting struct {
	// PotentialBytes is the uncompressed baseline: name + value + 2
	// length-prefix bytes for every occurrence, regardless of how
	// HPACK actually encoded it.
	PotentialBytes int `json:"potential_bytes"`

	// LiteralBytesSent counts bytes actually transmitted literally.
	LiteralBytesSent int `json:"literal_bytes_sent"`

	// IndexedReferenceCount counts table-reference transmissions.
	IndexedReferenceCount int `json:"indexed_reference_count"`
}

// IndexedReferenceCost is the conservative per-reference wire cost.
// HPACK small-integer indexes cost 1-2 bytes; 2 is used throughout.
const IndexedReferenceCost = 2

// IndexedBytes returns the wire cost of all table references.
func (b ByteAccounting) IndexedBytes() int {
	return b.IndexedReferenceCount * IndexedReferenceCost
}

// ActualBytesSent returns literal bytes plus table-reference bytes.
func (b ByteAccounting) ActualBytesSent() int {
	return b.LiteralBytesSent + b.IndexedBytes()
}

// BytesSaved returns the baseline cost minus the actual cost.
func (b ByteAccounting) BytesSaved() int {
	return b.PotentialBytes - b.ActualBytesSent()
}

// CompressionPercent returns the percentage reduction against the
// uncompressed baseline, 0 when no baseline bytes were observed.
func (b ByteAccounting) CompressionPercent() float64 {
	if b.PotentialBytes == 0 {
		return 0
	}
	return (1 - float64(b.ActualBytesSent())/float64(b.PotentialBytes)) * 100
}

// SizeStats summarizes observed value byte-lengths for one category.
// Absent entirely (nil pointer in CategoryStats) when no sizes were
// observed; never reported as zeros.
type SizeStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
}

// TableCapacity is a dynamic-table sizing projection for one budget.
type TableCapacity struct {
	Budget  int     `json:"budget_bytes"`
	Entries float64 `json:"entries"`
}

// CategoryStats is the finalized per-category report. Owned by the
// report after replay completes; read-only.
type CategoryStats struct {
	Category Category `json:"category"`

	Occurrences      int `json:"occurrences"`
	LiteralCount     int `json:"literal_count"`
	IndexedCount     int `json:"indexed_count"`
	NameIndexedCount int `json:"name_indexed_count"`
	NameLiteralCount int `json:"name_literal_count"`

	// IndexingRate and NameIndexingRate are percentages in [0,100],
	// exactly 0 when their denominators are 0.
	IndexingRate     float64 `json:"indexing_rate"`
	NameIndexingRate float64 `json:"name_indexing_rate"`

	UniqueValues int        `json:"unique_values"`
	ValueSizes   *SizeStats `json:"value_sizes,omitempty"`

	// EntrySizeEstimate is mean value size + category name length +
	// the RFC 7541 per-entry overhead (32). Zero when ValueSizes is
	// absent.
	EntrySizeEstimate float64         `json:"entry_size_estimate,omitempty"`
	TableCapacities   []TableCapacity `json:"table_capacities,omitempty"`

	Bytes ByteAccounting `json:"bytes"`

	FirstOccurrences int `json:"first_occurrences"`
	ReusedFromTable  int `json:"reused_from_table"`

	// ReuseRate is the share of occurrences that repeated an
	// already-seen value; CacheHitRate is the share of potential
	// reuses actually served from the table. Both percentages,
	// zero-guarded. CacheHitMeaningful is false when there were no
	// potential reuses.
	ReuseRate          float64 `json:"reuse_rate"`
	CacheHitRate       float64 `json:"cache_hit_rate"`
	CacheHitMeaningful bool    `json:"cache_hit_meaningful"`

	// EvictedBeforeReuse counts repeats that should have been table
	// hits but were retransmitted literally: the value was inserted
	// and then pushed out before it could be referenced again.
	EvictedBeforeReuse int `json:"evicted_before_reuse"`

	// PerValueOccurrences maps hex value identities to occurrence
	// counts. Identities are opaque equality keys, never reversed.
	PerValueOccurrences map[string]int `json:"per_value_occurrences,omitempty"`
}

// Totals aggregates counters across all categories.
type Totals struct {
	Occurrences        int            `json:"occurrences"`
	LiteralCount       int            `json:"literal_count"`
	IndexedCount       int            `json:"indexed_count"`
	IndexingRate       float64        `json:"indexing_rate"`
	UniqueValues       int            `json:"unique_values"`
	Bytes              ByteAccounting `json:"bytes"`
	FirstOccurrences   int            `json:"first_occurrences"`
	ReusedFromTable    int            `json:"reused_from_table"`
	EvictedBeforeReuse int            `json:"evicted_before_reuse"`
}

// Report is the finalized analysis output. Render-agnostic: callers
// format it as text, JSON, or anything else without re-deriving any
// statistic.
type Report struct {
	TotalFrames      int `json:"total_frames"`
	FramesOfInterest int `json:"frames_of_interest"`
	UniqueSessions   int `json:"unique_sessions"`

	Categories []*CategoryStats `json:"categories"`
	Totals     Totals           `json:"totals"`

	Warnings []Warning `json:"warnings,omitempty"`
}

// Category returns the stats for one category, nil when the category
// saw no classified events.
func (r *Report) Category(c Category) *CategoryStats {
	for _, cs := range r.Categories {
		if cs.Category == c {
			return cs
		}
	}
	return nil
}
