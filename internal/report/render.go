// Package report renders the finalized analysis report. Renderers
// only format: every figure comes from the report model, nothing is
// re-derived here.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cvalentine99/hpackstat/internal/models"
)

// RenderJSON writes the report as indented JSON.
func RenderJSON(w io.Writer, rep *models.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

const rule = "================================================================================"

// RenderText writes the report as human-readable sections, mirroring
// the layout operators of the JWT compression tests worked with.
func RenderText(w io.Writer, rep *models.Report) error {
	var b strings.Builder

	section(&b, "HPACK INDEXING & BYTE-SAVINGS ANALYSIS")
	fmt.Fprintf(&b, "Total frames analyzed:     %d\n", rep.TotalFrames)
	fmt.Fprintf(&b, "Frames with headers of interest: %d\n", rep.FramesOfInterest)
	fmt.Fprintf(&b, "Unique sessions detected:  %d\n", rep.UniqueSessions)

	section(&b, "HEADER INDEXING STATISTICS")
	writeIndexingTable(&b, rep)

	section(&b, "HPACK DYNAMIC TABLE ANALYSIS")
	writeTableAnalysis(&b, rep)

	section(&b, "ACTUAL BYTE SAVINGS")
	writeByteSavings(&b, rep)

	section(&b, "INDEXING EFFICIENCY")
	writeEfficiency(&b, rep)

	if len(rep.Warnings) > 0 {
		section(&b, "WARNINGS")
		for _, warn := range rep.Warnings {
			if warn.Category != "" {
				fmt.Fprintf(&b, "  [%s] %s: %s\n", warn.Kind, warn.Category, warn.Detail)
			} else {
				fmt.Fprintf(&b, "  [%s] %s\n", warn.Kind, warn.Detail)
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func section(b *strings.Builder, title string) {
	fmt.Fprintf(b, "\n%s\n%s\n%s\n", rule, title, rule)
}

func writeIndexingTable(b *strings.Builder, rep *models.Report) {
	tw := tabwriter.NewWriter(b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Header\tTotal\tLiteral\tIndexed\tIndex Rate\tUnique Values")
	for _, cs := range rep.Categories {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.1f%%\t%d\n",
			cs.Category, cs.Occurrences, cs.LiteralCount, cs.IndexedCount,
			cs.IndexingRate, cs.UniqueValues)
	}
	t := rep.Totals
	fmt.Fprintf(tw, "TOTAL\t%d\t%d\t%d\t%.1f%%\t%d\n",
		t.Occurrences, t.LiteralCount, t.IndexedCount, t.IndexingRate, t.UniqueValues)
	tw.Flush()
}

func writeTableAnalysis(b *strings.Builder, rep *models.Report) {
	for _, cs := range rep.Categories {
		fmt.Fprintf(b, "\n%s:\n", cs.Category)
		fmt.Fprintf(b, "  Name indexed: %d (%.1f%%), name literal: %d\n",
			cs.NameIndexedCount, cs.NameIndexingRate, cs.NameLiteralCount)

		if cs.ValueSizes == nil {
			fmt.Fprintf(b, "  Value sizes: no values observed\n")
			continue
		}
		fmt.Fprintf(b, "  Value sizes: min=%d max=%d avg=%.1f bytes (%d unique)\n",
			cs.ValueSizes.Min, cs.ValueSizes.Max, cs.ValueSizes.Mean, cs.UniqueValues)
		fmt.Fprintf(b, "  Estimated table entry size: ~%.0f bytes (value=%.0f + name=%d + overhead=32)\n",
			cs.EntrySizeEstimate, cs.ValueSizes.Mean, len(cs.Category))
		for _, tc := range cs.TableCapacities {
			fmt.Fprintf(b, "    %s table: ~%.1f entries fit\n", budget(tc.Budget), tc.Entries)
		}
	}
}

func writeByteSavings(b *strings.Builder, rep *models.Report) {
	tw := tabwriter.NewWriter(b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Header\tPotential\tLiteral Sent\tIndexed Refs\tActual Sent\tSaved")
	for _, cs := range rep.Categories {
		bt := cs.Bytes
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d (~%d B)\t%d\t%d\n",
			cs.Category, bt.PotentialBytes, bt.LiteralBytesSent,
			bt.IndexedReferenceCount, bt.IndexedBytes(),
			bt.ActualBytesSent(), bt.BytesSaved())
	}
	t := rep.Totals.Bytes
	fmt.Fprintf(tw, "TOTAL\t%d\t%d\t%d (~%d B)\t%d\t%d\n",
		t.PotentialBytes, t.LiteralBytesSent,
		t.IndexedReferenceCount, t.IndexedBytes(),
		t.ActualBytesSent(), t.BytesSaved())
	tw.Flush()

	if rep.Totals.Bytes.PotentialBytes > 0 {
		fmt.Fprintf(b, "\nOverall compression: %.1f%% reduction (%d -> %d bytes)\n",
			rep.Totals.Bytes.CompressionPercent(),
			rep.Totals.Bytes.PotentialBytes,
			rep.Totals.Bytes.ActualBytesSent())
	}
}

func writeEfficiency(b *strings.Builder, rep *models.Report) {
	for _, cs := range rep.Categories {
		fmt.Fprintf(b, "\n%s:\n", cs.Category)
		fmt.Fprintf(b, "  Total occurrences:       %d\n", cs.Occurrences)
		fmt.Fprintf(b, "  Unique values seen:      %d\n", cs.UniqueValues)
		fmt.Fprintf(b, "  First occurrences:       %d\n", cs.FirstOccurrences)
		fmt.Fprintf(b, "  Reused from table:       %d\n", cs.ReusedFromTable)
		fmt.Fprintf(b, "  Value reuse rate:        %.1f%%\n", cs.ReuseRate)
		if cs.CacheHitMeaningful {
			fmt.Fprintf(b, "  Cache hit rate:          %.1f%%\n", cs.CacheHitRate)
		}
		if cs.EvictedBeforeReuse > 0 {
			fmt.Fprintf(b, "  Evicted before reuse:    %d (value left the table before its next use)\n",
				cs.EvictedBeforeReuse)
		}
	}
}

// budget formats a table budget in the unit operators expect.
func budget(n int) string {
	if n >= 1024 && n%1024 == 0 {
		return fmt.Sprintf("%dKB", n/1024)
	}
	return fmt.Sprintf("%dB", n)
}
