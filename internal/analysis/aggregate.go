package analysis

import (
	"sort"

	"github.com/cvalentine99/hpackstat/internal/models"
)

// entryOverhead is the RFC 7541 per-entry bookkeeping cost added to
// name + value when sizing dynamic-table entries.
const entryOverhead = 32

// aggregate builds the immutable report from the accumulated state.
// It only reads; Finalize has already sealed the engine.
func (e *Engine) aggregate() *models.Report {
	cats := make([]models.Category, 0, len(e.acct.perCategory))
	for cat := range e.acct.perCategory {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	rep := &models.Report{
		TotalFrames:      len(e.framesSeen),
		FramesOfInterest: len(e.framesOfInterest),
		UniqueSessions:   len(e.sessions),
		Categories:       make([]*models.CategoryStats, 0, len(cats)),
	}

	for _, cat := range cats {
		c := e.acct.perCategory[cat]
		counts := e.tracker.Counts(cat)

		if n, ok := counts[emptyIdentity]; ok {
			e.warn(dataQualityWarning(cat, n))
		}

		rep.Categories = append(rep.Categories, e.categoryStats(cat, c, counts))
	}

	rep.Totals = totals(rep.Categories)
	rep.Warnings = e.warnings

	return rep
}

// categoryStats derives every read-time figure for one category.
func (e *Engine) categoryStats(cat models.Category, c *categoryCounters, counts map[ValueIdentity]int) *models.CategoryStats {
	total := c.total()
	unique := len(counts)

	cs := &models.CategoryStats{
		Category:         cat,
		Occurrences:      total,
		LiteralCount:     c.literalCount,
		IndexedCount:     c.indexedCount,
		NameIndexedCount: c.nameIndexed,
		NameLiteralCount: c.nameLiteral,
		IndexingRate:     percent(c.indexedCount, total),
		NameIndexingRate: percent(c.nameIndexed, c.nameIndexed+c.nameLiteral),
		UniqueValues:     unique,
		Bytes:            c.bytes,
		FirstOccurrences: c.firstOccurrences,
		ReusedFromTable:  c.reusedFromTable,
	}

	if len(c.sizes) > 0 {
		cs.ValueSizes = sizeStats(c.sizes)
		cs.EntrySizeEstimate = cs.ValueSizes.Mean + float64(len(cat)) + entryOverhead
		cs.TableCapacities = capacities(e.opts.TableBudgets, cs.EntrySizeEstimate)
	}

	cs.ReuseRate = percent(total-unique, total)

	potentialReuses := total - c.firstOccurrences
	if potentialReuses > 0 {
		cs.CacheHitRate = percent(c.reusedFromTable, potentialReuses)
		cs.CacheHitMeaningful = true
	}

	// Repeats that were not served from the table: the value was
	// inserted, evicted, and retransmitted literally. Consistency
	// anomalies (table hits on first occurrences) can push the raw
	// figure below zero; those are already surfaced as warnings.
	evicted := (total - unique) - c.reusedFromTable
	if evicted < 0 {
		evicted = 0
	}
	cs.EvictedBeforeReuse = evicted

	cs.PerValueOccurrences = make(map[string]int, len(counts))
	for id, n := range counts {
		cs.PerValueOccurrences[id.Hex()] = n
	}

	return cs
}

// totals folds category stats into the aggregate row.
func totals(categories []*models.CategoryStats) models.Totals {
	var t models.Totals
	for _, cs := range categories {
		t.Occurrences += cs.Occurrences
		t.LiteralCount += cs.LiteralCount
		t.IndexedCount += cs.IndexedCount
		t.UniqueValues += cs.UniqueValues
		t.Bytes.PotentialBytes += cs.Bytes.PotentialBytes
		t.Bytes.LiteralBytesSent += cs.Bytes.LiteralBytesSent
		t.Bytes.IndexedReferenceCount += cs.Bytes.IndexedReferenceCount
		t.FirstOccurrences += cs.FirstOccurrences
		t.ReusedFromTable += cs.ReusedFromTable
		t.EvictedBeforeReuse += cs.EvictedBeforeReuse
	}
	t.IndexingRate = percent(t.IndexedCount, t.Occurrences)
	return t
}

// percent computes num/den as a percentage, exactly 0 when the
// denominator is 0. Never NaN.
func percent(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den) * 100
}

// sizeStats computes min/max/mean over observed value lengths.
func sizeStats(sizes []int) *models.SizeStats {
	s := &models.SizeStats{Min: sizes[0], Max: sizes[0]}
	sum := 0
	for _, n := range sizes {
		if n < s.Min {
			s.Min = n
		}
		if n > s.Max {
			s.Max = n
		}
		sum += n
	}
	s.Mean = float64(sum) / float64(len(sizes))
	return s
}

// capacities projects how many entries of the estimated size fit in
// each table budget.
func capacities(budgets []int, entrySize float64) []models.TableCapacity {
	if entrySize <= 0 {
		return nil
	}
	out := make([]models.TableCapacity, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, models.TableCapacity{
			Budget:  b,
			Entries: float64(b) / entrySize,
		})
	}
	return out
}
