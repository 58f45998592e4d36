package analysis

import "github.com/cvalentine99/hpackstat/internal/models"

// categoryCounters is the mutable per-category state accumulated
// during replay. It is owned exclusively by the engine while
// accumulating and is copied into the immutable report at finalize.
type categoryCounters struct {
	literalCount int
	indexedCount int

	nameIndexed int
	nameLiteral int

	// sizes holds every observed value byte-length in replay order.
	sizes []int

	bytes models.ByteAccounting

	firstOccurrences int
	reusedFromTable  int
}

// Accountant converts classified occurrences into byte-level
// accounting per category. The representation tag takes precedence
// over the occurrence ordinal: the wire is trusted over the inferred
// model.
type Accountant struct {
	perCategory map[models.Category]*categoryCounters
}

// NewAccountant creates an empty accountant.
func NewAccountant() *Accountant {
	return &Accountant{
		perCategory: make(map[models.Category]*categoryCounters),
	}
}

// counters returns (creating if needed) the counters for cat.
func (a *Accountant) counters(cat models.Category) *categoryCounters {
	c := a.perCategory[cat]
	if c == nil {
		c = &categoryCounters{}
		a.perCategory[cat] = c
	}
	return c
}

// Account applies one classified occurrence to its category.
//
// The uncompressed baseline always accumulates name + value + 2
// length-prefix bytes, whatever the representation. The category's
// canonical name length stands in for the wire name: for elided names
// nothing was transmitted, and the baseline measures what an
// uncompressed transport would have sent.
func (a *Accountant) Account(cat models.Category, ev *models.HeaderFrameEvent, ordinal int) {
	c := a.counters(cat)

	nameLen := len(cat)
	valueLen := len(ev.Value)

	c.bytes.PotentialBytes += nameLen + valueLen + 2
	c.sizes = append(c.sizes, valueLen)

	switch ev.Repr {
	case models.RepresentationIndexed:
		// Name and value both came from a table; 1-2 bytes on the wire.
		c.indexedCount++
		c.nameIndexed++
		c.bytes.IndexedReferenceCount++
		c.reusedFromTable++

	case models.RepresentationLiteralIncremental:
		// Value sent literally and inserted into the dynamic table.
		// The name rides an existing table index unless the trace
		// declares it was carried on the wire.
		c.literalCount++
		if ev.NameElided() {
			c.nameIndexed++
			c.bytes.LiteralBytesSent += valueLen + 2
		} else {
			c.nameLiteral++
			c.bytes.LiteralBytesSent += nameLen + valueLen + 2
		}
		if ordinal == 1 {
			c.firstOccurrences++
		}

	default:
		// LiteralNoIndex, LiteralNeverIndexed and Unknown all cost the
		// full name + value transmission.
		c.literalCount++
		if ev.NameElided() {
			c.nameIndexed++
		} else {
			c.nameLiteral++
		}
		c.bytes.LiteralBytesSent += nameLen + valueLen + 2
		if ordinal == 1 {
			c.firstOccurrences++
		}
	}
}

// total returns the category's total classified occurrences.
func (c *categoryCounters) total() int {
	return c.literalCount + c.indexedCount
}
