package analysis

import "github.com/cvalentine99/hpackstat/internal/models"

// Tracker assigns occurrence ordinals: per category, it maps each
// value identity to a running count. Tracking is purely additive and
// never rejects input; an empty value is tracked as the identity of
// the empty string.
type Tracker struct {
	counts map[models.Category]map[ValueIdentity]int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		counts: make(map[models.Category]map[ValueIdentity]int),
	}
}

// Observe records one occurrence of id in cat and returns its ordinal:
// 1 the first time this exact value is seen for the category, >1 for
// repeats.
func (t *Tracker) Observe(cat models.Category, id ValueIdentity) int {
	m := t.counts[cat]
	if m == nil {
		m = make(map[ValueIdentity]int)
		t.counts[cat] = m
	}
	m[id]++
	return m[id]
}

// Unique returns the number of distinct value identities seen for cat.
func (t *Tracker) Unique(cat models.Category) int {
	return len(t.counts[cat])
}

// Counts returns the per-identity occurrence counts for cat. The
// returned map is the tracker's own state; callers must not mutate it.
func (t *Tracker) Counts(cat models.Category) map[ValueIdentity]int {
	return t.counts[cat]
}
