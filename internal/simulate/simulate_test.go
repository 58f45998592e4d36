package simulate

import (
	"reflect"
	"testing"

	"github.com/cvalentine99/hpackstat/internal/analysis"
	"github.com/cvalentine99/hpackstat/internal/models"
)

func TestBearerModeLargeTable(t *testing.T) {
	gen := New(Config{
		Sessions:           2,
		RequestsPerSession: 3,
		TableSize:          512 * 1024,
		Mode:               ModeBearer,
		Seed:               1,
	})

	events, err := gen.Events()
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 6 {
		t.Fatalf("expected 6 events, got %d", len(events))
	}

	literals, indexed := 0, 0
	for _, ev := range events {
		switch ev.Repr {
		case models.RepresentationLiteralIncremental:
			literals++
		case models.RepresentationIndexed:
			indexed++
		default:
			t.Errorf("unexpected representation %v for %s", ev.Repr, ev.Name)
		}
	}
	if literals != 2 || indexed != 4 {
		t.Errorf("expected 2 literals + 4 indexed, got %d + %d", literals, indexed)
	}

	// With an effectively infinite table nothing is evicted.
	engine := analysis.NewEngine(nil)
	if err := engine.ProcessAll(events); err != nil {
		t.Fatal(err)
	}
	cs := engine.Finalize().Category("authorization")
	if cs == nil {
		t.Fatal("expected authorization category")
	}
	if cs.EvictedBeforeReuse != 0 {
		t.Errorf("expected no evictions, got %d", cs.EvictedBeforeReuse)
	}
	if cs.FirstOccurrences != 2 || cs.ReusedFromTable != 4 {
		t.Errorf("first/reused = %d/%d, want 2/4", cs.FirstOccurrences, cs.ReusedFromTable)
	}
}

func TestBearerModeTinyTableNeverIndexes(t *testing.T) {
	gen := New(Config{
		Sessions:           2,
		RequestsPerSession: 3,
		TableSize:          64,
		Mode:               ModeBearer,
		Seed:               1,
	})

	events, err := gen.Events()
	if err != nil {
		t.Fatalf("Events: %v", err)
	}

	for _, ev := range events {
		if ev.Repr == models.RepresentationIndexed {
			t.Fatalf("a 64-byte table cannot hold a bearer token, got indexed event in frame %d", ev.Frame)
		}
	}

	engine := analysis.NewEngine(nil)
	if err := engine.ProcessAll(events); err != nil {
		t.Fatal(err)
	}
	cs := engine.Finalize().Category("authorization")
	if cs.IndexedCount != 0 {
		t.Errorf("expected zero indexed occurrences, got %d", cs.IndexedCount)
	}
	// Every repeat was a missed reuse.
	if cs.EvictedBeforeReuse != 4 {
		t.Errorf("expected 4 missed reuses, got %d", cs.EvictedBeforeReuse)
	}
}

func TestDecomposedModeWithElidedNames(t *testing.T) {
	gen := New(Config{
		Sessions:           1,
		RequestsPerSession: 3,
		TableSize:          4096,
		Mode:               ModeDecomposed,
		Seed:               7,
		ElideIndexedNames:  true,
	})

	events, err := gen.Events()
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 6 {
		t.Fatalf("expected 6 events (payload+sig per request), got %d", len(events))
	}

	for _, ev := range events {
		if ev.Repr == models.RepresentationIndexed && ev.Name != "" {
			t.Errorf("indexed event in frame %d kept its name %q", ev.Frame, ev.Name)
		}
	}

	// Fallback classification must recover both categories from the
	// elided events.
	engine := analysis.NewEngine(nil)
	if err := engine.ProcessAll(events); err != nil {
		t.Fatal(err)
	}
	rep := engine.Finalize()

	payload := rep.Category("x-jwt-payload")
	sig := rep.Category("x-jwt-sig")
	if payload == nil || sig == nil {
		t.Fatalf("missing categories, got %d categories", len(rep.Categories))
	}
	if payload.Occurrences != 3 || sig.Occurrences != 3 {
		t.Errorf("occurrences = %d/%d, want 3/3", payload.Occurrences, sig.Occurrences)
	}
	if payload.IndexedCount != 2 || sig.IndexedCount != 2 {
		t.Errorf("indexed = %d/%d, want 2/2", payload.IndexedCount, sig.IndexedCount)
	}
	if rep.UniqueSessions != 1 {
		t.Errorf("expected 1 session, got %d", rep.UniqueSessions)
	}
}

func TestDeterministicWithSeed(t *testing.T) {
	cfg := Config{Sessions: 3, RequestsPerSession: 2, TableSize: 4096, Mode: ModeDecomposed, Seed: 42}

	a, err := New(cfg).Events()
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(cfg).Events()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different traces")
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("bearer"); err != nil || m != ModeBearer {
		t.Errorf("ParseMode(bearer) = %v, %v", m, err)
	}
	if m, err := ParseMode("decomposed"); err != nil || m != ModeDecomposed {
		t.Errorf("ParseMode(decomposed) = %v, %v", m, err)
	}
	if _, err := ParseMode("nope"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestRepresentationOf(t *testing.T) {
	cases := []struct {
		b    byte
		want models.Representation
	}{
		{0x82, models.RepresentationIndexed},
		{0x40, models.RepresentationLiteralIncremental},
		{0x57, models.RepresentationLiteralIncremental},
		{0x10, models.RepresentationLiteralNeverIndexed},
		{0x0F, models.RepresentationLiteralNoIndex},
		{0x00, models.RepresentationLiteralNoIndex},
	}
	for _, tc := range cases {
		if got := representationOf(tc.b); got != tc.want {
			t.Errorf("representationOf(%#x) = %v, want %v", tc.b, got, tc.want)
		}
	}
}

func TestSkipSizeUpdates(t *testing.T) {
	// One-byte update (size < 31) followed by an indexed field.
	wire := skipSizeUpdates([]byte{0x3F, 0xE1, 0x1F, 0x82})
	if len(wire) != 1 || wire[0] != 0x82 {
		t.Errorf("multi-byte update not skipped: % x", wire)
	}

	wire = skipSizeUpdates([]byte{0x20, 0x40})
	if len(wire) != 1 || wire[0] != 0x40 {
		t.Errorf("single-byte update not skipped: % x", wire)
	}

	if got := skipSizeUpdates([]byte{0x82}); len(got) != 1 || got[0] != 0x82 {
		t.Errorf("non-update prefix must pass through: % x", got)
	}
}
