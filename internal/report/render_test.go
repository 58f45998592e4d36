package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/cvalentine99/hpackstat/internal/analysis"
	"github.com/cvalentine99/hpackstat/internal/models"
)

func sampleReport(t *testing.T) *models.Report {
	t.Helper()
	e := analysis.NewEngine(nil)
	events := []models.HeaderFrameEvent{
		{Frame: 1, Name: "authorization", Value: "Bearer tok-1", Repr: models.RepresentationLiteralIncremental},
		{Frame: 2, Name: "authorization", Value: "Bearer tok-1", Repr: models.RepresentationIndexed},
		{Frame: 3, Name: "x-jwt-payload", Value: `{"session_id":"abc123"}`, Repr: models.RepresentationLiteralNoIndex},
	}
	if err := e.ProcessAll(events); err != nil {
		t.Fatal(err)
	}
	return e.Finalize()
}

func TestRenderTextSections(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderText(&buf, sampleReport(t)); err != nil {
		t.Fatalf("RenderText: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"HEADER INDEXING STATISTICS",
		"HPACK DYNAMIC TABLE ANALYSIS",
		"ACTUAL BYTE SAVINGS",
		"INDEXING EFFICIENCY",
		"authorization",
		"x-jwt-payload",
		"TOTAL",
		"4KB table",
		"512KB table",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q", want)
		}
	}
}

func TestRenderTextWarnings(t *testing.T) {
	e := analysis.NewEngine(nil)
	rep := e.Finalize()

	var buf bytes.Buffer
	if err := RenderText(&buf, rep); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "WARNINGS") {
		t.Error("empty-input warning section missing")
	}
}

func TestRenderJSONRoundTrip(t *testing.T) {
	rep := sampleReport(t)

	var buf bytes.Buffer
	if err := RenderJSON(&buf, rep); err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}

	var decoded models.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded.Totals.Occurrences != rep.Totals.Occurrences {
		t.Errorf("totals changed: %d vs %d", decoded.Totals.Occurrences, rep.Totals.Occurrences)
	}
	if len(decoded.Categories) != len(rep.Categories) {
		t.Errorf("categories changed: %d vs %d", len(decoded.Categories), len(rep.Categories))
	}
	if decoded.Category("authorization").IndexingRate != 50.0 {
		t.Errorf("indexing rate lost in JSON: %f", decoded.Category("authorization").IndexingRate)
	}
}

func TestBudgetFormatting(t *testing.T) {
	if got := budget(4096); got != "4KB" {
		t.Errorf("budget(4096) = %q", got)
	}
	if got := budget(512 * 1024); got != "512KB" {
		t.Errorf("budget(524288) = %q", got)
	}
	if got := budget(1000); got != "1000B" {
		t.Errorf("budget(1000) = %q", got)
	}
}
