package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alexatafm/solar-hub-sync/pkg/sync"
)

func TestCSVReporterWritesFlushedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	r, err := NewCSVReporter(path, "run-1")
	if err != nil {
		t.Fatalf("NewCSVReporter() error: %v", err)
	}

	results := []sync.Result{
		{
			Outcome:      sync.OutcomeSynced,
			QuoteID:      41273,
			DealID:       "8001",
			DealName:     "41273 - Smith",
			LineItems:    4,
			Associations: 2,
			Duration:     1500 * time.Millisecond,
		},
		{
			Outcome:    sync.OutcomeFailed,
			QuoteID:    41274,
			DealID:     "8002",
			ErrorClass: "APIError",
			Message:    "API error from hubspot (status 500)",
		},
	}
	for _, res := range results {
		if err := r.Write(res); err != nil {
			t.Fatalf("Write() error: %v", err)
		}
	}

	// Rows must be on disk before Close: the report survives a kill.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("parsing report: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows before Close, want header + 2", len(rows))
	}

	if rows[0][0] != "Timestamp" || rows[0][2] != "Outcome" {
		t.Errorf("header = %v", rows[0])
	}

	synced := rows[1]
	if synced[1] != "run-1" || synced[2] != "synced" || synced[3] != "41273" || synced[4] != "8001" {
		t.Errorf("synced row = %v", synced)
	}
	if synced[6] != "1.50" || synced[7] != "4" || synced[8] != "2" {
		t.Errorf("synced row metrics = %v", synced)
	}

	failed := rows[2]
	if failed[2] != "failed" || failed[9] != "APIError" {
		t.Errorf("failed row = %v", failed)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
}

func TestWriteSummary(t *testing.T) {
	summary := sync.Summary{
		Total:        10,
		Synced:       6,
		Skipped:      1,
		NotFound:     1,
		Failed:       2,
		LineItems:    42,
		Associations: 9,
		MinTime:      time.Second,
		AvgTime:      2 * time.Second,
		MaxTime:      5 * time.Second,
		P50Time:      2 * time.Second,
		P95Time:      4 * time.Second,
		Errors: []sync.ErrorEntry{
			{QuoteID: 41274, DealID: "8002", ErrorClass: "APIError", Message: "boom"},
			{QuoteID: 41275, DealID: "8003", ErrorClass: "APIError", Message: "also boom"},
		},
	}

	var buf bytes.Buffer
	WriteSummary(&buf, summary, 90*time.Second)
	out := buf.String()

	for _, want := range []string{
		"Total records:   10",
		"Synced:          6",
		"Failed:          2",
		"Success rate:    60.0%",
		"Line items:      42",
		"APIError",
		"quote 41274 deal 8002",
		"p95 4.00s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
