// Package report writes batch run artifacts: a per-record CSV report
// flushed row by row, and an end-of-run text summary.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	gosync "sync"
	"time"

	"github.com/alexatafm/solar-hub-sync/pkg/errors"
	"github.com/alexatafm/solar-hub-sync/pkg/sync"
)

// maxListedErrors caps the error listing in the text summary; the full
// detail is always in the CSV.
const maxListedErrors = 20

var csvHeader = []string{
	"Timestamp",
	"Run ID",
	"Outcome",
	"Simpro Quote ID",
	"HubSpot Deal ID",
	"Deal Name",
	"Duration (s)",
	"Line Items",
	"Associations",
	"Error Class",
	"Message",
}

// CSVReporter appends one row per processed record and flushes after
// every row, so a killed run keeps everything processed so far. Safe for
// concurrent use by batch workers.
type CSVReporter struct {
	mu    gosync.Mutex
	runID string
	file  *os.File
	w     *csv.Writer
}

// NewCSVReporter creates the report file and writes the header row.
func NewCSVReporter(path, runID string) (*CSVReporter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.WrapIO("create", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return nil, errors.WrapIO("write", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return nil, errors.WrapIO("write", path, err)
	}

	return &CSVReporter{runID: runID, file: f, w: w}, nil
}

// Write implements sync.Reporter.
func (r *CSVReporter) Write(res sync.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := []string{
		time.Now().Format(time.RFC3339),
		r.runID,
		string(res.Outcome),
		strconv.Itoa(res.QuoteID),
		res.DealID,
		res.DealName,
		fmt.Sprintf("%.2f", res.Duration.Seconds()),
		strconv.Itoa(res.LineItems),
		strconv.Itoa(res.Associations),
		res.ErrorClass,
		res.Message,
	}

	if err := r.w.Write(row); err != nil {
		return errors.WrapIO("write", r.file.Name(), err)
	}
	r.w.Flush()
	return errors.WrapIO("flush", r.file.Name(), r.w.Error())
}

// Close flushes and closes the report file.
func (r *CSVReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.w.Flush()
	if err := r.w.Error(); err != nil {
		r.file.Close()
		return errors.WrapIO("flush", r.file.Name(), err)
	}
	return errors.WrapIO("close", r.file.Name(), r.file.Close())
}

// Path returns the report file path.
func (r *CSVReporter) Path() string {
	return r.file.Name()
}

// WriteSummary renders the end-of-run summary as human-readable text.
// Errors are grouped by class with a capped per-record listing.
func WriteSummary(w io.Writer, summary sync.Summary, elapsed time.Duration) {
	line := func(format string, args ...any) {
		fmt.Fprintf(w, format+"\n", args...)
	}

	line("")
	line("==================================================")
	line("BATCH RUN SUMMARY")
	line("==================================================")
	line("Total records:   %d", summary.Total)
	line("Synced:          %d", summary.Synced)
	line("Skipped:         %d", summary.Skipped)
	line("Not found:       %d", summary.NotFound)
	line("Failed:          %d", summary.Failed)
	line("Success rate:    %.1f%%", summary.SuccessRate())
	line("Line items:      %d", summary.LineItems)
	line("Associations:    %d", summary.Associations)
	line("Elapsed:         %s", elapsed.Round(time.Second))

	if summary.Synced > 0 {
		line("")
		line("Sync timings (per deal):")
		line("  min %.2fs  avg %.2fs  max %.2fs  p50 %.2fs  p95 %.2fs",
			summary.MinTime.Seconds(),
			summary.AvgTime.Seconds(),
			summary.MaxTime.Seconds(),
			summary.P50Time.Seconds(),
			summary.P95Time.Seconds())
	}

	if len(summary.Errors) > 0 {
		line("")
		line("Errors by class:")
		byClass := make(map[string]int)
		for _, e := range summary.Errors {
			byClass[e.ErrorClass]++
		}
		for class, count := range byClass {
			line("  %-20s %d", class, count)
		}

		line("")
		listed := summary.Errors
		if len(listed) > maxListedErrors {
			listed = listed[:maxListedErrors]
		}
		line("First %d errors:", len(listed))
		for _, e := range listed {
			line("  quote %d deal %s: [%s] %s", e.QuoteID, e.DealID, e.ErrorClass, e.Message)
		}
		if len(summary.Errors) > maxListedErrors {
			line("  ... and %d more (see CSV report)", len(summary.Errors)-maxListedErrors)
		}
	}

	line("==================================================")
}
