package sync

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/alexatafm/solar-hub-sync/internal/deals"
)

type recordingReporter struct {
	mu      sync.Mutex
	results []Result
}

func (r *recordingReporter) Write(res Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	return nil
}

func (r *recordingReporter) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func TestDriverProcessesEveryRecord(t *testing.T) {
	env := newTestEnv(t, nil, Options{})

	// Deal 1 is missing; deals 2 and 3 are archived duplicates. Mixed
	// outcomes must all be counted and none may stop the batch.
	env.hsMux.HandleFunc("GET /crm/v3/objects/deals/1", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	for _, id := range []string{"2", "3"} {
		env.hsMux.HandleFunc("GET /crm/v3/objects/deals/"+id, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]any{
				"id": id,
				"properties": map[string]string{
					"dealstage":          "closedlost",
					"closed_lost_reason": "Duplicate - Merged",
				},
			})
		})
	}

	records := []deals.Record{
		{DealID: "1", QuoteID: 101},
		{DealID: "2", QuoteID: 102},
		{DealID: "3", QuoteID: 103},
	}

	reporter := &recordingReporter{}
	stats, err := NewDriver(env.orch, reporter, 2).Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	s := stats.Snapshot()
	if s.NotFound != 1 || s.Skipped != 2 {
		t.Errorf("outcomes = %+v, want 1 not_found and 2 skipped", s)
	}
	if stats.Completed() != 3 {
		t.Errorf("Completed() = %d, want 3", stats.Completed())
	}
	if reporter.len() != 3 {
		t.Errorf("reporter received %d rows, want 3", reporter.len())
	}
}

func TestDriverFailureDoesNotStopBatch(t *testing.T) {
	env := newTestEnv(t, nil, Options{})

	env.hsMux.HandleFunc("GET /crm/v3/objects/deals/1", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	env.hsMux.HandleFunc("GET /crm/v3/objects/deals/2", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	records := []deals.Record{
		{DealID: "1", QuoteID: 101},
		{DealID: "2", QuoteID: 102},
	}

	// Single worker: the failing record is processed first and must not
	// prevent the second from completing.
	stats, err := NewDriver(env.orch, nil, 1).Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	s := stats.Snapshot()
	if s.Failed != 1 || s.NotFound != 1 {
		t.Errorf("outcomes = failed %d, not_found %d; want 1 and 1", s.Failed, s.NotFound)
	}
}

func TestDriverCanceledContext(t *testing.T) {
	env := newTestEnv(t, nil, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []deals.Record{{DealID: "1", QuoteID: 101}}
	stats, err := NewDriver(env.orch, nil, 1).Run(ctx, records)

	if err == nil {
		t.Fatal("Run() on canceled context returned nil error")
	}
	// Stats remain usable for the interrupted-run summary.
	if stats == nil || stats.Completed() != 0 {
		t.Errorf("stats = %+v", stats)
	}
}
