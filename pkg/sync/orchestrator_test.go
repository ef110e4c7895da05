package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexatafm/solar-hub-sync/internal/deals"
	"github.com/alexatafm/solar-hub-sync/internal/hubspot"
	"github.com/alexatafm/solar-hub-sync/internal/simpro"
)

// testEnv wires an orchestrator against fake servers for both services.
type testEnv struct {
	log   *callLog
	hsMux *http.ServeMux
	spMux *http.ServeMux
	orch  *Orchestrator
}

func newTestEnv(t *testing.T, rates *RateCache, opts Options) *testEnv {
	t.Helper()

	env := &testEnv{
		log:   newCallLog(),
		hsMux: http.NewServeMux(),
		spMux: http.NewServeMux(),
	}

	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.log.record(r)
		env.hsMux.ServeHTTP(w, r)
	}))
	t.Cleanup(hs.Close)

	sp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.log.record(r)
		env.spMux.ServeHTTP(w, r)
	}))
	t.Cleanup(sp.Close)

	simproClient := newSimproClient(sp)
	hubspotClient := newHubSpotClient(hs)
	env.orch = NewOrchestrator(simproClient, hubspotClient, rates,
		NewResolver(simproClient, hubspotClient), opts)
	return env
}

func (env *testEnv) serveDeal(deal hubspot.Deal) {
	env.hsMux.HandleFunc("GET /crm/v3/objects/deals/"+deal.ID, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, deal)
	})
}

func (env *testEnv) serveQuote(quote *simpro.Quote) {
	env.spMux.HandleFunc("GET /quotes/{id}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, quote)
	})
	env.spMux.HandleFunc("GET /quotes/{id}/timelines/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []simpro.TimelineEntry{})
	})
}

var testRecord = deals.Record{DealID: "8001", QuoteID: 41273, DealName: "41273 - Smith"}

func TestSyncOneDealNotFound(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	env.hsMux.HandleFunc("GET /crm/v3/objects/deals/8001", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	res := env.orch.SyncOne(context.Background(), testRecord)

	if res.Outcome != OutcomeNotFound {
		t.Fatalf("Outcome = %q, want not_found", res.Outcome)
	}
	// Terminal on first match: nothing else is fetched, nothing written.
	if n := env.log.total(); n != 1 {
		t.Errorf("made %d requests, want 1 (deal fetch only)", n)
	}
}

func TestSyncOneArchivedDuplicateSkipped(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	env.serveDeal(hubspot.Deal{
		ID: "8001",
		Properties: hubspot.DealProperties{
			DealStage:        "closedlost",
			ClosedLostReason: "Duplicate - Merged",
		},
	})

	res := env.orch.SyncOne(context.Background(), testRecord)

	if res.Outcome != OutcomeSkipped {
		t.Fatalf("Outcome = %q, want skipped", res.Outcome)
	}
	if n := env.log.total(); n != 1 {
		t.Errorf("made %d requests, want 1 (zero writes for archived duplicates)", n)
	}
}

func TestSyncOnePipelineFiltered(t *testing.T) {
	env := newTestEnv(t, nil, Options{Pipeline: "solar"})
	env.serveDeal(hubspot.Deal{
		ID:         "8001",
		Properties: hubspot.DealProperties{Pipeline: "service"},
	})

	res := env.orch.SyncOne(context.Background(), testRecord)

	if res.Outcome != OutcomeSkipped {
		t.Fatalf("Outcome = %q, want skipped", res.Outcome)
	}
	if n := env.log.total(); n != 1 {
		t.Errorf("made %d requests, want 1", n)
	}
}

func TestSyncOneQuoteNotFound(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	env.serveDeal(hubspot.Deal{ID: "8001"})
	env.spMux.HandleFunc("GET /quotes/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	res := env.orch.SyncOne(context.Background(), testRecord)

	if res.Outcome != OutcomeNotFound {
		t.Fatalf("Outcome = %q, want not_found", res.Outcome)
	}
	if res.Message != "quote not found" {
		t.Errorf("Message = %q", res.Message)
	}
}

func TestSyncOneSuccess(t *testing.T) {
	rates := BuildRateCache([]simpro.LaborRate{{Name: "Electrician", CostRate: 95, Markup: 0.35}})
	env := newTestEnv(t, rates, Options{SkipAssociations: true})

	env.serveDeal(hubspot.Deal{ID: "8001"})
	env.serveQuote(testQuote())

	var deleted []int64
	var createdItems [][]hubspot.PropertyValue
	var dealProps map[string]any
	var backRef map[string]string

	env.hsMux.HandleFunc("GET /crm/v4/objects/deals/8001/associations/line_items", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"results": []map[string]any{{"toObjectId": 55}, {"toObjectId": 56}}})
	})
	env.hsMux.HandleFunc("POST /crm-objects/v1/objects/line_items/batch-delete", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			IDs []int64 `json:"ids"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		deleted = body.IDs
		w.WriteHeader(http.StatusNoContent)
	})
	env.hsMux.HandleFunc("POST /crm-objects/v1/objects/line_items/batch-create", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&createdItems)
		var resp []map[string]any
		for i := range createdItems {
			resp = append(resp, map[string]any{
				"properties": map[string]any{
					"hs_object_id": map[string]string{"value": "90" + string(rune('0'+i))},
				},
			})
		}
		writeJSON(w, resp)
	})
	env.hsMux.HandleFunc("POST /crm/v3/associations/deal/line_item/batch/create", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	env.hsMux.HandleFunc("PATCH /crm/v3/objects/deals/8001", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Properties map[string]any `json:"properties"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		dealProps = body.Properties
		writeJSON(w, map[string]string{"id": "8001"})
	})
	env.spMux.HandleFunc("PATCH /quotes/41273/customFields/229", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&backRef)
		w.WriteHeader(http.StatusOK)
	})

	res := env.orch.SyncOne(context.Background(), testRecord)

	if res.Outcome != OutcomeSynced {
		t.Fatalf("Outcome = %q (err %v), want synced", res.Outcome, res.Err)
	}
	if res.LineItems != 4 {
		t.Errorf("LineItems = %d, want 4", res.LineItems)
	}
	if len(deleted) != 2 {
		t.Errorf("deleted %v, want the two existing line items", deleted)
	}
	if len(createdItems) != 4 {
		t.Errorf("created %d line items, want 4", len(createdItems))
	}
	if dealProps == nil {
		t.Fatal("deal properties were not updated")
	}
	if _, ok := dealProps["amount"]; !ok {
		t.Error("deal update missing amount")
	}
	if backRef["Value"] != "8001" {
		t.Errorf("back-reference value = %q, want deal ID", backRef["Value"])
	}
}

func TestSyncOneSkipsDeleteWhenNoLineItems(t *testing.T) {
	env := newTestEnv(t, nil, Options{SkipAssociations: true})
	env.serveDeal(hubspot.Deal{ID: "8001"})

	quote := &simpro.Quote{ID: 41273}
	quote.CustomFields = []simpro.CustomFieldValue{
		{CustomField: simpro.CustomFieldRef{ID: 229}, Value: "8001"},
	}
	env.serveQuote(quote)

	env.hsMux.HandleFunc("GET /crm/v4/objects/deals/8001/associations/line_items", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"results": []any{}})
	})
	env.hsMux.HandleFunc("PATCH /crm/v3/objects/deals/8001", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"id": "8001"})
	})

	res := env.orch.SyncOne(context.Background(), testRecord)

	if res.Outcome != OutcomeSynced {
		t.Fatalf("Outcome = %q (err %v), want synced", res.Outcome, res.Err)
	}
	if n := env.log.count("POST /crm-objects/v1/objects/line_items/batch-delete"); n != 0 {
		t.Errorf("batch-delete called %d times for a deal with no line items", n)
	}
	if n := env.log.count("POST /crm-objects/v1/objects/line_items/batch-create"); n != 0 {
		t.Errorf("batch-create called %d times for an empty quote", n)
	}
	// Custom field 229 already holds the deal ID; no redundant write.
	if n := env.log.count("PATCH /quotes/41273/customFields/229"); n != 0 {
		t.Errorf("back-reference written %d times despite being set", n)
	}
}

func TestSyncOneDryRun(t *testing.T) {
	rates := BuildRateCache([]simpro.LaborRate{{Name: "Electrician", CostRate: 95, Markup: 0.35}})
	env := newTestEnv(t, rates, Options{DryRun: true})

	env.serveDeal(hubspot.Deal{ID: "8001"})
	env.serveQuote(testQuote())

	res := env.orch.SyncOne(context.Background(), testRecord)

	if res.Outcome != OutcomeSynced {
		t.Fatalf("Outcome = %q, want synced", res.Outcome)
	}
	if res.LineItems != 4 {
		t.Errorf("LineItems = %d, want 4 decomposed", res.LineItems)
	}
	for key, n := range map[string]int{
		"POST /crm-objects/v1/objects/line_items/batch-create": env.log.count("POST /crm-objects/v1/objects/line_items/batch-create"),
		"PATCH /crm/v3/objects/deals/8001":                     env.log.count("PATCH /crm/v3/objects/deals/8001"),
		"PATCH /quotes/41273/customFields/229":                 env.log.count("PATCH /quotes/41273/customFields/229"),
	} {
		if n != 0 {
			t.Errorf("dry run performed write %s", key)
		}
	}
}

func TestSyncOneFailureClassified(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	env.hsMux.HandleFunc("GET /crm/v3/objects/deals/8001", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	res := env.orch.SyncOne(context.Background(), testRecord)

	if res.Outcome != OutcomeFailed {
		t.Fatalf("Outcome = %q, want failed", res.Outcome)
	}
	if res.ErrorClass != "APIError" {
		t.Errorf("ErrorClass = %q, want APIError", res.ErrorClass)
	}
	if res.Err == nil || res.Message == "" {
		t.Error("failed result must retain error and message")
	}
}
