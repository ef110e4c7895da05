// Package sync implements the quote-to-deal sync engine: decomposing
// field-service quotes into CRM line items, resolving pricing and
// identities, and driving idempotent per-deal syncs across a batch.
package sync

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alexatafm/solar-hub-sync/internal/deals"
	"github.com/alexatafm/solar-hub-sync/pkg/constants"
	"github.com/alexatafm/solar-hub-sync/pkg/logging"
)

// Reporter receives one result per processed record, in completion order.
// Implementations flush per row so a killed run keeps its partial report.
type Reporter interface {
	Write(res Result) error
}

// Driver runs the orchestrator over a batch of records with a fixed
// worker pool. One record's failure never stops the batch; cancellation
// (SIGINT, timeout) stops cleanly after in-flight records finish.
type Driver struct {
	orch     *Orchestrator
	reporter Reporter
	workers  int
}

// NewDriver creates a batch driver. reporter may be nil; workers of zero
// or less falls back to the default pool size.
func NewDriver(orch *Orchestrator, reporter Reporter, workers int) *Driver {
	if workers <= 0 {
		workers = constants.DefaultWorkers
	}
	return &Driver{orch: orch, reporter: reporter, workers: workers}
}

// Run processes every record and returns the aggregated stats. The stats
// are valid even when Run returns a cancellation error, so callers can
// still print a summary of the partial run.
func (d *Driver) Run(ctx context.Context, records []deals.Record) (*Stats, error) {
	stats := NewStats(len(records))
	log := logging.Ctx(ctx)

	log.Info().
		Int("records", len(records)).
		Int("workers", d.workers).
		Msg("Batch run starting")

	jobs := make(chan deals.Record, len(records))
	for _, rec := range records {
		jobs <- rec
	}
	close(jobs)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.workers; i++ {
		g.Go(func() error {
			return d.worker(gctx, jobs, stats)
		})
	}

	err := g.Wait()

	summary := stats.Snapshot()
	log.Info().
		Int("synced", summary.Synced).
		Int("skipped", summary.Skipped).
		Int("not_found", summary.NotFound).
		Int("failed", summary.Failed).
		Dur("elapsed", time.Since(start)).
		Msg("Batch run finished")

	return stats, err
}

func (d *Driver) worker(ctx context.Context, jobs <-chan deals.Record, stats *Stats) error {
	for rec := range jobs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		res := d.orch.SyncOne(ctx, rec)
		stats.Record(res)
		d.report(ctx, res)
		d.logProgress(ctx, res, stats)
	}
	return nil
}

func (d *Driver) report(ctx context.Context, res Result) {
	if d.reporter == nil {
		return
	}
	if err := d.reporter.Write(res); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Report row write failed")
	}
}

func (d *Driver) logProgress(ctx context.Context, res Result, stats *Stats) {
	completed, remaining, eta := stats.Progress()
	log := logging.Ctx(ctx)

	event := log.Info()
	if res.Outcome == OutcomeFailed {
		event = log.Error()
	}
	event.
		Str("outcome", string(res.Outcome)).
		Int("quote_id", res.QuoteID).
		Str("deal_id", res.DealID).
		Str("deal_name", res.DealName).
		Int("line_items", res.LineItems).
		Dur("duration", res.Duration).
		Int("completed", completed).
		Int("remaining", remaining).
		Dur("eta", eta).
		Msg("Record processed")

	if completed > 0 && completed%constants.ProgressCheckpoint == 0 {
		summary := stats.Snapshot()
		log.Info().
			Int("completed", completed).
			Int("synced", summary.Synced).
			Int("failed", summary.Failed).
			Float64("success_rate", summary.SuccessRate()).
			Dur("avg_time", summary.AvgTime).
			Msg("Progress checkpoint")
	}
}
