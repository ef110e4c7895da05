package sync

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/alexatafm/solar-hub-sync/internal/deals"
	"github.com/alexatafm/solar-hub-sync/internal/hubspot"
	"github.com/alexatafm/solar-hub-sync/internal/simpro"
	"github.com/alexatafm/solar-hub-sync/pkg/constants"
	"github.com/alexatafm/solar-hub-sync/pkg/errors"
	"github.com/alexatafm/solar-hub-sync/pkg/logging"
)

// Outcome is the terminal state of one deal/quote sync attempt.
type Outcome string

const (
	// OutcomeSynced means line items and properties were written.
	OutcomeSynced Outcome = "synced"
	// OutcomeNotFound means the deal or quote no longer exists.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeSkipped means a filter excluded the record before any write.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means an error interrupted the sync. The record can be
	// retried; a re-run recomputes everything from source.
	OutcomeFailed Outcome = "failed"
)

// Result describes one sync attempt for stats and reporting.
type Result struct {
	Outcome      Outcome
	QuoteID      int
	DealID       string
	DealName     string
	LineItems    int
	Associations int
	Amount       float64
	Duration     time.Duration
	Message      string
	ErrorClass   string
	Err          error
}

// Options tune orchestrator behavior for one batch run.
type Options struct {
	// Pipeline, when set, restricts syncing to deals in that pipeline.
	Pipeline string
	// DryRun fetches and decomposes but performs no writes.
	DryRun bool
	// SkipAssociations disables contact/company/site linking.
	SkipAssociations bool
}

// Orchestrator drives the sync of a single deal/quote pair through its
// state machine. It holds no per-record state and is safe for concurrent
// use by the batch driver's workers.
type Orchestrator struct {
	simpro   *simpro.Client
	hubspot  *hubspot.Client
	rates    *RateCache
	identity *Resolver
	opts     Options
}

// NewOrchestrator wires the orchestrator over its collaborators. The rate
// cache must already be built; the resolver is shared across workers.
func NewOrchestrator(sp *simpro.Client, hs *hubspot.Client, rates *RateCache, identity *Resolver, opts Options) *Orchestrator {
	return &Orchestrator{
		simpro:   sp,
		hubspot:  hs,
		rates:    rates,
		identity: identity,
		opts:     opts,
	}
}

// SyncOne runs the full state machine for one record. It never panics
// the batch: every error becomes a Result with outcome failed. Checks are
// terminal on first match, so a not-found deal performs no further
// requests and a skipped deal performs no writes.
func (o *Orchestrator) SyncOne(ctx context.Context, rec deals.Record) Result {
	start := time.Now()
	ctx = logging.WithQuote(logging.WithDeal(ctx, rec.DealID), rec.QuoteID)

	res := o.syncOne(ctx, rec)
	res.QuoteID = rec.QuoteID
	res.DealID = rec.DealID
	res.DealName = rec.DealName
	res.Duration = time.Since(start)

	if res.Err != nil {
		res.ErrorClass = errors.Class(res.Err)
		if res.Message == "" {
			res.Message = res.Err.Error()
		}
	}
	return res
}

func (o *Orchestrator) syncOne(ctx context.Context, rec deals.Record) Result {
	log := logging.Ctx(ctx)

	deal, err := o.hubspot.Deal(ctx, rec.DealID)
	if err != nil {
		if errors.IsNotFound(err) {
			log.Warn().Msg("Deal not found in CRM")
			return Result{Outcome: OutcomeNotFound, Message: "deal not found"}
		}
		return o.failed(rec, "fetch deal", err)
	}

	if o.opts.Pipeline != "" && deal.Properties.Pipeline != o.opts.Pipeline {
		return Result{
			Outcome: OutcomeSkipped,
			Message: fmt.Sprintf("pipeline %q excluded by filter", deal.Properties.Pipeline),
		}
	}

	if deal.IsArchivedDuplicate(constants.ArchivedDealStage, constants.ArchivedDealClosedReason) {
		log.Info().Msg("Skipping archived duplicate deal")
		return Result{Outcome: OutcomeSkipped, Message: "archived duplicate"}
	}

	quote, err := o.simpro.Quote(ctx, rec.QuoteID)
	if err != nil {
		if errors.IsNotFound(err) {
			log.Warn().Msg("Quote not found in field service")
			return Result{Outcome: OutcomeNotFound, Message: "quote not found"}
		}
		return o.failed(rec, "fetch quote", err)
	}

	// Timeline enriches deal dates only; a missing timeline never blocks.
	timeline, err := o.simpro.Timelines(ctx, rec.QuoteID)
	if err != nil {
		log.Debug().Err(err).Msg("Timeline fetch failed, continuing without")
		timeline = nil
	}

	items := Decompose(quote, o.rates)

	if o.opts.DryRun {
		log.Info().Int("line_items", len(items)).Msg("Dry run, no writes performed")
		return Result{
			Outcome:   OutcomeSynced,
			LineItems: len(items),
			Amount:    round2(quote.Total.ExTax),
			Message:   "dry run",
		}
	}

	if err := o.replaceLineItems(ctx, rec.DealID, items); err != nil {
		return o.failed(rec, "line items", err)
	}

	if err := o.updateDealProperties(ctx, rec.DealID, quote, timeline); err != nil {
		return o.failed(rec, "update deal", err)
	}

	associations := 0
	if !o.opts.SkipAssociations {
		associations = o.attachAssociations(ctx, rec.DealID, quote)
	}

	o.writeBackReference(ctx, rec.DealID, quote)

	return Result{
		Outcome:      OutcomeSynced,
		LineItems:    len(items),
		Associations: associations,
		Amount:       round2(quote.Total.ExTax),
	}
}

func (o *Orchestrator) failed(rec deals.Record, step string, err error) Result {
	return Result{
		Outcome: OutcomeFailed,
		Err: &errors.SyncError{
			QuoteID: strconv.Itoa(rec.QuoteID),
			DealID:  rec.DealID,
			Step:    step,
			Err:     err,
		},
	}
}

// replaceLineItems deletes the deal's current line items (only when some
// exist) and creates the new set. Full replacement keeps the operation
// idempotent: re-running a synced deal converges to the same state.
func (o *Orchestrator) replaceLineItems(ctx context.Context, dealID string, items []hubspot.LineItem) error {
	existing, err := o.hubspot.DealLineItemIDs(ctx, dealID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		if err := o.hubspot.BatchDeleteLineItems(ctx, existing); err != nil {
			return err
		}
	}

	if len(items) == 0 {
		return nil
	}

	created, err := o.hubspot.BatchCreateLineItems(ctx, items)
	if err != nil {
		return err
	}
	return o.hubspot.AssociateLineItems(ctx, dealID, created)
}

func (o *Orchestrator) updateDealProperties(ctx context.Context, dealID string, quote *simpro.Quote, timeline []simpro.TimelineEntry) error {
	props := map[string]any{
		"amount":      round2(quote.Total.ExTax),
		"last_synced": time.Now().UnixMilli(),
	}

	if ms, ok := DateToEpochMillis(quote.DateIssued); ok {
		props["quote_issued_date"] = ms
	}
	if ms, ok := DateToEpochMillis(quote.DueDate); ok {
		props["quote_due_date"] = ms
	}
	for _, entry := range timeline {
		if entry.Type == "Sent" {
			if ms, ok := DateToEpochMillis(entry.Date); ok {
				props["quote_sent_date"] = ms
			}
			break
		}
	}

	return o.hubspot.UpdateDeal(ctx, dealID, props)
}

// attachAssociations links the deal to its site and to its contact or
// company, chosen by customer type. Best-effort by contract: failures are
// logged inside the resolver and here, never propagated.
func (o *Orchestrator) attachAssociations(ctx context.Context, dealID string, quote *simpro.Quote) int {
	log := logging.Ctx(ctx)
	attached := 0

	if siteID := o.identity.ResolveSite(ctx, quote.Site.ID); siteID != "" {
		if err := o.hubspot.AssociateDealSite(ctx, dealID, siteID); err != nil {
			log.Warn().Str("site_id", siteID).Err(err).Msg("Site association failed")
		} else {
			attached++
		}
	}

	customer := quote.Customer
	if customer.ID == 0 {
		return attached
	}

	if customer.IsCompany() {
		if companyID := o.identity.ResolveCompany(ctx, customer.ID); companyID != "" {
			if err := o.hubspot.AssociateDealCompany(ctx, dealID, companyID); err != nil {
				log.Warn().Str("company_id", companyID).Err(err).Msg("Company association failed")
			} else {
				attached++
			}
		}
	} else {
		if contactID := o.identity.ResolveContact(ctx, customer.ID); contactID != "" {
			if err := o.hubspot.AssociateDealContact(ctx, dealID, contactID); err != nil {
				log.Warn().Str("contact_id", contactID).Err(err).Msg("Contact association failed")
			} else {
				attached++
			}
		}
	}

	return attached
}

// writeBackReference stores the deal ID on the quote's custom field so
// the field-service side can navigate to the CRM. Skipped when already
// set; failures are logged, not fatal, since the next run retries.
func (o *Orchestrator) writeBackReference(ctx context.Context, dealID string, quote *simpro.Quote) {
	if simpro.CustomFieldString(quote.CustomFields, constants.QuoteDealIDFieldID) != "" {
		return
	}
	if err := o.simpro.SetQuoteCustomField(ctx, quote.ID, constants.QuoteDealIDFieldID, dealID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Deal ID back-reference write failed")
	}
}
