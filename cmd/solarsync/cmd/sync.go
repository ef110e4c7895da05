package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/alexatafm/solar-hub-sync/internal/config"
	"github.com/alexatafm/solar-hub-sync/internal/deals"
	"github.com/alexatafm/solar-hub-sync/internal/hubspot"
	"github.com/alexatafm/solar-hub-sync/internal/report"
	"github.com/alexatafm/solar-hub-sync/internal/simpro"
	"github.com/alexatafm/solar-hub-sync/internal/transport"
	"github.com/alexatafm/solar-hub-sync/pkg/constants"
	"github.com/alexatafm/solar-hub-sync/pkg/logging"
	"github.com/alexatafm/solar-hub-sync/pkg/sync"
)

var syncFlags struct {
	csvFile          string
	startIndex       int
	endIndex         int
	limit            int
	pipeline         string
	duplicates       string
	dryRun           bool
	workers          int
	reportFile       string
	skipAssociations bool
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync a batch of deals from a CRM export CSV",
	Long: `Sync reads deal/quote pairs from a HubSpot deal export CSV and
rebuilds each deal's line items from its Simpro quote. Progress is logged
per record and a CSV report is written as the run proceeds, so an
interrupted run keeps everything processed so far.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&syncFlags.csvFile, "csv-file", "", "deal export CSV (required)")
	syncCmd.Flags().IntVar(&syncFlags.startIndex, "start-index", 0, "first record index to process")
	syncCmd.Flags().IntVar(&syncFlags.endIndex, "end-index", 0, "stop before this record index (0 = end)")
	syncCmd.Flags().IntVar(&syncFlags.limit, "limit", 0, "maximum records to process (0 = no limit)")
	syncCmd.Flags().StringVar(&syncFlags.pipeline, "pipeline", "", "only sync deals in this pipeline")
	syncCmd.Flags().StringVar(&syncFlags.duplicates, "duplicates", string(deals.DuplicateFirst), "duplicate quote ID handling: first, all, skip")
	syncCmd.Flags().BoolVar(&syncFlags.dryRun, "dry-run", false, "fetch and decompose without writing")
	syncCmd.Flags().IntVar(&syncFlags.workers, "workers", constants.DefaultWorkers, "parallel sync workers")
	syncCmd.Flags().StringVar(&syncFlags.reportFile, "report", "", "report CSV path (default sync-report-<timestamp>.csv)")
	syncCmd.Flags().BoolVar(&syncFlags.skipAssociations, "skip-associations", false, "skip contact/company/site linking")

	_ = syncCmd.MarkFlagRequired("csv-file")
}

func runSync(cmd *cobra.Command, _ []string) error {
	creds := config.LoadCredentials()
	if err := creds.Validate(); err != nil {
		return err
	}

	dupMode, err := deals.ParseDuplicateMode(syncFlags.duplicates)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	ctx := logging.WithRunID(cmd.Context(), runID)
	ctx, cancel := context.WithTimeout(ctx, constants.SyncTimeout)
	defer cancel()

	log := logging.Ctx(ctx)
	log.Info().
		Str("csv_file", syncFlags.csvFile).
		Str("duplicates", string(dupMode)).
		Bool("dry_run", syncFlags.dryRun).
		Msg("Starting sync run")

	records, err := deals.Load(syncFlags.csvFile, dupMode)
	if err != nil {
		return err
	}
	records = deals.Slice(records, syncFlags.startIndex, syncFlags.endIndex, syncFlags.limit)
	if len(records) == 0 {
		log.Warn().Msg("No records to sync after filters")
		return nil
	}

	simproClient, hubspotClient := buildClients(creds)

	rates, err := sync.NewRateCache(ctx, simproClient)
	if err != nil {
		return err
	}

	orch := sync.NewOrchestrator(simproClient, hubspotClient, rates, sync.NewResolver(simproClient, hubspotClient), sync.Options{
		Pipeline:         syncFlags.pipeline,
		DryRun:           syncFlags.dryRun,
		SkipAssociations: syncFlags.skipAssociations,
	})

	reportPath := syncFlags.reportFile
	if reportPath == "" {
		reportPath = fmt.Sprintf("sync-report-%s.csv", time.Now().Format("20060102-150405"))
	}
	reporter, err := report.NewCSVReporter(reportPath, runID)
	if err != nil {
		return err
	}
	defer func() {
		if err := reporter.Close(); err != nil {
			log.Warn().Err(err).Msg("Report close failed")
		}
	}()

	start := time.Now()
	stats, runErr := sync.NewDriver(orch, reporter, syncFlags.workers).Run(ctx, records)

	// Print the summary even after SIGINT; the partial run still counts.
	report.WriteSummary(os.Stdout, stats.Snapshot(), time.Since(start))
	log.Info().Str("report", reportPath).Msg("Report written")

	if runErr != nil && ctx.Err() != nil {
		log.Warn().Msg("Run interrupted before completion")
		return nil
	}
	return runErr
}

func buildClients(creds config.Credentials) (*simpro.Client, *hubspot.Client) {
	simproTransport := transport.New(simpro.ServiceName,
		&transport.BearerAuth{Token: creds.SimproAPIKey}, constants.SimproRateLimit)
	hubspotTransport := transport.New(hubspot.ServiceName,
		&transport.BearerAuth{Token: creds.HubSpotToken}, constants.HubSpotRateLimit)

	return simpro.NewClient(simproTransport, creds.SimproBaseURL),
		hubspot.NewClient(hubspotTransport, hubspot.DefaultBaseURL)
}
