// Command syncctl runs sync operations against the local store directly,
// without going through the HTTP API. Useful for seeding a fresh mirror
// or inspecting sync state from a shell.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fieldops/fieldmirror/internal/config"
	"github.com/fieldops/fieldmirror/internal/constants"
	"github.com/fieldops/fieldmirror/internal/db"
	"github.com/fieldops/fieldmirror/internal/db/repositories"
	"github.com/fieldops/fieldmirror/internal/logging"
	"github.com/fieldops/fieldmirror/internal/metrics"
	"github.com/fieldops/fieldmirror/internal/providers"
	"github.com/fieldops/fieldmirror/internal/syncer"
)

func main() {
	mode := flag.String("mode", "status", "one of: backfill, incremental, status")
	resourcesFlag := flag.String("resources", "", "comma-separated resources, empty means all")
	startDate := flag.String("start-date", "", "backfill lower bound, YYYY-MM-DD")
	endDate := flag.String("end-date", "", "backfill upper bound, YYYY-MM-DD")
	flag.Parse()

	cfg, err := config.Load(os.Getenv("FM_CONFIG"))
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}
	if err := logging.Init(cfg.App.Env); err != nil {
		log.Fatalf("initialize logger: %v", err)
	}
	defer logging.Close()

	if err := db.Init(cfg.Store); err != nil {
		log.Fatalf("open local store: %v", err)
	}

	resources := constants.AllResources
	if *resourcesFlag != "" {
		resources = strings.Split(*resourcesFlag, ",")
		for i, r := range resources {
			resources[i] = strings.TrimSpace(r)
			if !constants.IsKnownResource(resources[i]) {
				log.Fatalf("unknown resource %q (known: %s)",
					resources[i], strings.Join(constants.AllResources, ", "))
			}
		}
	}

	stateRepo := repositories.NewSyncStateRepo(db.OrmDB)
	jobRepo := repositories.NewSyncJobRepo(db.OrmDB)
	recordRepo := repositories.NewRecordRepository(db.DB, cfg.Sync.BatchSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "status":
		printStatus(ctx, resources, stateRepo, recordRepo)
	case "backfill", "incremental":
		opts, err := parseDates(*startDate, *endDate)
		if err != nil {
			log.Fatal(err)
		}
		runSync(ctx, *mode, resources, opts, cfg, stateRepo, jobRepo, recordRepo)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}

func runSync(
	ctx context.Context,
	mode string,
	resources []string,
	opts syncer.RunOptions,
	cfg config.Config,
	stateRepo *repositories.SyncStateRepo,
	jobRepo *repositories.SyncJobRepo,
	recordRepo *repositories.RecordRepository,
) {
	provider := providers.NewRESTProvider(
		cfg.Remote.BaseURL,
		cfg.Remote.Token,
		cfg.Remote.Timeout,
		cfg.Remote.RequestsPerSec,
		cfg.Remote.Burst,
	)
	metricsReg := metrics.NewMetricsRegistry()

	backfill := syncer.NewBackfillEngine(provider, recordRepo, stateRepo, jobRepo, metricsReg, cfg.Sync)
	delta := syncer.NewDeltaEngine(provider, recordRepo, stateRepo, jobRepo, metricsReg, cfg.Sync)
	orch := syncer.NewOrchestrator(backfill, delta, stateRepo, jobRepo, cfg.Sync)

	start := time.Now()
	var counts map[string]int
	var err error
	if mode == "backfill" {
		counts, err = orch.RunBackfill(ctx, resources, opts)
	} else {
		counts, err = orch.RunIncremental(ctx, resources, opts)
	}

	for resource, n := range counts {
		fmt.Printf("%-14s %d records\n", resource, n)
	}
	fmt.Printf("finished in %s\n", time.Since(start).Round(time.Millisecond))
	if err != nil {
		log.Fatalf("sync finished with errors: %v", err)
	}
}

func printStatus(
	ctx context.Context,
	resources []string,
	stateRepo *repositories.SyncStateRepo,
	recordRepo *repositories.RecordRepository,
) {
	for _, resource := range resources {
		state, err := stateRepo.GetLastSync(ctx, resource)
		if err != nil {
			log.Fatalf("load sync state for %s: %v", resource, err)
		}
		rows, err := recordRepo.Count(ctx, resource)
		if err != nil {
			log.Fatalf("count rows for %s: %v", resource, err)
		}

		if state == nil {
			fmt.Printf("%-14s never synced (%d local rows)\n", resource, rows)
			continue
		}

		cursor := "none"
		switch {
		case state.LastUpdatedAt != nil:
			cursor = "updated_at=" + state.LastUpdatedAt.Format(time.RFC3339)
		case state.LastID != nil:
			cursor = fmt.Sprintf("id=%d", *state.LastID)
		}
		fmt.Printf("%-14s %s at %s, total=%d, local=%d, cursor=%s\n",
			resource, state.SyncType, state.SyncedAt.Format(time.RFC3339),
			state.TotalRecords, rows, cursor)
	}
}

func parseDates(start, end string) (syncer.RunOptions, error) {
	var opts syncer.RunOptions
	if start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			return opts, fmt.Errorf("parse -start-date: %w", err)
		}
		opts.StartDate = &t
	}
	if end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			return opts, fmt.Errorf("parse -end-date: %w", err)
		}
		opts.EndDate = &t
	}
	return opts, nil
}
