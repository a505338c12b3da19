package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"vitalsync/internal/config"
	"vitalsync/internal/metrics"
	"vitalsync/internal/platform"
	"vitalsync/internal/syncer"
	"vitalsync/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	duration := flag.String("duration", syncer.DefaultDuration, "sync window (today, 24h, 3d, 7d, 30d, 90d)")
	metricList := flag.String("metrics", "", "comma-separated record types to sync (default: all)")
	dryRun := flag.Bool("dry-run", false, "read and transform but don't upload")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("vitalsync-sync", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if !syncer.ValidDuration(*duration) {
		fmt.Fprintf(os.Stderr, "Error: invalid duration %q (valid: %s)\n",
			*duration, strings.Join(syncer.Durations, ", "))
		os.Exit(1)
	}

	catalog := metrics.DefaultCatalog()
	enabled, err := resolveEnabled(catalog, *metricList)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	platformClient := platform.NewClient(cfg.Platform.URL, cfg.Platform.Timeout())
	reader := platform.NewReader(platformClient, log)

	var client syncer.UploadClient = upload.NewClient(cfg.Remote.URL, cfg.Remote.APIKey)
	if *dryRun {
		log.Info("DRY RUN mode — records will be read and transformed but not uploaded")
		client = dryRunClient{log: log}
	}

	engine := syncer.New(reader, client, catalog, syncer.Options{
		DedupeSources: cfg.Sync.Dedupe(),
	}, log)

	res := engine.Sync(context.Background(), *duration, enabled)
	printResult(res)
	if !res.Success {
		os.Exit(1)
	}
}

// resolveEnabled maps the -metrics flag onto the catalog. Empty means every
// catalog metric.
func resolveEnabled(catalog []metrics.Config, list string) (map[string]bool, error) {
	enabled := make(map[string]bool, len(catalog))
	if list == "" {
		for _, cfg := range catalog {
			enabled[cfg.RecordType] = true
		}
		return enabled, nil
	}

	known := make(map[string]bool, len(catalog))
	for _, cfg := range catalog {
		known[cfg.RecordType] = true
	}
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !known[name] {
			return nil, fmt.Errorf("unknown record type %q", name)
		}
		enabled[name] = true
	}
	if len(enabled) == 0 {
		return nil, fmt.Errorf("no record types selected")
	}
	return enabled, nil
}

// dryRunClient stands in for the remote service: it reports the batch it
// would have sent and succeeds.
type dryRunClient struct {
	log *slog.Logger
}

func (c dryRunClient) SyncHealthData(ctx context.Context, batch []any) (json.RawMessage, error) {
	c.log.Info("dry run: skipping upload", "records", len(batch))
	return json.RawMessage(`{"dry_run":true}`), nil
}

func printResult(res *syncer.Result) {
	fmt.Println()
	fmt.Println("=== Sync Summary ===")
	fmt.Printf("  Sync ID:      %s\n", res.ID)
	fmt.Printf("  Window:       %s — %s (%s)\n",
		res.WindowStart.Format("2006-01-02 15:04"),
		res.WindowEnd.Format("2006-01-02 15:04"),
		res.Duration)
	fmt.Printf("  Records:      %d\n", res.BatchSize)
	fmt.Printf("  Success:      %v\n", res.Success)
	fmt.Printf("  Message:      %s\n", res.Message)
	if res.Error != "" {
		fmt.Printf("  Error:        %s\n", res.Error)
	}

	if len(res.SyncErrors) > 0 {
		fmt.Printf("\n  Metric errors:\n")
		for _, e := range res.SyncErrors {
			fmt.Printf("    - %s: %s\n", e.Type, e.Error)
		}
	}
	fmt.Println()
}
